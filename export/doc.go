// Package export writes stored documents out of the store: paged JSON files
// that can be loaded back with ReadJSONParts, and an XLSX workbook with one
// row per reconciled entity.
package export
