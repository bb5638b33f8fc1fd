// Package segment splits abstracts into at most two token-bounded segments so
// each fits a model's input-length limit, and maps detections found in the
// second segment back into document character coordinates.
//
// A document is split at most once, at the token midpoint. Documents longer
// than twice the limit still yield a second segment over the limit; how the
// extractor copes with that is up to the model.
//
// All offsets are character (rune) offsets, never byte offsets.
package segment
