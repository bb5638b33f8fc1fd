// Package reembed regenerates the vectors of stored documents, typically
// after switching embedding models.
//
// Documents are read in batches, their reassembled segment text is embedded
// with retry and exponential backoff, vectors are normalized to unit length
// for cosine similarity search, and progress is written to a terminal-style
// writer.
package reembed
