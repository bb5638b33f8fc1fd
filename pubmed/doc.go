// Package pubmed retrieves abstracts from PubMed through the NCBI Entrez
// E-utilities.
//
// Search pages through esearch results and returns every matching PMID
// once. Fetch downloads records in MEDLINE text format with efetch and
// converts them to core.Document values. Requests are spaced by a pacing
// interval to stay within NCBI's rate limits (three requests per second
// without an API key) and transient failures are retried with backoff.
package pubmed
