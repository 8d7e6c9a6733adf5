// Package rf2 reads SNOMED CT RF2 release files.
//
// It provides release-directory discovery (classifying files by their RF2
// filename prefixes) and a generic streaming reader that validates headers
// strictly, decodes tab-separated rows into typed records, applies per-row
// filters, and yields records one at a time or in batches.
//
// The reader is the only layer that allocates record values; the store and
// everything above it only index what the reader produced.
package rf2
