// Package ingest turns cleaned pages into staged vector records.
//
// Each page is segmented into structural blocks, assembled into chunks with
// deterministic identities, gated against previously embedded content hashes
// and, where changed, embedded and upserted into the dataset's staging
// namespace. Unchanged chunks are skipped without an embedding call, so
// re-running ingestion over an unchanged corpus is a near no-op.
package ingest
