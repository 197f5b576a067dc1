// Package chunk assembles structural blocks into token-bounded chunks.
//
// Chunk boundaries fall only between non-atomic block boundaries or at
// document edges; a chunk never begins or ends mid-sentence. Chunk IDs are
// derived from document identity, position and normalized content, so
// reprocessing unchanged text is idempotent end to end.
package chunk
