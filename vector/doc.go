// Package vector defines the vector store collaborator contract.
//
// The pipeline only issues upsert, query, delete and list operations; the
// store itself is external. Two implementations ship with the module: an
// in-memory brute-force store for tests and local runs, and a minimal REST
// client for Qdrant.
package vector
