// Package storage defines the key-value collaborator contracts: content
// hashes for the embedding gate, per-URL document state, persisted
// evaluation results, and the per-dataset promotion lock.
//
// All cross-invocation coordination state lives behind these interfaces;
// pipeline tasks themselves are stateless and can run concurrently. The
// badger subpackage implements them on BadgerDB.
package storage
