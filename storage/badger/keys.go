package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/calyptra/vecstage/core"
)

// Key prefixes for different data types
const (
	vectorHashPrefix    = "vechash"
	documentPrefix      = "docrec"
	documentDSPrefix    = "docds"
	evaluationPrefix    = "evalres"
	promotionLockPrefix = "prlock"
)

// makeVectorHashKey generates a key for a vector's stored content hash.
func makeVectorHashKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", vectorHashPrefix, id))
}

// makeDocumentKey generates a key for a document record by ID.
// Document IDs derive from (dataset, URL), so lookups need no extra index.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", documentPrefix, id))
}

// makeDocumentDatasetKey generates a composite key for the per-dataset index.
// Format: prefix:dataset:id
func makeDocumentDatasetKey(dataset string, id core.ID) []byte {
	prefix := documentDSPrefix + ":" + dataset + ":"
	prefixBytes := []byte(prefix)
	buf := make([]byte, len(prefixBytes)+8)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeDocumentDatasetPrefix generates the scan prefix for a dataset's documents.
func makeDocumentDatasetPrefix(dataset string) []byte {
	return []byte(documentDSPrefix + ":" + dataset + ":")
}

// makeEvaluationKey generates the key holding a dataset's latest evaluation.
func makeEvaluationKey(dataset string) []byte {
	return []byte(fmt.Sprintf("%s:%s", evaluationPrefix, dataset))
}

// makePromotionLockKey generates the key for a dataset's promotion lock.
func makePromotionLockKey(dataset string) []byte {
	return []byte(fmt.Sprintf("%s:%s", promotionLockPrefix, dataset))
}
