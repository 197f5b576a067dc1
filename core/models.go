package core

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// All IDs are derived deterministically from content, never from counters.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// Identical content always produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// DocumentID derives the ID for a document from its dataset and canonical URL.
func DocumentID(dataset, url string) ID {
	return IDFromContent(dataset + "#" + url)
}

// ChunkID derives a chunk's identity from its owning document, its ordinal
// position within that document, and its normalized text. Hashing the text
// (not position alone) means inserting a block earlier in a document cannot
// silently collide with unrelated later chunks; the ordinal only breaks ties
// between chunks with identical content.
func ChunkID(documentID ID, ordinal int, normalizedText string) ID {
	return IDFromContent(fmt.Sprintf("%d:%d:%s", documentID, ordinal, normalizedText))
}

// VectorID derives the vector-store identity for a chunk within a dataset.
// Re-ingesting unchanged content yields the same VectorID, so upserts
// overwrite instead of duplicating.
func VectorID(dataset string, chunkID ID) ID {
	return IDFromContent(fmt.Sprintf("%s:%d", dataset, chunkID))
}

// Dataset is a logical grouping of content under one source domain.
// Staging and production namespaces isolate unvalidated data from serving data.
type Dataset struct {
	Name       string
	RootURLs   []string
	Staging    string // staging namespace in the vector store
	Production string // production namespace in the vector store
}

// DocumentStatus tracks where a document is in the pipeline.
type DocumentStatus int

const (
	// DocumentScraped means raw content is available but not yet processed.
	DocumentScraped DocumentStatus = iota + 1
	// DocumentProcessed means chunks for the current content hash are staged.
	DocumentProcessed
)

// Document is one fetched page. It is re-hashed on every re-crawl and
// superseded, never deleted, when its content changes.
type Document struct {
	Id          ID
	Dataset     string
	URL         string
	RawLocation string // where the upstream fetcher stored the raw page
	ContentHash string // hash of the cleaned text
	Status      DocumentStatus
	Vectors     []ID // vector IDs staged for the current content hash
	UpdatedAt   time.Time
}

// BlockKind identifies the structural type of a block.
type BlockKind int

const (
	BlockHeading BlockKind = iota + 1
	BlockParagraph
	BlockListGroup
	BlockTable
	BlockCode
)

func (k BlockKind) String() string {
	switch k {
	case BlockHeading:
		return "heading"
	case BlockParagraph:
		return "paragraph"
	case BlockListGroup:
		return "list-item-group"
	case BlockTable:
		return "table"
	case BlockCode:
		return "code-block"
	default:
		return fmt.Sprintf("block(%d)", int(k))
	}
}

// Block is a typed structural node produced by the segmenter.
// Blocks cover the source text in order, with no gaps or overlaps.
type Block struct {
	Kind  BlockKind
	Level int // heading level; zero for other kinds
	Text  string
}

// Atomic reports whether the block must never be split across chunks.
// Enumerated list groups, tables and fenced code blocks lose their meaning
// when divided.
func (b Block) Atomic() bool {
	return b.Kind == BlockListGroup || b.Kind == BlockTable || b.Kind == BlockCode
}

// Chunk is a contiguous, ordered run of blocks sized to a target token range.
type Chunk struct {
	Id          ID
	DocumentId  ID
	Ordinal     int // position within the owning document
	Blocks      []Block
	Text        string
	Tokens      int    // token count estimate
	ContentHash string // hash of whitespace-normalized text
}

// GoldenQuery is an operator-curated retrieval check: the query must surface
// at least one result whose citation contains the expected substring.
type GoldenQuery struct {
	Query            string `yaml:"query"`
	ExpectedCitation string `yaml:"expected_citation"`
}

// QueryCheck is the outcome of one golden query during evaluation.
type QueryCheck struct {
	Query  string
	Passed bool
	Warned bool // matched, but only weakly; logged, non-blocking
	Reason string
}

// EvaluationResult records a promotion-gate decision for a dataset.
// Results are immutable once created; a new attempt supersedes the last.
type EvaluationResult struct {
	Id              string // unique per attempt
	Dataset         string
	Passed          bool
	Checks          []QueryCheck
	IntegrityIssues []string
	CreatedAt       time.Time
}

// Reasons returns the human-readable failure reasons, one per failed check
// or integrity issue. Empty when the evaluation passed.
func (r *EvaluationResult) Reasons() []string {
	var reasons []string
	for _, check := range r.Checks {
		if !check.Passed {
			reasons = append(reasons, fmt.Sprintf("golden query %q: %s", check.Query, check.Reason))
		}
	}
	reasons = append(reasons, r.IntegrityIssues...)
	return reasons
}
