package chunk

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/calyptra/vecstage/core"
	"github.com/calyptra/vecstage/segment"
)

// Default token range for assembled chunks.
const (
	DefaultMinTokens = 300
	DefaultMaxTokens = 600
)

// Config holds the target token range for chunk assembly.
type Config struct {
	MinTokens int
	MaxTokens int
}

// DefaultConfig returns the default chunking configuration.
func DefaultConfig() Config {
	return Config{MinTokens: DefaultMinTokens, MaxTokens: DefaultMaxTokens}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.MinTokens <= 0 {
		return fmt.Errorf("%w: min tokens must be positive", ErrInvalidConfig)
	}
	if c.MaxTokens <= c.MinTokens {
		return fmt.Errorf("%w: max tokens must exceed min tokens", ErrInvalidConfig)
	}
	return nil
}

// Assembler groups structural blocks into token-bounded chunks without
// breaking structural integrity: atomic blocks are never split, paragraph
// text is divided only at sentence boundaries, and chunk identities are
// derived deterministically from content and document-scoped position.
type Assembler struct {
	config   Config
	estimate TokenEstimator
	logger   *slog.Logger
}

// Option configures an Assembler.
type Option func(*Assembler) error

// WithTokenEstimator replaces the default token estimator.
func WithTokenEstimator(estimate TokenEstimator) Option {
	return func(a *Assembler) error {
		if estimate == nil {
			return ErrNilEstimator
		}
		a.estimate = estimate
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assembler) error {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger
		return nil
	}
}

// NewAssembler creates a new assembler with the given token range.
func NewAssembler(config Config, opts ...Option) (*Assembler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	a := &Assembler{
		config:   config,
		estimate: EstimateTokens,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Assemble walks blocks in source order and produces the document's chunks.
//
// Every block lands in exactly one chunk. Blocks accumulate greedily until
// adding the next one would exceed MaxTokens; the open chunk then closes if
// it has reached MinTokens, or absorbs a small next block to avoid closing
// undersized. An atomic block larger than MaxTokens becomes its own
// oversized chunk. End of document always closes the open chunk, whatever
// its size.
//
// Reprocessing identical document content yields the same chunks with the
// same IDs in the same order.
func (a *Assembler) Assemble(documentID core.ID, blocks []core.Block) []core.Chunk {
	pieces := a.splitOversized(blocks)

	var (
		chunks  []core.Chunk
		open    []core.Block
		tokens  int
		ordinal int
	)

	closeOpen := func() {
		if len(open) == 0 {
			return
		}
		chunks = append(chunks, a.buildChunk(documentID, ordinal, open))
		ordinal++
		open = nil
		tokens = 0
	}

	for _, block := range pieces {
		blockTokens := a.estimate(block.Text)

		if len(open) == 0 {
			open = append(open, block)
			tokens = blockTokens
			if blockTokens > a.config.MaxTokens {
				// A single block beyond the range ships whole; splitting it
				// would break meaning, so correctness wins over sizing.
				a.logger.Debug("oversized block becomes its own chunk",
					"kind", block.Kind.String(), "tokens", blockTokens)
				closeOpen()
			}
			continue
		}

		if tokens+blockTokens <= a.config.MaxTokens {
			open = append(open, block)
			tokens += blockTokens
			continue
		}

		if tokens < a.config.MinTokens && blockTokens <= a.config.MinTokens {
			// Closing now would leave the chunk undersized and the next
			// block is small: absorb it even though the chunk goes over.
			open = append(open, block)
			closeOpen()
			continue
		}

		closeOpen()
		open = append(open, block)
		tokens = blockTokens
		if blockTokens > a.config.MaxTokens {
			closeOpen()
		}
	}

	closeOpen()
	return chunks
}

// splitOversized divides non-atomic blocks that alone exceed MaxTokens into
// sentence-bounded pieces. Atomic blocks pass through untouched.
func (a *Assembler) splitOversized(blocks []core.Block) []core.Block {
	var out []core.Block
	for _, block := range blocks {
		if block.Atomic() || a.estimate(block.Text) <= a.config.MaxTokens {
			out = append(out, block)
			continue
		}

		sentences := segment.SplitSentences(block.Text)
		if len(sentences) <= 1 {
			// One unbreakable sentence; never split mid-sentence.
			out = append(out, block)
			continue
		}

		var (
			piece  []string
			burden int
		)
		for _, sentence := range sentences {
			n := a.estimate(sentence)
			if burden > 0 && burden+n > a.config.MaxTokens {
				out = append(out, core.Block{Kind: block.Kind, Level: block.Level,
					Text: strings.Join(piece, " ")})
				piece = piece[:0]
				burden = 0
			}
			piece = append(piece, strings.TrimSpace(sentence))
			burden += n
		}
		if len(piece) > 0 {
			out = append(out, core.Block{Kind: block.Kind, Level: block.Level,
				Text: strings.Join(piece, " ")})
		}
	}
	return out
}

func (a *Assembler) buildChunk(documentID core.ID, ordinal int, blocks []core.Block) core.Chunk {
	texts := make([]string, len(blocks))
	for i, block := range blocks {
		texts[i] = block.Text
	}
	text := strings.Join(texts, "\n\n")
	normalized := core.NormalizeText(text)

	return core.Chunk{
		Id:          core.ChunkID(documentID, ordinal, normalized),
		DocumentId:  documentID,
		Ordinal:     ordinal,
		Blocks:      append([]core.Block(nil), blocks...),
		Text:        text,
		Tokens:      a.estimate(text),
		ContentHash: core.HashText(text),
	}
}
