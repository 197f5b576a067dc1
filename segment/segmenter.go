package segment

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/calyptra/vecstage/core"
)

// Segmenter parses cleaned document text into an ordered sequence of
// structural blocks covering the entire input with no gaps or overlaps.
//
// The input contract is plain text with recoverable structural markers:
// markdown-style headings, list markers, table pipes and code fences. When
// markers are absent the segmenter degrades to paragraph-only blocks, and
// malformed markup degrades to a plain paragraph at block granularity rather
// than failing the document.
type Segmenter struct {
	logger *slog.Logger
}

// Option configures a Segmenter.
type Option func(*Segmenter)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Segmenter) {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
	}
}

// NewSegmenter creates a new segmenter.
func NewSegmenter(opts ...Option) *Segmenter {
	s := &Segmenter{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// state identifies what kind of block the segmenter is currently collecting.
// Modeling the marker handling as an explicit state machine keeps the
// open/close rules for list groups and tables testable in isolation.
type state int

const (
	stateNone state = iota
	stateParagraph
	stateList
	stateTable
	stateCode
)

var (
	headingRe    = regexp.MustCompile(`^(#{1,6})\s+\S`)
	setextH1Re   = regexp.MustCompile(`^={3,}\s*$`)
	setextH2Re   = regexp.MustCompile(`^-{3,}\s*$`)
	bulletItemRe = regexp.MustCompile(`^[\*\-\+]\s+\S`)
	orderedRe    = regexp.MustCompile(`^(\d+[\.\)]|[a-zA-Z]\))\s+\S`)
	fenceRe      = regexp.MustCompile("^```")
)

// Segment splits text into ordered structural blocks.
func (s *Segmenter) Segment(text string) []core.Block {
	lines := strings.Split(text, "\n")

	var (
		blocks  []core.Block
		current []string
		st      = stateNone
	)

	flush := func(kind core.BlockKind, level int) {
		joined := strings.Join(current, "\n")
		if strings.TrimSpace(joined) != "" {
			blocks = append(blocks, core.Block{Kind: kind, Level: level, Text: joined})
		}
		current = current[:0]
		st = stateNone
	}

	closeCurrent := func() {
		switch st {
		case stateParagraph:
			flush(core.BlockParagraph, 0)
		case stateList:
			flush(core.BlockListGroup, 0)
		case stateTable:
			if len(current) < 2 {
				// A lone pipe row is not a table that can be closed;
				// degrade to a plain paragraph.
				s.logger.Debug("degrading single-row table to paragraph")
				flush(core.BlockParagraph, 0)
			} else {
				flush(core.BlockTable, 0)
			}
		case stateCode:
			// Unclosed fence: the remainder could not be closed as code,
			// so it degrades to a paragraph.
			s.logger.Debug("degrading unclosed code fence to paragraph")
			flush(core.BlockParagraph, 0)
		}
	}

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		if st == stateCode {
			current = append(current, line)
			if fenceRe.MatchString(trimmed) {
				flush(core.BlockCode, 0)
			}
			continue
		}

		switch {
		case trimmed == "":
			closeCurrent()

		case fenceRe.MatchString(trimmed):
			closeCurrent()
			st = stateCode
			current = append(current, line)

		case headingRe.MatchString(trimmed):
			closeCurrent()
			level := len(headingRe.FindStringSubmatch(trimmed)[1])
			blocks = append(blocks, core.Block{Kind: core.BlockHeading, Level: level, Text: line})

		case isTableRow(trimmed):
			if st != stateTable {
				closeCurrent()
				st = stateTable
			}
			current = append(current, line)

		case bulletItemRe.MatchString(trimmed) || orderedRe.MatchString(trimmed):
			if st != stateList {
				closeCurrent()
				st = stateList
			}
			current = append(current, line)

		case i+1 < len(lines) && st != stateList &&
			(setextH1Re.MatchString(strings.TrimSpace(lines[i+1])) ||
				setextH2Re.MatchString(strings.TrimSpace(lines[i+1]))):
			// Setext heading: this line is underlined by the next one.
			closeCurrent()
			level := 1
			if setextH2Re.MatchString(strings.TrimSpace(lines[i+1])) {
				level = 2
			}
			blocks = append(blocks, core.Block{Kind: core.BlockHeading, Level: level, Text: line})
			i++ // consume the underline

		default:
			if st == stateList && isContinuation(line) {
				// Indented continuation of the previous list item stays in
				// the group.
				current = append(current, line)
				continue
			}
			if st != stateParagraph {
				closeCurrent()
				st = stateParagraph
			}
			current = append(current, line)
		}
	}

	closeCurrent()
	return blocks
}

// isTableRow matches pipe-delimited table rows.
func isTableRow(trimmed string) bool {
	return strings.HasPrefix(trimmed, "|") && strings.Count(trimmed, "|") >= 2
}

// isContinuation matches indented lines that continue a list item.
func isContinuation(line string) bool {
	return strings.HasPrefix(line, "  ") || strings.HasPrefix(line, "\t")
}
