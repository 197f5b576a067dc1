package chunk

import (
	"fmt"
	"strings"
	"testing"

	"github.com/calyptra/vecstage/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wordTokens counts one token per word, keeping test arithmetic exact.
func wordTokens(text string) int {
	return len(strings.Fields(text))
}

func newTestAssembler(t *testing.T, min, max int) *Assembler {
	t.Helper()
	a, err := NewAssembler(Config{MinTokens: min, MaxTokens: max},
		WithTokenEstimator(wordTokens))
	require.NoError(t, err)
	return a
}

// words builds a paragraph of n distinct words.
func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(parts, " ")
}

func TestNewAssembler_InvalidConfig(t *testing.T) {
	_, err := NewAssembler(Config{MinTokens: 0, MaxTokens: 100})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewAssembler(Config{MinTokens: 100, MaxTokens: 100})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewAssembler(DefaultConfig(), WithTokenEstimator(nil))
	assert.ErrorIs(t, err, ErrNilEstimator)
}

func TestAssemble_ShortDocumentIsOneChunk(t *testing.T) {
	a := newTestAssembler(t, 300, 600)
	doc := core.DocumentID("docs", "https://example.com/short")

	blocks := []core.Block{
		{Kind: core.BlockHeading, Level: 1, Text: "# Overview"},
		{Kind: core.BlockParagraph, Text: words(250)},
	}

	chunks := a.Assemble(doc, blocks)
	require.Len(t, chunks, 1, "a document below the minimum still produces one chunk at EOF")
	assert.Equal(t, 0, chunks[0].Ordinal)
	assert.Len(t, chunks[0].Blocks, 2)
}

func TestAssemble_GreedyAccumulationWithinRange(t *testing.T) {
	a := newTestAssembler(t, 30, 60)
	doc := core.DocumentID("docs", "https://example.com/page")

	blocks := []core.Block{
		{Kind: core.BlockParagraph, Text: words(25)},
		{Kind: core.BlockParagraph, Text: words(25)},
		{Kind: core.BlockParagraph, Text: words(25)},
	}

	chunks := a.Assemble(doc, blocks)
	require.Len(t, chunks, 2)
	assert.Equal(t, 50, chunks[0].Tokens, "first chunk takes two blocks")
	assert.Equal(t, 25, chunks[1].Tokens)
	assert.Equal(t, 0, chunks[0].Ordinal)
	assert.Equal(t, 1, chunks[1].Ordinal)
}

func TestAssemble_OversizedAtomicBlockShipsWhole(t *testing.T) {
	a := newTestAssembler(t, 30, 60)
	doc := core.DocumentID("docs", "https://example.com/table")

	rows := make([]string, 80)
	for i := range rows {
		rows[i] = fmt.Sprintf("| row%d | value%d |", i, i)
	}
	table := core.Block{Kind: core.BlockTable, Text: strings.Join(rows, "\n")}

	chunks := a.Assemble(doc, []core.Block{table})
	require.Len(t, chunks, 1)
	assert.Greater(t, chunks[0].Tokens, 60, "atomic block exceeds the range rather than splitting")
	assert.Equal(t, table.Text, chunks[0].Text)
}

func TestAssemble_OversizedParagraphSplitsAtSentences(t *testing.T) {
	a := newTestAssembler(t, 10, 20)
	doc := core.DocumentID("docs", "https://example.com/long")

	var sentences []string
	for i := 0; i < 10; i++ {
		sentences = append(sentences, fmt.Sprintf("Sentence number %d has exactly seven words here.", i))
	}
	para := core.Block{Kind: core.BlockParagraph, Text: strings.Join(sentences, " ")}

	chunks := a.Assemble(doc, []core.Block{para})
	require.Greater(t, len(chunks), 1, "an oversized paragraph must split")
	for _, c := range chunks {
		// Pieces end on sentence boundaries.
		assert.True(t, strings.HasSuffix(strings.TrimSpace(c.Text), "."),
			"chunk should end at a sentence boundary: %q", c.Text)
	}
}

func TestAssemble_AbsorbsSmallBlockInsteadOfClosingUndersized(t *testing.T) {
	a := newTestAssembler(t, 30, 60)
	doc := core.DocumentID("docs", "https://example.com/absorb")

	blocks := []core.Block{
		{Kind: core.BlockParagraph, Text: words(35)},
		{Kind: core.BlockListGroup, Text: "- one two three\n- four five six\n" + strings.Join(strings.Fields(words(24)), " ")},
	}
	// 35 + ~30 exceeds max; the open chunk is above min, so it closes clean.
	chunks := a.Assemble(doc, blocks)
	require.Len(t, chunks, 2)

	undersized := []core.Block{
		{Kind: core.BlockParagraph, Text: words(20)},
		{Kind: core.BlockParagraph, Text: words(25)},
		{Kind: core.BlockParagraph, Text: words(25)},
	}
	// 20+25 fits. Adding the third exceeds max while the chunk is still
	// (45) above min, so it closes; no absorption needed.
	chunks = a.Assemble(doc, undersized)
	require.Len(t, chunks, 2)
	assert.Equal(t, 45, chunks[0].Tokens)

	tight := newTestAssembler(t, 50, 60)
	absorb := []core.Block{
		{Kind: core.BlockParagraph, Text: words(45)},
		{Kind: core.BlockParagraph, Text: words(20)},
	}
	// 45 is below min and the next block (20 <= min) would overflow max:
	// absorbed rather than closing an undersized chunk.
	chunks = tight.Assemble(doc, absorb)
	require.Len(t, chunks, 1)
	assert.Equal(t, 65, chunks[0].Tokens)
}

func TestAssemble_Deterministic(t *testing.T) {
	a := newTestAssembler(t, 30, 60)
	doc := core.DocumentID("docs", "https://example.com/stable")

	blocks := []core.Block{
		{Kind: core.BlockHeading, Level: 2, Text: "## Setup"},
		{Kind: core.BlockParagraph, Text: words(40)},
		{Kind: core.BlockCode, Text: "```\nmake install\n```"},
		{Kind: core.BlockParagraph, Text: words(40)},
	}

	first := a.Assemble(doc, blocks)
	second := a.Assemble(doc, blocks)
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Id, second[i].Id, "chunk IDs must be stable across runs")
		assert.Equal(t, first[i].ContentHash, second[i].ContentHash)
	}
}

func TestAssemble_EveryBlockLandsExactlyOnce(t *testing.T) {
	a := newTestAssembler(t, 30, 60)
	doc := core.DocumentID("docs", "https://example.com/coverage")

	blocks := []core.Block{
		{Kind: core.BlockHeading, Level: 1, Text: "# Title"},
		{Kind: core.BlockParagraph, Text: words(40)},
		{Kind: core.BlockListGroup, Text: "- alpha item\n- beta item"},
		{Kind: core.BlockParagraph, Text: words(40)},
		{Kind: core.BlockTable, Text: "| a | b |\n| 1 | 2 |"},
	}

	chunks := a.Assemble(doc, blocks)
	var total int
	for _, c := range chunks {
		total += len(c.Blocks)
	}
	assert.Equal(t, len(blocks), total, "blocks must partition across chunks")

	for i, c := range chunks {
		assert.Equal(t, i, c.Ordinal)
		assert.Equal(t, doc, c.DocumentId)
	}
}

func TestAssemble_Empty(t *testing.T) {
	a := newTestAssembler(t, 30, 60)
	doc := core.DocumentID("docs", "https://example.com/empty")
	assert.Empty(t, a.Assemble(doc, nil))
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 4, EstimateTokens("one two three")) // ceil(3 * 4/3)
	assert.Equal(t, 8, EstimateTokens(words(6)))        // ceil(6 * 4/3)
}
