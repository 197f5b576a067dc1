package segment

import (
	"strings"
	"testing"

	"github.com/calyptra/vecstage/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegment_PlainParagraphs(t *testing.T) {
	s := NewSegmenter()
	text := "First paragraph here.\n\nSecond paragraph\nspanning two lines.\n\nThird."

	blocks := s.Segment(text)
	require.Len(t, blocks, 3)
	for _, b := range blocks {
		assert.Equal(t, core.BlockParagraph, b.Kind)
	}
	assert.Equal(t, "Second paragraph\nspanning two lines.", blocks[1].Text)
}

func TestSegment_Headings(t *testing.T) {
	s := NewSegmenter()
	text := "# Title\n\nIntro text.\n\n## Section\n\nBody."

	blocks := s.Segment(text)
	require.Len(t, blocks, 4)
	assert.Equal(t, core.BlockHeading, blocks[0].Kind)
	assert.Equal(t, 1, blocks[0].Level)
	assert.Equal(t, core.BlockHeading, blocks[2].Kind)
	assert.Equal(t, 2, blocks[2].Level)
}

func TestSegment_SetextHeadings(t *testing.T) {
	s := NewSegmenter()
	text := "Main Title\n===\n\nSubtitle\n---\n\nBody text."

	blocks := s.Segment(text)
	require.Len(t, blocks, 3)
	assert.Equal(t, core.BlockHeading, blocks[0].Kind)
	assert.Equal(t, 1, blocks[0].Level)
	assert.Equal(t, core.BlockHeading, blocks[1].Kind)
	assert.Equal(t, 2, blocks[1].Level)
	assert.Equal(t, core.BlockParagraph, blocks[2].Kind)
}

func TestSegment_ListGroupIsOneBlock(t *testing.T) {
	s := NewSegmenter()
	text := "Steps to follow:\n\n1. Download the installer\n2. Run the setup\n3. Restart"

	blocks := s.Segment(text)
	require.Len(t, blocks, 2)
	assert.Equal(t, core.BlockParagraph, blocks[0].Kind)
	assert.Equal(t, core.BlockListGroup, blocks[1].Kind)
	assert.True(t, blocks[1].Atomic())
	assert.Equal(t, 3, len(strings.Split(blocks[1].Text, "\n")))
}

func TestSegment_LetteredListGroup(t *testing.T) {
	s := NewSegmenter()
	text := "a) first option\nb) second option\nc) third option"

	blocks := s.Segment(text)
	require.Len(t, blocks, 1)
	assert.Equal(t, core.BlockListGroup, blocks[0].Kind)
}

func TestSegment_ListContinuationStaysGrouped(t *testing.T) {
	s := NewSegmenter()
	text := "- first item\n  with a continuation line\n- second item"

	blocks := s.Segment(text)
	require.Len(t, blocks, 1)
	assert.Equal(t, core.BlockListGroup, blocks[0].Kind)
	assert.Contains(t, blocks[0].Text, "continuation line")
}

func TestSegment_Table(t *testing.T) {
	s := NewSegmenter()
	text := "| Name | Value |\n| --- | --- |\n| a | 1 |\n| b | 2 |"

	blocks := s.Segment(text)
	require.Len(t, blocks, 1)
	assert.Equal(t, core.BlockTable, blocks[0].Kind)
	assert.True(t, blocks[0].Atomic())
}

func TestSegment_SingleRowTableDegradesToParagraph(t *testing.T) {
	s := NewSegmenter()
	text := "| just one stray row |"

	blocks := s.Segment(text)
	require.Len(t, blocks, 1)
	assert.Equal(t, core.BlockParagraph, blocks[0].Kind)
}

func TestSegment_CodeFence(t *testing.T) {
	s := NewSegmenter()
	text := "Example:\n\n```go\nfunc main() {}\n```\n\nAfter."

	blocks := s.Segment(text)
	require.Len(t, blocks, 3)
	assert.Equal(t, core.BlockCode, blocks[1].Kind)
	assert.Contains(t, blocks[1].Text, "func main()")
}

func TestSegment_UnclosedFenceDegradesToParagraph(t *testing.T) {
	s := NewSegmenter()
	text := "```\nsome code that never closes\nmore lines"

	blocks := s.Segment(text)
	require.Len(t, blocks, 1)
	assert.Equal(t, core.BlockParagraph, blocks[0].Kind)
}

func TestSegment_MarkerlessTextIsParagraphsOnly(t *testing.T) {
	s := NewSegmenter()
	text := "Just prose with no markers at all.\n\nAnother stretch of prose."

	blocks := s.Segment(text)
	require.Len(t, blocks, 2)
	for _, b := range blocks {
		assert.Equal(t, core.BlockParagraph, b.Kind)
		assert.False(t, b.Atomic())
	}
}

func TestSegment_Empty(t *testing.T) {
	s := NewSegmenter()
	assert.Empty(t, s.Segment(""))
	assert.Empty(t, s.Segment("\n\n\n"))
}

func TestSplitSentences(t *testing.T) {
	sentences := SplitSentences("First sentence. Second one! Third? Done.")
	require.Len(t, sentences, 4)
	assert.Equal(t, "First sentence. ", sentences[0])
	assert.Equal(t, "Done.", sentences[3])
}

func TestSplitSentences_AbbreviationNotSplit(t *testing.T) {
	// Lowercase after the period means no boundary.
	sentences := SplitSentences("See e.g. the manual. Then continue.")
	require.Len(t, sentences, 2)
	assert.Equal(t, "Then continue.", sentences[1])
}

func TestSplitSentences_ClosingQuote(t *testing.T) {
	sentences := SplitSentences(`He said "stop." Then left.`)
	require.Len(t, sentences, 2)
}

func TestEndsSentence(t *testing.T) {
	assert.True(t, EndsSentence("This is done."))
	assert.True(t, EndsSentence(`He said "stop."`))
	assert.True(t, EndsSentence("Really?"))
	assert.False(t, EndsSentence("This is not"))
	assert.False(t, EndsSentence(""))
}

func TestStartsSentence(t *testing.T) {
	assert.True(t, StartsSentence("The beginning."))
	assert.True(t, StartsSentence("42 is a number."))
	assert.True(t, StartsSentence("# Heading"))
	assert.False(t, StartsSentence("continuing mid thought"))
	assert.False(t, StartsSentence(""))
}
