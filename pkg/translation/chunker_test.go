package translation

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkEmptyText(t *testing.T) {
	c := NewChunker(100, 0)
	assert.Empty(t, c.Chunk(""))
}

func TestChunkTextThatFitsIsReturnedWhole(t *testing.T) {
	c := NewChunker(100, 0)
	chunks := c.Chunk("short paragraph.\n\nanother one.")
	assert.Equal(t, []string{"short paragraph.\n\nanother one."}, chunks)
}

func TestChunkSplitsOnParagraphBoundaries(t *testing.T) {
	para := strings.Repeat("word ", 12) // ~60 runes
	text := para + "\n\n" + para + "\n\n" + para

	c := NewChunker(100, 0)
	chunks := c.Chunk(text)

	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(chunk), 100)
		assert.NotContains(t, chunk, "  ", "paragraph content stays intact")
	}
}

func TestChunkSplitsOversizedParagraphOnSentences(t *testing.T) {
	sentence := "This is a sentence about nothing in particular. "
	text := strings.TrimSpace(strings.Repeat(sentence, 10))

	c := NewChunker(120, 0)
	chunks := c.Chunk(text)

	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(chunk), 120)
		assert.True(t, strings.HasSuffix(chunk, "."), "chunks end on sentence boundaries")
	}
}

func TestChunkHardSplitsGiantSentence(t *testing.T) {
	text := strings.Repeat("a", 250)

	c := NewChunker(100, 0)
	chunks := c.Chunk(text)

	require.Len(t, chunks, 3)
	assert.Equal(t, 100, utf8.RuneCountInString(chunks[0]))
	assert.Equal(t, 50, utf8.RuneCountInString(chunks[2]))
}

func TestChunkNothingIsLost(t *testing.T) {
	var paras []string
	for i := 0; i < 8; i++ {
		paras = append(paras, strings.Repeat("content ", 10))
	}
	text := strings.TrimSpace(strings.Join(paras, "\n\n"))

	c := NewChunker(200, 0)
	joined := strings.Join(c.Chunk(text), "\n\n")

	assert.Equal(t, strings.Fields(text), strings.Fields(joined))
}

func TestChunkOverlapCarriesTail(t *testing.T) {
	para1 := strings.Repeat("alpha ", 15)
	para2 := strings.Repeat("beta ", 15)
	text := strings.TrimSpace(para1) + "\n\n" + strings.TrimSpace(para2)

	c := NewChunker(95, 20)
	chunks := c.Chunk(text)

	require.Len(t, chunks, 2)
	assert.Contains(t, chunks[1], "alpha", "second chunk starts with the tail of the first")
}

func TestNewChunkerDefaults(t *testing.T) {
	c := NewChunker(0, -1)
	cfg := c.Config()
	assert.Equal(t, 1000, cfg.Size)
	assert.Equal(t, 0, cfg.Overlap)

	c = NewChunker(100, 200)
	assert.Equal(t, 10, c.Config().Overlap, "overlap larger than size collapses to a tenth")
}

func TestSplitSentencesHandlesCJKTerminators(t *testing.T) {
	sentences := splitSentences("第一句。 第二句！ 第三句？")
	assert.Len(t, sentences, 3)
}
