package translation

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// ChunkConfig bounds how source text is split before it is sent to a
// provider.
type ChunkConfig struct {
	// Size is the maximum chunk length in runes.
	Size int
	// Overlap carries trailing runes of one chunk into the next so
	// sentence-level context survives the split.
	Overlap int
}

// Chunker splits text into provider-sized pieces.
type Chunker interface {
	Chunk(text string) []string
	Config() ChunkConfig
}

type chunker struct {
	config ChunkConfig
}

// NewChunker creates a chunker with the given size and overlap. Invalid
// values fall back to safe defaults.
func NewChunker(size, overlap int) Chunker {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 10
	}
	return &chunker{config: ChunkConfig{Size: size, Overlap: overlap}}
}

// Chunk splits text on paragraph boundaries first, then sentences for
// oversized paragraphs. Text that already fits is returned whole.
func (c *chunker) Chunk(text string) []string {
	if text == "" {
		return []string{}
	}
	if utf8.RuneCountInString(text) <= c.config.Size {
		return []string{text}
	}
	return c.combine(splitParagraphs(text, c.config.Size))
}

func (c *chunker) Config() ChunkConfig {
	return c.config
}

// splitParagraphs splits on blank lines. A single paragraph larger than
// the chunk size is re-split on sentence boundaries.
func splitParagraphs(text string, size int) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	parts := strings.Split(text, "\n\n")
	paragraphs := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			paragraphs = append(paragraphs, part)
		}
	}

	if len(paragraphs) == 1 && utf8.RuneCountInString(paragraphs[0]) > size {
		return splitSentences(paragraphs[0])
	}
	return paragraphs
}

// splitSentences splits on sentence terminators followed by whitespace.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i, r := range runes {
		current.WriteRune(r)
		if isSentenceEnd(r) {
			if i+1 >= len(runes) || unicode.IsSpace(runes[i+1]) {
				if s := strings.TrimSpace(current.String()); s != "" {
					sentences = append(sentences, s)
				}
				current.Reset()
			}
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?' || r == '。' || r == '！' || r == '？'
}

// combine packs pieces into chunks no larger than the configured size,
// carrying the overlap tail between chunks.
func (c *chunker) combine(pieces []string) []string {
	if len(pieces) == 0 {
		return []string{}
	}

	var chunks []string
	var current strings.Builder
	currentSize := 0

	flush := func() {
		if current.Len() == 0 {
			return
		}
		chunk := strings.TrimSpace(current.String())
		chunks = append(chunks, chunk)
		current.Reset()
		currentSize = 0

		if c.config.Overlap > 0 {
			tail := overlapTail(chunk, c.config.Overlap)
			if tail != "" {
				current.WriteString(tail)
				current.WriteString("\n\n")
				currentSize = utf8.RuneCountInString(tail)
			}
		}
	}

	for _, piece := range pieces {
		pieceSize := utf8.RuneCountInString(piece)

		if pieceSize > c.config.Size {
			flush()
			chunks = append(chunks, c.splitLarge(piece)...)
			continue
		}
		if currentSize > 0 && currentSize+pieceSize+2 > c.config.Size {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
			currentSize += 2
		}
		current.WriteString(piece)
		currentSize += pieceSize
	}
	if current.Len() > 0 {
		chunks = append(chunks, strings.TrimSpace(current.String()))
	}
	return chunks
}

// splitLarge cuts an oversized piece on sentence boundaries, falling back
// to a hard rune cut for a single giant sentence.
func (c *chunker) splitLarge(text string) []string {
	sentences := splitSentences(text)
	if len(sentences) <= 1 {
		return hardSplit(text, c.config.Size)
	}

	var chunks []string
	var current strings.Builder
	currentSize := 0
	for _, sentence := range sentences {
		size := utf8.RuneCountInString(sentence)
		if size > c.config.Size {
			if current.Len() > 0 {
				chunks = append(chunks, strings.TrimSpace(current.String()))
				current.Reset()
				currentSize = 0
			}
			chunks = append(chunks, hardSplit(sentence, c.config.Size)...)
			continue
		}
		if currentSize > 0 && currentSize+size+1 > c.config.Size {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
			currentSize = 0
		}
		if current.Len() > 0 {
			current.WriteString(" ")
			currentSize++
		}
		current.WriteString(sentence)
		currentSize += size
	}
	if current.Len() > 0 {
		chunks = append(chunks, strings.TrimSpace(current.String()))
	}
	return chunks
}

func hardSplit(text string, size int) []string {
	runes := []rune(text)
	var chunks []string
	for len(runes) > 0 {
		n := size
		if n > len(runes) {
			n = len(runes)
		}
		chunks = append(chunks, string(runes[:n]))
		runes = runes[n:]
	}
	return chunks
}

// overlapTail returns the last n runes of a chunk, extended left to the
// nearest word boundary.
func overlapTail(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	tail := runes[len(runes)-n:]
	for i, r := range tail {
		if unicode.IsSpace(r) {
			return strings.TrimSpace(string(tail[i:]))
		}
	}
	return strings.TrimSpace(string(tail))
}
