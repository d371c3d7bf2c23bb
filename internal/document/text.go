package document

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// TextProcessor translates plain text paragraph by paragraph.
type TextProcessor struct{}

func NewTextProcessor() *TextProcessor {
	return &TextProcessor{}
}

func (p *TextProcessor) Format() Format {
	return FormatText
}

// Parse splits the input on blank lines; the first line becomes the
// title.
func (p *TextProcessor) Parse(ctx context.Context, input io.Reader) (*Document, error) {
	source, err := io.ReadAll(input)
	if err != nil {
		return nil, fmt.Errorf("read text: %w", err)
	}

	doc := &Document{Format: FormatText, Source: source}

	normalized := strings.ReplaceAll(string(source), "\r\n", "\n")
	for _, part := range strings.Split(normalized, "\n\n") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		doc.Blocks = append(doc.Blocks, Block{
			Type:         BlockParagraph,
			Content:      part,
			Start:        -1,
			Stop:         -1,
			Translatable: true,
		})
	}

	if len(doc.Blocks) > 0 {
		first := doc.Blocks[0].Content
		if line, _, found := strings.Cut(first, "\n"); found {
			doc.Title = line
		} else {
			doc.Title = first
		}
	}
	return doc, nil
}

// Process translates every paragraph and joins them with blank lines.
func (p *TextProcessor) Process(ctx context.Context, doc *Document, translate TranslateFunc) error {
	parts := make([]string, 0, len(doc.Blocks))
	for i, block := range doc.Blocks {
		translated, err := translate(ctx, block.Content)
		if err != nil {
			return fmt.Errorf("translate paragraph %d: %w", i, err)
		}
		parts = append(parts, translated)
	}
	doc.Content = strings.Join(parts, "\n\n") + "\n"
	return nil
}

// Render writes the processed text.
func (p *TextProcessor) Render(ctx context.Context, doc *Document, output io.Writer) error {
	_, err := io.WriteString(output, processedContent(doc))
	return err
}
