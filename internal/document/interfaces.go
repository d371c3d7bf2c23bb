// Package document parses, translates, and renders the supported input
// formats and writes the assembled ebook.
package document

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Format identifies a document format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatText     Format = "text"
)

// BlockType classifies a parsed block.
type BlockType string

const (
	BlockHeading   BlockType = "heading"
	BlockParagraph BlockType = "paragraph"
	BlockCode      BlockType = "code"
	BlockOther     BlockType = "other"
)

// Block is one parsed unit of a document. Start and Stop are byte
// offsets into the source; -1 marks blocks with no source range.
type Block struct {
	Type         BlockType
	Content      string
	Start, Stop  int
	Translatable bool
}

// Document is a parsed input file.
type Document struct {
	Format   Format
	Title    string
	Metadata map[string]any
	Source   []byte
	// Content holds the processed output once Process has run; empty
	// means the document is untouched.
	Content string
	Blocks  []Block
}

// TranslateFunc maps a piece of source text to its processed form.
type TranslateFunc func(ctx context.Context, text string) (string, error)

// Processor parses, processes, and renders one document format.
type Processor interface {
	Parse(ctx context.Context, input io.Reader) (*Document, error)
	Process(ctx context.Context, doc *Document, translate TranslateFunc) error
	Render(ctx context.Context, doc *Document, output io.Writer) error
	Format() Format
}

// formatsByExtension is the closed extension table.
var formatsByExtension = map[string]Format{
	".md":       FormatMarkdown,
	".markdown": FormatMarkdown,
	".html":     FormatHTML,
	".htm":      FormatHTML,
	".txt":      FormatText,
	".text":     FormatText,
}

// DetectFormat maps a file path to its format by extension.
func DetectFormat(path string) (Format, bool) {
	format, ok := formatsByExtension[strings.ToLower(filepath.Ext(path))]
	return format, ok
}

// ProcessorFor returns the processor for a file path.
func ProcessorFor(path string) (Processor, error) {
	format, ok := DetectFormat(path)
	if !ok {
		return nil, fmt.Errorf("unsupported document format: %s", filepath.Ext(path))
	}
	switch format {
	case FormatMarkdown:
		return NewMarkdownProcessor(), nil
	case FormatHTML:
		return NewHTMLProcessor(), nil
	default:
		return NewTextProcessor(), nil
	}
}

// processedContent returns the text to render: the processed output when
// Process has run, the raw source otherwise.
func processedContent(doc *Document) string {
	if doc.Content != "" {
		return doc.Content
	}
	return string(doc.Source)
}
