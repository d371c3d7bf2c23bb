package document

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// MarkdownProcessor translates markdown by splicing translated block
// text back into the original source, so everything between blocks
// (front matter, code fences, blank lines, markers) survives verbatim.
type MarkdownProcessor struct {
	md goldmark.Markdown
}

// NewMarkdownProcessor creates a markdown processor with front-matter
// support.
func NewMarkdownProcessor() *MarkdownProcessor {
	return &MarkdownProcessor{
		md: goldmark.New(goldmark.WithExtensions(meta.Meta)),
	}
}

func (p *MarkdownProcessor) Format() Format {
	return FormatMarkdown
}

// Parse builds the block list from the goldmark AST. Headings and
// paragraphs are translatable; fenced and indented code is not.
func (p *MarkdownProcessor) Parse(ctx context.Context, input io.Reader) (*Document, error) {
	source, err := io.ReadAll(input)
	if err != nil {
		return nil, fmt.Errorf("read markdown: %w", err)
	}

	pctx := parser.NewContext()
	root := p.md.Parser().Parse(text.NewReader(source), parser.WithContext(pctx))

	doc := &Document{
		Format:   FormatMarkdown,
		Metadata: meta.Get(pctx),
		Source:   source,
	}
	if title, ok := doc.Metadata["title"].(string); ok {
		doc.Title = title
	}

	err = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			if block, ok := blockFromLines(source, node.Lines(), BlockHeading); ok {
				doc.Blocks = append(doc.Blocks, block)
				if doc.Title == "" && node.Level == 1 {
					doc.Title = block.Content
				}
			}
			return ast.WalkSkipChildren, nil
		case *ast.Paragraph:
			if block, ok := blockFromLines(source, node.Lines(), BlockParagraph); ok {
				doc.Blocks = append(doc.Blocks, block)
			}
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			if block, ok := blockFromLines(source, n.Lines(), BlockCode); ok {
				block.Translatable = false
				doc.Blocks = append(doc.Blocks, block)
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(doc.Blocks, func(i, j int) bool {
		return doc.Blocks[i].Start < doc.Blocks[j].Start
	})
	return doc, nil
}

// Process translates each translatable block and splices the results
// into the source in place of the original ranges.
func (p *MarkdownProcessor) Process(ctx context.Context, doc *Document, translate TranslateFunc) error {
	var out strings.Builder
	cursor := 0

	for i := range doc.Blocks {
		block := &doc.Blocks[i]
		if !block.Translatable || block.Start < 0 {
			continue
		}
		if block.Start < cursor {
			continue // overlapping range, keep the earlier splice
		}

		translated, err := translate(ctx, block.Content)
		if err != nil {
			return fmt.Errorf("translate block %d: %w", i, err)
		}

		out.Write(doc.Source[cursor:block.Start])
		out.WriteString(translated)
		cursor = block.Stop
	}
	out.Write(doc.Source[cursor:])

	doc.Content = out.String()
	return nil
}

// Render writes the processed markdown.
func (p *MarkdownProcessor) Render(ctx context.Context, doc *Document, output io.Writer) error {
	_, err := io.WriteString(output, processedContent(doc))
	return err
}

// blockFromLines converts a node's line segments into a block covering
// the contiguous source range from the first line to the last.
func blockFromLines(source []byte, lines *text.Segments, typ BlockType) (Block, bool) {
	if lines == nil || lines.Len() == 0 {
		return Block{}, false
	}
	start := lines.At(0).Start
	stop := lines.At(lines.Len() - 1).Stop
	content := strings.TrimRight(string(source[start:stop]), "\n")
	if strings.TrimSpace(content) == "" {
		return Block{}, false
	}
	return Block{
		Type:         typ,
		Content:      content,
		Start:        start,
		Stop:         start + len(content),
		Translatable: true,
	}, true
}
