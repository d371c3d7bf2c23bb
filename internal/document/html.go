package document

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// translatableSelector matches the elements whose text is translated.
// Elements with child elements are skipped so inline markup survives.
const translatableSelector = "title, h1, h2, h3, h4, h5, h6, p, li, blockquote, figcaption, th, td"

// HTMLProcessor translates the text content of an HTML document while
// leaving structure, attributes, scripts, and styles untouched.
type HTMLProcessor struct{}

func NewHTMLProcessor() *HTMLProcessor {
	return &HTMLProcessor{}
}

func (p *HTMLProcessor) Format() Format {
	return FormatHTML
}

// Parse reads the document and records the translatable leaf elements as
// blocks. The goquery document itself is rebuilt in Process; blocks here
// exist for inspection and counting.
func (p *HTMLProcessor) Parse(ctx context.Context, input io.Reader) (*Document, error) {
	source, err := io.ReadAll(input)
	if err != nil {
		return nil, fmt.Errorf("read html: %w", err)
	}

	gq, err := goquery.NewDocumentFromReader(bytes.NewReader(source))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	doc := &Document{
		Format: FormatHTML,
		Title:  strings.TrimSpace(gq.Find("title").First().Text()),
		Source: source,
	}

	gq.Find(translatableSelector).Each(func(_ int, s *goquery.Selection) {
		if !isLeaf(s) {
			return
		}
		content := strings.TrimSpace(s.Text())
		if content == "" {
			return
		}
		typ := BlockParagraph
		if name := goquery.NodeName(s); len(name) == 2 && name[0] == 'h' {
			typ = BlockHeading
		}
		doc.Blocks = append(doc.Blocks, Block{
			Type:         typ,
			Content:      content,
			Start:        -1,
			Stop:         -1,
			Translatable: true,
		})
	})
	return doc, nil
}

// Process re-parses the source, translates every translatable leaf
// element in document order, and stores the rewritten markup.
func (p *HTMLProcessor) Process(ctx context.Context, doc *Document, translate TranslateFunc) error {
	gq, err := goquery.NewDocumentFromReader(bytes.NewReader(doc.Source))
	if err != nil {
		return fmt.Errorf("parse html: %w", err)
	}

	var walkErr error
	gq.Find(translatableSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !isLeaf(s) {
			return true
		}
		content := strings.TrimSpace(s.Text())
		if content == "" {
			return true
		}
		translated, err := translate(ctx, content)
		if err != nil {
			walkErr = err
			return false
		}
		s.SetText(translated)
		return true
	})
	if walkErr != nil {
		return walkErr
	}

	html, err := gq.Html()
	if err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	doc.Content = html
	return nil
}

// Render writes the processed HTML.
func (p *HTMLProcessor) Render(ctx context.Context, doc *Document, output io.Writer) error {
	_, err := io.WriteString(output, processedContent(doc))
	return err
}

func isLeaf(s *goquery.Selection) bool {
	return s.Children().Length() == 0
}
