package document

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func upperTranslate(_ context.Context, text string) (string, error) {
	return strings.ToUpper(text), nil
}

const sampleMarkdown = `---
title: My Book
author: Someone
---

# Introduction

This is the first paragraph.

` + "```go\nfmt.Println(\"hello\")\n```" + `

Second paragraph after code.
`

func TestMarkdownParseExtractsBlocksAndMetadata(t *testing.T) {
	p := NewMarkdownProcessor()
	doc, err := p.Parse(context.Background(), strings.NewReader(sampleMarkdown))
	require.NoError(t, err)

	assert.Equal(t, "My Book", doc.Title, "front matter title wins")
	assert.Equal(t, "Someone", doc.Metadata["author"])

	var headings, paragraphs, code int
	for _, b := range doc.Blocks {
		switch b.Type {
		case BlockHeading:
			headings++
		case BlockParagraph:
			paragraphs++
		case BlockCode:
			code++
			assert.False(t, b.Translatable, "code is never translated")
		}
	}
	assert.Equal(t, 1, headings)
	assert.Equal(t, 2, paragraphs)
	assert.Equal(t, 1, code)
}

func TestMarkdownProcessSplicesTranslationsOnly(t *testing.T) {
	p := NewMarkdownProcessor()
	doc, err := p.Parse(context.Background(), strings.NewReader(sampleMarkdown))
	require.NoError(t, err)

	require.NoError(t, p.Process(context.Background(), doc, upperTranslate))

	assert.Contains(t, doc.Content, "# INTRODUCTION", "heading marker survives, text is translated")
	assert.Contains(t, doc.Content, "THIS IS THE FIRST PARAGRAPH.")
	assert.Contains(t, doc.Content, `fmt.Println("hello")`, "code content is untouched")
	assert.Contains(t, doc.Content, "title: My Book", "front matter is untouched")
}

func TestMarkdownTitleFallsBackToFirstHeading(t *testing.T) {
	p := NewMarkdownProcessor()
	doc, err := p.Parse(context.Background(), strings.NewReader("# Only Heading\n\ntext.\n"))
	require.NoError(t, err)
	assert.Equal(t, "Only Heading", doc.Title)
}

func TestMarkdownProcessPropagatesTranslateError(t *testing.T) {
	p := NewMarkdownProcessor()
	doc, err := p.Parse(context.Background(), strings.NewReader("a paragraph.\n"))
	require.NoError(t, err)

	err = p.Process(context.Background(), doc, func(context.Context, string) (string, error) {
		return "", assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
}

func TestMarkdownRenderWritesSourceWhenUnprocessed(t *testing.T) {
	p := NewMarkdownProcessor()
	doc, err := p.Parse(context.Background(), strings.NewReader("just text.\n"))
	require.NoError(t, err)

	var sb strings.Builder
	require.NoError(t, p.Render(context.Background(), doc, &sb))
	assert.Equal(t, "just text.\n", sb.String())
}
