package translation

import (
	"fmt"
	"strings"
)

// PromptBuilder assembles the system prompts for the chat-backed stages.
type PromptBuilder struct {
	SourceLang        string
	TargetLang        string
	ExtraInstructions []string
}

// NewPromptBuilder creates a builder for a language pair. SourceLang may
// be empty when the source should be auto-detected.
func NewPromptBuilder(sourceLang, targetLang string) *PromptBuilder {
	return &PromptBuilder{
		SourceLang: sourceLang,
		TargetLang: targetLang,
	}
}

// AddInstruction appends a caller-supplied instruction to every prompt
// the builder produces.
func (pb *PromptBuilder) AddInstruction(instruction string) *PromptBuilder {
	if instruction != "" {
		pb.ExtraInstructions = append(pb.ExtraInstructions, instruction)
	}
	return pb
}

// TranslationPrompt builds the system prompt for a translation stage.
func (pb *PromptBuilder) TranslationPrompt() string {
	var sb strings.Builder
	if pb.SourceLang != "" {
		fmt.Fprintf(&sb, "You are a professional translator. Translate the user's text from %s to %s.",
			pb.SourceLang, pb.TargetLang)
	} else {
		fmt.Fprintf(&sb, "You are a professional translator. Translate the user's text to %s.",
			pb.TargetLang)
	}
	sb.WriteString(`

Formatting Rules:
1. Preserve all original formatting exactly: Markdown syntax, HTML tags, code blocks, and line breaks.
2. Do not alter abbreviations, technical terms, or code identifiers.
3. Output only the translated text, with no commentary.`)

	pb.appendExtras(&sb)
	return sb.String()
}

// SummaryPrompt builds the system prompt for a chapter summary stage.
func (pb *PromptBuilder) SummaryPrompt(maxWords int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are an editor preparing a book. Summarize the user's text in at most %d words.", maxWords)
	if pb.TargetLang != "" {
		fmt.Fprintf(&sb, " Write the summary in %s.", pb.TargetLang)
	}
	sb.WriteString(" Keep the author's tone. Output only the summary.")

	pb.appendExtras(&sb)
	return sb.String()
}

// RewritePrompt builds the system prompt for a style-rewrite stage.
func (pb *PromptBuilder) RewritePrompt(style string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are an editor preparing a book. Rewrite the user's text in a %s style.", style)
	sb.WriteString(`

Rules:
1. Preserve the meaning and all factual content.
2. Preserve Markdown formatting and code blocks verbatim.
3. Output only the rewritten text.`)

	pb.appendExtras(&sb)
	return sb.String()
}

func (pb *PromptBuilder) appendExtras(sb *strings.Builder) {
	if len(pb.ExtraInstructions) == 0 {
		return
	}
	sb.WriteString("\n\nAdditional Instructions:")
	for i, instruction := range pb.ExtraInstructions {
		fmt.Fprintf(sb, "\n%d. %s", i+1, instruction)
	}
}
