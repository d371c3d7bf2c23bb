package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/doc2book/doc2book/internal/config"
	"github.com/doc2book/doc2book/internal/document"
	"github.com/doc2book/doc2book/pkg/providers/factory"
	"github.com/doc2book/doc2book/pkg/translation"
)

func newTranslateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "translate input_file [input_file...]",
		Short: "Translate documents and assemble them into an ebook",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			applyFlagOverrides(cfg)

			manager, err := factory.NewManager(cfg.ManagerConfig(), log)
			if err != nil {
				return err
			}

			svc, err := translation.NewService(translation.Config{
				SourceLanguage: cfg.SourceLang,
				TargetLanguage: cfg.TargetLang,
				ChunkSize:      cfg.ChunkSize,
				ChunkOverlap:   cfg.ChunkOverlap,
				UseAI:          cfg.UseAITranslation,
				Instruction:    cfg.Instruction,
			}, manager, log)
			if err != nil {
				return err
			}

			return runTranslate(cmd, cfg, log, svc, args)
		},
	}

	cmd.Flags().StringVarP(&sourceLang, "source", "s", "", "source language (default: auto-detect)")
	cmd.Flags().StringVarP(&targetLang, "target", "t", "", "target language")
	cmd.Flags().StringVarP(&providerID, "provider", "p", "", "provider id to try first")
	cmd.Flags().BoolVar(&useAI, "use-ai", false, "translate through chat completions instead of translation backends")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output EPUB path (default: <output_dir>/<first input>.epub)")
	cmd.Flags().StringVar(&bookTitle, "title", "", "ebook title (default: first document title)")
	cmd.Flags().StringVar(&bookAuthor, "author", "", "ebook author")
	cmd.Flags().StringVar(&instruction, "instruction", "", "extra instruction passed to the translation prompts")

	return cmd
}

func applyFlagOverrides(cfg *config.Config) {
	if sourceLang != "" {
		cfg.SourceLang = sourceLang
	}
	if targetLang != "" {
		cfg.TargetLang = targetLang
	}
	if providerID != "" {
		cfg.DefaultProvider = providerID
	}
	if useAI {
		cfg.UseAITranslation = true
	}
	if instruction != "" {
		cfg.Instruction = instruction
	}
}

func runTranslate(cmd *cobra.Command, cfg *config.Config, log *zap.Logger, svc *translation.Service, inputs []string) error {
	book := document.Book{
		Title:    bookTitle,
		Author:   bookAuthor,
		Language: cfg.TargetLang,
	}

	for _, input := range inputs {
		chapter, err := translateFile(cmd, log, svc, input)
		if err != nil {
			return fmt.Errorf("%s: %w", input, err)
		}
		if book.Title == "" {
			book.Title = chapter.Title
		}
		book.Chapters = append(book.Chapters, chapter)
	}

	out := outputPath
	if out == "" {
		base := strings.TrimSuffix(filepath.Base(inputs[0]), filepath.Ext(inputs[0]))
		out = filepath.Join(cfg.OutputDir, base+".epub")
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return err
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := document.WriteEPUB(f, book); err != nil {
		return err
	}
	cmd.Printf("wrote %s (%d chapters)\n", out, len(book.Chapters))
	return nil
}

func translateFile(cmd *cobra.Command, log *zap.Logger, svc *translation.Service, path string) (document.Chapter, error) {
	processor, err := document.ProcessorFor(path)
	if err != nil {
		return document.Chapter{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return document.Chapter{}, err
	}
	defer f.Close()

	ctx := cmd.Context()
	doc, err := processor.Parse(ctx, f)
	if err != nil {
		return document.Chapter{}, err
	}

	log.Info("translating document",
		zap.String("path", path),
		zap.String("format", string(doc.Format)),
		zap.Int("blocks", len(doc.Blocks)))

	err = processor.Process(ctx, doc, func(ctx context.Context, text string) (string, error) {
		res, err := svc.TranslateDocument(ctx, text)
		if err != nil {
			return "", err
		}
		return res.Text, nil
	})
	if err != nil {
		return document.Chapter{}, err
	}

	var sb strings.Builder
	if err := processor.Render(ctx, doc, &sb); err != nil {
		return document.Chapter{}, err
	}

	title := doc.Title
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	body := sb.String()
	if doc.Format != document.FormatHTML {
		body = document.BodyFromText(body)
	} else {
		body = extractBody(body)
	}
	return document.Chapter{Title: title, Body: body}, nil
}

// extractBody pulls the body markup out of a full HTML document so it
// can be embedded in a chapter.
func extractBody(html string) string {
	lower := strings.ToLower(html)
	start := strings.Index(lower, "<body")
	if start < 0 {
		return html
	}
	if open := strings.Index(lower[start:], ">"); open >= 0 {
		start += open + 1
	}
	end := strings.LastIndex(lower, "</body>")
	if end < start {
		return html[start:]
	}
	return html[start:end]
}
