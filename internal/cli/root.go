// Package cli wires the cobra command tree.
package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/doc2book/doc2book/internal/config"
	"github.com/doc2book/doc2book/internal/logger"
)

var (
	cfgFile   string
	debugMode bool

	sourceLang  string
	targetLang  string
	providerID  string
	useAI       bool
	outputPath  string
	bookTitle   string
	bookAuthor  string
	instruction string
)

// NewRootCommand creates the root command.
func NewRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "doc2book",
		Short: "doc2book turns documents into translated ebooks",
		Long: `doc2book parses markdown, HTML, and plain-text documents, routes
translation through configured providers with rate limiting and
failover, and assembles the result into an EPUB.`,
		Version:       version + " (" + commit + ", " + buildDate + ")",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default .doc2book.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug logging")

	rootCmd.AddCommand(newTranslateCommand())
	rootCmd.AddCommand(newProvidersCommand())
	rootCmd.AddCommand(newConfigCommand())

	return rootCmd
}

// setup loads the configuration and builds the logger shared by the
// subcommands.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	if debugMode {
		cfg.Debug = true
	}
	return cfg, logger.New(cfg.Debug), nil
}
