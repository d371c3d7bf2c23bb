package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/doc2book/doc2book/internal/config"
	"github.com/doc2book/doc2book/pkg/providers"
)

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the doc2book configuration",
	}
	cmd.AddCommand(newConfigInitCommand())
	cmd.AddCommand(newConfigShowCommand())
	return cmd
}

func newConfigInitCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a starter configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ".doc2book.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			cfg := config.Default()
			cfg.DefaultProvider = "openai"
			cfg.Providers = []providers.ProviderConfig{
				{
					ID:      "openai",
					Type:    providers.TypeOpenAI,
					Enabled: true,
					RateLimit: &providers.RateLimitConfig{
						RequestsPerMinute: 60,
						TokensPerMinute:   90000,
						MaxConcurrent:     5,
					},
				},
			}

			if err := config.Save(cfg, path); err != nil {
				return err
			}
			cmd.Printf("wrote %s\n", path)
			cmd.Println("set the API key via DOC2BOOK_OPENAI_API_KEY or edit the file")
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			cmd.Printf("source_lang:      %s\n", orAuto(cfg.SourceLang))
			cmd.Printf("target_lang:      %s\n", cfg.TargetLang)
			cmd.Printf("chunk_size:       %d\n", cfg.ChunkSize)
			cmd.Printf("use_ai:           %v\n", cfg.UseAITranslation)
			cmd.Printf("output_dir:       %s\n", cfg.OutputDir)
			cmd.Printf("default_provider: %s\n", cfg.DefaultProvider)
			cmd.Printf("fallback_chain:   %v\n", cfg.FallbackChain)
			cmd.Printf("providers:\n")
			for _, p := range cfg.Providers {
				state := "disabled"
				if p.Enabled {
					state = "enabled"
				}
				key := "unset"
				if p.APIKey != "" {
					key = "set"
				}
				cmd.Printf("  - %s (%s, %s, api key %s)\n", p.ID, p.Type, state, key)
			}
			return nil
		},
	}
}

func orAuto(s string) string {
	if s == "" {
		return "(auto-detect)"
	}
	return s
}
