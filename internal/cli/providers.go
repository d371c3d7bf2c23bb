package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/doc2book/doc2book/pkg/providers"
	"github.com/doc2book/doc2book/pkg/providers/factory"
)

const latencyPrecision = time.Millisecond

func newProvidersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "providers",
		Short: "Inspect the configured translation providers",
	}
	cmd.AddCommand(newProvidersStatusCommand())
	cmd.AddCommand(newProvidersModelsCommand())
	cmd.AddCommand(newProvidersTestCommand())
	return cmd
}

func newProvidersStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Probe every configured provider and print availability",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			manager, err := factory.NewManager(cfg.ManagerConfig(), log)
			if err != nil {
				return err
			}

			statuses := manager.ProviderStatuses(cmd.Context())
			if len(statuses) == 0 {
				cmd.Println("no providers configured")
				return nil
			}

			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.AppendHeader(table.Row{"ID", "Name", "Available", "Latency", "Error"})
			for _, s := range statuses {
				tw.AppendRow(table.Row{
					s.ID, s.Name, availability(s.Available), s.Latency.Round(latencyPrecision), s.Error,
				})
			}
			tw.SetStyle(table.StyleLight)
			tw.Render()
			return nil
		},
	}
}

func newProvidersModelsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "models [provider_id]",
		Short: "List the models each provider advertises",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			manager, err := factory.NewManager(cfg.ManagerConfig(), log)
			if err != nil {
				return err
			}

			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.AppendHeader(table.Row{"Provider", "Models"})

			for _, p := range cfg.Providers {
				if !p.Enabled {
					continue
				}
				if len(args) == 1 && p.ID != args[0] {
					continue
				}
				adapter, ok := manager.Provider(p.ID)
				if !ok {
					continue
				}
				models := adapter.Models(cmd.Context())
				tw.AppendRow(table.Row{p.ID, strings.Join(models, "\n")})
			}
			tw.SetStyle(table.StyleLight)
			tw.Render()
			return nil
		},
	}
}

func newProvidersTestCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "test provider_id",
		Short: "Build and probe one configured provider without registering it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			var target *providers.ProviderConfig
			for i := range cfg.Providers {
				if cfg.Providers[i].ID == args[0] {
					target = &cfg.Providers[i]
					break
				}
			}
			if target == nil {
				return fmt.Errorf("%w: %q", providers.ErrProviderNotFound, args[0])
			}

			manager, err := factory.NewManager(providers.ManagerConfig{}, log)
			if err != nil {
				return err
			}

			status := manager.TestProvider(cmd.Context(), *target)
			cmd.Printf("provider %s: %s", status.ID, availability(status.Available))
			if status.Error != "" {
				cmd.Printf(" (%s)", status.Error)
			}
			cmd.Printf(", latency %s\n", status.Latency.Round(latencyPrecision))
			return nil
		},
	}
}

func availability(ok bool) string {
	if ok {
		return color.GreenString("available")
	}
	return color.RedString("unavailable")
}
