// cmd/market-mentor/commands.go
package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"market-mentor/internal/app"
	"market-mentor/internal/relevance/gate"
	"market-mentor/internal/server"
)

func newServeCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return fmt.Errorf("config load failed: %w", err)
			}
			zapLog, log := c.newLogger(cfg)
			defer zapLog.Sync()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := app.Build(ctx, cfg, log)
			if err != nil {
				zapLog.Error("failed to build pipeline", zap.Error(err))
				return err
			}
			defer a.Close()

			srv, err := server.New(server.NewConfig(cfg), a.Pipeline, afero.NewOsFs(), a, log)
			if err != nil {
				return err
			}

			zapLog.Info("Starting Market Mentor",
				zap.String("address", cfg.Server.Address),
				zap.String("environment", cfg.App.Environment),
			)
			if err := srv.Run(ctx); err != nil {
				return err
			}
			zapLog.Info("Market Mentor stopped")
			return nil
		},
	}
}

func newAskCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a single question and print the response",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args, " ")
			if strings.TrimSpace(question) == "" {
				return fmt.Errorf("please provide a valid question")
			}

			cfg, err := c.loadConfig()
			if err != nil {
				return fmt.Errorf("config load failed: %w", err)
			}
			zapLog, log := c.newLogger(cfg)
			defer zapLog.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := app.Build(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			result := a.Pipeline.Process(ctx, question)
			fmt.Fprintln(cmd.OutOrStdout(), result.Text)
			return nil
		},
	}
}

// newCheckCommand runs only the keyword gate; it needs no credentials.
func newCheckCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "check <question>",
		Short: "Report whether the offline keyword gate accepts a question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			zapLog, log := c.newLogger(nil)
			defer zapLog.Sync()

			g, err := gate.New(gate.DefaultPatterns, log)
			if err != nil {
				return err
			}

			question := strings.Join(args, " ")
			out := cmd.OutOrStdout()
			if pattern, ok := g.Match(question); ok {
				fmt.Fprintf(out, "in domain (matched %s)\n", pattern)
				return nil
			}
			fmt.Fprintln(out, "no keyword match; an LLM verdict would be required")
			return nil
		},
	}
}
