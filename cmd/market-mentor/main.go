// cmd/market-mentor/main.go
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"market-mentor/internal/common/config"
	"market-mentor/internal/common/logger"
)

type cli struct {
	configPath string
	logLevel   string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	c := &cli{}

	rootCmd := &cobra.Command{
		Use:   "market-mentor",
		Short: "Question answering for retail supplier processes",
		Long: "market-mentor answers questions about a retailer's supplier ecosystem. " +
			"Out-of-domain questions get a short rejection instead of an answer.",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "Path to a config YAML file")
	rootCmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "Override logging.level")

	rootCmd.AddCommand(newServeCommand(c))
	rootCmd.AddCommand(newAskCommand(c))
	rootCmd.AddCommand(newCheckCommand(c))
	return rootCmd
}

func (c *cli) loadConfig() (*config.Config, error) {
	if c.configPath != "" {
		return config.LoadFromFile(c.configPath)
	}
	return config.Load()
}

// newLogger returns the zap logger for Sync and the adapter for components.
func (c *cli) newLogger(cfg *config.Config) (*zap.Logger, logger.Logger) {
	level, format := "info", "json"
	if cfg != nil {
		level, format = cfg.Logging.Level, cfg.Logging.Format
	}
	if c.logLevel != "" {
		level = c.logLevel
	}
	zapLog := logger.New(level, format)
	return zapLog, logger.NewZapAdapter(zapLog)
}
