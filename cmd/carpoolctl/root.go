package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"carpool/internal/app"
	"carpool/internal/config"
	"carpool/internal/logger"
)

var (
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "carpoolctl",
	Short: "Operate a carpool tracker database from the command line.",
	Long: `carpoolctl works directly on the configured database: it applies migrations,
manages login accounts and prints credits, suggestions, the audit trail and
diagnostics without going through the HTTP server.`,
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default etc/config-dev.yaml, then /etc/carpool/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "loglevel", "l", "warn", "log level: debug, info, warn, error")
}

// openApp loads config and opens the database. Logs go to stderr so command
// output stays clean.
func openApp(cmd *cobra.Command) (*app.App, error) {
	cfg := config.Load(cfgFile)
	cfg.Log.Level = logLevel
	cfg.Log.Console = true
	slog.SetDefault(logger.New(cfg.Log, cmd.ErrOrStderr()))
	return app.New(cmd.Context(), cfg)
}
