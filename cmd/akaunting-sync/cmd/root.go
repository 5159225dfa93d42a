// Package cmd provides CLI commands for akaunting-sync.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/pigeonworks-llc/akaunting-sync/pkg/config"
	"github.com/pigeonworks-llc/akaunting-sync/pkg/pathutil"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool

	logLevel = new(slog.LevelVar)
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "akaunting-sync",
	Short: "Sync PayPal and Stripe payments into Akaunting",
	Long: `akaunting-sync is a CLI tool that books settled PayPal and Stripe
payments into an Akaunting company as paid invoices.

For each payment it:
- Finds or creates the customer by payer email
- Creates a paid invoice with a YYYYMMDD-NNNNN document number
- Records the income against the invoice
- Books the processor fee as an expense

Sync history is kept in SQLite so payments are never booked twice.

Example:
  akaunting-sync setup --dry-run
  akaunting-sync sync --from 2024-01-01 --to 2024-01-31 --dry-run
  akaunting-sync sync --days 3
  akaunting-sync stats`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Setup logging
		if debug {
			logLevel.Set(slog.LevelDebug)
		}

		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel,
		}))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	// Add subcommands
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(webhookCmd)
}

// Helper function to get config file path.
func getConfigFile() string {
	if cfgFile != "" {
		return cfgFile
	}
	return "" // Will use default .env loading
}

// loadConfig loads the configuration and checks the given required fields.
func loadConfig(required ...[]string) *config.Config {
	cfg, err := config.Load(getConfigFile())
	exitOnError(err, "failed to load configuration")

	if err := cfg.Validate(required...); err != nil {
		exitOnError(err, "invalid configuration")
	}

	// DEBUG=true in the environment has the same effect as --debug
	if cfg.Debug {
		logLevel.Set(slog.LevelDebug)
	}

	return cfg
}

func newPathResolver(cfg *config.Config) *pathutil.PathResolver {
	return pathutil.New(pathutil.Config{
		DataRoot:      cfg.Storage.DataRoot,
		DatabasePath:  cfg.Storage.DBPath,
		WebhookDBPath: cfg.Storage.WebhookDBPath,
		JournalDir:    cfg.Storage.JournalDir,
	})
}

// Helper function to handle errors and exit.
func exitOnError(err error, msg string) {
	if err != nil {
		slog.Error(msg, "error", err)
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
		os.Exit(1)
	}
}
