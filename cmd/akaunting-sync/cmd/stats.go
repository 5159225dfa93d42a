package cmd

import (
	"fmt"
	"log/slog"

	"github.com/pigeonworks-llc/akaunting-sync/pkg/db"
	"github.com/spf13/cobra"
)

// statsCmd represents the stats command.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Display sync statistics",
	Long: `Display statistics about synced payments.

Shows:
- Complete, partial and failed payments per processor
- Last sync timestamp, run and date range

Example:
  akaunting-sync stats`,
	Run: runStats,
}

func runStats(cmd *cobra.Command, args []string) {
	slog.Info("Loading configuration")

	cfg := loadConfig([]string{"storage", "dataRoot"})

	// Open database connection
	dbPath := newPathResolver(cfg).GetDatabasePath()
	slog.Debug("Opening database", "path", dbPath)

	conn, err := db.Open(dbPath)
	exitOnError(err, "failed to open database")
	defer conn.Close()

	// Get sync history
	syncHistory := db.NewSyncHistory(conn)

	// Get statistics
	stats, err := syncHistory.GetStats()
	exitOnError(err, "failed to get statistics")

	from, err := syncHistory.GetMetadata(db.MetaLastSyncFrom)
	exitOnError(err, "failed to get metadata")
	to, err := syncHistory.GetMetadata(db.MetaLastSyncTo)
	exitOnError(err, "failed to get metadata")

	// Display statistics
	fmt.Println("\n=== Sync Statistics ===")
	if len(stats.Processors) == 0 {
		fmt.Println("No payments synced yet")
	}
	for _, p := range stats.Processors {
		fmt.Printf("%-8s complete: %d  partial: %d  failed: %d  total: %d\n",
			p.Processor, p.Complete, p.Partial, p.Failed, p.Total())
	}

	if stats.LastSync.Valid {
		fmt.Printf("Last sync:             %s\n", stats.LastSync.String)
	} else {
		fmt.Printf("Last sync:             (never)\n")
	}
	if stats.LastRunID != "" {
		fmt.Printf("Last run:              %s\n", stats.LastRunID)
	}
	if from != "" && to != "" {
		fmt.Printf("Last range:            %s .. %s\n", from, to)
	}

	fmt.Println()

	slog.Info("Statistics displayed successfully")
}
