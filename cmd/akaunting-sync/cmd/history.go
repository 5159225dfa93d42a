package cmd

import (
	"fmt"
	"log/slog"

	"github.com/pigeonworks-llc/akaunting-sync/pkg/db"
	"github.com/pigeonworks-llc/akaunting-sync/pkg/payment"
	"github.com/spf13/cobra"
)

var (
	historyStatus string
	historyRunID  string
)

// historyCmd groups the sync history commands.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect and edit sync history",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List synced payments by status or run",
	Long: `List sync history records.

Partial records mean some Akaunting records were created before an error;
they are not retried and need to be completed by hand.

Example:
  akaunting-sync history list --status partial
  akaunting-sync history list --run 5f0c...`,
	Args: cobra.NoArgs,
	Run:  runHistoryList,
}

var historyForgetCmd = &cobra.Command{
	Use:   "forget <processor> <external-id>",
	Short: "Forget a synced payment so the next sync books it again",
	Long: `Delete the sync history record of one payment.

Remove any Akaunting records created for it first, otherwise the next
sync skips it again because its description is already on the ledger.

Example:
  akaunting-sync history forget paypal 5TY05013RG002845M`,
	Args: cobra.ExactArgs(2),
	Run:  runHistoryForget,
}

func init() {
	historyListCmd.Flags().StringVar(&historyStatus, "status", string(db.StatusPartial), "Status to list (complete, partial, failed)")
	historyListCmd.Flags().StringVar(&historyRunID, "run", "", "List the records of one run instead")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyForgetCmd)
}

func openHistory() (*db.Connection, *db.SyncHistory) {
	cfg := loadConfig([]string{"storage", "dataRoot"})

	dbPath := newPathResolver(cfg).GetDatabasePath()
	slog.Debug("Opening database", "path", dbPath)

	conn, err := db.Open(dbPath)
	exitOnError(err, "failed to open database")

	return conn, db.NewSyncHistory(conn)
}

func runHistoryList(cmd *cobra.Command, args []string) {
	conn, syncHistory := openHistory()
	defer conn.Close()

	var records []db.SyncRecord
	var err error
	if historyRunID != "" {
		records, err = syncHistory.GetSyncRecordsByRun(historyRunID)
	} else {
		switch status := db.SyncStatus(historyStatus); status {
		case db.StatusComplete, db.StatusPartial, db.StatusFailed:
			records, err = syncHistory.GetSyncRecordsByStatus(status)
		default:
			err = fmt.Errorf("unknown status: %q", historyStatus)
		}
	}
	exitOnError(err, "failed to list sync history")

	if len(records) == 0 {
		fmt.Println("No records")
		return
	}

	for _, r := range records {
		fmt.Printf("%s  %-8s %-8s %-24s %s %s %s\n",
			r.DocumentNumber, r.Status, r.Processor, r.ExternalID, r.SettledAt, r.Amount, r.CurrencyCode)
		fmt.Printf("    customer=%s invoice=%s income=%s expense=%s run=%s\n",
			formatID(r.CustomerID.Int64, r.CustomerID.Valid),
			formatID(r.InvoiceID.Int64, r.InvoiceID.Valid),
			formatID(r.IncomeID.Int64, r.IncomeID.Valid),
			formatID(r.ExpenseID.Int64, r.ExpenseID.Valid),
			r.RunID,
		)
		if r.Error != "" {
			fmt.Printf("    error: %s\n", r.Error)
		}
	}

	fmt.Printf("\n%d records\n", len(records))
}

func runHistoryForget(cmd *cobra.Command, args []string) {
	processor, err := payment.ParseProcessor(args[0])
	exitOnError(err, "invalid processor")

	conn, syncHistory := openHistory()
	defer conn.Close()

	deleted, err := syncHistory.DeleteSyncRecord(string(processor), args[1])
	exitOnError(err, "failed to forget payment")

	if !deleted {
		fmt.Printf("No sync record for %s %s\n", processor, args[1])
		return
	}

	slog.Info("Forgot sync record", "processor", processor, "external_id", args[1])
	fmt.Printf("Forgot %s %s; it will be synced again on the next run\n", processor, args[1])
}

func formatID(id int64, valid bool) string {
	if !valid {
		return "-"
	}
	return fmt.Sprint(id)
}
