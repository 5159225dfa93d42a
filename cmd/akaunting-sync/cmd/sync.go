package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pigeonworks-llc/akaunting-sync/pkg/akaunting"
	"github.com/pigeonworks-llc/akaunting-sync/pkg/config"
	"github.com/pigeonworks-llc/akaunting-sync/pkg/db"
	"github.com/pigeonworks-llc/akaunting-sync/pkg/journal"
	"github.com/pigeonworks-llc/akaunting-sync/pkg/ledger"
	"github.com/pigeonworks-llc/akaunting-sync/pkg/mapping"
	"github.com/pigeonworks-llc/akaunting-sync/pkg/payment"
	"github.com/pigeonworks-llc/akaunting-sync/pkg/paypal"
	"github.com/pigeonworks-llc/akaunting-sync/pkg/reconcile"
	"github.com/pigeonworks-llc/akaunting-sync/pkg/stripe"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	dateFrom string
	dateTo   string
	days     int
	sources  []string
	dryRun   bool
	workers  int
)

// syncCmd represents the sync command.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync PayPal and Stripe payments to Akaunting",
	Long: `Sync settled payments from PayPal and Stripe into Akaunting.

This command:
1. Fetches the Akaunting reference data and the processor payments
2. Filters out already synced payments
3. Plans customers, invoices, incomes and fee expenses
4. Writes them to Akaunting (or prints them with --dry-run)
5. Records sync history in SQLite and the audit journal

Dates are interpreted in the timezone of the mapping file; --to is inclusive.

Example:
  akaunting-sync sync --from 2024-01-01 --to 2024-01-31
  akaunting-sync sync --days 7 --source stripe --dry-run`,
	Run: runSync,
}

func init() {
	// Flags
	syncCmd.Flags().StringVar(&dateFrom, "from", "", "Start date (YYYY-MM-DD)")
	syncCmd.Flags().StringVar(&dateTo, "to", "", "End date (YYYY-MM-DD), inclusive")
	syncCmd.Flags().IntVar(&days, "days", 0, "Sync the last N days instead of --from/--to")
	syncCmd.Flags().StringSliceVar(&sources, "source", nil, "Processors to sync (paypal,stripe) (default: all enabled in the mapping)")
	syncCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Dry run mode (no ledger writes)")
	syncCmd.Flags().IntVar(&workers, "workers", 1, "Number of payments written to Akaunting concurrently")

	syncCmd.MarkFlagsRequiredTogether("from", "to")
	syncCmd.MarkFlagsMutuallyExclusive("from", "days")
	syncCmd.MarkFlagsMutuallyExclusive("to", "days")
	syncCmd.MarkFlagsOneRequired("from", "days")
}

func runSync(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg := loadConfig(
		[]string{"akaunting", "apiUrl"},
		[]string{"akaunting", "email"},
		[]string{"akaunting", "password"},
		[]string{"akaunting", "companyId"},
		[]string{"storage", "dataRoot"},
		[]string{"storage", "mappingFile"},
	)

	mapper, err := mapping.NewMapper(cfg.Storage.MappingFile)
	exitOnError(err, "failed to load mapping")

	processors, err := selectProcessors(mapper, sources)
	exitOnError(err, "invalid --source")

	for _, p := range processors {
		if err := cfg.Validate(requiredFor(p)...); err != nil {
			exitOnError(err, "invalid configuration")
		}
	}

	window, err := syncWindow(dateFrom, dateTo, days, mapper.Location(), time.Now())
	exitOnError(err, "invalid date range")

	slog.Info("Starting sync",
		"from", window.From.Format(time.DateOnly),
		"to", window.To.Format(time.DateOnly),
		"sources", processors,
		"dry_run", dryRun,
	)

	// Initialize components
	pathResolver := newPathResolver(cfg)

	// Open database
	dbPath := pathResolver.GetDatabasePath()
	slog.Debug("Opening database", "path", dbPath)
	conn, err := db.Open(dbPath)
	exitOnError(err, "failed to open database")
	defer conn.Close()

	syncHistory := db.NewSyncHistory(conn)

	// Initialize Akaunting API client
	client := akaunting.NewClient(akaunting.ClientConfig{
		APIURL:            cfg.Akaunting.APIURL,
		Email:             cfg.Akaunting.Email,
		Password:          cfg.Akaunting.Password,
		CompanyID:         cfg.Akaunting.CompanyID,
		Timeout:           30 * time.Second,
		RequestsPerSecond: cfg.Akaunting.RateLimit,
		CurrencyRates:     mapper.CurrencyRates(),
		PaymentMethod:     mapper.PaymentMethod(),
	})
	exitOnError(client.Ping(ctx), "failed to connect to Akaunting")

	paymentSources := newSources(cfg, mapper, processors)

	// Fetch the ledger and the processors concurrently
	snapshot, fetched, err := fetchAll(ctx, client, paymentSources, window)
	exitOnError(err, "failed to fetch data")

	index, err := ledger.BuildIndex(snapshot)
	exitOnError(err, "failed to index Akaunting data")

	targets := make(map[payment.Processor]reconcile.Targets, len(processors))
	for _, p := range processors {
		pm, _ := mapper.Processor(p)
		t, err := reconcile.ResolveTargets(index, pm.TargetNames())
		exitOnError(err, fmt.Sprintf("failed to resolve %s targets", p))
		targets[p] = t
	}

	// Filter out already synced payments
	var pending []payment.Payment
	for i, src := range paymentSources {
		syncedIDs, err := syncHistory.GetSyncedIDs(string(src.Processor()))
		exitOnError(err, "failed to get synced IDs")

		kept, skipped := reconcile.DropSynced(fetched[i], syncedIDs, index)
		slog.Info("New payments to sync",
			"processor", src.Processor(),
			"fetched", len(fetched[i]),
			"new", len(kept),
			"skipped", skipped,
		)
		pending = append(pending, kept...)
	}

	if len(pending) == 0 {
		fmt.Println("No new payments to sync")
		return
	}

	reconcile.SortBySettlement(pending)

	batch := reconcile.NewBatch(index, reconcile.WithLocation(mapper.Location()))
	plan := batch.ReconcileAll(pending, targets)

	if dryRun {
		printPlan(plan)
		return
	}

	executor := reconcile.NewExecutor(client, syncHistory,
		reconcile.WithWorkers(workers),
		reconcile.WithJournal(journal.NewFileSystemRepository(pathResolver)),
	)
	slog.Info("Executing plan",
		"run_id", executor.RunID(),
		"payments", len(plan.Payments),
		"mutations", len(plan.Mutations()),
		"workers", workers,
	)

	report, err := executor.Execute(ctx, plan)
	exitOnError(err, "failed to execute plan")

	for key, value := range map[string]string{
		db.MetaLastRunID:    report.RunID,
		db.MetaLastSyncFrom: window.From.Format(time.DateOnly),
		db.MetaLastSyncTo:   window.To.Format(time.DateOnly),
	} {
		if err := syncHistory.SetMetadata(key, value); err != nil {
			slog.Error("Failed to store metadata", "key", key, "error", err)
		}
	}

	// Display final statistics
	fmt.Println("\n=== Sync Results ===")
	fmt.Printf("Run ID:     %s\n", report.RunID)
	fmt.Printf("Complete:   %d\n", report.Count(reconcile.ResultComplete))
	fmt.Printf("Partial:    %d\n", report.Count(reconcile.ResultPartial))
	fmt.Printf("Failed:     %d\n", report.Count(reconcile.ResultFailed))
	fmt.Printf("Duplicate:  %d\n", report.Count(reconcile.ResultDuplicate))
	fmt.Printf("Skipped:    %d\n", len(plan.Skipped))
	for _, res := range report.Results {
		if res.Err != nil {
			fmt.Printf("  %-9s %s %s: %v\n", res.Status, res.Plan.Payment.Processor, res.Plan.Payment.ExternalID, res.Err)
		}
	}
	for _, s := range plan.Skipped {
		fmt.Printf("  %-9s %s %s: %v\n", "skipped", s.Payment.Processor, s.Payment.ExternalID, s.Err)
	}
	fmt.Println()

	slog.Info("Sync completed",
		"run_id", report.RunID,
		"complete", report.Count(reconcile.ResultComplete),
		"partial", report.Count(reconcile.ResultPartial),
		"failed", report.Count(reconcile.ResultFailed),
		"skipped", len(plan.Skipped),
	)
}

// Helper functions

// syncWindow turns the date flags into a half-open window in loc. With days
// set, the window ends at the start of tomorrow.
func syncWindow(from, to string, days int, loc *time.Location, now time.Time) (payment.Window, error) {
	if days > 0 {
		today := now.In(loc)
		end := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1)
		return payment.Window{From: end.AddDate(0, 0, -days), To: end}, nil
	}
	if days < 0 {
		return payment.Window{}, fmt.Errorf("--days must be positive: %d", days)
	}

	start, err := time.ParseInLocation(time.DateOnly, from, loc)
	if err != nil {
		return payment.Window{}, fmt.Errorf("invalid --from: %w", err)
	}
	end, err := time.ParseInLocation(time.DateOnly, to, loc)
	if err != nil {
		return payment.Window{}, fmt.Errorf("invalid --to: %w", err)
	}
	if end.Before(start) {
		return payment.Window{}, fmt.Errorf("--to %s is before --from %s", to, from)
	}

	return payment.Window{From: start, To: end.AddDate(0, 0, 1)}, nil
}

// selectProcessors returns the requested processors, or every enabled one.
func selectProcessors(mapper *mapping.Mapper, requested []string) ([]payment.Processor, error) {
	if len(requested) == 0 {
		enabled := mapper.EnabledProcessors()
		if len(enabled) == 0 {
			return nil, errors.New("no processor is enabled in the mapping")
		}
		return enabled, nil
	}

	var result []payment.Processor
	seen := make(map[payment.Processor]bool)
	for _, name := range requested {
		p, err := payment.ParseProcessor(strings.ToLower(strings.TrimSpace(name)))
		if err != nil {
			return nil, err
		}
		pm, ok := mapper.Processor(p)
		if !ok || !pm.IsEnabled() {
			return nil, fmt.Errorf("%s is not enabled in the mapping", p)
		}
		if !seen[p] {
			seen[p] = true
			result = append(result, p)
		}
	}
	return result, nil
}

func requiredFor(p payment.Processor) [][]string {
	switch p {
	case payment.PayPal:
		return [][]string{
			{"paypal", "apiUrl"},
			{"paypal", "clientId"},
			{"paypal", "clientSecret"},
		}
	case payment.Stripe:
		return [][]string{{"stripe", "secretKey"}}
	default:
		return nil
	}
}

func newSources(cfg *config.Config, mapper *mapping.Mapper, processors []payment.Processor) []payment.Source {
	logger := slog.Default()

	var result []payment.Source
	for _, p := range processors {
		pm, _ := mapper.Processor(p)

		switch p {
		case payment.PayPal:
			client := paypal.NewClient(paypal.ClientConfig{
				APIURL:       cfg.PayPal.APIURL,
				ClientID:     cfg.PayPal.ClientID,
				ClientSecret: cfg.PayPal.ClientSecret,
				Timeout:      30 * time.Second,
			})
			result = append(result, paypal.NewSource(client, paypal.Classifier{
				ProductFilter: pm.ProductFilter,
			}, logger))
		case payment.Stripe:
			client := stripe.NewClient(stripe.ClientConfig{
				SecretKey: cfg.Stripe.SecretKey,
				Timeout:   30 * time.Second,
			})
			result = append(result, stripe.NewSource(client, stripe.Classifier{
				UnitPrice: pm.UnitPrice,
				Location:  mapper.Location(),
			}, logger))
		}
	}
	return result
}

// fetchAll reads the ledger snapshot and every source's payments in parallel.
// fetched[i] holds the payments of srcs[i].
func fetchAll(ctx context.Context, client *akaunting.Client, srcs []payment.Source, window payment.Window) (ledger.Snapshot, [][]payment.Payment, error) {
	var snapshot ledger.Snapshot
	fetched := make([][]payment.Payment, len(srcs))

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Fetching reference data from Akaunting")
		s, err := client.Snapshot(ctx)
		if err != nil {
			return err
		}
		snapshot = s
		return nil
	})

	for i, src := range srcs {
		g.Go(func() error {
			slog.Info("Fetching payments", "processor", src.Processor())
			payments, err := src.Payments(ctx, window)
			if err != nil {
				return err
			}
			fetched[i] = payments
			slog.Info("Fetched payments", "processor", src.Processor(), "count", len(payments))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return ledger.Snapshot{}, nil, err
	}
	return snapshot, fetched, nil
}

func printPlan(plan *reconcile.Plan) {
	for _, pp := range plan.Payments {
		fmt.Printf("[DRY RUN] %s %s -> %s\n", pp.Payment.Processor, pp.Payment.ExternalID, pp.DocumentNumber)
		for _, m := range pp.Mutations {
			fmt.Printf("  %s\n", m)
		}
	}
	for _, s := range plan.Skipped {
		fmt.Printf("[DRY RUN] skip %s %s: %v\n", s.Payment.Processor, s.Payment.ExternalID, s.Err)
	}

	fmt.Printf("\n%d payments, %d mutations, %d skipped\n",
		len(plan.Payments), len(plan.Mutations()), len(plan.Skipped))
}
