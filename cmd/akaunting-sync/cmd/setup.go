package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pigeonworks-llc/akaunting-sync/pkg/akaunting"
	"github.com/pigeonworks-llc/akaunting-sync/pkg/ledger"
	"github.com/pigeonworks-llc/akaunting-sync/pkg/mapping"
	"github.com/pigeonworks-llc/akaunting-sync/pkg/reconcile"
	"github.com/spf13/cobra"
)

var (
	setupSources []string
	setupDryRun  bool
)

// setupCmd represents the setup command.
var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create the Akaunting accounts, categories and vendors the mapping names",
	Long: `Create the reference records sync books payments against.

For every enabled processor in the mapping this command looks up the
account, income and expense categories and fee vendor in Akaunting and
creates the ones that do not exist. Existing records are left alone.
Items are not created: their price is set in Akaunting by hand.

Example:
  akaunting-sync setup --dry-run
  akaunting-sync setup --source stripe`,
	Args: cobra.NoArgs,
	Run:  runSetup,
}

func init() {
	setupCmd.Flags().StringSliceVar(&setupSources, "source", nil, "Processors to set up (paypal,stripe) (default: all enabled in the mapping)")
	setupCmd.Flags().BoolVar(&setupDryRun, "dry-run", false, "Print the records that would be created")
}

func runSetup(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := loadConfig(
		[]string{"akaunting", "apiUrl"},
		[]string{"akaunting", "email"},
		[]string{"akaunting", "password"},
		[]string{"akaunting", "companyId"},
		[]string{"storage", "mappingFile"},
	)

	mapper, err := mapping.NewMapper(cfg.Storage.MappingFile)
	exitOnError(err, "failed to load mapping")

	processors, err := selectProcessors(mapper, setupSources)
	exitOnError(err, "invalid --source")

	client := akaunting.NewClient(akaunting.ClientConfig{
		APIURL:            cfg.Akaunting.APIURL,
		Email:             cfg.Akaunting.Email,
		Password:          cfg.Akaunting.Password,
		CompanyID:         cfg.Akaunting.CompanyID,
		Timeout:           30 * time.Second,
		RequestsPerSecond: cfg.Akaunting.RateLimit,
	})
	exitOnError(client.Ping(ctx), "failed to connect to Akaunting")

	slog.Info("Fetching reference data from Akaunting")
	snapshot, err := client.Snapshot(ctx)
	exitOnError(err, "failed to fetch reference data")

	index, err := ledger.BuildIndex(snapshot)
	exitOnError(err, "failed to index Akaunting data")

	var targets []reconcile.SetupTarget
	for _, p := range processors {
		pm, _ := mapper.Processor(p)
		targets = append(targets, pm.SetupTarget())
	}

	plan, err := reconcile.PlanSetup(index, targets)
	exitOnError(err, "failed to plan setup")

	for _, item := range plan.MissingItems {
		fmt.Printf("Item %q does not exist; create it in Akaunting before syncing\n", item)
	}

	if len(plan.Mutations) == 0 {
		fmt.Println("Nothing to create")
		return
	}

	if setupDryRun {
		for _, m := range plan.Mutations {
			fmt.Printf("[DRY RUN] %s\n", m)
		}
		fmt.Printf("\n%d records would be created\n", len(plan.Mutations))
		return
	}

	created, err := reconcile.ApplySetup(ctx, client, plan)
	for _, m := range plan.Mutations[:created] {
		fmt.Printf("Created %s\n", m)
	}
	exitOnError(err, "failed to create reference data")

	slog.Info("Setup completed", "created", created, "missing_items", len(plan.MissingItems))
}
