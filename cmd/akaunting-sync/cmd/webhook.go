package cmd

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pigeonworks-llc/akaunting-sync/pkg/webhook"
	"github.com/spf13/cobra"
)

var webhookAddr string

// webhookCmd groups the webhook inbox commands.
var webhookCmd = &cobra.Command{
	Use:   "webhook",
	Short: "PayPal webhook inbox",
}

var webhookServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Receive and store PayPal webhook events",
	Long: `Run an HTTP server that stores PayPal webhook notifications.

Events are kept once per event id in a local bbolt file and can be
listed at GET /webhooks/paypal.

Example:
  akaunting-sync webhook serve --addr :8080`,
	Args: cobra.NoArgs,
	Run:  runWebhookServe,
}

func init() {
	webhookServeCmd.Flags().StringVar(&webhookAddr, "addr", ":8080", "Listen address")

	webhookCmd.AddCommand(webhookServeCmd)
}

func runWebhookServe(cmd *cobra.Command, args []string) {
	cfg := loadConfig([]string{"storage", "dataRoot"})

	pathResolver := newPathResolver(cfg)
	dbPath := pathResolver.GetWebhookDBPath()
	exitOnError(pathResolver.EnsureParentDir(dbPath), "failed to create webhook directory")

	store, err := webhook.Open(dbPath)
	exitOnError(err, "failed to open webhook store")
	defer store.Close()

	handler := webhook.NewHandler(store, slog.Default())

	srv := &http.Server{
		Addr:         webhookAddr,
		Handler:      handler.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("Starting webhook inbox", "addr", webhookAddr, "db", dbPath, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			exitOnError(err, "server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down webhook inbox")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Webhook inbox stopped")
}
