// Package main runs a local Akaunting API emulator for development and
// testing of akaunting-sync.
//
// @title Akaunting API Emulator
// @version 1.0
// @description Local emulator for the Akaunting REST API used by akaunting-sync
//
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
//
// @host localhost:8080
// @BasePath /api
//
// @securityDefinitions.basic BasicAuth
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/pigeonworks-llc/akaunting-sync/emulator/internal/api"
	"github.com/pigeonworks-llc/akaunting-sync/emulator/internal/store"
)

const (
	defaultPort      = "8080"
	defaultDBPath    = "./data/akaunting-emulator.db"
	defaultCompanyID = 1
)

func main() {
	// Setup structured JSON logging.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Get configuration from environment variables.
	port := getEnv("PORT", defaultPort)
	dbPath := getEnv("DB_PATH", defaultDBPath)
	creds := api.Credentials{
		Email:    getEnv("AKAUNTING_EMAIL", "admin@example.com"),
		Password: getEnv("AKAUNTING_PASSWORD", "secret"),
	}

	companyID := int64(defaultCompanyID)
	if s := os.Getenv("AKAUNTING_COMPANY_ID"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			slog.Error("invalid AKAUNTING_COMPANY_ID", "value", s)
			os.Exit(1)
		}
		companyID = id
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		slog.Error("failed to create data directory", "error", err)
		os.Exit(1)
	}

	// Initialize store.
	st, err := store.New(dbPath, companyID)
	if err != nil {
		slog.Error("failed to initialize store", "error", err, "db_path", dbPath)
		os.Exit(1)
	}
	defer func() {
		if err := st.Close(); err != nil {
			slog.Error("failed to close store", "error", err)
		}
	}()

	slog.Info("database initialized", "db_path", dbPath, "company_id", companyID)

	if err := seed(st, os.Getenv("SEED_FILE")); err != nil {
		slog.Error("failed to seed store", "error", err)
		os.Exit(1)
	}

	// Start server.
	addr := fmt.Sprintf(":%s", port)
	slog.Info("starting Akaunting API emulator", "addr", addr, "port", port)

	server := &http.Server{
		Addr:         addr,
		Handler:      api.NewRouter(st, creds),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		slog.Info("shutting down server")
		if err := server.Close(); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}

// seed loads reference data into an empty store, from path or the demo set.
func seed(st *store.Store, path string) error {
	empty, err := st.Empty()
	if err != nil || !empty {
		return err
	}

	var data *store.Seed
	if path != "" {
		data, err = store.LoadSeed(path)
	} else {
		data, err = store.ParseSeed([]byte(store.DemoSeed))
	}
	if err != nil {
		return err
	}

	slog.Info("seeding reference data", "accounts", len(data.Accounts), "items", len(data.Items))
	return st.Apply(data)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
