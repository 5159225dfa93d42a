// Package pathutil provides centralized path management for the sync database,
// the webhook inbox and the audit journal.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathResolver manages paths for sync state and journal files.
type PathResolver struct {
	dataRoot      string
	databasePath  string
	webhookDBPath string
	journalDir    string
}

// Config represents the configuration for PathResolver.
type Config struct {
	// DataRoot is the root directory for all sync state (e.g., ~/.akaunting-sync)
	DataRoot string
	// DatabasePath is the path to the SQLite database file for sync history
	DatabasePath string
	// WebhookDBPath is the path to the bbolt file holding received webhooks
	WebhookDBPath string
	// JournalDir is the directory for the monthly audit journal
	JournalDir string
}

// New creates a new PathResolver with the given configuration.
// If DatabasePath is empty, it defaults to {DataRoot}/.sync/sync.db
// If WebhookDBPath is empty, it defaults to {DataRoot}/.sync/webhooks.db
// If JournalDir is empty, it defaults to {DataRoot}/journal
func New(config Config) *PathResolver {
	dbPath := config.DatabasePath
	if dbPath == "" {
		dbPath = filepath.Join(config.DataRoot, ".sync", "sync.db")
	}

	webhookDBPath := config.WebhookDBPath
	if webhookDBPath == "" {
		webhookDBPath = filepath.Join(config.DataRoot, ".sync", "webhooks.db")
	}

	journalDir := config.JournalDir
	if journalDir == "" {
		journalDir = filepath.Join(config.DataRoot, "journal")
	}

	return &PathResolver{
		dataRoot:      config.DataRoot,
		databasePath:  dbPath,
		webhookDBPath: webhookDBPath,
		journalDir:    journalDir,
	}
}

// GetDataRoot returns the data root directory.
func (p *PathResolver) GetDataRoot() string {
	return p.dataRoot
}

// GetDatabasePath returns the database file path.
func (p *PathResolver) GetDatabasePath() string {
	return p.databasePath
}

// GetWebhookDBPath returns the webhook inbox file path.
func (p *PathResolver) GetWebhookDBPath() string {
	return p.webhookDBPath
}

// GetJournalDir returns the audit journal directory.
func (p *PathResolver) GetJournalDir() string {
	return p.journalDir
}

// GetYearDir returns the journal directory for a year.
// Example: ~/.akaunting-sync/journal/2024
func (p *PathResolver) GetYearDir(year string) string {
	return filepath.Join(p.journalDir, year)
}

// GetMonthFilePath returns the journal file path for a month.
// yearMonth should be in YYYY-MM format.
// Example: ~/.akaunting-sync/journal/2024/2024-01.log
func (p *PathResolver) GetMonthFilePath(yearMonth string) (string, error) {
	parts := strings.Split(yearMonth, "-")
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 2 {
		return "", fmt.Errorf("invalid year-month format: %s. Expected YYYY-MM", yearMonth)
	}

	year := parts[0]
	filename := fmt.Sprintf("%s.log", yearMonth)

	return filepath.Join(p.GetYearDir(year), filename), nil
}

// EnsureDir creates a directory if it doesn't exist.
// It creates all parent directories as needed (like mkdir -p).
func (p *PathResolver) EnsureDir(dirPath string) error {
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dirPath, err)
	}
	return nil
}

// EnsureParentDir ensures the parent directory of a file exists.
func (p *PathResolver) EnsureParentDir(filePath string) error {
	return p.EnsureDir(filepath.Dir(filePath))
}

// FileExists checks if a file exists.
func (p *PathResolver) FileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return err == nil
}
