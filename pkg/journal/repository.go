// Package journal keeps a plain-text, append-only audit trail of the ledger
// writes made for each processor transaction, one file per month.
package journal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pigeonworks-llc/akaunting-sync/pkg/pathutil"
)

// Entry is the audit record of one executed payment.
type Entry struct {
	RunID          string
	Processor      string
	ExternalID     string
	DocumentNumber string
	SettledAt      time.Time
	Amount         string
	CurrencyCode   string
	Status         string
	CustomerID     int64
	InvoiceID      int64
	IncomeID       int64
	ExpenseID      int64
	Error          string
}

// Repository defines the interface for journal file operations.
type Repository interface {
	// Append appends an entry to the file of the month it settled in
	Append(entry Entry) error

	// ReadMonthFile reads the content of a monthly file
	ReadMonthFile(yearMonth string) (string, error)

	// GetMonthFilesInYear gets all monthly files in a year
	GetMonthFilesInYear(year string) ([]string, error)
}

// FileSystemRepository is a file system implementation of Repository.
// It is safe for concurrent use.
type FileSystemRepository struct {
	mu           sync.Mutex
	pathResolver *pathutil.PathResolver
}

// NewFileSystemRepository creates a new FileSystemRepository.
func NewFileSystemRepository(pathResolver *pathutil.PathResolver) *FileSystemRepository {
	return &FileSystemRepository{
		pathResolver: pathResolver,
	}
}

// Append appends an entry to its monthly file.
// It creates the file if it doesn't exist.
func (r *FileSystemRepository) Append(entry Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	yearMonth := entry.SettledAt.Format("2006-01")

	filePath, err := r.pathResolver.GetMonthFilePath(yearMonth)
	if err != nil {
		return fmt.Errorf("failed to get month file path: %w", err)
	}

	if err := r.ensureMonthFile(yearMonth, filePath); err != nil {
		return fmt.Errorf("failed to ensure month file: %w", err)
	}

	f, err := os.OpenFile(filePath, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file for appending: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(FormatEntry(entry)); err != nil {
		return fmt.Errorf("failed to write to file: %w", err)
	}

	return nil
}

// FormatEntry renders an entry as a journal block followed by a blank line.
func FormatEntry(e Entry) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s %s %s %s %s %s\n",
		e.SettledAt.Format(time.DateTime),
		e.Status,
		e.Processor,
		e.ExternalID,
		e.DocumentNumber,
		e.Amount,
		e.CurrencyCode,
	)
	fmt.Fprintf(&b, "  run: %s\n", e.RunID)

	var ids []string
	for _, id := range []struct {
		name  string
		value int64
	}{
		{"customer", e.CustomerID},
		{"invoice", e.InvoiceID},
		{"income", e.IncomeID},
		{"expense", e.ExpenseID},
	} {
		if id.value != 0 {
			ids = append(ids, fmt.Sprintf("%s=%d", id.name, id.value))
		}
	}
	if len(ids) > 0 {
		fmt.Fprintf(&b, "  created: %s\n", strings.Join(ids, " "))
	}

	if e.Error != "" {
		fmt.Fprintf(&b, "  error: %s\n", e.Error)
	}

	b.WriteString("\n")
	return b.String()
}

// ReadMonthFile reads the content of a monthly file.
// Returns empty string if file doesn't exist.
func (r *FileSystemRepository) ReadMonthFile(yearMonth string) (string, error) {
	filePath, err := r.pathResolver.GetMonthFilePath(yearMonth)
	if err != nil {
		return "", fmt.Errorf("failed to get month file path: %w", err)
	}

	if !r.pathResolver.FileExists(filePath) {
		return "", nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	return string(data), nil
}

// GetMonthFilesInYear gets all monthly files in a year.
// Returns a slice of year-month strings (e.g., ["2024-01", "2024-02"]).
func (r *FileSystemRepository) GetMonthFilesInYear(year string) ([]string, error) {
	yearDir := r.pathResolver.GetYearDir(year)
	if !r.pathResolver.FileExists(yearDir) {
		return []string{}, nil
	}

	entries, err := os.ReadDir(yearDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read year directory: %w", err)
	}

	var monthFiles []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if filepath.Ext(name) == ".log" {
			monthFiles = append(monthFiles, strings.TrimSuffix(name, ".log"))
		}
	}

	return monthFiles, nil
}

func (r *FileSystemRepository) ensureMonthFile(yearMonth, filePath string) error {
	if r.pathResolver.FileExists(filePath) {
		return nil
	}

	if err := r.pathResolver.EnsureParentDir(filePath); err != nil {
		return fmt.Errorf("failed to ensure parent directory: %w", err)
	}

	header := fmt.Sprintf("# akaunting-sync journal for %s\n# Created at %s\n\n", yearMonth, time.Now().Format(time.RFC3339))
	if err := os.WriteFile(filePath, []byte(header), 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}
