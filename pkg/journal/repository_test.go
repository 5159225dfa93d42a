package journal

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pigeonworks-llc/akaunting-sync/pkg/pathutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatEntry(t *testing.T) {
	e := Entry{
		RunID:          "run-1",
		Processor:      "paypal",
		ExternalID:     "TX1",
		DocumentNumber: "20240115-00003",
		SettledAt:      time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		Amount:         "30.00",
		CurrencyCode:   "USD",
		Status:         "partial",
		InvoiceID:      11,
		Error:          "failed to create income: status 500",
	}

	expected := "2024-01-15 10:30:00 partial paypal TX1 20240115-00003 30.00 USD\n" +
		"  run: run-1\n" +
		"  created: invoice=11\n" +
		"  error: failed to create income: status 500\n\n"

	assert.Equal(t, expected, FormatEntry(e))
}

func TestAppendGroupsByMonth(t *testing.T) {
	repo := NewFileSystemRepository(pathutil.New(pathutil.Config{DataRoot: t.TempDir()}))

	jan := Entry{ExternalID: "A", Status: "complete", SettledAt: time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)}
	feb := Entry{ExternalID: "B", Status: "complete", SettledAt: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)}

	require.NoError(t, repo.Append(jan))
	require.NoError(t, repo.Append(feb))

	months, err := repo.GetMonthFilesInYear("2024")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"2024-01", "2024-02"}, months)

	content, err := repo.ReadMonthFile("2024-01")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(content, "# akaunting-sync journal for 2024-01\n"))
	assert.Contains(t, content, " complete  A ")
	assert.NotContains(t, content, " B ")

	missing, err := repo.ReadMonthFile("2023-12")
	require.NoError(t, err)
	assert.Empty(t, missing)

	none, err := repo.GetMonthFilesInYear("2023")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestAppendConcurrent(t *testing.T) {
	repo := NewFileSystemRepository(pathutil.New(pathutil.Config{DataRoot: t.TempDir()}))
	settled := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, repo.Append(Entry{Status: "complete", SettledAt: settled}))
		}()
	}
	wg.Wait()

	content, err := repo.ReadMonthFile("2024-03")
	require.NoError(t, err)
	assert.Equal(t, 20, strings.Count(content, "  run: "))
	assert.Equal(t, 1, strings.Count(content, "# akaunting-sync journal"))
}
