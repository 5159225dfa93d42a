package ledger

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// UnparsedKey buckets existing document numbers without a YYYYMMDD prefix.
const UnparsedKey = "UNPARSED"

const dateKeyLayout = "20060102"

// Sequencer allocates per-day document numbers of the form YYYYMMDD-NNNNN.
// It is owned by a single batch and is not safe for concurrent use.
type Sequencer struct {
	counts map[string]int
}

// NewSequencer creates an empty Sequencer.
func NewSequencer() *Sequencer {
	return &Sequencer{counts: make(map[string]int)}
}

// SeedSequencer creates a Sequencer whose per-day counters start at the number
// of existing documents carrying that day's prefix.
func SeedSequencer(numbers []string) *Sequencer {
	s := NewSequencer()
	for _, number := range numbers {
		s.counts[seedKey(number)]++
	}
	return s
}

// Next increments the counter for date and returns the new document number.
func (s *Sequencer) Next(date time.Time) string {
	key := date.Format(dateKeyLayout)
	s.counts[key]++
	return fmt.Sprintf("%s-%05d", key, s.counts[key])
}

// Peek returns the current counter for a YYYYMMDD key (or UnparsedKey).
func (s *Sequencer) Peek(key string) int {
	return s.counts[key]
}

// ParseDocumentNumber splits a document number on its first "-" and parses
// the date prefix and sequence suffix.
func ParseDocumentNumber(number string) (time.Time, int, error) {
	prefix, suffix, ok := strings.Cut(number, "-")
	if !ok {
		return time.Time{}, 0, fmt.Errorf("invalid document number %q: missing separator", number)
	}

	if len(prefix) != len(dateKeyLayout) {
		return time.Time{}, 0, fmt.Errorf("invalid document number %q: bad date prefix", number)
	}
	date, err := time.Parse(dateKeyLayout, prefix)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("invalid document number %q: %w", number, err)
	}

	seq, err := strconv.Atoi(suffix)
	if err != nil || seq < 0 {
		return time.Time{}, 0, fmt.Errorf("invalid document number %q: bad sequence", number)
	}

	return date, seq, nil
}

func seedKey(number string) string {
	date, _, err := ParseDocumentNumber(number)
	if err != nil {
		return UnparsedKey
	}
	return date.Format(dateKeyLayout)
}
