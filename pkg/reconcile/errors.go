package reconcile

import "fmt"

// AmbiguousContactError is returned when a payer email cannot identify a
// customer. The payment is skipped.
type AmbiguousContactError struct {
	ExternalID string
	Email      string
}

func (e *AmbiguousContactError) Error() string {
	if e.ExternalID == "" {
		return fmt.Sprintf("reconcile: cannot resolve customer from email %q", e.Email)
	}
	return fmt.Sprintf("reconcile: cannot resolve customer for transaction %s from email %q", e.ExternalID, e.Email)
}
