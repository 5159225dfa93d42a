package ledger

import (
	"errors"
	"fmt"
)

// ErrReferenceNotFound is returned when a lookup key has no entry in the index.
var ErrReferenceNotFound = errors.New("ledger: reference not found")

// AmbiguousReferenceError is returned when the reference data holds two
// entities with the same natural key.
type AmbiguousReferenceError struct {
	Kind string
	Key  string
}

func (e *AmbiguousReferenceError) Error() string {
	return fmt.Sprintf("ledger: ambiguous %s reference %q", e.Kind, e.Key)
}
