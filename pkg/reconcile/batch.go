// Package reconcile plans and executes the ledger mutations that record
// processor payments in Akaunting.
//
// Planning is sequential: a Batch owns the per-day document counter and the
// customer placeholders created during the run. Execution may be parallel per
// payment once the plan is complete.
package reconcile

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/pigeonworks-llc/akaunting-sync/pkg/ledger"
)

// Batch is the state of one reconciliation run. It is not safe for
// concurrent use.
type Batch struct {
	index  *ledger.Index
	seq    *ledger.Sequencer
	loc    *time.Location
	logger *slog.Logger
}

// BatchOption configures a Batch.
type BatchOption func(*Batch)

// WithLocation sets the zone used to derive the document date of a payment.
func WithLocation(loc *time.Location) BatchOption {
	return func(b *Batch) {
		if loc != nil {
			b.loc = loc
		}
	}
}

// WithBatchLogger sets the logger.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *Batch) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBatch starts a batch over index. The document counter is seeded from the
// invoices in the index.
func NewBatch(index *ledger.Index, opts ...BatchOption) *Batch {
	b := &Batch{
		index:  index,
		seq:    index.NewSequencer(),
		loc:    time.Local,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Index returns the batch's reference index.
func (b *Batch) Index() *ledger.Index {
	return b.index
}

// NextDocumentNumber allocates the next document number for the day the
// payment settled on. Allocated numbers are never reused, even if the invoice
// is never created.
func (b *Batch) NextDocumentNumber(settledAt time.Time) string {
	return b.seq.Next(settledAt.In(b.loc))
}

// TargetNames names the ledger entities payments of one processor are booked
// against.
type TargetNames struct {
	Account         string
	Item            string
	IncomeCategory  string
	ExpenseCategory string
	FeeVendor       string
}

// Targets are the resolved ledger entities for a processor.
type Targets struct {
	Account         ledger.Account
	Item            ledger.Item
	IncomeCategory  ledger.Category
	ExpenseCategory ledger.Category
	ExpenseVendor   ledger.Contact
}

// ResolveTargets looks up the named targets in the index. Any missing entity
// is an error wrapping ledger.ErrReferenceNotFound.
func ResolveTargets(index *ledger.Index, names TargetNames) (Targets, error) {
	var t Targets
	var err error

	if t.Account, err = index.Account(names.Account); err != nil {
		return Targets{}, fmt.Errorf("failed to resolve targets: %w", err)
	}
	if t.Item, err = index.Item(names.Item); err != nil {
		return Targets{}, fmt.Errorf("failed to resolve targets: %w", err)
	}
	if t.IncomeCategory, err = index.Category(ledger.CategoryIncome, names.IncomeCategory); err != nil {
		return Targets{}, fmt.Errorf("failed to resolve targets: %w", err)
	}
	if t.ExpenseCategory, err = index.Category(ledger.CategoryExpense, names.ExpenseCategory); err != nil {
		return Targets{}, fmt.Errorf("failed to resolve targets: %w", err)
	}
	if t.ExpenseVendor, err = index.Vendor(names.FeeVendor); err != nil {
		return Targets{}, fmt.Errorf("failed to resolve targets: %w", err)
	}

	return t, nil
}
