package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pigeonworks-llc/akaunting-sync/pkg/db"
	"github.com/pigeonworks-llc/akaunting-sync/pkg/journal"
	"github.com/pigeonworks-llc/akaunting-sync/pkg/ledger"
)

// LedgerWriter issues create requests against the ledger. Contacts passed in
// a request are already resolved.
type LedgerWriter interface {
	CreateCustomer(ctx context.Context, m ledger.CreateCustomer) (ledger.Contact, error)
	CreateInvoice(ctx context.Context, m ledger.CreateInvoice) (ledger.Invoice, error)
	CreateIncome(ctx context.Context, m ledger.CreateIncome, invoice ledger.Invoice) (ledger.Transaction, error)
	CreateExpense(ctx context.Context, m ledger.CreateExpense) (ledger.Transaction, error)
}

// History records which processor transactions have been written.
type History interface {
	IsSynced(processor, externalID string) (bool, error)
	RecordSync(record db.SyncRecord) error
}

// Journal receives one audit entry per executed payment.
type Journal interface {
	Append(entry journal.Entry) error
}

// ResultStatus is the outcome of executing one payment plan.
type ResultStatus string

const (
	ResultComplete  ResultStatus = ResultStatus(db.StatusComplete)
	ResultPartial   ResultStatus = ResultStatus(db.StatusPartial)
	ResultFailed    ResultStatus = ResultStatus(db.StatusFailed)
	ResultDuplicate ResultStatus = "duplicate"
)

// PaymentResult is the outcome of one payment plan.
type PaymentResult struct {
	Plan       PaymentPlan
	Status     ResultStatus
	CustomerID int64
	InvoiceID  int64
	IncomeID   int64
	ExpenseID  int64
	Err        error
}

// applied counts the payment's own records. A created customer is not one of
// them: it is found by email in the next snapshot, so a payment that created
// only its customer is still retried as failed.
func (r *PaymentResult) applied() int {
	n := 0
	for _, id := range []int64{r.InvoiceID, r.IncomeID, r.ExpenseID} {
		if id != 0 {
			n++
		}
	}
	return n
}

// Report summarizes an execution run. Results are in plan order.
type Report struct {
	RunID   string
	Results []PaymentResult
}

// Count returns the number of results with the given status.
func (r *Report) Count(status ResultStatus) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == status {
			n++
		}
	}
	return n
}

// Executor applies a Plan to the ledger.
//
// Customers are created first, one at a time, so that every payment sharing
// an email resolves to the same new contact. Payment plans then run
// concurrently, each in its own mutation order. A failing mutation stops its
// payment; records already created are kept and reported as partial.
type Executor struct {
	writer  LedgerWriter
	history History
	journal Journal
	logger  *slog.Logger
	workers int
	runID   string

	mu sync.Mutex
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithWorkers sets how many payment plans run concurrently.
func WithWorkers(n int) ExecutorOption {
	return func(e *Executor) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithJournal sets the audit journal.
func WithJournal(j Journal) ExecutorOption {
	return func(e *Executor) {
		e.journal = j
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ExecutorOption {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithRunID overrides the generated run identifier.
func WithRunID(id string) ExecutorOption {
	return func(e *Executor) {
		if id != "" {
			e.runID = id
		}
	}
}

// NewExecutor creates an Executor writing to writer and recording outcomes in
// history.
func NewExecutor(writer LedgerWriter, history History, opts ...ExecutorOption) *Executor {
	e := &Executor{
		writer:  writer,
		history: history,
		logger:  slog.Default(),
		workers: 1,
		runID:   uuid.NewString(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RunID returns the identifier recorded with every history row of this run.
func (e *Executor) RunID() string {
	return e.runID
}

// Execute applies plan. Ledger failures are reported per payment; the
// returned error is reserved for history, journal and context failures.
func (e *Executor) Execute(ctx context.Context, plan *Plan) (*Report, error) {
	report := &Report{
		RunID:   e.runID,
		Results: make([]PaymentResult, len(plan.Payments)),
	}

	for i, pp := range plan.Payments {
		report.Results[i].Plan = pp
		synced, err := e.history.IsSynced(string(pp.Payment.Processor), pp.Payment.ExternalID)
		if err != nil {
			return report, fmt.Errorf("failed to check sync history: %w", err)
		}
		if synced {
			report.Results[i].Status = ResultDuplicate
			e.logger.Info("Skipping already synced payment",
				"processor", pp.Payment.Processor,
				"external_id", pp.Payment.ExternalID,
			)
		}
	}

	customers, customerErrs := e.createCustomers(ctx, report)
	if err := ctx.Err(); err != nil {
		return report, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i := range report.Results {
		res := &report.Results[i]
		if res.Status == ResultDuplicate {
			continue
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			e.executePayment(gctx, res, customers, customerErrs)
			return e.record(res)
		})
	}

	if err := g.Wait(); err != nil {
		return report, err
	}

	return report, nil
}

// createCustomers creates every pending customer referenced by a payment that
// will be executed. The new contact is attributed to the first such payment.
func (e *Executor) createCustomers(ctx context.Context, report *Report) (map[string]ledger.Contact, map[string]error) {
	requests := make(map[string]ledger.CreateCustomer)
	for _, res := range report.Results {
		for _, m := range res.Plan.Mutations {
			if cc, ok := m.(ledger.CreateCustomer); ok {
				if _, seen := requests[cc.Email]; !seen {
					requests[cc.Email] = cc
				}
			}
		}
	}

	created := make(map[string]ledger.Contact)
	failed := make(map[string]error)

	for i := range report.Results {
		res := &report.Results[i]
		if res.Status == ResultDuplicate {
			continue
		}

		email, pending := pendingEmail(res.Plan)
		if !pending {
			continue
		}
		if _, ok := created[email]; ok {
			continue
		}
		if _, ok := failed[email]; ok {
			continue
		}
		if ctx.Err() != nil {
			return created, failed
		}

		req, ok := requests[email]
		if !ok {
			failed[email] = fmt.Errorf("no customer planned for %q", email)
			continue
		}

		contact, err := e.writer.CreateCustomer(ctx, req)
		if err != nil {
			failed[email] = fmt.Errorf("failed to create customer: %w", err)
			continue
		}

		e.logger.Debug("Created customer", "id", contact.ID, "email", email)
		created[email] = contact
		res.CustomerID = contact.ID
	}

	return created, failed
}

func pendingEmail(pp PaymentPlan) (string, bool) {
	for _, m := range pp.Mutations {
		if inv, ok := m.(ledger.CreateInvoice); ok && inv.Contact.Pending() {
			return inv.Contact.Email, true
		}
	}
	return "", false
}

func (e *Executor) executePayment(ctx context.Context, res *PaymentResult, customers map[string]ledger.Contact, customerErrs map[string]error) {
	invoices := make(map[string]ledger.Invoice)

	resolve := func(c ledger.Contact) (ledger.Contact, error) {
		if !c.Pending() {
			return c, nil
		}
		if err, ok := customerErrs[c.Email]; ok {
			return ledger.Contact{}, err
		}
		created, ok := customers[c.Email]
		if !ok {
			return ledger.Contact{}, fmt.Errorf("customer %q was not created", c.Email)
		}
		return created, nil
	}

	err := func() error {
		for _, m := range res.Plan.Mutations {
			switch m := m.(type) {
			case ledger.CreateCustomer:
				// created up front

			case ledger.CreateInvoice:
				contact, err := resolve(m.Contact)
				if err != nil {
					return err
				}
				m.Contact = contact
				inv, err := e.writer.CreateInvoice(ctx, m)
				if err != nil {
					return fmt.Errorf("failed to create invoice %s: %w", m.DocumentNumber, err)
				}
				invoices[m.DocumentNumber] = inv
				res.InvoiceID = inv.ID

			case ledger.CreateIncome:
				inv, ok := invoices[m.Invoice.DocumentNumber]
				if !ok {
					return fmt.Errorf("invoice %s not created in this payment", m.Invoice.DocumentNumber)
				}
				contact, err := resolve(m.Contact)
				if err != nil {
					return err
				}
				m.Contact = contact
				tx, err := e.writer.CreateIncome(ctx, m, inv)
				if err != nil {
					return fmt.Errorf("failed to create income: %w", err)
				}
				res.IncomeID = tx.ID

			case ledger.CreateExpense:
				tx, err := e.writer.CreateExpense(ctx, m)
				if err != nil {
					return fmt.Errorf("failed to create expense: %w", err)
				}
				res.ExpenseID = tx.ID

			default:
				return fmt.Errorf("unsupported mutation %s", m.Kind())
			}
		}
		return nil
	}()

	switch {
	case err == nil:
		res.Status = ResultComplete
	case res.applied() > 0:
		res.Status = ResultPartial
	default:
		res.Status = ResultFailed
	}
	res.Err = err

	if err != nil {
		e.logger.Error("Failed to sync payment",
			"processor", res.Plan.Payment.Processor,
			"external_id", res.Plan.Payment.ExternalID,
			"document_number", res.Plan.DocumentNumber,
			"status", res.Status,
			"error", err,
		)
	}
}

func (e *Executor) record(res *PaymentResult) error {
	p := res.Plan.Payment

	var errText string
	if res.Err != nil {
		errText = res.Err.Error()
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	err := e.history.RecordSync(db.SyncRecord{
		Processor:      string(p.Processor),
		ExternalID:     p.ExternalID,
		DocumentNumber: res.Plan.DocumentNumber,
		SettledAt:      p.SettledAt.Format(time.DateTime),
		Amount:         p.Amount.StringFixed(2),
		CurrencyCode:   p.CurrencyCode,
		CustomerID:     db.NullID(res.CustomerID),
		InvoiceID:      db.NullID(res.InvoiceID),
		IncomeID:       db.NullID(res.IncomeID),
		ExpenseID:      db.NullID(res.ExpenseID),
		Status:         db.SyncStatus(res.Status),
		Error:          errText,
		RunID:          e.runID,
	})
	if err != nil {
		return fmt.Errorf("failed to record sync for %s: %w", p.ExternalID, err)
	}

	if e.journal == nil {
		return nil
	}

	err = e.journal.Append(journal.Entry{
		RunID:          e.runID,
		Processor:      string(p.Processor),
		ExternalID:     p.ExternalID,
		DocumentNumber: res.Plan.DocumentNumber,
		SettledAt:      p.SettledAt,
		Amount:         p.Amount.StringFixed(2),
		CurrencyCode:   p.CurrencyCode,
		Status:         string(res.Status),
		CustomerID:     res.CustomerID,
		InvoiceID:      res.InvoiceID,
		IncomeID:       res.IncomeID,
		ExpenseID:      res.ExpenseID,
		Error:          errText,
	})
	if err != nil {
		return fmt.Errorf("failed to append journal: %w", err)
	}

	return nil
}

// Errors returns the per-payment errors of the report joined together, or nil.
func (r *Report) Errors() error {
	var errs []error
	for _, res := range r.Results {
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("%s %s: %w", res.Plan.Payment.Processor, res.Plan.Payment.ExternalID, res.Err))
		}
	}
	return errors.Join(errs...)
}
