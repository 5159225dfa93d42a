package reconcile

import (
	"errors"
	"fmt"

	"github.com/pigeonworks-llc/akaunting-sync/pkg/ledger"
	"github.com/pigeonworks-llc/akaunting-sync/pkg/payment"
)

// PaymentPlan is the ordered mutation list for one payment.
type PaymentPlan struct {
	Payment        payment.Payment
	DocumentNumber string
	Mutations      []ledger.Mutation
}

// Skip records a payment that was left out of the plan.
type Skip struct {
	Payment payment.Payment
	Err     error
}

// Plan is the outcome of reconciling a sequence of payments.
type Plan struct {
	Payments []PaymentPlan
	Skipped  []Skip
}

// Mutations returns every planned mutation in execution order.
func (p *Plan) Mutations() []ledger.Mutation {
	var all []ledger.Mutation
	for _, pp := range p.Payments {
		all = append(all, pp.Mutations...)
	}
	return all
}

// Reconcile plans the mutations for payments, in order.
//
// Per payment: create the customer if the email is unknown, allocate the
// document number, create the invoice, record the income against it, and
// book the fee as an expense when it is positive. Payments whose email cannot
// identify a customer are skipped. Duplicate detection is left to the caller.
func (b *Batch) Reconcile(payments []payment.Payment, t Targets) *Plan {
	plan := &Plan{}

	for _, p := range payments {
		pp, err := b.reconcileOne(p, t)
		if err != nil {
			b.logger.Warn("Skipping payment",
				"processor", p.Processor,
				"external_id", p.ExternalID,
				"error", err,
			)
			plan.Skipped = append(plan.Skipped, Skip{Payment: p, Err: err})
			continue
		}
		plan.Payments = append(plan.Payments, pp)
	}

	return plan
}

// ReconcileAll plans payments from several processors in the given order,
// booking each against the targets of its processor. Document numbers are
// allocated in that order across processors. A payment whose processor has
// no targets is skipped.
func (b *Batch) ReconcileAll(payments []payment.Payment, targets map[payment.Processor]Targets) *Plan {
	plan := &Plan{}

	for start := 0; start < len(payments); {
		end := start + 1
		for end < len(payments) && payments[end].Processor == payments[start].Processor {
			end++
		}
		run := payments[start:end]
		start = end

		t, ok := targets[run[0].Processor]
		if !ok {
			for _, p := range run {
				plan.Skipped = append(plan.Skipped, Skip{
					Payment: p,
					Err:     fmt.Errorf("no ledger targets for %s: %w", p.Processor, ledger.ErrReferenceNotFound),
				})
			}
			continue
		}

		sub := b.Reconcile(run, t)
		plan.Payments = append(plan.Payments, sub.Payments...)
		plan.Skipped = append(plan.Skipped, sub.Skipped...)
	}

	return plan
}

func (b *Batch) reconcileOne(p payment.Payment, t Targets) (PaymentPlan, error) {
	description := p.Description()

	contact, create, err := b.ResolveCustomer(p.PayerEmail, p.PayerName, t.Account.CurrencyCode)
	if err != nil {
		var ace *AmbiguousContactError
		if errors.As(err, &ace) {
			ace.ExternalID = p.ExternalID
		}
		return PaymentPlan{}, err
	}

	pp := PaymentPlan{Payment: p}
	if create != nil {
		create.Description = description
		pp.Mutations = append(pp.Mutations, *create)
	}

	pp.DocumentNumber = b.NextDocumentNumber(p.SettledAt)

	pp.Mutations = append(pp.Mutations,
		ledger.CreateInvoice{
			Contact:        contact,
			CurrencyCode:   t.Account.CurrencyCode,
			IssuedAt:       p.SettledAt.In(b.loc),
			DocumentNumber: pp.DocumentNumber,
			Item:           t.Item,
			Quantity:       p.Quantity,
			Category:       t.IncomeCategory,
			Description:    description,
		},
		ledger.CreateIncome{
			Account:     t.Account,
			Invoice:     ledger.InvoiceRef{DocumentNumber: pp.DocumentNumber},
			Category:    t.IncomeCategory,
			Contact:     contact,
			Description: description,
		},
	)

	if p.FeeAmount.IsPositive() {
		pp.Mutations = append(pp.Mutations, ledger.CreateExpense{
			Account:     t.Account,
			Category:    t.ExpenseCategory,
			Vendor:      t.ExpenseVendor,
			Description: description,
			Amount:      p.FeeAmount,
			PaidAt:      p.SettledAt.In(b.loc),
		})
	}

	return pp, nil
}
