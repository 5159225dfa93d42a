package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/pigeonworks-llc/akaunting-sync/pkg/ledger"
)

// Provisioner creates the reference records payments are booked against.
type Provisioner interface {
	CreateAccount(ctx context.Context, m ledger.CreateAccount) (ledger.Account, error)
	CreateCategory(ctx context.Context, m ledger.CreateCategory) (ledger.Category, error)
	CreateVendor(ctx context.Context, m ledger.CreateVendor) (ledger.Contact, error)
}

// SetupTarget is the target names of one processor and the currency new
// accounts and vendors are created in.
type SetupTarget struct {
	Names        TargetNames
	CurrencyCode string
}

// SetupPlan lists the reference records missing from the ledger.
type SetupPlan struct {
	Mutations []ledger.Mutation
	// MissingItems must be created in Akaunting by hand; their price is
	// not known here.
	MissingItems []string
}

// PlanSetup returns the accounts, categories and vendors named by targets
// that the index does not hold. A name shared by several targets is planned
// once.
func PlanSetup(index *ledger.Index, targets []SetupTarget) (*SetupPlan, error) {
	plan := &SetupPlan{}
	seen := make(map[string]bool)

	need := func(key string, lookupErr error, m ledger.Mutation) error {
		if lookupErr == nil || seen[key] {
			return nil
		}
		if !errors.Is(lookupErr, ledger.ErrReferenceNotFound) {
			return lookupErr
		}
		seen[key] = true
		plan.Mutations = append(plan.Mutations, m)
		return nil
	}

	for _, t := range targets {
		n := t.Names

		_, err := index.Account(n.Account)
		if perr := need("account/"+n.Account, err, ledger.CreateAccount{Name: n.Account, CurrencyCode: t.CurrencyCode}); perr != nil {
			return nil, perr
		}

		_, err = index.Category(ledger.CategoryIncome, n.IncomeCategory)
		if perr := need("income/"+n.IncomeCategory, err, ledger.CreateCategory{Name: n.IncomeCategory, Kind: ledger.CategoryIncome}); perr != nil {
			return nil, perr
		}

		_, err = index.Category(ledger.CategoryExpense, n.ExpenseCategory)
		if perr := need("expense/"+n.ExpenseCategory, err, ledger.CreateCategory{Name: n.ExpenseCategory, Kind: ledger.CategoryExpense}); perr != nil {
			return nil, perr
		}

		_, err = index.Vendor(n.FeeVendor)
		if perr := need("vendor/"+n.FeeVendor, err, ledger.CreateVendor{Name: n.FeeVendor, CurrencyCode: t.CurrencyCode}); perr != nil {
			return nil, perr
		}

		if _, err := index.Item(n.Item); err != nil {
			if !errors.Is(err, ledger.ErrReferenceNotFound) {
				return nil, err
			}
			if !seen["item/"+n.Item] {
				seen["item/"+n.Item] = true
				plan.MissingItems = append(plan.MissingItems, n.Item)
			}
		}
	}

	return plan, nil
}

// ApplySetup creates the planned records in order and returns how many were
// created. It stops at the first failure; records already created stay.
func ApplySetup(ctx context.Context, p Provisioner, plan *SetupPlan) (int, error) {
	created := 0
	for _, m := range plan.Mutations {
		if err := ctx.Err(); err != nil {
			return created, err
		}

		var err error
		switch m := m.(type) {
		case ledger.CreateAccount:
			_, err = p.CreateAccount(ctx, m)
		case ledger.CreateCategory:
			_, err = p.CreateCategory(ctx, m)
		case ledger.CreateVendor:
			_, err = p.CreateVendor(ctx, m)
		default:
			err = fmt.Errorf("unsupported setup mutation %s", m.Kind())
		}
		if err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
