package akaunting

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/pigeonworks-llc/akaunting-sync/pkg/ledger"
)

// Snapshot fetches the reference data a reconciliation batch is planned
// against. The lists are fetched concurrently.
func (c *Client) Snapshot(ctx context.Context) (ledger.Snapshot, error) {
	var (
		accounts   []Account
		items      []Item
		categories []Category
		vendors    []Contact
		customers  []Contact
		invoices   []Document
		incomes    []Transaction
		expenses   []Transaction
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		accounts, err = c.ListAccounts(gctx)
		return err
	})
	g.Go(func() (err error) {
		items, err = c.ListItems(gctx)
		return err
	})
	g.Go(func() (err error) {
		categories, err = c.ListCategories(gctx)
		return err
	})
	g.Go(func() (err error) {
		vendors, err = c.ListContacts(gctx, string(ledger.RoleVendor))
		return err
	})
	g.Go(func() (err error) {
		customers, err = c.ListContacts(gctx, string(ledger.RoleCustomer))
		return err
	})
	g.Go(func() (err error) {
		invoices, err = c.ListInvoices(gctx)
		return err
	})
	g.Go(func() (err error) {
		incomes, err = c.ListTransactions(gctx, "income")
		return err
	})
	g.Go(func() (err error) {
		expenses, err = c.ListTransactions(gctx, "expense")
		return err
	})

	if err := g.Wait(); err != nil {
		return ledger.Snapshot{}, fmt.Errorf("failed to fetch ledger snapshot: %w", err)
	}

	snap := ledger.Snapshot{}
	for _, a := range accounts {
		snap.Accounts = append(snap.Accounts, toAccount(a))
	}
	for _, it := range items {
		snap.Items = append(snap.Items, ledger.Item{ID: it.ID, Name: it.Name, SalePrice: it.SalePrice})
	}
	for _, cat := range categories {
		snap.Categories = append(snap.Categories, toCategory(cat))
	}
	for _, v := range vendors {
		snap.Vendors = append(snap.Vendors, toContact(v, ledger.RoleVendor))
	}
	for _, cu := range customers {
		snap.Customers = append(snap.Customers, toContact(cu, ledger.RoleCustomer))
	}
	for _, d := range invoices {
		snap.Invoices = append(snap.Invoices, toInvoice(d))
	}
	for _, t := range append(incomes, expenses...) {
		snap.Transactions = append(snap.Transactions, toTransaction(t))
	}

	return snap, nil
}

func toAccount(a Account) ledger.Account {
	return ledger.Account{ID: a.ID, Name: a.Name, CurrencyCode: a.CurrencyCode}
}

func toCategory(c Category) ledger.Category {
	return ledger.Category{ID: c.ID, Name: c.Name, Kind: ledger.CategoryKind(c.Type)}
}

func toContact(c Contact, role ledger.ContactRole) ledger.Contact {
	return ledger.Contact{
		ID:           c.ID,
		Name:         c.Name,
		Email:        c.Email,
		CurrencyCode: c.CurrencyCode,
		Role:         role,
	}
}

func toInvoice(d Document) ledger.Invoice {
	issuedAt := d.DueAt.Time
	if issuedAt.IsZero() {
		issuedAt = d.IssuedAt.Time
	}
	return ledger.Invoice{
		ID:             d.ID,
		DocumentNumber: d.DocumentNumber,
		ContactID:      d.ContactID,
		Amount:         d.Amount,
		CurrencyCode:   d.CurrencyCode,
		IssuedAt:       issuedAt,
	}
}

func toTransaction(t Transaction) ledger.Transaction {
	tx := ledger.Transaction{
		ID:          t.ID,
		Type:        t.Type,
		Description: t.Description,
		Amount:      t.Amount,
		PaidAt:      t.PaidAt.Time,
	}
	if t.DocumentID != nil {
		tx.DocumentID = *t.DocumentID
	}
	return tx
}
