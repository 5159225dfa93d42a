// Package ledger provides the Akaunting reference data model, the lookup index
// built from it, per-day document numbering, and the mutation requests a
// reconciliation run plans against the ledger.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// CategoryKind is the Akaunting category type.
type CategoryKind string

const (
	CategoryIncome  CategoryKind = "income"
	CategoryExpense CategoryKind = "expense"
	CategoryItem    CategoryKind = "item"
)

// ContactRole is the Akaunting contact type.
type ContactRole string

const (
	RoleCustomer ContactRole = "customer"
	RoleVendor   ContactRole = "vendor"
)

// Account represents a bank or cash account in the ledger.
type Account struct {
	ID           int64
	Name         string
	CurrencyCode string
}

// Item represents a sellable item.
type Item struct {
	ID        int64
	Name      string
	SalePrice decimal.Decimal
}

// Category represents an income, expense or item category.
type Category struct {
	ID   int64
	Name string
	Kind CategoryKind
}

// CategoryKey is the natural key of a category.
type CategoryKey struct {
	Kind CategoryKind
	Name string
}

// Key returns the category's natural key.
func (c Category) Key() CategoryKey {
	return CategoryKey{Kind: c.Kind, Name: c.Name}
}

// Contact represents a customer or vendor.
// A zero ID marks a customer whose creation is planned but not yet executed.
type Contact struct {
	ID           int64
	Name         string
	Email        string
	CurrencyCode string
	Role         ContactRole
}

// Pending reports whether the contact has not been created in the ledger yet.
func (c Contact) Pending() bool {
	return c.ID == 0
}

// Invoice represents an invoice document.
type Invoice struct {
	ID             int64
	DocumentNumber string
	ContactID      int64
	Amount         decimal.Decimal
	CurrencyCode   string
	IssuedAt       time.Time
}

// Transaction represents an income or expense transaction already in the ledger.
type Transaction struct {
	ID          int64
	Type        string
	Description string
	Amount      decimal.Decimal
	PaidAt      time.Time
	DocumentID  int64
}

// Snapshot is the ledger state a batch is planned against.
type Snapshot struct {
	Accounts     []Account
	Items        []Item
	Categories   []Category
	Vendors      []Contact
	Customers    []Contact
	Invoices     []Invoice
	Transactions []Transaction
}
