package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MutationKind names a ledger create operation.
type MutationKind string

const (
	KindCreateCustomer MutationKind = "create_customer"
	KindCreateInvoice  MutationKind = "create_invoice"
	KindCreateIncome   MutationKind = "create_income"
	KindCreateExpense  MutationKind = "create_expense"

	KindCreateAccount  MutationKind = "create_account"
	KindCreateCategory MutationKind = "create_category"
	KindCreateVendor   MutationKind = "create_vendor"
)

// Mutation is a create request to be issued against the ledger.
type Mutation interface {
	Kind() MutationKind
	String() string
}

// InvoiceRef refers to an invoice planned earlier in the same payment.
// It is resolved to the created invoice when the plan is executed.
type InvoiceRef struct {
	DocumentNumber string
}

// CreateCustomer creates a customer contact.
type CreateCustomer struct {
	Name         string
	Email        string
	CurrencyCode string
	// Description names the payment the customer was first needed for.
	Description string
}

// CreateInvoice creates a paid invoice with a single item line.
// Contact may be pending, in which case it is resolved by email.
type CreateInvoice struct {
	Contact        Contact
	CurrencyCode   string
	IssuedAt       time.Time
	DocumentNumber string
	Item           Item
	Quantity       int
	Category       Category
	Description    string
}

// CreateIncome records the payment of a planned invoice.
type CreateIncome struct {
	Account     Account
	Invoice     InvoiceRef
	Category    Category
	Contact     Contact
	Description string
}

// CreateExpense records a processor fee.
type CreateExpense struct {
	Account     Account
	Category    Category
	Vendor      Contact
	Description string
	Amount      decimal.Decimal
	PaidAt      time.Time
}

// CreateAccount creates a bank account. Setup only.
type CreateAccount struct {
	Name         string
	CurrencyCode string
}

// CreateCategory creates an income or expense category. Setup only.
type CreateCategory struct {
	Name string
	Kind CategoryKind
}

// CreateVendor creates a vendor contact. Setup only.
type CreateVendor struct {
	Name         string
	CurrencyCode string
}

func (CreateCustomer) Kind() MutationKind { return KindCreateCustomer }
func (CreateInvoice) Kind() MutationKind  { return KindCreateInvoice }
func (CreateIncome) Kind() MutationKind   { return KindCreateIncome }
func (CreateExpense) Kind() MutationKind  { return KindCreateExpense }
func (CreateAccount) Kind() MutationKind  { return KindCreateAccount }
func (CreateCategory) Kind() MutationKind { return KindCreateCategory }
func (CreateVendor) Kind() MutationKind   { return KindCreateVendor }

func (m CreateCustomer) String() string {
	return fmt.Sprintf("CreateCustomer(name=%q, email=%q, currency=%s, reference=%q)", m.Name, m.Email, m.CurrencyCode, m.Description)
}

func (m CreateInvoice) String() string {
	return fmt.Sprintf("CreateInvoice(number=%s, contact=%s, item=%q, qty=%d, currency=%s, issued_at=%s, notes=%q)",
		m.DocumentNumber, contactLabel(m.Contact), m.Item.Name, m.Quantity, m.CurrencyCode,
		m.IssuedAt.Format(time.DateTime), m.Description)
}

func (m CreateIncome) String() string {
	return fmt.Sprintf("CreateIncome(account=%q, invoice=%s, category=%q, contact=%s, description=%q)",
		m.Account.Name, m.Invoice.DocumentNumber, m.Category.Name, contactLabel(m.Contact), m.Description)
}

func (m CreateExpense) String() string {
	return fmt.Sprintf("CreateExpense(account=%q, vendor=%q, category=%q, amount=%s, paid_at=%s, description=%q)",
		m.Account.Name, m.Vendor.Name, m.Category.Name, m.Amount.StringFixed(2),
		m.PaidAt.Format(time.DateTime), m.Description)
}

func (m CreateAccount) String() string {
	return fmt.Sprintf("CreateAccount(name=%q, currency=%s)", m.Name, m.CurrencyCode)
}

func (m CreateCategory) String() string {
	return fmt.Sprintf("CreateCategory(name=%q, type=%s)", m.Name, m.Kind)
}

func (m CreateVendor) String() string {
	return fmt.Sprintf("CreateVendor(name=%q, currency=%s)", m.Name, m.CurrencyCode)
}

func contactLabel(c Contact) string {
	if c.Pending() {
		return fmt.Sprintf("pending:%s", c.Email)
	}
	return fmt.Sprintf("#%d", c.ID)
}
