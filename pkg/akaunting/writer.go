package akaunting

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/pigeonworks-llc/akaunting-sync/pkg/ledger"
)

// CreateCustomer creates an enabled customer contact.
func (c *Client) CreateCustomer(ctx context.Context, m ledger.CreateCustomer) (ledger.Contact, error) {
	body := ContactBody{
		Type:         string(ledger.RoleCustomer),
		Name:         m.Name,
		Email:        m.Email,
		CurrencyCode: m.CurrencyCode,
		Reference:    m.Description,
		Enabled:      1,
	}

	var resp ItemResponse[Contact]
	if err := c.do(ctx, http.MethodPost, "/api/contacts", nil, body, &resp); err != nil {
		return ledger.Contact{}, fmt.Errorf("failed to create customer %q: %w", m.Email, err)
	}

	return toContact(resp.Data, ledger.RoleCustomer), nil
}

// CreateInvoice creates a paid invoice with one item line. The invoice is due
// when it is issued.
func (c *Client) CreateInvoice(ctx context.Context, m ledger.CreateInvoice) (ledger.Invoice, error) {
	if m.Contact.Pending() {
		return ledger.Invoice{}, fmt.Errorf("invoice %s: contact %q has no id", m.DocumentNumber, m.Contact.Email)
	}

	currencyRate, err := c.currencyRate(m.CurrencyCode)
	if err != nil {
		return ledger.Invoice{}, err
	}

	issuedAt := m.IssuedAt.Format(DateTimeLayout)
	body := DocumentBody{
		Type:           "invoice",
		DocumentNumber: m.DocumentNumber,
		Status:         "paid",
		Notes:          m.Description,
		IssuedAt:       issuedAt,
		DueAt:          issuedAt,
		Amount:         decimal.Zero,
		CurrencyCode:   m.CurrencyCode,
		CurrencyRate:   currencyRate,
		ContactID:      m.Contact.ID,
		ContactName:    m.Contact.Name,
		ContactEmail:   m.Contact.Email,
		CategoryID:     m.Category.ID,
		Items: []DocumentItemBody{
			{
				ItemID:   m.Item.ID,
				Name:     m.Item.Name,
				Quantity: m.Quantity,
				Price:    m.Item.SalePrice,
			},
		},
	}

	var resp ItemResponse[Document]
	if err := c.do(ctx, http.MethodPost, "/api/documents", nil, body, &resp); err != nil {
		return ledger.Invoice{}, fmt.Errorf("failed to create invoice %s: %w", m.DocumentNumber, err)
	}

	inv := toInvoice(resp.Data)
	if inv.IssuedAt.IsZero() {
		inv.IssuedAt = m.IssuedAt
	}
	if inv.CurrencyCode == "" {
		inv.CurrencyCode = m.CurrencyCode
	}
	if inv.Amount.IsZero() {
		inv.Amount = m.Item.SalePrice.Mul(decimal.NewFromInt(int64(m.Quantity)))
	}

	return inv, nil
}

// CreateIncome records the payment of invoice into the account. The income
// takes its amount, currency and date from the invoice.
func (c *Client) CreateIncome(ctx context.Context, m ledger.CreateIncome, invoice ledger.Invoice) (ledger.Transaction, error) {
	if m.Contact.Pending() {
		return ledger.Transaction{}, fmt.Errorf("income for %s: contact %q has no id", invoice.DocumentNumber, m.Contact.Email)
	}

	currencyRate, err := c.currencyRate(m.Account.CurrencyCode)
	if err != nil {
		return ledger.Transaction{}, err
	}

	documentID := invoice.ID
	body := TransactionBody{
		Type:          "income",
		Description:   m.Description,
		AccountID:     m.Account.ID,
		ContactID:     m.Contact.ID,
		PaidAt:        invoice.IssuedAt.Format(DateTimeLayout),
		Amount:        invoice.Amount,
		CurrencyCode:  invoice.CurrencyCode,
		CurrencyRate:  currencyRate,
		CategoryID:    m.Category.ID,
		PaymentMethod: c.paymentMethod,
		DocumentID:    &documentID,
	}

	return c.createTransaction(ctx, body)
}

// CreateExpense records a fee paid to the vendor from the account.
func (c *Client) CreateExpense(ctx context.Context, m ledger.CreateExpense) (ledger.Transaction, error) {
	currencyRate, err := c.currencyRate(m.Account.CurrencyCode)
	if err != nil {
		return ledger.Transaction{}, err
	}

	body := TransactionBody{
		Type:          "expense",
		Description:   m.Description,
		AccountID:     m.Account.ID,
		ContactID:     m.Vendor.ID,
		PaidAt:        m.PaidAt.Format(DateTimeLayout),
		Amount:        m.Amount,
		CurrencyCode:  m.Account.CurrencyCode,
		CurrencyRate:  currencyRate,
		CategoryID:    m.Category.ID,
		PaymentMethod: c.paymentMethod,
	}

	return c.createTransaction(ctx, body)
}

func (c *Client) createTransaction(ctx context.Context, body TransactionBody) (ledger.Transaction, error) {
	var resp ItemResponse[Transaction]
	if err := c.do(ctx, http.MethodPost, "/api/transactions", nil, body, &resp); err != nil {
		return ledger.Transaction{}, fmt.Errorf("failed to create %s: %w", body.Type, err)
	}
	return toTransaction(resp.Data), nil
}

func (c *Client) currencyRate(code string) (string, error) {
	r, ok := c.currencyRates[code]
	if !ok {
		return "", fmt.Errorf("no currency rate configured for %q", code)
	}
	return r, nil
}

// categoryColors are the colors new categories get, by type.
var categoryColors = map[ledger.CategoryKind]string{
	ledger.CategoryIncome:  "#6da252",
	ledger.CategoryExpense: "#f56565",
}

// CreateAccount creates an enabled bank account with a zero opening balance.
// The account name doubles as its number and bank name.
func (c *Client) CreateAccount(ctx context.Context, m ledger.CreateAccount) (ledger.Account, error) {
	body := AccountBody{
		Name:           m.Name,
		Number:         m.Name,
		CurrencyCode:   m.CurrencyCode,
		OpeningBalance: decimal.Zero,
		BankName:       m.Name,
		Enabled:        1,
	}

	var resp ItemResponse[Account]
	if err := c.do(ctx, http.MethodPost, "/api/accounts", nil, body, &resp); err != nil {
		return ledger.Account{}, fmt.Errorf("failed to create account %q: %w", m.Name, err)
	}

	return toAccount(resp.Data), nil
}

// CreateCategory creates an enabled income or expense category.
func (c *Client) CreateCategory(ctx context.Context, m ledger.CreateCategory) (ledger.Category, error) {
	body := CategoryBody{
		Name:    m.Name,
		Type:    string(m.Kind),
		Color:   categoryColors[m.Kind],
		Enabled: 1,
	}

	var resp ItemResponse[Category]
	if err := c.do(ctx, http.MethodPost, "/api/categories", nil, body, &resp); err != nil {
		return ledger.Category{}, fmt.Errorf("failed to create %s category %q: %w", m.Kind, m.Name, err)
	}

	return toCategory(resp.Data), nil
}

// CreateVendor creates an enabled vendor contact.
func (c *Client) CreateVendor(ctx context.Context, m ledger.CreateVendor) (ledger.Contact, error) {
	body := ContactBody{
		Type:         string(ledger.RoleVendor),
		Name:         m.Name,
		CurrencyCode: m.CurrencyCode,
		Enabled:      1,
	}

	var resp ItemResponse[Contact]
	if err := c.do(ctx, http.MethodPost, "/api/contacts", nil, body, &resp); err != nil {
		return ledger.Contact{}, fmt.Errorf("failed to create vendor %q: %w", m.Name, err)
	}

	return toContact(resp.Data, ledger.RoleVendor), nil
}
