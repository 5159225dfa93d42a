// Package akaunting provides an Akaunting REST API client and types.
package akaunting

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DateTimeLayout is the layout Akaunting accepts for dates in request bodies.
const DateTimeLayout = "2006-01-02 15:04:05"

// Time decodes the timestamps Akaunting returns, which are ISO 8601 on most
// installations and "YYYY-MM-DD HH:MM:SS" on some.
type Time struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Time) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("akaunting: invalid time %s: %w", data, err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}

	for _, layout := range []string{time.RFC3339, DateTimeLayout} {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("akaunting: unrecognized time %q", s)
}

// Account represents a bank account.
type Account struct {
	ID             int64           `json:"id"`
	CompanyID      int64           `json:"company_id"`
	Name           string          `json:"name"`
	Number         string          `json:"number"`
	CurrencyCode   string          `json:"currency_code"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	BankName       string          `json:"bank_name"`
}

// Item represents a product or service.
type Item struct {
	ID            int64           `json:"id"`
	CompanyID     int64           `json:"company_id"`
	Name          string          `json:"name"`
	SalePrice     decimal.Decimal `json:"sale_price"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	CategoryID    *int64          `json:"category_id,omitempty"`
}

// Category represents an income, expense, item or other category.
type Category struct {
	ID        int64  `json:"id"`
	CompanyID int64  `json:"company_id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Color     string `json:"color"`
}

// Contact represents a customer or vendor.
type Contact struct {
	ID           int64  `json:"id"`
	CompanyID    int64  `json:"company_id"`
	Type         string `json:"type"` // customer or vendor
	Name         string `json:"name"`
	Email        string `json:"email"`
	TaxNumber    string `json:"tax_number"`
	Phone        string `json:"phone"`
	CurrencyCode string `json:"currency_code"`
	Reference    string `json:"reference"`
}

// Document represents an invoice or bill.
type Document struct {
	ID             int64           `json:"id"`
	CompanyID      int64           `json:"company_id"`
	Type           string          `json:"type"`
	DocumentNumber string          `json:"document_number"`
	Status         string          `json:"status"`
	IssuedAt       Time            `json:"issued_at"`
	DueAt          Time            `json:"due_at"`
	Amount         decimal.Decimal `json:"amount"`
	CurrencyCode   string          `json:"currency_code"`
	CurrencyRate   decimal.Decimal `json:"currency_rate"`
	ContactID      int64           `json:"contact_id"`
	ContactName    string          `json:"contact_name"`
	ContactEmail   string          `json:"contact_email"`
	Notes          string          `json:"notes"`
}

// Transaction represents an income or expense.
type Transaction struct {
	ID            int64           `json:"id"`
	CompanyID     int64           `json:"company_id"`
	Type          string          `json:"type"` // income or expense
	AccountID     int64           `json:"account_id"`
	PaidAt        Time            `json:"paid_at"`
	Amount        decimal.Decimal `json:"amount"`
	CurrencyCode  string          `json:"currency_code"`
	CurrencyRate  decimal.Decimal `json:"currency_rate"`
	DocumentID    *int64          `json:"document_id,omitempty"`
	ContactID     int64           `json:"contact_id"`
	Description   string          `json:"description"`
	CategoryID    *int64          `json:"category_id,omitempty"`
	PaymentMethod string          `json:"payment_method"`
}

// Pagination is the page cursor of a list response.
type Pagination struct {
	Total       int `json:"total"`
	Count       int `json:"count"`
	PerPage     int `json:"per_page"`
	CurrentPage int `json:"current_page"`
	TotalPages  int `json:"total_pages"`
}

// Meta is the metadata of a list response.
type Meta struct {
	Pagination Pagination `json:"pagination"`
}

// ListResponse represents a paginated list response.
type ListResponse[T any] struct {
	Data []T   `json:"data"`
	Meta *Meta `json:"meta,omitempty"`
}

// ItemResponse represents a single-resource response.
type ItemResponse[T any] struct {
	Data T `json:"data"`
}

// ContactBody is the request body for creating a contact.
type ContactBody struct {
	Type         string `json:"type"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	CurrencyCode string `json:"currency_code"`
	Reference    string `json:"reference,omitempty"`
	Enabled      int    `json:"enabled"`
}

// AccountBody is the request body for creating a bank account.
type AccountBody struct {
	Name           string          `json:"name"`
	Number         string          `json:"number"`
	CurrencyCode   string          `json:"currency_code"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	BankName       string          `json:"bank_name"`
	Enabled        int             `json:"enabled"`
}

// CategoryBody is the request body for creating a category.
type CategoryBody struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Color   string `json:"color"`
	Enabled int    `json:"enabled"`
}

// DocumentItemBody is one line of a document request body.
type DocumentItemBody struct {
	ItemID   int64           `json:"item_id"`
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// DocumentBody is the request body for creating an invoice.
type DocumentBody struct {
	Type           string             `json:"type"`
	DocumentNumber string             `json:"document_number"`
	Status         string             `json:"status"`
	Notes          string             `json:"notes"`
	IssuedAt       string             `json:"issued_at"`
	DueAt          string             `json:"due_at"`
	Amount         decimal.Decimal    `json:"amount"`
	CurrencyCode   string             `json:"currency_code"`
	CurrencyRate   string             `json:"currency_rate"`
	ContactID      int64              `json:"contact_id"`
	ContactName    string             `json:"contact_name"`
	ContactEmail   string             `json:"contact_email"`
	CategoryID     int64              `json:"category_id"`
	Items          []DocumentItemBody `json:"items"`
}

// TransactionBody is the request body for creating an income or expense.
type TransactionBody struct {
	Type          string          `json:"type"`
	Description   string          `json:"description"`
	AccountID     int64           `json:"account_id"`
	ContactID     int64           `json:"contact_id"`
	PaidAt        string          `json:"paid_at"`
	Amount        decimal.Decimal `json:"amount"`
	CurrencyCode  string          `json:"currency_code"`
	CurrencyRate  string          `json:"currency_rate"`
	CategoryID    int64           `json:"category_id"`
	PaymentMethod string          `json:"payment_method"`
	DocumentID    *int64          `json:"document_id"`
}

// ErrorResponse represents an error response from Akaunting API.
type ErrorResponse struct {
	Message    string              `json:"message"`
	Errors     map[string][]string `json:"errors,omitempty"`
	StatusCode int                 `json:"status_code,omitempty"`
}
