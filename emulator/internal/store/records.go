package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	bolt "go.etcd.io/bbolt"

	"github.com/pigeonworks-llc/akaunting-sync/pkg/akaunting"
)

// ValidationError rejects a request field, the way Akaunting answers 422.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// CreateAccount stores a bank account. Account numbers are unique.
func (s *Store) CreateAccount(req akaunting.AccountBody) (*akaunting.Account, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, invalid("name", "The name field is required.")
	}
	if strings.TrimSpace(req.Number) == "" {
		return nil, invalid("number", "The number field is required.")
	}
	if req.CurrencyCode == "" {
		return nil, invalid("currency_code", "The currency code field is required.")
	}

	account := akaunting.Account{
		CompanyID:      s.companyID,
		Name:           req.Name,
		Number:         req.Number,
		CurrencyCode:   req.CurrencyCode,
		OpeningBalance: req.OpeningBalance,
		CurrentBalance: req.OpeningBalance,
		BankName:       req.BankName,
	}

	err := insert(s, BucketAccounts, &account, func(a *akaunting.Account, id int64) { a.ID = id }, func(tx *bolt.Tx) error {
		return forEach(tx.Bucket([]byte(BucketAccounts)), func(a akaunting.Account) error {
			if a.Number == req.Number {
				return invalid("number", "The number has already been taken.")
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// CreateItem stores an item.
func (s *Store) CreateItem(i akaunting.Item) (*akaunting.Item, error) {
	i.CompanyID = s.companyID
	err := insert(s, BucketItems, &i, func(i *akaunting.Item, id int64) { i.ID = id }, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}
	return &i, nil
}

// CreateCategory stores a category. Names are unique per type.
func (s *Store) CreateCategory(req akaunting.CategoryBody) (*akaunting.Category, error) {
	switch req.Type {
	case "income", "expense", "item", "other":
	default:
		return nil, invalid("type", "The selected type is invalid.")
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, invalid("name", "The name field is required.")
	}

	category := akaunting.Category{
		CompanyID: s.companyID,
		Name:      req.Name,
		Type:      req.Type,
		Color:     req.Color,
	}

	err := insert(s, BucketCategories, &category, func(c *akaunting.Category, id int64) { c.ID = id }, func(tx *bolt.Tx) error {
		return forEach(tx.Bucket([]byte(BucketCategories)), func(c akaunting.Category) error {
			if c.Type == req.Type && c.Name == req.Name {
				return invalid("name", "The name has already been taken.")
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// CreateContact stores a customer or vendor. Emails are unique per type.
func (s *Store) CreateContact(req akaunting.ContactBody) (*akaunting.Contact, error) {
	if req.Type != "customer" && req.Type != "vendor" {
		return nil, invalid("type", "The selected type is invalid.")
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, invalid("name", "The name field is required.")
	}
	if req.CurrencyCode == "" {
		return nil, invalid("currency_code", "The currency code field is required.")
	}

	contact := akaunting.Contact{
		CompanyID:    s.companyID,
		Type:         req.Type,
		Name:         req.Name,
		Email:        req.Email,
		CurrencyCode: req.CurrencyCode,
		Reference:    req.Reference,
	}

	err := insert(s, BucketContacts, &contact, func(c *akaunting.Contact, id int64) { c.ID = id }, func(tx *bolt.Tx) error {
		if req.Email == "" {
			return nil
		}
		return forEach(tx.Bucket([]byte(BucketContacts)), func(c akaunting.Contact) error {
			if c.Type == req.Type && strings.EqualFold(c.Email, req.Email) {
				return invalid("email", "The email has already been taken.")
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

// CreateDocument stores an invoice or bill. Document numbers are unique per
// type; the amount is the sum of the item lines.
func (s *Store) CreateDocument(req akaunting.DocumentBody) (*akaunting.Document, error) {
	if req.Type != "invoice" && req.Type != "bill" {
		return nil, invalid("type", "The selected type is invalid.")
	}
	if req.DocumentNumber == "" {
		return nil, invalid("document_number", "The document number field is required.")
	}
	if len(req.Items) == 0 {
		return nil, invalid("items", "The items field is required.")
	}
	if req.CurrencyCode == "" {
		return nil, invalid("currency_code", "The currency code field is required.")
	}

	issuedAt, err := parseTime("issued_at", req.IssuedAt)
	if err != nil {
		return nil, err
	}
	dueAt, err := parseTime("due_at", req.DueAt)
	if err != nil {
		return nil, err
	}
	rate, err := decimal.NewFromString(req.CurrencyRate)
	if err != nil || !rate.IsPositive() {
		return nil, invalid("currency_rate", "The currency rate must be a positive number.")
	}

	amount := decimal.Zero
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, invalid("items.quantity", "The quantity must be at least 1.")
		}
		amount = amount.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	doc := akaunting.Document{
		CompanyID:      s.companyID,
		Type:           req.Type,
		DocumentNumber: req.DocumentNumber,
		Status:         req.Status,
		IssuedAt:       akaunting.Time{Time: issuedAt},
		DueAt:          akaunting.Time{Time: dueAt},
		Amount:         amount,
		CurrencyCode:   req.CurrencyCode,
		CurrencyRate:   rate,
		ContactID:      req.ContactID,
		ContactName:    req.ContactName,
		ContactEmail:   req.ContactEmail,
		Notes:          req.Notes,
	}

	err = insert(s, BucketDocuments, &doc, func(d *akaunting.Document, id int64) { d.ID = id }, func(tx *bolt.Tx) error {
		if !exists(tx, BucketContacts, req.ContactID) {
			return invalid("contact_id", "The selected contact is invalid.")
		}
		if req.CategoryID != 0 && !exists(tx, BucketCategories, req.CategoryID) {
			return invalid("category_id", "The selected category is invalid.")
		}
		for _, item := range req.Items {
			if item.ItemID != 0 && !exists(tx, BucketItems, item.ItemID) {
				return invalid("items.item_id", "The selected item is invalid.")
			}
		}
		return forEach(tx.Bucket([]byte(BucketDocuments)), func(d akaunting.Document) error {
			if d.Type == req.Type && d.DocumentNumber == req.DocumentNumber {
				return invalid("document_number", "The document number has already been taken.")
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// CreateTransaction stores an income or expense.
func (s *Store) CreateTransaction(req akaunting.TransactionBody) (*akaunting.Transaction, error) {
	if req.Type != "income" && req.Type != "expense" {
		return nil, invalid("type", "The selected type is invalid.")
	}
	if !req.Amount.IsPositive() {
		return nil, invalid("amount", "The amount must be greater than 0.")
	}
	if req.CurrencyCode == "" {
		return nil, invalid("currency_code", "The currency code field is required.")
	}
	if req.PaymentMethod == "" {
		return nil, invalid("payment_method", "The payment method field is required.")
	}

	paidAt, err := parseTime("paid_at", req.PaidAt)
	if err != nil {
		return nil, err
	}
	rate, err := decimal.NewFromString(req.CurrencyRate)
	if err != nil || !rate.IsPositive() {
		return nil, invalid("currency_rate", "The currency rate must be a positive number.")
	}

	txn := akaunting.Transaction{
		CompanyID:     s.companyID,
		Type:          req.Type,
		AccountID:     req.AccountID,
		PaidAt:        akaunting.Time{Time: paidAt},
		Amount:        req.Amount,
		CurrencyCode:  req.CurrencyCode,
		CurrencyRate:  rate,
		DocumentID:    req.DocumentID,
		ContactID:     req.ContactID,
		Description:   req.Description,
		PaymentMethod: req.PaymentMethod,
	}
	if req.CategoryID != 0 {
		categoryID := req.CategoryID
		txn.CategoryID = &categoryID
	}

	err = insert(s, BucketTransactions, &txn, func(t *akaunting.Transaction, id int64) { t.ID = id }, func(tx *bolt.Tx) error {
		if !exists(tx, BucketAccounts, req.AccountID) {
			return invalid("account_id", "The selected account is invalid.")
		}
		if req.ContactID != 0 && !exists(tx, BucketContacts, req.ContactID) {
			return invalid("contact_id", "The selected contact is invalid.")
		}
		if req.CategoryID != 0 && !exists(tx, BucketCategories, req.CategoryID) {
			return invalid("category_id", "The selected category is invalid.")
		}
		if req.DocumentID != nil && !exists(tx, BucketDocuments, *req.DocumentID) {
			return invalid("document_id", "The selected document is invalid.")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// ListAccounts returns every account.
func (s *Store) ListAccounts() ([]akaunting.Account, error) {
	return list[akaunting.Account](s, BucketAccounts, nil)
}

// ListItems returns every item.
func (s *Store) ListItems() ([]akaunting.Item, error) {
	return list[akaunting.Item](s, BucketItems, nil)
}

// ListCategories returns categories of a type, or all when typ is empty.
func (s *Store) ListCategories(typ string) ([]akaunting.Category, error) {
	return list(s, BucketCategories, func(c akaunting.Category) bool {
		return typ == "" || c.Type == typ
	})
}

// ListContacts returns contacts of a type, or all when typ is empty.
func (s *Store) ListContacts(typ string) ([]akaunting.Contact, error) {
	return list(s, BucketContacts, func(c akaunting.Contact) bool {
		return typ == "" || c.Type == typ
	})
}

// ListDocuments returns documents of a type, or all when typ is empty.
func (s *Store) ListDocuments(typ string) ([]akaunting.Document, error) {
	return list(s, BucketDocuments, func(d akaunting.Document) bool {
		return typ == "" || d.Type == typ
	})
}

// ListTransactions returns transactions of a type, or all when typ is empty.
func (s *Store) ListTransactions(typ string) ([]akaunting.Transaction, error) {
	return list(s, BucketTransactions, func(t akaunting.Transaction) bool {
		return typ == "" || t.Type == typ
	})
}

// GetDocument returns one document.
func (s *Store) GetDocument(id int64) (*akaunting.Document, error) {
	return get[akaunting.Document](s, BucketDocuments, id)
}

func parseTime(field, value string) (time.Time, error) {
	t, err := time.Parse(akaunting.DateTimeLayout, value)
	if err != nil {
		return time.Time{}, invalid(field, "The %s does not match the format Y-m-d H:i:s.", strings.ReplaceAll(field, "_", " "))
	}
	return t, nil
}
