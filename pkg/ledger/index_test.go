package ledger

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot() Snapshot {
	return Snapshot{
		Accounts: []Account{
			{ID: 1, Name: "PayPal", CurrencyCode: "USD"},
			{ID: 2, Name: "Stripe", CurrencyCode: "EUR"},
		},
		Items: []Item{
			{ID: 10, Name: "Plugin License", SalePrice: decimal.NewFromInt(10)},
		},
		Categories: []Category{
			{ID: 20, Name: "Sales", Kind: CategoryIncome},
			{ID: 21, Name: "Sales", Kind: CategoryItem},
			{ID: 22, Name: "Bank Fees", Kind: CategoryExpense},
		},
		Vendors: []Contact{
			{ID: 30, Name: "PayPal Inc", Role: RoleVendor},
		},
		Customers: []Contact{
			{ID: 40, Name: "Jane Doe", Email: "jane@example.com", Role: RoleCustomer},
			{ID: 41, Name: "No Email", Role: RoleCustomer},
			{ID: 42, Name: "Also No Email", Role: RoleCustomer},
		},
		Invoices: []Invoice{
			{ID: 50, DocumentNumber: "20240101-00001"},
			{ID: 51, DocumentNumber: "20240101-00002"},
			{ID: 52, DocumentNumber: "INV-7"},
		},
		Transactions: []Transaction{
			{ID: 60, Type: "income", Description: "PayPal Transaction ID: 9XY"},
			{ID: 61, Type: "expense", Description: "PayPal Transaction ID: 9XY"},
		},
	}
}

func TestBuildIndexLookups(t *testing.T) {
	idx, err := BuildIndex(testSnapshot())
	require.NoError(t, err)

	account, err := idx.Account("Stripe")
	require.NoError(t, err)
	assert.Equal(t, int64(2), account.ID)

	item, err := idx.Item("Plugin License")
	require.NoError(t, err)
	assert.True(t, item.SalePrice.Equal(decimal.NewFromInt(10)))

	income, err := idx.Category(CategoryIncome, "Sales")
	require.NoError(t, err)
	assert.Equal(t, int64(20), income.ID)

	itemCategory, err := idx.Category(CategoryItem, "Sales")
	require.NoError(t, err)
	assert.Equal(t, int64(21), itemCategory.ID)

	vendor, err := idx.Vendor("PayPal Inc")
	require.NoError(t, err)
	assert.Equal(t, int64(30), vendor.ID)

	customer, err := idx.Customer("jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(40), customer.ID)

	invoice, err := idx.Invoice("20240101-00002")
	require.NoError(t, err)
	assert.Equal(t, int64(51), invoice.ID)

	txn, ok := idx.TransactionByDescription("PayPal Transaction ID: 9XY")
	require.True(t, ok)
	assert.Equal(t, int64(60), txn.ID)
}

func TestIndexNotFound(t *testing.T) {
	idx, err := BuildIndex(testSnapshot())
	require.NoError(t, err)

	tests := []struct {
		name string
		call func() error
	}{
		{"account", func() error { _, err := idx.Account("Cash"); return err }},
		{"item", func() error { _, err := idx.Item("Other"); return err }},
		{"category kind mismatch", func() error { _, err := idx.Category(CategoryExpense, "Sales"); return err }},
		{"vendor", func() error { _, err := idx.Vendor("Stripe Inc"); return err }},
		{"customer case sensitive", func() error { _, err := idx.Customer("Jane@example.com"); return err }},
		{"invoice", func() error { _, err := idx.Invoice("20240102-00001"); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrReferenceNotFound))
		})
	}
}

func TestBuildIndexRejectsDuplicateKeys(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Snapshot)
		kind   string
		key    string
	}{
		{
			name:   "account",
			mutate: func(s *Snapshot) { s.Accounts = append(s.Accounts, Account{ID: 3, Name: "PayPal"}) },
			kind:   "account",
			key:    "PayPal",
		},
		{
			name:   "item",
			mutate: func(s *Snapshot) { s.Items = append(s.Items, Item{ID: 11, Name: "Plugin License"}) },
			kind:   "item",
			key:    "Plugin License",
		},
		{
			name: "category with same kind",
			mutate: func(s *Snapshot) {
				s.Categories = append(s.Categories, Category{ID: 23, Name: "Bank Fees", Kind: CategoryExpense})
			},
			kind: "expense category",
			key:  "Bank Fees",
		},
		{
			name:   "vendor",
			mutate: func(s *Snapshot) { s.Vendors = append(s.Vendors, Contact{ID: 31, Name: "PayPal Inc"}) },
			kind:   "vendor",
			key:    "PayPal Inc",
		},
		{
			name: "customer email",
			mutate: func(s *Snapshot) {
				s.Customers = append(s.Customers, Contact{ID: 43, Name: "J. Doe", Email: "jane@example.com"})
			},
			kind: "customer",
			key:  "jane@example.com",
		},
		{
			name: "invoice number",
			mutate: func(s *Snapshot) {
				s.Invoices = append(s.Invoices, Invoice{ID: 53, DocumentNumber: "20240101-00001"})
			},
			kind: "invoice",
			key:  "20240101-00001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testSnapshot()
			tt.mutate(&s)

			_, err := BuildIndex(s)
			require.Error(t, err)

			var ambiguous *AmbiguousReferenceError
			require.True(t, errors.As(err, &ambiguous))
			assert.Equal(t, tt.kind, ambiguous.Kind)
			assert.Equal(t, tt.key, ambiguous.Key)
		})
	}
}

func TestRegisterCustomer(t *testing.T) {
	idx, err := BuildIndex(testSnapshot())
	require.NoError(t, err)

	_, err = idx.Customer("new@example.com")
	require.Error(t, err)

	idx.RegisterCustomer(Contact{Name: "New", Email: "new@example.com", Role: RoleCustomer})

	c, err := idx.Customer("new@example.com")
	require.NoError(t, err)
	assert.True(t, c.Pending())
}

func TestIndexNewSequencerCountsAllInvoices(t *testing.T) {
	idx, err := BuildIndex(testSnapshot())
	require.NoError(t, err)

	seq := idx.NewSequencer()
	assert.Equal(t, 2, seq.Peek("20240101"))
	assert.Equal(t, 1, seq.Peek(UnparsedKey))

	// Independent counters per call.
	_ = seq.Next(mustDate(t, "2024-01-01"))
	assert.Equal(t, 2, idx.NewSequencer().Peek("20240101"))
}
