package akaunting

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pigeonworks-llc/akaunting-sync/pkg/ledger"
	"github.com/pigeonworks-llc/akaunting-sync/pkg/reconcile"
)

var (
	_ reconcile.LedgerWriter = (*Client)(nil)
	_ reconcile.Provisioner  = (*Client)(nil)
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "admin@example.com" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Unauthenticated."}`))
			return
		}
		if r.URL.Query().Get("company_id") != "7" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	return NewClient(ClientConfig{
		APIURL:    server.URL + "/",
		Email:     "admin@example.com",
		Password:  "secret",
		CompanyID: 7,
		Limit:     2,
	})
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func page[T any](data []T, current, total int) ListResponse[T] {
	return ListResponse[T]{
		Data: data,
		Meta: &Meta{Pagination: Pagination{CurrentPage: current, TotalPages: total}},
	}
}

func TestListFollowsPagination(t *testing.T) {
	var pages []string

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/contacts", r.URL.Path)
		assert.Equal(t, "type:customer", r.URL.Query().Get("search"))
		assert.Equal(t, "2", r.URL.Query().Get("limit"))

		p := r.URL.Query().Get("page")
		pages = append(pages, p)
		n, _ := strconv.Atoi(p)

		writeJSON(t, w, http.StatusOK, page([]Contact{
			{ID: int64(n*10 + 1), Email: "a" + p + "@example.com"},
			{ID: int64(n*10 + 2), Email: "b" + p + "@example.com"},
		}, n, 3))
	})

	contacts, err := c.ListContacts(context.Background(), "customer")
	require.NoError(t, err)
	assert.Len(t, contacts, 6)
	assert.Equal(t, []string{"1", "2", "3"}, pages)
	assert.Equal(t, int64(32), contacts[5].ID)
}

func TestListWithoutMetaStopsAfterFirstPage(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		writeJSON(t, w, http.StatusOK, ListResponse[Account]{Data: []Account{{ID: 1, Name: "PayPal"}}})
	})

	accounts, err := c.ListAccounts(context.Background())
	require.NoError(t, err)
	assert.Len(t, accounts, 1)
	assert.Equal(t, 1, calls)
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		contains string
		notFound bool
	}{
		{"validation", http.StatusUnprocessableEntity, `{"message":"The given data was invalid.","errors":{"email":["taken"],"amount":["required"]}}`, "The given data was invalid. (amount: required; email: taken)", false},
		{"plain text", http.StatusInternalServerError, "boom\n", "(status 500): boom", false},
		{"not found", http.StatusNotFound, `{"message":"Not found"}`, "Not found", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.ListItems(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
			assert.Equal(t, tt.notFound, errors.Is(err, ErrNotFound))
		})
	}
}

func TestPingRejectsBadCredentials(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ping", r.URL.Path)
		writeJSON(t, w, http.StatusOK, map[string]string{"status": "ok"})
	})
	require.NoError(t, c.Ping(context.Background()))

	c.password = "wrong"
	err := c.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unauthenticated.")
}

func TestSnapshot(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]bool{}

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Path + "?" + r.URL.Query().Get("search")
		mu.Lock()
		seen[key] = true
		mu.Unlock()

		switch key {
		case "/api/accounts?":
			writeJSON(t, w, http.StatusOK, page([]Account{{ID: 1, Name: "PayPal", CurrencyCode: "USD"}}, 1, 1))
		case "/api/items?":
			writeJSON(t, w, http.StatusOK, page([]Item{{ID: 10, Name: "License", SalePrice: decimal.NewFromInt(10)}}, 1, 1))
		case "/api/categories?":
			writeJSON(t, w, http.StatusOK, page([]Category{{ID: 20, Name: "Sales", Type: "income"}}, 1, 1))
		case "/api/contacts?type:vendor":
			writeJSON(t, w, http.StatusOK, page([]Contact{{ID: 30, Name: "PayPal Inc", Type: "vendor"}}, 1, 1))
		case "/api/contacts?type:customer":
			writeJSON(t, w, http.StatusOK, page([]Contact{{ID: 40, Name: "Jane", Email: "jane@example.com", Type: "customer"}}, 1, 1))
		case "/api/documents?type:invoice":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"data":[{"id":50,"document_number":"20240101-00001","issued_at":"2024-01-01T10:00:00+00:00","due_at":"2024-01-01 10:00:00","amount":30,"currency_code":"USD"}],"meta":{"pagination":{"current_page":1,"total_pages":1}}}`))
		case "/api/transactions?type:income":
			_, _ = w.Write([]byte(`{"data":[{"id":60,"type":"income","description":"PayPal Transaction ID: A","amount":"30.00","paid_at":null,"document_id":50}]}`))
		case "/api/transactions?type:expense":
			_, _ = w.Write([]byte(`{"data":[{"id":61,"type":"expense","description":"PayPal Transaction ID: A","amount":1.2,"paid_at":"2024-01-01T10:00:00+00:00"}]}`))
		default:
			t.Errorf("unexpected request %s", key)
			w.WriteHeader(http.StatusNotFound)
		}
	})

	snap, err := c.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Len(t, seen, 8)
	require.Len(t, snap.Accounts, 1)
	assert.Equal(t, "USD", snap.Accounts[0].CurrencyCode)
	assert.Equal(t, ledger.CategoryIncome, snap.Categories[0].Kind)
	assert.Equal(t, ledger.RoleVendor, snap.Vendors[0].Role)
	assert.Equal(t, ledger.RoleCustomer, snap.Customers[0].Role)

	require.Len(t, snap.Invoices, 1)
	assert.Equal(t, "20240101-00001", snap.Invoices[0].DocumentNumber)
	assert.True(t, snap.Invoices[0].Amount.Equal(decimal.NewFromInt(30)))
	assert.True(t, snap.Invoices[0].IssuedAt.Equal(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)))

	require.Len(t, snap.Transactions, 2)
	assert.Equal(t, int64(50), snap.Transactions[0].DocumentID)
	assert.True(t, snap.Transactions[0].PaidAt.IsZero())

	idx, err := ledger.BuildIndex(snap)
	require.NoError(t, err)
	_, ok := idx.TransactionByDescription("PayPal Transaction ID: A")
	assert.True(t, ok)
}

func TestSnapshotFailsOnAnyList(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/items" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		writeJSON(t, w, http.StatusOK, ListResponse[Account]{})
	})

	_, err := c.Snapshot(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/api/items")
}

func TestCreateInvoiceAndIncome(t *testing.T) {
	var invoiceBody, incomeBody map[string]any

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		switch r.URL.Path {
		case "/api/documents":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&invoiceBody))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"data":{"id":77,"document_number":"20240115-00003","status":"paid","issued_at":"2024-01-15T10:00:00+00:00","due_at":"2024-01-15T10:00:00+00:00","amount":30,"currency_code":"USD","contact_id":40}}`))
		case "/api/transactions":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&incomeBody))
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"data":{"id":88,"type":"income","document_id":77}}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	contact := ledger.Contact{ID: 40, Name: "Jane", Email: "jane@example.com"}
	issued := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

	inv, err := c.CreateInvoice(context.Background(), ledger.CreateInvoice{
		Contact:        contact,
		CurrencyCode:   "USD",
		IssuedAt:       issued,
		DocumentNumber: "20240115-00003",
		Item:           ledger.Item{ID: 10, Name: "License", SalePrice: decimal.NewFromInt(10)},
		Quantity:       3,
		Category:       ledger.Category{ID: 20},
		Description:    "PayPal Transaction ID: TX1",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(77), inv.ID)

	assert.Equal(t, "invoice", invoiceBody["type"])
	assert.Equal(t, "paid", invoiceBody["status"])
	assert.Equal(t, "2024-01-15 10:00:00", invoiceBody["issued_at"])
	assert.Equal(t, invoiceBody["issued_at"], invoiceBody["due_at"])
	assert.Equal(t, "1.2", invoiceBody["currency_rate"])
	assert.Equal(t, "PayPal Transaction ID: TX1", invoiceBody["notes"])
	assert.Equal(t, float64(40), invoiceBody["contact_id"])
	items := invoiceBody["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, float64(3), items[0].(map[string]any)["quantity"])

	tx, err := c.CreateIncome(context.Background(), ledger.CreateIncome{
		Account:     ledger.Account{ID: 1, CurrencyCode: "EUR"},
		Invoice:     ledger.InvoiceRef{DocumentNumber: "20240115-00003"},
		Category:    ledger.Category{ID: 20},
		Contact:     contact,
		Description: "PayPal Transaction ID: TX1",
	}, inv)
	require.NoError(t, err)
	assert.Equal(t, int64(88), tx.ID)

	assert.Equal(t, "income", incomeBody["type"])
	assert.Equal(t, float64(77), incomeBody["document_id"])
	assert.Equal(t, "30", incomeBody["amount"])
	assert.Equal(t, "USD", incomeBody["currency_code"])
	assert.Equal(t, "1", incomeBody["currency_rate"])
	assert.Equal(t, "Bank Transfer", incomeBody["payment_method"])
	assert.Equal(t, "2024-01-15 10:00:00", incomeBody["paid_at"])
}

func TestCreateExpenseAndCustomer(t *testing.T) {
	var bodies []map[string]any

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies = append(bodies, body)

		if strings.HasSuffix(r.URL.Path, "/contacts") {
			_, _ = w.Write([]byte(`{"data":{"id":41,"type":"customer","name":"New","email":"new@example.com","currency_code":"USD"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"data":{"id":90,"type":"expense"}}`))
	})

	contact, err := c.CreateCustomer(context.Background(), ledger.CreateCustomer{Name: "New", Email: "new@example.com", CurrencyCode: "USD", Description: "PayPal Transaction ID: TX1"})
	require.NoError(t, err)
	assert.Equal(t, int64(41), contact.ID)
	assert.Equal(t, ledger.RoleCustomer, contact.Role)

	_, err = c.CreateExpense(context.Background(), ledger.CreateExpense{
		Account:     ledger.Account{ID: 1, CurrencyCode: "USD"},
		Category:    ledger.Category{ID: 22},
		Vendor:      ledger.Contact{ID: 30},
		Description: "PayPal Transaction ID: TX1",
		Amount:      decimal.RequireFromString("1.20"),
		PaidAt:      time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	require.Len(t, bodies, 2)
	assert.Equal(t, "customer", bodies[0]["type"])
	assert.Equal(t, float64(1), bodies[0]["enabled"])
	assert.Equal(t, "PayPal Transaction ID: TX1", bodies[0]["reference"])

	assert.Equal(t, "expense", bodies[1]["type"])
	assert.Equal(t, float64(30), bodies[1]["contact_id"])
	assert.Equal(t, "1.2", bodies[1]["amount"])
	assert.Nil(t, bodies[1]["document_id"])
}

func TestCreateRejectsUnknownCurrencyAndPendingContact(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.Path)
	})

	_, err := c.CreateExpense(context.Background(), ledger.CreateExpense{Account: ledger.Account{ID: 1, CurrencyCode: "JPY"}})
	assert.ErrorContains(t, err, `no currency rate configured for "JPY"`)

	_, err = c.CreateInvoice(context.Background(), ledger.CreateInvoice{
		Contact:      ledger.Contact{Email: "new@example.com"},
		CurrencyCode: "USD",
	})
	assert.ErrorContains(t, err, "has no id")
}

func TestCreateReferenceData(t *testing.T) {
	bodies := make(map[string]map[string]any)

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies[r.URL.Path] = body

		w.WriteHeader(http.StatusCreated)
		switch r.URL.Path {
		case "/api/accounts":
			_, _ = w.Write([]byte(`{"data":{"id":5,"name":"Stripe","number":"Stripe","currency_code":"EUR"}}`))
		case "/api/categories":
			_, _ = w.Write([]byte(`{"data":{"id":6,"name":"Processor Fees","type":"expense"}}`))
		case "/api/contacts":
			_, _ = w.Write([]byte(`{"data":{"id":7,"type":"vendor","name":"Stripe Inc","currency_code":"EUR"}}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})
	ctx := context.Background()

	account, err := c.CreateAccount(ctx, ledger.CreateAccount{Name: "Stripe", CurrencyCode: "EUR"})
	require.NoError(t, err)
	assert.Equal(t, ledger.Account{ID: 5, Name: "Stripe", CurrencyCode: "EUR"}, account)

	category, err := c.CreateCategory(ctx, ledger.CreateCategory{Name: "Processor Fees", Kind: ledger.CategoryExpense})
	require.NoError(t, err)
	assert.Equal(t, ledger.Category{ID: 6, Name: "Processor Fees", Kind: ledger.CategoryExpense}, category)

	vendor, err := c.CreateVendor(ctx, ledger.CreateVendor{Name: "Stripe Inc", CurrencyCode: "EUR"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), vendor.ID)
	assert.Equal(t, ledger.RoleVendor, vendor.Role)

	assert.Equal(t, "Stripe", bodies["/api/accounts"]["number"])
	assert.Equal(t, "EUR", bodies["/api/accounts"]["currency_code"])
	assert.Equal(t, "0", bodies["/api/accounts"]["opening_balance"])
	assert.Equal(t, float64(1), bodies["/api/accounts"]["enabled"])

	assert.Equal(t, "expense", bodies["/api/categories"]["type"])
	assert.NotEmpty(t, bodies["/api/categories"]["color"])

	assert.Equal(t, "vendor", bodies["/api/contacts"]["type"])
	assert.Equal(t, "Stripe Inc", bodies["/api/contacts"]["name"])
	assert.NotContains(t, bodies["/api/contacts"], "reference")
}

func TestCreateReferenceDataValidationError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnprocessableEntity, ErrorResponse{
			Message: "The given data was invalid.",
			Errors:  map[string][]string{"number": {"The number has already been taken."}},
		})
	})

	_, err := c.CreateAccount(context.Background(), ledger.CreateAccount{Name: "PayPal", CurrencyCode: "USD"})
	require.Error(t, err)
	assert.ErrorContains(t, err, `failed to create account "PayPal"`)
	assert.ErrorContains(t, err, "status 422")
	assert.ErrorContains(t, err, "number: The number has already been taken.")
}
