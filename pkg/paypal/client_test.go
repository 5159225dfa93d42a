package paypal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pigeonworks-llc/akaunting-sync/pkg/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, tokenRequests *int32, pages map[string]int) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(tokenRequests, 1)

		user, pass, ok := r.BasicAuth()
		if !ok || user != "client-id" || pass != "client-secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid_client","error_description":"Client Authentication failed"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-123","token_type":"Bearer","expires_in":32400}`))
	})

	mux.HandleFunc("/v1/reporting/transactions", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		q := r.URL.Query()
		if q.Get("fields") != "all" || q.Get("page_size") != "100" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"name":"INVALID_REQUEST","message":"bad query","debug_id":"abc"}`))
			return
		}

		start := q.Get("start_date")
		page, _ := strconv.Atoi(q.Get("page"))
		totalPages := pages[start]

		var details []TransactionDetail
		if page <= totalPages {
			d := TransactionDetail{}
			d.TransactionInfo.TransactionID = start[:10] + "-p" + strconv.Itoa(page)
			details = append(details, d)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(TransactionsResponse{
			TransactionDetails: details,
			Page:               page,
			TotalPages:         totalPages,
		})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestFetchAllTransactionsChunksAndPaginates(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 40)

	var tokenRequests int32
	server := newTestServer(t, &tokenRequests, map[string]int{
		from.Format(TimeLayout):                2,
		from.Add(MaxWindow).Format(TimeLayout): 1,
	})

	client := NewClient(ClientConfig{
		APIURL:       server.URL,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
	})

	details, err := client.FetchAllTransactions(context.Background(), from, to)
	require.NoError(t, err)

	var ids []string
	for _, d := range details {
		ids = append(ids, d.TransactionInfo.TransactionID)
	}
	assert.Equal(t, []string{"2024-01-01-p1", "2024-01-01-p2", "2024-02-01-p1"}, ids)
	assert.Equal(t, int32(1), atomic.LoadInt32(&tokenRequests), "token should be cached")
}

func TestListTransactionsAuthFailure(t *testing.T) {
	var tokenRequests int32
	server := newTestServer(t, &tokenRequests, nil)

	client := NewClient(ClientConfig{
		APIURL:       server.URL,
		ClientID:     "client-id",
		ClientSecret: "wrong",
	})

	now := time.Now()
	_, err := client.ListTransactions(context.Background(), now.Add(-time.Hour), now, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_client")
}

func TestSplitWindow(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		to       time.Time
		expected int
	}{
		{"empty range", from, 0},
		{"single day", from.AddDate(0, 0, 1), 1},
		{"exactly one window", from.Add(MaxWindow), 1},
		{"just over one window", from.Add(MaxWindow + time.Second), 2},
		{"ninety days", from.AddDate(0, 0, 90), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			windows := splitWindow(from, tt.to, MaxWindow)
			require.Len(t, windows, tt.expected)
			if tt.expected > 0 {
				assert.True(t, windows[0][0].Equal(from))
				assert.True(t, windows[len(windows)-1][1].Equal(tt.to))
			}
		})
	}
}

func TestSourcePayments(t *testing.T) {
	var tokenRequests int32
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	server := newTestServer(t, &tokenRequests, map[string]int{from.Format(TimeLayout): 1})

	client := NewClient(ClientConfig{APIURL: server.URL, ClientID: "client-id", ClientSecret: "client-secret"})
	source := NewSource(client, Classifier{}, nil)

	assert.Equal(t, payment.PayPal, source.Processor())

	// The fake server returns transactions without cart info, so nothing is eligible.
	payments, err := source.Payments(context.Background(), payment.Window{From: from, To: from.AddDate(0, 0, 1)})
	require.NoError(t, err)
	assert.Empty(t, payments)
}
