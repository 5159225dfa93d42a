package stripe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pigeonworks-llc/akaunting-sync/pkg/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	stripeapi "github.com/stripe/stripe-go/v81"
)

func TestListPaymentIntents(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/payment_intents" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Header.Get("Authorization") != "Bearer sk_test_123" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"Invalid API Key"}}`))
			return
		}

		q := r.URL.Query()
		assert.Equal(t, fmt.Sprint(from.Unix()), q.Get("created[gte]"))
		assert.Equal(t, fmt.Sprint(to.Unix()), q.Get("created[lt]"))
		assert.Equal(t, "data.latest_charge.balance_transaction", q.Get("expand[0]"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
  "object": "list",
  "url": "/v1/payment_intents",
  "has_more": false,
  "data": [
    {
      "id": "pi_2",
      "object": "payment_intent",
      "amount": 3000,
      "currency": "usd",
      "status": "succeeded",
      "created": 1704200000,
      "latest_charge": {
        "id": "ch_2",
        "object": "charge",
        "billing_details": {"email": "bob@example.com", "name": "Bob"},
        "balance_transaction": {"id": "txn_2", "object": "balance_transaction", "fee": 117}
      }
    },
    {
      "id": "pi_1",
      "object": "payment_intent",
      "amount": 5000,
      "currency": "usd",
      "status": "requires_payment_method",
      "created": 1704100000
    }
  ]
}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{SecretKey: "sk_test_123", APIURL: server.URL})

	intents, err := client.ListPaymentIntents(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, intents, 2)

	assert.Equal(t, "pi_2", intents[0].ID)
	require.NotNil(t, intents[0].LatestCharge)
	assert.Equal(t, "bob@example.com", intents[0].LatestCharge.BillingDetails.Email)
	require.NotNil(t, intents[0].LatestCharge.BalanceTransaction)
	assert.Equal(t, int64(117), intents[0].LatestCharge.BalanceTransaction.Fee)
}

type fakeLister struct {
	intents []*stripeapi.PaymentIntent
	err     error
}

func (f *fakeLister) ListPaymentIntents(ctx context.Context, from, to time.Time) ([]*stripeapi.PaymentIntent, error) {
	return f.intents, f.err
}

func TestSourceOrdersByCreation(t *testing.T) {
	newer := succeededIntent("pi_new", 2000, 50)
	newer.Created += 3600
	older := succeededIntent("pi_old", 1000, 30)

	source := NewSource(&fakeLister{intents: []*stripeapi.PaymentIntent{newer, older}}, Classifier{UnitPrice: 1000}, nil)
	assert.Equal(t, payment.Stripe, source.Processor())

	payments, err := source.Payments(context.Background(), payment.Window{})
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, "pi_old", payments[0].ExternalID)
	assert.Equal(t, "pi_new", payments[1].ExternalID)
}

func TestSourceWrapsFetchError(t *testing.T) {
	source := NewSource(&fakeLister{err: errors.New("boom")}, Classifier{}, nil)

	_, err := source.Payments(context.Background(), payment.Window{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}
