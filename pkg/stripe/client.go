// Package stripe fetches Stripe PaymentIntents and classifies them into
// settled payments.
package stripe

import (
	"context"
	"fmt"
	"net/http"
	"time"

	stripeapi "github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
)

// ClientConfig represents the configuration for the Stripe client.
type ClientConfig struct {
	SecretKey string
	// APIURL overrides the API endpoint, e.g. for stripe-mock.
	APIURL  string
	Timeout time.Duration // Default: 30 seconds
}

// Client lists PaymentIntents through the Stripe SDK.
type Client struct {
	api *client.API
}

// NewClient creates a new Stripe client.
func NewClient(config ClientConfig) *Client {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	backendConfig := &stripeapi.BackendConfig{
		HTTPClient: &http.Client{Timeout: timeout},
		LeveledLogger: &stripeapi.LeveledLogger{
			Level: stripeapi.LevelError,
		},
	}
	if config.APIURL != "" {
		backendConfig.URL = stripeapi.String(config.APIURL)
	}

	backends := &stripeapi.Backends{
		API: stripeapi.GetBackendWithConfig(stripeapi.APIBackend, backendConfig),
	}

	return &Client{api: client.New(config.SecretKey, backends)}
}

// ListPaymentIntents lists the PaymentIntents created in [from, to), with the
// latest charge and its balance transaction expanded.
func (c *Client) ListPaymentIntents(ctx context.Context, from, to time.Time) ([]*stripeapi.PaymentIntent, error) {
	params := &stripeapi.PaymentIntentListParams{
		CreatedRange: &stripeapi.RangeQueryParams{
			GreaterThanOrEqual: from.Unix(),
			LesserThan:         to.Unix(),
		},
	}
	params.Context = ctx
	params.Limit = stripeapi.Int64(100)
	params.AddExpand("data.latest_charge.balance_transaction")

	var intents []*stripeapi.PaymentIntent
	iter := c.api.PaymentIntents.List(params)
	for iter.Next() {
		intents = append(intents, iter.PaymentIntent())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("stripe: failed to list payment intents: %w", err)
	}

	return intents, nil
}
