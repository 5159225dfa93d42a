// Package payment defines the processor-agnostic settled payment shape and the
// adapter interface each payment processor implements.
package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Processor identifies a payment processor.
type Processor string

const (
	PayPal Processor = "paypal"
	Stripe Processor = "stripe"
)

// String returns the display name used in ledger descriptions.
func (p Processor) String() string {
	switch p {
	case PayPal:
		return "PayPal"
	case Stripe:
		return "Stripe"
	default:
		return string(p)
	}
}

// ParseProcessor parses a processor identifier such as "paypal".
func ParseProcessor(s string) (Processor, error) {
	switch Processor(s) {
	case PayPal, Stripe:
		return Processor(s), nil
	default:
		return "", fmt.Errorf("unknown processor: %q", s)
	}
}

// Payment is one settled payment, normalized from a processor transaction.
type Payment struct {
	ExternalID   string
	PayerEmail   string
	PayerName    string
	Amount       decimal.Decimal
	FeeAmount    decimal.Decimal
	CurrencyCode string
	SettledAt    time.Time
	Quantity     int
	Processor    Processor
}

// Description returns the traceability text carried by every ledger record
// created for the payment.
func (p Payment) Description() string {
	return Description(p.Processor, p.ExternalID)
}

// Description formats the ledger description for a processor transaction.
func Description(processor Processor, externalID string) string {
	return fmt.Sprintf("%s Transaction ID: %s", processor, externalID)
}

// Window is a half-open [From, To) time range to fetch payments for.
type Window struct {
	From time.Time
	To   time.Time
}

// Source fetches and classifies the payments of one processor.
// Payments are returned in the order the processor reported them.
type Source interface {
	Processor() Processor
	Payments(ctx context.Context, window Window) ([]Payment, error)
}
