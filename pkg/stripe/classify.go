package stripe

import (
	"strings"
	"time"

	"github.com/pigeonworks-llc/akaunting-sync/pkg/payment"
	"github.com/shopspring/decimal"
	stripeapi "github.com/stripe/stripe-go/v81"
)

// Classifier turns PaymentIntents into settled payments.
type Classifier struct {
	// UnitPrice is the price of one unit in minor units (cents).
	// Quantity is the gross amount divided by it, truncated; there is no
	// remainder handling, so mixed carts or discounts yield approximate
	// quantities.
	UnitPrice int64

	// Location is the zone settlement times are expressed in. Defaults to
	// time.Local.
	Location *time.Location
}

// Classify returns one payment per succeeded intent, in input order.
// Intents without a charge or billing details are dropped.
func (c Classifier) Classify(intents []*stripeapi.PaymentIntent) []payment.Payment {
	var payments []payment.Payment
	for _, pi := range intents {
		if p, ok := c.classify(pi); ok {
			payments = append(payments, p)
		}
	}
	return payments
}

func (c Classifier) classify(pi *stripeapi.PaymentIntent) (payment.Payment, bool) {
	if pi == nil || pi.Status != stripeapi.PaymentIntentStatusSucceeded {
		return payment.Payment{}, false
	}

	charge := pi.LatestCharge
	if charge == nil || charge.BillingDetails == nil {
		return payment.Payment{}, false
	}

	fee := decimal.Zero
	if charge.BalanceTransaction != nil {
		fee = decimal.New(charge.BalanceTransaction.Fee, -2).Abs()
	}

	loc := c.Location
	if loc == nil {
		loc = time.Local
	}

	return payment.Payment{
		ExternalID:   pi.ID,
		PayerEmail:   charge.BillingDetails.Email,
		PayerName:    charge.BillingDetails.Name,
		Amount:       decimal.New(pi.Amount, -2),
		FeeAmount:    fee,
		CurrencyCode: strings.ToUpper(string(pi.Currency)),
		SettledAt:    time.Unix(pi.Created, 0).In(loc),
		Quantity:     c.quantity(pi.Amount),
		Processor:    payment.Stripe,
	}, true
}

func (c Classifier) quantity(amount int64) int {
	if c.UnitPrice <= 0 {
		return 1
	}
	return int(amount / c.UnitPrice)
}
