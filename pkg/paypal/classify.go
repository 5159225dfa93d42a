package paypal

import (
	"strconv"
	"strings"

	"github.com/pigeonworks-llc/akaunting-sync/pkg/payment"
	"github.com/shopspring/decimal"
)

// Classifier turns PayPal transactions into settled payments.
type Classifier struct {
	// ProductFilter is the cart item name a transaction must contain.
	// An empty filter accepts every transaction with at least one item.
	ProductFilter string
}

// Classify returns one payment per eligible transaction, in input order.
// Transactions without cart items, payer info, an id or a parsable amount
// are dropped.
func (c Classifier) Classify(details []TransactionDetail) []payment.Payment {
	var payments []payment.Payment
	for _, d := range details {
		if p, ok := c.classify(d); ok {
			payments = append(payments, p)
		}
	}
	return payments
}

func (c Classifier) classify(d TransactionDetail) (payment.Payment, bool) {
	info := d.TransactionInfo
	if info.TransactionID == "" || info.TransactionAmount == nil {
		return payment.Payment{}, false
	}
	if d.CartInfo == nil || len(d.CartInfo.ItemDetails) == 0 || d.PayerInfo == nil {
		return payment.Payment{}, false
	}

	item, ok := c.matchItem(d.CartInfo.ItemDetails)
	if !ok {
		return payment.Payment{}, false
	}

	amount, err := decimal.NewFromString(info.TransactionAmount.Value)
	if err != nil {
		return payment.Payment{}, false
	}

	fee := decimal.Zero
	if info.FeeAmount != nil && info.FeeAmount.Value != "" {
		if v, err := decimal.NewFromString(info.FeeAmount.Value); err == nil {
			fee = v.Abs()
		}
	}

	return payment.Payment{
		ExternalID:   info.TransactionID,
		PayerEmail:   d.PayerInfo.EmailAddress,
		PayerName:    payerName(d.PayerInfo),
		Amount:       amount,
		FeeAmount:    fee,
		CurrencyCode: strings.ToUpper(info.TransactionAmount.CurrencyCode),
		SettledAt:    info.TransactionInitiationDate.Time,
		Quantity:     quantity(item.ItemQuantity),
		Processor:    payment.PayPal,
	}, true
}

func (c Classifier) matchItem(items []ItemDetail) (ItemDetail, bool) {
	filter := strings.TrimSpace(c.ProductFilter)
	for _, it := range items {
		if filter == "" || strings.TrimSpace(it.ItemName) == filter {
			return it, true
		}
	}
	return ItemDetail{}, false
}

func payerName(p *PayerInfo) string {
	if p.PayerName == nil {
		return ""
	}
	if p.PayerName.AlternateFullName != "" {
		return p.PayerName.AlternateFullName
	}
	return strings.TrimSpace(p.PayerName.GivenName + " " + p.PayerName.Surname)
}

// quantity parses item_quantity, which PayPal reports as a decimal string.
func quantity(s string) int {
	q, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || q < 1 {
		return 1
	}
	return int(q)
}
