// Package paypal provides a PayPal Transaction Search API client and the
// classifier turning PayPal transactions into settled payments.
package paypal

import (
	"fmt"
	"strings"
	"time"
)

// TimeLayout is the timestamp format used by the reporting API.
const TimeLayout = "2006-01-02T15:04:05-0700"

// Time is a reporting API timestamp. PayPal omits the colon in the zone
// offset, so RFC 3339 parsing alone is not enough.
type Time struct {
	time.Time
}

// UnmarshalJSON parses PayPal and RFC 3339 timestamps. Empty strings yield the
// zero time.
func (t *Time) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}

	for _, layout := range []string{TimeLayout, time.RFC3339} {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("invalid PayPal timestamp: %q", s)
}

// Money is an amount as reported by PayPal.
type Money struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

// TransactionInfo holds the core fields of a transaction.
type TransactionInfo struct {
	PayPalAccountID           string `json:"paypal_account_id"`
	TransactionID             string `json:"transaction_id"`
	TransactionEventCode      string `json:"transaction_event_code"`
	TransactionInitiationDate Time   `json:"transaction_initiation_date"`
	TransactionUpdatedDate    Time   `json:"transaction_updated_date"`
	TransactionAmount         *Money `json:"transaction_amount,omitempty"`
	FeeAmount                 *Money `json:"fee_amount,omitempty"`
	TransactionStatus         string `json:"transaction_status"`
	CustomField               string `json:"custom_field,omitempty"`
}

// PayerName is the payer's name as split by PayPal.
type PayerName struct {
	GivenName         string `json:"given_name"`
	Surname           string `json:"surname"`
	AlternateFullName string `json:"alternate_full_name"`
}

// PayerInfo describes the payer.
type PayerInfo struct {
	AccountID    string     `json:"account_id"`
	EmailAddress string     `json:"email_address"`
	PayerStatus  string     `json:"payer_status"`
	PayerName    *PayerName `json:"payer_name,omitempty"`
	CountryCode  string     `json:"country_code"`
}

// ItemDetail is one cart line item.
type ItemDetail struct {
	ItemCode        string `json:"item_code"`
	ItemName        string `json:"item_name"`
	ItemDescription string `json:"item_description"`
	ItemQuantity    string `json:"item_quantity"`
	ItemUnitPrice   *Money `json:"item_unit_price,omitempty"`
	ItemAmount      *Money `json:"item_amount,omitempty"`
	TotalItemAmount *Money `json:"total_item_amount,omitempty"`
}

// CartInfo holds the cart line items.
type CartInfo struct {
	ItemDetails []ItemDetail `json:"item_details"`
}

// TransactionDetail is one entry of the transaction search response.
type TransactionDetail struct {
	TransactionInfo TransactionInfo `json:"transaction_info"`
	PayerInfo       *PayerInfo      `json:"payer_info,omitempty"`
	CartInfo        *CartInfo       `json:"cart_info,omitempty"`
}

// Link is a HATEOAS link.
type Link struct {
	Href   string `json:"href"`
	Rel    string `json:"rel"`
	Method string `json:"method"`
}

// TransactionsResponse represents the response from /v1/reporting/transactions.
type TransactionsResponse struct {
	TransactionDetails    []TransactionDetail `json:"transaction_details"`
	AccountNumber         string              `json:"account_number"`
	StartDate             Time                `json:"start_date"`
	EndDate               Time                `json:"end_date"`
	LastRefreshedDatetime Time                `json:"last_refreshed_datetime"`
	Page                  int                 `json:"page"`
	TotalItems            int                 `json:"total_items"`
	TotalPages            int                 `json:"total_pages"`
	Links                 []Link              `json:"links"`
}

// ErrorResponse represents a PayPal REST error body.
type ErrorResponse struct {
	Name             string `json:"name"`
	Message          string `json:"message"`
	DebugID          string `json:"debug_id"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}
