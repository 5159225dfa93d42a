package paypal

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pigeonworks-llc/akaunting-sync/pkg/payment"
)

// Source fetches PayPal transactions and classifies them.
type Source struct {
	client     *Client
	classifier Classifier
	logger     *slog.Logger
}

// NewSource creates a payment source backed by the PayPal API.
func NewSource(client *Client, classifier Classifier, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{client: client, classifier: classifier, logger: logger}
}

// Processor implements payment.Source.
func (s *Source) Processor() payment.Processor {
	return payment.PayPal
}

// Payments implements payment.Source.
func (s *Source) Payments(ctx context.Context, window payment.Window) ([]payment.Payment, error) {
	details, err := s.client.FetchAllTransactions(ctx, window.From, window.To)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch PayPal transactions: %w", err)
	}

	payments := s.classifier.Classify(details)
	s.logger.Debug("Classified PayPal transactions",
		"fetched", len(details),
		"eligible", len(payments),
		"product_filter", s.classifier.ProductFilter,
	)

	return payments, nil
}
