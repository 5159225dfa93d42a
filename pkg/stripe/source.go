package stripe

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/pigeonworks-llc/akaunting-sync/pkg/payment"
	stripeapi "github.com/stripe/stripe-go/v81"
)

// IntentLister lists PaymentIntents created in a time range.
type IntentLister interface {
	ListPaymentIntents(ctx context.Context, from, to time.Time) ([]*stripeapi.PaymentIntent, error)
}

// Source fetches Stripe PaymentIntents and classifies them.
type Source struct {
	lister     IntentLister
	classifier Classifier
	logger     *slog.Logger
}

// NewSource creates a payment source backed by Stripe.
func NewSource(lister IntentLister, classifier Classifier, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{lister: lister, classifier: classifier, logger: logger}
}

// Processor implements payment.Source.
func (s *Source) Processor() payment.Processor {
	return payment.Stripe
}

// Payments implements payment.Source. Stripe lists newest first; intents are
// put in creation order before classification.
func (s *Source) Payments(ctx context.Context, window payment.Window) ([]payment.Payment, error) {
	intents, err := s.lister.ListPaymentIntents(ctx, window.From, window.To)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch Stripe payment intents: %w", err)
	}

	slices.SortStableFunc(intents, func(a, b *stripeapi.PaymentIntent) int {
		return cmp.Compare(a.Created, b.Created)
	})

	payments := s.classifier.Classify(intents)
	s.logger.Debug("Classified Stripe payment intents",
		"fetched", len(intents),
		"eligible", len(payments),
	)

	return payments, nil
}
