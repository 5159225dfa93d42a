package reconcile

import (
	"strings"

	"github.com/pigeonworks-llc/akaunting-sync/pkg/ledger"
)

// ResolveCustomer maps a payer email to a customer.
//
// An exact, case-sensitive match returns the indexed customer. Otherwise a
// pending placeholder is registered in the index and returned together with
// the CreateCustomer request for it, so later payments from the same email
// resolve to the placeholder.
func (b *Batch) ResolveCustomer(email, name, currencyCode string) (ledger.Contact, *ledger.CreateCustomer, error) {
	if !validEmail(email) {
		return ledger.Contact{}, nil, &AmbiguousContactError{Email: email}
	}

	if c, err := b.index.Customer(email); err == nil {
		return c, nil, nil
	}

	if strings.TrimSpace(name) == "" {
		name = email
	}

	placeholder := ledger.Contact{
		Name:         name,
		Email:        email,
		CurrencyCode: currencyCode,
		Role:         ledger.RoleCustomer,
	}
	b.index.RegisterCustomer(placeholder)

	return placeholder, &ledger.CreateCustomer{
		Name:         name,
		Email:        email,
		CurrencyCode: currencyCode,
	}, nil
}

func validEmail(email string) bool {
	if email == "" || strings.ContainsAny(email, " \t\r\n") {
		return false
	}
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || domain == "" || strings.Contains(domain, "@") {
		return false
	}
	return true
}
