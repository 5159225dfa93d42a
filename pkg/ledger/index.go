package ledger

import (
	"fmt"
)

// Index provides typed lookups over a ledger snapshot.
// Natural keys must be unique: BuildIndex rejects duplicates instead of
// letting a later entry shadow an earlier one.
type Index struct {
	accounts     map[string]Account
	items        map[string]Item
	categories   map[CategoryKey]Category
	vendors      map[string]Contact
	customers    map[string]Contact
	invoices     map[string]Invoice
	numbers      []string
	descriptions map[string]Transaction
}

// BuildIndex builds an Index from a snapshot.
// It returns *AmbiguousReferenceError when two entities share a natural key.
// Customers without an email cannot be matched and are left out.
func BuildIndex(s Snapshot) (*Index, error) {
	idx := &Index{
		accounts:     make(map[string]Account, len(s.Accounts)),
		items:        make(map[string]Item, len(s.Items)),
		categories:   make(map[CategoryKey]Category, len(s.Categories)),
		vendors:      make(map[string]Contact, len(s.Vendors)),
		customers:    make(map[string]Contact, len(s.Customers)),
		invoices:     make(map[string]Invoice, len(s.Invoices)),
		numbers:      make([]string, 0, len(s.Invoices)),
		descriptions: make(map[string]Transaction, len(s.Transactions)),
	}

	for _, a := range s.Accounts {
		if _, ok := idx.accounts[a.Name]; ok {
			return nil, &AmbiguousReferenceError{Kind: "account", Key: a.Name}
		}
		idx.accounts[a.Name] = a
	}

	for _, it := range s.Items {
		if _, ok := idx.items[it.Name]; ok {
			return nil, &AmbiguousReferenceError{Kind: "item", Key: it.Name}
		}
		idx.items[it.Name] = it
	}

	for _, c := range s.Categories {
		if _, ok := idx.categories[c.Key()]; ok {
			return nil, &AmbiguousReferenceError{Kind: string(c.Kind) + " category", Key: c.Name}
		}
		idx.categories[c.Key()] = c
	}

	for _, v := range s.Vendors {
		if _, ok := idx.vendors[v.Name]; ok {
			return nil, &AmbiguousReferenceError{Kind: "vendor", Key: v.Name}
		}
		idx.vendors[v.Name] = v
	}

	for _, c := range s.Customers {
		if c.Email == "" {
			continue
		}
		if _, ok := idx.customers[c.Email]; ok {
			return nil, &AmbiguousReferenceError{Kind: "customer", Key: c.Email}
		}
		idx.customers[c.Email] = c
	}

	for _, inv := range s.Invoices {
		idx.numbers = append(idx.numbers, inv.DocumentNumber)
		if _, _, err := ParseDocumentNumber(inv.DocumentNumber); err != nil {
			continue
		}
		if _, ok := idx.invoices[inv.DocumentNumber]; ok {
			return nil, &AmbiguousReferenceError{Kind: "invoice", Key: inv.DocumentNumber}
		}
		idx.invoices[inv.DocumentNumber] = inv
	}

	// Several transactions may carry the same description (an income and its
	// fee expense), so only the first one is kept.
	for _, t := range s.Transactions {
		if t.Description == "" {
			continue
		}
		if _, ok := idx.descriptions[t.Description]; !ok {
			idx.descriptions[t.Description] = t
		}
	}

	return idx, nil
}

// Account returns the account with the given name.
func (i *Index) Account(name string) (Account, error) {
	a, ok := i.accounts[name]
	if !ok {
		return Account{}, fmt.Errorf("account %q: %w", name, ErrReferenceNotFound)
	}
	return a, nil
}

// Item returns the item with the given name.
func (i *Index) Item(name string) (Item, error) {
	it, ok := i.items[name]
	if !ok {
		return Item{}, fmt.Errorf("item %q: %w", name, ErrReferenceNotFound)
	}
	return it, nil
}

// Category returns the category with the given kind and name.
func (i *Index) Category(kind CategoryKind, name string) (Category, error) {
	c, ok := i.categories[CategoryKey{Kind: kind, Name: name}]
	if !ok {
		return Category{}, fmt.Errorf("%s category %q: %w", kind, name, ErrReferenceNotFound)
	}
	return c, nil
}

// Vendor returns the vendor with the given name.
func (i *Index) Vendor(name string) (Contact, error) {
	v, ok := i.vendors[name]
	if !ok {
		return Contact{}, fmt.Errorf("vendor %q: %w", name, ErrReferenceNotFound)
	}
	return v, nil
}

// Customer returns the customer with the given email. Matching is exact and
// case-sensitive.
func (i *Index) Customer(email string) (Contact, error) {
	c, ok := i.customers[email]
	if !ok {
		return Contact{}, fmt.Errorf("customer %q: %w", email, ErrReferenceNotFound)
	}
	return c, nil
}

// RegisterCustomer adds or replaces a customer keyed by email.
func (i *Index) RegisterCustomer(c Contact) {
	i.customers[c.Email] = c
}

// Invoice returns the invoice with the given YYYYMMDD-NNNNN document number.
func (i *Index) Invoice(documentNumber string) (Invoice, error) {
	inv, ok := i.invoices[documentNumber]
	if !ok {
		return Invoice{}, fmt.Errorf("invoice %q: %w", documentNumber, ErrReferenceNotFound)
	}
	return inv, nil
}

// TransactionByDescription returns the first ledger transaction carrying the
// given description.
func (i *Index) TransactionByDescription(description string) (Transaction, bool) {
	t, ok := i.descriptions[description]
	return t, ok
}

// NewSequencer returns a Sequencer seeded from the indexed invoices.
// Each call returns an independent counter.
func (i *Index) NewSequencer() *Sequencer {
	return SeedSequencer(i.numbers)
}
