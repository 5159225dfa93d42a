package store

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/pigeonworks-llc/akaunting-sync/pkg/akaunting"
)

// Seed is the reference data a fresh emulated company starts with.
type Seed struct {
	Accounts []struct {
		Name         string `yaml:"name"`
		Number       string `yaml:"number"`
		CurrencyCode string `yaml:"currency_code"`
	} `yaml:"accounts"`
	Items []struct {
		Name      string `yaml:"name"`
		SalePrice string `yaml:"sale_price"`
	} `yaml:"items"`
	Categories []struct {
		Name string `yaml:"name"`
		Type string `yaml:"type"`
	} `yaml:"categories"`
	Vendors []struct {
		Name         string `yaml:"name"`
		Email        string `yaml:"email"`
		CurrencyCode string `yaml:"currency_code"`
	} `yaml:"vendors"`
	Customers []struct {
		Name         string `yaml:"name"`
		Email        string `yaml:"email"`
		CurrencyCode string `yaml:"currency_code"`
	} `yaml:"customers"`
}

// DemoSeed matches the example mapping.yaml.
const DemoSeed = `
accounts:
  - {name: PayPal, number: "PP-001", currency_code: USD}
  - {name: Stripe, number: "ST-001", currency_code: USD}
items:
  - {name: Plugin License, sale_price: "10.00"}
categories:
  - {name: Sales, type: income}
  - {name: Bank Fees, type: expense}
vendors:
  - {name: PayPal Inc, email: fees@paypal.example, currency_code: USD}
  - {name: Stripe Inc, email: fees@stripe.example, currency_code: USD}
`

// LoadSeed reads a seed file.
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed parses seed YAML.
func ParseSeed(data []byte) (*Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed: %w", err)
	}
	return &seed, nil
}

// Empty reports whether the company has no accounts yet.
func (s *Store) Empty() (bool, error) {
	accounts, err := s.ListAccounts()
	if err != nil {
		return false, err
	}
	return len(accounts) == 0, nil
}

// Apply creates the seed records.
func (s *Store) Apply(seed *Seed) error {
	for _, a := range seed.Accounts {
		if _, err := s.CreateAccount(akaunting.AccountBody{Name: a.Name, Number: a.Number, CurrencyCode: a.CurrencyCode, BankName: a.Name, Enabled: 1}); err != nil {
			return fmt.Errorf("failed to seed account %q: %w", a.Name, err)
		}
	}

	for _, i := range seed.Items {
		price, err := decimal.NewFromString(i.SalePrice)
		if err != nil {
			return fmt.Errorf("invalid sale price for item %q: %w", i.Name, err)
		}
		if _, err := s.CreateItem(akaunting.Item{Name: i.Name, SalePrice: price}); err != nil {
			return err
		}
	}

	for _, c := range seed.Categories {
		if _, err := s.CreateCategory(akaunting.CategoryBody{Name: c.Name, Type: c.Type, Enabled: 1}); err != nil {
			return fmt.Errorf("failed to seed category %q: %w", c.Name, err)
		}
	}

	for _, v := range seed.Vendors {
		if _, err := s.CreateContact(akaunting.ContactBody{Type: "vendor", Name: v.Name, Email: v.Email, CurrencyCode: v.CurrencyCode, Enabled: 1}); err != nil {
			return fmt.Errorf("failed to seed vendor %q: %w", v.Name, err)
		}
	}

	for _, c := range seed.Customers {
		if _, err := s.CreateContact(akaunting.ContactBody{Type: "customer", Name: c.Name, Email: c.Email, CurrencyCode: c.CurrencyCode, Enabled: 1}); err != nil {
			return fmt.Errorf("failed to seed customer %q: %w", c.Name, err)
		}
	}

	return nil
}
