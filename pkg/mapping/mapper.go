// Package mapping loads the YAML file that maps each payment processor to the
// Akaunting entities its payments are booked against.
package mapping

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pigeonworks-llc/akaunting-sync/pkg/payment"
	"github.com/pigeonworks-llc/akaunting-sync/pkg/reconcile"
)

// DefaultCurrency is the currency setup creates accounts and vendors in when
// a processor names none.
const DefaultCurrency = "USD"

// DefaultPaymentMethod is used when the mapping does not name one.
const DefaultPaymentMethod = "Bank Transfer"

// DefaultCurrencyRates is the rate table used when the mapping has none.
var DefaultCurrencyRates = map[string]string{
	"USD": "1.2",
	"EUR": "1",
}

// ProcessorMapping names the ledger targets for one processor.
type ProcessorMapping struct {
	Enabled         *bool  `yaml:"enabled"`
	Account         string `yaml:"account"`
	Item            string `yaml:"item"`
	IncomeCategory  string `yaml:"income_category"`
	ExpenseCategory string `yaml:"expense_category"`
	FeeVendor       string `yaml:"fee_vendor"`

	// ProductFilter keeps PayPal transactions whose cart holds this item name.
	ProductFilter string `yaml:"product_filter"`
	// UnitPrice is the Stripe price of one item, in the smallest currency unit.
	UnitPrice int64 `yaml:"unit_price"`
	// Currency is used by setup for a missing account or fee vendor.
	Currency string `yaml:"currency"`
}

// IsEnabled reports whether the processor should be synced. Processors are
// enabled unless explicitly disabled.
func (p ProcessorMapping) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

// TargetNames returns the target names to resolve against the ledger index.
func (p ProcessorMapping) TargetNames() reconcile.TargetNames {
	return reconcile.TargetNames{
		Account:         p.Account,
		Item:            p.Item,
		IncomeCategory:  p.IncomeCategory,
		ExpenseCategory: p.ExpenseCategory,
		FeeVendor:       p.FeeVendor,
	}
}

// SetupTarget returns the target names together with the currency missing
// accounts and vendors are created in.
func (p ProcessorMapping) SetupTarget() reconcile.SetupTarget {
	currency := strings.ToUpper(strings.TrimSpace(p.Currency))
	if currency == "" {
		currency = DefaultCurrency
	}
	return reconcile.SetupTarget{Names: p.TargetNames(), CurrencyCode: currency}
}

func (p ProcessorMapping) missing() []string {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"account", p.Account},
		{"item", p.Item},
		{"income_category", p.IncomeCategory},
		{"expense_category", p.ExpenseCategory},
		{"fee_vendor", p.FeeVendor},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// MappingConfig represents the complete mapping file.
type MappingConfig struct {
	Timezone      string                      `yaml:"timezone"`
	PaymentMethod string                      `yaml:"payment_method"`
	CurrencyRates map[string]string           `yaml:"currency_rates"`
	Processors    map[string]ProcessorMapping `yaml:"processors"`
}

// Mapper gives typed access to a validated mapping.
type Mapper struct {
	config     MappingConfig
	location   *time.Location
	processors map[payment.Processor]ProcessorMapping
}

// NewMapper creates a new Mapper from a YAML configuration file.
func NewMapper(configPath string) (*Mapper, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file: %w", err)
	}
	return Parse(data)
}

// Parse creates a new Mapper from YAML content.
func Parse(data []byte) (*Mapper, error) {
	var config MappingConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	m := &Mapper{
		config:     config,
		location:   time.Local,
		processors: make(map[payment.Processor]ProcessorMapping),
	}

	if config.Timezone != "" {
		loc, err := time.LoadLocation(config.Timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid timezone %q: %w", config.Timezone, err)
		}
		m.location = loc
	}

	for name, pm := range config.Processors {
		p, err := payment.ParseProcessor(name)
		if err != nil {
			return nil, fmt.Errorf("invalid processors entry: %w", err)
		}
		if pm.IsEnabled() {
			if missing := pm.missing(); len(missing) > 0 {
				return nil, fmt.Errorf("processor %s: missing %s", name, strings.Join(missing, ", "))
			}
		}
		if pm.UnitPrice < 0 {
			return nil, fmt.Errorf("processor %s: unit_price must not be negative", name)
		}
		m.processors[p] = pm
	}

	return m, nil
}

// Location returns the zone document dates are derived in.
func (m *Mapper) Location() *time.Location {
	return m.location
}

// PaymentMethod returns the payment method recorded on transactions.
func (m *Mapper) PaymentMethod() string {
	if m.config.PaymentMethod == "" {
		return DefaultPaymentMethod
	}
	return m.config.PaymentMethod
}

// CurrencyRates returns a copy of the currency rate table.
func (m *Mapper) CurrencyRates() map[string]string {
	if len(m.config.CurrencyRates) == 0 {
		return maps.Clone(DefaultCurrencyRates)
	}
	return maps.Clone(m.config.CurrencyRates)
}

// Processor returns the mapping for p.
func (m *Mapper) Processor(p payment.Processor) (ProcessorMapping, bool) {
	pm, ok := m.processors[p]
	return pm, ok
}

// EnabledProcessors returns the mapped, enabled processors in name order.
func (m *Mapper) EnabledProcessors() []payment.Processor {
	var result []payment.Processor
	for p, pm := range m.processors {
		if pm.IsEnabled() {
			result = append(result, p)
		}
	}
	slices.Sort(result)
	return result
}
