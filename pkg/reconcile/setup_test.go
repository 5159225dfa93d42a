package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pigeonworks-llc/akaunting-sync/pkg/ledger"
)

type fakeProvisioner struct {
	calls  []string
	failOn string
}

func (p *fakeProvisioner) step(name string) error {
	p.calls = append(p.calls, name)
	if name == p.failOn {
		return errors.New("status 422")
	}
	return nil
}

func (p *fakeProvisioner) CreateAccount(_ context.Context, m ledger.CreateAccount) (ledger.Account, error) {
	return ledger.Account{ID: 1, Name: m.Name}, p.step("account:" + m.Name)
}

func (p *fakeProvisioner) CreateCategory(_ context.Context, m ledger.CreateCategory) (ledger.Category, error) {
	return ledger.Category{ID: 2, Name: m.Name, Kind: m.Kind}, p.step(string(m.Kind) + ":" + m.Name)
}

func (p *fakeProvisioner) CreateVendor(_ context.Context, m ledger.CreateVendor) (ledger.Contact, error) {
	return ledger.Contact{ID: 3, Name: m.Name}, p.step("vendor:" + m.Name)
}

func TestPlanSetup(t *testing.T) {
	idx := testIndex(t)

	tests := []struct {
		name    string
		targets []SetupTarget
		want    []ledger.Mutation
		items   []string
	}{
		{
			name: "everything exists",
			targets: []SetupTarget{{Names: TargetNames{
				Account: "PayPal", Item: "Plugin License", IncomeCategory: "Sales",
				ExpenseCategory: "Bank Fees", FeeVendor: "PayPal Inc",
			}, CurrencyCode: "USD"}},
		},
		{
			name: "only missing records are planned, shared names once",
			targets: []SetupTarget{
				{Names: TargetNames{
					Account: "PayPal", Item: "Plugin License", IncomeCategory: "Sales",
					ExpenseCategory: "Bank Fees", FeeVendor: "PayPal Inc",
				}, CurrencyCode: "USD"},
				{Names: TargetNames{
					Account: "Stripe", Item: "Support Plan", IncomeCategory: "Subscriptions",
					ExpenseCategory: "Processor Fees", FeeVendor: "Stripe Inc",
				}, CurrencyCode: "EUR"},
				{Names: TargetNames{
					Account: "Stripe", Item: "Support Plan", IncomeCategory: "Subscriptions",
					ExpenseCategory: "Processor Fees", FeeVendor: "Stripe Inc",
				}, CurrencyCode: "EUR"},
			},
			want: []ledger.Mutation{
				ledger.CreateAccount{Name: "Stripe", CurrencyCode: "EUR"},
				ledger.CreateCategory{Name: "Subscriptions", Kind: ledger.CategoryIncome},
				ledger.CreateCategory{Name: "Processor Fees", Kind: ledger.CategoryExpense},
				ledger.CreateVendor{Name: "Stripe Inc", CurrencyCode: "EUR"},
			},
			items: []string{"Support Plan"},
		},
		{
			name: "category kind is part of the key",
			targets: []SetupTarget{{Names: TargetNames{
				Account: "PayPal", Item: "Plugin License", IncomeCategory: "Bank Fees",
				ExpenseCategory: "Bank Fees", FeeVendor: "PayPal Inc",
			}, CurrencyCode: "USD"}},
			want: []ledger.Mutation{
				ledger.CreateCategory{Name: "Bank Fees", Kind: ledger.CategoryIncome},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := PlanSetup(idx, tt.targets)
			require.NoError(t, err)
			assert.Equal(t, tt.want, plan.Mutations)
			assert.Equal(t, tt.items, plan.MissingItems)
		})
	}
}

func TestApplySetupStopsAtFirstFailure(t *testing.T) {
	plan := &SetupPlan{Mutations: []ledger.Mutation{
		ledger.CreateAccount{Name: "Stripe", CurrencyCode: "USD"},
		ledger.CreateCategory{Name: "Sales", Kind: ledger.CategoryIncome},
		ledger.CreateVendor{Name: "Stripe Inc", CurrencyCode: "USD"},
	}}

	p := &fakeProvisioner{}
	created, err := ApplySetup(context.Background(), p, plan)
	require.NoError(t, err)
	assert.Equal(t, 3, created)
	assert.Equal(t, []string{"account:Stripe", "income:Sales", "vendor:Stripe Inc"}, p.calls)

	p = &fakeProvisioner{failOn: "income:Sales"}
	created, err = ApplySetup(context.Background(), p, plan)
	require.Error(t, err)
	assert.Equal(t, 1, created)
	assert.Equal(t, []string{"account:Stripe", "income:Sales"}, p.calls)
}

func TestApplySetupRejectsPaymentMutations(t *testing.T) {
	plan := &SetupPlan{Mutations: []ledger.Mutation{ledger.CreateCustomer{Email: "jane@example.com"}}}

	created, err := ApplySetup(context.Background(), &fakeProvisioner{}, plan)
	assert.Zero(t, created)
	assert.ErrorContains(t, err, "unsupported setup mutation create_customer")
}
