package reconcile

import (
	"slices"

	"github.com/pigeonworks-llc/akaunting-sync/pkg/ledger"
	"github.com/pigeonworks-llc/akaunting-sync/pkg/payment"
)

// DropSynced removes payments recorded in syncedIDs, and payments whose
// description already appears on a ledger transaction, so that they do not
// consume document numbers. It returns the remaining payments and the number
// dropped.
func DropSynced(payments []payment.Payment, syncedIDs []string, index *ledger.Index) ([]payment.Payment, int) {
	synced := make(map[string]bool, len(syncedIDs))
	for _, id := range syncedIDs {
		synced[id] = true
	}

	var result []payment.Payment
	for _, p := range payments {
		if synced[p.ExternalID] {
			continue
		}
		if index != nil {
			if _, ok := index.TransactionByDescription(p.Description()); ok {
				continue
			}
		}
		result = append(result, p)
	}
	return result, len(payments) - len(result)
}

// SortBySettlement orders payments from several sources by settlement time,
// keeping the source order for equal times.
func SortBySettlement(payments []payment.Payment) {
	slices.SortStableFunc(payments, func(a, b payment.Payment) int {
		return a.SettledAt.Compare(b.SettledAt)
	})
}
