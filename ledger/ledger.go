// Package ledger provides the append-only local store of payment receipts.
package ledger

import (
	"strings"

	"github.com/pawcademy/pay-go/types"
)

// Namespace is the fixed key the local store writes under.
const Namespace = "pawcademy.receipts"

// SyntheticIDPrefix marks receipt ids that were synthesized locally from a
// transaction hash because event decoding found no match. Synthetic ids
// are never authoritative for on-chain refund lookups.
const SyntheticIDPrefix = "PM-"

// SimulatedIDPrefix marks receipts produced by simulated settlement.
const SimulatedIDPrefix = "SIM-"

// Ledger is the append-only receipt store. Receipts are never deleted or
// mutated; a refunded purchase is superseded by a later refund record with
// the same id.
type Ledger interface {
	Append(receipt types.Receipt) error
	ListRecent(n int) ([]types.Receipt, error)
	FindRefundable() (*types.Receipt, error)
	FindByID(id string) (*types.Receipt, error)
	HasRefund(id string) (bool, error)
	Clear() error
}

// IsSynthetic reports whether a receipt id was locally synthesized rather
// than decoded from chain logs.
func IsSynthetic(id string) bool {
	return strings.HasPrefix(id, SyntheticIDPrefix) || strings.HasPrefix(id, SimulatedIDPrefix)
}

// findRefundable scans newest-first for a micropayment receipt with no
// refund record sharing its id.
func findRefundable(receipts []types.Receipt) *types.Receipt {
	refunded := make(map[string]bool)
	for _, r := range receipts {
		if r.Type == types.ReceiptRefund {
			refunded[r.ID] = true
		}
	}
	for i := len(receipts) - 1; i >= 0; i-- {
		r := receipts[i]
		if r.Type == types.ReceiptMicropayment && !refunded[r.ID] {
			return &r
		}
	}
	return nil
}

func hasRefund(receipts []types.Receipt, id string) bool {
	for _, r := range receipts {
		if r.Type == types.ReceiptRefund && r.ID == id {
			return true
		}
	}
	return false
}

func findByID(receipts []types.Receipt, id string) *types.Receipt {
	// Newest record wins so a refund shadows the purchase it reverses.
	for i := len(receipts) - 1; i >= 0; i-- {
		if receipts[i].ID == id {
			r := receipts[i]
			return &r
		}
	}
	return nil
}

func listRecent(receipts []types.Receipt, n int) []types.Receipt {
	if n <= 0 || n > len(receipts) {
		n = len(receipts)
	}
	out := make([]types.Receipt, 0, n)
	for i := len(receipts) - 1; i >= len(receipts)-n; i-- {
		out = append(out, receipts[i])
	}
	return out
}
