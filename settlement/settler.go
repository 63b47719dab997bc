package settlement

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/pawcademy/pay-go/ledger"
	"github.com/pawcademy/pay-go/types"
)

// Settler is the mode-specific strategy behind the orchestrator: it covers
// exactly the steps that differ between on-chain and simulated settlement.
// Both implementations converge on the same TransactionOutcome and receipt
// id shapes, so the orchestrator and the ledger never branch on mode.
type Settler interface {
	Mode() Mode

	// Submit broadcasts the purchase call and returns the transaction
	// hash. Simulated settlement returns an empty hash.
	Submit(ctx context.Context, intent types.PurchaseIntent) (string, error)

	// SubmitRefund broadcasts the refund call for a prior receipt.
	SubmitRefund(ctx context.Context, from string, target types.Receipt) (string, error)

	// Confirm blocks until the transaction is mined or the bounded
	// timeout elapses.
	Confirm(ctx context.Context, txHash string) (*types.TransactionOutcome, error)

	// Decode recovers the receipt id from a confirmed outcome, falling
	// back to a synthetic id when no matching event is found.
	Decode(outcome *types.TransactionOutcome, intent types.PurchaseIntent) (string, error)
}

// SyntheticReceiptID derives a locally synthesized receipt id from a
// transaction hash. The distinct prefix keeps refund lookups from treating
// it as an authoritative on-chain identifier.
func SyntheticReceiptID(txHash string) string {
	h := strings.TrimPrefix(txHash, "0x")
	if len(h) > 8 {
		h = h[:8]
	}
	return ledger.SyntheticIDPrefix + h
}

// SimulatedReceiptID generates the id for simulated receipts.
func SimulatedReceiptID(at time.Time) string {
	return ledger.SimulatedIDPrefix + strconv.FormatInt(at.Unix(), 36)
}
