package clients

import (
	"context"
	"math/big"

	"github.com/pawcademy/pay-go/types"
)

// ChainReader is the read-side RPC surface the orchestrator needs: waiting
// for and fetching transaction receipts.
type ChainReader interface {
	WaitForReceipt(ctx context.Context, txHash string) (*types.TransactionOutcome, error)
	ChainID(ctx context.Context) (*big.Int, error)
	GetNetwork() types.Network
	Close()
}
