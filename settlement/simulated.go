package settlement

import (
	"context"
	"time"

	"github.com/pawcademy/pay-go/logger"
	"github.com/pawcademy/pay-go/types"
)

const (
	defaultRoutingDelay = 900 * time.Millisecond
	defaultRiskDelay    = 600 * time.Millisecond
)

var _ Settler = (*SimulatedSettler)(nil)

// SimulatedSettler stands in when no contract is configured. Submission
// and confirmation become fixed delays representing routing and risk
// checks; receipts get locally generated ids. The receipt shape is
// identical to on-chain settlement.
type SimulatedSettler struct {
	routingDelay time.Duration
	riskDelay    time.Duration
	now          func() time.Time
	log          logger.Logger
}

func NewSimulatedSettler(log logger.Logger) *SimulatedSettler {
	if log == nil {
		log = logger.NoopLogger{}
	}
	return &SimulatedSettler{
		routingDelay: defaultRoutingDelay,
		riskDelay:    defaultRiskDelay,
		now:          time.Now,
		log:          log,
	}
}

// Mode implements Settler.
func (s *SimulatedSettler) Mode() Mode {
	return ModeSimulated
}

// Submit implements Settler: the routing delay.
func (s *SimulatedSettler) Submit(ctx context.Context, intent types.PurchaseIntent) (string, error) {
	s.log.Debug("simulating payment routing", map[string]any{"memo": intent.Memo()})
	if err := wait(ctx, s.routingDelay); err != nil {
		return "", err
	}
	return "", nil
}

// SubmitRefund implements Settler.
func (s *SimulatedSettler) SubmitRefund(ctx context.Context, from string, target types.Receipt) (string, error) {
	s.log.Debug("simulating refund routing", map[string]any{"id": target.ID})
	if err := wait(ctx, s.routingDelay); err != nil {
		return "", err
	}
	return "", nil
}

// Confirm implements Settler: the risk-check delay, always confirmed.
func (s *SimulatedSettler) Confirm(ctx context.Context, txHash string) (*types.TransactionOutcome, error) {
	if err := wait(ctx, s.riskDelay); err != nil {
		return nil, err
	}
	return &types.TransactionOutcome{TxHash: txHash, BlockConfirmed: true}, nil
}

// Decode implements Settler.
func (s *SimulatedSettler) Decode(outcome *types.TransactionOutcome, intent types.PurchaseIntent) (string, error) {
	return SimulatedReceiptID(s.now()), nil
}

func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
