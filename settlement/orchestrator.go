package settlement

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/pawcademy/pay-go/ledger"
	"github.com/pawcademy/pay-go/logger"
	"github.com/pawcademy/pay-go/metrics"
	"github.com/pawcademy/pay-go/types"
	"github.com/pawcademy/pay-go/wallet"
)

// FlowState is the orchestrator's position inside one purchase flow.
type FlowState string

const (
	StateIdle                 FlowState = "idle"
	StateConnecting           FlowState = "connecting"
	StateSwitchingNetwork     FlowState = "switching_network"
	StateSubmitting           FlowState = "submitting"
	StateAwaitingConfirmation FlowState = "awaiting_confirmation"
	StateDecoding             FlowState = "decoding"
	StateRecorded             FlowState = "recorded"
	StateFailed               FlowState = "failed"
	StateIndeterminate        FlowState = "indeterminate"
)

// FlowObserver receives state transitions for UI rendering. Observers run
// inline; they must not block.
type FlowObserver func(flowID string, state FlowState)

// Orchestrator drives a purchase end to end: ensure wallet connected,
// ensure correct chain, submit, await confirmation, decode, commit a
// receipt. The ledger append is the single commit point — nothing before
// it has durable effect, and the flow never retries past it.
type Orchestrator struct {
	mode     Mode
	settler  Settler
	gateway  *wallet.Gateway
	ledger   ledger.Ledger
	chain    types.ChainDescriptor
	log      logger.Logger
	metrics  metrics.Recorder
	observer FlowObserver

	active atomic.Bool

	now   func() time.Time
	nonce func() int64
}

func NewOrchestrator(
	mode Mode,
	settler Settler,
	gateway *wallet.Gateway,
	led ledger.Ledger,
	chain types.ChainDescriptor,
	log logger.Logger,
	rec metrics.Recorder,
) *Orchestrator {
	if log == nil {
		log = logger.NoopLogger{}
	}
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Orchestrator{
		mode:    mode,
		settler: settler,
		gateway: gateway,
		ledger:  led,
		chain:   chain,
		log:     log,
		metrics: rec,
		now:     time.Now,
		nonce:   func() int64 { return time.Now().UnixNano() },
	}
}

// SetObserver installs the flow observer. Call before the first flow.
func (o *Orchestrator) SetObserver(fn FlowObserver) {
	o.observer = fn
}

// Mode reports the settlement mode resolved at construction.
func (o *Orchestrator) Mode() Mode {
	return o.mode
}

// Purchase runs one purchase flow for a plan. Only one flow may be active
// at a time; concurrent invocations fail fast with ErrFlowBusy.
func (o *Orchestrator) Purchase(ctx context.Context, plan types.Plan) (*types.Receipt, error) {
	if err := o.begin(); err != nil {
		return nil, err
	}
	defer o.active.Store(false)

	flowID := uuid.NewString()
	start := o.now()
	receipt, err := o.runPurchase(ctx, flowID, plan)
	o.recordFlow("purchase", start, err)
	return receipt, err
}

// Refund refunds the most recent open micropayment. Rejected locally, with
// no transaction submitted, when nothing is refundable. The busy guard is
// taken before the ledger is consulted, so any invocation during an active
// flow fails with ErrFlowBusy regardless of ledger state.
func (o *Orchestrator) Refund(ctx context.Context) (*types.Receipt, error) {
	if err := o.begin(); err != nil {
		return nil, err
	}
	defer o.active.Store(false)

	target, err := o.ledger.FindRefundable()
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, types.NewPayError(types.ErrNoRefundableReceipt, "no refundable payment found")
	}
	return o.refund(ctx, *target)
}

// RefundReceipt refunds a specific receipt id. Double refunds are rejected
// before any wallet prompt.
func (o *Orchestrator) RefundReceipt(ctx context.Context, id string) (*types.Receipt, error) {
	if err := o.begin(); err != nil {
		return nil, err
	}
	defer o.active.Store(false)

	target, err := o.ledger.FindByID(id)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, &types.PayError{
			Code:    types.ErrNoRefundableReceipt,
			Message: fmt.Sprintf("no receipt with id %s", id),
		}
	}
	if target.Type == types.ReceiptRefund {
		return nil, &types.PayError{
			Code:    types.ErrAlreadyRefunded,
			Message: fmt.Sprintf("receipt %s is already refunded", id),
		}
	}
	if target.Type != types.ReceiptMicropayment {
		return nil, &types.PayError{
			Code:    types.ErrNoRefundableReceipt,
			Message: fmt.Sprintf("receipt %s is a %s, only micropayments are refundable", id, target.Type),
		}
	}
	return o.refund(ctx, *target)
}

func (o *Orchestrator) runPurchase(ctx context.Context, flowID string, plan types.Plan) (*types.Receipt, error) {
	address, err := o.connect(ctx, flowID)
	if err != nil {
		return nil, o.fail(flowID, err)
	}

	o.setState(flowID, StateSwitchingNetwork)
	if err := o.gateway.EnsureChain(ctx); err != nil {
		return nil, o.fail(flowID, err)
	}

	intent := types.PurchaseIntent{
		Plan:          plan,
		WalletAddress: address,
		Nonce:         o.nonce(),
	}

	o.setState(flowID, StateSubmitting)
	txHash, err := o.settler.Submit(ctx, intent)
	if err != nil {
		return nil, o.fail(flowID, err)
	}

	o.setState(flowID, StateAwaitingConfirmation)
	outcome, err := o.settler.Confirm(ctx, txHash)
	if err != nil {
		if types.IsIndeterminate(err) {
			return nil, o.indeterminate(flowID, txHash, err)
		}
		return nil, o.fail(flowID, err)
	}
	if !outcome.BlockConfirmed {
		return nil, o.fail(flowID, &types.PayError{
			Code:    types.ErrSubmissionFailed,
			Message: "transaction reverted on-chain",
			TxHash:  outcome.TxHash,
		})
	}

	o.setState(flowID, StateDecoding)
	id, err := o.settler.Decode(outcome, intent)
	if err != nil {
		return nil, o.fail(flowID, err)
	}

	receipt := o.buildReceipt(id, plan.ID, plan.Amount, plan.ReceiptType(), outcome.TxHash)
	if err := o.ledger.Append(receipt); err != nil {
		return nil, o.fail(flowID, err)
	}

	o.setState(flowID, StateRecorded)
	o.log.Info("payment recorded", map[string]any{
		"flowId":  flowID,
		"receipt": receipt.ID,
		"plan":    plan.ID,
		"txHash":  receipt.TxHash,
	})
	return &receipt, nil
}

// refund runs the refund flow for a resolved target. The caller holds the
// busy guard.
func (o *Orchestrator) refund(ctx context.Context, target types.Receipt) (*types.Receipt, error) {
	flowID := uuid.NewString()
	start := o.now()
	receipt, err := o.runRefund(ctx, flowID, target)
	o.recordFlow("refund", start, err)
	return receipt, err
}

func (o *Orchestrator) runRefund(ctx context.Context, flowID string, target types.Receipt) (*types.Receipt, error) {
	// Everything local is checked before any wallet prompt: a refund the
	// contract would reject anyway must not cost a signature or gas.
	refunded, err := o.ledger.HasRefund(target.ID)
	if err != nil {
		return nil, o.fail(flowID, err)
	}
	if refunded {
		return nil, o.fail(flowID, &types.PayError{
			Code:    types.ErrAlreadyRefunded,
			Message: fmt.Sprintf("receipt %s is already refunded", target.ID),
		})
	}
	if o.mode == ModeOnChain && ledger.IsSynthetic(target.ID) {
		return nil, o.fail(flowID, &types.PayError{
			Code:    types.ErrSubmissionFailed,
			Message: fmt.Sprintf("receipt %s has a locally synthesized id; reconcile it on the block explorer before refunding", target.ID),
			TxHash:  target.TxHash,
		})
	}

	address, err := o.connect(ctx, flowID)
	if err != nil {
		return nil, o.fail(flowID, err)
	}

	o.setState(flowID, StateSwitchingNetwork)
	if err := o.gateway.EnsureChain(ctx); err != nil {
		return nil, o.fail(flowID, err)
	}

	o.setState(flowID, StateSubmitting)
	txHash, err := o.settler.SubmitRefund(ctx, address, target)
	if err != nil {
		return nil, o.fail(flowID, err)
	}

	o.setState(flowID, StateAwaitingConfirmation)
	outcome, err := o.settler.Confirm(ctx, txHash)
	if err != nil {
		if types.IsIndeterminate(err) {
			return nil, o.indeterminate(flowID, txHash, err)
		}
		return nil, o.fail(flowID, err)
	}
	if !outcome.BlockConfirmed {
		return nil, o.fail(flowID, &types.PayError{
			Code:    types.ErrSubmissionFailed,
			Message: "refund transaction reverted on-chain",
			TxHash:  outcome.TxHash,
		})
	}

	// The refund receipt reuses the original id and amount; the purchase
	// record is superseded, never mutated.
	receipt := types.Receipt{
		ID:      target.ID,
		Plan:    target.Plan,
		Amount:  target.Amount,
		Type:    types.ReceiptRefund,
		Network: o.chain.DisplayName,
		TxHash:  outcome.TxHash,
		At:      o.now().UTC(),
	}
	if err := o.ledger.Append(receipt); err != nil {
		return nil, o.fail(flowID, err)
	}

	o.setState(flowID, StateRecorded)
	o.log.Info("refund recorded", map[string]any{
		"flowId":  flowID,
		"receipt": receipt.ID,
		"txHash":  receipt.TxHash,
	})
	return &receipt, nil
}

// connect resolves the wallet address, prompting only when no account is
// already authorized.
func (o *Orchestrator) connect(ctx context.Context, flowID string) (string, error) {
	address, err := o.gateway.GetConnectedAddress(ctx)
	if err != nil {
		return "", err
	}
	if address != "" {
		return address, nil
	}

	o.setState(flowID, StateConnecting)
	return o.gateway.RequestConnection(ctx)
}

func (o *Orchestrator) begin() error {
	if !o.active.CompareAndSwap(false, true) {
		return types.NewPayError(types.ErrFlowBusy, "a payment flow is already in progress")
	}
	return nil
}

func (o *Orchestrator) buildReceipt(id, planID, amount string, receiptType types.ReceiptType, txHash string) types.Receipt {
	return types.Receipt{
		ID:      id,
		Plan:    planID,
		Amount:  fmt.Sprintf("%s %s", amount, o.chain.CurrencySymbol),
		Type:    receiptType,
		Network: o.chain.DisplayName,
		TxHash:  txHash,
		At:      o.now().UTC(),
	}
}

func (o *Orchestrator) setState(flowID string, state FlowState) {
	o.log.Debug("flow state", map[string]any{"flowId": flowID, "state": string(state)})
	if o.observer != nil {
		o.observer(flowID, state)
	}
}

func (o *Orchestrator) fail(flowID string, err error) error {
	o.setState(flowID, StateFailed)
	o.log.Error("flow failed", map[string]any{
		"flowId": flowID,
		"code":   types.CodeOf(err),
		"error":  err.Error(),
	})
	return err
}

// indeterminate handles the confirmation-timeout case: the transaction may
// still be mined, so this must never be presented as a failure.
func (o *Orchestrator) indeterminate(flowID, txHash string, err error) error {
	o.setState(flowID, StateIndeterminate)
	o.log.Warn("confirmation timed out, outcome unknown", map[string]any{
		"flowId":   flowID,
		"txHash":   txHash,
		"explorer": o.chain.TxURL(txHash),
	})
	return err
}

func (o *Orchestrator) recordFlow(operation string, start time.Time, err error) {
	labels := map[string]string{"network": o.chain.Network.String()}
	switch {
	case err == nil:
		o.metrics.IncCounter(operation+"_recorded", labels)
	case types.IsIndeterminate(err):
		o.metrics.IncCounter(operation+"_indeterminate", labels)
	default:
		o.metrics.IncCounter(operation+"_failed", labels)
	}
	o.metrics.ObserveLatency(operation, o.now().Sub(start), labels)
}
