package settlement

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/pawcademy/pay-go/clients"
	"github.com/pawcademy/pay-go/contracts"
	"github.com/pawcademy/pay-go/logger"
	"github.com/pawcademy/pay-go/types"
	"github.com/pawcademy/pay-go/utils"
	"github.com/pawcademy/pay-go/wallet"
)

var _ Settler = (*OnChainSettler)(nil)

// OnChainSettler settles purchases through the payments contract.
type OnChainSettler struct {
	gateway  *wallet.Gateway
	reader   clients.ChainReader
	contract string
	treasury string
	chain    types.ChainDescriptor
	abi      abi.ABI
	log      logger.Logger
}

func NewOnChainSettler(
	gateway *wallet.Gateway,
	reader clients.ChainReader,
	contract string,
	treasury string,
	chain types.ChainDescriptor,
	log logger.Logger,
) (*OnChainSettler, error) {
	parsed, err := contracts.Payments()
	if err != nil {
		return nil, fmt.Errorf("failed to parse payments ABI: %w", err)
	}
	if log == nil {
		log = logger.NoopLogger{}
	}
	return &OnChainSettler{
		gateway:  gateway,
		reader:   reader,
		contract: contract,
		treasury: treasury,
		chain:    chain,
		abi:      parsed,
		log:      log,
	}, nil
}

// Mode implements Settler.
func (s *OnChainSettler) Mode() Mode {
	return ModeOnChain
}

// Submit implements Settler: builds the contract call for the plan kind
// and hands it to the wallet for signing and broadcast.
func (s *OnChainSettler) Submit(ctx context.Context, intent types.PurchaseIntent) (string, error) {
	value, err := utils.ParseAmountWithDecimals(intent.Plan.Amount, s.chain.CurrencyDecimals)
	if err != nil {
		return "", &types.PayError{
			Code:    types.ErrSubmissionFailed,
			Message: fmt.Sprintf("cannot convert plan amount: %v", err),
		}
	}

	recipient := common.HexToAddress(s.treasury)
	var functionName string
	var args []interface{}

	switch intent.Plan.Kind {
	case types.PlanSubscription:
		functionName = contracts.FnCreateSubscription
		args = []interface{}{
			recipient,
			big.NewInt(int64(intent.Plan.SubscriptionMonths())),
			intent.Memo(),
		}
	default:
		functionName = contracts.FnCreatePayment
		args = []interface{}{recipient, intent.Memo()}
	}

	return s.gateway.SubmitContractCall(ctx, intent.WalletAddress, s.contract, s.abi, functionName, args, value)
}

// SubmitRefund implements Settler.
func (s *OnChainSettler) SubmitRefund(ctx context.Context, from string, target types.Receipt) (string, error) {
	id, err := paymentIDBytes(target.ID)
	if err != nil {
		return "", &types.PayError{
			Code:    types.ErrSubmissionFailed,
			Message: fmt.Sprintf("receipt id %s is not an on-chain payment id: %v", target.ID, err),
		}
	}

	return s.gateway.SubmitContractCall(
		ctx, from, s.contract, s.abi,
		contracts.FnRefundPayment, []interface{}{id}, nil,
	)
}

// Confirm implements Settler.
func (s *OnChainSettler) Confirm(ctx context.Context, txHash string) (*types.TransactionOutcome, error) {
	return s.reader.WaitForReceipt(ctx, txHash)
}

// Decode implements Settler: the first PaymentCreated log wins. No match
// is not a failure — the payment is already confirmed on-chain — so the
// receipt falls back to a synthetic id, clearly prefixed.
func (s *OnChainSettler) Decode(outcome *types.TransactionOutcome, intent types.PurchaseIntent) (string, error) {
	args, err := contracts.DecodeFirstMatch(outcome.Logs, s.abi, contracts.EventPaymentCreated)
	if err != nil {
		return "", err
	}
	if args != nil {
		if id, ok := contracts.PaymentID(args); ok {
			return id, nil
		}
	}

	s.log.Warn("no decodable payment event, using synthetic receipt id", map[string]any{
		"txHash": outcome.TxHash,
		"memo":   intent.Memo(),
	})
	return SyntheticReceiptID(outcome.TxHash), nil
}

func paymentIDBytes(id string) ([32]byte, error) {
	var out [32]byte
	b, err := hexutil.Decode(id)
	if err != nil {
		return out, err
	}
	if len(b) != 32 {
		return out, fmt.Errorf("payment id must be 32 bytes, got %d", len(b))
	}
	copy(out[:], b)
	return out, nil
}
