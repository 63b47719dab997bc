package types

import (
	"fmt"
	"time"

	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
)

// PlanKind distinguishes a one-shot lesson payment from a recurring
// subscription purchase.
type PlanKind string

const (
	PlanMicropayment PlanKind = "micropayment"
	PlanSubscription PlanKind = "subscription"
)

// ReceiptType classifies ledger records. Refund receipts reuse the id of
// the purchase they reverse.
type ReceiptType string

const (
	ReceiptMicropayment ReceiptType = "micropayment"
	ReceiptSubscription ReceiptType = "subscription"
	ReceiptRefund       ReceiptType = "refund"
)

// Plan is an immutable catalog entry. Amount is a decimal string in the
// native currency of the target chain; the recipient is always the
// configured treasury.
type Plan struct {
	ID     string   `json:"id" mapstructure:"id" validate:"required"`
	Kind   PlanKind `json:"kind" mapstructure:"kind" validate:"required,oneof=micropayment subscription"`
	Amount string   `json:"amount" mapstructure:"amount" validate:"required"`

	// Months applies to subscription plans only; zero means the default
	// of one month.
	Months int `json:"months,omitempty" mapstructure:"months" validate:"gte=0,lte=36"`
}

// AmountDecimal parses the plan amount.
func (p Plan) AmountDecimal() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(p.Amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("plan %s has invalid amount %q: %w", p.ID, p.Amount, err)
	}
	return d, nil
}

// SubscriptionMonths returns the effective duration for subscription plans.
func (p Plan) SubscriptionMonths() int {
	if p.Months <= 0 {
		return 1
	}
	return p.Months
}

// ReceiptType maps the plan kind to the receipt type it produces.
func (p Plan) ReceiptType() ReceiptType {
	if p.Kind == PlanSubscription {
		return ReceiptSubscription
	}
	return ReceiptMicropayment
}

// PurchaseIntent is the ephemeral value object created per user action.
// Nonce makes the on-chain memo unique across repeated purchases of the
// same plan by the same wallet, so retries never alias each other's events.
type PurchaseIntent struct {
	Plan          Plan
	WalletAddress string
	Nonce         int64
}

// Memo is the string written into the contract call.
func (i PurchaseIntent) Memo() string {
	return fmt.Sprintf("%s:%d", i.Plan.ID, i.Nonce)
}

// TransactionOutcome is the transient result of a submitted transaction,
// owned by the orchestrator for the duration of one flow and discarded
// once a Receipt is derived.
type TransactionOutcome struct {
	TxHash         string
	BlockConfirmed bool
	Logs           []ethtypes.Log
}

// Receipt is the durable record of a settled payment. ID is either the
// decoded on-chain payment identifier (hex) or a locally synthesized one
// with a distinct prefix when decoding fell back.
type Receipt struct {
	ID      string      `json:"id"`
	Plan    string      `json:"plan"`
	Amount  string      `json:"amount"`
	Type    ReceiptType `json:"type"`
	Network string      `json:"network"`
	TxHash  string      `json:"txHash,omitempty"`
	At      time.Time   `json:"at"`
}

// ChainSession is the currently connected wallet address and chain id,
// re-derived from the wallet on demand and never cached.
type ChainSession struct {
	Address string `json:"address"`
	ChainID uint64 `json:"chainId"`
}

// Config is the static configuration resolved once at startup. An empty
// ContractAddress selects simulated settlement.
type Config struct {
	Network         Network       `json:"network" mapstructure:"network" validate:"required"`
	RPCUrl          string        `json:"rpcUrl" mapstructure:"rpcUrl"`
	ContractAddress string        `json:"contractAddress" mapstructure:"contractAddress"`
	Treasury        string        `json:"treasury" mapstructure:"treasury" validate:"required"`
	LedgerPath      string        `json:"ledgerPath" mapstructure:"ledgerPath"`
	ConfirmTimeout  time.Duration `json:"confirmTimeout" mapstructure:"confirmTimeout"`
	PollInterval    time.Duration `json:"pollInterval" mapstructure:"pollInterval"`
	Plans           []Plan        `json:"plans" mapstructure:"plans" validate:"required,min=1,dive"`
	LogLevel        string        `json:"logLevel" mapstructure:"logLevel"`
	EnableMetrics   bool          `json:"enableMetrics" mapstructure:"enableMetrics"`
}

// PlanByID looks a plan up in the configured catalog.
func (c *Config) PlanByID(id string) (Plan, bool) {
	for _, p := range c.Plans {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}
