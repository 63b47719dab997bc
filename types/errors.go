package types

import "errors"

// PayError is the error type surfaced by every operation in this module.
// Code is one of the constants below; TxHash is set when an error refers
// to a transaction that already reached the network.
type PayError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	TxHash  string      `json:"txHash,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *PayError) Error() string {
	return e.Message
}

// Error codes
const (
	// ErrNoWallet: no wallet provider is available at all.
	ErrNoWallet = "no_wallet"

	// ErrUserRejected: the user declined a wallet prompt (connection,
	// chain switch, or signature).
	ErrUserRejected = "user_rejected"

	// ErrChainSwitchFailed: switch and the add-then-switch retry both
	// failed.
	ErrChainSwitchFailed = "chain_switch_failed"

	// ErrSubmissionFailed: the node rejected the transaction, or it
	// reverted on-chain.
	ErrSubmissionFailed = "submission_failed"

	// ErrConfirmationTimeout: confirmation polling timed out. This is
	// indeterminate, not a failure — the funds may still move. TxHash is
	// always set so the caller can point the user at the explorer.
	ErrConfirmationTimeout = "confirmation_timeout"

	// ErrAlreadyRefunded: the targeted receipt id already has a refund
	// record; rejected before any transaction is built.
	ErrAlreadyRefunded = "already_refunded"

	// ErrNoRefundableReceipt: no open micropayment receipt exists.
	ErrNoRefundableReceipt = "no_refundable_receipt"

	// ErrFlowBusy: a purchase flow is already active.
	ErrFlowBusy = "flow_busy"

	// ErrUnknownPlan: the requested plan id is not in the catalog.
	ErrUnknownPlan = "unknown_plan"

	// ErrConfigError: invalid static configuration.
	ErrConfigError = "config_error"
)

// NewPayError builds a PayError with the given code and message.
func NewPayError(code, message string) *PayError {
	return &PayError{Code: code, Message: message}
}

// CodeOf extracts the PayError code from err, or "" when err is not a
// PayError.
func CodeOf(err error) string {
	var pe *PayError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// IsIndeterminate reports whether err means the transaction outcome is
// unknown rather than failed. Callers must not present these as payment
// failures.
func IsIndeterminate(err error) bool {
	return CodeOf(err) == ErrConfirmationTimeout
}
