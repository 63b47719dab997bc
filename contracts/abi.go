// Package contracts holds the payments contract ABI and the event decoding
// used to recover on-chain payment identifiers from transaction logs.
package contracts

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Event names emitted by the payments contract.
const (
	EventPaymentCreated   = "PaymentCreated"
	EventPaymentCompleted = "PaymentCompleted"
	EventRefundProcessed  = "RefundProcessed"
)

// State-changing functions of the payments contract.
const (
	FnCreatePayment      = "createPayment"
	FnCreateSubscription = "createSubscription"
	FnRefundPayment      = "refundPayment"
)

// PaymentsABI is the interface this module depends on. The contract's
// internal logic is out of scope; only this shape matters.
const PaymentsABI = `
[
  {
    "name": "createPayment",
    "type": "function",
    "stateMutability": "payable",
    "inputs": [
      { "name": "recipient", "type": "address" },
      { "name": "memo", "type": "string" }
    ],
    "outputs": []
  },
  {
    "name": "createSubscription",
    "type": "function",
    "stateMutability": "payable",
    "inputs": [
      { "name": "recipient", "type": "address" },
      { "name": "months", "type": "uint256" },
      { "name": "memo", "type": "string" }
    ],
    "outputs": []
  },
  {
    "name": "refundPayment",
    "type": "function",
    "stateMutability": "nonpayable",
    "inputs": [
      { "name": "paymentId", "type": "bytes32" }
    ],
    "outputs": []
  },
  {
    "name": "PaymentCreated",
    "type": "event",
    "inputs": [
      { "name": "id", "type": "bytes32", "indexed": true },
      { "name": "payer", "type": "address", "indexed": true },
      { "name": "recipient", "type": "address", "indexed": true },
      { "name": "amount", "type": "uint256", "indexed": false },
      { "name": "kind", "type": "uint8", "indexed": false },
      { "name": "memo", "type": "string", "indexed": false }
    ]
  },
  {
    "name": "PaymentCompleted",
    "type": "event",
    "inputs": [
      { "name": "id", "type": "bytes32", "indexed": true }
    ]
  },
  {
    "name": "RefundProcessed",
    "type": "event",
    "inputs": [
      { "name": "id", "type": "bytes32", "indexed": true },
      { "name": "to", "type": "address", "indexed": false },
      { "name": "amount", "type": "uint256", "indexed": false }
    ]
  }
]
`

var (
	parsedABI  abi.ABI
	parseOnce  sync.Once
	parseError error
)

// Payments returns the parsed payments contract ABI.
func Payments() (abi.ABI, error) {
	parseOnce.Do(func() {
		parsedABI, parseError = abi.JSON(strings.NewReader(PaymentsABI))
	})
	return parsedABI, parseError
}
