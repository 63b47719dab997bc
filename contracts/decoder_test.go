package contracts

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	payer     = common.HexToAddress("0xE4d365a5a8fC0DCEE9E3C5985D7FcBab8B4A0fE1")
	recipient = common.HexToAddress("0x036CbD53842c5426634e7929541eC2318f3dCF7e")
	paymentID = common.HexToHash("0x1f2e3d4c5b6a79881f2e3d4c5b6a79881f2e3d4c5b6a79881f2e3d4c5b6a7988")
)

// paymentCreatedLog packs a realistic PaymentCreated log the way a node
// would return it.
func paymentCreatedLog(t *testing.T) ethtypes.Log {
	t.Helper()

	paymentsABI, err := Payments()
	require.NoError(t, err)
	event := paymentsABI.Events[EventPaymentCreated]

	data, err := event.Inputs.NonIndexed().Pack(big.NewInt(50000), uint8(0), "micro-lesson:1")
	require.NoError(t, err)

	return ethtypes.Log{
		Address: recipient,
		Topics: []common.Hash{
			event.ID,
			paymentID,
			common.BytesToHash(common.LeftPadBytes(payer.Bytes(), 32)),
			common.BytesToHash(common.LeftPadBytes(recipient.Bytes(), 32)),
		},
		Data: data,
	}
}

func refundProcessedLog(t *testing.T) ethtypes.Log {
	t.Helper()

	paymentsABI, err := Payments()
	require.NoError(t, err)
	event := paymentsABI.Events[EventRefundProcessed]

	data, err := event.Inputs.NonIndexed().Pack(payer, big.NewInt(50000))
	require.NoError(t, err)

	return ethtypes.Log{
		Address: recipient,
		Topics:  []common.Hash{event.ID, paymentID},
		Data:    data,
	}
}

func TestDecodeFirstMatch(t *testing.T) {
	paymentsABI, err := Payments()
	require.NoError(t, err)

	args, err := DecodeFirstMatch([]ethtypes.Log{paymentCreatedLog(t)}, paymentsABI, EventPaymentCreated)
	require.NoError(t, err)
	require.NotNil(t, args)

	assert.Equal(t, payer, args["payer"])
	assert.Equal(t, recipient, args["recipient"])
	assert.Equal(t, big.NewInt(50000), args["amount"])
	assert.Equal(t, "micro-lesson:1", args["memo"])

	id, ok := PaymentID(args)
	require.True(t, ok)
	assert.Equal(t, paymentID.Hex(), id)
}

func TestDecodeFirstMatchSkipsForeignLogs(t *testing.T) {
	paymentsABI, err := Payments()
	require.NoError(t, err)

	foreign := ethtypes.Log{
		Address: common.HexToAddress("0x000000000000000000000000000000000000dEaD"),
		Topics:  []common.Hash{common.HexToHash("0xdeadbeef")},
	}

	args, err := DecodeFirstMatch(
		[]ethtypes.Log{foreign, paymentCreatedLog(t)},
		paymentsABI,
		EventPaymentCreated,
	)
	require.NoError(t, err)
	require.NotNil(t, args)
	assert.Equal(t, "micro-lesson:1", args["memo"])
}

func TestDecodeFirstMatchNoMatchIsNotAnError(t *testing.T) {
	paymentsABI, err := Payments()
	require.NoError(t, err)

	// A refund log alone must not satisfy a PaymentCreated lookup.
	args, err := DecodeFirstMatch([]ethtypes.Log{refundProcessedLog(t)}, paymentsABI, EventPaymentCreated)
	require.NoError(t, err)
	assert.Nil(t, args)

	args, err = DecodeFirstMatch(nil, paymentsABI, EventPaymentCreated)
	require.NoError(t, err)
	assert.Nil(t, args)
}

func TestDecodeFirstMatchUnknownEvent(t *testing.T) {
	paymentsABI, err := Payments()
	require.NoError(t, err)

	_, err = DecodeFirstMatch(nil, paymentsABI, "Transfer")
	assert.Error(t, err)
}

func TestPaymentIDMissing(t *testing.T) {
	_, ok := PaymentID(map[string]interface{}{"memo": "x"})
	assert.False(t, ok)
}
