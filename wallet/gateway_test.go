package wallet

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"testing"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawcademy/pay-go/contracts"
	"github.com/pawcademy/pay-go/types"
)

// fakeProvider scripts wallet responses and records every method call so
// tests can assert which prompts were (not) issued.
type fakeProvider struct {
	accounts      []string
	chainID       uint64
	txHash        string
	rejectConnect bool
	rejectSign    bool
	rejectSwitch  bool
	unknownChain  bool
	chainAdded    bool
	calls         []string
}

func (f *fakeProvider) Request(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error) {
	f.calls = append(f.calls, method)

	switch method {
	case "eth_accounts":
		return json.Marshal(f.accounts)

	case "eth_requestAccounts":
		if f.rejectConnect {
			return nil, &ProviderError{Code: CodeUserRejected, Message: "user rejected"}
		}
		return json.Marshal(f.accounts)

	case "eth_chainId":
		return json.Marshal(fmt.Sprintf("0x%x", f.chainID))

	case "wallet_switchEthereumChain":
		if f.rejectSwitch {
			return nil, &ProviderError{Code: CodeUserRejected, Message: "user rejected"}
		}
		if f.unknownChain && !f.chainAdded {
			return nil, &ProviderError{Code: CodeUnrecognizedChain, Message: "unrecognized chain"}
		}
		f.chainID = types.PolygonAmoy.ChainID
		return json.Marshal(nil)

	case "wallet_addEthereumChain":
		f.chainAdded = true
		return json.Marshal(nil)

	case "eth_sendTransaction":
		if f.rejectSign {
			return nil, &ProviderError{Code: CodeUserRejected, Message: "user rejected"}
		}
		return json.Marshal(f.txHash)
	}
	return nil, fmt.Errorf("unexpected method %s", method)
}

func (f *fakeProvider) count(method string) int {
	n := 0
	for _, c := range f.calls {
		if c == method {
			n++
		}
	}
	return n
}

const testAddress = "0xE4d365a5a8fC0DCEE9E3C5985D7FcBab8B4A0fE1"

func TestGetConnectedAddressNeverPrompts(t *testing.T) {
	provider := &fakeProvider{accounts: []string{testAddress}}
	gateway := NewGateway(provider, types.PolygonAmoy, nil)

	addr, err := gateway.GetConnectedAddress(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testAddress, addr)
	assert.Zero(t, provider.count("eth_requestAccounts"))
}

func TestGetConnectedAddressEmptyWhenNotAuthorized(t *testing.T) {
	provider := &fakeProvider{}
	gateway := NewGateway(provider, types.PolygonAmoy, nil)

	addr, err := gateway.GetConnectedAddress(context.Background())
	require.NoError(t, err)
	assert.Empty(t, addr)
}

func TestNoProviderIsNoWalletError(t *testing.T) {
	gateway := NewGateway(nil, types.PolygonAmoy, nil)

	_, err := gateway.GetConnectedAddress(context.Background())
	assert.Equal(t, types.ErrNoWallet, types.CodeOf(err))

	_, err = gateway.RequestConnection(context.Background())
	assert.Equal(t, types.ErrNoWallet, types.CodeOf(err))
}

func TestRequestConnectionRejected(t *testing.T) {
	provider := &fakeProvider{rejectConnect: true}
	gateway := NewGateway(provider, types.PolygonAmoy, nil)

	_, err := gateway.RequestConnection(context.Background())
	assert.Equal(t, types.ErrUserRejected, types.CodeOf(err))
}

func TestEnsureChainIdempotent(t *testing.T) {
	provider := &fakeProvider{chainID: types.PolygonAmoy.ChainID}
	gateway := NewGateway(provider, types.PolygonAmoy, nil)

	require.NoError(t, gateway.EnsureChain(context.Background()))
	assert.Zero(t, provider.count("wallet_switchEthereumChain"))
	assert.Zero(t, provider.count("wallet_addEthereumChain"))
}

func TestEnsureChainSwitches(t *testing.T) {
	provider := &fakeProvider{chainID: 1}
	gateway := NewGateway(provider, types.PolygonAmoy, nil)

	require.NoError(t, gateway.EnsureChain(context.Background()))
	assert.Equal(t, 1, provider.count("wallet_switchEthereumChain"))
	assert.Equal(t, types.PolygonAmoy.ChainID, provider.chainID)
}

func TestEnsureChainAddsUnknownChainThenRetries(t *testing.T) {
	provider := &fakeProvider{chainID: 1, unknownChain: true}
	gateway := NewGateway(provider, types.PolygonAmoy, nil)

	require.NoError(t, gateway.EnsureChain(context.Background()))
	assert.Equal(t, 1, provider.count("wallet_addEthereumChain"))
	assert.Equal(t, 2, provider.count("wallet_switchEthereumChain"))
}

func TestEnsureChainSwitchDeclined(t *testing.T) {
	provider := &fakeProvider{chainID: 1, rejectSwitch: true}
	gateway := NewGateway(provider, types.PolygonAmoy, nil)

	err := gateway.EnsureChain(context.Background())
	assert.Equal(t, types.ErrUserRejected, types.CodeOf(err))
}

func TestSubmitContractCall(t *testing.T) {
	provider := &fakeProvider{
		accounts: []string{testAddress},
		txHash:   "0x9fc76417374aa880d4449a1f7f31ec597f00b1f6f3dd2d66f4c9c6c445836d8b",
	}
	gateway := NewGateway(provider, types.PolygonAmoy, nil)

	paymentsABI, err := contracts.Payments()
	require.NoError(t, err)

	txHash, err := gateway.SubmitContractCall(
		context.Background(),
		testAddress,
		"0x036CbD53842c5426634e7929541eC2318f3dCF7e",
		paymentsABI,
		contracts.FnCreatePayment,
		[]interface{}{ethcommon.HexToAddress(testAddress), "micro-lesson:1"},
		big.NewInt(1),
	)
	require.NoError(t, err)
	assert.Equal(t, provider.txHash, txHash)
}

func TestSubmitContractCallRejected(t *testing.T) {
	provider := &fakeProvider{rejectSign: true}
	gateway := NewGateway(provider, types.PolygonAmoy, nil)

	paymentsABI, err := contracts.Payments()
	require.NoError(t, err)

	_, err = gateway.SubmitContractCall(
		context.Background(),
		testAddress,
		"0x036CbD53842c5426634e7929541eC2318f3dCF7e",
		paymentsABI,
		contracts.FnCreatePayment,
		[]interface{}{ethcommon.HexToAddress(testAddress), "micro-lesson:1"},
		big.NewInt(1),
	)
	assert.Equal(t, types.ErrUserRejected, types.CodeOf(err))
}

// wrappingProvider annotates every error with %w, as a middleware-style
// provider would.
type wrappingProvider struct {
	inner Provider
}

func (w *wrappingProvider) Request(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error) {
	raw, err := w.inner.Request(ctx, method, params...)
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w", method, err)
	}
	return raw, nil
}

func TestProviderCodeSurvivesWrapping(t *testing.T) {
	provider := &fakeProvider{rejectConnect: true}
	gateway := NewGateway(&wrappingProvider{inner: provider}, types.PolygonAmoy, nil)

	_, err := gateway.RequestConnection(context.Background())
	assert.Equal(t, types.ErrUserRejected, types.CodeOf(err))
}

func TestEnsureChainAddRetryThroughWrappedErrors(t *testing.T) {
	provider := &fakeProvider{chainID: 1, unknownChain: true}
	gateway := NewGateway(&wrappingProvider{inner: provider}, types.PolygonAmoy, nil)

	require.NoError(t, gateway.EnsureChain(context.Background()))
	assert.Equal(t, 1, provider.count("wallet_addEthereumChain"))
	assert.Equal(t, 2, provider.count("wallet_switchEthereumChain"))
}

func TestSessionReDerivesFromProvider(t *testing.T) {
	provider := &fakeProvider{accounts: []string{testAddress}, chainID: 80002}
	gateway := NewGateway(provider, types.PolygonAmoy, nil)

	session, err := gateway.Session(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testAddress, session.Address)
	assert.Equal(t, uint64(80002), session.ChainID)
}
