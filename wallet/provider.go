package wallet

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/ethereum/go-ethereum/rpc"
)

// Provider is the EIP-1193 style request surface of an injected wallet.
// Implementations are expected to return ProviderError for wallet-level
// failures so the gateway can map provider error codes.
type Provider interface {
	Request(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error)
}

// EIP-1193 / EIP-3326 provider error codes.
const (
	CodeUserRejected      = 4001
	CodeUnauthorized      = 4100
	CodeUnsupportedMethod = 4200
	CodeDisconnected      = 4900
	CodeChainDisconnected = 4901
	CodeUnrecognizedChain = 4902
)

// ProviderError carries the numeric error code reported by the wallet.
type ProviderError struct {
	Code    int
	Message string
}

func (e *ProviderError) Error() string {
	return e.Message
}

var _ Provider = (*rpcProvider)(nil)

// rpcProvider adapts a JSON-RPC endpoint to the Provider interface. It is
// used when the wallet surface is reachable over RPC (a browser bridge or
// a local signer daemon) rather than injected in-process.
type rpcProvider struct {
	client *rpc.Client
}

// DialProvider connects to a wallet RPC endpoint.
func DialProvider(url string) (Provider, error) {
	c, err := rpc.Dial(url)
	if err != nil {
		return nil, err
	}
	return &rpcProvider{client: c}, nil
}

func (p *rpcProvider) Request(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error) {
	var raw json.RawMessage
	err := p.client.CallContext(ctx, &raw, method, params...)
	if err == nil {
		return raw, nil
	}
	if rpcErr, ok := err.(rpc.Error); ok {
		return nil, &ProviderError{Code: rpcErr.ErrorCode(), Message: rpcErr.Error()}
	}
	return nil, err
}

func providerCode(err error) int {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return 0
}
