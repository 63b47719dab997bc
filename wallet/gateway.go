package wallet

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/pawcademy/pay-go/logger"
	"github.com/pawcademy/pay-go/types"
)

// Gateway is a thin wrapper over the wallet provider. It never caches
// wallet state; every probe goes back to the provider.
type Gateway struct {
	provider Provider
	chain    types.ChainDescriptor
	log      logger.Logger
}

func NewGateway(provider Provider, chain types.ChainDescriptor, log logger.Logger) *Gateway {
	if log == nil {
		log = logger.NoopLogger{}
	}
	return &Gateway{
		provider: provider,
		chain:    chain,
		log:      log,
	}
}

// GetConnectedAddress probes already-authorized accounts without ever
// prompting the user. Returns "" when nothing is connected.
func (g *Gateway) GetConnectedAddress(ctx context.Context) (string, error) {
	if g.provider == nil {
		return "", types.NewPayError(types.ErrNoWallet, "no wallet provider available")
	}

	raw, err := g.provider.Request(ctx, "eth_accounts")
	if err != nil {
		return "", fmt.Errorf("eth_accounts failed: %w", err)
	}

	accounts, err := decodeAccounts(raw)
	if err != nil {
		return "", err
	}
	if len(accounts) == 0 {
		return "", nil
	}
	return accounts[0], nil
}

// RequestConnection prompts the user for account access.
func (g *Gateway) RequestConnection(ctx context.Context) (string, error) {
	if g.provider == nil {
		return "", types.NewPayError(types.ErrNoWallet, "no wallet provider available")
	}

	raw, err := g.provider.Request(ctx, "eth_requestAccounts")
	if err != nil {
		if providerCode(err) == CodeUserRejected {
			return "", types.NewPayError(types.ErrUserRejected, "wallet connection was declined")
		}
		return "", fmt.Errorf("eth_requestAccounts failed: %w", err)
	}

	accounts, err := decodeAccounts(raw)
	if err != nil {
		return "", err
	}
	if len(accounts) == 0 {
		return "", types.NewPayError(types.ErrNoWallet, "wallet returned no accounts")
	}

	g.log.Debug("wallet connected", map[string]any{"address": accounts[0]})
	return accounts[0], nil
}

// CurrentChainID asks the wallet which chain it is on.
func (g *Gateway) CurrentChainID(ctx context.Context) (uint64, error) {
	if g.provider == nil {
		return 0, types.NewPayError(types.ErrNoWallet, "no wallet provider available")
	}

	raw, err := g.provider.Request(ctx, "eth_chainId")
	if err != nil {
		return 0, fmt.Errorf("eth_chainId failed: %w", err)
	}

	var hex string
	if err := json.Unmarshal(raw, &hex); err != nil {
		return 0, fmt.Errorf("unexpected eth_chainId response: %w", err)
	}
	id, err := strconv.ParseUint(strings.TrimPrefix(hex, "0x"), 16, 64)
	if err != nil {
		return 0, fmt.Errorf("unexpected chain id %q: %w", hex, err)
	}
	return id, nil
}

// Session re-derives the wallet session: connected address plus chain id.
func (g *Gateway) Session(ctx context.Context) (*types.ChainSession, error) {
	addr, err := g.GetConnectedAddress(ctx)
	if err != nil {
		return nil, err
	}
	chainID, err := g.CurrentChainID(ctx)
	if err != nil {
		return nil, err
	}
	return &types.ChainSession{Address: addr, ChainID: chainID}, nil
}

// EnsureChain moves the wallet to the target chain. It is idempotent: when
// the wallet is already on the target chain no prompt is issued. When the
// wallet does not know the chain (code 4902) the full descriptor is added
// and the switch retried once. This add-then-retry is the only internal
// retry in the module.
func (g *Gateway) EnsureChain(ctx context.Context) error {
	current, err := g.CurrentChainID(ctx)
	if err != nil {
		return err
	}
	if current == g.chain.ChainID {
		return nil
	}

	err = g.switchChain(ctx)
	if err == nil {
		return nil
	}
	if providerCode(err) == CodeUserRejected {
		return types.NewPayError(types.ErrUserRejected, "network switch was declined")
	}
	if providerCode(err) != CodeUnrecognizedChain {
		return &types.PayError{
			Code:    types.ErrChainSwitchFailed,
			Message: fmt.Sprintf("could not switch to %s: %v", g.chain.DisplayName, err),
		}
	}

	g.log.Info("chain unknown to wallet, adding", map[string]any{"chain": g.chain.DisplayName})
	if err := g.addChain(ctx); err != nil {
		if providerCode(err) == CodeUserRejected {
			return types.NewPayError(types.ErrUserRejected, "adding the network was declined")
		}
		return &types.PayError{
			Code:    types.ErrChainSwitchFailed,
			Message: fmt.Sprintf("could not add %s: %v", g.chain.DisplayName, err),
		}
	}

	if err := g.switchChain(ctx); err != nil {
		if providerCode(err) == CodeUserRejected {
			return types.NewPayError(types.ErrUserRejected, "network switch was declined")
		}
		return &types.PayError{
			Code:    types.ErrChainSwitchFailed,
			Message: fmt.Sprintf("could not switch to %s after adding it: %v", g.chain.DisplayName, err),
		}
	}
	return nil
}

func (g *Gateway) switchChain(ctx context.Context) error {
	_, err := g.provider.Request(ctx, "wallet_switchEthereumChain", map[string]string{
		"chainId": g.chain.ChainIDHex(),
	})
	return err
}

func (g *Gateway) addChain(ctx context.Context) error {
	_, err := g.provider.Request(ctx, "wallet_addEthereumChain", map[string]interface{}{
		"chainId":   g.chain.ChainIDHex(),
		"chainName": g.chain.DisplayName,
		"nativeCurrency": map[string]interface{}{
			"name":     g.chain.CurrencySymbol,
			"symbol":   g.chain.CurrencySymbol,
			"decimals": g.chain.CurrencyDecimals,
		},
		"rpcUrls":           []string{g.chain.RPCURL},
		"blockExplorerUrls": []string{g.chain.ExplorerURL},
	})
	return err
}

// SubmitContractCall packs the call, asks the wallet to sign and broadcast
// it, and returns the transaction hash. The hash means the node accepted
// the transaction for broadcast, not that it is mined.
func (g *Gateway) SubmitContractCall(
	ctx context.Context,
	from string,
	contract string,
	contractABI abi.ABI,
	functionName string,
	args []interface{},
	value *big.Int,
) (string, error) {
	if g.provider == nil {
		return "", types.NewPayError(types.ErrNoWallet, "no wallet provider available")
	}

	data, err := contractABI.Pack(functionName, args...)
	if err != nil {
		return "", fmt.Errorf("failed to pack %s call: %w", functionName, err)
	}

	tx := map[string]string{
		"from": from,
		"to":   contract,
		"data": hexutil.Encode(data),
	}
	if value != nil && value.Sign() > 0 {
		tx["value"] = hexutil.EncodeBig(value)
	}

	raw, err := g.provider.Request(ctx, "eth_sendTransaction", tx)
	if err != nil {
		if providerCode(err) == CodeUserRejected {
			return "", types.NewPayError(types.ErrUserRejected, "transaction signature was declined")
		}
		return "", &types.PayError{
			Code:    types.ErrSubmissionFailed,
			Message: fmt.Sprintf("node rejected %s transaction: %v", functionName, err),
		}
	}

	var txHash string
	if err := json.Unmarshal(raw, &txHash); err != nil {
		return "", fmt.Errorf("unexpected eth_sendTransaction response: %w", err)
	}

	g.log.Debug("transaction submitted", map[string]any{
		"function": functionName,
		"txHash":   txHash,
	})
	return txHash, nil
}

func decodeAccounts(raw json.RawMessage) ([]string, error) {
	var accounts []string
	if err := json.Unmarshal(raw, &accounts); err != nil {
		return nil, fmt.Errorf("unexpected accounts response: %w", err)
	}
	return accounts, nil
}
