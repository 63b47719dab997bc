package clients

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/pawcademy/pay-go/logger"
	"github.com/pawcademy/pay-go/types"
)

const (
	defaultConfirmTimeout = 90 * time.Second
	defaultPollInterval   = 2 * time.Second
)

var _ ChainReader = (*EVMClient)(nil)

// EVMClient is the read-side client for an EVM network.
type EVMClient struct {
	network      types.Network
	rpcURL       string
	client       *ethclient.Client
	timeout      time.Duration
	pollInterval time.Duration
	log          logger.Logger
}

func NewEVMClient(network types.Network, rpcURL string, timeout, pollInterval time.Duration, log logger.Logger) (*EVMClient, error) {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to EVM RPC: %w", err)
	}
	if timeout <= 0 {
		timeout = defaultConfirmTimeout
	}
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	if log == nil {
		log = logger.NoopLogger{}
	}

	return &EVMClient{
		network:      network,
		rpcURL:       rpcURL,
		client:       client,
		timeout:      timeout,
		pollInterval: pollInterval,
		log:          log,
	}, nil
}

// GetNetwork implements ChainReader.
func (e *EVMClient) GetNetwork() types.Network {
	return e.network
}

// ChainID implements ChainReader.
func (e *EVMClient) ChainID(ctx context.Context) (*big.Int, error) {
	return e.client.ChainID(ctx)
}

// Close implements ChainReader.
func (e *EVMClient) Close() {
	e.client.Close()
}

// WaitForReceipt polls until the transaction is mined or the bounded
// timeout elapses. A timeout yields ErrConfirmationTimeout with the tx
// hash attached: the outcome is indeterminate, the funds may still move,
// and callers must not present it as a failure.
func (e *EVMClient) WaitForReceipt(ctx context.Context, txHash string) (*types.TransactionOutcome, error) {
	waitCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	hash := common.HexToHash(txHash)
	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := e.client.TransactionReceipt(waitCtx, hash)
		if err == nil {
			return outcomeFromReceipt(txHash, receipt), nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			// Transient RPC failures are retried until the deadline.
			e.log.Debug("receipt poll failed", map[string]any{
				"txHash": txHash,
				"error":  err.Error(),
			})
		}

		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, &types.PayError{
				Code:    types.ErrConfirmationTimeout,
				Message: fmt.Sprintf("transaction %s not confirmed within %s", txHash, e.timeout),
				TxHash:  txHash,
			}
		case <-ticker.C:
		}
	}
}

func outcomeFromReceipt(txHash string, receipt *ethtypes.Receipt) *types.TransactionOutcome {
	logs := make([]ethtypes.Log, 0, len(receipt.Logs))
	for _, l := range receipt.Logs {
		logs = append(logs, *l)
	}
	return &types.TransactionOutcome{
		TxHash:         txHash,
		BlockConfirmed: receipt.Status == ethtypes.ReceiptStatusSuccessful,
		Logs:           logs,
	}
}
