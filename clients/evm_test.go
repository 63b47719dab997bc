package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawcademy/pay-go/types"
)

const testTxHash = "0x9fc76417374aa880d4449a1f7f31ec597f00b1f6f3dd2d66f4c9c6c445836d8b"

func receiptJSON(status string) string {
	bloom := "0x" + strings.Repeat("00", 256)
	return fmt.Sprintf(`{
		"type": "0x2",
		"status": %q,
		"cumulativeGasUsed": "0x5208",
		"gasUsed": "0x5208",
		"logsBloom": %q,
		"transactionHash": %q,
		"transactionIndex": "0x0",
		"blockHash": "0x1f2e3d4c5b6a79881f2e3d4c5b6a79881f2e3d4c5b6a79881f2e3d4c5b6a7988",
		"blockNumber": "0x10",
		"effectiveGasPrice": "0x1",
		"contractAddress": null,
		"logs": [
			{
				"address": "0x036cbd53842c5426634e7929541ec2318f3dcf7e",
				"topics": ["0x1f2e3d4c5b6a79881f2e3d4c5b6a79881f2e3d4c5b6a79881f2e3d4c5b6a7988"],
				"data": "0x",
				"blockNumber": "0x10",
				"transactionHash": %q,
				"transactionIndex": "0x0",
				"blockHash": "0x1f2e3d4c5b6a79881f2e3d4c5b6a79881f2e3d4c5b6a79881f2e3d4c5b6a7988",
				"logIndex": "0x0",
				"removed": false
			}
		]
	}`, status, bloom, testTxHash, testTxHash)
}

// rpcServer answers eth_getTransactionReceipt with null for the first
// pendingPolls calls, then with the given receipt. An empty receipt keeps
// the transaction pending forever.
func rpcServer(t *testing.T, pendingPolls int32, receipt string) *httptest.Server {
	t.Helper()

	var polls int32
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		var result string
		switch req.Method {
		case "eth_getTransactionReceipt":
			if atomic.AddInt32(&polls, 1) <= pendingPolls || receipt == "" {
				result = "null"
			} else {
				result = receipt
			}
		case "eth_chainId":
			result = `"0x13882"`
		default:
			result = "null"
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%s,"result":%s}`, req.ID, result)
	}))
}

func newTestClient(t *testing.T, url string, timeout, poll time.Duration) *EVMClient {
	t.Helper()
	c, err := NewEVMClient(types.NetworkPolygonAmoy, url, timeout, poll, nil)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestWaitForReceiptConfirmed(t *testing.T) {
	srv := rpcServer(t, 2, receiptJSON("0x1"))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 5*time.Second, 10*time.Millisecond)

	outcome, err := c.WaitForReceipt(context.Background(), testTxHash)
	require.NoError(t, err)
	assert.Equal(t, testTxHash, outcome.TxHash)
	assert.True(t, outcome.BlockConfirmed)
	assert.Len(t, outcome.Logs, 1)
}

func TestWaitForReceiptReverted(t *testing.T) {
	srv := rpcServer(t, 0, receiptJSON("0x0"))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 5*time.Second, 10*time.Millisecond)

	outcome, err := c.WaitForReceipt(context.Background(), testTxHash)
	require.NoError(t, err)
	assert.False(t, outcome.BlockConfirmed)
}

func TestWaitForReceiptTimeoutIsIndeterminate(t *testing.T) {
	srv := rpcServer(t, 0, "")
	defer srv.Close()

	c := newTestClient(t, srv.URL, 150*time.Millisecond, 20*time.Millisecond)

	_, err := c.WaitForReceipt(context.Background(), testTxHash)
	require.Error(t, err)
	assert.Equal(t, types.ErrConfirmationTimeout, types.CodeOf(err))
	assert.True(t, types.IsIndeterminate(err))

	var payErr *types.PayError
	require.ErrorAs(t, err, &payErr)
	assert.Equal(t, testTxHash, payErr.TxHash)
}

func TestWaitForReceiptCallerCancellation(t *testing.T) {
	srv := rpcServer(t, 0, "")
	defer srv.Close()

	c := newTestClient(t, srv.URL, 5*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := c.WaitForReceipt(ctx, testTxHash)
	require.Error(t, err)
	// A deliberate cancellation is not the indeterminate-timeout case.
	assert.False(t, types.IsIndeterminate(err))
}

func TestChainID(t *testing.T) {
	srv := rpcServer(t, 0, "")
	defer srv.Close()

	c := newTestClient(t, srv.URL, time.Second, 10*time.Millisecond)

	id, err := c.ChainID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(80002), id.Int64())
	assert.Equal(t, types.NetworkPolygonAmoy, c.GetNetwork())
}
