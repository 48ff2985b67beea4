// Package ethclient provides a JSON-RPC 2.0 client for Ethereum-compatible
// nodes. It covers the handful of methods the engine needs: balances, gas
// estimation, fee data, nonces, raw broadcast, receipts, and eth_call.
package ethclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	klog "github.com/emduc/PrivatePay/internal/log"
	"github.com/emduc/PrivatePay/pkg/eth"
)

// Client is a JSON-RPC 2.0 HTTP client for an Ethereum node. All node
// traffic flows through a circuit breaker so a failing endpoint degrades
// fast instead of stalling every submission.
type Client struct {
	endpoint string
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker
	logger   zerolog.Logger
}

// New creates a new client targeting the given endpoint URL.
func New(endpoint string) *Client {
	return NewWithTimeout(endpoint, 15*time.Second)
}

// NewWithTimeout creates a new client with a custom HTTP timeout.
func NewWithTimeout(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		http: &http.Client{
			Timeout: timeout,
		},
		breaker: newBreaker(),
		logger:  klog.WithComponent("chain"),
	}
}

// newBreaker trips after a sustained run of failing node requests.
func newBreaker() *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "ethclient",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests > 10 && ratio >= 0.6
		},
	})
}

// request is a JSON-RPC 2.0 request.
type request struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int           `json:"id"`
}

// response is a JSON-RPC 2.0 response.
type response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
	ID      int             `json:"id"`
}

// rpcError is a JSON-RPC 2.0 error.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// RPCError is returned when the node responds with an error.
type RPCError struct {
	Code    int
	Message string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("node error %d: %s", e.Code, e.Message)
}

// Call invokes a JSON-RPC method and unmarshals the result into the
// provided pointer. If result is nil, the response result is discarded.
func (c *Client) Call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	if params == nil {
		params = []interface{}{}
	}
	req := request{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      1,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	data, err := c.breaker.Execute(func() (interface{}, error) {
		return c.post(ctx, body)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}

	var rpcResp response
	if err := json.Unmarshal(data.([]byte), &rpcResp); err != nil {
		return fmt.Errorf("%s: decode response: %w", method, err)
	}

	if rpcResp.Error != nil {
		return &RPCError{
			Code:    rpcResp.Error.Code,
			Message: rpcResp.Error.Message,
		}
	}

	if result != nil && rpcResp.Result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("%s: decode result: %w", method, err)
		}
	}

	return nil
}

// post performs one HTTP round trip.
func (c *Client) post(ctx context.Context, body []byte) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return data, nil
}

// ── Typed node calls ────────────────────────────────────────────────────

// ChainID returns the node's chain id.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	var hex string
	if err := c.Call(ctx, "eth_chainId", nil, &hex); err != nil {
		return nil, err
	}
	return eth.DecodeBig(hex)
}

// BalanceAt returns the latest balance of an address in wei.
func (c *Client) BalanceAt(ctx context.Context, addr eth.Address) (*big.Int, error) {
	var hex string
	if err := c.Call(ctx, "eth_getBalance", []interface{}{addr.String(), "latest"}, &hex); err != nil {
		return nil, err
	}
	return eth.DecodeBig(hex)
}

// PendingNonceAt returns the next nonce for an address, counting pending
// transactions.
func (c *Client) PendingNonceAt(ctx context.Context, addr eth.Address) (uint64, error) {
	var hex string
	if err := c.Call(ctx, "eth_getTransactionCount", []interface{}{addr.String(), "pending"}, &hex); err != nil {
		return 0, err
	}
	return eth.DecodeUint64(hex)
}

// EstimateGas asks the node for a gas estimate of the given call.
func (c *Client) EstimateGas(ctx context.Context, msg CallMsg) (uint64, error) {
	var hex string
	if err := c.Call(ctx, "eth_estimateGas", []interface{}{msg}, &hex); err != nil {
		return 0, err
	}
	return eth.DecodeUint64(hex)
}

// CallContract executes a read-only contract call at the latest block.
func (c *Client) CallContract(ctx context.Context, msg CallMsg) ([]byte, error) {
	var hex string
	if err := c.Call(ctx, "eth_call", []interface{}{msg, "latest"}, &hex); err != nil {
		return nil, err
	}
	return eth.DecodeBytes(hex)
}

// SendRawTransaction broadcasts signed raw transaction bytes and returns
// the transaction hash.
func (c *Client) SendRawTransaction(ctx context.Context, raw []byte) (eth.Hash, error) {
	var hex string
	if err := c.Call(ctx, "eth_sendRawTransaction", []interface{}{eth.EncodeBytes(raw)}, &hex); err != nil {
		return eth.Hash{}, err
	}
	return eth.ParseHash(hex)
}

// TransactionReceipt returns the receipt for a transaction hash, or
// (nil, nil) while the transaction is still pending.
func (c *Client) TransactionReceipt(ctx context.Context, hash eth.Hash) (*Receipt, error) {
	var raw json.RawMessage
	if err := c.Call(ctx, "eth_getTransactionReceipt", []interface{}{hash.String()}, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var receipt Receipt
	if err := json.Unmarshal(raw, &receipt); err != nil {
		return nil, fmt.Errorf("decode receipt: %w", err)
	}
	return &receipt, nil
}

// FeeData fetches the current fee market data. MaxPriorityFeePerGas and
// MaxFeePerGas are nil when the node predates EIP-1559.
func (c *Client) FeeData(ctx context.Context) (*FeeData, error) {
	var gasPriceHex string
	if err := c.Call(ctx, "eth_gasPrice", nil, &gasPriceHex); err != nil {
		return nil, err
	}
	gasPrice, err := eth.DecodeBig(gasPriceHex)
	if err != nil {
		return nil, err
	}

	fd := &FeeData{GasPrice: gasPrice}

	// Not every node supports eth_maxPriorityFeePerGas; treat failure as
	// a legacy fee market.
	var tipHex string
	if err := c.Call(ctx, "eth_maxPriorityFeePerGas", nil, &tipHex); err != nil {
		c.logger.Debug().Err(err).Msg("no priority fee data, using legacy gas price")
		return fd, nil
	}
	tip, err := eth.DecodeBig(tipHex)
	if err != nil {
		return fd, nil
	}
	fd.MaxPriorityFeePerGas = tip
	// Same heuristic as common wallet libraries: maxFee = 2*gasPrice + tip.
	fd.MaxFeePerGas = new(big.Int).Add(new(big.Int).Mul(gasPrice, big.NewInt(2)), tip)
	return fd, nil
}

// WaitMined polls for a transaction receipt until it appears or the
// attempt budget runs out.
func (c *Client) WaitMined(ctx context.Context, hash eth.Hash, interval time.Duration, maxAttempts int) (*Receipt, error) {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		receipt, err := c.TransactionReceipt(ctx, hash)
		if err != nil {
			return nil, err
		}
		if receipt != nil {
			return receipt, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}
	return nil, fmt.Errorf("transaction %s not mined after %d attempts", hash, maxAttempts)
}
