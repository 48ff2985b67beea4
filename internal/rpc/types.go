package rpc

import "github.com/emduc/PrivatePay/internal/engine"

// JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeNotFound       = -32000
	CodeConflict       = -32001
	CodeRejected       = -32002
)

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	ID      interface{} `json:"id"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   *Error      `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ── Param types ─────────────────────────────────────────────────────────

// SignParam is used by personalSign.
type SignParam struct {
	Message string `json:"message"`
	Address string `json:"address"`
}

// SendTxParam is used by sendTransaction. TxParams is the raw parameter
// object exactly as the page supplied it.
type SendTxParam struct {
	TxParams map[string]interface{} `json:"txParams"`
}

// ImportParam is used by importWallet.
type ImportParam struct {
	SeedPhrase string `json:"seedPhrase"`
}

// ChainParam is used by switchChain.
type ChainParam struct {
	ChainID string `json:"chainId"`
}

// BalanceParam is used by getBalance.
type BalanceParam struct {
	Address string `json:"address"`
}

// TxIDParam is used by approveTransaction and rejectTransaction.
type TxIDParam struct {
	TxID string `json:"txId"`
}

// SessionParam is used by switchToSession.
type SessionParam struct {
	SessionNumber uint32 `json:"sessionNumber"`
}

// SpoofingParam is used by setAddressSpoofing.
type SpoofingParam struct {
	Enabled bool `json:"enabled"`
}

// ── Result types ────────────────────────────────────────────────────────

// AccountResult is returned by connect and getAccounts. An empty address
// is the "not connected" state.
type AccountResult struct {
	Address string `json:"address"`
}

// SignResult is returned by personalSign.
type SignResult struct {
	Signature string `json:"signature"`
}

// SendTxResult is returned by sendTransaction once the approval flow has
// run to broadcast.
type SendTxResult struct {
	TxHash string `json:"txHash"`
}

// ImportResult is returned by importWallet.
type ImportResult struct {
	Success       bool   `json:"success"`
	MasterAddress string `json:"masterAddress"`
}

// ChainIDResult is returned by getChainId.
type ChainIDResult struct {
	ChainID string `json:"chainId"`
}

// NetworkVersionResult is returned by getNetworkVersion.
type NetworkVersionResult struct {
	NetworkVersion string `json:"networkVersion"`
}

// BalanceResult is returned by getBalance.
type BalanceResult struct {
	Balance string `json:"balance"`
}

// PendingResult is returned by getPendingTransactions.
type PendingResult struct {
	Transactions []engine.PendingInfo `json:"transactions"`
}

// SessionsResult is returned by getAllSessions.
type SessionsResult struct {
	Sessions []engine.SessionInfo `json:"sessions"`
}

// SuccessResult is returned by operations with no payload beyond success.
type SuccessResult struct {
	Success bool `json:"success"`
}

// SwitchSessionResult is returned by switchToSession.
type SwitchSessionResult struct {
	Success bool   `json:"success"`
	Address string `json:"address"`
}

// SpoofingResult is returned by setAddressSpoofing.
type SpoofingResult struct {
	Success bool `json:"success"`
	Enabled bool `json:"enabled"`
}
