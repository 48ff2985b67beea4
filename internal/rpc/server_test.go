package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/emduc/PrivatePay/internal/engine"
	"github.com/emduc/PrivatePay/internal/ethclient"
	klog "github.com/emduc/PrivatePay/internal/log"
	"github.com/emduc/PrivatePay/internal/storage"
	"github.com/emduc/PrivatePay/pkg/eth"
)

// testPhrase is the BIP-39 test vector mnemonic ("abandon" x11 + "about").
const testPhrase = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

// stubChain is a minimal in-memory ChainClient. Every address is rich so
// the funding step never has to move anything.
type stubChain struct {
	mu   sync.Mutex
	sent [][]byte
}

func (s *stubChain) BalanceAt(context.Context, eth.Address) (*big.Int, error) {
	wei, _ := new(big.Int).SetString("10000000000000000000", 10) // 10 ETH
	return wei, nil
}

func (s *stubChain) PendingNonceAt(context.Context, eth.Address) (uint64, error) {
	return 0, nil
}

func (s *stubChain) EstimateGas(context.Context, ethclient.CallMsg) (uint64, error) {
	return 21000, nil
}

func (s *stubChain) CallContract(context.Context, ethclient.CallMsg) ([]byte, error) {
	return make([]byte, 32), nil
}

func (s *stubChain) SendRawTransaction(_ context.Context, raw []byte) (eth.Hash, error) {
	s.mu.Lock()
	s.sent = append(s.sent, raw)
	s.mu.Unlock()
	return eth.Keccak256(raw), nil
}

func (s *stubChain) FeeData(context.Context) (*ethclient.FeeData, error) {
	return &ethclient.FeeData{GasPrice: big.NewInt(1_000_000_000)}, nil
}

func (s *stubChain) WaitMined(context.Context, eth.Hash, time.Duration, int) (*ethclient.Receipt, error) {
	return &ethclient.Receipt{Status: 1, BlockNumber: 1, GasUsed: 21000}, nil
}

// testEnv holds all components for an RPC test.
type testEnv struct {
	server *Server
	engine *engine.Engine
	chain  *stubChain
	url    string
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	klog.Init("error", false, "")

	chain := &stubChain{}
	eng, err := engine.New(storage.NewMemory(), chain, engine.Config{
		VerifyAttempts:  3,
		VerifyInterval:  time.Millisecond,
		ConfirmAttempts: 3,
		ConfirmInterval: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("create engine: %v", err)
	}

	srv := New("127.0.0.1:0", eng)
	if err := srv.Start(); err != nil {
		t.Fatalf("start rpc: %v", err)
	}
	t.Cleanup(func() { srv.Stop() })

	return &testEnv{
		server: srv,
		engine: eng,
		chain:  chain,
		url:    fmt.Sprintf("http://%s/", srv.Addr()),
	}
}

// importAndConnect imports the test wallet and opens a session, returning
// the session address.
func (env *testEnv) importAndConnect(t *testing.T) string {
	t.Helper()
	resp := rpcCall(t, env.url, "importWallet", ImportParam{SeedPhrase: testPhrase})
	if resp.Error != nil {
		t.Fatalf("importWallet error: %v", resp.Error.Message)
	}
	resp = rpcCall(t, env.url, "connect", nil)
	if resp.Error != nil {
		t.Fatalf("connect error: %v", resp.Error.Message)
	}
	var acct AccountResult
	decodeResult(t, resp, &acct)
	if acct.Address == "" {
		t.Fatal("connect returned empty address after import")
	}
	return acct.Address
}

func rpcCall(t *testing.T, url, method string, params interface{}) Response {
	t.Helper()
	req := Request{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      1,
	}
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post %s: %v", method, err)
	}
	defer resp.Body.Close()

	var rpcResp Response
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return rpcResp
}

func decodeResult(t *testing.T, resp Response, target interface{}) {
	t.Helper()
	data, err := json.Marshal(resp.Result)
	if err != nil {
		t.Fatalf("re-marshal result: %v", err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		t.Fatalf("decode result: %v", err)
	}
}

// ── Tests ───────────────────────────────────────────────────────────────

func TestRPC_ConnectWithoutWallet(t *testing.T) {
	env := setupTestEnv(t)

	resp := rpcCall(t, env.url, "connect", nil)
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error.Message)
	}
	var acct AccountResult
	decodeResult(t, resp, &acct)
	if acct.Address != "" {
		t.Errorf("address = %q, want empty before import", acct.Address)
	}

	resp = rpcCall(t, env.url, "getWalletInfo", nil)
	if resp.Error == nil {
		t.Fatal("expected error for getWalletInfo without wallet")
	}
	if resp.Error.Code != CodeNotFound {
		t.Errorf("error code = %d, want %d", resp.Error.Code, CodeNotFound)
	}
}

func TestRPC_ImportWallet(t *testing.T) {
	env := setupTestEnv(t)

	resp := rpcCall(t, env.url, "importWallet", ImportParam{SeedPhrase: testPhrase})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error.Message)
	}
	var result ImportResult
	decodeResult(t, resp, &result)
	if !result.Success {
		t.Error("success = false")
	}
	if result.MasterAddress != "0x9858EfFD232B4033E47d90003D41EC34EcaEda94" {
		t.Errorf("masterAddress = %s", result.MasterAddress)
	}

	resp = rpcCall(t, env.url, "getWalletInfo", nil)
	if resp.Error != nil {
		t.Fatalf("getWalletInfo error: %v", resp.Error.Message)
	}
	var info engine.WalletInfo
	decodeResult(t, resp, &info)
	if info.MasterAddress != result.MasterAddress {
		t.Errorf("info master = %s", info.MasterAddress)
	}
	if info.SessionCount != 0 {
		t.Errorf("sessionCount = %d, want 0", info.SessionCount)
	}
}

func TestRPC_ImportWalletInvalidPhrase(t *testing.T) {
	env := setupTestEnv(t)

	resp := rpcCall(t, env.url, "importWallet", ImportParam{SeedPhrase: "definitely not a valid mnemonic phrase at all here ok"})
	if resp.Error == nil {
		t.Fatal("expected error for invalid phrase")
	}
	if resp.Error.Code != CodeInvalidParams {
		t.Errorf("error code = %d, want %d", resp.Error.Code, CodeInvalidParams)
	}

	resp = rpcCall(t, env.url, "importWallet", nil)
	if resp.Error == nil || resp.Error.Code != CodeInvalidParams {
		t.Errorf("missing params should be rejected, got %+v", resp.Error)
	}
}

func TestRPC_ConnectAndGetAccounts(t *testing.T) {
	env := setupTestEnv(t)
	addr := env.importAndConnect(t)

	resp := rpcCall(t, env.url, "getAccounts", nil)
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error.Message)
	}
	var acct AccountResult
	decodeResult(t, resp, &acct)
	if acct.Address != addr {
		t.Errorf("getAccounts = %s, want %s", acct.Address, addr)
	}

	// A second connect advances to a new session.
	resp = rpcCall(t, env.url, "connect", nil)
	if resp.Error != nil {
		t.Fatalf("second connect error: %v", resp.Error.Message)
	}
	var acct2 AccountResult
	decodeResult(t, resp, &acct2)
	if acct2.Address == addr {
		t.Error("second connect reused the first session address")
	}
}

func TestRPC_PersonalSign(t *testing.T) {
	env := setupTestEnv(t)
	env.importAndConnect(t)

	resp := rpcCall(t, env.url, "personalSign", SignParam{Message: "hello"})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error.Message)
	}
	var result SignResult
	decodeResult(t, resp, &result)
	if !strings.HasPrefix(result.Signature, "0x") || len(result.Signature) != 132 {
		t.Errorf("signature = %q, want 65 bytes of 0x hex", result.Signature)
	}

	resp = rpcCall(t, env.url, "personalSign", SignParam{})
	if resp.Error == nil || resp.Error.Code != CodeInvalidParams {
		t.Errorf("empty message should be rejected, got %+v", resp.Error)
	}
}

func TestRPC_ChainEndpoints(t *testing.T) {
	env := setupTestEnv(t)

	resp := rpcCall(t, env.url, "getChainId", nil)
	var chainID ChainIDResult
	decodeResult(t, resp, &chainID)
	if chainID.ChainID != "0xaa36a7" {
		t.Errorf("chainId = %s, want 0xaa36a7", chainID.ChainID)
	}

	resp = rpcCall(t, env.url, "getNetworkVersion", nil)
	var ver NetworkVersionResult
	decodeResult(t, resp, &ver)
	if ver.NetworkVersion != "11155111" {
		t.Errorf("networkVersion = %s, want 11155111", ver.NetworkVersion)
	}

	resp = rpcCall(t, env.url, "switchChain", ChainParam{ChainID: "0x1"})
	if resp.Error != nil {
		t.Fatalf("switchChain error: %v", resp.Error.Message)
	}

	resp = rpcCall(t, env.url, "getChainId", nil)
	decodeResult(t, resp, &chainID)
	if chainID.ChainID != "0x1" {
		t.Errorf("chainId after switch = %s, want 0x1", chainID.ChainID)
	}
	resp = rpcCall(t, env.url, "getNetworkVersion", nil)
	decodeResult(t, resp, &ver)
	if ver.NetworkVersion != "1" {
		t.Errorf("networkVersion after switch = %s, want 1", ver.NetworkVersion)
	}
}

func TestRPC_GetBalance(t *testing.T) {
	env := setupTestEnv(t)
	addr := env.importAndConnect(t)

	resp := rpcCall(t, env.url, "getBalance", BalanceParam{Address: addr})
	var bal BalanceResult
	decodeResult(t, resp, &bal)
	if bal.Balance != "0x56bc75e2d630e0000" {
		t.Errorf("session balance = %s", bal.Balance)
	}

	resp = rpcCall(t, env.url, "getBalance", BalanceParam{Address: "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"})
	decodeResult(t, resp, &bal)
	if bal.Balance != "0x8ac7230489e80000" {
		t.Errorf("other balance = %s", bal.Balance)
	}

	resp = rpcCall(t, env.url, "getBalance", BalanceParam{})
	if resp.Error == nil || resp.Error.Code != CodeInvalidParams {
		t.Errorf("missing address should be rejected, got %+v", resp.Error)
	}
}

func TestRPC_Sessions(t *testing.T) {
	env := setupTestEnv(t)
	first := env.importAndConnect(t)
	rpcCall(t, env.url, "connect", nil)

	resp := rpcCall(t, env.url, "getAllSessions", nil)
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error.Message)
	}
	var result SessionsResult
	decodeResult(t, resp, &result)
	if len(result.Sessions) != 2 {
		t.Fatalf("sessions = %d, want 2", len(result.Sessions))
	}
	if !result.Sessions[0].IsCurrent || result.Sessions[0].Number != 2 {
		t.Errorf("newest session = %+v, want current session 2", result.Sessions[0])
	}

	resp = rpcCall(t, env.url, "switchToSession", SessionParam{SessionNumber: 1})
	if resp.Error != nil {
		t.Fatalf("switchToSession error: %v", resp.Error.Message)
	}
	var sw SwitchSessionResult
	decodeResult(t, resp, &sw)
	if !sw.Success || sw.Address != first {
		t.Errorf("switch result = %+v, want address %s", sw, first)
	}

	resp = rpcCall(t, env.url, "switchToSession", SessionParam{SessionNumber: 9})
	if resp.Error == nil {
		t.Error("expected error for unknown session number")
	}
	resp = rpcCall(t, env.url, "switchToSession", SessionParam{})
	if resp.Error == nil || resp.Error.Code != CodeInvalidParams {
		t.Errorf("missing sessionNumber should be rejected, got %+v", resp.Error)
	}
}

func TestRPC_AddressSpoofing(t *testing.T) {
	env := setupTestEnv(t)
	env.importAndConnect(t)

	resp := rpcCall(t, env.url, "setAddressSpoofing", SpoofingParam{Enabled: true})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error.Message)
	}
	var result SpoofingResult
	decodeResult(t, resp, &result)
	if !result.Success || !result.Enabled {
		t.Errorf("result = %+v", result)
	}

	resp = rpcCall(t, env.url, "getAccounts", nil)
	var acct AccountResult
	decodeResult(t, resp, &acct)
	if acct.Address != engine.DecoyAddress.String() {
		t.Errorf("getAccounts = %s, want decoy under spoofing", acct.Address)
	}
}

func TestRPC_SendTransactionApprove(t *testing.T) {
	env := setupTestEnv(t)
	addr := env.importAndConnect(t)

	txParams := map[string]interface{}{
		"from":  addr,
		"to":    "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		"value": "0x1",
		"gas":   "0x5208",
	}

	// sendTransaction blocks until approval resolves it, so it runs on its
	// own goroutine while the test plays the approval UI.
	done := make(chan Response, 1)
	go func() {
		done <- rpcCall(t, env.url, "sendTransaction", SendTxParam{TxParams: txParams})
	}()

	txID := waitForPending(t, env.url)
	resp := rpcCall(t, env.url, "approveTransaction", TxIDParam{TxID: txID})
	if resp.Error != nil {
		t.Fatalf("approveTransaction error: %v", resp.Error.Message)
	}

	select {
	case resp = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("sendTransaction did not resolve after approval")
	}
	if resp.Error != nil {
		t.Fatalf("sendTransaction error: %v", resp.Error.Message)
	}
	var result SendTxResult
	decodeResult(t, resp, &result)
	if !strings.HasPrefix(result.TxHash, "0x") || len(result.TxHash) != 66 {
		t.Errorf("txHash = %q", result.TxHash)
	}
}

func TestRPC_SendTransactionReject(t *testing.T) {
	env := setupTestEnv(t)
	addr := env.importAndConnect(t)

	txParams := map[string]interface{}{
		"from": addr,
		"to":   "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		"gas":  "0x5208",
	}

	done := make(chan Response, 1)
	go func() {
		done <- rpcCall(t, env.url, "sendTransaction", SendTxParam{TxParams: txParams})
	}()

	txID := waitForPending(t, env.url)
	resp := rpcCall(t, env.url, "rejectTransaction", TxIDParam{TxID: txID})
	if resp.Error != nil {
		t.Fatalf("rejectTransaction error: %v", resp.Error.Message)
	}

	select {
	case resp = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("sendTransaction did not resolve after rejection")
	}
	if resp.Error == nil {
		t.Fatal("expected error for rejected transaction")
	}
	if resp.Error.Code != CodeRejected {
		t.Errorf("error code = %d, want %d", resp.Error.Code, CodeRejected)
	}
	if resp.Error.Message != "user rejected transaction" {
		t.Errorf("error message = %q", resp.Error.Message)
	}
}

func TestRPC_ApproveUnknownTransaction(t *testing.T) {
	env := setupTestEnv(t)
	env.importAndConnect(t)

	resp := rpcCall(t, env.url, "approveTransaction", TxIDParam{TxID: "no-such-tx"})
	if resp.Error == nil {
		t.Fatal("expected error for unknown tx id")
	}
	if resp.Error.Code != CodeNotFound {
		t.Errorf("error code = %d, want %d", resp.Error.Code, CodeNotFound)
	}
}

func TestRPC_GetPendingTransactionsEmpty(t *testing.T) {
	env := setupTestEnv(t)

	resp := rpcCall(t, env.url, "getPendingTransactions", nil)
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error.Message)
	}
	var result PendingResult
	decodeResult(t, resp, &result)
	if result.Transactions == nil {
		t.Error("transactions is null, want empty array")
	}
	if len(result.Transactions) != 0 {
		t.Errorf("transactions = %d, want 0", len(result.Transactions))
	}
}

func TestRPC_GetTransactionProgressIdle(t *testing.T) {
	env := setupTestEnv(t)

	// Check the raw wire format: a success response must carry the result
	// member, as an explicit null when nothing is in flight.
	body := []byte(`{"jsonrpc":"2.0","method":"getTransactionProgress","id":1}`)
	httpResp, err := http.Post(env.url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer httpResp.Body.Close()

	var raw map[string]json.RawMessage
	if err := json.NewDecoder(httpResp.Body).Decode(&raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := raw["error"]; ok {
		t.Fatalf("unexpected error member: %s", raw["error"])
	}
	result, ok := raw["result"]
	if !ok {
		t.Fatal("result member missing from idle progress response")
	}
	if string(result) != "null" {
		t.Errorf("result = %s, want null when nothing is in flight", result)
	}
}

func TestRPC_MethodNotFound(t *testing.T) {
	env := setupTestEnv(t)

	resp := rpcCall(t, env.url, "eth_mine", nil)
	if resp.Error == nil {
		t.Fatal("expected error for unknown method")
	}
	if resp.Error.Code != CodeMethodNotFound {
		t.Errorf("error code = %d, want %d", resp.Error.Code, CodeMethodNotFound)
	}
}

func TestRPC_RejectsBadVersion(t *testing.T) {
	env := setupTestEnv(t)

	body := []byte(`{"jsonrpc":"1.0","method":"getChainId","id":1}`)
	httpResp, err := http.Post(env.url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer httpResp.Body.Close()

	var resp Response
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != CodeInvalidRequest {
		t.Errorf("error = %+v, want invalid request", resp.Error)
	}
}

func TestRPC_RejectsGet(t *testing.T) {
	env := setupTestEnv(t)

	httpResp, err := http.Get(env.url)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer httpResp.Body.Close()

	var resp Response
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != CodeInvalidRequest {
		t.Errorf("error = %+v, want invalid request", resp.Error)
	}
}

// waitForPending polls getPendingTransactions until one transaction is
// queued, returning its id.
func waitForPending(t *testing.T, url string) string {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp := rpcCall(t, url, "getPendingTransactions", nil)
		if resp.Error != nil {
			t.Fatalf("getPendingTransactions error: %v", resp.Error.Message)
		}
		var result PendingResult
		decodeResult(t, resp, &result)
		if len(result.Transactions) > 0 {
			return result.Transactions[0].ID
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("no pending transaction appeared")
	return ""
}
