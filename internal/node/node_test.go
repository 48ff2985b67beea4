package node

import (
	"bytes"
	"encoding/json"
	"math/big"
	"net/http"
	"testing"

	"github.com/emduc/PrivatePay/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default(config.Sepolia)
	cfg.DataDir = t.TempDir()
	cfg.RPC.Port = 0 // random port
	cfg.Log.Level = "error"
	cfg.Log.File = cfg.DataDir + "/test.log"
	return cfg
}

func TestNodeStartStop(t *testing.T) {
	n, err := New(testConfig(t))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if err := n.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer n.Stop()

	if n.RPCAddr() == "" {
		t.Fatal("RPCAddr() is empty after Start")
	}

	// The RPC surface answers without touching the Ethereum node.
	body := []byte(`{"jsonrpc":"2.0","method":"getChainId","id":1}`)
	resp, err := http.Post("http://"+n.RPCAddr()+"/", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	var rpcResp struct {
		Result struct {
			ChainID string `json:"chainId"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rpcResp.Result.ChainID != "0xaa36a7" {
		t.Errorf("chainId = %s, want 0xaa36a7", rpcResp.Result.ChainID)
	}
}

func TestNodeRPCDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.RPC.Enabled = false

	n, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if err := n.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer n.Stop()

	if n.RPCAddr() != "" {
		t.Errorf("RPCAddr() = %q, want empty when RPC is disabled", n.RPCAddr())
	}
}

func TestNodeRejectsBadPoolAddress(t *testing.T) {
	cfg := testConfig(t)
	cfg.Funding.PoolAddress = "0x123"

	if _, err := New(cfg); err == nil {
		t.Fatal("expected error for malformed pool address")
	}
}

func TestGweiToWei(t *testing.T) {
	if got := gweiToWei(0); got != nil {
		t.Errorf("gweiToWei(0) = %v, want nil", got)
	}
	want := new(big.Int).SetUint64(20_000_000_000)
	if got := gweiToWei(20); got.Cmp(want) != 0 {
		t.Errorf("gweiToWei(20) = %v, want %v", got, want)
	}
}
