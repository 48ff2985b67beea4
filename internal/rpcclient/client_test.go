package rpcclient

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCallRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jsonrpc":"2.0","result":{"chainId":"0xaa36a7"},"id":1}`))
	}))
	defer srv.Close()

	var result struct {
		ChainID string `json:"chainId"`
	}
	if err := New(srv.URL).Call("getChainId", nil, &result); err != nil {
		t.Fatalf("Call() error: %v", err)
	}
	if result.ChainID != "0xaa36a7" {
		t.Errorf("chainId = %s", result.ChainID)
	}
}

func TestCallServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jsonrpc":"2.0","error":{"code":-32000,"message":"wallet not found"},"id":1}`))
	}))
	defer srv.Close()

	err := New(srv.URL).Call("getWalletInfo", nil, nil)
	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("error = %v, want *RPCError", err)
	}
	if rpcErr.Code != -32000 || rpcErr.Message != "wallet not found" {
		t.Errorf("rpc error = %+v", rpcErr)
	}
}

func TestCallDiscardsResultWhenNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jsonrpc":"2.0","result":{"success":true},"id":1}`))
	}))
	defer srv.Close()

	if err := New(srv.URL).Call("switchChain", map[string]string{"chainId": "0x1"}, nil); err != nil {
		t.Fatalf("Call() error: %v", err)
	}
}

func TestCallUnreachable(t *testing.T) {
	if err := New("http://127.0.0.1:1").Call("connect", nil, nil); err == nil {
		t.Fatal("expected error for unreachable endpoint")
	}
}
