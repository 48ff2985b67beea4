package engine

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/emduc/PrivatePay/internal/ethclient"
	"github.com/emduc/PrivatePay/internal/storage"
	"github.com/emduc/PrivatePay/pkg/eth"
)

// testPhrase is the BIP-39 test vector mnemonic ("abandon" x11 + "about").
const testPhrase = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

// fakeChain is an in-memory ChainClient for pipeline tests.
type fakeChain struct {
	mu sync.Mutex

	balances map[eth.Address]*big.Int
	nonces   map[eth.Address]uint64
	fee      *ethclient.FeeData

	estimateFn func(ethclient.CallMsg) (uint64, error)
	callFn     func(ethclient.CallMsg) ([]byte, error)
	sendErr    error
	onSend     func(raw []byte)

	estimated []ethclient.CallMsg
	sent      [][]byte

	receiptStatus uint64
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		balances:      make(map[eth.Address]*big.Int),
		nonces:        make(map[eth.Address]uint64),
		receiptStatus: 1,
	}
}

func (f *fakeChain) setBalance(addr eth.Address, wei *big.Int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balances[addr] = new(big.Int).Set(wei)
}

func (f *fakeChain) BalanceAt(_ context.Context, addr eth.Address) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.balances[addr]; ok {
		return new(big.Int).Set(b), nil
	}
	return new(big.Int), nil
}

func (f *fakeChain) PendingNonceAt(_ context.Context, addr eth.Address) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.nonces[addr]
	f.nonces[addr] = n + 1
	return n, nil
}

func (f *fakeChain) EstimateGas(_ context.Context, msg ethclient.CallMsg) (uint64, error) {
	f.mu.Lock()
	f.estimated = append(f.estimated, msg)
	fn := f.estimateFn
	f.mu.Unlock()
	if fn != nil {
		return fn(msg)
	}
	return 21000, nil
}

func (f *fakeChain) CallContract(_ context.Context, msg ethclient.CallMsg) ([]byte, error) {
	f.mu.Lock()
	fn := f.callFn
	f.mu.Unlock()
	if fn != nil {
		return fn(msg)
	}
	return make([]byte, 32), nil
}

func (f *fakeChain) SendRawTransaction(_ context.Context, raw []byte) (eth.Hash, error) {
	f.mu.Lock()
	sendErr := f.sendErr
	if sendErr == nil {
		f.sent = append(f.sent, raw)
	}
	onSend := f.onSend
	f.mu.Unlock()
	if sendErr != nil {
		return eth.Hash{}, sendErr
	}
	if onSend != nil {
		onSend(raw)
	}
	return eth.Keccak256(raw), nil
}

func (f *fakeChain) FeeData(context.Context) (*ethclient.FeeData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fee != nil {
		return f.fee, nil
	}
	return &ethclient.FeeData{GasPrice: big.NewInt(1_000_000_000)}, nil
}

func (f *fakeChain) WaitMined(context.Context, eth.Hash, time.Duration, int) (*ethclient.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &ethclient.Receipt{Status: f.receiptStatus, BlockNumber: 1, GasUsed: 21000}, nil
}

func (f *fakeChain) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

// testEngine builds an engine on in-memory storage with fast polling
// intervals and the test wallet imported.
func testEngine(t *testing.T, chain ChainClient) *Engine {
	t.Helper()
	e, err := New(storage.NewMemory(), chain, Config{
		VerifyAttempts:  3,
		VerifyInterval:  time.Millisecond,
		ConfirmAttempts: 3,
		ConfirmInterval: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if _, err := e.ImportMaster(testPhrase); err != nil {
		t.Fatalf("ImportMaster() error: %v", err)
	}
	return e
}

func TestRestoreRoundTrip(t *testing.T) {
	db := storage.NewMemory()
	chain := newFakeChain()

	e1, err := New(db, chain, Config{})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if _, err := e1.ImportMaster(testPhrase); err != nil {
		t.Fatalf("ImportMaster() error: %v", err)
	}
	a1, err := e1.Connect()
	if err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	if err := e1.SetSpoofing(true); err != nil {
		t.Fatalf("SetSpoofing() error: %v", err)
	}

	// A fresh engine on the same storage restores wallet, counter, and
	// spoofing, and reinstalls the session key.
	e2, err := New(db, chain, Config{})
	if err != nil {
		t.Fatalf("New() on restored state error: %v", err)
	}
	if !e2.Spoofing() {
		t.Error("spoofing flag not restored")
	}
	if got := e2.CurrentAccount(); got != DecoyAddress.String() {
		t.Errorf("restored account = %s, want decoy under spoofing", got)
	}
	if err := e2.SetSpoofing(false); err != nil {
		t.Fatalf("SetSpoofing() error: %v", err)
	}
	if got := e2.CurrentAccount(); got != a1 {
		t.Errorf("restored account = %s, want %s", got, a1)
	}
}

func TestRestoreEmptyStorage(t *testing.T) {
	e, err := New(storage.NewMemory(), newFakeChain(), Config{})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if addr, err := e.Connect(); err != nil || addr != "" {
		t.Errorf("Connect() = (%q, %v), want empty not-connected result", addr, err)
	}
	if e.CurrentAccount() != "" {
		t.Error("fresh engine should have no current account")
	}
}
