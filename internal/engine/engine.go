// Package engine implements the session-wallet core: it owns the master
// identity, derives a fresh key per connection, queues transactions for
// approval, rewrites decoy addresses, and funds session keys from the
// master before broadcasting.
package engine

import (
	"context"
	"encoding/binary"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/emduc/PrivatePay/internal/ethclient"
	klog "github.com/emduc/PrivatePay/internal/log"
	"github.com/emduc/PrivatePay/internal/storage"
	"github.com/emduc/PrivatePay/internal/wallet"
	"github.com/emduc/PrivatePay/pkg/eth"
)

// Storage keys for the engine's persisted state.
const (
	keySeedPhrase     = "wallet/seed_phrase"
	keySessionCounter = "wallet/session_counter"
	keySpoofing       = "wallet/spoofing"
)

// DecoyAddress is the fixed address shown to pages when spoofing is
// enabled. Internal operations always use the true session address.
var DecoyAddress = mustAddress("0xA6a49d09321f701AB4295e5eB115E65EcF9b83B5")

func mustAddress(s string) eth.Address {
	a, err := eth.ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// ChainClient is the node-side surface the engine needs. *ethclient.Client
// satisfies it; tests inject a fake.
type ChainClient interface {
	BalanceAt(ctx context.Context, addr eth.Address) (*big.Int, error)
	PendingNonceAt(ctx context.Context, addr eth.Address) (uint64, error)
	EstimateGas(ctx context.Context, msg ethclient.CallMsg) (uint64, error)
	CallContract(ctx context.Context, msg ethclient.CallMsg) ([]byte, error)
	SendRawTransaction(ctx context.Context, raw []byte) (eth.Hash, error)
	FeeData(ctx context.Context) (*ethclient.FeeData, error)
	WaitMined(ctx context.Context, hash eth.Hash, interval time.Duration, maxAttempts int) (*ethclient.Receipt, error)
}

// Config holds the engine's tunables. Zero values fall back to the
// defaults below.
type Config struct {
	// ChainID is the initial chain id as a 0x-prefixed hex string.
	ChainID string

	// PoolAddress is the liquidity pool contract used as the primary
	// funding source. Nil means the master key's direct balance is the
	// only source.
	PoolAddress *eth.Address

	// FundingBuffer is the safety margin added to every shortfall, in wei.
	FundingBuffer *big.Int

	// FallbackGasPrice is the fee per gas unit assumed when the node
	// reports no fee data, in wei.
	FallbackGasPrice *big.Int

	// VerifyAttempts and VerifyInterval bound the post-funding balance
	// poll.
	VerifyAttempts int
	VerifyInterval time.Duration

	// ConfirmAttempts and ConfirmInterval bound receipt polling for
	// funding and submitted transactions.
	ConfirmAttempts int
	ConfirmInterval time.Duration
}

// Engine default tunables.
const (
	DefaultChainID = "0xaa36a7" // Sepolia

	defaultVerifyAttempts  = 5
	defaultVerifyInterval  = 3 * time.Second
	defaultConfirmAttempts = 40
	defaultConfirmInterval = 3 * time.Second
)

var (
	// defaultFundingBuffer is 0.01 ETH in wei.
	defaultFundingBuffer = new(big.Int).Mul(big.NewInt(10_000_000), big.NewInt(1_000_000_000))

	// defaultFallbackGasPrice is 20 gwei.
	defaultFallbackGasPrice = big.NewInt(20_000_000_000)
)

func (c *Config) withDefaults() Config {
	out := *c
	if out.ChainID == "" {
		out.ChainID = DefaultChainID
	}
	if out.FundingBuffer == nil {
		out.FundingBuffer = defaultFundingBuffer
	}
	if out.FallbackGasPrice == nil {
		out.FallbackGasPrice = defaultFallbackGasPrice
	}
	if out.VerifyAttempts <= 0 {
		out.VerifyAttempts = defaultVerifyAttempts
	}
	if out.VerifyInterval <= 0 {
		out.VerifyInterval = defaultVerifyInterval
	}
	if out.ConfirmAttempts <= 0 {
		out.ConfirmAttempts = defaultConfirmAttempts
	}
	if out.ConfirmInterval <= 0 {
		out.ConfirmInterval = defaultConfirmInterval
	}
	return out
}

// Engine is the session-wallet core. All mutable state lives behind mu;
// the submission pipeline runs on detached goroutines that report through
// the progress tracker and each pending record's result channel.
type Engine struct {
	mu sync.Mutex

	db     storage.DB
	chain  ChainClient
	cfg    Config
	logger zerolog.Logger

	master   *wallet.Master
	session  *wallet.SessionKey
	counter  uint32
	spoofing bool

	chainID    string
	netVersion string

	pending map[string]*PendingTx
	lastID  int64

	progress      *Progress
	progressTimer *time.Timer
}

// New builds an engine on the given storage and chain client, restoring
// any previously imported wallet, session counter, and spoofing flag.
func New(db storage.DB, chain ChainClient, cfg Config) (*Engine, error) {
	e := &Engine{
		db:      db,
		chain:   chain,
		cfg:     cfg.withDefaults(),
		logger:  klog.WithComponent("engine"),
		pending: make(map[string]*PendingTx),
	}
	e.chainID = e.cfg.ChainID
	e.netVersion = networkVersion(e.chainID)

	if err := e.restore(); err != nil {
		return nil, fmt.Errorf("restore engine state: %w", err)
	}
	return e, nil
}

// restore loads persisted wallet state. A missing key means a fresh
// install; anything else is a real failure.
func (e *Engine) restore() error {
	phrase, err := e.db.Get([]byte(keySeedPhrase))
	switch err {
	case nil:
		master, err := wallet.NewMaster(string(phrase))
		if err != nil {
			return fmt.Errorf("stored seed phrase: %w", err)
		}
		e.master = master
	case storage.ErrNotFound:
	default:
		return err
	}

	raw, err := e.db.Get([]byte(keySessionCounter))
	switch err {
	case nil:
		if len(raw) != 4 {
			return fmt.Errorf("stored session counter has %d bytes", len(raw))
		}
		e.counter = binary.BigEndian.Uint32(raw)
	case storage.ErrNotFound:
	default:
		return err
	}

	flag, err := e.db.Get([]byte(keySpoofing))
	switch err {
	case nil:
		e.spoofing = len(flag) == 1 && flag[0] == 1
	case storage.ErrNotFound:
	default:
		return err
	}

	// Reinstall the current session key so a restart does not silently
	// drop an active session.
	if e.master != nil && e.counter > 0 {
		key, err := e.master.DeriveSession(e.counter)
		if err != nil {
			return &DerivationError{Index: e.counter, Err: err}
		}
		e.session = key
	}

	e.logger.Info().
		Bool("wallet_loaded", e.master != nil).
		Uint32("session_counter", e.counter).
		Bool("spoofing", e.spoofing).
		Msg("engine state restored")
	return nil
}

func (e *Engine) persistCounter(n uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], n)
	return e.db.Put([]byte(keySessionCounter), buf[:])
}

// Spoofing reports whether address spoofing is enabled.
func (e *Engine) Spoofing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.spoofing
}

// SetSpoofing toggles address spoofing and persists the flag.
func (e *Engine) SetSpoofing(enabled bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	val := []byte{0}
	if enabled {
		val = []byte{1}
	}
	if err := e.db.Put([]byte(keySpoofing), val); err != nil {
		return err
	}
	e.spoofing = enabled
	e.logger.Info().Bool("enabled", enabled).Msg("address spoofing toggled")
	return nil
}

// displayAddress maps a real address to its externally visible form.
// Callers must hold mu.
func (e *Engine) displayAddress(addr eth.Address) string {
	if e.spoofing {
		return DecoyAddress.String()
	}
	return addr.String()
}
