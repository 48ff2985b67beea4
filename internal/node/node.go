// Package node wires the daemon together: logger, state database, chain
// client, engine, and RPC server, with a clean startup and shutdown order.
package node

import (
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/emduc/PrivatePay/config"
	"github.com/emduc/PrivatePay/internal/engine"
	"github.com/emduc/PrivatePay/internal/ethclient"
	klog "github.com/emduc/PrivatePay/internal/log"
	"github.com/emduc/PrivatePay/internal/rpc"
	"github.com/emduc/PrivatePay/internal/storage"
	"github.com/emduc/PrivatePay/pkg/eth"
)

// Node is a fully-initialized daemon instance.
type Node struct {
	cfg    *config.Config
	logger zerolog.Logger

	db     storage.DB
	client *ethclient.Client
	engine *engine.Engine

	rpcServer *rpc.Server
}

// New creates and initializes a Node. It performs all setup steps (logger,
// storage, chain client, engine) but does not start the RPC listener.
// Call Start() for that.
func New(cfg *config.Config) (*Node, error) {
	// ── 1. Init logger ──────────────────────────────────────────────
	logFile := cfg.Log.File
	if logFile == "" {
		logsDir := cfg.LogsDir()
		if err := os.MkdirAll(logsDir, 0755); err != nil {
			return nil, fmt.Errorf("creating logs dir: %w", err)
		}
		logFile = logsDir + "/privatepay.log"
	}
	if err := klog.Init(cfg.Log.Level, cfg.Log.JSON, logFile); err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	logger := klog.WithComponent("node")

	logger.Info().
		Str("network", string(cfg.Network)).
		Str("chain_id", cfg.Chain.ChainID).
		Str("endpoint", cfg.Chain.Endpoint).
		Msg("Starting PrivatePay daemon")

	// ── 2. Open storage ─────────────────────────────────────────────
	db, err := storage.NewBadger(cfg.StateDir())
	if err != nil {
		return nil, fmt.Errorf("open database at %s: %w", cfg.StateDir(), err)
	}
	logger.Info().Str("path", cfg.StateDir()).Msg("Database opened")

	// ── 3. Chain client ─────────────────────────────────────────────
	timeout := time.Duration(cfg.Chain.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	client := ethclient.NewWithTimeout(cfg.Chain.Endpoint, timeout)

	// ── 4. Engine ───────────────────────────────────────────────────
	engCfg, err := engineConfig(cfg)
	if err != nil {
		db.Close()
		return nil, err
	}
	eng, err := engine.New(db, client, engCfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create engine: %w", err)
	}
	if cfg.Funding.PoolAddress != "" {
		logger.Info().Str("pool", cfg.Funding.PoolAddress).Msg("Pool funding enabled")
	}

	// ── 5. RPC server ───────────────────────────────────────────────
	var rpcServer *rpc.Server
	if cfg.RPC.Enabled {
		rpcAddr := fmt.Sprintf("%s:%d", cfg.RPC.Addr, cfg.RPC.Port)
		rpcServer = rpc.New(rpcAddr, eng, cfg.RPC)
	} else {
		logger.Warn().Msg("RPC disabled by config; the provider shim cannot reach this daemon")
	}

	return &Node{
		cfg:       cfg,
		logger:    logger,
		db:        db,
		client:    client,
		engine:    eng,
		rpcServer: rpcServer,
	}, nil
}

// engineConfig converts daemon config into engine tunables.
func engineConfig(cfg *config.Config) (engine.Config, error) {
	out := engine.Config{
		ChainID:          cfg.Chain.ChainID,
		FundingBuffer:    gweiToWei(cfg.Funding.BufferGwei),
		FallbackGasPrice: gweiToWei(cfg.Funding.FallbackGasPriceGwei),
		VerifyAttempts:   cfg.Funding.VerifyAttempts,
		VerifyInterval:   time.Duration(cfg.Funding.VerifyIntervalSec) * time.Second,
		ConfirmAttempts:  cfg.Funding.ConfirmAttempts,
		ConfirmInterval:  time.Duration(cfg.Funding.ConfirmIntervalSec) * time.Second,
	}
	if cfg.Funding.PoolAddress != "" {
		pool, err := eth.ParseAddress(cfg.Funding.PoolAddress)
		if err != nil {
			return engine.Config{}, fmt.Errorf("funding.pool: %w", err)
		}
		out.PoolAddress = &pool
	}
	return out, nil
}

// gweiToWei converts a gwei amount to wei. Zero maps to nil so engine
// defaults apply.
func gweiToWei(gwei uint64) *big.Int {
	if gwei == 0 {
		return nil
	}
	return new(big.Int).Mul(new(big.Int).SetUint64(gwei), big.NewInt(1_000_000_000))
}

// Start launches the RPC listener.
func (n *Node) Start() error {
	if n.rpcServer != nil {
		if err := n.rpcServer.Start(); err != nil {
			return fmt.Errorf("start RPC: %w", err)
		}
		n.logger.Info().Str("addr", n.rpcServer.Addr()).Msg("RPC server started")
	}

	n.logger.Info().Msg("Node started successfully")
	return nil
}

// Stop performs graceful shutdown in reverse order.
func (n *Node) Stop() {
	if n.rpcServer != nil {
		n.rpcServer.Stop()
	}
	if n.db != nil {
		n.db.Close()
	}
	n.logger.Info().Msg("Goodbye!")
}

// RPCAddr returns the address the RPC server is listening on.
func (n *Node) RPCAddr() string {
	if n.rpcServer == nil {
		return ""
	}
	return n.rpcServer.Addr()
}

// Engine exposes the engine for embedding binaries.
func (n *Node) Engine() *engine.Engine {
	return n.engine
}
