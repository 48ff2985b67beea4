// Package config handles daemon configuration.
//
// Configuration comes from three layers applied in order: built-in
// defaults per network, the .conf file in the data directory, and
// command-line flags.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// NetworkType identifies the Ethereum network the daemon targets.
type NetworkType string

const (
	Mainnet NetworkType = "mainnet"
	Sepolia NetworkType = "sepolia"
)

// Config holds the daemon's runtime configuration.
type Config struct {
	// Core
	Network NetworkType `conf:"network"`
	DataDir string      `conf:"datadir"`

	// Ethereum node access
	Chain ChainConfig

	// Session funding
	Funding FundingConfig

	// RPC server (the message surface the provider shim and UI call)
	RPC RPCConfig

	// Logging
	Log LogConfig
}

// ChainConfig holds Ethereum node client settings.
type ChainConfig struct {
	Endpoint string `conf:"chain.endpoint"` // JSON-RPC HTTP endpoint
	ChainID  string `conf:"chain.id"`       // 0x-prefixed hex chain id
	Timeout  int    `conf:"chain.timeout"`  // HTTP timeout in seconds
}

// FundingConfig holds session funding settings.
type FundingConfig struct {
	// PoolAddress is the liquidity pool contract used as the primary
	// funding source. Empty disables the pool strategy.
	PoolAddress string `conf:"funding.pool"`

	// BufferGwei is the safety margin added to every shortfall.
	BufferGwei uint64 `conf:"funding.buffer_gwei"`

	// FallbackGasPriceGwei prices gas when the node reports no fee data.
	FallbackGasPriceGwei uint64 `conf:"funding.fallback_gas_price_gwei"`

	// VerifyAttempts and VerifyIntervalSec bound the post-funding
	// balance poll.
	VerifyAttempts    int `conf:"funding.verify_attempts"`
	VerifyIntervalSec int `conf:"funding.verify_interval"`

	// ConfirmAttempts and ConfirmIntervalSec bound receipt polling.
	ConfirmAttempts    int `conf:"funding.confirm_attempts"`
	ConfirmIntervalSec int `conf:"funding.confirm_interval"`
}

// RPCConfig holds RPC server settings.
type RPCConfig struct {
	Enabled     bool     `conf:"rpc.enabled"`
	Addr        string   `conf:"rpc.addr"`
	Port        int      `conf:"rpc.port"`
	AllowedIPs  []string `conf:"rpc.allowed"`
	CORSOrigins []string `conf:"rpc.cors"` // Allowed CORS origins ("*" = all).
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// =============================================================================
// Directory helpers
// =============================================================================

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.privatepay
//	macOS:   ~/Library/Application Support/PrivatePay
//	Windows: %APPDATA%\PrivatePay
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".privatepay"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "PrivatePay")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "PrivatePay")
		}
		return filepath.Join(home, "AppData", "Roaming", "PrivatePay")
	default:
		return filepath.Join(home, ".privatepay")
	}
}

// NetworkDataDir returns the network-specific data directory.
func (c *Config) NetworkDataDir() string {
	return filepath.Join(c.DataDir, string(c.Network))
}

// StateDir returns the engine state database directory.
func (c *Config) StateDir() string {
	return filepath.Join(c.NetworkDataDir(), "state")
}

// LogsDir returns the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "privatepay.conf")
}
