package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// LoadFile loads daemon configuration from a .conf file.
// Format: key = value (one per line, # for comments)
func LoadFile(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}
	defer file.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse key = value
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("line %d: invalid format (expected key = value)", lineNum)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present
		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}

		values[key] = value
	}

	return values, scanner.Err()
}

// ApplyFileConfig applies file configuration to a Config struct.
func ApplyFileConfig(cfg *Config, values map[string]string) error {
	for key, value := range values {
		if err := setConfigValue(cfg, key, value); err != nil {
			return fmt.Errorf("config key %q: %w", key, err)
		}
	}
	return nil
}

// setConfigValue sets a config value by key.
func setConfigValue(cfg *Config, key, value string) error {
	switch key {
	// Core
	case "network":
		cfg.Network = NetworkType(value)
	case "datadir":
		cfg.DataDir = value

	// Chain
	case "chain.endpoint":
		cfg.Chain.Endpoint = value
	case "chain.id":
		cfg.Chain.ChainID = value
	case "chain.timeout":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Chain.Timeout = n

	// Funding
	case "funding.pool":
		cfg.Funding.PoolAddress = value
	case "funding.buffer_gwei":
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		cfg.Funding.BufferGwei = n
	case "funding.fallback_gas_price_gwei":
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		cfg.Funding.FallbackGasPriceGwei = n
	case "funding.verify_attempts":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Funding.VerifyAttempts = n
	case "funding.verify_interval":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Funding.VerifyIntervalSec = n
	case "funding.confirm_attempts":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Funding.ConfirmAttempts = n
	case "funding.confirm_interval":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Funding.ConfirmIntervalSec = n

	// RPC
	case "rpc.enabled", "rpc":
		cfg.RPC.Enabled = parseBool(value)
	case "rpc.addr":
		cfg.RPC.Addr = value
	case "rpc.port":
		port, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.RPC.Port = port
	case "rpc.allowed":
		cfg.RPC.AllowedIPs = parseStringList(value)
	case "rpc.cors":
		cfg.RPC.CORSOrigins = parseStringList(value)

	// Logging
	case "log.level":
		cfg.Log.Level = value
	case "log.file":
		cfg.Log.File = value
	case "log.json":
		cfg.Log.JSON = parseBool(value)

	default:
		// Unknown keys are ignored
	}
	return nil
}

// parseBool parses a boolean value.
func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// parseStringList parses a comma-separated list.
func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// WriteDefaultConfig writes a default daemon configuration file.
func WriteDefaultConfig(path string, network NetworkType) error {
	defaults := Default(network)
	content := `# PrivatePay Daemon Configuration

# Network: sepolia or mainnet
network = ` + string(network) + `

# Data directory (default: ~/.privatepay)
# datadir = ~/.privatepay

# ============================================================================
# Ethereum Node
# ============================================================================

chain.endpoint = ` + defaults.Chain.Endpoint + `
chain.id = ` + defaults.Chain.ChainID + `
# HTTP timeout in seconds
# chain.timeout = 15

# ============================================================================
# Session Funding
# ============================================================================

# Liquidity pool contract for pool-mediated funding (empty = direct only)
# funding.pool = <pool-contract-address>

# Safety margin added to every shortfall, in gwei (default: 0.01 ETH)
# funding.buffer_gwei = 10000000

# Gas price assumed when the node has no fee data, in gwei
# funding.fallback_gas_price_gwei = 20

# Post-funding balance poll
# funding.verify_attempts = 5
# funding.verify_interval = 3

# Receipt poll for funding and submitted transactions
# funding.confirm_attempts = 40
# funding.confirm_interval = 3

# ============================================================================
# RPC Server
# ============================================================================

rpc.enabled = true
rpc.addr = 127.0.0.1
rpc.port = ` + strconv.Itoa(defaults.RPC.Port) + `
rpc.allowed = 127.0.0.1
# CORS allowed origins ("*" for all)
# rpc.cors = http://localhost:3000

# ============================================================================
# Logging
# ============================================================================

log.level = info
# log.file =
log.json = false
`
	return os.WriteFile(path, []byte(content), 0644)
}
