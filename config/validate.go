package config

import (
	"fmt"

	"github.com/emduc/PrivatePay/pkg/eth"
)

// Validate checks runtime config for obvious operator mistakes.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.Network != Mainnet && cfg.Network != Sepolia {
		return fmt.Errorf("network must be %q or %q", Mainnet, Sepolia)
	}
	if cfg.Chain.Endpoint == "" {
		return fmt.Errorf("chain.endpoint is required")
	}
	if _, err := eth.DecodeBig(cfg.Chain.ChainID); err != nil {
		return fmt.Errorf("chain.id must be 0x-prefixed hex: %w", err)
	}
	if cfg.Chain.Timeout < 0 {
		return fmt.Errorf("chain.timeout must not be negative")
	}

	if cfg.Funding.PoolAddress != "" {
		if _, err := eth.ParseAddress(cfg.Funding.PoolAddress); err != nil {
			return fmt.Errorf("funding.pool: %w", err)
		}
	}
	if cfg.Funding.VerifyAttempts < 0 || cfg.Funding.ConfirmAttempts < 0 {
		return fmt.Errorf("funding attempt counts must not be negative")
	}
	if cfg.Funding.VerifyIntervalSec < 0 || cfg.Funding.ConfirmIntervalSec < 0 {
		return fmt.Errorf("funding intervals must not be negative")
	}

	if cfg.RPC.Port < 0 || cfg.RPC.Port > 65535 {
		return fmt.Errorf("rpc.port must be in range [0, 65535]")
	}

	return nil
}
