package config

// DefaultSepolia returns the default daemon configuration for Sepolia.
func DefaultSepolia() *Config {
	return &Config{
		Network: Sepolia,
		DataDir: DefaultDataDir(),
		Chain: ChainConfig{
			Endpoint: "https://ethereum-sepolia-rpc.publicnode.com",
			ChainID:  "0xaa36a7",
			Timeout:  15,
		},
		Funding: FundingConfig{
			BufferGwei:           10_000_000, // 0.01 ETH
			FallbackGasPriceGwei: 20,
			VerifyAttempts:       5,
			VerifyIntervalSec:    3,
			ConfirmAttempts:      40,
			ConfirmIntervalSec:   3,
		},
		RPC: RPCConfig{
			Enabled:    true,
			Addr:       "127.0.0.1",
			Port:       9645,
			AllowedIPs: []string{"127.0.0.1"},
		},
		Log: LogConfig{
			Level: "info",
			JSON:  false,
		},
	}
}

// DefaultMainnet returns the default daemon configuration for mainnet.
func DefaultMainnet() *Config {
	cfg := DefaultSepolia()
	cfg.Network = Mainnet
	cfg.Chain.Endpoint = "https://ethereum-rpc.publicnode.com"
	cfg.Chain.ChainID = "0x1"
	cfg.RPC.Port = 9545
	return cfg
}

// Default returns the default daemon configuration for the given network.
func Default(network NetworkType) *Config {
	switch network {
	case Mainnet:
		return DefaultMainnet()
	default:
		return DefaultSepolia()
	}
}
