package engine

import (
	"strings"

	"github.com/emduc/PrivatePay/pkg/eth"
)

// Synthetic balances returned by GetBalance. The engine fabricates these
// so pages in the sandboxed flow see a funded wallet without a node round
// trip: 100 ETH for the active session, 10 ETH for anyone else.
const (
	syntheticSessionBalance = "0x56bc75e2d630e0000"
	syntheticOtherBalance   = "0x8ac7230489e80000"
)

// ChainID returns the current chain id as a 0x-prefixed hex string.
func (e *Engine) ChainID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.chainID
}

// NetworkVersion returns the current network version as a decimal string.
func (e *Engine) NetworkVersion() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.netVersion
}

// SwitchChain installs a new chain id unconditionally; there is no list of
// supported chains to validate against.
func (e *Engine) SwitchChain(chainID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.chainID = chainID
	e.netVersion = networkVersion(chainID)
	e.logger.Info().Str("chain_id", chainID).Str("network", e.netVersion).Msg("chain switched")
}

// networkVersion derives the decimal network version from a hex chain id.
func networkVersion(chainID string) string {
	switch strings.ToLower(chainID) {
	case "0x1":
		return "1"
	case "0xaa36a7", "0x11155111":
		return "11155111"
	}
	n, err := eth.DecodeBig(chainID)
	if err != nil {
		return chainID
	}
	return n.String()
}

// SyntheticBalance returns the fabricated balance for an address: the
// session value when it matches the active session address, the other
// value for everything else.
func (e *Engine) SyntheticBalance(addr string) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session != nil && strings.EqualFold(addr, e.session.Address().String()) {
		return syntheticSessionBalance
	}
	return syntheticOtherBalance
}
