package engine

import (
	"fmt"
	"strings"

	"github.com/emduc/PrivatePay/internal/wallet"
	"github.com/emduc/PrivatePay/pkg/eth"
)

// SessionInfo describes one derived session for enumeration.
type SessionInfo struct {
	Number    uint32 `json:"sessionNumber"`
	Address   string `json:"address"`
	IsCurrent bool   `json:"isCurrent"`
}

// WalletInfo is the summary returned to the UI.
type WalletInfo struct {
	MasterAddress         string `json:"masterAddress"`
	CurrentSessionAddress string `json:"currentSessionAddress"`
	SessionCount          uint32 `json:"sessionCount"`
}

// Connect allocates the next session: it increments and persists the
// session counter, derives the key, and installs it as current. The
// returned address is the decoy under spoofing. With no wallet imported
// it returns the empty string, the recoverable "not connected" state.
func (e *Engine) Connect() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.master == nil {
		e.logger.Debug().Msg("connect with no wallet imported")
		return "", nil
	}

	next := e.counter + 1
	if err := e.persistCounter(next); err != nil {
		return "", err
	}
	key, err := e.master.DeriveSession(next)
	if err != nil {
		return "", &DerivationError{Index: next, Err: err}
	}
	e.counter = next
	e.session = key

	e.logger.Info().
		Uint32("session", next).
		Str("address", key.Address().String()).
		Msg("new session connected")
	return e.displayAddress(key.Address()), nil
}

// CurrentAccount returns the current session's externally visible address,
// or the empty string when no session is active.
func (e *Engine) CurrentAccount() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return ""
	}
	return e.displayAddress(e.session.Address())
}

// Sessions re-derives and returns every session from index 1 through the
// current counter, newest first. Derivation is stateless so the walk is
// cheap at realistic session counts.
func (e *Engine) Sessions() ([]SessionInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.master == nil {
		return nil, ErrNoMasterIdentity
	}

	out := make([]SessionInfo, 0, e.counter)
	for n := e.counter; n >= 1; n-- {
		key, err := e.master.DeriveSession(n)
		if err != nil {
			return nil, &DerivationError{Index: n, Err: err}
		}
		out = append(out, SessionInfo{
			Number:    n,
			Address:   key.Address().String(),
			IsCurrent: e.session != nil && e.session.Index == n,
		})
	}
	return out, nil
}

// SwitchSession re-derives the key for a previously issued session number
// and installs it as current, persisting the counter at that value.
func (e *Engine) SwitchSession(n uint32) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.master == nil {
		return "", ErrNoMasterIdentity
	}
	if n < 1 || n > e.counter {
		return "", fmt.Errorf("unknown session %d", n)
	}
	key, err := e.master.DeriveSession(n)
	if err != nil {
		return "", &DerivationError{Index: n, Err: err}
	}
	if err := e.persistCounter(n); err != nil {
		return "", err
	}
	e.counter = n
	e.session = key

	e.logger.Info().Uint32("session", n).Msg("switched session")
	return key.Address().String(), nil
}

// ImportMaster validates a recovery phrase and installs it as the master
// identity, resetting the session counter. A malformed phrase leaves the
// prior wallet untouched.
func (e *Engine) ImportMaster(phrase string) (string, error) {
	phrase = strings.TrimSpace(phrase)
	master, err := wallet.NewMaster(phrase)
	if err != nil {
		return "", ErrInvalidPhrase
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.db.Put([]byte(keySeedPhrase), []byte(phrase)); err != nil {
		return "", err
	}
	if err := e.persistCounter(0); err != nil {
		return "", err
	}

	if e.master != nil {
		e.master.Clear()
	}
	e.master = master
	e.counter = 0
	e.session = nil

	addr := master.Address().String()
	e.logger.Info().Str("master", addr).Msg("wallet imported")
	return addr, nil
}

// Info returns the wallet summary for the UI.
func (e *Engine) Info() (*WalletInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.master == nil {
		return nil, ErrNoMasterIdentity
	}
	info := &WalletInfo{
		MasterAddress: e.master.Address().String(),
		SessionCount:  e.counter,
	}
	if e.session != nil {
		info.CurrentSessionAddress = e.session.Address().String()
	}
	return info, nil
}

// PersonalSign signs a message with the current session key per EIP-191.
// A 0x-prefixed message is treated as hex-encoded bytes, anything else as
// UTF-8 text.
func (e *Engine) PersonalSign(message string) (string, error) {
	e.mu.Lock()
	key := e.session
	e.mu.Unlock()

	if key == nil {
		return "", ErrNoMasterIdentity
	}
	return key.PersonalSign(messageBytes(message))
}

func messageBytes(message string) []byte {
	if strings.HasPrefix(message, "0x") || strings.HasPrefix(message, "0X") {
		if raw, err := eth.DecodeBytes(message); err == nil {
			return raw
		}
	}
	return []byte(message)
}
