package engine

import (
	"errors"
	"fmt"
	"math/big"
)

var (
	// ErrInvalidPhrase is returned when an imported recovery phrase fails
	// BIP-39 validation.
	ErrInvalidPhrase = errors.New("invalid recovery phrase")

	// ErrNoMasterIdentity is returned by operations that require an
	// imported wallet when none is loaded.
	ErrNoMasterIdentity = errors.New("no master identity loaded")

	// ErrTransactionNotFound is returned when a transaction id is not in
	// the pending queue.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrAlreadyProcessing is returned by a duplicate approval of a
	// transaction whose submission has already started.
	ErrAlreadyProcessing = errors.New("transaction already processing")

	// ErrUserRejected fails the original caller when the user rejects a
	// queued transaction.
	ErrUserRejected = errors.New("user rejected transaction")
)

// DerivationError wraps a session key derivation failure.
type DerivationError struct {
	Index uint32
	Err   error
}

func (e *DerivationError) Error() string {
	return fmt.Sprintf("derive session %d: %v", e.Index, e.Err)
}

func (e *DerivationError) Unwrap() error { return e.Err }

// InsufficientFundsError reports that neither the session key nor the
// funding source can cover a transaction. It carries both balances so the
// shortfall is diagnosable from the error alone.
type InsufficientFundsError struct {
	Needed    *big.Int // wei the funding source would have to move
	Available *big.Int // wei the funding source actually holds
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: need %s wei from funding source, have %s wei", e.Needed, e.Available)
}

// FundingVerificationError reports that a funding transfer confirmed but
// the session balance never caught up within the polling budget.
type FundingVerificationError struct {
	Attempts int
}

func (e *FundingVerificationError) Error() string {
	return fmt.Sprintf("funding not reflected in session balance after %d checks", e.Attempts)
}

// GasEstimationError wraps an eth_estimateGas failure.
type GasEstimationError struct {
	Err error
}

func (e *GasEstimationError) Error() string {
	return fmt.Sprintf("gas estimation failed: %v", e.Err)
}

func (e *GasEstimationError) Unwrap() error { return e.Err }

// BroadcastError wraps an eth_sendRawTransaction failure.
type BroadcastError struct {
	Err error
}

func (e *BroadcastError) Error() string {
	return fmt.Sprintf("broadcast failed: %v", e.Err)
}

func (e *BroadcastError) Unwrap() error { return e.Err }
