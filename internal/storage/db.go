// Package storage provides the key-value persistence abstraction for
// engine state (seed phrase, session counter, spoofing flag).
package storage

import "errors"

// ErrNotFound is returned by Get when a key does not exist. Callers use
// it to distinguish "never stored" from a real storage failure.
var ErrNotFound = errors.New("storage: key not found")

// DB is the interface for key-value storage.
type DB interface {
	// Get retrieves the value for key, or ErrNotFound.
	Get(key []byte) ([]byte, error)
	Put(key, value []byte) error
	Delete(key []byte) error
	Has(key []byte) (bool, error)
	Close() error
}
