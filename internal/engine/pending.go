package engine

import (
	"sort"
	"strconv"
	"time"

	"github.com/emduc/PrivatePay/pkg/eth"
)

// TxResult is delivered on a pending transaction's result channel exactly
// once: the broadcast hash on success, the terminal error otherwise.
type TxResult struct {
	Hash eth.Hash
	Err  error
}

// PendingTx is one transaction awaiting user approval. The original
// caller blocks on result until approval resolves or rejection fails it.
type PendingTx struct {
	ID         string
	Params     map[string]interface{}
	ReceivedAt time.Time

	processing bool
	result     chan TxResult
}

// PendingInfo is the display snapshot of a pending transaction.
type PendingInfo struct {
	ID             string                 `json:"txId"`
	Params         map[string]interface{} `json:"params"`
	ReceivedAt     time.Time              `json:"receivedAt"`
	SessionAddress string                 `json:"sessionAddress"`
}

// Enqueue stores transaction parameters for approval and returns the
// generated id plus the channel the eventual result arrives on.
func (e *Engine) Enqueue(params map[string]interface{}) (string, <-chan TxResult) {
	e.mu.Lock()
	defer e.mu.Unlock()

	// Millisecond timestamps collide under rapid submission; bump until
	// unique.
	ms := time.Now().UnixMilli()
	if ms <= e.lastID {
		ms = e.lastID + 1
	}
	e.lastID = ms
	id := strconv.FormatInt(ms, 10)

	p := &PendingTx{
		ID:         id,
		Params:     params,
		ReceivedAt: time.Now(),
		result:     make(chan TxResult, 1),
	}
	e.pending[id] = p

	// Best-effort user notification; the structured log is the channel
	// the approval UI polls through getPendingTransactions anyway.
	e.logger.Info().
		Str("tx_id", id).
		Int("pending", len(e.pending)).
		Msg("transaction awaiting approval")
	return id, p.result
}

// Approve hands an awaiting transaction to the submission pipeline. The
// processing flag is set under the lock, so a duplicate approval reports
// ErrAlreadyProcessing and does nothing; the record stays findable until
// submission resolves but drops out of the UI list immediately.
func (e *Engine) Approve(id string) error {
	e.mu.Lock()
	p, ok := e.pending[id]
	if !ok {
		e.mu.Unlock()
		return ErrTransactionNotFound
	}
	if p.processing {
		e.mu.Unlock()
		return ErrAlreadyProcessing
	}
	p.processing = true
	e.mu.Unlock()

	e.logger.Info().Str("tx_id", id).Msg("transaction approved")
	go e.submit(p)
	return nil
}

// remove drops a record from the queue once its caller has been resolved.
func (e *Engine) remove(id string) {
	e.mu.Lock()
	delete(e.pending, id)
	e.mu.Unlock()
}

// Reject removes an awaiting transaction and fails the original caller
// with the user-rejection reason. A transaction whose approval has begun
// processing can no longer be rejected.
func (e *Engine) Reject(id string) error {
	e.mu.Lock()
	p, ok := e.pending[id]
	if !ok {
		e.mu.Unlock()
		return ErrTransactionNotFound
	}
	if p.processing {
		e.mu.Unlock()
		return ErrAlreadyProcessing
	}
	delete(e.pending, id)
	e.mu.Unlock()

	p.result <- TxResult{Err: ErrUserRejected}
	e.logger.Info().Str("tx_id", id).Msg("transaction rejected")
	return nil
}

// PendingTransactions returns a snapshot of the transactions still
// awaiting a decision, oldest first. Approved records being submitted are
// excluded.
func (e *Engine) PendingTransactions() []PendingInfo {
	e.mu.Lock()
	defer e.mu.Unlock()

	session := ""
	if e.session != nil {
		session = e.session.Address().String()
	}
	out := make([]PendingInfo, 0, len(e.pending))
	for _, p := range e.pending {
		if p.processing {
			continue
		}
		out = append(out, PendingInfo{
			ID:             p.ID,
			Params:         p.Params,
			ReceivedAt:     p.ReceivedAt,
			SessionAddress: session,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
