package engine

import "time"

// Progress statuses.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusError      = "error"
)

// Self-clear delays after a terminal status, so the UI does not show
// stale state indefinitely.
const (
	clearAfterSuccess = 5 * time.Second
	clearAfterError   = 10 * time.Second
)

// Progress is the single observable snapshot of an in-flight submission.
// At most one exists; each new submission overwrites it.
type Progress struct {
	TxID       string `json:"txId"`
	Step       int    `json:"step"`
	TotalSteps int    `json:"totalSteps"`
	Label      string `json:"label"`
	Status     string `json:"status"`
	Hash       string `json:"hash,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Progress returns a copy of the current progress record, or nil when no
// submission is in flight.
func (e *Engine) Progress() *Progress {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.progress == nil {
		return nil
	}
	p := *e.progress
	return &p
}

// setProgress records a processing step, cancelling any scheduled clear
// from a previous submission.
func (e *Engine) setProgress(txID string, step, total int, label string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cancelClearLocked()
	hash := ""
	if e.progress != nil && e.progress.TxID == txID {
		hash = e.progress.Hash
	}
	e.progress = &Progress{
		TxID:       txID,
		Step:       step,
		TotalSteps: total,
		Label:      label,
		Status:     StatusProcessing,
		Hash:       hash,
	}
}

// setProgressHash attaches the broadcast hash to the current record.
func (e *Engine) setProgressHash(txID, hash string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.progress != nil && e.progress.TxID == txID {
		e.progress.Hash = hash
	}
}

// completeProgress marks the submission confirmed and schedules the clear.
func (e *Engine) completeProgress(txID, hash string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cancelClearLocked()
	e.progress = &Progress{
		TxID:       txID,
		Step:       totalSteps,
		TotalSteps: totalSteps,
		Label:      "transaction confirmed",
		Status:     StatusCompleted,
		Hash:       hash,
	}
	e.scheduleClearLocked(txID, clearAfterSuccess)
}

// failProgress marks the submission failed and schedules the clear. The
// hash stays attached when failure happened after broadcast.
func (e *Engine) failProgress(txID, message string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cancelClearLocked()
	hash := ""
	step := 0
	if e.progress != nil && e.progress.TxID == txID {
		hash = e.progress.Hash
		step = e.progress.Step
	}
	e.progress = &Progress{
		TxID:       txID,
		Step:       step,
		TotalSteps: totalSteps,
		Label:      "transaction failed",
		Status:     StatusError,
		Hash:       hash,
		Error:      message,
	}
	e.scheduleClearLocked(txID, clearAfterError)
}

func (e *Engine) cancelClearLocked() {
	if e.progressTimer != nil {
		e.progressTimer.Stop()
		e.progressTimer = nil
	}
}

func (e *Engine) scheduleClearLocked(txID string, after time.Duration) {
	e.progressTimer = time.AfterFunc(after, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		// A newer submission may have taken over the record.
		if e.progress != nil && e.progress.TxID == txID {
			e.progress = nil
			e.progressTimer = nil
		}
	})
}
