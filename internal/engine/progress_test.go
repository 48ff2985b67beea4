package engine

import "testing"

func TestProgressLifecycle(t *testing.T) {
	e := testEngine(t, newFakeChain())

	if p := e.Progress(); p != nil {
		t.Fatalf("fresh engine has progress %+v", p)
	}

	e.setProgress("tx1", 1, totalSteps, "preparing transaction")
	p := e.Progress()
	if p == nil || p.TxID != "tx1" || p.Step != 1 || p.Status != StatusProcessing {
		t.Fatalf("progress = %+v", p)
	}

	// The returned record is a copy; mutating it does not leak back.
	p.Step = 99
	if got := e.Progress(); got.Step != 1 {
		t.Errorf("progress step = %d after mutating a copy", got.Step)
	}

	e.setProgressHash("tx1", "0xabc")
	e.setProgress("tx1", 5, totalSteps, "awaiting confirmation")
	if got := e.Progress(); got.Hash != "0xabc" {
		t.Errorf("hash dropped across step updates: %+v", got)
	}

	e.completeProgress("tx1", "0xabc")
	if got := e.Progress(); got.Status != StatusCompleted || got.Step != totalSteps {
		t.Errorf("completed progress = %+v", got)
	}
}

func TestProgressNewSubmissionOverrides(t *testing.T) {
	e := testEngine(t, newFakeChain())

	e.failProgress("tx1", "boom")
	e.setProgress("tx2", 1, totalSteps, "preparing transaction")

	p := e.Progress()
	if p.TxID != "tx2" || p.Status != StatusProcessing || p.Error != "" {
		t.Errorf("progress = %+v, want fresh tx2 record", p)
	}
	// tx1's scheduled clear must not wipe tx2's record; the timer was
	// cancelled on overwrite, so the record survives.
	if got := e.Progress(); got == nil || got.TxID != "tx2" {
		t.Errorf("progress = %+v", got)
	}
}

func TestProgressHashOnlyForMatchingTx(t *testing.T) {
	e := testEngine(t, newFakeChain())

	e.setProgress("tx1", 4, totalSteps, "submitting transaction")
	e.setProgressHash("other", "0xdead")
	if got := e.Progress(); got.Hash != "" {
		t.Errorf("hash = %s, want empty for mismatched tx", got.Hash)
	}
}
