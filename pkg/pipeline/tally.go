package pipeline

import "sync"

// Totals is one snapshot of run statistics. Fields that do not apply to
// a given command simply stay zero.
type Totals struct {
	Pages        int64
	Requests     int64
	Records      int64
	Skipped      int64
	Batches      int64
	InputTokens  int64
	OutputTokens int64
	CostUSD      float64
}

// Tally accumulates run statistics. All updates flow through one
// mutex-guarded Add, so concurrent workers never race on the totals and
// the final summary is exact.
type Tally struct {
	mu     sync.Mutex
	totals Totals
}

// Add folds a delta into the running totals.
func (t *Tally) Add(delta Totals) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.totals.Pages += delta.Pages
	t.totals.Requests += delta.Requests
	t.totals.Records += delta.Records
	t.totals.Skipped += delta.Skipped
	t.totals.Batches += delta.Batches
	t.totals.InputTokens += delta.InputTokens
	t.totals.OutputTokens += delta.OutputTokens
	t.totals.CostUSD += delta.CostUSD
}

// Snapshot returns a copy of the current totals.
func (t *Tally) Snapshot() Totals {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.totals
}
