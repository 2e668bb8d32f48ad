package traffic

import (
	"sync"
	"time"
)

// retention bounds how far back outcomes are kept.
const retention = 5 * time.Minute

var defaultTracker = NewTracker(time.Now)

// RecordSuccess records an upstream call that got an answer (any status below 500).
func RecordSuccess() {
	defaultTracker.RecordSuccess()
}

// RecordError records an upstream call that failed in transport or with a 5xx.
func RecordError() {
	defaultTracker.RecordError()
}

// ErrorRate returns (errorCount, totalCount) for upstream calls within the window.
func ErrorRate(window time.Duration) (errors, total int) {
	return defaultTracker.ErrorRate(window)
}

// Reset clears all recorded outcomes. For tests only.
func Reset() {
	defaultTracker.Reset()
}

// Tracker keeps sliding windows of upstream call outcomes.
type Tracker struct {
	mu        sync.Mutex
	now       func() time.Time
	successes []time.Time
	errors    []time.Time
}

func NewTracker(now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{now: now}
}

func (t *Tracker) RecordSuccess() {
	t.record(&t.successes)
}

func (t *Tracker) RecordError() {
	t.record(&t.errors)
}

func (t *Tracker) record(times *[]time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	*times = append(*times, now)
	t.pruneLocked(now)
}

// ErrorRate returns (errorCount, totalCount) within the window.
func (t *Tracker) ErrorRate(window time.Duration) (errors, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	cutoff := t.now().Add(-window)
	errs := countSince(t.errors, cutoff)
	return errs, errs + countSince(t.successes, cutoff)
}

func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.successes = nil
	t.errors = nil
}

func countSince(times []time.Time, cutoff time.Time) int {
	n := 0
	for _, ts := range times {
		if !ts.Before(cutoff) {
			n++
		}
	}
	return n
}

// pruneLocked drops outcomes older than retention. Slices are in insertion order.
// Must be called with mutex held.
func (t *Tracker) pruneLocked(now time.Time) {
	cutoff := now.Add(-retention)
	for _, times := range []*[]time.Time{&t.successes, &t.errors} {
		i := 0
		for i < len(*times) && (*times)[i].Before(cutoff) {
			i++
		}
		if i > 0 {
			*times = append((*times)[:0], (*times)[i:]...)
		}
	}
}
