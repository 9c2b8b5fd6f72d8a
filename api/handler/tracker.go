package handler

import "sync/atomic"

// Tracker counts scrapes currently in progress for the health endpoint.
type Tracker struct {
	inFlight atomic.Int32
}

// Begin marks a scrape as started and returns the func that ends it.
// A nil Tracker is a no-op.
func (t *Tracker) Begin() func() {
	if t == nil {
		return func() {}
	}
	t.inFlight.Add(1)
	return func() { t.inFlight.Add(-1) }
}

// InFlight reports the number of running scrapes.
func (t *Tracker) InFlight() int {
	if t == nil {
		return 0
	}
	return int(t.inFlight.Load())
}
