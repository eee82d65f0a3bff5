// ABOUTME: Lock-free latest-value cell between control and render goroutines
// ABOUTME: Publishes immutable parameter snapshots tagged with a sequence number
package tap

import "sync/atomic"

type snapshot struct {
	params Params
	seq    uint64
}

// Exchange hands the newest Params from any number of writers to the render
// side. Readers never block and always see a complete tuple.
type Exchange struct {
	cur atomic.Pointer[snapshot]
	seq atomic.Uint64
}

// NewExchange creates an exchange holding initial at sequence 0
func NewExchange(initial Params) *Exchange {
	e := &Exchange{}
	e.cur.Store(&snapshot{params: initial})
	return e
}

// Publish stores p and returns its sequence number. A writer that loses a
// race to a newer publication leaves the newer value in place.
func (e *Exchange) Publish(p Params) uint64 {
	next := &snapshot{params: p, seq: e.seq.Add(1)}
	for {
		old := e.cur.Load()
		if old != nil && old.seq > next.seq {
			return next.seq
		}
		if e.cur.CompareAndSwap(old, next) {
			return next.seq
		}
	}
}

// Latest returns the most recent tuple and its sequence number
func (e *Exchange) Latest() (Params, uint64) {
	if e == nil {
		return DefaultParams(), 0
	}
	s := e.cur.Load()
	if s == nil {
		return DefaultParams(), 0
	}
	return s.params, s.seq
}
