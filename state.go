package exclusive

import "sync/atomic"

// State records whether a slot's value is currently borrowed exclusively,
// and whether a prior borrow ended abnormally.
type State uint32

const (
	// StateUnlocked means no guard is outstanding; the value may be
	// acquired, replaced, or taken.
	StateUnlocked State = iota

	// StateLocked means exactly one guard is outstanding; all other
	// acquisition attempts are rejected or block.
	StateLocked

	// StatePoisoned means the previous guard was released while a panic
	// was unwinding on a blocking slot. The slot rejects acquisition
	// until [Slot.Replace] installs a fresh value.
	StatePoisoned
)

// String returns the state name for diagnostics.
func (s State) String() string {
	switch s {
	case StateUnlocked:
		return "unlocked"
	case StateLocked:
		return "locked"
	case StatePoisoned:
		return "poisoned"
	default:
		return "invalid"
	}
}

// stateCell holds a State readable and writable through a shared reference.
//
// The unlocked->locked transition uses compare-and-swap so that concurrent
// TryAcquire calls on a non-blocking slot cannot both succeed. Releases use
// a plain store: the releasing guard already holds the sole right to decide
// the next state.
type stateCell struct {
	v atomic.Uint32
}

func (c *stateCell) load() State {
	return State(c.v.Load())
}

func (c *stateCell) store(s State) {
	c.v.Store(uint32(s))
}

func (c *stateCell) transition(from, to State) bool {
	return c.v.CompareAndSwap(uint32(from), uint32(to))
}
