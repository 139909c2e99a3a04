package exclusive

// Guard is an exclusive handle to the value stored in one [Slot]. It is
// only constructible through the slot's acquisition operations, and at
// most one guard exists per slot at a time.
//
// A Guard is intended for use by a single goroutine at a time. It may be
// handed off between goroutines, but must not be used concurrently.
type Guard[T any] struct {
	slot     *Slot[T]
	released bool
}

// Value returns a pointer to the stored value. The pointer is the only
// legal path to the value and is valid until the guard is released.
//
// Panics if the guard has already been released.
func (g *Guard[T]) Value() *T {
	if g.released {
		panic(panicGuardReleased)
	}

	return &g.slot.value
}

// Release returns the slot to [StateUnlocked] and wakes a blocked
// [Slot.Acquire] caller, if any. Release is idempotent; calls after the
// first are no-ops.
func (g *Guard[T]) Release() {
	if g.released {
		return
	}

	g.released = true
	g.slot.release(StateUnlocked)
}

// poison is the abnormal release path, invoked when a panic unwinds
// through [Slot.Do] or [Slot.DoWait] while the guard is held. On a
// blocking slot the state becomes [StatePoisoned]; a non-blocking slot
// just returns to unlocked.
func (g *Guard[T]) poison() {
	if g.released {
		return
	}

	g.released = true
	g.slot.release(StatePoisoned)
}
