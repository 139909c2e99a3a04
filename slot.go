package exclusive

import (
	"fmt"

	"github.com/calvinalkan/exclusive/internal/oslock"
)

// Slot is a single-slot container holding one value of type T, with at
// most one outstanding mutable view at a time.
//
// The zero value is a ready, unlocked, non-blocking slot holding the zero
// value of T. Construction performs no runtime work, so a Slot may be
// declared as a package-level variable:
//
//	var current = exclusive.New(Config{Port: 8080})
//
// Read operations (State, IsUnlocked, String) are safe for concurrent use.
// Acquisition is safe for concurrent use; the value itself is only ever
// reachable through the single outstanding [Guard].
//
// A Slot must not be copied after first use.
type Slot[T any] struct {
	state    stateCell
	blocking bool

	// lock is the platform-native blocking primitive. It is only used
	// when blocking is set, and its native handle is materialized lazily
	// on first use so that construction stays free of OS work.
	lock oslock.Lock

	value T
}

// New returns an unlocked, non-blocking slot holding value.
//
// A non-blocking slot supports [Slot.TryAcquire] and [Slot.Do] but not
// [Slot.Acquire], and has no poisoned state: a holder that ends abnormally
// leaves the slot unlocked again, and the value's internal consistency is
// the caller's responsibility.
func New[T any](value T) *Slot[T] {
	return &Slot[T]{value: value}
}

// NewBlocking returns an unlocked slot holding value with blocking support
// enabled: [Slot.Acquire] and [Slot.DoWait] sleep until the current holder
// releases, and an abnormal release poisons the slot.
func NewBlocking[T any](value T) *Slot[T] {
	return &Slot[T]{value: value, blocking: true}
}

// TryAcquire attempts to take exclusive ownership of the slot without
// suspending. On success the slot transitions to [StateLocked] and the
// returned guard is the only path to the stored value until released.
//
// Returns [ErrBusy] if another guard is outstanding, [ErrPoisoned] if the
// previous holder ended abnormally. Both mean "no guard".
func (s *Slot[T]) TryAcquire() (*Guard[T], error) {
	if s.blocking {
		// Guard holders keep the native lock for their whole lifetime,
		// so a failed try here means a holder or a waking waiter is
		// active. State is only consulted afterwards, which closes the
		// window between a waiter's wake-up and a non-blocking acquirer.
		if !s.lock.TryAcquire() {
			return nil, ErrBusy
		}

		if s.state.load() == StatePoisoned {
			s.lock.Release()

			return nil, ErrPoisoned
		}

		s.state.store(StateLocked)

		return &Guard[T]{slot: s}, nil
	}

	for {
		switch s.state.load() {
		case StateLocked:
			return nil, ErrBusy
		case StatePoisoned:
			return nil, ErrPoisoned
		}

		if s.state.transition(StateUnlocked, StateLocked) {
			return &Guard[T]{slot: s}, nil
		}
	}
}

// Acquire takes exclusive ownership of the slot, suspending the calling
// goroutine inside the platform-native lock until the current holder's
// guard releases. The native lock is initialized on first use.
//
// Acquire has no timeout and no cancellation; callers needing a deadline
// must race it on a separate goroutine or use [Slot.TryAcquire].
//
// Panics if the slot is non-blocking, or if it wakes to find the slot
// poisoned: the previous holder ended abnormally and the value must not be
// handed out silently.
func (s *Slot[T]) Acquire() *Guard[T] {
	if !s.blocking {
		panic(panicAcquireNoBlock)
	}

	s.lock.Acquire()

	// Holding the native lock proves no guard is alive, so the state is
	// either unlocked or poisoned here.
	if s.state.load() == StatePoisoned {
		s.lock.Release()

		panic(panicAcquirePoison)
	}

	s.state.store(StateLocked)

	return &Guard[T]{slot: s}
}

// Do runs fn with exclusive access to the stored value, without blocking:
// if the slot is unavailable, Do returns [ErrBusy] or [ErrPoisoned] and fn
// does not run. Otherwise Do returns fn's error.
//
// Do is the panic-aware form of acquisition: if fn panics, the slot is
// poisoned (blocking slots only) before the panic continues to propagate.
func (s *Slot[T]) Do(fn func(v *T) error) error {
	g, err := s.TryAcquire()
	if err != nil {
		return err
	}

	return runGuarded(g, fn)
}

// DoWait is [Slot.Do] on top of [Slot.Acquire]: it sleeps until the slot
// is available, then runs fn with exclusive access. Like Acquire, it
// panics on a non-blocking or poisoned slot.
func (s *Slot[T]) DoWait(fn func(v *T) error) error {
	return runGuarded(s.Acquire(), fn)
}

// runGuarded releases g when fn returns, or poisons the slot if fn panics.
// The completed flag, not recover, detects the unwind: the panic must keep
// propagating to the caller unhandled.
func runGuarded[T any](g *Guard[T], fn func(v *T) error) (err error) {
	completed := false

	defer func() {
		if completed {
			g.Release()
		} else {
			g.poison()
		}
	}()

	err = fn(g.Value())
	completed = true

	return err
}

// Replace swaps the stored value for v and returns the slot to
// [StateUnlocked]. It is the only way to clear a poisoned slot.
//
// The native lock, if one was materialized, is torn down and rebuilt on
// next use, so a poisoned or contended history does not leak into the
// replacement value's lifetime.
//
// Panics if a guard is outstanding: replacing a borrowed value would
// violate the single-owner invariant. The stored value is not altered in
// that case.
func (s *Slot[T]) Replace(v T) {
	if s.state.load() == StateLocked {
		panic(panicReplaceLocked)
	}

	s.value = v
	s.state.store(StateUnlocked)

	if s.blocking {
		s.lock.Reset()
	}
}

// Take consumes the slot and returns the stored value. The slot must not
// be used after Take.
//
// Panics if a guard is outstanding or the slot is poisoned: an outstanding
// or broken borrow must not be silently discarded.
func (s *Slot[T]) Take() T {
	switch s.state.load() {
	case StateLocked:
		panic(panicTakeLocked)
	case StatePoisoned:
		panic(panicTakePoisoned)
	}

	if s.blocking {
		s.lock.Reset()
	}

	return s.value
}

// Clone returns a new, independent slot with the same blocking
// configuration, a fresh native lock, and a copy of the stored value.
// The copy uses Go assignment semantics; values containing pointers share
// their pointees.
//
// Panics unless the slot is unlocked.
func (s *Slot[T]) Clone() *Slot[T] {
	if s.state.load() != StateUnlocked {
		panic(panicCloneNotIdle)
	}

	return &Slot[T]{value: s.value, blocking: s.blocking}
}

// State returns the current ownership state. Pure inspection, no side
// effects.
func (s *Slot[T]) State() State {
	return s.state.load()
}

// IsUnlocked reports whether no guard is outstanding.
func (s *Slot[T]) IsUnlocked() bool { return s.State() == StateUnlocked }

// IsLocked reports whether a guard is outstanding.
func (s *Slot[T]) IsLocked() bool { return s.State() == StateLocked }

// IsPoisoned reports whether the previous holder ended abnormally.
func (s *Slot[T]) IsPoisoned() bool { return s.State() == StatePoisoned }

// String renders the slot state for diagnostics. The value is only shown
// while the slot is unlocked; a borrowed or poisoned value is not read.
func (s *Slot[T]) String() string {
	switch st := s.state.load(); st {
	case StateUnlocked:
		return fmt.Sprintf("Slot{state: %s, value: %v}", st, s.value)
	default:
		return fmt.Sprintf("Slot{state: %s, value: <%s>}", st, st)
	}
}

// release is the guard's write-back path. st is StateUnlocked for a normal
// release; an abnormal release on a blocking slot passes StatePoisoned.
// Non-blocking slots have no poisoned path.
func (s *Slot[T]) release(st State) {
	if st == StatePoisoned && !s.blocking {
		st = StateUnlocked
	}

	s.state.store(st)

	if s.blocking {
		s.lock.Release()
	}
}
