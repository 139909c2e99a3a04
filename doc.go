// Package exclusive provides a single-slot container with exclusive access.
//
// A [Slot] stores one value and hands out at most one mutable view of it at
// a time. It is built for values that live in package-level variables: a
// Slot is constructed with no runtime work, so it can be declared alongside
// the value it protects and used from init code onward.
//
//	var shared = exclusive.NewBlocking(120)
//
//	g, err := shared.TryAcquire()
//	if err != nil {
//	    // another holder is active, or the slot is poisoned
//	}
//	*g.Value() *= 2
//	g.Release()
//
// # Ownership model
//
// A Slot is always in one of three states: [StateUnlocked], [StateLocked],
// or [StatePoisoned]. Acquisition moves the slot to StateLocked and returns
// a [Guard]; releasing the guard returns the slot to StateUnlocked. Exactly
// one guard may exist per slot at a time. This is not a general-purpose
// mutex: there is exactly one writer, never multiple readers, and
// acquisition is not reentrant.
//
// # Blocking slots
//
// A slot created with [NewBlocking] additionally owns a platform-native
// lock that lets [Slot.Acquire] sleep until the current holder releases,
// instead of polling [Slot.TryAcquire]. The native lock is materialized
// lazily on first use, so a blocking slot is still free to construct in a
// package-level variable.
//
// # Poisoning
//
// On a blocking slot, a holder that ends abnormally (a panic unwinds
// through [Slot.Do] or [Slot.DoWait]) leaves the slot in StatePoisoned.
// TryAcquire then returns [ErrPoisoned] and Acquire panics, because the
// stored value may be mid-mutation. Only [Slot.Replace] clears poison, by
// installing a known-good value. Slots without blocking support have no
// poisoned path; an abnormal release simply leaves them unlocked.
//
// # Error Handling
//
// Errors fall into two categories:
//
// Contention ([ErrBusy], [ErrPoisoned]): expected outcomes of TryAcquire;
// check with [errors.Is] and retry or recover.
//
// Misuse (Replace while locked, Take while locked or poisoned, Clone while
// not unlocked, Acquire on a non-blocking slot): programming errors,
// signaled by panic.
package exclusive
