package exclusive

import "errors"

// Sentinel errors returned by slot acquisition.
//
// Callers should use [errors.Is] to check error types:
//
//	if errors.Is(err, exclusive.ErrBusy) {
//	    // back off and retry
//	}
var (
	// ErrBusy indicates another guard is currently outstanding.
	//
	// Recovery: retry after the current holder releases, or use a
	// blocking slot and [Slot.Acquire] to wait for it.
	ErrBusy = errors.New("exclusive: busy")

	// ErrPoisoned indicates the previous holder ended abnormally and the
	// stored value may be inconsistent.
	//
	// Recovery: [Slot.Replace] with a known-good value.
	ErrPoisoned = errors.New("exclusive: poisoned")
)

// Panic messages for misuse of a slot. These are programming errors, not
// expected runtime conditions, so they abort the offending call instead of
// returning an error value.
const (
	panicReplaceLocked  = "exclusive: Replace while a guard is outstanding"
	panicTakeLocked     = "exclusive: Take while a guard is outstanding"
	panicTakePoisoned   = "exclusive: Take from a poisoned slot"
	panicCloneNotIdle   = "exclusive: Clone of a slot that is not unlocked"
	panicAcquirePoison  = "exclusive: slot poisoned: previous holder ended abnormally"
	panicAcquireNoBlock = "exclusive: Acquire on a non-blocking slot"
	panicGuardReleased  = "exclusive: guard used after release"
)
