package exclusive_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/exclusive"
)

// slotModel is the reference model for a blocking slot driven from a
// single goroutine: plain fields instead of atomics and native locks.
type slotModel struct {
	state exclusive.State
	value int
}

// Test_Slot_Matches_Model_Across_Random_Op_Sequences drives a real slot
// and the model through the same randomized operation sequence and
// requires identical observable behavior at every step. Panic-triggering
// ops (Replace while locked, faulting holders) are included; the model
// predicts them.
func Test_Slot_Matches_Model_Across_Random_Op_Sequences(t *testing.T) {
	t.Parallel()

	const (
		seeds = 20
		steps = 500
	)

	for seed := range int64(seeds) {
		rng := rand.New(rand.NewSource(seed))

		slot := exclusive.NewBlocking(0)
		model := slotModel{state: exclusive.StateUnlocked}

		var guard *exclusive.Guard[int]

		for step := range steps {
			require.Equal(t, model.state, slot.State(),
				"seed %d step %d: state diverged", seed, step)

			switch op := rng.Intn(6); op {
			case 0: // TryAcquire
				g, err := slot.TryAcquire()

				switch model.state {
				case exclusive.StateUnlocked:
					require.NoError(t, err, "seed %d step %d", seed, step)
					require.Equal(t, model.value, *g.Value(), "seed %d step %d", seed, step)

					guard = g
					model.state = exclusive.StateLocked
				case exclusive.StateLocked:
					require.ErrorIs(t, err, exclusive.ErrBusy, "seed %d step %d", seed, step)
				case exclusive.StatePoisoned:
					require.ErrorIs(t, err, exclusive.ErrPoisoned, "seed %d step %d", seed, step)
				}

			case 1: // mutate through the guard
				if guard == nil {
					continue
				}

				v := rng.Intn(1000)
				*guard.Value() = v
				model.value = v

			case 2: // Release
				if guard == nil {
					continue
				}

				guard.Release()

				guard = nil
				model.state = exclusive.StateUnlocked

			case 3: // faulting holder via Do
				if model.state != exclusive.StateUnlocked {
					continue
				}

				func() {
					defer func() {
						require.NotNil(t, recover(), "seed %d step %d: Do must re-panic", seed, step)
					}()

					_ = slot.Do(func(v *int) error {
						panic("model fault")
					})
				}()

				model.state = exclusive.StatePoisoned

			case 4: // Replace
				v := rng.Intn(1000)

				if model.state == exclusive.StateLocked {
					require.PanicsWithValue(t,
						"exclusive: Replace while a guard is outstanding",
						func() { slot.Replace(v) },
						"seed %d step %d", seed, step)

					continue
				}

				slot.Replace(v)

				model.value = v
				model.state = exclusive.StateUnlocked

			case 5: // inspection
				require.Equal(t, model.state == exclusive.StateUnlocked, slot.IsUnlocked(),
					"seed %d step %d", seed, step)
				require.Equal(t, model.state == exclusive.StateLocked, slot.IsLocked(),
					"seed %d step %d", seed, step)
				require.Equal(t, model.state == exclusive.StatePoisoned, slot.IsPoisoned(),
					"seed %d step %d", seed, step)
			}
		}

		if guard != nil {
			guard.Release()
			model.state = exclusive.StateUnlocked
		}

		if model.state == exclusive.StateUnlocked {
			require.Equal(t, model.value, slot.Take(), "seed %d: final value diverged", seed)
		}
	}
}
