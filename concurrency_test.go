package exclusive_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/calvinalkan/exclusive"
)

func Test_Acquire_Blocks_Until_Holder_Releases_And_Observes_Mutation(t *testing.T) {
	t.Parallel()

	slot := exclusive.NewBlocking(120)

	g, err := slot.TryAcquire()
	if err != nil {
		t.Fatalf("TryAcquire: %v", err)
	}

	var released atomic.Bool

	go func() {
		// Hold the guard long enough for the waiter below to be blocked
		// inside Acquire, not just racing it.
		time.Sleep(50 * time.Millisecond)

		*g.Value() *= 2
		released.Store(true)
		g.Release()
	}()

	g2 := slot.Acquire()

	if !released.Load() {
		t.Fatal("Acquire must not return before the holder releases")
	}

	if got := *g2.Value(); got != 240 {
		t.Fatalf("waiter must observe the holder's mutation 240; got %d", got)
	}

	g2.Release()
}

func Test_TryAcquire_Hands_Out_At_Most_One_Guard_Under_Contention(t *testing.T) {
	t.Parallel()

	for _, blocking := range []bool{false, true} {
		var slot *exclusive.Slot[int]
		if blocking {
			slot = exclusive.NewBlocking(0)
		} else {
			slot = exclusive.New(0)
		}

		const goroutines = 16
		const iterations = 200

		var (
			wg      sync.WaitGroup
			holders atomic.Int32
			busy    atomic.Int64
		)

		for range goroutines {
			wg.Add(1)

			go func() {
				defer wg.Done()

				for range iterations {
					g, err := slot.TryAcquire()
					if err != nil {
						if !errors.Is(err, exclusive.ErrBusy) {
							t.Errorf("TryAcquire must fail only with ErrBusy; got %v", err)

							return
						}

						busy.Add(1)

						continue
					}

					if n := holders.Add(1); n != 1 {
						t.Errorf("%d concurrent guards outstanding; want at most 1", n)
					}

					*g.Value()++

					holders.Add(-1)
					g.Release()
				}
			}()
		}

		wg.Wait()

		// Every successful acquisition incremented the value exactly once.
		total := int64(slot.Take()) + busy.Load()
		if total != goroutines*iterations {
			t.Fatalf("blocking=%v: successes+busy = %d; want %d", blocking, total, goroutines*iterations)
		}
	}
}

func Test_Acquire_Serializes_Competing_Waiters(t *testing.T) {
	t.Parallel()

	slot := exclusive.NewBlocking(0)

	const goroutines = 8
	const iterations = 100

	var (
		wg      sync.WaitGroup
		holders atomic.Int32
	)

	for range goroutines {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for range iterations {
				g := slot.Acquire()

				if n := holders.Add(1); n != 1 {
					t.Errorf("%d concurrent guards outstanding; want at most 1", n)
				}

				*g.Value()++

				holders.Add(-1)
				g.Release()
			}
		}()
	}

	wg.Wait()

	if got := slot.Take(); got != goroutines*iterations {
		t.Fatalf("every Acquire must mutate exactly once; got %d, want %d", got, goroutines*iterations)
	}
}

func Test_Mixed_TryAcquire_And_Acquire_Never_Overlap(t *testing.T) {
	t.Parallel()

	slot := exclusive.NewBlocking(0)

	const iterations = 200

	var (
		wg      sync.WaitGroup
		holders atomic.Int32
	)

	check := func(g *exclusive.Guard[int]) {
		if n := holders.Add(1); n != 1 {
			t.Errorf("%d concurrent guards outstanding; want at most 1", n)
		}

		*g.Value()++

		holders.Add(-1)
		g.Release()
	}

	wg.Add(2)

	go func() {
		defer wg.Done()

		for range iterations {
			check(slot.Acquire())
		}
	}()

	go func() {
		defer wg.Done()

		for range iterations {
			g, err := slot.TryAcquire()
			if err != nil {
				continue
			}

			check(g)
		}
	}()

	wg.Wait()
}
