// Package main provides exb, a contention benchmark for exclusive slots.
//
// Usage:
//
//	exb run [flags]             Run benchmark scenarios
//	exb show <results.json>     Pretty-print a results file
//
// Scenarios come from a HuJSON config file (see --config) or from a
// built-in default set. Results are printed as a table and optionally
// written to a JSON file (atomically, so a concurrent reader never sees a
// torn file).
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	natomic "github.com/natefinch/atomic"
	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/exclusive"
	"github.com/calvinalkan/exclusive/internal/cli"
	"github.com/calvinalkan/exclusive/internal/flock"
)

// Acquisition modes.
const (
	modeTry   = "try"
	modeWait  = "wait"
	modeMixed = "mixed"
)

var (
	errUnknownMode   = errors.New("unknown mode")
	errWaitNeedsLock = errors.New("mode wait/mixed requires a blocking slot")
	errNoResultsFile = errors.New("results file required")
)

// lockTimeout bounds how long exb waits for another instance writing the
// same results file.
const lockTimeout = 5 * time.Second

// Result holds the outcome of one scenario.
type Result struct {
	Name       string        `json:"name"`
	Goroutines int           `json:"goroutines"`
	Iterations int           `json:"iterations"`
	Blocking   bool          `json:"blocking"`
	Mode       string        `json:"mode"`
	Ops        int64         `json:"ops"`
	Busy       int64         `json:"busy"`
	Elapsed    time.Duration `json:"elapsed_ns"`
	OpsPerSec  float64       `json:"ops_per_sec"`
}

func main() {
	o := cli.NewIO(os.Stdout, os.Stderr)
	os.Exit(cli.Dispatch(context.Background(), o, "exb", commands(), os.Args[1:]))
}

func commands() []*cli.Command {
	return []*cli.Command{runCommand(), showCommand()}
}

func runCommand() *cli.Command {
	flags := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := flags.StringP("config", "c", "", "HuJSON scenario file")
	outPath := flags.StringP("out", "o", "", "write results JSON to this file")

	return &cli.Command{
		Flags: flags,
		Usage: "run [flags]",
		Short: "Run benchmark scenarios",
		Long: "Run runs each scenario from the config file (or the built-in\n" +
			"defaults) against a fresh slot and reports throughput and\n" +
			"contention counts.",
		Exec: func(_ context.Context, o *cli.IO, _ []string) error {
			scenarios, err := loadScenarios(*configPath)
			if err != nil {
				return err
			}

			results := make([]Result, 0, len(scenarios))

			for _, sc := range scenarios {
				res, err := runScenario(sc)
				if err != nil {
					o.Warn(fmt.Sprintf("scenario %s skipped: %v", sc.Name, err))

					continue
				}

				results = append(results, res)
			}

			printResults(o, results)

			if *outPath != "" {
				return writeResults(*outPath, results)
			}

			return nil
		},
	}
}

func showCommand() *cli.Command {
	flags := flag.NewFlagSet("show", flag.ContinueOnError)

	return &cli.Command{
		Flags: flags,
		Usage: "show <results.json>",
		Short: "Pretty-print a results file",
		Exec: func(_ context.Context, o *cli.IO, args []string) error {
			if len(args) != 1 {
				return errNoResultsFile
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read results: %w", err)
			}

			var results []Result

			if err := json.Unmarshal(data, &results); err != nil {
				return fmt.Errorf("parse results: %w", err)
			}

			printResults(o, results)

			return nil
		},
	}
}

// runScenario drives one scenario to completion and measures it.
func runScenario(sc Scenario) (Result, error) {
	if (sc.Mode == modeWait || sc.Mode == modeMixed) && !sc.Blocking {
		return Result{}, errWaitNeedsLock
	}

	var slot *exclusive.Slot[int64]
	if sc.Blocking {
		slot = exclusive.NewBlocking[int64](0)
	} else {
		slot = exclusive.New[int64](0)
	}

	var (
		wg   sync.WaitGroup
		busy atomic.Int64
	)

	start := time.Now()

	for i := range sc.Goroutines {
		wg.Add(1)

		// In mixed mode, odd workers block and even workers poll.
		waits := sc.Mode == modeWait || (sc.Mode == modeMixed && i%2 == 1)

		go func() {
			defer wg.Done()

			for range sc.Iterations {
				if waits {
					g := slot.Acquire()
					*g.Value()++
					g.Release()

					continue
				}

				g, err := slot.TryAcquire()
				if err != nil {
					busy.Add(1)

					continue
				}

				*g.Value()++
				g.Release()
			}
		}()
	}

	wg.Wait()

	elapsed := time.Since(start)
	ops := slot.Take()

	return Result{
		Name:       sc.Name,
		Goroutines: sc.Goroutines,
		Iterations: sc.Iterations,
		Blocking:   sc.Blocking,
		Mode:       sc.Mode,
		Ops:        ops,
		Busy:       busy.Load(),
		Elapsed:    elapsed,
		OpsPerSec:  float64(ops) / elapsed.Seconds(),
	}, nil
}

func printResults(o *cli.IO, results []Result) {
	o.Printf("%-20s %6s %6s %-6s %10s %10s %12s\n",
		"SCENARIO", "GOS", "ITERS", "MODE", "OPS", "BUSY", "OPS/SEC")

	for _, r := range results {
		o.Printf("%-20s %6d %6d %-6s %10d %10d %12.0f\n",
			r.Name, r.Goroutines, r.Iterations, r.Mode, r.Ops, r.Busy, r.OpsPerSec)
	}
}

// writeResults writes the results file atomically under an advisory lock,
// so concurrent exb instances targeting the same file serialize and a
// reader never observes a partial write.
func writeResults(path string, results []Result) error {
	lk, err := flock.Acquire(path, lockTimeout)
	if err != nil {
		return fmt.Errorf("lock results file: %w", err)
	}
	defer lk.Release()

	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}

	if err := natomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write results: %w", err)
	}

	return nil
}
