// exsh is an interactive shell for poking at an exclusive slot.
//
// Usage:
//
//	exsh [--blocking=false] [initial-value]
//
// Commands (in REPL):
//
//	state                    Show the slot state
//	try                      Non-blocking acquire; holds the guard
//	wait                     Blocking acquire; holds the guard
//	release                  Release the held guard
//	get                      Show the stored value
//	set <value>              Set the value (requires a held guard)
//	replace <value>          Whole-value swap (clears poison)
//	take                     Consume the slot and print its value
//	clone                    Swap to an independent clone of the slot
//	poison                   Panic while holding, demonstrating poisoning
//	hold <ms> [value]        Background holder: acquire, sleep, set, release
//	new <value> [blocking]   Start over with a fresh slot
//	help                     Show this help
//	exit / quit / q          Exit
//
// exsh exists to make the ownership state machine visible: run "hold 2000
// x" then "wait" to watch a blocking acquisition sleep until hand-off, or
// "poison" then "try" to see ErrPoisoned and recover with "replace".
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/exclusive"
	"github.com/calvinalkan/exclusive/internal/flock"
)

const historyLockTimeout = time.Second

var (
	errNoSlot       = errors.New("no slot; use: new <value> [blocking]")
	errNoGuard      = errors.New("no guard held; use: try or wait")
	errGuardHeld    = errors.New("guard already held; release it first")
	errMissingValue = errors.New("missing value argument")
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flags := flag.NewFlagSet("exsh", flag.ContinueOnError)
	blocking := flags.Bool("blocking", true, "enable blocking support on the initial slot")

	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}

		return err
	}

	initial := "hello"
	if args := flags.Args(); len(args) > 0 {
		initial = args[0]
	}

	r := &repl{out: os.Stdout}
	r.newSlot(initial, *blocking)

	return r.loop()
}

// repl holds the shell state: the slot under inspection and the guard, if
// one is currently held by the shell itself.
type repl struct {
	slot     *exclusive.Slot[string]
	guard    *exclusive.Guard[string]
	blocking bool
	out      io.Writer
	liner    *liner.State
}

func (r *repl) newSlot(value string, blocking bool) {
	if blocking {
		r.slot = exclusive.NewBlocking(value)
	} else {
		r.slot = exclusive.New(value)
	}

	r.blocking = blocking
	r.guard = nil
}

func (r *repl) loop() error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(completer)

	histPath := historyPath()
	r.readHistory(histPath)

	defer r.writeHistory(histPath)

	for {
		line, err := r.liner.Prompt("exsh> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				return nil
			}

			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		r.liner.AppendHistory(line)

		fields := strings.Fields(line)
		cmd, args := fields[0], fields[1:]

		if cmd == "exit" || cmd == "quit" || cmd == "q" {
			return nil
		}

		if err := r.dispatch(cmd, args); err != nil {
			fmt.Fprintf(r.out, "error: %v\n", err)
		}
	}
}

func (r *repl) dispatch(cmd string, args []string) error {
	if r.slot == nil && cmd != "new" && cmd != "help" {
		return errNoSlot
	}

	switch cmd {
	case "state":
		fmt.Fprintln(r.out, r.slot.State())

		return nil
	case "try":
		return r.cmdTry()
	case "wait":
		return r.cmdWait()
	case "release":
		return r.cmdRelease()
	case "get":
		return r.cmdGet()
	case "set":
		return r.cmdSet(args)
	case "replace":
		return r.cmdReplace(args)
	case "take":
		return r.cmdTake()
	case "clone":
		return r.cmdClone()
	case "poison":
		return r.cmdPoison()
	case "hold":
		return r.cmdHold(args)
	case "new":
		return r.cmdNew(args)
	case "help":
		printHelp(r.out)

		return nil
	default:
		return fmt.Errorf("unknown command: %s (try: help)", cmd)
	}
}

func (r *repl) cmdTry() error {
	if r.guard != nil {
		return errGuardHeld
	}

	g, err := r.slot.TryAcquire()
	if err != nil {
		return err
	}

	r.guard = g
	fmt.Fprintln(r.out, "acquired")

	return nil
}

func (r *repl) cmdWait() error {
	if r.guard != nil {
		return errGuardHeld
	}

	if !r.blocking {
		return errors.New("wait requires a blocking slot (new <value> blocking)")
	}

	start := time.Now()
	r.guard = r.slot.Acquire()
	fmt.Fprintf(r.out, "acquired after %v\n", time.Since(start).Round(time.Millisecond))

	return nil
}

func (r *repl) cmdRelease() error {
	if r.guard == nil {
		return errNoGuard
	}

	r.guard.Release()
	r.guard = nil
	fmt.Fprintln(r.out, "released")

	return nil
}

func (r *repl) cmdGet() error {
	if r.guard != nil {
		fmt.Fprintln(r.out, *r.guard.Value())

		return nil
	}

	// No guard: the diagnostic form hides the value unless unlocked.
	fmt.Fprintln(r.out, r.slot)

	return nil
}

func (r *repl) cmdSet(args []string) error {
	if r.guard == nil {
		return errNoGuard
	}

	if len(args) == 0 {
		return errMissingValue
	}

	*r.guard.Value() = strings.Join(args, " ")

	return nil
}

func (r *repl) cmdReplace(args []string) error {
	if len(args) == 0 {
		return errMissingValue
	}

	if r.slot.IsLocked() {
		// Surface the misuse as a shell error instead of crashing.
		return errors.New("replace while a guard is outstanding")
	}

	r.slot.Replace(strings.Join(args, " "))
	fmt.Fprintln(r.out, "replaced; state", r.slot.State())

	return nil
}

func (r *repl) cmdTake() error {
	switch r.slot.State() {
	case exclusive.StateLocked:
		return errors.New("take while a guard is outstanding")
	case exclusive.StatePoisoned:
		return errors.New("take from a poisoned slot; replace first")
	}

	fmt.Fprintln(r.out, r.slot.Take())

	r.slot = nil
	r.guard = nil

	return nil
}

func (r *repl) cmdClone() error {
	if !r.slot.IsUnlocked() {
		return fmt.Errorf("clone requires an unlocked slot; state %s", r.slot.State())
	}

	r.slot = r.slot.Clone()
	fmt.Fprintln(r.out, "now inspecting an independent clone")

	return nil
}

// cmdPoison acquires the slot and panics while holding it, recovering at
// the shell boundary so the poisoned state can be inspected afterwards.
func (r *repl) cmdPoison() error {
	if r.guard != nil {
		return errGuardHeld
	}

	func() {
		defer func() { _ = recover() }()

		_ = r.slot.Do(func(v *string) error {
			*v = "(torn write)"

			panic("poison command")
		})
	}()

	fmt.Fprintln(r.out, "holder died; state", r.slot.State())

	return nil
}

func (r *repl) cmdHold(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: hold <ms> [value]")
	}

	ms, err := strconv.Atoi(args[0])
	if err != nil || ms < 0 {
		return fmt.Errorf("invalid duration %q", args[0])
	}

	g, err := r.slot.TryAcquire()
	if err != nil {
		return err
	}

	value := ""
	if len(args) > 1 {
		value = strings.Join(args[1:], " ")
	}

	go func() {
		time.Sleep(time.Duration(ms) * time.Millisecond)

		if value != "" {
			*g.Value() = value
		}

		g.Release()
	}()

	fmt.Fprintf(r.out, "background holder releases in %dms\n", ms)

	return nil
}

func (r *repl) cmdNew(args []string) error {
	if len(args) == 0 {
		return errMissingValue
	}

	if r.guard != nil {
		r.guard.Release()
	}

	blocking := false
	value := args

	if last := args[len(args)-1]; last == "blocking" {
		blocking = true
		value = args[:len(args)-1]
	}

	if len(value) == 0 {
		return errMissingValue
	}

	r.newSlot(strings.Join(value, " "), blocking)
	fmt.Fprintf(r.out, "new slot (blocking=%v)\n", blocking)

	return nil
}

func completer(line string) []string {
	cmds := []string{
		"state", "try", "wait", "release", "get", "set", "replace",
		"take", "clone", "poison", "hold", "new", "help", "exit",
	}

	var out []string

	for _, c := range cmds {
		if strings.HasPrefix(c, strings.ToLower(line)) {
			out = append(out, c)
		}
	}

	return out
}

func printHelp(w io.Writer) {
	fmt.Fprint(w, `Commands:
  state                    Show the slot state
  try                      Non-blocking acquire; holds the guard
  wait                     Blocking acquire; holds the guard
  release                  Release the held guard
  get                      Show the stored value
  set <value>              Set the value (requires a held guard)
  replace <value>          Whole-value swap (clears poison)
  take                     Consume the slot and print its value
  clone                    Swap to an independent clone of the slot
  poison                   Panic while holding, demonstrating poisoning
  hold <ms> [value]        Background holder: acquire, sleep, set, release
  new <value> [blocking]   Start over with a fresh slot
  exit / quit / q          Exit
`)
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".exsh_history")
}

// readHistory loads prompt history. The history file is shared between
// exsh instances, so reads and writes take an advisory lock.
func (r *repl) readHistory(path string) {
	if path == "" {
		return
	}

	lk, err := flock.Acquire(path, historyLockTimeout)
	if err != nil {
		return
	}
	defer lk.Release()

	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	_, _ = r.liner.ReadHistory(f)
}

func (r *repl) writeHistory(path string) {
	if path == "" {
		return
	}

	lk, err := flock.Acquire(path, historyLockTimeout)
	if err != nil {
		return
	}
	defer lk.Release()

	f, err := os.Create(path)
	if err != nil {
		return
	}
	defer f.Close()

	_, _ = r.liner.WriteHistory(f)
}
