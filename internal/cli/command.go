package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"
)

// Command defines a CLI command with unified help generation.
type Command struct {
	// Flags defines command-specific flags.
	// The FlagSet name is not used - command identity comes from Usage.
	Flags *flag.FlagSet

	// Usage is the freeform usage string shown after the binary name in
	// help. Includes the command name and arguments/flags.
	// Examples: "run [flags]", "compare <file> <file>"
	Usage string

	// Short is a one-line description for the global help listing.
	Short string

	// Long is the full description shown in command help.
	// If empty, Short is used instead.
	Long string

	// Exec runs the command after flags are parsed.
	Exec func(ctx context.Context, o *IO, args []string) error
}

// Name returns the command name (first word of Usage).
func (c *Command) Name() string {
	name, _, _ := strings.Cut(c.Usage, " ")

	return name
}

// HelpLine returns the short help line for the main usage display.
func (c *Command) HelpLine() string {
	return fmt.Sprintf("  %-22s %s", c.Usage, c.Short)
}

// PrintHelp prints the full help output for "<bin> <cmd> --help".
func (c *Command) PrintHelp(o *IO, bin string) {
	o.Println("Usage:", bin, c.Usage)
	o.Println()

	desc := c.Long
	if desc == "" {
		desc = c.Short
	}

	o.Println(desc)

	if c.Flags != nil && c.Flags.HasFlags() {
		o.Println()
		o.Println("Flags:")

		var buf strings.Builder

		c.Flags.SetOutput(&buf)
		c.Flags.PrintDefaults()
		o.Printf("%s", buf.String())
	}
}

// Run parses flags and executes the command. Returns exit code.
// Handles error printing internally for consistent output ordering.
func (c *Command) Run(ctx context.Context, o *IO, bin string, args []string) int {
	c.Flags.SetOutput(&strings.Builder{}) // discard pflag output

	err := c.Flags.Parse(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			c.PrintHelp(o, bin)

			return 0
		}

		o.ErrPrintln("error:", err)
		o.ErrPrintln()
		c.PrintHelp(o, bin)

		return 1
	}

	if err := c.Exec(ctx, o, c.Flags.Args()); err != nil {
		o.ErrPrintln("error:", err)

		return 1
	}

	return o.Finish()
}

// Dispatch resolves args[0] against cmds and runs the match. An empty
// argument list, "-h", "--help", or an unknown command print the global
// usage listing.
func Dispatch(ctx context.Context, o *IO, bin string, cmds []*Command, args []string) int {
	printUsage := func() {
		o.Println("Usage:", bin, "<command> [flags]")
		o.Println()
		o.Println("Commands:")

		for _, c := range cmds {
			o.Println(c.HelpLine())
		}
	}

	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" {
		printUsage()

		return 0
	}

	for _, c := range cmds {
		if c.Name() == args[0] {
			return c.Run(ctx, o, bin, args[1:])
		}
	}

	o.ErrPrintln("error: unknown command:", args[0])
	printUsage()

	return 1
}
