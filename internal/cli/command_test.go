package cli_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/exclusive/internal/cli"
)

func newTestCommand(exec func(ctx context.Context, o *cli.IO, args []string) error) *cli.Command {
	flags := flag.NewFlagSet("run", flag.ContinueOnError)
	flags.Int("count", 1, "number of runs")

	return &cli.Command{
		Flags: flags,
		Usage: "run [flags]",
		Short: "Run the thing",
		Exec:  exec,
	}
}

func Test_Dispatch_Runs_Matching_Command(t *testing.T) {
	t.Parallel()

	var out, errOut strings.Builder

	ran := false
	cmd := newTestCommand(func(_ context.Context, _ *cli.IO, _ []string) error {
		ran = true

		return nil
	})

	code := cli.Dispatch(context.Background(), cli.NewIO(&out, &errOut), "exb", []*cli.Command{cmd}, []string{"run"})
	if code != 0 {
		t.Fatalf("exit code = %d; want 0", code)
	}

	if !ran {
		t.Fatal("Exec must run for a matching command")
	}
}

func Test_Dispatch_Prints_Usage_For_Unknown_Command(t *testing.T) {
	t.Parallel()

	var out, errOut strings.Builder

	cmd := newTestCommand(func(_ context.Context, _ *cli.IO, _ []string) error { return nil })

	code := cli.Dispatch(context.Background(), cli.NewIO(&out, &errOut), "exb", []*cli.Command{cmd}, []string{"nope"})
	if code != 1 {
		t.Fatalf("exit code = %d; want 1", code)
	}

	if !strings.Contains(errOut.String(), "unknown command") {
		t.Fatalf("stderr must mention the unknown command; got %q", errOut.String())
	}

	if !strings.Contains(out.String(), "run [flags]") {
		t.Fatalf("usage listing must include the command; got %q", out.String())
	}
}

func Test_Run_Returns_1_And_Prints_Error_When_Exec_Fails(t *testing.T) {
	t.Parallel()

	var out, errOut strings.Builder

	cmd := newTestCommand(func(_ context.Context, _ *cli.IO, _ []string) error {
		return errors.New("boom")
	})

	code := cmd.Run(context.Background(), cli.NewIO(&out, &errOut), "exb", nil)
	if code != 1 {
		t.Fatalf("exit code = %d; want 1", code)
	}

	if !strings.Contains(errOut.String(), "boom") {
		t.Fatalf("stderr must contain the error; got %q", errOut.String())
	}
}

func Test_Run_Prints_Help_For_Help_Flag(t *testing.T) {
	t.Parallel()

	var out, errOut strings.Builder

	cmd := newTestCommand(func(_ context.Context, _ *cli.IO, _ []string) error {
		t.Fatal("Exec must not run for --help")

		return nil
	})

	code := cmd.Run(context.Background(), cli.NewIO(&out, &errOut), "exb", []string{"--help"})
	if code != 0 {
		t.Fatalf("exit code = %d; want 0", code)
	}

	if !strings.Contains(out.String(), "--count") {
		t.Fatalf("help must list flags; got %q", out.String())
	}
}

func Test_Finish_Reports_Warnings_On_Stderr_With_Exit_1(t *testing.T) {
	t.Parallel()

	var out, errOut strings.Builder

	o := cli.NewIO(&out, &errOut)
	o.Warn("scenario skipped")

	if code := o.Finish(); code != 1 {
		t.Fatalf("exit code = %d; want 1", code)
	}

	if !strings.Contains(errOut.String(), "warning: scenario skipped") {
		t.Fatalf("stderr must contain the warning; got %q", errOut.String())
	}
}
