// Command cyaml-test drives the property tests of spec.md §8 on demand,
// outside of `go test`, for quick manual sanity checks against a schema
// while developing one. It is explicitly not part of the library
// (spec.md §1's "not part of the public API") — its own ambient stack
// (cobra/pflag for the CLI surface, zerolog for output) lives entirely
// here and is never imported by the root cyaml package.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/tlsa/cyaml-go"
	"github.com/tlsa/cyaml-go/cyamllog"
)

var (
	quiet   bool
	verbose bool
	debug   bool
)

// registerFlags adds this harness's flags to flags, the same
// *pflag.FlagSet-taking shape used elsewhere in the retrieved pack for a
// reusable flag block.
func registerFlags(flags *pflag.FlagSet) {
	flags.BoolVarP(&quiet, "quiet", "q", false, "suppress per-test PASS lines; print only failures and the summary")
	flags.BoolVarP(&verbose, "verbose", "v", false, "raise the log level to debug")
	flags.BoolVarP(&debug, "debug", "d", false, "let internal invariant panics escape instead of becoming ErrInternalError")
	flags.SortFlags = false
}

func main() {
	root := &cobra.Command{
		Use:   "cyaml-test [test-name,...]",
		Short: "Run cyaml's property tests against the compiled-in schema fixtures",
		Long: `cyaml-test runs the load/save property tests described in spec.md §8
without going through "go test": a quick way to poke at the engine's
round-trip, rollback and validation guarantees from the command line.

With no arguments every registered test runs. A trailing argument is a
comma- or space-separated list of test names to run instead.`,
		RunE: runTests,
	}

	registerFlags(root.Flags())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runTests(cmd *cobra.Command, args []string) error {
	zlevel := zerolog.InfoLevel
	if verbose {
		zlevel = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: cmd.OutOrStdout()}).
		Level(zlevel).
		With().Timestamp().Logger()
	logHook := cyamllog.Hook(logger)

	// -v lowers the threshold LogFn actually receives; -q raises it so a
	// passing run stays silent even if some test logs at LogInfo.
	logLevel := cyaml.LogInfo
	switch {
	case verbose:
		logLevel = cyaml.LogDebug
	case quiet:
		logLevel = cyaml.LogWarning
	}
	base := cyaml.Config{Debug: debug, LogFn: logHook, LogLevel: logLevel}

	selected := parseFilter(args)

	failures := 0
	for _, t := range registry {
		if !selected(t.name) {
			continue
		}
		if err := t.run(base); err != nil {
			failures++
			fmt.Fprintf(cmd.OutOrStdout(), "FAIL %s: %v\n", t.name, err)
			continue
		}
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "PASS %s\n", t.name)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d/%d tests passed\n", len(registry)-failures, len(registry))
	if failures > 0 {
		return fmt.Errorf("%d test(s) failed", failures)
	}
	return nil
}

// parseFilter turns a trailing comma/space-separated argument list into a
// predicate; an empty argument list selects everything.
func parseFilter(args []string) func(name string) bool {
	var names []string
	for _, a := range args {
		for _, part := range strings.FieldsFunc(a, func(r rune) bool { return r == ',' || r == ' ' }) {
			if part != "" {
				names = append(names, part)
			}
		}
	}
	if len(names) == 0 {
		return func(string) bool { return true }
	}
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return func(name string) bool { return set[name] }
}
