package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	os.Exit(runMain(os.Args, DefaultEnv()))
}

// isCommand reports whether arg names a subcommand rather than an input.
func isCommand(arg string) bool {
	switch arg {
	case "check", "version", "help":
		return true
	}
	return false
}

// runMain dispatches to a subcommand or converts one input.
// args[0] is the program name.
func runMain(args []string, env *Environment) int {
	if len(args) < 2 {
		printUsage(env.Stderr)
		return ExitFailure
	}

	ctx, stop := notifyContext(context.Background())
	defer stop()

	rest := args[1:]
	if isCommand(rest[0]) {
		switch rest[0] {
		case "version":
			fmt.Fprintf(env.Stdout, "htmldoc %s\n", Version)
			return ExitSuccess
		case "help":
			return runHelp(rest[1:], env)
		case "check":
			return runCheckCmd(ctx, rest[1:], env)
		}
	}

	flags, positional, err := parseConvertFlags(rest, env.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		fmt.Fprintln(env.Stderr, "Error:", err)
		return ExitFailure
	}
	if flags.help {
		printUsage(env.Stdout)
		return ExitSuccess
	}
	if flags.version {
		fmt.Fprintf(env.Stdout, "htmldoc %s\n", Version)
		return ExitSuccess
	}

	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply.
	undo, _ := maxprocs.Set(maxprocs.Logger(func(format string, a ...interface{}) {
		if flags.common.verbose {
			fmt.Fprintf(env.Stderr, format+"\n", a...)
		}
	}))
	defer undo()

	return runConvert(ctx, positional, flags, env)
}
