package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	flag "github.com/spf13/pflag"

	htmldoc "github.com/alnah/go-htmldoc"
)

// runCheckCmd reports the state of the external engines.
// Exit codes: 0 = all found, 1 = something is missing.
func runCheckCmd(ctx context.Context, args []string, env *Environment) int {
	jsonOut, noColor, err := parseCheckFlags(args, env.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		fmt.Fprintln(env.Stderr, "Error:", err)
		return ExitFailure
	}

	conv := env.NewConverter()
	defer func() { _ = conv.Close() }()

	result := conv.CheckDependencies(ctx)

	if jsonOut {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		fmt.Fprint(env.Stdout, htmldoc.FormatDependencyReport(result, useColor(noColor, env)))
	}

	if !result.AllFound {
		return ExitFailure
	}
	return ExitSuccess
}
