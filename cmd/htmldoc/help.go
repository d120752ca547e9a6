package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: htmldoc [flags] <input>")
	fmt.Fprintln(w, "       htmldoc <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Convert an HTML (or Markdown) document to PDF and DOCX.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  check      Check that Chromium and LibreOffice are installed")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output <path>       Output path without extension")
	fmt.Fprintln(w, "  -f, --format <s>          Output format: pdf, docx, both (default both)")
	fmt.Fprintln(w, "      --pdf-only            Generate PDF only")
	fmt.Fprintln(w, "      --docx-only           Generate DOCX only")
	fmt.Fprintln(w, "      --force               Overwrite existing files")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -t, --timeout <ms>        Timeout per stage in milliseconds (default 60000)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Page:")
	fmt.Fprintln(w, "      --page-format <s>     Page format: a4, letter, legal")
	fmt.Fprintln(w, "      --landscape           Landscape orientation")
	fmt.Fprintln(w, "      --scale <f>           Print scale (0.1-2.0)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show detailed progress and timing")
	fmt.Fprintln(w, "      --no-color            Disable colored output")
	fmt.Fprintln(w, "  -h, --help                Show this help")
	fmt.Fprintln(w, "      --version             Show version")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  htmldoc document.html")
	fmt.Fprintln(w, "  htmldoc document.html -o output/report")
	fmt.Fprintln(w, "  htmldoc document.html --pdf-only --landscape")
	fmt.Fprintln(w, "  htmldoc document.html -f docx")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Exit codes: 0 success, 1 failure, 2 partial success.")
}

// printCheckUsage prints usage for the check command.
func printCheckUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: htmldoc check [--json] [--no-color]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Report whether Chromium and LibreOffice are installed, with")
	fmt.Fprintln(w, "their versions and install instructions for missing ones.")
	fmt.Fprintln(w, "Exits 1 when a required dependency is missing.")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case "check":
		printCheckUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: htmldoc version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: htmldoc help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return ExitFailure
	}
	return ExitSuccess
}
