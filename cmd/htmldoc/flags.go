package main

import (
	"io"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
	noColor bool
}

// formatFlags selects which documents to produce.
type formatFlags struct {
	format   string
	pdfOnly  bool
	docxOnly bool
}

// pageFlags holds PDF page layout flags.
type pageFlags struct {
	format    string
	landscape bool
	scale     float64
}

// convertFlags holds all flags for a conversion.
type convertFlags struct {
	common  commonFlags
	formats formatFlags
	page    pageFlags
	output  string
	timeout string // milliseconds
	force   bool
	version bool
	help    bool
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show detailed progress and timing")
	fs.BoolVar(&f.noColor, "no-color", false, "disable colored output")
}

// addFormatFlags adds format selection flags to a FlagSet.
func addFormatFlags(fs *flag.FlagSet, f *formatFlags) {
	fs.StringVarP(&f.format, "format", "f", "", "output format: pdf, docx, both (default both)")
	fs.BoolVar(&f.pdfOnly, "pdf-only", false, "generate PDF only")
	fs.BoolVar(&f.docxOnly, "docx-only", false, "generate DOCX only")
}

// addPageFlags adds PDF page flags to a FlagSet.
func addPageFlags(fs *flag.FlagSet, f *pageFlags) {
	fs.StringVar(&f.format, "page-format", "", "page format: a4, letter, legal")
	fs.BoolVar(&f.landscape, "landscape", false, "landscape orientation")
	fs.Float64Var(&f.scale, "scale", 0, "print scale (0.1-2.0)")
}

// parseConvertFlags parses conversion flags and returns positional args.
func parseConvertFlags(args []string, usage io.Writer) (*convertFlags, []string, error) {
	fs := flag.NewFlagSet("htmldoc", flag.ContinueOnError)
	fs.SetOutput(usage)
	f := &convertFlags{}

	fs.StringVarP(&f.output, "output", "o", "", "output path without extension")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "timeout per stage in milliseconds (default 60000)")
	fs.BoolVar(&f.force, "force", false, "overwrite existing output files")
	fs.BoolVar(&f.version, "version", false, "show version")
	fs.BoolVarP(&f.help, "help", "h", false, "show help")

	addCommonFlags(fs, &f.common)
	addFormatFlags(fs, &f.formats)
	addPageFlags(fs, &f.page)

	fs.Usage = func() { printUsage(usage) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseCheckFlags parses flags of the check command.
func parseCheckFlags(args []string, usage io.Writer) (jsonOut, noColor bool, err error) {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(usage)
	fs.BoolVar(&jsonOut, "json", false, "print the report as JSON")
	fs.BoolVar(&noColor, "no-color", false, "disable colored output")
	fs.Usage = func() { printCheckUsage(usage) }

	err = fs.Parse(args)
	return jsonOut, noColor, err
}
