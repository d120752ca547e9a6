package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	htmldoc "github.com/alnah/go-htmldoc"
	"github.com/alnah/go-htmldoc/internal/config"
	"github.com/alnah/go-htmldoc/internal/fileutil"
)

// Sentinel errors for CLI operations.
var (
	ErrNoInput      = errors.New("no input specified")
	ErrTooManyInput = errors.New("exactly one input file expected")
)

// Output format labels.
const (
	labelPDF  = "PDF"
	labelDOCX = "DOCX"
)

// formatResult is the outcome of one output format.
type formatResult struct {
	label    string
	path     string
	detail   string
	err      error
	duration time.Duration
}

// plan is a fully validated conversion request.
type plan struct {
	input   htmldoc.InputInfo
	paths   htmldoc.OutputPaths
	formats htmldoc.Formats
	pdf     htmldoc.PDFOptions
	docx    htmldoc.DOCXOptions
	opts    []htmldoc.Option
}

// palette holds the status colors, disabled together.
type palette struct {
	ok   *color.Color
	fail *color.Color
	warn *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		ok:   color.New(color.FgGreen),
		fail: color.New(color.FgRed, color.Bold),
		warn: color.New(color.FgYellow),
	}
	for _, c := range []*color.Color{p.ok, p.fail, p.warn} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// useColor reports whether output should be colored.
func useColor(noColor bool, env *Environment) bool {
	return !noColor && env.Getenv("NO_COLOR") == "" && !color.NoColor
}

// newLogger builds the diagnostic logger: Debug with -v, else Warn.
func newLogger(f commonFlags, env *Environment) hclog.Logger {
	level := hclog.Warn
	if f.verbose {
		level = hclog.Debug
	}
	colorOpt := hclog.AutoColor
	if !useColor(f.noColor, env) {
		colorOpt = hclog.ColorOff
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   "htmldoc",
		Level:  level,
		Output: env.Stderr,
		Color:  colorOpt,
	})
}

// runConvert validates the request, converts to each selected format
// independently, prints the outcome and returns the exit code.
func runConvert(ctx context.Context, args []string, flags *convertFlags, env *Environment) int {
	colors := newPalette(useColor(flags.common.noColor, env))
	logger := newLogger(flags.common, env)

	envCfg := loadEnvConfig(env.Getenv)
	warnUnknownEnvVars(env.Environ(), env.Stderr)

	p, err := buildPlan(args, flags, envCfg, logger)
	if err != nil {
		printError(env, colors, err)
		if errors.Is(err, ErrNoInput) {
			printUsage(env.Stderr)
		}
		return ExitFailure
	}

	if p.input.Large && !flags.common.quiet {
		fmt.Fprintf(env.Stderr, "%s large input (%.1f MB), conversion may take a while\n",
			colors.warn.Sprint("Warning:"), float64(p.input.Size)/1_000_000)
	}

	conv := env.NewConverter(p.opts...)
	defer func() {
		if err := conv.Close(); err != nil {
			logger.Debug("closing converter", "error", err)
		}
	}()

	results := convertAll(ctx, conv, p, logger)
	printResults(results, flags.common, env, colors)
	return exitCodeFor(results)
}

// buildPlan merges config, environment and flags, then validates
// everything that can be checked before touching an engine.
func buildPlan(args []string, flags *convertFlags, envCfg *envConfig, logger hclog.Logger) (*plan, error) {
	switch {
	case len(args) == 0:
		return nil, ErrNoInput
	case len(args) > 1:
		return nil, fmt.Errorf("%w, got %d", ErrTooManyInput, len(args))
	}
	inputPath := args[0]

	cfg := config.DefaultConfig()
	cfgName := flags.common.config
	if cfgName == "" {
		cfgName = envCfg.ConfigPath
	}
	if cfgName != "" {
		loaded, err := config.LoadConfig(cfgName)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}
	applyEnvConfig(envCfg, cfg)

	info, err := htmldoc.ValidateInputFile(inputPath)
	if err != nil {
		return nil, err
	}

	formats, err := htmldoc.DetermineFormats(htmldoc.FormatFlags{
		PDFOnly:  flags.formats.pdfOnly,
		DOCXOnly: flags.formats.docxOnly,
		Format:   flags.formats.format,
	})
	if err != nil {
		return nil, err
	}

	rawTimeout := flags.timeout
	if rawTimeout == "" {
		rawTimeout = cfg.Timeout
	}
	timeout, err := htmldoc.ParseTimeoutMs(rawTimeout)
	if err != nil {
		return nil, err
	}

	output := flags.output
	if output != "" {
		if err := htmldoc.ValidatePath(output, ""); err != nil {
			return nil, err
		}
	} else if cfg.Output.DefaultDir != "" {
		output = filepath.Join(cfg.Output.DefaultDir, fileutil.StripExt(inputPath))
	}
	paths, err := htmldoc.ResolveOutputPaths(inputPath, output)
	if err != nil {
		return nil, err
	}

	var targets []string
	if formats.PDF {
		targets = append(targets, paths.PDF)
	}
	if formats.DOCX {
		targets = append(targets, paths.DOCX)
	}
	if err := htmldoc.CheckOverwrite(flags.force || cfg.Output.Force, targets...); err != nil {
		return nil, err
	}

	pdfOpts := buildPDFOptions(flags, cfg, timeout)
	if formats.PDF {
		if err := pdfOpts.Validate(); err != nil {
			return nil, err
		}
	}

	return &plan{
		input:   info,
		paths:   paths,
		formats: formats,
		pdf:     pdfOpts,
		docx: htmldoc.DOCXOptions{
			Timeout: timeout,
			Filter:  cfg.DOCX.Filter,
		},
		opts: converterOptions(cfg, logger),
	}, nil
}

// buildPDFOptions merges flags over the pdf config section.
func buildPDFOptions(flags *convertFlags, cfg *config.Config, timeout time.Duration) htmldoc.PDFOptions {
	opts := htmldoc.PDFOptions{
		Format:    cfg.PDF.Format,
		Landscape: cfg.PDF.Landscape || flags.page.landscape,
		Margin: htmldoc.Margin{
			Top:    cfg.PDF.Margin.Top,
			Right:  cfg.PDF.Margin.Right,
			Bottom: cfg.PDF.Margin.Bottom,
			Left:   cfg.PDF.Margin.Left,
		},
		PrintBackground:     cfg.PDF.PrintBackground,
		PreferCSSPageSize:   cfg.PDF.PreferCSSPageSize,
		HeaderTemplate:      cfg.PDF.HeaderTemplate,
		FooterTemplate:      cfg.PDF.FooterTemplate,
		DisplayHeaderFooter: cfg.PDF.HeaderTemplate != "" || cfg.PDF.FooterTemplate != "",
		Scale:               cfg.PDF.Scale,
		Timeout:             timeout,
	}
	if flags.page.format != "" {
		opts.Format = flags.page.format
	}
	if flags.page.scale != 0 {
		opts.Scale = flags.page.scale
	}
	return opts
}

// converterOptions maps config onto converter options.
func converterOptions(cfg *config.Config, logger hclog.Logger) []htmldoc.Option {
	opts := []htmldoc.Option{htmldoc.WithLogger(logger)}
	if cfg.Browser.Bin != "" {
		opts = append(opts, htmldoc.WithBrowserBin(cfg.Browser.Bin))
	}
	if cfg.Browser.NoSandbox != nil {
		opts = append(opts, htmldoc.WithNoSandbox(*cfg.Browser.NoSandbox))
	}
	if cfg.DOCX.Engine != "" {
		opts = append(opts, htmldoc.WithSofficeBin(cfg.DOCX.Engine))
	}
	return opts
}

// convertAll runs the selected formats concurrently. A failure in one
// never cancels the other.
func convertAll(ctx context.Context, conv Converter, p *plan, logger hclog.Logger) []formatResult {
	var results []formatResult
	var pdfRes, docxRes *formatResult

	if p.formats.DOCX && !conv.EngineAvailable(ctx) {
		docxRes = &formatResult{
			label: labelDOCX,
			path:  p.paths.DOCX,
			err:   htmldoc.AsConversionError(htmldoc.ErrEngineMissing),
		}
		logger.Debug("LibreOffice not found, skipping DOCX")
	}

	var g errgroup.Group
	if p.formats.PDF {
		pdfRes = &formatResult{label: labelPDF, path: p.paths.PDF}
		g.Go(func() error {
			start := time.Now()
			res, err := conv.ConvertToPDF(ctx, p.input.Path, p.paths.PDF, p.pdf)
			pdfRes.duration = time.Since(start)
			pdfRes.err = err
			if err == nil && res.PageCount > 0 {
				pdfRes.detail = pluralize(res.PageCount, "page")
			}
			return nil
		})
	}
	if p.formats.DOCX && docxRes == nil {
		docxRes = &formatResult{label: labelDOCX, path: p.paths.DOCX}
		g.Go(func() error {
			start := time.Now()
			res, err := conv.ConvertToDOCX(ctx, p.input.Path, p.paths.DOCX, p.docx)
			docxRes.duration = time.Since(start)
			docxRes.err = err
			if err == nil {
				docxRes.path = res.OutputPath
				if res.Paragraphs > 0 {
					docxRes.detail = pluralize(res.Paragraphs, "paragraph")
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	if pdfRes != nil {
		results = append(results, *pdfRes)
	}
	if docxRes != nil {
		results = append(results, *docxRes)
	}
	return results
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// printResults writes one line per format and a summary for several.
func printResults(results []formatResult, f commonFlags, env *Environment, colors palette) {
	succeeded, failed := 0, 0
	for _, r := range results {
		if r.err != nil {
			failed++
			fmt.Fprintf(env.Stderr, "%s %s: %s\n", colors.fail.Sprint("FAILED"), r.label, htmldoc.FormatError(r.err))
			continue
		}
		succeeded++
		if f.quiet {
			continue
		}

		line := fmt.Sprintf("%s %s", colors.ok.Sprint("Created"), r.path)
		switch {
		case f.verbose && r.detail != "":
			line += fmt.Sprintf(" (%s, %v)", r.detail, r.duration.Round(time.Millisecond))
		case f.verbose:
			line += fmt.Sprintf(" (%v)", r.duration.Round(time.Millisecond))
		case r.detail != "":
			line += fmt.Sprintf(" (%s)", r.detail)
		}
		fmt.Fprintln(env.Stdout, line)
	}

	if !f.quiet && len(results) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed\n", succeeded, failed)
	}
}

// printError prints a validation or setup error.
func printError(env *Environment, colors palette, err error) {
	var ce *htmldoc.ConversionError
	if errors.As(err, &ce) {
		fmt.Fprintln(env.Stderr, colors.fail.Sprint(htmldoc.FormatError(ce)))
		return
	}
	fmt.Fprintln(env.Stderr, colors.fail.Sprint("Error: "+err.Error()))
}
