package htmldoc

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/alnah/go-htmldoc/internal/fileutil"
	"github.com/alnah/go-htmldoc/internal/pipeline"
)

// Converter turns HTML documents into PDF and DOCX. It owns one shared
// headless browser, launched on first use. A Converter is safe for
// concurrent use; call Close when done with it.
type Converter struct {
	logger   hclog.Logger
	browsers *BrowserManager
	locator  EngineLocator
	runner   CommandRunner

	browserBin    string
	noSandbox     bool
	sofficeBin    string
	launchTimeout time.Duration
	launcher      Launcher

	rendererOnce sync.Once
	renderer     *pipeline.Renderer
	rendererErr  error
}

// Option configures a Converter.
type Option func(*Converter)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger hclog.Logger) Option {
	return func(c *Converter) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithBrowserBin sets the Chromium binary, overriding ROD_BROWSER_BIN.
func WithBrowserBin(path string) Option {
	return func(c *Converter) {
		c.browserBin = path
	}
}

// WithNoSandbox toggles the Chromium sandbox flags. Disabled sandbox is
// the default, as required in most containers.
func WithNoSandbox(noSandbox bool) Option {
	return func(c *Converter) {
		c.noSandbox = noSandbox
	}
}

// WithSofficeBin sets the LibreOffice binary tried before the usual locations.
func WithSofficeBin(path string) Option {
	return func(c *Converter) {
		c.sofficeBin = path
	}
}

// WithEngineLocator replaces the LibreOffice locator.
func WithEngineLocator(loc EngineLocator) Option {
	return func(c *Converter) {
		c.locator = loc
	}
}

// WithCommandRunner replaces how LibreOffice is executed.
func WithCommandRunner(r CommandRunner) Option {
	return func(c *Converter) {
		c.runner = r
	}
}

// WithLaunchTimeout bounds each browser launch.
func WithLaunchTimeout(d time.Duration) Option {
	return func(c *Converter) {
		c.launchTimeout = d
	}
}

// WithLauncher replaces how browsers are started.
func WithLauncher(l Launcher) Option {
	return func(c *Converter) {
		c.launcher = l
	}
}

// NewConverter creates a Converter. No browser or LibreOffice process is
// started until a conversion needs one.
func NewConverter(opts ...Option) *Converter {
	c := &Converter{
		logger:        hclog.NewNullLogger(),
		noSandbox:     true,
		launchTimeout: DefaultLaunchTimeout,
		runner:        ExecRunner{},
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.launcher == nil {
		c.launcher = NewRodLauncher(RodConfig{
			Bin:       c.browserBin,
			NoSandbox: c.noSandbox,
			Logger:    c.logger.Named("chromium"),
		})
	}
	if c.locator == nil {
		c.locator = NewSofficeLocator(c.sofficeBin, c.logger.Named("soffice"))
	}
	c.browsers = NewBrowserManager(c.launcher, c.launchTimeout, c.logger.Named("browser"))
	return c
}

// Warm launches the browser ahead of the first PDF conversion.
func (c *Converter) Warm(ctx context.Context) error {
	return c.browsers.Warm(ctx)
}

// CloseBrowser shuts the shared browser down. The next PDF conversion
// launches a new one.
func (c *Converter) CloseBrowser() {
	c.browsers.Release()
}

// Close releases the browser. It always returns nil.
func (c *Converter) Close() error {
	c.CloseBrowser()
	return nil
}

// EngineAvailable reports whether LibreOffice can be found.
func (c *Converter) EngineAvailable(ctx context.Context) bool {
	return VerifyEngine(ctx, c.locator)
}

// prepareSource returns an HTML file for inputPath. HTML inputs are used
// as-is; Markdown inputs are rendered into a temporary <stem>.html that
// cleanup removes.
func (c *Converter) prepareSource(ctx context.Context, inputPath string) (string, func(), error) {
	noop := func() {}
	ext := strings.ToLower(filepath.Ext(inputPath))
	if ext != ".md" && ext != ".markdown" {
		return inputPath, noop, nil
	}

	source, err := os.ReadFile(inputPath) // #nosec G304 -- user-provided input
	if err != nil {
		if os.IsNotExist(err) {
			return "", noop, newError(ErrInputNotFound, inputPath, err)
		}
		return "", noop, newError(ErrLoadFailed, inputPath, err)
	}

	r, err := c.markdownRenderer()
	if err != nil {
		return "", noop, newError(ErrLoadFailed, "markdown renderer", err)
	}

	abs, err := filepath.Abs(inputPath)
	if err != nil {
		return "", noop, newError(ErrInputNotFound, inputPath, err)
	}
	stem := fileutil.StripExt(abs)
	html, err := r.Render(ctx, source, filepath.Dir(abs), stem)
	if err != nil {
		return "", noop, newError(ErrLoadFailed, inputPath, err)
	}

	path, cleanup, err := fileutil.WriteTempDocument(html, stem, "html")
	if err != nil {
		return "", noop, newError(ErrLoadFailed, "writing rendered markdown", err)
	}
	c.logger.Debug("rendered markdown", "input", inputPath, "html", path)
	return path, cleanup, nil
}

func (c *Converter) markdownRenderer() (*pipeline.Renderer, error) {
	c.rendererOnce.Do(func() {
		c.renderer, c.rendererErr = pipeline.NewRenderer()
	})
	return c.renderer, c.rendererErr
}

// ---------------------------------------------------------------------------
// Package-level API backed by a lazily created default Converter
// ---------------------------------------------------------------------------

var (
	defaultMu        sync.Mutex
	defaultConverter *Converter
)

func defaultConv() *Converter {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultConverter == nil {
		defaultConverter = NewConverter()
	}
	return defaultConverter
}

// ConvertToPDF converts a file with the default Converter.
func ConvertToPDF(ctx context.Context, inputPath, outputPath string, opts PDFOptions) (*PDFResult, error) {
	return defaultConv().ConvertToPDF(ctx, inputPath, outputPath, opts)
}

// ConvertStringToPDF converts an HTML string with the default Converter.
func ConvertStringToPDF(ctx context.Context, html, outputPath string, opts PDFOptions) (*PDFResult, error) {
	return defaultConv().ConvertStringToPDF(ctx, html, outputPath, opts)
}

// ConvertHTMLFileToPDF parses and converts a file with the default Converter.
func ConvertHTMLFileToPDF(ctx context.Context, inputPath, outputPath string, opts PDFOptions) (*DocumentPDFResult, error) {
	return defaultConv().ConvertHTMLFileToPDF(ctx, inputPath, outputPath, opts)
}

// ConvertToDOCX converts a file with the default Converter.
func ConvertToDOCX(ctx context.Context, inputPath, outputPath string, opts DOCXOptions) (*DOCXResult, error) {
	return defaultConv().ConvertToDOCX(ctx, inputPath, outputPath, opts)
}

// ConvertHTMLFileToDOCX parses and converts a file with the default Converter.
func ConvertHTMLFileToDOCX(ctx context.Context, inputPath, outputPath string, opts DOCXOptions) (*DocumentDOCXResult, error) {
	return defaultConv().ConvertHTMLFileToDOCX(ctx, inputPath, outputPath, opts)
}

// CloseBrowser shuts down the default Converter's browser, if one was
// ever started. Safe to call repeatedly.
func CloseBrowser() {
	defaultMu.Lock()
	c := defaultConverter
	defaultMu.Unlock()
	if c != nil {
		c.CloseBrowser()
	}
}
