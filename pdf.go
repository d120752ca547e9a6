package htmldoc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-htmldoc/internal/assets"
	"github.com/alnah/go-htmldoc/internal/fileutil"
)

// ConvertToPDF prints the HTML file at inputPath to PDF. The file is loaded
// by URL so that relative images and stylesheets resolve. When outputPath is
// non-empty the PDF is also written there.
func (c *Converter) ConvertToPDF(ctx context.Context, inputPath, outputPath string, opts PDFOptions) (*PDFResult, error) {
	src, cleanup, err := c.prepareSource(ctx, inputPath)
	if err != nil {
		return nil, err
	}
	defer cleanup()
	return c.convertPDFFile(ctx, src, outputPath, opts)
}

// ConvertStringToPDF prints an HTML string to PDF. Relative references in
// the string have no base to resolve against.
func (c *Converter) ConvertStringToPDF(ctx context.Context, html, outputPath string, opts PDFOptions) (*PDFResult, error) {
	return c.printPDF(ctx, outputPath, opts, StageContent, func(ctx context.Context, p Page) error {
		return p.SetContent(ctx, html)
	})
}

// ConvertHTMLFileToPDF parses inputPath, then prints it. A parse failure
// aborts before the browser is touched.
func (c *Converter) ConvertHTMLFileToPDF(ctx context.Context, inputPath, outputPath string, opts PDFOptions) (*DocumentPDFResult, error) {
	src, cleanup, err := c.prepareSource(ctx, inputPath)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	doc, err := ParseDocument(src)
	if err != nil {
		return nil, err
	}
	res, err := c.convertPDFFile(ctx, src, outputPath, opts)
	if err != nil {
		return nil, err
	}
	return &DocumentPDFResult{Document: doc, PDF: res}, nil
}

func (c *Converter) convertPDFFile(ctx context.Context, inputPath, outputPath string, opts PDFOptions) (*PDFResult, error) {
	abs, err := filepath.Abs(inputPath)
	if err != nil {
		return nil, newError(ErrInputNotFound, inputPath, err)
	}
	if !fileutil.FileExists(abs) {
		return nil, newError(ErrInputNotFound, abs, nil)
	}
	url := fileutil.FileURL(abs, "")
	return c.printPDF(ctx, outputPath, opts, StageNavigation, func(ctx context.Context, p Page) error {
		return p.Navigate(ctx, url)
	})
}

// loadFunc puts the document into a fresh page.
type loadFunc func(ctx context.Context, p Page) error

// printPDF runs the two timed stages shared by every PDF conversion:
// loading (page setup, document load, print stylesheet) then printing.
func (c *Converter) printPDF(ctx context.Context, outputPath string, opts PDFOptions, loadStage Stage, load loadFunc) (*PDFResult, error) {
	ro, err := opts.resolve()
	if err != nil {
		return nil, err
	}

	browser, err := c.browsers.Acquire(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, newError(ErrPDFConversion, "waiting for browser", ctxErr)
		}
		return nil, AsConversionError(err)
	}

	var page Page
	defer func() {
		if page == nil {
			return
		}
		if err := page.Close(); err != nil {
			c.logger.Debug("closing page", "error", err)
		}
	}()

	start := time.Now()
	err = runStage(ctx, loadStage, ro.timeout, ErrPDFConversion, func(sctx context.Context) error {
		p, err := browser.NewPage(sctx)
		if err != nil {
			return fmt.Errorf("opening page: %w", err)
		}
		page = p
		if err := p.SetViewport(sctx, viewportWidth, viewportHeight); err != nil {
			return fmt.Errorf("setting viewport: %w", err)
		}
		if err := load(sctx, p); err != nil {
			return err
		}
		if err := p.AddStyle(sctx, assets.PrintCSS()); err != nil {
			return fmt.Errorf("adding print styles: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.logger.Debug("document loaded", "stage", loadStage, "elapsed", time.Since(start))

	var data []byte
	err = runStage(ctx, StagePDF, ro.timeout, ErrPDFConversion, func(sctx context.Context) error {
		var err error
		data, err = page.PrintPDF(sctx, ro)
		return err
	})
	if err != nil {
		return nil, err
	}

	res := &PDFResult{Buffer: data}
	if n, err := countPDFPages(data); err != nil {
		c.logger.Debug("counting PDF pages", "error", err)
	} else {
		res.PageCount = n
	}

	if outputPath != "" {
		path, err := writeOutput(outputPath, data)
		if err != nil {
			return nil, err
		}
		res.Path = path
	}
	c.logger.Debug("PDF generated", "bytes", len(data), "pages", res.PageCount, "elapsed", time.Since(start))
	return res, nil
}

// writeOutput writes data to path, creating parent directories.
func writeOutput(path string, data []byte) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", newError(ErrOutputDir, path, err)
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", newError(ErrOutputDir, fmt.Sprintf("%s: %v", dir, err), err)
	}
	// #nosec G306 -- output documents are meant to be shared
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		return "", newError(ErrPDFConversion, fmt.Sprintf("writing %s: %v", abs, err), err)
	}
	return abs, nil
}

// runStage runs fn under a d-bounded child of ctx. Failures that look like
// a timeout become ErrTimeout for stage; anything else becomes kind.
func runStage(ctx context.Context, stage Stage, d time.Duration, kind error, fn func(context.Context) error) error {
	sctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	err := fn(sctx)
	if err == nil {
		return nil
	}
	var ce *ConversionError
	if errors.As(err, &ce) {
		return ce
	}
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return newError(kind, fmt.Sprintf("%s cancelled", stage), err)
	}
	if isTimeout(err) || errors.Is(sctx.Err(), context.DeadlineExceeded) {
		return newTimeoutError(stage, d, err)
	}
	return newError(kind, err.Error(), err)
}

// isTimeout reports whether err is, or reads like, a timeout.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "timeout") || strings.Contains(msg, "timed out")
}
