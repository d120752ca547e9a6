package htmldoc

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-htmldoc/internal/fileutil"
)

// ConvertToDOCX converts the HTML file at inputPath into a DOCX at
// outputPath with LibreOffice. LibreOffice names its output after the
// input stem, so the result is renamed when outputPath differs. OutputDir
// only changes where LibreOffice writes before that rename.
func (c *Converter) ConvertToDOCX(ctx context.Context, inputPath, outputPath string, opts DOCXOptions) (*DOCXResult, error) {
	src, cleanup, err := c.prepareSource(ctx, inputPath)
	if err != nil {
		return nil, err
	}
	defer cleanup()
	return c.convertDOCXFile(ctx, src, outputPath, opts)
}

// ConvertHTMLFileToDOCX parses inputPath, then converts it. A parse
// failure aborts before LibreOffice is started.
func (c *Converter) ConvertHTMLFileToDOCX(ctx context.Context, inputPath, outputPath string, opts DOCXOptions) (*DocumentDOCXResult, error) {
	src, cleanup, err := c.prepareSource(ctx, inputPath)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	doc, err := ParseDocument(src)
	if err != nil {
		return nil, err
	}
	res, err := c.convertDOCXFile(ctx, src, outputPath, opts)
	if err != nil {
		return nil, err
	}
	return &DocumentDOCXResult{Document: doc, DOCX: res}, nil
}

func (c *Converter) convertDOCXFile(ctx context.Context, inputPath, outputPath string, opts DOCXOptions) (*DOCXResult, error) {
	timeout := opts.Timeout
	if timeout < 0 {
		return nil, newError(ErrInvalidTimeout, fmt.Sprintf("timeout must be positive, got %s", timeout), nil)
	}
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	filter := opts.Filter
	if filter == "" {
		filter = DefaultDOCXFilter
	}

	soffice, err := c.locator.Find(ctx)
	if err != nil {
		var ce *ConversionError
		if errors.As(err, &ce) {
			return nil, ce
		}
		return nil, newError(ErrEngineMissing, err.Error(), err)
	}
	if soffice == "" {
		return nil, newError(ErrEngineMissing, "", nil)
	}

	absInput, err := filepath.Abs(inputPath)
	if err != nil {
		return nil, newError(ErrInputNotFound, inputPath, err)
	}
	absOutput, err := filepath.Abs(outputPath)
	if err != nil {
		return nil, newError(ErrOutputDir, outputPath, err)
	}
	outDir := filepath.Dir(absOutput)
	if opts.OutputDir != "" {
		if outDir, err = filepath.Abs(opts.OutputDir); err != nil {
			return nil, newError(ErrOutputDir, opts.OutputDir, err)
		}
	}

	for _, dir := range []string{outDir, filepath.Dir(absOutput)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, newError(ErrOutputDir, fmt.Sprintf("%s: %v", dir, err), err)
		}
	}

	args := []string{
		"--headless",
		"--convert-to", "docx:" + filter,
		"--outdir", outDir,
		absInput,
	}
	c.logger.Debug("running LibreOffice", "bin", soffice, "args", args, "timeout", timeout)

	err = runStage(ctx, StageDOCX, timeout, ErrDOCXConversion, func(sctx context.Context) error {
		_, stderr, err := c.runner.Run(sctx, soffice, args...)
		if err != nil && strings.TrimSpace(stderr) != "" {
			return fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr))
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	generated := filepath.Join(outDir, fileutil.StripExt(absInput)+".docx")
	if _, err := os.Stat(generated); err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return nil, newError(ErrDOCXConversion, "Output file created but not accessible (permission denied): "+generated, err)
		}
		return nil, newError(ErrDOCXConversion, "LibreOffice completed but output file not found: "+generated, err)
	}

	final := generated
	if generated != absOutput {
		if err := os.Rename(generated, absOutput); err != nil {
			return nil, newError(ErrDOCXConversion, "Failed to rename output file: "+err.Error(), err)
		}
		final = absOutput
	}

	res := &DOCXResult{OutputPath: final}
	if stats, err := inspectDOCX(final); err != nil {
		c.logger.Debug("inspecting DOCX", "path", final, "error", err)
	} else {
		res.Paragraphs = stats.paragraphs
		res.Headings = stats.headings
	}
	return res, nil
}
