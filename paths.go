package htmldoc

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-htmldoc/internal/fileutil"
)

// MaxTimeout is the largest timeout ParseTimeoutMs returns.
const MaxTimeout = time.Duration(math.MaxInt64)

// LargeFileThreshold is the size above which inputs are flagged as large.
const LargeFileThreshold = 1_000_000

// OutputPaths are the resolved destinations for one input.
type OutputPaths struct {
	PDF       string
	DOCX      string
	BaseName  string
	OutputDir string
}

// ResolveOutputPaths derives absolute output paths. Without output, files
// land next to the input with the same stem. With output, a trailing .pdf
// or .docx is stripped and the rest is used as the base path.
func ResolveOutputPaths(inputPath, output string) (OutputPaths, error) {
	var base string
	if output != "" {
		abs, err := filepath.Abs(output)
		if err != nil {
			return OutputPaths{}, newError(ErrOutputDir, output, err)
		}
		switch filepath.Ext(abs) {
		case ".pdf", ".docx":
			abs = strings.TrimSuffix(abs, filepath.Ext(abs))
		}
		base = abs
	} else {
		abs, err := filepath.Abs(inputPath)
		if err != nil {
			return OutputPaths{}, newError(ErrInputNotFound, inputPath, err)
		}
		base = filepath.Join(filepath.Dir(abs), fileutil.StripExt(abs))
	}

	return OutputPaths{
		PDF:       base + ".pdf",
		DOCX:      base + ".docx",
		BaseName:  filepath.Base(base),
		OutputDir: filepath.Dir(base),
	}, nil
}

// ValidatePath fails with ErrPathTraversal unless candidate is allowedRoot
// or lies beneath it. Relative paths on either side resolve against the
// working directory, and an empty allowedRoot means the working directory.
func ValidatePath(candidate, allowedRoot string) error {
	if allowedRoot == "" {
		wd, err := os.Getwd()
		if err != nil {
			return newError(ErrUnknown, "cannot determine working directory", err)
		}
		allowedRoot = wd
	}
	root, err := filepath.Abs(allowedRoot)
	if err != nil {
		return newError(ErrPathTraversal, allowedRoot, err)
	}
	abs, err := filepath.Abs(candidate)
	if err != nil {
		return newError(ErrPathTraversal, candidate, err)
	}
	if !fileutil.IsWithin(abs, root) {
		return newError(ErrPathTraversal, candidate, nil)
	}
	return nil
}

// Formats selects which documents to produce.
type Formats struct {
	PDF  bool
	DOCX bool
}

// FormatFlags are the raw format selectors from the caller.
type FormatFlags struct {
	PDFOnly  bool
	DOCXOnly bool
	Format   string // "pdf", "docx", "both", or empty
}

// DetermineFormats applies PDFOnly > DOCXOnly > Format > both.
func DetermineFormats(f FormatFlags) (Formats, error) {
	out := Formats{PDF: true, DOCX: true}
	switch {
	case f.PDFOnly:
		out.DOCX = false
	case f.DOCXOnly:
		out.PDF = false
	case f.Format != "":
		out.PDF = f.Format == "pdf" || f.Format == "both"
		out.DOCX = f.Format == "docx" || f.Format == "both"
	}

	if !out.PDF && !out.DOCX {
		detail := fmt.Sprintf("invalid format '%s', expected: pdf, docx, or both", f.Format)
		return out, newError(ErrInvalidFormat, detail, nil)
	}
	return out, nil
}

// ParseTimeoutMs parses a millisecond count. Only the leading run of
// digits (after an optional sign) counts, so "30000.5" is 30000ms and
// "12abc" is 12ms. Empty means DefaultTimeout. Values too large for a
// time.Duration are clamped to MaxTimeout; zero and negatives are invalid.
func ParseTimeoutMs(raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return DefaultTimeout, nil
	}

	end := 0
	if s[0] == '+' || s[0] == '-' {
		end = 1
	}
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}

	ms, err := strconv.ParseInt(s[:end], 10, 64)
	if errors.Is(err, strconv.ErrRange) && ms > 0 {
		return MaxTimeout, nil
	}
	if err != nil || ms <= 0 {
		return 0, newError(ErrInvalidTimeout, raw, nil)
	}
	if ms > int64(MaxTimeout/time.Millisecond) {
		return MaxTimeout, nil
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// InputInfo describes a validated input file.
type InputInfo struct {
	Path     string
	Size     int64
	Large    bool
	Markdown bool
}

// ValidateInputFile checks that path exists, has a supported extension,
// and holds more than whitespace.
func ValidateInputFile(path string) (InputInfo, error) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return InputInfo{}, newError(ErrInputNotFound, path, err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	isMarkdown := false
	switch ext {
	case ".html", ".htm":
	case ".md", ".markdown":
		isMarkdown = true
	default:
		return InputInfo{}, newError(ErrInvalidFormat, "expected .html, .htm, .md or .markdown, got "+ext, nil)
	}

	if info.Size() == 0 {
		return InputInfo{}, newError(ErrEmptyInput, path, nil)
	}
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided input
	if err != nil {
		return InputInfo{}, newError(ErrLoadFailed, path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return InputInfo{}, newError(ErrEmptyInput, path, nil)
	}

	return InputInfo{
		Path:     path,
		Size:     info.Size(),
		Large:    info.Size() > LargeFileThreshold,
		Markdown: isMarkdown,
	}, nil
}

// CheckOverwrite fails with ErrFileExists for the first existing path
// unless force is set.
func CheckOverwrite(force bool, paths ...string) error {
	if force {
		return nil
	}
	for _, p := range paths {
		if fileutil.PathExists(p) {
			return newError(ErrFileExists, p, nil)
		}
	}
	return nil
}
