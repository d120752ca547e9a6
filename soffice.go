package htmldoc

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"

	"github.com/hashicorp/go-hclog"

	"github.com/alnah/go-htmldoc/internal/fileutil"
	"github.com/alnah/go-htmldoc/internal/hints"
	"github.com/alnah/go-htmldoc/internal/platform"
)

// EnvSofficeBin overrides the LibreOffice binary location.
const EnvSofficeBin = "HTMLDOC_SOFFICE_BIN"

// sofficePaths are the well-known install locations per platform.
var sofficePaths = map[string][]string{
	platform.Darwin: {
		"/Applications/LibreOffice.app/Contents/MacOS/soffice",
		"/opt/homebrew/bin/soffice",
	},
	platform.Linux: {
		"/usr/bin/soffice",
		"/usr/lib/libreoffice/program/soffice",
		"/snap/bin/libreoffice",
	},
	platform.Windows: {
		`C:\Program Files\LibreOffice\program\soffice.exe`,
		`C:\Program Files (x86)\LibreOffice\program\soffice.exe`,
	},
}

// sofficeNames are searched in PATH after the fixed locations.
var sofficeNames = []string{"soffice", "libreoffice"}

// EngineLocator finds the LibreOffice executable.
// Find returns "", nil when LibreOffice is simply not installed.
type EngineLocator interface {
	Find(ctx context.Context) (string, error)
}

// SofficeLocator searches an override, then fixed install paths, then PATH.
type SofficeLocator struct {
	// Override is tried first. Empty means $HTMLDOC_SOFFICE_BIN.
	Override string
	// Candidates replaces the platform's install paths when non-nil.
	Candidates []string
	// LookPath replaces exec.LookPath when non-nil.
	LookPath func(file string) (string, error)
	Logger   hclog.Logger
}

// NewSofficeLocator returns a locator with platform defaults.
func NewSofficeLocator(override string, logger hclog.Logger) *SofficeLocator {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &SofficeLocator{Override: override, Logger: logger}
}

// Find returns the first executable LibreOffice binary. A binary that exists
// but cannot be executed is an ErrEnginePermission error: it signals a broken
// installation rather than a missing one.
func (l *SofficeLocator) Find(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	logger := l.logger()

	var candidates []string
	override := l.Override
	if override == "" {
		override = os.Getenv(EnvSofficeBin)
	}
	if override != "" {
		candidates = append(candidates, override)
	}
	if l.Candidates != nil {
		candidates = append(candidates, l.Candidates...)
	} else {
		candidates = append(candidates, sofficePaths[platform.Current()]...)
	}

	for _, p := range candidates {
		err := fileutil.CheckExecutable(p)
		switch {
		case err == nil:
			logger.Debug("found LibreOffice", "path", p)
			return p, nil
		case errors.Is(err, fs.ErrPermission):
			e := newError(ErrEnginePermission, fmt.Sprintf("LibreOffice found at %s but lacks execute permission", p), err)
			e.Suggestion = hints.ForEnginePermission(p)
			return "", e
		case errors.Is(err, fs.ErrNotExist):
			continue
		default:
			logger.Debug("unexpected error checking LibreOffice path", "path", p, "error", err)
		}
	}

	lookPath := l.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	for _, name := range sofficeNames {
		p, err := lookPath(name)
		if err == nil {
			logger.Debug("found LibreOffice in PATH", "path", p)
			return p, nil
		}
		if !errors.Is(err, exec.ErrNotFound) {
			logger.Debug("unexpected error in PATH lookup", "name", name, "error", err)
		}
	}

	logger.Debug("LibreOffice not found")
	return "", nil
}

func (l *SofficeLocator) logger() hclog.Logger {
	if l.Logger == nil {
		return hclog.NewNullLogger()
	}
	return l.Logger
}

// VerifyEngine reports whether loc finds a LibreOffice binary.
func VerifyEngine(ctx context.Context, loc EngineLocator) bool {
	p, err := loc.Find(ctx)
	return err == nil && p != ""
}
