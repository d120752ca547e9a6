package htmldoc

import (
	"context"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/go-rod/rod/lib/launcher"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-htmldoc/internal/fileutil"
	"github.com/alnah/go-htmldoc/internal/hints"
	"github.com/alnah/go-htmldoc/internal/platform"
)

// versionTimeout bounds each "--version" call.
const versionTimeout = 5 * time.Second

// Dependency names as shown in reports.
const (
	DepChromium    = "Chromium"
	DepLibreOffice = "LibreOffice"
)

var (
	chromiumPrefix = regexp.MustCompile(`^(Chromium|Google Chrome)\s+`)
	sofficeVersion = regexp.MustCompile(`LibreOffice\s+(\d+\.\d+\.\d+(?:\.\d+)?)`)
)

// DependencyStatus describes one external program.
type DependencyStatus struct {
	Name        string `json:"name"`
	Required    bool   `json:"required"`
	Found       bool   `json:"found"`
	Path        string `json:"path,omitempty"`
	Version     string `json:"version,omitempty"`
	InstallHint string `json:"installHint,omitempty"`
}

// DependencyCheckResult lists every dependency. AllFound is true when
// every required one was found.
type DependencyCheckResult struct {
	AllFound     bool               `json:"allFound"`
	Dependencies []DependencyStatus `json:"dependencies"`
}

// CheckDependencies looks for Chromium and LibreOffice concurrently and
// asks each for its version. A failed version lookup does not turn a found
// dependency into a missing one.
func (c *Converter) CheckDependencies(ctx context.Context) DependencyCheckResult {
	deps := make([]DependencyStatus, 2)

	var g errgroup.Group
	g.Go(func() error {
		deps[0] = c.checkChromium(ctx)
		return nil
	})
	g.Go(func() error {
		deps[1] = c.checkLibreOffice(ctx)
		return nil
	})
	_ = g.Wait()

	result := DependencyCheckResult{AllFound: true, Dependencies: deps}
	for _, d := range deps {
		if d.Required && !d.Found {
			result.AllFound = false
		}
	}
	return result
}

// CheckDependencies runs the check with the default Converter.
func CheckDependencies(ctx context.Context) DependencyCheckResult {
	return defaultConv().CheckDependencies(ctx)
}

func (c *Converter) checkChromium(ctx context.Context) DependencyStatus {
	st := DependencyStatus{Name: DepChromium, Required: true}

	bin := c.browserBin
	if bin == "" {
		bin = os.Getenv(EnvBrowserBin)
	}
	if bin == "" {
		if p, ok := launcher.LookPath(); ok {
			bin = p
		}
	}
	if bin == "" || !fileutil.FileExists(bin) {
		st.InstallHint = hints.InstallInstructions("chromium")
		return st
	}

	st.Found = true
	st.Path = bin
	if out, ok := c.readVersion(ctx, bin); ok {
		st.Version = chromiumPrefix.ReplaceAllString(out, "")
	}
	return st
}

func (c *Converter) checkLibreOffice(ctx context.Context) DependencyStatus {
	st := DependencyStatus{Name: DepLibreOffice, Required: true}

	bin, err := c.locator.Find(ctx)
	if err != nil {
		st.InstallHint = err.Error() + "\n" + hints.InstallInstructions("libreoffice")
		return st
	}
	if bin == "" {
		st.InstallHint = hints.InstallInstructions("libreoffice")
		return st
	}

	st.Found = true
	st.Path = bin
	if out, ok := c.readVersion(ctx, bin); ok {
		if m := sofficeVersion.FindStringSubmatch(out); m != nil {
			st.Version = m[1]
		} else {
			st.Version = out
		}
	}
	return st
}

// readVersion runs "bin --version" and returns its first output line.
func (c *Converter) readVersion(ctx context.Context, bin string) (string, bool) {
	vctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()

	stdout, _, err := c.runner.Run(vctx, bin, "--version")
	if err != nil {
		c.logger.Debug("version lookup failed", "bin", bin, "error", err)
		return "", false
	}
	line, _, _ := strings.Cut(strings.TrimSpace(stdout), "\n")
	line = strings.TrimSpace(line)
	return line, line != ""
}

// FormatDependencyReport renders result for a terminal.
func FormatDependencyReport(result DependencyCheckResult, useColor bool) string {
	green := color.New(color.FgGreen, color.Bold)
	red := color.New(color.FgRed, color.Bold)
	if useColor {
		green.EnableColor()
		red.EnableColor()
	} else {
		green.DisableColor()
		red.DisableColor()
	}

	var b strings.Builder
	b.WriteString("System: " + platform.Name() + "\n\n")
	b.WriteString("Dependencies:\n")

	for _, d := range result.Dependencies {
		tag := green.Sprint("[OK]")
		if !d.Found {
			tag = red.Sprint("[MISSING]")
		}
		b.WriteString("  " + tag + " " + d.Name)
		if d.Required {
			b.WriteString(" (required)")
		}
		b.WriteString("\n")

		if d.Found {
			if d.Version != "" {
				b.WriteString("       Version: " + d.Version + "\n")
			}
			if d.Path != "" {
				b.WriteString("       Path: " + d.Path + "\n")
			}
			continue
		}
		if d.InstallHint != "" {
			for _, line := range strings.Split(d.InstallHint, "\n") {
				b.WriteString("       " + line + "\n")
			}
		}
	}

	b.WriteString("\n")
	if result.AllFound {
		b.WriteString(green.Sprint("All required dependencies are installed.") + "\n")
	} else {
		b.WriteString(red.Sprint("Some required dependencies are missing.") + "\n")
	}
	return b.String()
}
