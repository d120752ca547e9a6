// Package hints provides actionable suggestions for common failure scenarios.
// Suggestions are plain sentences; Format renders them as "\n  hint: <text>"
// for appending to error messages.
package hints

import (
	"os"
	"strings"

	"github.com/alnah/go-htmldoc/internal/fileutil"
	"github.com/alnah/go-htmldoc/internal/platform"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// inCI reports whether a well-known CI variable is set.
func inCI() bool {
	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"} {
		if os.Getenv(v) != "" {
			return true
		}
	}
	return false
}

// Suggestions attached to conversion errors, one per failure kind.
const (
	InputNotFound = "Check the file path and ensure the file exists."
	InvalidFormat = "Provide an HTML file (.html or .htm) as input, and use --format pdf, docx, or both."
	EmptyInput    = "The input file is empty. Provide an HTML document with content."
	EngineMissing = "Install LibreOffice (https://www.libreoffice.org/download/) or use --pdf-only to skip DOCX generation."
	OutputDir     = "Check write permissions for the output directory."
	PDFFailed     = "Check that the HTML file is valid and try again."
	DOCXFailed    = "Ensure LibreOffice is properly installed and the HTML is valid."
	Timeout       = "For large documents, increase the limit with --timeout (milliseconds)."
	PathTraversal = "Write output inside the current working directory."
	InvalidTime   = "Use a positive number of milliseconds, e.g. --timeout 120000."
	InvalidOption = "Check page format, margins, and scale (0.1-2.0)."
	FileExists    = "Use --force to overwrite existing files."
	LoadFailed    = "Check that the file is readable and is valid HTML."
	Unknown       = "Please report this issue with details."
)

// ForEnginePermission explains a LibreOffice binary that exists but cannot run.
func ForEnginePermission(path string) string {
	return "Fix the permissions of " + path + " (chmod +x) or set HTMLDOC_SOFFICE_BIN."
}

// ForBrowserLaunch returns suggestions for browser launch errors.
// Detects CI/Docker environment and suggests relevant environment variables.
func ForBrowserLaunch() string {
	var hints []string

	if (inCI() || IsInContainer()) && os.Getenv("ROD_NO_SANDBOX") != "1" {
		hints = append(hints, "set ROD_NO_SANDBOX=1 for Docker/CI")
	}
	if os.Getenv("ROD_BROWSER_BIN") == "" {
		hints = append(hints, "set ROD_BROWSER_BIN to use a custom Chrome")
	}
	hints = append(hints, "run 'htmldoc check' to diagnose")

	return strings.Join(hints, "; ")
}

// Format creates a single hint string with consistent formatting.
func Format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// Install instructions per dependency and platform.
var installInstructions = map[string]map[string]string{
	"libreoffice": {
		platform.Darwin: `Install LibreOffice:
  brew install --cask libreoffice

Or download from:
  https://www.libreoffice.org/download/`,

		platform.Linux: `Install LibreOffice:
  Ubuntu/Debian: sudo apt install libreoffice
  Fedora:        sudo dnf install libreoffice
  Arch:          sudo pacman -S libreoffice`,

		platform.Windows: `Install LibreOffice:
  Download from https://www.libreoffice.org/download/
  Or: winget install LibreOffice.LibreOffice`,
	},

	"chromium": {
		platform.Darwin: `Install Google Chrome or Chromium:
  brew install --cask google-chrome

Or let go-rod download a managed Chromium on first use,
or point ROD_BROWSER_BIN at an existing binary.`,

		platform.Linux: `Install Chromium:
  Ubuntu/Debian: sudo apt install chromium
  Fedora:        sudo dnf install chromium

For missing system libraries:
  Ubuntu/Debian: sudo apt install -y libatk1.0-0 libatk-bridge2.0-0 libcups2 libdrm2 libxkbcommon0 libxcomposite1 libxdamage1 libxfixes3 libxrandr2 libgbm1 libasound2`,

		platform.Windows: `Install Google Chrome:
  winget install Google.Chrome

Or point ROD_BROWSER_BIN at an existing binary.`,
	},
}

// InstallInstructions returns platform-specific installation instructions
// for "libreoffice" or "chromium".
func InstallInstructions(dep string) string {
	if byPlatform, ok := installInstructions[dep]; ok {
		if text, ok := byPlatform[platform.Current()]; ok {
			return text
		}
	}
	return "Please install the required dependency."
}
