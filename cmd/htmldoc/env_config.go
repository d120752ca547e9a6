package main

import (
	"fmt"
	"io"
	"strings"

	htmldoc "github.com/alnah/go-htmldoc"
	"github.com/alnah/go-htmldoc/internal/config"
)

// Environment variables read by the CLI.
const (
	envConfigPath = "HTMLDOC_CONFIG"
	envTimeout    = "HTMLDOC_TIMEOUT"
	envOutputDir  = "HTMLDOC_OUTPUT_DIR"
	envPrefix     = "HTMLDOC_"
)

// envConfig holds configuration from environment variables.
// Precedence: CLI flags > env vars > config file > defaults.
type envConfig struct {
	ConfigPath string // HTMLDOC_CONFIG: config file name or path
	Timeout    string // HTMLDOC_TIMEOUT: milliseconds
	OutputDir  string // HTMLDOC_OUTPUT_DIR: default output directory
	SofficeBin string // HTMLDOC_SOFFICE_BIN: LibreOffice binary
	BrowserBin string // ROD_BROWSER_BIN: Chromium binary
	NoSandbox  *bool  // ROD_NO_SANDBOX: nil when unset
}

// knownEnvVars lists valid HTMLDOC_* environment variables.
var knownEnvVars = map[string]bool{
	envConfigPath:         true,
	envTimeout:            true,
	envOutputDir:          true,
	htmldoc.EnvSofficeBin: true,
}

// loadEnvConfig reads the recognized environment variables.
func loadEnvConfig(getenv func(string) string) *envConfig {
	cfg := &envConfig{
		ConfigPath: getenv(envConfigPath),
		Timeout:    getenv(envTimeout),
		OutputDir:  getenv(envOutputDir),
		SofficeBin: getenv(htmldoc.EnvSofficeBin),
		BrowserBin: getenv(htmldoc.EnvBrowserBin),
	}
	if v := getenv(htmldoc.EnvNoSandbox); v != "" {
		noSandbox := v == "1" || strings.EqualFold(v, "true")
		cfg.NoSandbox = &noSandbox
	}
	return cfg
}

// warnUnknownEnvVars warns about unrecognized HTMLDOC_* variables.
func warnUnknownEnvVars(environ []string, w io.Writer) {
	for _, kv := range environ {
		if !strings.HasPrefix(kv, envPrefix) {
			continue
		}
		name, _, _ := strings.Cut(kv, "=")
		if !knownEnvVars[name] {
			fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
		}
	}
}

// applyEnvConfig overrides config values with environment values.
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.Timeout != "" {
		cfg.Timeout = env.Timeout
	}
	if env.OutputDir != "" {
		cfg.Output.DefaultDir = env.OutputDir
	}
	if env.SofficeBin != "" {
		cfg.DOCX.Engine = env.SofficeBin
	}
	if env.BrowserBin != "" {
		cfg.Browser.Bin = env.BrowserBin
	}
	if env.NoSandbox != nil {
		cfg.Browser.NoSandbox = env.NoSandbox
	}
}
