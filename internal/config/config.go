// Package config loads htmldoc YAML configuration files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/alnah/go-htmldoc/internal/fileutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrConfigTooLarge  = errors.New("config exceeds maximum size")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// MaxFileSize limits config input to prevent memory exhaustion.
const MaxFileSize = 1 << 20

// Field length limits.
const (
	MaxPathLength     = 4096
	MaxFormatLength   = 10    // "a4", "letter", "legal"
	MaxMarginLength   = 20    // "1.5cm", "0.75in"
	MaxTemplateLength = 10000 // header/footer HTML
	MaxFilterLength   = 100   // "MS Word 2007 XML"
	MaxTimeoutLength  = 20
)

// dirName is the directory searched under os.UserConfigDir.
const dirName = "go-htmldoc"

// Config holds all configuration for a conversion run.
type Config struct {
	Output  OutputConfig  `yaml:"output"`
	PDF     PDFConfig     `yaml:"pdf"`
	DOCX    DOCXConfig    `yaml:"docx"`
	Browser BrowserConfig `yaml:"browser"`
	Timeout string        `yaml:"timeout"` // milliseconds, parsed like the --timeout flag
}

// OutputConfig defines output destination options.
type OutputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // Empty = same as source
	Force      bool   `yaml:"force"`
}

// PDFConfig defines print-to-PDF options. Pointer fields distinguish unset
// from false where the conversion default is true.
type PDFConfig struct {
	Format            string       `yaml:"format"` // "a4", "letter", "legal"
	Landscape         bool         `yaml:"landscape"`
	Margin            MarginConfig `yaml:"margin"`
	PrintBackground   *bool        `yaml:"printBackground"`
	PreferCSSPageSize *bool        `yaml:"preferCSSPageSize"`
	Scale             float64      `yaml:"scale"` // 0 = default 1.0
	HeaderTemplate    string       `yaml:"headerTemplate"`
	FooterTemplate    string       `yaml:"footerTemplate"`
}

// MarginConfig holds CSS lengths for each page side.
type MarginConfig struct {
	Top    string `yaml:"top"`
	Right  string `yaml:"right"`
	Bottom string `yaml:"bottom"`
	Left   string `yaml:"left"`
}

// DOCXConfig defines LibreOffice options.
type DOCXConfig struct {
	Filter string `yaml:"filter"` // Empty = "MS Word 2007 XML"
	Engine string `yaml:"engine"` // Explicit soffice path
}

// BrowserConfig defines headless browser options.
type BrowserConfig struct {
	Bin       string `yaml:"bin"`
	NoSandbox *bool  `yaml:"noSandbox"`
}

// Validate checks field lengths and enumerations.
// Called by LoadConfig, available for configs built in code.
func (c *Config) Validate() error {
	checks := []struct {
		field string
		value string
		max   int
	}{
		{"output.defaultDir", c.Output.DefaultDir, MaxPathLength},
		{"pdf.format", c.PDF.Format, MaxFormatLength},
		{"pdf.margin.top", c.PDF.Margin.Top, MaxMarginLength},
		{"pdf.margin.right", c.PDF.Margin.Right, MaxMarginLength},
		{"pdf.margin.bottom", c.PDF.Margin.Bottom, MaxMarginLength},
		{"pdf.margin.left", c.PDF.Margin.Left, MaxMarginLength},
		{"pdf.headerTemplate", c.PDF.HeaderTemplate, MaxTemplateLength},
		{"pdf.footerTemplate", c.PDF.FooterTemplate, MaxTemplateLength},
		{"docx.filter", c.DOCX.Filter, MaxFilterLength},
		{"docx.engine", c.DOCX.Engine, MaxPathLength},
		{"browser.bin", c.Browser.Bin, MaxPathLength},
		{"timeout", c.Timeout, MaxTimeoutLength},
	}
	for _, chk := range checks {
		if err := validateFieldLength(chk.field, chk.value, chk.max); err != nil {
			return err
		}
	}

	if c.PDF.Format != "" {
		switch strings.ToLower(c.PDF.Format) {
		case "a4", "letter", "legal":
		default:
			return fmt.Errorf("%w: pdf.format %q (must be a4, letter, or legal)", ErrInvalidValue, c.PDF.Format)
		}
	}
	if c.PDF.Scale != 0 && (c.PDF.Scale < 0.1 || c.PDF.Scale > 2.0) {
		return fmt.Errorf("%w: pdf.scale must be between 0.1 and 2.0, got %.2f", ErrInvalidValue, c.PDF.Scale)
	}

	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// DefaultConfig returns an empty configuration: every conversion default applies.
func DefaultConfig() *Config {
	return &Config{}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !fileutil.IsFilePath(nameOrPath) {
		var err error
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", configPath, err)
	}
	return cfg, nil
}

// Parse decodes YAML config bytes, rejecting unknown keys, then validates.
func Parse(data []byte) (*Config, error) {
	if len(data) > MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrConfigTooLarge, len(data), MaxFileSize)
	}

	cfg := DefaultConfig()
	if len(strings.TrimSpace(string(data))) == 0 {
		return cfg, nil
	}
	if err := yaml.UnmarshalWithOptions(data, cfg, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, <user config dir>/go-htmldoc/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		localPath := name + ext
		if fileutil.FileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, dirName, name+ext)
			if fileutil.FileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}
