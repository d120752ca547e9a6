package assets

import (
	"embed"
	"fmt"
	"html/template"
	"strings"
	"sync"
)

//go:embed styles/*.css
var styles embed.FS

//go:embed templates/*.html
var templates embed.FS

// Names of the built-in assets.
const (
	PrintStyle       = "print"
	MarkdownStyle    = "markdown"
	DocumentTemplate = "document"
)

// LoadStyle returns the embedded CSS named name (without .css).
func LoadStyle(name string) (string, error) {
	if err := ValidateAssetName(name); err != nil {
		return "", err
	}
	content, err := styles.ReadFile("styles/" + name + ".css")
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrStyleNotFound, name)
	}
	return string(content), nil
}

// LoadTemplate parses the embedded HTML template named name (without .html).
func LoadTemplate(name string) (*template.Template, error) {
	if err := ValidateAssetName(name); err != nil {
		return nil, err
	}
	content, err := templates.ReadFile("templates/" + name + ".html")
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}
	return template.New(name).Parse(string(content))
}

var (
	printCSSOnce sync.Once
	printCSS     string
)

// PrintCSS returns the print-optimization stylesheet.
// Panics if the embedded file is missing, which is a build defect.
func PrintCSS() string {
	printCSSOnce.Do(func() {
		css, err := LoadStyle(PrintStyle)
		if err != nil {
			panic(err)
		}
		printCSS = css
	})
	return printCSS
}

// ValidateAssetName rejects empty names and names containing path separators
// or dots, which could escape the asset directory or change the extension.
func ValidateAssetName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidAssetName)
	}
	if strings.ContainsAny(name, "/\\.") {
		return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
	}
	return nil
}
