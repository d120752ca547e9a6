package assets

import (
	"errors"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestLoadStyle - Embedded stylesheets
// ---------------------------------------------------------------------------

func TestLoadStyle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		styleName   string
		wantErr     error
		wantContain string
	}{
		{
			name:        "loads print style",
			styleName:   PrintStyle,
			wantContain: "print-color-adjust: exact",
		},
		{
			name:        "loads markdown style",
			styleName:   MarkdownStyle,
			wantContain: "font-family",
		},
		{
			name:      "returns ErrStyleNotFound for nonexistent",
			styleName: "nonexistent-style-xyz",
			wantErr:   ErrStyleNotFound,
		},
		{
			name:      "returns ErrInvalidAssetName for empty name",
			styleName: "",
			wantErr:   ErrInvalidAssetName,
		},
		{
			name:      "returns ErrInvalidAssetName for path traversal",
			styleName: "../secret",
			wantErr:   ErrInvalidAssetName,
		},
		{
			name:      "returns ErrInvalidAssetName for extension",
			styleName: "print.css",
			wantErr:   ErrInvalidAssetName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := LoadStyle(tt.styleName)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("LoadStyle(%q) error = %v, want %v", tt.styleName, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadStyle(%q) unexpected error: %v", tt.styleName, err)
			}
			if !strings.Contains(got, tt.wantContain) {
				t.Errorf("LoadStyle(%q) missing %q", tt.styleName, tt.wantContain)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestPrintCSS - Print optimization rules
// ---------------------------------------------------------------------------

func TestPrintCSS(t *testing.T) {
	t.Parallel()

	css := PrintCSS()
	for _, rule := range []string{
		"table-layout: fixed",
		"overflow-wrap: break-word",
		"::-webkit-scrollbar",
		"overflow-x: hidden",
		".overflow-x-auto",
		"pre {",
	} {
		if !strings.Contains(css, rule) {
			t.Errorf("PrintCSS() missing %q", rule)
		}
	}
}

// ---------------------------------------------------------------------------
// TestLoadTemplate - Document wrapper
// ---------------------------------------------------------------------------

func TestLoadTemplate(t *testing.T) {
	t.Parallel()

	tmpl, err := LoadTemplate(DocumentTemplate)
	if err != nil {
		t.Fatalf("LoadTemplate() error = %v", err)
	}

	var sb strings.Builder
	err = tmpl.Execute(&sb, map[string]any{
		"Title": "Q3 <Report>",
		"Style": "",
		"Body":  "",
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(sb.String(), "<title>Q3 &lt;Report&gt;</title>") {
		t.Errorf("title not escaped: %s", sb.String())
	}
	if strings.Contains(sb.String(), "<style>") {
		t.Error("empty style should not emit a style element")
	}

	if _, err := LoadTemplate("missing"); !errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("LoadTemplate(missing) error = %v, want ErrTemplateNotFound", err)
	}
}
