package htmldoc

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Page format names.
const (
	FormatA4     = "a4"
	FormatLetter = "letter"
	FormatLegal  = "legal"
)

// Conversion defaults.
const (
	DefaultTimeout       = 60 * time.Second
	DefaultLaunchTimeout = 30 * time.Second
	DefaultScale         = 1.0
	DefaultDOCXFilter    = "MS Word 2007 XML"
	MinScale             = 0.1
	MaxScale             = 2.0
)

// paperSizes holds width x height in inches for each format.
var paperSizes = map[string][2]float64{
	FormatA4:     {8.27, 11.69},
	FormatLetter: {8.5, 11},
	FormatLegal:  {8.5, 14},
}

// Margin holds CSS lengths for each page side. Empty means zero.
type Margin struct {
	Top    string
	Right  string
	Bottom string
	Left   string
}

// PDFOptions configures print-to-PDF. The zero value prints A4 portrait,
// with backgrounds, honoring CSS page size, zero margins, scale 1.
type PDFOptions struct {
	Format              string // "a4" (default), "letter", "legal"
	Landscape           bool
	Margin              Margin
	PrintBackground     *bool // nil = true
	PreferCSSPageSize   *bool // nil = true
	DisplayHeaderFooter bool
	HeaderTemplate      string
	FooterTemplate      string
	Scale               float64       // 0 = 1.0; otherwise within [0.1, 2.0]
	Timeout             time.Duration // 0 = DefaultTimeout; applies per stage
}

// DOCXOptions configures the LibreOffice conversion.
type DOCXOptions struct {
	OutputDir string        // Overrides the directory of the output path
	Timeout   time.Duration // 0 = DefaultTimeout
	Filter    string        // "" = DefaultDOCXFilter
}

// PDFResult is the outcome of a PDF conversion.
type PDFResult struct {
	Buffer    []byte
	Path      string // Empty when no output path was requested
	PageCount int    // 0 when the PDF could not be inspected
}

// DOCXResult is the outcome of a DOCX conversion.
type DOCXResult struct {
	OutputPath string
	Paragraphs int // 0 when the DOCX could not be inspected
	Headings   int
}

// DocumentPDFResult pairs the parsed structure with the PDF.
type DocumentPDFResult struct {
	Document *ParsedDocument
	PDF      *PDFResult
}

// DocumentDOCXResult pairs the parsed structure with the DOCX.
type DocumentDOCXResult struct {
	Document *ParsedDocument
	DOCX     *DOCXResult
}

// Bool returns a pointer to b, for PDFOptions fields where nil means default.
func Bool(b bool) *bool {
	return &b
}

// resolvedPDF is PDFOptions with every default applied and lengths in inches.
type resolvedPDF struct {
	paperWidth          float64
	paperHeight         float64
	marginTop           float64
	marginRight         float64
	marginBottom        float64
	marginLeft          float64
	landscape           bool
	printBackground     bool
	preferCSSPageSize   bool
	displayHeaderFooter bool
	headerTemplate      string
	footerTemplate      string
	scale               float64
	timeout             time.Duration
}

// Validate reports the first invalid field as ErrInvalidOption (or
// ErrInvalidTimeout), without starting anything.
func (o PDFOptions) Validate() error {
	_, err := o.resolve()
	return err
}

// resolve validates o and merges it over the defaults.
func (o PDFOptions) resolve() (resolvedPDF, error) {
	r := resolvedPDF{
		landscape:           o.Landscape,
		printBackground:     true,
		preferCSSPageSize:   true,
		displayHeaderFooter: o.DisplayHeaderFooter,
		headerTemplate:      o.HeaderTemplate,
		footerTemplate:      o.FooterTemplate,
		scale:               DefaultScale,
		timeout:             DefaultTimeout,
	}

	format := strings.ToLower(strings.TrimSpace(o.Format))
	if format == "" {
		format = FormatA4
	}
	size, ok := paperSizes[format]
	if !ok {
		return r, newError(ErrInvalidOption, fmt.Sprintf("page format %q (must be a4, letter, or legal)", o.Format), nil)
	}
	r.paperWidth, r.paperHeight = size[0], size[1]

	if o.Scale != 0 {
		if o.Scale < MinScale || o.Scale > MaxScale {
			return r, newError(ErrInvalidOption, fmt.Sprintf("scale must be between %.1f and %.1f, got %g", MinScale, MaxScale, o.Scale), nil)
		}
		r.scale = o.Scale
	}

	if o.Timeout < 0 {
		return r, newError(ErrInvalidTimeout, fmt.Sprintf("timeout must be positive, got %s", o.Timeout), nil)
	}
	if o.Timeout > 0 {
		r.timeout = o.Timeout
	}

	if o.PrintBackground != nil {
		r.printBackground = *o.PrintBackground
	}
	if o.PreferCSSPageSize != nil {
		r.preferCSSPageSize = *o.PreferCSSPageSize
	}

	sides := []struct {
		name string
		raw  string
		dst  *float64
	}{
		{"top", o.Margin.Top, &r.marginTop},
		{"right", o.Margin.Right, &r.marginRight},
		{"bottom", o.Margin.Bottom, &r.marginBottom},
		{"left", o.Margin.Left, &r.marginLeft},
	}
	for _, s := range sides {
		v, err := ParseLength(s.raw)
		if err != nil {
			return r, newError(ErrInvalidOption, fmt.Sprintf("margin %s: %v", s.name, err), nil)
		}
		*s.dst = v
	}

	return r, nil
}

// unitsPerInch converts CSS length units to inches.
var unitsPerInch = map[string]float64{
	"px": 96,
	"in": 1,
	"cm": 2.54,
	"mm": 25.4,
	"pt": 72,
}

// ParseLength converts a CSS length ("1cm", "0.5in", "10mm", "12pt",
// "20px", bare "20" = px) into inches. Empty means zero.
func ParseLength(raw string) (float64, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return 0, nil
	}

	unit := "px"
	for u := range unitsPerInch {
		if strings.HasSuffix(s, u) {
			unit = u
			s = strings.TrimSpace(strings.TrimSuffix(s, u))
			break
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid length %q", raw)
	}
	if v < 0 {
		return 0, fmt.Errorf("negative length %q", raw)
	}
	return v / unitsPerInch[unit], nil
}
