package htmldoc

import (
	"bytes"
	"fmt"
	"os"
	"regexp"

	"github.com/fumiama/go-docx"
	pdflib "github.com/ledongthuc/pdf"
)

// headingStyle matches Word heading style ids ("Heading1", "heading 2").
var headingStyle = regexp.MustCompile(`(?i)^heading\s*[1-6]$`)

// countPDFPages returns the page count of a PDF held in memory.
// The PDF library panics on some malformed inputs, hence the recover.
func countPDFPages(data []byte) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("reading pdf: %v", r)
		}
	}()
	r, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, err
	}
	return r.NumPage(), nil
}

// docxStats counts body paragraphs and those styled as headings.
type docxStats struct {
	paragraphs int
	headings   int
}

// inspectDOCX reads the DOCX at path and counts its paragraphs.
func inspectDOCX(path string) (stats docxStats, err error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path produced by this package
	if err != nil {
		return stats, err
	}
	defer func() {
		if r := recover(); r != nil {
			stats, err = docxStats{}, fmt.Errorf("reading docx: %v", r)
		}
	}()

	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return stats, err
	}
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		stats.paragraphs++
		if para.Properties != nil && para.Properties.Style != nil && headingStyle.MatchString(para.Properties.Style.Val) {
			stats.headings++
		}
	}
	return stats, nil
}
