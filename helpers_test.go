package htmldoc

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

// ---------------------------------------------------------------------------
// Fake Browser and Page
// ---------------------------------------------------------------------------

type fakePage struct {
	navigate   func(ctx context.Context, url string) error
	setContent func(ctx context.Context, html string) error
	print      func(ctx context.Context, o resolvedPDF) ([]byte, error)
	closeErr   error

	mu       sync.Mutex
	url      string
	content  string
	styles   []string
	printed  *resolvedPDF
	viewport [2]int
	closed   bool
}

func (p *fakePage) SetViewport(_ context.Context, w, h int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.viewport = [2]int{w, h}
	return nil
}

func (p *fakePage) Navigate(ctx context.Context, url string) error {
	p.mu.Lock()
	p.url = url
	p.mu.Unlock()
	if p.navigate != nil {
		return p.navigate(ctx, url)
	}
	return nil
}

func (p *fakePage) SetContent(ctx context.Context, html string) error {
	p.mu.Lock()
	p.content = html
	p.mu.Unlock()
	if p.setContent != nil {
		return p.setContent(ctx, html)
	}
	return nil
}

func (p *fakePage) AddStyle(_ context.Context, css string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.styles = append(p.styles, css)
	return nil
}

func (p *fakePage) PrintPDF(ctx context.Context, o resolvedPDF) ([]byte, error) {
	p.mu.Lock()
	p.printed = &o
	p.mu.Unlock()
	if p.print != nil {
		return p.print(ctx, o)
	}
	return minimalPDF(1), nil
}

func (p *fakePage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return p.closeErr
}

type fakeBrowser struct {
	page    *fakePage
	pageErr error

	connected atomic.Bool
	hang      atomic.Bool // Connected blocks until ctx is done
	closes    atomic.Int32
	done      chan struct{}
	doneOnce  sync.Once
}

func newFakeBrowser() *fakeBrowser {
	b := &fakeBrowser{page: &fakePage{}, done: make(chan struct{})}
	b.connected.Store(true)
	return b
}

func (b *fakeBrowser) NewPage(context.Context) (Page, error) {
	if b.pageErr != nil {
		return nil, b.pageErr
	}
	return b.page, nil
}

func (b *fakeBrowser) Connected(ctx context.Context) bool {
	if b.hang.Load() {
		<-ctx.Done()
		return false
	}
	return b.connected.Load()
}

func (b *fakeBrowser) Disconnected() <-chan struct{} { return b.done }

func (b *fakeBrowser) Close() error {
	b.closes.Add(1)
	b.disconnect()
	return nil
}

// disconnect simulates the browser process going away.
func (b *fakeBrowser) disconnect() {
	b.connected.Store(false)
	b.doneOnce.Do(func() { close(b.done) })
}

// countingLauncher hands out fresh fake browsers and counts launches.
type countingLauncher struct {
	launches atomic.Int32
	mu       sync.Mutex
	browsers []*fakeBrowser
	gate     chan struct{} // when non-nil, each launch waits for a value
	err      error
}

func (l *countingLauncher) launch(ctx context.Context) (Browser, error) {
	l.launches.Add(1)
	if l.gate != nil {
		select {
		case <-l.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if l.err != nil {
		return nil, l.err
	}
	b := newFakeBrowser()
	l.mu.Lock()
	l.browsers = append(l.browsers, b)
	l.mu.Unlock()
	return b, nil
}

func (l *countingLauncher) last() *fakeBrowser {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.browsers) == 0 {
		return nil
	}
	return l.browsers[len(l.browsers)-1]
}

// launcherFor always returns b.
func launcherFor(b *fakeBrowser) Launcher {
	return func(context.Context) (Browser, error) { return b, nil }
}

// ---------------------------------------------------------------------------
// Fake Command Runner
// ---------------------------------------------------------------------------

type fakeRunner struct {
	run func(ctx context.Context, name string, args ...string) (string, string, error)

	mu    sync.Mutex
	calls [][]string
}

func (r *fakeRunner) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	r.mu.Lock()
	r.calls = append(r.calls, append([]string{name}, args...))
	r.mu.Unlock()
	if r.run != nil {
		return r.run(ctx, name, args...)
	}
	return "", "", nil
}

func (r *fakeRunner) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// sofficeWriting returns a run func that behaves like LibreOffice: it
// writes <outdir>/<stem>.docx from the last argument.
func sofficeWriting(t *testing.T) func(context.Context, string, ...string) (string, string, error) {
	t.Helper()
	return func(_ context.Context, _ string, args ...string) (string, string, error) {
		var outDir string
		for i, a := range args {
			if a == "--outdir" && i+1 < len(args) {
				outDir = args[i+1]
			}
		}
		input := args[len(args)-1]
		stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
		path := filepath.Join(outDir, stem+".docx")
		if err := os.WriteFile(path, minimalDOCX(t, "Heading1", "", ""), 0o644); err != nil {
			return "", err.Error(), err
		}
		return "convert " + input + " -> " + path, "", nil
	}
}

// ---------------------------------------------------------------------------
// Document builders
// ---------------------------------------------------------------------------

// minimalPDF builds a structurally valid PDF with n empty pages.
func minimalPDF(n int) []byte {
	var objs []string
	objs = append(objs, "<< /Type /Catalog /Pages 2 0 R >>")
	kids := make([]string, n)
	for i := range n {
		kids[i] = fmt.Sprintf("%d 0 R", i+3)
	}
	objs = append(objs, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), n))
	for range n {
		objs = append(objs, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>")
	}

	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n", len(objs)+1)
	b.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return b.Bytes()
}

// minimalDOCX builds a DOCX with one paragraph per style; "" means unstyled.
func minimalDOCX(t *testing.T, styles ...string) []byte {
	t.Helper()

	var body strings.Builder
	for i, s := range styles {
		body.WriteString("<w:p>")
		if s != "" {
			fmt.Fprintf(&body, `<w:pPr><w:pStyle w:val="%s"/></w:pPr>`, s)
		}
		fmt.Fprintf(&body, "<w:r><w:t>Paragraph %d</w:t></w:r></w:p>", i+1)
	}

	parts := map[string]string{
		"[Content_Types].xml": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/></Types>`,
		"_rels/.rels": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/></Relationships>`,
		"word/_rels/document.xml.rels": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`,
		"word/document.xml": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` + body.String() + `</w:body></w:document>`,
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range parts {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}
