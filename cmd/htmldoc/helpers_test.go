package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	htmldoc "github.com/alnah/go-htmldoc"
)

// ---------------------------------------------------------------------------
// Test Infrastructure - Fake converter and environment
// ---------------------------------------------------------------------------

// fakeConverter records calls and writes placeholder outputs.
type fakeConverter struct {
	mu        sync.Mutex
	pdfErr    error
	docxErr   error
	noEngine  bool
	deps      htmldoc.DependencyCheckResult
	pdfOpts   []htmldoc.PDFOptions
	docxOpts  []htmldoc.DOCXOptions
	pdfCalls  int
	docxCalls int
	closed    bool
	options   int
}

func (f *fakeConverter) ConvertToPDF(_ context.Context, _, out string, opts htmldoc.PDFOptions) (*htmldoc.PDFResult, error) {
	f.mu.Lock()
	f.pdfCalls++
	f.pdfOpts = append(f.pdfOpts, opts)
	f.mu.Unlock()
	if f.pdfErr != nil {
		return nil, f.pdfErr
	}
	if err := os.WriteFile(out, []byte("%PDF-1.4"), 0o644); err != nil {
		return nil, err
	}
	return &htmldoc.PDFResult{Path: out, PageCount: 2}, nil
}

func (f *fakeConverter) ConvertToDOCX(_ context.Context, _, out string, opts htmldoc.DOCXOptions) (*htmldoc.DOCXResult, error) {
	f.mu.Lock()
	f.docxCalls++
	f.docxOpts = append(f.docxOpts, opts)
	f.mu.Unlock()
	if f.docxErr != nil {
		return nil, f.docxErr
	}
	if err := os.WriteFile(out, []byte("PK"), 0o644); err != nil {
		return nil, err
	}
	return &htmldoc.DOCXResult{OutputPath: out, Paragraphs: 1}, nil
}

func (f *fakeConverter) EngineAvailable(context.Context) bool {
	return !f.noEngine
}

func (f *fakeConverter) CheckDependencies(context.Context) htmldoc.DependencyCheckResult {
	return f.deps
}

func (f *fakeConverter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// testEnv wires buffers and the fake converter into an Environment.
type testEnv struct {
	*Environment
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	conv   *fakeConverter
	vars   map[string]string
}

func newTestEnv(conv *fakeConverter) *testEnv {
	te := &testEnv{
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		conv:   conv,
		vars:   map[string]string{"NO_COLOR": "1"},
	}
	te.Environment = &Environment{
		Now:    time.Now,
		Stdout: te.stdout,
		Stderr: te.stderr,
		Getenv: func(k string) string { return te.vars[k] },
		Environ: func() []string {
			out := make([]string, 0, len(te.vars))
			for k, v := range te.vars {
				out = append(out, k+"="+v)
			}
			return out
		},
		NewConverter: func(opts ...htmldoc.Option) Converter {
			conv.options = len(opts)
			return conv
		},
	}
	return te
}

// writeInput creates an input document in a fresh directory.
func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
