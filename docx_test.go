package htmldoc

// Notes:
// - LibreOffice is replaced by a fake CommandRunner that writes the file
//   soffice would produce, so naming, rename and error paths are tested
//   without the real engine.
// - The permission-denied stat case chmods the output directory and is
//   skipped when running as root or on Windows.

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"
	"time"
)

func newDOCXConverter(t *testing.T, runner CommandRunner, loc EngineLocator) *Converter {
	t.Helper()
	return newTestConverter(t, launcherFor(newFakeBrowser()),
		WithEngineLocator(loc),
		WithCommandRunner(runner),
	)
}

// ---------------------------------------------------------------------------
// TestConvertToDOCX - Success paths
// ---------------------------------------------------------------------------

func TestConvertToDOCX_RenamesToRequestedPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := writeFile(t, dir, "report.html", "<h1>R</h1>")
	out := filepath.Join(dir, "out", "final.docx")
	runner := &fakeRunner{run: sofficeWriting(t)}
	c := newDOCXConverter(t, runner, stubLocator{path: "/opt/soffice"})

	res, err := c.ConvertToDOCX(context.Background(), in, out, DOCXOptions{})
	if err != nil {
		t.Fatalf("ConvertToDOCX() error = %v", err)
	}
	if res.OutputPath != out {
		t.Errorf("OutputPath = %q, want %q", res.OutputPath, out)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("renamed output missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "out", "report.docx")); !os.IsNotExist(err) {
		t.Errorf("generated name left behind: %v", err)
	}
	if res.Paragraphs != 3 || res.Headings != 1 {
		t.Errorf("stats = %d paragraphs, %d headings; want 3, 1", res.Paragraphs, res.Headings)
	}

	want := []string{
		"/opt/soffice",
		"--headless",
		"--convert-to", "docx:" + DefaultDOCXFilter,
		"--outdir", filepath.Join(dir, "out"),
		in,
	}
	if !slices.Equal(runner.calls[0], want) {
		t.Errorf("command = %q, want %q", runner.calls[0], want)
	}
}

func TestConvertToDOCX_SameNameNoRename(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := writeFile(t, dir, "report.html", "<h1>R</h1>")
	out := filepath.Join(dir, "report.docx")
	c := newDOCXConverter(t, &fakeRunner{run: sofficeWriting(t)}, stubLocator{path: "soffice"})

	res, err := c.ConvertToDOCX(context.Background(), in, out, DOCXOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if res.OutputPath != out {
		t.Errorf("OutputPath = %q", res.OutputPath)
	}
}

func TestConvertToDOCX_OutputDirOverride(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := writeFile(t, dir, "report.html", "<h1>R</h1>")
	override := filepath.Join(dir, "elsewhere")

	tests := []struct {
		name string
		out  string
	}{
		{"requested name inside override", filepath.Join(override, "final.docx")},
		{"requested path outside override", filepath.Join(dir, "dest", "final.docx")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{run: sofficeWriting(t)}
			c := newDOCXConverter(t, runner, stubLocator{path: "soffice"})

			res, err := c.ConvertToDOCX(context.Background(), in, tt.out, DOCXOptions{OutputDir: override, Filter: "Office Open XML Text"})
			if err != nil {
				t.Fatal(err)
			}
			if res.OutputPath != tt.out {
				t.Errorf("OutputPath = %q, want %q", res.OutputPath, tt.out)
			}
			if _, err := os.Stat(tt.out); err != nil {
				t.Errorf("requested output missing: %v", err)
			}
			if _, err := os.Stat(filepath.Join(override, "report.docx")); !os.IsNotExist(err) {
				t.Errorf("generated name left behind: %v", err)
			}
			if !slices.Contains(runner.calls[0], override) {
				t.Errorf("command = %q, want --outdir %q", runner.calls[0], override)
			}
		})
	}
}

func TestConvertToDOCX_Markdown(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := writeFile(t, dir, "notes.md", "# Notes\n")
	out := filepath.Join(dir, "notes.docx")
	runner := &fakeRunner{run: sofficeWriting(t)}
	c := newDOCXConverter(t, runner, stubLocator{path: "soffice"})

	if _, err := c.ConvertToDOCX(context.Background(), in, out, DOCXOptions{}); err != nil {
		t.Fatalf("ConvertToDOCX() error = %v", err)
	}
	src := runner.calls[0][len(runner.calls[0])-1]
	if filepath.Base(src) != "notes.html" {
		t.Errorf("LibreOffice input = %q, want rendered notes.html", src)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("output missing: %v", err)
	}
}

func TestConvertHTMLFileToDOCX(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := writeFile(t, dir, "doc.html", "<h1>One</h1><h2>Two</h2>")
	c := newDOCXConverter(t, &fakeRunner{run: sofficeWriting(t)}, stubLocator{path: "soffice"})

	res, err := c.ConvertHTMLFileToDOCX(context.Background(), in, filepath.Join(dir, "doc.docx"), DOCXOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Document.Title != "One" || len(res.Document.Chapters) != 1 || len(res.Document.Chapters[0].Children) != 1 {
		t.Errorf("document = %+v", res.Document)
	}
}

// ---------------------------------------------------------------------------
// TestConvertToDOCX_Failures
// ---------------------------------------------------------------------------

func TestConvertToDOCX_EngineMissingNeverSpawns(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := writeFile(t, dir, "a.html", "<p>x</p>")

	tests := []struct {
		name string
		loc  stubLocator
		want error
	}{
		{"not installed", stubLocator{}, ErrEngineMissing},
		{"locator failure", stubLocator{err: errors.New("lookup broke")}, ErrEngineMissing},
		{"permission", stubLocator{err: newError(ErrEnginePermission, "/usr/bin/soffice", nil)}, ErrEnginePermission},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			runner := &fakeRunner{}
			c := newDOCXConverter(t, runner, tt.loc)

			_, err := c.ConvertToDOCX(context.Background(), in, filepath.Join(dir, tt.name+".docx"), DOCXOptions{})
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
			if runner.callCount() != 0 {
				t.Errorf("LibreOffice spawned %d times", runner.callCount())
			}
		})
	}
}

func TestConvertToDOCX_ProcessFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		run        func(context.Context, string, ...string) (string, string, error)
		wantKind   error
		wantDetail string
	}{
		{
			name: "non-zero exit carries stderr",
			run: func(context.Context, string, ...string) (string, string, error) {
				return "", "Error: source file could not be loaded\n", errors.New("exit status 1")
			},
			wantKind:   ErrDOCXConversion,
			wantDetail: "source file could not be loaded",
		},
		{
			name: "deadline",
			run: func(ctx context.Context, _ string, _ ...string) (string, string, error) {
				return "", "", blockUntilDone(ctx)
			},
			wantKind:   ErrTimeout,
			wantDetail: "docx timed out after 30ms",
		},
		{
			name: "success without output",
			run: func(context.Context, string, ...string) (string, string, error) {
				return "", "", nil
			},
			wantKind:   ErrDOCXConversion,
			wantDetail: "LibreOffice completed but output file not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			in := writeFile(t, dir, "a.html", "<p>x</p>")
			c := newDOCXConverter(t, &fakeRunner{run: tt.run}, stubLocator{path: "soffice"})

			_, err := c.ConvertToDOCX(context.Background(), in, filepath.Join(dir, "a.docx"), DOCXOptions{Timeout: 30 * time.Millisecond})
			if !errors.Is(err, tt.wantKind) {
				t.Fatalf("error = %v, want %v", err, tt.wantKind)
			}
			if !strings.Contains(err.Error(), tt.wantDetail) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantDetail)
			}
		})
	}
}

func TestConvertToDOCX_RenameFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := writeFile(t, dir, "report.html", "<h1>R</h1>")
	out := filepath.Join(dir, "final.docx")
	// A non-empty directory at the requested path makes the rename fail.
	if err := os.MkdirAll(out, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, out, "occupied", "x")
	c := newDOCXConverter(t, &fakeRunner{run: sofficeWriting(t)}, stubLocator{path: "soffice"})

	_, err := c.ConvertToDOCX(context.Background(), in, out, DOCXOptions{})
	if !errors.Is(err, ErrDOCXConversion) {
		t.Fatalf("error = %v, want ErrDOCXConversion", err)
	}
	if !strings.Contains(err.Error(), "Failed to rename output file") {
		t.Errorf("error %q does not mention the rename", err.Error())
	}
}

func TestConvertToDOCX_OutputNotAccessible(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("no POSIX directory permissions on windows")
	}
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}

	dir := t.TempDir()
	in := writeFile(t, dir, "a.html", "<p>x</p>")
	outDir := filepath.Join(dir, "out")
	write := sofficeWriting(t)
	runner := &fakeRunner{run: func(ctx context.Context, name string, args ...string) (string, string, error) {
		stdout, stderr, err := write(ctx, name, args...)
		if err != nil {
			return stdout, stderr, err
		}
		return stdout, stderr, os.Chmod(outDir, 0o000)
	}}
	t.Cleanup(func() { _ = os.Chmod(outDir, 0o755) })
	c := newDOCXConverter(t, runner, stubLocator{path: "soffice"})

	_, err := c.ConvertToDOCX(context.Background(), in, filepath.Join(outDir, "a.docx"), DOCXOptions{})
	if !errors.Is(err, ErrDOCXConversion) {
		t.Fatalf("error = %v, want ErrDOCXConversion", err)
	}
	if !strings.Contains(err.Error(), "not accessible (permission denied)") {
		t.Errorf("error %q does not report the permission problem", err.Error())
	}
	if strings.Contains(err.Error(), "output file not found") {
		t.Errorf("error %q reports a missing file instead", err.Error())
	}
}

func TestConvertToDOCX_OutputDirFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := writeFile(t, dir, "a.html", "<p>x</p>")
	blocker := writeFile(t, dir, "blocker", "x")
	runner := &fakeRunner{}
	c := newDOCXConverter(t, runner, stubLocator{path: "soffice"})

	_, err := c.ConvertToDOCX(context.Background(), in, filepath.Join(blocker, "a.docx"), DOCXOptions{})
	if !errors.Is(err, ErrOutputDir) {
		t.Errorf("error = %v, want ErrOutputDir", err)
	}
	if runner.callCount() != 0 {
		t.Error("LibreOffice spawned despite output dir failure")
	}
}

func TestConvertToDOCX_InvalidTimeout(t *testing.T) {
	t.Parallel()

	c := newDOCXConverter(t, &fakeRunner{}, stubLocator{path: "soffice"})
	_, err := c.ConvertToDOCX(context.Background(), "a.html", "a.docx", DOCXOptions{Timeout: -time.Second})
	if !errors.Is(err, ErrInvalidTimeout) {
		t.Errorf("error = %v, want ErrInvalidTimeout", err)
	}
}
