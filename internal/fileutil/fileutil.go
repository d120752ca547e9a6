// Package fileutil provides file and path utility functions.
package fileutil

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Sentinel errors for file utility operations.
var (
	ErrExtensionEmpty         = errors.New("extension cannot be empty")
	ErrExtensionPathTraversal = errors.New("extension contains path separator or null byte")
	ErrNotExecutable          = errors.New("file is not executable")
)

// WriteTempDocument writes content to <new temp dir>/<stem>.<extension>.
// The stem is preserved because external engines name their output after it.
// Returns the file path and a cleanup function removing the whole directory.
func WriteTempDocument(content, stem, extension string) (path string, cleanup func(), err error) {
	if err := ValidateExtension(extension); err != nil {
		return "", nil, err
	}
	if stem == "" || strings.ContainsAny(stem, "/\\\x00") {
		return "", nil, fmt.Errorf("%w: invalid stem %q", ErrExtensionPathTraversal, stem)
	}

	dir, err := os.MkdirTemp("", "htmldoc-*")
	if err != nil {
		return "", nil, fmt.Errorf("creating temp dir: %w", err)
	}
	cleanup = func() { _ = os.RemoveAll(dir) }

	path = filepath.Join(dir, stem+"."+extension)
	// #nosec G306 -- temp document is read by local engines
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("writing temp file: %w", err)
	}

	return path, cleanup, nil
}

// ValidateExtension checks that the extension is safe for use in temp file names.
func ValidateExtension(extension string) error {
	if extension == "" {
		return ErrExtensionEmpty
	}
	if strings.ContainsAny(extension, "/\\\x00") {
		return ErrExtensionPathTraversal
	}
	return nil
}

// FileExists returns true if the path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// PathExists returns true if anything exists at path.
func PathExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// CheckExecutable reports whether path is a runnable regular file.
// Returns an error wrapping fs.ErrNotExist when nothing is there, and one
// wrapping fs.ErrPermission (and ErrNotExecutable) when the file exists
// but cannot be executed. Windows has no execute bit; existence suffices.
func CheckExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return &fs.PathError{Op: "exec", Path: path, Err: fs.ErrNotExist}
	}
	if runtime.GOOS == "windows" {
		return nil
	}
	if info.Mode().Perm()&0o111 == 0 {
		return &fs.PathError{Op: "exec", Path: path, Err: errors.Join(fs.ErrPermission, ErrNotExecutable)}
	}
	return nil
}

// IsWithin reports whether path equals root or lies beneath it.
// Both are cleaned first; root is suffixed with the separator so that
// "/work-other" is not accepted under "/work".
func IsWithin(path, root string) bool {
	cleanPath := filepath.Clean(path)
	cleanRoot := filepath.Clean(root)
	if cleanPath == cleanRoot {
		return true
	}
	if !strings.HasSuffix(cleanRoot, string(filepath.Separator)) {
		cleanRoot += string(filepath.Separator)
	}
	return strings.HasPrefix(cleanPath, cleanRoot)
}

// FileURL converts an absolute path to a file:// URL with an optional fragment.
// Windows drive paths become file:///C:/...
func FileURL(absPath, fragment string) string {
	p := filepath.ToSlash(absPath)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	u := url.URL{Scheme: "file", Path: p, Fragment: fragment}
	return u.String()
}

// StripExt returns the base name of path without its extension.
func StripExt(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// IsFilePath returns true if the string looks like a file path rather than a name.
// A string containing path separators (/, \) is treated as a path.
func IsFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}
