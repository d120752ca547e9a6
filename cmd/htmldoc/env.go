package main

import (
	"context"
	"io"
	"os"
	"time"

	htmldoc "github.com/alnah/go-htmldoc"
)

// Converter is the part of *htmldoc.Converter the CLI drives.
type Converter interface {
	ConvertToPDF(ctx context.Context, inputPath, outputPath string, opts htmldoc.PDFOptions) (*htmldoc.PDFResult, error)
	ConvertToDOCX(ctx context.Context, inputPath, outputPath string, opts htmldoc.DOCXOptions) (*htmldoc.DOCXResult, error)
	EngineAvailable(ctx context.Context) bool
	CheckDependencies(ctx context.Context) htmldoc.DependencyCheckResult
	Close() error
}

// Compile-time interface implementation check.
var _ Converter = (*htmldoc.Converter)(nil)

// Environment holds injectable dependencies for testability.
type Environment struct {
	Now          func() time.Time
	Stdout       io.Writer
	Stderr       io.Writer
	Getenv       func(string) string
	Environ      func() []string
	NewConverter func(opts ...htmldoc.Option) Converter
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Now:     time.Now,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Getenv:  os.Getenv,
		Environ: os.Environ,
		NewConverter: func(opts ...htmldoc.Option) Converter {
			return htmldoc.NewConverter(opts...)
		},
	}
}
