package htmldoc

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"time"

	"github.com/alnah/go-htmldoc/internal/hints"
)

// Sentinel errors identifying each failure kind.
// Every error returned by this package matches exactly one of them with errors.Is.
var (
	ErrInputNotFound    = errors.New("input file not found")
	ErrInvalidFormat    = errors.New("invalid file format")
	ErrEmptyInput       = errors.New("input file is empty")
	ErrEngineMissing    = errors.New("LibreOffice not found on this system")
	ErrEnginePermission = errors.New("LibreOffice lacks execute permission")
	ErrOutputDir        = errors.New("cannot create output directory")
	ErrPDFConversion    = errors.New("PDF generation failed")
	ErrDOCXConversion   = errors.New("DOCX conversion failed")
	ErrTimeout          = errors.New("operation timed out")
	ErrPathTraversal    = errors.New("path escapes the allowed directory")
	ErrInvalidTimeout   = errors.New("invalid timeout")
	ErrInvalidOption    = errors.New("invalid option")
	ErrFileExists       = errors.New("output file already exists")
	ErrLoadFailed       = errors.New("failed to load document")
	ErrBrowserLaunch    = errors.New("failed to launch browser")
	ErrBrowserClosed    = errors.New("browser closed")
	ErrUnknown          = errors.New("unknown error")
)

// Stage names the conversion step an error happened in.
type Stage string

// Conversion stages carried by timeout errors.
const (
	StageNavigation Stage = "navigation"
	StageContent    Stage = "content"
	StagePDF        Stage = "pdf"
	StageDOCX       Stage = "docx"
	StageLaunch     Stage = "launch"
)

// kindInfo describes how a failure kind is reported.
type kindInfo struct {
	code       string
	suggestion string
}

var kinds = map[error]kindInfo{
	ErrInputNotFound:    {"INPUT_NOT_FOUND", hints.InputNotFound},
	ErrInvalidFormat:    {"INVALID_FORMAT", hints.InvalidFormat},
	ErrEmptyInput:       {"EMPTY_INPUT", hints.EmptyInput},
	ErrEngineMissing:    {"LIBREOFFICE_MISSING", hints.EngineMissing},
	ErrEnginePermission: {"LIBREOFFICE_PERMISSION", ""},
	ErrOutputDir:        {"OUTPUT_DIR_FAILED", hints.OutputDir},
	ErrPDFConversion:    {"PDF_FAILED", hints.PDFFailed},
	ErrDOCXConversion:   {"DOCX_FAILED", hints.DOCXFailed},
	ErrTimeout:          {"TIMEOUT", hints.Timeout},
	ErrPathTraversal:    {"PATH_TRAVERSAL", hints.PathTraversal},
	ErrInvalidTimeout:   {"INVALID_TIMEOUT", hints.InvalidTime},
	ErrInvalidOption:    {"INVALID_OPTION", hints.InvalidOption},
	ErrFileExists:       {"FILE_EXISTS", hints.FileExists},
	ErrLoadFailed:       {"LOAD_FAILED", hints.LoadFailed},
	ErrBrowserLaunch:    {"BROWSER_LAUNCH_FAILED", ""},
	ErrBrowserClosed:    {"BROWSER_CLOSED", ""},
	ErrUnknown:          {"UNKNOWN", hints.Unknown},
}

// ConversionError is the typed failure returned by conversions.
// Kind is one of the sentinel errors; Err is the underlying cause, if any.
type ConversionError struct {
	Kind       error
	Detail     string
	Suggestion string
	Stage      Stage
	Timeout    time.Duration
	Err        error
}

// Error renders "<kind>: <detail>", or the timeout phrasing for ErrTimeout.
func (e *ConversionError) Error() string {
	if e.Kind == ErrTimeout && e.Stage != "" {
		msg := fmt.Sprintf("%s timed out after %s", e.Stage, e.Timeout)
		if e.Detail != "" {
			msg += ": " + e.Detail
		}
		return msg
	}
	if e.Detail == "" {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Detail
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *ConversionError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Code returns the stable upper-snake identifier of the kind.
func (e *ConversionError) Code() string {
	if info, ok := kinds[e.Kind]; ok {
		return info.code
	}
	return kinds[ErrUnknown].code
}

// newError builds a ConversionError with the kind's default suggestion.
func newError(kind error, detail string, cause error) *ConversionError {
	return &ConversionError{
		Kind:       kind,
		Detail:     detail,
		Suggestion: kinds[kind].suggestion,
		Err:        cause,
	}
}

// newTimeoutError builds an ErrTimeout for stage after d.
func newTimeoutError(stage Stage, d time.Duration, cause error) *ConversionError {
	e := newError(ErrTimeout, "", cause)
	e.Stage = stage
	e.Timeout = d
	return e
}

// AsConversionError returns err as a *ConversionError. Foreign errors are
// classified by their cause (not-exist, permission, deadline) and fall back
// to ErrUnknown, keeping the original message as detail.
func AsConversionError(err error) *ConversionError {
	if err == nil {
		return nil
	}
	var ce *ConversionError
	if errors.As(err, &ce) {
		return ce
	}
	for kind := range kinds {
		if errors.Is(err, kind) {
			return newError(kind, err.Error(), err)
		}
	}
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return newError(ErrInputNotFound, err.Error(), err)
	case errors.Is(err, fs.ErrPermission):
		return newError(ErrOutputDir, err.Error(), err)
	case errors.Is(err, context.DeadlineExceeded):
		return newError(ErrTimeout, err.Error(), err)
	case errors.Is(err, exec.ErrNotFound):
		return newError(ErrEngineMissing, err.Error(), err)
	}
	return newError(ErrUnknown, err.Error(), err)
}

// FormatError renders err for terminal output:
//
//	Error [CODE]: message
//	  Suggestion: text
//
// Errors that are not *ConversionError render as "Error: message".
func FormatError(err error) string {
	if err == nil {
		return ""
	}
	var ce *ConversionError
	if !errors.As(err, &ce) {
		return "Error: " + err.Error()
	}
	msg := fmt.Sprintf("Error [%s]: %s", ce.Code(), ce.Error())
	if ce.Suggestion != "" {
		msg += "\n  Suggestion: " + ce.Suggestion
	}
	return msg
}
