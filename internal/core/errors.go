package core

import (
	"errors"
	"fmt"
)

// Code classifies an Error.
type Code string

const (
	CodeMissingArgument    Code = "MISSING_ARGUMENT"
	CodeNotFound           Code = "BENCHMARK_NOT_FOUND"
	CodeConfiguration      Code = "CONFIGURATION_ERROR"
	CodeModuleLoad         Code = "MODULE_LOAD_ERROR"
	CodeUnsupportedFile    Code = "UNSUPPORTED_FILE_ERROR"
	CodeDiscovery          Code = "DISCOVERY_ERROR"
	CodeInvalidManifest    Code = "INVALID_MANIFEST_ERROR"
	CodeBenchmarkExecution Code = "BENCHMARK_EXECUTION_ERROR"
	CodeInvalidFunction    Code = "INVALID_FUNCTION_ERROR"
	CodeNotImplemented     Code = "NOT_IMPLEMENTED"
)

// Error is the typed failure used across benchkit. Two Errors match with
// errors.Is when the target carries no message and the codes agree, so the
// Err* sentinels below can be used to test for a category.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code && t.Message == ""
}

var (
	ErrMissingArgument    = &Error{Code: CodeMissingArgument}
	ErrNotFound           = &Error{Code: CodeNotFound}
	ErrConfiguration      = &Error{Code: CodeConfiguration}
	ErrModuleLoad         = &Error{Code: CodeModuleLoad}
	ErrUnsupportedFile    = &Error{Code: CodeUnsupportedFile}
	ErrDiscovery          = &Error{Code: CodeDiscovery}
	ErrInvalidManifest    = &Error{Code: CodeInvalidManifest}
	ErrBenchmarkExecution = &Error{Code: CodeBenchmarkExecution}
	ErrInvalidFunction    = &Error{Code: CodeInvalidFunction}
	ErrNotImplemented     = &Error{Code: CodeNotImplemented}
)

func MissingArgument(arg string) *Error {
	return &Error{Code: CodeMissingArgument, Message: fmt.Sprintf("missing required argument: %s", arg)}
}

func NotFound(name string) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf("benchmark %q not found; run `benchkit list` to see available benchmarks", name)}
}

func Configuration(details string, err error) *Error {
	msg := "configuration error: " + details
	if err != nil {
		msg += ": " + err.Error()
	}
	return &Error{Code: CodeConfiguration, Message: msg, Err: err}
}

func ModuleLoad(path string, err error) *Error {
	return &Error{Code: CodeModuleLoad, Message: fmt.Sprintf("failed to load %s: %v", path, err), Err: err}
}

func UnsupportedFile(path string) *Error {
	return &Error{Code: CodeUnsupportedFile, Message: fmt.Sprintf("unsupported file type: %s (use .yaml, .yml or .json)", path)}
}

func Discovery(dir string, err error) *Error {
	return &Error{Code: CodeDiscovery, Message: fmt.Sprintf("discovery failed in %s: %v", dir, err), Err: err}
}

func InvalidManifest(details string) *Error {
	return &Error{Code: CodeInvalidManifest, Message: "invalid benchmark manifest: " + details}
}

// BenchmarkExecution wraps a failure that terminated the named benchmark.
func BenchmarkExecution(benchmark string, err error) *Error {
	return &Error{
		Code:    CodeBenchmarkExecution,
		Message: fmt.Sprintf("benchmark %q failed: %v", benchmark, err),
		Err:     err,
	}
}

func InvalidFunction(caseName string) *Error {
	return &Error{Code: CodeInvalidFunction, Message: fmt.Sprintf("case %q does not have a callable function", caseName)}
}

func NotImplemented(feature string) *Error {
	return &Error{Code: CodeNotImplemented, Message: feature + " is not implemented yet"}
}

// FormatErrorMessage renders err for the terminal.
func FormatErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return fmt.Sprintf("[%s] %s", e.Code, e.Error())
	}
	return "An unexpected error occurred: " + err.Error()
}

// IsInputError reports whether err is a definition problem the orchestrator
// passes through unchanged.
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidFunction) || errors.Is(err, ErrInvalidManifest)
}
