package models

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks fatal input problems found before processing starts.
	ErrConfiguration = errors.New("configuration error")
	// ErrInvariantViolation marks programming errors such as double finalization.
	ErrInvariantViolation = errors.New("invariant violation")
	// ErrCanceled is returned when a run is stopped between documents.
	ErrCanceled = errors.New("run canceled")
)

// Document error types, recorded in manifests and history.
const (
	ErrorTypeUnsupported = "unsupported"
	ErrorTypeTooLarge    = "too_large"
	ErrorTypeExtract     = "extract_error"
	ErrorTypeTimeout     = "timeout"
)

// DocumentError is a failure isolated to one document of a batch.
type DocumentError struct {
	Document Document
	Type     string
	Err      error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Document.Name, e.Type, e.Err)
}

func (e *DocumentError) Unwrap() error { return e.Err }
