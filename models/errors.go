package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies pipeline failures so callers can react without
// string-matching error text.
type ErrorKind string

const (
	ErrInvalidConfiguration   ErrorKind = "invalid_configuration"
	ErrExtractionFailed       ErrorKind = "extraction_failed"
	ErrEmbeddingUnavailable   ErrorKind = "embedding_unavailable"
	ErrVectorStoreUnavailable ErrorKind = "vector_store_unavailable"
	ErrGenerationUnavailable  ErrorKind = "generation_unavailable"
	ErrGenerationInterrupted  ErrorKind = "generation_interrupted"
)

// PipelineError wraps an underlying error with its classification.
type PipelineError struct {
	Kind ErrorKind
	Err  error
}

func (e *PipelineError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// WrapKind attaches a kind to err. A nil err returns nil.
func WrapKind(kind ErrorKind, err error) error {
	if err == nil {
		return nil
	}
	return &PipelineError{Kind: kind, Err: err}
}

// Kindf builds a classified error from a format string.
func Kindf(kind ErrorKind, format string, args ...any) error {
	return &PipelineError{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the classification of err, or "" when err carries none.
func KindOf(err error) ErrorKind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}
