package config

import (
	"errors"
	"fmt"
)

// Errors returned by preference operations.
var (
	// ErrNoPath indicates a Store without a file path was asked to persist.
	ErrNoPath = errors.New("preferences store has no file path")

	// ErrInvalidValue indicates a preference value failed validation.
	ErrInvalidValue = errors.New("invalid preference value")
)

// ParseError represents an error while parsing a preferences file.
type ParseError struct {
	// Path is the file path that failed to parse.
	Path string
	// Line is the line number where the error occurred (if available).
	Line int
	// Column is the column number where the error occurred (if available).
	Column int
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse error in %s at line %d, column %d: %v", e.Path, e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("parse error in %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}
