package project

import (
	"errors"
	"fmt"
)

// Standard errors returned by the project package.
var (
	// ErrNoProjects indicates the project source is empty.
	ErrNoProjects = errors.New("no projects to search")

	// ErrOutsideProjects indicates a scope path is not inside any project.
	ErrOutsideProjects = errors.New("path is not inside any project")
)

// ScopeError reports a scope entry that cannot be searched.
type ScopeError struct {
	Path string // Scope entry as given
	Err  error  // Underlying error
}

// Error implements the error interface.
func (e *ScopeError) Error() string {
	return fmt.Sprintf("scope %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *ScopeError) Unwrap() error {
	return e.Err
}

// IsOutsideProjects reports whether err is a scope entry outside every project.
func IsOutsideProjects(err error) bool {
	return errors.Is(err, ErrOutsideProjects)
}
