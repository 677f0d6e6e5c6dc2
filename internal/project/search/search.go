// Package search runs project-wide find operations.
//
// A search walks the roots of every project, filters file names, scans file
// content line by line and reports results per project. The work runs on a
// single background goroutine owned by a Coordinator; results are delivered
// through a Queue that the consumer drains from its own loop, so no consumer
// code ever runs on the worker.
package search

import (
	"errors"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Common errors.
var (
	// ErrBusy is returned by Submit while a search is running.
	ErrBusy = errors.New("search already running")

	// ErrNoPatterns is returned by Submit when neither a content pattern
	// nor a file pattern is given.
	ErrNoPatterns = errors.New("no search pattern given")
)

// SearchID identifies one submitted search.
type SearchID string

// NewSearchID returns a fresh random id.
func NewSearchID() SearchID {
	return SearchID(uuid.NewString())
}

// Project is one searchable tree.
type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Root string `json:"root"`
}

// ProjectSource supplies the ordered list of projects to search.
type ProjectSource interface {
	Projects() []Project
}

// Criteria describes one search request.
type Criteria struct {
	// ContentPattern is matched against each line. Empty means absent.
	ContentPattern string `json:"content_pattern,omitempty"`

	// FilePattern is matched against each file name. Empty means absent.
	FilePattern string `json:"file_pattern,omitempty"`

	// MatchCase makes both patterns case-sensitive.
	MatchCase bool `json:"match_case"`

	// Scope restricts the search to these files or directories. Entries
	// that lie under a project root replace that root. Empty means every
	// project root.
	Scope []string `json:"scope,omitempty"`

	// ExcludeDirs holds directory names whose subtrees are skipped.
	ExcludeDirs map[string]struct{} `json:"-"`

	// ExcludeSuffixes holds file name suffixes that are skipped.
	ExcludeSuffixes map[string]struct{} `json:"-"`

	// ExcludeGlobs are doublestar globs against project-relative paths.
	ExcludeGlobs []string `json:"exclude_globs,omitempty"`

	// MaxFileSize skips larger files during content scans. Zero is no limit.
	MaxFileSize int64 `json:"max_file_size,omitempty"`
}

// Clone returns a deep copy, so the caller may keep mutating c.
func (c Criteria) Clone() Criteria {
	out := c
	out.Scope = slices.Clone(c.Scope)
	out.ExcludeGlobs = slices.Clone(c.ExcludeGlobs)
	out.ExcludeDirs = maps.Clone(c.ExcludeDirs)
	out.ExcludeSuffixes = maps.Clone(c.ExcludeSuffixes)
	return out
}

// SearchResult is one matching line.
type SearchResult struct {
	FilePath   string `json:"file_path"`
	LineNumber int    `json:"line_number"`
	Text       string `json:"text"`
}

// FileMatch groups the results for one file. Results is empty when the file
// matched by name and no content pattern was requested.
type FileMatch struct {
	FileName string         `json:"file_name"`
	FilePath string         `json:"file_path"`
	RelPath  string         `json:"rel_path"`
	Results  []SearchResult `json:"results"`
}

// NameOnly reports whether the file matched by name alone.
func (f FileMatch) NameOnly() bool {
	return len(f.Results) == 0
}

// Label is the tree label "name - relpath".
func (f FileMatch) Label() string {
	if f.RelPath == "" {
		return f.FileName
	}
	return f.FileName + " - " + f.RelPath
}

// ProjectMatch is every file that matched within one project, in walk order.
type ProjectMatch struct {
	Project Project     `json:"project"`
	Files   []FileMatch `json:"files"`
}

// Summary describes a finished search.
type Summary struct {
	Cancelled    bool          `json:"cancelled"`
	Projects     int           `json:"projects"`
	FilesScanned int           `json:"files_scanned"`
	FilesMatched int           `json:"files_matched"`
	LinesMatched int           `json:"lines_matched"`
	BytesRead    int64         `json:"bytes_read"`
	Skipped      int           `json:"skipped"`
	Duration     time.Duration `json:"duration"`
}

// State is the coordinator lifecycle state.
type State int

const (
	// StateIdle means no search has been submitted.
	StateIdle State = iota

	// StateRunning means a worker is active.
	StateRunning

	// StateCompleted means the last search ran to the end.
	StateCompleted

	// StateCancelled means the last search was stopped by Cancel.
	StateCancelled
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}
