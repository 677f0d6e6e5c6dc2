// Package workspace supplies the projects a search runs over.
//
// A Workspace is an ad hoc list of root folders, such as the directories
// given on the command line. Groups is the persisted form: named groups of
// projects kept in a YAML file, one of which is active.
package workspace

import (
	"errors"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dshills/projfind/internal/project/search"
)

// Common errors.
var (
	ErrNoFolders      = errors.New("workspace has no folders")
	ErrFolderNotFound = errors.New("folder not found in workspace")
	ErrFolderExists   = errors.New("folder already in workspace")
	ErrInvalidPath    = errors.New("invalid folder path")
)

// Folder is one root directory of a workspace.
type Folder struct {
	// Path is the absolute, cleaned directory path.
	Path string
	// Name is the display name. Defaults to the last path element.
	Name string
}

// Workspace is an ordered set of root folders. It is safe for concurrent use.
type Workspace struct {
	mu      sync.RWMutex
	folders []Folder
}

var _ search.ProjectSource = (*Workspace)(nil)

// New creates an empty workspace.
func New() *Workspace {
	return &Workspace{}
}

// NewFromPaths creates a workspace with one folder per path, in order.
// Duplicate paths are rejected.
func NewFromPaths(paths ...string) (*Workspace, error) {
	if len(paths) == 0 {
		return nil, ErrNoFolders
	}
	ws := New()
	for _, p := range paths {
		if err := ws.AddFolder(p, ""); err != nil {
			return nil, err
		}
	}
	return ws, nil
}

// AddFolder appends a folder. An empty name uses the base name of path.
func (w *Workspace) AddFolder(path, name string) error {
	f, err := newFolder(path, name)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	for _, existing := range w.folders {
		if existing.Path == f.Path {
			return ErrFolderExists
		}
	}
	w.folders = append(w.folders, f)
	return nil
}

// RemoveFolder removes the folder at path.
func (w *Workspace) RemoveFolder(path string) error {
	absPath, err := absClean(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	for i, f := range w.folders {
		if f.Path == absPath {
			w.folders = append(w.folders[:i], w.folders[i+1:]...)
			return nil
		}
	}
	return ErrFolderNotFound
}

// Folders returns a copy of the folders in order.
func (w *Workspace) Folders() []Folder {
	w.mu.RLock()
	defer w.mu.RUnlock()

	result := make([]Folder, len(w.folders))
	copy(result, w.folders)
	return result
}

// Roots returns the folder paths in order.
func (w *Workspace) Roots() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	paths := make([]string, len(w.folders))
	for i, f := range w.folders {
		paths[i] = f.Path
	}
	return paths
}

// Projects returns one search project per folder. The folder path is the
// project ID.
func (w *Workspace) Projects() []search.Project {
	w.mu.RLock()
	defer w.mu.RUnlock()

	projects := make([]search.Project, len(w.folders))
	for i, f := range w.folders {
		projects[i] = search.Project{ID: f.Path, Name: f.Name, Root: f.Path}
	}
	return projects
}

// ContainingFolder returns the folder that contains path.
func (w *Workspace) ContainingFolder(path string) (Folder, bool) {
	absPath, err := absClean(path)
	if err != nil {
		return Folder{}, false
	}

	w.mu.RLock()
	defer w.mu.RUnlock()

	for _, f := range w.folders {
		if isSubPath(f.Path, absPath) {
			return f, true
		}
	}
	return Folder{}, false
}

// IsInWorkspace reports whether path lies inside any folder.
func (w *Workspace) IsInWorkspace(path string) bool {
	_, ok := w.ContainingFolder(path)
	return ok
}

func newFolder(path, name string) (Folder, error) {
	absPath, err := absClean(path)
	if err != nil {
		return Folder{}, err
	}
	if name == "" {
		name = filepath.Base(absPath)
	}
	return Folder{Path: absPath, Name: name}, nil
}

func absClean(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", ErrInvalidPath
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.Clean(absPath), nil
}

// isSubPath checks if child is parent or lies below it.
func isSubPath(parent, child string) bool {
	if child == parent {
		return true
	}
	prefix := parent
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(child, prefix)
}
