// Package vfs provides the read-only file system abstraction used by search.
//
// The VFS interface lets the walker and scanner run against the operating
// system or against an in-memory tree in tests. Directory listings are
// returned in the order the backend enumerates them; callers must not assume
// they are sorted.
package vfs

import (
	"io"
	"io/fs"
	"time"
)

// VFS is a read-only virtual file system.
type VFS interface {
	// Open opens a file for reading.
	Open(path string) (io.ReadCloser, error)

	// Stat returns file information, following a symlink at path.
	Stat(path string) (FileInfo, error)

	// ReadDir reads a directory and returns its entries without following
	// symlinks: a link shows up with ModeSymlink set.
	ReadDir(path string) ([]FileInfo, error)

	// Rel returns the relative path from base to target.
	Rel(basePath, targetPath string) (string, error)

	// Join joins path elements.
	Join(elem ...string) string

	// Base returns the last element of a path.
	Base(path string) string

	// Clean returns the cleaned path.
	Clean(path string) string
}

// FileInfo describes a file or directory.
type FileInfo struct {
	path    string
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
}

// NewFileInfo creates a FileInfo from the given parameters.
func NewFileInfo(path, name string, size int64, mode fs.FileMode, modTime time.Time) FileInfo {
	return FileInfo{
		path:    path,
		name:    name,
		size:    size,
		mode:    mode,
		modTime: modTime,
	}
}

// Path returns the full path.
func (fi FileInfo) Path() string { return fi.path }

// Name returns the base name.
func (fi FileInfo) Name() string { return fi.name }

// Size returns the file size in bytes.
func (fi FileInfo) Size() int64 { return fi.size }

// Mode returns the file mode.
func (fi FileInfo) Mode() fs.FileMode { return fi.mode }

// ModTime returns the modification time.
func (fi FileInfo) ModTime() time.Time { return fi.modTime }

// IsDir returns true if this is a directory.
func (fi FileInfo) IsDir() bool { return fi.mode.IsDir() }

// IsRegular returns true if this is a regular file.
func (fi FileInfo) IsRegular() bool { return fi.mode.IsRegular() }

// IsSymlink returns true if this is a symbolic link.
func (fi FileInfo) IsSymlink() bool { return fi.mode&fs.ModeSymlink != 0 }
