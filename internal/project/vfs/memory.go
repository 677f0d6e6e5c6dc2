package vfs

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"path"
	"strings"
	"sync"
	"syscall"
	"time"
)

// Standard error values for MemFS operations.
// These align with POSIX errors for consistency with OSFS.
var (
	errIsDir    = syscall.EISDIR
	errNotDir   = syscall.ENOTDIR
	errNotUnder = errors.New("target is not under base")
)

// MemFS implements VFS using an in-memory tree.
// It is used for testing. Directory listings come back in insertion order,
// which is deliberately not alphabetical so callers cannot lean on sorting.
//
// MemFS is safe for concurrent use.
type MemFS struct {
	mu    sync.RWMutex
	nodes map[string]*memNode
}

type memNode struct {
	mode     fs.FileMode
	content  []byte
	target   string   // symlink target
	children []string // child names in insertion order
	denied   bool     // open/readdir fail with ErrPermission
	modTime  time.Time
}

// NewMemFS creates a new in-memory file system containing only "/".
func NewMemFS() *MemFS {
	return &MemFS{
		nodes: map[string]*memNode{
			"/": {mode: fs.ModeDir | 0o755, modTime: time.Now()},
		},
	}
}

// Ensure MemFS implements VFS.
var _ VFS = (*MemFS)(nil)

// Open opens a file for reading.
func (m *MemFS) Open(filePath string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	filePath = m.cleanPath(filePath)
	n, err := m.resolve(filePath)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: filePath, Err: err}
	}
	if n.mode.IsDir() {
		return nil, &fs.PathError{Op: "open", Path: filePath, Err: errIsDir}
	}
	if n.denied {
		return nil, &fs.PathError{Op: "open", Path: filePath, Err: fs.ErrPermission}
	}

	content := make([]byte, len(n.content))
	copy(content, n.content)
	return io.NopCloser(bytes.NewReader(content)), nil
}

// Stat returns file information, following symlinks.
func (m *MemFS) Stat(filePath string) (FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	filePath = m.cleanPath(filePath)
	n, err := m.resolve(filePath)
	if err != nil {
		return FileInfo{}, &fs.PathError{Op: "stat", Path: filePath, Err: err}
	}
	return m.info(filePath, n), nil
}

// ReadDir reads a directory and returns its entries in insertion order.
func (m *MemFS) ReadDir(dirPath string) ([]FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	dirPath = m.cleanPath(dirPath)
	n, err := m.resolve(dirPath)
	if err != nil {
		return nil, &fs.PathError{Op: "readdir", Path: dirPath, Err: err}
	}
	if !n.mode.IsDir() {
		return nil, &fs.PathError{Op: "readdir", Path: dirPath, Err: errNotDir}
	}
	if n.denied {
		return nil, &fs.PathError{Op: "readdir", Path: dirPath, Err: fs.ErrPermission}
	}

	entries := make([]FileInfo, 0, len(n.children))
	for _, name := range n.children {
		childPath := path.Join(dirPath, name)
		if child, ok := m.nodes[childPath]; ok {
			entries = append(entries, m.info(childPath, child))
		}
	}
	return entries, nil
}

// Rel returns the relative path from base to target.
func (m *MemFS) Rel(basePath, targetPath string) (string, error) {
	basePath = m.cleanPath(basePath)
	targetPath = m.cleanPath(targetPath)

	if targetPath == basePath {
		return ".", nil
	}
	prefix := basePath
	if prefix != "/" {
		prefix += "/"
	}
	if !strings.HasPrefix(targetPath, prefix) {
		return "", errNotUnder
	}
	return strings.TrimPrefix(targetPath, prefix), nil
}

// Join joins path elements.
func (m *MemFS) Join(elem ...string) string {
	return path.Join(elem...)
}

// Base returns the last element of a path.
func (m *MemFS) Base(filePath string) string {
	return path.Base(filePath)
}

// Clean returns the cleaned path.
func (m *MemFS) Clean(filePath string) string {
	return m.cleanPath(filePath)
}

// AddFile adds a regular file, creating parent directories as needed.
func (m *MemFS) AddFile(filePath string, content string) error {
	return m.add(filePath, &memNode{mode: 0o644, content: []byte(content)})
}

// AddBytes adds a regular file with raw content.
func (m *MemFS) AddBytes(filePath string, content []byte) error {
	data := make([]byte, len(content))
	copy(data, content)
	return m.add(filePath, &memNode{mode: 0o644, content: data})
}

// MkdirAll creates a directory and all missing parents.
func (m *MemFS) MkdirAll(dirPath string) error {
	dirPath = m.cleanPath(dirPath)

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mkdirAll(dirPath)
}

// Symlink adds a symbolic link at linkPath pointing to target.
func (m *MemFS) Symlink(target, linkPath string) error {
	return m.add(linkPath, &memNode{mode: fs.ModeSymlink | 0o777, target: m.cleanPath(target)})
}

// Deny makes Open and ReadDir on path fail with fs.ErrPermission.
func (m *MemFS) Deny(filePath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	filePath = m.cleanPath(filePath)
	n, ok := m.nodes[filePath]
	if !ok {
		return &fs.PathError{Op: "deny", Path: filePath, Err: fs.ErrNotExist}
	}
	n.denied = true
	return nil
}

// Remove deletes a file, link or directory subtree.
func (m *MemFS) Remove(filePath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	filePath = m.cleanPath(filePath)
	if _, ok := m.nodes[filePath]; !ok {
		return &fs.PathError{Op: "remove", Path: filePath, Err: fs.ErrNotExist}
	}

	prefix := filePath + "/"
	for p := range m.nodes {
		if p == filePath || strings.HasPrefix(p, prefix) {
			delete(m.nodes, p)
		}
	}

	parent := m.nodes[path.Dir(filePath)]
	if parent != nil {
		name := path.Base(filePath)
		for i, c := range parent.children {
			if c == name {
				parent.children = append(parent.children[:i], parent.children[i+1:]...)
				break
			}
		}
	}
	return nil
}

func (m *MemFS) add(filePath string, n *memNode) error {
	filePath = m.cleanPath(filePath)

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.mkdirAll(path.Dir(filePath)); err != nil {
		return err
	}
	if existing, ok := m.nodes[filePath]; ok && existing.mode.IsDir() {
		return &fs.PathError{Op: "add", Path: filePath, Err: errIsDir}
	}
	n.modTime = time.Now()
	if _, ok := m.nodes[filePath]; !ok {
		parent := m.nodes[path.Dir(filePath)]
		parent.children = append(parent.children, path.Base(filePath))
	}
	m.nodes[filePath] = n
	return nil
}

// mkdirAll must be called with mu held.
func (m *MemFS) mkdirAll(dirPath string) error {
	if dirPath == "/" {
		return nil
	}
	if n, ok := m.nodes[dirPath]; ok {
		if !n.mode.IsDir() {
			return &fs.PathError{Op: "mkdir", Path: dirPath, Err: errNotDir}
		}
		return nil
	}
	parentPath := path.Dir(dirPath)
	if err := m.mkdirAll(parentPath); err != nil {
		return err
	}
	parent := m.nodes[parentPath]
	parent.children = append(parent.children, path.Base(dirPath))
	m.nodes[dirPath] = &memNode{mode: fs.ModeDir | 0o755, modTime: time.Now()}
	return nil
}

// resolve follows symlinks at filePath. Must be called with mu held.
func (m *MemFS) resolve(filePath string) (*memNode, error) {
	for range 16 {
		n, ok := m.nodes[filePath]
		if !ok {
			return nil, fs.ErrNotExist
		}
		if n.mode&fs.ModeSymlink == 0 {
			return n, nil
		}
		filePath = n.target
	}
	return nil, syscall.ELOOP
}

func (m *MemFS) info(filePath string, n *memNode) FileInfo {
	return NewFileInfo(filePath, path.Base(filePath), int64(len(n.content)), n.mode, n.modTime)
}

// cleanPath normalizes a path.
func (m *MemFS) cleanPath(p string) string {
	p = path.Clean(p)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}
