package workspace

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestNewFromPaths(t *testing.T) {
	dir1 := t.TempDir()
	dir2 := t.TempDir()

	ws, err := NewFromPaths(dir1, dir2)
	if err != nil {
		t.Fatalf("NewFromPaths error: %v", err)
	}

	roots := ws.Roots()
	if len(roots) != 2 || roots[0] != dir1 || roots[1] != dir2 {
		t.Errorf("Roots() = %v, want [%s %s]", roots, dir1, dir2)
	}

	folders := ws.Folders()
	if folders[0].Name != filepath.Base(dir1) {
		t.Errorf("Name = %q, want %q", folders[0].Name, filepath.Base(dir1))
	}
}

func TestNewFromPaths_Errors(t *testing.T) {
	if _, err := NewFromPaths(); !errors.Is(err, ErrNoFolders) {
		t.Errorf("NewFromPaths() error = %v, want ErrNoFolders", err)
	}

	dir := t.TempDir()
	if _, err := NewFromPaths(dir, dir+string(filepath.Separator)); !errors.Is(err, ErrFolderExists) {
		t.Errorf("duplicate error = %v, want ErrFolderExists", err)
	}

	if _, err := NewFromPaths("  "); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("blank path error = %v, want ErrInvalidPath", err)
	}
}

func TestWorkspace_RelativePathsMadeAbsolute(t *testing.T) {
	ws := New()
	if err := ws.AddFolder(".", "here"); err != nil {
		t.Fatalf("AddFolder error: %v", err)
	}
	root := ws.Roots()[0]
	if !filepath.IsAbs(root) {
		t.Errorf("root %q should be absolute", root)
	}
	if ws.Folders()[0].Name != "here" {
		t.Errorf("explicit name not kept: %q", ws.Folders()[0].Name)
	}
}

func TestWorkspace_RemoveFolder(t *testing.T) {
	dir1 := t.TempDir()
	dir2 := t.TempDir()
	ws, _ := NewFromPaths(dir1, dir2)

	if err := ws.RemoveFolder(dir1); err != nil {
		t.Fatalf("RemoveFolder error: %v", err)
	}
	if roots := ws.Roots(); len(roots) != 1 || roots[0] != dir2 {
		t.Errorf("Roots() after remove = %v", roots)
	}
	if err := ws.RemoveFolder(dir1); !errors.Is(err, ErrFolderNotFound) {
		t.Errorf("second remove error = %v, want ErrFolderNotFound", err)
	}
}

func TestWorkspace_Projects(t *testing.T) {
	dir1 := t.TempDir()
	dir2 := t.TempDir()
	ws, _ := NewFromPaths(dir1, dir2)

	projects := ws.Projects()
	if len(projects) != 2 {
		t.Fatalf("Projects() len = %d, want 2", len(projects))
	}
	for i, dir := range []string{dir1, dir2} {
		p := projects[i]
		if p.Root != dir || p.ID != dir || p.Name != filepath.Base(dir) {
			t.Errorf("project %d = %+v", i, p)
		}
	}
}

func TestWorkspace_ContainingFolder(t *testing.T) {
	root := t.TempDir()
	ws, _ := NewFromPaths(root)

	tests := []struct {
		path string
		want bool
	}{
		{root, true},
		{filepath.Join(root, "a", "b.go"), true},
		{root + "-sibling", false},
		{filepath.Dir(root), false},
	}

	for _, tt := range tests {
		f, ok := ws.ContainingFolder(tt.path)
		if ok != tt.want {
			t.Errorf("ContainingFolder(%q) = %v, want %v", tt.path, ok, tt.want)
		}
		if ok && f.Path != root {
			t.Errorf("ContainingFolder(%q).Path = %q, want %q", tt.path, f.Path, root)
		}
		if ws.IsInWorkspace(tt.path) != tt.want {
			t.Errorf("IsInWorkspace(%q) != %v", tt.path, tt.want)
		}
	}
}

func TestIsSubPath(t *testing.T) {
	sep := string(filepath.Separator)
	tests := []struct {
		parent, child string
		want          bool
	}{
		{sep + "a", sep + "a", true},
		{sep + "a", sep + "a" + sep + "b", true},
		{sep + "a", sep + "ab", false},
		{sep, sep + "x", true},
	}
	for _, tt := range tests {
		if got := isSubPath(tt.parent, tt.child); got != tt.want {
			t.Errorf("isSubPath(%q, %q) = %v, want %v", tt.parent, tt.child, got, tt.want)
		}
	}
}
