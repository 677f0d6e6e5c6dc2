// Package walker enumerates the files under a search root.
//
// The walk is depth-first and lazy: Walk returns an iterator and nothing is
// read until the caller ranges over it. Symlinks are never followed. A
// directory that cannot be listed is reported through Options.OnError and
// skipped; its siblings are still visited.
package walker

import (
	"context"
	"fmt"
	"iter"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/dshills/projfind/internal/project/search/pattern"
	"github.com/dshills/projfind/internal/project/vfs"
)

// Options controls which entries a walk yields.
type Options struct {
	// FilePattern, when set, must match a file's base name.
	FilePattern *pattern.Pattern

	// ExcludeDirs holds directory names whose subtrees are skipped.
	ExcludeDirs map[string]struct{}

	// ExcludeSuffixes holds file name suffixes that are skipped.
	ExcludeSuffixes []string

	// ExcludeGlobs are doublestar globs matched against the slash path
	// relative to Base.
	ExcludeGlobs []string

	// Base is the directory ExcludeGlobs are relative to. Defaults to root.
	Base string

	// OnError receives directory enumeration failures.
	OnError func(path string, err error)

	// Stats, when non-nil, is updated as the walk proceeds.
	Stats *Stats
}

// Stats counts what a walk saw. It is not safe for concurrent use; the walk
// that owns it is its only writer.
type Stats struct {
	Dirs         int
	Entries      int
	Files        int
	SkippedDirs  int
	SkippedFiles int
	Errors       int

	// Interrupted is set when cancellation ended a walk before it had
	// visited every entry.
	Interrupted bool
}

// ValidateGlobs checks that every exclude glob is well formed.
func ValidateGlobs(globs []string) error {
	for _, g := range globs {
		if !doublestar.ValidatePattern(g) {
			return fmt.Errorf("%w: exclude glob %q", pattern.ErrInvalidPattern, g)
		}
	}
	return nil
}

// Walk returns a lazy sequence of the file paths under root that pass opts.
// If root is itself a regular file it is filtered and yielded on its own.
// A directory whose relative path matches an exclude glob is pruned.
// The walk stops quietly once ctx is done; cancellation is checked before
// every directory entry.
func Walk(ctx context.Context, fsys vfs.VFS, root string, opts Options) iter.Seq[string] {
	return func(yield func(string) bool) {
		w := &walk{ctx: ctx, fsys: fsys, opts: opts, stats: opts.Stats}
		if w.stats == nil {
			w.stats = &Stats{}
		}
		if w.opts.Base == "" {
			w.opts.Base = root
		}

		if ctx.Err() != nil {
			w.stats.Interrupted = true
			return
		}

		info, err := fsys.Stat(root)
		if err != nil {
			w.fail(root, err)
			return
		}

		switch {
		case info.IsDir():
			w.dir(root, yield)
		case info.IsRegular():
			w.stats.Entries++
			if w.acceptFile(info) {
				w.stats.Files++
				yield(root)
			}
		}
	}
}

type walk struct {
	ctx   context.Context
	fsys  vfs.VFS
	opts  Options
	stats *Stats
}

// dir visits one directory. It returns false once the caller stopped
// iterating or the context was cancelled.
func (w *walk) dir(dirPath string, yield func(string) bool) bool {
	entries, err := w.fsys.ReadDir(dirPath)
	if err != nil {
		w.fail(dirPath, err)
		return true
	}
	w.stats.Dirs++

	for _, entry := range entries {
		if w.ctx.Err() != nil {
			w.stats.Interrupted = true
			return false
		}
		w.stats.Entries++

		switch {
		case entry.IsSymlink():
			continue

		case entry.IsDir():
			if _, skip := w.opts.ExcludeDirs[entry.Name()]; skip {
				w.stats.SkippedDirs++
				continue
			}
			if w.globExcluded(entry.Path()) {
				w.stats.SkippedDirs++
				continue
			}
			if !w.dir(entry.Path(), yield) {
				return false
			}

		case entry.IsRegular():
			if !w.acceptFile(entry) {
				continue
			}
			w.stats.Files++
			if !yield(entry.Path()) {
				return false
			}
		}
	}
	return true
}

func (w *walk) acceptFile(info vfs.FileInfo) bool {
	name := info.Name()

	for _, suffix := range w.opts.ExcludeSuffixes {
		if suffix != "" && strings.HasSuffix(name, suffix) {
			w.stats.SkippedFiles++
			return false
		}
	}

	if w.globExcluded(info.Path()) {
		w.stats.SkippedFiles++
		return false
	}

	if w.opts.FilePattern != nil && !w.opts.FilePattern.Match(name) {
		return false
	}
	return true
}

func (w *walk) globExcluded(path string) bool {
	if len(w.opts.ExcludeGlobs) == 0 {
		return false
	}
	rel, err := w.fsys.Rel(w.opts.Base, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, g := range w.opts.ExcludeGlobs {
		if ok, _ := doublestar.Match(g, rel); ok {
			return true
		}
	}
	return false
}

func (w *walk) fail(path string, err error) {
	w.stats.Errors++
	if w.opts.OnError != nil {
		w.opts.OnError(path, err)
	}
}
