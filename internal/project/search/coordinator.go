package search

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dshills/projfind/internal/logger"
	"github.com/dshills/projfind/internal/project/search/pattern"
	"github.com/dshills/projfind/internal/project/search/scanner"
	"github.com/dshills/projfind/internal/project/search/walker"
	"github.com/dshills/projfind/internal/project/vfs"
)

// Coordinator runs one search at a time on a background goroutine and
// reports its progress through a Queue.
//
// Lifecycle: Idle -> Running -> Completed or Cancelled. A finished search
// admits a new Submit; a running one rejects it with ErrBusy until it has
// been cancelled and has ended.
type Coordinator struct {
	fsys  vfs.VFS
	queue *Queue
	log   logger.Logger
	now   func() time.Time

	mu      sync.Mutex
	state   State
	current SearchID
	cancel  context.CancelFunc
	done    chan struct{}
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithVFS sets the file system searched. Defaults to the OS file system.
func WithVFS(v vfs.VFS) Option {
	return func(c *Coordinator) {
		c.fsys = v
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Coordinator) {
		c.log = l
	}
}

// NewCoordinator creates an idle coordinator.
func NewCoordinator(opts ...Option) *Coordinator {
	c := &Coordinator{now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	if c.fsys == nil {
		c.fsys = vfs.NewOSFS()
	}
	if c.queue == nil {
		c.queue = NewQueue()
	}
	if c.log == nil {
		c.log = logger.NewNop()
	}
	return c
}

// Queue returns the queue events are pushed to.
func (c *Coordinator) Queue() *Queue {
	return c.queue
}

// State returns the current lifecycle state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Current returns the id of the most recently submitted search.
func (c *Coordinator) Current() SearchID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// job is everything the worker needs, fixed at Submit.
type job struct {
	id       SearchID
	criteria Criteria
	projects []Project
	name     *pattern.Pattern
	content  *pattern.Pattern
}

// Submit validates criteria and starts searching projects in order.
// Patterns are compiled before anything starts: a malformed pattern returns
// an error wrapping pattern.ErrInvalidPattern and leaves the state untouched.
func (c *Coordinator) Submit(criteria Criteria, projects []Project) (SearchID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateRunning {
		return "", ErrBusy
	}

	j := job{criteria: criteria.Clone(), projects: append([]Project(nil), projects...)}
	if j.criteria.ContentPattern == "" && j.criteria.FilePattern == "" {
		return "", ErrNoPatterns
	}

	var err error
	if j.criteria.FilePattern != "" {
		if j.name, err = pattern.Compile(j.criteria.FilePattern, j.criteria.MatchCase); err != nil {
			return "", fmt.Errorf("file pattern: %w", err)
		}
	}
	if j.criteria.ContentPattern != "" {
		if j.content, err = pattern.CompileLine(j.criteria.ContentPattern, j.criteria.MatchCase); err != nil {
			return "", fmt.Errorf("content pattern: %w", err)
		}
	}
	if err := walker.ValidateGlobs(j.criteria.ExcludeGlobs); err != nil {
		return "", err
	}

	j.id = NewSearchID()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	c.queue.setCurrent(j.id)
	c.current = j.id
	c.state = StateRunning
	c.cancel = cancel
	c.done = done

	c.log.Infof("search %s: started in %d projects (content=%q file=%q match_case=%t)",
		j.id, len(j.projects), j.criteria.ContentPattern, j.criteria.FilePattern, j.criteria.MatchCase)

	go c.run(ctx, j, done)
	return j.id, nil
}

// Cancel asks the running search to stop. The file being scanned is
// finished first. Cancel is a no-op when nothing is running.
func (c *Coordinator) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateRunning && c.cancel != nil {
		c.cancel()
	}
}

// Wait blocks until the current search's worker has exited or ctx is done.
func (c *Coordinator) Wait(ctx context.Context) error {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()

	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the worker. It owns all walker and scanner state.
func (c *Coordinator) run(ctx context.Context, j job, done chan struct{}) {
	defer close(done)

	start := c.now()
	w := &worker{c: c, ctx: ctx, job: j}

	for _, p := range j.projects {
		if ctx.Err() != nil {
			w.cancelled = true
			break
		}
		files, complete := w.project(p)
		if !complete {
			w.cancelled = true
			break
		}
		if len(files) == 0 {
			continue
		}
		w.summary.Projects++
		c.queue.Push(Event{
			Kind:    EventProjectMatch,
			ID:      j.id,
			Project: ProjectMatch{Project: p, Files: files},
		})
	}

	s := w.summary
	s.Cancelled = w.cancelled
	s.FilesScanned = w.walkStats.Files
	s.BytesRead = w.scanStats.Bytes
	s.Skipped += w.walkStats.Errors
	s.Duration = c.now().Sub(start)

	c.log.Infof("search %s: %s after %s, %d files matched in %d projects",
		j.id, terminalState(s.Cancelled), s.Duration.Round(time.Millisecond), s.FilesMatched, s.Projects)

	c.mu.Lock()
	c.state = terminalState(s.Cancelled)
	c.cancel = nil
	c.queue.Push(Event{Kind: EventCompleted, ID: j.id, Summary: s})
	c.mu.Unlock()
}

func terminalState(cancelled bool) State {
	if cancelled {
		return StateCancelled
	}
	return StateCompleted
}

type worker struct {
	c   *Coordinator
	ctx context.Context
	job job

	summary   Summary
	cancelled bool
	walkStats walker.Stats
	scanStats scanner.Stats
}

// project searches every root of p. complete is false when cancellation cut
// the walk short; the partial files must then not be reported.
func (w *worker) project(p Project) (files []FileMatch, complete bool) {
	fsys := w.c.fsys
	opts := walker.Options{
		FilePattern:     w.job.name,
		ExcludeDirs:     w.job.criteria.ExcludeDirs,
		ExcludeSuffixes: suffixes(w.job.criteria.ExcludeSuffixes),
		ExcludeGlobs:    w.job.criteria.ExcludeGlobs,
		Base:            p.Root,
		OnError: func(path string, err error) {
			w.c.log.Debugf("search %s: skipping directory %s: %v", w.job.id, path, err)
		},
		Stats: &w.walkStats,
	}
	scanOpts := scanner.Options{MaxFileSize: w.job.criteria.MaxFileSize, Stats: &w.scanStats}

	seen := make(map[string]struct{})
	for _, root := range resolveRoots(fsys, p.Root, w.job.criteria.Scope) {
		for path := range walker.Walk(w.ctx, fsys, root, opts) {
			if _, dup := seen[path]; dup {
				continue
			}
			seen[path] = struct{}{}

			lines, err := scanner.Scan(w.ctx, fsys, path, w.job.content, scanOpts)
			if err != nil {
				if w.ctx.Err() != nil {
					return nil, false
				}
				var re *scanner.ReadError
				if errors.As(err, &re) {
					w.c.log.Debugf("search %s: skipping %v", w.job.id, err)
				}
				w.summary.Skipped++
				continue
			}
			if w.job.content != nil && len(lines) == 0 {
				continue
			}

			fm := FileMatch{
				FileName: fsys.Base(path),
				FilePath: path,
				RelPath:  relPath(fsys, p.Root, path),
			}
			for _, l := range lines {
				fm.Results = append(fm.Results, SearchResult{FilePath: path, LineNumber: l.Number, Text: l.Text})
			}
			files = append(files, fm)
			w.summary.FilesMatched++
			w.summary.LinesMatched += len(lines)
		}
		if w.walkStats.Interrupted {
			return nil, false
		}
	}
	return files, true
}

// resolveRoots returns the paths to walk for a project: its root when scope
// is empty, otherwise the scope entries inside the root.
func resolveRoots(fsys vfs.VFS, root string, scope []string) []string {
	if len(scope) == 0 {
		return []string{root}
	}
	var roots []string
	for _, s := range scope {
		if s == "" {
			continue
		}
		if within(fsys, root, s) {
			roots = append(roots, fsys.Clean(s))
		}
	}
	return roots
}

func within(fsys vfs.VFS, root, path string) bool {
	rel, err := fsys.Rel(root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	return rel != ".." && !strings.HasPrefix(rel, "../")
}

func relPath(fsys vfs.VFS, root, path string) string {
	rel, err := fsys.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

func suffixes(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	return out
}
