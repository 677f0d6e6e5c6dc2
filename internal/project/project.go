package project

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/dshills/projfind/internal/logger"
	"github.com/dshills/projfind/internal/project/search"
	"github.com/dshills/projfind/internal/project/vfs"
)

// Finder binds the search engine to its collaborators. Start and Stop are
// the "find" and "stop" actions of a user interface; Find is the blocking
// form used by scripts and the command line.
type Finder struct {
	coord    *search.Coordinator
	projects search.ProjectSource
	prefs    search.PreferencesSource
	log      logger.Logger
	vfs      vfs.VFS
}

// Result is everything one blocking Find produced.
type Result struct {
	ID       search.SearchID       `json:"id"`
	Projects []search.ProjectMatch `json:"projects"`
	Summary  search.Summary        `json:"summary"`
}

// Option configures a Finder.
type Option func(*Finder)

// WithVFS sets the file system searched.
func WithVFS(v vfs.VFS) Option {
	return func(f *Finder) {
		f.vfs = v
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(f *Finder) {
		f.log = l
	}
}

// WithPreferences sets the source of the exclude lists.
func WithPreferences(p search.PreferencesSource) Option {
	return func(f *Finder) {
		f.prefs = p
	}
}

// New creates a Finder searching the projects of src.
func New(src search.ProjectSource, opts ...Option) *Finder {
	f := &Finder{projects: src}
	for _, opt := range opts {
		opt(f)
	}
	if f.log == nil {
		f.log = logger.NewNop()
	}
	if f.vfs == nil {
		f.vfs = vfs.NewOSFS()
	}
	f.coord = search.NewCoordinator(search.WithVFS(f.vfs), search.WithLogger(f.log))
	return f
}

// Wait blocks until no search is running or ctx is done.
func (f *Finder) Wait(ctx context.Context) error {
	return f.coord.Wait(ctx)
}

// Queue returns the event queue the consumer drains.
func (f *Finder) Queue() *search.Queue {
	return f.coord.Queue()
}

// IsRunning reports whether a search is in progress.
func (f *Finder) IsRunning() bool {
	return f.coord.State() == search.StateRunning
}

// Start submits criteria against the current projects, merged with the
// preference exclude lists. Relative scope entries are made absolute; an
// entry outside every project is a *ScopeError.
func (f *Finder) Start(criteria search.Criteria) (search.SearchID, error) {
	var projects []search.Project
	if f.projects != nil {
		projects = f.projects.Projects()
	}
	if len(projects) == 0 {
		return "", ErrNoProjects
	}

	crit := criteria.WithPreferences(f.prefs)
	scope, err := f.resolveScope(crit.Scope, projects)
	if err != nil {
		return "", err
	}
	crit.Scope = scope

	return f.coord.Submit(crit, projects)
}

// Stop cancels the running search, if any.
func (f *Finder) Stop() {
	f.coord.Cancel()
}

// Find runs a search to completion and returns its result tree. When ctx is
// done the search is cancelled and the partial result is returned together
// with ctx's error.
func (f *Finder) Find(ctx context.Context, criteria search.Criteria) (Result, error) {
	id, err := f.Start(criteria)
	if err != nil {
		return Result{}, err
	}

	res := Result{ID: id}
	var ctxErr error
	for {
		e, err := f.Queue().Next(ctx)
		if err != nil {
			// Keep draining without ctx until the worker reports completion.
			ctxErr = err
			f.Stop()
			ctx = context.Background()
			continue
		}
		switch e.Kind {
		case search.EventProjectMatch:
			res.Projects = append(res.Projects, e.Project)
		case search.EventCompleted:
			res.Summary = e.Summary
			if waitErr := f.coord.Wait(context.Background()); waitErr != nil {
				return res, waitErr
			}
			return res, ctxErr
		}
	}
}

func (f *Finder) resolveScope(scope []string, projects []search.Project) ([]string, error) {
	if len(scope) == 0 {
		return nil, nil
	}
	out := make([]string, 0, len(scope))
	for _, s := range scope {
		if strings.TrimSpace(s) == "" {
			continue
		}
		abs := s
		if !filepath.IsAbs(abs) {
			var err error
			if abs, err = filepath.Abs(s); err != nil {
				return nil, &ScopeError{Path: s, Err: err}
			}
		}
		abs = f.vfs.Clean(abs)
		if !insideAny(f.vfs, abs, projects) {
			return nil, &ScopeError{Path: s, Err: ErrOutsideProjects}
		}
		out = append(out, abs)
	}
	return out, nil
}

func insideAny(fsys vfs.VFS, path string, projects []search.Project) bool {
	for _, p := range projects {
		rel, err := fsys.Rel(p.Root, path)
		if err != nil {
			continue
		}
		rel = filepath.ToSlash(rel)
		if rel != ".." && !strings.HasPrefix(rel, "../") {
			return true
		}
	}
	return false
}

// IsCancelled reports whether err came from a cancelled Find.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
