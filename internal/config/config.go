// Package config holds the user's search preferences.
//
// Preferences live in a TOML file:
//
//	[projects]
//	exclude_dirs  = ".git, node_modules, build"
//	exclude_types = ".o, .class"
//	exclude_globs = ["**/*.min.js"]
//
//	[search]
//	match_case    = true
//	max_file_size = 10485760
//	log_level     = "info"
//
// A Store loads the file, serves it as a search.PreferencesSource, writes
// it back under a file lock and can reload it when it changes on disk.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/projfind/internal/filelock"
	"github.com/dshills/projfind/internal/logger"
	"github.com/dshills/projfind/internal/project/search"
)

// DefaultFileName is the preferences file name inside the config directory.
const DefaultFileName = "preferences.toml"

// Preferences is the decoded preferences file.
type Preferences struct {
	Projects ProjectPrefs `toml:"projects"`
	Search   SearchPrefs  `toml:"search"`
}

// ProjectPrefs controls what the walker skips.
type ProjectPrefs struct {
	// ExcludeDirs are directory names, comma, semicolon or space separated.
	ExcludeDirs string `toml:"exclude_dirs"`
	// ExcludeTypes are file name suffixes, in the same format.
	ExcludeTypes string `toml:"exclude_types"`
	// ExcludeGlobs are doublestar globs relative to each project root.
	ExcludeGlobs []string `toml:"exclude_globs,omitempty"`
}

// SearchPrefs holds search defaults.
type SearchPrefs struct {
	MatchCase   bool   `toml:"match_case"`
	MaxFileSize int64  `toml:"max_file_size"`
	LogLevel    string `toml:"log_level"`
}

// Default returns the built-in preferences.
func Default() Preferences {
	return Preferences{
		Projects: ProjectPrefs{
			ExcludeDirs:  ".git, .svn, .hg, .bzr, CVS, node_modules",
			ExcludeTypes: ".o, .a, .so, .class, .pyc, .jar, .exe",
		},
		Search: SearchPrefs{
			MatchCase:   true,
			MaxFileSize: 10 * 1024 * 1024,
			LogLevel:    "info",
		},
	}
}

// Validate checks value ranges.
func (p Preferences) Validate() error {
	if p.Search.MaxFileSize < 0 {
		return fmt.Errorf("%w: search.max_file_size must not be negative", ErrInvalidValue)
	}
	switch p.Search.LogLevel {
	case "", "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: search.log_level %q", ErrInvalidValue, p.Search.LogLevel)
	}
	return nil
}

// ExcludeDirs implements search.PreferencesSource.
func (p Preferences) ExcludeDirs() string { return p.Projects.ExcludeDirs }

// ExcludeTypes implements search.PreferencesSource.
func (p Preferences) ExcludeTypes() string { return p.Projects.ExcludeTypes }

// Criteria returns a search.Criteria prefilled from p.
func (p Preferences) Criteria() search.Criteria {
	return search.Criteria{
		MatchCase:       p.Search.MatchCase,
		ExcludeDirs:     search.ParseList(p.Projects.ExcludeDirs),
		ExcludeSuffixes: search.ParseList(p.Projects.ExcludeTypes),
		ExcludeGlobs:    slices.Clone(p.Projects.ExcludeGlobs),
		MaxFileSize:     p.Search.MaxFileSize,
	}
}

// Parse decodes a preferences document on top of the defaults.
// source names the document in errors.
func Parse(source string, data []byte) (Preferences, error) {
	prefs := Default()
	if err := toml.NewDecoder(bytes.NewReader(data)).Decode(&prefs); err != nil {
		pe := &ParseError{Path: source, Err: err}
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			pe.Line, pe.Column = derr.Position()
		}
		return Preferences{}, pe
	}
	if err := prefs.Validate(); err != nil {
		return Preferences{}, &ParseError{Path: source, Err: err}
	}
	return prefs, nil
}

// Marshal encodes p as TOML.
func Marshal(p Preferences) ([]byte, error) {
	return toml.Marshal(p)
}

// DefaultPath returns the preferences path under the user config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "projfind", DefaultFileName), nil
}

// Store holds the current preferences. It is safe for concurrent use.
type Store struct {
	path string
	log  logger.Logger

	mu       sync.RWMutex
	prefs    Preferences
	onChange []func(Preferences)
}

var _ search.PreferencesSource = (*Store)(nil)

// NewStore returns a Store for path holding the defaults. Call Load to read
// the file. An empty path gives an in-memory store.
func NewStore(path string, log logger.Logger) *Store {
	if log == nil {
		log = logger.NewNop()
	}
	return &Store{path: path, log: log, prefs: Default()}
}

// Path returns the file backing the store.
func (s *Store) Path() string {
	return s.path
}

// Load reads the file. A missing file keeps the defaults and is not an
// error. On failure the previous preferences stay in place.
func (s *Store) Load() error {
	if s.path == "" {
		return nil
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.log.Debugf("preferences %s not found, using defaults", s.path)
			s.replace(Default())
			return nil
		}
		return fmt.Errorf("reading preferences %s: %w", s.path, err)
	}

	prefs, err := Parse(s.path, data)
	if err != nil {
		return err
	}
	s.replace(prefs)
	return nil
}

// Save writes the current preferences atomically under a file lock.
func (s *Store) Save() error {
	if s.path == "" {
		return ErrNoPath
	}
	data, err := Marshal(s.Preferences())
	if err != nil {
		return fmt.Errorf("encoding preferences: %w", err)
	}
	return filelock.LockAndWrite(s.path, data, 0o644)
}

// Preferences returns a copy of the current preferences.
func (s *Store) Preferences() Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p := s.prefs
	p.Projects.ExcludeGlobs = slices.Clone(p.Projects.ExcludeGlobs)
	return p
}

// Update applies fn to a copy of the preferences and stores the result if
// it validates. Change handlers run after the update.
func (s *Store) Update(fn func(*Preferences)) error {
	p := s.Preferences()
	fn(&p)
	if err := p.Validate(); err != nil {
		return err
	}
	s.replace(p)
	return nil
}

// OnChange registers a handler called with the new preferences after every
// successful Load or Update.
func (s *Store) OnChange(fn func(Preferences)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

// ExcludeDirs implements search.PreferencesSource.
func (s *Store) ExcludeDirs() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs.Projects.ExcludeDirs
}

// ExcludeTypes implements search.PreferencesSource.
func (s *Store) ExcludeTypes() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs.Projects.ExcludeTypes
}

func (s *Store) replace(p Preferences) {
	s.mu.Lock()
	s.prefs = p
	handlers := make([]func(Preferences), len(s.onChange))
	copy(handlers, s.onChange)
	s.mu.Unlock()

	for _, fn := range handlers {
		fn(p)
	}
}
