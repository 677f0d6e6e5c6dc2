package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDefault(t *testing.T) {
	p := Default()
	assert.True(t, p.Search.MatchCase)
	assert.Contains(t, p.Projects.ExcludeDirs, ".git")
	assert.NoError(t, p.Validate())
}

func TestParse(t *testing.T) {
	doc := `
[projects]
exclude_dirs = "build; dist"
exclude_globs = ["**/*.min.js"]

[search]
match_case = false
`
	p, err := Parse("prefs.toml", []byte(doc))
	require.NoError(t, err)

	assert.Equal(t, "build; dist", p.Projects.ExcludeDirs)
	assert.Equal(t, Default().Projects.ExcludeTypes, p.Projects.ExcludeTypes, "unset keys keep defaults")
	assert.Equal(t, []string{"**/*.min.js"}, p.Projects.ExcludeGlobs)
	assert.False(t, p.Search.MatchCase)
	assert.Equal(t, Default().Search.MaxFileSize, p.Search.MaxFileSize)
}

func TestParse_Errors(t *testing.T) {
	t.Run("syntax", func(t *testing.T) {
		_, err := Parse("prefs.toml", []byte("[projects\nexclude_dirs = 1"))
		var pe *ParseError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "prefs.toml", pe.Path)
		assert.Positive(t, pe.Line)
		assert.Contains(t, pe.Error(), "at line")
	})

	t.Run("invalid value", func(t *testing.T) {
		_, err := Parse("prefs.toml", []byte("[search]\nmax_file_size = -1\n"))
		assert.ErrorIs(t, err, ErrInvalidValue)
	})

	t.Run("unknown log level", func(t *testing.T) {
		_, err := Parse("prefs.toml", []byte("[search]\nlog_level = \"loud\"\n"))
		assert.ErrorIs(t, err, ErrInvalidValue)
	})
}

func TestPreferences_Criteria(t *testing.T) {
	p := Default()
	p.Projects.ExcludeDirs = "build,dist"
	p.Projects.ExcludeTypes = ".o"
	p.Projects.ExcludeGlobs = []string{"vendor/**"}
	p.Search.MatchCase = false

	c := p.Criteria()
	assert.Len(t, c.ExcludeDirs, 2)
	assert.Contains(t, c.ExcludeSuffixes, ".o")
	assert.Equal(t, []string{"vendor/**"}, c.ExcludeGlobs)
	assert.False(t, c.MatchCase)
	assert.Equal(t, p.Search.MaxFileSize, c.MaxFileSize)
}

func TestStore_LoadMissingUsesDefaults(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "none.toml"), nil)
	require.NoError(t, s.Load())
	assert.Equal(t, Default(), s.Preferences())
	assert.Equal(t, Default().Projects.ExcludeDirs, s.ExcludeDirs())
	assert.Equal(t, Default().Projects.ExcludeTypes, s.ExcludeTypes())
}

func TestStore_LoadKeepsPreviousOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	writeFile(t, path, "[projects]\nexclude_dirs = \"one\"\n")

	s := NewStore(path, nil)
	require.NoError(t, s.Load())
	assert.Equal(t, "one", s.ExcludeDirs())

	writeFile(t, path, "[projects\n")
	var pe *ParseError
	assert.ErrorAs(t, s.Load(), &pe)
	assert.Equal(t, "one", s.ExcludeDirs())
}

func TestStore_SaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", DefaultFileName)
	s := NewStore(path, nil)

	require.NoError(t, s.Update(func(p *Preferences) {
		p.Projects.ExcludeDirs = "target"
		p.Search.MatchCase = false
	}))
	require.NoError(t, s.Save())

	other := NewStore(path, nil)
	require.NoError(t, other.Load())
	assert.Equal(t, "target", other.ExcludeDirs())
	assert.False(t, other.Preferences().Search.MatchCase)
}

func TestStore_UpdateValidates(t *testing.T) {
	s := NewStore("", nil)
	err := s.Update(func(p *Preferences) { p.Search.MaxFileSize = -5 })
	assert.ErrorIs(t, err, ErrInvalidValue)
	assert.Equal(t, Default(), s.Preferences())

	assert.ErrorIs(t, s.Save(), ErrNoPath)
	assert.NoError(t, s.Load(), "in-memory store loads nothing")
}

func TestStore_OnChange(t *testing.T) {
	s := NewStore("", nil)
	var got []string
	s.OnChange(func(p Preferences) { got = append(got, p.Projects.ExcludeDirs) })

	require.NoError(t, s.Update(func(p *Preferences) { p.Projects.ExcludeDirs = "a" }))
	require.NoError(t, s.Update(func(p *Preferences) { p.Projects.ExcludeDirs = "b" }))
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestStore_PreferencesIsACopy(t *testing.T) {
	s := NewStore("", nil)
	require.NoError(t, s.Update(func(p *Preferences) { p.Projects.ExcludeGlobs = []string{"x"} }))

	p := s.Preferences()
	p.Projects.ExcludeGlobs[0] = "mutated"
	assert.Equal(t, []string{"x"}, s.Preferences().Projects.ExcludeGlobs)
}

func TestStore_Watch(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	writeFile(t, path, "[projects]\nexclude_dirs = \"before\"\n")

	s := NewStore(path, nil)
	require.NoError(t, s.Load())

	changed := make(chan string, 4)
	var once sync.Once
	s.OnChange(func(p Preferences) {
		if p.Projects.ExcludeDirs == "after" {
			once.Do(func() { changed <- p.Projects.ExcludeDirs })
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Watch(ctx, 20*time.Millisecond, func(err error) { t.Logf("watch error: %v", err) }))

	writeFile(t, path, "[projects]\nexclude_dirs = \"after\"\n")

	select {
	case v := <-changed:
		assert.Equal(t, "after", v)
	case <-time.After(5 * time.Second):
		t.Fatal("preferences were not reloaded")
	}
	assert.Equal(t, "after", s.ExcludeDirs())
}

func TestStore_WatchWithoutPath(t *testing.T) {
	s := NewStore("", nil)
	assert.ErrorIs(t, s.Watch(context.Background(), 0, nil), ErrNoPath)
}

func TestParseError_Unwrap(t *testing.T) {
	inner := errors.New("boom")
	pe := &ParseError{Path: "p", Err: inner}
	assert.ErrorIs(t, pe, inner)
	assert.Equal(t, "parse error in p: boom", pe.Error())
}
