package project

import (
	"context"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/projfind/internal/project/search"
)

// Module exposes a Finder to Lua scripts as the global _ks_find:
//
//	local res, err = _ks_find.find({ text = "TODO", file = "*.go", match_case = true })
//	_ks_find.cancel()
//	_ks_find.is_running()
type Module struct {
	finder   *Finder
	defaults func() search.Criteria
}

// NewModule creates the Lua module for finder.
func NewModule(finder *Finder) *Module {
	return &Module{finder: finder}
}

// WithDefaults sets the criteria that options given to find are layered
// on. fn is called once per find, so it may follow reloaded preferences.
// Without it match_case defaults to true and nothing else is set.
func (m *Module) WithDefaults(fn func() search.Criteria) *Module {
	m.defaults = fn
	return m
}

// Name returns the module name.
func (m *Module) Name() string {
	return "find"
}

// Register registers the module into the Lua state.
func (m *Module) Register(L *lua.LState) error {
	mod := L.NewTable()

	L.SetField(mod, "find", L.NewFunction(m.find))
	L.SetField(mod, "cancel", L.NewFunction(m.cancel))
	L.SetField(mod, "is_running", L.NewFunction(m.isRunning))

	L.SetGlobal("_ks_find", mod)
	return nil
}

// find(opts) -> table, error
// opts: text, file, match_case, scope, exclude_dirs, exclude_types,
// exclude_globs, max_file_size, layered on the module defaults. Blocks until
// the search completes.
func (m *Module) find(L *lua.LState) int {
	opts := L.CheckTable(1)

	crit := search.Criteria{MatchCase: true}
	if m.defaults != nil {
		crit = m.defaults().Clone()
	}
	crit.ContentPattern = tableString(opts, "text")
	crit.FilePattern = tableString(opts, "file")
	crit.MatchCase = tableBool(opts, "match_case", crit.MatchCase)
	crit.Scope = tableStrings(opts, "scope")
	crit.ExcludeGlobs = append(crit.ExcludeGlobs, tableStrings(opts, "exclude_globs")...)
	if n := tableNumber(opts, "max_file_size"); n > 0 {
		crit.MaxFileSize = int64(n)
	}
	if s := tableString(opts, "exclude_dirs"); s != "" {
		crit.ExcludeDirs = union(crit.ExcludeDirs, search.ParseList(s))
	}
	if s := tableString(opts, "exclude_types"); s != "" {
		crit.ExcludeSuffixes = union(crit.ExcludeSuffixes, search.ParseList(s))
	}

	ctx := L.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	res, err := m.finder.Find(ctx, crit)
	if err != nil && res.ID == "" {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}

	L.Push(resultToTable(L, res))
	if err != nil {
		L.Push(lua.LString(err.Error()))
	} else {
		L.Push(lua.LNil)
	}
	return 2
}

// cancel()
// Stops the running search.
func (m *Module) cancel(L *lua.LState) int {
	m.finder.Stop()
	return 0
}

// is_running() -> bool
func (m *Module) isRunning(L *lua.LState) int {
	L.Push(lua.LBool(m.finder.IsRunning()))
	return 1
}

func resultToTable(L *lua.LState, res Result) *lua.LTable {
	tbl := L.NewTable()
	L.SetField(tbl, "id", lua.LString(res.ID))
	L.SetField(tbl, "cancelled", lua.LBool(res.Summary.Cancelled))

	projects := L.NewTable()
	for i, pm := range res.Projects {
		pt := L.NewTable()
		L.SetField(pt, "id", lua.LString(pm.Project.ID))
		L.SetField(pt, "name", lua.LString(pm.Project.Name))
		L.SetField(pt, "root", lua.LString(pm.Project.Root))

		files := L.NewTable()
		for j, fm := range pm.Files {
			ft := L.NewTable()
			L.SetField(ft, "name", lua.LString(fm.FileName))
			L.SetField(ft, "path", lua.LString(fm.FilePath))
			L.SetField(ft, "rel_path", lua.LString(fm.RelPath))
			L.SetField(ft, "label", lua.LString(fm.Label()))

			results := L.NewTable()
			for k, r := range fm.Results {
				rt := L.NewTable()
				L.SetField(rt, "line", lua.LNumber(r.LineNumber))
				L.SetField(rt, "text", lua.LString(r.Text))
				L.RawSetInt(results, k+1, rt)
			}
			L.SetField(ft, "results", results)
			L.RawSetInt(files, j+1, ft)
		}
		L.SetField(pt, "files", files)
		L.RawSetInt(projects, i+1, pt)
	}
	L.SetField(tbl, "projects", projects)

	s := res.Summary
	summary := L.NewTable()
	L.SetField(summary, "files_scanned", lua.LNumber(s.FilesScanned))
	L.SetField(summary, "files_matched", lua.LNumber(s.FilesMatched))
	L.SetField(summary, "lines_matched", lua.LNumber(s.LinesMatched))
	L.SetField(summary, "bytes_read", lua.LNumber(s.BytesRead))
	L.SetField(summary, "skipped", lua.LNumber(s.Skipped))
	L.SetField(summary, "duration_ms", lua.LNumber(s.Duration.Milliseconds()))
	L.SetField(tbl, "summary", summary)
	return tbl
}

func union(dst, src map[string]struct{}) map[string]struct{} {
	if dst == nil {
		return src
	}
	for k := range src {
		dst[k] = struct{}{}
	}
	return dst
}

func tableString(t *lua.LTable, key string) string {
	if s, ok := t.RawGetString(key).(lua.LString); ok {
		return string(s)
	}
	return ""
}

func tableBool(t *lua.LTable, key string, def bool) bool {
	if b, ok := t.RawGetString(key).(lua.LBool); ok {
		return bool(b)
	}
	return def
}

func tableNumber(t *lua.LTable, key string) float64 {
	if n, ok := t.RawGetString(key).(lua.LNumber); ok {
		return float64(n)
	}
	return 0
}

// tableStrings accepts either a Lua array of strings or a single string.
func tableStrings(t *lua.LTable, key string) []string {
	switch v := t.RawGetString(key).(type) {
	case lua.LString:
		return []string{string(v)}
	case *lua.LTable:
		var out []string
		v.ForEach(func(_, value lua.LValue) {
			if s, ok := value.(lua.LString); ok {
				out = append(out, string(s))
			}
		})
		return out
	}
	return nil
}
