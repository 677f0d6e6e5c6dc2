package cmd

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/projfind/internal/project/workspace"
)

// env is a temporary config directory and project tree.
type env struct {
	prefs  string
	groups string
	root   string
}

func newEnv(t *testing.T) env {
	t.Helper()
	dir := t.TempDir()
	e := env{
		prefs:  filepath.Join(dir, "config", "preferences.toml"),
		groups: filepath.Join(dir, "config", "groups.yaml"),
		root:   filepath.Join(dir, "proj"),
	}
	writeFile(t, filepath.Join(e.root, "a.txt"), "hello world\nbye\n")
	writeFile(t, filepath.Join(e.root, "sub", "b.txt"), "say HELLO\n")
	writeFile(t, filepath.Join(e.root, ".git", "c.txt"), "hello git\n")
	return e
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// run executes the root command with the env's config files.
func (e env) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--prefs", e.prefs, "--groups", e.groups, "--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand_Help(t *testing.T) {
	cmd := NewRootCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "projfind")
	assert.Contains(t, buf.String(), "find")

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"find", "prefs", "groups", "run", "version"})
}

func TestVersionCommand(t *testing.T) {
	e := newEnv(t)
	out, err := e.run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "projfind "+Version)
	assert.Contains(t, out, "Commit:")
}

func TestFind_Tree(t *testing.T) {
	e := newEnv(t)

	out, err := e.run(t, "find", "--text", "hello", "--root", e.root)
	require.NoError(t, err)

	assert.Contains(t, out, "proj")
	assert.Contains(t, out, "a.txt - a.txt")
	assert.Contains(t, out, "1: hello world")
	assert.NotContains(t, out, "b.txt", "match case defaults to on")
	assert.NotContains(t, out, "hello git", ".git is excluded by default")
	assert.Contains(t, out, "1 matching lines in 1 files across 1 projects")
}

func TestFind_MatchCaseOff(t *testing.T) {
	e := newEnv(t)

	out, err := e.run(t, "find", "--text", "hello", "--match-case=false", "--root", e.root)
	require.NoError(t, err)
	assert.Contains(t, out, "b.txt - sub/b.txt")
	assert.Contains(t, out, "1: say HELLO")
}

func TestFind_FileOnly(t *testing.T) {
	e := newEnv(t)

	out, err := e.run(t, "find", "--file", "b.txt", "--root", e.root)
	require.NoError(t, err)
	assert.Contains(t, out, "b.txt")
	assert.NotContains(t, out, "say HELLO")
}

func TestFind_JSON(t *testing.T) {
	e := newEnv(t)

	out, err := e.run(t, "find", "--text", "hello", "--match-case=false", "--root", e.root, "--json")
	require.NoError(t, err)

	var records []jsonRecord
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		var r jsonRecord
		require.NoError(t, json.Unmarshal(sc.Bytes(), &r), sc.Text())
		records = append(records, r)
	}
	require.Len(t, records, 2)

	assert.Equal(t, "project", records[0].Type)
	require.NotNil(t, records[0].Project)
	assert.Len(t, records[0].Project.Files, 2)

	assert.Equal(t, "summary", records[1].Type)
	require.NotNil(t, records[1].Summary)
	assert.Equal(t, 2, records[1].Summary.LinesMatched)
	assert.False(t, records[1].Summary.Cancelled)
	assert.Equal(t, records[0].ID, records[1].ID)
}

func TestFind_Errors(t *testing.T) {
	e := newEnv(t)

	_, err := e.run(t, "find", "--root", e.root)
	assert.ErrorIs(t, err, errNoPattern)

	_, err = e.run(t, "find", "--text", "bad\xff", "--root", e.root)
	assert.ErrorContains(t, err, "invalid pattern")

	_, err = e.run(t, "find", "--text", "x", "--root", e.root, "--scope", t.TempDir())
	assert.ErrorContains(t, err, "not inside any project")
	assert.ErrorContains(t, err, "(searching "+e.root+")")

	_, err = e.run(t, "find", "--text", "x", "--group", "missing")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPrefs_SetAndShow(t *testing.T) {
	e := newEnv(t)

	_, err := e.run(t, "prefs", "set", "--exclude-dirs", ".git, sub", "--max-file-size", "1KiB", "--match-case=false")
	require.NoError(t, err)

	out, err := e.run(t, "prefs", "show")
	require.NoError(t, err)
	assert.Contains(t, out, e.prefs)
	assert.Contains(t, out, ".git, sub")
	assert.Contains(t, out, "max_file_size = 1024")
	assert.Contains(t, out, "match_case = false")

	out, err = e.run(t, "find", "--text", "hello", "--root", e.root)
	require.NoError(t, err)
	assert.Contains(t, out, "a.txt", "saved match_case=false applies")
	assert.NotContains(t, out, "b.txt", "saved exclude_dirs applies")
}

func TestPrefs_SetInvalid(t *testing.T) {
	e := newEnv(t)

	_, err := e.run(t, "prefs", "set", "--max-file-size", "lots")
	assert.Error(t, err)

	_, err = e.run(t, "prefs", "set", "--default-log-level", "loud")
	assert.Error(t, err)

	_, statErr := os.Stat(e.prefs)
	assert.ErrorIs(t, statErr, os.ErrNotExist, "nothing saved after a failed set")
}

func TestGroups_AddUseFind(t *testing.T) {
	e := newEnv(t)
	other := filepath.Join(filepath.Dir(e.root), "other")
	writeFile(t, filepath.Join(other, "z.txt"), "hello other\n")

	_, err := e.run(t, "groups", "add", "work", e.root)
	require.NoError(t, err)
	_, err = e.run(t, "groups", "add", "play", other, "--name", "fun")
	require.NoError(t, err)

	out, err := e.run(t, "groups", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "* work")
	assert.Contains(t, out, "  play")
	assert.Contains(t, out, "fun\t"+other)

	out, err = e.run(t, "find", "--text", "hello")
	require.NoError(t, err)
	assert.Contains(t, out, "hello world", "first group is active by default")
	assert.NotContains(t, out, "hello other")

	_, err = e.run(t, "groups", "use", "play")
	require.NoError(t, err)
	out, err = e.run(t, "find", "--text", "hello")
	require.NoError(t, err)
	assert.Contains(t, out, "hello other")

	out, err = e.run(t, "find", "--text", "hello", "--group", "work")
	require.NoError(t, err)
	assert.Contains(t, out, "hello world")

	_, err = e.run(t, "find", "--text", "hello", "--group", "nope")
	assert.ErrorIs(t, err, workspace.ErrGroupNotFound)

	_, err = e.run(t, "groups", "add", "work", e.root)
	assert.ErrorIs(t, err, workspace.ErrProjectExists)
}

func TestFind_EnvOverrides(t *testing.T) {
	e := newEnv(t)
	t.Setenv("PROJFIND_MATCH_CASE", "no")
	t.Setenv("PROJFIND_EXCLUDE_DIRS", "sub")

	out, err := e.run(t, "find", "--text", "hello", "--root", e.root)
	require.NoError(t, err)
	assert.Contains(t, out, "hello world")
	assert.Contains(t, out, "hello git", ".git is no longer excluded")
	assert.NotContains(t, out, "say HELLO")
}

func TestRun_Script(t *testing.T) {
	e := newEnv(t)
	script := filepath.Join(t.TempDir(), "report.lua")
	writeFile(t, script, `
local res, err = _ks_find.find({ text = "hello" })
assert(err == nil, err)
assert(#res.projects == 1, "one project")
assert(not _ks_find.is_running())
local out = io.open(arg[1], "w")
for _, f in ipairs(res.projects[1].files) do
  for _, r in ipairs(f.results) do
    out:write(f.label .. ":" .. r.line .. ":" .. r.text .. "\n")
  end
end
out:close()
`)
	report := filepath.Join(t.TempDir(), "report.txt")

	_, err := e.run(t, "run", script, "--root", e.root, "--", report)
	require.NoError(t, err)

	data, err := os.ReadFile(report)
	require.NoError(t, err)
	assert.Equal(t, "a.txt - a.txt:1:hello world\n", string(data), "preferences keep match case on and .git excluded")
}

func TestRun_ScriptError(t *testing.T) {
	e := newEnv(t)
	script := filepath.Join(t.TempDir(), "fail.lua")
	writeFile(t, script, `error("boom")`)

	_, err := e.run(t, "run", script, "--root", e.root)
	assert.ErrorContains(t, err, "boom")

	_, err = e.run(t, "run", filepath.Join(t.TempDir(), "missing.lua"), "--root", e.root)
	assert.Error(t, err)
}

func TestRun_ReloadsPreferences(t *testing.T) {
	e := newEnv(t)
	writeFile(t, e.prefs, "[search]\nmatch_case = false\n")
	script := filepath.Join(t.TempDir(), "reload.lua")
	writeFile(t, script, `
local function count()
  local res, err = _ks_find.find({ text = "hello" })
  assert(err == nil, err)
  return #res.projects[1].files
end
assert(count() == 2, "a.txt and sub/b.txt")
local f = io.open(arg[1], "w")
f:write('[search]\nmatch_case = false\n[projects]\nexclude_dirs = ".git, sub"\n')
f:close()
local deadline = os.time() + 10
while count() ~= 1 do
  assert(os.time() < deadline, "preferences were not reloaded")
end
`)

	_, err := e.run(t, "run", script, "--root", e.root, "--", e.prefs)
	require.NoError(t, err)
}
