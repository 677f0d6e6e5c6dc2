package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dshills/projfind/internal/filelock"
	"github.com/dshills/projfind/internal/project/search"
)

// Group errors.
var (
	ErrGroupNotFound  = errors.New("group not found")
	ErrGroupExists    = errors.New("group already exists")
	ErrProjectExists  = errors.New("project already in group")
	ErrInvalidGroups  = errors.New("invalid groups file")
	ErrNoActiveGroups = errors.New("no groups defined")
)

// Groups is the project groups file:
//
//	active: work
//	groups:
//	  - name: work
//	    projects:
//	      - name: api
//	        path: ~/src/api
//
// Relative project paths are resolved against the file's directory and a
// leading "~/" against the home directory.
type Groups struct {
	Active string  `yaml:"active,omitempty"`
	Groups []Group `yaml:"groups"`
}

// Group is a named, ordered list of projects.
type Group struct {
	Name     string         `yaml:"name"`
	Projects []GroupProject `yaml:"projects"`
}

// GroupProject is one project entry. Path is kept as written so that
// saving the file does not rewrite "~/" or relative entries.
type GroupProject struct {
	Name string `yaml:"name,omitempty"`
	Path string `yaml:"path"`

	root string // Path resolved to an absolute directory
}

// Root returns the project's absolute directory.
func (p GroupProject) Root() string {
	if p.root != "" {
		return p.root
	}
	return p.Path
}

var _ search.ProjectSource = (*Groups)(nil)

// GroupsError reports a groups file that failed to load.
type GroupsError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *GroupsError) Error() string {
	return fmt.Sprintf("groups file %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *GroupsError) Unwrap() error {
	return e.Err
}

// LoadGroups reads and validates the groups file at path. Project roots are
// resolved to absolute paths; the entries keep their written form.
func LoadGroups(path string) (*Groups, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &GroupsError{Path: path, Err: err}
	}
	g, err := ParseGroups(data, filepath.Dir(path))
	if err != nil {
		return nil, &GroupsError{Path: path, Err: err}
	}
	return g, nil
}

// ParseGroups decodes a groups document. baseDir resolves relative paths.
func ParseGroups(data []byte, baseDir string) (*Groups, error) {
	var g Groups
	if err := yaml.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGroups, err)
	}

	seen := make(map[string]bool, len(g.Groups))
	for i := range g.Groups {
		grp := &g.Groups[i]
		grp.Name = strings.TrimSpace(grp.Name)
		if grp.Name == "" {
			return nil, fmt.Errorf("%w: group %d has no name", ErrInvalidGroups, i+1)
		}
		if seen[grp.Name] {
			return nil, fmt.Errorf("%w: duplicate group %q", ErrInvalidGroups, grp.Name)
		}
		seen[grp.Name] = true

		for j := range grp.Projects {
			p := &grp.Projects[j]
			if strings.TrimSpace(p.Path) == "" {
				return nil, fmt.Errorf("%w: project %d in group %q has no path", ErrInvalidGroups, j+1, grp.Name)
			}
			resolved, err := resolvePath(p.Path, baseDir)
			if err != nil {
				return nil, err
			}
			p.root = resolved
		}
	}

	if g.Active != "" && !seen[g.Active] {
		return nil, fmt.Errorf("%w: active group %q is not defined", ErrInvalidGroups, g.Active)
	}
	return &g, nil
}

// Save writes the groups file atomically under a lock.
func (g *Groups) Save(path string) error {
	data, err := yaml.Marshal(g)
	if err != nil {
		return fmt.Errorf("encode groups: %w", err)
	}
	return filelock.LockAndWrite(path, data, 0o644)
}

// Group returns the group called name.
func (g *Groups) Group(name string) (Group, bool) {
	for _, grp := range g.Groups {
		if grp.Name == name {
			return grp, true
		}
	}
	return Group{}, false
}

// ActiveGroup returns the active group, or the first one when none is set.
func (g *Groups) ActiveGroup() (Group, error) {
	if len(g.Groups) == 0 {
		return Group{}, ErrNoActiveGroups
	}
	if g.Active == "" {
		return g.Groups[0], nil
	}
	grp, ok := g.Group(g.Active)
	if !ok {
		return Group{}, fmt.Errorf("%w: %s", ErrGroupNotFound, g.Active)
	}
	return grp, nil
}

// SetActive makes name the active group.
func (g *Groups) SetActive(name string) error {
	if _, ok := g.Group(name); !ok {
		return fmt.Errorf("%w: %s", ErrGroupNotFound, name)
	}
	g.Active = name
	return nil
}

// AddGroup appends an empty group.
func (g *Groups) AddGroup(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: empty group name", ErrInvalidGroups)
	}
	if _, ok := g.Group(name); ok {
		return fmt.Errorf("%w: %s", ErrGroupExists, name)
	}
	g.Groups = append(g.Groups, Group{Name: name})
	return nil
}

// AddProject appends a project to an existing group. path is made absolute
// against the working directory.
func (g *Groups) AddProject(group, name, path string) error {
	absPath, err := absClean(path)
	if err != nil {
		return err
	}
	for i := range g.Groups {
		grp := &g.Groups[i]
		if grp.Name != group {
			continue
		}
		for _, p := range grp.Projects {
			if p.Root() == absPath {
				return fmt.Errorf("%w: %s", ErrProjectExists, absPath)
			}
		}
		grp.Projects = append(grp.Projects, GroupProject{Name: name, Path: absPath, root: absPath})
		return nil
	}
	return fmt.Errorf("%w: %s", ErrGroupNotFound, group)
}

// Projects returns the active group's projects, or nil when there is none.
func (g *Groups) Projects() []search.Project {
	grp, err := g.ActiveGroup()
	if err != nil {
		return nil
	}
	return grp.SearchProjects()
}

// SearchProjects converts the group's entries. IDs are "group/name"; an
// unnamed entry is named after its directory.
func (grp Group) SearchProjects() []search.Project {
	out := make([]search.Project, len(grp.Projects))
	for i, p := range grp.Projects {
		root := p.Root()
		name := p.Name
		if name == "" {
			name = filepath.Base(root)
		}
		out[i] = search.Project{ID: grp.Name + "/" + name, Name: name, Root: root}
	}
	return out
}

func resolvePath(p, baseDir string) (string, error) {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve %s: %w", p, err)
		}
		p = filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(baseDir, p)
	}
	return absClean(p)
}
