package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/projfind/internal/logger"
	"github.com/dshills/projfind/internal/project"
	"github.com/dshills/projfind/internal/project/search"
	"github.com/dshills/projfind/internal/project/workspace"
)

// errNoPattern is returned when neither --text nor --file is given.
var errNoPattern = errors.New("at least one of --text or --file is required")

type findOptions struct {
	text      string
	file      string
	matchCase bool
	scope     []string
	group     string
	roots     []string
	jsonOut   bool
	noColor   bool
}

// projectList is a fixed project source.
type projectList []search.Project

func (l projectList) Projects() []search.Project { return l }

func newFindCommand(g *globalOptions) *cobra.Command {
	opts := &findOptions{}

	cmd := &cobra.Command{
		Use:   "find",
		Short: "Search projects by file name and content",
		Long: `Search every project for files whose name matches --file and whose lines
match --text. With only --file, matching files are listed without lines.

Projects are the --root folders when given, otherwise the --group (or the
active group) from the groups file, otherwise the current directory.

Press Ctrl-C to stop a running search; results found so far are kept.`,
		Example: `  projfind find --text 'TODO*fix' --file '*.go'
  projfind find --file 'Makefile' --group work
  projfind find --text needle --root ./api --root ./web --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runFind(ctx, g, opts, cmd.Flags().Changed("match-case"), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVarP(&opts.text, "text", "t", "", "Content pattern matched against each line")
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "File name pattern")
	cmd.Flags().BoolVarP(&opts.matchCase, "match-case", "c", true, "Case-sensitive matching (default from preferences)")
	cmd.Flags().StringArrayVarP(&opts.scope, "scope", "s", nil, "Restrict the search to this file or directory (repeatable)")
	cmd.Flags().StringVarP(&opts.group, "group", "g", "", "Search the projects of this group")
	cmd.Flags().StringArrayVarP(&opts.roots, "root", "r", nil, "Search this folder as a project (repeatable)")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "Print results as JSON lines")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	cmd.MarkFlagsMutuallyExclusive("group", "root")

	return cmd
}

// runFind submits the search and drains its events until completion.
// Cancelling ctx stops the search; the partial results stay printed.
func runFind(ctx context.Context, g *globalOptions, opts *findOptions, matchCaseSet bool, out, errOut io.Writer) error {
	if opts.text == "" && opts.file == "" {
		return errNoPattern
	}

	_, prefs, log, err := g.loadStore(errOut)
	if err != nil {
		return err
	}

	src, err := projectSource(g, opts, log)
	if err != nil {
		return err
	}

	crit := prefs.Criteria()
	crit.ContentPattern = opts.text
	crit.FilePattern = opts.file
	crit.Scope = opts.scope
	if matchCaseSet {
		crit.MatchCase = opts.matchCase
	}

	finder := project.New(src, project.WithLogger(log), project.WithPreferences(prefs))
	if _, err := finder.Start(crit); err != nil {
		if project.IsOutsideProjects(err) {
			return fmt.Errorf("%w (searching %s)", err, rootList(src))
		}
		return err
	}

	var p printer
	if opts.jsonOut {
		p = newJSONPrinter(out)
	} else {
		p = newTreePrinter(out, useColor(out, opts.noColor))
	}

	q := finder.Queue()
	interrupt := ctx.Done()
	for !p.Done() {
		select {
		case <-q.C():
			q.Drain(p)
		case <-interrupt:
			log.Infof("stopping search")
			finder.Stop()
			interrupt = nil
		}
	}
	if err := finder.Wait(context.WithoutCancel(ctx)); err != nil {
		return err
	}
	return p.Err()
}

func rootList(src search.ProjectSource) string {
	var roots []string
	for _, p := range src.Projects() {
		roots = append(roots, p.Root)
	}
	return strings.Join(roots, ", ")
}

// projectSource picks --root folders, a group, or the working directory.
func projectSource(g *globalOptions, opts *findOptions, log logger.Logger) (search.ProjectSource, error) {
	if len(opts.roots) > 0 {
		return workspace.NewFromPaths(opts.roots...)
	}

	path, err := g.resolvedGroupsPath()
	if err != nil {
		return nil, err
	}
	groups, err := workspace.LoadGroups(path)
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist) && opts.group == "":
		log.Debugf("no groups file at %s, searching the working directory", path)
		return workingDir()
	default:
		return nil, err
	}

	if opts.group == "" {
		grp, err := groups.ActiveGroup()
		if errors.Is(err, workspace.ErrNoActiveGroups) {
			return workingDir()
		}
		if err != nil {
			return nil, err
		}
		log.Debugf("searching group %s", grp.Name)
		return projectList(grp.SearchProjects()), nil
	}

	grp, ok := groups.Group(opts.group)
	if !ok {
		return nil, fmt.Errorf("%w: %s", workspace.ErrGroupNotFound, opts.group)
	}
	return projectList(grp.SearchProjects()), nil
}

func workingDir() (search.ProjectSource, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return workspace.NewFromPaths(wd)
}
