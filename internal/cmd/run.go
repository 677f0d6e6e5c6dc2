package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/projfind/internal/config"
	"github.com/dshills/projfind/internal/logger"
	"github.com/dshills/projfind/internal/project"
	"github.com/dshills/projfind/internal/project/search"
)

type runOptions struct {
	group string
	roots []string
}

func newRunCommand(g *globalOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run <script.lua> [args...]",
		Short: "Run a Lua script against the project finder",
		Long: `Run a Lua script with the finder available as the global _ks_find:

  local res, err = _ks_find.find({ text = "TODO", file = "*.go" })
  _ks_find.cancel()
  _ks_find.is_running()

Options passed to find are layered on the preferences. The preferences file
is watched while the script runs, so edits apply to the next find. Script
arguments are in the global table arg.`,
		Example: `  projfind run report.lua --group work
  projfind run todo.lua --root ./api -- out.txt`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runScript(ctx, g, opts, args[0], args[1:], cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVarP(&opts.group, "group", "g", "", "Search the projects of this group")
	cmd.Flags().StringArrayVarP(&opts.roots, "root", "r", nil, "Search this folder as a project (repeatable)")
	cmd.MarkFlagsMutuallyExclusive("group", "root")

	return cmd
}

// livePreferences serves the store's current preferences with environment
// overrides applied, so reloads reach every search.
type livePreferences struct {
	store *config.Store
}

func (l livePreferences) current() config.Preferences {
	p, err := config.ApplyEnv(l.store.Preferences(), os.LookupEnv)
	if err != nil {
		// Validated when the store was loaded.
		return l.store.Preferences()
	}
	return p
}

func (l livePreferences) ExcludeDirs() string       { return l.current().ExcludeDirs() }
func (l livePreferences) ExcludeTypes() string      { return l.current().ExcludeTypes() }
func (l livePreferences) Criteria() search.Criteria { return l.current().Criteria() }

// runScript executes script with the find module registered. The
// preferences are reloaded on change until the script returns.
func runScript(ctx context.Context, g *globalOptions, opts *runOptions, script string, args []string, errOut io.Writer) error {
	store, _, log, err := g.loadStore(errOut)
	if err != nil {
		return err
	}

	src, err := projectSource(g, &findOptions{group: opts.group, roots: opts.roots}, log)
	if err != nil {
		return err
	}

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	watchPreferences(watchCtx, store, log)

	live := livePreferences{store: store}
	finder := project.New(src, project.WithLogger(log), project.WithPreferences(live))
	defer finder.Stop()

	L := lua.NewState()
	defer L.Close()
	L.SetContext(ctx)

	if err := project.NewModule(finder).WithDefaults(live.Criteria).Register(L); err != nil {
		return err
	}
	argv := L.NewTable()
	L.RawSetInt(argv, 0, lua.LString(script))
	for i, a := range args {
		L.RawSetInt(argv, i+1, lua.LString(a))
	}
	L.SetGlobal("arg", argv)

	log.Debugf("running %s", script)
	if err := L.DoFile(script); err != nil {
		if project.IsCancelled(ctx.Err()) {
			log.Infof("script %s interrupted", script)
			return nil
		}
		return fmt.Errorf("running %s: %w", script, err)
	}
	return nil
}

// watchPreferences reloads store when its file changes. A store that cannot
// be watched keeps the preferences it loaded.
func watchPreferences(ctx context.Context, store *config.Store, log logger.Logger) {
	store.OnChange(func(p config.Preferences) {
		log.Infof("preferences reloaded from %s", store.Path())
	})
	err := store.Watch(ctx, config.DefaultDebounce, func(err error) {
		log.Warnf("reloading preferences: %v", err)
	})
	if err != nil {
		log.Warnf("not watching preferences: %v", err)
	}
}
