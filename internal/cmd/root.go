package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dshills/projfind/internal/config"
	"github.com/dshills/projfind/internal/logger"
)

// Version information, injected at build time via -ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// GroupsFileName is the project groups file kept next to the preferences.
const GroupsFileName = "groups.yaml"

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	prefsPath  string
	groupsPath string
	logLevel   string
}

// NewRootCommand creates and returns the root cobra command for projfind
func NewRootCommand() *cobra.Command {
	g := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "projfind",
		Short: "Search project folders by file name and content",
		Long: `projfind searches a set of project folders for files whose names or
lines match wildcard patterns ('*' any run, '?' one character; everything else is literal).

Projects come from --root folders or from a named group in the groups file.
Directories and file types listed in the preferences file are skipped.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&g.prefsPath, "prefs", "", "Preferences file (default: user config dir)")
	cmd.PersistentFlags().StringVar(&g.groupsPath, "groups", "", "Project groups file (default: next to preferences)")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")

	cmd.AddCommand(newFindCommand(g))
	cmd.AddCommand(newPrefsCommand(g))
	cmd.AddCommand(newGroupsCommand(g))
	cmd.AddCommand(newRunCommand(g))
	cmd.AddCommand(newVersionCommand())

	return cmd
}

// resolvedPrefsPath returns --prefs or the default location.
func (g *globalOptions) resolvedPrefsPath() (string, error) {
	if g.prefsPath != "" {
		return g.prefsPath, nil
	}
	return config.DefaultPath()
}

// resolvedGroupsPath returns --groups or groups.yaml beside the preferences.
func (g *globalOptions) resolvedGroupsPath() (string, error) {
	if g.groupsPath != "" {
		return g.groupsPath, nil
	}
	prefs, err := g.resolvedPrefsPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(prefs), GroupsFileName), nil
}

// loadStore opens the preferences store. It also returns the preferences
// with environment overrides applied and a logger configured from them.
func (g *globalOptions) loadStore(errOut io.Writer) (*config.Store, config.Preferences, logger.Logger, error) {
	path, err := g.resolvedPrefsPath()
	if err != nil {
		return nil, config.Preferences{}, nil, fmt.Errorf("locating preferences: %w", err)
	}

	store := config.NewStore(path, nil)
	if err := store.Load(); err != nil {
		return nil, config.Preferences{}, nil, err
	}
	prefs, err := config.ApplyEnv(store.Preferences(), os.LookupEnv)
	if err != nil {
		return nil, config.Preferences{}, nil, err
	}

	level := g.logLevel
	if level == "" {
		level = prefs.Search.LogLevel
	}
	return store, prefs, logger.NewConsoleLogger(errOut, level), nil
}
