package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/dshills/projfind/internal/config"
)

func newPrefsCommand(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or edit search preferences",
	}
	cmd.AddCommand(newPrefsShowCommand(g))
	cmd.AddCommand(newPrefsSetCommand(g))
	return cmd
}

func newPrefsShowCommand(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective preferences as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, _, err := g.loadStore(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			data, err := config.Marshal(store.Preferences())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# %s\n", store.Path())
			_, err = out.Write(data)
			return err
		},
	}
}

type prefsSetOptions struct {
	excludeDirs  string
	excludeTypes string
	excludeGlobs []string
	matchCase    bool
	maxFileSize  string
	logLevel     string
}

func newPrefsSetCommand(g *globalOptions) *cobra.Command {
	opts := &prefsSetOptions{}

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change preferences and save them",
		Long: `Change one or more preferences and write the file back. Only the flags
given are changed. Lists are comma, semicolon or space separated.`,
		Example: `  projfind prefs set --exclude-dirs ".git, node_modules, vendor"
  projfind prefs set --max-file-size 4MiB --match-case=false`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, log, err := g.loadStore(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			var size uint64
			if flags.Changed("max-file-size") {
				if size, err = humanize.ParseBytes(opts.maxFileSize); err != nil {
					return fmt.Errorf("%w: --max-file-size %q", config.ErrInvalidValue, opts.maxFileSize)
				}
			}

			err = store.Update(func(p *config.Preferences) {
				if flags.Changed("exclude-dirs") {
					p.Projects.ExcludeDirs = opts.excludeDirs
				}
				if flags.Changed("exclude-types") {
					p.Projects.ExcludeTypes = opts.excludeTypes
				}
				if flags.Changed("exclude-globs") {
					p.Projects.ExcludeGlobs = opts.excludeGlobs
				}
				if flags.Changed("match-case") {
					p.Search.MatchCase = opts.matchCase
				}
				if flags.Changed("max-file-size") {
					p.Search.MaxFileSize = int64(size)
				}
				if flags.Changed("default-log-level") {
					p.Search.LogLevel = opts.logLevel
				}
			})
			if err != nil {
				return err
			}
			if err := store.Save(); err != nil {
				return err
			}
			log.Infof("saved preferences to %s", store.Path())
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.excludeDirs, "exclude-dirs", "", "Directory names to skip")
	cmd.Flags().StringVar(&opts.excludeTypes, "exclude-types", "", "File name suffixes to skip")
	cmd.Flags().StringArrayVar(&opts.excludeGlobs, "exclude-globs", nil, "Project-relative globs to skip (repeatable)")
	cmd.Flags().BoolVar(&opts.matchCase, "match-case", true, "Case-sensitive matching by default")
	cmd.Flags().StringVar(&opts.maxFileSize, "max-file-size", "", "Skip larger files during content scans (e.g. 10MiB, 0 for no limit)")
	cmd.Flags().StringVar(&opts.logLevel, "default-log-level", "", "Default log level")

	return cmd
}
