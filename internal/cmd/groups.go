package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/projfind/internal/project/workspace"
)

func newGroupsCommand(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "groups",
		Short: "Manage project groups",
		Long: `A project group is a named list of project folders searched together.
Groups are stored in a YAML file next to the preferences.`,
	}
	cmd.AddCommand(newGroupsListCommand(g))
	cmd.AddCommand(newGroupsAddCommand(g))
	cmd.AddCommand(newGroupsUseCommand(g))
	return cmd
}

// loadGroupsOrEmpty returns the groups file at path, or an empty set when
// it does not exist yet.
func loadGroupsOrEmpty(path string) (*workspace.Groups, error) {
	groups, err := workspace.LoadGroups(path)
	if errors.Is(err, os.ErrNotExist) {
		return &workspace.Groups{}, nil
	}
	return groups, err
}

func newGroupsListCommand(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List groups and their projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := g.resolvedGroupsPath()
			if err != nil {
				return err
			}
			groups, err := loadGroupsOrEmpty(path)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(groups.Groups) == 0 {
				fmt.Fprintf(out, "no groups in %s\n", path)
				return nil
			}
			active, _ := groups.ActiveGroup()
			for _, grp := range groups.Groups {
				marker := " "
				if grp.Name == active.Name {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %s\n", marker, grp.Name)
				for _, p := range grp.SearchProjects() {
					fmt.Fprintf(out, "    %s\t%s\n", p.Name, p.Root)
				}
			}
			return nil
		},
	}
}

func newGroupsAddCommand(g *globalOptions) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "add <group> [path...]",
		Short: "Create a group and add project folders to it",
		Example: `  projfind groups add work ~/src/api ~/src/web
  projfind groups add work ./tools --name internal-tools`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if name != "" && len(args) != 2 {
				return errors.New("--name needs exactly one path")
			}
			path, err := g.resolvedGroupsPath()
			if err != nil {
				return err
			}
			groups, err := loadGroupsOrEmpty(path)
			if err != nil {
				return err
			}

			group := args[0]
			if _, ok := groups.Group(group); !ok {
				if err := groups.AddGroup(group); err != nil {
					return err
				}
			}
			for _, dir := range args[1:] {
				if err := groups.AddProject(group, name, dir); err != nil {
					return err
				}
			}
			return groups.Save(path)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Project name (default: folder name)")
	return cmd
}

func newGroupsUseCommand(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "use <group>",
		Short: "Make a group the default for find",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := g.resolvedGroupsPath()
			if err != nil {
				return err
			}
			groups, err := workspace.LoadGroups(path)
			if err != nil {
				return err
			}
			if err := groups.SetActive(args[0]); err != nil {
				return err
			}
			return groups.Save(path)
		},
	}
}
