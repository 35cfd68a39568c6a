package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ganttboard/internal/client"
)

func (e *env) projectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project"},
		Short:   "List and manage projects",
	}
	cmd.AddCommand(
		e.projectsListCmd(),
		e.projectsShowCmd(),
		e.projectsCreateCmd(),
		e.projectsUpdateCmd(),
		e.projectsDeleteCmd(),
	)
	return cmd
}

func (e *env) projectsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.requireLogin(); err != nil {
				return err
			}
			projects, err := e.api.ListProjects(e.ctx(cmd))
			if err != nil {
				return err
			}
			if len(projects) == 0 {
				fmt.Fprintln(e.out, "No projects")
				return nil
			}
			tw := tabwriter.NewWriter(e.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tName\tStart\tEnd")
			for _, p := range projects {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", p.ID, p.Name, p.StartDate, p.EndDate)
			}
			return tw.Flush()
		},
	}
}

func (e *env) projectsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a project and its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.requireLogin(); err != nil {
				return err
			}
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			d, err := e.api.GetProject(e.ctx(cmd), id)
			if err != nil {
				return err
			}

			fmt.Fprintf(e.out, "#%d %s (%s → %s)\n", d.Project.ID, d.Project.Name, d.Project.StartDate, d.Project.EndDate)
			if d.Project.Description != nil && *d.Project.Description != "" {
				fmt.Fprintln(e.out, *d.Project.Description)
			}
			return printTasks(e.out, d.Tasks)
		},
	}
}

type projectFlags struct {
	name, description, start, end string
}

func (f *projectFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "project name")
	cmd.Flags().StringVar(&f.description, "description", "", "project description")
	cmd.Flags().StringVar(&f.start, "start", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.end, "end", "", "end date (YYYY-MM-DD)")
}

// apply 用命令行中出现的字段覆盖 base
func (f *projectFlags) apply(cmd *cobra.Command, base client.ProjectFields) (client.ProjectFields, error) {
	if cmd.Flags().Changed("name") {
		base.Name = f.name
	}
	if d := optionalString(cmd, "description", f.description); d != nil {
		base.Description = d
	}
	if cmd.Flags().Changed("start") {
		d, err := parseDateFlag("start", f.start)
		if err != nil {
			return base, err
		}
		base.StartDate = d
	}
	if cmd.Flags().Changed("end") {
		d, err := parseDateFlag("end", f.end)
		if err != nil {
			return base, err
		}
		base.EndDate = d
	}
	return base, nil
}

func (e *env) projectsCreateCmd() *cobra.Command {
	var f projectFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.requireLogin(); err != nil {
				return err
			}
			fields, err := f.apply(cmd, client.ProjectFields{})
			if err != nil {
				return err
			}
			id, err := e.api.CreateProject(e.ctx(cmd), fields)
			if err != nil {
				return err
			}
			fmt.Fprintf(e.out, "Created project %d\n", id)
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func (e *env) projectsUpdateCmd() *cobra.Command {
	var f projectFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a project (admin); omitted flags keep their current value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.requireLogin(); err != nil {
				return err
			}
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			// 服务端整体替换，先取当前值再合并
			d, err := e.api.GetProject(e.ctx(cmd), id)
			if err != nil {
				return err
			}
			fields, err := f.apply(cmd, client.ProjectFields{
				Name:        d.Project.Name,
				Description: d.Project.Description,
				StartDate:   d.Project.StartDate,
				EndDate:     d.Project.EndDate,
			})
			if err != nil {
				return err
			}
			if err := e.api.UpdateProject(e.ctx(cmd), id, fields); err != nil {
				return err
			}
			fmt.Fprintf(e.out, "Updated project %d\n", id)
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func (e *env) projectsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a project and all of its tasks (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.requireLogin(); err != nil {
				return err
			}
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			if err := e.api.DeleteProject(e.ctx(cmd), id); err != nil {
				return err
			}
			fmt.Fprintf(e.out, "Deleted project %d\n", id)
			return nil
		},
	}
}
