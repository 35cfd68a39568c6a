package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ganttboard/internal/client"
	"ganttboard/internal/model"
)

func printTasks(w io.Writer, tasks []model.Task) error {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tProject\tName\tStart\tEnd\tProgress\tDepends on")
	for _, t := range tasks {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%.0f%%\t%s\n",
			t.ID, t.ProjectID, t.Name, t.StartDate, t.EndDate, t.Progress, t.Dependencies)
	}
	return tw.Flush()
}

func (e *env) tasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task"},
		Short:   "List and manage tasks",
	}
	cmd.AddCommand(
		e.tasksListCmd(),
		e.tasksShowCmd(),
		e.tasksCreateCmd(),
		e.tasksUpdateCmd(),
		e.tasksDeleteCmd(),
	)
	return cmd
}

func (e *env) tasksListCmd() *cobra.Command {
	var projectID int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks, optionally for one project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.requireLogin(); err != nil {
				return err
			}
			var (
				tasks []model.Task
				err   error
			)
			if projectID > 0 {
				tasks, err = e.api.ListTasksByProject(e.ctx(cmd), projectID)
			} else {
				tasks, err = e.api.ListTasks(e.ctx(cmd))
			}
			if err != nil {
				return err
			}
			return printTasks(e.out, tasks)
		},
	}
	cmd.Flags().IntVar(&projectID, "project", 0, "only tasks of this project")
	return cmd
}

func (e *env) tasksShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.requireLogin(); err != nil {
				return err
			}
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			t, err := e.api.GetTask(e.ctx(cmd), id)
			if err != nil {
				return err
			}
			return printTasks(e.out, []model.Task{*t})
		},
	}
}

type taskFlags struct {
	projectID   int
	name        string
	description string
	start       string
	end         string
	progress    float64
	deps        string
}

func (f *taskFlags) register(cmd *cobra.Command, withProject bool) {
	if withProject {
		cmd.Flags().IntVar(&f.projectID, "project", 0, "project id")
	}
	cmd.Flags().StringVar(&f.name, "name", "", "task name")
	cmd.Flags().StringVar(&f.description, "description", "", "task description")
	cmd.Flags().StringVar(&f.start, "start", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.end, "end", "", "end date (YYYY-MM-DD)")
	cmd.Flags().Float64Var(&f.progress, "progress", 0, "progress percentage")
	cmd.Flags().StringVar(&f.deps, "deps", "", "comma separated dependencies")
}

func (f *taskFlags) apply(cmd *cobra.Command, base client.TaskFields) (client.TaskFields, error) {
	if cmd.Flags().Changed("project") {
		base.ProjectID = f.projectID
	}
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
	if cmd.Flags().Changed("progress") {
		p := f.progress
		base.Progress = &p
	}
	if d := optionalString(cmd, "deps", f.deps); d != nil {
		base.Dependencies = d
	}
	return base, nil
}

func (e *env) tasksCreateCmd() *cobra.Command {
	var f taskFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.requireLogin(); err != nil {
				return err
			}
			fields, err := f.apply(cmd, client.TaskFields{})
			if err != nil {
				return err
			}
			id, err := e.api.CreateTask(e.ctx(cmd), fields)
			if err != nil {
				return err
			}
			fmt.Fprintf(e.out, "Created task %d\n", id)
			return nil
		},
	}
	f.register(cmd, true)
	return cmd
}

func (e *env) tasksUpdateCmd() *cobra.Command {
	var f taskFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a task (admin); omitted flags keep their current value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.requireLogin(); err != nil {
				return err
			}
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			t, err := e.api.GetTask(e.ctx(cmd), id)
			if err != nil {
				return err
			}
			progress, deps := t.Progress, t.Dependencies
			fields, err := f.apply(cmd, client.TaskFields{
				Name:         t.Name,
				Description:  t.Description,
				StartDate:    t.StartDate,
				EndDate:      t.EndDate,
				Progress:     &progress,
				Dependencies: &deps,
			})
			if err != nil {
				return err
			}
			if err := e.api.UpdateTask(e.ctx(cmd), id, fields); err != nil {
				return err
			}
			fmt.Fprintf(e.out, "Updated task %d\n", id)
			return nil
		},
	}
	f.register(cmd, false)
	return cmd
}

func (e *env) tasksDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.requireLogin(); err != nil {
				return err
			}
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			if err := e.api.DeleteTask(e.ctx(cmd), id); err != nil {
				return err
			}
			fmt.Fprintf(e.out, "Deleted task %d\n", id)
			return nil
		},
	}
}
