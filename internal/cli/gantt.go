package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"ganttboard/internal/timeline"
)

func (e *env) ganttCmd() *cobra.Command {
	var (
		view     string
		moves    []string
		progress []string
	)
	cmd := &cobra.Command{
		Use:   "gantt <project-id>",
		Short: "Render a project timeline; admins can move tasks and set progress",
		Example: `  ganttctl gantt 3 --view month
  ganttctl gantt 3 --move 12:2024-03-01:2024-03-08 --progress 12:40`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.requireLogin(); err != nil {
				return err
			}
			projectID, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			mode, err := timeline.ParseViewMode(view)
			if err != nil {
				return err
			}

			v := timeline.NewView(e.api, e.session)
			if err := v.Load(e.ctx(cmd), projectID); err != nil {
				return err
			}
			v.SetMode(mode)

			for _, m := range moves {
				if err := applyMove(v, m); err != nil {
					return err
				}
			}
			for _, p := range progress {
				if err := applyProgress(v, p); err != nil {
					return err
				}
			}

			// 每次提交一个改动的任务，直到没有剩余改动
			for {
				id, err := v.Commit(e.ctx(cmd))
				if err != nil {
					return err
				}
				if id == 0 {
					break
				}
				fmt.Fprintf(e.out, "Updated task %d\n", id)
			}

			return v.Render(e.out)
		},
	}
	cmd.Flags().StringVar(&view, "view", "week", "day, week, month or year")
	cmd.Flags().StringArrayVar(&moves, "move", nil, "TASK:START:END, may be repeated")
	cmd.Flags().StringArrayVar(&progress, "progress", nil, "TASK:PERCENT, may be repeated")
	return cmd
}

func applyMove(v *timeline.View, arg string) error {
	parts := strings.Split(arg, ":")
	if len(parts) != 3 {
		return fmt.Errorf("--move %q: want TASK:START:END", arg)
	}
	id, err := parseIDArg(parts[0])
	if err != nil {
		return err
	}
	start, err := parseDateFlag("move", parts[1])
	if err != nil {
		return err
	}
	end, err := parseDateFlag("move", parts[2])
	if err != nil {
		return err
	}
	return v.Move(id, start, end)
}

func applyProgress(v *timeline.View, arg string) error {
	idStr, pctStr, ok := strings.Cut(arg, ":")
	if !ok {
		return fmt.Errorf("--progress %q: want TASK:PERCENT", arg)
	}
	id, err := parseIDArg(idStr)
	if err != nil {
		return err
	}
	pct, err := strconv.ParseFloat(strings.TrimSuffix(pctStr, "%"), 64)
	if err != nil {
		return fmt.Errorf("--progress %q: %w", arg, err)
	}
	return v.SetProgress(id, pct)
}
