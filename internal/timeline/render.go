package timeline

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"ganttboard/internal/model"
)

type ViewMode int

const (
	Day ViewMode = iota
	Week
	Month
	Year
)

func (m ViewMode) String() string {
	switch m {
	case Day:
		return "day"
	case Month:
		return "month"
	case Year:
		return "year"
	default:
		return "week"
	}
}

func ParseViewMode(s string) (ViewMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "day":
		return Day, nil
	case "week", "":
		return Week, nil
	case "month":
		return Month, nil
	case "year":
		return Year, nil
	default:
		return Week, fmt.Errorf("unknown view mode %q (day, week, month, year)", s)
	}
}

// column 返回日期所在的列，相对于 origin
func (m ViewMode) column(origin, d model.Date) int {
	switch m {
	case Day:
		return origin.DaysUntil(d)
	case Week:
		return floorDiv(weekStart(origin).DaysUntil(d), 7)
	case Month:
		return (d.Year()-origin.Year())*12 + int(d.Month()) - int(origin.Month())
	default:
		return d.Year() - origin.Year()
	}
}

// label 第 col 列的表头
func (m ViewMode) label(origin model.Date, col int) string {
	switch m {
	case Day:
		return origin.AddDays(col).Format("01/02")
	case Week:
		return weekStart(origin).AddDays(col * 7).Format("01/02")
	case Month:
		return origin.AddDate(0, col, 1-origin.Day()).Format("Jan 06")
	default:
		return fmt.Sprintf("%d", origin.Year()+col)
	}
}

func weekStart(d model.Date) model.Date {
	offset := (int(d.Weekday()) + 6) % 7 // 周一为一周开始
	return d.AddDays(-offset)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && (a < 0) {
		q--
	}
	return q
}

const (
	cellDone    = '#'
	cellPending = '='
	cellEmpty   = '.'
	labelEvery  = 4
)

// Render 以 ASCII 绘制项目时间轴，view 只影响列的粒度
func Render(w io.Writer, project model.Project, bars []Bar, mode ViewMode) error {
	origin, last := bounds(project, bars)

	fmt.Fprintf(w, "%s  %s → %s  [%s]\n", project.Name, project.StartDate, project.EndDate, mode)

	var scheduled, unscheduled []Bar
	for _, b := range bars {
		if b.Unscheduled {
			unscheduled = append(unscheduled, b)
		} else {
			scheduled = append(scheduled, b)
		}
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if origin.IsZero() {
		fmt.Fprintln(tw, "ID\tTask\tStart\tEnd\tProgress\tDepends on\t")
	} else {
		cols := mode.column(origin, last) + 1
		fmt.Fprintf(tw, "ID\tTask\tStart\tEnd\tProgress\tDepends on\t%s\n", header(mode, origin, cols))
		for _, b := range scheduled {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%.0f%%\t%s\t%s\n",
				b.TaskID, b.Name, b.Start, b.End, b.Progress,
				strings.Join(b.DependsOn(), ","), bar(mode, origin, cols, b))
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(unscheduled) > 0 {
		fmt.Fprintln(w, "Unscheduled:")
		for _, b := range unscheduled {
			fmt.Fprintf(w, "  %d  %s  %.0f%%\n", b.TaskID, b.Name, b.Progress)
		}
	}
	return nil
}

// bounds 时间轴范围：项目起止与所有已排期任务的并集
func bounds(project model.Project, bars []Bar) (model.Date, model.Date) {
	first, last := project.StartDate, project.EndDate
	for _, b := range bars {
		if b.Unscheduled {
			continue
		}
		if first.IsZero() || b.Start.Before(first) {
			first = b.Start
		}
		if last.IsZero() || last.Before(b.End) {
			last = b.End
		}
	}
	if !first.IsZero() && !last.IsZero() && last.Before(first) {
		first, last = last, first
	}
	if first.IsZero() {
		first = last
	}
	if last.IsZero() {
		last = first
	}
	return first, last
}

func header(mode ViewMode, origin model.Date, cols int) string {
	var sb strings.Builder
	for col := 0; col < cols; {
		if col%labelEvery != 0 {
			sb.WriteByte(' ')
			col++
			continue
		}
		label := mode.label(origin, col)
		if len(label) > cols-col {
			label = label[:cols-col]
		}
		sb.WriteString(label)
		col += len(label)
	}
	return sb.String()
}

func bar(mode ViewMode, origin model.Date, cols int, b Bar) string {
	start, end := b.Start, b.End
	if end.Before(start) {
		start, end = end, start
	}
	from := mode.column(origin, start)
	to := mode.column(origin, end)
	span := to - from + 1

	progress := b.Progress
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	done := int(float64(span)*progress/100 + 0.5)

	cells := make([]rune, cols)
	for i := range cells {
		switch {
		case i < from || i > to:
			cells[i] = cellEmpty
		case i-from < done:
			cells[i] = cellDone
		default:
			cells[i] = cellPending
		}
	}
	return string(cells)
}
