package timeline

import (
	"strings"

	"ganttboard/internal/client"
	"ganttboard/internal/model"
)

// Bar 时间轴上的一行
type Bar struct {
	TaskID       int
	ProjectID    int
	Name         string
	Description  *string
	Start        model.Date
	End          model.Date
	Progress     float64
	Dependencies string
	// Unscheduled 任务和项目都没有可用日期，单独显示在末尾
	Unscheduled bool
}

// DependsOn 解析后的依赖列表
func (b Bar) DependsOn() []string {
	return ParseDependencies(b.Dependencies)
}

// Normalize 将服务端任务转为时间轴条目。缺失或无法解析的日期用项目的起止日期代替，
// 两者都不可用时条目保留但标记为 Unscheduled。
func Normalize(project model.Project, tasks []client.RawTask) []Bar {
	bars := make([]Bar, 0, len(tasks))
	for _, t := range tasks {
		start, okStart := normalizeDate(t.StartDate, project.StartDate)
		end, okEnd := normalizeDate(t.EndDate, project.EndDate)
		bars = append(bars, Bar{
			TaskID:       t.ID,
			ProjectID:    t.ProjectID,
			Name:         t.Name,
			Description:  t.Description,
			Start:        start,
			End:          end,
			Progress:     float64(t.Progress),
			Dependencies: t.Dependencies,
			Unscheduled:  !okStart || !okEnd,
		})
	}
	return bars
}

// normalizeDate 完整时间戳只保留日期部分
func normalizeDate(raw string, fallback model.Date) (model.Date, bool) {
	raw = strings.TrimSpace(raw)
	if d, err := model.ParseDate(raw); err == nil {
		return d, true
	}
	if len(raw) > len(model.DateLayout) {
		if d, err := model.ParseDate(raw[:len(model.DateLayout)]); err == nil {
			return d, true
		}
	}
	return fallback, !fallback.IsZero()
}

// ParseDependencies 按逗号拆分，去掉空白和空项
func ParseDependencies(s string) []string {
	var deps []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			deps = append(deps, part)
		}
	}
	return deps
}

// DetectChange 返回第一个起止日期或进度与已知状态不同的条目下标
func DetectChange(known, current []Bar) (int, bool) {
	byID := make(map[int]Bar, len(known))
	for _, b := range known {
		byID[b.TaskID] = b
	}
	for i, b := range current {
		prev, ok := byID[b.TaskID]
		if !ok {
			continue
		}
		if !prev.Start.Equal(b.Start.Time) || !prev.End.Equal(b.End.Time) || prev.Progress != b.Progress {
			return i, true
		}
	}
	return -1, false
}
