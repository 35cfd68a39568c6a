package timeline

import (
	"context"
	"errors"
	"fmt"
	"io"

	"ganttboard/internal/client"
	"ganttboard/internal/model"
)

var (
	// ErrReadOnly 非管理员只能查看
	ErrReadOnly   = errors.New("timeline is read-only for non-admin users")
	ErrNotLoaded  = errors.New("timeline not loaded")
	ErrUnknownBar = errors.New("task is not on this timeline")
)

// API 时间轴用到的接口，由 *client.Client 实现
type API interface {
	GetProjectRaw(ctx context.Context, id int) (*client.RawProjectDetail, error)
	UpdateTask(ctx context.Context, id int, f client.TaskFields) error
}

// View 单个项目的时间轴。known 为服务端确认过的状态，bars 为本地编辑后的状态
type View struct {
	api     API
	session *client.Session
	mode    ViewMode

	project model.Project
	known   []Bar
	bars    []Bar
	loaded  bool
}

func NewView(api API, session *client.Session) *View {
	return &View{api: api, session: session, mode: Week}
}

// Load 拉取项目及其任务
func (v *View) Load(ctx context.Context, projectID int) error {
	detail, err := v.api.GetProjectRaw(ctx, projectID)
	if err != nil {
		return err
	}
	v.project = detail.Project
	v.known = Normalize(detail.Project, detail.Tasks)
	v.bars = append([]Bar(nil), v.known...)
	v.loaded = true
	return nil
}

func (v *View) Project() model.Project { return v.project }

func (v *View) Bars() []Bar { return append([]Bar(nil), v.bars...) }

func (v *View) Mode() ViewMode { return v.mode }

// SetMode 只改变渲染粒度，不重新拉取
func (v *View) SetMode(m ViewMode) { v.mode = m }

func (v *View) Editable() bool {
	return v.session != nil && v.session.IsAdmin()
}

func (v *View) Render(w io.Writer) error {
	if !v.loaded {
		return ErrNotLoaded
	}
	return Render(w, v.project, v.bars, v.mode)
}

func (v *View) edit(taskID int, fn func(*Bar)) error {
	if !v.loaded {
		return ErrNotLoaded
	}
	if !v.Editable() {
		return ErrReadOnly
	}
	for i := range v.bars {
		if v.bars[i].TaskID == taskID {
			fn(&v.bars[i])
			return nil
		}
	}
	return fmt.Errorf("%w: %d", ErrUnknownBar, taskID)
}

// Move 本地修改任务起止日期，Commit 后生效
func (v *View) Move(taskID int, start, end model.Date) error {
	return v.edit(taskID, func(b *Bar) {
		b.Start, b.End = start, end
		b.Unscheduled = false
	})
}

// SetProgress 本地修改任务进度，Commit 后生效
func (v *View) SetProgress(taskID int, progress float64) error {
	return v.edit(taskID, func(b *Bar) { b.Progress = progress })
}

// Commit 找到第一个改动的任务并整体提交；成功后以本地状态作为新的已知状态。
// 没有改动时返回 (0, nil)。
func (v *View) Commit(ctx context.Context) (int, error) {
	if !v.loaded {
		return 0, ErrNotLoaded
	}
	if !v.Editable() {
		return 0, ErrReadOnly
	}

	i, changed := DetectChange(v.known, v.bars)
	if !changed {
		return 0, nil
	}

	b := v.bars[i]
	progress := b.Progress
	deps := b.Dependencies
	err := v.api.UpdateTask(ctx, b.TaskID, client.TaskFields{
		Name:         b.Name,
		Description:  b.Description,
		StartDate:    b.Start,
		EndDate:      b.End,
		Progress:     &progress,
		Dependencies: &deps,
	})
	if err != nil {
		return 0, err
	}

	for k := range v.known {
		if v.known[k].TaskID == b.TaskID {
			v.known[k] = b
		}
	}
	return b.TaskID, nil
}
