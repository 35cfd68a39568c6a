package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"ganttboard/internal/model"
)

type LoginResult struct {
	Token string            `json:"token"`
	User  model.UserProfile `json:"user"`
}

type ProjectDetail struct {
	Project model.Project `json:"project"`
	Tasks   []model.Task  `json:"tasks"`
}

// RawTask 宽松解码的任务：日期保留原始文本，进度接受数字或字符串
type RawTask struct {
	ID           int     `json:"id"`
	ProjectID    int     `json:"project_id"`
	Name         string  `json:"name"`
	Description  *string `json:"description"`
	StartDate    string  `json:"start_date"`
	EndDate      string  `json:"end_date"`
	Progress     Number  `json:"progress"`
	Dependencies string  `json:"dependencies"`
}

// RawProjectDetail GET /api/projects/:id 的宽松解码，供时间轴使用
type RawProjectDetail struct {
	Project model.Project `json:"project"`
	Tasks   []RawTask     `json:"tasks"`
}

// Number 接受 JSON 数字、数字字符串和 null；无法解析时为 0
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*n = 0
		return nil
	}
	*n = Number(f)
	return nil
}

// ProjectFields 创建/更新项目的请求体
type ProjectFields struct {
	Name        string     `json:"name"`
	Description *string    `json:"description,omitempty"`
	StartDate   model.Date `json:"start_date"`
	EndDate     model.Date `json:"end_date"`
}

// TaskFields 创建/更新任务的请求体，更新时 ProjectID 会被服务端忽略
type TaskFields struct {
	ProjectID    int        `json:"project_id,omitempty"`
	Name         string     `json:"name"`
	Description  *string    `json:"description,omitempty"`
	StartDate    model.Date `json:"start_date"`
	EndDate      model.Date `json:"end_date"`
	Progress     *float64   `json:"progress,omitempty"`
	Dependencies *string    `json:"dependencies,omitempty"`
}

type createdID struct {
	ID int `json:"id"`
}

// Ping GET /api/test
func (c *Client) Ping(ctx context.Context) (string, error) {
	return c.do(ctx, http.MethodGet, "/api/test", nil, nil)
}

// Login 成功后写入 session
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	var res LoginResult
	body := map[string]string{"username": username, "password": password}
	if _, err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &res); err != nil {
		return nil, err
	}
	if err := c.session.Set(res.Token, res.User); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return &res, nil
}

// Me 刷新 session 中的用户信息
func (c *Client) Me(ctx context.Context) (*model.UserProfile, error) {
	var u model.UserProfile
	if _, err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &u); err != nil {
		return nil, err
	}
	if err := c.session.SetUser(u); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return &u, nil
}

func (c *Client) ChangePassword(ctx context.Context, current, next string) error {
	body := map[string]string{"currentPassword": current, "newPassword": next}
	_, err := c.do(ctx, http.MethodPost, "/api/auth/change-password", body, nil)
	return err
}

// Logout 只清空本地 session，服务端无状态
func (c *Client) Logout() error {
	return c.session.Clear()
}

func (c *Client) ListProjects(ctx context.Context) ([]model.Project, error) {
	var list []model.Project
	_, err := c.do(ctx, http.MethodGet, "/api/projects", nil, &list)
	return list, err
}

func (c *Client) GetProject(ctx context.Context, id int) (*ProjectDetail, error) {
	var d ProjectDetail
	if _, err := c.do(ctx, http.MethodGet, "/api/projects/"+strconv.Itoa(id), nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) GetProjectRaw(ctx context.Context, id int) (*RawProjectDetail, error) {
	var d RawProjectDetail
	if _, err := c.do(ctx, http.MethodGet, "/api/projects/"+strconv.Itoa(id), nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) CreateProject(ctx context.Context, f ProjectFields) (int, error) {
	var res createdID
	if _, err := c.do(ctx, http.MethodPost, "/api/projects", f, &res); err != nil {
		return 0, err
	}
	return res.ID, nil
}

func (c *Client) UpdateProject(ctx context.Context, id int, f ProjectFields) error {
	_, err := c.do(ctx, http.MethodPut, "/api/projects/"+strconv.Itoa(id), f, nil)
	return err
}

func (c *Client) DeleteProject(ctx context.Context, id int) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/projects/"+strconv.Itoa(id), nil, nil)
	return err
}

func (c *Client) ListTasks(ctx context.Context) ([]model.Task, error) {
	var list []model.Task
	_, err := c.do(ctx, http.MethodGet, "/api/tasks", nil, &list)
	return list, err
}

func (c *Client) ListTasksByProject(ctx context.Context, projectID int) ([]model.Task, error) {
	var list []model.Task
	_, err := c.do(ctx, http.MethodGet, "/api/tasks/project/"+strconv.Itoa(projectID), nil, &list)
	return list, err
}

func (c *Client) GetTask(ctx context.Context, id int) (*model.Task, error) {
	var t model.Task
	if _, err := c.do(ctx, http.MethodGet, "/api/tasks/"+strconv.Itoa(id), nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) CreateTask(ctx context.Context, f TaskFields) (int, error) {
	var res createdID
	if _, err := c.do(ctx, http.MethodPost, "/api/tasks", f, &res); err != nil {
		return 0, err
	}
	return res.ID, nil
}

func (c *Client) UpdateTask(ctx context.Context, id int, f TaskFields) error {
	_, err := c.do(ctx, http.MethodPut, "/api/tasks/"+strconv.Itoa(id), f, nil)
	return err
}

func (c *Client) DeleteTask(ctx context.Context, id int) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/tasks/"+strconv.Itoa(id), nil, nil)
	return err
}

var _ json.Unmarshaler = (*Number)(nil)
