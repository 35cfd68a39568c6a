package cli

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ganttboard/config"
	"ganttboard/internal/app"
	"ganttboard/internal/client"
)

type harness struct {
	url   string
	store *client.MemoryStore
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	cfg.DB.Path = ":memory:"
	cfg.JWT.Secret = "cli-test-secret"

	a, err := app.New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	srv := httptest.NewServer(a.Server.Handler)
	t.Cleanup(func() {
		srv.Close()
		a.Close()
	})

	return &harness{url: srv.URL, store: &client.MemoryStore{}}
}

func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCommand(Options{Out: &out, Store: h.store})
	root.SetArgs(append([]string{"--url", h.url}, args...))
	err := root.Execute()
	return out.String(), err
}

func (h *harness) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := h.run(t, args...)
	require.NoError(t, err, "ganttctl %v", args)
	return out
}

func TestPingWithoutLogin(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, "API is working!\n", h.mustRun(t, "ping"))
}

func TestLoginAndWhoami(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "login", "-u", "admin", "-p", "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid credentials")
	assert.Empty(t, out)

	assert.Equal(t, "Logged in as admin (admin)\n", h.mustRun(t, "login", "-u", "admin", "-p", "admin123"))
	assert.Contains(t, h.mustRun(t, "whoami"), "username=admin admin=true")

	st, _ := h.store.Load()
	assert.NotEmpty(t, st.Token)

	h.mustRun(t, "logout")
	_, err = h.run(t, "whoami")
	assert.ErrorContains(t, err, "not logged in")
}

func TestStaleTokenIsDiscardedOnStart(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.store.Save(client.State{Token: "stale"}))

	_, err := h.run(t, "projects", "list")
	assert.ErrorContains(t, err, "not logged in")

	st, _ := h.store.Load()
	assert.Empty(t, st.Token)
}

func TestProjectAndTaskWorkflow(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "login", "-u", "admin", "-p", "admin123")

	assert.Equal(t, "No projects\n", h.mustRun(t, "projects", "list"))
	assert.Equal(t, "Created project 1\n",
		h.mustRun(t, "projects", "create", "--name", "Launch", "--description", "v1", "--start", "2024-01-01", "--end", "2024-01-31"))

	_, err := h.run(t, "projects", "create", "--name", "NoDates")
	assert.ErrorContains(t, err, "Name, start date, and end date are required")

	assert.Equal(t, "Created task 1\n",
		h.mustRun(t, "tasks", "create", "--project", "1", "--name", "design", "--start", "2024-01-02", "--end", "2024-01-10"))
	assert.Equal(t, "Created task 2\n",
		h.mustRun(t, "tasks", "create", "--project", "1", "--name", "build", "--start", "2024-01-11", "--end", "2024-01-20", "--deps", "1"))

	_, err = h.run(t, "tasks", "create", "--project", "99", "--name", "orphan", "--start", "2024-01-02", "--end", "2024-01-03")
	assert.ErrorContains(t, err, "Project not found")

	out := h.mustRun(t, "projects", "show", "1")
	assert.Contains(t, out, "Launch")
	assert.Contains(t, out, "v1")
	assert.Contains(t, out, "design")
	assert.Contains(t, out, "build")

	h.mustRun(t, "projects", "update", "1", "--name", "Launch v2")
	out = h.mustRun(t, "projects", "show", "1")
	assert.Contains(t, out, "Launch v2")
	assert.Contains(t, out, "v1", "omitted flags keep their value")

	h.mustRun(t, "tasks", "update", "2", "--progress", "30")
	out = h.mustRun(t, "tasks", "show", "2")
	assert.Contains(t, out, "30%")
	assert.Contains(t, out, "2024-01-11", "dates are kept")

	out = h.mustRun(t, "tasks", "list", "--project", "1")
	assert.Contains(t, out, "design")

	assert.Equal(t, "Deleted project 1\n", h.mustRun(t, "projects", "delete", "1"))
	assert.Equal(t, "No tasks\n", h.mustRun(t, "tasks", "list"))

	_, err = h.run(t, "projects", "show", "1")
	assert.ErrorContains(t, err, "Project not found")
}

func TestGanttEditsAndRenders(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "login", "-u", "admin", "-p", "admin123")
	h.mustRun(t, "projects", "create", "--name", "Launch", "--start", "2024-01-01", "--end", "2024-01-31")
	h.mustRun(t, "tasks", "create", "--project", "1", "--name", "design", "--start", "2024-01-02", "--end", "2024-01-10")
	h.mustRun(t, "tasks", "create", "--project", "1", "--name", "build", "--start", "2024-01-11", "--end", "2024-01-20", "--deps", "1")

	out := h.mustRun(t, "gantt", "1", "--view", "day",
		"--progress", "1:50",
		"--move", "2:2024-01-12:2024-01-22")
	assert.Contains(t, out, "Updated task 1")
	assert.Contains(t, out, "Updated task 2")
	assert.Contains(t, out, "[day]")
	assert.Contains(t, out, "design")

	out = h.mustRun(t, "tasks", "show", "2")
	assert.Contains(t, out, "2024-01-12")
	assert.Contains(t, out, "2024-01-22")

	out = h.mustRun(t, "tasks", "show", "1")
	assert.Contains(t, out, "50%")

	_, err := h.run(t, "gantt", "1", "--view", "decade")
	assert.Error(t, err)
	_, err = h.run(t, "gantt", "1", "--move", "2:bad")
	assert.Error(t, err)
}
