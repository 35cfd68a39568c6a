package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ganttboard/internal/model"
)

func writeEnvelope(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func loggedInSession(t *testing.T, admin bool) *Session {
	t.Helper()
	s := NewSession(&MemoryStore{})
	require.NoError(t, s.Set("tok", model.UserProfile{ID: 1, Username: "admin", IsAdmin: admin}))
	return s
}

func TestLoginStoresSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "admin", body["username"])
		writeEnvelope(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Login successful",
			"data": map[string]any{
				"token": "signed",
				"user":  map[string]any{"id": 1, "username": "admin", "is_admin": true},
			},
		})
	}))
	defer srv.Close()

	session := NewSession(&MemoryStore{})
	c := New(srv.URL, session)

	res, err := c.Login(context.Background(), "admin", "admin123")
	require.NoError(t, err)
	assert.Equal(t, "signed", res.Token)
	assert.Equal(t, "signed", session.Token())
	assert.True(t, session.IsAdmin())
}

func TestBearerTokenSent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		writeEnvelope(w, http.StatusOK, map[string]any{"success": true, "data": []any{}})
	}))
	defer srv.Close()

	c := New(srv.URL, loggedInSession(t, false))
	list, err := c.ListProjects(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUnauthorizedAndForbiddenClearSession(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeEnvelope(w, status, map[string]any{"success": false, "message": "nope"})
		}))

		store := &MemoryStore{}
		session := NewSession(store)
		require.NoError(t, session.Set("tok", model.UserProfile{ID: 1, IsAdmin: true}))
		c := New(srv.URL, session)

		_, err := c.CreateProject(context.Background(), ProjectFields{Name: "x"})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrSessionCleared)

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, status, apiErr.Status)
		assert.Equal(t, "nope", apiErr.Message)

		assert.False(t, session.LoggedIn())
		assert.False(t, session.IsAdmin())
		persisted, _ := store.Load()
		assert.Empty(t, persisted.Token)
		srv.Close()
	}
}

func TestOtherErrorsKeepSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusNotFound, map[string]any{"success": false, "message": "Project not found"})
	}))
	defer srv.Close()

	session := loggedInSession(t, true)
	c := New(srv.URL, session)

	_, err := c.GetProject(context.Background(), 9)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.NotErrorIs(t, err, ErrSessionCleared)
	assert.True(t, session.LoggedIn())
}

func TestServerErrorDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusInternalServerError, map[string]any{
			"success": false, "message": "Failed to fetch tasks", "error": "db down",
		})
	}))
	defer srv.Close()

	_, err := New(srv.URL, loggedInSession(t, false)).ListTasks(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "db down", apiErr.Detail)
	assert.Contains(t, apiErr.Error(), "Failed to fetch tasks")
}

func TestNonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "upstream down")
	}))
	defer srv.Close()

	_, err := New(srv.URL, nil).Ping(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "upstream down", apiErr.Message)
}

func TestCreateTaskBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(3), body["project_id"])
		assert.Equal(t, "2024-01-01", body["start_date"])
		assert.NotContains(t, body, "progress")
		writeEnvelope(w, http.StatusCreated, map[string]any{"success": true, "data": map[string]any{"id": 11}})
	}))
	defer srv.Close()

	id, err := New(srv.URL, loggedInSession(t, true)).CreateTask(context.Background(), TaskFields{
		ProjectID: 3,
		Name:      "t",
		StartDate: model.NewDate(2024, 1, 1),
		EndDate:   model.NewDate(2024, 1, 2),
	})
	require.NoError(t, err)
	assert.Equal(t, 11, id)
}

func TestRawProjectDetailIsLenient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":true,"data":{
			"project":{"id":1,"name":"p","start_date":"2024-01-01","end_date":"2024-02-01"},
			"tasks":[
				{"id":1,"name":"a","start_date":null,"end_date":"garbage","progress":"42.50"},
				{"id":2,"name":"b","start_date":"2024-01-03T00:00:00.000Z","end_date":"2024-01-04","progress":null}
			]}}`)
	}))
	defer srv.Close()

	d, err := New(srv.URL, loggedInSession(t, false)).GetProjectRaw(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, d.Tasks, 2)
	assert.Equal(t, "", d.Tasks[0].StartDate)
	assert.Equal(t, "garbage", d.Tasks[0].EndDate)
	assert.Equal(t, Number(42.5), d.Tasks[0].Progress)
	assert.Equal(t, Number(0), d.Tasks[1].Progress)
	assert.Equal(t, "2024-01-01", d.Project.StartDate.String())
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store := FileStore{Path: path}

	st, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, st.Token)

	s := NewSession(store)
	require.NoError(t, s.Set("tok", model.UserProfile{ID: 2, Username: "u"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	restored := NewSession(store)
	require.NoError(t, restored.Hydrate())
	assert.Equal(t, "tok", restored.Token())
	u, ok := restored.User()
	require.True(t, ok)
	assert.Equal(t, "u", u.Username)

	require.NoError(t, restored.Clear())
	_, err = os.Stat(path)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	require.NoError(t, restored.Clear())
}

func TestFileStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))

	err := NewSession(FileStore{Path: path}).Hydrate()
	assert.Error(t, err)
}
