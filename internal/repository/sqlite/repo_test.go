package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ganttboard/internal/model"
	"ganttboard/internal/repository"
)

func TestMigrations(t *testing.T) {
	db := NewTestDB(t)

	for _, table := range []string{"users", "projects", "tasks"} {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		require.NoError(t, err, "failed to query table %s", table)
		require.Equal(t, 1, count, "table %s not found", table)
	}

	// 重复执行不报错
	require.NoError(t, db.RunMigrations())
}

func TestForeignKeys(t *testing.T) {
	db := NewTestDB(t)

	var enabled int
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&enabled))
	require.Equal(t, 1, enabled, "foreign keys not enabled")
}

func newProject(name string) *model.Project {
	desc := "description of " + name
	return &model.Project{
		Name:        name,
		Description: &desc,
		StartDate:   model.NewDate(2024, time.January, 1),
		EndDate:     model.NewDate(2024, time.March, 31),
	}
}

func newTask(projectID int, name string, start model.Date) *model.Task {
	return &model.Task{
		ProjectID: projectID,
		Name:      name,
		StartDate: start,
		EndDate:   start.AddDays(5),
	}
}

func TestProjectRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewProjectRepository(NewTestDB(t), zap.NewNop())

	in := newProject("Website")
	id, err := repo.Create(ctx, in)
	require.NoError(t, err)
	require.Positive(t, id)

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, in.Name, got.Name)
	require.NotNil(t, got.Description)
	assert.Equal(t, *in.Description, *got.Description)
	assert.Equal(t, "2024-01-01", got.StartDate.String())
	assert.Equal(t, "2024-03-31", got.EndDate.String())
	assert.False(t, got.CreatedAt.IsZero())
}

func TestProjectListNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewProjectRepository(NewTestDB(t), zap.NewNop())

	empty, err := repo.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Len(t, empty, 0)

	first, err := repo.Create(ctx, newProject("first"))
	require.NoError(t, err)
	second, err := repo.Create(ctx, newProject("second"))
	require.NoError(t, err)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second, list[0].ID)
	assert.Equal(t, first, list[1].ID)
}

func TestProjectUpdateClearsDescription(t *testing.T) {
	ctx := context.Background()
	repo := NewProjectRepository(NewTestDB(t), zap.NewNop())

	id, err := repo.Create(ctx, newProject("p"))
	require.NoError(t, err)

	updated := model.Project{
		ID:        id,
		Name:      "renamed",
		StartDate: model.NewDate(2024, time.February, 1),
		EndDate:   model.NewDate(2024, time.February, 2),
	}
	require.NoError(t, repo.Update(ctx, &updated))

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)
	assert.Nil(t, got.Description)
	assert.Equal(t, "2024-02-01", got.StartDate.String())

	updated.ID = 999
	assert.ErrorIs(t, repo.Update(ctx, &updated), repository.ErrNotFound)
}

func TestProjectGetMissing(t *testing.T) {
	repo := NewProjectRepository(NewTestDB(t), zap.NewNop())
	_, err := repo.Get(context.Background(), 42)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestProjectDeleteRemovesTasks(t *testing.T) {
	ctx := context.Background()
	db := NewTestDB(t)
	projects := NewProjectRepository(db, zap.NewNop())
	tasks := NewTaskRepository(db, zap.NewNop())

	pid, err := projects.Create(ctx, newProject("doomed"))
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := tasks.Create(ctx, newTask(pid, "t", model.NewDate(2024, time.January, 1+i)))
		require.NoError(t, err)
	}

	require.NoError(t, projects.Delete(ctx, pid))

	var projectRows, taskRows int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM projects WHERE id = ?", pid).Scan(&projectRows))
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM tasks WHERE project_id = ?", pid).Scan(&taskRows))
	assert.Zero(t, projectRows)
	assert.Zero(t, taskRows)

	assert.ErrorIs(t, projects.Delete(ctx, pid), repository.ErrNotFound)
}

func TestTaskCreateDefaultsAndOrdering(t *testing.T) {
	ctx := context.Background()
	db := NewTestDB(t)
	projects := NewProjectRepository(db, zap.NewNop())
	tasks := NewTaskRepository(db, zap.NewNop())

	pid, err := projects.Create(ctx, newProject("p"))
	require.NoError(t, err)
	other, err := projects.Create(ctx, newProject("q"))
	require.NoError(t, err)

	late, err := tasks.Create(ctx, newTask(pid, "late", model.NewDate(2024, time.March, 1)))
	require.NoError(t, err)
	early, err := tasks.Create(ctx, newTask(pid, "early", model.NewDate(2024, time.January, 10)))
	require.NoError(t, err)
	_, err = tasks.Create(ctx, newTask(other, "elsewhere", model.NewDate(2024, time.January, 1)))
	require.NoError(t, err)

	byProject, err := tasks.ListByProject(ctx, pid)
	require.NoError(t, err)
	require.Len(t, byProject, 2)
	assert.Equal(t, early, byProject[0].ID)
	assert.Equal(t, late, byProject[1].ID)
	assert.Equal(t, 0.0, byProject[0].Progress)
	assert.Equal(t, "", byProject[0].Dependencies)

	all, err := tasks.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, pid, all[0].ProjectID)
	assert.Equal(t, other, all[2].ProjectID)

	none, err := tasks.ListByProject(ctx, 999)
	require.NoError(t, err)
	assert.Len(t, none, 0)
}

func TestTaskCreateUnknownProject(t *testing.T) {
	ctx := context.Background()
	db := NewTestDB(t)
	tasks := NewTaskRepository(db, zap.NewNop())

	_, err := tasks.Create(ctx, newTask(404, "orphan", model.NewDate(2024, time.January, 1)))
	assert.ErrorIs(t, err, repository.ErrForeignKey)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM tasks").Scan(&count))
	assert.Zero(t, count)
}

func TestTaskUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	db := NewTestDB(t)
	projects := NewProjectRepository(db, zap.NewNop())
	tasks := NewTaskRepository(db, zap.NewNop())

	pid, err := projects.Create(ctx, newProject("p"))
	require.NoError(t, err)
	id, err := tasks.Create(ctx, newTask(pid, "t", model.NewDate(2024, time.January, 1)))
	require.NoError(t, err)

	task, err := tasks.Get(ctx, id)
	require.NoError(t, err)
	task.Progress = 62.5
	task.Dependencies = "1, 2"
	require.NoError(t, tasks.Update(ctx, task))

	got, err := tasks.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 62.5, got.Progress)
	assert.Equal(t, "1, 2", got.Dependencies)
	assert.Equal(t, pid, got.ProjectID)

	require.NoError(t, tasks.Delete(ctx, id))
	_, err = tasks.Get(ctx, id)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, tasks.Delete(ctx, id), repository.ErrNotFound)
}

func TestUserCreateIfAbsent(t *testing.T) {
	ctx := context.Background()
	users := NewUserRepository(NewTestDB(t), zap.NewNop())

	u := &model.User{Username: "admin", Password: "hash", IsAdmin: true}
	created, err := users.CreateIfAbsent(ctx, u)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Positive(t, u.ID)

	created, err = users.CreateIfAbsent(ctx, &model.User{Username: "admin", Password: "other"})
	require.NoError(t, err)
	assert.False(t, created)

	got, err := users.FindByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, "hash", got.Password)
	assert.True(t, got.IsAdmin)

	require.NoError(t, users.UpdatePassword(ctx, got.ID, "new-hash"))
	got, err = users.FindByID(ctx, got.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.Password)

	_, err = users.FindByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, users.UpdatePassword(ctx, 999, "x"), repository.ErrNotFound)
}
