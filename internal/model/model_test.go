package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", d.String())

	d, err = ParseDate("2024-03-01T22:15:00Z")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", d.String())

	_, err = ParseDate("03/01/2024")
	assert.Error(t, err)
}

func TestDateJSON(t *testing.T) {
	var in struct {
		Start *Date `json:"start_date"`
		End   *Date `json:"end_date"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"start_date":"2024-01-05","end_date":null}`), &in))
	require.NotNil(t, in.Start)
	assert.Nil(t, in.End)
	assert.Equal(t, NewDate(2024, time.January, 5), *in.Start)

	out, err := json.Marshal(Project{StartDate: NewDate(2024, time.January, 5)})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"start_date":"2024-01-05"`)
	assert.Contains(t, string(out), `"end_date":null`)

	var bad Date
	assert.Error(t, json.Unmarshal([]byte(`"tomorrow"`), &bad))
}

func TestDateScanAndValue(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2024, 2, 29, 13, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-02-29", d.String())

	require.NoError(t, d.Scan("2024-05-06"))
	assert.Equal(t, "2024-05-06", d.String())

	require.NoError(t, d.Scan([]byte("2024-05-07 00:00:00+00:00")))
	assert.Equal(t, "2024-05-07", d.String())

	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())

	assert.Error(t, d.Scan(42))

	v, err := NewDate(2024, time.June, 1).Value()
	require.NoError(t, err)
	assert.Equal(t, "2024-06-01", v)
}

func TestUpdateTaskInputKeepsStoredDefaults(t *testing.T) {
	desc := "old"
	existing := Task{
		ID:           3,
		ProjectID:    1,
		Name:         "old",
		Description:  &desc,
		Progress:     40,
		Dependencies: "1,2",
	}
	name := "new"
	start := NewDate(2024, 1, 1)
	end := NewDate(2024, 1, 9)

	updated := UpdateTaskInput{Name: &name, StartDate: &start, EndDate: &end}.Apply(existing)
	assert.Equal(t, 3, updated.ID)
	assert.Equal(t, 1, updated.ProjectID)
	assert.Equal(t, "new", updated.Name)
	assert.Nil(t, updated.Description)
	assert.Equal(t, 40.0, updated.Progress)
	assert.Equal(t, "1,2", updated.Dependencies)

	progress := 75.0
	deps := ""
	updated = UpdateTaskInput{Name: &name, StartDate: &start, EndDate: &end, Progress: &progress, Dependencies: &deps}.Apply(existing)
	assert.Equal(t, 75.0, updated.Progress)
	assert.Equal(t, "", updated.Dependencies)
}

func TestCreateTaskInputDefaults(t *testing.T) {
	pid := 2
	name := "t"
	start := NewDate(2024, 1, 1)
	end := NewDate(2024, 1, 2)

	task := CreateTaskInput{ProjectID: &pid, Name: &name, StartDate: &start, EndDate: &end}.Apply()
	assert.Equal(t, 0.0, task.Progress)
	assert.Equal(t, "", task.Dependencies)
	assert.Equal(t, 2, task.ProjectID)
}

func TestUserPasswordNeverSerialized(t *testing.T) {
	out, err := json.Marshal(User{ID: 1, Username: "admin", Password: "hash", IsAdmin: true})
	require.NoError(t, err)
	assert.NotContains(t, string(out), "hash")
	assert.Contains(t, string(out), `"is_admin":true`)
}
