package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/jadwal-backend/internal/config"
	"github.com/stemsi/jadwal-backend/internal/model"
	"github.com/stemsi/jadwal-backend/internal/response"
)

func TestAssignFacultyKeepsSchedules(t *testing.T) {
	ts := newTestServer(t)
	sec := ts.createSection(t, "CS-1A", nil)
	path := fmt.Sprintf("/api/v1/admin/sections/%d/schedules", sec.ID)
	for _, body := range []any{
		scheduleBody(ts.cs101.ID, "Monday", "09:00", "10:00", "R1"),
		scheduleBody(ts.cs102.ID, "Thursday", "13:00", "14:30", "R2"),
	} {
		w, _ := ts.do(t, http.MethodPost, path, body)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w, env := ts.do(t, http.MethodPut, fmt.Sprintf("/api/v1/admin/sections/%d/faculty", sec.ID), gin.H{"faculty_id": ts.ada.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[model.Section](t, env, "section")
	require.NotNil(t, updated.FacultyID)
	assert.Equal(t, ts.ada.ID, *updated.FacultyID)

	w, env = ts.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	schedules := decode[[]model.Schedule](t, env, "schedules")
	require.Len(t, schedules, 2)
	for _, sc := range schedules {
		require.NotNil(t, sc.FacultyID)
		assert.Equal(t, ts.ada.ID, *sc.FacultyID)
	}

	w, env = ts.do(t, http.MethodPut, fmt.Sprintf("/api/v1/admin/sections/%d/faculty", sec.ID), gin.H{"faculty_id": nil})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decode[model.Section](t, env, "section").FacultyID)
}

func TestAssignFacultyBusyInstructor(t *testing.T) {
	ts := newTestServer(t)
	busy := ts.createSection(t, "CS-1A", intPtr(ts.ada.ID))
	free := ts.createSection(t, "CS-1B", nil)

	w, _ := ts.do(t, http.MethodPost, fmt.Sprintf("/api/v1/admin/sections/%d/schedules", busy.ID),
		scheduleBody(ts.cs101.ID, "Friday", "10:00", "12:00", "R1"))
	require.Equal(t, http.StatusCreated, w.Code)
	w, _ = ts.do(t, http.MethodPost, fmt.Sprintf("/api/v1/admin/sections/%d/schedules", free.ID),
		scheduleBody(ts.cs102.ID, "Friday", "11:00", "12:00", "R2"))
	require.Equal(t, http.StatusCreated, w.Code)

	w, env := ts.do(t, http.MethodPut, fmt.Sprintf("/api/v1/admin/sections/%d/faculty", free.ID), gin.H{"faculty_id": ts.ada.ID})
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, response.ErrInstructorConflict, env.Error.Code)

	w, env = ts.do(t, http.MethodPut, fmt.Sprintf("/api/v1/admin/sections/%d/faculty", free.ID), gin.H{"faculty_id": 999})
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, response.ErrNotFound, env.Error.Code)
}

func TestAssignFacultyRequiresExplicitMember(t *testing.T) {
	ts := newTestServer(t)
	sec := ts.createSection(t, "CS-1A", intPtr(ts.ada.ID))
	path := fmt.Sprintf("/api/v1/admin/sections/%d/faculty", sec.ID)

	tests := []struct {
		name string
		body string
	}{
		{"empty body", `{}`},
		{"misspelled member", `{"facultyId": 5}`},
		{"zero", `{"faculty_id": 0}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := ts.do(t, http.MethodPut, path, tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Equal(t, response.ErrValidation, env.Error.Code)
			assert.Contains(t, env.Error.Fields, "faculty_id")
		})
	}

	w, env := ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/admin/sections/%d", sec.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[model.Section](t, env, "section")
	require.NotNil(t, got.FacultyID)
	assert.Equal(t, ts.ada.ID, *got.FacultyID)
}

func TestPatchSection(t *testing.T) {
	ts := newTestServer(t)
	sec := ts.createSection(t, "CS-1A", nil)
	path := fmt.Sprintf("/api/v1/admin/sections/%d", sec.ID)

	w, env := ts.do(t, http.MethodPatch, path, gin.H{"name": "CS-1A (evening)"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	patched := decode[model.Section](t, env, "section")
	assert.Equal(t, "CS-1A (evening)", patched.Name)
	assert.Equal(t, "Odd", patched.Semester)

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"schedules member", `{"name":"x","schedules":[]}`, "schedules"},
		{"null schedules member", `{"schedules":null}`, "schedules"},
		{"bad status", `{"status":"OPEN"}`, "status"},
		{"zero faculty", `{"faculty_id":0}`, "faculty_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := ts.do(t, http.MethodPatch, path, tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Contains(t, env.Error.Fields, tt.field)
		})
	}
}

func TestCreateSectionUnknownProgram(t *testing.T) {
	ts := newTestServer(t)
	w, env := ts.do(t, http.MethodPost, "/api/v1/admin/sections",
		gin.H{"name": "X-1", "program_id": 999, "semester": "Odd", "year": 2025})
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, response.ErrNotFound, env.Error.Code)
}

func TestDeleteSectionCascades(t *testing.T) {
	ts := newTestServer(t)
	sec := ts.createSection(t, "CS-1A", nil)
	w, env := ts.do(t, http.MethodPost, fmt.Sprintf("/api/v1/admin/sections/%d/schedules", sec.ID),
		scheduleBody(ts.cs101.ID, "Monday", "09:00", "10:00", "R1"))
	require.Equal(t, http.StatusCreated, w.Code)
	sc := decode[model.Schedule](t, env, "schedule")

	w, _ = ts.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/admin/sections/%d", sec.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/admin/schedules/%d", sc.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/admin/sections/%d", sec.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDirectoryLists(t *testing.T) {
	ts := newTestServer(t)
	sec := ts.createSection(t, "CS-1A", nil)

	w, env := ts.do(t, http.MethodGet, "/api/v1/admin/courses", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.Course](t, env, "courses"), 2)

	w, env = ts.do(t, http.MethodGet, "/api/v1/admin/faculty", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.Faculty](t, env, "faculty"), 2)

	w, env = ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/admin/sections?program_id=%d", ts.program.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	sections := decode[[]model.Section](t, env, "sections")
	require.Len(t, sections, 1)
	assert.Equal(t, sec.ID, sections[0].ID)

	w, _ = ts.do(t, http.MethodGet, "/api/v1/admin/sections?program_id=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = ts.do(t, http.MethodGet, "/api/v1/admin/options", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, config.DefaultOptions().Days, decode[config.Options](t, env, "options").Days)
}

func TestSectionHistoryNotFound(t *testing.T) {
	ts := newTestServer(t)
	w, env := ts.do(t, http.MethodGet, "/api/v1/admin/sections/42/history", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, response.ErrNotFound, env.Error.Code)

	sec := ts.createSection(t, "CS-1A", nil)
	w, env = ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/admin/sections/%d/history", sec.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]model.ScheduleEvent](t, env, "history"))
}
