package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/jadwal-backend/internal/cache"
	"github.com/stemsi/jadwal-backend/internal/config"
	"github.com/stemsi/jadwal-backend/internal/events"
	"github.com/stemsi/jadwal-backend/internal/model"
	"github.com/stemsi/jadwal-backend/internal/repository/memory"
	"github.com/stemsi/jadwal-backend/internal/response"
	"github.com/stemsi/jadwal-backend/internal/scheduling"
	"github.com/stemsi/jadwal-backend/internal/service"
	"github.com/stemsi/jadwal-backend/internal/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.Setup()
}

// envelope mirrors response.Response with raw data for per-test decoding.
type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    response.ErrCode  `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
		Details json.RawMessage   `json:"details"`
	} `json:"error"`
}

type testServer struct {
	engine  *gin.Engine
	store   *memory.Store
	bus     *events.Recorder
	program model.Program
	cs101   model.Course
	cs102   model.Course
	ada     model.Faculty
	alan    model.Faculty
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	log := zerolog.Nop()

	ts := &testServer{store: memory.New(), bus: events.NewRecorder()}
	repos := ts.store.Repositories()
	directory := service.NewDirectoryService(repos, cache.Nop{}, log)
	conflicts := service.NewConflictService(repos.Schedules, scheduling.DefaultCatalog(), log)
	sections := service.NewSectionService(repos, directory, ts.bus, log)
	schedules := service.NewScheduleService(repos, conflicts, sections, directory, ts.bus, log)

	dh := NewDirectoryHandler(directory, config.DefaultOptions(), log)
	sh := NewSectionHandler(sections, log)
	sch := NewScheduleHandler(schedules, conflicts, log)

	r := gin.New()
	r.Use(response.RequestIDMiddleware())
	api := r.Group("/api/v1/admin")
	api.GET("/options", dh.Options)
	api.GET("/programs", dh.ListPrograms)
	api.GET("/courses", dh.ListCourses)
	api.GET("/faculty", dh.ListFaculty)
	api.GET("/sections", dh.ListSections)
	api.GET("/sections/:id", dh.GetSection)
	api.POST("/sections", sh.Create)
	api.PATCH("/sections/:id", sh.Patch)
	api.PUT("/sections/:id/faculty", sh.AssignFaculty)
	api.DELETE("/sections/:id", sh.Delete)
	api.GET("/sections/:id/history", sh.History)
	api.GET("/sections/:id/schedules", sch.ListBySection)
	api.POST("/sections/:id/schedules", sch.Create)
	api.GET("/schedules", sch.List)
	api.GET("/schedules/conflicts", sch.Conflicts)
	api.GET("/schedules/:id", sch.Get)
	api.PUT("/schedules/:id", sch.Update)
	api.PATCH("/schedules/:id/status", sch.UpdateStatus)
	api.DELETE("/schedules/:id", sch.Delete)
	ts.engine = r

	ts.program = model.Program{Name: "Computer Science"}
	require.NoError(t, ts.store.AddProgram(ctx, &ts.program))
	ts.cs101 = model.Course{Code: "CS101", Credits: 3, ProgramID: ts.program.ID}
	require.NoError(t, ts.store.AddCourse(ctx, &ts.cs101))
	ts.cs102 = model.Course{Code: "CS102", Credits: 3, ProgramID: ts.program.ID}
	require.NoError(t, ts.store.AddCourse(ctx, &ts.cs102))
	ts.ada = model.Faculty{FirstName: "Ada", LastName: "Lovelace"}
	require.NoError(t, ts.store.AddFaculty(ctx, &ts.ada))
	ts.alan = model.Faculty{FirstName: "Alan", LastName: "Turing"}
	require.NoError(t, ts.store.AddFaculty(ctx, &ts.alan))
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.engine.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func decode[T any](t *testing.T, env envelope, key string) T {
	t.Helper()
	var wrapper map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(env.Data, &wrapper))
	var v T
	require.NoError(t, json.Unmarshal(wrapper[key], &v))
	return v
}

func (ts *testServer) createSection(t *testing.T, name string, faculty *int) model.Section {
	t.Helper()
	body := gin.H{"name": name, "program_id": ts.program.ID, "semester": "Odd", "year": 2025}
	if faculty != nil {
		body["faculty_id"] = *faculty
	}
	w, env := ts.do(t, http.MethodPost, "/api/v1/admin/sections", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[model.Section](t, env, "section")
}

func scheduleBody(course int, day, start, end, room string) gin.H {
	return gin.H{"course_id": course, "day": day, "start_time": start, "end_time": end, "room": room}
}

func intPtr(v int) *int { return &v }
