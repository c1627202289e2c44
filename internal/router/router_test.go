package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/jadwal-backend/internal/cache"
	"github.com/stemsi/jadwal-backend/internal/config"
	"github.com/stemsi/jadwal-backend/internal/events"
	"github.com/stemsi/jadwal-backend/internal/handler"
	"github.com/stemsi/jadwal-backend/internal/model"
	"github.com/stemsi/jadwal-backend/internal/repository/memory"
	"github.com/stemsi/jadwal-backend/internal/scheduling"
	"github.com/stemsi/jadwal-backend/internal/service"
	"github.com/stemsi/jadwal-backend/internal/validator"
)

const secret = "router-secret"

func setup(t *testing.T) (*gin.Engine, *memory.Store, model.Course) {
	t.Helper()
	validator.Setup()
	log := zerolog.Nop()
	cfg := &config.Config{GinMode: gin.TestMode, JWTSecret: secret}

	store := memory.New()
	program := model.Program{Name: "Computer Science"}
	require.NoError(t, store.AddProgram(context.Background(), &program))
	course := model.Course{Code: "CS101", Credits: 3, ProgramID: program.ID}
	require.NoError(t, store.AddCourse(context.Background(), &course))

	repos := store.Repositories()
	bus := events.NewLocal()
	directory := service.NewDirectoryService(repos, cache.Nop{}, log)
	conflicts := service.NewConflictService(repos.Schedules, scheduling.DefaultCatalog(), log)
	sections := service.NewSectionService(repos, directory, bus, log)
	schedules := service.NewScheduleService(repos, conflicts, sections, directory, bus, log)

	r := SetupRouter(service.NewAuthService(cfg), &Handlers{
		Directory: handler.NewDirectoryHandler(directory, config.DefaultOptions(), log),
		Section:   handler.NewSectionHandler(sections, log),
		Schedule:  handler.NewScheduleHandler(schedules, conflicts, log),
		WS:        handler.NewWSHandler(bus, log, nil),
	}, cfg)
	return r, store, course
}

func bearer(t *testing.T, perms ...model.Permission) string {
	t.Helper()
	codes := make([]string, len(perms))
	for i, p := range perms {
		codes[i] = string(p)
	}
	claims := &service.Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		TokenType:        service.TokenTypeAdmin,
		UserID:           1,
		Permissions:      codes,
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return "Bearer " + tok
}

func call(r *gin.Engine, method, path, auth string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r, _, _ := setup(t)
	w := call(r, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminRoutesRequirePermissions(t *testing.T) {
	r, _, _ := setup(t)

	assert.Equal(t, http.StatusUnauthorized, call(r, http.MethodGet, "/api/v1/admin/schedules", "", nil).Code)

	reader := bearer(t, model.PermissionCatalogRead, model.PermissionSchedulesRead)
	w := call(r, http.MethodGet, "/api/v1/admin/schedules", reader, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	w = call(r, http.MethodPost, "/api/v1/admin/sections", reader, gin.H{"name": "X"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = call(r, http.MethodGet, "/api/v1/admin/options", reader, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "private, max-age=300", w.Header().Get("Cache-Control"))
}

func TestScheduleFlowThroughRouter(t *testing.T) {
	r, _, course := setup(t)
	admin := bearer(t, model.AllPermissions...)

	w := call(r, http.MethodPost, "/api/v1/admin/sections", admin,
		gin.H{"name": "CS-1A", "program_id": course.ProgramID, "semester": "Odd", "year": 2025})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Data struct {
			Section model.Section `json:"section"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	sectionID := created.Data.Section.ID

	path := fmt.Sprintf("/api/v1/admin/sections/%d/schedules", sectionID)
	body := gin.H{"course_id": course.ID, "day": "Monday", "start_time": "09:00", "end_time": "10:00", "room": "Room 101"}
	require.Equal(t, http.StatusCreated, call(r, http.MethodPost, path, admin, body).Code)

	body["start_time"] = "09:30"
	assert.Equal(t, http.StatusConflict, call(r, http.MethodPost, path, admin, body).Code)

	w = call(r, http.MethodGet, "/api/v1/admin/schedules/conflicts?day=Monday&start_time=09:30&end_time=10:00&room=Room%20101", admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var report struct {
		Data struct {
			Report model.ConflictReport `json:"report"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Len(t, report.Data.Report.RoomConflicts, 1)
}
