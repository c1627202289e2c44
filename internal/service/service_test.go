package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/jadwal-backend/internal/events"
	"github.com/stemsi/jadwal-backend/internal/model"
	"github.com/stemsi/jadwal-backend/internal/repository/memory"
	"github.com/stemsi/jadwal-backend/internal/scheduling"
)

// env wires the services on top of an in-memory store.
type env struct {
	store     *memory.Store
	bus       *events.Recorder
	cache     *memSnapshots
	directory *DirectoryService
	conflicts *ConflictService
	sections  *SectionService
	schedules *ScheduleService

	program model.Program
	cs101   model.Course
	cs102   model.Course
	ada     model.Faculty
	alan    model.Faculty
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	log := zerolog.Nop()

	e := &env{store: memory.New(), bus: events.NewRecorder(), cache: newMemSnapshots()}
	repos := e.store.Repositories()
	e.directory = NewDirectoryService(repos, e.cache, log)
	e.conflicts = NewConflictService(repos.Schedules, scheduling.DefaultCatalog(), log)
	e.sections = NewSectionService(repos, e.directory, e.bus, log)
	e.schedules = NewScheduleService(repos, e.conflicts, e.sections, e.directory, e.bus, log)

	e.program = model.Program{Name: "Computer Science"}
	require.NoError(t, e.store.AddProgram(ctx, &e.program))
	e.cs101 = model.Course{Code: "CS101", Credits: 3, ProgramID: e.program.ID}
	require.NoError(t, e.store.AddCourse(ctx, &e.cs101))
	e.cs102 = model.Course{Code: "CS102", Credits: 3, ProgramID: e.program.ID}
	require.NoError(t, e.store.AddCourse(ctx, &e.cs102))
	e.ada = model.Faculty{FirstName: "Ada", LastName: "Lovelace"}
	require.NoError(t, e.store.AddFaculty(ctx, &e.ada))
	e.alan = model.Faculty{FirstName: "Alan", LastName: "Turing"}
	require.NoError(t, e.store.AddFaculty(ctx, &e.alan))
	return e
}

func (e *env) section(t *testing.T, name string, faculty *int) *model.Section {
	t.Helper()
	sec, err := e.sections.CreateSection(context.Background(), model.CreateSectionRequest{
		Name: name, ProgramID: e.program.ID, FacultyID: faculty, Semester: "Odd", Year: 2025,
	})
	require.NoError(t, err)
	return sec
}

func fields(day, start, end, room string) model.ScheduleFields {
	return model.ScheduleFields{Day: day, StartTime: start, EndTime: end, Room: room}
}

func (e *env) book(t *testing.T, sectionID, courseID int, f model.ScheduleFields) *model.Schedule {
	t.Helper()
	sc, err := e.schedules.CreateSchedule(context.Background(), model.ScheduleAssignment{
		SectionID: sectionID, CourseID: courseID, Fields: f,
	})
	require.NoError(t, err)
	return sc
}

func intPtr(v int) *int { return &v }

// memSnapshots is a map-backed cache.Snapshots that can be told to fail.
type memSnapshots struct {
	mu    sync.Mutex
	data  map[string]any
	fail  error
	loads int
}

func newMemSnapshots() *memSnapshots { return &memSnapshots{data: make(map[string]any)} }

func (m *memSnapshots) Load(_ context.Context, key string, dst any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	if m.fail != nil {
		return false, m.fail
	}
	v, ok := m.data[key]
	if !ok {
		return false, nil
	}
	switch d := dst.(type) {
	case *[]model.Section:
		*d = v.([]model.Section)
	case *[]model.Course:
		*d = v.([]model.Course)
	case *[]model.Faculty:
		*d = v.([]model.Faculty)
	case *[]model.Program:
		*d = v.([]model.Program)
	default:
		return false, errors.New("unsupported snapshot type")
	}
	return true, nil
}

func (m *memSnapshots) Save(_ context.Context, key string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.data[key] = value
	return nil
}

func (m *memSnapshots) Invalidate(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return m.fail
}

func (m *memSnapshots) InvalidateMatch(_ context.Context, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.data {
		if len(k) >= len("directory:sections") && k[:len("directory:sections")] == "directory:sections" {
			delete(m.data, k)
		}
	}
	return m.fail
}

func (m *memSnapshots) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}
