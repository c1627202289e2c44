package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/jadwal-backend/internal/model"
	"github.com/stemsi/jadwal-backend/internal/repository"
)

type fixture struct {
	store      *Store
	program    model.Program
	course     model.Course
	instructor model.Faculty
	section    model.Section
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{store: New()}

	f.program = model.Program{Name: "Computer Science"}
	require.NoError(t, f.store.AddProgram(ctx, &f.program))
	f.course = model.Course{Code: "CS101", Description: "Intro", Credits: 3, ProgramID: f.program.ID}
	require.NoError(t, f.store.AddCourse(ctx, &f.course))
	f.instructor = model.Faculty{FirstName: "Ada", LastName: "Lovelace"}
	require.NoError(t, f.store.AddFaculty(ctx, &f.instructor))

	fid := f.instructor.ID
	f.section = model.Section{Name: "CS-1A", ProgramID: f.program.ID, FacultyID: &fid, Semester: "Odd", Year: 2025}
	require.NoError(t, f.store.Sections().Create(ctx, &f.section))
	return f
}

func (f *fixture) schedule(t *testing.T, day model.Weekday, start, end, room string) model.Schedule {
	t.Helper()
	sc := model.Schedule{
		SectionID: f.section.ID,
		CourseID:  f.course.ID,
		Day:       day,
		StartTime: model.MustClock(start),
		EndTime:   model.MustClock(end),
		Room:      room,
	}
	require.NoError(t, f.store.Schedules().Create(context.Background(), &sc))
	return sc
}

func TestScheduleReadsJoinSectionFaculty(t *testing.T) {
	f := newFixture(t)
	sc := f.schedule(t, model.Monday, "09:00", "10:00", "R101")

	require.NotNil(t, sc.FacultyID)
	assert.Equal(t, f.instructor.ID, *sc.FacultyID)
	assert.Equal(t, model.ScheduleStatusActive, sc.Status)

	got, err := f.store.Schedules().GetByID(context.Background(), sc.ID)
	require.NoError(t, err)
	require.NotNil(t, got.FacultyID)
	assert.Equal(t, f.instructor.ID, *got.FacultyID)

	byFaculty, err := f.store.Schedules().ListByFaculty(context.Background(), f.instructor.ID)
	require.NoError(t, err)
	assert.Len(t, byFaculty, 1)
}

func TestRoomExclusion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.schedule(t, model.Monday, "09:00", "10:00", "R101")

	clash := model.Schedule{
		SectionID: f.section.ID, CourseID: f.course.ID, Day: model.Monday,
		StartTime: model.MustClock("09:30"), EndTime: model.MustClock("10:30"), Room: "R101",
	}
	err := f.store.Schedules().Create(ctx, &clash)
	assert.ErrorIs(t, err, repository.ErrOverlap)

	// Touching windows and other rooms are fine.
	f.schedule(t, model.Monday, "10:00", "11:00", "R101")
	f.schedule(t, model.Monday, "09:30", "10:30", "R102")

	// A cancelled booking does not hold the room.
	cancelled := model.Schedule{
		SectionID: f.section.ID, CourseID: f.course.ID, Day: model.Monday,
		StartTime: model.MustClock("09:15"), EndTime: model.MustClock("09:45"), Room: "R101",
		Status: model.ScheduleStatusCancelled,
	}
	assert.NoError(t, f.store.Schedules().Create(ctx, &cancelled))

	_, err = f.store.Schedules().UpdateStatus(ctx, cancelled.ID, model.ScheduleStatusActive)
	assert.ErrorIs(t, err, repository.ErrOverlap)
}

func TestUpdateDoesNotCollideWithItself(t *testing.T) {
	f := newFixture(t)
	sc := f.schedule(t, model.Tuesday, "13:00", "14:00", "Lab")

	sc.StartTime = model.MustClock("13:30")
	sc.EndTime = model.MustClock("14:30")
	require.NoError(t, f.store.Schedules().Update(context.Background(), &sc))
	assert.Equal(t, model.MustClock("13:30"), sc.StartTime)
}

func TestMissingReferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sc := model.Schedule{SectionID: f.section.ID, CourseID: 9999, Day: model.Monday,
		StartTime: model.MustClock("08:00"), EndTime: model.MustClock("09:00"), Room: "R1"}
	assert.ErrorIs(t, f.store.Schedules().Create(ctx, &sc), repository.ErrMissingReference)

	sec := model.Section{Name: "X", ProgramID: 9999, Semester: "Odd", Year: 2025}
	assert.ErrorIs(t, f.store.Sections().Create(ctx, &sec), repository.ErrMissingReference)

	missing := 9999
	_, err := f.store.Sections().Patch(ctx, f.section.ID, model.SectionPatch{Faculty: &model.FacultyRef{ID: &missing}})
	assert.ErrorIs(t, err, repository.ErrMissingReference)
}

func TestSectionPatchLeavesSchedules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.schedule(t, model.Monday, "09:00", "10:00", "R101")
	f.schedule(t, model.Wednesday, "09:00", "10:00", "R101")

	sec, err := f.store.Sections().Patch(ctx, f.section.ID, model.SectionPatch{Faculty: &model.FacultyRef{}})
	require.NoError(t, err)
	assert.Nil(t, sec.FacultyID)

	list, err := f.store.Schedules().ListBySection(ctx, f.section.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	for _, sc := range list {
		assert.Nil(t, sc.FacultyID)
	}
}

func TestSectionDeleteCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sc := f.schedule(t, model.Friday, "07:00", "08:00", "R1")

	require.NoError(t, f.store.Sections().Delete(ctx, f.section.ID))

	_, err := f.store.Schedules().GetByID(ctx, sc.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, f.store.Sections().Delete(ctx, f.section.ID), repository.ErrNotFound)
}

func TestDeleteIsRepeatable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sc := f.schedule(t, model.Friday, "07:00", "08:00", "R1")

	require.NoError(t, f.store.Schedules().Delete(ctx, sc.ID))
	assert.ErrorIs(t, f.store.Schedules().Delete(ctx, sc.ID), repository.ErrNotFound)
	assert.ErrorIs(t, f.store.Schedules().Delete(ctx, sc.ID), repository.ErrNotFound)
}

func TestCancelledContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.store.Courses().List(ctx)
	assert.ErrorIs(t, err, repository.ErrUnavailable)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAuditRecordIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := model.NewScheduleEvent(model.EventScheduleCreated, f.section.ID, 7)

	require.NoError(t, f.store.Audit().Record(ctx, e))
	require.NoError(t, f.store.Audit().Record(ctx, e))

	events, err := f.store.Audit().ListBySection(ctx, f.section.ID)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}
