package repository

import (
	"context"

	"github.com/stemsi/jadwal-backend/internal/model"
)

// ProgramRepository reads programs.
type ProgramRepository interface {
	List(ctx context.Context) ([]model.Program, error)
	GetByID(ctx context.Context, id int) (*model.Program, error)
}

// CourseRepository reads courses.
type CourseRepository interface {
	List(ctx context.Context) ([]model.Course, error)
	GetByID(ctx context.Context, id int) (*model.Course, error)
}

// FacultyRepository reads instructors.
type FacultyRepository interface {
	List(ctx context.Context) ([]model.Faculty, error)
	GetByID(ctx context.Context, id int) (*model.Faculty, error)
}

// SectionRepository stores sections. Patch changes only the members set on
// the patch; it never touches the section's schedules. Delete cascades to them.
type SectionRepository interface {
	List(ctx context.Context) ([]model.Section, error)
	GetByID(ctx context.Context, id int) (*model.Section, error)
	Create(ctx context.Context, section *model.Section) error
	Patch(ctx context.Context, id int, patch model.SectionPatch) (*model.Section, error)
	Delete(ctx context.Context, id int) error
}

// ScheduleRepository stores schedules. Reads fill in Schedule.FacultyID from
// the owning section.
type ScheduleRepository interface {
	GetByID(ctx context.Context, id int) (*model.Schedule, error)
	List(ctx context.Context, filter model.ScheduleFilter) ([]model.Schedule, error)
	ListBySection(ctx context.Context, sectionID int) ([]model.Schedule, error)
	ListByDay(ctx context.Context, day model.Weekday) ([]model.Schedule, error)
	ListByFaculty(ctx context.Context, facultyID int) ([]model.Schedule, error)
	Create(ctx context.Context, schedule *model.Schedule) error
	Update(ctx context.Context, schedule *model.Schedule) error
	UpdateStatus(ctx context.Context, id int, status model.ScheduleStatus) (*model.Schedule, error)
	Delete(ctx context.Context, id int) error
}

// AuditRepository appends schedule change events to the audit log.
// Recording an event id twice is a no-op.
type AuditRepository interface {
	Record(ctx context.Context, event model.ScheduleEvent) error
	ListBySection(ctx context.Context, sectionID int) ([]model.ScheduleEvent, error)
}

// Repositories bundles one implementation of every repository.
type Repositories struct {
	Programs  ProgramRepository
	Courses   CourseRepository
	Faculty   FacultyRepository
	Sections  SectionRepository
	Schedules ScheduleRepository
	Audit     AuditRepository
}
