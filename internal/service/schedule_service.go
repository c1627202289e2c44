package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/stemsi/jadwal-backend/internal/events"
	"github.com/stemsi/jadwal-backend/internal/model"
	"github.com/stemsi/jadwal-backend/internal/repository"
	"github.com/stemsi/jadwal-backend/internal/scheduling"
)

// FacultyBinder rebinds a section's instructor without touching its schedules.
type FacultyBinder interface {
	CheckInstructorFree(ctx context.Context, sectionID, facultyID int, extra ...model.Slot) error
	AssignFaculty(ctx context.Context, sectionID int, facultyID *int) (*model.Section, error)
}

// ScheduleService validates and persists course meetings. Every write runs
// the conflict checks first; the store's exclusion constraint settles races.
type ScheduleService struct {
	sections  repository.SectionRepository
	courses   repository.CourseRepository
	schedules repository.ScheduleRepository
	conflicts *ConflictService
	binder    FacultyBinder
	directory *DirectoryService
	notify    notifier
	log       zerolog.Logger
}

// NewScheduleService creates a new ScheduleService.
func NewScheduleService(
	repos repository.Repositories,
	conflicts *ConflictService,
	binder FacultyBinder,
	directory *DirectoryService,
	bus events.Bus,
	log zerolog.Logger,
) *ScheduleService {
	l := log.With().Str("component", "schedule_service").Logger()
	return &ScheduleService{
		sections:  repos.Sections,
		courses:   repos.Courses,
		schedules: repos.Schedules,
		conflicts: conflicts,
		binder:    binder,
		directory: directory,
		notify:    notifier{bus: bus, log: l},
		log:       l,
	}
}

// CreateSchedule books a weekly meeting of a course for a section. When
// a.Faculty is set the section's instructor is rebound in the same call, and
// the conflict checks already use the new instructor.
func (s *ScheduleService) CreateSchedule(ctx context.Context, a model.ScheduleAssignment) (*model.Schedule, error) {
	slot, err := s.conflicts.ParseSlot(a.Fields)
	if err != nil {
		return nil, err
	}
	if a.CourseID <= 0 {
		return nil, newValidationError("course_id", "course_id is required")
	}

	section, err := s.sections.GetByID(ctx, a.SectionID)
	if err != nil {
		return nil, storeError("get section", "section", a.SectionID, err)
	}
	if _, err := s.courses.GetByID(ctx, a.CourseID); err != nil {
		return nil, storeError("get course", "course", a.CourseID, err)
	}

	instructor := section.FacultyID
	rebind := a.Faculty != nil && !sameFaculty(section.FacultyID, a.Faculty.ID)
	if rebind {
		instructor = a.Faculty.ID
	}

	if err := s.checkSlot(ctx, section.ID, a.CourseID, instructor, slot, 0); err != nil {
		return nil, err
	}
	if rebind && instructor != nil {
		if err := s.binder.CheckInstructorFree(ctx, section.ID, *instructor, slot); err != nil {
			return nil, err
		}
	}

	schedule := &model.Schedule{
		SectionID: section.ID,
		CourseID:  a.CourseID,
		Day:       slot.Day,
		StartTime: slot.Start,
		EndTime:   slot.End,
		Room:      slot.Room,
		Status:    model.ScheduleStatusActive,
	}
	if err := s.schedules.Create(ctx, schedule); err != nil {
		// Catalog rows are read-only here, so a vanished reference is the section.
		return nil, storeError("create schedule", "section", section.ID, err)
	}

	if rebind {
		if _, err := s.binder.AssignFaculty(ctx, section.ID, a.Faculty.ID); err != nil {
			if derr := s.schedules.Delete(context.WithoutCancel(ctx), schedule.ID); derr != nil {
				s.log.Error().Err(derr).
					Int("section_id", section.ID).
					Int("schedule_id", schedule.ID).
					Msg("Schedule saved but instructor change failed and rollback failed")
			}
			return nil, storeError("assign faculty after schedule create", "section", section.ID, err)
		}
		schedule.FacultyID = a.Faculty.ID
	}
	s.notify.publish(ctx, model.EventScheduleCreated, section.ID, schedule.ID)

	s.directory.InvalidateSections(ctx)
	s.log.Info().
		Int("schedule_id", schedule.ID).
		Int("section_id", section.ID).
		Str("slot", slot.String()).
		Msg("Schedule created")
	return schedule, nil
}

// UpdateSchedule replaces the course and meeting fields of a schedule. The
// schedule keeps its id, section and status.
func (s *ScheduleService) UpdateSchedule(ctx context.Context, id int, u model.ScheduleUpdate) (*model.Schedule, error) {
	slot, err := s.conflicts.ParseSlot(u.Fields)
	if err != nil {
		return nil, err
	}
	if u.CourseID <= 0 {
		return nil, newValidationError("course_id", "course_id is required")
	}

	existing, err := s.schedules.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("get schedule", "schedule", id, err)
	}
	if _, err := s.courses.GetByID(ctx, u.CourseID); err != nil {
		return nil, storeError("get course", "course", u.CourseID, err)
	}
	section, err := s.sections.GetByID(ctx, existing.SectionID)
	if err != nil {
		return nil, storeError("get section", "section", existing.SectionID, err)
	}

	if existing.Status.Blocking() {
		if err := s.checkSlot(ctx, section.ID, u.CourseID, section.FacultyID, slot, id); err != nil {
			return nil, err
		}
	}

	existing.CourseID = u.CourseID
	existing.Day = slot.Day
	existing.StartTime = slot.Start
	existing.EndTime = slot.End
	existing.Room = slot.Room
	if err := s.schedules.Update(ctx, existing); err != nil {
		return nil, storeError("update schedule", "schedule", id, err)
	}

	s.notify.publish(ctx, model.EventScheduleUpdated, existing.SectionID, id)
	s.log.Info().Int("schedule_id", id).Str("slot", slot.String()).Msg("Schedule updated")
	return existing, nil
}

// UpdateScheduleStatus changes only the status. No conflict re-check runs;
// reactivating into an occupied room is refused by the store.
func (s *ScheduleService) UpdateScheduleStatus(ctx context.Context, id int, status model.ScheduleStatus) (*model.Schedule, error) {
	if !status.Valid() {
		return nil, newValidationError("status", "status must be one of ACTIVE, CANCELLED, COMPLETED, FULL")
	}
	updated, err := s.schedules.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, storeError("update schedule status", "schedule", id, err)
	}
	s.notify.publish(ctx, model.EventScheduleStatusChanged, updated.SectionID, id)
	return updated, nil
}

// DeleteSchedule removes a schedule. Deleting an absent id is a NotFoundError,
// however often it is repeated.
func (s *ScheduleService) DeleteSchedule(ctx context.Context, id int) error {
	existing, err := s.schedules.GetByID(ctx, id)
	if err != nil {
		return storeError("get schedule", "schedule", id, err)
	}
	if err := s.schedules.Delete(ctx, id); err != nil {
		return storeError("delete schedule", "schedule", id, err)
	}
	s.notify.publish(ctx, model.EventScheduleDeleted, existing.SectionID, id)
	s.log.Info().Int("schedule_id", id).Msg("Schedule deleted")
	return nil
}

// GetSchedule returns one schedule.
func (s *ScheduleService) GetSchedule(ctx context.Context, id int) (*model.Schedule, error) {
	sc, err := s.schedules.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("get schedule", "schedule", id, err)
	}
	return sc, nil
}

// ListSchedules returns the schedules matching filter.
func (s *ScheduleService) ListSchedules(ctx context.Context, filter model.ScheduleFilter) ([]model.Schedule, error) {
	list, err := s.schedules.List(ctx, filter)
	if err != nil {
		return nil, storeError("list schedules", "schedule", 0, err)
	}
	return nonNil(list), nil
}

// ListSectionSchedules returns the schedules of one section.
func (s *ScheduleService) ListSectionSchedules(ctx context.Context, sectionID int) ([]model.Schedule, error) {
	if _, err := s.sections.GetByID(ctx, sectionID); err != nil {
		return nil, storeError("get section", "section", sectionID, err)
	}
	list, err := s.schedules.ListBySection(ctx, sectionID)
	if err != nil {
		return nil, storeError("list section schedules", "section", sectionID, err)
	}
	return nonNil(list), nil
}

// checkSlot runs the conflict stages for a proposed slot: the day/time scan
// narrowed to the same room, then to the same instructor in other sections,
// then the section/course pair check. Last, an instructor cannot teach two
// overlapping meetings of their own section either.
func (s *ScheduleService) checkSlot(ctx context.Context, sectionID, courseID int, instructor *int, slot model.Slot, excludeID int) error {
	overlapping, err := s.conflicts.CheckConflicts(ctx, slot, excludeID)
	if err != nil {
		return err
	}

	if room := scheduling.FilterRoom(overlapping, slot.Room); len(room) > 0 {
		return &ConflictError{Rule: RuleSlotBooked, Dimension: DimensionRoom, Conflicts: room}
	}

	others := scheduling.ExceptSection(overlapping, sectionID)
	if instructor != nil {
		if busy := scheduling.FilterInstructor(others, *instructor); len(busy) > 0 {
			return &ConflictError{Rule: RuleSlotBooked, Dimension: DimensionInstructor, Conflicts: busy}
		}
	}

	clash, err := s.conflicts.CheckCourseScheduleConflict(ctx, sectionID, courseID, slot, excludeID)
	if err != nil {
		return err
	}
	if clash {
		return &ConflictError{Rule: RuleCourseTime, Dimension: DimensionCourse}
	}

	if instructor != nil && len(others) < len(overlapping) {
		var own []model.Schedule
		for _, c := range overlapping {
			if c.SectionID == sectionID {
				own = append(own, c)
			}
		}
		return &ConflictError{Rule: RuleInstructorBusy, Dimension: DimensionInstructor, Conflicts: own}
	}
	return nil
}
