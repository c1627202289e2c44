package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/stemsi/jadwal-backend/internal/model"
	"github.com/stemsi/jadwal-backend/internal/repository"
	"github.com/stemsi/jadwal-backend/internal/scheduling"
)

// ConflictService runs the day/time conflict scan against the store.
// It only reads; the room and instructor decisions are left to its callers.
type ConflictService struct {
	schedules repository.ScheduleRepository
	catalog   scheduling.Catalog
	log       zerolog.Logger
}

// NewConflictService creates a new ConflictService.
func NewConflictService(schedules repository.ScheduleRepository, catalog scheduling.Catalog, log zerolog.Logger) *ConflictService {
	return &ConflictService{
		schedules: schedules,
		catalog:   catalog,
		log:       log.With().Str("component", "conflict_service").Logger(),
	}
}

// Catalog returns the option catalog slots are validated against.
func (s *ConflictService) Catalog() scheduling.Catalog {
	return s.catalog
}

// ParseSlot validates raw schedule fields against the catalog.
func (s *ConflictService) ParseSlot(fields model.ScheduleFields) (model.Slot, error) {
	slot, bad := s.catalog.ParseSlot(fields)
	if bad != nil {
		return model.Slot{}, &ValidationError{Fields: bad}
	}
	return slot, nil
}

// CheckConflicts returns the blocking schedules on the slot's day whose time
// window overlaps it, skipping excludeID (0 skips nothing). Rooms are not
// compared.
func (s *ConflictService) CheckConflicts(ctx context.Context, slot model.Slot, excludeID int) ([]model.Schedule, error) {
	sameDay, err := s.schedules.ListByDay(ctx, slot.Day)
	if err != nil {
		return nil, storeError("list schedules by day", "schedule", 0, err)
	}
	return scheduling.Conflicts(sameDay, slot, excludeID), nil
}

// CheckCourseScheduleConflict reports whether the section already meets for
// the course at an overlapping time.
func (s *ConflictService) CheckCourseScheduleConflict(ctx context.Context, sectionID, courseID int, slot model.Slot, excludeID int) (bool, error) {
	own, err := s.schedules.ListBySection(ctx, sectionID)
	if err != nil {
		return false, storeError("list section schedules", "section", sectionID, err)
	}
	return scheduling.CourseConflict(own, sectionID, courseID, slot, excludeID), nil
}

// Report answers a conflict pre-check from the admin screens.
func (s *ConflictService) Report(ctx context.Context, q model.ConflictQuery) (*model.ConflictReport, error) {
	slot, bad := s.catalog.ParseWindow(q.Day, q.StartTime, q.EndTime)
	if bad != nil {
		return nil, &ValidationError{Fields: bad}
	}
	slot.Room = strings.TrimSpace(q.Room)

	conflicts, err := s.CheckConflicts(ctx, slot, q.ExcludeID)
	if err != nil {
		return nil, err
	}

	report := &model.ConflictReport{
		Day:           slot.Day,
		StartTime:     slot.Start,
		EndTime:       slot.End,
		Room:          slot.Room,
		Conflicts:     nonNil(conflicts),
		RoomConflicts: []model.Schedule{},
	}
	if slot.Room != "" {
		report.RoomConflicts = nonNil(scheduling.FilterRoom(conflicts, slot.Room))
	}
	return report, nil
}

func nonNil(list []model.Schedule) []model.Schedule {
	if list == nil {
		return []model.Schedule{}
	}
	return list
}
