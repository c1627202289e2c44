package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/stemsi/jadwal-backend/internal/events"
	"github.com/stemsi/jadwal-backend/internal/model"
	"github.com/stemsi/jadwal-backend/internal/repository"
	"github.com/stemsi/jadwal-backend/internal/scheduling"
)

// SectionService manages sections and binds instructors to them.
// Section writes never touch schedules, apart from the delete cascade.
type SectionService struct {
	programs  repository.ProgramRepository
	faculty   repository.FacultyRepository
	sections  repository.SectionRepository
	schedules repository.ScheduleRepository
	audit     repository.AuditRepository
	directory *DirectoryService
	notify    notifier
	log       zerolog.Logger
}

// NewSectionService creates a new SectionService.
func NewSectionService(repos repository.Repositories, directory *DirectoryService, bus events.Bus, log zerolog.Logger) *SectionService {
	l := log.With().Str("component", "section_service").Logger()
	return &SectionService{
		programs:  repos.Programs,
		faculty:   repos.Faculty,
		sections:  repos.Sections,
		schedules: repos.Schedules,
		audit:     repos.Audit,
		directory: directory,
		notify:    notifier{bus: bus, log: l},
		log:       l,
	}
}

// CreateSection adds a section to a program, optionally with an instructor.
func (s *SectionService) CreateSection(ctx context.Context, req model.CreateSectionRequest) (*model.Section, error) {
	if _, err := s.programs.GetByID(ctx, req.ProgramID); err != nil {
		return nil, storeError("get program", "program", req.ProgramID, err)
	}
	if req.FacultyID != nil {
		if err := s.requireFaculty(ctx, *req.FacultyID); err != nil {
			return nil, err
		}
	}

	sec := &model.Section{
		Name:      req.Name,
		ProgramID: req.ProgramID,
		FacultyID: req.FacultyID,
		Semester:  req.Semester,
		Year:      req.Year,
		Status:    req.Status,
	}
	if err := s.sections.Create(ctx, sec); err != nil {
		return nil, storeError("create section", "section", 0, err)
	}

	s.directory.InvalidateSections(ctx)
	s.notify.publish(ctx, model.EventSectionCreated, sec.ID, 0)
	s.log.Info().Int("section_id", sec.ID).Str("name", sec.Name).Msg("Section created")
	return sec, nil
}

// PatchSection changes the members set on patch. An instructor change goes
// through the same checks as AssignFaculty.
func (s *SectionService) PatchSection(ctx context.Context, id int, patch model.SectionPatch) (*model.Section, error) {
	current, err := s.sections.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("get section", "section", id, err)
	}
	if patch.Empty() {
		return current, nil
	}

	facultyChanged := patch.Faculty != nil && !sameFaculty(current.FacultyID, patch.Faculty.ID)
	if facultyChanged && patch.Faculty.ID != nil {
		if err := s.CheckInstructorFree(ctx, id, *patch.Faculty.ID); err != nil {
			return nil, err
		}
	}

	updated, err := s.sections.Patch(ctx, id, patch)
	if err != nil {
		return nil, storeError("patch section", "section", id, err)
	}

	s.directory.InvalidateSections(ctx)
	if facultyChanged {
		s.notify.publish(ctx, model.EventSectionFacultyChanged, id, 0)
	}
	if !patch.FacultyOnly() {
		s.notify.publish(ctx, model.EventSectionUpdated, id, 0)
	}
	return updated, nil
}

// AssignFaculty rebinds the section's instructor, or unassigns it when
// facultyID is nil. Only faculty_id changes; the schedules stay as they are.
func (s *SectionService) AssignFaculty(ctx context.Context, sectionID int, facultyID *int) (*model.Section, error) {
	current, err := s.sections.GetByID(ctx, sectionID)
	if err != nil {
		return nil, storeError("get section", "section", sectionID, err)
	}
	if sameFaculty(current.FacultyID, facultyID) {
		return current, nil
	}
	if facultyID != nil {
		if err := s.CheckInstructorFree(ctx, sectionID, *facultyID); err != nil {
			return nil, err
		}
	}

	updated, err := s.sections.Patch(ctx, sectionID, model.SectionPatch{
		Faculty: &model.FacultyRef{ID: facultyID},
	})
	if err != nil {
		return nil, storeError("assign faculty", "section", sectionID, err)
	}

	s.directory.InvalidateSections(ctx)
	s.notify.publish(ctx, model.EventSectionFacultyChanged, sectionID, 0)

	evt := s.log.Info().Int("section_id", sectionID)
	if facultyID != nil {
		evt = evt.Int("faculty_id", *facultyID)
	}
	evt.Msg("Section instructor changed")
	return updated, nil
}

// CheckInstructorFree verifies that facultyID exists and teaches nothing that
// overlaps the section's blocking schedules or any of the extra slots. The
// section's own meetings must not overlap each other either, since they all
// become the instructor's once bound.
func (s *SectionService) CheckInstructorFree(ctx context.Context, sectionID, facultyID int, extra ...model.Slot) error {
	if err := s.requireFaculty(ctx, facultyID); err != nil {
		return err
	}

	own, err := s.schedules.ListBySection(ctx, sectionID)
	if err != nil {
		return storeError("list section schedules", "section", sectionID, err)
	}
	theirs, err := s.schedules.ListByFaculty(ctx, facultyID)
	if err != nil {
		return storeError("list faculty schedules", "faculty", facultyID, err)
	}
	theirs = scheduling.ExceptSection(theirs, sectionID)

	var blocking []model.Schedule
	for _, sc := range own {
		if sc.Status.Blocking() {
			blocking = append(blocking, sc)
		}
	}

	var clashes []model.Schedule
	seen := make(map[int]bool)
	add := func(found ...model.Schedule) {
		for _, c := range found {
			if !seen[c.ID] {
				seen[c.ID] = true
				clashes = append(clashes, c)
			}
		}
	}

	for i, sc := range blocking {
		if twins := scheduling.Conflicts(blocking[i+1:], sc.Slot(), 0); len(twins) > 0 {
			add(sc)
			add(twins...)
		}
	}
	slots := append([]model.Slot(nil), extra...)
	for _, slot := range extra {
		add(scheduling.Conflicts(blocking, slot, 0)...)
	}
	for _, sc := range blocking {
		slots = append(slots, sc.Slot())
	}
	for _, slot := range slots {
		add(scheduling.Conflicts(theirs, slot, 0)...)
	}
	if len(clashes) > 0 {
		return &ConflictError{Rule: RuleInstructorBusy, Dimension: DimensionInstructor, Conflicts: clashes}
	}
	return nil
}

// DeleteSection removes the section and, with it, its schedules.
func (s *SectionService) DeleteSection(ctx context.Context, id int) error {
	if err := s.sections.Delete(ctx, id); err != nil {
		return storeError("delete section", "section", id, err)
	}
	s.directory.InvalidateSections(ctx)
	s.notify.publish(ctx, model.EventSectionDeleted, id, 0)
	s.log.Info().Int("section_id", id).Msg("Section deleted")
	return nil
}

// History returns the recorded changes of a section, oldest first.
func (s *SectionService) History(ctx context.Context, id int) ([]model.ScheduleEvent, error) {
	if _, err := s.sections.GetByID(ctx, id); err != nil {
		return nil, storeError("get section", "section", id, err)
	}
	history, err := s.audit.ListBySection(ctx, id)
	if err != nil {
		return nil, storeError("list section history", "section", id, err)
	}
	if history == nil {
		history = []model.ScheduleEvent{}
	}
	return history, nil
}

func (s *SectionService) requireFaculty(ctx context.Context, id int) error {
	if _, err := s.faculty.GetByID(ctx, id); err != nil {
		return storeError("get faculty", "faculty", id, err)
	}
	return nil
}

func sameFaculty(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
