// Package memory is an in-process implementation of the repository
// interfaces. It honours the same contracts as the PostgreSQL store: cascade
// delete, not-found errors, foreign keys and the room exclusion rule.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/jadwal-backend/internal/model"
	"github.com/stemsi/jadwal-backend/internal/repository"
	"github.com/stemsi/jadwal-backend/internal/scheduling"
)

// Store holds every table behind one lock.
type Store struct {
	mu sync.RWMutex

	programs  map[int]model.Program
	courses   map[int]model.Course
	faculty   map[int]model.Faculty
	sections  map[int]model.Section
	schedules map[int]model.Schedule
	audit     []model.ScheduleEvent
	auditSeen map[uuid.UUID]bool

	nextID int

	// now is swapped in tests.
	now func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		programs:  make(map[int]model.Program),
		courses:   make(map[int]model.Course),
		faculty:   make(map[int]model.Faculty),
		sections:  make(map[int]model.Section),
		schedules: make(map[int]model.Schedule),
		auditSeen: make(map[uuid.UUID]bool),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) id() int {
	s.nextID++
	return s.nextID
}

// ---------------------------------------------------------------------------
// Seeding. Reference entities have no write API; these methods are used by
// the seeder and by tests.
// ---------------------------------------------------------------------------

// AddProgram inserts a program and assigns its id.
func (s *Store) AddProgram(_ context.Context, p *model.Program) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.id()
	p.CreatedAt, p.UpdatedAt = s.now(), s.now()
	s.programs[p.ID] = *p
	return nil
}

// AddCourse inserts a course and assigns its id.
func (s *Store) AddCourse(_ context.Context, c *model.Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.programs[c.ProgramID]; !ok {
		return fmt.Errorf("%w: course program %d", repository.ErrMissingReference, c.ProgramID)
	}
	for _, existing := range s.courses {
		if existing.Code == c.Code {
			return fmt.Errorf("%w: course code %s", repository.ErrDuplicate, c.Code)
		}
	}
	c.ID = s.id()
	c.CreatedAt, c.UpdatedAt = s.now(), s.now()
	s.courses[c.ID] = *c
	return nil
}

// AddFaculty inserts an instructor and assigns its id.
func (s *Store) AddFaculty(_ context.Context, f *model.Faculty) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f.ProgramID != nil {
		if _, ok := s.programs[*f.ProgramID]; !ok {
			return fmt.Errorf("%w: faculty program %d", repository.ErrMissingReference, *f.ProgramID)
		}
	}
	f.ID = s.id()
	f.CreatedAt, f.UpdatedAt = s.now(), s.now()
	s.faculty[f.ID] = *f
	return nil
}

// Repository accessors.

func (s *Store) Programs() repository.ProgramRepository   { return programRepo{s} }
func (s *Store) Courses() repository.CourseRepository     { return courseRepo{s} }
func (s *Store) Faculty() repository.FacultyRepository    { return facultyRepo{s} }
func (s *Store) Sections() repository.SectionRepository   { return sectionRepo{s} }
func (s *Store) Schedules() repository.ScheduleRepository { return scheduleRepo{s} }
func (s *Store) Audit() repository.AuditRepository        { return auditRepo{s} }

// Repositories returns every repository backed by this store.
func (s *Store) Repositories() repository.Repositories {
	return repository.Repositories{
		Programs:  s.Programs(),
		Courses:   s.Courses(),
		Faculty:   s.Faculty(),
		Sections:  s.Sections(),
		Schedules: s.Schedules(),
		Audit:     s.Audit(),
	}
}

func notFound(entity string, id int) error {
	return fmt.Errorf("%s %d: %w", entity, id, repository.ErrNotFound)
}

// ctxErr reports a cancelled context the way the PostgreSQL store would.
func ctxErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", repository.ErrUnavailable, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Programs, courses, faculty
// ---------------------------------------------------------------------------

type programRepo struct{ s *Store }

func (r programRepo) List(ctx context.Context) ([]model.Program, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]model.Program, 0, len(r.s.programs))
	for _, p := range r.s.programs {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r programRepo) GetByID(ctx context.Context, id int) (*model.Program, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.programs[id]
	if !ok {
		return nil, notFound("program", id)
	}
	return &p, nil
}

type courseRepo struct{ s *Store }

func (r courseRepo) List(ctx context.Context) ([]model.Course, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]model.Course, 0, len(r.s.courses))
	for _, c := range r.s.courses {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r courseRepo) GetByID(ctx context.Context, id int) (*model.Course, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.courses[id]
	if !ok {
		return nil, notFound("course", id)
	}
	return &c, nil
}

type facultyRepo struct{ s *Store }

func (r facultyRepo) List(ctx context.Context) ([]model.Faculty, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]model.Faculty, 0, len(r.s.faculty))
	for _, f := range r.s.faculty {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		return out[i].FirstName < out[j].FirstName
	})
	return out, nil
}

func (r facultyRepo) GetByID(ctx context.Context, id int) (*model.Faculty, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	f, ok := r.s.faculty[id]
	if !ok {
		return nil, notFound("faculty", id)
	}
	return &f, nil
}

// ---------------------------------------------------------------------------
// Sections
// ---------------------------------------------------------------------------

type sectionRepo struct{ s *Store }

func (r sectionRepo) List(ctx context.Context) ([]model.Section, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]model.Section, 0, len(r.s.sections))
	for _, sec := range r.s.sections {
		out = append(out, sec)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Year != b.Year {
			return a.Year > b.Year
		}
		if a.Semester != b.Semester {
			return a.Semester < b.Semester
		}
		return a.Name < b.Name
	})
	return out, nil
}

func (r sectionRepo) GetByID(ctx context.Context, id int) (*model.Section, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sec, ok := r.s.sections[id]
	if !ok {
		return nil, notFound("section", id)
	}
	return &sec, nil
}

func (r sectionRepo) Create(ctx context.Context, sec *model.Section) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.programs[sec.ProgramID]; !ok {
		return fmt.Errorf("%w: section program %d", repository.ErrMissingReference, sec.ProgramID)
	}
	if sec.FacultyID != nil {
		if _, ok := r.s.faculty[*sec.FacultyID]; !ok {
			return fmt.Errorf("%w: section faculty %d", repository.ErrMissingReference, *sec.FacultyID)
		}
	}
	if sec.Status == "" {
		sec.Status = model.SectionStatusActive
	}
	sec.ID = r.s.id()
	sec.CreatedAt, sec.UpdatedAt = r.s.now(), r.s.now()
	stored := *sec
	stored.Schedules = nil
	r.s.sections[sec.ID] = stored
	return nil
}

func (r sectionRepo) Patch(ctx context.Context, id int, patch model.SectionPatch) (*model.Section, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sec, ok := r.s.sections[id]
	if !ok {
		return nil, notFound("section", id)
	}
	if patch.Empty() {
		return &sec, nil
	}

	if patch.Name != nil {
		sec.Name = *patch.Name
	}
	if patch.Semester != nil {
		sec.Semester = *patch.Semester
	}
	if patch.Year != nil {
		sec.Year = *patch.Year
	}
	if patch.Status != nil {
		sec.Status = *patch.Status
	}
	if patch.Faculty != nil {
		if patch.Faculty.ID != nil {
			if _, ok := r.s.faculty[*patch.Faculty.ID]; !ok {
				return nil, fmt.Errorf("%w: section faculty %d", repository.ErrMissingReference, *patch.Faculty.ID)
			}
			fid := *patch.Faculty.ID
			sec.FacultyID = &fid
		} else {
			sec.FacultyID = nil
		}
	}
	sec.UpdatedAt = r.s.now()
	r.s.sections[id] = sec
	return &sec, nil
}

func (r sectionRepo) Delete(ctx context.Context, id int) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.sections[id]; !ok {
		return notFound("section", id)
	}
	delete(r.s.sections, id)
	for sid, sc := range r.s.schedules {
		if sc.SectionID == id {
			delete(r.s.schedules, sid)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Schedules
// ---------------------------------------------------------------------------

type scheduleRepo struct{ s *Store }

// withFaculty copies sc and joins in the owning section's instructor.
// Callers hold the lock.
func (r scheduleRepo) withFaculty(sc model.Schedule) model.Schedule {
	sc.FacultyID = nil
	if sec, ok := r.s.sections[sc.SectionID]; ok && sec.FacultyID != nil {
		fid := *sec.FacultyID
		sc.FacultyID = &fid
	}
	return sc
}

func (r scheduleRepo) selectWhere(ctx context.Context, keep func(model.Schedule) bool) ([]model.Schedule, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []model.Schedule
	for _, sc := range r.s.schedules {
		sc = r.withFaculty(sc)
		if keep(sc) {
			out = append(out, sc)
		}
	}
	sortSchedules(out)
	return out, nil
}

func sortSchedules(list []model.Schedule) {
	order := make(map[model.Weekday]int, len(model.AllWeekdays))
	for i, d := range model.AllWeekdays {
		order[d] = i
	}
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.Day != b.Day {
			return order[a.Day] < order[b.Day]
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		return a.ID < b.ID
	})
}

// checkRoom mirrors the schedules_no_room_overlap exclusion constraint.
// Callers hold the lock.
func (r scheduleRepo) checkRoom(sc model.Schedule) error {
	if !sc.Status.Blocking() {
		return nil
	}
	existing := make([]model.Schedule, 0, len(r.s.schedules))
	for _, other := range r.s.schedules {
		existing = append(existing, other)
	}
	if len(scheduling.FilterRoom(scheduling.Conflicts(existing, sc.Slot(), sc.ID), sc.Room)) > 0 {
		return fmt.Errorf("%w: schedules_no_room_overlap", repository.ErrOverlap)
	}
	return nil
}

func (r scheduleRepo) checkRefs(sc model.Schedule) error {
	if _, ok := r.s.sections[sc.SectionID]; !ok {
		return fmt.Errorf("%w: schedule section %d", repository.ErrMissingReference, sc.SectionID)
	}
	if _, ok := r.s.courses[sc.CourseID]; !ok {
		return fmt.Errorf("%w: schedule course %d", repository.ErrMissingReference, sc.CourseID)
	}
	return nil
}

func (r scheduleRepo) GetByID(ctx context.Context, id int) (*model.Schedule, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sc, ok := r.s.schedules[id]
	if !ok {
		return nil, notFound("schedule", id)
	}
	sc = r.withFaculty(sc)
	return &sc, nil
}

func (r scheduleRepo) List(ctx context.Context, filter model.ScheduleFilter) ([]model.Schedule, error) {
	return r.selectWhere(ctx, func(sc model.Schedule) bool {
		return (filter.Day == "" || sc.Day == filter.Day) && (filter.Room == "" || sc.Room == filter.Room)
	})
}

func (r scheduleRepo) ListBySection(ctx context.Context, sectionID int) ([]model.Schedule, error) {
	return r.selectWhere(ctx, func(sc model.Schedule) bool { return sc.SectionID == sectionID })
}

func (r scheduleRepo) ListByDay(ctx context.Context, day model.Weekday) ([]model.Schedule, error) {
	return r.selectWhere(ctx, func(sc model.Schedule) bool { return sc.Day == day })
}

func (r scheduleRepo) ListByFaculty(ctx context.Context, facultyID int) ([]model.Schedule, error) {
	return r.selectWhere(ctx, func(sc model.Schedule) bool {
		return sc.FacultyID != nil && *sc.FacultyID == facultyID
	})
}

func (r scheduleRepo) Create(ctx context.Context, sc *model.Schedule) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if sc.Status == "" {
		sc.Status = model.ScheduleStatusActive
	}
	if err := r.checkRefs(*sc); err != nil {
		return err
	}
	sc.ID = 0
	if err := r.checkRoom(*sc); err != nil {
		return err
	}
	sc.ID = r.s.id()
	sc.CreatedAt, sc.UpdatedAt = r.s.now(), r.s.now()
	stored := *sc
	stored.FacultyID = nil
	r.s.schedules[sc.ID] = stored
	*sc = r.withFaculty(stored)
	return nil
}

func (r scheduleRepo) Update(ctx context.Context, sc *model.Schedule) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.schedules[sc.ID]
	if !ok {
		return notFound("schedule", sc.ID)
	}
	next := current
	next.CourseID = sc.CourseID
	next.Day = sc.Day
	next.StartTime = sc.StartTime
	next.EndTime = sc.EndTime
	next.Room = sc.Room
	if err := r.checkRefs(next); err != nil {
		return err
	}
	if err := r.checkRoom(next); err != nil {
		return err
	}
	next.UpdatedAt = r.s.now()
	r.s.schedules[sc.ID] = next
	*sc = r.withFaculty(next)
	return nil
}

func (r scheduleRepo) UpdateStatus(ctx context.Context, id int, status model.ScheduleStatus) (*model.Schedule, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sc, ok := r.s.schedules[id]
	if !ok {
		return nil, notFound("schedule", id)
	}
	sc.Status = status
	if err := r.checkRoom(sc); err != nil {
		return nil, err
	}
	sc.UpdatedAt = r.s.now()
	r.s.schedules[id] = sc
	out := r.withFaculty(sc)
	return &out, nil
}

func (r scheduleRepo) Delete(ctx context.Context, id int) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.schedules[id]; !ok {
		return notFound("schedule", id)
	}
	delete(r.s.schedules, id)
	return nil
}

// ---------------------------------------------------------------------------
// Audit log
// ---------------------------------------------------------------------------

type auditRepo struct{ s *Store }

func (r auditRepo) Record(ctx context.Context, e model.ScheduleEvent) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.auditSeen[e.ID] {
		return nil
	}
	r.s.auditSeen[e.ID] = true
	r.s.audit = append(r.s.audit, e)
	return nil
}

func (r auditRepo) ListBySection(ctx context.Context, sectionID int) ([]model.ScheduleEvent, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []model.ScheduleEvent
	for _, e := range r.s.audit {
		if e.SectionID == sectionID {
			out = append(out, e)
		}
	}
	return out, nil
}
