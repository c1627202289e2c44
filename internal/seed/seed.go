// Package seed loads a school's catalog (programs, courses, instructors,
// sections and their weekly meetings) from a YAML file.
package seed

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/stemsi/jadwal-backend/internal/model"
	"github.com/stemsi/jadwal-backend/internal/service"
)

// File is the root of a seed document.
type File struct {
	Programs []Program `yaml:"programs"`
}

type Program struct {
	Name     string    `yaml:"name"`
	Courses  []Course  `yaml:"courses"`
	Faculty  []Faculty `yaml:"faculty"`
	Sections []Section `yaml:"sections"`
}

type Course struct {
	Code        string `yaml:"code"`
	Description string `yaml:"description"`
	Credits     int    `yaml:"credits"`
}

type Faculty struct {
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
}

// Section names its instructor by full name, as listed under faculty.
type Section struct {
	Name      string    `yaml:"name"`
	Semester  string    `yaml:"semester"`
	Year      int       `yaml:"year"`
	Faculty   string    `yaml:"faculty"`
	Schedules []Meeting `yaml:"schedules"`
}

// Meeting is one weekly schedule; Course refers to a course code.
type Meeting struct {
	Course    string `yaml:"course"`
	Day       string `yaml:"day"`
	StartTime string `yaml:"start_time"`
	EndTime   string `yaml:"end_time"`
	Room      string `yaml:"room"`
}

// Writer inserts the reference entities that have no API.
type Writer interface {
	AddProgram(ctx context.Context, p *model.Program) error
	AddCourse(ctx context.Context, c *model.Course) error
	AddFaculty(ctx context.Context, f *model.Faculty) error
}

// Summary counts what a load created.
type Summary struct {
	Programs  int
	Courses   int
	Faculty   int
	Sections  int
	Schedules int
}

func (s Summary) String() string {
	return fmt.Sprintf("%d programs, %d courses, %d faculty, %d sections, %d schedules",
		s.Programs, s.Courses, s.Faculty, s.Sections, s.Schedules)
}

// ReadFile parses the seed document at path.
func ReadFile(path string) (File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes a seed document. Unknown keys are rejected so that typos do
// not silently drop data.
func Parse(raw []byte) (File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return File{}, fmt.Errorf("parse seed file: %w", err)
	}
	return f, nil
}

// Loader writes a seed document. Sections and schedules go through the
// services, so seeded meetings pass the same conflict checks as API writes.
type Loader struct {
	writer    Writer
	sections  *service.SectionService
	schedules *service.ScheduleService
	log       zerolog.Logger
}

// NewLoader creates a Loader.
func NewLoader(writer Writer, sections *service.SectionService, schedules *service.ScheduleService, log zerolog.Logger) *Loader {
	return &Loader{
		writer:    writer,
		sections:  sections,
		schedules: schedules,
		log:       log.With().Str("component", "seed_loader").Logger(),
	}
}

// Load writes every entity in f, stopping at the first failure.
func (l *Loader) Load(ctx context.Context, f File) (Summary, error) {
	var sum Summary
	for _, p := range f.Programs {
		if err := l.loadProgram(ctx, p, &sum); err != nil {
			return sum, fmt.Errorf("program %q: %w", p.Name, err)
		}
	}
	l.log.Info().Str("summary", sum.String()).Msg("Catalog seeded")
	return sum, nil
}

func (l *Loader) loadProgram(ctx context.Context, p Program, sum *Summary) error {
	program := &model.Program{Name: p.Name}
	if err := l.writer.AddProgram(ctx, program); err != nil {
		return err
	}
	sum.Programs++

	courses := make(map[string]int, len(p.Courses))
	for _, c := range p.Courses {
		course := &model.Course{Code: c.Code, Description: c.Description, Credits: c.Credits, ProgramID: program.ID}
		if err := l.writer.AddCourse(ctx, course); err != nil {
			return fmt.Errorf("course %s: %w", c.Code, err)
		}
		courses[c.Code] = course.ID
		sum.Courses++
	}

	faculty := make(map[string]int, len(p.Faculty))
	for _, f := range p.Faculty {
		fac := &model.Faculty{FirstName: f.FirstName, LastName: f.LastName, ProgramID: &program.ID}
		if err := l.writer.AddFaculty(ctx, fac); err != nil {
			return fmt.Errorf("faculty %s: %w", fac.FullName(), err)
		}
		faculty[fac.FullName()] = fac.ID
		sum.Faculty++
	}

	for _, s := range p.Sections {
		if err := l.loadSection(ctx, program.ID, s, courses, faculty, sum); err != nil {
			return fmt.Errorf("section %s: %w", s.Name, err)
		}
	}
	return nil
}

func (l *Loader) loadSection(ctx context.Context, programID int, s Section, courses, faculty map[string]int, sum *Summary) error {
	req := model.CreateSectionRequest{
		Name:      s.Name,
		ProgramID: programID,
		Semester:  s.Semester,
		Year:      s.Year,
	}
	if s.Faculty != "" {
		id, ok := faculty[s.Faculty]
		if !ok {
			return fmt.Errorf("unknown faculty %q", s.Faculty)
		}
		req.FacultyID = &id
	}

	sec, err := l.sections.CreateSection(ctx, req)
	if err != nil {
		return err
	}
	sum.Sections++

	for _, m := range s.Schedules {
		courseID, ok := courses[m.Course]
		if !ok {
			return fmt.Errorf("unknown course %q", m.Course)
		}
		_, err := l.schedules.CreateSchedule(ctx, model.ScheduleAssignment{
			SectionID: sec.ID,
			CourseID:  courseID,
			Fields: model.ScheduleFields{
				Day:       m.Day,
				StartTime: m.StartTime,
				EndTime:   m.EndTime,
				Room:      m.Room,
			},
		})
		if err != nil {
			return fmt.Errorf("%s %s %s-%s: %w", m.Course, m.Day, m.StartTime, m.EndTime, err)
		}
		sum.Schedules++
	}
	return nil
}
