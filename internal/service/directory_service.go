package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/stemsi/jadwal-backend/internal/cache"
	"github.com/stemsi/jadwal-backend/internal/config"
	"github.com/stemsi/jadwal-backend/internal/model"
	"github.com/stemsi/jadwal-backend/internal/repository"
)

// DirectoryService serves the reference lists the admin screens pick from.
// Lists are cached as snapshots; a cache failure falls through to the store.
type DirectoryService struct {
	programs  repository.ProgramRepository
	courses   repository.CourseRepository
	faculty   repository.FacultyRepository
	sections  repository.SectionRepository
	schedules repository.ScheduleRepository
	snapshots cache.Snapshots
	log       zerolog.Logger
}

// NewDirectoryService creates a new DirectoryService.
func NewDirectoryService(repos repository.Repositories, snapshots cache.Snapshots, log zerolog.Logger) *DirectoryService {
	if snapshots == nil {
		snapshots = cache.Nop{}
	}
	return &DirectoryService{
		programs:  repos.Programs,
		courses:   repos.Courses,
		faculty:   repos.Faculty,
		sections:  repos.Sections,
		schedules: repos.Schedules,
		snapshots: snapshots,
		log:       log.With().Str("component", "directory_service").Logger(),
	}
}

// snapshot is the cache-aside read shared by every list.
func snapshot[T any](ctx context.Context, s *DirectoryService, key string, fetch func(context.Context) ([]T, error)) ([]T, error) {
	var cached []T
	ok, err := s.snapshots.Load(ctx, key, &cached)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Snapshot read failed, using store")
	} else if ok {
		return cached, nil
	}

	items, err := fetch(ctx)
	if err != nil {
		return nil, storeError("list "+key, key, 0, err)
	}
	if items == nil {
		items = []T{}
	}

	if err := s.snapshots.Save(ctx, key, items); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Snapshot write failed")
	}
	return items, nil
}

// ListPrograms returns every program.
func (s *DirectoryService) ListPrograms(ctx context.Context) ([]model.Program, error) {
	return snapshot(ctx, s, config.CacheKey.DirectoryKey("programs"), s.programs.List)
}

// ListCourses returns every course.
func (s *DirectoryService) ListCourses(ctx context.Context) ([]model.Course, error) {
	return snapshot(ctx, s, config.CacheKey.DirectoryKey("courses"), s.courses.List)
}

// ListFaculty returns every instructor.
func (s *DirectoryService) ListFaculty(ctx context.Context) ([]model.Faculty, error) {
	return snapshot(ctx, s, config.CacheKey.DirectoryKey("faculty"), s.faculty.List)
}

// ListSections returns the sections of programID, or all of them when it is 0.
func (s *DirectoryService) ListSections(ctx context.Context, programID int) ([]model.Section, error) {
	return snapshot(ctx, s, config.CacheKey.SectionDirectoryKey(programID), func(ctx context.Context) ([]model.Section, error) {
		all, err := s.sections.List(ctx)
		if err != nil || programID == 0 {
			return all, err
		}
		var out []model.Section
		for _, sec := range all {
			if sec.ProgramID == programID {
				out = append(out, sec)
			}
		}
		return out, nil
	})
}

// GetSection returns one section with its schedules. It is never cached.
func (s *DirectoryService) GetSection(ctx context.Context, id int) (*model.Section, error) {
	sec, err := s.sections.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("get section", "section", id, err)
	}
	schedules, err := s.schedules.ListBySection(ctx, id)
	if err != nil {
		return nil, storeError("list section schedules", "section", id, err)
	}
	if schedules == nil {
		schedules = []model.Schedule{}
	}
	sec.Schedules = schedules
	return sec, nil
}

// InvalidateSections drops every cached section list.
func (s *DirectoryService) InvalidateSections(ctx context.Context) {
	if err := s.snapshots.InvalidateMatch(ctx, config.CacheKey.SectionDirectoryPattern()); err != nil {
		s.log.Warn().Err(err).Msg("Section snapshot invalidation failed")
	}
}

// InvalidateAll drops every cached list, for use after bulk imports.
func (s *DirectoryService) InvalidateAll(ctx context.Context) {
	keys := []string{
		config.CacheKey.DirectoryKey("programs"),
		config.CacheKey.DirectoryKey("courses"),
		config.CacheKey.DirectoryKey("faculty"),
	}
	if err := s.snapshots.Invalidate(ctx, keys...); err != nil {
		s.log.Warn().Err(err).Msg("Snapshot invalidation failed")
	}
	s.InvalidateSections(ctx)
}
