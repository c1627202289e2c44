package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/jadwal-backend/internal/model"
)

func TestDirectoryListsAndCaches(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	courses, err := e.directory.ListCourses(ctx)
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, "CS101", courses[0].Code)
	assert.True(t, e.cache.has("directory:courses"))

	faculty, err := e.directory.ListFaculty(ctx)
	require.NoError(t, err)
	assert.Len(t, faculty, 2)

	programs, err := e.directory.ListPrograms(ctx)
	require.NoError(t, err)
	assert.Len(t, programs, 1)
}

func TestSectionSnapshotsAreInvalidated(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.section(t, "CS-1A", nil)

	sections, err := e.directory.ListSections(ctx, 0)
	require.NoError(t, err)
	require.Len(t, sections, 1)
	assert.True(t, e.cache.has("directory:sections"))

	e.section(t, "CS-1B", nil)
	assert.False(t, e.cache.has("directory:sections"))

	sections, err = e.directory.ListSections(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, sections, 2)
}

func TestListSectionsByProgram(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.section(t, "CS-1A", nil)

	other := model.Program{Name: "Mathematics"}
	require.NoError(t, e.store.AddProgram(ctx, &other))
	_, err := e.sections.CreateSection(ctx, model.CreateSectionRequest{
		Name: "MA-1A", ProgramID: other.ID, Semester: "Odd", Year: 2025,
	})
	require.NoError(t, err)

	sections, err := e.directory.ListSections(ctx, other.ID)
	require.NoError(t, err)
	require.Len(t, sections, 1)
	assert.Equal(t, "MA-1A", sections[0].Name)

	none, err := e.directory.ListSections(ctx, 999)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestDirectoryFallsThroughOnCacheFailure(t *testing.T) {
	e := newEnv(t)
	e.cache.fail = errors.New("redis down")

	courses, err := e.directory.ListCourses(context.Background())
	require.NoError(t, err)
	assert.Len(t, courses, 2)
}

func TestDirectoryStoreFailure(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.directory.ListCourses(ctx)
	assert.ErrorIs(t, err, ErrTransport)
}

func TestGetSectionIncludesSchedules(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	sec := e.section(t, "CS-1A", nil)

	full, err := e.directory.GetSection(ctx, sec.ID)
	require.NoError(t, err)
	assert.NotNil(t, full.Schedules)

	_, err = e.directory.GetSection(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}
