package repository

import "github.com/jackc/pgx/v5/pgxpool"

// NewPostgres wires every repository to pool.
func NewPostgres(pool *pgxpool.Pool) Repositories {
	return Repositories{
		Programs:  NewProgramRepository(pool),
		Courses:   NewCourseRepository(pool),
		Faculty:   NewFacultyRepository(pool),
		Sections:  NewSectionRepository(pool),
		Schedules: NewScheduleRepository(pool),
		Audit:     NewAuditRepository(pool),
	}
}
