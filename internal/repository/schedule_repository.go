package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/jadwal-backend/internal/model"
)

type scheduleRepository struct {
	pool *pgxpool.Pool
}

// NewScheduleRepository creates a PostgreSQL-backed ScheduleRepository.
func NewScheduleRepository(pool *pgxpool.Pool) ScheduleRepository {
	return &scheduleRepository{pool: pool}
}

// Times live in start_minute/end_minute so the exclusion constraint can build
// an int4range over them.
const scheduleSelect = `
	SELECT sc.id, sc.section_id, sc.course_id, sc.day, sc.start_minute, sc.end_minute,
	       sc.room, sc.status, se.faculty_id, sc.created_at, sc.updated_at
	FROM schedules sc
	JOIN sections se ON se.id = sc.section_id
`

// scheduleOrder sorts by calendar weekday rather than by day name.
const scheduleOrder = `
	ORDER BY array_position(ARRAY['Monday','Tuesday','Wednesday','Thursday','Friday','Saturday','Sunday']::varchar[], sc.day),
	         sc.start_minute, sc.id
`

func scanSchedule(row pgx.Row) (*model.Schedule, error) {
	s := &model.Schedule{}
	var day, status string
	var start, end int
	if err := row.Scan(&s.ID, &s.SectionID, &s.CourseID, &day, &start, &end,
		&s.Room, &status, &s.FacultyID, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.Day = model.Weekday(day)
	s.StartTime = model.Clock(start)
	s.EndTime = model.Clock(end)
	s.Status = model.ScheduleStatus(status)
	return s, nil
}

func (r *scheduleRepository) query(ctx context.Context, where string, args ...any) ([]model.Schedule, error) {
	rows, err := r.pool.Query(ctx, scheduleSelect+where+scheduleOrder, args...)
	if err != nil {
		return nil, Classify(err)
	}
	defer rows.Close()

	var schedules []model.Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, Classify(err)
		}
		schedules = append(schedules, *s)
	}
	return schedules, Classify(rows.Err())
}

func (r *scheduleRepository) GetByID(ctx context.Context, id int) (*model.Schedule, error) {
	s, err := scanSchedule(r.pool.QueryRow(ctx, scheduleSelect+` WHERE sc.id = $1`, id))
	if err != nil {
		return nil, Classify(err)
	}
	return s, nil
}

func (r *scheduleRepository) List(ctx context.Context, filter model.ScheduleFilter) ([]model.Schedule, error) {
	return r.query(ctx, ` WHERE ($1::text = '' OR sc.day = $1::text) AND ($2::text = '' OR sc.room = $2::text)`,
		string(filter.Day), filter.Room)
}

func (r *scheduleRepository) ListBySection(ctx context.Context, sectionID int) ([]model.Schedule, error) {
	return r.query(ctx, ` WHERE sc.section_id = $1`, sectionID)
}

func (r *scheduleRepository) ListByDay(ctx context.Context, day model.Weekday) ([]model.Schedule, error) {
	return r.query(ctx, ` WHERE sc.day = $1`, string(day))
}

func (r *scheduleRepository) ListByFaculty(ctx context.Context, facultyID int) ([]model.Schedule, error) {
	return r.query(ctx, ` WHERE se.faculty_id = $1`, facultyID)
}

func (r *scheduleRepository) Create(ctx context.Context, schedule *model.Schedule) error {
	if schedule.Status == "" {
		schedule.Status = model.ScheduleStatusActive
	}
	query := `
		WITH inserted AS (
			INSERT INTO schedules (section_id, course_id, day, start_minute, end_minute, room, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, section_id, created_at, updated_at
		)
		SELECT i.id, se.faculty_id, i.created_at, i.updated_at
		FROM inserted i JOIN sections se ON se.id = i.section_id
	`
	err := r.pool.QueryRow(ctx, query,
		schedule.SectionID, schedule.CourseID, string(schedule.Day),
		int(schedule.StartTime), int(schedule.EndTime), schedule.Room, string(schedule.Status),
	).Scan(&schedule.ID, &schedule.FacultyID, &schedule.CreatedAt, &schedule.UpdatedAt)
	return Classify(err)
}

// Update replaces the course and meeting fields; section and status stay.
func (r *scheduleRepository) Update(ctx context.Context, schedule *model.Schedule) error {
	query := `
		UPDATE schedules
		SET course_id = $1, day = $2, start_minute = $3, end_minute = $4, room = $5,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $6
		RETURNING updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		schedule.CourseID, string(schedule.Day), int(schedule.StartTime), int(schedule.EndTime),
		schedule.Room, schedule.ID,
	).Scan(&schedule.UpdatedAt)
	return Classify(err)
}

func (r *scheduleRepository) UpdateStatus(ctx context.Context, id int, status model.ScheduleStatus) (*model.Schedule, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE schedules SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		string(status), id)
	if err != nil {
		return nil, Classify(err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("schedule %d: %w", id, ErrNotFound)
	}
	return r.GetByID(ctx, id)
}

func (r *scheduleRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return Classify(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("schedule %d: %w", id, ErrNotFound)
	}
	return nil
}
