package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/jadwal-backend/internal/model"
)

type courseRepository struct {
	pool *pgxpool.Pool
}

// NewCourseRepository creates a PostgreSQL-backed CourseRepository.
func NewCourseRepository(pool *pgxpool.Pool) CourseRepository {
	return &courseRepository{pool: pool}
}

const courseColumns = `id, code, description, credits, program_id, created_at, updated_at`

func (r *courseRepository) List(ctx context.Context) ([]model.Course, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+courseColumns+` FROM courses ORDER BY code ASC`)
	if err != nil {
		return nil, Classify(err)
	}
	defer rows.Close()

	var courses []model.Course
	for rows.Next() {
		var c model.Course
		if err := rows.Scan(&c.ID, &c.Code, &c.Description, &c.Credits, &c.ProgramID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, Classify(err)
		}
		courses = append(courses, c)
	}
	return courses, Classify(rows.Err())
}

func (r *courseRepository) GetByID(ctx context.Context, id int) (*model.Course, error) {
	c := &model.Course{}
	err := r.pool.QueryRow(ctx,
		`SELECT `+courseColumns+` FROM courses WHERE id = $1`, id,
	).Scan(&c.ID, &c.Code, &c.Description, &c.Credits, &c.ProgramID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, Classify(err)
	}
	return c, nil
}
