package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/jadwal-backend/internal/model"
)

type facultyRepository struct {
	pool *pgxpool.Pool
}

// NewFacultyRepository creates a PostgreSQL-backed FacultyRepository.
func NewFacultyRepository(pool *pgxpool.Pool) FacultyRepository {
	return &facultyRepository{pool: pool}
}

func (r *facultyRepository) List(ctx context.Context) ([]model.Faculty, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, first_name, last_name, program_id, created_at, updated_at
		 FROM faculty ORDER BY last_name, first_name`)
	if err != nil {
		return nil, Classify(err)
	}
	defer rows.Close()

	var members []model.Faculty
	for rows.Next() {
		var f model.Faculty
		if err := rows.Scan(&f.ID, &f.FirstName, &f.LastName, &f.ProgramID, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, Classify(err)
		}
		members = append(members, f)
	}
	return members, Classify(rows.Err())
}

func (r *facultyRepository) GetByID(ctx context.Context, id int) (*model.Faculty, error) {
	f := &model.Faculty{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, first_name, last_name, program_id, created_at, updated_at
		 FROM faculty WHERE id = $1`, id,
	).Scan(&f.ID, &f.FirstName, &f.LastName, &f.ProgramID, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, Classify(err)
	}
	return f, nil
}
