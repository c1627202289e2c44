package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/jadwal-backend/internal/model"
)

type programRepository struct {
	pool *pgxpool.Pool
}

// NewProgramRepository creates a PostgreSQL-backed ProgramRepository.
func NewProgramRepository(pool *pgxpool.Pool) ProgramRepository {
	return &programRepository{pool: pool}
}

func (r *programRepository) List(ctx context.Context) ([]model.Program, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, created_at, updated_at FROM programs ORDER BY name ASC`)
	if err != nil {
		return nil, Classify(err)
	}
	defer rows.Close()

	var programs []model.Program
	for rows.Next() {
		var p model.Program
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, Classify(err)
		}
		programs = append(programs, p)
	}
	return programs, Classify(rows.Err())
}

func (r *programRepository) GetByID(ctx context.Context, id int) (*model.Program, error) {
	p := &model.Program{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, created_at, updated_at FROM programs WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, Classify(err)
	}
	return p, nil
}
