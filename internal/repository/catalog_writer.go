package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stemsi/jadwal-backend/internal/model"
)

// CatalogWriter inserts reference entities. The API exposes no write path for
// them; cmd/seed-catalog uses this to load a school's catalog.
type CatalogWriter struct {
	pool *pgxpool.Pool
}

// NewCatalogWriter creates a CatalogWriter.
func NewCatalogWriter(pool *pgxpool.Pool) *CatalogWriter {
	return &CatalogWriter{pool: pool}
}

func (w *CatalogWriter) AddProgram(ctx context.Context, p *model.Program) error {
	err := w.pool.QueryRow(ctx,
		`INSERT INTO programs (name) VALUES ($1) RETURNING id, created_at, updated_at`,
		p.Name,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if IsDuplicateConstraintError(err, "programs_name_key") {
		return fmt.Errorf("program %q already exists: %w", p.Name, Classify(err))
	}
	return Classify(err)
}

func (w *CatalogWriter) AddCourse(ctx context.Context, c *model.Course) error {
	err := w.pool.QueryRow(ctx,
		`INSERT INTO courses (code, description, credits, program_id)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		c.Code, c.Description, c.Credits, c.ProgramID,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if IsDuplicateConstraintError(err, "courses_code_key") {
		return fmt.Errorf("course code %q already exists: %w", c.Code, Classify(err))
	}
	return Classify(err)
}

func (w *CatalogWriter) AddFaculty(ctx context.Context, f *model.Faculty) error {
	err := w.pool.QueryRow(ctx,
		`INSERT INTO faculty (first_name, last_name, program_id)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at`,
		f.FirstName, f.LastName, f.ProgramID,
	).Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt)
	return Classify(err)
}
