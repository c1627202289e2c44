package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/jadwal-backend/internal/model"
)

type sectionRepository struct {
	pool *pgxpool.Pool
}

// NewSectionRepository creates a PostgreSQL-backed SectionRepository.
func NewSectionRepository(pool *pgxpool.Pool) SectionRepository {
	return &sectionRepository{pool: pool}
}

const sectionColumns = `id, name, program_id, faculty_id, semester, year, status, created_at, updated_at`

func scanSection(row pgx.Row) (*model.Section, error) {
	s := &model.Section{}
	var status string
	if err := row.Scan(&s.ID, &s.Name, &s.ProgramID, &s.FacultyID, &s.Semester, &s.Year, &status, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.Status = model.SectionStatus(status)
	return s, nil
}

func (r *sectionRepository) List(ctx context.Context) ([]model.Section, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sectionColumns+` FROM sections ORDER BY year DESC, semester, name`)
	if err != nil {
		return nil, Classify(err)
	}
	defer rows.Close()

	var sections []model.Section
	for rows.Next() {
		s, err := scanSection(rows)
		if err != nil {
			return nil, Classify(err)
		}
		sections = append(sections, *s)
	}
	return sections, Classify(rows.Err())
}

func (r *sectionRepository) GetByID(ctx context.Context, id int) (*model.Section, error) {
	s, err := scanSection(r.pool.QueryRow(ctx,
		`SELECT `+sectionColumns+` FROM sections WHERE id = $1`, id))
	if err != nil {
		return nil, Classify(err)
	}
	return s, nil
}

func (r *sectionRepository) Create(ctx context.Context, section *model.Section) error {
	if section.Status == "" {
		section.Status = model.SectionStatusActive
	}
	query := `
		INSERT INTO sections (name, program_id, faculty_id, semester, year, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		section.Name, section.ProgramID, section.FacultyID, section.Semester, section.Year, string(section.Status),
	).Scan(&section.ID, &section.CreatedAt, &section.UpdatedAt)
	return Classify(err)
}

// Patch builds an UPDATE touching only the members present on the patch.
// An empty patch degrades to a read.
func (r *sectionRepository) Patch(ctx context.Context, id int, patch model.SectionPatch) (*model.Section, error) {
	if patch.Empty() {
		return r.GetByID(ctx, id)
	}

	var (
		sets []string
		args []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Semester != nil {
		add("semester", *patch.Semester)
	}
	if patch.Year != nil {
		add("year", *patch.Year)
	}
	if patch.Status != nil {
		add("status", string(*patch.Status))
	}
	if patch.Faculty != nil {
		add("faculty_id", patch.Faculty.ID)
	}
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE sections SET %s, updated_at = CURRENT_TIMESTAMP WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), sectionColumns)
	s, err := scanSection(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, Classify(err)
	}
	return s, nil
}

// Delete removes the section; its schedules go with it (ON DELETE CASCADE).
func (r *sectionRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sections WHERE id = $1`, id)
	if err != nil {
		return Classify(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("section %d: %w", id, ErrNotFound)
	}
	return nil
}
