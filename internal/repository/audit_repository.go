package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/jadwal-backend/internal/model"
)

type auditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository creates a PostgreSQL-backed AuditRepository.
func NewAuditRepository(pool *pgxpool.Pool) AuditRepository {
	return &auditRepository{pool: pool}
}

func (r *auditRepository) Record(ctx context.Context, e model.ScheduleEvent) error {
	// schedule_id is nullable: section events carry none.
	var scheduleID *int
	if e.ScheduleID != 0 {
		scheduleID = &e.ScheduleID
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO schedule_audit_log (event_id, event_type, section_id, schedule_id, occurred_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (event_id) DO NOTHING`,
		e.ID, string(e.Type), e.SectionID, scheduleID, e.OccurredAt,
	)
	return Classify(err)
}

func (r *auditRepository) ListBySection(ctx context.Context, sectionID int) ([]model.ScheduleEvent, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT event_id, event_type, section_id, COALESCE(schedule_id, 0), occurred_at
		 FROM schedule_audit_log WHERE section_id = $1 ORDER BY occurred_at ASC, id ASC`, sectionID)
	if err != nil {
		return nil, Classify(err)
	}
	defer rows.Close()

	var events []model.ScheduleEvent
	for rows.Next() {
		var e model.ScheduleEvent
		var typ string
		if err := rows.Scan(&e.ID, &typ, &e.SectionID, &e.ScheduleID, &e.OccurredAt); err != nil {
			return nil, Classify(err)
		}
		e.Type = model.EventType(typ)
		events = append(events, e)
	}
	return events, Classify(rows.Err())
}
