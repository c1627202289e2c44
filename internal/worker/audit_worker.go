package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/stemsi/jadwal-backend/internal/config"
	"github.com/stemsi/jadwal-backend/internal/events"
	"github.com/stemsi/jadwal-backend/internal/model"
	"github.com/stemsi/jadwal-backend/internal/repository"
)

const retryDelay = 5 * time.Second

// AuditWorker writes every schedule change event into the audit log.
// With Redis it consumes schedule_audit_queue, which survives restarts;
// without it, it follows the in-process bus.
type AuditWorker struct {
	rdb   *redis.Client
	bus   events.Bus
	audit repository.AuditRepository
	log   zerolog.Logger
}

// NewAuditWorker creates a new AuditWorker. rdb may be nil, in which case
// bus is followed instead.
func NewAuditWorker(rdb *redis.Client, bus events.Bus, audit repository.AuditRepository, log zerolog.Logger) *AuditWorker {
	return &AuditWorker{
		rdb:   rdb,
		bus:   bus,
		audit: audit,
		log:   log.With().Str("component", "audit_worker").Logger(),
	}
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *AuditWorker) Start(ctx context.Context) {
	w.log.Info().Bool("redis", w.rdb != nil).Msg("Worker started")

	if w.rdb == nil {
		w.follow(ctx)
		w.log.Info().Msg("Worker stopped")
		return
	}

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			// Drain remaining items before exit.
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

// follow records events straight off the bus until ctx is done.
func (w *AuditWorker) follow(ctx context.Context) {
	changes, err := w.bus.Subscribe(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("Subscribe failed, audit log disabled")
		return
	}
	for event := range changes {
		if err := w.audit.Record(context.Background(), event); err != nil {
			w.log.Error().Err(err).Str("event_id", event.ID.String()).Msg("Record error, event dropped")
		}
	}
}

func (w *AuditWorker) processNext(ctx context.Context) {
	queue := config.WorkerKey.ScheduleAuditQueue

	// BLPop blocks until an item is available or timeout (1 second).
	result, err := w.rdb.BLPop(ctx, time.Second, queue).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}
	if len(result) < 2 {
		return
	}

	var event model.ScheduleEvent
	if err := json.Unmarshal([]byte(result[1]), &event); err != nil {
		w.log.Error().Err(err).Msg("Unmarshal error, event dropped")
		return
	}

	if err := w.audit.Record(ctx, event); err != nil {
		w.log.Error().Err(err).
			Str("event_id", event.ID.String()).
			Int("section_id", event.SectionID).
			Msg("Record error, retrying in 5s")
		// Push back to queue for retry. Record is idempotent by event id.
		w.rdb.RPush(context.Background(), queue, result[1])
		select {
		case <-ctx.Done():
		case <-time.After(retryDelay):
		}
	}
}

// drain processes all remaining items in the queue before shutdown.
func (w *AuditWorker) drain(ctx context.Context) {
	queue := config.WorkerKey.ScheduleAuditQueue
	drained := 0
	for {
		result, err := w.rdb.LPop(ctx, queue).Result()
		if err != nil {
			break
		}

		var event model.ScheduleEvent
		if err := json.Unmarshal([]byte(result), &event); err != nil {
			w.log.Error().Err(err).Msg("Drain unmarshal error")
			continue
		}

		if err := w.audit.Record(ctx, event); err != nil {
			w.log.Error().Err(err).Msg("Drain record error")
			w.rdb.RPush(ctx, queue, result)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}
