// Package events carries schedule change notifications from the services to
// the live change feed and the audit queue.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/stemsi/jadwal-backend/internal/config"
	"github.com/stemsi/jadwal-backend/internal/model"
)

// Bus publishes committed changes and lets listeners follow them.
// The channel returned by Subscribe is closed once ctx is done.
type Bus interface {
	Publish(ctx context.Context, event model.ScheduleEvent) error
	Subscribe(ctx context.Context) (<-chan model.ScheduleEvent, error)
}

// subscriberBuffer bounds how far a slow listener may fall behind before
// events are dropped for it.
const subscriberBuffer = 32

// ----------------------------------------------------------------
// Redis
// ----------------------------------------------------------------

// RedisBus fans events out over Redis Pub/Sub so every API instance sees them,
// and queues each one for the audit worker.
type RedisBus struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewRedisBus creates a RedisBus.
func NewRedisBus(rdb *redis.Client, log zerolog.Logger) *RedisBus {
	return &RedisBus{
		rdb: rdb,
		log: log.With().Str("component", "event_bus").Logger(),
	}
}

func (b *RedisBus) Publish(ctx context.Context, event model.ScheduleEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pipe := b.rdb.Pipeline()
	pipe.Publish(ctx, config.CacheKey.ScheduleEventsChannel(), payload)
	pipe.RPush(ctx, config.WorkerKey.ScheduleAuditQueue, payload)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

func (b *RedisBus) Subscribe(ctx context.Context) (<-chan model.ScheduleEvent, error) {
	pubsub := b.rdb.Subscribe(ctx, config.CacheKey.ScheduleEventsChannel())
	// Wait for the subscription confirmation so no event is missed after return.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	out := make(chan model.ScheduleEvent, subscriberBuffer)
	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event model.ScheduleEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					b.log.Warn().Err(err).Msg("Dropping malformed event")
					continue
				}
				select {
				case out <- event:
				default:
					b.log.Warn().Str("event_id", event.ID.String()).Msg("Subscriber lagging, event dropped")
				}
			}
		}
	}()
	return out, nil
}

// ----------------------------------------------------------------
// In-process
// ----------------------------------------------------------------

// Local delivers events to subscribers of this process only. It is used when
// Redis is not configured and in tests.
type Local struct {
	mu   sync.Mutex
	subs map[chan model.ScheduleEvent]struct{}
}

// NewLocal creates an in-process bus.
func NewLocal() *Local {
	return &Local{subs: make(map[chan model.ScheduleEvent]struct{})}
}

func (l *Local) Publish(ctx context.Context, event model.ScheduleEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for ch := range l.subs {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

func (l *Local) Subscribe(ctx context.Context) (<-chan model.ScheduleEvent, error) {
	ch := make(chan model.ScheduleEvent, subscriberBuffer)
	l.mu.Lock()
	l.subs[ch] = struct{}{}
	l.mu.Unlock()

	go func() {
		<-ctx.Done()
		l.mu.Lock()
		delete(l.subs, ch)
		close(ch)
		l.mu.Unlock()
	}()
	return ch, nil
}

// Recorder keeps every published event in memory. Tests use it to assert
// on what the services announced.
type Recorder struct {
	Local
	mu     sync.Mutex
	events []model.ScheduleEvent
}

// NewRecorder creates a Recorder that also forwards to its own subscribers.
func NewRecorder() *Recorder {
	return &Recorder{Local: Local{subs: make(map[chan model.ScheduleEvent]struct{})}}
}

func (r *Recorder) Publish(ctx context.Context, event model.ScheduleEvent) error {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
	return r.Local.Publish(ctx, event)
}

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []model.ScheduleEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.ScheduleEvent(nil), r.events...)
}
