package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/stemsi/jadwal-backend/internal/events"
	"github.com/stemsi/jadwal-backend/internal/model"
)

// notifier announces committed changes. The change is already persisted, so
// a failed publish is logged and never returned.
type notifier struct {
	bus events.Bus
	log zerolog.Logger
}

func (n notifier) publish(ctx context.Context, t model.EventType, sectionID, scheduleID int) {
	if n.bus == nil {
		return
	}
	event := model.NewScheduleEvent(t, sectionID, scheduleID)
	if err := n.bus.Publish(ctx, event); err != nil {
		n.log.Warn().Err(err).
			Str("event", string(t)).
			Int("section_id", sectionID).
			Int("schedule_id", scheduleID).
			Msg("Failed to publish change event")
	}
}
