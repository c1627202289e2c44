package model

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies what changed in a ScheduleEvent.
type EventType string

const (
	EventScheduleCreated       EventType = "schedule.created"
	EventScheduleUpdated       EventType = "schedule.updated"
	EventScheduleStatusChanged EventType = "schedule.status_changed"
	EventScheduleDeleted       EventType = "schedule.deleted"
	EventSectionCreated        EventType = "section.created"
	EventSectionUpdated        EventType = "section.updated"
	EventSectionFacultyChanged EventType = "section.faculty_changed"
	EventSectionDeleted        EventType = "section.deleted"
)

// ScheduleEvent announces a committed change so that open screens can reload.
type ScheduleEvent struct {
	ID         uuid.UUID `json:"id"`
	Type       EventType `json:"type"`
	SectionID  int       `json:"section_id"`
	ScheduleID int       `json:"schedule_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewScheduleEvent stamps a new event with a fresh id and the current time.
func NewScheduleEvent(t EventType, sectionID, scheduleID int) ScheduleEvent {
	return ScheduleEvent{
		ID:         uuid.New(),
		Type:       t,
		SectionID:  sectionID,
		ScheduleID: scheduleID,
		OccurredAt: time.Now().UTC(),
	}
}
