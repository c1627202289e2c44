package model

import (
	"fmt"
	"strings"
	"time"
)

// Weekday is the day a weekly meeting recurs on.
type Weekday string

const (
	Monday    Weekday = "Monday"
	Tuesday   Weekday = "Tuesday"
	Wednesday Weekday = "Wednesday"
	Thursday  Weekday = "Thursday"
	Friday    Weekday = "Friday"
	Saturday  Weekday = "Saturday"
	Sunday    Weekday = "Sunday"
)

// AllWeekdays lists every weekday in calendar order.
var AllWeekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// ParseWeekday accepts a day name in any letter case and returns its canonical form.
func ParseWeekday(s string) (Weekday, error) {
	s = strings.TrimSpace(s)
	for _, d := range AllWeekdays {
		if strings.EqualFold(string(d), s) {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown weekday %q", s)
}

// ScheduleStatus enumerates the lifecycle states of a schedule.
type ScheduleStatus string

const (
	ScheduleStatusActive    ScheduleStatus = "ACTIVE"
	ScheduleStatusCancelled ScheduleStatus = "CANCELLED"
	ScheduleStatusCompleted ScheduleStatus = "COMPLETED"
	ScheduleStatusFull      ScheduleStatus = "FULL"
)

// AllScheduleStatuses lists the accepted schedule statuses.
var AllScheduleStatuses = []ScheduleStatus{
	ScheduleStatusActive,
	ScheduleStatusCancelled,
	ScheduleStatusCompleted,
	ScheduleStatusFull,
}

// Valid reports whether s is a known status.
func (s ScheduleStatus) Valid() bool {
	for _, v := range AllScheduleStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Blocking reports whether a schedule in this status occupies its slot.
// Cancelled and completed meetings free the room and the instructor.
func (s ScheduleStatus) Blocking() bool {
	return s == ScheduleStatusActive || s == ScheduleStatusFull
}

// Schedule is one weekly recurring meeting of a course for a section.
type Schedule struct {
	ID        int            `json:"id"`
	SectionID int            `json:"section_id"`
	CourseID  int            `json:"course_id"`
	Day       Weekday        `json:"day"`
	StartTime Clock          `json:"start_time"`
	EndTime   Clock          `json:"end_time"`
	Room      string         `json:"room"`
	Status    ScheduleStatus `json:"status"`
	// FacultyID is the owning section's instructor, filled in on reads.
	FacultyID *int      `json:"faculty_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Slot returns the meeting window of the schedule.
func (s Schedule) Slot() Slot {
	return Slot{Day: s.Day, Start: s.StartTime, End: s.EndTime, Room: s.Room}
}

// Slot is a validated weekly meeting window.
type Slot struct {
	Day   Weekday
	Start Clock
	End   Clock
	Room  string
}

func (s Slot) String() string {
	return fmt.Sprintf("%s %s-%s %s", s.Day, s.Start, s.End, s.Room)
}

// ScheduleFields carries the raw meeting fields of a schedule form.
type ScheduleFields struct {
	Day       string `json:"day" binding:"required,weekday"`
	StartTime string `json:"start_time" binding:"required,clock"`
	EndTime   string `json:"end_time" binding:"required,clock"`
	Room      string `json:"room" binding:"required,max=50"`
}

// ScheduleFilter narrows a schedule listing. Zero values match everything.
type ScheduleFilter struct {
	Day  Weekday
	Room string
}

// CreateScheduleRequest is the payload for assigning a course meeting to a section.
// FacultyID, when present, rebinds the section's instructor in the same action.
type CreateScheduleRequest struct {
	CourseID int `json:"course_id" binding:"required,min=1"`
	ScheduleFields
	FacultyID OptionalInt `json:"faculty_id"`
}

// UpdateScheduleRequest replaces the course and meeting fields of a schedule.
type UpdateScheduleRequest struct {
	CourseID int `json:"course_id" binding:"required,min=1"`
	ScheduleFields
}

// UpdateScheduleStatusRequest is the payload for a status-only change.
type UpdateScheduleStatusRequest struct {
	Status ScheduleStatus `json:"status" binding:"required,oneof=ACTIVE CANCELLED COMPLETED FULL"`
}

// ScheduleAssignment is the input of a schedule creation.
type ScheduleAssignment struct {
	SectionID int
	CourseID  int
	Fields    ScheduleFields
	// Faculty is nil when the section's instructor is left as is.
	Faculty *FacultyRef
}

// ScheduleUpdate is the input of a schedule replacement.
type ScheduleUpdate struct {
	CourseID int
	Fields   ScheduleFields
}

// ConflictQuery is the query string of a conflict pre-check. Room and
// ExcludeID are optional.
type ConflictQuery struct {
	Day       string `form:"day" binding:"required,weekday"`
	StartTime string `form:"start_time" binding:"required,clock"`
	EndTime   string `form:"end_time" binding:"required,clock"`
	Room      string `form:"room" binding:"omitempty,max=50"`
	ExcludeID int    `form:"exclude_id" binding:"omitempty,min=1"`
}

// ConflictReport lists the blocking schedules overlapping a proposed window.
// RoomConflicts is the subset held in the requested room.
type ConflictReport struct {
	Day           Weekday    `json:"day"`
	StartTime     Clock      `json:"start_time"`
	EndTime       Clock      `json:"end_time"`
	Room          string     `json:"room,omitempty"`
	Conflicts     []Schedule `json:"conflicts"`
	RoomConflicts []Schedule `json:"room_conflicts"`
}
