package scheduling

import (
	"fmt"
	"strings"

	"github.com/stemsi/jadwal-backend/internal/model"
)

// DefaultDays is the teaching week used when no catalog is configured.
var DefaultDays = []model.Weekday{
	model.Monday,
	model.Tuesday,
	model.Wednesday,
	model.Thursday,
	model.Friday,
	model.Saturday,
}

// Catalog holds the option lists a slot is validated against. Rooms and days
// are opaque labels; an empty Rooms list accepts any non-empty room name.
type Catalog struct {
	Days  []model.Weekday `json:"days"`
	Rooms []string        `json:"rooms"`
}

// DefaultCatalog accepts Monday to Saturday and any room.
func DefaultCatalog() Catalog {
	return Catalog{Days: append([]model.Weekday(nil), DefaultDays...)}
}

// NewCatalog builds a catalog from configured day names and rooms.
func NewCatalog(days, rooms []string) (Catalog, error) {
	c := Catalog{}
	for _, raw := range days {
		d, err := model.ParseWeekday(raw)
		if err != nil {
			return Catalog{}, err
		}
		c.Days = append(c.Days, d)
	}
	if len(c.Days) == 0 {
		c.Days = append(c.Days, DefaultDays...)
	}

	seen := make(map[string]bool, len(rooms))
	for _, r := range rooms {
		r = strings.TrimSpace(r)
		if r == "" {
			return Catalog{}, fmt.Errorf("room names must not be blank")
		}
		if seen[r] {
			return Catalog{}, fmt.Errorf("duplicate room %q", r)
		}
		seen[r] = true
		c.Rooms = append(c.Rooms, r)
	}
	return c, nil
}

// AllowsDay reports whether d is a teaching day.
func (c Catalog) AllowsDay(d model.Weekday) bool {
	for _, v := range c.Days {
		if v == d {
			return true
		}
	}
	return false
}

// AllowsRoom reports whether room may be booked.
func (c Catalog) AllowsRoom(room string) bool {
	if room == "" {
		return false
	}
	if len(c.Rooms) == 0 {
		return true
	}
	for _, r := range c.Rooms {
		if r == room {
			return true
		}
	}
	return false
}

// ParseSlot validates raw schedule fields. It returns the slot, or a map of
// field name to message when any field is missing or malformed.
func (c Catalog) ParseSlot(f model.ScheduleFields) (model.Slot, map[string]string) {
	slot, fields := c.parseWindow(f.Day, f.StartTime, f.EndTime)

	slot.Room = strings.TrimSpace(f.Room)
	if slot.Room == "" {
		fields["room"] = "room is required"
	} else if !c.AllowsRoom(slot.Room) {
		fields["room"] = fmt.Sprintf("room %q is not bookable", slot.Room)
	}

	if len(fields) > 0 {
		return model.Slot{}, fields
	}
	return slot, nil
}

// ParseWindow validates a day and time range without a room.
func (c Catalog) ParseWindow(day, start, end string) (model.Slot, map[string]string) {
	slot, fields := c.parseWindow(day, start, end)
	if len(fields) > 0 {
		return model.Slot{}, fields
	}
	return slot, nil
}

func (c Catalog) parseWindow(day, start, end string) (model.Slot, map[string]string) {
	fields := make(map[string]string)
	var slot model.Slot

	if strings.TrimSpace(day) == "" {
		fields["day"] = "day is required"
	} else if d, err := model.ParseWeekday(day); err != nil {
		fields["day"] = "day must be a weekday name"
	} else if !c.AllowsDay(d) {
		fields["day"] = fmt.Sprintf("%s is not a teaching day", d)
	} else {
		slot.Day = d
	}

	slot.Start = parseClockField(fields, "start_time", start)
	slot.End = parseClockField(fields, "end_time", end)
	if _, bad := fields["start_time"]; !bad {
		if _, bad := fields["end_time"]; !bad && slot.Start >= slot.End {
			fields["end_time"] = "end_time must be after start_time"
		}
	}
	return slot, fields
}

func parseClockField(fields map[string]string, name, raw string) model.Clock {
	if strings.TrimSpace(raw) == "" {
		fields[name] = name + " is required"
		return 0
	}
	v, err := model.ParseClock(raw)
	if err != nil {
		fields[name] = name + " must be a time of day (HH:MM)"
		return 0
	}
	return v
}
