// Package scheduling holds the slot arithmetic behind schedule validation:
// half-open interval overlap, the day/time conflict scan and its room and
// instructor filters. It performs no I/O.
package scheduling

import "github.com/stemsi/jadwal-backend/internal/model"

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect.
// A window ending at T does not overlap one starting at T.
func Overlaps(aStart, aEnd, bStart, bEnd model.Clock) bool {
	return aStart < bEnd && aEnd > bStart
}

// SlotsOverlap reports whether two slots share a day and overlapping times.
// Rooms are ignored.
func SlotsOverlap(a, b model.Slot) bool {
	return a.Day == b.Day && Overlaps(a.Start, a.End, b.Start, b.End)
}

// Conflicts returns the blocking schedules that fall on the slot's day and
// overlap its time window. excludeID skips one schedule (the one being edited);
// zero excludes nothing.
func Conflicts(existing []model.Schedule, slot model.Slot, excludeID int) []model.Schedule {
	var out []model.Schedule
	for _, s := range existing {
		if excludeID != 0 && s.ID == excludeID {
			continue
		}
		if !s.Status.Blocking() {
			continue
		}
		if s.Day != slot.Day {
			continue
		}
		if Overlaps(s.StartTime, s.EndTime, slot.Start, slot.End) {
			out = append(out, s)
		}
	}
	return out
}

// CourseConflict reports whether the (sectionID, courseID) pair already has a
// blocking meeting overlapping the slot.
func CourseConflict(existing []model.Schedule, sectionID, courseID int, slot model.Slot, excludeID int) bool {
	for _, s := range Conflicts(existing, slot, excludeID) {
		if s.SectionID == sectionID && s.CourseID == courseID {
			return true
		}
	}
	return false
}

// FilterRoom keeps the conflicts held in room.
func FilterRoom(conflicts []model.Schedule, room string) []model.Schedule {
	var out []model.Schedule
	for _, s := range conflicts {
		if s.Room == room {
			out = append(out, s)
		}
	}
	return out
}

// FilterInstructor keeps the conflicts whose section is taught by facultyID.
func FilterInstructor(conflicts []model.Schedule, facultyID int) []model.Schedule {
	var out []model.Schedule
	for _, s := range conflicts {
		if s.FacultyID != nil && *s.FacultyID == facultyID {
			out = append(out, s)
		}
	}
	return out
}

// ExceptSection drops the schedules owned by sectionID.
func ExceptSection(schedules []model.Schedule, sectionID int) []model.Schedule {
	var out []model.Schedule
	for _, s := range schedules {
		if s.SectionID != sectionID {
			out = append(out, s)
		}
	}
	return out
}
