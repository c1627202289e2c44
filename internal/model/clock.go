package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Clock is a time of day expressed as minutes after midnight.
// It is serialized as "HH:MM".
type Clock int

// MinutesPerDay is the exclusive upper bound of a Clock value.
const MinutesPerDay = 24 * 60

// ParseClock parses "HH:MM" or "HH:MM:SS" (seconds must be zero).
func ParseClock(s string) (Clock, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 || len(parts[0]) > 2 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	if len(parts) == 3 && parts[2] != "00" {
		return 0, fmt.Errorf("seconds are not supported in %q", s)
	}

	return Clock(hour*60 + minute), nil
}

// MustClock is ParseClock for literals; it panics on malformed input.
func MustClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Valid reports whether c lies within a single day.
func (c Clock) Valid() bool {
	return c >= 0 && c < MinutesPerDay
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

func (c Clock) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Clock) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("time of day must be a string: %w", err)
	}
	parsed, err := ParseClock(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
