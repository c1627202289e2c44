package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Options is the static option catalog the admin screens pick from.
type Options struct {
	Days     []string `yaml:"days" json:"days"`
	Rooms    []string `yaml:"rooms" json:"rooms"`
	Statuses []string `yaml:"statuses" json:"statuses"`
}

// DefaultOptions is used when no options file exists.
func DefaultOptions() Options {
	return Options{
		Days:     []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"},
		Statuses: []string{"ACTIVE", "CANCELLED", "COMPLETED", "FULL"},
	}
}

// LoadOptions reads the catalog at path. A missing file yields the defaults;
// omitted lists fall back to their default values.
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return opts, nil
	}
	if err != nil {
		return Options{}, fmt.Errorf("read options file: %w", err)
	}
	return ParseOptions(raw)
}

// ParseOptions decodes a YAML catalog.
func ParseOptions(raw []byte) (Options, error) {
	var parsed Options
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return Options{}, fmt.Errorf("parse options file: %w", err)
	}
	opts := DefaultOptions()
	if len(parsed.Days) > 0 {
		opts.Days = parsed.Days
	}
	if len(parsed.Rooms) > 0 {
		opts.Rooms = parsed.Rooms
	}
	if len(parsed.Statuses) > 0 {
		opts.Statuses = parsed.Statuses
	}
	return opts, nil
}
