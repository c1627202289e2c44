package model

import (
	"strings"
	"time"
)

// Faculty is an instructor that can be bound to sections.
type Faculty struct {
	ID        int       `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	ProgramID *int      `json:"program_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FullName joins the first and last name.
func (f Faculty) FullName() string {
	return strings.TrimSpace(f.FirstName + " " + f.LastName)
}
