package model

import "time"

// Course is a reference entity taught by sections through schedules.
type Course struct {
	ID          int       `json:"id"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
	Credits     int       `json:"credits"`
	ProgramID   int       `json:"program_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
