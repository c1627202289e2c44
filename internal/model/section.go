package model

import (
	"bytes"
	"encoding/json"
	"time"
)

// SectionStatus enumerates the lifecycle states of a section.
type SectionStatus string

const (
	SectionStatusActive   SectionStatus = "ACTIVE"
	SectionStatusInactive SectionStatus = "INACTIVE"
	SectionStatusArchived SectionStatus = "ARCHIVED"
)

// Section is one cohort-period grouping of students inside a program.
type Section struct {
	ID        int           `json:"id"`
	Name      string        `json:"name"`
	ProgramID int           `json:"program_id"`
	FacultyID *int          `json:"faculty_id"`
	Semester  string        `json:"semester"`
	Year      int           `json:"year"`
	Status    SectionStatus `json:"status"`
	Schedules []Schedule    `json:"schedules,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// FacultyRef names the instructor a patch binds. A nil ID unassigns.
type FacultyRef struct {
	ID *int
}

// SectionPatch lists the section attributes a partial update may change.
// Nil members are left untouched. Schedules are not part of a section patch;
// they change only through the schedule operations.
type SectionPatch struct {
	Name     *string
	Semester *string
	Year     *int
	Status   *SectionStatus
	Faculty  *FacultyRef
}

// Empty reports whether the patch changes nothing.
func (p SectionPatch) Empty() bool {
	return p.Name == nil && p.Semester == nil && p.Year == nil && p.Status == nil && p.Faculty == nil
}

// FacultyOnly reports whether the patch touches nothing but the instructor.
func (p SectionPatch) FacultyOnly() bool {
	return p.Faculty != nil && p.Name == nil && p.Semester == nil && p.Year == nil && p.Status == nil
}

// OptionalInt distinguishes an absent JSON member from an explicit null.
type OptionalInt struct {
	Set   bool
	Value *int
}

func (o *OptionalInt) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

func (o OptionalInt) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.Value)
}

// Ref converts the member into a FacultyRef, or nil when it was absent.
func (o OptionalInt) Ref() *FacultyRef {
	if !o.Set {
		return nil
	}
	return &FacultyRef{ID: o.Value}
}

// CreateSectionRequest is the payload for creating a section.
type CreateSectionRequest struct {
	Name      string        `json:"name" binding:"required,min=1,max=100"`
	ProgramID int           `json:"program_id" binding:"required,min=1"`
	FacultyID *int          `json:"faculty_id" binding:"omitempty,min=1"`
	Semester  string        `json:"semester" binding:"required,max=20"`
	Year      int           `json:"year" binding:"required,min=2000,max=2100"`
	Status    SectionStatus `json:"status" binding:"omitempty,oneof=ACTIVE INACTIVE ARCHIVED"`
}

// PatchSectionRequest is the payload of a partial section update.
// Schedules is only captured so that a body carrying it can be refused.
type PatchSectionRequest struct {
	Name      *string         `json:"name" binding:"omitempty,min=1,max=100"`
	Semester  *string         `json:"semester" binding:"omitempty,max=20"`
	Year      *int            `json:"year" binding:"omitempty,min=2000,max=2100"`
	Status    *SectionStatus  `json:"status" binding:"omitempty,oneof=ACTIVE INACTIVE ARCHIVED"`
	FacultyID OptionalInt     `json:"faculty_id"`
	Schedules json.RawMessage `json:"schedules"`
}

// Patch converts the request into a SectionPatch.
func (r PatchSectionRequest) Patch() SectionPatch {
	return SectionPatch{
		Name:     r.Name,
		Semester: r.Semester,
		Year:     r.Year,
		Status:   r.Status,
		Faculty:  r.FacultyID.Ref(),
	}
}

// AssignFacultyRequest is the payload of a faculty-only rebind. faculty_id
// must be present; an explicit null unassigns.
type AssignFacultyRequest struct {
	FacultyID OptionalInt `json:"faculty_id"`
}
