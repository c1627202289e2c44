package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/stemsi/jadwal-backend/internal/model"
	"github.com/stemsi/jadwal-backend/internal/response"
	"github.com/stemsi/jadwal-backend/internal/service"
	"github.com/stemsi/jadwal-backend/internal/validator"
)

// ScheduleHandler handles schedule assignment and conflict checks.
type ScheduleHandler struct {
	schedules *service.ScheduleService
	conflicts *service.ConflictService
	log       zerolog.Logger
}

// NewScheduleHandler creates a new ScheduleHandler.
func NewScheduleHandler(schedules *service.ScheduleService, conflicts *service.ConflictService, log zerolog.Logger) *ScheduleHandler {
	return &ScheduleHandler{
		schedules: schedules,
		conflicts: conflicts,
		log:       log.With().Str("component", "schedule_handler").Logger(),
	}
}

// Conflicts godoc
// GET /api/v1/admin/schedules/conflicts?day=&start_time=&end_time=&room=&exclude_id=
func (h *ScheduleHandler) Conflicts(c *gin.Context) {
	var q model.ConflictQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	report, err := h.conflicts.Report(c.Request.Context(), q)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"report": report})
}

// List godoc
// GET /api/v1/admin/schedules?day=&room=
func (h *ScheduleHandler) List(c *gin.Context) {
	filter := model.ScheduleFilter{Room: c.Query("room")}
	if raw := c.Query("day"); raw != "" {
		day, err := model.ParseWeekday(raw)
		if err != nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
				map[string]string{"day": "day must be a weekday name"})
			return
		}
		filter.Day = day
	}

	schedules, err := h.schedules.ListSchedules(c.Request.Context(), filter)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"schedules": schedules})
}

// ListBySection godoc
// GET /api/v1/admin/sections/:id/schedules
func (h *ScheduleHandler) ListBySection(c *gin.Context) {
	sectionID, ok := parseID(c, "id")
	if !ok {
		return
	}
	schedules, err := h.schedules.ListSectionSchedules(c.Request.Context(), sectionID)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"schedules": schedules})
}

// Get godoc
// GET /api/v1/admin/schedules/:id
func (h *ScheduleHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	schedule, err := h.schedules.GetSchedule(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"schedule": schedule})
}

// Create godoc
// POST /api/v1/admin/sections/:id/schedules
// A faculty_id member, when present, rebinds the section's instructor in the
// same call; null unassigns it.
func (h *ScheduleHandler) Create(c *gin.Context) {
	sectionID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req model.CreateScheduleRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	if req.FacultyID.Value != nil && *req.FacultyID.Value <= 0 {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{
			"faculty_id": "faculty_id must be a positive integer or null",
		})
		return
	}

	schedule, err := h.schedules.CreateSchedule(c.Request.Context(), model.ScheduleAssignment{
		SectionID: sectionID,
		CourseID:  req.CourseID,
		Fields:    req.ScheduleFields,
		Faculty:   req.FacultyID.Ref(),
	})
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"schedule": schedule})
}

// Update godoc
// PUT /api/v1/admin/schedules/:id
func (h *ScheduleHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req model.UpdateScheduleRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	schedule, err := h.schedules.UpdateSchedule(c.Request.Context(), id, model.ScheduleUpdate{
		CourseID: req.CourseID,
		Fields:   req.ScheduleFields,
	})
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"schedule": schedule})
}

// UpdateStatus godoc
// PATCH /api/v1/admin/schedules/:id/status
func (h *ScheduleHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req model.UpdateScheduleStatusRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	schedule, err := h.schedules.UpdateScheduleStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"schedule": schedule})
}

// Delete godoc
// DELETE /api/v1/admin/schedules/:id
func (h *ScheduleHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.schedules.DeleteSchedule(c.Request.Context(), id); err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "schedule deleted successfully"})
}
