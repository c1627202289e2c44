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

// SectionHandler handles section writes and instructor binding.
type SectionHandler struct {
	sections *service.SectionService
	log      zerolog.Logger
}

// NewSectionHandler creates a new SectionHandler.
func NewSectionHandler(sections *service.SectionService, log zerolog.Logger) *SectionHandler {
	return &SectionHandler{
		sections: sections,
		log:      log.With().Str("component", "section_handler").Logger(),
	}
}

// Create godoc
// POST /api/v1/admin/sections
func (h *SectionHandler) Create(c *gin.Context) {
	var req model.CreateSectionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	section, err := h.sections.CreateSection(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"section": section})
}

// Patch godoc
// PATCH /api/v1/admin/sections/:id
// Only the members present in the body change. Schedules are managed through
// their own endpoints, so a body carrying "schedules" is refused.
func (h *SectionHandler) Patch(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req model.PatchSectionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	if req.Schedules != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{
			"schedules": "schedules cannot be changed through a section update",
		})
		return
	}
	if req.FacultyID.Value != nil && *req.FacultyID.Value <= 0 {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{
			"faculty_id": "faculty_id must be a positive integer or null",
		})
		return
	}

	section, err := h.sections.PatchSection(c.Request.Context(), id, req.Patch())
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"section": section})
}

// AssignFaculty godoc
// PUT /api/v1/admin/sections/:id/faculty
// faculty_id is required. An explicit null unassigns the instructor.
func (h *SectionHandler) AssignFaculty(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req model.AssignFacultyRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	switch {
	case !req.FacultyID.Set:
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{
			"faculty_id": "faculty_id is required; send null to unassign",
		})
		return
	case req.FacultyID.Value != nil && *req.FacultyID.Value <= 0:
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{
			"faculty_id": "faculty_id must be a positive integer or null",
		})
		return
	}

	section, err := h.sections.AssignFaculty(c.Request.Context(), id, req.FacultyID.Value)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"section": section})
}

// Delete godoc
// DELETE /api/v1/admin/sections/:id
func (h *SectionHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.sections.DeleteSection(c.Request.Context(), id); err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "section deleted successfully"})
}

// History godoc
// GET /api/v1/admin/sections/:id/history
func (h *SectionHandler) History(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	history, err := h.sections.History(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"history": history})
}
