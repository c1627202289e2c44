package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/stemsi/jadwal-backend/internal/config"
	"github.com/stemsi/jadwal-backend/internal/response"
	"github.com/stemsi/jadwal-backend/internal/service"
)

// DirectoryHandler serves the reference lists and the option catalog.
type DirectoryHandler struct {
	directory *service.DirectoryService
	options   config.Options
	log       zerolog.Logger
}

// NewDirectoryHandler creates a new DirectoryHandler.
func NewDirectoryHandler(directory *service.DirectoryService, options config.Options, log zerolog.Logger) *DirectoryHandler {
	return &DirectoryHandler{
		directory: directory,
		options:   options,
		log:       log.With().Str("component", "directory_handler").Logger(),
	}
}

// ListPrograms godoc
// GET /api/v1/admin/programs
func (h *DirectoryHandler) ListPrograms(c *gin.Context) {
	programs, err := h.directory.ListPrograms(c.Request.Context())
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"programs": programs})
}

// ListCourses godoc
// GET /api/v1/admin/courses
func (h *DirectoryHandler) ListCourses(c *gin.Context) {
	courses, err := h.directory.ListCourses(c.Request.Context())
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"courses": courses})
}

// ListFaculty godoc
// GET /api/v1/admin/faculty
func (h *DirectoryHandler) ListFaculty(c *gin.Context) {
	faculty, err := h.directory.ListFaculty(c.Request.Context())
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"faculty": faculty})
}

// ListSections godoc
// GET /api/v1/admin/sections?program_id=
func (h *DirectoryHandler) ListSections(c *gin.Context) {
	programID := 0
	if raw := c.Query("program_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id <= 0 {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
				map[string]string{"program_id": "program_id must be a positive integer"})
			return
		}
		programID = id
	}

	sections, err := h.directory.ListSections(c.Request.Context(), programID)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"sections": sections})
}

// GetSection godoc
// GET /api/v1/admin/sections/:id
func (h *DirectoryHandler) GetSection(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	section, err := h.directory.GetSection(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"section": section})
}

// Options godoc
// GET /api/v1/admin/options
func (h *DirectoryHandler) Options(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"options": h.options})
}
