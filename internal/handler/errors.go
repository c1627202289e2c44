package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/stemsi/jadwal-backend/internal/response"
	"github.com/stemsi/jadwal-backend/internal/service"
)

// conflictDetails is the error.details body of a 409.
type conflictDetails struct {
	Rule      string                    `json:"rule"`
	Dimension service.ConflictDimension `json:"dimension"`
	Conflicts interface{}               `json:"conflicts"`
}

// writeServiceError maps a service error class onto the response envelope.
func writeServiceError(c *gin.Context, log zerolog.Logger, err error) {
	var (
		ve *service.ValidationError
		ce *service.ConflictError
		nf *service.NotFoundError
		te *service.TransportError
	)
	switch {
	case errors.As(err, &ve):
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, ve.Fields)

	case errors.As(err, &ce):
		code := response.ErrScheduleConflict
		switch ce.Dimension {
		case service.DimensionCourse:
			code = response.ErrCourseTimeConflict
		case service.DimensionInstructor:
			code = response.ErrInstructorConflict
		}
		response.FailWithDetails(c, http.StatusConflict, code, "", conflictDetails{
			Rule:      ce.Rule,
			Dimension: ce.Dimension,
			Conflicts: conflictList(ce),
		})

	case errors.As(err, &nf):
		response.FailWithDetails(c, http.StatusNotFound, response.ErrNotFound, "", gin.H{
			"entity": nf.Entity,
			"id":     nf.ID,
		})

	case errors.As(err, &te):
		log.Error().Err(err).Str("op", te.Op).Str("request_id", response.RequestID(c)).Msg("Store unavailable")
		response.Fail(c, http.StatusServiceUnavailable, response.ErrStoreUnavailable)

	default:
		log.Error().Err(err).Str("request_id", response.RequestID(c)).Msg("Unhandled service error")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

func conflictList(ce *service.ConflictError) interface{} {
	if len(ce.Conflicts) == 0 {
		return []struct{}{}
	}
	return ce.Conflicts
}

// parseID reads a positive integer path parameter.
func parseID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return id, true
}
