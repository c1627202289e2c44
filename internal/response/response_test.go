package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(h gin.HandlerFunc) *httptest.ResponseRecorder {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", h)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-1")
	r.ServeHTTP(w, req)
	return w
}

func TestFailWithDetails(t *testing.T) {
	w := serve(func(c *gin.Context) {
		FailWithDetails(c, http.StatusConflict, ErrScheduleConflict, "", []int{4, 9})
	})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "req-1", w.Header().Get("X-Request-ID"))

	var body struct {
		Data  any `json:"data"`
		Error struct {
			Code    ErrCode `json:"code"`
			Message string  `json:"message"`
			Details []int   `json:"details"`
		} `json:"error"`
		Metadata Metadata `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Nil(t, body.Data)
	assert.Equal(t, ErrScheduleConflict, body.Error.Code)
	assert.Equal(t, GetMessage(ErrScheduleConflict), body.Error.Message)
	assert.Equal(t, []int{4, 9}, body.Error.Details)
	assert.Equal(t, "req-1", body.Metadata.RequestID)
}

func TestEveryCodeHasAMessage(t *testing.T) {
	codes := []ErrCode{
		ErrTokenRequired, ErrTokenInvalid, ErrTokenExpired, ErrForbidden, ErrPermissionDenied,
		ErrAdminAccessOnly, ErrValidation, ErrInvalidID, ErrInvalidPayload, ErrNotFound,
		ErrConflict, ErrDependencyExists, ErrScheduleConflict, ErrCourseTimeConflict,
		ErrInstructorConflict, ErrRateLimitExceeded, ErrStoreUnavailable, ErrInternal,
	}
	fallback := GetMessage("UNKNOWN")
	for _, code := range codes {
		assert.NotEqual(t, fallback, GetMessage(code), code)
	}
}

func TestRequestIDReplacesUnsafeHeader(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, RequestID(c)) })

	for _, incoming := range []string{"", "has space", "line\nbreak", strings.Repeat("a", 65)} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if incoming != "" {
			req.Header["X-Request-Id"] = []string{incoming}
		}
		r.ServeHTTP(w, req)

		_, err := uuid.Parse(w.Body.String())
		assert.NoError(t, err, "incoming %q", incoming)
		assert.Equal(t, w.Body.String(), w.Header().Get("X-Request-ID"))
	}
}
