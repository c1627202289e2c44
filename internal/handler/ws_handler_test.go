package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/jadwal-backend/internal/events"
	"github.com/stemsi/jadwal-backend/internal/middleware"
	"github.com/stemsi/jadwal-backend/internal/model"
	"github.com/stemsi/jadwal-backend/internal/service"
	ws "github.com/stemsi/jadwal-backend/internal/websocket"
)

func streamServer(t *testing.T, bus events.Bus) string {
	t.Helper()
	h := NewWSHandler(bus, zerolog.Nop(), nil)
	r := gin.New()
	r.GET("/stream", func(c *gin.Context) {
		c.Set(middleware.ContextKeyClaims, &service.Claims{TokenType: service.TokenTypeAdmin, UserID: 1})
		c.Next()
	}, h.ScheduleStream)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/stream"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	return conn
}

func TestScheduleStreamRelaysChanges(t *testing.T) {
	bus := events.NewLocal()
	conn := dial(t, streamServer(t, bus))

	var ready ws.ReadyResponse
	require.NoError(t, conn.ReadJSON(&ready))
	assert.Equal(t, ws.EventReady, ready.Event)

	event := model.NewScheduleEvent(model.EventScheduleCreated, 3, 11)
	require.NoError(t, bus.Publish(t.Context(), event))

	var change ws.ChangeResponse
	require.NoError(t, conn.ReadJSON(&change))
	assert.Equal(t, ws.EventChange, change.Event)
	assert.Equal(t, event.ID, change.Change.ID)
	assert.Equal(t, 11, change.Change.ScheduleID)

	require.NoError(t, conn.WriteJSON(ws.RequestEnvelope{Action: ws.ActionPing}))
	var pong ws.PongResponse
	require.NoError(t, conn.ReadJSON(&pong))
	assert.Equal(t, ws.EventPong, pong.Event)
}

func TestScheduleStreamFollow(t *testing.T) {
	bus := events.NewLocal()
	conn := dial(t, streamServer(t, bus))

	var ready ws.ReadyResponse
	require.NoError(t, conn.ReadJSON(&ready))

	require.NoError(t, conn.WriteJSON(ws.FollowRequest{Action: ws.ActionFollow, SectionIDs: []int{2, 2, -1}}))
	require.NoError(t, conn.ReadJSON(&ready))
	assert.Equal(t, []int{2}, ready.SectionIDs)

	require.NoError(t, bus.Publish(t.Context(), model.NewScheduleEvent(model.EventSectionUpdated, 1, 0)))
	followed := model.NewScheduleEvent(model.EventSectionUpdated, 2, 0)
	require.NoError(t, bus.Publish(t.Context(), followed))

	var change ws.ChangeResponse
	require.NoError(t, conn.ReadJSON(&change))
	assert.Equal(t, followed.ID, change.Change.ID)

	require.NoError(t, conn.WriteJSON(map[string]string{"action": "dance"}))
	var errResp ws.ErrorResponse
	require.NoError(t, conn.ReadJSON(&errResp))
	assert.Equal(t, ws.EventError, errResp.Event)
}

func TestScheduleStreamRequiresClaims(t *testing.T) {
	h := NewWSHandler(events.NewLocal(), zerolog.Nop(), nil)
	r := gin.New()
	r.GET("/stream", h.ScheduleStream)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stream", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestFilterChange(t *testing.T) {
	change := model.ScheduleEvent{SectionID: 4}
	assert.True(t, filterChange(map[int]bool{}, change))
	assert.True(t, filterChange(map[int]bool{4: true}, change))
	assert.False(t, filterChange(map[int]bool{5: true}, change))
}
