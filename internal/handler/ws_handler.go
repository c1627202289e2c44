package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/stemsi/jadwal-backend/internal/events"
	"github.com/stemsi/jadwal-backend/internal/middleware"
	"github.com/stemsi/jadwal-backend/internal/model"
	"github.com/stemsi/jadwal-backend/internal/response"
	ws "github.com/stemsi/jadwal-backend/internal/websocket"
)

const streamPingInterval = 30 * time.Second

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler relays schedule changes to open admin screens.
type WSHandler struct {
	bus      events.Bus
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(bus events.Bus, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		bus:      bus,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// ScheduleStream godoc
// WS /ws/v1/schedules/stream?token=
// Pushes a "change" event for every committed schedule or section write. The
// client may send {"action":"follow","section_ids":[...]} to narrow the feed.
func (h *WSHandler) ScheduleStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	changes, err := h.bus.Subscribe(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("Change feed subscription failed")
		response.Fail(c, http.StatusServiceUnavailable, response.ErrStoreUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()
	ws.ExtendOnPong(conn)

	wsLog := h.log.With().Int("admin_id", claims.UserID).Logger()
	wsLog.Info().Msg("Admin attached to schedule stream")

	// Only this goroutine writes to conn; the reader hands requests over.
	requests := make(chan []byte)
	go func() {
		defer cancel()
		for {
			data, err := ws.ReadMessage(conn)
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					wsLog.Warn().Err(err).Msg("Unexpected close")
				}
				return
			}
			select {
			case requests <- data:
			case <-ctx.Done():
				return
			}
		}
	}()

	follow := map[int]bool{}
	if err := ws.WriteTyped(conn, ws.ReadyResponse{Event: ws.EventReady, SectionIDs: []int{}}); err != nil {
		return
	}

	ticker := time.NewTicker(streamPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			wsLog.Info().Msg("Admin detached from schedule stream")
			return

		case change, ok := <-changes:
			if !ok {
				return
			}
			if !filterChange(follow, change) {
				continue
			}
			if err := ws.WriteTyped(conn, ws.ChangeResponse{Event: ws.EventChange, Change: change}); err != nil {
				return
			}

		case data := <-requests:
			if err := h.handleRequest(conn, data, follow); err != nil {
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *WSHandler) handleRequest(conn *websocket.Conn, data []byte, follow map[int]bool) error {
	var env ws.RequestEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return ws.WriteError(conn, "invalid message")
	}

	switch env.Action {
	case ws.ActionPing:
		return ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})

	case ws.ActionFollow:
		var req ws.FollowRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return ws.WriteError(conn, "invalid follow request")
		}
		for id := range follow {
			delete(follow, id)
		}
		ids := make([]int, 0, len(req.SectionIDs))
		for _, id := range req.SectionIDs {
			if id > 0 && !follow[id] {
				follow[id] = true
				ids = append(ids, id)
			}
		}
		return ws.WriteTyped(conn, ws.ReadyResponse{Event: ws.EventReady, SectionIDs: ids})

	default:
		return ws.WriteError(conn, "unknown action")
	}
}

// filterChange reports whether a change passes the follow set.
func filterChange(follow map[int]bool, change model.ScheduleEvent) bool {
	return len(follow) == 0 || follow[change.SectionID]
}
