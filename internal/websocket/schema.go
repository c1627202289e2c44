package websocket

import "github.com/stemsi/jadwal-backend/internal/model"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing   Action = "ping"
	ActionFollow Action = "follow"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// FollowRequest narrows the stream to the given sections. An empty list
// follows every section again.
type FollowRequest struct {
	Action     Action `json:"action"`
	SectionIDs []int  `json:"section_ids"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventReady  Event = "ready"
	EventChange Event = "change"
	EventError  Event = "error"
	EventPong   Event = "pong"
)

type ReadyResponse struct {
	Event      Event `json:"event"`
	SectionIDs []int `json:"section_ids"`
}

// ChangeResponse tells the client to reload what the change touched.
type ChangeResponse struct {
	Event  Event               `json:"event"`
	Change model.ScheduleEvent `json:"change"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
