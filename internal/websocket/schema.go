package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAnswer   Action = "answer"
	ActionInteract Action = "interact"
	ActionReveal   Action = "reveal"
	ActionPing     Action = "ping"
)

// ActionRequest carries every client action. Tier and Index address one
// question; Answer is only read for the answer action.
type ActionRequest struct {
	Action Action `json:"action"`
	Tier   string `json:"tier,omitempty"`
	Index  int    `json:"index"`
	Answer string `json:"answer,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError           Event = "error"
	EventAck             Event = "ack"
	EventPong            Event = "pong"
	EventTick            Event = "tick"
	EventQuestionExpired Event = "question_expired"
	EventSessionExpired  Event = "session_expired"
)

// TimerEvent is pushed on every countdown transition: a global tick, a
// per-question expiry or the one-shot session expiry.
type TimerEvent struct {
	Event     Event  `json:"event"`
	Tier      string `json:"tier,omitempty"`
	Index     int    `json:"index,omitempty"`
	Remaining int    `json:"remaining"`
}

type AckResponse struct {
	Event  Event  `json:"event"`
	Status string `json:"status"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
