package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/waraqati/waraqa-backend/internal/middleware"
	"github.com/waraqati/waraqa-backend/internal/model"
	"github.com/waraqati/waraqa-backend/internal/service"
	"github.com/waraqati/waraqa-backend/internal/session"
	ws "github.com/waraqati/waraqa-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
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

// WSHandler streams session timer events and accepts low-latency actions.
type WSHandler struct {
	sessions *service.SessionService
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(sessions *service.SessionService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		sessions: sessions,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// SessionStream godoc
// WS /ws/v1/sessions/:id/stream
// Upgrades to WebSocket: server pushes tick/expiry events, client sends
// answer, interact and reveal actions.
func (h *WSHandler) SessionStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session ID"})
		return
	}

	sess, err := h.sessions.Lookup(sessionID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Int("teacher_id", claims.TeacherID).
		Str("session_id", sessionID.String()).
		Logger()
	wsLog.Info().Msg("Client connected")

	events, unsubscribe := sess.Subscribe()
	defer unsubscribe()

	// Event pump: session events out, until the session closes or the
	// socket write fails.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range events {
			payload := ws.TimerEvent{
				Event:     ws.Event(ev.Type),
				Tier:      string(ev.Tier),
				Index:     ev.Index,
				Remaining: ev.Remaining,
			}
			if err := ws.WriteTyped(conn, payload); err != nil {
				return
			}
		}
	}()

	for {
		var msg ws.ActionRequest
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			break
		}

		switch msg.Action {
		case ws.ActionAnswer:
			h.handleAction(conn, sessionID, &msg, func(qid session.QuestionID) error {
				return h.sessions.SetAnswer(context.Background(), sessionID, qid, msg.Answer)
			})
		case ws.ActionInteract:
			h.handleAction(conn, sessionID, &msg, func(qid session.QuestionID) error {
				return h.sessions.RecordInteraction(sessionID, qid)
			})
		case ws.ActionReveal:
			h.handleAction(conn, sessionID, &msg, func(qid session.QuestionID) error {
				return h.sessions.ToggleReveal(sessionID, qid)
			})
		case ws.ActionPing:
			ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			ws.WriteError(conn, "unknown action: "+string(msg.Action))
		}
	}

	// Stop the pump before returning; unsubscribe closes the event channel.
	unsubscribe()
	<-done
}

func (h *WSHandler) handleAction(conn *websocket.Conn, sessionID uuid.UUID, msg *ws.ActionRequest, fn func(session.QuestionID) error) {
	tier := model.Tier(msg.Tier)
	if !tier.Valid() || msg.Index < 0 {
		ws.WriteError(conn, "invalid question target")
		return
	}

	if err := fn(session.QuestionID{Tier: tier, Index: msg.Index}); err != nil {
		ws.WriteError(conn, err.Error())
		return
	}

	ws.WriteTyped(conn, ws.AckResponse{Event: ws.EventAck, Status: "ok"})
}
