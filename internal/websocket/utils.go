package websocket

import (
	"time"

	"github.com/gorilla/websocket"
)

// WriteTyped marshals one event to the connection under a 10s write
// deadline, so a stalled client cannot wedge the event pump.
func WriteTyped(conn *websocket.Conn, v interface{}) error {
	conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return conn.WriteJSON(v)
}

// WriteError pushes an error event without closing the connection.
func WriteError(conn *websocket.Conn, errMsg string) error {
	return WriteTyped(conn, ErrorResponse{
		Event: EventError,
		Error: errMsg,
	})
}

// ReadJSON decodes the next client message. The 5-minute read deadline
// bounds how long an abandoned connection lingers.
func ReadJSON(conn *websocket.Conn, v interface{}) error {
	conn.SetReadDeadline(time.Now().Add(5 * time.Minute))
	return conn.ReadJSON(v)
}
