package websocket

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-timetravel/internal/entity"
)

const (
	actionSessionNew   = "session:new"
	actionSessionJoin  = "session:join"
	actionSessionLeave = "session:leave"
	actionGameMove     = "game:move"
	actionGameJump     = "game:jump"
	actionError        = "error"
)

const closeWriteTimeout = time.Second

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Payload struct {
	SessionID string           `json:"session_id,omitempty"`
	Cell      *int             `json:"cell,omitempty"`
	Move      *int             `json:"move,omitempty"`
	Game      *entity.GameView `json:"game,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// client wraps one connection. gorilla/websocket allows a single concurrent writer.
type client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (that *client) send(action string, payload Payload) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	that.writeMu.Lock()
	defer that.writeMu.Unlock()

	if err = that.conn.WriteJSON(Message{Action: action, Payload: payloadJSON}); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

// close tells the peer the server is going away and drops the connection,
// which unblocks the reader of this connection.
func (that *client) close(reason string) error {
	that.writeMu.Lock()
	defer that.writeMu.Unlock()

	message := websocket.FormatCloseMessage(websocket.CloseGoingAway, reason)
	if err := that.conn.WriteControl(websocket.CloseMessage, message, time.Now().Add(closeWriteTimeout)); err != nil {
		_ = that.conn.Close()
		return fmt.Errorf("failed to write close message: %w", err)
	}

	return that.conn.Close()
}
