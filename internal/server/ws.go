package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/driftworks/stackpulse/pkg/types"
)

const wsWriteTimeout = 10 * time.Second

// wsMessage is the envelope pushed to WebSocket subscribers.
type wsMessage struct {
	Type string          `json:"type"` // "initial" or "update"
	Data *types.Snapshot `json:"data"`
}

// handleWS upgrades the connection and streams snapshots: one "initial"
// message with the current cached snapshot, then one "update" per completed
// refresh cycle until either side closes.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		s.logger.Warn("websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}
	defer conn.Close()

	sub := s.agent.Hub().Subscribe()
	defer s.agent.Hub().Unsubscribe(sub)

	s.logger.Debug("subscriber connected", "remote", r.RemoteAddr)

	// The initial message is sent before entering the update loop so a new
	// subscriber is never left without state.
	if err := writeSnapshot(conn, "initial", s.agent.Snapshot()); err != nil {
		return
	}

	// Reader goroutine: we never expect data from the client, but reading
	// is what surfaces a close from the other side.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case snap, ok := <-sub.C():
			if !ok {
				// Dropped by the hub or hub closed.
				return
			}
			if err := writeSnapshot(conn, "update", snap); err != nil {
				s.logger.Debug("subscriber send failed, dropping", "remote", r.RemoteAddr, "error", err)
				return
			}
		case <-closed:
			s.logger.Debug("subscriber disconnected", "remote", r.RemoteAddr)
			return
		}
	}
}

func writeSnapshot(conn *websocket.Conn, msgType string, snap *types.Snapshot) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteJSON(wsMessage{Type: msgType, Data: snap})
}
