package progress

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// The UI is served from a different origin in development.
		return true
	},
}

// Hub fans status updates out to WebSocket subscribers keyed by job id.
// Delivery is best-effort: a job with no subscribers is a no-op, and a
// failed write unsubscribes the connection.
type Hub struct {
	mu   sync.RWMutex
	subs map[string][]*websocket.Conn
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string][]*websocket.Conn)}
}

// Subscribe upgrades the request to a WebSocket and registers it for jobID
// updates. The connection is held open until the client disconnects.
func (h *Hub) Subscribe(w http.ResponseWriter, r *http.Request, jobID string) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	h.mu.Lock()
	h.subs[jobID] = append(h.subs[jobID], conn)
	h.mu.Unlock()

	zap.L().Info("progress: subscriber attached", zap.String("job_id", jobID))

	// Drain control frames until the peer goes away, then unsubscribe.
	go func() {
		for {
			if _, _, readErr := conn.ReadMessage(); readErr != nil {
				break
			}
		}
		h.remove(jobID, conn)
		_ = conn.Close()
	}()

	return nil
}

// Notify implements Notifier. Write errors drop the subscriber, never the
// update flow.
func (h *Hub) Notify(jobID, status, message string, result map[string]any) {
	h.mu.RLock()
	conns := append([]*websocket.Conn(nil), h.subs[jobID]...)
	h.mu.RUnlock()

	if len(conns) == 0 {
		return
	}

	update := Update{JobID: jobID, Status: status, Message: message, Result: result}
	for _, conn := range conns {
		if err := conn.WriteJSON(update); err != nil {
			zap.L().Warn("progress: dropping subscriber",
				zap.String("job_id", jobID),
				zap.Error(err),
			)
			h.remove(jobID, conn)
			_ = conn.Close()
		}
	}
}

func (h *Hub) remove(jobID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns := h.subs[jobID]
	for i, c := range conns {
		if c == conn {
			h.subs[jobID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(h.subs[jobID]) == 0 {
		delete(h.subs, jobID)
	}
}
