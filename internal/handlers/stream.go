package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"osint-stories/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	clientQueueLen = 64
)

// StreamHub fans committed story events out to websocket clients. It
// implements services.Notifier.
type StreamHub struct {
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*streamClient]bool
}

type streamClient struct {
	conn   *websocket.Conn
	send   chan []byte
	filter map[uuid.UUID]bool // empty means every story
	once   sync.Once
}

func (sc *streamClient) close() {
	sc.once.Do(func() { close(sc.send) })
}

func (sc *streamClient) wants(event services.StoryEvent) bool {
	if len(sc.filter) == 0 {
		return true
	}
	for _, id := range event.StoryIDs {
		if sc.filter[id] {
			return true
		}
	}
	return false
}

// NewStreamHub creates a new hub
func NewStreamHub() *StreamHub {
	return &StreamHub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*streamClient]bool),
	}
}

// Publish queues event for every interested client. A client whose queue is
// full is disconnected.
func (h *StreamHub) Publish(event services.StoryEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("⚠️ Failed to encode story event: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		if !client.wants(event) {
			continue
		}
		select {
		case client.send <- payload:
		default:
			log.Printf("⚠️ Dropping slow stream client %s", client.conn.RemoteAddr())
			delete(h.clients, client)
			client.close()
		}
	}
}

// ClientCount returns the number of connected clients
func (h *StreamHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeStream handles GET /api/stories/stream. Repeated story_id parameters
// limit the stream to events touching those stories.
func (h *StreamHub) ServeStream(c *gin.Context) {
	filter := make(map[uuid.UUID]bool)
	for _, raw := range queryList(c, "story_id") {
		id, err := uuid.Parse(raw)
		if err != nil {
			badRequest(c, "invalid story_id: "+raw)
			return
		}
		filter[id] = true
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("⚠️ Websocket upgrade failed: %v", err)
		return
	}

	client := &streamClient{conn: conn, send: make(chan []byte, clientQueueLen), filter: filter}
	h.mu.Lock()
	h.clients[client] = true
	h.mu.Unlock()

	go h.writePump(client)
	h.readPump(client)
}

func (h *StreamHub) unregister(client *streamClient) {
	h.mu.Lock()
	if h.clients[client] {
		delete(h.clients, client)
		client.close()
	}
	h.mu.Unlock()
}

// readPump discards client messages and returns when the connection closes
func (h *StreamHub) readPump(client *streamClient) {
	defer func() {
		h.unregister(client)
		client.conn.Close()
	}()

	client.conn.SetReadLimit(512)
	client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *StreamHub) writePump(client *streamClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
