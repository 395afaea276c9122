package alert

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/banshee-data/pathsense/internal/footpath"
	"github.com/banshee-data/pathsense/internal/monitoring"
	"github.com/banshee-data/pathsense/internal/timeutil"
)

const (
	hubBufferSize = 64
	pongWait      = 60 * time.Second
	pingPeriod    = 30 * time.Second
	writeWait     = 5 * time.Second
)

// Event is the JSON message pushed to companion apps.
type Event struct {
	Type    string                `json:"type"`
	Time    time.Time             `json:"time"`
	Warning *footpath.Warning     `json:"warning,omitempty"`
	Stairs  *footpath.StairInfo   `json:"stairs,omitempty"`
	Surface *footpath.SurfaceInfo `json:"surface,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub is a Sink that broadcasts alerts to websocket clients. Speech and
// spatial audio run on the companion app at the other end.
type Hub struct {
	clock timeutil.Clock

	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	mutex      sync.RWMutex
}

// NewHub returns a Hub. Call Run to start delivering.
func NewHub(clock timeutil.Clock) *Hub {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Hub{
		clock:      clock,
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, hubBufferSize),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
	}
}

// Run owns the client set until ctx is done, then closes every client.
// It must be called at most once.
func (h *Hub) Run(ctx context.Context) {
	ticker := h.clock.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			h.mutex.Unlock()
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			n := len(h.clients)
			h.mutex.Unlock()
			monitoring.Logf("alert hub: client connected, total %d", n)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			n := len(h.clients)
			h.mutex.Unlock()
			monitoring.Logf("alert hub: client disconnected, total %d", n)

		case message := <-h.broadcast:
			h.writeAll(websocket.TextMessage, message)

		case <-ticker.C():
			h.writeAll(websocket.PingMessage, nil)
		}
	}
}

func (h *Hub) writeAll(messageType int, data []byte) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for client := range h.clients {
		client.SetWriteDeadline(time.Now().Add(writeWait))
		if err := client.WriteMessage(messageType, data); err != nil {
			monitoring.Logf("alert hub: write failed, dropping client: %v", err)
			delete(h.clients, client)
			client.Close()
		}
	}
}

// ServeWS upgrades the request and keeps the client registered until it
// disconnects. Clients only listen; anything they send is discarded.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		monitoring.Logf("alert hub: websocket upgrade error: %v", err)
		return
	}
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	select {
	case h.register <- conn:
	case <-h.done:
		conn.Close()
		return
	}
	defer func() {
		select {
		case h.unregister <- conn:
		case <-h.done:
			conn.Close()
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

func (h *Hub) publish(e Event) error {
	e.Time = h.clock.Now()
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- data:
	default:
		monitoring.Logf("alert hub: broadcast buffer full, dropping %s event", e.Type)
	}
	return nil
}

func (h *Hub) Warn(w footpath.Warning) error {
	return h.publish(Event{Type: "warning", Warning: &w})
}

func (h *Hub) Stairs(s footpath.StairInfo) error {
	return h.publish(Event{Type: "stairs", Stairs: &s})
}

func (h *Hub) Surface(s footpath.SurfaceInfo) error {
	return h.publish(Event{Type: "surface", Surface: &s})
}
