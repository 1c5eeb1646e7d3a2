package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/ayusman/handstream/internal/detector"
	"github.com/ayusman/handstream/internal/wire"
	"github.com/gorilla/websocket"
)

// hubBuffer is how many packets may wait for the broadcaster before new
// ones are dropped.
const hubBuffer = 16

const writeTimeout = time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// landmarksMessage is the JSON pushed to websocket clients for each packet.
type landmarksMessage struct {
	Session   string               `json:"session,omitempty"`
	Height    int                  `json:"height"`
	Coords    wire.Packet          `json:"coords"`
	Hands     [][]detector.Point3D `json:"hands"`
	Timestamp int64                `json:"timestamp"`
}

// Hub broadcasts sent packets to websocket clients. It implements
// app.PacketSink; Publish never blocks the frame loop.
type Hub struct {
	session string
	in      chan landmarksMessage
	done    chan struct{}
	clients map[*websocket.Conn]bool
	mu      sync.RWMutex
	once    sync.Once
}

// NewHub creates a Hub and starts its broadcaster.
func NewHub(session string) *Hub {
	h := &Hub{
		session: session,
		in:      make(chan landmarksMessage, hubBuffer),
		done:    make(chan struct{}),
		clients: make(map[*websocket.Conn]bool),
	}
	go h.broadcast()
	return h
}

// Publish queues a packet for broadcast, dropping it if the queue is full
// or nobody is listening.
func (h *Hub) Publish(p wire.Packet, height int) {
	if h.Clients() == 0 {
		return
	}

	msg := landmarksMessage{
		Session:   h.session,
		Height:    height,
		Coords:    append(wire.Packet(nil), p...),
		Hands:     wire.Split(p, detector.NumLandmarks),
		Timestamp: time.Now().UnixMilli(),
	}

	select {
	case h.in <- msg:
	case <-h.done:
	default:
	}
}

// Clients returns the number of connected websocket clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close stops the broadcaster and disconnects every client.
func (h *Hub) Close() {
	h.once.Do(func() {
		close(h.done)

		h.mu.Lock()
		for conn := range h.clients {
			conn.Close()
			delete(h.clients, conn)
		}
		h.mu.Unlock()
	})
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	// Close empties the map under the lock after closing done, so a client
	// registered here is always seen by Close.
	h.mu.Lock()
	select {
	case <-h.done:
		h.mu.Unlock()
		return
	default:
	}
	h.clients[conn] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// broadcast sends queued packets to all connected clients.
func (h *Hub) broadcast() {
	for {
		select {
		case <-h.done:
			return
		case msg := <-h.in:
			data, err := json.Marshal(msg)
			if err != nil {
				log.Printf("encode landmarks message: %v", err)
				continue
			}

			h.mu.RLock()
			for conn := range h.clients {
				conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
					conn.Close()
				}
			}
			h.mu.RUnlock()
		}
	}
}
