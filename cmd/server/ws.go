package main

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// ========== WebSocket Progress Stream ==========

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // local tool, same machine
	},
}

// WSMessage is the envelope for every pushed event.
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// ExtractProgress reports per-file progress during an upload batch and
// per-page progress during OCR of a scanned PDF.
type ExtractProgress struct {
	Name  string `json:"name"`
	Done  int    `json:"done"`
	Total int    `json:"total"`
}

// OCRProgress reports structured-extraction progress, one event per
// document as the batch walks its sequential order.
type OCRProgress struct {
	Name   string `json:"name"`
	Index  int    `json:"index"`
	Total  int    `json:"total"`
	Status string `json:"status"` // "processing", "done", "failed"
}

// wsHub tracks connected clients. Each connection gets its own write
// mutex since gorilla/websocket allows only one concurrent writer.
type wsHub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]bool
	connMu  map[*websocket.Conn]*sync.Mutex
}

func newWSHub() *wsHub {
	return &wsHub{
		clients: make(map[*websocket.Conn]bool),
		connMu:  make(map[*websocket.Conn]*sync.Mutex),
	}
}

// HandleWS upgrades the connection and parks it until the client leaves.
// Inbound messages are discarded; the stream is push-only.
func (h *wsHub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.connMu[conn] = &sync.Mutex{}
	total := len(h.clients)
	h.mu.Unlock()
	log.Printf("WebSocket client connected (total: %d)", total)

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		delete(h.connMu, conn)
		remaining := len(h.clients)
		h.mu.Unlock()
		conn.Close()
		log.Printf("WebSocket client disconnected (remaining: %d)", remaining)
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}
	}
}

// Broadcast marshals the event once and writes it to every client.
func (h *wsHub) Broadcast(msgType string, payload interface{}) {
	data, err := json.Marshal(WSMessage{Type: msgType, Payload: payload})
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", msgType, err)
		return
	}

	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	mutexes := make([]*sync.Mutex, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
		mutexes = append(mutexes, h.connMu[conn])
	}
	h.mu.RUnlock()

	for i, conn := range conns {
		mu := mutexes[i]
		mu.Lock()
		err := conn.WriteMessage(websocket.TextMessage, data)
		mu.Unlock()
		if err != nil {
			log.Printf("Failed to send %s event to client: %v", msgType, err)
		}
	}
}
