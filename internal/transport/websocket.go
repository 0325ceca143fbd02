// SPDX-License-Identifier: MIT

// Package transport exposes the latest consumed spectral frame to
// external renderers over WebSocket.
package transport

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"spectro/internal/dsp"
	"spectro/internal/log"
)

// minSendInterval rate-limits broadcasts so a fast capture cadence does
// not flood slow clients. Frames dropped here are already latest-wins.
const minSendInterval = 30 * time.Millisecond

// Broadcaster serves spectral frames to WebSocket clients on /spectra.
// It satisfies pipeline.FrameSink.
type Broadcaster struct {
	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex
	upgrader  websocket.Upgrader
	server    *http.Server
	lastSend  time.Time
}

// NewBroadcaster starts an HTTP server on addr (e.g. ":8080") serving
// WebSocket upgrades on /spectra.
func NewBroadcaster(addr string) *Broadcaster {
	b := &Broadcaster{
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/spectra", b.handleWebSocket)
	b.server = &http.Server{Addr: addr, Handler: mux}

	go func() {
		log.Infof("spectral frame WebSocket server listening on %s", addr)
		if err := b.server.ListenAndServe(); err != http.ErrServerClosed {
			log.Errorf("WebSocket server error: %v", err)
		}
	}()

	return b
}

func (b *Broadcaster) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("WebSocket upgrade error: %v", err)
		return
	}

	b.clientsMu.Lock()
	b.clients[conn] = true
	b.clientsMu.Unlock()

	// Drain until the client disconnects.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				b.clientsMu.Lock()
				delete(b.clients, conn)
				b.clientsMu.Unlock()
				conn.Close()
				return
			}
		}
	}()
}

// Send broadcasts the frame as JSON to all connected clients, dropping
// the frame when the rate limit has not elapsed.
func (b *Broadcaster) Send(frame *dsp.Frame) error {
	now := time.Now()
	if now.Sub(b.lastSend) < minSendInterval {
		return nil
	}
	b.lastSend = now

	payload, err := json.Marshal(frame)
	if err != nil {
		return err
	}

	b.clientsMu.Lock()
	for client := range b.clients {
		if err := client.WriteMessage(websocket.TextMessage, payload); err != nil {
			client.Close()
			delete(b.clients, client)
		}
	}
	b.clientsMu.Unlock()
	return nil
}

// Close disconnects all clients and shuts down the server. Idempotent.
func (b *Broadcaster) Close() error {
	b.clientsMu.Lock()
	for client := range b.clients {
		client.Close()
		delete(b.clients, client)
	}
	b.clientsMu.Unlock()
	return b.server.Close()
}
