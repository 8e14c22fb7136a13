package ws

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"memory-duel-server/auth"
	"memory-duel-server/play"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow all origins for development; restrict in production.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub maintains the set of active clients. Game actions go straight from a
// client to the play service; the hub only tracks connections.
type Hub struct {
	Clients    map[*Client]bool
	Register   chan *Client
	Unregister chan *Client
	Play       *play.Service
	Verifier   auth.Verifier

	done chan struct{}
	log  *slog.Logger
}

// NewHub creates a new Hub.
func NewHub(svc *play.Service, verifier auth.Verifier) *Hub {
	return &Hub{
		Clients:    make(map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Play:       svc,
		Verifier:   verifier,
		done:       make(chan struct{}),
		log:        slog.With("tag", "ws"),
	}
}

// Run starts the hub's main loop. Should be run as a goroutine.
// When ctx is cancelled, every client is disconnected and Run returns.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.log.Info("shutdown signal received, stopping", "clients", len(h.Clients))
			for client := range h.Clients {
				delete(h.Clients, client)
				close(client.Send)
			}
			return
		case client := <-h.Register:
			h.Clients[client] = true
			h.log.Debug("client connected", "total", len(h.Clients))

		case client := <-h.Unregister:
			if _, ok := h.Clients[client]; ok {
				delete(h.Clients, client)
				close(client.Send)
				h.log.Debug("client disconnected", "player", client.PlayerID(), "total", len(h.Clients))
			}
		}
	}
}

// ServeWS handles WebSocket upgrade requests and creates a new Client.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("upgrade failed", "err", err)
		return
	}

	client := &Client{
		Hub:  h,
		Conn: conn,
		Send: make(chan []byte, 256),
	}

	select {
	case h.Register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}

func (h *Hub) unregister(c *Client) {
	select {
	case h.Unregister <- c:
	case <-h.done:
	}
}
