package ws

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"

	"memory-duel-server/auth"
	"memory-duel-server/game"
	"memory-duel-server/playerrors"
	"memory-duel-server/wsutil"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	// Upper bound for one action against the stores.
	actionTimeout = 5 * time.Second
)

// Client is a middleman between the websocket connection and the play service.
// Identity is only set and read from the read pump goroutine.
type Client struct {
	Hub      *Hub
	Conn     *websocket.Conn
	Send     chan []byte
	Identity *auth.Identity
}

// PlayerID returns the authenticated player, or "" before auth.
func (c *Client) PlayerID() string {
	if c.Identity == nil {
		return ""
	}
	return c.Identity.PlayerID
}

// ReadPump pumps messages from the websocket connection to the play service.
// It runs in its own goroutine per connection.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.Hub.log.Warn("read error", "player", c.PlayerID(), "err", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// WritePump pumps messages from the send channel to the websocket connection.
// It runs in its own goroutine per connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(data []byte) {
	var envelope InboundEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		c.sendError("Invalid message format.")
		return
	}

	if envelope.Type == TypeAuth {
		c.handleAuth(envelope.Raw)
		return
	}
	if c.Identity == nil {
		c.sendError("Not authenticated.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()

	switch envelope.Type {
	case TypeNewGame:
		c.handleNewGame(ctx, envelope.Raw)
	case TypeGetState:
		c.handleGetState(ctx)
	case TypeFlipCard:
		c.handleFlipCard(ctx, envelope.Raw)
	case TypeAbandon:
		c.handleAbandon(ctx, envelope.Raw)
	case TypeReset:
		c.handleReset(ctx)
	default:
		c.sendError("Unknown message type: " + envelope.Type)
	}
}

func (c *Client) handleAuth(raw json.RawMessage) {
	var msg AuthMsg
	if err := json.Unmarshal(raw, &msg); err != nil || msg.Token == "" {
		c.sendError("Invalid auth message.")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()

	id, err := c.Hub.Verifier.Verify(ctx, msg.Token)
	if err != nil {
		c.Hub.log.Debug("auth rejected", "err", err)
		c.sendError("Authentication failed.")
		return
	}
	c.Identity = &id
	c.send(AuthenticatedMsg{Type: TypeAuthenticated, PlayerID: id.PlayerID, DisplayName: id.DisplayName})
}

func (c *Client) handleNewGame(ctx context.Context, raw json.RawMessage) {
	var msg NewGameMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("Invalid new_game message.")
		return
	}
	snap, err := c.Hub.Play.Start(ctx, c.Identity.PlayerID, c.Identity.DisplayName, msg.PairsCount)
	if err != nil {
		c.sendFailure(err)
		return
	}
	c.send(GameStateMsg{Type: TypeGameState, Handle: snap.Handle, State: snap.State})
}

func (c *Client) handleGetState(ctx context.Context) {
	snap, err := c.Hub.Play.Current(ctx, c.Identity.PlayerID)
	if err != nil {
		c.sendFailure(err)
		return
	}
	c.send(GameStateMsg{Type: TypeGameState, Handle: snap.Handle, State: snap.State})
}

func (c *Client) handleFlipCard(ctx context.Context, raw json.RawMessage) {
	var msg FlipCardMsg
	if err := json.Unmarshal(raw, &msg); err != nil || msg.CardID == nil {
		c.sendError("Invalid flip_card message.")
		return
	}
	out, err := c.Hub.Play.Flip(ctx, c.Identity.PlayerID, msg.Handle, *msg.CardID)
	if err != nil {
		c.sendFailure(err)
		return
	}
	c.send(FlipResultMsg{Type: TypeFlipResult, Handle: out.Handle, Result: out.Result, State: out.State})

	if out.Result.GameCompleted {
		over := GameOverMsg{Type: TypeGameOver, MovesCount: out.State.MovesCount}
		if out.State.Score != nil {
			over.Score = *out.State.Score
		}
		if out.State.DurationSeconds != nil {
			over.DurationSeconds = *out.State.DurationSeconds
		}
		c.send(over)
	}
}

func (c *Client) handleAbandon(ctx context.Context, raw json.RawMessage) {
	var msg AbandonMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("Invalid abandon message.")
		return
	}
	snap, err := c.Hub.Play.Abandon(ctx, c.Identity.PlayerID, msg.Handle)
	if err != nil {
		c.sendFailure(err)
		return
	}
	c.send(GameStateMsg{Type: TypeGameState, Handle: snap.Handle, State: snap.State})
}

func (c *Client) handleReset(ctx context.Context) {
	if err := c.Hub.Play.Reset(ctx, c.Identity.PlayerID); err != nil {
		c.sendFailure(err)
		return
	}
	c.send(ResetMsg{Type: TypeGameReset})
}

// sendFailure reports a service error, hiding internal details.
func (c *Client) sendFailure(err error) {
	switch {
	case errors.Is(err, playerrors.ErrNoActiveGame):
		c.sendError("No active game.")
	case errors.Is(err, playerrors.ErrStaleGame):
		c.sendError("This game is no longer current.")
	case errors.Is(err, game.ErrInvalidPairsCount):
		c.sendError("Pairs count must be between 3 and 12.")
	default:
		c.Hub.log.Error("action failed", "player", c.PlayerID(), "err", err)
		c.sendError("Internal error.")
	}
}

func (c *Client) sendError(message string) {
	c.send(ErrorMsg{Type: TypeError, Message: message})
}

func (c *Client) send(v any) {
	wsutil.SendJSON(c.Send, v)
}
