// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package realtime

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/crowdjudge/crowdjudge/models"
)

// Handler receives server-originated events. Calls happen on the read loop
// goroutine, one at a time, in receipt order - no reordering or batching.
type Handler interface {
	VoteUpdated(groupID int, stats models.Stats)
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(groupID int, stats models.Stats)

func (f HandlerFunc) VoteUpdated(groupID int, stats models.Stats) {
	f(groupID, stats)
}

// Channel is the client side of the live update connection.
type Channel struct {
	clientID string

	writeMu sync.Mutex // gorilla allows a single concurrent writer
	conn    *websocket.Conn

	closed chan struct{}
	once   sync.Once
}

// Dial connects to the push endpoint (ws:// or wss:// URL).
func Dial(url string) (*Channel, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("push channel dial failed: %w", err)
	}
	return &Channel{
		clientID: uuid.New().String(),
		conn:     conn,
		closed:   make(chan struct{}),
	}, nil
}

// Listen starts the read loop and dispatches events to handler until the
// connection drops or Close is called. It returns immediately.
func (c *Channel) Listen(handler Handler) {
	go c.readLoop(handler)
}

func (c *Channel) readLoop(handler Handler) {
	defer c.Close()

	for {
		var env models.PushEnvelope
		if err := c.conn.ReadJSON(&env); err != nil {
			select {
			case <-c.closed:
				// Deliberate close, nothing to report.
			default:
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					slog.Warn("push channel read error", "error", err)
				} else {
					slog.Info("push channel closed", "error", err)
				}
			}
			return
		}

		switch env.Event {
		case models.EventVoteUpdated:
			if env.Stats == nil {
				slog.Warn("vote_updated event without stats", "group_id", env.GroupID)
				continue
			}
			handler.VoteUpdated(env.GroupID, *env.Stats)
		default:
			slog.Debug("ignoring push event", "event", env.Event)
		}
	}
}

// JoinGroup subscribes this client to a group's vote updates. There is no
// leave message; the display controller discards irrelevant deltas instead.
func (c *Channel) JoinGroup(groupID int) error {
	return c.writeJSON(models.PushEnvelope{
		Event:    models.EventJoinGroup,
		GroupID:  groupID,
		ClientID: c.clientID,
	})
}

// BroadcastVoteUpdate hints the server to fan out fresh stats to the group's
// other subscribers after this client's own vote.
func (c *Channel) BroadcastVoteUpdate(groupID int, stats models.Stats) error {
	return c.writeJSON(models.PushEnvelope{
		Event:    models.EventVoteUpdate,
		GroupID:  groupID,
		Stats:    &stats,
		ClientID: c.clientID,
	})
}

func (c *Channel) writeJSON(env models.PushEnvelope) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := c.conn.WriteJSON(env); err != nil {
		return fmt.Errorf("push channel write failed: %w", err)
	}
	return nil
}

// Close tears the connection down. Safe to call more than once.
func (c *Channel) Close() error {
	var err error
	c.once.Do(func() {
		close(c.closed)
		c.writeMu.Lock()
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		err = c.conn.Close()
	})
	return err
}
