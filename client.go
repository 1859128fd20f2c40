package main

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// Client is a middleman between one websocket connection and its
// session's bus. It walks the connection through joining (claim a name),
// active (relay both directions), and leaving (announce, release,
// maybe queue the session for deletion).
type Client struct {
	conn    *websocket.Conn
	session *Session
	reaper  *Reaper
	log     *slog.Logger

	nameRetry bool

	// Set once the claim succeeds; empty for a connection that dies
	// during joining.
	name string
	sub  *subscriber
}

func newClient(conn *websocket.Conn, session *Session, reaper *Reaper, nameRetry bool, log *slog.Logger) *Client {
	return &Client{
		conn:      conn,
		session:   session,
		reaper:    reaper,
		nameRetry: nameRetry,
		log:       log,
	}
}

// run drives the whole connection and returns once it is torn down. A
// connection that never claims a name exits without side effects.
func (c *Client) run() {
	defer c.conn.Close()

	if !c.join() {
		return
	}

	// Subscribe before announcing so this connection receives its own
	// joined event. Protocol order, not an optimization.
	c.sub = c.session.bus.subscribe()
	c.reaper.KeepAlive(c.session.ID())
	c.session.bus.publish(joinedEvent(c.name, c.session.Snapshot()))
	c.log.Debug("joined", "session", c.session.ID(), "name", c.name)

	go c.writePump()
	c.readPump()
	c.leave()
}

// join waits for a valid name claim. Unparseable frames are skipped, a
// conflicting name gets an error frame back and, depending on
// configuration, another chance. Returns false when the peer goes away
// first or retries are disabled.
func (c *Client) join() bool {
	c.conn.SetReadLimit(maxMessageSize)
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return false
		}

		var req joinRequest
		if json.Unmarshal(raw, &req) != nil || validate.Struct(req) != nil {
			continue
		}

		if c.session.TryClaim(req.Name) {
			c.name = req.Name
			return true
		}

		// Only this connection hears about the conflict.
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteJSON(envelope{Type: eventError, Payload: errNameTaken}); err != nil {
			return false
		}
		if !c.nameRetry {
			return false
		}
	}
}

// readPump pumps messages from the websocket connection to the bus.
//
// The application runs readPump in a per-connection goroutine. The
// application ensures that there is at most one reader on a connection by
// executing all reads from this goroutine.
func (c *Client) readPump() {
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Debug("read error", "session", c.session.ID(), "name", c.name, "err", err)
			}
			return
		}

		var msg voteMessage
		if json.Unmarshal(raw, &msg) != nil || validate.Struct(msg) != nil {
			// A malformed frame is dropped; the rest of the session
			// never notices.
			continue
		}

		c.session.bus.publish(votedEvent(c.name, msg.Vote, c.session.Snapshot()))
	}
}

// writePump pumps messages from the bus subscription to the websocket
// connection, one frame per message, and keeps the peer alive with pings.
//
// A goroutine running writePump is started for each connection. The
// application ensures that there is at most one writer to a connection by
// executing all writes from this goroutine.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		// Closing the connection unblocks readPump, so whichever pump
		// exits first takes the sibling down with it.
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.sub.ch:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The bus kicked us for lagging, or leave unsubscribed.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// leave announces the departure with the post-departure snapshot, frees
// the name for new claims, and queues the session for deletion when it
// just lost its last participant.
func (c *Client) leave() {
	c.session.bus.unsubscribe(c.sub)
	c.session.bus.publish(leftEvent(c.name, c.session.SnapshotExcluding(c.name)))

	empty := c.session.Release(c.name)
	if empty {
		c.reaper.QueueDelete(c.session.ID())
	}
	c.log.Debug("left", "session", c.session.ID(), "name", c.name, "empty", empty)
}
