package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/isdelr/simplecomm-be/internal/realtime"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
	sendBufferSize = 256
)

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	Send chan []byte

	// UserID is the authenticated identity behind the connection.
	UserID string

	mu     sync.Mutex
	closed bool
	subs   map[realtime.Topic]*realtime.Subscription
}

// NewClient creates a client bound to conn.
func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		Send:   make(chan []byte, sendBufferSize),
		UserID: userID,
		subs:   make(map[realtime.Topic]*realtime.Subscription),
	}
}

// Deliver queues msg without blocking. It reports false when the client is
// closed or its buffer is full.
func (c *Client) Deliver(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// AddSubscription records sub for topic, replacing (and stopping) any
// previous subscription on the same topic.
func (c *Client) AddSubscription(topic realtime.Topic, sub *realtime.Subscription) {
	c.mu.Lock()
	prev := c.subs[topic]
	c.subs[topic] = sub
	c.mu.Unlock()
	if prev != nil {
		prev.Unsubscribe()
	}
}

// RemoveSubscription stops the subscription on topic. It reports whether one existed.
func (c *Client) RemoveSubscription(topic realtime.Topic) bool {
	c.mu.Lock()
	sub, ok := c.subs[topic]
	delete(c.subs, topic)
	c.mu.Unlock()
	if ok {
		sub.Unsubscribe()
	}
	return ok
}

// CloseSubscriptions stops every subscription the client holds.
func (c *Client) CloseSubscriptions() {
	c.mu.Lock()
	subs := c.subs
	c.subs = make(map[realtime.Topic]*realtime.Subscription)
	c.mu.Unlock()
	for _, sub := range subs {
		sub.Unsubscribe()
	}
}

// ReadPump pumps messages from the websocket connection to handle.
func (c *Client) ReadPump(handle func(*Client, []byte)) {
	defer c.conn.Close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("user_id", c.UserID).Msg("Unexpected websocket close")
			}
			return
		}
		handle(c, message)
	}
}

// WritePump pumps messages from Send to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
