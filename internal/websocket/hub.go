package websocket

import (
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Outbound messages for every connected client.
	Broadcast chan []byte

	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client

	done  chan struct{}
	count atomic.Int64
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		Broadcast:  make(chan []byte, 64),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		done:       make(chan struct{}),
	}
}

// Run starts the Hub's message processing loop.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			for client := range h.clients {
				client.closeSend()
				delete(h.clients, client)
			}
			h.count.Store(0)
			return
		case client := <-h.Register:
			h.clients[client] = true
			h.count.Store(int64(len(h.clients)))
			log.Info().Int("total_clients", len(h.clients)).Str("user_id", client.UserID).Msg("Client connected")
		case client := <-h.Unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.closeSend()
				h.count.Store(int64(len(h.clients)))
				log.Info().Int("total_clients", len(h.clients)).Str("user_id", client.UserID).Msg("Client disconnected")
			}
		case message := <-h.Broadcast:
			for client := range h.clients {
				if !client.Deliver(message) {
					log.Warn().Str("user_id", client.UserID).Msg("Dropping slow websocket client")
					client.closeSend()
					delete(h.clients, client)
				}
			}
			h.count.Store(int64(len(h.clients)))
		}
	}
}

// Stop ends the Run loop and closes every client's send channel.
func (h *Hub) Stop() {
	close(h.done)
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

// Announce encodes and queues a message for every connected client. It drops
// the message instead of blocking when the broadcast queue is full.
func (h *Hub) Announce(action string, payload any) {
	msg, err := Encode(action, payload)
	if err != nil {
		log.Error().Err(err).Str("action", action).Msg("Error marshalling broadcast")
		return
	}
	select {
	case h.Broadcast <- msg:
	default:
		log.Warn().Str("action", action).Msg("Broadcast queue full, dropping message")
	}
}

// Join registers c unless the hub has stopped.
func (h *Hub) Join(c *Client) bool {
	select {
	case h.Register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Leave unregisters c. After the hub has stopped it only closes c's send channel.
func (h *Hub) Leave(c *Client) {
	select {
	case h.Unregister <- c:
	case <-h.done:
		c.closeSend()
	}
}
