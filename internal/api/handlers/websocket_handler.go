package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/isdelr/simplecomm-be/internal/models"
	"github.com/isdelr/simplecomm-be/internal/realtime"
	"github.com/isdelr/simplecomm-be/internal/services"
	ws "github.com/isdelr/simplecomm-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler upgrades connections and manages per-client live queries.
type WebSocketHandler struct {
	hub      *ws.Hub
	broker   *realtime.Broker
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates a new WebSocketHandler. Connections from
// origins outside allowedOrigins are refused; "*" allows all.
func NewWebSocketHandler(hub *ws.Hub, broker *realtime.Broker, allowedOrigins []string) *WebSocketHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &WebSocketHandler{
		hub:    hub,
		broker: broker,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
}

// Serve handles the WebSocket connection request.
func (h *WebSocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade websocket connection")
		return
	}

	client := ws.NewClient(h.hub, conn, userID)
	if !h.hub.Join(client) {
		conn.Close()
		return
	}

	go client.WritePump()
	go func() {
		client.ReadPump(h.handleIncomingWSMessage)
		// Cleanup on disconnect.
		client.CloseSubscriptions()
		h.hub.Leave(client)
	}()
}

// handleIncomingWSMessage processes messages received from a websocket client.
func (h *WebSocketHandler) handleIncomingWSMessage(client *ws.Client, message []byte) {
	var msg ws.Message
	if err := json.Unmarshal(message, &msg); err != nil {
		log.Warn().Err(err).Str("user_id", client.UserID).Msg("Error decoding websocket message")
		client.Deliver(ws.NewErrorMessage("Invalid message"))
		return
	}

	var topic realtime.Topic
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &topic); err != nil {
			client.Deliver(ws.NewErrorMessage("Invalid payload for " + msg.Action))
			return
		}
	}

	switch msg.Action {
	case ws.ActionSubscribe:
		if !realtime.IsValidCollection(topic.Collection) || topic.CommunityID == "" {
			client.Deliver(ws.NewErrorMessage("Unknown collection or missing communityId"))
			return
		}
		h.subscribe(client, topic)

	case ws.ActionUnsubscribe:
		if client.RemoveSubscription(topic) {
			log.Debug().Str("user_id", client.UserID).Str("collection", topic.Collection).Str("community_id", topic.CommunityID).Msg("Client unsubscribed")
		}

	default:
		log.Warn().Str("action", msg.Action).Msg("Unknown websocket action received")
		client.Deliver(ws.NewErrorMessage("Unknown action: " + msg.Action))
	}
}

func (h *WebSocketHandler) subscribe(client *ws.Client, topic realtime.Topic) {
	onSnapshot := func(items any) {
		// Chat snapshots are rendered for the viewer.
		if msgs, ok := items.([]models.Message); ok {
			items = services.RenderMessages(msgs, client.UserID)
		}
		out, err := ws.NewSnapshotMessage(topic, items)
		if err != nil {
			log.Error().Err(err).Str("collection", topic.Collection).Msg("Error marshalling snapshot")
			return
		}
		if !client.Deliver(out) {
			log.Warn().Str("user_id", client.UserID).Str("collection", topic.Collection).Msg("Dropped snapshot for slow client")
		}
	}
	onUnavailable := func(err error) {
		client.Deliver(ws.NewUnavailableMessage(topic, err))
	}

	client.AddSubscription(topic, h.broker.Subscribe(topic, onSnapshot, onUnavailable))
	log.Debug().Str("user_id", client.UserID).Str("collection", topic.Collection).Str("community_id", topic.CommunityID).Msg("Client subscribed")
}
