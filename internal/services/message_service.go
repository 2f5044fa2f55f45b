package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/isdelr/simplecomm-be/internal/metrics"
	"github.com/isdelr/simplecomm-be/internal/models"
	"github.com/isdelr/simplecomm-be/internal/realtime"
	"github.com/rs/zerolog/log"
)

// SystemSenderName is shown as the sender of server-generated messages.
const SystemSenderName = "SimpleComm"

// MessageServiceProvider defines the interface for chat services.
type MessageServiceProvider interface {
	PostMessage(ctx context.Context, userID, communityID, text, photoURL string) (models.Message, error)
	PostSystemMessage(ctx context.Context, communityID, text string) (models.Message, error)
	GetMessages(ctx context.Context, communityID string) ([]models.Message, error)
}

// MessageService owns each community's append-only chat log.
type MessageService struct {
	db        *sql.DB
	clock     *Clock
	users     UserServiceProvider
	publisher realtime.Publisher
}

// NewMessageService creates a new MessageService.
func NewMessageService(db *sql.DB, clock *Clock, users UserServiceProvider, publisher realtime.Publisher) *MessageService {
	return &MessageService{db: db, clock: clock, users: users, publisher: publisher}
}

// PostMessage appends a message from a member. The timestamp comes from the
// server clock, never from the client.
func (s *MessageService) PostMessage(ctx context.Context, userID, communityID, text, photoURL string) (models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Message{}, ErrEmptyMessage
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return models.Message{}, err
	}
	community, err := getCommunity(ctx, s.db, communityID)
	if err != nil {
		return models.Message{}, err
	}
	if !CanPost(&user, &community) {
		return models.Message{}, ErrNotMember
	}

	photo := strings.TrimSpace(photoURL)
	if photo == "" {
		photo = user.PhotoURL
	}
	msg := models.Message{
		ID:          uuid.New().String(),
		CommunityID: communityID,
		Sender:      user.Username,
		SenderID:    user.ID,
		Text:        text,
		PhotoURL:    photo,
	}
	if err := s.insert(ctx, &msg); err != nil {
		return models.Message{}, err
	}
	metrics.MessagesPosted.Inc()
	return msg, nil
}

// PostSystemMessage appends a server-generated message. It bypasses the
// membership gate.
func (s *MessageService) PostSystemMessage(ctx context.Context, communityID, text string) (models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Message{}, ErrEmptyMessage
	}
	msg := models.Message{
		ID:          uuid.New().String(),
		CommunityID: communityID,
		Sender:      SystemSenderName,
		SenderID:    models.SystemSenderID,
		Text:        text,
	}
	if err := s.insert(ctx, &msg); err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

func (s *MessageService) insert(ctx context.Context, msg *models.Message) error {
	msg.CreatedAt = s.clock.Now()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO messages (id, community_id, sender, sender_id, text, photo_url, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		msg.ID, msg.CommunityID, msg.Sender, msg.SenderID, msg.Text, msg.PhotoURL, msg.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	log.Debug().Str("community_id", msg.CommunityID).Str("message_id", msg.ID).Msg("Message posted")
	publish(s.publisher, realtime.CollectionMessages, msg.CommunityID)
	return nil
}

// GetMessages returns a community's messages, oldest first.
func (s *MessageService) GetMessages(ctx context.Context, communityID string) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, community_id, sender, sender_id, text, photo_url, created_at FROM messages WHERE community_id = ? ORDER BY created_at ASC, id ASC",
		communityID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var m models.Message
		var createdAt int64
		if err := rows.Scan(&m.ID, &m.CommunityID, &m.Sender, &m.SenderID, &m.Text, &m.PhotoURL, &createdAt); err != nil {
			return nil, err
		}
		m.CreatedAt = fromUnixNano(createdAt)
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// RenderMessages orders messages by timestamp and marks the ones sent by
// currentUserID. Ownership compares ids, so renames do not flip alignment.
func RenderMessages(messages []models.Message, currentUserID string) []models.RenderedMessage {
	sorted := make([]models.Message, len(messages))
	copy(sorted, messages)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].ID < sorted[j].ID
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	out := make([]models.RenderedMessage, len(sorted))
	for i, m := range sorted {
		out[i] = models.RenderedMessage{Message: m, Own: currentUserID != "" && m.SenderID == currentUserID}
	}
	return out
}
