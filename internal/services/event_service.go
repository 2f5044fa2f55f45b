package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/simplecomm-be/internal/models"
	"github.com/isdelr/simplecomm-be/internal/realtime"
)

// DateLayout is the calendar date format used by events and expenses.
const DateLayout = "2006-01-02"

// EventServiceProvider defines the interface for event services.
type EventServiceProvider interface {
	CreateEvent(ctx context.Context, userID, communityID, title, date string) (models.Event, error)
	GetEvents(ctx context.Context, communityID string) ([]models.Event, error)
}

// EventService provides business logic for community events.
type EventService struct {
	db        *sql.DB
	clock     *Clock
	publisher realtime.Publisher
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB, clock *Clock, publisher realtime.Publisher) *EventService {
	return &EventService{db: db, clock: clock, publisher: publisher}
}

// CreateEvent schedules a new event. Only members may add events.
func (s *EventService) CreateEvent(ctx context.Context, userID, communityID, title, date string) (models.Event, error) {
	title = strings.TrimSpace(title)
	date = strings.TrimSpace(date)
	if title == "" || date == "" {
		return models.Event{}, validationError("title and date are required")
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return models.Event{}, validationError("date must be YYYY-MM-DD")
	}

	community, err := getCommunity(ctx, s.db, communityID)
	if err != nil {
		return models.Event{}, err
	}
	if !community.HasMember(userID) {
		return models.Event{}, ErrNotMember
	}

	event := models.Event{
		ID:          uuid.New().String(),
		CommunityID: communityID,
		Title:       title,
		Date:        date,
		CreatedAt:   s.clock.Now(),
	}
	_, err = s.db.ExecContext(ctx, "INSERT INTO events (id, community_id, title, date, created_at) VALUES (?, ?, ?, ?, ?)",
		event.ID, event.CommunityID, event.Title, event.Date, event.CreatedAt.UnixNano())
	if err != nil {
		return models.Event{}, fmt.Errorf("failed to insert event: %w", err)
	}

	publish(s.publisher, realtime.CollectionEvents, communityID)
	return event, nil
}

// GetEvents retrieves a community's events by date, soonest first.
func (s *EventService) GetEvents(ctx context.Context, communityID string) ([]models.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, community_id, title, date, created_at FROM events WHERE community_id = ? ORDER BY date ASC, created_at ASC",
		communityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		var event models.Event
		var createdAt int64
		if err := rows.Scan(&event.ID, &event.CommunityID, &event.Title, &event.Date, &createdAt); err != nil {
			return nil, err
		}
		event.CreatedAt = fromUnixNano(createdAt)
		events = append(events, event)
	}
	return events, rows.Err()
}
