package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/isdelr/simplecomm-be/internal/calculator"
	"github.com/isdelr/simplecomm-be/internal/models"
	"github.com/isdelr/simplecomm-be/internal/realtime"
	"github.com/rs/zerolog/log"
)

// Announcer broadcasts a message to every connected client.
type Announcer interface {
	Announce(action string, payload any)
}

// ActionCommunityCreated is broadcast after a community is created.
const ActionCommunityCreated = "community_created"

// CommunityServiceProvider defines the interface for community services.
type CommunityServiceProvider interface {
	CreateCommunity(ctx context.Context, creatorID string, input CommunityInput) (models.Community, error)
	GetCommunityByID(ctx context.Context, id string) (models.Community, error)
	GetAllCommunities(ctx context.Context) ([]models.Community, error)
	RecommendFor(ctx context.Context, userID string) ([]models.Community, error)
}

// CommunityInput is the create-community form.
type CommunityInput struct {
	Name            string `json:"name"`
	Address         string `json:"address"`
	Description     string `json:"description"`
	Category        string `json:"category"`
	PhotoURL        string `json:"photoURL"`
	IsDuesMandatory bool   `json:"isDuesMandatory"`
	DuesAmount      string `json:"duesAmount"`
	DuesDate        int    `json:"duesDate"`
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const communityColumns = "id, name, address, description, category, photo_url, created_by, created_by_name, is_dues_mandatory, dues_amount, dues_date, created_at"

// CommunityService provides business logic for community management.
type CommunityService struct {
	db        *sql.DB
	clock     *Clock
	users     UserServiceProvider
	publisher realtime.Publisher
	announcer Announcer
}

// NewCommunityService creates a new CommunityService. publisher and
// announcer may be nil.
func NewCommunityService(db *sql.DB, clock *Clock, users UserServiceProvider, publisher realtime.Publisher, announcer Announcer) *CommunityService {
	return &CommunityService{db: db, clock: clock, users: users, publisher: publisher, announcer: announcer}
}

func (in *CommunityInput) validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Address = strings.TrimSpace(in.Address)
	in.Description = strings.TrimSpace(in.Description)
	in.DuesAmount = strings.TrimSpace(in.DuesAmount)

	if in.Name == "" || in.Address == "" {
		return validationError("name and address are required")
	}
	if in.Category == "" {
		in.Category = models.Categories[0]
	}
	if !models.IsValidCategory(in.Category) {
		return validationError("unknown category %q", in.Category)
	}
	if !in.IsDuesMandatory {
		in.DuesAmount = ""
		in.DuesDate = 0
		return nil
	}
	if in.DuesAmount == "" || in.DuesDate == 0 {
		return validationError("dues amount and day are required when dues are mandatory")
	}
	amount, err := calculator.ParseAmount(in.DuesAmount)
	if err != nil {
		return validationError("invalid dues amount: %v", err)
	}
	in.DuesAmount = amount.String()
	if in.DuesDate < 1 || in.DuesDate > 31 {
		return validationError("dues day must be between 1 and 31")
	}
	return nil
}

// CreateCommunity stores a new community and joins the creator to it in the
// same transaction.
func (s *CommunityService) CreateCommunity(ctx context.Context, creatorID string, input CommunityInput) (models.Community, error) {
	if err := input.validate(); err != nil {
		return models.Community{}, err
	}

	creator, err := s.users.GetUserByID(ctx, creatorID)
	if err != nil {
		return models.Community{}, err
	}

	now := s.clock.Now()
	community := models.Community{
		ID:              uuid.New().String(),
		Name:            input.Name,
		Address:         input.Address,
		Description:     input.Description,
		Category:        input.Category,
		PhotoURL:        strings.TrimSpace(input.PhotoURL),
		CreatedBy:       creator.ID,
		CreatedByName:   creator.Username,
		Members:         []string{creator.ID},
		IsDuesMandatory: input.IsDuesMandatory,
		DuesAmount:      input.DuesAmount,
		DuesDate:        input.DuesDate,
		CreatedAt:       now,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Community{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO communities ("+communityColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		community.ID, community.Name, community.Address, community.Description, community.Category, community.PhotoURL,
		community.CreatedBy, community.CreatedByName, community.IsDuesMandatory, community.DuesAmount, community.DuesDate,
		now.UnixNano())
	if err != nil {
		return models.Community{}, fmt.Errorf("failed to insert community: %w", err)
	}
	if err := addMember(ctx, tx, community.ID, creator.ID, now.UnixNano()); err != nil {
		return models.Community{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.Community{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Info().Str("community_id", community.ID).Str("user_id", creator.ID).Msg("Community created")

	if s.announcer != nil {
		s.announcer.Announce(ActionCommunityCreated, community)
	}
	return community, nil
}

// GetCommunityByID retrieves a community with its member set.
func (s *CommunityService) GetCommunityByID(ctx context.Context, id string) (models.Community, error) {
	return getCommunity(ctx, s.db, id)
}

// GetAllCommunities lists communities in store order (oldest first).
func (s *CommunityService) GetAllCommunities(ctx context.Context) ([]models.Community, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+communityColumns+" FROM communities ORDER BY created_at ASC, id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query communities: %w", err)
	}

	communities := []models.Community{}
	for rows.Next() {
		c, err := scanCommunity(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		communities = append(communities, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	members, err := allMembers(ctx, s.db)
	if err != nil {
		return nil, err
	}
	for i := range communities {
		if m, ok := members[communities[i].ID]; ok {
			communities[i].Members = m
		}
	}
	return communities, nil
}

// RecommendFor returns up to three communities the user has not joined,
// biased toward the user's most joined category.
func (s *CommunityService) RecommendFor(ctx context.Context, userID string) ([]models.Community, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	all, err := s.GetAllCommunities(ctx)
	if err != nil {
		return nil, err
	}
	return Recommend(user.JoinedCommIDs, all, RecommendationLimit), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCommunity(row rowScanner) (models.Community, error) {
	var c models.Community
	var createdAt int64
	err := row.Scan(&c.ID, &c.Name, &c.Address, &c.Description, &c.Category, &c.PhotoURL,
		&c.CreatedBy, &c.CreatedByName, &c.IsDuesMandatory, &c.DuesAmount, &c.DuesDate, &createdAt)
	if err != nil {
		return models.Community{}, err
	}
	c.CreatedAt = fromUnixNano(createdAt)
	c.Members = []string{}
	return c, nil
}

func getCommunity(ctx context.Context, q querier, id string) (models.Community, error) {
	c, err := scanCommunity(q.QueryRowContext(ctx, "SELECT "+communityColumns+" FROM communities WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Community{}, fmt.Errorf("%w: %s", ErrCommunityNotFound, id)
		}
		return models.Community{}, err
	}

	rows, err := q.QueryContext(ctx, "SELECT user_id FROM community_members WHERE community_id = ? ORDER BY joined_at ASC", id)
	if err != nil {
		return models.Community{}, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return models.Community{}, err
		}
		c.Members = append(c.Members, userID)
	}
	return c, rows.Err()
}

func allMembers(ctx context.Context, q querier) (map[string][]string, error) {
	rows, err := q.QueryContext(ctx, "SELECT community_id, user_id FROM community_members ORDER BY joined_at ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	members := make(map[string][]string)
	for rows.Next() {
		var communityID, userID string
		if err := rows.Scan(&communityID, &userID); err != nil {
			return nil, err
		}
		members[communityID] = append(members[communityID], userID)
	}
	return members, rows.Err()
}

// addMember writes both membership mirrors. Existing rows are left alone.
func addMember(ctx context.Context, q querier, communityID, userID string, joinedAt int64) error {
	if _, err := q.ExecContext(ctx,
		"INSERT OR IGNORE INTO community_members (community_id, user_id, joined_at) VALUES (?, ?, ?)",
		communityID, userID, joinedAt); err != nil {
		return fmt.Errorf("failed to add community member: %w", err)
	}
	if _, err := q.ExecContext(ctx,
		"INSERT OR IGNORE INTO user_communities (user_id, community_id, joined_at) VALUES (?, ?, ?)",
		userID, communityID, joinedAt); err != nil {
		return fmt.Errorf("failed to add joined community: %w", err)
	}
	return nil
}

func publish(p realtime.Publisher, collection, communityID string) {
	if p == nil {
		return
	}
	p.Publish(realtime.Topic{Collection: collection, CommunityID: communityID})
}
