package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/isdelr/simplecomm-be/internal/metrics"
	"github.com/isdelr/simplecomm-be/internal/models"
	"github.com/isdelr/simplecomm-be/internal/realtime"
	"github.com/rs/zerolog/log"
)

// CanPost reports whether user may post to community's chat. Membership is
// read from the community's own member set.
func CanPost(user *models.User, community *models.Community) bool {
	if user == nil || community == nil {
		return false
	}
	return community.HasMember(user.ID)
}

// MembershipServiceProvider defines the interface for membership services.
type MembershipServiceProvider interface {
	Join(ctx context.Context, userID, communityID string) (models.Community, error)
	Reconcile(ctx context.Context) (int, error)
}

// MembershipService keeps Community.members and User.joinedCommIds in step.
type MembershipService struct {
	db        *sql.DB
	clock     *Clock
	publisher realtime.Publisher
}

// NewMembershipService creates a new MembershipService.
func NewMembershipService(db *sql.DB, clock *Clock, publisher realtime.Publisher) *MembershipService {
	return &MembershipService{db: db, clock: clock, publisher: publisher}
}

// Join adds the user to the community. Joining twice is a no-op. Both
// mirrors are written in one transaction, so a failure leaves neither
// changed.
func (s *MembershipService) Join(ctx context.Context, userID, communityID string) (models.Community, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Community{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(1) FROM users WHERE id = ?", userID).Scan(&exists); err != nil {
		return models.Community{}, err
	}
	if exists == 0 {
		return models.Community{}, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(1) FROM communities WHERE id = ?", communityID).Scan(&exists); err != nil {
		return models.Community{}, err
	}
	if exists == 0 {
		return models.Community{}, fmt.Errorf("%w: %s", ErrCommunityNotFound, communityID)
	}

	if err := addMember(ctx, tx, communityID, userID, s.clock.Now().UnixNano()); err != nil {
		metrics.MembershipJoins.WithLabelValues("failed").Inc()
		log.Error().Err(err).Str("community_id", communityID).Str("user_id", userID).Msg("Join rolled back")
		return models.Community{}, fmt.Errorf("%w: %w", ErrJoinFailed, err)
	}

	community, err := getCommunity(ctx, tx, communityID)
	if err != nil {
		return models.Community{}, err
	}
	if err := tx.Commit(); err != nil {
		metrics.MembershipJoins.WithLabelValues("failed").Inc()
		return models.Community{}, fmt.Errorf("%w: %w", ErrJoinFailed, err)
	}

	metrics.MembershipJoins.WithLabelValues("ok").Inc()
	publish(s.publisher, realtime.CollectionCommunity, communityID)
	return community, nil
}

// Reconcile adds whichever mirror row is missing for every membership known
// to either side and returns the number of rows written.
func (s *MembershipService) Reconcile(ctx context.Context) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Communities whose member set is about to grow need a fresh snapshot.
	rows, err := tx.QueryContext(ctx, `
		SELECT DISTINCT uc.community_id FROM user_communities uc
		WHERE NOT EXISTS (
			SELECT 1 FROM community_members cm
			WHERE cm.user_id = uc.user_id AND cm.community_id = uc.community_id
		)`)
	if err != nil {
		return 0, fmt.Errorf("failed to query drifted communities: %w", err)
	}
	var grown []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, err
		}
		grown = append(grown, id)
	}
	rows.Close()

	toUser, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO user_communities (user_id, community_id, joined_at)
		SELECT cm.user_id, cm.community_id, cm.joined_at FROM community_members cm
		WHERE NOT EXISTS (
			SELECT 1 FROM user_communities uc
			WHERE uc.user_id = cm.user_id AND uc.community_id = cm.community_id
		)`)
	if err != nil {
		return 0, fmt.Errorf("failed to repair joined communities: %w", err)
	}
	toCommunity, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO community_members (community_id, user_id, joined_at)
		SELECT uc.community_id, uc.user_id, uc.joined_at FROM user_communities uc
		WHERE NOT EXISTS (
			SELECT 1 FROM community_members cm
			WHERE cm.user_id = uc.user_id AND cm.community_id = uc.community_id
		)`)
	if err != nil {
		return 0, fmt.Errorf("failed to repair community members: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	a, _ := toUser.RowsAffected()
	b, _ := toCommunity.RowsAffected()
	repaired := int(a + b)
	if repaired > 0 {
		metrics.MembershipRepairs.Add(float64(repaired))
		log.Warn().Int("repaired", repaired).Msg("Membership mirrors were out of sync")
	}
	for _, id := range grown {
		publish(s.publisher, realtime.CollectionCommunity, id)
	}
	return repaired, nil
}
