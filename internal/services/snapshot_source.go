package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/cenkalti/backoff/v5"
	"github.com/isdelr/simplecomm-be/internal/realtime"
)

// SnapshotSource loads the full ordered result set of a realtime topic from
// the services that own each collection.
type SnapshotSource struct {
	Communities CommunityServiceProvider
	Messages    MessageServiceProvider
	Events      EventServiceProvider
	Expenses    ExpenseServiceProvider
	FAQs        FAQServiceProvider
}

// Snapshot implements realtime.Source. Errors that a reload cannot fix, such
// as a missing community or an unknown collection, are marked permanent so
// the stream ends without retrying.
func (s *SnapshotSource) Snapshot(ctx context.Context, topic realtime.Topic) (any, error) {
	items, err := s.load(ctx, topic)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) || errors.Is(err, realtime.ErrUnknownCollection) {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}
	return items, nil
}

func (s *SnapshotSource) load(ctx context.Context, topic realtime.Topic) (any, error) {
	if topic.CommunityID == "" {
		return nil, validationError("communityId is required")
	}

	switch topic.Collection {
	case realtime.CollectionCommunity:
		return s.Communities.GetCommunityByID(ctx, topic.CommunityID)
	case realtime.CollectionMessages:
		return s.Messages.GetMessages(ctx, topic.CommunityID)
	case realtime.CollectionEvents:
		return s.Events.GetEvents(ctx, topic.CommunityID)
	case realtime.CollectionExpenses:
		return s.Expenses.GetExpenses(ctx, topic.CommunityID)
	case realtime.CollectionFAQs:
		return s.FAQs.GetFAQs(ctx, topic.CommunityID)
	default:
		return nil, fmt.Errorf("%w: %q", realtime.ErrUnknownCollection, topic.Collection)
	}
}
