package realtime

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"
)

// State is the lifecycle state of a subscription.
type State int

const (
	StateActive State = iota
	StateUnavailable
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateUnavailable:
		return "unavailable"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Subscription is one live query. The most recent snapshot replaces the
// previous one wholesale.
type Subscription struct {
	topic         Topic
	broker        *Broker
	onSnapshot    func(any)
	onUnavailable func(error)

	wake   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once

	// mu guards state and latest, and is held while callbacks run so that
	// Unsubscribe cannot return while a delivery is in flight.
	mu     sync.Mutex
	state  State
	latest any
}

// Topic returns the watched topic.
func (s *Subscription) Topic() Topic {
	return s.topic
}

// State returns the current lifecycle state.
func (s *Subscription) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Latest returns the last delivered snapshot, or nil before the first one.
func (s *Subscription) Latest() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

// Done is closed once the subscription goroutine has exited.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Unsubscribe stops the subscription. It is safe to call more than once and
// from any goroutine other than a callback; after it returns no callback runs.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.cancel()
		s.broker.remove(s)

		s.mu.Lock()
		if s.state == StateActive {
			s.state = StateClosed
		}
		s.mu.Unlock()

		log.Debug().Str("collection", s.topic.Collection).Str("community_id", s.topic.CommunityID).Msg("Subscription stopped")
	})
}

func (s *Subscription) run() {
	defer close(s.done)
	policy := s.broker.policy

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.wake:
		}

		snapshot, err := backoff.Retry(s.ctx,
			func() (any, error) {
				return s.broker.source.Snapshot(s.ctx, s.topic)
			},
			backoff.WithBackOff(policy.newBackOff()),
			backoff.WithMaxTries(policy.MaxAttempts),
			backoff.WithNotify(func(err error, next time.Duration) {
				log.Warn().Err(err).
					Str("collection", s.topic.Collection).
					Str("community_id", s.topic.CommunityID).
					Dur("retry_in", next).
					Msg("Snapshot reload failed, retrying")
			}),
		)
		if err != nil {
			if s.ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return
			}
			s.fail(err)
			return
		}

		if !s.deliver(snapshot) {
			return
		}
	}
}

func (s *Subscription) deliver(snapshot any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return false
	}
	s.latest = snapshot
	if s.onSnapshot != nil {
		s.onSnapshot(snapshot)
	}
	s.broker.observer.SnapshotDelivered(s.topic.Collection)
	return true
}

func (s *Subscription) fail(err error) {
	s.mu.Lock()
	if s.state != StateActive {
		s.mu.Unlock()
		return
	}
	s.state = StateUnavailable
	if s.onUnavailable != nil {
		s.onUnavailable(err)
	}
	s.mu.Unlock()

	s.broker.observer.StreamFailed(s.topic.Collection)
	log.Error().Err(err).
		Str("collection", s.topic.Collection).
		Str("community_id", s.topic.CommunityID).
		Msg("Stream unavailable after retries")

	// Drop out of the broker; the owner still calls Unsubscribe on teardown.
	s.cancel()
	s.broker.remove(s)
}
