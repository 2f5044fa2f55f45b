// Package realtime turns "watch a filtered, ordered collection" into a push
// stream of complete snapshots.
//
// Every change to a topic causes each subscriber to reload the whole result
// set and receive it again; subscribers never see deltas. Reload failures are
// retried with exponential backoff and, once the retry budget is spent, the
// subscription ends in the terminal Unavailable state.
package realtime

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"
)

// Collections that can be watched.
const (
	CollectionCommunity = "community"
	CollectionMessages  = "messages"
	CollectionEvents    = "events"
	CollectionExpenses  = "expenses"
	CollectionFAQs      = "faqs"
)

// IsValidCollection reports whether name can be watched.
func IsValidCollection(name string) bool {
	switch name {
	case CollectionCommunity, CollectionMessages, CollectionEvents, CollectionExpenses, CollectionFAQs:
		return true
	}
	return false
}

// ErrUnknownCollection is returned by sources for collections they do not serve.
var ErrUnknownCollection = errors.New("unknown collection")

// Topic identifies a live query: one collection filtered by community.
type Topic struct {
	Collection  string `json:"collection"`
	CommunityID string `json:"communityId"`
}

// Source loads the current ordered result set of a topic.
type Source interface {
	Snapshot(ctx context.Context, topic Topic) (any, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, topic Topic) (any, error)

// Snapshot calls f.
func (f SourceFunc) Snapshot(ctx context.Context, topic Topic) (any, error) {
	return f(ctx, topic)
}

// Publisher is notified after a topic's underlying data changed.
type Publisher interface {
	Publish(topic Topic)
}

// RetryPolicy bounds snapshot reload retries.
type RetryPolicy struct {
	MaxAttempts     uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy is used when the broker is built with a zero policy.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts:     5,
	InitialInterval: 100 * time.Millisecond,
	MaxInterval:     5 * time.Second,
}

func (p RetryPolicy) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.MaxInterval = p.MaxInterval
	return b
}

// Observer receives broker lifecycle signals, e.g. for metrics.
type Observer interface {
	SnapshotDelivered(collection string)
	StreamFailed(collection string)
}

type nopObserver struct{}

func (nopObserver) SnapshotDelivered(string) {}
func (nopObserver) StreamFailed(string)      {}

// Broker fans change notifications out to subscriptions.
type Broker struct {
	source   Source
	policy   RetryPolicy
	observer Observer

	mu   sync.RWMutex
	subs map[Topic]map[*Subscription]struct{}
}

// NewBroker creates a Broker that loads snapshots from source.
func NewBroker(source Source, policy RetryPolicy) *Broker {
	if policy.MaxAttempts == 0 {
		policy.MaxAttempts = DefaultRetryPolicy.MaxAttempts
	}
	if policy.InitialInterval <= 0 {
		policy.InitialInterval = DefaultRetryPolicy.InitialInterval
	}
	if policy.MaxInterval < policy.InitialInterval {
		policy.MaxInterval = policy.InitialInterval
	}
	return &Broker{
		source:   source,
		policy:   policy,
		observer: nopObserver{},
		subs:     make(map[Topic]map[*Subscription]struct{}),
	}
}

// SetObserver installs an observer. It must be called before Subscribe.
func (b *Broker) SetObserver(o Observer) {
	if o == nil {
		o = nopObserver{}
	}
	b.observer = o
}

// Subscribe starts a live query. onSnapshot receives the full ordered result
// set once immediately and again after every Publish of the topic.
// onUnavailable, if non-nil, is called at most once when reloading keeps
// failing past the retry policy. Callbacks run on the subscription's own
// goroutine and must not call Unsubscribe.
func (b *Broker) Subscribe(topic Topic, onSnapshot func(any), onUnavailable func(error)) *Subscription {
	ctx, cancel := context.WithCancel(context.Background())
	sub := &Subscription{
		topic:         topic,
		broker:        b,
		onSnapshot:    onSnapshot,
		onUnavailable: onUnavailable,
		wake:          make(chan struct{}, 1),
		ctx:           ctx,
		cancel:        cancel,
		done:          make(chan struct{}),
		state:         StateActive,
	}

	b.mu.Lock()
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[*Subscription]struct{})
	}
	b.subs[topic][sub] = struct{}{}
	b.mu.Unlock()

	sub.wake <- struct{}{}
	go sub.run()

	log.Debug().Str("collection", topic.Collection).Str("community_id", topic.CommunityID).Msg("Subscription started")
	return sub
}

// Publish marks every subscription on topic as stale. It never blocks:
// pending notifications coalesce into a single reload.
func (b *Broker) Publish(topic Topic) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subs[topic] {
		select {
		case sub.wake <- struct{}{}:
		default:
		}
	}
}

// SubscriberCount returns the number of live subscriptions on topic.
func (b *Broker) SubscriberCount(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}

func (b *Broker) remove(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if subs, ok := b.subs[sub.topic]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(b.subs, sub.topic)
		}
	}
}
