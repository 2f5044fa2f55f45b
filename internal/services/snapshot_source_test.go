package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/isdelr/simplecomm-be/internal/models"
	"github.com/isdelr/simplecomm-be/internal/realtime"
)

func TestSnapshotSourceFeedsBroker(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner")
	c := env.community(t, owner.ID, "Live", "Gaming")

	source := &SnapshotSource{
		Communities: env.communities,
		Messages:    env.messages,
		Events:      env.events,
		Expenses:    env.expenses,
		FAQs:        NewFAQService(env.db, env.clock, env.users, nil, nil),
	}
	broker := realtime.NewBroker(source, realtime.RetryPolicy{MaxAttempts: 2, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond})
	env.messages.publisher = broker

	topic := realtime.Topic{Collection: realtime.CollectionMessages, CommunityID: c.ID}
	sub := broker.Subscribe(topic, func(any) {}, func(error) {})
	defer sub.Unsubscribe()

	if _, err := env.messages.PostMessage(ctx, owner.ID, c.ID, "pertama", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := env.messages.PostMessage(ctx, owner.ID, c.ID, "kedua", ""); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		msgs, _ := sub.Latest().([]models.Message)
		if len(msgs) == 2 {
			if msgs[0].Text != "pertama" || msgs[1].Text != "kedua" {
				t.Errorf("snapshot order = %q, %q", msgs[0].Text, msgs[1].Text)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("snapshot never caught up, latest = %v", sub.Latest())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestSnapshotSourceRejectsUnknownCollection(t *testing.T) {
	source := &SnapshotSource{}
	_, err := source.Snapshot(context.Background(), realtime.Topic{Collection: "users", CommunityID: "c1"})
	if !errors.Is(err, realtime.ErrUnknownCollection) {
		t.Errorf("Snapshot() error = %v, want ErrUnknownCollection", err)
	}
}

// countingSource counts how often the broker reloads a topic.
type countingSource struct {
	inner realtime.Source
	mu    sync.Mutex
	calls int
}

func (c *countingSource) Snapshot(ctx context.Context, topic realtime.Topic) (any, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.inner.Snapshot(ctx, topic)
}

func (c *countingSource) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func TestSnapshotSourceMissingCommunityFailsWithoutRetry(t *testing.T) {
	env := newTestEnv(t)
	source := &countingSource{inner: &SnapshotSource{Communities: env.communities}}
	broker := realtime.NewBroker(source, realtime.RetryPolicy{MaxAttempts: 5, InitialInterval: time.Second, MaxInterval: time.Second})

	failed := make(chan error, 1)
	topic := realtime.Topic{Collection: realtime.CollectionCommunity, CommunityID: "missing"}
	sub := broker.Subscribe(topic, func(any) {}, func(err error) { failed <- err })
	defer sub.Unsubscribe()

	select {
	case err := <-failed:
		if !errors.Is(err, ErrCommunityNotFound) {
			t.Errorf("unavailable error = %v, want ErrCommunityNotFound", err)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("stream was retried instead of failing at once")
	}
	if n := source.count(); n != 1 {
		t.Errorf("source called %d times, want 1", n)
	}
	if sub.State() != realtime.StateUnavailable {
		t.Errorf("state = %v, want unavailable", sub.State())
	}
}

func TestSnapshotSourceMarksPermanentErrors(t *testing.T) {
	env := newTestEnv(t)
	source := &SnapshotSource{Communities: env.communities}

	tests := []struct {
		name  string
		topic realtime.Topic
		want  error
	}{
		{"unknown collection", realtime.Topic{Collection: "users", CommunityID: "c1"}, realtime.ErrUnknownCollection},
		{"missing community id", realtime.Topic{Collection: realtime.CollectionCommunity}, ErrValidation},
		{"missing community", realtime.Topic{Collection: realtime.CollectionCommunity, CommunityID: "missing"}, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := source.Snapshot(context.Background(), tt.topic)
			var permanent *backoff.PermanentError
			if !errors.As(err, &permanent) {
				t.Fatalf("Snapshot() error = %v, want permanent", err)
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Snapshot() error = %v, want %v", err, tt.want)
			}
		})
	}
}
