package services

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"

	"github.com/isdelr/simplecomm-be/internal/database"
	"github.com/isdelr/simplecomm-be/internal/models"
	"github.com/isdelr/simplecomm-be/internal/realtime"
)

// recordingPublisher remembers every published topic.
type recordingPublisher struct {
	mu     sync.Mutex
	topics []realtime.Topic
}

func (p *recordingPublisher) Publish(topic realtime.Topic) {
	p.mu.Lock()
	p.topics = append(p.topics, topic)
	p.mu.Unlock()
}

func (p *recordingPublisher) count(topic realtime.Topic) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, t := range p.topics {
		if t == topic {
			n++
		}
	}
	return n
}

type recordingAnnouncer struct {
	mu      sync.Mutex
	actions []string
}

func (a *recordingAnnouncer) Announce(action string, _ any) {
	a.mu.Lock()
	a.actions = append(a.actions, action)
	a.mu.Unlock()
}

type fakeAnswerer struct {
	answer string
	err    error
}

func (f fakeAnswerer) Ask(context.Context, string, string) (string, error) {
	return f.answer, f.err
}

type testEnv struct {
	db          *sql.DB
	clock       *Clock
	pub         *recordingPublisher
	announcer   *recordingAnnouncer
	users       *UserService
	communities *CommunityService
	membership  *MembershipService
	messages    *MessageService
	events      *EventService
	expenses    *ExpenseService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	env := &testEnv{db: db, clock: NewClock(), pub: &recordingPublisher{}, announcer: &recordingAnnouncer{}}
	env.users = NewUserService(db, env.clock)
	env.communities = NewCommunityService(db, env.clock, env.users, env.pub, env.announcer)
	env.membership = NewMembershipService(db, env.clock, env.pub)
	env.messages = NewMessageService(db, env.clock, env.users, env.pub)
	env.events = NewEventService(db, env.clock, env.pub)
	env.expenses = NewExpenseService(db, env.clock, env.pub)
	return env
}

func (e *testEnv) user(t *testing.T, name string) models.User {
	t.Helper()
	u, err := e.users.CreateUser(context.Background(), name, name+"@example.com", "secret123", "Jakarta")
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", name, err)
	}
	return u
}

func (e *testEnv) community(t *testing.T, creatorID, name, category string) models.Community {
	t.Helper()
	c, err := e.communities.CreateCommunity(context.Background(), creatorID, CommunityInput{
		Name:     name,
		Address:  "Jl. Sudirman No. 1, Jakarta",
		Category: category,
	})
	if err != nil {
		t.Fatalf("CreateCommunity(%s): %v", name, err)
	}
	return c
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
