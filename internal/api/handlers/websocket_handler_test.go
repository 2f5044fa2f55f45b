package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/isdelr/simplecomm-be/internal/auth"
	"github.com/isdelr/simplecomm-be/internal/database"
	"github.com/isdelr/simplecomm-be/internal/models"
	"github.com/isdelr/simplecomm-be/internal/realtime"
	"github.com/isdelr/simplecomm-be/internal/services"
	ws "github.com/isdelr/simplecomm-be/internal/websocket"
)

type wsTestEnv struct {
	srv         *httptest.Server
	hub         *ws.Hub
	broker      *realtime.Broker
	tokens      *auth.TokenIssuer
	users       *services.UserService
	communities *services.CommunityService
	membership  *services.MembershipService
	messages    *services.MessageService
}

func newWSTestEnv(t *testing.T) *wsTestEnv {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "ws.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.Migrate(db); err != nil {
		t.Fatal(err)
	}

	env := &wsTestEnv{hub: ws.NewHub(), tokens: auth.NewTokenIssuer("test-secret")}
	go env.hub.Run()
	t.Cleanup(env.hub.Stop)

	var source *services.SnapshotSource
	env.broker = realtime.NewBroker(realtime.SourceFunc(func(ctx context.Context, topic realtime.Topic) (any, error) {
		return source.Snapshot(ctx, topic)
	}), realtime.RetryPolicy{MaxAttempts: 2, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond})

	clock := services.NewClock()
	env.users = services.NewUserService(db, clock)
	env.communities = services.NewCommunityService(db, clock, env.users, env.broker, env.hub)
	env.membership = services.NewMembershipService(db, clock, env.broker)
	env.messages = services.NewMessageService(db, clock, env.users, env.broker)
	source = &services.SnapshotSource{
		Communities: env.communities,
		Messages:    env.messages,
		Events:      services.NewEventService(db, clock, env.broker),
		Expenses:    services.NewExpenseService(db, clock, env.broker),
		FAQs:        services.NewFAQService(db, clock, env.users, nil, env.broker),
	}

	h := NewWebSocketHandler(env.hub, env.broker, []string{"http://localhost:3000"})
	mux := http.NewServeMux()
	mux.Handle("/ws", env.tokens.JWTMiddleware()(http.HandlerFunc(h.Serve)))
	env.srv = httptest.NewServer(mux)
	t.Cleanup(env.srv.Close)
	return env
}

func (e *wsTestEnv) user(t *testing.T, name string) (models.User, string) {
	t.Helper()
	u, err := e.users.CreateUser(context.Background(), name, name+"@example.com", "secret123", "Jakarta")
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", name, err)
	}
	token, err := e.tokens.GenerateJWT(u)
	if err != nil {
		t.Fatal(err)
	}
	return u, token
}

func (e *wsTestEnv) dial(t *testing.T, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, action string, topic realtime.Topic) {
	t.Helper()
	payload, _ := json.Marshal(topic)
	if err := conn.WriteJSON(ws.Message{Action: action, Payload: payload}); err != nil {
		t.Fatalf("write %s: %v", action, err)
	}
}

func readMessage(t *testing.T, conn *websocket.Conn) ws.Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var msg ws.Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

type messageSnapshot struct {
	Collection  string                   `json:"collection"`
	CommunityID string                   `json:"communityId"`
	Items       []models.RenderedMessage `json:"items"`
}

func readMessageSnapshot(t *testing.T, conn *websocket.Conn) messageSnapshot {
	t.Helper()
	msg := readMessage(t, conn)
	if msg.Action != ws.ActionSnapshot {
		t.Fatalf("action = %q, want %q (payload %s)", msg.Action, ws.ActionSnapshot, msg.Payload)
	}
	var snap messageSnapshot
	if err := json.Unmarshal(msg.Payload, &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	return snap
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWebSocketMessageStream(t *testing.T) {
	env := newWSTestEnv(t)
	ctx := context.Background()
	alice, aliceToken := env.user(t, "alice")
	bob, bobToken := env.user(t, "bob")
	c, err := env.communities.CreateCommunity(ctx, alice.ID, services.CommunityInput{Name: "Mabar", Address: "Depok", Category: "Gaming"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.membership.Join(ctx, bob.ID, c.ID); err != nil {
		t.Fatal(err)
	}
	topic := realtime.Topic{Collection: realtime.CollectionMessages, CommunityID: c.ID}

	aliceConn := env.dial(t, aliceToken)
	send(t, aliceConn, ws.ActionSubscribe, topic)

	snap := readMessageSnapshot(t, aliceConn)
	if snap.Collection != topic.Collection || snap.CommunityID != c.ID || len(snap.Items) != 0 {
		t.Fatalf("initial snapshot = %+v, want empty %v", snap, topic)
	}

	if _, err := env.messages.PostMessage(ctx, alice.ID, c.ID, "halo", ""); err != nil {
		t.Fatal(err)
	}
	snap = readMessageSnapshot(t, aliceConn)
	if len(snap.Items) != 1 || snap.Items[0].Text != "halo" || !snap.Items[0].Own {
		t.Fatalf("snapshot after post = %+v", snap.Items)
	}

	t.Run("snapshots are rendered per viewer", func(t *testing.T) {
		bobConn := env.dial(t, bobToken)
		send(t, bobConn, ws.ActionSubscribe, topic)
		snap := readMessageSnapshot(t, bobConn)
		if len(snap.Items) != 1 || snap.Items[0].Own {
			t.Fatalf("bob's snapshot = %+v, want one message not own", snap.Items)
		}

		if _, err := env.messages.PostMessage(ctx, bob.ID, c.ID, "siap", ""); err != nil {
			t.Fatal(err)
		}
		snap = readMessageSnapshot(t, bobConn)
		if len(snap.Items) != 2 || snap.Items[0].Own || !snap.Items[1].Own {
			t.Fatalf("bob's second snapshot = %+v", snap.Items)
		}
		// alice sees the same log with her own flags
		snap = readMessageSnapshot(t, aliceConn)
		if len(snap.Items) != 2 || !snap.Items[0].Own || snap.Items[1].Own {
			t.Fatalf("alice's second snapshot = %+v", snap.Items)
		}

		waitFor(t, "two subscribers", func() bool { return env.broker.SubscriberCount(topic) == 2 })
		bobConn.Close()
		waitFor(t, "disconnect to release bob's subscription", func() bool { return env.broker.SubscriberCount(topic) == 1 })
		waitFor(t, "hub to drop bob", func() bool { return env.hub.ClientCount() == 1 })
	})

	t.Run("unsubscribe twice", func(t *testing.T) {
		send(t, aliceConn, ws.ActionUnsubscribe, topic)
		send(t, aliceConn, ws.ActionUnsubscribe, topic)
		waitFor(t, "unsubscribe", func() bool { return env.broker.SubscriberCount(topic) == 0 })

		if _, err := env.messages.PostMessage(ctx, alice.ID, c.ID, "masih ada?", ""); err != nil {
			t.Fatal(err)
		}
		// The next frame must be the reply to this request, not a snapshot.
		send(t, aliceConn, ws.ActionSubscribe, realtime.Topic{Collection: "users", CommunityID: c.ID})
		msg := readMessage(t, aliceConn)
		if msg.Action != ws.ActionError {
			t.Fatalf("action = %q, want %q (payload %s)", msg.Action, ws.ActionError, msg.Payload)
		}
	})
}

func TestWebSocketRejectsBadSubscriptions(t *testing.T) {
	env := newWSTestEnv(t)
	_, token := env.user(t, "alice")
	conn := env.dial(t, token)

	tests := []struct {
		name  string
		topic realtime.Topic
	}{
		{"unknown collection", realtime.Topic{Collection: "users", CommunityID: "c1"}},
		{"missing community id", realtime.Topic{Collection: realtime.CollectionMessages}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			send(t, conn, ws.ActionSubscribe, tt.topic)
			msg := readMessage(t, conn)
			if msg.Action != ws.ActionError {
				t.Errorf("action = %q, want %q", msg.Action, ws.ActionError)
			}
			if env.broker.SubscriberCount(tt.topic) != 0 {
				t.Error("subscription created for rejected topic")
			}
		})
	}

	t.Run("unknown action", func(t *testing.T) {
		send(t, conn, "shout", realtime.Topic{})
		if msg := readMessage(t, conn); msg.Action != ws.ActionError {
			t.Errorf("action = %q, want %q", msg.Action, ws.ActionError)
		}
	})
}

func TestWebSocketStreamUnavailable(t *testing.T) {
	env := newWSTestEnv(t)
	_, token := env.user(t, "alice")
	conn := env.dial(t, token)

	topic := realtime.Topic{Collection: realtime.CollectionCommunity, CommunityID: "missing"}
	send(t, conn, ws.ActionSubscribe, topic)

	msg := readMessage(t, conn)
	if msg.Action != ws.ActionStreamUnavailable {
		t.Fatalf("action = %q, want %q", msg.Action, ws.ActionStreamUnavailable)
	}
	var payload ws.UnavailablePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Topic != topic || payload.Error == "" {
		t.Errorf("payload = %+v", payload)
	}
	waitFor(t, "failed stream to leave the broker", func() bool { return env.broker.SubscriberCount(topic) == 0 })
}

func TestWebSocketRequiresToken(t *testing.T) {
	env := newWSTestEnv(t)
	url := "ws" + strings.TrimPrefix(env.srv.URL, "http") + "/ws"
	_, res, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("dial without token succeeded")
	}
	if res == nil || res.StatusCode != http.StatusUnauthorized {
		t.Errorf("response = %v, want 401", res)
	}
}

func TestWebSocketRejectsForeignOrigin(t *testing.T) {
	env := newWSTestEnv(t)
	_, token := env.user(t, "alice")
	url := "ws" + strings.TrimPrefix(env.srv.URL, "http") + "/ws?token=" + token
	_, res, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"http://evil.example"}})
	if err == nil {
		t.Fatal("dial from foreign origin succeeded")
	}
	if res == nil || res.StatusCode != http.StatusForbidden {
		t.Errorf("response = %v, want 403", res)
	}
}
