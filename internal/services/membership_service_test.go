package services

import (
	"context"
	"errors"
	"testing"

	"github.com/isdelr/simplecomm-be/internal/models"
	"github.com/isdelr/simplecomm-be/internal/realtime"
)

func TestCanPost(t *testing.T) {
	alice := &models.User{ID: "alice"}
	community := &models.Community{ID: "c1", Members: []string{"alice"}}

	tests := []struct {
		name      string
		user      *models.User
		community *models.Community
		want      bool
	}{
		{"member", alice, community, true},
		{"non-member", &models.User{ID: "bob"}, community, false},
		{"signed out", nil, community, false},
		{"community not loaded", alice, nil, false},
		{"user mirror alone is not enough", &models.User{ID: "carol", JoinedCommIDs: []string{"c1"}}, community, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanPost(tt.user, tt.community); got != tt.want {
				t.Errorf("CanPost() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestJoinIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner")
	bob := env.user(t, "bob")
	c := env.community(t, owner.ID, "Mabar", "Gaming")

	for i := 0; i < 2; i++ {
		if _, err := env.membership.Join(ctx, bob.ID, c.ID); err != nil {
			t.Fatalf("Join() #%d error = %v", i+1, err)
		}
	}

	got, err := env.communities.GetCommunityByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetCommunityByID() error = %v", err)
	}
	if len(got.Members) != 2 || !got.HasMember(bob.ID) {
		t.Errorf("members = %v, want owner and bob once", got.Members)
	}

	u, err := env.users.GetUserByID(ctx, bob.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if len(u.JoinedCommIDs) != 1 || u.JoinedCommIDs[0] != c.ID {
		t.Errorf("joinedCommIds = %v, want [%s]", u.JoinedCommIDs, c.ID)
	}

	topic := realtime.Topic{Collection: realtime.CollectionCommunity, CommunityID: c.ID}
	if n := env.pub.count(topic); n != 2 {
		t.Errorf("community topic published %d times, want 2", n)
	}
}

func TestJoinUnknownCommunity(t *testing.T) {
	env := newTestEnv(t)
	bob := env.user(t, "bob")

	_, err := env.membership.Join(context.Background(), bob.ID, "missing")
	if !errors.Is(err, ErrCommunityNotFound) {
		t.Fatalf("Join() error = %v, want ErrCommunityNotFound", err)
	}
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("ErrCommunityNotFound should wrap ErrNotFound")
	}
}

func TestJoinRollsBackWhenMirrorWriteFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner")
	bob := env.user(t, "bob")
	c := env.community(t, owner.ID, "Kopi", "Masak & Kuliner")

	// Take the user-side mirror away so its write fails after the
	// community-side write succeeded.
	if _, err := env.db.Exec("ALTER TABLE user_communities RENAME TO user_communities_off"); err != nil {
		t.Fatalf("rename: %v", err)
	}

	_, err := env.membership.Join(ctx, bob.ID, c.ID)
	if !errors.Is(err, ErrJoinFailed) {
		t.Fatalf("Join() error = %v, want ErrJoinFailed", err)
	}

	if _, err := env.db.Exec("ALTER TABLE user_communities_off RENAME TO user_communities"); err != nil {
		t.Fatalf("rename back: %v", err)
	}

	got, err := env.communities.GetCommunityByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetCommunityByID() error = %v", err)
	}
	if got.HasMember(bob.ID) {
		t.Errorf("community mirror kept bob after a failed join: %v", got.Members)
	}
	u, err := env.users.GetUserByID(ctx, bob.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if len(u.JoinedCommIDs) != 0 {
		t.Errorf("user mirror = %v, want empty", u.JoinedCommIDs)
	}
}

func TestReconcileRepairsDrift(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner")
	bob := env.user(t, "bob")
	carol := env.user(t, "carol")
	c := env.community(t, owner.ID, "Futsal", "Olahraga & Kesehatan")

	// bob is only on the community side, carol only on the user side.
	if _, err := env.db.Exec("INSERT INTO community_members (community_id, user_id, joined_at) VALUES (?, ?, 1)", c.ID, bob.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := env.db.Exec("INSERT INTO user_communities (user_id, community_id, joined_at) VALUES (?, ?, 2)", carol.ID, c.ID); err != nil {
		t.Fatal(err)
	}

	repaired, err := env.membership.Reconcile(ctx)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if repaired != 2 {
		t.Errorf("Reconcile() repaired %d rows, want 2", repaired)
	}

	got, _ := env.communities.GetCommunityByID(ctx, c.ID)
	if !got.HasMember(carol.ID) {
		t.Errorf("carol missing from members: %v", got.Members)
	}
	b, _ := env.users.GetUserByID(ctx, bob.ID)
	if !b.HasJoined(c.ID) {
		t.Errorf("bob's joinedCommIds = %v", b.JoinedCommIDs)
	}

	repaired, err = env.membership.Reconcile(ctx)
	if err != nil || repaired != 0 {
		t.Errorf("second Reconcile() = %d, %v; want 0, nil", repaired, err)
	}
}
