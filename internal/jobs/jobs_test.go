package jobs

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/isdelr/simplecomm-be/internal/models"
	"github.com/isdelr/simplecomm-be/internal/websocket"
)

func TestDuesDueOn(t *testing.T) {
	mandatory := func(day int) models.Community {
		return models.Community{IsDuesMandatory: true, DuesAmount: "50000", DuesDate: day}
	}

	tests := []struct {
		name string
		c    models.Community
		day  time.Time
		want bool
	}{
		{"due today", mandatory(10), time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC), true},
		{"other day", mandatory(10), time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC), false},
		{"voluntary", models.Community{DuesDate: 10}, time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC), false},
		{"31st in February falls on the 29th", mandatory(31), time.Date(2024, 2, 29, 9, 0, 0, 0, time.UTC), true},
		{"31st in February not on the 28th of a leap year", mandatory(31), time.Date(2024, 2, 28, 9, 0, 0, 0, time.UTC), false},
		{"31st in a 31-day month", mandatory(31), time.Date(2024, 1, 30, 9, 0, 0, 0, time.UTC), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DuesDueOn(tt.c, tt.day); got != tt.want {
				t.Errorf("DuesDueOn() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDuesReminderText(t *testing.T) {
	c := models.Community{IsDuesMandatory: true, DuesAmount: "50000", DuesDate: 10}
	want := "Pengingat: iuran Rp 50.000 / bulan jatuh tempo hari ini (Tanggal 10)."
	if got := DuesReminderText(c); got != want {
		t.Errorf("DuesReminderText() = %q, want %q", got, want)
	}
}

type stubDashboard struct{}

func (stubDashboard) GetDashboardStatistics(context.Context) (models.DashboardStats, error) {
	return models.DashboardStats{TotalCommunities: 3}, nil
}

type captureAnnouncer struct {
	mu      sync.Mutex
	actions []string
}

func (c *captureAnnouncer) Announce(action string, _ any) {
	c.mu.Lock()
	c.actions = append(c.actions, action)
	c.mu.Unlock()
}

func (c *captureAnnouncer) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.actions)
}

func TestStatsBroadcasterAnnounces(t *testing.T) {
	announcer := &captureAnnouncer{}
	b := NewStatsBroadcaster(stubDashboard{}, announcer, 5*time.Millisecond)
	go b.Run()
	defer b.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for announcer.len() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("got %d announcements, want at least 2", announcer.len())
		}
		time.Sleep(time.Millisecond)
	}
	announcer.mu.Lock()
	defer announcer.mu.Unlock()
	if announcer.actions[0] != websocket.ActionDashboardStats {
		t.Errorf("action = %q", announcer.actions[0])
	}
}
