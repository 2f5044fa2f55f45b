package jobs

import (
	"context"
	"time"

	"github.com/isdelr/simplecomm-be/internal/services"
	"github.com/isdelr/simplecomm-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

const (
	highCPUThreshold = 90.0
	alertCooldown    = 15 * time.Minute
)

// StatsBroadcaster periodically pushes dashboard statistics to every
// connected client.
type StatsBroadcaster struct {
	dashboard services.DashboardServiceProvider
	announcer services.Announcer
	interval  time.Duration
	done      chan struct{}
	lastAlert time.Time
}

// NewStatsBroadcaster creates a new StatsBroadcaster.
func NewStatsBroadcaster(dashboard services.DashboardServiceProvider, announcer services.Announcer, interval time.Duration) *StatsBroadcaster {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &StatsBroadcaster{
		dashboard: dashboard,
		announcer: announcer,
		interval:  interval,
		done:      make(chan struct{}),
	}
}

// Run starts the periodic updates.
func (b *StatsBroadcaster) Run() {
	log.Info().Dur("interval", b.interval).Msg("Starting dashboard stats broadcaster...")
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	// Run once immediately on start
	b.broadcast()

	for {
		select {
		case <-b.done:
			log.Info().Msg("Stopping dashboard stats broadcaster.")
			return
		case <-ticker.C:
			b.broadcast()
		}
	}
}

// Stop halts the periodic updates.
func (b *StatsBroadcaster) Stop() {
	close(b.done)
}

func (b *StatsBroadcaster) broadcast() {
	ctx, cancel := context.WithTimeout(context.Background(), b.interval)
	defer cancel()

	stats, err := b.dashboard.GetDashboardStatistics(ctx)
	if err != nil {
		log.Error().Err(err).Msg("StatsBroadcaster: Failed to collect statistics")
		return
	}

	if stats.CPUPercent > highCPUThreshold && time.Since(b.lastAlert) >= alertCooldown {
		log.Warn().Float64("cpu_percent", stats.CPUPercent).Msg("High CPU usage on host")
		b.lastAlert = time.Now()
	}

	b.announcer.Announce(websocket.ActionDashboardStats, stats)
}
