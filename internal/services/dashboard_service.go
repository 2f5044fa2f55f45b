package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/isdelr/simplecomm-be/internal/models"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// DashboardServiceProvider defines the interface for platform statistics.
type DashboardServiceProvider interface {
	GetDashboardStatistics(ctx context.Context) (models.DashboardStats, error)
}

// DashboardService summarizes platform activity and host load.
type DashboardService struct {
	db    *sql.DB
	clock *Clock
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(db *sql.DB, clock *Clock) *DashboardService {
	return &DashboardService{db: db, clock: clock}
}

// GetDashboardStatistics counts users, communities and messages and samples
// host CPU and memory usage. Host sampling failures only zero those fields.
func (s *DashboardService) GetDashboardStatistics(ctx context.Context) (models.DashboardStats, error) {
	stats := models.DashboardStats{
		CategoryDist: make(map[string]int),
		GeneratedAt:  s.clock.Now(),
	}

	counts := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(1) FROM communities", &stats.TotalCommunities},
		{"SELECT COUNT(1) FROM users", &stats.TotalUsers},
		{"SELECT COUNT(1) FROM messages", &stats.TotalMessages},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return stats, fmt.Errorf("failed to count: %w", err)
		}
	}

	rows, err := s.db.QueryContext(ctx, "SELECT category, COUNT(1) FROM communities GROUP BY category")
	if err != nil {
		return stats, err
	}
	for rows.Next() {
		var category string
		var n int
		if err := rows.Scan(&category, &n); err != nil {
			rows.Close()
			return stats, err
		}
		stats.CategoryDist[category] = n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return stats, err
	}

	if percents, err := cpu.PercentWithContext(ctx, 0, false); err != nil {
		log.Debug().Err(err).Msg("Failed to sample CPU usage")
	} else if len(percents) > 0 {
		stats.CPUPercent = percents[0]
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err != nil {
		log.Debug().Err(err).Msg("Failed to sample memory usage")
	} else {
		stats.MemoryPercent = vm.UsedPercent
	}

	return stats, nil
}
