// Package jobs runs the service's background work.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/isdelr/simplecomm-be/internal/calculator"
	"github.com/isdelr/simplecomm-be/internal/models"
	"github.com/isdelr/simplecomm-be/internal/services"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

const jobTimeout = 2 * time.Minute

// Scheduler runs the cron-driven jobs: membership reconciliation and dues
// reminders.
type Scheduler struct {
	cron        *cron.Cron
	membership  services.MembershipServiceProvider
	communities services.CommunityServiceProvider
	messages    services.MessageServiceProvider
	now         func() time.Time
}

// NewScheduler creates a scheduler and registers its jobs. An invalid cron
// expression is returned as an error.
func NewScheduler(reconcileSpec, duesSpec string, membership services.MembershipServiceProvider, communities services.CommunityServiceProvider, messages services.MessageServiceProvider) (*Scheduler, error) {
	s := &Scheduler{
		cron:        cron.New(),
		membership:  membership,
		communities: communities,
		messages:    messages,
		now:         time.Now,
	}

	if _, err := s.cron.AddFunc(reconcileSpec, s.reconcile); err != nil {
		return nil, fmt.Errorf("invalid reconcile schedule %q: %w", reconcileSpec, err)
	}
	if _, err := s.cron.AddFunc(duesSpec, s.remindDues); err != nil {
		return nil, fmt.Errorf("invalid dues reminder schedule %q: %w", duesSpec, err)
	}
	return s, nil
}

// Run starts the scheduler. The mirrors are reconciled once immediately.
func (s *Scheduler) Run() {
	log.Info().Msg("Starting background scheduler...")
	s.reconcile()
	s.cron.Start()
}

// Stop halts the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Info().Msg("Stopped background scheduler.")
}

func (s *Scheduler) reconcile() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	repaired, err := s.membership.Reconcile(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Scheduler: Failed to reconcile membership")
		return
	}
	log.Debug().Int("repaired", repaired).Msg("Scheduler: Membership reconciled")
}

func (s *Scheduler) remindDues() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	communities, err := s.communities.GetAllCommunities(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Scheduler: Failed to retrieve communities")
		return
	}

	today := s.now()
	for _, c := range communities {
		if !DuesDueOn(c, today) {
			continue
		}
		if _, err := s.messages.PostSystemMessage(ctx, c.ID, DuesReminderText(c)); err != nil {
			log.Error().Err(err).Str("community_id", c.ID).Msg("Scheduler: Failed to post dues reminder")
		}
	}
}

// DuesDueOn reports whether c's mandatory dues fall due on day's date. A due
// day past the end of a short month falls on its last day.
func DuesDueOn(c models.Community, day time.Time) bool {
	if !c.IsDuesMandatory || c.DuesDate < 1 {
		return false
	}
	lastDay := time.Date(day.Year(), day.Month()+1, 0, 0, 0, 0, 0, day.Location()).Day()
	due := c.DuesDate
	if due > lastDay {
		due = lastDay
	}
	return day.Day() == due
}

// DuesReminderText is the chat message posted on the due date.
func DuesReminderText(c models.Community) string {
	info := calculator.DuesDisplay(c)
	return fmt.Sprintf("Pengingat: iuran %s jatuh tempo hari ini (%s).", info.Amount, info.DueDate)
}
