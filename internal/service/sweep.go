package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/punchamoorthee/rewardledger/internal/domain"
)

// Sweeper withdraws the full balance of every eligible user, one user at a time.
type Sweeper struct {
	users       UserRepository
	withdrawals *WithdrawalService
	logger      *slog.Logger
	now         func() time.Time
}

func NewSweeper(users UserRepository, withdrawals *WithdrawalService, logger *slog.Logger) *Sweeper {
	return &Sweeper{users: users, withdrawals: withdrawals, logger: logger, now: time.Now}
}

// RunSweep processes every registered user and reports the per-user outcome. One
// user's failure never stops the sweep; a cancelled ctx ends it early with the partial
// report.
func (s *Sweeper) RunSweep(ctx context.Context) domain.SweepReport {
	start := time.Now()
	report := domain.SweepReport{StartedAt: s.now().UTC(), Outcomes: []domain.SweepOutcome{}}

	for _, user := range s.users.Users() {
		if ctx.Err() != nil {
			s.logger.WarnContext(ctx, "sweep interrupted", slog.Int("processed", len(report.Outcomes)))
			break
		}
		out := s.withdrawals.sweepUser(user)
		sweepOutcomes.WithLabelValues(string(out.Status)).Inc()
		if out.Status == domain.SweepFailed {
			s.logger.WarnContext(ctx, "sweep withdrawal failed",
				slog.String("user_id", out.UserID),
				slog.Int64("amount", out.Amount),
				slog.String("reason", out.Reason),
			)
		}
		report.Add(out)
	}

	report.FinishedAt = s.now().UTC()
	sweepDuration.Observe(time.Since(start).Seconds())
	s.logger.InfoContext(ctx, "sweep completed",
		slog.Int("withdrawn", report.Withdrawn),
		slog.Int("skipped", report.Skipped),
		slog.Int("failed", report.Failed),
		slog.Int64("total_withdrawn", report.TotalWithdrawn),
	)
	return report
}

// Schedule is the wall-clock time of day at which the daily sweep fires.
type Schedule struct {
	Hour     int
	Minute   int
	Location *time.Location
}

// ParseSchedule parses an HH:MM time of day.
func ParseSchedule(clock string, loc *time.Location) (Schedule, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return Schedule{}, fmt.Errorf("parse sweep time %q: %w", clock, err)
	}
	if loc == nil {
		loc = time.UTC
	}
	return Schedule{Hour: t.Hour(), Minute: t.Minute(), Location: loc}, nil
}

// Next returns the first scheduled instant strictly after now.
func (sc Schedule) Next(now time.Time) time.Time {
	local := now.In(sc.Location)
	next := time.Date(local.Year(), local.Month(), local.Day(), sc.Hour, sc.Minute, 0, 0, sc.Location)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Run fires RunSweep once per day on sc until ctx is done.
func (s *Sweeper) Run(ctx context.Context, sc Schedule) {
	for {
		now := s.now()
		next := sc.Next(now)
		s.logger.Info("next sweep scheduled", slog.Time("at", next))
		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.RunSweep(ctx)
		}
	}
}
