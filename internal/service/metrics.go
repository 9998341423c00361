package service

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/punchamoorthee/rewardledger/internal/domain"
)

var (
	withdrawalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_withdrawals_total",
		Help: "Withdrawal attempts, labeled by role and outcome",
	}, []string{"role", "outcome"})

	withdrawnAmount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_withdrawn_amount_total",
		Help: "Sum of successfully withdrawn amounts",
	}, []string{"role"})

	rewardsCredited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_referral_rewards_total",
		Help: "Referral reward credits applied to wallets",
	})

	sweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ledger_sweep_duration_seconds",
		Help:    "Duration of end-of-day sweeps",
		Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})

	sweepOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_sweep_outcomes_total",
		Help: "Per-user sweep results, labeled by status",
	}, []string{"status"})
)

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrLimitExceeded):
		return "limit_exceeded"
	case errors.Is(err, domain.ErrBelowMinimum):
		return "below_minimum"
	case errors.Is(err, domain.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, domain.ErrInvalidAmount):
		return "invalid_amount"
	default:
		return "error"
	}
}
