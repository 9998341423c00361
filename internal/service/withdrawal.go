package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/punchamoorthee/rewardledger/internal/domain"
	"github.com/punchamoorthee/rewardledger/internal/policy"
)

// WithdrawalService composes the daily limiter, the ledger and the role minimums into
// a single withdraw operation that is serialized per user.
type WithdrawalService struct {
	users    UserRepository
	ledger   Ledger
	limiter  Limiter
	policies *policy.Set
	locks    *UserLocks
	logger   *slog.Logger
	now      func() time.Time
}

func NewWithdrawalService(users UserRepository, ledger Ledger, limiter Limiter, policies *policy.Set, locks *UserLocks, logger *slog.Logger) *WithdrawalService {
	return &WithdrawalService{
		users:    users,
		ledger:   ledger,
		limiter:  limiter,
		policies: policies,
		locks:    locks,
		logger:   logger,
		now:      time.Now,
	}
}

// Withdraw debits amount from the user's wallet if the daily cap, the role minimum and
// the balance all allow it. A failed withdrawal leaves the wallet and the withdrawal
// log untouched.
func (s *WithdrawalService) Withdraw(ctx context.Context, userID string, amount int64) (domain.WithdrawalResult, error) {
	if amount <= 0 {
		withdrawalsTotal.WithLabelValues("unknown", outcomeLabel(domain.ErrInvalidAmount)).Inc()
		return domain.WithdrawalResult{}, domain.ErrInvalidAmount
	}
	user, err := s.users.User(userID)
	if err != nil {
		withdrawalsTotal.WithLabelValues("unknown", outcomeLabel(err)).Inc()
		return domain.WithdrawalResult{}, fmt.Errorf("user %s: %w", userID, err)
	}

	unlock := s.locks.Lock(user.ID)
	defer unlock()

	res, err := s.withdrawLocked(user, amount, domain.ReasonWithdrawal)
	if err != nil {
		s.logger.WarnContext(ctx, "withdrawal rejected",
			slog.String("user_id", user.ID),
			slog.Int64("amount", amount),
			slog.Any("error", err),
		)
		return res, err
	}
	s.logger.InfoContext(ctx, "withdrawal processed",
		slog.String("user_id", user.ID),
		slog.Int64("amount", amount),
		slog.Int64("balance", res.Balance),
	)
	return res, nil
}

// withdrawLocked runs the limit, minimum and balance checks followed by the debit.
// The caller must hold the user's lock.
func (s *WithdrawalService) withdrawLocked(user domain.User, amount int64, reason string) (res domain.WithdrawalResult, err error) {
	role := string(user.Role)
	defer func() {
		withdrawalsTotal.WithLabelValues(role, outcomeLabel(err)).Inc()
		if err == nil {
			withdrawnAmount.WithLabelValues(role).Add(float64(amount))
		}
	}()

	if !s.limiter.CanWithdraw(user.ID, user.Role) {
		return res, domain.ErrLimitExceeded
	}
	p, err := s.policies.For(user.Role)
	if err != nil {
		return res, fmt.Errorf("%w: %v", domain.ErrLimitExceeded, err)
	}
	if amount < p.MinWithdrawal {
		return res, fmt.Errorf("minimum withdrawal for %s is %d: %w", user.Role, p.MinWithdrawal, domain.ErrBelowMinimum)
	}

	balance, err := s.ledger.Debit(user.ID, amount, reason)
	if err != nil {
		return res, err
	}
	s.limiter.RecordWithdrawal(user.ID)

	return domain.WithdrawalResult{
		UserID:           user.ID,
		Amount:           amount,
		Balance:          balance,
		WithdrawalsToday: s.limiter.WithdrawalsToday(user.ID),
		ProcessedAt:      s.now().UTC(),
	}, nil
}

// sweepUser withdraws the user's entire balance when eligible.
func (s *WithdrawalService) sweepUser(user domain.User) domain.SweepOutcome {
	unlock := s.locks.Lock(user.ID)
	defer unlock()

	out := domain.SweepOutcome{UserID: user.ID, Role: user.Role}
	balance := s.ledger.Balance(user.ID)
	if balance <= 0 {
		out.Status = domain.SweepSkipped
		out.Reason = "no balance"
		return out
	}
	if !s.limiter.CanWithdraw(user.ID, user.Role) {
		out.Status = domain.SweepSkipped
		out.Reason = domain.ErrLimitExceeded.Error()
		return out
	}

	out.Amount = balance
	if _, err := s.withdrawLocked(user, balance, domain.ReasonSweep); err != nil {
		out.Status = domain.SweepFailed
		out.Reason = err.Error()
		return out
	}
	out.Status = domain.SweepWithdrawn
	return out
}
