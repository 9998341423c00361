package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/punchamoorthee/rewardledger/internal/domain"
	"github.com/punchamoorthee/rewardledger/internal/limiter"
	"github.com/punchamoorthee/rewardledger/internal/logging"
	"github.com/punchamoorthee/rewardledger/internal/policy"
	"github.com/punchamoorthee/rewardledger/internal/store"
)

type manualClock struct {
	now time.Time
}

func (c *manualClock) Now() time.Time { return c.now }

type harness struct {
	clock       *manualClock
	users       *store.UserStore
	ledger      *store.LedgerStore
	limiter     *limiter.DailyLimiter
	userSvc     *UserService
	referrals   *ReferralService
	withdrawals *WithdrawalService
	sweeper     *Sweeper
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clock := &manualClock{now: time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)}
	policies := policy.Defaults()
	logger := logging.Discard()

	users := store.NewUserStore()
	ledger := store.NewLedgerStore(clock.Now)
	daily := limiter.NewDailyLimiter(policies, limiter.WithClock(clock.Now))
	locks := NewUserLocks()

	h := &harness{
		clock:       clock,
		users:       users,
		ledger:      ledger,
		limiter:     daily,
		userSvc:     NewUserService(users, ledger, logger),
		referrals:   NewReferralService(users, store.NewReferralStore(), ledger, policies, locks, logger),
		withdrawals: NewWithdrawalService(users, ledger, daily, policies, locks, logger),
	}
	h.userSvc.now = clock.Now
	h.referrals.now = clock.Now
	h.withdrawals.now = clock.Now
	h.sweeper = NewSweeper(users, h.withdrawals, logger)
	h.sweeper.now = clock.Now
	return h
}

func (h *harness) register(t *testing.T, role domain.Role) domain.User {
	t.Helper()
	u, err := h.userSvc.Register(context.Background(), RegisterRequest{Role: role, Name: "test " + string(role)})
	require.NoError(t, err)
	return u
}

// referVendor runs a full referral for customerID and returns the new vendor id.
func (h *harness) referVendor(t *testing.T, customerID string) string {
	t.Helper()
	ctx := context.Background()
	ref, err := h.referrals.Initiate(ctx, customerID, "Chai Point", "Indiranagar")
	require.NoError(t, err)
	_, err = h.referrals.CompleteRegistration(ctx, ref.VendorID, map[string]string{"name": "Chai Point"}, true)
	require.NoError(t, err)
	return ref.VendorID
}

func balanceFromHistory(w domain.Wallet) int64 {
	var total int64
	for _, tx := range w.Transactions {
		if tx.Kind == domain.KindCredit {
			total += tx.Amount
		} else {
			total -= tx.Amount
		}
	}
	return total
}
