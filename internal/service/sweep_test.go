package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/punchamoorthee/rewardledger/internal/domain"
	"github.com/punchamoorthee/rewardledger/internal/policy"
)

func outcomeFor(t *testing.T, report domain.SweepReport, userID string) domain.SweepOutcome {
	t.Helper()
	for _, o := range report.Outcomes {
		if o.UserID == userID {
			return o
		}
	}
	t.Fatalf("no sweep outcome for %s", userID)
	return domain.SweepOutcome{}
}

func TestSweepWithdrawsVendorBalance(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	customer := h.register(t, domain.RoleCustomer)
	vendorID := h.referVendor(t, customer.ID)

	_, err := h.withdrawals.Withdraw(ctx, vendorID, 70)
	require.NoError(t, err)
	require.Equal(t, int64(50), h.ledger.Balance(vendorID))

	report := h.sweeper.RunSweep(ctx)

	out := outcomeFor(t, report, vendorID)
	require.Equal(t, domain.SweepWithdrawn, out.Status)
	require.Equal(t, int64(50), out.Amount)

	w := h.ledger.Wallet(vendorID)
	require.Zero(t, w.Balance)
	last := w.Transactions[len(w.Transactions)-1]
	require.Equal(t, domain.KindDebit, last.Kind)
	require.Equal(t, int64(50), last.Amount)
	require.Equal(t, domain.ReasonSweep, last.Reason)
	require.Equal(t, 2, h.limiter.WithdrawalsToday(vendorID))
}

func TestSweepIsBestEffortPerUser(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	limited := h.register(t, domain.RoleCustomer)
	h.referVendor(t, limited.ID)
	h.referVendor(t, limited.ID)
	_, err := h.withdrawals.Withdraw(ctx, limited.ID, 120)
	require.NoError(t, err)

	empty := h.register(t, domain.RoleCustomer)

	rich := h.register(t, domain.RoleCustomer)
	h.referVendor(t, rich.ID)

	report := h.sweeper.RunSweep(ctx)

	require.Equal(t, domain.SweepSkipped, outcomeFor(t, report, limited.ID).Status)
	require.Equal(t, domain.SweepSkipped, outcomeFor(t, report, empty.ID).Status)
	require.Equal(t, domain.SweepWithdrawn, outcomeFor(t, report, rich.ID).Status)
	require.Equal(t, int64(120), h.ledger.Balance(limited.ID))
	require.Zero(t, h.ledger.Balance(rich.ID))

	// customers, then the three vendors created by the referrals
	require.Len(t, report.Outcomes, 6)
	require.Equal(t, 4, report.Withdrawn)
	require.Equal(t, 2, report.Skipped)
	require.Zero(t, report.Failed)
	require.Equal(t, int64(4*120), report.TotalWithdrawn)
}

func TestSweepReportsMinimumFailures(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	customer := h.register(t, domain.RoleCustomer)
	_, err := h.ledger.Credit(customer.ID, 50, "manual")
	require.NoError(t, err)

	report := h.sweeper.RunSweep(ctx)

	out := outcomeFor(t, report, customer.ID)
	require.Equal(t, domain.SweepFailed, out.Status)
	require.Contains(t, out.Reason, domain.ErrBelowMinimum.Error())
	require.Equal(t, int64(50), h.ledger.Balance(customer.ID))
	require.Zero(t, h.limiter.WithdrawalsToday(customer.ID))
}

func TestSweepStopsOnCancelledContext(t *testing.T) {
	h := newHarness(t)
	h.register(t, domain.RoleVendor)
	h.register(t, domain.RoleVendor)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := h.sweeper.RunSweep(ctx)
	require.Empty(t, report.Outcomes)
}

func TestScheduleNext(t *testing.T) {
	sc, err := ParseSchedule("23:55", time.UTC)
	require.NoError(t, err)

	before := time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)
	require.Equal(t, time.Date(2026, 6, 10, 23, 55, 0, 0, time.UTC), sc.Next(before))

	at := time.Date(2026, 6, 10, 23, 55, 0, 0, time.UTC)
	require.Equal(t, time.Date(2026, 6, 11, 23, 55, 0, 0, time.UTC), sc.Next(at))

	_, err = ParseSchedule("25:00", time.UTC)
	require.Error(t, err)
}

func TestRunStopsWithContext(t *testing.T) {
	h := newHarness(t)
	sc, err := ParseSchedule("00:00", time.UTC)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.sweeper.Run(ctx, sc)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestSweepRacesWithdrawalsAndRewards(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	customer := h.register(t, domain.RoleCustomer)

	vendorIDs := make([]string, 5)
	for i := range vendorIDs {
		ref, err := h.referrals.Initiate(ctx, customer.ID, "Stall", "Market")
		require.NoError(t, err)
		vendorIDs[i] = ref.VendorID
	}
	// Two vendors are paid up front so withdrawals have something to race over.
	for _, id := range vendorIDs[:2] {
		_, err := h.referrals.CompleteRegistration(ctx, id, nil, true)
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	for _, id := range vendorIDs[2:] {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, _ = h.referrals.CompleteRegistration(ctx, id, nil, true)
		}(id)
	}
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, _ = h.withdrawals.Withdraw(ctx, id, 40)
		}(vendorIDs[i%len(vendorIDs)])
	}
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.sweeper.RunSweep(ctx)
		}()
	}
	wg.Wait()

	policies := policy.Defaults()
	for _, user := range h.users.Users() {
		p, err := policies.For(user.Role)
		require.NoError(t, err)

		w := h.ledger.Wallet(user.ID)
		require.GreaterOrEqual(t, w.Balance, int64(0), "user %s", user.ID)
		require.Equal(t, balanceFromHistory(w), w.Balance, "user %s", user.ID)

		today := h.limiter.WithdrawalsToday(user.ID)
		require.LessOrEqual(t, today, p.DailyWithdrawals, "user %s", user.ID)

		var debits int
		for _, tx := range w.Transactions {
			require.NotEqual(t, domain.ReasonReversal, tx.Reason)
			if tx.Kind == domain.KindDebit {
				debits++
			}
		}
		require.Equal(t, today, debits, "every debit is a counted withdrawal for %s", user.ID)
	}
	require.Len(t, h.users.Users(), 6, "all referrals complete exactly once")
}
