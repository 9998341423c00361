package limiter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/punchamoorthee/rewardledger/internal/domain"
	"github.com/punchamoorthee/rewardledger/internal/policy"
)

type manualClock struct {
	now time.Time
}

func (c *manualClock) Now() time.Time { return c.now }

func TestCustomerCapIsOnePerDay(t *testing.T) {
	clock := &manualClock{now: time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)}
	l := NewDailyLimiter(policy.Defaults(), WithClock(clock.Now))

	require.True(t, l.CanWithdraw("c1", domain.RoleCustomer))
	l.RecordWithdrawal("c1")
	require.False(t, l.CanWithdraw("c1", domain.RoleCustomer))
	require.Equal(t, 1, l.WithdrawalsToday("c1"))

	// other users are unaffected
	require.True(t, l.CanWithdraw("c2", domain.RoleCustomer))
}

func TestVendorCapIsThreePerDay(t *testing.T) {
	clock := &manualClock{now: time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)}
	l := NewDailyLimiter(policy.Defaults(), WithClock(clock.Now))

	for i := 0; i < 3; i++ {
		require.True(t, l.CanWithdraw("v1", domain.RoleVendor), "withdrawal %d", i+1)
		l.RecordWithdrawal("v1")
	}
	require.False(t, l.CanWithdraw("v1", domain.RoleVendor))
}

func TestCapResetsAtDayBoundary(t *testing.T) {
	clock := &manualClock{now: time.Date(2026, 5, 1, 23, 59, 0, 0, time.UTC)}
	l := NewDailyLimiter(policy.Defaults(), WithClock(clock.Now))

	l.RecordWithdrawal("c1")
	require.False(t, l.CanWithdraw("c1", domain.RoleCustomer))

	clock.now = clock.now.Add(2 * time.Minute)
	require.True(t, l.CanWithdraw("c1", domain.RoleCustomer))
	require.Zero(t, l.WithdrawalsToday("c1"))
}

func TestDayBoundaryFollowsLocation(t *testing.T) {
	kolkata := time.FixedZone("IST", 5*3600+1800)
	// 19:00 UTC is 00:30 the next day in IST
	clock := &manualClock{now: time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)}
	l := NewDailyLimiter(policy.Defaults(), WithClock(clock.Now), WithLocation(kolkata))

	l.RecordWithdrawal("c1")
	require.False(t, l.CanWithdraw("c1", domain.RoleCustomer))

	clock.now = time.Date(2026, 5, 1, 19, 0, 0, 0, time.UTC)
	require.True(t, l.CanWithdraw("c1", domain.RoleCustomer), "same UTC date, new IST date")
}

func TestUnknownRoleNeverPermitted(t *testing.T) {
	l := NewDailyLimiter(policy.Defaults())
	require.False(t, l.CanWithdraw("x", domain.Role("admin")))
	require.False(t, l.CanWithdraw("x", domain.Role("")))
}
