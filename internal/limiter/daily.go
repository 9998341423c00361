package limiter

import (
	"sync"
	"time"

	"github.com/punchamoorthee/rewardledger/internal/domain"
	"github.com/punchamoorthee/rewardledger/internal/policy"
)

// DailyLimiter counts withdrawals per user per calendar day and enforces the role caps
// from the policy set. Calendar days are evaluated in the configured location.
type DailyLimiter struct {
	policies *policy.Set
	loc      *time.Location
	now      func() time.Time

	mu   sync.RWMutex
	logs map[string][]time.Time
}

// Option customises the limiter.
type Option func(*DailyLimiter)

// WithClock sets the function used to derive timestamps.
func WithClock(clock func() time.Time) Option {
	return func(l *DailyLimiter) { l.now = clock }
}

// WithLocation sets the timezone whose midnight resets the daily count.
func WithLocation(loc *time.Location) Option {
	return func(l *DailyLimiter) { l.loc = loc }
}

func NewDailyLimiter(policies *policy.Set, opts ...Option) *DailyLimiter {
	l := &DailyLimiter{
		policies: policies,
		loc:      time.UTC,
		now:      time.Now,
		logs:     make(map[string][]time.Time),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.loc == nil {
		l.loc = time.UTC
	}
	return l
}

// CanWithdraw reports whether userID is still below the daily cap for role.
// Roles without a policy are never permitted.
func (l *DailyLimiter) CanWithdraw(userID string, role domain.Role) bool {
	p, err := l.policies.For(role)
	if err != nil {
		return false
	}
	return l.WithdrawalsToday(userID) < p.DailyWithdrawals
}

// WithdrawalsToday returns how many withdrawals userID made in the current day.
func (l *DailyLimiter) WithdrawalsToday(userID string) int {
	today := l.dayKey(l.now())

	l.mu.RLock()
	defer l.mu.RUnlock()

	entries := l.logs[userID]
	count := 0
	// the log is chronological, so stop at the first entry from an earlier day
	for i := len(entries) - 1; i >= 0; i-- {
		if l.dayKey(entries[i]) != today {
			break
		}
		count++
	}
	return count
}

// RecordWithdrawal appends the current time to the user's log. Call it exactly once,
// after the withdrawal succeeded.
func (l *DailyLimiter) RecordWithdrawal(userID string) {
	ts := l.now().UTC()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logs[userID] = append(l.logs[userID], ts)
}

func (l *DailyLimiter) dayKey(t time.Time) string {
	return t.In(l.loc).Format("2006-01-02")
}
