package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/punchamoorthee/rewardledger/internal/api"
	"github.com/punchamoorthee/rewardledger/internal/config"
	"github.com/punchamoorthee/rewardledger/internal/limiter"
	"github.com/punchamoorthee/rewardledger/internal/policy"
	"github.com/punchamoorthee/rewardledger/internal/service"
	"github.com/punchamoorthee/rewardledger/internal/store"
)

// App holds the wired ledger components.
type App struct {
	Config  *config.Config
	Ledger  *store.LedgerStore
	Sweeper *service.Sweeper
	Handler http.Handler

	schedule *service.Schedule
	logger   *slog.Logger
}

// New builds every layer from cfg. The policy set is read from cfg.PolicyFile when set.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	policies := policy.Defaults()
	if cfg.PolicyFile != "" {
		loaded, err := policy.Load(cfg.PolicyFile)
		if err != nil {
			return nil, fmt.Errorf("load policies: %w", err)
		}
		policies = loaded
	}

	var schedule *service.Schedule
	if cfg.SweepAt != "" {
		sc, err := service.ParseSchedule(cfg.SweepAt, cfg.Location)
		if err != nil {
			return nil, err
		}
		schedule = &sc
	}

	// Initialize Layers
	users := store.NewUserStore()
	referrals := store.NewReferralStore()
	ledger := store.NewLedgerStore(time.Now)
	idem := store.NewIdempotencyStore(time.Now)
	daily := limiter.NewDailyLimiter(policies, limiter.WithLocation(cfg.Location))
	locks := service.NewUserLocks()

	userSvc := service.NewUserService(users, ledger, logger)
	referralSvc := service.NewReferralService(users, referrals, ledger, policies, locks, logger)
	withdrawalSvc := service.NewWithdrawalService(users, ledger, daily, policies, locks, logger)
	sweeper := service.NewSweeper(users, withdrawalSvc, logger)

	handler := api.NewHandler(api.Services{
		Users:       userSvc,
		Referrals:   referralSvc,
		Withdrawals: withdrawalSvc,
		Sweeps:      sweeper,
		Wallets:     ledger,
		Idempotency: idem,
	}, logger)

	var throttle *api.Throttle
	if cfg.RequestsPerMinute > 0 {
		throttle = api.NewThrottle(cfg.RequestsPerMinute, cfg.RequestBurst)
	}

	return &App{
		Config:   cfg,
		Ledger:   ledger,
		Sweeper:  sweeper,
		Handler:  api.NewRouter(handler, throttle),
		schedule: schedule,
		logger:   logger,
	}, nil
}

// Run starts background work: the daily sweep scheduler, if configured.
func (a *App) Run(ctx context.Context) {
	if a.schedule == nil {
		a.logger.Info("sweep scheduler disabled")
		return
	}
	go a.Sweeper.Run(ctx, *a.schedule)
}
