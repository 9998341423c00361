package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/punchamoorthee/rewardledger/internal/domain"
	"github.com/punchamoorthee/rewardledger/internal/policy"
)

// ReferralService drives the initiated -> registered referral lifecycle and pays the
// reward to both parties when a vendor completes registration.
type ReferralService struct {
	users     UserRepository
	referrals ReferralRepository
	ledger    Ledger
	policies  *policy.Set
	locks     *UserLocks
	logger    *slog.Logger
	now       func() time.Time
}

func NewReferralService(users UserRepository, referrals ReferralRepository, ledger Ledger, policies *policy.Set, locks *UserLocks, logger *slog.Logger) *ReferralService {
	return &ReferralService{
		users:     users,
		referrals: referrals,
		ledger:    ledger,
		policies:  policies,
		locks:     locks,
		logger:    logger,
		now:       time.Now,
	}
}

// Initiate records a referral from customerID and pre-assigns the vendor id.
func (s *ReferralService) Initiate(ctx context.Context, customerID, vendorName, vendorLocation string) (domain.Referral, error) {
	customer, err := s.users.User(customerID)
	if err != nil {
		return domain.Referral{}, fmt.Errorf("customer %s: %w", customerID, err)
	}
	if customer.Role != domain.RoleCustomer {
		return domain.Referral{}, fmt.Errorf("customer %s: %w", customerID, domain.ErrNotFound)
	}

	ref := domain.Referral{
		VendorID:       uuid.NewString(),
		CustomerID:     customer.ID,
		VendorName:     strings.TrimSpace(vendorName),
		VendorLocation: strings.TrimSpace(vendorLocation),
		Status:         domain.ReferralInitiated,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.referrals.CreateReferral(ref); err != nil {
		return domain.Referral{}, fmt.Errorf("create referral: %w", err)
	}

	s.logger.InfoContext(ctx, "referral initiated",
		slog.String("vendor_id", ref.VendorID),
		slog.String("customer_id", ref.CustomerID),
	)
	return ref, nil
}

func (s *ReferralService) Referral(ctx context.Context, vendorID string) (domain.Referral, error) {
	return s.referrals.Referral(vendorID)
}

// CompleteRegistration registers the referred vendor and credits the reward to the
// vendor and the referring customer. A referral completes at most once; later attempts
// fail with ErrConflict and credit nothing.
func (s *ReferralService) CompleteRegistration(ctx context.Context, vendorID string, details map[string]string, agreementAccepted bool) (domain.Referral, error) {
	pending, err := s.referrals.Referral(vendorID)
	if err != nil {
		return domain.Referral{}, fmt.Errorf("referral %s: %w", vendorID, err)
	}
	reward := s.policies.RewardAmount

	unlock := s.locks.Lock(pending.CustomerID, vendorID)
	defer unlock()

	ref, err := s.referrals.Mutate(vendorID, func(r *domain.Referral) error {
		if r.Status == domain.ReferralRegistered {
			return domain.ErrConflict
		}
		// Any rejection must happen before the first credit.
		if _, err := s.users.User(vendorID); err == nil {
			return fmt.Errorf("register vendor: %w", domain.ErrUserExists)
		}
		if err := s.payRewards(r.CustomerID, vendorID, reward); err != nil {
			return err
		}

		now := s.now().UTC()
		vendor := domain.User{
			ID:           vendorID,
			Role:         domain.RoleVendor,
			Name:         vendorDisplayName(details, r.VendorName),
			Phone:        details["phone"],
			Details:      details,
			RegisteredAt: now,
		}
		if err := s.users.CreateUser(vendor); err != nil {
			s.reverse(r.CustomerID, reward)
			s.reverse(vendorID, reward)
			return fmt.Errorf("register vendor: %w", err)
		}
		s.ledger.Provision(vendorID)

		r.AgreementAccepted = agreementAccepted
		r.Status = domain.ReferralRegistered
		r.RegisteredAt = &now
		return nil
	})
	if err != nil {
		return ref, fmt.Errorf("complete referral %s: %w", vendorID, err)
	}
	rewardsCredited.Add(2)

	s.logger.InfoContext(ctx, "vendor registered, referral rewarded",
		slog.String("vendor_id", vendorID),
		slog.String("customer_id", ref.CustomerID),
		slog.Int64("reward", reward),
		slog.Bool("agreement_accepted", agreementAccepted),
	)
	return ref, nil
}

func (s *ReferralService) payRewards(customerID, vendorID string, reward int64) error {
	if _, err := s.ledger.Credit(customerID, reward, domain.ReasonReferralReward); err != nil {
		return fmt.Errorf("credit customer: %w", err)
	}
	if _, err := s.ledger.Credit(vendorID, reward, domain.ReasonReferralReward); err != nil {
		s.reverse(customerID, reward)
		return fmt.Errorf("credit vendor: %w", err)
	}
	return nil
}

// reverse undoes a reward credit. Callers hold the user lock, so no withdrawal can have
// spent the credited amount in between.
func (s *ReferralService) reverse(userID string, amount int64) {
	if _, err := s.ledger.Debit(userID, amount, domain.ReasonReversal); err != nil {
		s.logger.Error("reward reversal failed", slog.String("user_id", userID), slog.Int64("amount", amount), slog.Any("error", err))
	}
}

func vendorDisplayName(details map[string]string, fallback string) string {
	if name := strings.TrimSpace(details["name"]); name != "" {
		return name
	}
	return fallback
}
