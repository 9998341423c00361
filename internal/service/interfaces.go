package service

import "github.com/punchamoorthee/rewardledger/internal/domain"

type Ledger interface {
	Provision(userID string)
	Credit(userID string, amount int64, reason string) (domain.Transaction, error)
	Debit(userID string, amount int64, reason string) (int64, error)
	Balance(userID string) int64
}

type UserRepository interface {
	CreateUser(u domain.User) error
	User(id string) (domain.User, error)
	Users() []domain.User
}

type ReferralRepository interface {
	CreateReferral(r domain.Referral) error
	Referral(vendorID string) (domain.Referral, error)
	Mutate(vendorID string, fn func(*domain.Referral) error) (domain.Referral, error)
}

type Limiter interface {
	CanWithdraw(userID string, role domain.Role) bool
	RecordWithdrawal(userID string)
	WithdrawalsToday(userID string) int
}
