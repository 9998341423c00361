package domain

import "time"

// Role determines a user's withdrawal cap and minimum withdrawal amount.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleVendor   Role = "vendor"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleVendor
}

// User is a registered customer or vendor. The role never changes after registration.
type User struct {
	ID           string            `json:"id"`
	Role         Role              `json:"role"`
	Name         string            `json:"name,omitempty"`
	Phone        string            `json:"phone,omitempty"`
	Details      map[string]string `json:"details,omitempty"`
	RegisteredAt time.Time         `json:"registered_at"`
}

type TransactionKind string

const (
	KindCredit TransactionKind = "credit"
	KindDebit  TransactionKind = "debit"
)

// Reasons attached to ledger transactions.
const (
	ReasonReferralReward = "referral_reward"
	ReasonWithdrawal     = "withdrawal"
	ReasonSweep          = "eod_sweep"
	ReasonReversal       = "reversal"
)

// Transaction is one immutable entry of a wallet's history. Amount is always positive;
// Kind carries the direction.
type Transaction struct {
	Kind      TransactionKind `json:"kind"`
	Amount    int64           `json:"amount"`
	Reason    string          `json:"reason,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Wallet is a point-in-time snapshot of a user's balance and history.
// Balance always equals the sum of credits minus the sum of debits.
type Wallet struct {
	UserID       string        `json:"user_id"`
	Balance      int64         `json:"balance"`
	Transactions []Transaction `json:"transactions"`
	Provisioned  bool          `json:"provisioned"`
}

type ReferralStatus string

const (
	ReferralInitiated  ReferralStatus = "initiated"
	ReferralRegistered ReferralStatus = "registered"
)

// Referral tracks a customer's introduction of a prospective vendor.
// The vendor id is assigned at initiation and becomes the vendor's user id.
type Referral struct {
	VendorID          string         `json:"vendor_id"`
	CustomerID        string         `json:"customer_id"`
	VendorName        string         `json:"vendor_name"`
	VendorLocation    string         `json:"vendor_location"`
	Status            ReferralStatus `json:"status"`
	AgreementAccepted bool           `json:"agreement_accepted"`
	CreatedAt         time.Time      `json:"created_at"`
	RegisteredAt      *time.Time     `json:"registered_at,omitempty"`
}

// WithdrawalResult is returned for every successful withdrawal.
type WithdrawalResult struct {
	UserID           string    `json:"user_id"`
	Amount           int64     `json:"amount"`
	Balance          int64     `json:"balance"`
	WithdrawalsToday int       `json:"withdrawals_today"`
	ProcessedAt      time.Time `json:"processed_at"`
}

type SweepStatus string

const (
	SweepWithdrawn SweepStatus = "withdrawn"
	SweepSkipped   SweepStatus = "skipped"
	SweepFailed    SweepStatus = "failed"
)

// SweepOutcome records what the end-of-day sweep did for a single user.
type SweepOutcome struct {
	UserID string      `json:"user_id"`
	Role   Role        `json:"role"`
	Amount int64       `json:"amount"`
	Status SweepStatus `json:"status"`
	Reason string      `json:"reason,omitempty"`
}

// SweepReport summarises one sweep run.
type SweepReport struct {
	StartedAt      time.Time      `json:"started_at"`
	FinishedAt     time.Time      `json:"finished_at"`
	Withdrawn      int            `json:"withdrawn"`
	Skipped        int            `json:"skipped"`
	Failed         int            `json:"failed"`
	TotalWithdrawn int64          `json:"total_withdrawn"`
	Outcomes       []SweepOutcome `json:"outcomes"`
}

// Add appends an outcome and updates the counters.
func (r *SweepReport) Add(o SweepOutcome) {
	r.Outcomes = append(r.Outcomes, o)
	switch o.Status {
	case SweepWithdrawn:
		r.Withdrawn++
		r.TotalWithdrawn += o.Amount
	case SweepSkipped:
		r.Skipped++
	case SweepFailed:
		r.Failed++
	}
}
