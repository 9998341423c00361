package store

import (
	"sync"
	"time"

	"github.com/punchamoorthee/rewardledger/internal/domain"
)

type wallet struct {
	mu           sync.Mutex
	balance      int64
	transactions []domain.Transaction
}

// LedgerStore holds every user's balance and append-only transaction history.
// Each wallet carries its own lock, so operations on different users never contend.
type LedgerStore struct {
	mu      sync.RWMutex
	wallets map[string]*wallet
	now     func() time.Time
}

func NewLedgerStore(now func() time.Time) *LedgerStore {
	if now == nil {
		now = time.Now
	}
	return &LedgerStore{
		wallets: make(map[string]*wallet),
		now:     now,
	}
}

// Provision creates an empty wallet for userID if none exists yet.
func (s *LedgerStore) Provision(userID string) {
	s.obtain(userID)
}

// Credit adds amount to the user's wallet, creating the wallet when absent.
func (s *LedgerStore) Credit(userID string, amount int64, reason string) (domain.Transaction, error) {
	if amount <= 0 {
		return domain.Transaction{}, domain.ErrInvalidAmount
	}
	w := s.obtain(userID)

	w.mu.Lock()
	defer w.mu.Unlock()

	tx := domain.Transaction{
		Kind:      domain.KindCredit,
		Amount:    amount,
		Reason:    reason,
		Timestamp: s.now().UTC(),
	}
	w.balance += amount
	w.transactions = append(w.transactions, tx)
	return tx, nil
}

// Debit removes amount from the user's wallet and returns the new balance.
// It is declined with ErrInsufficientBalance when the wallet is missing or too small,
// in which case nothing changes.
func (s *LedgerStore) Debit(userID string, amount int64, reason string) (int64, error) {
	if amount <= 0 {
		return 0, domain.ErrInvalidAmount
	}
	w := s.lookup(userID)
	if w == nil {
		return 0, domain.ErrInsufficientBalance
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.balance < amount {
		return w.balance, domain.ErrInsufficientBalance
	}
	w.balance -= amount
	w.transactions = append(w.transactions, domain.Transaction{
		Kind:      domain.KindDebit,
		Amount:    amount,
		Reason:    reason,
		Timestamp: s.now().UTC(),
	})
	return w.balance, nil
}

// Wallet returns a copy of the user's wallet. Unknown users get a zero-balance
// wallet with Provisioned set to false.
func (s *LedgerStore) Wallet(userID string) domain.Wallet {
	w := s.lookup(userID)
	if w == nil {
		return domain.Wallet{UserID: userID, Transactions: []domain.Transaction{}}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	txs := make([]domain.Transaction, len(w.transactions))
	copy(txs, w.transactions)
	return domain.Wallet{
		UserID:       userID,
		Balance:      w.balance,
		Transactions: txs,
		Provisioned:  true,
	}
}

// Balance returns the current balance, 0 for unknown users.
func (s *LedgerStore) Balance(userID string) int64 {
	w := s.lookup(userID)
	if w == nil {
		return 0
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.balance
}

func (s *LedgerStore) lookup(userID string) *wallet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.wallets[userID]
}

func (s *LedgerStore) obtain(userID string) *wallet {
	if w := s.lookup(userID); w != nil {
		return w
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if w, ok := s.wallets[userID]; ok {
		return w
	}
	w := &wallet{transactions: []domain.Transaction{}}
	s.wallets[userID] = w
	return w
}
