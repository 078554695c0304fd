package escrow

import (
	"context"
	"sync"
)

// Store persists agreements and the fund side-tables. Release and
// ClearBalance are composite commits: every fund movement inside them lands
// as one unit or not at all.
type Store interface {
	InsertAgreement(ctx context.Context, a Agreement) (int64, error)
	GetAgreement(ctx context.Context, id int64) (Agreement, bool, error)

	AddDeposit(ctx context.Context, agreementID, amount int64) error
	DepositedFunds(ctx context.Context, agreementID int64) (int64, error)

	// Release marks the agreement released, credits the provider's
	// withdrawable balance with net and the platform with commission.
	Release(ctx context.Context, agreementID int64, provider string, net, commission int64) error

	WithdrawableBalance(ctx context.Context, addr string) (int64, error)
	// ClearBalance zeroes the address's withdrawable balance and returns
	// what was held, in the same unit.
	ClearBalance(ctx context.Context, addr string) (int64, error)

	PlatformCommission(ctx context.Context) (int64, error)
}

// MemoryStore keeps the ledger in maps, guarded by one lock.
type MemoryStore struct {
	mu         sync.RWMutex
	nextID     int64
	agreements map[int64]Agreement
	deposited  map[int64]int64
	balances   map[string]int64
	commission int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		agreements: make(map[int64]Agreement),
		deposited:  make(map[int64]int64),
		balances:   make(map[string]int64),
	}
}

func (s *MemoryStore) InsertAgreement(_ context.Context, a Agreement) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	a.ID = s.nextID
	s.agreements[a.ID] = a
	return a.ID, nil
}

func (s *MemoryStore) GetAgreement(_ context.Context, id int64) (Agreement, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.agreements[id]
	return a, ok, nil
}

func (s *MemoryStore) AddDeposit(_ context.Context, agreementID, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deposited[agreementID] += amount
	return nil
}

func (s *MemoryStore) DepositedFunds(_ context.Context, agreementID int64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deposited[agreementID], nil
}

func (s *MemoryStore) Release(_ context.Context, agreementID int64, provider string, net, commission int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.agreements[agreementID]
	a.State = StateReleased
	s.agreements[agreementID] = a

	s.balances[provider] += net
	s.commission += commission
	return nil
}

func (s *MemoryStore) WithdrawableBalance(_ context.Context, addr string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balances[addr], nil
}

func (s *MemoryStore) ClearBalance(_ context.Context, addr string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	amount := s.balances[addr]
	s.balances[addr] = 0
	return amount, nil
}

func (s *MemoryStore) PlatformCommission(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.commission, nil
}
