package market

import (
	"context"
	"sync"
)

// Store persists jobs and bids. InsertJob assigns the next sequence id.
// MarkAccepted commits the accept-bid write set as one unit: the bid flips to
// accepted, the job closes and binds the provider — or nothing changes.
type Store interface {
	InsertJob(ctx context.Context, j Job) (int64, error)
	GetJob(ctx context.Context, id int64) (Job, bool, error)
	ListJobs(ctx context.Context) ([]Job, error)

	InsertBid(ctx context.Context, b Bid) error
	GetBid(ctx context.Context, jobID int64, provider string) (Bid, bool, error)
	ListBids(ctx context.Context, jobID int64) ([]Bid, error)

	MarkAccepted(ctx context.Context, jobID int64, provider string) error
}

type bidKey struct {
	jobID    int64
	provider string
}

// MemoryStore is the in-process implementation backing tests and the
// single-node deployment mode.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	jobs   map[int64]Job
	order  []int64
	bids   map[bidKey]Bid
	byJob  map[int64][]bidKey
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs:  make(map[int64]Job),
		bids:  make(map[bidKey]Bid),
		byJob: make(map[int64][]bidKey),
	}
}

func (s *MemoryStore) InsertJob(_ context.Context, j Job) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	j.ID = s.nextID
	s.jobs[j.ID] = j
	s.order = append(s.order, j.ID)
	return j.ID, nil
}

func (s *MemoryStore) GetJob(_ context.Context, id int64) (Job, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	return j, ok, nil
}

func (s *MemoryStore) ListJobs(_ context.Context) ([]Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Job, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.jobs[id])
	}
	return out, nil
}

func (s *MemoryStore) InsertBid(_ context.Context, b Bid) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := bidKey{jobID: b.JobID, provider: b.ServiceProviderAddress}
	s.bids[k] = b
	s.byJob[b.JobID] = append(s.byJob[b.JobID], k)
	return nil
}

func (s *MemoryStore) GetBid(_ context.Context, jobID int64, provider string) (Bid, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bids[bidKey{jobID: jobID, provider: provider}]
	return b, ok, nil
}

func (s *MemoryStore) ListBids(_ context.Context, jobID int64) ([]Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := s.byJob[jobID]
	out := make([]Bid, 0, len(keys))
	for _, k := range keys {
		out = append(out, s.bids[k])
	}
	return out, nil
}

func (s *MemoryStore) MarkAccepted(_ context.Context, jobID int64, provider string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := bidKey{jobID: jobID, provider: provider}
	b := s.bids[k]
	b.IsAccepted = true
	s.bids[k] = b

	j := s.jobs[jobID]
	j.Status = JobClosed
	j.SelectedServiceProvider = provider
	s.jobs[jobID] = j
	return nil
}
