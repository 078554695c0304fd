package market

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kelechi-dev/workbid/internal/errs"
	"github.com/kelechi-dev/workbid/internal/events"
	"github.com/kelechi-dev/workbid/internal/identity"
	"github.com/kelechi-dev/workbid/internal/logger"
)

var log = logger.NewSublogger("market")

// RoleResolver answers role checks for callers. *identity.Registry satisfies
// it.
type RoleResolver interface {
	RoleOf(ctx context.Context, addr string) (identity.Role, error)
}

// Board owns jobs and their bids. All mutating operations are serialized
// through one write lock, so each runs to completion as an indivisible unit
// and a failed call leaves no partial effects. Reads take the read lock and
// return copies.
type Board struct {
	mu    sync.RWMutex
	store Store
	roles RoleResolver
	bus   *events.Bus
}

func NewBoard(store Store, roles RoleResolver, bus *events.Bus) *Board {
	return &Board{store: store, roles: roles, bus: bus}
}

// CreateJob opens a new job for the calling client and returns its id.
func (b *Board) CreateJob(ctx context.Context, caller, description string, deadline time.Time, maxBidValue int64) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	role, err := b.roles.RoleOf(ctx, caller)
	if err != nil {
		return 0, fmt.Errorf("%w: caller %s is not registered", errs.ErrUnauthorized, caller)
	}
	if role != identity.RoleClient {
		return 0, fmt.Errorf("%w: only clients can create jobs", errs.ErrUnauthorized)
	}
	if !deadline.After(time.Now()) {
		return 0, errs.ErrInvalidDeadline
	}
	if maxBidValue < 0 {
		return 0, fmt.Errorf("%w: max bid value must not be negative", errs.ErrInvalidAmount)
	}

	id, err := b.store.InsertJob(ctx, Job{
		Description:   description,
		Deadline:      deadline,
		MaxBidValue:   maxBidValue,
		ClientAddress: caller,
		Status:        JobOpen,
		CreatedAt:     time.Now(),
	})
	if err != nil {
		return 0, fmt.Errorf("insert job: %w", err)
	}

	log.WithField("job_id", id).WithField("client", caller).Info("job created")
	return id, nil
}

// GetJobByID returns a snapshot of the job.
func (b *Board) GetJobByID(ctx context.Context, id int64) (Job, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	j, ok, err := b.store.GetJob(ctx, id)
	if err != nil {
		return Job{}, fmt.Errorf("get job: %w", err)
	}
	if !ok {
		return Job{}, fmt.Errorf("%w: job %d", errs.ErrNotFound, id)
	}
	return j, nil
}

// ListAllJobs returns the browse view in creation order.
func (b *Board) ListAllJobs(ctx context.Context) (JobList, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	jobs, err := b.store.ListJobs(ctx)
	if err != nil {
		return JobList{}, fmt.Errorf("list jobs: %w", err)
	}

	list := JobList{
		Descriptions: make([]string, 0, len(jobs)),
		Deadlines:    make([]time.Time, 0, len(jobs)),
		MaxBidValues: make([]int64, 0, len(jobs)),
	}
	for _, j := range jobs {
		list.Descriptions = append(list.Descriptions, j.Description)
		list.Deadlines = append(list.Deadlines, j.Deadline)
		list.MaxBidValues = append(list.MaxBidValues, j.MaxBidValue)
	}
	return list, nil
}

// JobsByOwner derives the per-client view lazily from the canonical by-id
// store. There is no second ownership-indexed table to drift.
func (b *Board) JobsByOwner(ctx context.Context, owner string) ([]Job, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	jobs, err := b.store.ListJobs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}

	var out []Job
	for _, j := range jobs {
		if j.ClientAddress == owner {
			out = append(out, j)
		}
	}
	return out, nil
}

// PlaceBid records one bid per (job, provider) pair.
func (b *Board) PlaceBid(ctx context.Context, caller string, jobID, price int64, details string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	role, err := b.roles.RoleOf(ctx, caller)
	if err != nil || role != identity.RoleServiceProvider {
		return fmt.Errorf("%w: only service providers can place bids", errs.ErrUnauthorized)
	}

	job, ok, err := b.store.GetJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("get job: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: job %d", errs.ErrNotFound, jobID)
	}
	if job.Status != JobOpen {
		return fmt.Errorf("%w: job %d is closed", errs.ErrInvalidState, jobID)
	}
	if price < 0 {
		return fmt.Errorf("%w: price must not be negative", errs.ErrInvalidAmount)
	}

	if _, exists, err := b.store.GetBid(ctx, jobID, caller); err != nil {
		return fmt.Errorf("get bid: %w", err)
	} else if exists {
		return errs.ErrDuplicateBid
	}

	err = b.store.InsertBid(ctx, Bid{
		JobID:                  jobID,
		ServiceProviderAddress: caller,
		Price:                  price,
		Details:                details,
		PlacedAt:               time.Now(),
	})
	if err != nil {
		return fmt.Errorf("insert bid: %w", err)
	}

	log.WithField("job_id", jobID).WithField("provider", caller).Info("bid placed")
	return nil
}

// GetBids returns the job's bids in placement order; empty when none.
func (b *Board) GetBids(ctx context.Context, jobID int64) ([]Bid, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	bids, err := b.store.ListBids(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("list bids: %w", err)
	}
	return bids, nil
}

// AcceptBid is the single gate that closes a job. The caller must own the
// job and attach a payment equal to the bid price. The bid update and the
// job close commit together or not at all.
func (b *Board) AcceptBid(ctx context.Context, caller string, jobID int64, provider string, attachedPayment int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	job, ok, err := b.store.GetJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("get job: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: job %d", errs.ErrNotFound, jobID)
	}
	if job.ClientAddress != caller {
		return fmt.Errorf("%w: only the job owner can accept a bid", errs.ErrUnauthorized)
	}
	if job.Status != JobOpen {
		return fmt.Errorf("%w: job %d is already closed", errs.ErrInvalidState, jobID)
	}

	bid, ok, err := b.store.GetBid(ctx, jobID, provider)
	if err != nil {
		return fmt.Errorf("get bid: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: bid not found", errs.ErrNotFound)
	}
	if attachedPayment != bid.Price {
		return errs.ErrPaymentMismatch
	}

	if err := b.store.MarkAccepted(ctx, jobID, provider); err != nil {
		return fmt.Errorf("mark accepted: %w", err)
	}

	log.WithField("job_id", jobID).WithField("provider", provider).Info("bid accepted, job closed")
	b.bus.Publish(events.Event{
		Type:     events.TypeBidAccepted,
		JobID:    jobID,
		Client:   caller,
		Provider: provider,
		Amount:   bid.Price,
	})
	b.bus.Publish(events.Event{
		Type:     events.TypeJobStatusUpdated,
		JobID:    jobID,
		Client:   caller,
		Provider: provider,
	})
	return nil
}

// AcceptedBidPrice resolves the price of the accepted bid on a closed job.
// The escrow boundary uses it to price deposits instead of trusting a
// caller-supplied amount.
func (b *Board) AcceptedBidPrice(ctx context.Context, jobID int64) (int64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	job, ok, err := b.store.GetJob(ctx, jobID)
	if err != nil {
		return 0, fmt.Errorf("get job: %w", err)
	}
	if !ok {
		return 0, fmt.Errorf("%w: job %d", errs.ErrNotFound, jobID)
	}
	if job.Status != JobClosed || job.SelectedServiceProvider == "" {
		return 0, fmt.Errorf("%w: job %d has no accepted bid", errs.ErrInvalidState, jobID)
	}

	bid, ok, err := b.store.GetBid(ctx, jobID, job.SelectedServiceProvider)
	if err != nil {
		return 0, fmt.Errorf("get bid: %w", err)
	}
	if !ok {
		return 0, fmt.Errorf("%w: bid not found", errs.ErrNotFound)
	}
	return bid.Price, nil
}
