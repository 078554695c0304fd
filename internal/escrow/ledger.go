package escrow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kelechi-dev/workbid/internal/errs"
	"github.com/kelechi-dev/workbid/internal/events"
	"github.com/kelechi-dev/workbid/internal/logger"
)

var log = logger.NewSublogger("escrow")

// Ledger custodies funds from deposit through release and withdrawal. Every
// operation that touches the fund side-tables holds the write lock for its
// full duration; validation happens before any write, so a failed call
// leaves the ledger exactly as it was.
type Ledger struct {
	mu    sync.RWMutex
	store Store
	bus   *events.Bus
}

func NewLedger(store Store, bus *events.Bus) *Ledger {
	return &Ledger{store: store, bus: bus}
}

// NewAgreement opens an escrow agreement and returns its id. The net amount
// must not exceed the gross amount; the difference is the platform
// commission taken on release.
func (l *Ledger) NewAgreement(ctx context.Context, client, provider string, amountWithCommission, amountWithoutCommission int64) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if amountWithCommission < 0 || amountWithoutCommission < 0 {
		return 0, fmt.Errorf("%w: amounts must not be negative", errs.ErrInvalidAmount)
	}
	if amountWithoutCommission > amountWithCommission {
		return 0, fmt.Errorf("%w: net amount exceeds gross amount", errs.ErrInvalidAmount)
	}

	id, err := l.store.InsertAgreement(ctx, Agreement{
		Client:                  client,
		ServiceProvider:         provider,
		AmountWithCommission:    amountWithCommission,
		AmountWithoutCommission: amountWithoutCommission,
		State:                   StateCreated,
		CreatedAt:               time.Now(),
	})
	if err != nil {
		return 0, fmt.Errorf("insert agreement: %w", err)
	}

	log.WithField("agreement_id", id).WithField("client", client).WithField("provider", provider).Info("agreement created")
	l.bus.Publish(events.Event{
		Type:        events.TypeAgreementCreated,
		AgreementID: id,
		Client:      client,
		Provider:    provider,
		Amount:      amountWithCommission,
	})
	return id, nil
}

// DepositFunds adds an attached payment to the agreement's deposited funds.
// The expected amount is resolved by the collaborator from the accepted bid;
// the ledger does not store it redundantly. Deposits accumulate while the
// agreement is in Created state.
func (l *Ledger) DepositFunds(ctx context.Context, agreementID, expectedAmount, attachedPayment int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok, err := l.store.GetAgreement(ctx, agreementID)
	if err != nil {
		return fmt.Errorf("get agreement: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: agreement %d", errs.ErrNotFound, agreementID)
	}
	if attachedPayment != expectedAmount {
		return errs.ErrPaymentMismatch
	}

	if err := l.store.AddDeposit(ctx, agreementID, attachedPayment); err != nil {
		return fmt.Errorf("add deposit: %w", err)
	}

	log.WithField("agreement_id", agreementID).WithField("amount", attachedPayment).Info("funds deposited")
	l.bus.Publish(events.Event{
		Type:        events.TypeFundsDeposited,
		AgreementID: agreementID,
		Client:      a.Client,
		Provider:    a.ServiceProvider,
		Amount:      attachedPayment,
	})
	return nil
}

// ReleaseFunds splits the deposited gross into the provider's withdrawable
// payout and the platform commission. It transitions the agreement to
// Released exactly once; the state guard is what prevents a double credit.
func (l *Ledger) ReleaseFunds(ctx context.Context, agreementID int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok, err := l.store.GetAgreement(ctx, agreementID)
	if err != nil {
		return fmt.Errorf("get agreement: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: agreement %d", errs.ErrNotFound, agreementID)
	}
	if a.State != StateCreated {
		return fmt.Errorf("%w: agreement %d already released", errs.ErrInvalidState, agreementID)
	}

	deposited, err := l.store.DepositedFunds(ctx, agreementID)
	if err != nil {
		return fmt.Errorf("deposited funds: %w", err)
	}
	if deposited < a.AmountWithCommission {
		return fmt.Errorf("%w: deposited %d of %d", errs.ErrInsufficientFunds, deposited, a.AmountWithCommission)
	}

	commission := a.AmountWithCommission - a.AmountWithoutCommission
	if err := l.store.Release(ctx, agreementID, a.ServiceProvider, a.AmountWithoutCommission, commission); err != nil {
		return fmt.Errorf("release: %w", err)
	}

	log.WithField("agreement_id", agreementID).
		WithField("payout", a.AmountWithoutCommission).
		WithField("commission", commission).
		Info("funds released")
	l.bus.Publish(events.Event{
		Type:        events.TypeFundsReleased,
		AgreementID: agreementID,
		Client:      a.Client,
		Provider:    a.ServiceProvider,
		Amount:      a.AmountWithoutCommission,
	})
	return nil
}

// Withdraw transfers the provider's entire withdrawable balance and zeroes
// it in the same unit. Zeroing atomically with the transfer is the guard
// against reentrant double payout; do not reorder it after any external
// side effect.
func (l *Ledger) Withdraw(ctx context.Context, agreementID int64) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok, err := l.store.GetAgreement(ctx, agreementID)
	if err != nil {
		return 0, fmt.Errorf("get agreement: %w", err)
	}
	if !ok {
		return 0, fmt.Errorf("%w: agreement %d", errs.ErrNotFound, agreementID)
	}

	balance, err := l.store.WithdrawableBalance(ctx, a.ServiceProvider)
	if err != nil {
		return 0, fmt.Errorf("withdrawable balance: %w", err)
	}
	if balance == 0 {
		return 0, errs.ErrNoFunds
	}

	amount, err := l.store.ClearBalance(ctx, a.ServiceProvider)
	if err != nil {
		return 0, fmt.Errorf("clear balance: %w", err)
	}

	log.WithField("agreement_id", agreementID).WithField("provider", a.ServiceProvider).WithField("amount", amount).Info("funds withdrawn")
	l.bus.Publish(events.Event{
		Type:        events.TypeFundsWithdrawn,
		AgreementID: agreementID,
		Client:      a.Client,
		Provider:    a.ServiceProvider,
		Amount:      amount,
	})
	return amount, nil
}

// AgreementByID returns a snapshot of the agreement.
func (l *Ledger) AgreementByID(ctx context.Context, id int64) (Agreement, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	a, ok, err := l.store.GetAgreement(ctx, id)
	if err != nil {
		return Agreement{}, fmt.Errorf("get agreement: %w", err)
	}
	if !ok {
		return Agreement{}, fmt.Errorf("%w: agreement %d", errs.ErrNotFound, id)
	}
	return a, nil
}

// DepositedFunds returns the accumulated deposits for an agreement.
func (l *Ledger) DepositedFunds(ctx context.Context, agreementID int64) (int64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.store.DepositedFunds(ctx, agreementID)
}

// WithdrawableBalance returns the provider's current withdrawable amount.
func (l *Ledger) WithdrawableBalance(ctx context.Context, addr string) (int64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.store.WithdrawableBalance(ctx, addr)
}

// PlatformCommission returns the running commission total.
func (l *Ledger) PlatformCommission(ctx context.Context) (int64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.store.PlatformCommission(ctx)
}
