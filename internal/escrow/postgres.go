package escrow

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps the escrow ledger in Postgres. Composite commits use
// one transaction each.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) InsertAgreement(ctx context.Context, a Agreement) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO agreements (client, service_provider, amount_with_commission, amount_without_commission, state, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, a.Client, a.ServiceProvider, a.AmountWithCommission, a.AmountWithoutCommission, int(a.State), a.CreatedAt).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *PostgresStore) GetAgreement(ctx context.Context, id int64) (Agreement, bool, error) {
	var (
		a     Agreement
		state int
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, client, service_provider, amount_with_commission, amount_without_commission, state, created_at
		FROM agreements WHERE id = $1
	`, id).Scan(&a.ID, &a.Client, &a.ServiceProvider, &a.AmountWithCommission, &a.AmountWithoutCommission, &state, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Agreement{}, false, nil
	}
	if err != nil {
		return Agreement{}, false, err
	}
	a.State = AgreementState(state)
	return a, true, nil
}

func (s *PostgresStore) AddDeposit(ctx context.Context, agreementID, amount int64) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO deposited_funds (agreement_id, amount)
		VALUES ($1, $2)
		ON CONFLICT (agreement_id) DO UPDATE
		SET amount = deposited_funds.amount + EXCLUDED.amount
	`, agreementID, amount)
	return err
}

func (s *PostgresStore) DepositedFunds(ctx context.Context, agreementID int64) (int64, error) {
	var amount int64
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM deposited_funds WHERE agreement_id = $1
	`, agreementID).Scan(&amount)
	return amount, err
}

func (s *PostgresStore) Release(ctx context.Context, agreementID int64, provider string, net, commission int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		UPDATE agreements SET state = $1 WHERE id = $2
	`, int(StateReleased), agreementID)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO withdrawable_balances (address, amount)
		VALUES ($1, $2)
		ON CONFLICT (address) DO UPDATE
		SET amount = withdrawable_balances.amount + EXCLUDED.amount
	`, provider, net)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		UPDATE platform_commission SET total = total + $1 WHERE id = 1
	`, commission)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) WithdrawableBalance(ctx context.Context, addr string) (int64, error) {
	var amount int64
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(amount, 0) FROM withdrawable_balances WHERE address = $1
	`, addr).Scan(&amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return amount, err
}

func (s *PostgresStore) ClearBalance(ctx context.Context, addr string) (int64, error) {
	// zero the balance and return what was held, one statement
	var amount int64
	err := s.pool.QueryRow(ctx, `
		UPDATE withdrawable_balances AS wb
		SET amount = 0
		FROM (SELECT address, amount FROM withdrawable_balances WHERE address = $1 FOR UPDATE) AS prev
		WHERE wb.address = prev.address
		RETURNING prev.amount
	`, addr).Scan(&amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return amount, err
}

func (s *PostgresStore) PlatformCommission(ctx context.Context) (int64, error) {
	var total int64
	err := s.pool.QueryRow(ctx, `
		SELECT total FROM platform_commission WHERE id = 1
	`).Scan(&total)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return total, err
}
