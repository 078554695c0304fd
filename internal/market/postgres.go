package market

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists jobs and bids in Postgres. Sequence ids come from
// the jobs table's BIGSERIAL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) InsertJob(ctx context.Context, j Job) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO jobs (description, deadline, max_bid_value, client_address, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, j.Description, j.Deadline, j.MaxBidValue, j.ClientAddress, int(j.Status), j.CreatedAt).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *PostgresStore) GetJob(ctx context.Context, id int64) (Job, bool, error) {
	j, err := scanJob(s.pool.QueryRow(ctx, `
		SELECT id, description, deadline, max_bid_value, client_address, status,
		       COALESCE(selected_service_provider, ''), created_at
		FROM jobs WHERE id = $1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Job{}, false, nil
	}
	if err != nil {
		return Job{}, false, err
	}
	return j, true, nil
}

func (s *PostgresStore) ListJobs(ctx context.Context) ([]Job, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, description, deadline, max_bid_value, client_address, status,
		       COALESCE(selected_service_provider, ''), created_at
		FROM jobs ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (s *PostgresStore) InsertBid(ctx context.Context, b Bid) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO bids (job_id, service_provider_address, price, details, is_accepted, placed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, b.JobID, b.ServiceProviderAddress, b.Price, b.Details, b.IsAccepted, b.PlacedAt)
	return err
}

func (s *PostgresStore) GetBid(ctx context.Context, jobID int64, provider string) (Bid, bool, error) {
	var b Bid
	err := s.pool.QueryRow(ctx, `
		SELECT job_id, service_provider_address, price, details, is_accepted, placed_at
		FROM bids WHERE job_id = $1 AND service_provider_address = $2
	`, jobID, provider).Scan(&b.JobID, &b.ServiceProviderAddress, &b.Price, &b.Details, &b.IsAccepted, &b.PlacedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Bid{}, false, nil
	}
	if err != nil {
		return Bid{}, false, err
	}
	return b, true, nil
}

func (s *PostgresStore) ListBids(ctx context.Context, jobID int64) ([]Bid, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT job_id, service_provider_address, price, details, is_accepted, placed_at
		FROM bids WHERE job_id = $1 ORDER BY placed_at, service_provider_address
	`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Bid
	for rows.Next() {
		var b Bid
		if err := rows.Scan(&b.JobID, &b.ServiceProviderAddress, &b.Price, &b.Details, &b.IsAccepted, &b.PlacedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// MarkAccepted flips the bid and closes the job in one transaction.
func (s *PostgresStore) MarkAccepted(ctx context.Context, jobID int64, provider string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		UPDATE bids SET is_accepted = TRUE
		WHERE job_id = $1 AND service_provider_address = $2
	`, jobID, provider)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		UPDATE jobs SET status = $1, selected_service_provider = $2
		WHERE id = $3
	`, int(JobClosed), provider, jobID)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (Job, error) {
	var (
		j      Job
		status int
	)
	err := row.Scan(&j.ID, &j.Description, &j.Deadline, &j.MaxBidValue,
		&j.ClientAddress, &status, &j.SelectedServiceProvider, &j.CreatedAt)
	if err != nil {
		return Job{}, err
	}
	j.Status = JobStatus(status)
	return j, nil
}
