package listing

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists listings in the services table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) InsertService(ctx context.Context, svc Service) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO services (description, service_provider_address, created_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`, svc.Description, svc.ServiceProviderAddress, svc.CreatedAt).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *PostgresStore) ListByProvider(ctx context.Context, provider string) ([]Service, error) {
	return s.queryServices(ctx, `
		SELECT id, description, service_provider_address, created_at
		FROM services WHERE service_provider_address = $1 ORDER BY id
	`, provider)
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]Service, error) {
	return s.queryServices(ctx, `
		SELECT id, description, service_provider_address, created_at
		FROM services ORDER BY id
	`)
}

func (s *PostgresStore) queryServices(ctx context.Context, sql string, args ...any) ([]Service, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Service
	for rows.Next() {
		var svc Service
		if err := rows.Scan(&svc.ID, &svc.Description, &svc.ServiceProviderAddress, &svc.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, svc)
	}
	return out, rows.Err()
}
