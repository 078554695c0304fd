package identity

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists profiles in the users table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) SaveUser(ctx context.Context, u User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (identity, name, age, role, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (identity) DO UPDATE
		SET name = EXCLUDED.name, age = EXCLUDED.age, role = EXCLUDED.role
	`, u.Identity, u.Name, u.Age, int(u.Role), u.CreatedAt)
	return err
}

func (s *PostgresStore) GetUser(ctx context.Context, identity string) (User, bool, error) {
	var (
		u    User
		role int
	)
	err := s.pool.QueryRow(ctx, `
		SELECT identity, name, age, role, created_at FROM users WHERE identity = $1
	`, identity).Scan(&u.Identity, &u.Name, &u.Age, &role, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, false, nil
	}
	if err != nil {
		return User{}, false, err
	}
	u.Role = Role(role)
	return u, true, nil
}
