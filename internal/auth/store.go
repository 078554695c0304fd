package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Credential holds a login record. The opaque identity it points at is what
// the rest of the system authorizes against.
type Credential struct {
	ID           string
	Identity     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// CredentialStore persists login records.
type CredentialStore interface {
	SaveCredential(ctx context.Context, cred Credential) error
	GetByEmail(ctx context.Context, email string) (Credential, bool, error)
}

// MemoryCredentialStore backs tests and the single-node mode.
type MemoryCredentialStore struct {
	mu      sync.RWMutex
	byEmail map[string]Credential
}

func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{byEmail: make(map[string]Credential)}
}

func (s *MemoryCredentialStore) SaveCredential(_ context.Context, cred Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[cred.Email]; exists {
		return errors.New("email already exists")
	}
	s.byEmail[cred.Email] = cred
	return nil
}

func (s *MemoryCredentialStore) GetByEmail(_ context.Context, email string) (Credential, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cred, ok := s.byEmail[email]
	return cred, ok, nil
}

// PostgresCredentialStore persists credentials in the credentials table.
type PostgresCredentialStore struct {
	pool *pgxpool.Pool
}

func NewPostgresCredentialStore(pool *pgxpool.Pool) *PostgresCredentialStore {
	return &PostgresCredentialStore{pool: pool}
}

func (s *PostgresCredentialStore) SaveCredential(ctx context.Context, cred Credential) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO credentials (id, identity, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, cred.ID, cred.Identity, cred.Email, cred.PasswordHash, cred.CreatedAt)
	return err
}

func (s *PostgresCredentialStore) GetByEmail(ctx context.Context, email string) (Credential, bool, error) {
	var cred Credential
	err := s.pool.QueryRow(ctx, `
		SELECT id, identity, email, password_hash, created_at FROM credentials WHERE email = $1
	`, email).Scan(&cred.ID, &cred.Identity, &cred.Email, &cred.PasswordHash, &cred.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Credential{}, false, nil
	}
	if err != nil {
		return Credential{}, false, err
	}
	return cred, true, nil
}
