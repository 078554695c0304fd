package db

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kelechi-dev/workbid/internal/logger"
)

var log = logger.NewSublogger("db")

// Conn is the shared pool, set by Init.
var Conn *pgxpool.Pool

// Init connects to Postgres and ensures the ledger schema exists.
func Init() error {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s",
			os.Getenv("DB_USER"),
			os.Getenv("DB_PASSWORD"),
			os.Getenv("DB_HOST"),
			os.Getenv("DB_PORT"),
			os.Getenv("DB_NAME"),
		)
	}

	var err error
	Conn, err = pgxpool.New(context.Background(), dsn)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	if err = Conn.Ping(context.Background()); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	log.Info("connected to Postgres")

	return ensureSchema()
}

// ensureSchema creates the ledger tables if missing.
func ensureSchema() error {
	ctx := context.Background()
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			identity TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			age INTEGER NOT NULL,
			role INTEGER NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS credentials (
			id UUID PRIMARY KEY,
			identity TEXT NOT NULL UNIQUE REFERENCES users(identity),
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS jobs (
			id BIGSERIAL PRIMARY KEY,
			description TEXT NOT NULL,
			deadline TIMESTAMP WITH TIME ZONE NOT NULL,
			max_bid_value BIGINT NOT NULL,
			client_address TEXT NOT NULL,
			status INTEGER NOT NULL DEFAULT 0,
			selected_service_provider TEXT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_client ON jobs(client_address)`,
		`CREATE TABLE IF NOT EXISTS bids (
			job_id BIGINT NOT NULL REFERENCES jobs(id),
			service_provider_address TEXT NOT NULL,
			price BIGINT NOT NULL,
			details TEXT NOT NULL,
			is_accepted BOOLEAN NOT NULL DEFAULT FALSE,
			placed_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (job_id, service_provider_address)
		)`,
		`CREATE TABLE IF NOT EXISTS agreements (
			id BIGSERIAL PRIMARY KEY,
			client TEXT NOT NULL,
			service_provider TEXT NOT NULL,
			amount_with_commission BIGINT NOT NULL,
			amount_without_commission BIGINT NOT NULL,
			state INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS deposited_funds (
			agreement_id BIGINT PRIMARY KEY REFERENCES agreements(id),
			amount BIGINT NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS withdrawable_balances (
			address TEXT PRIMARY KEY,
			amount BIGINT NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS platform_commission (
			id INTEGER PRIMARY KEY,
			total BIGINT NOT NULL DEFAULT 0
		)`,
		`INSERT INTO platform_commission (id, total) VALUES (1, 0) ON CONFLICT (id) DO NOTHING`,
		`CREATE TABLE IF NOT EXISTS services (
			id BIGSERIAL PRIMARY KEY,
			description TEXT NOT NULL,
			service_provider_address TEXT NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_services_provider ON services(service_provider_address)`,
	}

	for _, stmt := range stmts {
		if _, err := Conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	log.Info("schema ensured")
	return nil
}

// Close releases the pool.
func Close() {
	if Conn != nil {
		Conn.Close()
	}
}
