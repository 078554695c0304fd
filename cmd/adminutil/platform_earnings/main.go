package main

import (
	"context"
	"fmt"
	"log"

	"github.com/kelechi-dev/workbid/internal/db"
)

// platform_earnings prints the accumulated platform commission and the
// outstanding withdrawable liabilities.
// Usage:
//
//	go run cmd/adminutil/platform_earnings/main.go
func main() {
	if err := db.Init(); err != nil {
		log.Fatalf("db init: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	var commission int64
	if err := db.Conn.QueryRow(ctx, `SELECT total FROM platform_commission WHERE id = 1`).Scan(&commission); err != nil {
		log.Fatalf("failed to read platform commission: %v", err)
	}

	var outstanding int64
	if err := db.Conn.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM withdrawable_balances`).Scan(&outstanding); err != nil {
		log.Fatalf("failed to read withdrawable balances: %v", err)
	}

	var released int64
	if err := db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM agreements WHERE state = 1`).Scan(&released); err != nil {
		log.Fatalf("failed to count released agreements: %v", err)
	}

	fmt.Printf("Platform commission: %d\n", commission)
	fmt.Printf("Outstanding provider balances: %d\n", outstanding)
	fmt.Printf("Released agreements: %d\n", released)
}
