package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/kelechi-dev/workbid/internal/db"
	"github.com/kelechi-dev/workbid/internal/identity"
)

// set_role overwrites a registered user's role by identity.
// Usage:
//
//	go run cmd/adminutil/set_role/main.go -identity <id> -role client|service_provider
func main() {
	id := flag.String("identity", "", "Identity of the user to update")
	roleName := flag.String("role", "", "New role: client or service_provider")
	flag.Parse()

	if *id == "" || *roleName == "" {
		log.Fatalf("usage: go run cmd/adminutil/set_role/main.go -identity <id> -role client|service_provider")
	}
	role, ok := identity.ParseRole(*roleName)
	if !ok {
		log.Fatalf("unknown role %q", *roleName)
	}

	if err := db.Init(); err != nil {
		log.Fatalf("db init: %v", err)
	}
	defer db.Close()

	ct, err := db.Conn.Exec(context.Background(), `UPDATE users SET role = $1 WHERE identity = $2`, int(role), *id)
	if err != nil {
		log.Fatalf("failed to update role: %v", err)
	}
	if ct.RowsAffected() == 0 {
		log.Fatalf("no user found with identity: %s", *id)
	}

	fmt.Printf("User %s role set to %s.\n", *id, role)
}
