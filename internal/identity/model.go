package identity

import "time"

// Role is a caller's fixed category, set at registration and consulted by
// every authorization check elsewhere.
type Role int

const (
	RoleServiceProvider Role = 0
	RoleClient          Role = 1
)

func (r Role) String() string {
	switch r {
	case RoleServiceProvider:
		return "service_provider"
	case RoleClient:
		return "client"
	default:
		return "unknown"
	}
}

// ParseRole maps the wire form back to a Role.
func ParseRole(s string) (Role, bool) {
	switch s {
	case "service_provider":
		return RoleServiceProvider, true
	case "client":
		return RoleClient, true
	default:
		return 0, false
	}
}

// User is a registered profile keyed by an opaque caller identity.
type User struct {
	Identity  string    `json:"identity"`
	Name      string    `json:"name"`
	Age       int       `json:"age"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
