package escrow

import "time"

// AgreementState: Created -> Released, terminal. Deposits may accumulate
// while Created; withdrawal is gated by the withdrawable balance alone.
type AgreementState int

const (
	StateCreated  AgreementState = 0
	StateReleased AgreementState = 1
)

func (s AgreementState) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateReleased:
		return "released"
	default:
		return "unknown"
	}
}

// Agreement binds a client and a provider to a gross/net amount pair. The
// difference is the platform commission, accrued on release.
type Agreement struct {
	ID                      int64          `json:"id"`
	Client                  string         `json:"client"`
	ServiceProvider         string         `json:"service_provider"`
	AmountWithCommission    int64          `json:"amount_with_commission"`
	AmountWithoutCommission int64          `json:"amount_without_commission"`
	State                   AgreementState `json:"state"`
	CreatedAt               time.Time      `json:"created_at"`
}

// DefaultCommissionRateBP is the platform commission in basis points.
const DefaultCommissionRateBP = 1000

// GrossUp adds the platform commission to a net price.
func GrossUp(price, rateBP int64) int64 {
	return price + price*rateBP/10000
}
