package market

import "time"

// JobStatus tracks the job lifecycle. A job opens at creation and closes
// exactly once, when the owner accepts a bid.
type JobStatus int

const (
	JobOpen   JobStatus = 0
	JobClosed JobStatus = 1
)

func (s JobStatus) String() string {
	switch s {
	case JobOpen:
		return "open"
	case JobClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Job is owned by the board. Mutated only by accept-bid (Open -> Closed,
// selected provider set); never deleted.
type Job struct {
	ID                      int64     `json:"id"`
	Description             string    `json:"description"`
	Deadline                time.Time `json:"deadline"`
	MaxBidValue             int64     `json:"max_bid_value"`
	ClientAddress           string    `json:"client_address"`
	Status                  JobStatus `json:"status"`
	SelectedServiceProvider string    `json:"selected_service_provider,omitempty"`
	CreatedAt               time.Time `json:"created_at"`
}

// Bid is keyed by (JobID, ServiceProviderAddress); at most one per pair.
type Bid struct {
	JobID                  int64     `json:"job_id"`
	ServiceProviderAddress string    `json:"service_provider_address"`
	Price                  int64     `json:"price"`
	Details                string    `json:"details"`
	IsAccepted             bool      `json:"is_accepted"`
	PlacedAt               time.Time `json:"placed_at"`
}

// JobList is the browse view: three parallel slices in job-creation order,
// a read-only snapshot taken at call time.
type JobList struct {
	Descriptions []string    `json:"descriptions"`
	Deadlines    []time.Time `json:"deadlines"`
	MaxBidValues []int64     `json:"max_bid_values"`
}
