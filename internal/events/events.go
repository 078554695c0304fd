package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event type constants, one per ledger notification.
const (
	TypeUserAdded        = "user_added"
	TypeAgreementCreated = "agreement_created"
	TypeFundsDeposited   = "funds_deposited"
	TypeFundsReleased    = "funds_released"
	TypeFundsWithdrawn   = "funds_withdrawn"
	TypeJobStatusUpdated = "job_status_updated"
	TypeBidAccepted      = "bid_accepted"
	TypeServiceListed    = "service_listed"
)

// Event is the advisory notification emitted after a mutating operation
// commits. Subscribers use it to refresh views; it is not part of the
// consistency contract.
type Event struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	JobID       int64     `json:"job_id,omitempty"`
	AgreementID int64     `json:"agreement_id,omitempty"`
	Client      string    `json:"client,omitempty"`
	Provider    string    `json:"provider,omitempty"`
	Amount      int64     `json:"amount,omitempty"`
	At          time.Time `json:"at"`
}

// Bus is an in-process publish/subscribe fanout. Publish never blocks: a
// subscriber that falls behind misses events rather than stalling a ledger
// operation.
type Bus struct {
	mu   sync.RWMutex
	subs map[uint64]chan Event
	next uint64
}

func NewBus() *Bus {
	return &Bus{subs: make(map[uint64]chan Event)}
}

// Subscribe registers a listener. The returned cancel func must be called
// when the listener goes away.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan Event, 64)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if c, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

// Publish stamps the event and fans it out to every subscriber.
func (b *Bus) Publish(evt Event) {
	if evt.ID == "" {
		evt.ID = uuid.New().String()
	}
	if evt.At.IsZero() {
		evt.At = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- evt:
		default:
			// slow subscriber, drop
		}
	}
}
