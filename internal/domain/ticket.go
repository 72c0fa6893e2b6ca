package domain

import (
	"time"

	"github.com/evetabi/settlement/internal/identity"
	"github.com/google/uuid"
)

// TicketStatus is the single source of truth for a ticket's one-shot claim
// guard: every claim instruction asserts Active before moving funds and
// sets the terminal status in the same atomic step.
type TicketStatus string

const (
	TicketActive   TicketStatus = "active"
	TicketWon      TicketStatus = "won"
	TicketLost     TicketStatus = "lost"
	TicketRefunded TicketStatus = "refunded"
)

// Ticket is a single stake by a single owner into one outcome of a market.
// It is never destroyed — permanence is what makes the claim guard work.
type Ticket struct {
	ID       identity.ID `json:"id"`
	MarketID identity.ID `json:"market_id"`

	Owner   uuid.UUID `json:"owner"`
	Amount  uint64    `json:"amount"`
	Outcome Outcome   `json:"outcome"`

	OddsAtPurchase  uint32 `json:"odds_at_purchase"`
	PotentialPayout uint64 `json:"potential_payout"`

	Status TicketStatus `json:"status"`

	Timestamp time.Time `json:"timestamp"`
	Index     uint64    `json:"index"`
}

// IsActive reports whether the ticket's claim budget has not yet been spent.
func (t *Ticket) IsActive() bool {
	return t.Status == TicketActive
}

// Won reports whether the ticket backed the market's declared winner. The
// market must already be settled; callers check that separately.
func (t *Ticket) Won(winner Outcome) bool {
	return t.Outcome == winner
}
