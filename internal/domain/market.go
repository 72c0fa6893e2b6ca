// Package domain defines the core record types of the settlement engine:
// Market, Ticket and Escrow, their lifecycle statuses, and the sentinel
// errors every instruction precondition maps onto.
package domain

import (
	"time"

	"github.com/evetabi/settlement/internal/identity"
	"github.com/google/uuid"
)

// MarketStatus represents the lifecycle state of a market.
type MarketStatus string

const (
	MarketOpen      MarketStatus = "open"
	MarketSettled   MarketStatus = "settled"
	MarketCancelled MarketStatus = "cancelled"
)

// Market is a single two-outcome prediction event, its stake pools and its
// current AMM-derived odds.
type Market struct {
	ID       identity.ID `json:"id"`
	EscrowID identity.ID `json:"escrow_id"`

	ExternalID []byte    `json:"external_id"`
	Authority  uuid.UUID `json:"authority"`

	Title  string `json:"title"`
	LabelA string `json:"label_a"`
	LabelB string `json:"label_b"`

	StakeA    uint64 `json:"stake_a"`
	StakeB    uint64 `json:"stake_b"`
	TotalPool uint64 `json:"total_pool"`

	OddsA uint32 `json:"odds_a"`
	OddsB uint32 `json:"odds_b"`

	EndTime time.Time `json:"end_time"`

	Status MarketStatus `json:"status"`
	Winner *Outcome     `json:"winner,omitempty"`

	NextTicketIndex uint64 `json:"next_ticket_index"`

	// NextEventSeq is the next sequence number this market's append-only
	// event log will be written at. Not part of the wire-level data model —
	// purely a persistence-layer ordering token.
	NextEventSeq uint64 `json:"next_event_seq"`
}

// IsOpen reports whether the market still accepts stakes and is eligible
// for settle/cancel.
func (m *Market) IsOpen() bool {
	return m.Status == MarketOpen
}

// IsSettled reports whether the market has a fixed winner.
func (m *Market) IsSettled() bool {
	return m.Status == MarketSettled
}

// IsCancelled reports whether the market was voided.
func (m *Market) IsCancelled() bool {
	return m.Status == MarketCancelled
}

// OddsFor returns the current basis-point odds for the given outcome.
func (m *Market) OddsFor(o Outcome) uint32 {
	if o == OutcomeA {
		return m.OddsA
	}
	return m.OddsB
}

// StakeFor returns the current stake pool for the given outcome.
func (m *Market) StakeFor(o Outcome) uint64 {
	if o == OutcomeA {
		return m.StakeA
	}
	return m.StakeB
}

// HasEnded reports whether now has passed the market's end time — the
// boundary used by stake (must be strictly before) and settle (must be at
// or after).
func (m *Market) HasEnded(now time.Time) bool {
	return !now.Before(m.EndTime)
}
