// Package events defines the engine's structured, append-only event log.
// Every committed instruction emits exactly one event; rejected instructions
// emit none. Events are consumed by external indexers — the engine itself
// never reads its own log back.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/evetabi/settlement/internal/domain"
	"github.com/evetabi/settlement/internal/identity"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Kind names the event's schema, stable across releases for indexer matching.
type Kind string

const (
	KindOpened    Kind = "Opened"
	KindStaked    Kind = "Staked"
	KindSettled   Kind = "Settled"
	KindCancelled Kind = "Cancelled"
	KindPaid      Kind = "Paid"
	KindRefunded  Kind = "Refunded"
)

// Envelope wraps a typed payload with the fields every event shares.
type Envelope struct {
	Kind      Kind      `json:"kind"`
	MarketID  string    `json:"market_id"`
	Sequence  uint64    `json:"sequence"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

type OpenedPayload struct {
	Authority uuid.UUID `json:"authority"`
	LabelA    string    `json:"label_a"`
	LabelB    string    `json:"label_b"`
	EndTime   time.Time `json:"end_time"`
}

type StakedPayload struct {
	TicketID  string         `json:"ticket_id"`
	Owner     uuid.UUID      `json:"owner"`
	Outcome   domain.Outcome `json:"outcome"`
	Amount    uint64         `json:"amount"`
	OddsAfter [2]uint32      `json:"odds_after"` // [odds_a, odds_b]
}

type SettledPayload struct {
	Winner domain.Outcome `json:"winner"`
}

type CancelledPayload struct{}

type PaidPayload struct {
	TicketID string `json:"ticket_id"`
	Gross    uint64 `json:"gross"`
	Fee      uint64 `json:"fee"`
	Net      uint64 `json:"net"`
}

type RefundedPayload struct {
	TicketID string `json:"ticket_id"`
	Amount   uint64 `json:"amount"`
}

// Sink appends an event to a market's log and mirrors it to a structured
// logger. Log is a dependency the dispatcher injects; a nil Log is treated
// as "do not mirror to logs" (used by tests that only care about the
// persisted log).
type Sink struct {
	Append func(marketID identity.ID, seq uint64, payload []byte) error
	Log    *zap.Logger
}

// Emit assigns seq as the event's sequence number, persists it via Append,
// and logs one structured line at Info. now is passed in explicitly so the
// event stream stays reproducible in tests.
func (s *Sink) Emit(marketID identity.ID, seq uint64, kind Kind, now time.Time, payload any) error {
	env := Envelope{
		Kind:      kind,
		MarketID:  marketID.String(),
		Sequence:  seq,
		Timestamp: now,
		Payload:   payload,
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("events.Emit: marshal: %w", err)
	}
	if err := s.Append(marketID, seq, data); err != nil {
		return fmt.Errorf("events.Emit: append: %w", err)
	}
	if s.Log != nil {
		s.Log.Info(string(kind),
			zap.String("market_id", env.MarketID),
			zap.Uint64("sequence", seq),
			zap.Any("payload", payload),
		)
	}
	return nil
}
