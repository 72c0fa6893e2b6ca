// Package store persists Market, Ticket and Escrow records in an embedded
// key-value store, addressed by their derived identity.ID rather than any
// auto-incrementing or randomly-minted primary key. This is the engine's
// substitute for an on-chain account store: there is no relational schema,
// no foreign keys, and no cross-record pointers — every relationship is
// reconstructed by re-deriving an id from a logical key (market's external
// id, a ticket's market+owner+index).
package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/evetabi/settlement/internal/domain"
	"github.com/evetabi/settlement/internal/identity"
)

// Store wraps an embedded pebble database holding every record kind the
// engine persists.
type Store struct {
	db *pebble.DB
}

// Open opens (creating if necessary) the pebble database rooted at path.
func Open(path string) (*Store, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("store.Open: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// ──────────────────────────────────────────────────────────────────────────────
// Key layout
// ──────────────────────────────────────────────────────────────────────────────
//
// m:<market_id>          -> json(Market)
// midx:<external_id>     -> market_id                 (convenience lookup)
// t:<market_id>:<ticket_id> -> json(Ticket)            (market-scoped prefix)
// e:<escrow_id>          -> json(Escrow)
// v:<market_id>:<BE64 seq> -> json(event payload)       (append-only log)

func marketKey(id identity.ID) []byte {
	return append([]byte("m:"), id[:]...)
}

func marketIndexKey(externalID []byte) []byte {
	return append([]byte("midx:"), externalID...)
}

func ticketKey(marketID, ticketID identity.ID) []byte {
	key := append([]byte("t:"), marketID[:]...)
	key = append(key, ':')
	return append(key, ticketID[:]...)
}

func ticketPrefix(marketID identity.ID) []byte {
	key := append([]byte("t:"), marketID[:]...)
	return append(key, ':')
}

func escrowKey(id identity.ID) []byte {
	return append([]byte("e:"), id[:]...)
}

func eventPrefix(marketID identity.ID) []byte {
	key := append([]byte("v:"), marketID[:]...)
	return append(key, ':')
}

func eventKey(marketID identity.ID, seq uint64) []byte {
	key := eventPrefix(marketID)
	var seqLE [8]byte
	binary.BigEndian.PutUint64(seqLE[:], seq) // big-endian so range scans come back in seq order
	return append(key, seqLE[:]...)
}

// keyUpperBound returns the smallest key strictly greater than every key
// with the given prefix, for use as a pebble.IterOptions.UpperBound.
func keyUpperBound(prefix []byte) []byte {
	upper := make([]byte, len(prefix))
	copy(upper, prefix)
	for i := len(upper) - 1; i >= 0; i-- {
		if upper[i] < 0xff {
			upper[i]++
			return upper[:i+1]
		}
	}
	return nil // prefix is all 0xff — unbounded
}

// ──────────────────────────────────────────────────────────────────────────────
// Market
// ──────────────────────────────────────────────────────────────────────────────

// GetMarket loads the market record at id. Returns domain.ErrMarketNotFound
// if no such record exists.
func (s *Store) GetMarket(id identity.ID) (*domain.Market, error) {
	val, closer, err := s.db.Get(marketKey(id))
	if err == pebble.ErrNotFound {
		return nil, domain.ErrMarketNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store.GetMarket: %w", err)
	}
	defer closer.Close()

	var m domain.Market
	if err := json.Unmarshal(val, &m); err != nil {
		return nil, fmt.Errorf("store.GetMarket: unmarshal: %w", err)
	}
	return &m, nil
}

// GetMarketByExternalID is a convenience lookup for callers that only have
// the external id on hand and have not derived the market id themselves.
func (s *Store) GetMarketByExternalID(externalID []byte) (*domain.Market, error) {
	val, closer, err := s.db.Get(marketIndexKey(externalID))
	if err == pebble.ErrNotFound {
		return nil, domain.ErrMarketNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store.GetMarketByExternalID: %w", err)
	}
	var id identity.ID
	copy(id[:], val)
	closer.Close()
	return s.GetMarket(id)
}

// PutMarket persists m, keyed by its derived id, and refreshes the
// external-id convenience index.
func (s *Store) PutMarket(m *domain.Market) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("store.PutMarket: marshal: %w", err)
	}
	batch := s.db.NewBatch()
	defer batch.Close()
	if err := batch.Set(marketKey(m.ID), data, nil); err != nil {
		return fmt.Errorf("store.PutMarket: %w", err)
	}
	if err := batch.Set(marketIndexKey(m.ExternalID), m.ID[:], nil); err != nil {
		return fmt.Errorf("store.PutMarket: index: %w", err)
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("store.PutMarket: commit: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Ticket
// ──────────────────────────────────────────────────────────────────────────────

// GetTicket loads a ticket record. Returns domain.ErrTicketNotFound if no
// such record exists.
func (s *Store) GetTicket(marketID, ticketID identity.ID) (*domain.Ticket, error) {
	val, closer, err := s.db.Get(ticketKey(marketID, ticketID))
	if err == pebble.ErrNotFound {
		return nil, domain.ErrTicketNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store.GetTicket: %w", err)
	}
	defer closer.Close()

	var t domain.Ticket
	if err := json.Unmarshal(val, &t); err != nil {
		return nil, fmt.Errorf("store.GetTicket: unmarshal: %w", err)
	}
	return &t, nil
}

// PutTicket persists t under its market-scoped key.
func (s *Store) PutTicket(t *domain.Ticket) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("store.PutTicket: marshal: %w", err)
	}
	if err := s.db.Set(ticketKey(t.MarketID, t.ID), data, pebble.Sync); err != nil {
		return fmt.Errorf("store.PutTicket: %w", err)
	}
	return nil
}

// ListTicketsByMarket returns every ticket recorded against marketID, in
// key order. Keys end in the hashed ticket id, so this is not creation order.
func (s *Store) ListTicketsByMarket(marketID identity.ID) ([]*domain.Ticket, error) {
	prefix := ticketPrefix(marketID)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("store.ListTicketsByMarket: %w", err)
	}
	defer iter.Close()

	var tickets []*domain.Ticket
	for iter.First(); iter.Valid(); iter.Next() {
		var t domain.Ticket
		if err := json.Unmarshal(iter.Value(), &t); err != nil {
			return nil, fmt.Errorf("store.ListTicketsByMarket: unmarshal: %w", err)
		}
		tickets = append(tickets, &t)
	}
	return tickets, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Escrow
// ──────────────────────────────────────────────────────────────────────────────

// GetEscrow loads an escrow record by its derived id.
func (s *Store) GetEscrow(id identity.ID) (*domain.Escrow, error) {
	val, closer, err := s.db.Get(escrowKey(id))
	if err == pebble.ErrNotFound {
		return nil, domain.ErrMarketNotFound // an escrow only ever exists alongside its market
	}
	if err != nil {
		return nil, fmt.Errorf("store.GetEscrow: %w", err)
	}
	defer closer.Close()

	var e domain.Escrow
	if err := json.Unmarshal(val, &e); err != nil {
		return nil, fmt.Errorf("store.GetEscrow: unmarshal: %w", err)
	}
	return &e, nil
}

// PutEscrow persists e.
func (s *Store) PutEscrow(e *domain.Escrow) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("store.PutEscrow: marshal: %w", err)
	}
	if err := s.db.Set(escrowKey(e.ID), data, pebble.Sync); err != nil {
		return fmt.Errorf("store.PutEscrow: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Events
// ──────────────────────────────────────────────────────────────────────────────

// AppendEvent appends a JSON-encoded event payload to marketID's append-only
// log at the given sequence number. Sequence numbers must be assigned by the
// caller in strictly increasing order per market.
func (s *Store) AppendEvent(marketID identity.ID, seq uint64, payload []byte) error {
	if err := s.db.Set(eventKey(marketID, seq), payload, pebble.Sync); err != nil {
		return fmt.Errorf("store.AppendEvent: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Batch — atomic multi-record commit
// ──────────────────────────────────────────────────────────────────────────────

// Batch groups the market/ticket/escrow/event writes of a single instruction
// into one atomic pebble commit: either every record lands or none does,
// matching the engine's "all mutations commit or none" instruction model.
type Batch struct {
	b *pebble.Batch
}

// NewBatch opens an empty batch. Callers must call Commit or Discard exactly
// once.
func (s *Store) NewBatch() *Batch {
	return &Batch{b: s.db.NewBatch()}
}

// SetMarket stages a market write (and its external-id index entry).
func (b *Batch) SetMarket(m *domain.Market) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("store.Batch.SetMarket: marshal: %w", err)
	}
	if err := b.b.Set(marketKey(m.ID), data, nil); err != nil {
		return fmt.Errorf("store.Batch.SetMarket: %w", err)
	}
	return b.b.Set(marketIndexKey(m.ExternalID), m.ID[:], nil)
}

// SetTicket stages a ticket write.
func (b *Batch) SetTicket(t *domain.Ticket) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("store.Batch.SetTicket: marshal: %w", err)
	}
	return b.b.Set(ticketKey(t.MarketID, t.ID), data, nil)
}

// SetEscrow stages an escrow write.
func (b *Batch) SetEscrow(e *domain.Escrow) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("store.Batch.SetEscrow: marshal: %w", err)
	}
	return b.b.Set(escrowKey(e.ID), data, nil)
}

// AppendEvent stages an event-log append.
func (b *Batch) AppendEvent(marketID identity.ID, seq uint64, payload []byte) error {
	return b.b.Set(eventKey(marketID, seq), payload, nil)
}

// Commit durably applies every staged write atomically.
func (b *Batch) Commit() error {
	defer b.b.Close()
	if err := b.b.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("store.Batch.Commit: %w", err)
	}
	return nil
}

// Discard abandons the batch without applying any staged write. Safe to
// call even if Commit already ran.
func (b *Batch) Discard() {
	_ = b.b.Close()
}

// ListEvents returns every event payload recorded against marketID, in
// sequence order.
func (s *Store) ListEvents(marketID identity.ID) ([][]byte, error) {
	prefix := eventPrefix(marketID)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("store.ListEvents: %w", err)
	}
	defer iter.Close()

	var payloads [][]byte
	for iter.First(); iter.Valid(); iter.Next() {
		payload := make([]byte, len(iter.Value()))
		copy(payload, iter.Value())
		payloads = append(payloads, payload)
	}
	return payloads, nil
}
