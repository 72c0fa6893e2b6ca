// Package engine implements the settlement engine's instruction dispatcher:
// open, stake, settle, cancel, claim_payout and claim_refund. Each method is
// one atomic instruction — preconditions are checked in the fixed precedence
// order the external interface specifies, and on any failure no mutation is
// applied and no event is emitted. Instructions against the same market
// serialize on the market's derived id; instructions against disjoint
// markets run concurrently.
package engine

import (
	"time"

	"github.com/evetabi/settlement/internal/domain"
	"github.com/evetabi/settlement/internal/escrow"
	"github.com/evetabi/settlement/internal/events"
	"github.com/evetabi/settlement/internal/fixedpoint"
	"github.com/evetabi/settlement/internal/identity"
	"github.com/evetabi/settlement/internal/pricing"
	"github.com/evetabi/settlement/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Engine dispatches instructions against a store-backed set of market,
// ticket and escrow records.
type Engine struct {
	store  *store.Store
	locker *marketLocker
	log    *zap.Logger

	// Now supplies the ambient wall-clock the state machine checks
	// end_time against. Defaults to time.Now; tests substitute a fixed
	// clock to exercise exact boundary behaviour.
	Now func() time.Time
}

// New constructs an Engine backed by s, logging structured instruction
// outcomes to log.
func New(s *store.Store, log *zap.Logger) *Engine {
	return &Engine{
		store:  s,
		locker: newMarketLocker(),
		log:    log,
		Now:    time.Now,
	}
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func mapNotFound(err error) error {
	if domain.IsNotFound(err) {
		return domain.ErrInvalidState
	}
	return err
}

// sinkFor wires an events.Sink to append into batch, so a single instruction's
// event emission lands in the same atomic commit as its record mutations.
// The sink mirrors to the engine's logger itself; callers must not also log
// the raw event (they may still log a higher-level summary line).
func (e *Engine) sinkFor(batch *store.Batch) *events.Sink {
	return &events.Sink{
		Append: batch.AppendEvent,
		Log:    e.log,
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// open
// ──────────────────────────────────────────────────────────────────────────────

// Open creates a new market. Pre: no market yet exists at externalID's
// derived id; endTime is strictly in the future; externalID/title/labels are
// within their length bounds. Post: market created Open, odds 5000/5000,
// escrow created at balance 0.
func (e *Engine) Open(externalID []byte, authority uuid.UUID, title, labelA, labelB string, endTime time.Time) (*domain.Market, error) {
	if len(externalID) < 1 || len(externalID) > domain.MaxExternalID ||
		len(title) > domain.MaxTitle || len(labelA) > domain.MaxLabel || len(labelB) > domain.MaxLabel {
		return nil, domain.ErrIdentifierTooLong
	}

	marketID := identity.MarketID(externalID)
	unlock := e.locker.lock(marketID)
	defer unlock()

	if _, err := e.store.GetMarket(marketID); err == nil {
		return nil, domain.ErrInvalidState // already exists
	} else if !domain.IsNotFound(err) {
		return nil, err
	}

	if !endTime.After(e.now()) {
		return nil, domain.ErrMarketEnded
	}

	escrowID := identity.EscrowID(externalID)
	m := &domain.Market{
		ID:         marketID,
		EscrowID:   escrowID,
		ExternalID: append([]byte(nil), externalID...),
		Authority:  authority,
		Title:      title,
		LabelA:     labelA,
		LabelB:     labelB,
		OddsA:      domain.HalfBP,
		OddsB:      domain.HalfBP,
		EndTime:    endTime,
		Status:     domain.MarketOpen,
	}
	es := &domain.Escrow{ID: escrowID, MarketID: marketID, Balance: 0}

	seq := m.NextEventSeq
	m.NextEventSeq++

	batch := e.store.NewBatch()
	if err := batch.SetMarket(m); err != nil {
		batch.Discard()
		return nil, err
	}
	if err := batch.SetEscrow(es); err != nil {
		batch.Discard()
		return nil, err
	}
	payload := events.OpenedPayload{Authority: authority, LabelA: labelA, LabelB: labelB, EndTime: endTime}
	if err := e.sinkFor(batch).Emit(marketID, seq, events.KindOpened, e.now(), payload); err != nil {
		batch.Discard()
		return nil, err
	}
	if err := batch.Commit(); err != nil {
		return nil, err
	}

	if e.log != nil {
		e.log.Info("Opened", zap.String("market_id", marketID.String()), zap.String("title", title))
	}
	return m, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// stake
// ──────────────────────────────────────────────────────────────────────────────

// Stake places amount on outcome in the market at externalID, on behalf of
// owner. clientTicketIndex must equal the market's next_ticket_index — this
// both assigns sequential ticket numbering and deduplicates retried calls.
func (e *Engine) Stake(externalID []byte, owner uuid.UUID, amount uint64, outcome domain.Outcome, clientTicketIndex uint64) (*domain.Ticket, error) {
	marketID := identity.MarketID(externalID)
	unlock := e.locker.lock(marketID)
	defer unlock()

	m, err := e.store.GetMarket(marketID)
	if err != nil {
		return nil, mapNotFound(err)
	}

	if !m.IsOpen() {
		return nil, domain.ErrInvalidState
	}
	if m.HasEnded(e.now()) {
		return nil, domain.ErrMarketEnded
	}
	if amount < domain.MinStake {
		return nil, domain.ErrStakeBelowMin
	}
	if amount > domain.MaxStake {
		return nil, domain.ErrStakeAboveMax
	}
	if clientTicketIndex != m.NextTicketIndex {
		return nil, domain.ErrIndexConflict
	}

	es, err := e.store.GetEscrow(m.EscrowID)
	if err != nil {
		return nil, mapNotFound(err)
	}

	oddsAtPurchase, potentialPayout, err := pricing.ApplyStake(m, outcome, amount)
	if err != nil {
		return nil, domain.ErrMathOverflow
	}
	if err := escrow.Credit(es, amount); err != nil {
		return nil, err
	}

	ticketID := identity.TicketID(marketID, owner, clientTicketIndex)
	ticket := &domain.Ticket{
		ID:              ticketID,
		MarketID:        marketID,
		Owner:           owner,
		Amount:          amount,
		Outcome:         outcome,
		OddsAtPurchase:  oddsAtPurchase,
		PotentialPayout: potentialPayout,
		Status:          domain.TicketActive,
		Timestamp:       e.now(),
		Index:           clientTicketIndex,
	}
	m.NextTicketIndex++

	seq := m.NextEventSeq
	m.NextEventSeq++

	batch := e.store.NewBatch()
	if err := batch.SetMarket(m); err != nil {
		batch.Discard()
		return nil, err
	}
	if err := batch.SetEscrow(es); err != nil {
		batch.Discard()
		return nil, err
	}
	if err := batch.SetTicket(ticket); err != nil {
		batch.Discard()
		return nil, err
	}
	payload := events.StakedPayload{
		TicketID:  ticketID.String(),
		Owner:     owner,
		Outcome:   outcome,
		Amount:    amount,
		OddsAfter: [2]uint32{m.OddsA, m.OddsB},
	}
	if err := e.sinkFor(batch).Emit(marketID, seq, events.KindStaked, ticket.Timestamp, payload); err != nil {
		batch.Discard()
		return nil, err
	}
	if err := batch.Commit(); err != nil {
		return nil, err
	}

	if e.log != nil {
		e.log.Info("Staked",
			zap.String("market_id", marketID.String()),
			zap.String("ticket_id", ticketID.String()),
			zap.Uint64("amount", amount),
		)
	}
	return ticket, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// settle
// ──────────────────────────────────────────────────────────────────────────────

// Settle fixes winner as the market's outcome. Pre: market Open; caller
// matches market.authority; now >= end_time.
func (e *Engine) Settle(externalID []byte, caller uuid.UUID, winner domain.Outcome) (*domain.Market, error) {
	marketID := identity.MarketID(externalID)
	unlock := e.locker.lock(marketID)
	defer unlock()

	m, err := e.store.GetMarket(marketID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if caller != m.Authority {
		return nil, domain.ErrUnauthorized
	}
	if !m.IsOpen() {
		return nil, domain.ErrInvalidState
	}
	if !m.HasEnded(e.now()) {
		return nil, domain.ErrMarketNotEnded
	}

	w := winner
	m.Status = domain.MarketSettled
	m.Winner = &w

	seq := m.NextEventSeq
	m.NextEventSeq++

	batch := e.store.NewBatch()
	if err := batch.SetMarket(m); err != nil {
		batch.Discard()
		return nil, err
	}
	payload := events.SettledPayload{Winner: winner}
	if err := e.sinkFor(batch).Emit(marketID, seq, events.KindSettled, e.now(), payload); err != nil {
		batch.Discard()
		return nil, err
	}
	if err := batch.Commit(); err != nil {
		return nil, err
	}

	if e.log != nil {
		e.log.Info("Settled", zap.String("market_id", marketID.String()), zap.String("winner", winner.String()))
	}
	return m, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// cancel
// ──────────────────────────────────────────────────────────────────────────────

// Cancel voids the market unconditionally (regardless of end_time). Pre:
// market Open; caller matches market.authority.
func (e *Engine) Cancel(externalID []byte, caller uuid.UUID) (*domain.Market, error) {
	marketID := identity.MarketID(externalID)
	unlock := e.locker.lock(marketID)
	defer unlock()

	m, err := e.store.GetMarket(marketID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if caller != m.Authority {
		return nil, domain.ErrUnauthorized
	}
	if !m.IsOpen() {
		return nil, domain.ErrInvalidState
	}

	m.Status = domain.MarketCancelled

	seq := m.NextEventSeq
	m.NextEventSeq++

	batch := e.store.NewBatch()
	if err := batch.SetMarket(m); err != nil {
		batch.Discard()
		return nil, err
	}
	payload := events.CancelledPayload{}
	if err := e.sinkFor(batch).Emit(marketID, seq, events.KindCancelled, e.now(), payload); err != nil {
		batch.Discard()
		return nil, err
	}
	if err := batch.Commit(); err != nil {
		return nil, err
	}

	if e.log != nil {
		e.log.Info("Cancelled", zap.String("market_id", marketID.String()))
	}
	return m, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// claim_payout
// ──────────────────────────────────────────────────────────────────────────────

// ClaimResult reports the amounts moved by a successful claim_payout, since
// the ticket record alone no longer carries the fee split once claimed.
type ClaimResult struct {
	Ticket *domain.Ticket
	Gross  uint64
	Fee    uint64
	Net    uint64
}

// ClaimPayout pays out ticketID to owner, crediting the platform's treasury
// with a fee computed on the gross payout. Pre: market Settled; ticket owned
// by owner; ticket Active; ticket's outcome matches the market's winner.
func (e *Engine) ClaimPayout(externalID []byte, ticketID identity.ID, owner, treasury uuid.UUID) (*ClaimResult, error) {
	marketID := identity.MarketID(externalID)
	unlock := e.locker.lock(marketID)
	defer unlock()

	m, err := e.store.GetMarket(marketID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	ticket, err := e.store.GetTicket(marketID, ticketID)
	if err != nil {
		return nil, mapNotFound(err)
	}

	if ticket.Owner != owner {
		return nil, domain.ErrTicketNotOwned
	}
	if !m.IsSettled() {
		return nil, domain.ErrMarketNotSettled
	}
	if !ticket.IsActive() {
		return nil, domain.ErrTicketNotActive
	}
	if m.Winner == nil || ticket.Outcome != *m.Winner {
		return nil, domain.ErrTicketDidNotWin
	}

	es, err := e.store.GetEscrow(m.EscrowID)
	if err != nil {
		return nil, mapNotFound(err)
	}

	gross := ticket.PotentialPayout
	fee, err := feeOnGross(gross)
	if err != nil {
		return nil, err
	}
	net, err := fixedpoint.SubU64(gross, fee)
	if err != nil {
		return nil, domain.ErrMathOverflow
	}

	if err := escrow.SplitDebitTo(es, net, fee); err != nil {
		return nil, err
	}
	ticket.Status = domain.TicketWon

	seq := m.NextEventSeq
	m.NextEventSeq++

	batch := e.store.NewBatch()
	if err := batch.SetEscrow(es); err != nil {
		batch.Discard()
		return nil, err
	}
	if err := batch.SetTicket(ticket); err != nil {
		batch.Discard()
		return nil, err
	}
	if err := batch.SetMarket(m); err != nil {
		batch.Discard()
		return nil, err
	}
	payload := events.PaidPayload{TicketID: ticketID.String(), Gross: gross, Fee: fee, Net: net}
	if err := e.sinkFor(batch).Emit(marketID, seq, events.KindPaid, e.now(), payload); err != nil {
		batch.Discard()
		return nil, err
	}
	if err := batch.Commit(); err != nil {
		return nil, err
	}

	if e.log != nil {
		e.log.Info("Paid", zap.String("ticket_id", ticketID.String()), zap.Uint64("gross", gross), zap.Uint64("fee", fee), zap.Uint64("net", net))
	}
	return &ClaimResult{Ticket: ticket, Gross: gross, Fee: fee, Net: net}, nil
}

// feeOnGross computes the platform rake on a gross payout, applied to the
// gross amount rather than profit — following the source behaviour exactly,
// a policy decision rather than an oversight.
func feeOnGross(gross uint64) (uint64, error) {
	fee, err := fixedpoint.MulDivFloor(gross, domain.FeeBP, uint64(domain.FullBP))
	if err != nil {
		return 0, domain.ErrMathOverflow
	}
	return fee, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// claim_refund
// ──────────────────────────────────────────────────────────────────────────────

// ClaimRefund returns ticketID's full stake to owner. Pre: market Cancelled;
// ticket owned by owner; ticket Active.
func (e *Engine) ClaimRefund(externalID []byte, ticketID identity.ID, owner uuid.UUID) (*domain.Ticket, uint64, error) {
	marketID := identity.MarketID(externalID)
	unlock := e.locker.lock(marketID)
	defer unlock()

	m, err := e.store.GetMarket(marketID)
	if err != nil {
		return nil, 0, mapNotFound(err)
	}
	ticket, err := e.store.GetTicket(marketID, ticketID)
	if err != nil {
		return nil, 0, mapNotFound(err)
	}

	if ticket.Owner != owner {
		return nil, 0, domain.ErrTicketNotOwned
	}
	if !m.IsCancelled() {
		return nil, 0, domain.ErrMarketNotCancelled
	}
	if !ticket.IsActive() {
		return nil, 0, domain.ErrTicketNotActive
	}

	es, err := e.store.GetEscrow(m.EscrowID)
	if err != nil {
		return nil, 0, mapNotFound(err)
	}

	if err := escrow.DebitTo(es, ticket.Amount); err != nil {
		return nil, 0, err
	}
	ticket.Status = domain.TicketRefunded

	seq := m.NextEventSeq
	m.NextEventSeq++

	batch := e.store.NewBatch()
	if err := batch.SetEscrow(es); err != nil {
		batch.Discard()
		return nil, 0, err
	}
	if err := batch.SetTicket(ticket); err != nil {
		batch.Discard()
		return nil, 0, err
	}
	if err := batch.SetMarket(m); err != nil {
		batch.Discard()
		return nil, 0, err
	}
	payload := events.RefundedPayload{TicketID: ticketID.String(), Amount: ticket.Amount}
	if err := e.sinkFor(batch).Emit(marketID, seq, events.KindRefunded, e.now(), payload); err != nil {
		batch.Discard()
		return nil, 0, err
	}
	if err := batch.Commit(); err != nil {
		return nil, 0, err
	}

	if e.log != nil {
		e.log.Info("Refunded", zap.String("ticket_id", ticketID.String()), zap.Uint64("amount", ticket.Amount))
	}
	return ticket, ticket.Amount, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Read helpers — not instructions, just convenience for callers/tests
// ──────────────────────────────────────────────────────────────────────────────

// Market returns the market record at externalID's derived id.
func (e *Engine) Market(externalID []byte) (*domain.Market, error) {
	m, err := e.store.GetMarket(identity.MarketID(externalID))
	if err != nil {
		return nil, mapNotFound(err)
	}
	return m, nil
}

// Escrow returns the escrow record backing the market at externalID.
func (e *Engine) Escrow(externalID []byte) (*domain.Escrow, error) {
	m, err := e.Market(externalID)
	if err != nil {
		return nil, err
	}
	es, err := e.store.GetEscrow(m.EscrowID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return es, nil
}

// Ticket returns ticketID's record under the market at externalID.
func (e *Engine) Ticket(externalID []byte, ticketID identity.ID) (*domain.Ticket, error) {
	marketID := identity.MarketID(externalID)
	t, err := e.store.GetTicket(marketID, ticketID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return t, nil
}
