// Package pricing implements the AMM rule that reprices a market's implied
// odds on every stake: a smoothed, clamped share of the two stake pools,
// computed entirely in integer basis points. No floating point appears on
// this path — the smoothing is folded into a single rounded integer division
// per update, followed by an integer clamp, so results are exactly
// reproducible across platforms.
package pricing

import (
	"github.com/evetabi/settlement/internal/domain"
	"github.com/evetabi/settlement/internal/fixedpoint"
)

// OddsAfterStake returns the post-update odds for outcome A given the stake
// pools after a new stake has already been folded into stakeA/stakeB.
//
// Derivation: the raw probability of A is stakeA/pool. The smoothing step
// pulls it toward one half by α (SmoothBP):
//
//	p' = p*(1-α) + α/2
//
// Multiplying through by pool and by 10000 to land in basis points and
// common-denominating over pool collapses the whole thing into a single
// rounded division:
//
//	oddsA = round( (stakeA*(10000-SmoothBP) + (SmoothBP/2)*pool) / pool )
//
// This is symmetric in A and B — it does not matter which outcome the
// triggering stake landed on, the formula always derives A's odds from the
// updated pools and odds_b is simply the complement. That symmetry is also
// why the tie-break clause needs no special case: when stakeA == stakeB the
// raw probability is exactly one half, smoothing is a no-op, and A keeps
// 5000 by construction.
func OddsAfterStake(stakeA, pool uint64) (oddsA, oddsB uint32, err error) {
	if pool == 0 {
		// An empty market has no post-update odds to compute; callers must
		// not reach here with a zero pool after a stake has been applied.
		return 0, 0, fixedpoint.ErrOverflow
	}

	weightA := domain.FullBP - uint32(domain.SmoothBP) // 9000 bp
	halfSmooth := domain.SmoothBP / 2                  // 500 bp

	weighted, err := fixedpoint.MulU64(stakeA, uint64(weightA))
	if err != nil {
		return 0, 0, err
	}
	smoothTerm, err := fixedpoint.MulU64(halfSmooth, pool)
	if err != nil {
		return 0, 0, err
	}
	numerator, err := fixedpoint.AddU64(weighted, smoothTerm)
	if err != nil {
		return 0, 0, err
	}
	raw, err := fixedpoint.MulDivRound(numerator, 1, pool)
	if err != nil {
		return 0, 0, err
	}

	a := clamp(uint32(raw), domain.ClampLowBP, domain.ClampHighBP)
	return a, domain.FullBP - a, nil
}

func clamp(v, lo, hi uint32) uint32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// PotentialPayout computes the payout a ticket locks in at stake time, using
// the odds standing *before* this stake's own update to the market — the
// staker locks in the price they saw, not the price their own stake moves it
// to. On an empty market both outcomes stand at 5000, so a first stake of b
// always locks in potential_payout = 2b.
func PotentialPayout(amount uint64, oddsAtPurchase uint32) (uint64, error) {
	return fixedpoint.MulDivFloor(amount, uint64(domain.FullBP), uint64(oddsAtPurchase))
}

// ApplyStake folds a new stake into m: it captures the pre-update odds for
// the ticket's outcome, derives the ticket's locked-in potential payout from
// them, and only then mutates m's stake pools, total pool and odds. It does
// not touch m.NextTicketIndex or move any funds — those are the state
// machine's and the escrow custodian's jobs respectively.
func ApplyStake(m *domain.Market, outcome domain.Outcome, amount uint64) (oddsAtPurchase uint32, potentialPayout uint64, err error) {
	oddsAtPurchase = m.OddsFor(outcome)
	potentialPayout, err = PotentialPayout(amount, oddsAtPurchase)
	if err != nil {
		return 0, 0, err
	}

	newStakeA, newStakeB := m.StakeA, m.StakeB
	if outcome == domain.OutcomeA {
		newStakeA, err = fixedpoint.AddU64(m.StakeA, amount)
	} else {
		newStakeB, err = fixedpoint.AddU64(m.StakeB, amount)
	}
	if err != nil {
		return 0, 0, err
	}

	newPool, err := fixedpoint.AddU64(newStakeA, newStakeB)
	if err != nil {
		return 0, 0, err
	}

	oddsA, oddsB, err := OddsAfterStake(newStakeA, newPool)
	if err != nil {
		return 0, 0, err
	}

	m.StakeA, m.StakeB, m.TotalPool = newStakeA, newStakeB, newPool
	m.OddsA, m.OddsB = oddsA, oddsB
	return oddsAtPurchase, potentialPayout, nil
}
