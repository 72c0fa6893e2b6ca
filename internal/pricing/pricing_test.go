package pricing

import (
	"testing"

	"github.com/evetabi/settlement/internal/domain"
)

func freshMarket() *domain.Market {
	return &domain.Market{
		OddsA: domain.HalfBP,
		OddsB: domain.HalfBP,
	}
}

func TestApplyStakeFirstStake(t *testing.T) {
	m := freshMarket()
	oddsAtPurchase, payout, err := ApplyStake(m, domain.OutcomeA, 1_000_000_000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if oddsAtPurchase != domain.HalfBP {
		t.Errorf("oddsAtPurchase = %d, want 5000", oddsAtPurchase)
	}
	if payout != 2_000_000_000 {
		t.Errorf("payout = %d, want 2_000_000_000", payout)
	}
	if m.OddsA != 9500 || m.OddsB != 500 {
		t.Errorf("post-stake odds = (%d,%d), want (9500,500)", m.OddsA, m.OddsB)
	}
}

func TestApplyStakeSecondStake(t *testing.T) {
	// Reproduces scenario S1 exactly: first stake 1e9 on A, second 2e9 on B.
	m := freshMarket()
	if _, _, err := ApplyStake(m, domain.OutcomeA, 1_000_000_000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	oddsAtPurchase, payout, err := ApplyStake(m, domain.OutcomeB, 2_000_000_000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if oddsAtPurchase != 500 {
		t.Errorf("oddsAtPurchase = %d, want 500 (pre-update odds_b)", oddsAtPurchase)
	}
	if payout != 40_000_000_000 {
		t.Errorf("payout = %d, want 40_000_000_000", payout)
	}
	if m.OddsA != 3500 || m.OddsB != 6500 {
		t.Errorf("post-stake odds = (%d,%d), want (3500,6500)", m.OddsA, m.OddsB)
	}
	if m.TotalPool != m.StakeA+m.StakeB {
		t.Errorf("total pool invariant violated: %d != %d+%d", m.TotalPool, m.StakeA, m.StakeB)
	}
}

func TestApplyStakeOddsSumToFullBP(t *testing.T) {
	m := freshMarket()
	amounts := []struct {
		outcome domain.Outcome
		amount  uint64
	}{
		{domain.OutcomeA, 10_000_000},
		{domain.OutcomeB, 250_000_000},
		{domain.OutcomeA, 99_000_000},
		{domain.OutcomeB, 1_000_000_000},
	}
	for _, a := range amounts {
		if _, _, err := ApplyStake(m, a.outcome, a.amount); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if m.OddsA+m.OddsB != domain.FullBP {
			t.Fatalf("odds_a+odds_b = %d, want %d", m.OddsA+m.OddsB, domain.FullBP)
		}
		if m.OddsA < domain.ClampLowBP || m.OddsA > domain.ClampHighBP {
			t.Fatalf("odds_a = %d outside clamp bounds [%d,%d]", m.OddsA, domain.ClampLowBP, domain.ClampHighBP)
		}
	}
}

func TestApplyStakeTieBreak(t *testing.T) {
	m := freshMarket()
	if _, _, err := ApplyStake(m, domain.OutcomeA, 1_000_000_000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, _, err := ApplyStake(m, domain.OutcomeB, 1_000_000_000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.OddsA != domain.HalfBP || m.OddsB != domain.HalfBP {
		t.Errorf("tie-break odds = (%d,%d), want (5000,5000) with A retaining 5000", m.OddsA, m.OddsB)
	}
}

func TestPotentialPayoutFloors(t *testing.T) {
	// floor(2_000_000_000 * 10000 / 6500) = 3_076_923_076.923... -> floors down
	got, err := PotentialPayout(2_000_000_000, 6500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 3_076_923_076 {
		t.Errorf("PotentialPayout = %d, want 3_076_923_076", got)
	}
}
