package escrow

import (
	"errors"
	"testing"

	"github.com/evetabi/settlement/internal/domain"
)

func TestCredit(t *testing.T) {
	e := &domain.Escrow{Balance: 100}
	if err := Credit(e, 50); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Balance != 150 {
		t.Errorf("Balance = %d, want 150", e.Balance)
	}
}

func TestDebitTo(t *testing.T) {
	e := &domain.Escrow{Balance: 100}
	if err := DebitTo(e, 40); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Balance != 60 {
		t.Errorf("Balance = %d, want 60", e.Balance)
	}
}

func TestDebitToInsufficientBalanceFailsAtomically(t *testing.T) {
	e := &domain.Escrow{Balance: 10}
	err := DebitTo(e, 20)
	if !errors.Is(err, domain.ErrMathOverflow) {
		t.Fatalf("expected ErrMathOverflow, got %v", err)
	}
	if e.Balance != 10 {
		t.Errorf("Balance mutated on failed debit: got %d, want unchanged 10", e.Balance)
	}
}

func TestSplitDebitTo(t *testing.T) {
	// Scenario S1: gross=2_000_000_000, fee=40_000_000, net=1_960_000_000
	e := &domain.Escrow{Balance: 3_000_000_000}
	if err := SplitDebitTo(e, 1_960_000_000, 40_000_000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Balance != 1_000_000_000 {
		t.Errorf("Balance = %d, want 1_000_000_000", e.Balance)
	}
}

func TestSplitDebitToInsufficientBalanceFailsAtomically(t *testing.T) {
	e := &domain.Escrow{Balance: 100}
	err := SplitDebitTo(e, 80, 30)
	if !errors.Is(err, domain.ErrMathOverflow) {
		t.Fatalf("expected ErrMathOverflow, got %v", err)
	}
	if e.Balance != 100 {
		t.Errorf("Balance mutated on failed split debit: got %d, want unchanged 100", e.Balance)
	}
}
