// Package escrow implements the three value-preserving primitives through
// which base units move in and out of a market's escrow: Credit, DebitTo and
// SplitDebitTo. These are the only paths that touch escrow.Balance; callers
// never add or subtract from it directly. Every primitive fails atomically
// on insufficient balance and never touches stake or odds — repricing is the
// pricing package's job, not this one's.
package escrow

import (
	"fmt"

	"github.com/evetabi/settlement/internal/domain"
	"github.com/evetabi/settlement/internal/fixedpoint"
)

// Credit increases e's balance by amount — the only path funds enter an
// escrow, invoked by stake.
func Credit(e *domain.Escrow, amount uint64) error {
	balance, err := fixedpoint.AddU64(e.Balance, amount)
	if err != nil {
		return fmt.Errorf("escrow.Credit: %w", domain.ErrMathOverflow)
	}
	e.Balance = balance
	return nil
}

// DebitTo decreases e's balance by amount, logically transferring it to the
// recipient. The recipient is out-of-scope bookkeeping (external wallet
// system or ledger); this primitive's job ends at removing the value from
// escrow custody. Fails atomically — e is left unmodified — when amount
// exceeds e.Balance.
func DebitTo(e *domain.Escrow, amount uint64) error {
	balance, err := fixedpoint.SubU64(e.Balance, amount)
	if err != nil {
		return fmt.Errorf("escrow.DebitTo: %w", domain.ErrMathOverflow)
	}
	e.Balance = balance
	return nil
}

// SplitDebitTo decreases e's balance by recipientAmount+treasuryAmount in one
// atomic step, logically transferring the two amounts to a recipient and the
// platform treasury respectively. Used by claim_payout to split gross payout
// into the staker's net amount and the platform fee within a single
// value-preserving transfer. Fails atomically — e is left unmodified — if
// the combined amount would overflow or exceed e.Balance.
func SplitDebitTo(e *domain.Escrow, recipientAmount, treasuryAmount uint64) error {
	total, err := fixedpoint.AddU64(recipientAmount, treasuryAmount)
	if err != nil {
		return fmt.Errorf("escrow.SplitDebitTo: %w", domain.ErrMathOverflow)
	}
	balance, err := fixedpoint.SubU64(e.Balance, total)
	if err != nil {
		return fmt.Errorf("escrow.SplitDebitTo: %w", domain.ErrMathOverflow)
	}
	e.Balance = balance
	return nil
}
