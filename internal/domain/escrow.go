package domain

import "github.com/evetabi/settlement/internal/identity"

// Escrow is the logical value balance custodied 1:1 with a market. It is
// never read or written directly by instruction logic — only through the
// credit/debit_to/split_debit_to primitives in internal/escrow.
type Escrow struct {
	ID       identity.ID `json:"id"`
	MarketID identity.ID `json:"market_id"`
	Balance  uint64      `json:"balance"`
}
