// Package identity derives the stable, content-addressed record ids the
// settlement engine uses in place of randomly-minted primary keys. A market's
// id is a deterministic function of its external id; a ticket's id is a
// deterministic function of its market, owner and sequence number. Because
// the derivation is pure, two callers deriving the same seed always agree on
// the same id — that agreement is what lets the engine use the id itself as
// the lock point for serializing concurrent instructions (see internal/engine).
package identity

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
)

// ID is a derived, domain-separated record identifier.
type ID [32]byte

// IsZero reports whether id is the zero value (never a valid derived id).
func (id ID) IsZero() bool {
	return id == ID{}
}

func (id ID) String() string {
	const hextable = "0123456789abcdef"
	buf := make([]byte, len(id)*2)
	for i, b := range id {
		buf[i*2] = hextable[b>>4]
		buf[i*2+1] = hextable[b&0x0f]
	}
	return string(buf)
}

// domain separation tags, prepended to the seed material before hashing so
// that "market"‖x and "escrow"‖x never collide even for identical x.
const (
	tagMarket = "market"
	tagEscrow = "escrow"
	tagTicket = "ticket"
)

func hash(parts ...[]byte) ID {
	var total int
	for _, p := range parts {
		total += len(p)
	}
	buf := make([]byte, 0, total)
	for _, p := range parts {
		buf = append(buf, p...)
	}
	return ID(crypto.Keccak256Hash(buf))
}

// MarketID derives a market's id from its external identifier.
func MarketID(externalID []byte) ID {
	return hash([]byte(tagMarket), externalID)
}

// EscrowID derives the id of a market's escrow handle from the same external
// identifier — the market and its escrow are 1:1 but addressed by distinct
// derived ids so record kinds never collide in the key space.
func EscrowID(externalID []byte) ID {
	return hash([]byte(tagEscrow), externalID)
}

// TicketID derives a ticket's id from its parent market, owner and the
// market's ticket index at the time of creation. The index is encoded
// little-endian per the derivation rule, so ticket ids are unique even when
// the same owner stakes into the same market more than once.
func TicketID(marketID ID, owner uuid.UUID, index uint64) ID {
	var idxLE [8]byte
	binary.LittleEndian.PutUint64(idxLE[:], index)
	ownerBytes := owner // uuid.UUID is already a [16]byte
	return hash([]byte(tagTicket), marketID[:], ownerBytes[:], idxLE[:])
}
