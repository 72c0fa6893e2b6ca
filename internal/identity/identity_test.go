package identity

import (
	"testing"

	"github.com/google/uuid"
)

func TestMarketIDStable(t *testing.T) {
	id1 := MarketID([]byte("e1"))
	id2 := MarketID([]byte("e1"))
	if id1 != id2 {
		t.Errorf("MarketID not stable across calls: %x != %x", id1, id2)
	}
}

func TestMarketIDEscrowIDDistinct(t *testing.T) {
	ext := []byte("e1")
	if MarketID(ext) == EscrowID(ext) {
		t.Errorf("MarketID and EscrowID collided for the same external id")
	}
}

func TestMarketIDDiffersByExternalID(t *testing.T) {
	if MarketID([]byte("e1")) == MarketID([]byte("e2")) {
		t.Errorf("distinct external ids produced the same market id")
	}
}

func TestTicketIDUniquePerIndex(t *testing.T) {
	owner := uuid.New()
	market := MarketID([]byte("e1"))
	t0 := TicketID(market, owner, 0)
	t1 := TicketID(market, owner, 1)
	if t0 == t1 {
		t.Errorf("TicketID did not vary with index")
	}
}

func TestTicketIDUniquePerOwner(t *testing.T) {
	market := MarketID([]byte("e1"))
	a := TicketID(market, uuid.New(), 0)
	b := TicketID(market, uuid.New(), 0)
	if a == b {
		t.Errorf("TicketID collided across distinct owners")
	}
}

func TestIDIsZero(t *testing.T) {
	var zero ID
	if !zero.IsZero() {
		t.Errorf("zero-value ID reported as non-zero")
	}
	if MarketID([]byte("e1")).IsZero() {
		t.Errorf("derived ID incorrectly reported as zero")
	}
}
