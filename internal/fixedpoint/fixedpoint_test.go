package fixedpoint

import (
	"math"
	"testing"
)

func TestAddU64(t *testing.T) {
	sum, err := AddU64(2, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum != 5 {
		t.Errorf("AddU64(2,3) = %d, want 5", sum)
	}

	_, err = AddU64(math.MaxUint64, 1)
	if err != ErrOverflow {
		t.Errorf("AddU64 overflow: got %v, want ErrOverflow", err)
	}
}

func TestSubU64(t *testing.T) {
	diff, err := SubU64(10, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff != 6 {
		t.Errorf("SubU64(10,4) = %d, want 6", diff)
	}

	_, err = SubU64(4, 10)
	if err != ErrOverflow {
		t.Errorf("SubU64 underflow: got %v, want ErrOverflow", err)
	}
}

func TestMulU64(t *testing.T) {
	prod, err := MulU64(1_000_000_000, 10000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prod != 10_000_000_000_000 {
		t.Errorf("MulU64 = %d, want 10_000_000_000_000", prod)
	}

	_, err = MulU64(math.MaxUint64, 2)
	if err != ErrOverflow {
		t.Errorf("MulU64 overflow: got %v, want ErrOverflow", err)
	}
}

func TestMulDivFloor(t *testing.T) {
	// floor(1_000_000_000 * 10000 / 5000) = 2_000_000_000 (S1, first stake)
	got, err := MulDivFloor(1_000_000_000, 10000, 5000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 2_000_000_000 {
		t.Errorf("MulDivFloor = %d, want 2_000_000_000", got)
	}

	// floor(2_000_000_000 * 10000 / 6500) = 3_076_923_076 (S1's post-update
	// odds_B, exercised here as an arbitrary non-round divisor; the ticket
	// itself locks in the pre-update odds, see pricing_test.go)
	got, err = MulDivFloor(2_000_000_000, 10000, 6500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 3_076_923_076 {
		t.Errorf("MulDivFloor = %d, want 3_076_923_076", got)
	}

	_, err = MulDivFloor(10, 10, 0)
	if err != ErrOverflow {
		t.Errorf("MulDivFloor div by zero: got %v, want ErrOverflow", err)
	}
}

func TestMulDivRound(t *testing.T) {
	// (1e9*9000 + 500*1e9) / 1e9 = 9500, exact, rounding is a no-op here
	got, err := MulDivRound(9_000*1_000_000_000+500*1_000_000_000, 1, 1_000_000_000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 9500 {
		t.Errorf("MulDivRound = %d, want 9500", got)
	}

	// round-half-up: 5/2 -> 3, not 2
	got, err = MulDivRound(5, 1, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 3 {
		t.Errorf("MulDivRound(5,1,2) = %d, want 3", got)
	}
}
