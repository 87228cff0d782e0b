package seatcodec

import (
	"math/big"
	"testing"
)

func TestDecodeBasic(t *testing.T) {
	taken := Decode([]*big.Int{big.NewInt(0b101)})
	if !taken.Has(1) || !taken.Has(3) {
		t.Errorf("expected seats 1 and 3 taken, got %v", taken.Sorted())
	}
	if taken.Has(2) {
		t.Error("seat 2 must be available")
	}
	if len(taken) != 2 {
		t.Errorf("expected 2 taken seats, got %d", len(taken))
	}
}

func TestDecodeSecondBitmap(t *testing.T) {
	high := new(big.Int).SetBit(new(big.Int), 255, 1)
	second := big.NewInt(1)
	taken := Decode([]*big.Int{high, second})
	got := taken.Sorted()
	if len(got) != 2 || got[0] != 256 || got[1] != 257 {
		t.Errorf("got %v, want [256 257]", got)
	}
}

func TestDecodeTolerantInput(t *testing.T) {
	if len(Decode(nil)) != 0 {
		t.Error("nil bitmaps must decode to no seats")
	}
	if len(Decode([]*big.Int{nil, big.NewInt(0)})) != 0 {
		t.Error("nil/zero entries must decode to no seats")
	}
	// Bits beyond the 256-bit word are not seat data.
	over := new(big.Int).SetBit(new(big.Int), 300, 1)
	if len(Decode([]*big.Int{over})) != 0 {
		t.Error("bits above 255 must be ignored")
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	seats := []int{1, 2, 256, 257, 600}
	taken := Decode(Encode(seats))
	got := taken.Sorted()
	if len(got) != len(seats) {
		t.Fatalf("got %v, want %v", got, seats)
	}
	for i := range seats {
		if got[i] != seats[i] {
			t.Fatalf("got %v, want %v", got, seats)
		}
	}
}

func TestLabel(t *testing.T) {
	cases := []struct {
		seat, per int
		want      string
	}{
		{1, 10, "A1"},
		{10, 10, "A10"},
		{11, 10, "B1"},
		{20, 20, "A20"},
		{21, 20, "B1"},
		{261, 10, "AA1"},
		{0, 10, ""},
	}
	for _, tc := range cases {
		if got := Label(tc.seat, tc.per); got != tc.want {
			t.Errorf("Label(%d, %d) = %q, want %q", tc.seat, tc.per, got, tc.want)
		}
	}
}

func TestLabelBijection(t *testing.T) {
	const total = 1000
	seen := make(map[string]int, total)
	for seat := 1; seat <= total; seat++ {
		l := Label(seat, 10)
		if prev, dup := seen[l]; dup {
			t.Fatalf("label %q used by seats %d and %d", l, prev, seat)
		}
		seen[l] = seat
	}
}

func TestGrid(t *testing.T) {
	layout := NewLayout(10)
	rows := layout.Grid(25, Decode([]*big.Int{big.NewInt(1 << 10)}))
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[2].Label != "C" || len(rows[2].Seats) != 5 {
		t.Errorf("last row = %s with %d seats", rows[2].Label, len(rows[2].Seats))
	}
	if cell := rows[1].Seats[0]; cell.Number != 11 || cell.Label != "B1" || !cell.Taken {
		t.Errorf("seat 11 cell = %+v", cell)
	}
}
