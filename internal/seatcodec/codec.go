// Package seatcodec decodes the ledger's packed seat-occupancy bitmaps and
// formats seat numbers as row/column labels.  Seat numbers are 1-based:
// bit b of bitmap k marks seat k*256 + b + 1 as sold.
//
// Label is the only seat-label formula in the module; seatmap rendering
// and ticket display both go through a Layout.
package seatcodec

import (
	"math/big"
	"sort"
	"strconv"
)

// BitsPerBitmap is the width of one on-chain bitmap word.
const BitsPerBitmap = 256

// DefaultSeatsPerRow is the canonical seat grid width.
const DefaultSeatsPerRow = 10

// Taken is the set of sold seat numbers for one showtime.
type Taken map[int]struct{}

// Has reports whether seat is sold.
func (t Taken) Has(seat int) bool {
	_, ok := t[seat]
	return ok
}

// Sorted returns the sold seats in ascending order.
func (t Taken) Sorted() []int {
	out := make([]int, 0, len(t))
	for s := range t {
		out = append(out, s)
	}
	sort.Ints(out)
	return out
}

// Decode maps bitmaps to the set of sold seat numbers.  Nil entries and
// bits above 255 are ignored; a sequence shorter than the showtime needs
// simply leaves the remaining seats available.
func Decode(bitmaps []*big.Int) Taken {
	taken := make(Taken)
	for k, bm := range bitmaps {
		if bm == nil || bm.Sign() <= 0 {
			continue
		}
		limit := bm.BitLen()
		if limit > BitsPerBitmap {
			limit = BitsPerBitmap
		}
		for b := 0; b < limit; b++ {
			if bm.Bit(b) == 1 {
				taken[k*BitsPerBitmap+b+1] = struct{}{}
			}
		}
	}
	return taken
}

// Encode is the inverse of Decode for seats >= 1.  It returns the
// shortest bitmap sequence covering the highest seat.
func Encode(seats []int) []*big.Int {
	var out []*big.Int
	for _, s := range seats {
		if s < 1 {
			continue
		}
		k, b := (s-1)/BitsPerBitmap, (s-1)%BitsPerBitmap
		for len(out) <= k {
			out = append(out, new(big.Int))
		}
		out[k].SetBit(out[k], b, 1)
	}
	return out
}

// Label formats seat as row letter + column, e.g. Label(11, 10) == "B1".
// Rows past 'Z' continue as "AA", "AB"... so the mapping stays a
// bijection for any hall size.  Non-positive input yields "".
func Label(seat, seatsPerRow int) string {
	if seat <= 0 {
		return ""
	}
	if seatsPerRow <= 0 {
		seatsPerRow = DefaultSeatsPerRow
	}
	row := (seat - 1) / seatsPerRow
	col := (seat-1)%seatsPerRow + 1
	return RowLetter(row) + strconv.Itoa(col)
}

// RowLetter maps a 0-based row index to "A".."Z", "AA".."AZ", ...
func RowLetter(row int) string {
	if row < 0 {
		return ""
	}
	var buf []byte
	for n := row; ; n = n/26 - 1 {
		buf = append([]byte{byte('A' + n%26)}, buf...)
		if n < 26 {
			break
		}
	}
	return string(buf)
}
