package display

import (
	"testing"
	"time"
)

var wib = time.FixedZone("WIB", 7*3600)

func TestDateKeyUsesDisplayZone(t *testing.T) {
	f := NewFormatter(wib)
	// 20:00 UTC on the 13th is 03:00 on the 14th in WIB.
	ts := time.Date(2026, 10, 13, 20, 0, 0, 0, time.UTC)
	if got := f.DateKey(ts); got != "2026-10-14" {
		t.Errorf("DateKey = %q, want 2026-10-14", got)
	}
}

func TestLabels(t *testing.T) {
	f := NewFormatter(wib)
	ts := time.Date(2026, 10, 14, 19, 30, 0, 0, wib)
	if got := f.LongDate(ts); got != "Rabu, 14 Oktober" {
		t.Errorf("LongDate = %q", got)
	}
	if got := f.Clock(ts); got != "19.30" {
		t.Errorf("Clock = %q", got)
	}
	if got := f.FullDate(ts); got != "14 Oktober 2026" {
		t.Errorf("FullDate = %q", got)
	}
	if got := f.ReleaseDate("2026-01-05"); got != "5 Januari 2026" {
		t.Errorf("ReleaseDate = %q", got)
	}
	if got := f.ReleaseDate("soon"); got != "soon" {
		t.Errorf("ReleaseDate passthrough = %q", got)
	}
}
