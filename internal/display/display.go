// Package display renders showtime and ticket timestamps in the single
// fixed display locale (Indonesian) and timezone used across every view.
package display

import (
	"fmt"
	"time"
)

var weekdays = [...]string{"Minggu", "Senin", "Selasa", "Rabu", "Kamis", "Jumat", "Sabtu"}

var months = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// DateKeyLayout is the calendar-date key used to group showtimes.
const DateKeyLayout = "2006-01-02"

// Formatter formats instants in a fixed location.
type Formatter struct {
	loc *time.Location
}

// NewFormatter returns a Formatter for loc.  A nil loc means UTC.
func NewFormatter(loc *time.Location) Formatter {
	if loc == nil {
		loc = time.UTC
	}
	return Formatter{loc: loc}
}

// Location is the zone every label is rendered in.
func (f Formatter) Location() *time.Location {
	if f.loc == nil {
		return time.UTC
	}
	return f.loc
}

// In converts t to the display location.
func (f Formatter) In(t time.Time) time.Time { return t.In(f.Location()) }

// DateKey returns the calendar date of t in the display location, e.g.
// "2026-10-14".  Keys sort lexically in date order.
func (f Formatter) DateKey(t time.Time) string { return f.In(t).Format(DateKeyLayout) }

// LongDate renders "Rabu, 14 Oktober".
func (f Formatter) LongDate(t time.Time) string {
	lt := f.In(t)
	return fmt.Sprintf("%s, %d %s", weekdays[lt.Weekday()], lt.Day(), months[lt.Month()-1])
}

// FullDate renders "14 Oktober 2026".
func (f Formatter) FullDate(t time.Time) string {
	lt := f.In(t)
	return fmt.Sprintf("%d %s %d", lt.Day(), months[lt.Month()-1], lt.Year())
}

// Clock renders the two-digit hour and minute with the locale's dot
// separator, e.g. "19.30".
func (f Formatter) Clock(t time.Time) string { return f.In(t).Format("15.04") }

// ReleaseDate formats a catalog release date ("2026-10-14") as FullDate.
// Unparseable input is returned unchanged.
func (f Formatter) ReleaseDate(s string) string {
	t, err := time.ParseInLocation(DateKeyLayout, s, f.Location())
	if err != nil {
		return s
	}
	return f.FullDate(t)
}
