// Package showtime lists future showtimes grouped by calendar date.
package showtime

import (
	"context"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinecrypto/internal/clock"
	"github.com/iliyamo/cinecrypto/internal/display"
	"github.com/iliyamo/cinecrypto/internal/ledger"
	"github.com/iliyamo/cinecrypto/internal/model"
	"github.com/iliyamo/cinecrypto/internal/units"
)

// Aggregator reads showtimes from the ledger and groups them for display.
type Aggregator struct {
	reader      ledger.Reader
	clock       clock.Clock
	format      display.Formatter
	concurrency int
	logger      *logrus.Logger
}

// New builds an Aggregator.
func New(reader ledger.Reader, clk clock.Clock, format display.Formatter, concurrency int, logger *logrus.Logger) *Aggregator {
	return &Aggregator{reader: reader, clock: clk, format: format, concurrency: concurrency, logger: logger}
}

// ListUpcomingShowtimesForMovie returns the future showtimes of movieID
// grouped by date.  It scans every showtime id.
func (a *Aggregator) ListUpcomingShowtimesForMovie(ctx context.Context, movieID uint64) ([]model.ShowtimeGroup, error) {
	all, err := ledger.ScanShowtimes(ctx, a.reader, a.concurrency, a.logger)
	if err != nil {
		return nil, err
	}
	var mine []model.Showtime
	for _, s := range all {
		if s.MovieID == movieID {
			mine = append(mine, s)
		}
	}
	return Group(mine, a.clock.Now().Unix(), a.format), nil
}

// ListUpcomingByMovie scans once and groups the future showtimes of every
// movie.  Movies without future showtimes are absent from the map.
func (a *Aggregator) ListUpcomingByMovie(ctx context.Context) (map[uint64][]model.ShowtimeGroup, error) {
	all, err := ledger.ScanShowtimes(ctx, a.reader, a.concurrency, a.logger)
	if err != nil {
		return nil, err
	}
	byMovie := make(map[uint64][]model.Showtime)
	for _, s := range all {
		byMovie[s.MovieID] = append(byMovie[s.MovieID], s)
	}
	now := a.clock.Now().Unix()
	out := make(map[uint64][]model.ShowtimeGroup, len(byMovie))
	for id, ss := range byMovie {
		if groups := Group(ss, now, a.format); len(groups) > 0 {
			out[id] = groups
		}
	}
	return out, nil
}

// Group keeps showtimes starting strictly after now (unix seconds), sorts
// them by start time and buckets them by date in the formatter's zone.
// Groups are ordered by date and each group's times by start.
func Group(showtimes []model.Showtime, now int64, f display.Formatter) []model.ShowtimeGroup {
	future := make([]model.Showtime, 0, len(showtimes))
	for _, s := range showtimes {
		if !s.IsEmpty() && s.StartTime > now {
			future = append(future, s)
		}
	}
	sort.SliceStable(future, func(i, j int) bool {
		if future[i].StartTime != future[j].StartTime {
			return future[i].StartTime < future[j].StartTime
		}
		return future[i].ID < future[j].ID
	})

	var groups []model.ShowtimeGroup
	for _, s := range future {
		start := s.Start()
		key := f.DateKey(start)
		if len(groups) == 0 || groups[len(groups)-1].Date != key {
			groups = append(groups, model.ShowtimeGroup{Date: key, FormattedDate: f.LongDate(start)})
		}
		g := &groups[len(groups)-1]
		g.Times = append(g.Times, model.ShowtimeSlot{
			ID:         s.ID,
			StartTime:  f.In(start),
			TimeString: f.Clock(start),
			Price:      units.FormatEther(s.TicketPriceWei),
			PriceWei:   weiString(s),
		})
	}
	return groups
}

func weiString(s model.Showtime) string {
	if s.TicketPriceWei == nil {
		return "0"
	}
	return s.TicketPriceWei.String()
}
