package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinecrypto/internal/display"
	"github.com/iliyamo/cinecrypto/internal/ledger"
	"github.com/iliyamo/cinecrypto/internal/model"
	"github.com/iliyamo/cinecrypto/internal/seatcodec"
	"github.com/iliyamo/cinecrypto/internal/units"
)

// Seatmaps builds the seat-selection view of a showtime.
type Seatmaps struct {
	reader ledger.Reader
	layout seatcodec.Layout
	format display.Formatter
	logger *logrus.Logger
}

func NewSeatmaps(reader ledger.Reader, layout seatcodec.Layout, format display.Formatter, logger *logrus.Logger) *Seatmaps {
	return &Seatmaps{reader: reader, layout: layout, format: format, logger: logger}
}

// Get reads the showtime and its seat bitmap.  The movie title is
// best effort.
func (s *Seatmaps) Get(ctx context.Context, showtimeID uint64) (model.Seatmap, error) {
	st, err := s.reader.ShowtimeByID(ctx, showtimeID)
	if err != nil {
		return model.Seatmap{}, err
	}
	if st.IsEmpty() {
		return model.Seatmap{}, ErrShowtimeNotFound
	}
	words, err := s.reader.SeatBitmap(ctx, showtimeID)
	if err != nil {
		return model.Seatmap{}, err
	}

	var title string
	if m, err := s.reader.MovieByID(ctx, st.MovieID); err != nil {
		s.logger.WithError(err).WithField("id", st.MovieID).Warn("service: seatmap without movie title")
	} else {
		title = m.Title
	}

	taken := seatcodec.Decode(words)
	total := int(st.TotalSeats)
	// bits past the hall size are ignored
	sold := make([]int, 0, len(taken))
	for _, seat := range taken.Sorted() {
		if seat <= total {
			sold = append(sold, seat)
		}
	}

	start := st.Start()
	return model.Seatmap{
		ShowtimeID:     st.ID,
		MovieID:        st.MovieID,
		MovieTitle:     title,
		TotalSeats:     total,
		TicketPrice:    units.FormatEther(st.TicketPriceWei),
		TicketPriceWei: st.TicketPriceWei.String(),
		TakenSeats:     sold,
		ShowtimeDate:   s.format.LongDate(start),
		ShowtimeTime:   s.format.Clock(start),
		StartTime:      s.format.In(start),
		Rows:           toRows(s.layout.Grid(total, taken)),
	}, nil
}

func toRows(grid []seatcodec.Row) []model.SeatRow {
	rows := make([]model.SeatRow, 0, len(grid))
	for _, r := range grid {
		row := model.SeatRow{Label: r.Label, Seats: make([]model.SeatCell, 0, len(r.Seats))}
		for _, c := range r.Seats {
			row.Seats = append(row.Seats, model.SeatCell{Number: c.Number, Label: c.Label, Taken: c.Taken})
		}
		rows = append(rows, row)
	}
	return rows
}
