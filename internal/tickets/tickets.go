// Package tickets builds the "my tickets" view of a wallet from the
// ledger and overlays local pending-scan marks on it.
package tickets

import (
	"context"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinecrypto/internal/clock"
	"github.com/iliyamo/cinecrypto/internal/display"
	"github.com/iliyamo/cinecrypto/internal/ledger"
	"github.com/iliyamo/cinecrypto/internal/model"
	"github.com/iliyamo/cinecrypto/internal/reconcile"
	"github.com/iliyamo/cinecrypto/internal/seatcodec"
)

// Service reads ticket ownership.
type Service struct {
	reader      ledger.Reader
	reconciler  *reconcile.Reconciler
	layout      seatcodec.Layout
	format      display.Formatter
	clock       clock.Clock
	concurrency int
	board       *Board
	logger      *logrus.Logger
}

func NewService(reader ledger.Reader, rec *reconcile.Reconciler, layout seatcodec.Layout, format display.Formatter, clk clock.Clock, concurrency int, board *Board, logger *logrus.Logger) *Service {
	return &Service{
		reader:      reader,
		reconciler:  rec,
		layout:      layout,
		format:      format,
		clock:       clk,
		concurrency: concurrency,
		board:       board,
		logger:      logger,
	}
}

// ListForOwner fetches owner's tickets, newest id first.  Tickets whose
// records cannot be read are dropped; failing to read the id list is an
// error.  The result replaces the board's list and clears marks.
func (s *Service) ListForOwner(ctx context.Context, owner common.Address) ([]model.TicketView, error) {
	ids, err := s.reader.TicketIDsByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	lk := &lookups{reader: s.reader, rec: s.reconciler, showtimes: map[uint64]model.Showtime{}, movies: map[uint64]model.Movie{}}
	now := s.clock.Now().Unix()

	views := ledger.FetchAll(ctx, ids, s.concurrency, s.logger, "ticket", func(ctx context.Context, id uint64) (model.TicketView, error) {
		t, err := s.reader.TicketByID(ctx, id)
		if err != nil {
			return model.TicketView{}, err
		}
		st, err := lk.showtime(ctx, t.ShowtimeID)
		if err != nil {
			return model.TicketView{}, err
		}
		mv, err := lk.movie(ctx, st.MovieID)
		if err != nil {
			return model.TicketView{}, err
		}
		return s.view(t, st, mv, now), nil
	})

	sort.Slice(views, func(i, j int) bool { return views[i].TicketID > views[j].TicketID })
	s.board.Replace(owner, views)
	return views, nil
}

// MarkPendingScan flags a ticket as being scanned and returns its QR
// payload with the overlaid list.  The list is fetched first when none is
// held for owner.
func (s *Service) MarkPendingScan(ctx context.Context, owner common.Address, ticketID uint64) (model.QRPayload, []model.TicketView, error) {
	if !s.board.Has(owner) {
		if _, err := s.ListForOwner(ctx, owner); err != nil {
			return model.QRPayload{}, nil, err
		}
	}
	qr, err := s.board.Mark(owner, ticketID)
	if err != nil {
		return model.QRPayload{}, nil, err
	}
	return qr, s.board.View(owner), nil
}

func (s *Service) view(t model.Ticket, st model.Showtime, mv model.Movie, now int64) model.TicketView {
	start := st.Start()
	v := model.TicketView{
		TicketID:    t.ID,
		ShowtimeID:  t.ShowtimeID,
		SeatID:      t.SeatID,
		Seat:        s.layout.Label(int(t.SeatID)),
		Owner:       t.Owner.Hex(),
		MovieTitle:  mv.Title,
		PosterURL:   mv.PosterURL,
		Date:        s.format.LongDate(start),
		Time:        s.format.Clock(start),
		IsUpcoming:  st.StartTime > now,
		ChainStatus: t.Status.String(),
	}
	switch {
	case t.Status == model.TicketUsed:
		v.Status = model.DisplayUsed
	case t.Status == model.TicketRefunded:
		v.Status = model.DisplayRefunded
	case !v.IsUpcoming:
		v.Status = model.DisplayExpired
	default:
		v.Status = model.DisplayActive
	}
	return v
}

// lookups memoizes showtime and movie reads within one listing; several
// tickets usually share a showtime.
type lookups struct {
	reader ledger.Reader
	rec    *reconcile.Reconciler

	mu        sync.Mutex
	showtimes map[uint64]model.Showtime
	movies    map[uint64]model.Movie
}

func (l *lookups) showtime(ctx context.Context, id uint64) (model.Showtime, error) {
	l.mu.Lock()
	st, ok := l.showtimes[id]
	l.mu.Unlock()
	if ok {
		return st, nil
	}
	st, err := l.reader.ShowtimeByID(ctx, id)
	if err != nil {
		return model.Showtime{}, err
	}
	l.mu.Lock()
	l.showtimes[id] = st
	l.mu.Unlock()
	return st, nil
}

func (l *lookups) movie(ctx context.Context, id uint64) (model.Movie, error) {
	l.mu.Lock()
	mv, ok := l.movies[id]
	l.mu.Unlock()
	if ok {
		return mv, nil
	}
	m, err := l.reader.MovieByID(ctx, id)
	if err != nil {
		return model.Movie{}, err
	}
	mv = l.rec.FromChain(ctx, m)
	l.mu.Lock()
	l.movies[id] = mv
	l.mu.Unlock()
	return mv, nil
}
