package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinecrypto/internal/catalog"
	"github.com/iliyamo/cinecrypto/internal/ledger"
	"github.com/iliyamo/cinecrypto/internal/model"
	"github.com/iliyamo/cinecrypto/internal/reconcile"
	"github.com/iliyamo/cinecrypto/internal/showtime"
)

// Movies serves single-movie views and search.
type Movies struct {
	reader     ledger.Reader
	catalog    catalog.Gateway
	reconciler *reconcile.Reconciler
	showtimes  *showtime.Aggregator
	logger     *logrus.Logger
}

func NewMovies(reader ledger.Reader, cat catalog.Gateway, rec *reconcile.Reconciler, st *showtime.Aggregator, logger *logrus.Logger) *Movies {
	return &Movies{reader: reader, catalog: cat, reconciler: rec, showtimes: st, logger: logger}
}

// ByLedgerID returns the detailed view of ledger movie id with its
// upcoming showtimes when bookable.
func (s *Movies) ByLedgerID(ctx context.Context, id uint64) (model.Movie, error) {
	m, err := s.reader.MovieByID(ctx, id)
	if err != nil {
		return model.Movie{}, err
	}
	if m.ID == 0 {
		return model.Movie{}, ErrMovieNotFound
	}
	mv := s.reconciler.FromChainDetailed(ctx, m)
	if mv.IsBookable {
		groups, err := s.showtimes.ListUpcomingShowtimesForMovie(ctx, m.ID)
		if err != nil {
			return model.Movie{}, err
		}
		mv.GroupedShowtimes = groups
	}
	return mv, nil
}

// ByCatalogID returns the detailed catalog view, bookable when an active
// ledger movie has the same title.  A ledger outage degrades to a
// catalog-only view.
func (s *Movies) ByCatalogID(ctx context.Context, catalogID int64) (model.Movie, error) {
	c, ok := s.catalog.FetchByID(ctx, catalogID)
	if !ok {
		return model.Movie{}, ErrMovieNotFound
	}
	log := s.logger.WithField("catalog_id", catalogID)
	mv, err := s.reconciler.FindOnChain(ctx, c)
	if err != nil {
		log.WithError(err).Warn("service: ledger unavailable, serving catalog-only movie")
		return s.reconciler.FromCatalog(nil, c), nil
	}
	if mv.IsBookable {
		groups, err := s.showtimes.ListUpcomingShowtimesForMovie(ctx, mv.LocalID)
		if err != nil {
			log.WithError(err).Warn("service: showtimes unavailable")
		}
		mv.GroupedShowtimes = groups
	}
	return mv, nil
}

// Showtimes returns the grouped upcoming showtimes of a ledger movie.
func (s *Movies) Showtimes(ctx context.Context, id uint64) ([]model.ShowtimeGroup, error) {
	m, err := s.reader.MovieByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.ID == 0 {
		return nil, ErrMovieNotFound
	}
	return s.showtimes.ListUpcomingShowtimesForMovie(ctx, id)
}

// Search returns every catalog hit for query reconciled against the
// ledger.  Without the ledger every hit is catalog-only.
func (s *Movies) Search(ctx context.Context, query string) []model.Movie {
	hits := s.catalog.Search(ctx, query)
	if len(hits) == 0 {
		return []model.Movie{}
	}
	idx, err := s.reconciler.BuildIndex(ctx)
	if err != nil {
		s.logger.WithError(err).WithField("title", query).Warn("service: search without ledger")
	}
	return s.reconciler.FromCatalogAll(idx, hits)
}
