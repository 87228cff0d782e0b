package service

import (
	"context"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/cinecrypto/internal/catalog"
	"github.com/iliyamo/cinecrypto/internal/ledger"
	"github.com/iliyamo/cinecrypto/internal/model"
	"github.com/iliyamo/cinecrypto/internal/readmodel"
	"github.com/iliyamo/cinecrypto/internal/reconcile"
	"github.com/iliyamo/cinecrypto/internal/showtime"
)

// HomeBuilder computes the home aggregate.  It is the readmodel.Builder
// behind the cache.
type HomeBuilder struct {
	reader      ledger.Reader
	catalog     catalog.Gateway
	reconciler  *reconcile.Reconciler
	showtimes   *showtime.Aggregator
	concurrency int
	logger      *logrus.Logger
}

var _ readmodel.Builder = (*HomeBuilder)(nil)

func NewHomeBuilder(reader ledger.Reader, cat catalog.Gateway, rec *reconcile.Reconciler, st *showtime.Aggregator, concurrency int, logger *logrus.Logger) *HomeBuilder {
	return &HomeBuilder{reader: reader, catalog: cat, reconciler: rec, showtimes: st, concurrency: concurrency, logger: logger}
}

// Build reads the ledger once for movies and once for showtimes, and the
// catalog lists in parallel.  A ledger failure fails the build so the
// previous snapshot survives; catalog failures only empty their list.
func (b *HomeBuilder) Build(ctx context.Context) (model.Aggregate, error) {
	var (
		chain    []model.OnChainMovie
		byMovie  map[uint64][]model.ShowtimeGroup
		popular  []model.CatalogMovie
		upcoming []model.CatalogMovie
		genres   []model.Genre
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		chain, err = ledger.ScanMovies(gctx, b.reader, b.concurrency, b.logger)
		return err
	})
	g.Go(func() error {
		var err error
		byMovie, err = b.showtimes.ListUpcomingByMovie(gctx)
		return err
	})
	g.Go(func() error { popular = b.catalog.ListPopular(gctx); return nil })
	g.Go(func() error { upcoming = b.catalog.ListUpcoming(gctx); return nil })
	g.Go(func() error { genres = b.catalog.ListGenres(gctx); return nil })
	if err := g.Wait(); err != nil {
		return model.Aggregate{}, err
	}

	active := make([]model.OnChainMovie, 0, len(chain))
	for _, m := range chain {
		if m.IsActive {
			active = append(active, m)
		}
	}
	idx := reconcile.NewIndex(active)

	agg := model.Aggregate{
		BookableMovies: b.reconciler.FromChainAll(ctx, active),
		PopularMovies:  b.reconciler.FromCatalogAll(idx, popular),
		UpcomingMovies: b.reconciler.FromCatalogAll(idx, upcoming),
		Genres:         append([]model.Genre{model.AllGenre}, genres...),
	}
	for _, list := range [][]model.Movie{agg.BookableMovies, agg.PopularMovies, agg.UpcomingMovies} {
		attachShowtimes(list, byMovie)
	}

	b.logger.WithFields(logrus.Fields{
		"bookable": len(agg.BookableMovies),
		"popular":  len(agg.PopularMovies),
		"upcoming": len(agg.UpcomingMovies),
	}).Info("service: home aggregate built")
	return agg, nil
}

func attachShowtimes(movies []model.Movie, byMovie map[uint64][]model.ShowtimeGroup) {
	for i := range movies {
		if movies[i].IsBookable {
			movies[i].GroupedShowtimes = byMovie[movies[i].LocalID]
		}
	}
}
