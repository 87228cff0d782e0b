// Package reconcile joins ledger movie records with catalog records.
//
// The ledger knows only (id, title, isActive); the catalog knows rich
// metadata under its own ids.  The two are joined by title:
//
//   - ledger -> catalog: first search hit for the ledger title.
//   - catalog -> ledger: case-insensitive exact title match against the
//     active ledger movies.
//
// A movie is bookable only when an active ledger record backs it.  No
// fuzzy matching is attempted; similar titles are a known source of
// mismatches.
package reconcile

import (
	"context"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"

	"github.com/iliyamo/cinecrypto/internal/catalog"
	"github.com/iliyamo/cinecrypto/internal/display"
	"github.com/iliyamo/cinecrypto/internal/ledger"
	"github.com/iliyamo/cinecrypto/internal/model"
)

// Reconciler resolves identities between the two sources.  Title lookups
// that found a catalog record are memoized for the Reconciler's lifetime.
type Reconciler struct {
	reader      ledger.Reader
	catalog     catalog.Gateway
	format      display.Formatter
	concurrency int
	logger      *logrus.Logger

	mu   sync.RWMutex
	memo map[string]int64 // folded ledger title -> catalog id
}

// New builds a Reconciler.  concurrency bounds parallel lookups in batch
// operations and ledger scans.
func New(reader ledger.Reader, cat catalog.Gateway, format display.Formatter, concurrency int, logger *logrus.Logger) *Reconciler {
	return &Reconciler{
		reader:      reader,
		catalog:     cat,
		format:      format,
		concurrency: concurrency,
		logger:      logger,
		memo:        make(map[string]int64),
	}
}

// Fold normalizes a title for comparison.
func Fold(title string) string {
	return cases.Fold().String(strings.TrimSpace(title))
}

// Index maps folded titles to active ledger movies.
type Index map[string]model.OnChainMovie

// NewIndex indexes the active movies.  When two active movies share a
// title the lowest id wins.
func NewIndex(movies []model.OnChainMovie) Index {
	idx := make(Index, len(movies))
	for _, m := range movies {
		if !m.IsActive || m.ID == 0 {
			continue
		}
		key := Fold(m.Title)
		if prev, ok := idx[key]; ok && prev.ID < m.ID {
			continue
		}
		idx[key] = m
	}
	return idx
}

// Lookup returns the ledger movie titled title.
func (idx Index) Lookup(title string) (model.OnChainMovie, bool) {
	m, ok := idx[Fold(title)]
	return m, ok
}

// BuildIndex scans the ledger once and indexes its active movies.
func (r *Reconciler) BuildIndex(ctx context.Context) (Index, error) {
	movies, err := ledger.ScanMovies(ctx, r.reader, r.concurrency, r.logger)
	if err != nil {
		return nil, err
	}
	return NewIndex(movies), nil
}

// FromChain merges a ledger movie with its first catalog search hit.  A
// movie without a match keeps its ledger fields only.
func (r *Reconciler) FromChain(ctx context.Context, m model.OnChainMovie) model.Movie {
	if c, ok := r.catalogFor(ctx, m.Title); ok {
		return r.merge(&m, &c)
	}
	r.logger.WithFields(logrus.Fields{"id": m.ID, "title": m.Title}).Info("reconcile: no catalog match")
	return r.merge(&m, nil)
}

// FromChainDetailed is FromChain followed by a detail fetch so the result
// carries runtime, genres, cast and the trailer key.
func (r *Reconciler) FromChainDetailed(ctx context.Context, m model.OnChainMovie) model.Movie {
	hit, ok := r.catalogFor(ctx, m.Title)
	if !ok {
		return r.merge(&m, nil)
	}
	if full, ok := r.catalog.FetchByID(ctx, hit.CatalogID); ok {
		hit = full
	}
	return r.merge(&m, &hit)
}

// FromChainAll runs FromChain over movies concurrently, keeping order.
func (r *Reconciler) FromChainAll(ctx context.Context, movies []model.OnChainMovie) []model.Movie {
	out := make([]model.Movie, len(movies))
	var g errgroup.Group
	if r.concurrency > 0 {
		g.SetLimit(r.concurrency)
	}
	for i, m := range movies {
		g.Go(func() error {
			out[i] = r.FromChain(ctx, m)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// FromCatalog merges a catalog movie with the ledger record of the same
// title in idx.  Without one the movie is catalog-only and not bookable.
func (r *Reconciler) FromCatalog(idx Index, c model.CatalogMovie) model.Movie {
	if m, ok := idx.Lookup(c.Title); ok {
		return r.merge(&m, &c)
	}
	return r.merge(nil, &c)
}

// FromCatalogAll is FromCatalog over a list against a single index.
func (r *Reconciler) FromCatalogAll(idx Index, cs []model.CatalogMovie) []model.Movie {
	out := make([]model.Movie, 0, len(cs))
	for _, c := range cs {
		out = append(out, r.FromCatalog(idx, c))
	}
	return out
}

// FindOnChain resolves one catalog movie against a fresh ledger scan.  It
// costs one read per ledger movie; use BuildIndex and FromCatalog for
// lists.
func (r *Reconciler) FindOnChain(ctx context.Context, c model.CatalogMovie) (model.Movie, error) {
	idx, err := r.BuildIndex(ctx)
	if err != nil {
		return model.Movie{}, err
	}
	return r.FromCatalog(idx, c), nil
}

func (r *Reconciler) catalogFor(ctx context.Context, title string) (model.CatalogMovie, bool) {
	key := Fold(title)
	r.mu.RLock()
	id, ok := r.memo[key]
	r.mu.RUnlock()
	if ok {
		if c, ok := r.catalog.FetchByID(ctx, id); ok {
			return c, true
		}
	}

	c, ok := r.catalog.SearchByTitle(ctx, title)
	if !ok {
		return model.CatalogMovie{}, false
	}
	r.mu.Lock()
	r.memo[key] = c.CatalogID
	r.mu.Unlock()
	return c, true
}

// merge builds the merged view.  chain is the active-or-not ledger record
// when one was joined; cat is the catalog record when one was found.
func (r *Reconciler) merge(chain *model.OnChainMovie, cat *model.CatalogMovie) model.Movie {
	var mv model.Movie
	if cat != nil {
		mv = model.Movie{
			LocalID:              uint64(cat.CatalogID),
			CatalogID:            cat.CatalogID,
			Title:                cat.Title,
			Overview:             cat.Overview,
			Rating:               cat.Rating,
			PosterURL:            cat.PosterURL,
			BackdropURL:          cat.BackdropURL,
			ReleaseDate:          cat.ReleaseDate,
			ReleaseDateFormatted: r.format.ReleaseDate(cat.ReleaseDate),
			GenreIDs:             cat.GenreIDs,
			Genres:               cat.Genres,
			Runtime:              cat.Runtime,
			Cast:                 cat.Cast,
			TrailerKey:           model.TrailerKey(cat.Videos),
		}
	}
	if chain != nil {
		// inactive ledger records keep the catalog id when there is one
		if chain.IsActive || cat == nil {
			mv.LocalID = chain.ID
		}
		mv.IsBookable = chain.IsActive
		if mv.Title == "" {
			mv.Title = chain.Title
		}
	}
	return mv
}
