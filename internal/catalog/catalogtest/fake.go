// Package catalogtest provides an in-memory catalog for tests.
package catalogtest

import (
	"context"
	"strings"
	"sync"

	"github.com/iliyamo/cinecrypto/internal/catalog"
	"github.com/iliyamo/cinecrypto/internal/model"
)

// Fake implements catalog.Gateway.  Search matches titles containing the
// query, case-insensitively, in insertion order.
type Fake struct {
	mu sync.Mutex

	Movies   []model.CatalogMovie
	Popular  []model.CatalogMovie
	Upcoming []model.CatalogMovie
	Genres   []model.Genre

	// Down makes every call behave like a failed request.
	Down bool

	searches map[string]int
	fetches  map[int64]int
}

var _ catalog.Gateway = (*Fake)(nil)

// New returns a Fake holding movies.
func New(movies ...model.CatalogMovie) *Fake {
	return &Fake{Movies: movies, searches: map[string]int{}, fetches: map[int64]int{}}
}

// Searches returns how many times query was searched.
func (f *Fake) Searches(query string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.searches[query]
}

// TotalSearches returns the number of search calls.
func (f *Fake) TotalSearches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, v := range f.searches {
		n += v
	}
	return n
}

// Fetches returns how many times id was fetched.
func (f *Fake) Fetches(id int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches[id]
}

func (f *Fake) SearchByTitle(ctx context.Context, title string) (model.CatalogMovie, bool) {
	hits := f.Search(ctx, title)
	if len(hits) == 0 {
		return model.CatalogMovie{}, false
	}
	return hits[0], true
}

func (f *Fake) Search(ctx context.Context, query string) []model.CatalogMovie {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches[query]++
	if f.Down || strings.TrimSpace(query) == "" {
		return nil
	}
	q := strings.ToLower(query)
	var out []model.CatalogMovie
	for _, m := range f.Movies {
		if strings.Contains(strings.ToLower(m.Title), q) {
			out = append(out, m)
		}
	}
	return out
}

func (f *Fake) FetchByID(ctx context.Context, id int64) (model.CatalogMovie, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches[id]++
	if f.Down {
		return model.CatalogMovie{}, false
	}
	for _, m := range f.Movies {
		if m.CatalogID == id {
			return m, true
		}
	}
	return model.CatalogMovie{}, false
}

func (f *Fake) ListPopular(ctx context.Context) []model.CatalogMovie {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Down {
		return nil
	}
	return f.Popular
}

func (f *Fake) ListUpcoming(ctx context.Context) []model.CatalogMovie {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Down {
		return nil
	}
	return f.Upcoming
}

func (f *Fake) ListGenres(ctx context.Context) []model.Genre {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Down {
		return nil
	}
	return f.Genres
}
