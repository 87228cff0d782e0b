package ledger

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/cinecrypto/internal/model"
)

// maxScanIDs caps one enumeration so a corrupt counter cannot make the
// scan allocate without bound.
const maxScanIDs = 10000

// ScanMovies reads movies 1..NextMovieID-1 with at most concurrency calls
// in flight and returns the non-empty records in id order.  Unreadable ids
// are logged and skipped; only a failing counter read, or every id
// failing, is an error.
func ScanMovies(ctx context.Context, r Reader, concurrency int, logger *logrus.Logger) ([]model.OnChainMovie, error) {
	next, err := r.NextMovieID(ctx)
	if err != nil {
		return nil, err
	}
	return scan(ctx, next, concurrency, logger, methodMovie, r.MovieByID, func(m model.OnChainMovie) bool {
		return m.ID != 0
	})
}

// ScanShowtimes is ScanMovies for showtimes.
func ScanShowtimes(ctx context.Context, r Reader, concurrency int, logger *logrus.Logger) ([]model.Showtime, error) {
	next, err := r.NextShowtimeID(ctx)
	if err != nil {
		return nil, err
	}
	return scan(ctx, next, concurrency, logger, methodShowtime, r.ShowtimeByID, func(s model.Showtime) bool {
		return !s.IsEmpty()
	})
}

// FetchAll reads every id with fetch concurrently and returns the results
// in the order of ids.  Failed ids are logged and left out.
func FetchAll[T any](ctx context.Context, ids []uint64, concurrency int, logger *logrus.Logger, kind string, fetch func(context.Context, uint64) (T, error)) []T {
	results := make([]T, len(ids))
	ok := make([]bool, len(ids))
	var g errgroup.Group
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, id := range ids {
		g.Go(func() error {
			v, err := fetch(ctx, id)
			if err != nil {
				logger.WithError(err).WithFields(logrus.Fields{"kind": kind, "id": id}).Warn("ledger: skipping unreadable record")
				return nil
			}
			results[i], ok[i] = v, true
			return nil
		})
	}
	_ = g.Wait()

	out := make([]T, 0, len(ids))
	for i := range results {
		if ok[i] {
			out = append(out, results[i])
		}
	}
	return out
}

func scan[T any](ctx context.Context, next uint64, concurrency int, logger *logrus.Logger, kind string, fetch func(context.Context, uint64) (T, error), keep func(T) bool) ([]T, error) {
	if next <= 1 {
		return nil, nil
	}
	n := next - 1
	if n > maxScanIDs {
		logger.WithFields(logrus.Fields{"kind": kind, "next_id": next}).Warn("ledger: scan truncated")
		n = maxScanIDs
	}
	ids := make([]uint64, n)
	for i := range ids {
		ids[i] = uint64(i) + 1
	}

	var failed atomic.Int64
	counted := func(ctx context.Context, id uint64) (T, error) {
		v, err := fetch(ctx, id)
		if err != nil {
			failed.Add(1)
		}
		return v, err
	}
	all := FetchAll(ctx, ids, concurrency, logger, kind, counted)

	if err := ctx.Err(); err != nil {
		return nil, unavailable(kind+" scan", err)
	}
	if int(failed.Load()) == len(ids) {
		return nil, unavailable(kind+" scan", errors.New("every record read failed"))
	}
	out := make([]T, 0, len(all))
	for _, v := range all {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out, nil
}
