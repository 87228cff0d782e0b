package ledger_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/iliyamo/cinecrypto/internal/applog"
	"github.com/iliyamo/cinecrypto/internal/ledger"
	"github.com/iliyamo/cinecrypto/internal/ledger/ledgertest"
	"github.com/iliyamo/cinecrypto/internal/model"
)

func TestScanMoviesSkipsFailedAndEmpty(t *testing.T) {
	f := ledgertest.New()
	for id := uint64(1); id <= 6; id++ {
		if id == 4 {
			continue // deleted slot
		}
		f.AddMovie(model.OnChainMovie{ID: id, Title: "M", IsActive: true})
	}
	f.FailIDs[2] = true

	got, err := ledger.ScanMovies(context.Background(), f, 3, applog.Discard())
	if err != nil {
		t.Fatalf("ScanMovies: %v", err)
	}
	want := []uint64{1, 3, 5, 6}
	if len(got) != len(want) {
		t.Fatalf("got %d movies, want %d", len(got), len(want))
	}
	for i, m := range got {
		if m.ID != want[i] {
			t.Fatalf("got[%d].ID = %d, want %d", i, m.ID, want[i])
		}
	}
}

func TestScanEmptyLedger(t *testing.T) {
	got, err := ledger.ScanShowtimes(context.Background(), ledgertest.New(), 4, applog.Discard())
	if err != nil || len(got) != 0 {
		t.Fatalf("ScanShowtimes = %v, %v", got, err)
	}
}

func TestScanCounterFailure(t *testing.T) {
	f := ledgertest.New()
	f.ReadsDown = true
	if _, err := ledger.ScanShowtimes(context.Background(), f, 4, applog.Discard()); !errors.Is(err, ledger.ErrGatewayUnavailable) {
		t.Fatalf("err = %v, want ErrGatewayUnavailable", err)
	}
}

func TestScanAllRecordsFail(t *testing.T) {
	f := ledgertest.New()
	f.AddShowtime(model.Showtime{ID: 1, MovieID: 1, TicketPriceWei: big.NewInt(1)})
	f.AddShowtime(model.Showtime{ID: 2, MovieID: 1, TicketPriceWei: big.NewInt(1)})
	f.FailIDs[1], f.FailIDs[2] = true, true
	if _, err := ledger.ScanShowtimes(context.Background(), f, 2, applog.Discard()); !errors.Is(err, ledger.ErrGatewayUnavailable) {
		t.Fatalf("err = %v, want ErrGatewayUnavailable", err)
	}
}

func TestFetchAllPreservesOrder(t *testing.T) {
	ids := []uint64{9, 3, 7, 1}
	got := ledger.FetchAll(context.Background(), ids, 2, applog.Discard(), "double", func(_ context.Context, id uint64) (uint64, error) {
		if id == 7 {
			return 0, errors.New("boom")
		}
		return id * 2, nil
	})
	want := []uint64{18, 6, 2}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
