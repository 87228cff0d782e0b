package handler

import (
    "encoding/json"
    "errors"
    "fmt"
    "math/big"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cinecrypto/internal/applog"
    "github.com/iliyamo/cinecrypto/internal/clock"
    "github.com/iliyamo/cinecrypto/internal/display"
    "github.com/iliyamo/cinecrypto/internal/ledger"
    "github.com/iliyamo/cinecrypto/internal/ledger/ledgertest"
    "github.com/iliyamo/cinecrypto/internal/model"
    "github.com/iliyamo/cinecrypto/internal/queue"
    "github.com/iliyamo/cinecrypto/internal/seatcodec"
    "github.com/iliyamo/cinecrypto/internal/service"
    "github.com/iliyamo/cinecrypto/internal/tickets"
    "github.com/iliyamo/cinecrypto/internal/txn"
    "github.com/iliyamo/cinecrypto/internal/wallet"
)

func TestFailStatus(t *testing.T) {
    cases := []struct {
        err    error
        status int
        code   string
    }{
        {&ledger.RejectedError{Reason: "Seat already taken"}, http.StatusUnprocessableEntity, "transaction_rejected"},
        {wallet.ErrNotConnected, http.StatusPreconditionRequired, "wallet_not_connected"},
        {txn.ErrAttemptInFlight, http.StatusConflict, "attempt_in_flight"},
        {fmt.Errorf("%w: seat 0", txn.ErrInvalidSelection), http.StatusBadRequest, "invalid_selection"},
        {service.ErrMovieNotFound, http.StatusNotFound, "not_found"},
        {service.ErrShowtimeNotFound, http.StatusNotFound, "not_found"},
        {tickets.ErrTicketNotFound, http.StatusNotFound, "not_found"},
        {tickets.ErrNotScannable, http.StatusConflict, "not_scannable"},
        {wallet.ErrBadPassphrase, http.StatusUnauthorized, "bad_passphrase"},
        {wallet.ErrNoKeystore, http.StatusConflict, "no_keystore"},
        {fmt.Errorf("%w: timeout", ledger.ErrGatewayUnavailable), http.StatusServiceUnavailable, "unavailable"},
        {fmt.Errorf("%w: nonce too low", ledger.ErrTransactionFailed), http.StatusBadGateway, "transaction_failed"},
        {errors.New("boom"), http.StatusInternalServerError, "internal"},
    }
    e := echo.New()
    for _, tc := range cases {
        rec := httptest.NewRecorder()
        c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
        if err := fail(c, applog.Discard(), tc.err); err != nil {
            t.Fatal(err)
        }
        if rec.Code != tc.status {
            t.Errorf("%v: status = %d, want %d", tc.err, rec.Code, tc.status)
        }
        var body map[string]string
        if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
            t.Fatalf("%v: body %q: %v", tc.err, rec.Body.String(), err)
        }
        if body["error"] != tc.code {
            t.Errorf("%v: code = %q, want %q", tc.err, body["error"], tc.code)
        }
    }
}

func TestRejectedReasonInBody(t *testing.T) {
    e := echo.New()
    rec := httptest.NewRecorder()
    c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
    _ = fail(c, applog.Discard(), fmt.Errorf("purchase: %w", &ledger.RejectedError{Reason: "Showtime has passed"}))
    if !strings.Contains(rec.Body.String(), "Showtime has passed") {
        t.Fatalf("body = %s", rec.Body.String())
    }
}

func TestSeatmapHandler(t *testing.T) {
    f := ledgertest.New()
    f.AddMovie(model.OnChainMovie{ID: 1, Title: "Dune", IsActive: true})
    f.AddShowtime(model.Showtime{ID: 4, MovieID: 1, StartTime: 1_790_000_000, TicketPriceWei: big.NewInt(1e16), TotalSeats: 20})
    f.Bitmaps[4] = seatcodec.Encode([]int{3, 11})

    h := &BrowseHandler{
        Seatmaps: service.NewSeatmaps(f, seatcodec.NewLayout(10), display.NewFormatter(time.UTC), applog.Discard()),
        Logger:   applog.Discard(),
    }
    e := echo.New()

    call := func(id string) *httptest.ResponseRecorder {
        rec := httptest.NewRecorder()
        c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
        c.SetParamNames("id")
        c.SetParamValues(id)
        if err := h.Seatmap(c); err != nil {
            t.Fatal(err)
        }
        return rec
    }

    rec := call("4")
    if rec.Code != http.StatusOK {
        t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
    }
    var sm model.Seatmap
    if err := json.Unmarshal(rec.Body.Bytes(), &sm); err != nil {
        t.Fatal(err)
    }
    if sm.MovieTitle != "Dune" || sm.TicketPrice != "0.01" || len(sm.Rows) != 2 {
        t.Fatalf("seatmap = %+v", sm)
    }
    if len(sm.TakenSeats) != 2 || sm.TakenSeats[0] != 3 || sm.TakenSeats[1] != 11 {
        t.Fatalf("taken = %v", sm.TakenSeats)
    }

    if rec := call("9"); rec.Code != http.StatusNotFound {
        t.Fatalf("missing showtime: status = %d", rec.Code)
    }
    if rec := call("0"); rec.Code != http.StatusBadRequest {
        t.Fatalf("id 0: status = %d", rec.Code)
    }
}

func TestPurchaseWithoutWallet(t *testing.T) {
    f := ledgertest.New()
    f.AddShowtime(model.Showtime{ID: 1, MovieID: 1, StartTime: 1_790_000_000, TicketPriceWei: big.NewInt(1e16), TotalSeats: 20})
    w := wallet.NewSession(big.NewInt(11155111), "", applog.Discard())
    orch := txn.New(f, w, queue.NopPublisher{}, seatcodec.NewLayout(10), clock.Real(), applog.Discard())
    h := &TransactionHandler{Orchestrator: orch, Logger: applog.Discard()}

    e := echo.New()
    req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"seat_ids":[1,2]}`))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    c.SetParamNames("id")
    c.SetParamValues("1")
    if err := h.Purchase(c); err != nil {
        t.Fatal(err)
    }
    if rec.Code != http.StatusPreconditionRequired {
        t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
    }
    if len(f.Sent()) != 0 {
        t.Fatal("nothing should be sent without a wallet")
    }
}

func TestWalletStatusAndDisconnect(t *testing.T) {
    w := wallet.NewSession(big.NewInt(1), "", applog.Discard())
    h := &WalletHandler{Session: w, Logger: applog.Discard()}
    e := echo.New()

    rec := httptest.NewRecorder()
    if err := h.Status(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)); err != nil {
        t.Fatal(err)
    }
    var st wallet.Status
    if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
        t.Fatal(err)
    }
    if st.Connected || st.KeystoreConfigured {
        t.Fatalf("status = %+v", st)
    }

    req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"passphrase":"x"}`))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    rec = httptest.NewRecorder()
    if err := h.Unlock(e.NewContext(req, rec)); err != nil {
        t.Fatal(err)
    }
    if rec.Code != http.StatusConflict {
        t.Fatalf("unlock without keystore: status = %d", rec.Code)
    }

    rec = httptest.NewRecorder()
    if err := h.Disconnect(e.NewContext(httptest.NewRequest(http.MethodDelete, "/", nil), rec)); err != nil {
        t.Fatal(err)
    }
    if rec.Code != http.StatusNoContent {
        t.Fatalf("disconnect: status = %d", rec.Code)
    }
}
