// Package txn drives ticket purchases and refunds against the ledger.
//
// Each attempt walks Idle -> AcquiringSigner -> Submitting and then
// either Submitted (purchases, not awaited) or Confirmed (refunds, awaited)
// before Done.  Any step may end in Failed.  Only one attempt per
// showtime (purchases) or ticket (refunds) may be in flight; the ledger
// does not deduplicate, so a resubmission would charge twice.
package txn

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinecrypto/internal/clock"
	"github.com/iliyamo/cinecrypto/internal/ledger"
	"github.com/iliyamo/cinecrypto/internal/queue"
	"github.com/iliyamo/cinecrypto/internal/seatcodec"
	"github.com/iliyamo/cinecrypto/internal/units"
	"github.com/iliyamo/cinecrypto/internal/wallet"
)

var (
	// ErrAttemptInFlight rejects a second attempt on the same showtime or
	// ticket while the first has not resolved.
	ErrAttemptInFlight = errors.New("a transaction for this item is already in progress")
	// ErrInvalidSelection rejects an empty, duplicated or out-of-range seat
	// selection before anything is sent.
	ErrInvalidSelection = errors.New("invalid seat selection")
)

// Phase is a state of an attempt.
type Phase string

const (
	PhaseIdle            Phase = "idle"
	PhaseAcquiringSigner Phase = "acquiring_signer"
	PhaseSubmitting      Phase = "submitting"
	PhaseSubmitted       Phase = "submitted"
	PhaseConfirmed       Phase = "confirmed"
	PhaseDone            Phase = "done"
	PhaseFailed          Phase = "failed"
)

// Kind is what an attempt does.
type Kind string

const (
	KindPurchase Kind = "purchase"
	KindRefund   Kind = "refund"
)

// Result describes a resolved attempt.
type Result struct {
	AttemptID   string   `json:"attemptId"`
	Kind        Kind     `json:"kind"`
	Phase       Phase    `json:"phase"`
	Phases      []Phase  `json:"phases"`
	ShowtimeID  uint64   `json:"showtimeId,omitempty"`
	SeatIDs     []uint64 `json:"seatIds,omitempty"`
	Seats       []string `json:"seats,omitempty"`
	TicketID    uint64   `json:"ticketId,omitempty"`
	Value       string   `json:"value,omitempty"`
	ValueWei    string   `json:"valueWei,omitempty"`
	TxHash      string   `json:"txHash,omitempty"`
	BlockNumber uint64   `json:"blockNumber,omitempty"`
	Reason      string   `json:"reason,omitempty"`
}

// attempt is the mutable record of one purchase or refund.
type attempt struct {
	Result
	key  string
	from string
	log  *logrus.Entry
}

// Orchestrator runs attempts.  OnTransition, when set, observes every
// phase change; it is called synchronously.
type Orchestrator struct {
	gateway   ledger.Gateway
	signer    wallet.Signer
	publisher queue.Publisher
	layout    seatcodec.Layout
	clock     clock.Clock
	logger    *logrus.Logger

	OnTransition func(r Result)

	mu       sync.Mutex
	inflight map[string]string // key -> attempt id
}

// New builds an Orchestrator.  A nil publisher drops events.
func New(gw ledger.Gateway, signer wallet.Signer, pub queue.Publisher, layout seatcodec.Layout, clk clock.Clock, logger *logrus.Logger) *Orchestrator {
	if pub == nil {
		pub = queue.NopPublisher{}
	}
	return &Orchestrator{
		gateway:   gw,
		signer:    signer,
		publisher: pub,
		layout:    layout,
		clock:     clk,
		logger:    logger,
		inflight:  make(map[string]string),
	}
}

// InFlight reports whether an attempt holds key.  Keys are
// "purchase:<showtimeID>" and "refund:<ticketID>".
func (o *Orchestrator) InFlight(key string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.inflight[key]
	return ok
}

// PurchaseKey and RefundKey name the in-flight slot of an item.
func PurchaseKey(showtimeID uint64) string { return fmt.Sprintf("%s:%d", KindPurchase, showtimeID) }
func RefundKey(ticketID uint64) string     { return fmt.Sprintf("%s:%d", KindRefund, ticketID) }

// Purchase buys seatIDs for showtimeID, paying price x len(seatIDs).  It
// returns once the network has accepted the transaction; mining is not
// awaited.  One seat uses the single-seat call, several the batch call.
func (o *Orchestrator) Purchase(ctx context.Context, showtimeID uint64, seatIDs []uint64) (Result, error) {
	a := o.begin(KindPurchase, PurchaseKey(showtimeID))
	a.ShowtimeID = showtimeID
	a.SeatIDs = append([]uint64(nil), seatIDs...)

	opts, err := o.acquire(ctx, a)
	if err != nil {
		return a.Result, err
	}
	if err := validateSeats(seatIDs, 0); err != nil {
		return a.Result, o.fail(ctx, a, err, false)
	}
	if err := o.claim(a); err != nil {
		return a.Result, o.fail(ctx, a, err, false)
	}
	defer o.release(a)

	o.transition(a, PhaseSubmitting)
	st, err := o.gateway.ShowtimeByID(ctx, showtimeID)
	if err != nil {
		return a.Result, o.fail(ctx, a, err, false)
	}
	if st.IsEmpty() {
		return a.Result, o.fail(ctx, a, fmt.Errorf("%w: showtime %d does not exist", ErrInvalidSelection, showtimeID), false)
	}
	if err := validateSeats(seatIDs, st.TotalSeats); err != nil {
		return a.Result, o.fail(ctx, a, err, false)
	}
	for _, s := range seatIDs {
		a.Seats = append(a.Seats, o.layout.Label(int(s)))
	}

	total := units.TotalPrice(st.TicketPriceWei, len(seatIDs))
	a.Value, a.ValueWei = units.FormatEther(total), total.String()

	var tx *types.Transaction
	if len(seatIDs) == 1 {
		tx, err = o.gateway.BuySeat(ctx, opts, showtimeID, seatIDs[0], total)
	} else {
		tx, err = o.gateway.BuySeats(ctx, opts, showtimeID, seatIDs, total)
	}
	if err != nil {
		return a.Result, o.fail(ctx, a, err, true)
	}
	a.TxHash = tx.Hash().Hex()
	o.transition(a, PhaseSubmitted)
	o.publish(ctx, a)
	o.transition(a, PhaseDone)
	return a.Result, nil
}

// Refund returns ticketID to the showtime and waits until the refund is
// mined.
func (o *Orchestrator) Refund(ctx context.Context, ticketID uint64) (Result, error) {
	a := o.begin(KindRefund, RefundKey(ticketID))
	a.TicketID = ticketID

	opts, err := o.acquire(ctx, a)
	if err != nil {
		return a.Result, err
	}
	if err := o.claim(a); err != nil {
		return a.Result, o.fail(ctx, a, err, false)
	}
	defer o.release(a)

	o.transition(a, PhaseSubmitting)
	tx, err := o.gateway.RefundTicket(ctx, opts, ticketID)
	if err != nil {
		return a.Result, o.fail(ctx, a, err, true)
	}
	a.TxHash = tx.Hash().Hex()
	a.log = a.log.WithField("tx_hash", a.TxHash)
	a.log.Info("txn: refund sent, waiting for receipt")

	receipt, err := o.gateway.WaitMined(ctx, tx)
	if err != nil {
		return a.Result, o.fail(ctx, a, err, true)
	}
	if receipt.BlockNumber != nil {
		a.BlockNumber = receipt.BlockNumber.Uint64()
	}
	o.transition(a, PhaseConfirmed)
	o.publish(ctx, a)
	o.transition(a, PhaseDone)
	return a.Result, nil
}

func (o *Orchestrator) begin(kind Kind, key string) *attempt {
	id := uuid.NewString()
	a := &attempt{
		Result: Result{AttemptID: id, Kind: kind, Phase: PhaseIdle, Phases: []Phase{PhaseIdle}},
		key:    key,
		log:    o.logger.WithFields(logrus.Fields{"attempt_id": id, "kind": kind}),
	}
	return a
}

// acquire runs before anything touches the network.
func (o *Orchestrator) acquire(ctx context.Context, a *attempt) (*bind.TransactOpts, error) {
	o.transition(a, PhaseAcquiringSigner)
	opts, err := o.signer.AcquireSigner(ctx)
	if err != nil {
		return nil, o.fail(ctx, a, err, false)
	}
	a.from = opts.From.Hex()
	a.log = a.log.WithField("from", a.from)
	return opts, nil
}

func (o *Orchestrator) claim(a *attempt) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if holder, ok := o.inflight[a.key]; ok {
		return fmt.Errorf("%w (attempt %s)", ErrAttemptInFlight, holder)
	}
	o.inflight[a.key] = a.AttemptID
	return nil
}

func (o *Orchestrator) release(a *attempt) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.inflight[a.key] == a.AttemptID {
		delete(o.inflight, a.key)
	}
}

func (o *Orchestrator) transition(a *attempt, p Phase) {
	a.Phase = p
	a.Phases = append(a.Phases, p)
	a.log.WithField("phase", p).Info("txn: phase")
	if o.OnTransition != nil {
		o.OnTransition(a.snapshot())
	}
}

func (a *attempt) snapshot() Result {
	r := a.Result
	r.Phases = append([]Phase(nil), a.Phases...)
	return r
}

// fail moves a to Failed and returns the error the caller should see.
// Reverts keep their chain reason; other ledger errors pass through with
// their sentinel.  sent marks failures after the network was involved,
// which are published.
func (o *Orchestrator) fail(ctx context.Context, a *attempt, err error, sent bool) error {
	var rej *ledger.RejectedError
	switch {
	case errors.As(err, &rej):
		a.Reason = rej.Reason
	case errors.Is(err, ledger.ErrGatewayUnavailable),
		errors.Is(err, ledger.ErrTransactionFailed),
		errors.Is(err, wallet.ErrNotConnected),
		errors.Is(err, ErrAttemptInFlight),
		errors.Is(err, ErrInvalidSelection):
		a.Reason = err.Error()
	default:
		err = fmt.Errorf("%w: %v", ledger.ErrTransactionFailed, err)
		a.Reason = err.Error()
	}
	o.transition(a, PhaseFailed)
	a.log.WithError(err).Error("txn: attempt failed")
	if sent {
		o.publish(ctx, a)
	}
	return err
}

func (o *Orchestrator) publish(ctx context.Context, a *attempt) {
	ev := queue.TransactionEvent{
		AttemptID:  a.AttemptID,
		Kind:       string(a.Kind),
		Phase:      string(a.Phase),
		ShowtimeID: a.ShowtimeID,
		SeatIDs:    a.SeatIDs,
		SeatLabels: a.Seats,
		TicketID:   a.TicketID,
		Owner:      a.from,
		ValueWei:   a.ValueWei,
		TxHash:     a.TxHash,
		Reason:     a.Reason,
		OccurredAt: o.clock.Now().UTC().Format(time.RFC3339),
	}
	// the caller's context may already be done after a failure
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := o.publisher.PublishTransaction(pctx, ev); err != nil {
		a.log.WithError(err).Warn("txn: event publish failed")
	}
}

// validateSeats checks a selection.  totalSeats 0 skips the range check.
func validateSeats(seatIDs []uint64, totalSeats uint64) error {
	if len(seatIDs) == 0 {
		return fmt.Errorf("%w: no seats selected", ErrInvalidSelection)
	}
	seen := make(map[uint64]bool, len(seatIDs))
	for _, s := range seatIDs {
		if s == 0 || (totalSeats > 0 && s > totalSeats) {
			return fmt.Errorf("%w: seat %d out of range", ErrInvalidSelection, s)
		}
		if seen[s] {
			return fmt.Errorf("%w: seat %d selected twice", ErrInvalidSelection, s)
		}
		seen[s] = true
	}
	return nil
}
