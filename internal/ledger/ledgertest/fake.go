// Package ledgertest provides an in-memory ledger for tests.
package ledgertest

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/iliyamo/cinecrypto/internal/ledger"
	"github.com/iliyamo/cinecrypto/internal/model"
)

// ErrDown is the transport failure used by Fake when reads are disabled.
var ErrDown = errors.New("connection refused")

// Sent records one write submitted to the Fake.
type Sent struct {
	Method     string
	ShowtimeID uint64
	SeatIDs    []uint64
	TicketID   uint64
	Value      *big.Int
	From       common.Address
}

// Fake implements ledger.Gateway from maps.  Zero-valued records are
// returned for unknown ids, like the contract's public mappings.
type Fake struct {
	mu sync.Mutex

	Movies    map[uint64]model.OnChainMovie
	Showtimes map[uint64]model.Showtime
	Bitmaps   map[uint64][]*big.Int
	Tickets   map[uint64]model.Ticket
	Owners    map[common.Address][]uint64

	// ReadsDown makes every read fail with ErrGatewayUnavailable.
	ReadsDown bool
	// FailIDs makes MovieByID/ShowtimeByID/TicketByID fail for these ids.
	FailIDs map[uint64]bool
	// SubmitErr is returned by every write.
	SubmitErr error
	// MineErr is returned by WaitMined.
	MineErr error
	// Hold, when non-nil, makes writes block until it is closed.
	Hold chan struct{}
	// Entered receives a value each time a write starts (if buffered).
	Entered chan struct{}

	sent   []Sent
	reads  int
	nonce  uint64
	mined  int
}

var _ ledger.Gateway = (*Fake)(nil)

// New returns an empty Fake.
func New() *Fake {
	return &Fake{
		Movies:    map[uint64]model.OnChainMovie{},
		Showtimes: map[uint64]model.Showtime{},
		Bitmaps:   map[uint64][]*big.Int{},
		Tickets:   map[uint64]model.Ticket{},
		Owners:    map[common.Address][]uint64{},
		FailIDs:   map[uint64]bool{},
	}
}

// AddMovie stores m under m.ID.
func (f *Fake) AddMovie(m model.OnChainMovie) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Movies[m.ID] = m
}

// AddShowtime stores s under s.ID.
func (f *Fake) AddShowtime(s model.Showtime) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Showtimes[s.ID] = s
}

// AddTicket stores t and appends it to its owner's list.
func (f *Fake) AddTicket(t model.Ticket) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Tickets[t.ID] = t
	f.Owners[t.Owner] = append(f.Owners[t.Owner], t.ID)
}

// Sent returns the writes submitted so far.
func (f *Fake) Sent() []Sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Sent(nil), f.sent...)
}

// Reads returns how many read calls were made.
func (f *Fake) Reads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

// Mined returns how many times WaitMined completed.
func (f *Fake) Mined() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mined
}

func (f *Fake) read(method string, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.ReadsDown {
		return errors.Join(ledger.ErrGatewayUnavailable, errors.New(method), ErrDown)
	}
	if id != 0 && f.FailIDs[id] {
		return errors.Join(ledger.ErrGatewayUnavailable, errors.New(method), ErrDown)
	}
	return nil
}

func nextID[V any](m map[uint64]V) uint64 {
	var max uint64
	for id := range m {
		if id > max {
			max = id
		}
	}
	return max + 1
}

func (f *Fake) NextMovieID(ctx context.Context) (uint64, error) {
	if err := f.read("getNextMovieId", 0); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return nextID(f.Movies), nil
}

func (f *Fake) MovieByID(ctx context.Context, id uint64) (model.OnChainMovie, error) {
	if err := f.read("movies", id); err != nil {
		return model.OnChainMovie{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Movies[id], nil
}

func (f *Fake) NextShowtimeID(ctx context.Context) (uint64, error) {
	if err := f.read("getNextShowtimeId", 0); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return nextID(f.Showtimes), nil
}

func (f *Fake) ShowtimeByID(ctx context.Context, id uint64) (model.Showtime, error) {
	if err := f.read("getShowtimeDetails", id); err != nil {
		return model.Showtime{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.Showtimes[id]
	if s.TicketPriceWei == nil {
		s.TicketPriceWei = new(big.Int)
	}
	return s, nil
}

func (f *Fake) SeatBitmap(ctx context.Context, showtimeID uint64) ([]*big.Int, error) {
	if err := f.read("getSeatsBitmap", 0); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Bitmaps[showtimeID], nil
}

func (f *Fake) TicketIDsByOwner(ctx context.Context, owner common.Address) ([]uint64, error) {
	if err := f.read("getTicketsByOwner", 0); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uint64(nil), f.Owners[owner]...), nil
}

func (f *Fake) TicketByID(ctx context.Context, id uint64) (model.Ticket, error) {
	if err := f.read("tickets", id); err != nil {
		return model.Ticket{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Tickets[id], nil
}

func (f *Fake) BuySeat(ctx context.Context, opts *bind.TransactOpts, showtimeID, seatID uint64, value *big.Int) (*types.Transaction, error) {
	return f.write(ctx, opts, Sent{Method: "buyTicket", ShowtimeID: showtimeID, SeatIDs: []uint64{seatID}, Value: value})
}

func (f *Fake) BuySeats(ctx context.Context, opts *bind.TransactOpts, showtimeID uint64, seatIDs []uint64, value *big.Int) (*types.Transaction, error) {
	return f.write(ctx, opts, Sent{Method: "buyMultipleTickets", ShowtimeID: showtimeID, SeatIDs: append([]uint64(nil), seatIDs...), Value: value})
}

func (f *Fake) RefundTicket(ctx context.Context, opts *bind.TransactOpts, ticketID uint64) (*types.Transaction, error) {
	return f.write(ctx, opts, Sent{Method: "refundTicket", TicketID: ticketID})
}

func (f *Fake) write(ctx context.Context, opts *bind.TransactOpts, s Sent) (*types.Transaction, error) {
	if f.Entered != nil {
		select {
		case f.Entered <- struct{}{}:
		default:
		}
	}
	if f.Hold != nil {
		select {
		case <-f.Hold:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SubmitErr != nil {
		return nil, f.SubmitErr
	}
	if opts != nil {
		s.From = opts.From
	}
	if s.Value != nil {
		s.Value = new(big.Int).Set(s.Value)
	}
	f.sent = append(f.sent, s)
	f.nonce++
	to := common.HexToAddress("0x39709544a252Ef467282e57Ea74d06d724d8Dc09")
	value := s.Value
	if value == nil {
		value = new(big.Int)
	}
	return types.NewTx(&types.LegacyTx{Nonce: f.nonce, To: &to, Value: value, Gas: 100000, GasPrice: big.NewInt(1)}), nil
}

func (f *Fake) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.MineErr != nil {
		return nil, f.MineErr
	}
	f.mined++
	return &types.Receipt{Status: types.ReceiptStatusSuccessful, TxHash: tx.Hash(), BlockNumber: big.NewInt(int64(f.mined))}, nil
}
