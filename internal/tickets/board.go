package tickets

import (
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/iliyamo/cinecrypto/internal/model"
)

var (
	// ErrTicketNotFound means the ticket is not in the owner's last list.
	ErrTicketNotFound = errors.New("ticket not found")
	// ErrNotScannable means the ticket is not Active (used, refunded or
	// its showtime has started).
	ErrNotScannable = errors.New("ticket cannot be scanned")
)

// Board keeps the last authoritative ticket list per owner plus the ids
// the user has marked "pending scan".  Marks are optimistic and local: the
// ledger never sees them, and every authoritative refresh drops them.
type Board struct {
	mu    sync.Mutex
	lists map[common.Address][]model.TicketView
	marks map[common.Address]map[uint64]bool
}

func NewBoard() *Board {
	return &Board{
		lists: make(map[common.Address][]model.TicketView),
		marks: make(map[common.Address]map[uint64]bool),
	}
}

// Replace stores a freshly fetched list for owner and clears its marks.
func (b *Board) Replace(owner common.Address, views []model.TicketView) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lists[owner] = append([]model.TicketView(nil), views...)
	delete(b.marks, owner)
}

// Has reports whether a list is stored for owner.
func (b *Board) Has(owner common.Address) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.lists[owner]
	return ok
}

// Mark flags ticketID as pending scan and returns the QR payload.  Only
// Active tickets can be marked; marking twice is allowed.
func (b *Board) Mark(owner common.Address, ticketID uint64) (model.QRPayload, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, v := range b.lists[owner] {
		if v.TicketID != ticketID {
			continue
		}
		if v.Status != model.DisplayActive && v.Status != model.DisplayPendingScan {
			return model.QRPayload{}, ErrNotScannable
		}
		if b.marks[owner] == nil {
			b.marks[owner] = make(map[uint64]bool)
		}
		b.marks[owner][ticketID] = true
		return model.QRPayload{TicketID: v.TicketID, Seat: v.Seat, Owner: v.Owner}, nil
	}
	return model.QRPayload{}, ErrTicketNotFound
}

// View returns owner's stored list with marks applied.
func (b *Board) View(owner common.Address) []model.TicketView {
	b.mu.Lock()
	defer b.mu.Unlock()
	list := b.lists[owner]
	out := make([]model.TicketView, len(list))
	copy(out, list)
	for i := range out {
		if out[i].Status == model.DisplayActive && b.marks[owner][out[i].TicketID] {
			out[i].Status = model.DisplayPendingScan
		}
	}
	return out
}
