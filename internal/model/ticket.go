package model

import "github.com/ethereum/go-ethereum/common"

// TicketStatus is the ledger-side lifecycle of a ticket.
type TicketStatus uint8

const (
    TicketActive TicketStatus = iota
    TicketUsed
    TicketRefunded
)

func (s TicketStatus) String() string {
    switch s {
    case TicketActive:
        return "Active"
    case TicketUsed:
        return "Used"
    case TicketRefunded:
        return "Refunded"
    }
    return "Unknown"
}

// Ticket is a purchased seat as stored on the ledger.  Only ledger
// transactions (scan-to-use, refund) move Status.
type Ticket struct {
    ID         uint64
    ShowtimeID uint64
    SeatID     uint64
    Owner      common.Address
    Status     TicketStatus
}

// DisplayStatus is what the ticket list shows.  PendingScan is a UI-only
// state layered on top of an Active ticket and never comes from the ledger;
// Expired is an Active ticket whose showtime already started.
type DisplayStatus string

const (
    DisplayActive      DisplayStatus = "Active"
    DisplayPendingScan DisplayStatus = "PendingScan"
    DisplayUsed        DisplayStatus = "Used"
    DisplayRefunded    DisplayStatus = "Refunded"
    DisplayExpired     DisplayStatus = "Expired"
)

// TicketView is one row of the "my tickets" screen.
type TicketView struct {
    TicketID      uint64        `json:"ticketId"`
    ShowtimeID    uint64        `json:"showtimeId"`
    SeatID        uint64        `json:"seatId"`
    Seat          string        `json:"seat"`
    Owner         string        `json:"owner"`
    MovieTitle    string        `json:"movieTitle"`
    PosterURL     string        `json:"posterUrl,omitempty"`
    Date          string        `json:"date"`
    Time          string        `json:"time"`
    IsUpcoming    bool          `json:"isUpcoming"`
    ChainStatus   string        `json:"chainStatus"`
    Status        DisplayStatus `json:"status"`
}

// QRPayload is the redemption artifact rendered as a scannable code.
type QRPayload struct {
    TicketID uint64 `json:"ticketId"`
    Seat     string `json:"seat"`
    Owner    string `json:"owner"`
}
