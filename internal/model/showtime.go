package model

import (
    "math/big"
    "time"
)

// Showtime is a scheduled screening as stored on the ledger.  A record
// whose MovieID is 0 is an empty slot.
//
// Fields:
//  ID             – ledger showtime id.
//  MovieID        – ledger movie id being screened.
//  TheaterID      – theater number.
//  StartTime      – start, seconds since epoch.
//  TicketPriceWei – price of one seat in wei.
//  TotalSeats     – number of seats, numbered 1..TotalSeats.
//  SeatsSold      – seats sold so far.
type Showtime struct {
    ID             uint64
    MovieID        uint64
    TheaterID      uint64
    StartTime      int64
    TicketPriceWei *big.Int
    TotalSeats     uint64
    SeatsSold      uint64
}

// Start returns StartTime as a time.Time.
func (s Showtime) Start() time.Time { return time.Unix(s.StartTime, 0) }

// IsEmpty reports whether the slot holds no showtime.
func (s Showtime) IsEmpty() bool { return s.MovieID == 0 }

// ShowtimeSlot is one bookable time inside a ShowtimeGroup.
type ShowtimeSlot struct {
    ID         uint64    `json:"id"`
    StartTime  time.Time `json:"startTime"`
    TimeString string    `json:"timeString"`
    Price      string    `json:"price"`
    PriceWei   string    `json:"priceWei"`
}

// ShowtimeGroup collects the future showtimes of one calendar date.
type ShowtimeGroup struct {
    Date          string         `json:"date"`
    FormattedDate string         `json:"formattedDate"`
    Times         []ShowtimeSlot `json:"times"`
}

// Seatmap is the seat-selection view of one showtime.
type Seatmap struct {
    ShowtimeID     uint64    `json:"showtimeId"`
    MovieID        uint64    `json:"movieId"`
    MovieTitle     string    `json:"movieTitle"`
    TotalSeats     int       `json:"totalSeats"`
    TicketPrice    string    `json:"ticketPrice"`
    TicketPriceWei string    `json:"ticketPriceWei"`
    TakenSeats     []int     `json:"takenSeats"`
    ShowtimeDate   string    `json:"showtimeDate"`
    ShowtimeTime   string    `json:"showtimeTime"`
    StartTime      time.Time `json:"startTime"`
    Rows           []SeatRow `json:"rows"`
}

// SeatRow mirrors seatcodec.Row so the model package stays dependency free.
type SeatRow struct {
    Label string     `json:"label"`
    Seats []SeatCell `json:"seats"`
}

// SeatCell is one seat inside a SeatRow.
type SeatCell struct {
    Number int    `json:"number"`
    Label  string `json:"label"`
    Taken  bool   `json:"taken"`
}
