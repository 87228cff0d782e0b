package ledger

// contractABI is the read/write surface of the ticketing contract.  Only
// the functions this module calls are listed.
const contractABI = `[
  {"type":"function","name":"getNextMovieId","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"getNextShowtimeId","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"movies","stateMutability":"view","inputs":[{"name":"","type":"uint256"}],"outputs":[
    {"name":"id","type":"uint256"},{"name":"title","type":"string"},{"name":"isActive","type":"bool"}]},
  {"type":"function","name":"getShowtimeDetails","stateMutability":"view","inputs":[{"name":"_showtimeId","type":"uint256"}],"outputs":[
    {"name":"id","type":"uint256"},{"name":"movieId","type":"uint256"},{"name":"theaterId","type":"uint256"},
    {"name":"startTime","type":"uint256"},{"name":"ticketPrice","type":"uint256"},{"name":"totalSeats","type":"uint256"},
    {"name":"seatsSold","type":"uint256"}]},
  {"type":"function","name":"getSeatsBitmap","stateMutability":"view","inputs":[{"name":"_showtimeId","type":"uint256"}],"outputs":[{"name":"","type":"uint256[]"}]},
  {"type":"function","name":"getTicketsByOwner","stateMutability":"view","inputs":[{"name":"_owner","type":"address"}],"outputs":[{"name":"","type":"uint256[]"}]},
  {"type":"function","name":"tickets","stateMutability":"view","inputs":[{"name":"","type":"uint256"}],"outputs":[
    {"name":"id","type":"uint256"},{"name":"showtimeId","type":"uint256"},{"name":"seatId","type":"uint256"},
    {"name":"owner","type":"address"},{"name":"status","type":"uint8"}]},
  {"type":"function","name":"buyTicket","stateMutability":"payable","inputs":[
    {"name":"_showtimeId","type":"uint256"},{"name":"_seatId","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"buyMultipleTickets","stateMutability":"payable","inputs":[
    {"name":"_showtimeId","type":"uint256"},{"name":"_seatIds","type":"uint256[]"}],"outputs":[]},
  {"type":"function","name":"refundTicket","stateMutability":"nonpayable","inputs":[{"name":"_ticketId","type":"uint256"}],"outputs":[]}
]`

// Contract method names.
const (
	methodNextMovieID    = "getNextMovieId"
	methodNextShowtimeID = "getNextShowtimeId"
	methodMovie          = "movies"
	methodShowtime       = "getShowtimeDetails"
	methodSeatBitmap     = "getSeatsBitmap"
	methodTicketsByOwner = "getTicketsByOwner"
	methodTicket         = "tickets"
	methodBuySeat        = "buyTicket"
	methodBuySeats       = "buyMultipleTickets"
	methodRefund         = "refundTicket"
)
