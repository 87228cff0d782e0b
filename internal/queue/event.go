// Package queue carries transaction lifecycle events over the message
// broker and writes them to an audit log.
package queue

// TransactionQueue is the durable queue events are published to.
const TransactionQueue = "cinecrypto.transactions"

// TransactionEvent is published each time a purchase or refund attempt
// reaches a terminal or externally visible phase (submitted, confirmed,
// failed).  It carries enough to audit the attempt without re-reading
// the ledger.
type TransactionEvent struct {
    AttemptID  string   `json:"attempt_id"`
    Kind       string   `json:"kind"`  // "purchase" or "refund"
    Phase      string   `json:"phase"` // "submitted", "confirmed", "failed"
    ShowtimeID uint64   `json:"showtime_id,omitempty"`
    SeatIDs    []uint64 `json:"seat_ids,omitempty"`
    SeatLabels []string `json:"seats,omitempty"`
    TicketID   uint64   `json:"ticket_id,omitempty"`
    Owner      string   `json:"owner,omitempty"`
    ValueWei   string   `json:"value_wei,omitempty"`
    TxHash     string   `json:"tx_hash,omitempty"`
    Reason     string   `json:"reason,omitempty"`
    OccurredAt string   `json:"occurred_at"`
}
