package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strings"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/sirupsen/logrus"
)

// LogFileName is the audit log written under the consumer's directory.
const LogFileName = "transactions.log"

// Consumer appends every TransactionEvent from the broker to
// <dir>/transactions.log, one line per event.
type Consumer struct {
    url    string
    dir    string
    logger *logrus.Logger
}

func NewConsumer(url, dir string, logger *logrus.Logger) *Consumer {
    return &Consumer{url: url, dir: dir, logger: logger}
}

// Run dials the broker and consumes until ctx is cancelled, reconnecting
// with exponential backoff (capped at 30s) whenever the connection drops.
// Malformed messages are rejected without requeue.
func (c *Consumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        if ctx.Err() != nil {
            return ctx.Err()
        }
        conn, err := amqp.Dial(c.url)
        if err != nil {
            c.logger.WithError(err).WithField("retry_in", backoff).Warn("tx-consumer: dial failed")
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = c.consume(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        c.logger.WithError(err).Warn("tx-consumer: consume loop ended; reconnecting")
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        c.logger.WithError(err).Warn("tx-consumer: set QoS failed")
    }
    if _, err := ch.QueueDeclare(TransactionQueue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(TransactionQueue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := c.handleMessage(d.Body); err != nil {
                c.logger.WithError(err).Warn("tx-consumer: handle message failed")
                _ = d.Nack(false, false)
                continue
            }
            _ = d.Ack(false)
        }
    }
}

func (c *Consumer) handleMessage(body []byte) error {
    var ev TransactionEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.AttemptID == "" || ev.Phase == "" {
        return errors.New("event missing attempt_id or phase")
    }
    if err := os.MkdirAll(c.dir, 0o755); err != nil {
        return fmt.Errorf("mkdir %s: %w", c.dir, err)
    }
    f, err := os.OpenFile(filepath.Join(c.dir, LogFileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    if _, err := f.WriteString(formatLine(ev)); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

func formatLine(ev TransactionEvent) string {
    var b strings.Builder
    fmt.Fprintf(&b, "[%s] %s %s | attempt_id=%s", ev.OccurredAt, ev.Kind, ev.Phase, ev.AttemptID)
    if ev.ShowtimeID != 0 {
        fmt.Fprintf(&b, " | showtime_id=%d", ev.ShowtimeID)
    }
    if len(ev.SeatLabels) > 0 {
        fmt.Fprintf(&b, " | seats=[%s]", strings.Join(ev.SeatLabels, ","))
    }
    if ev.TicketID != 0 {
        fmt.Fprintf(&b, " | ticket_id=%d", ev.TicketID)
    }
    if ev.Owner != "" {
        fmt.Fprintf(&b, " | owner=%s", ev.Owner)
    }
    if ev.ValueWei != "" {
        fmt.Fprintf(&b, " | value_wei=%s", ev.ValueWei)
    }
    if ev.TxHash != "" {
        fmt.Fprintf(&b, " | tx=%s", ev.TxHash)
    }
    if ev.Reason != "" {
        fmt.Fprintf(&b, " | reason=%q", ev.Reason)
    }
    b.WriteByte('\n')
    return b.String()
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}
