package queue

import (
    "context"
    "encoding/json"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/sirupsen/logrus"
)

// Publisher sends transaction events.  Publishing is best effort: callers
// log and otherwise ignore the error so the transaction flow is never
// interrupted by the broker.
type Publisher interface {
    PublishTransaction(ctx context.Context, ev TransactionEvent) error
}

// AMQPPublisher publishes to TransactionQueue, dialing per message.
// Events are rare enough that a held connection is not worth its
// reconnect handling.
type AMQPPublisher struct {
    url    string
    logger *logrus.Logger
}

func NewAMQPPublisher(url string, logger *logrus.Logger) *AMQPPublisher {
    return &AMQPPublisher{url: url, logger: logger}
}

// PublishTransaction marshals ev and publishes it as a persistent message.
func (p *AMQPPublisher) PublishTransaction(ctx context.Context, ev TransactionEvent) error {
    log := p.logger.WithFields(logrus.Fields{"attempt_id": ev.AttemptID, "phase": ev.Phase})

    conn, err := amqp.Dial(p.url)
    if err != nil {
        log.WithError(err).Warn("rabbitmq: dial failed")
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        log.WithError(err).Warn("rabbitmq: channel open failed")
        return err
    }
    defer func() { _ = ch.Close() }()

    // durable, not auto-deleted, not exclusive
    if _, err := ch.QueueDeclare(TransactionQueue, true, false, false, false, nil); err != nil {
        log.WithError(err).Warn("rabbitmq: queue declare failed")
        return err
    }

    body, err := json.Marshal(ev)
    if err != nil {
        return err
    }
    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        MessageId:    ev.AttemptID + ":" + ev.Phase,
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", TransactionQueue, false, false, pub); err != nil {
        log.WithError(err).Warn("rabbitmq: publish failed")
        return err
    }
    return nil
}

// NopPublisher drops every event.  Used when events are disabled.
type NopPublisher struct{}

func (NopPublisher) PublishTransaction(context.Context, TransactionEvent) error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
    mu     sync.Mutex
    events []TransactionEvent
}

func (r *Recorder) PublishTransaction(_ context.Context, ev TransactionEvent) error {
    r.mu.Lock()
    defer r.mu.Unlock()
    r.events = append(r.events, ev)
    return nil
}

// Events returns a copy of what was published.
func (r *Recorder) Events() []TransactionEvent {
    r.mu.Lock()
    defer r.mu.Unlock()
    return append([]TransactionEvent(nil), r.events...)
}
