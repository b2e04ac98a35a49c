package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/sirupsen/logrus"
)

// Consumer reads lodging.created events and appends one line per event to
// Out.  Unlinked lodgings are logged at warn level as well so they can be
// found and repaired by hand.
type Consumer struct {
    URL    string
    Out    io.Writer
    Logger *logrus.Logger
}

func NewConsumer(url string, out io.Writer, logger *logrus.Logger) *Consumer {
    return &Consumer{URL: url, Out: out, Logger: logger}
}

// Run dials the broker and consumes until ctx is cancelled, reconnecting
// with exponential backoff (capped at 30s) whenever the connection drops.
func (c *Consumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        if ctx.Err() != nil {
            return ctx.Err()
        }
        conn, err := amqp.Dial(c.URL)
        if err != nil {
            c.Logger.WithError(err).Warnf("lodging-consumer: dial failed; retrying in %s", backoff)
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = c.consumeLoop(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        c.Logger.WithError(err).Warn("lodging-consumer: consume loop ended; reconnecting")
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        c.Logger.WithError(err).Warn("lodging-consumer: set QoS failed")
    }
    if _, err := ch.QueueDeclare(LodgingCreatedQueue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(LodgingCreatedQueue, "", false, false, false, false, nil)
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
            if err := c.Handle(d.Body); err != nil {
                c.Logger.WithError(err).Warn("lodging-consumer: handle message failed")
                _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
                continue
            }
            _ = d.Ack(false)
        }
    }
}

// Handle decodes one event and writes its log line.
func (c *Consumer) Handle(body []byte) error {
    var ev LodgingCreatedEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    status := "linked"
    if !ev.Linked {
        status = "UNLINKED"
        c.Logger.WithFields(logrus.Fields{"lodging_id": ev.LodgingID, "owner_id": ev.OwnerID}).
            Warn("lodging is missing from its owner's lodgings")
    }
    line := fmt.Sprintf("[%s] Lodging created | lodging_id=%d | owner_id=%q | %s\n",
        ev.CreatedAt, ev.LodgingID, ev.OwnerID, status)
    if _, err := io.WriteString(c.Out, line); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
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
