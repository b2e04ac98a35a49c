package queue

import (
    "context"
    "encoding/json"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/sirupsen/logrus"
)

// Publisher sends events to RabbitMQ.  Each publish opens its own
// connection; event volume is one message per created lodging.
type Publisher struct {
    URL    string
    Logger *logrus.Logger
}

func NewPublisher(url string, logger *logrus.Logger) *Publisher {
    return &Publisher{URL: url, Logger: logger}
}

// PublishLodgingCreated publishes ev to the lodging.created queue as a
// persistent JSON message.  Errors are logged and returned so the caller
// can choose to ignore them.
func (p *Publisher) PublishLodgingCreated(ctx context.Context, ev LodgingCreatedEvent) error {
    body, err := json.Marshal(ev)
    if err != nil {
        return err
    }
    return p.publish(ctx, LodgingCreatedQueue, body)
}

func (p *Publisher) publish(ctx context.Context, queueName string, body []byte) error {
    log := p.Logger.WithField("queue", queueName)

    conn, err := amqp.Dial(p.URL)
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

    // idempotent; durable so messages survive broker restarts
    if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
        log.WithError(err).Warn("rabbitmq: queue declare failed")
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", queueName, false, false, pub); err != nil {
        log.WithError(err).Warn("rabbitmq: publish failed")
        return err
    }
    return nil
}

// NopPublisher drops every event.  It is used when events are disabled.
type NopPublisher struct{}

func (NopPublisher) PublishLodgingCreated(context.Context, LodgingCreatedEvent) error { return nil }
