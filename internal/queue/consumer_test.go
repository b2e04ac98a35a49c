package queue

import (
    "bytes"
    "context"
    "encoding/json"
    "io"
    "strings"
    "testing"
    "time"

    "github.com/sirupsen/logrus"
)

func discardLogger() *logrus.Logger {
    l := logrus.New()
    l.SetOutput(io.Discard)
    return l
}

func TestConsumerHandle(t *testing.T) {
    tests := []struct {
        name string
        ev   LodgingCreatedEvent
        want string
    }{
        {
            name: "linked",
            ev:   LodgingCreatedEvent{LodgingID: 1, OwnerID: "u1", Linked: true, CreatedAt: "2026-01-02T03:04:05Z"},
            want: "[2026-01-02T03:04:05Z] Lodging created | lodging_id=1 | owner_id=\"u1\" | linked\n",
        },
        {
            name: "unlinked",
            ev:   LodgingCreatedEvent{LodgingID: 7, OwnerID: "ghost", CreatedAt: "t"},
            want: "[t] Lodging created | lodging_id=7 | owner_id=\"ghost\" | UNLINKED\n",
        },
    }
    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            var buf bytes.Buffer
            c := NewConsumer("", &buf, discardLogger())
            body, _ := json.Marshal(tt.ev)
            if err := c.Handle(body); err != nil {
                t.Fatal(err)
            }
            if buf.String() != tt.want {
                t.Fatalf("got %q, want %q", buf.String(), tt.want)
            }
        })
    }
}

func TestConsumerHandleRejectsGarbage(t *testing.T) {
    var buf bytes.Buffer
    c := NewConsumer("", &buf, discardLogger())
    if err := c.Handle([]byte("{not json")); err == nil || !strings.Contains(err.Error(), "unmarshal") {
        t.Fatalf("Handle() error = %v, want unmarshal error", err)
    }
    if buf.Len() != 0 {
        t.Fatalf("nothing should be written for a bad message")
    }
}

func TestConsumerRunStopsOnCancel(t *testing.T) {
    ctx, cancel := context.WithCancel(context.Background())
    cancel()
    c := NewConsumer("amqp://127.0.0.1:1/", io.Discard, discardLogger())

    done := make(chan error, 1)
    go func() { done <- c.Run(ctx) }()
    select {
    case err := <-done:
        if err != context.Canceled {
            t.Fatalf("Run() = %v, want context.Canceled", err)
        }
    case <-time.After(5 * time.Second):
        t.Fatal("Run did not return after cancel")
    }
}
