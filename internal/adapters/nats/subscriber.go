package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/ymaps2gpx/internal/core/domain"
)

// Subscriber consumes merge requests from JetStream.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber creates a subscriber with its own NATS connection.
func NewSubscriber(url string) (*Subscriber, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	return &Subscriber{conn: conn, js: js}, nil
}

// SubscribeMergeRequests hands each queued merge request to handler. A
// request that cannot be decoded is terminated; a handler error asks for
// redelivery.
func (s *Subscriber) SubscribeMergeRequests(ctx context.Context, handler func(ctx context.Context, req domain.MergeRequest) error) error {
	sub, err := s.js.Subscribe(MergeRequestSubject, func(msg *nats.Msg) {
		var req domain.MergeRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			_ = msg.Term()
			return
		}
		if err := handler(ctx, req); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable("merge-worker"),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
