package messaging

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// Topic receives messages from the messaging system and broadcasts them to
// subscribers. Delivery is synchronous: Send returns once every current
// subscriber has handled the message.
type Topic struct {
	Name string

	mu          sync.Mutex
	subscribers []*Subscription
	closed      bool
}

// NewTopic creates a new topic with the specified name.
func NewTopic(name string) *Topic {
	return &Topic{
		Name:        name,
		subscribers: []*Subscription{},
	}
}

// Subscribe subscribes to the topic with the specified filter and handler.
// The filter is used to select messages. If no filter is specified, all
// messages are received.
func (t *Topic) Subscribe(ctx context.Context, filter MessageFilter, handler MessageHandler) (*Subscription, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.ensureOpen(); err != nil {
		return nil, err
	}

	subscription := newSubscription(t, filter, handler)
	t.subscribers = append(t.subscribers, subscription)

	return subscription, nil
}

// Unsubscribe unsubscribes from the topic.
func (t *Topic) Unsubscribe(ctx context.Context, subscription *Subscription) {
	t.mu.Lock()
	defer t.mu.Unlock()

	index := slices.IndexFunc(t.subscribers, func(s *Subscription) bool {
		return s == subscription
	})

	if index < 0 {
		return
	}

	t.subscribers = append(t.subscribers[:index], t.subscribers[index+1:]...)
}

// Send delivers a message to every current subscriber.
func (t *Topic) Send(ctx context.Context, msg *Message) error {
	t.mu.Lock()
	if err := t.ensureOpen(); err != nil {
		t.mu.Unlock()
		return err
	}

	// Copy so handlers may subscribe/unsubscribe while a send is in flight.
	current := make([]*Subscription, len(t.subscribers))
	copy(current, t.subscribers)
	t.mu.Unlock()

	for _, subscription := range current {
		subscription.receive(ctx, msg)
	}

	return nil
}

// Close closes the topic. Subsequent sends and subscribes fail.
func (t *Topic) Close(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closed = true
	t.subscribers = nil
}

func (t *Topic) ensureOpen() error {
	if t.closed {
		return fmt.Errorf("topic has already been closed")
	}

	return nil
}
