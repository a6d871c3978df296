package messaging

import (
	"context"
	"sync"
)

// Service is an in-process publish/subscribe hub, used to decouple extension
// notifications from the surfaces that render them.
type Service struct {
	mu     sync.Mutex
	topics map[string]*Topic
}

func NewService() *Service {
	return &Service{
		topics: map[string]*Topic{},
	}
}

type contextKey string

const (
	defaultTopicName string     = "default"
	topicContextKey  contextKey = "messaging-topic"
)

// WithTopic returns a context that routes sends and subscriptions to the
// named topic instead of the default one.
func (s *Service) WithTopic(ctx context.Context, topicName string) context.Context {
	return context.WithValue(ctx, topicContextKey, topicName)
}

func (s *Service) Send(ctx context.Context, msg *Message) error {
	return s.ensureTopic(ctx).Send(ctx, msg)
}

func (s *Service) Subscribe(ctx context.Context, filter MessageFilter, handler MessageHandler) (*Subscription, error) {
	return s.ensureTopic(ctx).Subscribe(ctx, filter, handler)
}

func (s *Service) ensureTopic(ctx context.Context) *Topic {
	s.mu.Lock()
	defer s.mu.Unlock()

	topicName := s.getTopicName(ctx)
	topic, has := s.topics[topicName]
	if !has {
		topic = NewTopic(topicName)
		s.topics[topicName] = topic
	}

	return topic
}

func (s *Service) getTopicName(ctx context.Context) string {
	topicName, ok := ctx.Value(topicContextKey).(string)
	if !ok {
		topicName = defaultTopicName
	}

	return topicName
}
