package messaging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Service_Send_Receive(t *testing.T) {
	ctx := context.Background()
	service := NewService()

	t.Run("With_Default_Topic", func(t *testing.T) {
		receivedMessages := []*Message{}

		subscription, err := service.Subscribe(ctx, nil, func(ctx context.Context, msg *Message) {
			receivedMessages = append(receivedMessages, msg)
		})
		require.NoError(t, err)
		defer subscription.Close(ctx)

		err = service.Send(ctx, NewMessage(SimpleMessage, "Hello World"))
		require.NoError(t, err)

		require.Len(t, receivedMessages, 1)
		require.Equal(t, "Hello World", receivedMessages[0].Value)
	})

	t.Run("With_Custom_Topic", func(t *testing.T) {
		topicCtx := service.WithTopic(ctx, "custom")
		receivedMessages := []*Message{}

		subscription, err := service.Subscribe(topicCtx, nil, func(ctx context.Context, msg *Message) {
			receivedMessages = append(receivedMessages, msg)
		})
		require.NoError(t, err)
		defer subscription.Close(topicCtx)

		// messages sent on the default topic are not seen by the custom topic
		require.NoError(t, service.Send(ctx, NewMessage(SimpleMessage, "default")))
		require.Len(t, receivedMessages, 0)

		require.NoError(t, service.Send(topicCtx, NewMessage(SimpleMessage, "custom")))
		require.Len(t, receivedMessages, 1)
	})

	t.Run("With_Filter", func(t *testing.T) {
		received := 0

		onlyWarnings := func(msg *Message) bool {
			return msg.Type == MessageKind("Warning")
		}

		subscription, err := service.Subscribe(ctx, onlyWarnings, func(ctx context.Context, msg *Message) {
			received++
		})
		require.NoError(t, err)
		defer subscription.Close(ctx)

		require.NoError(t, service.Send(ctx, NewMessage(SimpleMessage, "ignored")))
		require.NoError(t, service.Send(ctx, NewMessage(MessageKind("Warning"), "seen")))

		require.Equal(t, 1, received)
	})
}

func Test_Topic_Close(t *testing.T) {
	ctx := context.Background()
	topic := NewTopic("lifecycle")

	subscription, err := topic.Subscribe(ctx, nil, func(ctx context.Context, msg *Message) {})
	require.NoError(t, err)
	require.NotNil(t, subscription)

	topic.Close(ctx)

	err = topic.Send(ctx, NewMessage(SimpleMessage, "dropped"))
	require.Error(t, err)

	_, err = topic.Subscribe(ctx, nil, func(ctx context.Context, msg *Message) {})
	require.Error(t, err)
}

func Test_Subscription_Close_StopsDelivery(t *testing.T) {
	ctx := context.Background()
	topic := NewTopic("notifications")

	received := 0
	subscription, err := topic.Subscribe(ctx, nil, func(ctx context.Context, msg *Message) {
		received++
	})
	require.NoError(t, err)

	require.NoError(t, topic.Send(ctx, NewMessage(SimpleMessage, "one")))
	subscription.Close(ctx)
	require.NoError(t, topic.Send(ctx, NewMessage(SimpleMessage, "two")))

	require.Equal(t, 1, received)
}
