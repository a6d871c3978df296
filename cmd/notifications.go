// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/kubelens/kubelens/pkg/input"
	"github.com/kubelens/kubelens/pkg/messaging"
	"github.com/kubelens/kubelens/pkg/microfrontend"
	"github.com/kubelens/kubelens/pkg/output"
)

// ExtensionMessageKind tags extension notifications on the message bus.
const ExtensionMessageKind messaging.MessageKind = "ExtensionNotification"

// ExtensionNotification is the bus payload for a notification raised by a
// running extension bundle.
type ExtensionNotification struct {
	Extension string
	Message   string
	Severity  microfrontend.Severity
}

// busNotifier publishes bundle notifications onto the messaging service so
// any surface can subscribe to them.
type busNotifier struct {
	service *messaging.Service
}

func newBusNotifier(service *messaging.Service) *busNotifier {
	return &busNotifier{service: service}
}

func (n *busNotifier) Notify(extension string, message string, severity microfrontend.Severity) {
	msg := messaging.NewMessage(ExtensionMessageKind, ExtensionNotification{
		Extension: extension,
		Message:   message,
		Severity:  severity,
	})

	if err := n.service.Send(context.Background(), msg); err != nil {
		log.Printf("dropping extension notification: %v", err)
	}
}

// subscribeNotifications renders extension notifications on the console for
// the lifetime of the subscription.
func subscribeNotifications(
	ctx context.Context,
	service *messaging.Service,
	console input.Console,
) (*messaging.Subscription, error) {
	filter := func(msg *messaging.Message) bool {
		return msg.Type == ExtensionMessageKind
	}

	return service.Subscribe(ctx, filter, func(ctx context.Context, msg *messaging.Message) {
		notification, ok := msg.Value.(ExtensionNotification)
		if !ok {
			return
		}

		console.Message(ctx, renderNotification(notification))
	})
}

func renderNotification(notification ExtensionNotification) string {
	tag := fmt.Sprintf("[%s]", notification.Extension)

	switch notification.Severity {
	case microfrontend.SeveritySuccess:
		return fmt.Sprintf("%s %s", output.WithSuccessFormat(tag), notification.Message)
	case microfrontend.SeverityWarning:
		return fmt.Sprintf("%s %s", output.WithWarningFormat(tag), notification.Message)
	case microfrontend.SeverityError:
		return fmt.Sprintf("%s %s", output.WithErrorFormat(tag), notification.Message)
	default:
		return fmt.Sprintf("%s %s", output.WithHighLightFormat(tag), notification.Message)
	}
}
