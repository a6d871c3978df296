// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package extensions

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gorilla/websocket"
	"github.com/sethvargo/go-retry"
)

const (
	// defaultPollInterval is how often the refresher refetches the catalog
	// while a session is active.
	defaultPollInterval = 30 * time.Second

	// reconnectDelay separates event stream sessions so a server that keeps
	// closing the stream is not hammered with dials.
	reconnectDelay = 5 * time.Second

	// eventsPath is the websocket endpoint streaming catalog change events.
	eventsPath = "extensions/events"
)

// ChangeEvent is a single catalog change notification from the server's
// event stream.
type ChangeEvent struct {
	// Extension is the name of the extension that changed, empty when the
	// whole catalog should be considered stale.
	Extension string `json:"extension,omitempty"`

	// Action describes what happened: installed, uninstalled, enabled,
	// disabled, configured.
	Action string `json:"action,omitempty"`
}

// StreamDialer opens the catalog event stream. Injectable for testing.
type StreamDialer interface {
	DialContext(ctx context.Context, urlStr string) (StreamConn, error)
}

// StreamConn is the read side of an event stream connection.
type StreamConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
}

// websocketDialer adapts gorilla's dialer to the StreamDialer interface.
type websocketDialer struct{}

func (websocketDialer) DialContext(ctx context.Context, urlStr string) (StreamConn, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, urlStr, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}

	return conn, nil
}

// RefresherOptions tunes the refresher. The zero value selects the default
// poll interval, a real websocket dialer and the wall clock.
type RefresherOptions struct {
	PollInterval time.Duration
	Clock        clock.Clock
	Dialer       StreamDialer

	// OnChange runs after every successful refresh. Optional.
	OnChange func(entries []*Extension)
}

// Refresher keeps the catalog current while a host session is active. It
// polls on a fixed interval and, when the server exposes an event stream,
// also invalidates immediately on pushed change events. Stream failures
// degrade silently back to polling.
type Refresher struct {
	catalog  *Catalog
	endpoint string
	options  RefresherOptions
}

// NewRefresher creates a refresher for the catalog served at endpoint.
func NewRefresher(catalog *Catalog, endpoint string, options RefresherOptions) *Refresher {
	if options.PollInterval <= 0 {
		options.PollInterval = defaultPollInterval
	}
	if options.Clock == nil {
		options.Clock = clock.New()
	}
	if options.Dialer == nil {
		options.Dialer = websocketDialer{}
	}

	return &Refresher{
		catalog:  catalog,
		endpoint: strings.TrimSuffix(endpoint, "/"),
		options:  options,
	}
}

// Run refreshes the catalog until ctx is canceled. It blocks, callers run it
// on its own goroutine.
func (r *Refresher) Run(ctx context.Context) {
	go r.consumeEvents(ctx)

	ticker := r.options.Clock.Ticker(r.options.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.refresh(ctx)
		}
	}
}

func (r *Refresher) refresh(ctx context.Context) {
	entries, err := r.catalog.Refresh(ctx)
	if err != nil {
		log.Printf("catalog refresh failed: %v", err)
		return
	}

	if r.options.OnChange != nil {
		r.options.OnChange(entries)
	}
}

// consumeEvents maintains the event stream connection, reconnecting with
// exponential backoff. A server without the endpoint simply keeps polling.
func (r *Refresher) consumeEvents(ctx context.Context) {
	streamURL, err := r.streamURL()
	if err != nil {
		log.Printf("catalog event stream unavailable: %v", err)
		return
	}

	for ctx.Err() == nil {
		backoff := retry.WithMaxRetries(5, retry.NewExponential(time.Second))

		err := retry.Do(ctx, backoff, func(ctx context.Context) error {
			conn, err := r.options.Dialer.DialContext(ctx, streamURL)
			if err != nil {
				return retry.RetryableError(fmt.Errorf("dialing event stream: %w", err))
			}
			defer conn.Close()

			// ReadMessage does not watch ctx, closing the connection is what
			// unblocks it.
			stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
			defer stop()

			r.readEvents(ctx, conn)
			return nil
		})

		if err != nil {
			log.Printf("catalog event stream disabled after repeated failures: %v", err)
			return
		}

		// The session ended after connecting successfully. Pause before
		// dialing again.
		select {
		case <-ctx.Done():
			return
		case <-r.options.Clock.After(reconnectDelay):
		}
	}
}

func (r *Refresher) readEvents(ctx context.Context, conn StreamConn) {
	for {
		if ctx.Err() != nil {
			return
		}

		_, payload, err := conn.ReadMessage()
		if err != nil {
			log.Printf("catalog event stream closed: %v", err)
			return
		}

		var event ChangeEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			log.Printf("discarding malformed catalog event: %v", err)
			continue
		}

		log.Printf("catalog change event: extension=%s action=%s", event.Extension, event.Action)
		r.refresh(ctx)
	}
}

// streamURL rewrites the management endpoint into the websocket scheme.
func (r *Refresher) streamURL() (string, error) {
	parsed, err := url.Parse(r.endpoint)
	if err != nil {
		return "", fmt.Errorf("parsing endpoint: %w", err)
	}

	switch parsed.Scheme {
	case "http":
		parsed.Scheme = "ws"
	case "https":
		parsed.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported endpoint scheme '%s'", parsed.Scheme)
	}

	parsed.Path = strings.TrimSuffix(parsed.Path, "/") + "/" + eventsPath
	return parsed.String(), nil
}
