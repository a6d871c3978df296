// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package extensions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/kubelens/kubelens/test/mocks/mockhttp"
	"github.com/stretchr/testify/require"
)

type stubStreamConn struct {
	messages chan []byte
	closed   chan struct{}
}

func newStubStreamConn() *stubStreamConn {
	return &stubStreamConn{
		messages: make(chan []byte),
		closed:   make(chan struct{}),
	}
}

func (c *stubStreamConn) ReadMessage() (int, []byte, error) {
	select {
	case msg := <-c.messages:
		return 1, msg, nil
	case <-c.closed:
		return 0, nil, errors.New("connection closed")
	}
}

func (c *stubStreamConn) Close() error {
	select {
	case <-c.closed:
	default:
		close(c.closed)
	}

	return nil
}

type stubDialer struct {
	conn *stubStreamConn
	err  error
}

func (d stubDialer) DialContext(ctx context.Context, urlStr string) (StreamConn, error) {
	if d.err != nil {
		return nil, d.err
	}

	return d.conn, nil
}

func waitForRequestCount(t *testing.T, mockHttp *mockhttp.MockHttpClient, want int, tick func()) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for len(mockHttp.Requests()) < want && time.Now().Before(deadline) {
		if tick != nil {
			tick()
		}
		time.Sleep(5 * time.Millisecond)
	}

	require.GreaterOrEqual(t, len(mockHttp.Requests()), want)
}

func Test_Refresher_PollsOnInterval(t *testing.T) {
	mockHttp := mockhttp.NewMockHttpClient()
	listResponder(mockHttp, `[{"name": "one"}]`)

	catalog := NewCatalog(NewManagementClient(testEndpoint, mockHttp))
	mockClock := clock.NewMock()

	changed := make(chan []*Extension, 1)
	refresher := NewRefresher(catalog, testEndpoint, RefresherOptions{
		PollInterval: time.Minute,
		Clock:        mockClock,
		Dialer:       stubDialer{err: errors.New("stream not supported")},
		OnChange: func(entries []*Extension) {
			select {
			case changed <- entries:
			default:
			}
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go refresher.Run(ctx)

	waitForRequestCount(t, mockHttp, 1, func() {
		mockClock.Add(time.Minute)
	})

	select {
	case entries := <-changed:
		require.Len(t, entries, 1)
		require.Equal(t, "one", entries[0].Name)
	case <-time.After(5 * time.Second):
		t.Fatal("refresh never reported entries")
	}
}

func Test_Refresher_EventTriggersRefresh(t *testing.T) {
	mockHttp := mockhttp.NewMockHttpClient()
	listResponder(mockHttp, `[{"name": "one"}]`)

	catalog := NewCatalog(NewManagementClient(testEndpoint, mockHttp))

	conn := newStubStreamConn()
	t.Cleanup(func() { _ = conn.Close() })

	refresher := NewRefresher(catalog, testEndpoint, RefresherOptions{
		PollInterval: time.Hour,
		Clock:        clock.NewMock(),
		Dialer:       stubDialer{conn: conn},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go refresher.Run(ctx)

	// A malformed event is discarded without refreshing.
	conn.messages <- []byte(`{corrupt`)
	time.Sleep(50 * time.Millisecond)
	require.Empty(t, mockHttp.Requests())

	// A valid change event triggers an immediate refetch, no clock advance.
	conn.messages <- []byte(`{"extension": "one", "action": "enabled"}`)
	waitForRequestCount(t, mockHttp, 1, nil)
}

func Test_Refresher_StreamFailureKeepsPolling(t *testing.T) {
	mockHttp := mockhttp.NewMockHttpClient()
	listResponder(mockHttp, `[]`)

	catalog := NewCatalog(NewManagementClient(testEndpoint, mockHttp))
	mockClock := clock.NewMock()

	refresher := NewRefresher(catalog, testEndpoint, RefresherOptions{
		PollInterval: time.Minute,
		Clock:        mockClock,
		Dialer:       stubDialer{err: errors.New("connection refused")},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go refresher.Run(ctx)

	// Polling keeps the catalog fresh while the event stream is down.
	waitForRequestCount(t, mockHttp, 2, func() {
		mockClock.Add(time.Minute)
	})
}

func Test_Refresher_StreamURL(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		want     string
		wantErr  bool
	}{
		{
			name:     "http becomes ws",
			endpoint: "http://localhost:9000",
			want:     "ws://localhost:9000/extensions/events",
		},
		{
			name:     "https becomes wss",
			endpoint: "https://dash.example.com",
			want:     "wss://dash.example.com/extensions/events",
		},
		{
			name:     "trailing slash",
			endpoint: "http://localhost:9000/",
			want:     "ws://localhost:9000/extensions/events",
		},
		{
			name:     "endpoint with base path",
			endpoint: "http://localhost:9000/api",
			want:     "ws://localhost:9000/api/extensions/events",
		},
		{
			name:     "websocket scheme passes through",
			endpoint: "ws://localhost:9000",
			want:     "ws://localhost:9000/extensions/events",
		},
		{
			name:     "unsupported scheme",
			endpoint: "ftp://localhost",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			refresher := NewRefresher(nil, tt.endpoint, RefresherOptions{})

			got, err := refresher.streamURL()
			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
