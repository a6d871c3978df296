// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package mockhttp

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"sync"
)

// A predicate function definition for registering expressions
type RequestPredicate func(request *http.Request) bool

// An action definition for providing responses or errors for a request
type RespondFn func(request *http.Request) (*http.Response, error)

// MockHttpClient is a policy.Transporter that replays registered
// expressions instead of performing network calls. Safe for concurrent use,
// tests may poll Requests while code under test is still running.
type MockHttpClient struct {
	mu          sync.Mutex
	expressions []*HttpExpression
	requests    []*http.Request
}

type HttpExpression struct {
	client      *MockHttpClient
	predicateFn RequestPredicate
	respondFn   RespondFn
}

func NewMockHttpClient() *MockHttpClient {
	return &MockHttpClient{
		expressions: []*HttpExpression{},
	}
}

func (c *MockHttpClient) Do(req *http.Request) (*http.Response, error) {
	c.mu.Lock()
	c.requests = append(c.requests, req)

	var match *HttpExpression
	for _, expr := range c.expressions {
		if expr.predicateFn(req) {
			match = expr
			break
		}
	}
	c.mu.Unlock()

	if match == nil {
		panic(fmt.Sprintf("No mock found for request: '%s %s'", req.Method, req.URL))
	}

	return match.respondFn(req)
}

// Requests returns a snapshot of every request the client has seen, in order.
func (c *MockHttpClient) Requests() []*http.Request {
	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot := make([]*http.Request, len(c.requests))
	copy(snapshot, c.requests)
	return snapshot
}

func (c *MockHttpClient) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.expressions = []*HttpExpression{}
	c.requests = nil
}

// When registers an expression that applies to requests matching predicate.
func (c *MockHttpClient) When(predicate RequestPredicate) *HttpExpression {
	expr := HttpExpression{
		client:      c,
		predicateFn: predicate,
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.expressions = append(c.expressions, &expr)
	return &expr
}

// Respond answers matching requests with the given status code and body.
func (e *HttpExpression) Respond(statusCode int, body string) *MockHttpClient {
	e.respondFn = func(req *http.Request) (*http.Response, error) {
		return NewResponse(req, statusCode, body), nil
	}

	return e.client
}

// RespondFn answers matching requests with the result of respond.
func (e *HttpExpression) RespondFn(respond RespondFn) *MockHttpClient {
	e.respondFn = respond
	return e.client
}

// SetError fails matching requests with err, simulating a transport failure.
func (e *HttpExpression) SetError(err error) *MockHttpClient {
	e.respondFn = func(_ *http.Request) (*http.Response, error) {
		return nil, err
	}

	return e.client
}

// NewResponse builds a minimal response bound to req.
func NewResponse(req *http.Request, statusCode int, body string) *http.Response {
	return &http.Response{
		Request:    req,
		StatusCode: statusCode,
		Header:     http.Header{},
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}
}
