// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package mocks

import (
	"context"

	"github.com/kubelens/kubelens/test/mocks/mockhttp"
	"github.com/kubelens/kubelens/test/mocks/mockinput"
)

// MockContext bundles the mocks a test needs to exercise code that talks
// to the management API or the console.
type MockContext struct {
	Context    *context.Context
	Console    *mockinput.MockConsole
	HttpClient *mockhttp.MockHttpClient
}

func NewMockContext(ctx context.Context) *MockContext {
	return &MockContext{
		Context:    &ctx,
		Console:    mockinput.NewMockConsole(),
		HttpClient: mockhttp.NewMockHttpClient(),
	}
}
