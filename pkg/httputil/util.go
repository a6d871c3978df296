// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package httputil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"
)

// ReadRawResponse reads the raw HTTP response and attempts to convert it into
// the specified type. Typically used in conjunction with
// runtime.WithCaptureResponse(...) to get access to the underlying HTTP
// response of an API call.
func ReadRawResponse[T any](response *http.Response) (*T, error) {
	data, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, err
	}

	instance := new(T)

	err = json.Unmarshal(data, instance)
	if err != nil {
		return nil, fmt.Errorf("failed unmarshalling JSON from response: %w", err)
	}

	return instance, nil
}

// ErrorBody extracts the "error" field from a JSON error payload returned by
// the management API. Servers are expected to respond with
// `{"error": "<message>"}` on failures, but the body may be empty, truncated
// or not JSON at all. When no usable message is present, the raw body is
// returned trimmed so the caller still surfaces whatever the server said.
func ErrorBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	if msg := gjson.GetBytes(body, "error"); msg.Type == gjson.String {
		return msg.Str
	}

	return string(body)
}

// MessageBody extracts the optional "message" field from a JSON success
// payload. Returns an empty string when the body carries no such field.
func MessageBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	if msg := gjson.GetBytes(body, "message"); msg.Type == gjson.String {
		return msg.Str
	}

	return ""
}
