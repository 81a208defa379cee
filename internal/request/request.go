/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package request

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Response is the decoded outcome of one bank call: status code, raw body and
// the response headers the caller may need (content type, pagination links).
type Response struct {
	StatusCode int
	Body       []byte
	Header     http.Header
}

// Client wraps an http.Client with JSON encoding and transient retry.
// Timeouts and retries live here; the aggregation core above treats any
// failure returned by this client as terminal for the current fetch step.
type Client struct {
	httpClient *http.Client
	maxRetries uint64
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: 3,
	}
}

// NewClientWithHTTP wraps an existing http.Client. Used by adapters that need
// their own transport and by tests that stub it.
func NewClientWithHTTP(httpClient *http.Client) *Client {
	return &Client{httpClient: httpClient, maxRetries: 3}
}

// ToJsonReq converts a Go object to a JSON-encoded HTTP request payload.
func ToJsonReq(payload interface{}) (*bytes.Buffer, error) {
	c, e := json.Marshal(payload)
	if e != nil {
		return nil, e
	}
	return bytes.NewBuffer(c), nil
}

// Do sends the request and returns the raw response. Connection-level
// failures and 5xx responses are retried with exponential backoff; 4xx
// responses are returned as-is, classifying them is the adapter's job.
func (c *Client) Do(ctx context.Context, req *http.Request) (*Response, error) {
	if req.Header.Get("Content-Type") == "" && req.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	var response *Response
	operation := func() error {
		attempt := req.Clone(ctx)
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return backoff.Permanent(err)
			}
			attempt.Body = body
		}

		resp, err := c.httpClient.Do(attempt)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		response = &Response{
			StatusCode: resp.StatusCode,
			Body:       body,
			Header:     resp.Header,
		}

		if resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("bank endpoint returned status %d", resp.StatusCode)
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return response, err
	}
	return response, nil
}

// Call sends the request and decodes the JSON response body into response.
func (c *Client) Call(ctx context.Context, req *http.Request, response interface{}) (*Response, error) {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return resp, err
	}
	if response != nil && len(resp.Body) > 0 {
		if err := json.Unmarshal(resp.Body, response); err != nil {
			return resp, err
		}
	}
	return resp, nil
}
