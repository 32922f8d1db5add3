// Package testutil provides shared test doubles: a programmable HTTP doer
// and a scripted random source.
package testutil

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"sync"
)

// MockHTTPDoer implements the HTTPDoer interface used by the API clients.
// Responses are configured per method+URL; unconfigured requests get a 404.
type MockHTTPDoer struct {
	responses map[string]mockResponse
	errors    map[string]error
	calls     []HTTPCall
	mu        sync.Mutex
}

type mockResponse struct {
	body   string
	status int
}

// HTTPCall records a single HTTP call.
type HTTPCall struct {
	Method string
	URL    string
	Body   []byte
}

// NewMockHTTPDoer creates a new MockHTTPDoer.
func NewMockHTTPDoer() *MockHTTPDoer {
	return &MockHTTPDoer{
		responses: make(map[string]mockResponse),
		errors:    make(map[string]error),
	}
}

// Respond configures the response for a method+URL pair.
func (m *MockHTTPDoer) Respond(method, url string, status int, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[method+" "+url] = mockResponse{status: status, body: body}
}

// Fail configures an error for a method+URL pair.
func (m *MockHTTPDoer) Fail(method, url string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[method+" "+url] = err
}

// Do executes the request against the configured responses.
func (m *MockHTTPDoer) Do(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var body []byte
	if req.Body != nil {
		var err error
		body, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		req.Body = io.NopCloser(bytes.NewReader(body))
	}
	m.calls = append(m.calls, HTTPCall{Method: req.Method, URL: req.URL.String(), Body: body})

	key := req.Method + " " + req.URL.String()
	if err, ok := m.errors[key]; ok {
		return nil, err
	}
	if resp, ok := m.responses[key]; ok {
		return &http.Response{
			StatusCode: resp.status,
			Body:       io.NopCloser(strings.NewReader(resp.body)),
			Header:     make(http.Header),
		}, nil
	}

	return &http.Response{
		StatusCode: http.StatusNotFound,
		Status:     "404 Not Found",
		Body:       io.NopCloser(strings.NewReader(`{"message":"not found"}`)),
		Header:     make(http.Header),
	}, nil
}

// Calls returns a copy of the recorded calls.
func (m *MockHTTPDoer) Calls() []HTTPCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]HTTPCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns the number of recorded calls.
func (m *MockHTTPDoer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
