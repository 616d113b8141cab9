package testkit

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// MockTransport implements http.RoundTripper. It matches outgoing requests
// against registered steps and returns canned responses instead of touching
// the network.
//
//	mt := testkit.NewMockTransport(true)
//	mt.On(http.MethodPost, "https://api.example.com/token").Reply(200, `{"access_token":"t"}`)
//	client := &http.Client{Transport: mt}
//	// ... run test ...
//	mt.AssertAllCalled(t)
type MockTransport struct {
	mu       sync.Mutex
	steps    []*MockStep
	requests []*http.Request
	require  bool // fail on unmatched requests instead of answering 404
}

// MockStep is one scripted exchange.
type MockStep struct {
	Method     string
	URLPrefix  string
	StatusCode int
	Body       []byte
	Err        error

	calls int
}

// NewMockTransport returns an empty transport. With strict set, a request
// that matches no step fails with an error.
func NewMockTransport(strict bool) *MockTransport {
	return &MockTransport{require: strict}
}

// On registers a step matching method (empty = any) and a URL prefix.
func (mt *MockTransport) On(method, urlPrefix string) *MockStep {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	s := &MockStep{Method: method, URLPrefix: urlPrefix, StatusCode: http.StatusOK}
	mt.steps = append(mt.steps, s)
	return s
}

// Reply sets the canned status and body.
func (s *MockStep) Reply(status int, body string) *MockStep {
	s.StatusCode = status
	s.Body = []byte(body)
	return s
}

// Fail makes the step return a transport error.
func (s *MockStep) Fail(err error) *MockStep {
	s.Err = err
	return s
}

// RoundTrip records the request and answers from the first matching step.
func (mt *MockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	if req.Body != nil {
		body, _ := io.ReadAll(req.Body)
		_ = req.Body.Close()
		req.Body = io.NopCloser(bytes.NewReader(body))
	}
	mt.requests = append(mt.requests, req)

	for _, s := range mt.steps {
		if s.Method != "" && !strings.EqualFold(s.Method, req.Method) {
			continue
		}
		if !strings.HasPrefix(req.URL.String(), s.URLPrefix) {
			continue
		}
		s.calls++
		if s.Err != nil {
			return nil, s.Err
		}
		return buildResponse(req, s.StatusCode, s.Body), nil
	}

	if mt.require {
		return nil, fmt.Errorf("testkit: unexpected outgoing HTTP call %s %s", req.Method, req.URL)
	}
	return buildResponse(req, http.StatusNotFound, []byte(`{"error":"no mock configured"}`)), nil
}

// Requests returns every request seen so far, in order.
func (mt *MockTransport) Requests() []*http.Request {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	return append([]*http.Request(nil), mt.requests...)
}

// AssertAllCalled fails t for every step that never matched.
func (mt *MockTransport) AssertAllCalled(t testing.TB) {
	t.Helper()
	mt.mu.Lock()
	defer mt.mu.Unlock()

	for _, s := range mt.steps {
		assert.NotZero(t, s.calls, "testkit: mock step %s %s was never called", s.Method, s.URLPrefix)
	}
}

func buildResponse(req *http.Request, code int, body []byte) *http.Response {
	header := make(http.Header)
	header.Set("Content-Type", "application/json")

	return &http.Response{
		StatusCode: code,
		Status:     fmt.Sprintf("%d %s", code, http.StatusText(code)),
		Header:     header,
		Body:       io.NopCloser(bytes.NewReader(body)),
		Request:    req,
	}
}
