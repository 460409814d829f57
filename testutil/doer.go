package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

type RespondFunc func(req *http.Request) (*http.Response, error)

// RecordingDoer is a fake transport that records every request it receives
// and answers with Respond.
type RecordingDoer struct {
	Respond RespondFunc

	mu       sync.Mutex
	requests []*http.Request
	bodies   [][]byte
}

func NewRecordingDoer(respond RespondFunc) *RecordingDoer {
	return &RecordingDoer{
		Respond:  respond,
		mu:       sync.Mutex{},
		requests: nil,
		bodies:   nil,
	}
}

func (d *RecordingDoer) Do(req *http.Request) (*http.Response, error) {
	var body []byte

	if req.Body != nil {
		var err error

		body, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("read request body: %w", err)
		}

		req.Body = io.NopCloser(bytes.NewReader(body))
	}

	d.mu.Lock()
	d.requests = append(d.requests, req)
	d.bodies = append(d.bodies, body)
	d.mu.Unlock()

	return d.Respond(req)
}

func (d *RecordingDoer) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.requests)
}

func (d *RecordingDoer) Requests() []*http.Request {
	d.mu.Lock()
	defer d.mu.Unlock()

	return append([]*http.Request(nil), d.requests...)
}

func (d *RecordingDoer) LastRequest() *http.Request {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.requests) == 0 {
		return nil
	}

	return d.requests[len(d.requests)-1]
}

func (d *RecordingDoer) LastBody() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.bodies) == 0 {
		return nil
	}

	return d.bodies[len(d.bodies)-1]
}

// RawResponse builds a response the way net/http reports one, with Status set
// to "<code> <statusText>".
func RawResponse(status int, statusText, body string) *http.Response {
	return &http.Response{ //nolint:exhaustruct
		StatusCode: status,
		Status:     strings.TrimSpace(fmt.Sprintf("%d %s", status, statusText)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func JSONResponse(status int, payload any) *http.Response {
	body, err := json.Marshal(payload)
	if err != nil {
		panic(fmt.Sprintf("testutil: marshal response payload: %v", err))
	}

	return RawResponse(status, http.StatusText(status), string(body))
}

func RespondJSON(status int, payload any) RespondFunc {
	return func(_ *http.Request) (*http.Response, error) {
		return JSONResponse(status, payload), nil
	}
}

func RespondRaw(status int, statusText, body string) RespondFunc {
	return func(_ *http.Request) (*http.Response, error) {
		return RawResponse(status, statusText, body), nil
	}
}

func RespondError(err error) RespondFunc {
	return func(_ *http.Request) (*http.Response, error) {
		return nil, err
	}
}
