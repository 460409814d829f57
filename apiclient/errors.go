package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// CodeUnknown is reported when a failed response carries no usable error body.
const CodeUnknown = "UNKNOWN"

var (
	ErrRequestFailed  = errors.New("apiclient: request failed")
	ErrClientError    = errors.New("apiclient: non-success response")
	ErrDecodeResponse = errors.New("apiclient: failed to decode response")
	ErrCreateRequest  = errors.New("apiclient: failed to create request")
	ErrEncodeBody     = errors.New("apiclient: failed to encode request body")
	ErrValidation     = errors.New("apiclient: response failed validation")
)

// APIError is the body the orchestrator returns with a non-success status.
type APIError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// errorBody distinguishes a missing field from an empty one.
type errorBody struct {
	Error *string `json:"error"`
	Code  *string `json:"code"`
}

type ClientError struct {
	Status  int
	Code    string
	Message string
}

func (e *ClientError) Error() string {
	return e.Message
}

func (e *ClientError) Is(target error) bool {
	return errors.Is(target, ErrClientError)
}

func (e *ClientError) Unwrap() error {
	return ErrClientError
}

func NewClientError(status int, body APIError) *ClientError {
	return &ClientError{
		Status:  status,
		Code:    body.Code,
		Message: body.Error,
	}
}

func AsClientError(err error) (*ClientError, bool) {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr, true
	}

	return nil, false
}

func IsCode(err error, code string) bool {
	clientErr, ok := AsClientError(err)

	return ok && clientErr.Code == code
}

func IsStatus(err error, status int) bool {
	clientErr, ok := AsClientError(err)

	return ok && clientErr.Status == status
}

func newClientErrorFromResponse(resp *http.Response) *ClientError {
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return NewClientError(resp.StatusCode, fallbackBody(resp))
	}

	var body errorBody
	if err := json.Unmarshal(bodyBytes, &body); err != nil || body.Error == nil || body.Code == nil {
		return NewClientError(resp.StatusCode, fallbackBody(resp))
	}

	return NewClientError(resp.StatusCode, APIError{
		Error: *body.Error,
		Code:  *body.Code,
	})
}

func fallbackBody(resp *http.Response) APIError {
	return APIError{
		Error: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, StatusText(resp)),
		Code:  CodeUnknown,
	}
}

// StatusText returns the reason phrase the server sent, falling back to the
// standard text for the code when the transport did not record one.
func StatusText(resp *http.Response) string {
	if text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode))); text != "" {
		return text
	}

	return http.StatusText(resp.StatusCode)
}
