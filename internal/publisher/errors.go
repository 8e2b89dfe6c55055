package publisher

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// CodeRateLimited is the API error code for an exhausted rate window.
const CodeRateLimited = 88

// APIError is a structured failure returned by the API.
type APIError struct {
	Message    string
	Code       int
	StatusCode int
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s (code %d)", e.Message, e.Code)
	}
	return e.Message
}

// RateLimited reports whether the error came from an exhausted rate window.
func (e *APIError) RateLimited() bool {
	return e.Code == CodeRateLimited || e.StatusCode == http.StatusTooManyRequests
}

type errorEnvelope struct {
	Errors []struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"errors"`
	Error string `json:"error"`
}

func decodeAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil {
		switch {
		case len(envelope.Errors) > 0:
			apiErr.Message = envelope.Errors[0].Message
			apiErr.Code = envelope.Errors[0].Code
		case envelope.Error != "":
			apiErr.Message = envelope.Error
		}
	}
	if apiErr.Message == "" {
		text := strings.TrimSpace(string(body))
		if len(text) > 200 {
			text = text[:200]
		}
		if text == "" {
			text = http.StatusText(status)
		}
		apiErr.Message = text
	}
	if status == http.StatusTooManyRequests && apiErr.Code == 0 {
		apiErr.Code = CodeRateLimited
	}
	return apiErr
}
