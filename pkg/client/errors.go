package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors, one per API failure class. Use errors.Is() to check.
var (
	ErrValidation       = errors.New("serpdex: invalid request")
	ErrEmbeddingFailure = errors.New("serpdex: embedding failure")
	ErrStoreUnavailable = errors.New("serpdex: store unavailable")
	ErrStageTimeout     = errors.New("serpdex: stage timeout")
	ErrServer           = errors.New("serpdex: server error")
)

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("serpdex: %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// Unwrap maps the status to its sentinel.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusBadRequest:
		return ErrValidation
	case http.StatusBadGateway:
		return ErrEmbeddingFailure
	case http.StatusServiceUnavailable:
		return ErrStoreUnavailable
	case http.StatusGatewayTimeout:
		return ErrStageTimeout
	}
	return ErrServer
}
