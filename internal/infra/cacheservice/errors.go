package cacheservice

import (
	"errors"
	"fmt"
)

// NetworkError means the request never produced an HTTP response.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	if e.Err == nil {
		return "Network Error"
	}
	return e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ServiceError is returned for any non-2xx response.
type ServiceError struct {
	Status int
	Body   string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("Request failed with status code %d", e.Status)
}

// MalformedResponseError means a 2xx body could not be decoded into the
// expected shape.
type MalformedResponseError struct {
	Err error
}

func (e *MalformedResponseError) Error() string {
	return "malformed response: " + e.Err.Error()
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

const (
	outcomeSuccess      = "success"
	outcomeNetworkError = "network_error"
	outcomeServiceError = "service_error"
	outcomeMalformed    = "malformed"
)

func outcomeOf(err error) string {
	var (
		serviceErr *ServiceError
		decodeErr  *MalformedResponseError
	)
	switch {
	case err == nil:
		return outcomeSuccess
	case errors.As(err, &serviceErr):
		return outcomeServiceError
	case errors.As(err, &decodeErr):
		return outcomeMalformed
	default:
		return outcomeNetworkError
	}
}
