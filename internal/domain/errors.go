package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrDiscovery means the site listing request itself failed.
	ErrDiscovery = errors.New("gauge discovery failed")
	// ErrNoGaugesFound means the site listing succeeded but contained no gauges.
	ErrNoGaugesFound = errors.New("no active stream gauges found")
	// ErrRateLimited means the endpoint was already called for the data type inside the window.
	ErrRateLimited = errors.New("recently fetched")
	// ErrFetch means an outbound data request failed.
	ErrFetch = errors.New("fetch failed")
	// ErrMissingField means a payload lacks a field needed to chain to the next request.
	ErrMissingField = errors.New("missing field")
)

// DiscoveryError wraps a transport or HTTP failure of the site listing request.
type DiscoveryError struct {
	URL string
	Err error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrDiscovery, e.URL, e.Err)
}

func (e *DiscoveryError) Unwrap() []error { return []error{ErrDiscovery, e.Err} }

// RateLimitedError is returned before any network call when the
// (endpoint, data type) pair was called within the rate-limit window.
type RateLimitedError struct {
	Endpoint string
	DataType string
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("%s: %s data already fetched from %s", ErrRateLimited, e.DataType, e.Endpoint)
}

func (e *RateLimitedError) Unwrap() error { return ErrRateLimited }

// FetchError wraps a transport, status or decode failure of a data request.
type FetchError struct {
	Endpoint string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch data from %s: %v", e.Endpoint, e.Err)
}

func (e *FetchError) Unwrap() []error { return []error{ErrFetch, e.Err} }

// MissingFieldError reports a payload field that could not be extracted.
type MissingFieldError struct {
	SiteNo string
	Field  string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s %q in details for gauge %s", ErrMissingField, e.Field, e.SiteNo)
}

func (e *MissingFieldError) Unwrap() error { return ErrMissingField }

// StageError attaches the gauge and stage to a per-gauge failure.
type StageError struct {
	SiteNo string
	Stage  Kind
	Err    error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("gauge %s: %s stage: %v", e.SiteNo, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
