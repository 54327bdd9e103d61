// Package fetcher is the single choke point for outbound API calls. Every
// request (geocoding, weather, air quality) passes through one Client, so
// the minimum inter-request interval is enforced globally rather than
// per endpoint.
package fetcher

import (
	"fmt"
	"net/url"
)

// Kind tags a request with the endpoint family it targets, so response
// mapping and failure handling can switch on it exhaustively.
type Kind int

const (
	KindGeocode Kind = iota
	KindWeather
	KindAir
)

func (k Kind) String() string {
	switch k {
	case KindGeocode:
		return "geocode"
	case KindWeather:
		return "weather"
	case KindAir:
		return "air_quality"
	default:
		return "unknown"
	}
}

// Request describes one outbound GET: the endpoint family, the base URL,
// and the query parameters.
type Request struct {
	Kind   Kind
	URL    string
	Params url.Values
}

// StatusError is a non-retryable HTTP failure (4xx other than 408/429).
// It is surfaced immediately without retry.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http %d from %s", e.StatusCode, e.URL)
}

// ExhaustedError is raised when every retry for a transient failure has
// been spent. Callers treat it as a skip signal for the unit of work.
type ExhaustedError struct {
	Kind     Kind
	URL      string
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s: retries exhausted after %d attempts: %v", e.Kind, e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}
