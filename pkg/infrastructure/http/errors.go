// Package httputil classifies responses from the Strava REST API.
//
// Strava reports failures as 4xx/5xx responses whose JSON body carries the
// interesting part (duplicate notices, validation messages), so errors built
// here keep a bounded copy of that body for the caller to inspect.
package httputil

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
)

// Error bodies are clipped to this many bytes before being embedded in an
// error string. Strava's error payloads are small; anything longer is
// usually an HTML proxy page.
const maxErrorBodySize = 500

// HTTPError is a non-2xx API response. Body holds the clipped response
// payload, which callers match against to decide whether a failure is
// permanent, for example a duplicate-activity rejection.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
	URL        string
}

func (e *HTTPError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s (status %d): %s", e.Status, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s (status %d)", e.Status, e.StatusCode)
}

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// ParseErrorResponse returns an *HTTPError when resp has a 4xx/5xx status,
// nil otherwise. The body is consumed and replaced with an in-memory copy so
// the caller may still read it.
func ParseErrorResponse(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(bodyBytes))

	bodyStr := ""
	if err == nil && len(bodyBytes) > 0 {
		bodyStr = clip(string(bodyBytes), maxErrorBodySize)
	}

	return &HTTPError{
		StatusCode: resp.StatusCode,
		Status:     http.StatusText(resp.StatusCode),
		Body:       bodyStr,
		URL:        resp.Request.URL.String(),
	}
}

// WrapResponseError drains resp and returns a plain error prefixed with
// message. Use this when the response is already known to be a failure and
// nobody downstream needs the body again.
func WrapResponseError(resp *http.Response, message string) error {
	bodyBytes, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	bodyStr := clip(string(bodyBytes), maxErrorBodySize)
	if bodyStr != "" {
		return fmt.Errorf("%s (status %d): %s", message, resp.StatusCode, bodyStr)
	}
	return fmt.Errorf("%s (status %d)", message, resp.StatusCode)
}
