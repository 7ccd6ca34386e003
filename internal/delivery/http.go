// Ripplenotify - Ledger Payment Notifications
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ripplenotify

package delivery

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// maxResponseBody bounds how much of a response body is read.
const maxResponseBody = 4096

// classifyHTTPError classifies a transport error into an error code.
func classifyHTTPError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorCodeTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorCodeTimeout
	}

	errStr := err.Error()
	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline") {
		return ErrorCodeTimeout
	}
	if strings.Contains(errStr, "connection") || strings.Contains(errStr, "refused") ||
		strings.Contains(errStr, "no such host") {
		return ErrorCodeConnectionFailed
	}
	return ErrorCodeUnknown
}

// classifyHTTPStatusCode classifies an HTTP status code into an error code.
func classifyHTTPStatusCode(code int) string {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return ErrorCodeAuthFailed
	case code == http.StatusNotFound || code == http.StatusGone:
		return ErrorCodeRecipientNotFound
	case code == http.StatusTooManyRequests:
		return ErrorCodeRateLimited
	case code == http.StatusRequestEntityTooLarge:
		return ErrorCodeContentTooLarge
	case code == http.StatusBadRequest:
		return ErrorCodeInvalidRecipient
	case code >= 500:
		return ErrorCodeServerError
	default:
		return ErrorCodeUnknown
	}
}

// isTransientCode reports whether a failure code describes a remote or
// network condition rather than a bad request.
func isTransientCode(code string) bool {
	switch code {
	case ErrorCodeConnectionFailed, ErrorCodeTimeout, ErrorCodeRateLimited,
		ErrorCodeServerError, ErrorCodeCircuitOpen:
		return true
	default:
		return false
	}
}

// readBody reads a bounded response body.
func readBody(resp *http.Response) []byte {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil
	}
	return body
}

// parseRetryAfter reads a Retry-After header given in seconds.
func parseRetryAfter(resp *http.Response) *time.Duration {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return nil
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return nil
	}
	d := time.Duration(secs) * time.Second
	return &d
}

// newHTTPClient returns a client with the given timeout, defaulting to 30s.
func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout}
}
