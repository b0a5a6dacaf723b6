// Package admin is the client side of the site administration API: session
// establishment, the five remote operations, and the mapping of HTTP
// rate-limit responses onto the batch error taxonomy.
package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/andrej220/siteops/internal/batch"
)

const maxErrorDetail = 512

// APIError is any non-throttle failure response from the admin API. It is
// never retried.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("admin api: %s (status %d)", e.Detail, e.Status)
}

// Session is a per-site authenticated handle. It holds a bearer token with
// a bounded TTL; Close discards it, there is no server-side state to tear
// down.
type Session struct {
	site   string
	token  string
	client *http.Client
}

func (s *Session) Site() string { return s.site }

func (s *Session) Close() error { return nil }

func (s *Session) get(ctx context.Context, path string, out any) error {
	return s.do(ctx, http.MethodGet, path, nil, out)
}

func (s *Session) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.site+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if err := checkResponse(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// checkResponse maps 429 and 503 to the recoverable throttle signal and
// every other non-2xx status to a fatal APIError.
func checkResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable {
		return &batch.ThrottleError{RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	}
	return &APIError{Status: resp.StatusCode, Detail: errorDetail(resp.Body)}
}

// parseRetryAfter handles both delta-seconds and HTTP-date forms; zero
// means no usable suggestion.
func parseRetryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if wait := time.Until(at); wait > 0 {
			return wait
		}
	}
	return 0
}

func errorDetail(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, maxErrorDetail))
	if err != nil {
		return "unreadable error body"
	}
	detail := strings.TrimSpace(string(raw))
	if detail == "" {
		return "no detail"
	}
	return detail
}
