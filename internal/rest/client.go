// Package rest is the JSON-over-HTTP transport shared by the Jira and Xray clients. It owns
// authentication headers and the retry policy for throttled or unavailable servers.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const maxErrorBody = 2048

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s returned %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == code
}

// Client performs authenticated JSON requests relative to a base URL.
type Client struct {
	BaseURL *url.URL
	HTTP    *http.Client
	// NewBackOff creates the retry policy of a single request.
	NewBackOff func() backoff.BackOff
	auth       AuthFunc
}

// NewClient returns a client for baseURL. The base URL should end with a slash when it has a
// path, e.g. "https://jira.example.com/rest/api/2/".
func NewClient(baseURL *url.URL, auth AuthFunc, skipVerify bool) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTP:       newHTTPClient(skipVerify),
		NewBackOff: DefaultBackOff,
		auth:       auth,
	}
}

// DefaultBackOff retries up to four times within half a minute.
func DefaultBackOff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 8 * time.Second
	bo.MaxElapsedTime = 30 * time.Second
	return backoff.WithMaxRetries(bo, 4)
}

// DoJSON sends body (if not nil) as JSON and decodes the response into out (if not nil).
func (c *Client) DoJSON(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		payload = raw
	}

	respBody, err := c.do(ctx, method, path, query, func() (io.Reader, string) {
		if payload == nil {
			return nil, ""
		}
		return bytes.NewReader(payload), "application/json"
	})
	if err != nil {
		return err
	}
	return decode(respBody, out)
}

// PostFile uploads a file as multipart/form-data under the given form field.
func (c *Client) PostFile(ctx context.Context, path string, query url.Values, field, filePath string, out any) error {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("read %s: %w", filePath, err)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filepath.Base(filePath))
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return fmt.Errorf("write form file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("close multipart writer: %w", err)
	}
	payload, contentType := buf.Bytes(), mw.FormDataContentType()

	respBody, err := c.do(ctx, http.MethodPost, path, query, func() (io.Reader, string) {
		return bytes.NewReader(payload), contentType
	})
	if err != nil {
		return err
	}
	return decode(respBody, out)
}

// do executes the request with retries. body is called once per attempt.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body func() (io.Reader, string)) ([]byte, error) {
	relURL, err := url.Parse(strings.TrimPrefix(path, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse path: %w", err)
	}
	if len(query) > 0 {
		relURL.RawQuery = query.Encode()
	}
	fullURL := c.BaseURL.ResolveReference(relURL).String()

	var respBody []byte
	operation := func() error {
		reader, contentType := body()
		req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("create request: %w", err))
		}
		if c.auth != nil {
			c.auth(req)
		}
		req.Header.Set("Accept", "application/json")
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		if contentType == "application/json" || strings.HasPrefix(contentType, "multipart/") {
			// Xray Server rejects uploads without this header.
			req.Header.Set("X-Atlassian-Token", "no-check")
		}

		resp, err := c.HTTP.Do(req)
		if err != nil {
			return fmt.Errorf("do request: %w", err)
		}
		defer resp.Body.Close() // nolint:errcheck

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			respBody = raw
			return nil
		}

		statusErr := &StatusError{
			Method:     method,
			URL:        fullURL,
			StatusCode: resp.StatusCode,
			Body:       string(trim(raw, maxErrorBody)),
		}
		if retryable(method, resp.StatusCode) {
			return statusErr
		}
		return backoff.Permanent(statusErr)
	}

	newBackOff := c.NewBackOff
	if newBackOff == nil {
		newBackOff = DefaultBackOff
	}
	if err := backoff.Retry(operation, backoff.WithContext(newBackOff(), ctx)); err != nil {
		return nil, err
	}
	return respBody, nil
}

// retryable reports whether a response status is worth another attempt. A gateway error may
// arrive after the server committed the request, so only idempotent methods retry 502 and 504.
func retryable(method string, status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return true
	case http.StatusBadGateway, http.StatusGatewayTimeout:
		return idempotent(method)
	default:
		return false
	}
}

func idempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete, http.MethodOptions:
		return true
	default:
		return false
	}
}

func decode(raw []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// trim returns at most n bytes from b.
func trim(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
