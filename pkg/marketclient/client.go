// Package marketclient is a typed client for the fleamarket HTTP and
// WebSocket API. Every call takes the acting Session explicitly.
package marketclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Session identifies the caller. IDToken is sent as a bearer token when set;
// otherwise UID and DisplayName go in the development headers.
type Session struct {
	UID         string
	DisplayName string
	IDToken     string
}

// APIError is a non-2xx response carrying the server's error envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("marketclient: %d %s: %s", e.Status, e.Code, e.Message)
}

// IsCode reports whether err is an APIError with the given code.
func IsCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) authorize(h http.Header, sess Session) {
	if sess.IDToken != "" {
		h.Set("Authorization", "Bearer "+sess.IDToken)
		return
	}
	if sess.UID != "" {
		h.Set("X-User-ID", sess.UID)
	}
	if sess.DisplayName != "" {
		h.Set("X-User-Name", sess.DisplayName)
	}
}

func (c *Client) do(ctx context.Context, sess Session, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	c.authorize(req.Header, sess)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	resBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var env struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(resBody, &env) == nil && env.Error.Code != "" {
			apiErr.Code, apiErr.Message = env.Error.Code, env.Error.Message
		} else {
			apiErr.Code, apiErr.Message = http.StatusText(resp.StatusCode), truncate(string(resBody), 200)
		}
		return apiErr
	}
	if out == nil || len(resBody) == 0 {
		return nil
	}
	return json.Unmarshal(resBody, out)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func esc(s string) string {
	return url.PathEscape(s)
}
