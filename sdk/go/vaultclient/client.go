// Package vaultclient is the HTTP client for the vaultgate API, used by both the device that asks
// to sign in and the device that approves it.
package vaultclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultTimeout bounds every request unless WithTimeout or WithHTTPClient says otherwise.
const DefaultTimeout = 30 * time.Second

const apiPrefix = "/api/v1"

// Client talks to one vaultgate server. It is safe for concurrent use.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	lookups    singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the overall per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken sets the bearer token sent on authenticated calls.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("vaultclient: invalid base URL %q", baseURL)
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// CreateAuthRequest registers a pending login approval request. No token is needed.
func (c *Client) CreateAuthRequest(ctx context.Context, in *CreateAuthRequestInput) (*CreatedAuthRequest, error) {
	var out CreatedAuthRequest
	if err := c.do(ctx, http.MethodPost, "/auth-requests", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetAuthRequestResponse polls a request with the access code returned by CreateAuthRequest.
func (c *Client) GetAuthRequestResponse(ctx context.Context, id, accessCode string) (*AuthRequest, error) {
	path := "/auth-requests/" + url.PathEscape(id) + "/response?code=" + url.QueryEscape(accessCode)
	var out AuthRequest
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListAuthRequests returns the account's pending requests, newest first.
func (c *Client) ListAuthRequests(ctx context.Context) ([]AuthRequest, error) {
	var out authRequestListResponse
	if err := c.do(ctx, http.MethodGet, "/auth-requests", nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// GetAuthRequestByFingerprint fetches the request shown under a fingerprint phrase.
// Concurrent lookups of the same fingerprint share one round trip. The shared call is
// bounded by the client timeout only, so one caller giving up does not fail the others.
func (c *Client) GetAuthRequestByFingerprint(ctx context.Context, fingerprint string) (*AuthRequest, error) {
	path := "/auth-requests/fingerprint/" + url.PathEscape(fingerprint)
	ch := c.lookups.DoChan(fingerprint, func() (interface{}, error) {
		var out AuthRequest
		if err := c.do(context.WithoutCancel(ctx), http.MethodGet, path, nil, &out); err != nil {
			return nil, err
		}
		return out, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %s %s: %w", ErrNetwork, http.MethodGet, path, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		req := res.Val.(AuthRequest)
		return &req, nil
	}
}

// GetAuthRequest fetches one of the account's requests by id.
func (c *Client) GetAuthRequest(ctx context.Context, id string) (*AuthRequest, error) {
	var out AuthRequest
	if err := c.do(ctx, http.MethodGet, "/auth-requests/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateAuthRequest submits the approver's decision. A request that was already decided yields ErrAlreadyDecided.
func (c *Client) UpdateAuthRequest(ctx context.Context, id string, in *UpdateAuthRequestInput) (*AuthRequest, error) {
	var out AuthRequest
	if err := c.do(ctx, http.MethodPut, "/auth-requests/"+url.PathEscape(id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateCipher stores a new vault item for the token's account.
func (c *Client) CreateCipher(ctx context.Context, in *CipherInput) (*Cipher, error) {
	var out Cipher
	if err := c.do(ctx, http.MethodPost, "/ciphers", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetCipher fetches one vault item by id.
func (c *Client) GetCipher(ctx context.Context, id string) (*Cipher, error) {
	var out Cipher
	if err := c.do(ctx, http.MethodGet, "/ciphers/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListCiphers returns the account's vault items that are not in the trash.
func (c *Client) ListCiphers(ctx context.Context) ([]*Cipher, error) {
	var out cipherListResponse
	if err := c.do(ctx, http.MethodGet, "/ciphers", nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// UpdateCipher replaces a vault item. A stale LastKnownRevisionDate is rejected by the server.
func (c *Client) UpdateCipher(ctx context.Context, id string, in *CipherInput) (*Cipher, error) {
	var out Cipher
	if err := c.do(ctx, http.MethodPut, "/ciphers/"+url.PathEscape(id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteCipher moves a vault item to the trash.
func (c *Client) DeleteCipher(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/ciphers/"+url.PathEscape(id), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("vaultclient: marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, reqBody)
	if err != nil {
		return fmt.Errorf("vaultclient: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrNetwork, method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response body: %w", ErrNetwork, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return statusError(resp.StatusCode, respBody)
	}
	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("vaultclient: decode response: %w", err)
	}
	return nil
}

func statusError(statusCode int, body []byte) error {
	e := &StatusError{StatusCode: statusCode}
	var envelope apiResponse
	if json.Unmarshal(body, &envelope) == nil && envelope.Error != nil {
		e.Code = envelope.Error.Code
		e.Message = envelope.Error.Message
	}

	switch {
	case statusCode == http.StatusNotFound:
		e.kind = ErrNotFound
	case statusCode == http.StatusConflict && e.Code == "already_decided":
		e.kind = ErrAlreadyDecided
	}
	return e
}
