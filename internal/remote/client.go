// Package remote implements the HTTP client for the card repository: an
// XRPC-style record store exposing typed cards, named collections, and
// card↔collection link records.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/starford/raido/internal/apperr"
)

// Client talks to one card repository instance. Login must succeed before
// any record operation. Client is not safe for concurrent mutation of the
// session; the engine runs one session per sync run.
type Client struct {
	baseURL    string
	httpClient *http.Client

	did   string
	token string
}

// NewClient creates a client for the repository at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// DID returns the repository identity established by Login.
func (c *Client) DID() string { return c.did }

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, identifier, password string) error {
	var resp sessionResponse
	err := c.do(ctx, http.MethodPost, "com.atproto.server.createSession",
		nil, sessionRequest{Identifier: identifier, Password: password}, &resp)
	if err != nil {
		return fmt.Errorf("remote: login: %w", err)
	}
	c.did = resp.DID
	c.token = resp.AccessJWT
	return nil
}

// do performs one XRPC call. Query procedures pass params, mutation
// procedures pass a JSON body. A non-2xx response is decoded into an
// xrpcError and mapped onto the apperr sentinels where possible.
func (c *Client) do(ctx context.Context, method, nsid string, params url.Values, body, out any) error {
	endpoint := c.baseURL + "/xrpc/" + nsid
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", nsid, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var xe xrpcError
		_ = json.NewDecoder(resp.Body).Decode(&xe)
		switch {
		case resp.StatusCode == http.StatusUnauthorized:
			return fmt.Errorf("%s: %s: %w", nsid, xe.Message, apperr.ErrUnauthorized)
		case xe.ErrorCode == "RecordNotFound" || resp.StatusCode == http.StatusNotFound:
			return fmt.Errorf("%s: %w", nsid, apperr.ErrNotFound)
		case xe.ErrorCode != "":
			return fmt.Errorf("%s: %s: %s", nsid, xe.ErrorCode, xe.Message)
		default:
			return fmt.Errorf("%s: status %d", nsid, resp.StatusCode)
		}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%s: decode response: %w", nsid, err)
		}
	}
	return nil
}

// rkeyFromURI extracts the record key from an at:// URI
// (at://<did>/<collection>/<rkey>).
func rkeyFromURI(uri string) string {
	i := strings.LastIndex(uri, "/")
	if i < 0 {
		return uri
	}
	return uri[i+1:]
}
