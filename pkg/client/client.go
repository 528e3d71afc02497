// Package client talks to the edge API on behalf of the chat pipeline.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/dskvich/memi-chat/pkg/domain"
)

var ErrBadResponse = errors.New("bad response")

type Client struct {
	baseURL string
	token   string

	// hc has no timeout: stream bodies stay open for the whole reply.
	hc *http.Client
	rc *retryablehttp.Client
}

func New(baseURL, token string) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base url is empty")
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient = cleanhttp.DefaultPooledClient()
	rc.HTTPClient.Timeout = 30 * time.Second
	rc.RetryMax = 3
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.Logger = slog.Default()

	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		hc:      cleanhttp.DefaultPooledClient(),
		rc:      rc,
	}, nil
}

type envelope struct {
	Message string `json:"message"`
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, fmt.Errorf("creating HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

// doJSON sends a request and decodes a success envelope into out.
// GET requests are retried; everything else is sent once.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	var resp *http.Response
	if method == http.MethodGet {
		rreq, err := retryablehttp.FromRequest(req)
		if err != nil {
			return fmt.Errorf("wrapping request: %w", err)
		}
		resp, err = c.rc.Do(rreq)
		if err != nil {
			return fmt.Errorf("executing HTTP request: %w", err)
		}
	} else {
		resp, err = c.hc.Do(req)
		if err != nil {
			return fmt.Errorf("executing HTTP request: %w", err)
		}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d: %s", ErrBadResponse, resp.StatusCode, string(raw))
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decoding envelope: %w", err)
	}
	if env.Message != domain.GenericSuccessMessage {
		return fmt.Errorf("%w: message %q", ErrBadResponse, env.Message)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decoding response data: %w", err)
		}
	}
	return nil
}

// openStream posts body and returns the event stream. The stream is bound to
// ctx: cancelling it stops further reads.
func (c *Client) openStream(ctx context.Context, path string, body any) (io.ReadCloser, error) {
	req, err := c.newRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing HTTP request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("%w: status %d: %s", ErrBadResponse, resp.StatusCode, string(raw))
	}
	if resp.Body == nil || resp.Body == http.NoBody {
		return nil, fmt.Errorf("%w: empty body", ErrBadResponse)
	}
	return resp.Body, nil
}
