// Package backend talks to the retrieval-augmented question answering service.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/iksnae/wakechat/internal"
)

// ChatIDHeader scopes a request to one chat session on the backend
const ChatIDHeader = "X-Chat-Id"

// maxResponseSize caps how much of a response body is read
const maxResponseSize = 5 * 1024 * 1024

// Options configures a Client
type Options struct {
	BaseURL       string
	AskTimeout    time.Duration
	UploadTimeout time.Duration
	WakeTimeout   time.Duration
	WakeDelay     time.Duration

	// Transport overrides http.DefaultTransport
	Transport http.RoundTripper
}

// OptionsFromConfig maps the resolved configuration onto client options
func OptionsFromConfig(cfg internal.Config) Options {
	return Options{
		BaseURL:       cfg.APIBase,
		AskTimeout:    cfg.AskTimeout,
		UploadTimeout: cfg.UploadTimeout,
		WakeTimeout:   cfg.WakeTimeout,
		WakeDelay:     cfg.WakeDelay,
	}
}

// RequestOptions controls a single Request
type RequestOptions struct {
	SessionID   string
	Timeout     time.Duration
	ContentType string
}

// Client is the backend API client
type Client struct {
	http *http.Client
	opts Options
}

// NewClient creates a client. Zero timeouts take the defaults.
func NewClient(opts Options) (*Client, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", opts.BaseURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", opts.BaseURL)
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")

	defaults := internal.DefaultConfig()
	if opts.AskTimeout <= 0 {
		opts.AskTimeout = defaults.AskTimeout
	}
	if opts.UploadTimeout <= 0 {
		opts.UploadTimeout = defaults.UploadTimeout
	}
	if opts.WakeTimeout <= 0 {
		opts.WakeTimeout = defaults.WakeTimeout
	}
	if opts.WakeDelay < 0 {
		opts.WakeDelay = 0
	}

	return &Client{http: newHTTPClient(opts.Transport), opts: opts}, nil
}

// BaseURL returns the backend base address
func (c *Client) BaseURL() string {
	return c.opts.BaseURL
}

func (c *Client) newRequest(ctx context.Context, method, relPath string, body []byte) (*http.Request, error) {
	if strings.Contains(relPath, "?") {
		return nil, fmt.Errorf("backend: path must not contain a query string: %s", relPath)
	}
	u, err := url.Parse(c.opts.BaseURL)
	if err != nil {
		return nil, err
	}
	u.Path = path.Join(u.Path, relPath)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	return http.NewRequestWithContext(ctx, method, u.String(), reader)
}

// Request performs one call and returns the body of a 2xx response. A call with no
// complete response within opts.Timeout fails with *internal.TimeoutError; a non-2xx
// status fails with *internal.HTTPError carrying the backend's detail message.
func (c *Client) Request(ctx context.Context, method, relPath string, body []byte, opts RequestOptions) ([]byte, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = c.opts.AskTimeout
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := c.newRequest(reqCtx, method, relPath, body)
	if err != nil {
		return nil, err
	}
	if opts.ContentType != "" {
		req.Header.Set("Content-Type", opts.ContentType)
	}
	if opts.SessionID != "" {
		req.Header.Set(ChatIDHeader, opts.SessionID)
	}

	timedOut := func(err error) error {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return &internal.TimeoutError{Method: method, Path: relPath, Timeout: timeout, Err: err}
		}
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, timedOut(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, timedOut(fmt.Errorf("response read failed: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &internal.HTTPError{StatusCode: resp.StatusCode, Detail: detailOf(data)}
	}
	return data, nil
}

// detailOf extracts {"detail": "..."} from an error body
func detailOf(data []byte) string {
	var body struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(data, &body); err != nil || body.Detail == nil {
		return ""
	}
	if s, ok := body.Detail.(string); ok {
		return s
	}
	// validation errors carry a list of objects
	raw, err := json.Marshal(body.Detail)
	if err != nil {
		return ""
	}
	return string(raw)
}

// decodeBody tolerates an empty body, leaving out at its zero value
func decodeBody(data []byte, out any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("invalid response body: %w", err)
	}
	return nil
}

// withWakeRetry runs call; on a timeout only, it wakes the backend once and
// retries exactly once. The retry happens whatever the wake outcome.
func (c *Client) withWakeRetry(ctx context.Context, op string, call func() error) error {
	err := call()
	if !internal.IsTimeout(err) {
		return err
	}
	internal.LogInfo("%s timed out, waking backend at %s", op, c.opts.BaseURL)
	if !c.Wake(ctx) {
		internal.LogWarn("Backend did not answer the health probe, retrying %s anyway", op)
	}
	return call()
}
