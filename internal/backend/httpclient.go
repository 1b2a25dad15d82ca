package backend

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/iksnae/wakechat/internal"
)

const maxBodyLog = 1024

// loggingRoundTripper logs every outbound call and tags it with an X-Request-Id header
type loggingRoundTripper struct {
	inner http.RoundTripper
}

func (l *loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	requestID := req.Header.Get("X-Request-Id")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	// RoundTrippers must not mutate the caller's request
	req = req.Clone(req.Context())
	req.Header.Set("X-Request-Id", requestID)

	var bodySnippet string
	if req.Body != nil && req.GetBody != nil {
		if body, err := req.GetBody(); err == nil {
			if head, err := io.ReadAll(io.LimitReader(body, maxBodyLog)); err == nil {
				bodySnippet = string(bytes.ToValidUTF8(head, nil))
			}
			_ = body.Close()
		}
	}

	fields := internal.Fields{
		"method":     req.Method,
		"url":        req.URL.String(),
		"request_id": requestID,
		"chat_id":    req.Header.Get(ChatIDHeader),
	}
	if bodySnippet != "" && req.Header.Get("Content-Type") == "application/json" {
		fields["body"] = bodySnippet
	}

	resp, err := l.inner.RoundTrip(req)
	fields["duration"] = time.Since(start).String()
	if err != nil {
		fields["error"] = err.Error()
		internal.LogFields(internal.LogLevelDebug, "backend request failed", fields)
		return nil, err
	}

	fields["status"] = resp.StatusCode
	internal.LogFields(internal.LogLevelDebug, "backend request", fields)
	return resp, nil
}

// newHTTPClient builds the shared client. Deadlines come from each request's context.
func newHTTPClient(transport http.RoundTripper) *http.Client {
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &http.Client{Transport: &loggingRoundTripper{inner: transport}}
}
