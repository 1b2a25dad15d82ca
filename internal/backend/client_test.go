package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iksnae/wakechat/internal"
	"github.com/iksnae/wakechat/testutil"
)

func newTestClient(t *testing.T, fb *testutil.FakeBackend) *Client {
	t.Helper()
	c, err := NewClient(Options{
		BaseURL:       fb.URL() + "/",
		AskTimeout:    100 * time.Millisecond,
		UploadTimeout: 100 * time.Millisecond,
		WakeTimeout:   100 * time.Millisecond,
		WakeDelay:     10 * time.Millisecond,
	})
	require.NoError(t, err)
	return c
}

func TestNewClient_InvalidBaseURL(t *testing.T) {
	for _, base := range []string{"", "ftp://example.com", "://bad"} {
		_, err := NewClient(Options{BaseURL: base})
		assert.Error(t, err, "base %q", base)
	}
}

func TestNewClient_Defaults(t *testing.T) {
	c, err := NewClient(Options{BaseURL: "http://localhost:8000/"})
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", c.BaseURL())
	assert.Equal(t, 30*time.Second, c.opts.AskTimeout)
	assert.Equal(t, 120*time.Second, c.opts.UploadTimeout)
	assert.Equal(t, 90*time.Second, c.opts.WakeTimeout)
}

func TestRequest_ChatIDHeader(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	c := newTestClient(t, fb)

	_, err := c.Request(context.Background(), http.MethodGet, "/health", nil, RequestOptions{SessionID: "chat_1"})
	require.NoError(t, err)
	_, err = c.Request(context.Background(), http.MethodGet, "/health", nil, RequestOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"chat_1", ""}, fb.ChatIDs("GET /health"))
}

func TestRequest_Timeout(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	fb.Handle("GET /health", testutil.Stall)
	c := newTestClient(t, fb)

	_, err := c.Request(context.Background(), http.MethodGet, "/health", nil, RequestOptions{Timeout: 20 * time.Millisecond})

	var te *internal.TimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "/health", te.Path)
	assert.Equal(t, 20*time.Millisecond, te.Timeout)
}

func TestRequest_CallerCancelIsNotATimeout(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	fb.Handle("GET /health", testutil.Stall)
	c := newTestClient(t, fb)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := c.Request(ctx, http.MethodGet, "/health", nil, RequestOptions{Timeout: time.Second})

	require.Error(t, err)
	assert.False(t, internal.IsTimeout(err))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRequest_HTTPError(t *testing.T) {
	tests := []struct {
		name       string
		handler    testutil.HandlerFunc
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "detail message",
			handler:    testutil.Fail(http.StatusUnsupportedMediaType, "Unsupported file type: .exe"),
			wantStatus: http.StatusUnsupportedMediaType,
			wantMsg:    "Unsupported file type: .exe",
		},
		{
			name: "no body",
			handler: func(_ int, w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			wantStatus: http.StatusBadGateway,
			wantMsg:    "error 502",
		},
		{
			name: "structured detail",
			handler: func(_ int, w http.ResponseWriter, _ *http.Request) {
				testutil.WriteJSON(w, http.StatusUnprocessableEntity, map[string]any{
					"detail": []map[string]any{{"msg": "field required"}},
				})
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantMsg:    `[{"msg":"field required"}]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := testutil.NewFakeBackend(t)
			fb.Handle("POST /ask", tt.handler)
			c := newTestClient(t, fb)

			_, err := c.Request(context.Background(), http.MethodPost, "/ask", []byte(`{}`), RequestOptions{})

			var he *internal.HTTPError
			require.ErrorAs(t, err, &he)
			assert.Equal(t, tt.wantStatus, he.StatusCode)
			assert.Equal(t, tt.wantMsg, he.Error())
		})
	}
}

func TestRequest_RejectsQueryInPath(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	c := newTestClient(t, fb)

	_, err := c.Request(context.Background(), http.MethodGet, "/health?x=1", nil, RequestOptions{})
	assert.Error(t, err)
	assert.Equal(t, 0, fb.Calls("GET /health"))
}

func TestAsk(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	c := newTestClient(t, fb)

	resp, err := c.Ask(context.Background(), "What is Go?", "chat_1")
	require.NoError(t, err)

	assert.Equal(t, "echo: What is Go?", resp.Answer)
	assert.Equal(t, []string{"doc.txt (score 0.90)"}, resp.Sources)
	assert.Equal(t, []string{"chat_1"}, fb.ChatIDs("POST /ask"))

	var sent map[string]string
	require.NoError(t, json.Unmarshal(fb.Bodies("POST /ask")[0], &sent))
	assert.Equal(t, map[string]string{"question": "What is Go?", "chat_id": "chat_1"}, sent)
}

func TestAsk_RetriesOnceAfterTimeout(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	fb.Handle("POST /ask", testutil.StallFirst(func(_ int, w http.ResponseWriter, _ *http.Request) {
		testutil.WriteJSON(w, http.StatusOK, map[string]any{"answer": "warm now"})
	}))
	c := newTestClient(t, fb)

	resp, err := c.Ask(context.Background(), "hello", "chat_1")
	require.NoError(t, err)

	assert.Equal(t, "warm now", resp.Answer)
	assert.Equal(t, 2, fb.Calls("POST /ask"))
	assert.Equal(t, 1, fb.Calls("GET /health"))
	assert.Equal(t, []string{"chat_1", "chat_1"}, fb.ChatIDs("POST /ask"))
}

func TestAsk_SecondTimeoutIsSurfaced(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	fb.Handle("POST /ask", testutil.Stall)
	c := newTestClient(t, fb)

	_, err := c.Ask(context.Background(), "hello", "chat_1")

	assert.True(t, internal.IsTimeout(err))
	assert.Equal(t, 2, fb.Calls("POST /ask"))
	assert.Equal(t, 1, fb.Calls("GET /health"))
}

func TestAsk_RetriesEvenIfWakeFails(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	fb.Handle("GET /health", testutil.Fail(http.StatusServiceUnavailable, "starting"))
	fb.Handle("POST /ask", testutil.StallFirst(func(_ int, w http.ResponseWriter, _ *http.Request) {
		testutil.WriteJSON(w, http.StatusOK, map[string]any{"answer": "ok"})
	}))
	c := newTestClient(t, fb)

	resp, err := c.Ask(context.Background(), "hello", "chat_1")
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Answer)
	assert.Equal(t, 2, fb.Calls("POST /ask"))
}

func TestAsk_NoRetryOnHTTPError(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	fb.Handle("POST /ask", testutil.Fail(http.StatusBadRequest, "bad question"))
	c := newTestClient(t, fb)

	_, err := c.Ask(context.Background(), "hello", "chat_1")

	var he *internal.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, "bad question", he.Detail)
	assert.Equal(t, 1, fb.Calls("POST /ask"))
	assert.Equal(t, 0, fb.Calls("GET /health"))
}

func TestAsk_EmptyBody(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	fb.Handle("POST /ask", func(_ int, w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	c := newTestClient(t, fb)

	resp, err := c.Ask(context.Background(), "hello", "chat_1")
	require.NoError(t, err)
	assert.Empty(t, resp.Answer)
	assert.Empty(t, resp.Sources)
}

func TestUpload(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	c := newTestClient(t, fb)

	file := FileUpload{Name: "notes.txt", Data: []byte("some plain text notes")}
	resp, err := c.Upload(context.Background(), file, "chat_9")
	require.NoError(t, err)

	assert.Equal(t, "notes.txt", resp.Filename)
	require.NotNil(t, resp.SizeBytes)
	assert.Equal(t, int64(len(file.Data)), *resp.SizeBytes)
	assert.Equal(t, []string{"chat_9"}, fb.ChatIDs("POST /upload"))

	body := string(fb.Bodies("POST /upload")[0])
	assert.Contains(t, body, `name="chat_id"`)
	assert.Contains(t, body, "chat_9")
	assert.Contains(t, body, "Content-Type: text/plain")
}

func TestUpload_RetriesOnceAfterTimeout(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	fb.Handle("POST /upload", testutil.StallFirst(func(_ int, w http.ResponseWriter, _ *http.Request) {
		testutil.WriteJSON(w, http.StatusOK, map[string]any{"filename": "a.md", "size_bytes": 3})
	}))
	c := newTestClient(t, fb)

	resp, err := c.Upload(context.Background(), FileUpload{Name: "a.md", Data: []byte("abc")}, "chat_1")
	require.NoError(t, err)
	assert.Equal(t, "a.md", resp.Filename)
	assert.Equal(t, 2, fb.Calls("POST /upload"))

	bodies := fb.Bodies("POST /upload")
	assert.Equal(t, bodies[0], bodies[1])
}

func TestUpload_TooLarge(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	c := newTestClient(t, fb)

	_, err := c.Upload(context.Background(), FileUpload{Name: "big.pdf", Data: make([]byte, MaxUploadSize+1)}, "chat_1")

	var he *internal.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusRequestEntityTooLarge, he.StatusCode)
	assert.Equal(t, 0, fb.Calls("POST /upload"))
}

func TestReadFileUpload(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	path := testutil.CreateFileFixture(t, dir, "doc.md", []byte("# Title"))

	file, err := ReadFileUpload(path)
	require.NoError(t, err)
	assert.Equal(t, "doc.md", file.Name)
	assert.Equal(t, []byte("# Title"), file.Data)

	_, err = ReadFileUpload(dir + "/missing.md")
	assert.Error(t, err)
}

func TestImportItems(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	c := newTestClient(t, fb)

	items := []internal.NormalizedItem{{ID: "a", Text: "alpha"}, {ID: "b", Text: "beta"}}
	resp, err := c.ImportItems(context.Background(), items, "chat_2")
	require.NoError(t, err)

	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, []string{"chat_2"}, fb.ChatIDs("POST /cms"))
	assert.JSONEq(t, `{"items":[{"id":"a","text":"alpha"},{"id":"b","text":"beta"}]}`, string(fb.Bodies("POST /cms")[0]))
}

func TestImportItems_NoRetryOnHTTPError(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	fb.Handle("POST /cms", testutil.Fail(http.StatusInternalServerError, "index unavailable"))
	c := newTestClient(t, fb)

	_, err := c.ImportItems(context.Background(), nil, "chat_2")
	assert.EqualError(t, err, "index unavailable")
	assert.Equal(t, 1, fb.Calls("POST /cms"))
	assert.JSONEq(t, `{"items":[]}`, string(fb.Bodies("POST /cms")[0]))
}

func TestPurge(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	c := newTestClient(t, fb)

	require.NoError(t, c.Purge(context.Background(), "chat_3"))
	assert.Equal(t, []string{"chat_3"}, fb.ChatIDs("DELETE /purge"))
	assert.Empty(t, fb.Bodies("DELETE /purge")[0])

	fb.Handle("DELETE /purge", testutil.Fail(http.StatusNotFound, "Not Found"))
	err := c.Purge(context.Background(), "chat_4")

	var pe *internal.PurgeError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "chat_4", pe.SessionID)
}

func TestHealth(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	c := newTestClient(t, fb)

	status, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, HealthStatus{OK: true, Backend: "fake", Collection: "docs", VectorDim: 384}, status)
}

func TestWake(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	c := newTestClient(t, fb)
	assert.True(t, c.Wake(context.Background()))

	fb.Handle("GET /health", testutil.Fail(http.StatusServiceUnavailable, "booting"))
	c.opts.WakeDelay = 50 * time.Millisecond
	start := time.Now()
	assert.False(t, c.Wake(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestWake_CancelledDuringDelay(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	fb.Handle("GET /health", testutil.Fail(http.StatusServiceUnavailable, "booting"))
	c := newTestClient(t, fb)
	c.opts.WakeDelay = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.False(t, c.Wake(ctx))
}

func TestLoggingRoundTripper_SetsRequestID(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	ids := make(chan string, 1)
	fb.Handle("GET /health", func(_ int, w http.ResponseWriter, r *http.Request) {
		ids <- r.Header.Get("X-Request-Id")
		w.WriteHeader(http.StatusOK)
	})
	c := newTestClient(t, fb)

	_, err := c.Request(context.Background(), http.MethodGet, "/health", nil, RequestOptions{})
	require.NoError(t, err)
	seen := <-ids
	assert.Len(t, seen, 36)
	assert.Equal(t, 4, strings.Count(seen, "-"))
}
