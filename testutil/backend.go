package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// HandlerFunc handles the n-th (1-based) call to one route of the fake backend
type HandlerFunc func(n int, w http.ResponseWriter, r *http.Request)

// FakeBackend is an httptest server speaking the question-answering backend contract
type FakeBackend struct {
	Server *httptest.Server

	mu       sync.Mutex
	handlers map[string]HandlerFunc
	calls    map[string]int
	chatIDs  map[string][]string
	bodies   map[string][][]byte
}

// NewFakeBackend starts a backend with healthy default handlers for every route
func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()
	fb := &FakeBackend{
		handlers: map[string]HandlerFunc{
			"GET /health":   healthOK,
			"POST /ask":     askEcho,
			"POST /upload":  uploadOK,
			"POST /cms":     cmsCount,
			"DELETE /purge": purgeOK,
		},
		calls:   make(map[string]int),
		chatIDs: make(map[string][]string),
		bodies:  make(map[string][][]byte),
	}
	fb.Server = httptest.NewServer(http.HandlerFunc(fb.serve))
	t.Cleanup(fb.Server.Close)
	return fb
}

// URL returns the base address of the fake backend
func (fb *FakeBackend) URL() string {
	return fb.Server.URL
}

// Handle replaces the handler for a route such as "POST /ask"
func (fb *FakeBackend) Handle(route string, h HandlerFunc) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.handlers[route] = h
}

// Calls returns how many requests a route received
func (fb *FakeBackend) Calls(route string) int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.calls[route]
}

// ChatIDs returns the X-Chat-Id header of every request to a route
func (fb *FakeBackend) ChatIDs(route string) []string {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]string(nil), fb.chatIDs[route]...)
}

// Bodies returns the raw request bodies received by a route
func (fb *FakeBackend) Bodies(route string) [][]byte {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([][]byte(nil), fb.bodies[route]...)
}

func (fb *FakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	route := r.Method + " " + r.URL.Path
	body, _ := io.ReadAll(r.Body)
	r.Body = io.NopCloser(bytes.NewReader(body))

	fb.mu.Lock()
	fb.calls[route]++
	n := fb.calls[route]
	fb.chatIDs[route] = append(fb.chatIDs[route], r.Header.Get("X-Chat-Id"))
	fb.bodies[route] = append(fb.bodies[route], body)
	h, ok := fb.handlers[route]
	fb.mu.Unlock()

	if !ok {
		WriteJSON(w, http.StatusNotFound, map[string]any{"detail": "Not Found"})
		return
	}
	h(n, w, r)
}

// Stall blocks until the client gives up on the request
func Stall(_ int, _ http.ResponseWriter, r *http.Request) {
	select {
	case <-r.Context().Done():
	case <-time.After(10 * time.Second):
	}
}

// Fail responds with a {detail} error body
func Fail(status int, detail string) HandlerFunc {
	return func(_ int, w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, status, map[string]any{"detail": detail})
	}
}

// StallFirst stalls the first call and delegates later calls to next
func StallFirst(next HandlerFunc) HandlerFunc {
	return func(n int, w http.ResponseWriter, r *http.Request) {
		if n == 1 {
			Stall(n, w, r)
			return
		}
		next(n, w, r)
	}
}

// WriteJSON writes v as a JSON response
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func healthOK(_ int, w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"ok":         true,
		"backend":    "fake",
		"collection": "docs",
		"vector_dim": 384,
		"reranker":   false,
	})
}

func askEcho(_ int, w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": "invalid body"})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"answer":  "echo: " + req.Question,
		"sources": []string{"doc.txt (score 0.90)"},
	})
}

func uploadOK(_ int, w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		WriteJSON(w, http.StatusBadRequest, map[string]any{"detail": "invalid multipart body"})
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		WriteJSON(w, http.StatusBadRequest, map[string]any{"detail": "Missing file"})
		return
	}
	defer file.Close()
	data, _ := io.ReadAll(file)
	WriteJSON(w, http.StatusOK, map[string]any{
		"ok":         true,
		"filename":   header.Filename,
		"size_bytes": len(data),
		"chunks":     1,
	})
}

func cmsCount(_ int, w http.ResponseWriter, r *http.Request) {
	var req struct {
		Items []struct {
			ID   string `json:"id"`
			Text string `json:"text"`
		} `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": "invalid body"})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "count": len(req.Items)})
}

func purgeOK(_ int, w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true})
}
