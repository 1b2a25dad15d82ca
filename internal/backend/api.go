package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/iksnae/wakechat/internal"
)

// MaxUploadSize is the largest file the backend accepts
const MaxUploadSize = 20 * 1024 * 1024

type askRequest struct {
	Question string `json:"question"`
	ChatID   string `json:"chat_id,omitempty"`
}

// AskResponse is the backend's answer to a question
type AskResponse struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources,omitempty"`
}

// UploadResponse describes an indexed file
type UploadResponse struct {
	Filename  string `json:"filename"`
	SizeBytes *int64 `json:"size_bytes,omitempty"`
	Chunks    int    `json:"chunks"`
}

// ImportResponse reports how many fragments were indexed
type ImportResponse struct {
	Count int `json:"count"`
}

// HealthStatus is the backend's /health document
type HealthStatus struct {
	OK         bool   `json:"ok"`
	Backend    string `json:"backend"`
	Collection string `json:"collection"`
	VectorDim  int    `json:"vector_dim"`
	Reranker   bool   `json:"reranker"`
}

// FileUpload is a local file to index
type FileUpload struct {
	Name string
	Data []byte
}

// ReadFileUpload loads a file from disk
func ReadFileUpload(path string) (FileUpload, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileUpload{}, err
	}
	if info.Size() > MaxUploadSize {
		return FileUpload{}, tooLarge()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return FileUpload{}, err
	}
	return FileUpload{Name: filepath.Base(path), Data: data}, nil
}

func tooLarge() error {
	return &internal.HTTPError{
		StatusCode: http.StatusRequestEntityTooLarge,
		Detail:     fmt.Sprintf("File too large (max %d MB)", MaxUploadSize/(1024*1024)),
	}
}

// Ask sends a question scoped to sessionID. A timeout triggers one wake and one retry.
func (c *Client) Ask(ctx context.Context, question, sessionID string) (AskResponse, error) {
	payload, err := json.Marshal(askRequest{Question: question, ChatID: sessionID})
	if err != nil {
		return AskResponse{}, err
	}

	var out AskResponse
	err = c.withWakeRetry(ctx, "ask", func() error {
		data, err := c.Request(ctx, http.MethodPost, "/ask", payload, RequestOptions{
			SessionID:   sessionID,
			Timeout:     c.opts.AskTimeout,
			ContentType: "application/json",
		})
		if err != nil {
			return err
		}
		out = AskResponse{}
		return decodeBody(data, &out)
	})
	if err != nil {
		return AskResponse{}, err
	}
	return out, nil
}

// Upload indexes a document for sessionID as multipart file + chat_id fields
func (c *Client) Upload(ctx context.Context, file FileUpload, sessionID string) (UploadResponse, error) {
	if len(file.Data) > MaxUploadSize {
		return UploadResponse{}, tooLarge()
	}
	body, contentType, err := multipartBody(file, sessionID)
	if err != nil {
		return UploadResponse{}, err
	}

	var out UploadResponse
	err = c.withWakeRetry(ctx, "upload", func() error {
		data, err := c.Request(ctx, http.MethodPost, "/upload", body, RequestOptions{
			SessionID:   sessionID,
			Timeout:     c.opts.UploadTimeout,
			ContentType: contentType,
		})
		if err != nil {
			return err
		}
		out = UploadResponse{}
		return decodeBody(data, &out)
	})
	if err != nil {
		return UploadResponse{}, err
	}
	if out.Filename == "" {
		out.Filename = file.Name
	}
	return out, nil
}

func multipartBody(file FileUpload, sessionID string) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, file.Name))
	h.Set("Content-Type", mimetype.Detect(file.Data).String())
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("chat_id", sessionID); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// ImportItems indexes normalized fragments for sessionID
func (c *Client) ImportItems(ctx context.Context, items []internal.NormalizedItem, sessionID string) (ImportResponse, error) {
	if items == nil {
		items = []internal.NormalizedItem{}
	}
	payload, err := json.Marshal(struct {
		Items []internal.NormalizedItem `json:"items"`
	}{Items: items})
	if err != nil {
		return ImportResponse{}, err
	}

	var out ImportResponse
	err = c.withWakeRetry(ctx, "import", func() error {
		data, err := c.Request(ctx, http.MethodPost, "/cms", payload, RequestOptions{
			SessionID:   sessionID,
			Timeout:     c.opts.UploadTimeout,
			ContentType: "application/json",
		})
		if err != nil {
			return err
		}
		out = ImportResponse{}
		return decodeBody(data, &out)
	})
	if err != nil {
		return ImportResponse{}, err
	}
	return out, nil
}

// Purge asks the backend to forget everything scoped to sessionID
func (c *Client) Purge(ctx context.Context, sessionID string) error {
	_, err := c.Request(ctx, http.MethodDelete, "/purge", nil, RequestOptions{
		SessionID: sessionID,
		Timeout:   c.opts.AskTimeout,
	})
	if err != nil {
		return &internal.PurgeError{SessionID: sessionID, Err: err}
	}
	return nil
}

// Health fetches the backend's /health document
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	data, err := c.Request(ctx, http.MethodGet, "/health", nil, RequestOptions{Timeout: c.opts.WakeTimeout})
	if err != nil {
		return HealthStatus{}, err
	}
	var out HealthStatus
	if err := decodeBody(data, &out); err != nil {
		return HealthStatus{}, err
	}
	return out, nil
}

// Wake probes /health so a sleeping host spins up. It reports true on any 2xx;
// otherwise it pauses for the wake delay and reports false. It never fails.
func (c *Client) Wake(ctx context.Context) bool {
	start := time.Now()
	_, err := c.Request(ctx, http.MethodGet, "/health", nil, RequestOptions{Timeout: c.opts.WakeTimeout})
	if err == nil {
		internal.LogDebug("Backend awake after %s", time.Since(start).Round(time.Millisecond))
		return true
	}
	internal.LogDebug("Wake probe failed: %v", err)

	timer := time.NewTimer(c.opts.WakeDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
	return false
}
