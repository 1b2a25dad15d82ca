package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/iksnae/wakechat/internal"
)

// Exporter writes one chat session in a given format
type Exporter interface {
	Export(session *internal.Session, w io.Writer) error
	Extension() string
}

// NewExporter creates a new exporter based on format
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "jsonl":
		return &JSONLExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "yaml", "yml":
		return &YAMLExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: jsonl, md, yaml, json)", format)
	}
}

// document is the structured export shape shared by the JSON and YAML exporters
type document struct {
	ID           string             `json:"id" yaml:"id"`
	Title        string             `json:"title" yaml:"title"`
	MessageCount int                `json:"message_count" yaml:"message_count"`
	Messages     []internal.Message `json:"messages" yaml:"messages"`
}

func newDocument(session *internal.Session) document {
	msgs := session.Messages
	if msgs == nil {
		msgs = []internal.Message{}
	}
	return document{
		ID:           session.ID,
		Title:        session.DisplayTitle(),
		MessageCount: len(msgs),
		Messages:     msgs,
	}
}

// FileName returns "<session id>.<ext>" for an exporter
func FileName(session *internal.Session, e Exporter) string {
	return session.ID + "." + e.Extension()
}

// ExportToFile writes the session to path, creating parent directories
func ExportToFile(e Exporter, session *internal.Session, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return &internal.ExportError{Format: e.Extension(), Path: path, Err: err}
	}
	f, err := os.Create(path)
	if err != nil {
		return &internal.ExportError{Format: e.Extension(), Path: path, Err: err}
	}
	if err := e.Export(session, f); err != nil {
		_ = f.Close()
		return &internal.ExportError{Format: e.Extension(), Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &internal.ExportError{Format: e.Extension(), Path: path, Err: err}
	}
	return nil
}
