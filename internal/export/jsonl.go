package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/iksnae/wakechat/internal"
)

// JSONLExporter exports sessions in JSONL format (one message per line)
type JSONLExporter struct{}

type jsonlLine struct {
	Session string          `json:"session"`
	Index   int             `json:"index"`
	Sender  internal.Sender `json:"sender"`
	Text    string          `json:"text"`
}

// Export exports a session to JSONL format
func (e *JSONLExporter) Export(session *internal.Session, w io.Writer) error {
	enc := json.NewEncoder(w)

	for i, msg := range session.Messages {
		line := jsonlLine{Session: session.ID, Index: i, Sender: msg.Sender, Text: msg.Text}
		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("failed to encode message %d: %w", i, err)
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
