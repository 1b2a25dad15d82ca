package export

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/iksnae/wakechat/internal"
)

func TestJSONExporter_Export(t *testing.T) {
	tests := []struct {
		name      string
		session   *internal.Session
		wantTitle string
		wantCount int
	}{
		{
			name:      "basic session",
			session:   internal.CreateTestSession("test1"),
			wantTitle: "Test Conversation",
			wantCount: 2,
		},
		{
			name:      "empty session",
			session:   internal.CreateTestSessionWithMessages("test2", nil),
			wantTitle: "Test Conversation",
			wantCount: 0,
		},
		{
			name:      "blank title",
			session:   &internal.Session{ID: "test3", Title: "  ", Messages: []internal.Message{internal.UserMessage("Hello")}},
			wantTitle: "(untitled)",
			wantCount: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			exporter := &JSONExporter{}

			if err := exporter.Export(tt.session, &buf); err != nil {
				t.Fatalf("JSONExporter.Export() error = %v", err)
			}

			var doc struct {
				ID           string             `json:"id"`
				Title        string             `json:"title"`
				MessageCount int                `json:"message_count"`
				Messages     []internal.Message `json:"messages"`
			}
			if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
				t.Fatalf("JSONExporter.Export() output is not valid JSON: %v", err)
			}

			if doc.ID != tt.session.ID {
				t.Errorf("id = %q, want %q", doc.ID, tt.session.ID)
			}
			if doc.Title != tt.wantTitle {
				t.Errorf("title = %q, want %q", doc.Title, tt.wantTitle)
			}
			if doc.MessageCount != tt.wantCount || len(doc.Messages) != tt.wantCount {
				t.Errorf("message_count = %d, messages = %d, want %d", doc.MessageCount, len(doc.Messages), tt.wantCount)
			}
			if doc.Messages == nil {
				t.Error("messages encoded as null, want []")
			}
		})
	}
}

func TestJSONExporter_Extension(t *testing.T) {
	exporter := &JSONExporter{}
	if got := exporter.Extension(); got != "json" {
		t.Errorf("JSONExporter.Extension() = %v, want json", got)
	}
}
