package internal

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/iksnae/wakechat/testutil"
)

func TestSessionCollection_AddRemove(t *testing.T) {
	c := NewSessionCollection()

	if err := c.Add(Session{ID: "a", Title: "Chat 1"}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := c.Add(Session{ID: "b", Title: "Chat 2"}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := c.Add(Session{ID: "a"}); err == nil {
		t.Error("Add() accepted a duplicate id")
	}
	if err := c.Add(Session{}); err == nil {
		t.Error("Add() accepted an empty id")
	}

	if got := c.IDs(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("IDs() = %v, want [a b]", got)
	}

	if err := c.SetActive("a"); err != nil {
		t.Fatalf("SetActive() error = %v", err)
	}
	if !c.Remove("a") {
		t.Fatal("Remove() = false, want true")
	}
	if c.Remove("a") {
		t.Error("Remove() of a missing id = true")
	}
	if c.ActiveID() != "a" {
		t.Errorf("Remove() changed the active id to %q", c.ActiveID())
	}
	if first, _ := c.First(); first != "b" {
		t.Errorf("First() = %q, want b", first)
	}
}

func TestSessionCollection_SetActiveUnknown(t *testing.T) {
	c := NewSessionCollection()
	err := c.SetActive("ghost")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("SetActive() error = %v, want ErrSessionNotFound", err)
	}
	if err := c.SetActive(""); err != nil {
		t.Errorf("SetActive(\"\") error = %v", err)
	}
}

func TestSessionCollection_MarshalJSON(t *testing.T) {
	c := NewSessionCollection()
	_ = c.Add(Session{ID: "z", Title: "Chat 2", Messages: []Message{UserMessage("hi")}})
	_ = c.Add(Session{ID: "a", Title: "Chat 1"})
	_ = c.SetActive("a")

	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"chats":{"z":{"title":"Chat 2","messages":[{"text":"hi","sender":"user"}]},` +
		`"a":{"title":"Chat 1","messages":[]}},"currentChatId":"a"}`
	if string(data) != want {
		t.Errorf("Marshal() = %s\nwant %s", data, want)
	}

	empty, _ := json.Marshal(NewSessionCollection())
	if string(empty) != `{"chats":{},"currentChatId":null}` {
		t.Errorf("Marshal(empty) = %s", empty)
	}
}

func TestSessionCollection_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantIDs    []string
		wantActive string
		wantErr    bool
	}{
		{
			name:       "sample state keeps display order",
			input:      testutil.SampleState,
			wantIDs:    []string{"chat_b", "chat_a"},
			wantActive: "chat_a",
		},
		{
			name:       "unknown active id is cleared",
			input:      `{"chats":{"x":{"title":"t","messages":[]}},"currentChatId":"y"}`,
			wantIDs:    []string{"x"},
			wantActive: "",
		},
		{
			name:       "malformed entries are skipped",
			input:      `{"chats":{"x":5,"y":{"title":"ok"}},"currentChatId":"y"}`,
			wantIDs:    []string{"y"},
			wantActive: "y",
		},
		{
			name:       "null chats",
			input:      `{"chats":null,"currentChatId":null}`,
			wantIDs:    []string{},
			wantActive: "",
		},
		{name: "not an object", input: `[1,2]`, wantErr: true},
		{name: "chats not an object", input: `{"chats":[]}`, wantErr: true},
		{name: "invalid json", input: `{"chats":`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewSessionCollection()
			err := json.Unmarshal([]byte(tt.input), c)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got := c.IDs(); !reflect.DeepEqual(got, tt.wantIDs) {
				t.Errorf("IDs() = %v, want %v", got, tt.wantIDs)
			}
			if c.ActiveID() != tt.wantActive {
				t.Errorf("ActiveID() = %q, want %q", c.ActiveID(), tt.wantActive)
			}
		})
	}
}

func TestSessionCollection_UnmarshalSenders(t *testing.T) {
	input := `{"chats":{"x":{"title":"t","messages":[` +
		`{"text":"q","sender":"user"},{"text":"a","sender":"bot"},{"text":"b"},"junk"]}},"currentChatId":"x"}`

	c := NewSessionCollection()
	if err := json.Unmarshal([]byte(input), c); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	s, _ := c.Get("x")
	want := []Message{UserMessage("q"), AssistantMessage("a"), AssistantMessage("b")}
	if !reflect.DeepEqual(s.Messages, want) {
		t.Errorf("Messages = %+v, want %+v", s.Messages, want)
	}
}
