package chatclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func sseServer(t *testing.T, frames ...string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat" {
			http.NotFound(w, r)
			return
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode chat request: %v", err)
		}
		if body["message"] == "" || body["sessionId"] == "" {
			t.Errorf("chat request missing fields: %v", body)
		}

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, frame := range frames {
			fmt.Fprintf(w, "data: %s\n\n", frame)
			flusher.Flush()
		}
	}))
}

func TestSendMessageFinalizesSuccess(t *testing.T) {
	server := sseServer(t,
		`{"content":"Hel"}`,
		`{"content":"lo"}`,
		`{"usage":{"promptTokens":5,"completionTokens":2,"totalTokens":7}}`,
	)
	defer server.Close()

	var deltaSnapshots []string
	client := New(server.URL, nil, func(messages []Message) {
		for _, msg := range messages {
			if msg.ID == PlaceholderID {
				deltaSnapshots = append(deltaSnapshots, msg.Content)
			}
		}
	})

	usage, err := client.SendMessage(context.Background(), "s1", "u1", "Hello")
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if usage == nil || usage.TotalTokens != 7 {
		t.Fatalf("expected usage returned, got %+v", usage)
	}

	messages := client.Messages()
	if len(messages) != 2 {
		t.Fatalf("expected user + finalized assistant, got %+v", messages)
	}
	final := messages[1]
	if final.ID == PlaceholderID {
		t.Fatal("placeholder must be replaced, not kept")
	}
	if final.Content != "Hello" || final.Status != StatusSuccess {
		t.Fatalf("unexpected finalized message: %+v", final)
	}
	if final.Usage == nil || final.Usage.CompletionTokens != 2 {
		t.Fatalf("usage not attached: %+v", final.Usage)
	}

	// Each delta updated the in-flight placeholder incrementally.
	sawPartial := false
	for _, snapshot := range deltaSnapshots {
		if snapshot == "Hel" {
			sawPartial = true
		}
	}
	if !sawPartial {
		t.Fatalf("expected an intermediate delta render, snapshots: %v", deltaSnapshots)
	}
}

func TestSendMessageEmptyResponse(t *testing.T) {
	server := sseServer(t) // stream closes with no envelopes
	defer server.Close()

	client := New(server.URL, nil, nil)
	usage, err := client.SendMessage(context.Background(), "s1", "", "Hello")
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if usage != nil {
		t.Fatalf("expected no usage, got %+v", usage)
	}

	messages := client.Messages()
	final := messages[len(messages)-1]
	if final.Status != StatusError || final.Content != EmptyResponseText {
		t.Fatalf("expected empty-response finalization, got %+v", final)
	}
}

func TestSendMessageDiscardsDeltasOnErrorEnvelope(t *testing.T) {
	server := sseServer(t,
		`{"content":"par"}`,
		`{"content":"tial"}`,
		`{"error":"Stream interrupted"}`,
	)
	defer server.Close()

	client := New(server.URL, nil, nil)
	if _, err := client.SendMessage(context.Background(), "s1", "", "Hello"); err == nil {
		t.Fatal("expected error from error envelope")
	}

	messages := client.Messages()
	final := messages[len(messages)-1]
	if final.Status != StatusError || final.Content != InterruptedText {
		t.Fatalf("expected interrupted finalization, got %+v", final)
	}
	for _, msg := range messages {
		if msg.ID == PlaceholderID {
			t.Fatalf("placeholder must not survive finalization: %+v", messages)
		}
		if msg.Content == "partial" {
			t.Fatalf("partial deltas must be discarded: %+v", messages)
		}
	}
}

func TestSendMessageSkipsUnparseableLines(t *testing.T) {
	server := sseServer(t,
		`{"content":"ok"}`,
		`{not json`,
		`{"content":"!"}`,
		`{"usage":{"promptTokens":1,"completionTokens":1,"totalTokens":2}}`,
	)
	defer server.Close()

	client := New(server.URL, nil, nil)
	if _, err := client.SendMessage(context.Background(), "s1", "", "Hello"); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	messages := client.Messages()
	final := messages[len(messages)-1]
	if final.Content != "ok!" {
		t.Fatalf("expected malformed line skipped, got %+v", final)
	}
}

func TestSendMessageServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	client := New(server.URL, nil, nil)
	if _, err := client.SendMessage(context.Background(), "s1", "", "Hello"); err == nil {
		t.Fatal("expected error on 500 response")
	}

	final := client.Messages()[1]
	if final.Status != StatusError || final.Content != InterruptedText {
		t.Fatalf("expected interrupted finalization, got %+v", final)
	}
}

func TestLoadAndClearMessages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/messages":
			if r.URL.Query().Get("sessionId") != "s1" {
				t.Errorf("missing sessionId query: %s", r.URL.RawQuery)
			}
			fmt.Fprint(w, `{"messages":[{"id":"m1","role":"user","content":"hi"},{"id":"m2","role":"assistant","content":"hello"}]}`)
		case "/clear":
			fmt.Fprint(w, `{"success":true}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := New(server.URL, nil, nil)
	if err := client.LoadMessages(context.Background(), "s1"); err != nil {
		t.Fatalf("LoadMessages failed: %v", err)
	}
	if messages := client.Messages(); len(messages) != 2 || messages[1].Content != "hello" {
		t.Fatalf("unexpected loaded messages: %+v", messages)
	}

	if err := client.ClearMessages(context.Background(), "s1"); err != nil {
		t.Fatalf("ClearMessages failed: %v", err)
	}
	if messages := client.Messages(); len(messages) != 0 {
		t.Fatalf("expected empty list after clear, got %+v", messages)
	}
}
