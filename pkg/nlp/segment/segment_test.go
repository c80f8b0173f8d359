package segment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSegmentSentences(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/segment" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if req.Text != "First. Second." {
			t.Errorf("unexpected text: %q", req.Text)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"sentences": [{"text": "First."}, {"text": "Second."}]}`))
	}))
	defer server.Close()

	client, err := NewClient(NewClientParams{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	spans, err := client.SegmentSentences(context.Background(), "First. Second.")
	if err != nil {
		t.Fatalf("SegmentSentences failed: %v", err)
	}
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].Text != "First." || spans[1].Text != "Second." {
		t.Fatalf("unexpected spans: %+v", spans)
	}
}

func TestSegmentSentencesEmptyInput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should be made for empty input")
	}))
	defer server.Close()

	client, err := NewClient(NewClientParams{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	spans, err := client.SegmentSentences(context.Background(), "")
	if err != nil {
		t.Fatalf("SegmentSentences failed: %v", err)
	}
	if len(spans) != 0 {
		t.Fatalf("expected no spans, got %d", len(spans))
	}
}

func TestSegmentSentencesServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := NewClient(NewClientParams{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	if _, err := client.SegmentSentences(context.Background(), "text"); err == nil {
		t.Fatal("expected an error on server failure")
	}
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient(NewClientParams{}); err == nil {
		t.Fatal("expected an error for a missing base URL")
	}
}
