package openie

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestExtractFacts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/annotate" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected auth header: %q", got)
		}
		var req struct {
			Text       string `json:"text"`
			Annotators string `json:"annotators"`
			Threads    int    `json:"threads"`
			Memory     string `json:"memory"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if req.Annotators != "openie" {
			t.Errorf("unexpected annotators: %q", req.Annotators)
		}
		if req.Threads != 4 || req.Memory != "6G" {
			t.Errorf("resource hints not forwarded: threads=%d memory=%q", req.Threads, req.Memory)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"sentences": [{"openie": [
			{"subject": "doctor", "relation": "treated", "object": "patient"},
			{"subject": "doctor", "relation": "saw", "object": "patient"}
		]}]}`))
	}))
	defer server.Close()

	client, err := NewClient(NewClientParams{BaseURL: server.URL, APIKey: "secret"})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	facts, err := client.ExtractFacts(context.Background(), "The doctor treated the patient.", 4, "6G")
	if err != nil {
		t.Fatalf("ExtractFacts failed: %v", err)
	}
	if len(facts) != 2 {
		t.Fatalf("expected 2 facts, got %d", len(facts))
	}
	if facts[0].Subject != "doctor" || facts[0].Relation != "treated" || facts[0].Object != "patient" {
		t.Fatalf("unexpected fact: %+v", facts[0])
	}
}

func TestExtractFactsNoFacts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"sentences": [{"openie": []}]}`))
	}))
	defer server.Close()

	client, err := NewClient(NewClientParams{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	facts, err := client.ExtractFacts(context.Background(), "However.", 0, "")
	if err != nil {
		t.Fatalf("ExtractFacts failed: %v", err)
	}
	if len(facts) != 0 {
		t.Fatalf("expected no facts, got %d", len(facts))
	}
}

func TestExtractFactsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "annotator crashed", http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := NewClient(NewClientParams{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	if _, err := client.ExtractFacts(context.Background(), "text", 0, ""); err == nil {
		t.Fatal("expected an error on server failure")
	}
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient(NewClientParams{}); err == nil {
		t.Fatal("expected an error for a missing base URL")
	}
}
