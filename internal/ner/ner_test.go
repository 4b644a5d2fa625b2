package ner

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClassifyReturnsSpans(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/classify" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"spans": []Span{{Start: 0, End: 10, Label: "PERSON", Text: req.Text[:10]}},
		})
	}))
	defer server.Close()

	client := New(server.URL, nil)
	spans, err := client.Classify("John Smith paid $40")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if len(spans) != 1 || spans[0].Label != "PERSON" {
		t.Errorf("unexpected spans: %+v", spans)
	}
}

func TestClassifyUnreachableSidecarDegrades(t *testing.T) {
	client := New("http://127.0.0.1:1", nil)

	spans, err := client.Classify("anything")
	if err != nil {
		t.Fatalf("unreachable sidecar must not error, got %v", err)
	}
	if spans != nil {
		t.Errorf("unreachable sidecar must yield no spans, got %+v", spans)
	}
}

func TestClassifyBadStatusDegrades(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := New(server.URL, nil)
	spans, err := client.Classify("anything")
	if err != nil {
		t.Fatalf("bad status must not error, got %v", err)
	}
	if spans != nil {
		t.Errorf("bad status must yield no spans, got %+v", spans)
	}
}
