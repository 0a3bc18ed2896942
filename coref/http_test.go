package coref_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/colloquy-ai/colloquy/coref"
)

func TestHTTPRecognizerNormalizesLabels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/entities" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"entities": []map[string]string{
				{"text": "Alan Turing", "label": "PER"},
				{"text": "Bletchley Park", "label": "GPE"},
				{"text": "IBM", "label": "ORG"},
				{"text": "1912", "label": "DATE"},
			},
		})
	}))
	defer srv.Close()

	rec := coref.NewHTTPRecognizer(srv.URL, time.Second)
	entities, err := rec.Recognize(context.Background(), "some text")
	if err != nil {
		t.Fatalf("recognize: %v", err)
	}

	want := []coref.Entity{
		{Text: "Alan Turing", Category: coref.CategoryPerson},
		{Text: "Bletchley Park", Category: coref.CategoryLocation},
		{Text: "IBM", Category: coref.CategoryOrganization},
		{Text: "1912", Category: "DATE"},
	}
	if len(entities) != len(want) {
		t.Fatalf("len = %d, want %d", len(entities), len(want))
	}
	for i := range want {
		if entities[i] != want[i] {
			t.Errorf("entity %d = %+v, want %+v", i, entities[i], want[i])
		}
	}
}

func TestHTTPRecognizerServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	rec := coref.NewHTTPRecognizer(srv.URL, time.Second)
	if _, err := rec.Recognize(context.Background(), "x"); err == nil {
		t.Error("want error on 500 response")
	}
}
