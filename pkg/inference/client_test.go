package inference

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestTranscribeFromURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Fatalf("missing bearer auth: %q", r.Header.Get("Authorization"))
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["audio_file_url"] != "https://example.com/a.webm" {
			t.Fatalf("unexpected body: %+v", body)
		}
		json.NewEncoder(w).Encode(TranscriptionResult{
			Text:  "hello world",
			Words: []Word{{Word: "hello", Start: 0, End: 0.5}, {Word: "world", Start: 0.5, End: 1.0}},
		})
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, APIKey: "test-key", RetryAttempts: 1})
	result, err := c.TranscribeFromURL(context.Background(), "https://example.com/a.webm", "whisper-1", "en", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Words) != 2 {
		t.Fatalf("expected 2 words, got %d", len(result.Words))
	}
}

func TestRetryOnlyTransient(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, APIKey: "k", RetryAttempts: 3, RetryMin: time.Millisecond, RetryMax: 5 * time.Millisecond})
	_, err := c.Diarize(context.Background(), "https://example.com/a.mp3", 0)
	if err == nil {
		t.Fatal("expected error")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected exactly 1 call for a non-retryable 400, got %d", got)
	}
}

func TestRetriesTransientStatus(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"diarization": []DiarizationSegment{{Start: 0, End: 1, Speaker: 0}}})
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, APIKey: "k", RetryAttempts: 5, RetryMin: time.Millisecond, RetryMax: 5 * time.Millisecond})
	segs, err := c.Diarize(context.Background(), "https://example.com/a.mp3", 0)
	if err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if len(segs) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segs))
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("expected 3 calls, got %d", got)
	}
}
