package fal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kirillkom/ai-closet/internal/core/domain"
)

type falServer struct {
	*httptest.Server
	statuses    []string
	statusCalls atomic.Int32
	resultURL   string

	mu        sync.Mutex
	submitted map[string]any
}

func (fs *falServer) payload() map[string]any {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.submitted
}

func newFalServer(t *testing.T, statuses []string, resultURL string) *falServer {
	t.Helper()
	fs := &falServer{statuses: statuses, resultURL: resultURL}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Key secret" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/submit":
			var payload map[string]any
			_ = json.NewDecoder(r.Body).Decode(&payload)
			fs.mu.Lock()
			fs.submitted = payload
			fs.mu.Unlock()
			_ = json.NewEncoder(w).Encode(map[string]string{
				"request_id":   "req-1",
				"status_url":   fs.URL + "/status",
				"response_url": fs.URL + "/result",
			})
		case "/status":
			idx := int(fs.statusCalls.Add(1)) - 1
			if idx >= len(fs.statuses) {
				idx = len(fs.statuses) - 1
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"status": fs.statuses[idx]})
		case "/result":
			_ = json.NewEncoder(w).Encode(map[string]any{"image": map[string]string{"url": fs.resultURL}})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(fs.Close)
	return fs
}

func (fs *falServer) client(maxAttempts int) *Client {
	return New("secret", Options{
		Endpoint:     fs.URL + "/submit",
		PollInterval: time.Millisecond,
		MaxAttempts:  maxAttempts,
	})
}

func TestRemoveBackgroundCompleted(t *testing.T) {
	fs := newFalServer(t, []string{"IN_QUEUE", "IN_PROGRESS", "COMPLETED"}, "https://fal.media/out.png")

	result, err := fs.client(10).RemoveBackground(context.Background(), "https://img/in.jpg")
	if err != nil {
		t.Fatalf("RemoveBackground() error = %v", err)
	}
	if result.Outcome != domain.JobCompleted || result.ImageURL != "https://fal.media/out.png" {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.Attempts != 3 {
		t.Fatalf("expected 3 status polls, got %d", result.Attempts)
	}
	payload := fs.payload()
	if payload["image_url"] != "https://img/in.jpg" || payload["output_format"] != "png" || payload["refine_foreground"] != true {
		t.Fatalf("unexpected submit payload %+v", payload)
	}
}

func TestRemoveBackgroundCancelled(t *testing.T) {
	fs := newFalServer(t, []string{"IN_QUEUE", "CANCELLED"}, "")

	result, err := fs.client(10).RemoveBackground(context.Background(), "https://img/in.jpg")
	if err != nil {
		t.Fatalf("RemoveBackground() error = %v", err)
	}
	if result.Outcome != domain.JobFailed || result.Status != "CANCELLED" {
		t.Fatalf("unexpected result %+v", result)
	}
	if !strings.Contains(result.Err().Error(), "CANCELLED") {
		t.Fatalf("unexpected message %v", result.Err())
	}
}

func TestRemoveBackgroundExhausted(t *testing.T) {
	fs := newFalServer(t, []string{"IN_PROGRESS"}, "")

	result, err := fs.client(4).RemoveBackground(context.Background(), "https://img/in.jpg")
	if err != nil {
		t.Fatalf("RemoveBackground() error = %v", err)
	}
	if result.Outcome != domain.JobExhausted || result.Attempts != 4 {
		t.Fatalf("unexpected result %+v", result)
	}
	if got := fs.statusCalls.Load(); got != 4 {
		t.Fatalf("expected 4 status calls, got %d", got)
	}
}

func TestRemoveBackgroundMissingResultURL(t *testing.T) {
	fs := newFalServer(t, []string{"COMPLETED"}, "")

	result, err := fs.client(4).RemoveBackground(context.Background(), "https://img/in.jpg")
	if err != nil {
		t.Fatalf("RemoveBackground() error = %v", err)
	}
	if result.Err() == nil || !strings.Contains(result.Err().Error(), "no image URL") {
		t.Fatalf("expected missing url error, got %v", result.Err())
	}
}

func TestRemoveBackgroundSubmitRejected(t *testing.T) {
	fs := newFalServer(t, []string{"COMPLETED"}, "")
	client := New("wrong", Options{Endpoint: fs.URL + "/submit", PollInterval: time.Millisecond})

	_, err := client.RemoveBackground(context.Background(), "https://img/in.jpg")
	if err == nil || !strings.Contains(err.Error(), "unauthorized") {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("401 must not be temporary: %v", err)
	}
}
