package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestBatcher_ResultsInInputOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Slow down early requests so completion order differs from
		// input order
		n := r.URL.Query().Get("n")
		if n == "0" {
			time.Sleep(50 * time.Millisecond)
		}
		fmt.Fprintf(w, "resp-%s", n)
	}))
	defer srv.Close()

	requests := make([]Request, 4)
	for i := range requests {
		requests[i] = Request{
			ID:    fmt.Sprintf("req-%d", i),
			URL:   srv.URL,
			Query: map[string]string{"n": fmt.Sprintf("%d", i)},
		}
	}

	b := NewBatcher()
	results, err := b.Run(context.Background(), requests)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(results) != len(requests) {
		t.Fatalf("got %d results, want %d", len(results), len(requests))
	}
	for i, res := range results {
		if res.Err != nil {
			t.Fatalf("result %d: unexpected error %v", i, res.Err)
		}
		if res.Index != i {
			t.Errorf("result %d: Index = %d", i, res.Index)
		}
		if want := fmt.Sprintf("req-%d", i); res.ID != want {
			t.Errorf("result %d: ID = %q, want %q", i, res.ID, want)
		}
		if want := fmt.Sprintf("resp-%d", i); string(res.Body) != want {
			t.Errorf("result %d: body = %q, want %q", i, res.Body, want)
		}
	}
}

func TestBatcher_BoundedParallelism(t *testing.T) {
	var active, peak int64
	var mu sync.Mutex

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cur := atomic.AddInt64(&active, 1)
		mu.Lock()
		if cur > peak {
			peak = cur
		}
		mu.Unlock()
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt64(&active, -1)
	}))
	defer srv.Close()

	requests := make([]Request, 10)
	for i := range requests {
		requests[i] = Request{URL: srv.URL}
	}

	b := NewBatcher(WithMaxWorkers(2))
	if _, err := b.Run(context.Background(), requests); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if peak > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", peak)
	}
}

func TestBatcher_PerRequestErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("fail") == "1" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	requests := []Request{
		{URL: srv.URL},
		{URL: srv.URL, Query: map[string]string{"fail": "1"}},
		{URL: "http://\x00bad"},
		{URL: srv.URL},
	}

	b := NewBatcher()
	results, err := b.Run(context.Background(), requests)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if results[0].Err != nil {
		t.Errorf("result 0: unexpected error %v", results[0].Err)
	}
	if results[1].Err == nil || !strings.Contains(results[1].Err.Error(), "500") {
		t.Errorf("result 1: error = %v, want status 500 error", results[1].Err)
	}
	if results[1].StatusCode != http.StatusInternalServerError {
		t.Errorf("result 1: status = %d", results[1].StatusCode)
	}
	if results[2].Err == nil {
		t.Error("result 2: expected error for malformed URL")
	}
	if results[3].Err != nil {
		t.Errorf("result 3: unexpected error %v", results[3].Err)
	}
}

func TestBatcher_MethodAndHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if got := r.Header.Get("X-API-Key"); got != "secret" {
			t.Errorf("X-API-Key = %q", got)
		}
		fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	b := NewBatcher()
	results, err := b.Run(context.Background(), []Request{{
		Method:  http.MethodPost,
		URL:     srv.URL,
		Body:    []byte(`{"a":1}`),
		Headers: map[string]string{"X-API-Key": "secret"},
	}})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if results[0].Err != nil {
		t.Fatalf("unexpected error: %v", results[0].Err)
	}
}

func TestBatcher_ContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	b := NewBatcher()
	_, err := b.Run(ctx, []Request{{URL: srv.URL}})
	if err == nil {
		t.Fatal("expected error after context cancellation")
	}
}
