package httpfetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"
)

func TestURLToKey(t *testing.T) {
	a := URLToKey("https://example.com/candidates/1")
	b := URLToKey("https://example.com/candidates/2")
	if a == b {
		t.Error("distinct URLs hashed to the same key")
	}
	if a != URLToKey("https://example.com/candidates/1") {
		t.Error("same URL hashed to different keys")
	}
}

func TestFetchCachesResponses(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, "hello")
	}))
	defer srv.Close()

	cache, err := NewWithPath(time.Minute, t.TempDir())
	if err != nil {
		t.Fatalf("NewWithPath() failed: %v", err)
	}
	defer cache.Close()

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, http.NoBody)
		body, err := Fetch(ctx, cache, srv.Client(), req, nil)
		if err != nil {
			t.Fatalf("Fetch() #%d failed: %v", i+1, err)
		}
		if string(body) != "hello" {
			t.Fatalf("body #%d = %q", i+1, body)
		}
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("server hits = %d, want 1", got)
	}
}

func TestFetchCachesErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	cache, err := NewWithPath(time.Minute, t.TempDir())
	if err != nil {
		t.Fatalf("NewWithPath() failed: %v", err)
	}
	defer cache.Close()

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, http.NoBody)
		_, err := Fetch(ctx, cache, srv.Client(), req, nil)
		var httpErr *HTTPError
		if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusNotFound {
			t.Fatalf("Fetch() #%d error = %v, want HTTP 404", i+1, err)
		}
	}
	// 404 is permanent, so one request served both calls.
	if got := hits.Load(); got != 1 {
		t.Errorf("server hits = %d, want 1", got)
	}
}

func TestFetchWithoutCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, "fresh")
	}))
	defer srv.Close()

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, http.NoBody)
		if _, err := Fetch(ctx, nil, srv.Client(), req, nil); err != nil {
			t.Fatalf("Fetch() #%d failed: %v", i+1, err)
		}
	}
	if got := hits.Load(); got != 2 {
		t.Errorf("server hits = %d, want 2", got)
	}
}

func TestPageResolvesRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/end", http.StatusFound)
	})
	mux.HandleFunc("/end", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "landed")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	finalURL, body, err := Page(context.Background(), srv.Client(), srv.URL+"/start", nil)
	if err != nil {
		t.Fatalf("Page() failed: %v", err)
	}
	if finalURL != srv.URL+"/end" {
		t.Errorf("final URL = %q, want %q", finalURL, srv.URL+"/end")
	}
	if string(body) != "landed" {
		t.Errorf("body = %q", body)
	}
}

func TestPostFormReturnsBodyOnRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.FormValue("name"); got != "jane" {
			t.Errorf("form name = %q", got)
		}
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `<div class="error">rejected</div>`)
	}))
	defer srv.Close()

	form := url.Values{"name": {"jane"}}
	resp, err := PostForm(context.Background(), srv.Client(), srv.URL, form, nil)
	if err != nil {
		t.Fatalf("PostForm() failed: %v", err)
	}
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", resp.StatusCode)
	}
	if string(resp.Body) == "" {
		t.Error("rejection body not returned")
	}
}

func TestPostFormServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := PostForm(context.Background(), srv.Client(), srv.URL, url.Values{}, nil)
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("error = %v, want HTTP 500", err)
	}
}

func TestHTTPErrorMessage(t *testing.T) {
	err := &HTTPError{URL: "https://example.com/x", StatusCode: 503}
	if got, want := err.Error(), "HTTP 503 fetching https://example.com/x"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
