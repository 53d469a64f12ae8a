package httpx_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/floatchat/floatchat/internal/httpx"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPostJSONSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", ct)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"prompt":"hi"}` {
			t.Errorf("body = %s", body)
		}
		w.Write([]byte(`{"result":"ok"}`))
	}))
	defer srv.Close()

	c := httpx.NewClient(srv.URL, discardLogger())
	res, err := c.PostJSON(context.Background(), "/", map[string]string{"prompt": "hi"})
	if err != nil {
		t.Fatalf("PostJSON() error = %v", err)
	}
	if string(res) != `{"result":"ok"}` {
		t.Errorf("PostJSON() = %s, want {\"result\":\"ok\"}", res)
	}
}

func TestPostJSONRetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"result":"ok"}`))
	}))
	defer srv.Close()

	c := httpx.NewClient(srv.URL, discardLogger(), httpx.WithMaxRetries(1))
	res, err := c.PostJSON(context.Background(), "/", nil)
	if err != nil {
		t.Fatalf("PostJSON() error = %v", err)
	}
	if string(res) != `{"result":"ok"}` {
		t.Errorf("PostJSON() = %s", res)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestPostJSONExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := httpx.NewClient(srv.URL, discardLogger(), httpx.WithMaxRetries(2))
	_, err := c.PostJSON(context.Background(), "/", nil)
	if err == nil {
		t.Fatal("PostJSON() error = nil, want failure")
	}

	var statusErr *httpx.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("error type = %T, want *StatusError", err)
	}
	if statusErr.Code != http.StatusInternalServerError {
		t.Errorf("Code = %d, want %d", statusErr.Code, http.StatusInternalServerError)
	}
	if statusErr.Body != "boom\n" {
		t.Errorf("Body = %q, want %q", statusErr.Body, "boom\n")
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestPostJSONTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := httpx.NewClient(srv.URL, discardLogger(),
		httpx.WithTimeout(10*time.Millisecond),
		httpx.WithMaxRetries(0))
	_, err := c.PostJSON(context.Background(), "/", nil)
	if err == nil {
		t.Fatal("PostJSON() error = nil, want timeout")
	}
}
