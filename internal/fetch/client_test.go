package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alanyoungcy/arbscanner/internal/domain"
)

func TestClientDo(t *testing.T) {
	t.Run("defaults to GET and forwards headers", func(t *testing.T) {
		var gotMethod, gotKey string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotMethod = r.Method
			gotKey = r.Header.Get("apikey")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"ok":true}`))
		}))
		defer srv.Close()

		c := NewClient()
		resp, err := c.Do(context.Background(), Request{
			URL:    srv.URL,
			Header: http.Header{"apikey": []string{"secret"}},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotMethod != http.MethodGet {
			t.Errorf("method = %q, want GET", gotMethod)
		}
		if gotKey != "secret" {
			t.Errorf("apikey header = %q, want %q", gotKey, "secret")
		}
		if !resp.OK() {
			t.Errorf("OK() = false for status %d", resp.StatusCode)
		}
		if string(resp.Body) != `{"ok":true}` {
			t.Errorf("body = %q", resp.Body)
		}
	})

	t.Run("non-2xx is a response not an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("Service Unavailable"))
		}))
		defer srv.Close()

		resp, err := NewClient().Do(context.Background(), Request{URL: srv.URL})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.OK() {
			t.Error("OK() = true for 503")
		}
		if resp.StatusCode != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", resp.StatusCode)
		}
	})

	t.Run("times out at the configured bound", func(t *testing.T) {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()
		defer close(release)

		const bound = 100 * time.Millisecond
		c := NewClient(WithTimeout(bound))

		start := time.Now()
		_, err := c.Do(context.Background(), Request{URL: srv.URL})
		elapsed := time.Since(start)

		if err == nil {
			t.Fatal("expected timeout error")
		}
		var te *TimeoutError
		if !errors.As(err, &te) {
			t.Fatalf("error type = %T, want *TimeoutError", err)
		}
		if !errors.Is(err, domain.ErrUpstreamTimeout) {
			t.Error("errors.Is(err, ErrUpstreamTimeout) = false")
		}
		if errors.Is(err, domain.ErrUpstreamNetwork) {
			t.Error("timeout must not match ErrUpstreamNetwork")
		}
		if elapsed < bound || elapsed > bound+time.Second {
			t.Errorf("elapsed = %v, want about %v", elapsed, bound)
		}
	})

	t.Run("per-request timeout overrides default", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		defer srv.Close()

		c := NewClient(WithTimeout(time.Minute))
		start := time.Now()
		_, err := c.Do(context.Background(), Request{URL: srv.URL, Timeout: 50 * time.Millisecond})
		if !errors.Is(err, domain.ErrUpstreamTimeout) {
			t.Fatalf("err = %v, want timeout", err)
		}
		if time.Since(start) > 5*time.Second {
			t.Error("per-request timeout was ignored")
		}
	})

	t.Run("connection refused is a network error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := srv.URL
		srv.Close()

		_, err := NewClient().Do(context.Background(), Request{URL: url})
		var ne *NetworkError
		if !errors.As(err, &ne) {
			t.Fatalf("error type = %T, want *NetworkError", err)
		}
		if !errors.Is(err, domain.ErrUpstreamNetwork) {
			t.Error("errors.Is(err, ErrUpstreamNetwork) = false")
		}
		if errors.Is(err, domain.ErrUpstreamTimeout) {
			t.Error("network error must not match ErrUpstreamTimeout")
		}
	})

	t.Run("caller cancellation is neither timeout nor network", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(20 * time.Millisecond)
			cancel()
		}()

		_, err := NewClient().Do(ctx, Request{URL: srv.URL})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v, want context.Canceled", err)
		}
		if errors.Is(err, domain.ErrUpstreamTimeout) {
			t.Error("cancellation reported as timeout")
		}
	})
}
