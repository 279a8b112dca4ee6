package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusTeapot)
})

func TestCORS(t *testing.T) {
	tests := []struct {
		name      string
		allowed   []string
		origin    string
		wantAllow string
	}{
		{"all origins by default", nil, "https://a.example", "https://a.example"},
		{"listed origin", []string{"https://a.example"}, "https://A.example", "https://A.example"},
		{"wildcard", []string{"*"}, "https://b.example", "https://b.example"},
		{"unlisted origin", []string{"https://a.example"}, "https://evil.example", ""},
		{"no origin header", nil, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/scan", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := httptest.NewRecorder()
			CORS(tt.allowed)(okHandler).ServeHTTP(rec, req)

			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantAllow {
				t.Errorf("Allow-Origin = %q, want %q", got, tt.wantAllow)
			}
			if rec.Code != http.StatusTeapot {
				t.Errorf("status = %d, next handler not reached", rec.Code)
			}
		})
	}

	t.Run("preflight short-circuits", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/scan", nil)
		req.Header.Set("Origin", "https://a.example")
		rec := httptest.NewRecorder()
		CORS(nil)(okHandler).ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Errorf("status = %d, want 204", rec.Code)
		}
	})
}

func TestRequestID(t *testing.T) {
	t.Run("mints an id", func(t *testing.T) {
		var seen string
		h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = RequestIDFrom(r.Context())
		}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		if _, err := uuid.Parse(seen); err != nil {
			t.Fatalf("context id %q is not a uuid", seen)
		}
		if rec.Header().Get(RequestIDHeader) != seen {
			t.Errorf("header = %q, context = %q", rec.Header().Get(RequestIDHeader), seen)
		}
	})

	t.Run("reuses a valid inbound id", func(t *testing.T) {
		in := uuid.NewString()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, in)
		rec := httptest.NewRecorder()
		RequestID()(okHandler).ServeHTTP(rec, req)
		if rec.Header().Get(RequestIDHeader) != in {
			t.Errorf("id = %q, want %q", rec.Header().Get(RequestIDHeader), in)
		}
	})

	t.Run("replaces a malformed inbound id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "not-a-uuid")
		rec := httptest.NewRecorder()
		RequestID()(okHandler).ServeHTTP(rec, req)
		if rec.Header().Get(RequestIDHeader) == "not-a-uuid" {
			t.Error("malformed id was echoed")
		}
	})
}

func TestLoggingIncludesRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	h := RequestID()(Logging(logger)(okHandler))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/scan", nil))

	line := buf.String()
	id := rec.Header().Get(RequestIDHeader)
	if !strings.Contains(line, `"request_id":"`+id+`"`) {
		t.Errorf("log line %q missing request id %q", line, id)
	}
	if !strings.Contains(line, `"status":418`) {
		t.Errorf("log line %q missing status", line)
	}
}

func TestLoggingLevels(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		status int
		want   string
	}{
		{"success", "/api/scan", http.StatusOK, `"level":"INFO"`},
		{"client error", "/api/scan", http.StatusNotFound, `"level":"WARN"`},
		{"upstream failure", "/api/opinion/markets", http.StatusInternalServerError, `"level":"ERROR"`},
		{"health check", "/api/health", http.StatusOK, `"level":"DEBUG"`},
		{"failing health check", "/api/health", http.StatusServiceUnavailable, `"level":"ERROR"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
			h := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte("abc"))
			}))
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tt.path, nil))

			line := buf.String()
			if !strings.Contains(line, tt.want) {
				t.Errorf("log line %q, want %s", line, tt.want)
			}
			if !strings.Contains(line, `"bytes":3`) {
				t.Errorf("log line %q missing byte count", line)
			}
		})
	}
}

func TestLoggingHealthQuietAtInfo(t *testing.T) {
	var buf bytes.Buffer
	h := Logging(slog.New(slog.NewJSONHandler(&buf, nil)))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if buf.Len() != 0 {
		t.Errorf("health check logged at info: %q", buf.String())
	}
}
