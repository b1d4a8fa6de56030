package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// captureLogs routes the default logger into a buffer for one test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

// lastRecord decodes the single log line the request produced.
func lastRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	var rec map[string]any
	if err := json.Unmarshal(lines[len(lines)-1], &rec); err != nil {
		t.Fatalf("decode log line %q: %v", lines[len(lines)-1], err)
	}
	return rec
}

func TestLogger(t *testing.T) {
	t.Run("logs method path status and bytes", func(t *testing.T) {
		buf := captureLogs(t)
		handler := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("hello"))
		}))

		req := httptest.NewRequest(http.MethodGet, "/posts/", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Body.String() != "hello" {
			t.Errorf("body: got %q, want %q", rr.Body.String(), "hello")
		}
		rec := lastRecord(t, buf)
		if rec["msg"] != "http request" {
			t.Errorf("msg: got %v", rec["msg"])
		}
		if rec["level"] != "INFO" {
			t.Errorf("level: got %v, want INFO", rec["level"])
		}
		if rec["method"] != "GET" || rec["path"] != "/posts/" {
			t.Errorf("method/path: got %v %v", rec["method"], rec["path"])
		}
		if rec["status"] != float64(200) {
			t.Errorf("status: got %v, want 200", rec["status"])
		}
		if rec["bytes"] != float64(5) {
			t.Errorf("bytes: got %v, want 5", rec["bytes"])
		}
	})

	t.Run("client errors log at warn", func(t *testing.T) {
		buf := captureLogs(t)
		handler := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/posts/missing/", nil))

		if rr.Code != http.StatusNotFound {
			t.Errorf("status: got %d, want 404", rr.Code)
		}
		if got := lastRecord(t, buf)["level"]; got != "WARN" {
			t.Errorf("level: got %v, want WARN", got)
		}
	})

	t.Run("server errors log at error", func(t *testing.T) {
		buf := captureLogs(t)
		handler := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))

		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/posts/", nil))

		if got := lastRecord(t, buf)["level"]; got != "ERROR" {
			t.Errorf("level: got %v, want ERROR", got)
		}
	})

	t.Run("includes the request id when present", func(t *testing.T) {
		buf := captureLogs(t)
		handler := chimw.RequestID(Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(chimw.RequestIDHeader, "req-42")
		handler.ServeHTTP(httptest.NewRecorder(), req)

		if got := lastRecord(t, buf)["request_id"]; got != "req-42" {
			t.Errorf("request_id: got %v, want req-42", got)
		}
	})
}

func TestResponseWriter(t *testing.T) {
	t.Run("WriteHeader only captures first call", func(t *testing.T) {
		rw := &responseWriter{ResponseWriter: httptest.NewRecorder(), statusCode: http.StatusOK}

		rw.WriteHeader(http.StatusNotFound)
		rw.WriteHeader(http.StatusInternalServerError)

		if rw.statusCode != http.StatusNotFound {
			t.Errorf("statusCode: got %d, want 404 (first call)", rw.statusCode)
		}
	})

	t.Run("Write counts bytes across calls", func(t *testing.T) {
		rw := &responseWriter{ResponseWriter: httptest.NewRecorder(), statusCode: http.StatusOK}

		rw.Write([]byte("abc"))
		rw.Write([]byte("de"))

		if rw.bytes != 5 {
			t.Errorf("bytes: got %d, want 5", rw.bytes)
		}
		if !rw.written || rw.statusCode != http.StatusOK {
			t.Errorf("written=%v status=%d, want true 200", rw.written, rw.statusCode)
		}
	})

	t.Run("Write does not override explicit WriteHeader", func(t *testing.T) {
		rw := &responseWriter{ResponseWriter: httptest.NewRecorder(), statusCode: http.StatusOK}

		rw.WriteHeader(http.StatusCreated)
		rw.Write([]byte("created"))

		if rw.statusCode != http.StatusCreated {
			t.Errorf("statusCode: got %d, want 201", rw.statusCode)
		}
	})

	t.Run("Unwrap returns the underlying writer", func(t *testing.T) {
		rr := httptest.NewRecorder()
		rw := &responseWriter{ResponseWriter: rr}
		if rw.Unwrap() != http.ResponseWriter(rr) {
			t.Error("Unwrap should return the wrapped recorder")
		}
	})
}
