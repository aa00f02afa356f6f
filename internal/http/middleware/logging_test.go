package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func logLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v (%q)", err, buf.String())
	}
	return entry
}

func TestLoggingMiddleware_LevelsByStatus(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "INFO"},
		{http.StatusNotFound, "WARN"},
		{http.StatusInternalServerError, "ERROR"},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))

		handler := NewLoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))

		req := httptest.NewRequest(http.MethodDelete, "/del/9", nil)
		handler.ServeHTTP(httptest.NewRecorder(), req)

		entry := logLine(t, &buf)
		if entry["level"] != tt.level {
			t.Errorf("status %d: level = %v, want %s", tt.status, entry["level"], tt.level)
		}
		if entry["msg"] != "http_request" {
			t.Errorf("msg = %v", entry["msg"])
		}
		if entry["path"] != "/del/9" || entry["method"] != http.MethodDelete {
			t.Errorf("entry = %v", entry)
		}
		if int(entry["status"].(float64)) != tt.status {
			t.Errorf("status field = %v, want %d", entry["status"], tt.status)
		}
	}
}

func TestLoggingMiddleware_ImplicitOK(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := NewLoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got := int(logLine(t, &buf)["status"].(float64)); got != http.StatusOK {
		t.Errorf("status = %d, want 200", got)
	}
}

func TestLoggingMiddleware_IncludesSubject(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	protected := RequireToken(&fakeValidator{subject: "a@x.com"}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	handler := NewLoggingMiddleware(logger)(protected)

	req := httptest.NewRequest(http.MethodGet, "/stud_data", nil)
	req.Header.Set("Authorization", "Bearer tok")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got := logLine(t, &buf)["subject"]; got != "a@x.com" {
		t.Errorf("subject = %v, want a@x.com", got)
	}
}
