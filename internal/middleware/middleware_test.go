package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/swarupplay/backend/internal/auth"
	"github.com/swarupplay/backend/internal/models"
)

func newTestIssuer(now time.Time) *auth.Issuer {
	return auth.NewIssuer("test-secret", time.Hour).WithNowFunc(func() time.Time { return now })
}

func TestRequireAuth(t *testing.T) {
	issued := time.Now()
	issuer := newTestIssuer(issued)
	valid, _, err := issuer.Issue(models.Identity{ID: "user-1", Name: "Asha", Email: "asha@example.com"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	foreign, _, err := auth.NewIssuer("other", time.Hour).Issue(models.Identity{ID: "user-1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	expiredIssuer := newTestIssuer(issued.Add(-2 * time.Hour))
	expired, _, err := expiredIssuer.Issue(models.Identity{ID: "user-1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	cases := []struct {
		name       string
		header     string
		wantStatus int
		wantError  string
	}{
		{name: "valid", header: "Bearer " + valid, wantStatus: http.StatusOK},
		{name: "missing", header: "", wantStatus: http.StatusUnauthorized, wantError: "No token provided"},
		{name: "wrong scheme", header: "Basic " + valid, wantStatus: http.StatusUnauthorized, wantError: "No token provided"},
		{name: "foreign signature", header: "Bearer " + foreign, wantStatus: http.StatusForbidden, wantError: "Invalid token"},
		{name: "expired", header: "Bearer " + expired, wantStatus: http.StatusForbidden, wantError: "Invalid token"},
		{name: "garbage", header: "Bearer abc.def.ghi", wantStatus: http.StatusForbidden, wantError: "Invalid token"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reached := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				reached = true
				identity, ok := auth.IdentityFromContext(r.Context())
				if !ok || identity.ID != "user-1" || identity.Email != "asha@example.com" {
					t.Errorf("unexpected identity: %+v ok=%v", identity, ok)
				}
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/video/abc", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			RequireAuth(issuer)(next).ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("expected status %d got %d", tc.wantStatus, rec.Code)
			}
			if tc.wantError == "" {
				if !reached {
					t.Fatal("expected handler to run")
				}
				return
			}
			if reached {
				t.Fatal("handler must not run for rejected credentials")
			}
			var body map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body["error"] != tc.wantError {
				t.Fatalf("expected error %q got %q", tc.wantError, body["error"])
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	limiter := NewIPRateLimiter(1, time.Minute, 2, time.Minute)
	handler := RateLimit(limiter, "login")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	if codes[0] != http.StatusNoContent || codes[1] != http.StatusNoContent || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status sequence: %v", codes)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = "10.0.0.2:5000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected separate budget per ip got %d", rec.Code)
	}
}

func TestIPRateLimiterExpiresVisitors(t *testing.T) {
	limiter := NewIPRateLimiter(1, time.Hour, 1, time.Minute).(*ipRateLimiter)
	now := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	limiter.WithNowFunc(func() time.Time { return now })

	if !limiter.Allow("a") {
		t.Fatal("expected first call allowed")
	}
	if limiter.Allow("a") {
		t.Fatal("expected second call limited")
	}

	now = now.Add(2 * time.Minute)
	limiter.Allow("b")
	if _, ok := limiter.visitors["a"]; ok {
		t.Fatal("expected idle visitor to be collected")
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	if got := ClientIP(req); got != "192.0.2.1" {
		t.Fatalf("unexpected ip %q", got)
	}
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := ClientIP(req); got != "203.0.113.9" {
		t.Fatalf("unexpected forwarded ip %q", got)
	}
}

func TestRequestLoggerRecoversPanics(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	handler := RequestLogger(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected request id header")
	}
	if !bytes.Contains(buf.Bytes(), []byte("panic recovered")) {
		t.Fatalf("expected panic log, got %s", buf.String())
	}
}

func TestRequestLoggerPropagatesAbort(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		panic(http.ErrAbortHandler)
	}))

	defer func() {
		if rec := recover(); rec != http.ErrAbortHandler {
			t.Fatalf("expected ErrAbortHandler to propagate, got %v", rec)
		}
	}()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

func TestRequestLoggerKeepsFlusherReachable(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("chunk"))
		if err := http.NewResponseController(w).Flush(); err != nil {
			t.Errorf("flush through wrapper: %v", err)
		}
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if !rec.Flushed {
		t.Fatal("expected recorder to be flushed")
	}
}
