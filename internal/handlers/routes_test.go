package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/swarupplay/backend/internal/auth"
	"github.com/swarupplay/backend/internal/middleware"
	"github.com/swarupplay/backend/internal/models"
	"github.com/swarupplay/backend/internal/stream"
)

type proxyStub struct {
	calls  int
	fileID string
}

func (p *proxyStub) Serve(w http.ResponseWriter, _ *http.Request, fileID string) {
	p.calls++
	p.fileID = fileID
	w.WriteHeader(http.StatusNoContent)
}

type pingerStub struct{ err error }

func (p pingerStub) Ping(context.Context) error { return p.err }

func testToken(t *testing.T, issuer *auth.Issuer) string {
	t.Helper()
	token, _, err := issuer.Issue(models.Identity{ID: "user-1", Name: "Swarup", Email: "swarup@example.com"})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func TestRouterStreamPartialContent(t *testing.T) {
	payload := make([]byte, 5000)
	for i := range payload {
		payload[i] = byte(i)
	}
	storage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/files/abc123/download" || r.Header.Get("Authorization") != "Bearer drive-token" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "video/mp4")
		http.ServeContent(w, r, "abc123.mp4", time.Time{}, bytes.NewReader(payload))
	}))
	defer storage.Close()

	client := stream.NewUpstreamClient(time.Second)
	defer client.CloseIdleConnections()
	origin, err := stream.NewHTTPOrigin(storage.URL, "drive-token", client)
	if err != nil {
		t.Fatalf("origin: %v", err)
	}

	issuer := auth.NewIssuer("test-secret", time.Hour)
	router := NewRouter(Dependencies{Tokens: issuer, Stream: stream.NewProxy(origin)})

	req := httptest.NewRequest(http.MethodGet, "/api/stream/abc123", nil)
	req.Header.Set("Authorization", "Bearer "+testToken(t, issuer))
	req.Header.Set("Range", "bytes=0-999")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusPartialContent {
		t.Fatalf("expected 206 got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Range"); got != "bytes 0-999/5000" {
		t.Fatalf("unexpected content range %q", got)
	}
	if rec.Body.Len() != 1000 {
		t.Fatalf("expected 1000 bytes got %d", rec.Body.Len())
	}
}

func TestRouterStreamRequiresToken(t *testing.T) {
	issuer := auth.NewIssuer("test-secret", time.Hour)
	proxy := &proxyStub{}
	router := NewRouter(Dependencies{Tokens: issuer, Stream: proxy})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stream/abc123", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", rec.Code)
	}

	expired := auth.NewIssuer("test-secret", time.Minute).WithNowFunc(func() time.Time {
		return time.Now().Add(-time.Hour)
	})
	for name, token := range map[string]string{
		"expired":  testToken(t, expired),
		"tampered": testToken(t, issuer) + "x",
		"foreign":  testToken(t, auth.NewIssuer("other-secret", time.Hour)),
	} {
		req := httptest.NewRequest(http.MethodGet, "/api/stream/abc123", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("%s token: expected 403 got %d", name, rec.Code)
		}
	}

	if proxy.calls != 0 {
		t.Fatalf("expected no upstream work for rejected requests, got %d", proxy.calls)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/stream/abc123", nil)
	req.Header.Set("Authorization", "Bearer "+testToken(t, issuer))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if proxy.calls != 1 || proxy.fileID != "abc123" {
		t.Fatalf("expected proxy called for abc123, got %d calls (%q)", proxy.calls, proxy.fileID)
	}
}

func TestRouterVideoMissing(t *testing.T) {
	issuer := auth.NewIssuer("test-secret", time.Hour)
	router := NewRouter(Dependencies{Tokens: issuer, Videos: &videoStoreStub{}})

	req := httptest.NewRequest(http.MethodGet, "/api/video/missing-id", nil)
	req.Header.Set("Authorization", "Bearer "+testToken(t, issuer))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"error":"Video file not found"}` {
		t.Fatalf("unexpected body %s", got)
	}
}

func TestRouterMe(t *testing.T) {
	issuer := auth.NewIssuer("test-secret", time.Hour)
	router := NewRouter(Dependencies{Tokens: issuer})

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+testToken(t, issuer))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"email":"swarup@example.com"`) {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestRouterAuthRateLimited(t *testing.T) {
	limiter := middleware.NewIPRateLimiter(1, time.Hour, 2, time.Hour)
	router := NewRouter(Dependencies{
		Users:       newInMemoryUserStore(),
		Tokens:      auth.NewIssuer("test-secret", time.Hour),
		AuthLimiter: limiter,
	})

	var codes []int
	for i := 0; i < 3; i++ {
		req := postJSON(t, "/api/auth/login", loginRequest{Email: "a@example.com", Password: "password123"})
		req.RemoteAddr = "203.0.113.9:5000"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	if codes[0] != http.StatusUnauthorized || codes[1] != http.StatusUnauthorized || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status sequence %v", codes)
	}
}

func TestRouterHealthAndMetrics(t *testing.T) {
	router := NewRouter(Dependencies{DB: pingerStub{}})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"database":"ok"`) {
		t.Fatalf("unexpected health response %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "swarupplay_") {
		t.Fatalf("unexpected metrics response %d", rec.Code)
	}
}

func TestRouterCORSPreflight(t *testing.T) {
	router := NewRouter(Dependencies{AllowedOrigins: []string{"http://localhost:5173"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/stream/abc123", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	req.Header.Set("Access-Control-Request-Headers", "Authorization, Range")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected preflight 200 got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("unexpected allow origin %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Fatalf("expected credentials allowed, got %q", got)
	}
}

func TestRouterServesSPA(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>app</html>"), 0o600); err != nil {
		t.Fatalf("write index: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log('hi')"), 0o600); err != nil {
		t.Fatalf("write asset: %v", err)
	}
	router := NewRouter(Dependencies{StaticDir: dir})

	for path, want := range map[string]string{
		"/":               "<html>app</html>",
		"/watch?play=abc": "<html>app</html>",
		"/app.js":         "console.log('hi')",
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK || rec.Body.String() != want {
			t.Fatalf("%s: unexpected response %d %q", path, rec.Code, rec.Body.String())
		}
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/unknown", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected unknown api path to 404, got %d", rec.Code)
	}
}
