package httpserver

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"testing"
	"time"
)

func TestServerHasNoWriteTimeout(t *testing.T) {
	srv := New(7001, http.NotFoundHandler())
	if srv.Addr() != ":7001" {
		t.Fatalf("unexpected addr %q", srv.Addr())
	}
	if srv.inner.WriteTimeout != 0 {
		t.Fatalf("expected no write timeout, got %s", srv.inner.WriteTimeout)
	}
	if srv.inner.ReadHeaderTimeout == 0 {
		t.Fatal("expected a read header timeout")
	}
}

func TestServerShutdownClosesLingeringStreams(t *testing.T) {
	started := make(chan struct{})
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		close(started)
		<-r.Context().Done()
	})

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := New(0, handler)
	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(l) }()

	resp, err := http.Get("http://" + l.Addr().String() + "/")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := srv.Shutdown(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if _, err := io.ReadAll(resp.Body); err == nil {
		t.Fatal("expected the open stream to be cut")
	}
	if err := <-serveErr; !errors.Is(err, http.ErrServerClosed) {
		t.Fatalf("unexpected serve error %v", err)
	}
}
