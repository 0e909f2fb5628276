package netcheck

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestOnlineReachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	p := New(srv.URL, time.Second, newLogger())
	if !p.Online(context.Background()) {
		t.Fatal("expected online")
	}
}

func TestOnlineErrorStatusStillReachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	t.Cleanup(srv.Close)

	p := New(srv.URL, time.Second, newLogger())
	if !p.Online(context.Background()) {
		t.Fatal("expected online despite error status")
	}
}

func TestOfflineRefusedConnection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	url := srv.URL
	srv.Close()

	p := New(url, 500*time.Millisecond, newLogger())
	if p.Online(context.Background()) {
		t.Fatal("expected offline after server shutdown")
	}
}

func TestOfflineBadURL(t *testing.T) {
	p := New("http://\x7f", time.Second, newLogger())
	if p.Online(context.Background()) {
		t.Fatal("expected offline for malformed url")
	}
}
