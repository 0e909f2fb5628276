package bus

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/vocalis-ai/vocalis/internal/config"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func startTestServer(t *testing.T) *EmbeddedServer {
	t.Helper()
	// Port -1 asks the server for a random free port.
	srv, err := StartEmbedded(config.BroadcastConfig{Embedded: true, Port: -1}, newLogger())
	if err != nil {
		t.Fatalf("start embedded server: %v", err)
	}
	t.Cleanup(srv.Shutdown)
	return srv
}

func TestStartEmbeddedDisabled(t *testing.T) {
	srv, err := StartEmbedded(config.BroadcastConfig{Embedded: false}, newLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if srv != nil {
		t.Fatal("expected nil server when embedded mode is disabled")
	}
}

func TestPublishFinalDeliversEvent(t *testing.T) {
	srv := startTestServer(t)

	client, err := Connect(config.BroadcastConfig{
		Servers:          []string{srv.ClientURL()},
		ConnectTimeoutMS: 2000,
	}, newLogger())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(client.Close)

	sub, err := nats.Connect(srv.ClientURL())
	if err != nil {
		t.Fatalf("subscriber connect: %v", err)
	}
	t.Cleanup(sub.Close)

	inbox := make(chan *nats.Msg, 1)
	if _, err := sub.ChanSubscribe(SubjectTranscriptFinal, inbox); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := sub.Flush(); err != nil {
		t.Fatalf("flush subscription: %v", err)
	}

	if err := client.PublishFinal(context.Background(), "sess-1", "en-IN", "google", "hello world"); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case msg := <-inbox:
		var event TranscriptEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		if event.SessionID != "sess-1" || event.Text != "hello world" || event.Backend != "google" {
			t.Fatalf("unexpected event: %+v", event)
		}
		if event.Timestamp.IsZero() {
			t.Fatal("event timestamp must be set")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no transcript event received")
	}
}

func TestConnectRequiresServers(t *testing.T) {
	if _, err := Connect(config.BroadcastConfig{}, newLogger()); err == nil {
		t.Fatal("expected error for empty server list")
	}
}

func TestClientHealthy(t *testing.T) {
	srv := startTestServer(t)
	client, err := Connect(config.BroadcastConfig{
		Servers:          []string{srv.ClientURL()},
		ConnectTimeoutMS: 2000,
	}, newLogger())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if !client.Healthy() {
		t.Fatal("expected healthy connection")
	}
	client.Close()
	if client.Healthy() {
		t.Fatal("expected unhealthy after close")
	}
}
