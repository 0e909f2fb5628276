package hook

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/vocalis-ai/vocalis/internal/config"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestRunPipesTranscriptToStdin(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.txt")
	cmd, err := New(config.HookConfig{
		Command:   `sh -c "cat > ` + out + `"`,
		TimeoutMS: 5000,
	}, newLogger())
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if err := cmd.Run(context.Background(), "hello world", "en-IN", "google"); err != nil {
		t.Fatalf("run: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "hello world" {
		t.Fatalf("unexpected stdin payload: %q", data)
	}
}

func TestRunExportsLanguageAndBackend(t *testing.T) {
	out := filepath.Join(t.TempDir(), "env.txt")
	cmd, err := New(config.HookConfig{
		Command:   `sh -c "printf '%s %s' \"$VOCALIS_LANGUAGE\" \"$VOCALIS_BACKEND\" > ` + out + `"`,
		TimeoutMS: 5000,
	}, newLogger())
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if err := cmd.Run(context.Background(), "x", "hi-IN", "vosk"); err != nil {
		t.Fatalf("run: %v", err)
	}
	data, _ := os.ReadFile(out)
	if string(data) != "hi-IN vosk" {
		t.Fatalf("unexpected env payload: %q", data)
	}
}

func TestRunFailureIncludesStderr(t *testing.T) {
	cmd, err := New(config.HookConfig{
		Command:   `sh -c "echo broken >&2; exit 3"`,
		TimeoutMS: 5000,
	}, newLogger())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := cmd.Run(context.Background(), "x", "en-IN", "google"); err == nil {
		t.Fatal("expected error from failing hook")
	}
}

func TestRunTimesOut(t *testing.T) {
	cmd, err := New(config.HookConfig{
		Command:   "sleep 5",
		TimeoutMS: 100,
	}, newLogger())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := cmd.Run(context.Background(), "x", "en-IN", "google"); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestNewRejectsEmptyCommand(t *testing.T) {
	if _, err := New(config.HookConfig{Command: "", TimeoutMS: 1000}, newLogger()); err == nil {
		t.Fatal("expected error for empty command")
	}
}

func TestNewRejectsUnparsableCommand(t *testing.T) {
	if _, err := New(config.HookConfig{Command: `sh -c "unterminated`, TimeoutMS: 1000}, newLogger()); err == nil {
		t.Fatal("expected parse error")
	}
}
