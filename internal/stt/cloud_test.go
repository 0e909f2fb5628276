package stt

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/vocalis-ai/vocalis/internal/config"
	"github.com/vocalis-ai/vocalis/internal/language"
	"github.com/vocalis-ai/vocalis/internal/session"
)

type scriptedResponse struct {
	text string
	err  error
}

type scriptedRecognizer struct {
	mu        sync.Mutex
	responses []scriptedResponse
	calls     int
}

func (r *scriptedRecognizer) Recognize(_ context.Context, _ []int16, _ int, _ string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if len(r.responses) == 0 {
		return "", nil
	}
	resp := r.responses[0]
	r.responses = r.responses[1:]
	return resp.text, resp.err
}

type countingErrorSink struct {
	mu       sync.Mutex
	messages []string
}

func (s *countingErrorSink) WriteError(err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, err.Error())
	return nil
}

func (s *countingErrorSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func cloudTestConfigs() (config.AudioConfig, config.SessionConfig) {
	audioCfg := config.AudioConfig{SampleRate: 16000, Channels: 1, BlockSamples: 160, QueueDepth: 64}
	sessCfg := config.SessionConfig{
		SilenceTimeoutMS: 300,
		PollIntervalMS:   5,
		ListenTimeoutMS:  50,
		MaxPhraseMS:      60,
	}
	return audioCfg, sessCfg
}

var hindi = language.Language{Code: "hi-IN", Name: "Hindi"}

func TestCloudDriverAccumulatesRecognizedPhrase(t *testing.T) {
	src := newFakeSource()
	rec := &scriptedRecognizer{responses: []scriptedResponse{{text: "hello"}}}
	errSink := &countingErrorSink{}
	audioCfg, sessCfg := cloudTestConfigs()
	drv := NewCloudDriver(src, rec, errSink, audioCfg, sessCfg, testLogger())

	acc := session.NewAccumulator(sessCfg.SilenceTimeout(), nil)
	done := make(chan error, 1)
	go func() { done <- drv.Run(context.Background(), acc, hindi) }()

	<-src.started
	// One phrase: exactly fills the max-phrase cap, no leftovers.
	for i := 0; i < 6; i++ {
		src.feed(loudFrame(160))
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("driver did not end on silence timeout")
	}

	text, _ := acc.Finalize()
	if text != "hello" {
		t.Fatalf("expected %q, got %q", "hello", text)
	}
	if errSink.count() != 0 {
		t.Fatalf("no errors expected, got %v", errSink.messages)
	}
	if !src.wasClosed() {
		t.Fatal("capture source must be released")
	}
}

func TestCloudDriverServiceFailureEndsSessionWithPartial(t *testing.T) {
	src := newFakeSource()
	boom := errors.New("quota exceeded")
	rec := &scriptedRecognizer{responses: []scriptedResponse{{text: "hi"}, {err: boom}}}
	errSink := &countingErrorSink{}
	audioCfg, sessCfg := cloudTestConfigs()
	drv := NewCloudDriver(src, rec, errSink, audioCfg, sessCfg, testLogger())

	acc := session.NewAccumulator(sessCfg.SilenceTimeout(), nil)
	done := make(chan error, 1)
	go func() { done <- drv.Run(context.Background(), acc, hindi) }()

	<-src.started
	for i := 0; i < 6; i++ {
		src.feed(loudFrame(160))
	}
	time.Sleep(150 * time.Millisecond)
	for i := 0; i < 6; i++ {
		src.feed(loudFrame(160))
	}

	select {
	case err := <-done:
		if !errors.Is(err, boom) {
			t.Fatalf("expected service error, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("driver did not end on service failure")
	}

	if errSink.count() != 1 {
		t.Fatalf("expected one error sink entry, got %v", errSink.messages)
	}
	text, _ := acc.Finalize()
	if text != "hi" {
		t.Fatalf("expected partial transcript %q, got %q", "hi", text)
	}
}

func TestCloudDriverInterruptEndsGracefully(t *testing.T) {
	src := newFakeSource()
	rec := &scriptedRecognizer{}
	errSink := &countingErrorSink{}
	audioCfg, sessCfg := cloudTestConfigs()
	sessCfg.SilenceTimeoutMS = 60000 // only the interrupt can end this session
	drv := NewCloudDriver(src, rec, errSink, audioCfg, sessCfg, testLogger())

	acc := session.NewAccumulator(sessCfg.SilenceTimeout(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- drv.Run(ctx, acc, hindi) }()

	<-src.started
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("interrupt must end gracefully, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("driver did not stop on interrupt")
	}
	if errSink.count() != 0 {
		t.Fatalf("interrupt must not log errors, got %v", errSink.messages)
	}
}

func TestCloudDriverStartFailure(t *testing.T) {
	src := newFakeSource()
	src.startErr = errors.New("no capture device")
	audioCfg, sessCfg := cloudTestConfigs()
	drv := NewCloudDriver(src, &scriptedRecognizer{}, &countingErrorSink{}, audioCfg, sessCfg, testLogger())

	acc := session.NewAccumulator(sessCfg.SilenceTimeout(), nil)
	if err := drv.Run(context.Background(), acc, hindi); err == nil {
		t.Fatal("expected capture start failure")
	}
}
