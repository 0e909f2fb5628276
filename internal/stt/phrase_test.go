package stt

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vocalis-ai/vocalis/internal/audio"
)

func loudFrame(n int) audio.Frame {
	samples := make([]int16, n)
	for i := range samples {
		samples[i] = 8000
	}
	return audio.Frame{Samples: samples, SampleRate: 16000}
}

func quietFrame(n int) audio.Frame {
	return audio.Frame{Samples: make([]int16, n), SampleRate: 16000}
}

func TestListenNoSpeechTimesOut(t *testing.T) {
	q := audio.NewQueue(8)
	l := newPhraseListener(q, 5*time.Millisecond, 40*time.Millisecond, time.Second)

	_, err := l.Listen(context.Background())
	if !errors.Is(err, errNoSpeech) {
		t.Fatalf("expected errNoSpeech, got %v", err)
	}
}

func TestListenQuietFramesDoNotStartPhrase(t *testing.T) {
	q := audio.NewQueue(8)
	for i := 0; i < 4; i++ {
		q.Offer(quietFrame(160))
	}
	l := newPhraseListener(q, 5*time.Millisecond, 40*time.Millisecond, time.Second)

	_, err := l.Listen(context.Background())
	if !errors.Is(err, errNoSpeech) {
		t.Fatalf("expected errNoSpeech, got %v", err)
	}
}

func TestListenCapturesPhraseUntilHangover(t *testing.T) {
	q := audio.NewQueue(32)
	for i := 0; i < 5; i++ {
		q.Offer(loudFrame(160)) // 10ms each
	}
	l := newPhraseListener(q, 5*time.Millisecond, 200*time.Millisecond, time.Second)
	l.hangover = 20 * time.Millisecond

	pcm, err := l.Listen(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pcm) != 5*160 {
		t.Fatalf("expected 800 samples, got %d", len(pcm))
	}
}

func TestListenStopsAtMaxPhrase(t *testing.T) {
	q := audio.NewQueue(64)
	for i := 0; i < 20; i++ {
		q.Offer(loudFrame(160))
	}
	l := newPhraseListener(q, 5*time.Millisecond, 200*time.Millisecond, 50*time.Millisecond)
	l.hangover = time.Second

	pcm, err := l.Listen(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 50ms cap at 10ms frames.
	if len(pcm) != 5*160 {
		t.Fatalf("expected capped phrase of 800 samples, got %d", len(pcm))
	}
}

func TestListenCancelled(t *testing.T) {
	q := audio.NewQueue(8)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	l := newPhraseListener(q, 5*time.Millisecond, time.Second, time.Second)

	if _, err := l.Listen(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestFrameRMS(t *testing.T) {
	if got := frameRMS(nil); got != 0 {
		t.Fatalf("empty frame rms must be 0, got %v", got)
	}
	if got := frameRMS(make([]int16, 100)); got != 0 {
		t.Fatalf("silent frame rms must be 0, got %v", got)
	}
	loud := frameRMS(loudFrame(100).Samples)
	if loud < defaultEnergyThreshold {
		t.Fatalf("loud frame rms %v below threshold", loud)
	}
}
