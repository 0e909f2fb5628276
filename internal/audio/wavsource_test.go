package audio

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func writeTestWAV(t *testing.T, path string, samples []int, rate int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create wav: %v", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, rate, 16, 1, 1)
	buf := &gaudio.IntBuffer{
		Format: &gaudio.Format{NumChannels: 1, SampleRate: rate},
		Data:   samples,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
}

func TestWAVSourceReplaysAllSamples(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tone.wav")
	samples := make([]int, 1000)
	for i := range samples {
		samples[i] = i % 100
	}
	writeTestWAV(t, path, samples, 16000)

	src := NewWAVSource(path, 400)
	var mu sync.Mutex
	var got []int16
	done := make(chan struct{})

	err := src.Start(func(f Frame) {
		mu.Lock()
		got = append(got, f.Samples...)
		if len(got) >= len(samples) {
			select {
			case <-done:
			default:
				close(done)
			}
		}
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() { _ = src.Close() })

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for replay")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != len(samples) {
		t.Fatalf("expected %d samples, got %d", len(samples), len(got))
	}
	for i := range got {
		if int(got[i]) != samples[i] {
			t.Fatalf("sample %d: got %d want %d", i, got[i], samples[i])
		}
	}
}

func TestWAVSourceRejectsMissingFile(t *testing.T) {
	src := NewWAVSource(filepath.Join(t.TempDir(), "missing.wav"), 400)
	if err := src.Start(func(Frame) {}); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestWAVSourceRejectsGarbage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "garbage.wav")
	if err := os.WriteFile(path, []byte("not a wav"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	src := NewWAVSource(path, 400)
	if err := src.Start(func(Frame) {}); err == nil {
		t.Fatal("expected error for invalid wav")
	}
}
