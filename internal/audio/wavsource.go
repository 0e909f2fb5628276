package audio

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-audio/wav"
)

// WAVSource replays a 16-bit mono WAV file through the Source
// interface, paced at real time so downstream silence detection
// behaves the same as with a live microphone.
type WAVSource struct {
	path         string
	blockSamples int

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

func NewWAVSource(path string, blockSamples int) *WAVSource {
	return &WAVSource{path: path, blockSamples: blockSamples}
}

func (s *WAVSource) Start(onFrame func(Frame)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return fmt.Errorf("replay already started")
	}

	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("open wav: %w", err)
	}

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		f.Close()
		return fmt.Errorf("not a valid wav file: %s", s.path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		f.Close()
		return fmt.Errorf("decode wav: %w", err)
	}
	f.Close()

	if buf.Format == nil || buf.Format.NumChannels != 1 {
		return fmt.Errorf("wav must be mono: %s", s.path)
	}

	rate := buf.Format.SampleRate
	samples := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = int16(v)
	}

	blockDur := time.Duration(s.blockSamples) * time.Second / time.Duration(rate)
	stop := make(chan struct{})
	done := make(chan struct{})
	s.stop = stop
	s.done = done

	go func() {
		defer close(done)
		for off := 0; off < len(samples); off += s.blockSamples {
			end := off + s.blockSamples
			if end > len(samples) {
				end = len(samples)
			}
			onFrame(Frame{Samples: samples[off:end], SampleRate: rate})
			select {
			case <-stop:
				return
			case <-time.After(blockDur):
			}
		}
	}()
	return nil
}

func (s *WAVSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop == nil {
		return nil
	}
	close(s.stop)
	<-s.done
	s.stop = nil
	s.done = nil
	return nil
}
