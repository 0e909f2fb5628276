package stt

import (
	"sync"

	"github.com/vocalis-ai/vocalis/internal/audio"
)

// fakeSource hands the driver's capture callback back to the test so
// frames can be injected on demand.
type fakeSource struct {
	mu       sync.Mutex
	onFrame  func(audio.Frame)
	started  chan struct{}
	closed   bool
	startErr error
}

func newFakeSource() *fakeSource {
	return &fakeSource{started: make(chan struct{})}
}

func (s *fakeSource) Start(onFrame func(audio.Frame)) error {
	if s.startErr != nil {
		return s.startErr
	}
	s.mu.Lock()
	s.onFrame = onFrame
	s.mu.Unlock()
	close(s.started)
	return nil
}

func (s *fakeSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSource) feed(f audio.Frame) {
	s.mu.Lock()
	cb := s.onFrame
	closed := s.closed
	s.mu.Unlock()
	if cb != nil && !closed {
		cb(f)
	}
}

func (s *fakeSource) wasClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
