// Package session holds the listening-session accumulator shared by
// both recognition backends and the runner that flushes its result.
package session

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Accumulator collects finalized text fragments for one listening
// session and tracks the silence clock. It has two states: listening
// and ended. Finalize moves it to ended exactly once.
type Accumulator struct {
	id      string
	timeout time.Duration
	clock   func() time.Time

	mu         sync.Mutex
	ended      bool
	parts      []string
	lastSpeech time.Time
}

func NewAccumulator(timeout time.Duration, clock func() time.Time) *Accumulator {
	if clock == nil {
		clock = time.Now
	}
	return &Accumulator{
		id:         uuid.NewString(),
		timeout:    timeout,
		clock:      clock,
		lastSpeech: clock(),
	}
}

// ID is the session identifier used in broadcast events and logs.
func (a *Accumulator) ID() string {
	return a.id
}

// AddFinal appends a finalized fragment and resets the silence clock.
// Empty fragments are ignored entirely, including the clock reset.
func (a *Accumulator) AddFinal(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ended {
		return
	}
	a.parts = append(a.parts, text)
	a.lastSpeech = a.clock()
}

// MarkActivity resets the silence clock without contributing text.
// Interim decoder output counts as speech activity even before any
// phrase is finalized.
func (a *Accumulator) MarkActivity() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ended {
		return
	}
	a.lastSpeech = a.clock()
}

// Expired reports whether the silence timeout has elapsed since the
// last speech activity.
func (a *Accumulator) Expired() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.clock().Sub(a.lastSpeech) > a.timeout
}

// Fragments reports how many finalized fragments were accepted.
func (a *Accumulator) Fragments() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.parts)
}

// Finalize ends the session and returns the space-joined transcript.
// Only the first call yields the text; the session cannot be flushed
// twice.
func (a *Accumulator) Finalize() (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ended {
		return "", false
	}
	a.ended = true
	return strings.TrimSpace(strings.Join(a.parts, " ")), true
}
