package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vocalis-ai/vocalis/internal/language"
)

// ErrPersist marks a transcript sink write failure. Callers treat it
// as fatal since losing transcript lines defeats the whole service.
var ErrPersist = errors.New("persist transcript")

// Driver runs one listening session against a recognition backend,
// feeding the accumulator until the silence timeout or the context
// ends it. A returned error means the backend failed mid-session; the
// runner still flushes whatever was accumulated.
type Driver interface {
	Name() string
	Online() bool
	Run(ctx context.Context, acc *Accumulator, lang language.Language) error
}

// LineWriter appends one timestamped line, sink-style.
type LineWriter interface {
	WriteLine(body string) error
}

// Publisher broadcasts a finalized transcript beyond the local sink.
type Publisher interface {
	PublishFinal(ctx context.Context, sessionID, langCode, backend, text string) error
}

// Hook runs a user-configured command after a transcript is persisted.
type Hook interface {
	Run(ctx context.Context, text, langCode, backend string) error
}

// Runner owns the per-session lifecycle around a driver: construct the
// accumulator, run the backend, flush the final transcript once.
type Runner struct {
	Timeout    time.Duration
	Transcript LineWriter
	Publisher  Publisher
	Hook       Hook
	Log        *slog.Logger
	Clock      func() time.Time
}

// Run executes one session. The final transcript is returned alongside
// the driver's error, if any; the transcript is persisted before the
// error is reported so a mid-session backend failure keeps its partial
// text. A transcript-sink write failure is returned instead and
// nothing else runs.
func (r *Runner) Run(ctx context.Context, drv Driver, lang language.Language) (string, error) {
	acc := NewAccumulator(r.Timeout, r.Clock)
	r.Log.Info("session started",
		slog.String("session_id", acc.ID()),
		slog.String("backend", drv.Name()),
		slog.String("language", lang.Code))

	runErr := drv.Run(ctx, acc, lang)

	text, ok := acc.Finalize()
	if !ok {
		// The driver finalized the session itself; nothing to flush.
		return "", runErr
	}
	if text == "" {
		r.Log.Info("session ended with no speech", slog.String("session_id", acc.ID()))
		return "", runErr
	}

	// The online backend historically prefixes the language name;
	// the offline one writes bare text. Preserved per backend.
	body := text
	if drv.Online() {
		body = lang.Name + ": " + text
	}
	if err := r.Transcript.WriteLine(body); err != nil {
		return "", fmt.Errorf("%w: %v", ErrPersist, err)
	}

	if r.Publisher != nil {
		if err := r.Publisher.PublishFinal(ctx, acc.ID(), lang.Code, drv.Name(), text); err != nil {
			r.Log.Warn("transcript broadcast failed", slog.String("error", err.Error()))
		}
	}
	if r.Hook != nil {
		if err := r.Hook.Run(ctx, text, lang.Code, drv.Name()); err != nil {
			r.Log.Warn("transcript hook failed", slog.String("error", err.Error()))
		}
	}

	r.Log.Info("session ended",
		slog.String("session_id", acc.ID()),
		slog.Int("fragments", acc.Fragments()),
		slog.String("backend", drv.Name()))
	return text, runErr
}
