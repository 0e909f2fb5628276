// Package app drives the interactive transcription loop: pick a
// language, probe connectivity, run one session on the matching
// backend, repeat until the operator quits.
package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vocalis-ai/vocalis/internal/config"
	"github.com/vocalis-ai/vocalis/internal/language"
	"github.com/vocalis-ai/vocalis/internal/session"
	"github.com/vocalis-ai/vocalis/internal/stt"
	"github.com/vocalis-ai/vocalis/internal/telemetry"
)

// ConnectivityProber decides which backend a session gets.
type ConnectivityProber interface {
	Online(ctx context.Context) bool
}

// DriverFactory builds session drivers on demand. The online factory
// may dial the cloud service, so it returns a cleanup alongside the
// driver.
type DriverFactory struct {
	Online  func(ctx context.Context) (session.Driver, func() error, error)
	Offline func() session.Driver
	File    func(path string) session.Driver
}

type App struct {
	cfg     config.Config
	log     *slog.Logger
	metrics *telemetry.Metrics
	in      io.Reader
	out     io.Writer
	prober  ConnectivityProber
	runner  *session.Runner
	drivers DriverFactory
}

func New(cfg config.Config, log *slog.Logger, metrics *telemetry.Metrics, in io.Reader, out io.Writer, prober ConnectivityProber, runner *session.Runner, drivers DriverFactory) *App {
	return &App{
		cfg:     cfg,
		log:     log,
		metrics: metrics,
		in:      in,
		out:     out,
		prober:  prober,
		runner:  runner,
		drivers: drivers,
	}
}

// Run executes the interactive loop until the operator quits, input is
// exhausted, or a fatal error occurs. Backend failures mid-session are
// reported on the console and the loop continues; a model-load failure
// or a transcript sink failure ends the process.
func (a *App) Run(ctx context.Context) error {
	fmt.Fprintln(a.out, "Hybrid Speech Transcription")
	fmt.Fprintln(a.out, "Transcripts are appended to", a.cfg.Sinks.TranscriptPath)

	scanner := bufio.NewScanner(a.in)
	for {
		if ctx.Err() != nil {
			return nil
		}

		proceed, err := a.waitForStart(scanner)
		if err != nil {
			return nil
		}
		if !proceed {
			fmt.Fprintln(a.out, "Goodbye!")
			return nil
		}

		lang, err := language.ChooseWith(scanner, a.out)
		if err != nil {
			return nil
		}

		if err := a.runSession(ctx, lang); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}

		again, err := a.promptLine(scanner, "\nPress ENTER for a new session or 'q' to quit: ")
		if err != nil || strings.EqualFold(strings.TrimSpace(again), "q") {
			fmt.Fprintln(a.out, "Goodbye!")
			return nil
		}
	}
}

func (a *App) waitForStart(scanner *bufio.Scanner) (bool, error) {
	line, err := a.promptLine(scanner, "\nPress ENTER to start a session or 'q' to quit: ")
	if err != nil {
		return false, err
	}
	return !strings.EqualFold(strings.TrimSpace(line), "q"), nil
}

func (a *App) promptLine(scanner *bufio.Scanner, prompt string) (string, error) {
	fmt.Fprint(a.out, prompt)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return scanner.Text(), nil
}

func (a *App) runSession(ctx context.Context, lang language.Language) error {
	online := a.prober.Online(ctx)
	a.metrics.ProbeChecked(ctx, online)

	var (
		drv     session.Driver
		cleanup func() error
	)
	if online {
		fmt.Fprintln(a.out, "Internet available. Using Google Speech Recognition.")
		d, c, err := a.drivers.Online(ctx)
		if err != nil {
			return fmt.Errorf("create online backend: %w", err)
		}
		drv, cleanup = d, c
	} else {
		fmt.Fprintln(a.out, "No internet. Using offline Vosk recognizer.")
		drv = a.drivers.Offline()
	}

	a.metrics.SessionStarted(ctx, drv.Name())
	fmt.Fprintf(a.out, "\nListening (%s)... speak now. The session ends after %s of silence.\n",
		lang.Name, a.cfg.Session.SilenceTimeout())

	text, err := a.runner.Run(ctx, drv, lang)
	if cleanup != nil {
		if cerr := cleanup(); cerr != nil {
			a.log.Warn("backend cleanup failed", slog.String("error", cerr.Error()))
		}
	}
	a.metrics.SessionEnded(ctx, drv.Name())

	if text != "" {
		a.metrics.TranscriptPersisted(ctx, drv.Name())
		fmt.Fprintf(a.out, "\nTranscript: %s\n", text)
	} else {
		fmt.Fprintln(a.out, "\nNo speech captured.")
	}

	if err != nil {
		var mle *stt.ModelLoadError
		if errors.As(err, &mle) || errors.Is(err, session.ErrPersist) {
			return err
		}
		a.metrics.RecognizerFailed(ctx, drv.Name())
		fmt.Fprintf(a.out, "Recognition backend error: %v\n", err)
	}
	return nil
}

// TranscribeFile runs one non-interactive session over a WAV file
// using the offline backend. Any failure is fatal here since there is
// no operator loop to fall back to.
func (a *App) TranscribeFile(ctx context.Context, path, langKey string) error {
	lang, ok := language.ByChoice(langKey)
	if !ok {
		return fmt.Errorf("unknown language choice %q", langKey)
	}

	drv := a.drivers.File(path)
	a.metrics.SessionStarted(ctx, drv.Name())
	text, err := a.runner.Run(ctx, drv, lang)
	a.metrics.SessionEnded(ctx, drv.Name())
	if err != nil {
		return err
	}

	if text == "" {
		fmt.Fprintln(a.out, "No speech found in", path)
		return nil
	}
	a.metrics.TranscriptPersisted(ctx, drv.Name())
	fmt.Fprintf(a.out, "Transcript: %s\n", text)
	return nil
}
