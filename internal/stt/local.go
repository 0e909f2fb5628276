package stt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vocalis-ai/vocalis/internal/audio"
	"github.com/vocalis-ai/vocalis/internal/config"
	"github.com/vocalis-ai/vocalis/internal/language"
	"github.com/vocalis-ai/vocalis/internal/noise"
	"github.com/vocalis-ai/vocalis/internal/session"
)

// Decoder is a frame-by-frame local recognizer. AcceptWaveform returns
// true when the fed audio closed a phrase and Result carries the
// finalized JSON; otherwise PartialResult may carry interim JSON.
type Decoder interface {
	AcceptWaveform(pcm []byte) bool
	Result() string
	PartialResult() string
	Close()
}

// ModelLoader opens a local acoustic model. Loading happens once per
// session; a load failure is fatal and propagates.
type ModelLoader func(modelPath string, sampleRate int) (Decoder, error)

// ModelLoadError reports that the offline acoustic model could not be
// opened. Unlike mid-session decode trouble this one is fatal.
type ModelLoadError struct {
	Path string
	Err  error
}

func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("load model %s: %v", e.Path, e.Err)
}

func (e *ModelLoadError) Unwrap() error { return e.Err }

type decodeResult struct {
	Text string `json:"text"`
}

type decodePartial struct {
	Partial string `json:"partial"`
}

// LocalDriver runs the offline path: background capture with per-frame
// noise filtering into a bounded queue, foreground decode loop feeding
// the accumulator.
type LocalDriver struct {
	source     audio.Source
	loadModel  ModelLoader
	offlineCfg config.OfflineConfig
	audioCfg   config.AudioConfig
	sessCfg    config.SessionConfig
	log        *slog.Logger
}

func NewLocalDriver(src audio.Source, loader ModelLoader, offlineCfg config.OfflineConfig, audioCfg config.AudioConfig, sessCfg config.SessionConfig, log *slog.Logger) *LocalDriver {
	return &LocalDriver{
		source:     src,
		loadModel:  loader,
		offlineCfg: offlineCfg,
		audioCfg:   audioCfg,
		sessCfg:    sessCfg,
		log:        log,
	}
}

func (d *LocalDriver) Name() string { return "vosk" }

func (d *LocalDriver) Online() bool { return false }

// Run decodes queued frames until the accumulator expires or the
// context is cancelled. An empty queue poll is a no-op iteration. A
// finalized phrase with text feeds the accumulator; interim output
// with text only resets the silence clock.
func (d *LocalDriver) Run(ctx context.Context, acc *session.Accumulator, lang language.Language) error {
	modelPath := d.offlineCfg.ModelPath(lang.Code)
	d.log.Info("loading offline model", slog.String("path", modelPath))
	dec, err := d.loadModel(modelPath, d.audioCfg.SampleRate)
	if err != nil {
		return &ModelLoadError{Path: modelPath, Err: err}
	}
	defer dec.Close()

	var filter *noise.Filter
	if d.offlineCfg.NoiseFilter {
		filter = noise.NewFilter(d.audioCfg.BlockSamples, d.offlineCfg.NoiseStrength)
	}

	queue := audio.NewQueue(d.audioCfg.QueueDepth)
	if err := d.source.Start(func(f audio.Frame) {
		// Capture thread: preprocess and enqueue, nothing else.
		if filter != nil {
			f = filter.ProcessFrame(f)
		}
		queue.Offer(f)
	}); err != nil {
		return fmt.Errorf("start capture: %w", err)
	}
	defer func() {
		_ = d.source.Close()
		if n := queue.Dropped(); n > 0 {
			d.log.Warn("capture frames dropped", slog.Uint64("count", n))
		}
	}()

	d.log.Info("listening via offline decoder", slog.String("language", lang.Name))

	poll := d.sessCfg.PollInterval()
	for {
		if ctx.Err() != nil {
			return nil
		}
		if acc.Expired() {
			d.log.Info("silence timeout reached", slog.String("session_id", acc.ID()))
			return nil
		}

		f, ok := queue.Poll(poll)
		if !ok {
			continue
		}

		if dec.AcceptWaveform(f.Bytes()) {
			var res decodeResult
			if err := json.Unmarshal([]byte(dec.Result()), &res); err != nil {
				d.log.Warn("undecodable recognizer result", slog.String("error", err.Error()))
				continue
			}
			acc.AddFinal(res.Text)
			continue
		}

		var part decodePartial
		if err := json.Unmarshal([]byte(dec.PartialResult()), &part); err != nil {
			continue
		}
		if strings.TrimSpace(part.Partial) != "" {
			acc.MarkActivity()
		}
	}
}
