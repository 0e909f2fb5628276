// Package stt implements the two recognition backends behind the
// session driver interface: the cloud phrase recognizer and the local
// frame-by-frame decoder.
package stt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"

	"github.com/vocalis-ai/vocalis/internal/audio"
	"github.com/vocalis-ai/vocalis/internal/config"
	"github.com/vocalis-ai/vocalis/internal/language"
	"github.com/vocalis-ai/vocalis/internal/session"
)

// PhraseRecognizer turns one captured phrase into text. An empty
// string with a nil error means the service heard nothing usable.
type PhraseRecognizer interface {
	Recognize(ctx context.Context, pcm []int16, sampleRate int, langCode string) (string, error)
}

// ErrorSink receives recognizer request failures.
type ErrorSink interface {
	WriteError(err error) error
}

// CloudDriver captures phrase-sized chunks from the audio source and
// submits each to the cloud recognizer.
type CloudDriver struct {
	source     audio.Source
	recognizer PhraseRecognizer
	errors     ErrorSink
	audioCfg   config.AudioConfig
	sessCfg    config.SessionConfig
	log        *slog.Logger
}

func NewCloudDriver(src audio.Source, rec PhraseRecognizer, errs ErrorSink, audioCfg config.AudioConfig, sessCfg config.SessionConfig, log *slog.Logger) *CloudDriver {
	return &CloudDriver{
		source:     src,
		recognizer: rec,
		errors:     errs,
		audioCfg:   audioCfg,
		sessCfg:    sessCfg,
		log:        log,
	}
}

func (d *CloudDriver) Name() string { return "google" }

func (d *CloudDriver) Online() bool { return true }

// Run listens for phrases until the accumulator expires or the context
// is cancelled. A listen window with no speech and a recognizer "no
// result" are both no-op iterations. A request-level recognizer
// failure is logged to the error sink and ends the session; the runner
// still flushes the accumulated text.
func (d *CloudDriver) Run(ctx context.Context, acc *session.Accumulator, lang language.Language) error {
	queue := audio.NewQueue(d.audioCfg.QueueDepth)
	if err := d.source.Start(func(f audio.Frame) {
		queue.Offer(f)
	}); err != nil {
		return fmt.Errorf("start capture: %w", err)
	}
	defer d.source.Close()

	listener := newPhraseListener(queue,
		d.sessCfg.PollInterval(),
		d.sessCfg.ListenTimeout(),
		d.sessCfg.MaxPhrase())

	d.log.Info("listening via cloud recognizer", slog.String("language", lang.Name))

	for {
		if ctx.Err() != nil {
			return nil
		}
		if acc.Expired() {
			d.log.Info("silence timeout reached", slog.String("session_id", acc.ID()))
			return nil
		}

		pcm, err := listener.Listen(ctx)
		if errors.Is(err, errNoSpeech) {
			continue
		}
		if err != nil {
			// Context cancellation: manual interrupt, graceful end.
			return nil
		}

		text, err := d.recognizer.Recognize(ctx, pcm, d.audioCfg.SampleRate, lang.Code)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			d.log.Error("cloud recognizer request failed", slog.String("error", err.Error()))
			if werr := d.errors.WriteError(err); werr != nil {
				d.log.Error("error sink write failed", slog.String("error", werr.Error()))
			}
			return err
		}
		acc.AddFinal(text)
	}
}

// GoogleRecognizer submits phrases to the Google Cloud Speech-to-Text
// synchronous Recognize API.
type GoogleRecognizer struct {
	client *speech.Client
}

func NewGoogleRecognizer(ctx context.Context, cfg config.OnlineConfig) (*GoogleRecognizer, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create speech client: %w", err)
	}
	return &GoogleRecognizer{client: client}, nil
}

func (g *GoogleRecognizer) Recognize(ctx context.Context, pcm []int16, sampleRate int, langCode string) (string, error) {
	req := &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:        speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz: int32(sampleRate),
			LanguageCode:    langCode,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{
				Content: audio.Frame{Samples: pcm}.Bytes(),
			},
		},
	}

	resp, err := g.client.Recognize(ctx, req)
	if err != nil {
		return "", err
	}

	var parts []string
	for _, result := range resp.GetResults() {
		alts := result.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		if t := strings.TrimSpace(alts[0].GetTranscript()); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " "), nil
}

func (g *GoogleRecognizer) Close() error {
	return g.client.Close()
}
