package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the service counters. All methods are safe on a nil
// receiver so callers can skip wiring metrics entirely.
type Metrics struct {
	sessionsStarted    metric.Int64Counter
	sessionsEnded      metric.Int64Counter
	probeChecks        metric.Int64Counter
	recognizerFailures metric.Int64Counter
	transcriptLines    metric.Int64Counter
}

func NewMetrics() (*Metrics, error) {
	meter := otel.Meter("vocalis")

	sessionsStarted, err := meter.Int64Counter("vocalis.sessions.started",
		metric.WithDescription("Transcription sessions started"))
	if err != nil {
		return nil, err
	}
	sessionsEnded, err := meter.Int64Counter("vocalis.sessions.ended",
		metric.WithDescription("Transcription sessions ended"))
	if err != nil {
		return nil, err
	}
	probeChecks, err := meter.Int64Counter("vocalis.connectivity.checks",
		metric.WithDescription("Connectivity probe results"))
	if err != nil {
		return nil, err
	}
	recognizerFailures, err := meter.Int64Counter("vocalis.recognizer.failures",
		metric.WithDescription("Recognition backend failures"))
	if err != nil {
		return nil, err
	}
	transcriptLines, err := meter.Int64Counter("vocalis.transcripts.persisted",
		metric.WithDescription("Transcript lines written to the sink"))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		sessionsStarted:    sessionsStarted,
		sessionsEnded:      sessionsEnded,
		probeChecks:        probeChecks,
		recognizerFailures: recognizerFailures,
		transcriptLines:    transcriptLines,
	}, nil
}

func (m *Metrics) SessionStarted(ctx context.Context, backend string) {
	if m == nil {
		return
	}
	m.sessionsStarted.Add(ctx, 1, metric.WithAttributes(attribute.String("backend", backend)))
}

func (m *Metrics) SessionEnded(ctx context.Context, backend string) {
	if m == nil {
		return
	}
	m.sessionsEnded.Add(ctx, 1, metric.WithAttributes(attribute.String("backend", backend)))
}

func (m *Metrics) ProbeChecked(ctx context.Context, online bool) {
	if m == nil {
		return
	}
	m.probeChecks.Add(ctx, 1, metric.WithAttributes(attribute.Bool("online", online)))
}

func (m *Metrics) RecognizerFailed(ctx context.Context, backend string) {
	if m == nil {
		return
	}
	m.recognizerFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("backend", backend)))
}

func (m *Metrics) TranscriptPersisted(ctx context.Context, backend string) {
	if m == nil {
		return
	}
	m.transcriptLines.Add(ctx, 1, metric.WithAttributes(attribute.String("backend", backend)))
}
