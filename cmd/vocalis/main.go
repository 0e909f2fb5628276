package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vocalis-ai/vocalis/internal/app"
	"github.com/vocalis-ai/vocalis/internal/audio"
	"github.com/vocalis-ai/vocalis/internal/bus"
	"github.com/vocalis-ai/vocalis/internal/config"
	"github.com/vocalis-ai/vocalis/internal/hook"
	"github.com/vocalis-ai/vocalis/internal/netcheck"
	"github.com/vocalis-ai/vocalis/internal/session"
	"github.com/vocalis-ai/vocalis/internal/sink"
	"github.com/vocalis-ai/vocalis/internal/stt"
	"github.com/vocalis-ai/vocalis/internal/telemetry"
)

var version = "0.1.0-dev"

func main() {
	var (
		configPath  string
		filePath    string
		langChoice  string
		showVersion bool
	)

	flag.StringVar(&configPath, "config", "vocalis.yaml", "Path to configuration file")
	flag.StringVar(&filePath, "file", "", "Transcribe a WAV file instead of the microphone")
	flag.StringVar(&langChoice, "lang", "2", "Language choice for -file mode (1=Hindi, 2=English, 3=Marathi)")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Println(version)
		return
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	logger := telemetry.NewLogger(cfg.Telemetry.LogLevel, os.Stderr)

	shutdownTelemetry, metricHandler, err := telemetry.Setup(cfg, logger)
	if err != nil {
		logger.Error("failed to setup telemetry", slog.String("error", err.Error()))
		os.Exit(1)
	}
	metricsServer := telemetry.StartMetricsServer(cfg.Telemetry.PrometheusBind, metricHandler, logger)

	metrics, err := telemetry.NewMetrics()
	if err != nil {
		logger.Error("failed to create metrics", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner := &session.Runner{
		Timeout:    cfg.Session.SilenceTimeout(),
		Transcript: sink.New(cfg.Sinks.TranscriptPath),
		Log:        logger,
	}

	var embedded *bus.EmbeddedServer
	var busClient *bus.Client
	if cfg.Broadcast.Enabled {
		embedded, err = bus.StartEmbedded(cfg.Broadcast, logger)
		if err != nil {
			logger.Error("failed to start embedded NATS server", slog.String("error", err.Error()))
			os.Exit(1)
		}
		busCfg := cfg.Broadcast
		if embedded != nil {
			busCfg.Servers = []string{embedded.ClientURL()}
		}
		busClient, err = bus.Connect(busCfg, logger)
		if err != nil {
			// Broadcast is best-effort; transcription works without it.
			logger.Warn("transcript broadcast unavailable", slog.String("error", err.Error()))
		} else {
			runner.Publisher = busClient
		}
	}

	if cfg.Hook.Enabled {
		cmd, err := hook.New(cfg.Hook, logger)
		if err != nil {
			logger.Error("invalid transcript hook", slog.String("error", err.Error()))
			os.Exit(1)
		}
		runner.Hook = cmd
	}

	errorSink := sink.New(cfg.Sinks.ErrorLogPath)
	prober := netcheck.New(cfg.Connectivity.ProbeURL, cfg.Connectivity.ProbeTimeout(), logger)

	drivers := app.DriverFactory{
		Online: func(ctx context.Context) (session.Driver, func() error, error) {
			rec, err := stt.NewGoogleRecognizer(ctx, cfg.Online)
			if err != nil {
				return nil, nil, err
			}
			mic := audio.NewMicSource(cfg.Audio.SampleRate, cfg.Audio.BlockSamples, logger)
			return stt.NewCloudDriver(mic, rec, errorSink, cfg.Audio, cfg.Session, logger), rec.Close, nil
		},
		Offline: func() session.Driver {
			mic := audio.NewMicSource(cfg.Audio.SampleRate, cfg.Audio.BlockSamples, logger)
			return stt.NewLocalDriver(mic, stt.NewVoskLoader(), cfg.Offline, cfg.Audio, cfg.Session, logger)
		},
		File: func(path string) session.Driver {
			src := audio.NewWAVSource(path, cfg.Audio.BlockSamples)
			return stt.NewLocalDriver(src, stt.NewVoskLoader(), cfg.Offline, cfg.Audio, cfg.Session, logger)
		},
	}

	a := app.New(cfg, logger, metrics, os.Stdin, os.Stdout, prober, runner, drivers)

	if filePath != "" {
		err = a.TranscribeFile(ctx, filePath, langChoice)
	} else {
		err = a.Run(ctx)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	busClient.Close()
	embedded.Shutdown()
	if metricsServer != nil {
		if serr := metricsServer.Shutdown(shutdownCtx); serr != nil {
			logger.Error("metrics server shutdown error", slog.String("error", serr.Error()))
		}
	}
	if terr := shutdownTelemetry(shutdownCtx); terr != nil {
		logger.Error("telemetry shutdown error", slog.String("error", terr.Error()))
	}

	if err != nil {
		logger.Error("exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
