package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ServiceName  string             `yaml:"service_name"`
	Environment  string             `yaml:"environment"`
	Audio        AudioConfig        `yaml:"audio"`
	Session      SessionConfig      `yaml:"session"`
	Connectivity ConnectivityConfig `yaml:"connectivity"`
	Online       OnlineConfig       `yaml:"online"`
	Offline      OfflineConfig      `yaml:"offline"`
	Sinks        SinkConfig         `yaml:"sinks"`
	Broadcast    BroadcastConfig    `yaml:"broadcast"`
	Hook         HookConfig         `yaml:"hook"`
	Telemetry    TelemetryConfig    `yaml:"telemetry"`
}

type AudioConfig struct {
	SampleRate   int `yaml:"sample_rate"`
	Channels     int `yaml:"channels"`
	BlockSamples int `yaml:"block_samples"`
	QueueDepth   int `yaml:"queue_depth"`
}

type SessionConfig struct {
	SilenceTimeoutMS int `yaml:"silence_timeout_ms"`
	PollIntervalMS   int `yaml:"poll_interval_ms"`
	ListenTimeoutMS  int `yaml:"listen_timeout_ms"`
	MaxPhraseMS      int `yaml:"max_phrase_ms"`
}

type ConnectivityConfig struct {
	ProbeURL  string `yaml:"probe_url"`
	TimeoutMS int    `yaml:"timeout_ms"`
}

type OnlineConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	Endpoint        string `yaml:"endpoint"`
}

type OfflineConfig struct {
	HindiModelPath   string  `yaml:"hindi_model_path"`
	DefaultModelPath string  `yaml:"default_model_path"`
	NoiseFilter      bool    `yaml:"noise_filter"`
	NoiseStrength    float64 `yaml:"noise_strength"`
}

type SinkConfig struct {
	TranscriptPath string `yaml:"transcript_path"`
	ErrorLogPath   string `yaml:"error_log_path"`
}

type BroadcastConfig struct {
	Enabled          bool     `yaml:"enabled"`
	Embedded         bool     `yaml:"embedded"`
	Port             int      `yaml:"port"`
	Servers          []string `yaml:"servers"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	Token            string   `yaml:"token"`
	TLSInsecure      bool     `yaml:"tls_insecure"`
	ConnectTimeoutMS int      `yaml:"connect_timeout_ms"`
}

type HookConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Command   string `yaml:"command"`
	TimeoutMS int    `yaml:"timeout_ms"`
}

type TelemetryConfig struct {
	LogLevel       string `yaml:"log_level"`
	OTLPEndpoint   string `yaml:"otlp_endpoint"`
	OTLPInsecure   bool   `yaml:"otlp_insecure"`
	PrometheusBind string `yaml:"prometheus_bind"`
}

func Default() Config {
	return Config{
		ServiceName: "vocalis",
		Environment: "development",
		Audio: AudioConfig{
			SampleRate:   16000,
			Channels:     1,
			BlockSamples: 8000,
			QueueDepth:   32,
		},
		Session: SessionConfig{
			SilenceTimeoutMS: 5000,
			PollIntervalMS:   100,
			ListenTimeoutMS:  5000,
			MaxPhraseMS:      10000,
		},
		Connectivity: ConnectivityConfig{
			ProbeURL:  "https://www.google.com",
			TimeoutMS: 2000,
		},
		Offline: OfflineConfig{
			HindiModelPath:   "vosk-model-hi-0.22",
			DefaultModelPath: "vosk-model-en-in-0.5",
			NoiseFilter:      true,
			NoiseStrength:    1.0,
		},
		Sinks: SinkConfig{
			TranscriptPath: "transcript.txt",
			ErrorLogPath:   "errors.log",
		},
		Broadcast: BroadcastConfig{
			Enabled:          false,
			Embedded:         false,
			Port:             4222,
			Servers:          []string{"nats://localhost:4222"},
			ConnectTimeoutMS: 2000,
		},
		Hook: HookConfig{
			Enabled:   false,
			TimeoutMS: 10000,
		},
		Telemetry: TelemetryConfig{
			LogLevel:       "info",
			OTLPEndpoint:   "",
			OTLPInsecure:   true,
			PrometheusBind: "",
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// SilenceTimeout returns the session silence timeout as a duration.
func (c SessionConfig) SilenceTimeout() time.Duration {
	return time.Duration(c.SilenceTimeoutMS) * time.Millisecond
}

// PollInterval returns the frame queue poll interval as a duration.
func (c SessionConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// ListenTimeout returns the per-phrase listen timeout as a duration.
func (c SessionConfig) ListenTimeout() time.Duration {
	return time.Duration(c.ListenTimeoutMS) * time.Millisecond
}

// MaxPhrase returns the maximum single-phrase capture duration.
func (c SessionConfig) MaxPhrase() time.Duration {
	return time.Duration(c.MaxPhraseMS) * time.Millisecond
}

// ProbeTimeout returns the connectivity probe timeout as a duration.
func (c ConnectivityConfig) ProbeTimeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// ModelPath selects the offline model directory for a language code.
// Hindi ships its own model; every other language uses the default
// directory.
func (c OfflineConfig) ModelPath(langCode string) string {
	if langCode == "hi-IN" {
		return c.HindiModelPath
	}
	return c.DefaultModelPath
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.ServiceName, "VOCALIS_SERVICE_NAME")
	overrideString(&cfg.Environment, "VOCALIS_ENVIRONMENT")
	overrideInt(&cfg.Audio.SampleRate, "VOCALIS_AUDIO_SAMPLE_RATE")
	overrideInt(&cfg.Audio.Channels, "VOCALIS_AUDIO_CHANNELS")
	overrideInt(&cfg.Audio.BlockSamples, "VOCALIS_AUDIO_BLOCK_SAMPLES")
	overrideInt(&cfg.Audio.QueueDepth, "VOCALIS_AUDIO_QUEUE_DEPTH")
	overrideInt(&cfg.Session.SilenceTimeoutMS, "VOCALIS_SESSION_SILENCE_TIMEOUT_MS")
	overrideInt(&cfg.Session.PollIntervalMS, "VOCALIS_SESSION_POLL_INTERVAL_MS")
	overrideInt(&cfg.Session.ListenTimeoutMS, "VOCALIS_SESSION_LISTEN_TIMEOUT_MS")
	overrideInt(&cfg.Session.MaxPhraseMS, "VOCALIS_SESSION_MAX_PHRASE_MS")
	overrideString(&cfg.Connectivity.ProbeURL, "VOCALIS_CONNECTIVITY_PROBE_URL")
	overrideInt(&cfg.Connectivity.TimeoutMS, "VOCALIS_CONNECTIVITY_TIMEOUT_MS")
	overrideString(&cfg.Online.CredentialsFile, "VOCALIS_ONLINE_CREDENTIALS_FILE")
	overrideString(&cfg.Online.Endpoint, "VOCALIS_ONLINE_ENDPOINT")
	overrideString(&cfg.Offline.HindiModelPath, "VOCALIS_OFFLINE_HINDI_MODEL_PATH")
	overrideString(&cfg.Offline.DefaultModelPath, "VOCALIS_OFFLINE_DEFAULT_MODEL_PATH")
	overrideBool(&cfg.Offline.NoiseFilter, "VOCALIS_OFFLINE_NOISE_FILTER")
	overrideFloat(&cfg.Offline.NoiseStrength, "VOCALIS_OFFLINE_NOISE_STRENGTH")
	overrideString(&cfg.Sinks.TranscriptPath, "VOCALIS_SINKS_TRANSCRIPT_PATH")
	overrideString(&cfg.Sinks.ErrorLogPath, "VOCALIS_SINKS_ERROR_LOG_PATH")
	overrideBool(&cfg.Broadcast.Enabled, "VOCALIS_BROADCAST_ENABLED")
	overrideBool(&cfg.Broadcast.Embedded, "VOCALIS_BROADCAST_EMBEDDED")
	overrideInt(&cfg.Broadcast.Port, "VOCALIS_BROADCAST_PORT")
	overrideStringSlice(&cfg.Broadcast.Servers, "VOCALIS_BROADCAST_SERVERS")
	overrideString(&cfg.Broadcast.Username, "VOCALIS_BROADCAST_USERNAME")
	overrideString(&cfg.Broadcast.Password, "VOCALIS_BROADCAST_PASSWORD")
	overrideString(&cfg.Broadcast.Token, "VOCALIS_BROADCAST_TOKEN")
	overrideBool(&cfg.Broadcast.TLSInsecure, "VOCALIS_BROADCAST_TLS_INSECURE")
	overrideInt(&cfg.Broadcast.ConnectTimeoutMS, "VOCALIS_BROADCAST_CONNECT_TIMEOUT_MS")
	overrideBool(&cfg.Hook.Enabled, "VOCALIS_HOOK_ENABLED")
	overrideString(&cfg.Hook.Command, "VOCALIS_HOOK_COMMAND")
	overrideInt(&cfg.Hook.TimeoutMS, "VOCALIS_HOOK_TIMEOUT_MS")
	overrideString(&cfg.Telemetry.LogLevel, "VOCALIS_TELEMETRY_LOG_LEVEL")
	overrideString(&cfg.Telemetry.OTLPEndpoint, "VOCALIS_TELEMETRY_OTLP_ENDPOINT")
	overrideBool(&cfg.Telemetry.OTLPInsecure, "VOCALIS_TELEMETRY_OTLP_INSECURE")
	overrideString(&cfg.Telemetry.PrometheusBind, "VOCALIS_TELEMETRY_PROMETHEUS_BIND")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

func overrideFloat(target *float64, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			*target = parsed
		}
	}
}

func overrideStringSlice(target *[]string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		parts := strings.Split(value, ",")
		var trimmed []string
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				trimmed = append(trimmed, s)
			}
		}
		if len(trimmed) > 0 {
			*target = trimmed
		}
	}
}

func validate(cfg Config) error {
	if cfg.ServiceName == "" {
		return errors.New("service_name must not be empty")
	}
	if cfg.Audio.SampleRate <= 0 {
		return errors.New("audio.sample_rate must be positive")
	}
	if cfg.Audio.Channels != 1 {
		return errors.New("audio.channels must be 1 (mono capture only)")
	}
	if cfg.Audio.BlockSamples <= 0 {
		return errors.New("audio.block_samples must be positive")
	}
	if cfg.Audio.QueueDepth <= 0 {
		return errors.New("audio.queue_depth must be positive")
	}
	if cfg.Session.SilenceTimeoutMS <= 0 {
		return errors.New("session.silence_timeout_ms must be positive")
	}
	if cfg.Session.PollIntervalMS <= 0 {
		return errors.New("session.poll_interval_ms must be positive")
	}
	if cfg.Session.ListenTimeoutMS <= 0 {
		return errors.New("session.listen_timeout_ms must be positive")
	}
	if cfg.Session.MaxPhraseMS < cfg.Session.ListenTimeoutMS {
		return errors.New("session.max_phrase_ms must be >= session.listen_timeout_ms")
	}
	if cfg.Connectivity.ProbeURL == "" {
		return errors.New("connectivity.probe_url must not be empty")
	}
	if cfg.Connectivity.TimeoutMS <= 0 {
		return errors.New("connectivity.timeout_ms must be positive")
	}
	if cfg.Offline.HindiModelPath == "" || cfg.Offline.DefaultModelPath == "" {
		return errors.New("offline model paths must not be empty")
	}
	if cfg.Offline.NoiseStrength < 0 || cfg.Offline.NoiseStrength > 1 {
		return errors.New("offline.noise_strength must be within [0, 1]")
	}
	if cfg.Sinks.TranscriptPath == "" {
		return errors.New("sinks.transcript_path must not be empty")
	}
	if cfg.Sinks.ErrorLogPath == "" {
		return errors.New("sinks.error_log_path must not be empty")
	}
	if cfg.Broadcast.Enabled {
		if cfg.Broadcast.Embedded {
			if cfg.Broadcast.Port <= 0 || cfg.Broadcast.Port > 65535 {
				return errors.New("broadcast.port must be between 1 and 65535 when embedded mode is enabled")
			}
		} else if len(cfg.Broadcast.Servers) == 0 {
			return errors.New("broadcast.servers must not be empty when embedded mode is disabled")
		}
	}
	if cfg.Hook.Enabled {
		if cfg.Hook.Command == "" {
			return errors.New("hook.command must be set when hook is enabled")
		}
		if cfg.Hook.TimeoutMS <= 0 {
			return errors.New("hook.timeout_ms must be positive")
		}
	}
	return nil
}
