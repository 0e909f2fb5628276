package audio

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gen2brain/malgo"
)

// Source delivers capture frames to a callback running on the audio
// subsystem's own thread. The callback must not block.
type Source interface {
	Start(onFrame func(Frame)) error
	Close() error
}

// MicSource captures mono int16 PCM from the default input device and
// re-chunks the device callback's payload into fixed-size frames.
type MicSource struct {
	sampleRate   int
	blockSamples int
	log          *slog.Logger

	mu      sync.Mutex
	ctx     *malgo.AllocatedContext
	device  *malgo.Device
	pending []byte
}

func NewMicSource(sampleRate, blockSamples int, log *slog.Logger) *MicSource {
	return &MicSource{
		sampleRate:   sampleRate,
		blockSamples: blockSamples,
		log:          log,
	}
}

func (m *MicSource) Start(onFrame func(Frame)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.device != nil {
		return fmt.Errorf("capture already started")
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		m.log.Debug("malgo", slog.String("message", message))
	})
	if err != nil {
		return fmt.Errorf("init audio context: %w", err)
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = 1
	deviceConfig.SampleRate = uint32(m.sampleRate)
	deviceConfig.Alsa.NoMMap = 1

	blockBytes := m.blockSamples * 2
	callbacks := malgo.DeviceCallbacks{
		// Runs on the audio thread. Accumulate into fixed blocks and
		// hand complete frames to onFrame; never block here.
		Data: func(_, input []byte, _ uint32) {
			m.pending = append(m.pending, input...)
			for len(m.pending) >= blockBytes {
				block := m.pending[:blockBytes]
				onFrame(Frame{Samples: SamplesFromBytes(block), SampleRate: m.sampleRate})
				m.pending = m.pending[blockBytes:]
			}
		},
	}

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, callbacks)
	if err != nil {
		_ = ctx.Uninit()
		ctx.Free()
		return fmt.Errorf("init capture device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		_ = ctx.Uninit()
		ctx.Free()
		return fmt.Errorf("start capture device: %w", err)
	}

	m.ctx = ctx
	m.device = device
	m.log.Info("microphone capture started",
		slog.Int("sample_rate", m.sampleRate),
		slog.Int("block_samples", m.blockSamples))
	return nil
}

func (m *MicSource) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.device != nil {
		m.device.Uninit()
		m.device = nil
	}
	if m.ctx != nil {
		_ = m.ctx.Uninit()
		m.ctx.Free()
		m.ctx = nil
	}
	m.pending = nil
	return nil
}
