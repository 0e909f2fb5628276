// Package noise implements a block-wise spectral gate applied to
// capture frames before offline decoding.
package noise

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/vocalis-ai/vocalis/internal/audio"
)

const (
	// Blocks used to seed the noise floor before gating kicks in.
	warmupBlocks = 4
	// A bin must exceed thresholdFactor times the floor to count as
	// signal.
	thresholdFactor = 1.5
	// Slow upward drift of the floor so it recovers after loud
	// passages.
	floorRelease = 1.02
)

// Filter estimates a per-bin noise floor from the quietest spectra it
// has seen and attenuates bins that stay below it. Strength 0 passes
// audio through untouched; strength 1 silences gated bins completely.
type Filter struct {
	n        int
	fft      *fourier.FFT
	floor    []float64
	strength float64
	seen     int
}

func NewFilter(blockSamples int, strength float64) *Filter {
	if strength < 0 {
		strength = 0
	}
	if strength > 1 {
		strength = 1
	}
	return &Filter{
		n:        blockSamples,
		fft:      fourier.NewFFT(blockSamples),
		strength: strength,
	}
}

// Process gates one block of normalized samples. Blocks shorter than
// the configured size (the tail of a file replay) pass through
// unfiltered. The returned slice always has the input's length.
func (f *Filter) Process(samples []float32) []float32 {
	if len(samples) != f.n || f.strength == 0 {
		return samples
	}

	seq := make([]float64, f.n)
	for i, s := range samples {
		seq[i] = float64(s)
	}

	coeffs := f.fft.Coefficients(nil, seq)
	mags := make([]float64, len(coeffs))
	for i, c := range coeffs {
		mags[i] = cmplxAbs(c)
	}

	f.updateFloor(mags)

	if f.seen <= warmupBlocks {
		// Still learning the floor; pass the block through.
		return samples
	}

	attenuation := 1 - f.strength
	for i, c := range coeffs {
		if mags[i] < f.floor[i]*thresholdFactor {
			coeffs[i] = complex(real(c)*attenuation, imag(c)*attenuation)
		}
	}

	// Coefficients followed by Sequence scales by the block length.
	out := f.fft.Sequence(nil, coeffs)
	scale := 1 / float64(f.n)
	result := make([]float32, f.n)
	for i, v := range out {
		result[i] = float32(v * scale)
	}
	return result
}

func (f *Filter) updateFloor(mags []float64) {
	f.seen++
	if f.floor == nil {
		f.floor = append([]float64(nil), mags...)
		return
	}
	for i, m := range mags {
		if m < f.floor[i] {
			f.floor[i] = m
		} else {
			f.floor[i] *= floorRelease
		}
	}
}

func cmplxAbs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}

// ProcessFrame runs the gate over an int16 frame, converting through
// normalized floats the way the capture callback does.
func (f *Filter) ProcessFrame(frame audio.Frame) audio.Frame {
	filtered := f.Process(audio.ToFloat32(frame.Samples))
	return audio.Frame{Samples: audio.ToInt16(filtered), SampleRate: frame.SampleRate}
}
