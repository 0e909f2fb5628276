// Package audio provides PCM frame capture and the bounded frame queue
// shared between the capture callback and the decode loop.
package audio

import "encoding/binary"

// Frame is one fixed-size block of mono int16 PCM samples.
type Frame struct {
	Samples    []int16
	SampleRate int
}

// Bytes encodes the frame as little-endian 16-bit PCM.
func (f Frame) Bytes() []byte {
	out := make([]byte, len(f.Samples)*2)
	for i, s := range f.Samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

// SamplesFromBytes splits little-endian 16-bit PCM into int16 samples.
// A trailing odd byte is dropped.
func SamplesFromBytes(pcm []byte) []int16 {
	samples := make([]int16, len(pcm)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}
	return samples
}

// ToFloat32 normalizes int16 samples into [-1, 1).
func ToFloat32(samples []int16) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = float32(s) / 32768.0
	}
	return out
}

// ToInt16 converts normalized samples back to int16 PCM, clamping
// anything outside [-1, 1).
func ToInt16(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		v := s * 32768.0
		switch {
		case v > 32767:
			v = 32767
		case v < -32768:
			v = -32768
		}
		out[i] = int16(v)
	}
	return out
}
