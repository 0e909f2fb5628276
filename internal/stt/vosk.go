package stt

import (
	"fmt"

	vosk "github.com/alphacep/vosk-api/go"
)

type voskDecoder struct {
	model *vosk.VoskModel
	rec   *vosk.VoskRecognizer
}

// NewVoskLoader returns a ModelLoader backed by the Vosk runtime. The
// model directory must contain a pre-trained acoustic model matching
// the capture sample rate.
func NewVoskLoader() ModelLoader {
	vosk.SetLogLevel(-1)
	return func(modelPath string, sampleRate int) (Decoder, error) {
		model, err := vosk.NewModel(modelPath)
		if err != nil {
			return nil, fmt.Errorf("open vosk model: %w", err)
		}
		rec, err := vosk.NewRecognizer(model, float64(sampleRate))
		if err != nil {
			model.Free()
			return nil, fmt.Errorf("create vosk recognizer: %w", err)
		}
		return &voskDecoder{model: model, rec: rec}, nil
	}
}

func (v *voskDecoder) AcceptWaveform(pcm []byte) bool {
	return v.rec.AcceptWaveform(pcm) != 0
}

func (v *voskDecoder) Result() string {
	return v.rec.Result()
}

func (v *voskDecoder) PartialResult() string {
	return v.rec.PartialResult()
}

func (v *voskDecoder) Close() {
	v.rec.Free()
	v.model.Free()
}
