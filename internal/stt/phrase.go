package stt

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/vocalis-ai/vocalis/internal/audio"
)

// errNoSpeech is the no-op outcome of a listen window where nothing
// crossed the energy threshold. The session's own silence clock is
// what ends the session, not this.
var errNoSpeech = errors.New("no speech within listen window")

const (
	// Normalized RMS energy above which a frame counts as speech.
	defaultEnergyThreshold = 0.01
	// Trailing quiet that closes a phrase once speech has started.
	defaultPhraseHangover = 800 * time.Millisecond
)

// phraseListener pulls frames from the capture queue and cuts them
// into single phrases: wait for energy, record until the speaker
// pauses or the phrase cap is hit.
type phraseListener struct {
	queue         *audio.Queue
	poll          time.Duration
	listenTimeout time.Duration
	maxPhrase     time.Duration
	hangover      time.Duration
	threshold     float64
}

func newPhraseListener(q *audio.Queue, poll, listenTimeout, maxPhrase time.Duration) *phraseListener {
	return &phraseListener{
		queue:         q,
		poll:          poll,
		listenTimeout: listenTimeout,
		maxPhrase:     maxPhrase,
		hangover:      defaultPhraseHangover,
		threshold:     defaultEnergyThreshold,
	}
}

// Listen blocks for at most listenTimeout waiting for speech to start,
// then records until hangover silence or maxPhrase. Returns errNoSpeech
// when the window closes without speech, or ctx.Err() on cancellation.
func (l *phraseListener) Listen(ctx context.Context) ([]int16, error) {
	deadline := time.Now().Add(l.listenTimeout)
	var (
		phrase    []int16
		phraseDur time.Duration
		silence   time.Duration
		started   bool
	)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !started && time.Now().After(deadline) {
			return nil, errNoSpeech
		}

		f, ok := l.queue.Poll(l.poll)
		if ok && f.SampleRate <= 0 {
			continue
		}
		if !ok {
			if started {
				silence += l.poll
				if silence >= l.hangover {
					return phrase, nil
				}
			}
			continue
		}

		frameDur := time.Duration(len(f.Samples)) * time.Second / time.Duration(f.SampleRate)
		loud := frameRMS(f.Samples) >= l.threshold

		if !started {
			if !loud {
				continue
			}
			started = true
		}

		phrase = append(phrase, f.Samples...)
		phraseDur += frameDur
		if loud {
			silence = 0
		} else {
			silence += frameDur
			if silence >= l.hangover {
				return phrase, nil
			}
		}
		if phraseDur >= l.maxPhrase {
			return phrase, nil
		}
	}
}

func frameRMS(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s) / 32768.0
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}
