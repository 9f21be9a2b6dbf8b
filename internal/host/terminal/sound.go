package terminal

import (
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

const sampleRate = beep.SampleRate(44100)

// Sounder plays the catch chirp.
type Sounder interface {
	Chirp()
}

type silent struct{}

func (silent) Chirp() {}

// Speaker plays through the system audio device.
type Speaker struct {
	mu     sync.Mutex
	volume float64
}

// NewSpeaker opens the audio device. Callers should treat an error as "no
// sound" and carry on.
func NewSpeaker(volume float64) (*Speaker, error) {
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		return nil, err
	}
	return &Speaker{volume: volume}, nil
}

func (s *Speaker) Chirp() {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := chirpStreamer(sampleRate, s.volume)
	if err != nil {
		return
	}
	speaker.Play(st)
}

// Close releases the audio device.
func (s *Speaker) Close() {
	speaker.Close()
}

// chirpStreamer is two short rising sine notes.
func chirpStreamer(rate beep.SampleRate, volume float64) (beep.Streamer, error) {
	low, err := generators.SineTone(rate, 1320)
	if err != nil {
		return nil, err
	}
	high, err := generators.SineTone(rate, 1760)
	if err != nil {
		return nil, err
	}
	notes := beep.Seq(
		beep.Take(rate.N(60*time.Millisecond), low),
		beep.Take(rate.N(80*time.Millisecond), high),
	)
	if volume <= 0 {
		return &effects.Volume{Streamer: notes, Base: 2, Silent: true}, nil
	}
	return &effects.Volume{Streamer: notes, Base: 2, Volume: math.Log2(volume)}, nil
}
