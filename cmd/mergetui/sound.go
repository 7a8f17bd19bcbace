package main

import (
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"

	"github.com/ugaemi/mergeboss-server/internal/physics"
)

const sampleRate = beep.SampleRate(44100)

// sound turns game feedback into short tones. A sound whose speaker failed
// to start stays silent.
type sound struct {
	enabled bool
}

func newSound() (*sound, error) {
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		return &sound{}, err
	}
	return &sound{enabled: true}, nil
}

func (s *sound) Close() {
	if s.enabled {
		speaker.Close()
	}
}

// mergeFrequency climbs a major third per rank from A3.
func mergeFrequency(rank int) float64 {
	return 220 * math.Pow(2, float64(rank)/3)
}

func (s *sound) tone(freq float64, d time.Duration) {
	if !s.enabled {
		return
	}
	sine, err := generators.SineTone(sampleRate, freq)
	if err != nil {
		return
	}
	speaker.Play(beep.Take(sampleRate.N(d), sine))
}

func (s *sound) MergeBurst(_ physics.Vec2, rank int) {
	s.tone(mergeFrequency(rank), 90*time.Millisecond)
}

func (s *sound) Dropped(int) {
	s.tone(160, 40*time.Millisecond)
}

func (s *sound) Warning(active bool) {
	if active {
		s.tone(110, 200*time.Millisecond)
	}
}
