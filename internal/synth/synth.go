package synth

import (
	"fmt"

	"github.com/cbegin/stepper-go/internal/effects"
	"github.com/cbegin/stepper-go/internal/engine"
	"github.com/cbegin/stepper-go/internal/filter"
)

// Synth sums its channels through the all-pass output stage and the master EQ.
type Synth struct {
	channels []*Channel
	out      *filter.AllPass
	eq       *effects.EQ5Band
	master   *effects.Chain
	volume   float32
}

// New creates a synth with one channel per entry in engines.
func New(sampleRate int, engines ...engine.Type) (*Synth, error) {
	s := &Synth{
		out:    filter.NewOutputStage(),
		eq:     effects.NewEQ5Band(sampleRate),
		volume: 1,
	}
	s.master = effects.NewChain(s.eq)
	for _, t := range engines {
		c, err := NewChannel(sampleRate, t)
		if err != nil {
			return nil, err
		}
		s.channels = append(s.channels, c)
	}
	return s, nil
}

// Channels returns the channel count.
func (s *Synth) Channels() int { return len(s.channels) }

// Channel returns channel i.
func (s *Synth) Channel(i int) (*Channel, error) {
	if i < 0 || i >= len(s.channels) {
		return nil, fmt.Errorf("%w: %d", ErrChannelOutOfRange, i)
	}
	return s.channels[i], nil
}

// EQ returns the master equaliser.
func (s *Synth) EQ() *effects.EQ5Band { return s.eq }

func (s *Synth) SetVolume(v float32) { s.volume = v }
func (s *Synth) Volume() float32     { return s.volume }

// Sample renders one output sample.
func (s *Synth) Sample() float32 {
	var sum float32
	for _, c := range s.channels {
		sum += c.Sample()
	}
	return s.master.Process(s.out.Sample(sum)) * s.volume
}

// Reset clears the output stage and master bus.
func (s *Synth) Reset() {
	s.out.Reset()
	s.master.Reset()
}
