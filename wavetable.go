package stepper

import (
	"github.com/cbegin/stepper-go/internal/envelope"
	"github.com/cbegin/stepper-go/internal/filter"
	"github.com/cbegin/stepper-go/internal/lfo"
	"github.com/cbegin/stepper-go/internal/voice"
	"github.com/cbegin/stepper-go/internal/wtsynth"
)

// Per-voice module settings of the wavetable engine.
type (
	LowPassParams   = filter.Params
	EnvelopeParams  = envelope.Params
	LfoWaveform     = lfo.Waveform
	WaveTableParams = voice.Params
)

const (
	LfoSine     = lfo.WaveSine
	LfoTriangle = lfo.WaveTriangle
	LfoSquare   = lfo.WaveSquare
	LfoSaw      = lfo.WaveSaw
	LfoRandom   = lfo.WaveRandom
)

var ErrModuleOutOfRange = wtsynth.ErrModuleOutOfRange

// The setters below apply immediately, like route edits, and return
// ErrNoModMatrix unless the channel plays the wavetable engine.

// SetLowPass replaces low-pass i (0 or 1) of channel ch, including key
// tracking and envelope amount.
func (p *Player) SetLowPass(ch, i int, lp LowPassParams) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	wt, err := p.matrixEngine(ch)
	if err != nil {
		return err
	}
	return wt.SetLowPass(i, lp)
}

// SetEnvelope replaces envelope i (0-3). Envelope 0 shapes amplitude.
func (p *Player) SetEnvelope(ch, i int, env EnvelopeParams) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	wt, err := p.matrixEngine(ch)
	if err != nil {
		return err
	}
	return wt.SetEnvelope(i, env)
}

// SetLfo sets the rate in Hz and the shape of LFO i (0-3).
func (p *Player) SetLfo(ch, i int, hz float32, shape LfoWaveform) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	wt, err := p.matrixEngine(ch)
	if err != nil {
		return err
	}
	return wt.SetLfo(i, hz, shape)
}

// WaveTableParams returns the module settings of channel ch.
func (p *Player) WaveTableParams(ch int) (WaveTableParams, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	wt, err := p.matrixEngine(ch)
	if err != nil {
		return WaveTableParams{}, err
	}
	return wt.VoiceParams(), nil
}
