// Package organ is a drawbar organ: a single summed-overtone table played
// through a shared rotary-speaker LFO.
package organ

import (
	"math"

	"github.com/chewxy/math32"

	"github.com/cbegin/stepper-go/internal/engine"
	"github.com/cbegin/stepper-go/internal/envelope"
	"github.com/cbegin/stepper-go/internal/filter"
	"github.com/cbegin/stepper-go/internal/lfo"
	"github.com/cbegin/stepper-go/internal/voice"
	"github.com/cbegin/stepper-go/internal/wavetable"
)

const (
	// TableSize is the organ wavetable length.
	TableSize = 126
	// NumDrawbars is the number of overtone controls.
	NumDrawbars = 8

	leslieRPM   = 400
	leslieAmp   = 0.25
	cutoffRange = 10000
)

// Params controls the organ.
type Params struct {
	Voices    int
	Drawbars  [NumDrawbars]wavetable.Overtone
	Env       envelope.Params
	CutoffHz  float32
	Resonance float32
	Volume    float32
	// LeslieSpeed scales the rotary speaker rate and depth; 1 is 400 rpm.
	LeslieSpeed float32
}

// DefaultParams returns the classic 16', 5 1/3', 8' and 2 2/3' registration.
func DefaultParams() Params {
	return Params{
		Voices: 10,
		Drawbars: [NumDrawbars]wavetable.Overtone{
			{Ratio: math.Pow(0.5, 1.0/12), Volume: 1},
			{Ratio: math.Pow(1.5, 1.0/12), Volume: 1},
			{Ratio: 1, Volume: 1},
			{Ratio: 3, Volume: 0.5},
			{Ratio: 4, Volume: 0},
			{Ratio: 5, Volume: 0},
			{Ratio: 6, Volume: 0},
			{Ratio: 8, Volume: 0},
		},
		Env:         envelope.Params{AttackSec: 0.01, DecaySec: 0.1, SustainLvl: 1, ReleaseSec: 0.1},
		CutoffHz:    10000,
		Volume:      1,
		LeslieSpeed: 1,
	}
}

// Engine is the organ engine.
type Engine struct {
	engine.Sealed

	params Params
	table  wavetable.Table
	voices voice.Pool
	leslie *lfo.LFO
}

// New creates an organ at sampleRate.
func New(sampleRate int, params Params) *Engine {
	if params.Voices <= 0 {
		params.Voices = 10
	}
	e := &Engine{
		params: params,
		table:  wavetable.BuildSine(TableSize, params.Drawbars[:]),
		leslie: lfo.New(sampleRate, 0),
	}
	lp := filter.DefaultParams()
	lp.CutoffHz = params.CutoffHz
	lp.Resonance = params.Resonance
	e.voices = voice.NewPool(params.Voices, sampleRate, e.table, params.Env, lp)
	e.setLeslie(params.LeslieSpeed)
	return e
}

func (e *Engine) Type() engine.Type { return engine.Organ }
func (e *Engine) Name() string      { return "Organ" }

// Sample renders one sample.
func (e *Engine) Sample() float32 {
	l := e.leslie.Sample()
	var sum float32
	for i := range e.voices {
		o := &e.voices[i]
		if !o.Playing() {
			continue
		}
		o.Vibrato(l)
		sum += o.Sample()
	}
	sum *= e.params.Volume
	sum += sum * l * leslieAmp
	return math32.Tanh(sum)
}

// Play ignores a note that is already held and drops notes once every voice is busy.
func (e *Engine) Play(note, velocity uint8) { e.voices.Play(note, velocity) }
func (e *Engine) Stop(note uint8)           { e.voices.Stop(note) }
func (e *Engine) Bend(amount float32)       { e.voices.Bend(amount) }
func (e *Engine) Unbend()                   { e.voices.Unbend() }
func (e *Engine) ActiveVoiceCount() int     { return e.voices.Active() }

// VolumeSwell drives the rotary speaker.
func (e *Engine) VolumeSwell(amount float32) bool {
	e.setLeslie(amount)
	return true
}

func (e *Engine) setLeslie(speed float32) {
	e.params.LeslieSpeed = speed
	e.leslie.SetFrequency(leslieRPM * speed / 60)
	e.leslie.SetDepth(speed)
}

// Knob sets drawbar k's volume and rebuilds the table.
func (e *Engine) Knob(k engine.Knob, value float32) bool {
	if k < 0 || int(k) >= NumDrawbars {
		return false
	}
	e.params.Drawbars[k].Volume = float64(value)
	// Runs on the audio thread when the player drains the event, so each
	// drawbar move allocates a fresh TableSize table there.
	e.table = wavetable.BuildSine(TableSize, e.params.Drawbars[:])
	for i := range e.voices {
		e.voices[i].SetTable(e.table)
	}
	return true
}

// GUIParam maps A-D to the envelope, E to leslie speed and F/G to the filter.
func (e *Engine) GUIParam(p engine.GUIParam, value float32) bool {
	switch p {
	case engine.GUIA:
		e.params.Env.AttackSec = value
	case engine.GUIB:
		e.params.Env.DecaySec = value
	case engine.GUIC:
		e.params.Env.SustainLvl = value
	case engine.GUID:
		e.params.Env.ReleaseSec = value
	case engine.GUIE:
		e.setLeslie(value)
		return true
	case engine.GUIF:
		e.params.CutoffHz = value * cutoffRange
		for i := range e.voices {
			e.voices[i].Filter.SetCutoff(e.params.CutoffHz)
		}
		return true
	case engine.GUIG:
		e.params.Resonance = value
		for i := range e.voices {
			e.voices[i].Filter.SetResonance(value)
		}
		return true
	default:
		return false
	}
	for i := range e.voices {
		e.voices[i].Env.SetParams(e.params.Env)
	}
	return true
}

// Knobs reports drawbar volumes.
func (e *Engine) Knobs() map[engine.Knob]float32 {
	out := make(map[engine.Knob]float32, NumDrawbars)
	for i, d := range e.params.Drawbars {
		out[engine.Knob(i)] = float32(d.Volume)
	}
	return out
}

// GUIParams reports envelope, leslie and filter settings.
func (e *Engine) GUIParams() map[engine.GUIParam]float32 {
	return map[engine.GUIParam]float32{
		engine.GUIA: e.params.Env.AttackSec,
		engine.GUIB: e.params.Env.DecaySec,
		engine.GUIC: e.params.Env.SustainLvl,
		engine.GUID: e.params.Env.ReleaseSec,
		engine.GUIE: e.params.LeslieSpeed,
		engine.GUIF: e.params.CutoffHz / cutoffRange,
		engine.GUIG: e.params.Resonance,
	}
}

// Table returns the current drawbar table.
func (e *Engine) Table() wavetable.Table { return e.table }
