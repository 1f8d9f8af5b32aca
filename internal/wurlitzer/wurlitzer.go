// Package wurlitzer models an electric piano: a fundamental crossfaded into
// its second harmonic by a velocity-keyed parameter envelope, coloured by a
// formant oscillator and a tremolo.
package wurlitzer

import (
	"github.com/chewxy/math32"

	"github.com/cbegin/stepper-go/internal/engine"
	"github.com/cbegin/stepper-go/internal/envelope"
	"github.com/cbegin/stepper-go/internal/lfo"
	"github.com/cbegin/stepper-go/internal/wavetable"
)

const (
	// TableSize is the length of each oscillator table.
	TableSize = 256

	keyFrameMod     = 0.68
	formantShifting = 0.11

	tremRange  = 10 // Hz at knob 2 = 1
	decayRange = 20 // seconds at knob 3 = 1
)

var (
	fundamentalTable = wavetable.BuildSine(TableSize, []wavetable.Overtone{{Ratio: 1, Volume: 1}})
	harmonicTable    = wavetable.BuildSine(TableSize, []wavetable.Overtone{{Ratio: 2, Volume: 1}})
	formantTable     = wavetable.BuildSine(TableSize, []wavetable.Overtone{{Ratio: 0.5, Volume: 1}})
)

// Params controls the piano.
type Params struct {
	Voices    int
	VolEnv    envelope.Params
	ParamEnv  envelope.Params
	TremHz    float32
	TremDepth float32
	Volume    float32
}

// DefaultParams returns a slow-decaying tine with a 5.5 Hz tremolo.
func DefaultParams() Params {
	return Params{
		Voices:    10,
		VolEnv:    envelope.Params{AttackSec: 0.01, DecaySec: 10, SustainLvl: 0.125, ReleaseSec: 0.3},
		ParamEnv:  envelope.Params{AttackSec: 0.01, DecaySec: 7, SustainLvl: 0.125, ReleaseSec: 0.3},
		TremHz:    5.5,
		TremDepth: 0.25,
		Volume:    1,
	}
}

// note is one piano voice.
type note struct {
	fundamental wavetable.Oscillator
	harmonic    wavetable.Oscillator
	formant     wavetable.Oscillator
	trem        lfo.LFO
	volEnv      envelope.ADSR
	paramEnv    envelope.ADSR

	slot     engine.NoteSlot
	vel      float32
	baseFreq float32
}

func (n *note) init(sampleRate int, p Params) {
	n.fundamental.Init(sampleRate, fundamentalTable)
	n.harmonic.Init(sampleRate, harmonicTable)
	n.formant.Init(sampleRate, formantTable)
	n.trem.Init(sampleRate, p.TremHz)
	n.volEnv.Init(sampleRate, p.VolEnv)
	n.paramEnv.Init(sampleRate, p.ParamEnv)
}

func (n *note) press(midi, velocity uint8) {
	n.vel = engine.Velocity(velocity)
	n.baseFreq = engine.MidiToFreq(midi)
	n.setFrequency(n.baseFreq)
	n.volEnv.Press()
	n.paramEnv.Press()
	n.trem.Press()
	n.slot.Set(midi)
}

func (n *note) release() {
	n.volEnv.Release()
	n.paramEnv.Release()
}

func (n *note) setFrequency(hz float32) {
	n.fundamental.SetFrequency(hz)
	n.harmonic.SetFrequency(hz)
	n.formant.SetFrequency(hz)
}

func (n *note) sample(depth float32) float32 {
	harmonic := n.harmonic.Sample()
	fundamental := n.fundamental.Sample()
	penv := n.paramEnv.Sample()
	mix := penv - penv*keyFrameMod*n.vel
	trem := n.trem.Sample() * depth * n.vel
	vol := n.volEnv.Sample()
	if !n.volEnv.Active() {
		n.slot.Clear()
	}

	s := (fundamental*(1-mix) + harmonic*mix) * 0.5
	s *= 1 - n.formant.Sample()*formantShifting*penv*n.vel
	s *= vol
	return s - s*trem
}

// Engine is the electric piano engine.
type Engine struct {
	engine.Sealed

	params Params
	notes  []note
}

// New creates a piano at sampleRate.
func New(sampleRate int, params Params) *Engine {
	if params.Voices <= 0 {
		params.Voices = 10
	}
	e := &Engine{params: params, notes: make([]note, params.Voices)}
	for i := range e.notes {
		e.notes[i].init(sampleRate, params)
	}
	return e
}

func (e *Engine) Type() engine.Type { return engine.Wurlitzer }
func (e *Engine) Name() string      { return "Wurlitzer" }

// Sample renders one sample.
func (e *Engine) Sample() float32 {
	var sum float32
	for i := range e.notes {
		if e.notes[i].slot.Playing() {
			sum += e.notes[i].sample(e.params.TremDepth)
		}
	}
	return math32.Tanh(sum * e.params.Volume)
}

// Play ignores a held duplicate and drops the note when every voice is busy.
func (e *Engine) Play(midi, velocity uint8) {
	for i := range e.notes {
		if e.notes[i].slot.Is(midi) && e.notes[i].volEnv.Pressed() {
			return
		}
	}
	for i := range e.notes {
		if !e.notes[i].slot.Playing() {
			e.notes[i].press(midi, velocity)
			return
		}
	}
}

func (e *Engine) Stop(midi uint8) {
	for i := range e.notes {
		if e.notes[i].slot.Is(midi) {
			e.notes[i].release()
		}
	}
}

func (e *Engine) Bend(amount float32) {
	r := engine.BendRatio(amount)
	for i := range e.notes {
		if e.notes[i].slot.Playing() {
			e.notes[i].setFrequency(e.notes[i].baseFreq * r)
		}
	}
}

func (e *Engine) Unbend() {
	for i := range e.notes {
		e.notes[i].setFrequency(e.notes[i].baseFreq)
	}
}

func (e *Engine) ActiveVoiceCount() int {
	n := 0
	for i := range e.notes {
		if e.notes[i].slot.Playing() {
			n++
		}
	}
	return n
}

// VolumeSwell sets the output volume.
func (e *Engine) VolumeSwell(amount float32) bool {
	e.params.Volume = amount
	return true
}

// Knob maps 1 to tremolo depth, 2 to tremolo rate, 3 to decay, 4 to
// release and 5 to volume.
func (e *Engine) Knob(k engine.Knob, value float32) bool {
	switch k {
	case engine.KnobOne:
		e.params.TremDepth = value
	case engine.KnobTwo:
		e.params.TremHz = value * tremRange
		for i := range e.notes {
			e.notes[i].trem.SetFrequency(e.params.TremHz)
		}
	case engine.KnobThree:
		e.params.VolEnv.DecaySec = value * decayRange
		for i := range e.notes {
			e.notes[i].volEnv.SetDecay(e.params.VolEnv.DecaySec)
		}
	case engine.KnobFour:
		e.params.VolEnv.ReleaseSec = value
		e.params.ParamEnv.ReleaseSec = value
		for i := range e.notes {
			e.notes[i].volEnv.SetRelease(value)
			e.notes[i].paramEnv.SetRelease(value)
		}
	case engine.KnobFive:
		e.params.Volume = value
	default:
		return false
	}
	return true
}

// GUIParam is unused; the piano has no secondary controls.
func (e *Engine) GUIParam(engine.GUIParam, float32) bool { return false }

func (e *Engine) Knobs() map[engine.Knob]float32 {
	return map[engine.Knob]float32{
		engine.KnobOne:   e.params.TremDepth,
		engine.KnobTwo:   e.params.TremHz / tremRange,
		engine.KnobThree: e.params.VolEnv.DecaySec / decayRange,
		engine.KnobFour:  e.params.VolEnv.ReleaseSec,
		engine.KnobFive:  e.params.Volume,
	}
}

func (e *Engine) GUIParams() map[engine.GUIParam]float32 {
	return map[engine.GUIParam]float32{}
}
