// Package subtractive is a two-oscillator subtractive synth. Every note
// presses one slot in each of two oscillator banks; the banks are mixed,
// filtered per slot and soft clipped.
package subtractive

import (
	"github.com/chewxy/math32"

	"github.com/cbegin/stepper-go/internal/engine"
	"github.com/cbegin/stepper-go/internal/envelope"
	"github.com/cbegin/stepper-go/internal/filter"
	"github.com/cbegin/stepper-go/internal/voice"
	"github.com/cbegin/stepper-go/internal/wavetable"
)

const (
	// TableSize is the length of each oscillator table.
	TableSize = 256
	// NumOvertones is the number of harmonics summed into every table.
	NumOvertones = 10
	// NumBanks is the number of oscillators per note.
	NumBanks = 2

	cutoffRange = 16000
	// maxOffset is the bank 2 transposition at GuiD = 1, in semitones.
	maxOffset = 24
	// detuneRange is the bank 2 detune at GuiE = 1, in cents.
	detuneRange = 100
	numShapes   = int(wavetable.ShapeSaw) + 1
)

// Params controls the synth.
type Params struct {
	Voices    int
	Shapes    [NumBanks]wavetable.Shape
	Env       envelope.Params
	CutoffHz  float32
	Resonance float32
	// Mix crossfades bank 1 (0) into bank 2 (1).
	Mix    float32
	Volume float32
	// Offset transposes bank 2 down, in semitones.
	Offset int
	// Detune shifts bank 2, in cents.
	Detune float32
	// Sync hard-syncs bank 2 to bank 1.
	Sync bool
}

// DefaultParams returns a sine and saw pair, evenly mixed.
func DefaultParams() Params {
	return Params{
		Voices:   10,
		Shapes:   [NumBanks]wavetable.Shape{wavetable.ShapeSine, wavetable.ShapeSaw},
		Env:      envelope.DefaultParams(),
		CutoffHz: filter.DefaultParams().CutoffHz,
		Mix:      0.5,
		Volume:   0.75,
	}
}

// Engine is the subtractive synth engine.
type Engine struct {
	engine.Sealed

	params Params
	tables wavetable.Set
	banks  [NumBanks]voice.Pool
}

// New creates a subtractive synth at sampleRate.
func New(sampleRate int, params Params) *Engine {
	if params.Voices <= 0 {
		params.Voices = 10
	}
	e := &Engine{
		params: params,
		tables: wavetable.NewSet(TableSize, wavetable.Harmonics(NumOvertones)),
	}
	lp := filter.DefaultParams()
	lp.CutoffHz = params.CutoffHz
	lp.Resonance = params.Resonance
	for b := range e.banks {
		e.banks[b] = voice.NewPool(params.Voices, sampleRate, e.tables.Get(params.Shapes[b]), params.Env, lp)
	}
	e.retuneBank2()
	return e
}

func (e *Engine) Type() engine.Type { return engine.Subtractive }
func (e *Engine) Name() string      { return "Synth" }

// Sample renders one sample.
func (e *Engine) Sample() float32 {
	w := [NumBanks]float32{1 - e.params.Mix, e.params.Mix}
	var sum float32
	for i := range e.banks[0] {
		a, b := &e.banks[0][i], &e.banks[1][i]
		if note, ok := a.Note(); ok {
			sum += a.Sample() * w[0] / NumBanks
			if e.params.Sync && a.Oscillator().Wrapped() && b.Is(note) {
				b.Oscillator().SyncReset()
			}
		}
		if b.Playing() {
			sum += b.Sample() * w[1] / NumBanks
		}
	}
	return math32.Tanh(sum * e.params.Volume)
}

// Play presses note in both banks. A held note is ignored and a note that
// finds a bank full is dropped from that bank.
func (e *Engine) Play(note, velocity uint8) {
	for b := range e.banks {
		e.banks[b].Play(note, velocity)
	}
}

func (e *Engine) Stop(note uint8) {
	for b := range e.banks {
		e.banks[b].Stop(note)
	}
}

func (e *Engine) Bend(amount float32) {
	for b := range e.banks {
		e.banks[b].Bend(amount)
	}
}

func (e *Engine) Unbend() {
	for b := range e.banks {
		e.banks[b].Unbend()
	}
}

// ActiveVoiceCount counts sounding notes in the first bank.
func (e *Engine) ActiveVoiceCount() int { return e.banks[0].Active() }

// VolumeSwell sets the output volume.
func (e *Engine) VolumeSwell(amount float32) bool {
	e.params.Volume = amount
	return false
}

// Knob maps 1-4 to the envelope, 5 to cutoff and 6 to resonance.
func (e *Engine) Knob(k engine.Knob, value float32) bool {
	switch k {
	case engine.KnobOne:
		e.params.Env.AttackSec = value
	case engine.KnobTwo:
		e.params.Env.DecaySec = value
	case engine.KnobThree:
		e.params.Env.SustainLvl = value
	case engine.KnobFour:
		e.params.Env.ReleaseSec = value
	case engine.KnobFive:
		e.params.CutoffHz = value * cutoffRange
		e.each(func(o *voice.Osc) { o.Filter.SetCutoff(e.params.CutoffHz) })
		return true
	case engine.KnobSix:
		e.params.Resonance = value
		e.each(func(o *voice.Osc) { o.Filter.SetResonance(value) })
		return true
	default:
		return false
	}
	e.each(func(o *voice.Osc) { o.Env.SetParams(e.params.Env) })
	return true
}

// GUIParam maps A/B to the bank shapes, C to mix, D to the bank 2 offset
// (0-24 semitones), E to detune (0-100 cents) and F to hard sync. Values are
// normalised; shapes split [0, 1] into four equal bands.
func (e *Engine) GUIParam(p engine.GUIParam, value float32) bool {
	switch p {
	case engine.GUIA, engine.GUIB:
		b := int(p - engine.GUIA)
		e.params.Shapes[b] = wavetable.ShapeFromIndex(int(clamp01(value) * (float32(numShapes) - 0.001)))
		t := e.tables.Get(e.params.Shapes[b])
		for i := range e.banks[b] {
			e.banks[b][i].SetTable(t)
		}
	case engine.GUIC:
		e.params.Mix = clamp01(value)
	case engine.GUID:
		e.params.Offset = int(clamp01(value)*maxOffset + 0.5)
		e.retuneBank2()
	case engine.GUIE:
		e.params.Detune = clamp01(value) * detuneRange
		e.retuneBank2()
	case engine.GUIF:
		e.params.Sync = value >= 0.5
	default:
		return false
	}
	return true
}

// retuneBank2 applies offset and detune to later presses.
func (e *Engine) retuneBank2() {
	semis := -float32(e.params.Offset) + e.params.Detune/100
	for i := range e.banks[1] {
		e.banks[1][i].SetOffset(semis)
	}
}

func (e *Engine) each(f func(o *voice.Osc)) {
	for b := range e.banks {
		for i := range e.banks[b] {
			f(&e.banks[b][i])
		}
	}
}

func (e *Engine) Knobs() map[engine.Knob]float32 {
	return map[engine.Knob]float32{
		engine.KnobOne:   e.params.Env.AttackSec,
		engine.KnobTwo:   e.params.Env.DecaySec,
		engine.KnobThree: e.params.Env.SustainLvl,
		engine.KnobFour:  e.params.Env.ReleaseSec,
		engine.KnobFive:  e.params.CutoffHz / cutoffRange,
		engine.KnobSix:   e.params.Resonance,
	}
}

func (e *Engine) GUIParams() map[engine.GUIParam]float32 {
	sync := float32(0)
	if e.params.Sync {
		sync = 1
	}
	return map[engine.GUIParam]float32{
		engine.GUIA: float32(e.params.Shapes[0]) / float32(numShapes-1),
		engine.GUIB: float32(e.params.Shapes[1]) / float32(numShapes-1),
		engine.GUIC: e.params.Mix,
		engine.GUID: float32(e.params.Offset) / maxOffset,
		engine.GUIE: e.params.Detune / detuneRange,
		engine.GUIF: sync,
	}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
