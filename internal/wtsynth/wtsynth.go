// Package wtsynth is the modulation-matrix driven wavetable synth. Each voice
// carries oscillators, low-passes, envelopes and LFOs; the matrix routes
// engine-wide and per-voice sources onto any of their parameters.
package wtsynth

import (
	"errors"
	"fmt"

	"github.com/GeoffreyPlitt/debuggo"
	"github.com/chewxy/math32"

	"github.com/cbegin/stepper-go/internal/engine"
	"github.com/cbegin/stepper-go/internal/envelope"
	"github.com/cbegin/stepper-go/internal/filter"
	"github.com/cbegin/stepper-go/internal/lfo"
	"github.com/cbegin/stepper-go/internal/modmatrix"
	"github.com/cbegin/stepper-go/internal/voice"
	"github.com/cbegin/stepper-go/internal/wavetable"
)

const (
	// TableSize is the oscillator table length.
	TableSize = 1024
	// NumOvertones is the number of harmonics in the oscillator table.
	NumOvertones = 10

	cutoffRange = 16000
)

var synthDebug = debuggo.Debug("stepper:wtsynth")

// ErrModuleOutOfRange reports a low-pass, envelope or LFO index past the
// voice layout.
var ErrModuleOutOfRange = errors.New("wtsynth: module index out of range")

// Params controls the synth.
type Params struct {
	Voices int
	Voice  voice.Params
	Volume float32
}

// DefaultParams returns ten voices with every oscillator at 0.8.
func DefaultParams() Params {
	p := Params{Voices: 10, Voice: voice.DefaultParams(), Volume: 1}
	for i := range p.Voice.Osc {
		p.Voice.Osc[i].Level = 0.8
	}
	return p
}

// Engine is the wavetable synth engine.
type Engine struct {
	engine.Sealed

	params Params
	table  wavetable.Table
	voices []*voice.Voice
	matrix *modmatrix.Matrix
	data   *modmatrix.DataTable
}

// New creates a synth at sampleRate with an empty matrix.
func New(sampleRate int, params Params) *Engine {
	if params.Voices <= 0 {
		params.Voices = 10
	}
	if params.Voices > modmatrix.MaxVoices {
		params.Voices = modmatrix.MaxVoices
	}
	e := &Engine{
		params: params,
		table:  wavetable.BuildSine(TableSize, wavetable.Harmonics(NumOvertones)),
		matrix: modmatrix.New(),
		data:   modmatrix.NewDataTable(),
	}
	e.voices = make([]*voice.Voice, params.Voices)
	for i := range e.voices {
		e.voices[i] = voice.New(sampleRate, e.table, params.Voice)
	}
	return e
}

func (e *Engine) Type() engine.Type { return engine.WaveTable }
func (e *Engine) Name() string      { return "WaveTable" }

// Sample renders one sample.
func (e *Engine) Sample() float32 {
	var sum float32
	for i, v := range e.voices {
		if !v.Playing() {
			continue
		}
		sum += v.Sample(e.matrix, e.data)
		if !v.Playing() {
			e.data.RemoveVoice(i)
		}
	}
	return math32.Tanh(sum * e.params.Volume)
}

// Play presses the first idle voice. A held duplicate is ignored and the
// note is dropped when every voice is busy.
func (e *Engine) Play(note, velocity uint8) {
	for _, v := range e.voices {
		if n, ok := v.Note(); ok && n == note && v.Pressed() {
			return
		}
	}
	for i, v := range e.voices {
		if !v.Playing() {
			v.Press(note, velocity)
			e.data.PushVoice(i)
			return
		}
	}
	synthDebug("no free voice for note %d", note)
}

// Stop releases every held voice sounding note.
func (e *Engine) Stop(note uint8) {
	for _, v := range e.voices {
		if n, ok := v.Note(); ok && n == note && v.Pressed() {
			v.Release()
		}
	}
}

// Bend feeds the pitch wheel source and retunes every voice.
func (e *Engine) Bend(amount float32) {
	e.data.SetBend(amount)
	r := engine.BendRatio(amount)
	for _, v := range e.voices {
		v.SetBend(r)
	}
}

func (e *Engine) Unbend() { e.Bend(0) }

// SetModWheel sets the mod wheel source, in [0, 1].
func (e *Engine) SetModWheel(value float32) { e.data.ModWheel = value }

// SetMacro sets macro i, in [0, 1].
func (e *Engine) SetMacro(i int, value float32) {
	if i >= 0 && i < modmatrix.NumMacro {
		e.data.Macros[i] = value
	}
}

func (e *Engine) ActiveVoiceCount() int {
	n := 0
	for _, v := range e.voices {
		if v.Playing() {
			n++
		}
	}
	return n
}

// VolumeSwell sets the output volume.
func (e *Engine) VolumeSwell(amount float32) bool {
	e.params.Volume = amount
	return false
}

// Knob maps 1-4 to the macros and 5-8 to the amplitude envelope.
func (e *Engine) Knob(k engine.Knob, value float32) bool {
	switch {
	case k >= engine.KnobOne && k <= engine.KnobFour:
		e.SetMacro(int(k-engine.KnobOne), value)
	case k == engine.KnobFive:
		e.params.Voice.Env[0].AttackSec = value
	case k == engine.KnobSix:
		e.params.Voice.Env[0].DecaySec = value
	case k == engine.KnobSeven:
		e.params.Voice.Env[0].SustainLvl = value
	case k == engine.KnobEight:
		e.params.Voice.Env[0].ReleaseSec = value
	default:
		return false
	}
	if k >= engine.KnobFive {
		for _, v := range e.voices {
			v.Env(0).SetParams(e.params.Voice.Env[0])
		}
	}
	return true
}

// GUIParam maps A-C to oscillator levels (zero mutes), D-F to oscillator
// tuning in octaves and G/H to the first low-pass.
func (e *Engine) GUIParam(p engine.GUIParam, value float32) bool {
	switch {
	case p >= engine.GUIA && p <= engine.GUIC:
		i := int(p - engine.GUIA)
		o := e.params.Voice.Osc[i]
		o.Level, o.On = value, value > 0
		e.setOsc(i, o)
	case p >= engine.GUID && p <= engine.GUIF:
		i := int(p - engine.GUID)
		o := e.params.Voice.Osc[i]
		o.Tune = value
		e.setOsc(i, o)
	case p == engine.GUIG:
		e.params.Voice.LowPass[0].CutoffHz = value * cutoffRange
		for _, v := range e.voices {
			v.LowPass(0).SetCutoff(e.params.Voice.LowPass[0].CutoffHz)
		}
	case p == engine.GUIH:
		e.params.Voice.LowPass[0].Resonance = value
		for _, v := range e.voices {
			v.LowPass(0).SetResonance(value)
		}
	default:
		return false
	}
	return true
}

func (e *Engine) setOsc(i int, o voice.OscParams) {
	e.params.Voice.Osc[i] = o
	for _, v := range e.voices {
		v.SetOsc(i, o)
	}
}

// VoiceParams returns the settings new and sounding voices share.
func (e *Engine) VoiceParams() voice.Params { return e.params.Voice }

// SetLowPass replaces the base settings of low-pass i on every voice.
// Matrix modulation is applied on top.
func (e *Engine) SetLowPass(i int, p filter.Params) error {
	if i < 0 || i >= voice.NumLowPass {
		return fmt.Errorf("%w: low-pass %d", ErrModuleOutOfRange, i)
	}
	e.params.Voice.LowPass[i] = p
	for _, v := range e.voices {
		f := v.LowPass(i)
		f.SetCutoff(p.CutoffHz)
		f.SetResonance(p.Resonance)
		f.SetMix(p.Mix)
		f.SetKeyTrack(p.KeyTrack)
		f.SetEnvAmount(p.EnvAmount)
	}
	return nil
}

// SetEnvelope replaces envelope i. Envelope 0 is the amplitude envelope
// also driven by knobs 5-8; the rest are modulation sources.
func (e *Engine) SetEnvelope(i int, p envelope.Params) error {
	if i < 0 || i >= voice.NumEnv {
		return fmt.Errorf("%w: envelope %d", ErrModuleOutOfRange, i)
	}
	e.params.Voice.Env[i] = p
	for _, v := range e.voices {
		v.Env(i).SetParams(p)
	}
	return nil
}

// SetLfo sets the rate and shape of LFO i. Unknown shapes play as sine.
func (e *Engine) SetLfo(i int, hz float32, w lfo.Waveform) error {
	if i < 0 || i >= voice.NumLfo {
		return fmt.Errorf("%w: lfo %d", ErrModuleOutOfRange, i)
	}
	if w < lfo.WaveSine || w > lfo.WaveRandom {
		w = lfo.WaveSine
	}
	e.params.Voice.LfoHz[i] = hz
	e.params.Voice.LfoShape[i] = w
	for _, v := range e.voices {
		v.Lfo(i).SetWaveform(w)
		v.Lfo(i).SetFrequency(hz)
	}
	return nil
}

func (e *Engine) Knobs() map[engine.Knob]float32 {
	env := e.params.Voice.Env[0]
	return map[engine.Knob]float32{
		engine.KnobOne:   e.data.Macros[0],
		engine.KnobTwo:   e.data.Macros[1],
		engine.KnobThree: e.data.Macros[2],
		engine.KnobFour:  e.data.Macros[3],
		engine.KnobFive:  env.AttackSec,
		engine.KnobSix:   env.DecaySec,
		engine.KnobSeven: env.SustainLvl,
		engine.KnobEight: env.ReleaseSec,
	}
}

func (e *Engine) GUIParams() map[engine.GUIParam]float32 {
	out := make(map[engine.GUIParam]float32, engine.NumGUIParams)
	for i, o := range e.params.Voice.Osc {
		lvl := o.Level
		if !o.On {
			lvl = 0
		}
		out[engine.GUIA+engine.GUIParam(i)] = lvl
		out[engine.GUID+engine.GUIParam(i)] = o.Tune
	}
	out[engine.GUIG] = e.params.Voice.LowPass[0].CutoffHz / cutoffRange
	out[engine.GUIH] = e.params.Voice.LowPass[0].Resonance
	return out
}

// Matrix exposes the routing table.
func (e *Engine) Matrix() *modmatrix.Matrix { return e.matrix }

// AddRoute parses a textual source and TOML destination and adds the
// resulting entry. A full matrix drops the entry with ok false.
func (e *Engine) AddRoute(src, dest string, amt float32, bipolar bool) (index int, ok bool, err error) {
	it, err := parseItem(src, dest, amt, bipolar)
	if err != nil {
		synthDebug("add route rejected: %v", err)
		return -1, false, err
	}
	return e.matrix.Add(it)
}

// ModifyRoute replaces entry i from text. On error the entry is unchanged.
func (e *Engine) ModifyRoute(i int, src, dest string, amt float32, bipolar bool) error {
	it, err := parseItem(src, dest, amt, bipolar)
	if err == nil {
		err = e.matrix.Modify(i, it)
	}
	if err != nil {
		synthDebug("modify route %d rejected: %v", i, err)
	}
	return err
}

func parseItem(src, dest string, amt float32, bipolar bool) (modmatrix.Item, error) {
	s, err := modmatrix.ParseSource(src)
	if err != nil {
		return modmatrix.Item{}, fmt.Errorf("wtsynth: %w", err)
	}
	d, err := modmatrix.ParseDest(dest)
	if err != nil {
		return modmatrix.Item{}, fmt.Errorf("wtsynth: %w", err)
	}
	return modmatrix.Item{Src: s, Dest: d, Amt: amt, Bipolar: bipolar}, nil
}

// Voice exposes voice i for direct parameter edits.
func (e *Engine) Voice(i int) *voice.Voice { return e.voices[i] }
