package voice

import (
	"github.com/chewxy/math32"

	"github.com/cbegin/stepper-go/internal/engine"
	"github.com/cbegin/stepper-go/internal/envelope"
	"github.com/cbegin/stepper-go/internal/filter"
	"github.com/cbegin/stepper-go/internal/lfo"
	"github.com/cbegin/stepper-go/internal/modmatrix"
	"github.com/cbegin/stepper-go/internal/wavetable"
)

const (
	NumOsc     = modmatrix.NumOsc
	NumLowPass = modmatrix.NumLowPass
	NumEnv     = modmatrix.NumEnv
	NumLfo     = modmatrix.NumLfo
)

const (
	// cutoffRange converts a unit cutoff modulation to Hz.
	cutoffRange = 16000
	// lfoSpeedRange converts a unit speed modulation to Hz.
	lfoSpeedRange = 10
)

// OscParams configures one oscillator of a Voice.
type OscParams struct {
	On    bool
	Level float32
	// Tune is in octaves relative to the played note.
	Tune float32
}

// Params configures every module of a Voice.
type Params struct {
	Osc      [NumOsc]OscParams
	LowPass  [NumLowPass]filter.Params
	Env      [NumEnv]envelope.Params
	LfoHz    [NumLfo]float32
	LfoShape [NumLfo]lfo.Waveform
}

// DefaultParams enables the first oscillator with both low-passes open.
func DefaultParams() Params {
	var p Params
	p.Osc[0] = OscParams{On: true, Level: 1}
	for i := 1; i < NumOsc; i++ {
		p.Osc[i] = OscParams{Level: 1}
	}
	for i := range p.LowPass {
		p.LowPass[i] = filter.DefaultParams()
	}
	for i := range p.Env {
		p.Env[i] = envelope.DefaultParams()
	}
	for i := range p.LfoHz {
		p.LfoHz[i] = 1
	}
	return p
}

// Voice is one polyphonic slot of the matrix-driven synth: several
// oscillators summed through two low-passes in series, with envelope 0
// shaping amplitude.
type Voice struct {
	oscs    [NumOsc]wavetable.Oscillator
	osc     [NumOsc]OscParams
	filters [NumLowPass]filter.LowPass
	envs    [NumEnv]envelope.ADSR
	lfos    [NumLfo]lfo.LFO

	note     engine.NoteSlot
	velocity float32
	baseFreq float32
	bend     float32

	volScale   float32
	levelScale [NumOsc]float32
	tuneMod    [NumOsc]float32
	lastTune   [NumOsc]float32
	stale      [NumOsc]bool
}

// New returns an idle voice whose oscillators read table.
func New(sampleRate int, table wavetable.Table, p Params) *Voice {
	v := &Voice{bend: 1}
	for i := range v.oscs {
		v.oscs[i].Init(sampleRate, table)
	}
	for i := range v.filters {
		v.filters[i].Init(sampleRate, p.LowPass[i])
	}
	for i := range v.envs {
		v.envs[i].Init(sampleRate, p.Env[i])
	}
	for i := range v.lfos {
		v.lfos[i].Init(sampleRate, p.LfoHz[i])
		v.lfos[i].SetWaveform(p.LfoShape[i])
	}
	v.osc = p.Osc
	return v
}

// SetOsc replaces an oscillator's settings.
func (v *Voice) SetOsc(i int, p OscParams) {
	v.osc[i] = p
	v.stale[i] = true
	v.retune(i)
}

// Osc returns an oscillator's settings.
func (v *Voice) Osc(i int) OscParams { return v.osc[i] }

// SetOscTable swaps the table read by oscillator i.
func (v *Voice) SetOscTable(i int, t wavetable.Table) { v.oscs[i].SetTable(t) }

// LowPass exposes filter i for direct parameter edits.
func (v *Voice) LowPass(i int) *filter.LowPass { return &v.filters[i] }

// Env exposes envelope i for direct parameter edits.
func (v *Voice) Env(i int) *envelope.ADSR { return &v.envs[i] }

// Lfo exposes LFO i for direct parameter edits.
func (v *Voice) Lfo(i int) *lfo.LFO { return &v.lfos[i] }

// Press starts note. Pressing the note already held is ignored.
func (v *Voice) Press(note, velocity uint8) {
	if v.note.Is(note) && v.envs[0].Pressed() {
		return
	}
	v.note.Set(note)
	v.velocity = engine.Velocity(velocity)
	v.baseFreq = engine.MidiToFreq(note)
	for i := range v.oscs {
		v.stale[i] = true
		v.retune(i)
	}
	for i := range v.filters {
		v.filters[i].SetNote(v.baseFreq)
	}
	for i := range v.envs {
		v.envs[i].Press()
	}
	for i := range v.lfos {
		v.lfos[i].Press()
	}
}

// Release moves every envelope to its release stage.
func (v *Voice) Release() {
	for i := range v.envs {
		v.envs[i].Release()
	}
	for i := range v.lfos {
		v.lfos[i].Release()
	}
}

// Note returns the note the voice is sounding.
func (v *Voice) Note() (uint8, bool) { return v.note.Get() }

// Playing reports whether any envelope is still active.
func (v *Voice) Playing() bool { return v.note.Playing() }

// Pressed reports whether the note is held.
func (v *Voice) Pressed() bool { return v.note.Playing() && v.envs[0].Pressed() }

// SetBend applies a frequency ratio on top of every oscillator's tuning.
func (v *Voice) SetBend(ratio float32) {
	v.bend = ratio
	for i := range v.oscs {
		v.stale[i] = true
		v.retune(i)
	}
}

func (v *Voice) retune(i int) {
	t := v.osc[i].Tune + v.tuneMod[i]
	if t == v.lastTune[i] && !v.stale[i] {
		return
	}
	v.lastTune[i] = t
	v.stale[i] = false
	f := v.baseFreq * v.bend
	if t != 0 {
		f *= math32.Pow(2, t)
	}
	v.oscs[i].SetFrequency(f)
}

// Modulate implements modmatrix.Target.
func (v *Voice) Modulate(d modmatrix.Dest, value float32) {
	switch d.Kind {
	case modmatrix.DestSynthVolume:
		v.volScale *= value
	case modmatrix.DestOsc:
		switch d.Param {
		case modmatrix.ParamLevel:
			v.levelScale[d.Index] *= value
		case modmatrix.ParamTune:
			v.tuneMod[d.Index] += value
		}
	case modmatrix.DestLowPass:
		f := &v.filters[d.Index]
		switch d.Param {
		case modmatrix.ParamCutoff:
			f.Modulate(filter.ParamCutoff, value*cutoffRange)
		case modmatrix.ParamRes:
			f.Modulate(filter.ParamResonance, value)
		case modmatrix.ParamMix:
			f.Modulate(filter.ParamMix, value)
		}
	case modmatrix.DestEnv:
		e := &v.envs[d.Index]
		switch d.Param {
		case modmatrix.ParamAttack:
			e.Modulate(envelope.ParamAttack, value)
		case modmatrix.ParamDecay:
			e.Modulate(envelope.ParamDecay, value)
		case modmatrix.ParamSustain:
			e.Modulate(envelope.ParamSustain, value)
		case modmatrix.ParamRelease:
			e.Modulate(envelope.ParamRelease, value)
		}
	case modmatrix.DestLfo:
		v.lfos[d.Index].ModulateSpeed(value * lfoSpeedRange)
	}
}

func (v *Voice) resetModulation() {
	v.volScale = 1
	for i := range v.oscs {
		v.levelScale[i] = 1
		v.tuneMod[i] = 0
	}
	for i := range v.filters {
		v.filters[i].ResetModulation()
	}
	for i := range v.envs {
		v.envs[i].ResetModulation()
	}
	for i := range v.lfos {
		v.lfos[i].ResetModulation()
	}
}

// Sample advances every module one step and returns the voice output.
// dt receives this voice's envelope, LFO, gate and velocity values before
// m is applied; m may be nil.
func (v *Voice) Sample(m *modmatrix.Matrix, dt *modmatrix.DataTable) float32 {
	if !v.note.Playing() {
		return 0
	}

	active := false
	for i := range v.envs {
		dt.Env[i] = v.envs[i].Sample()
		if v.envs[i].Active() {
			active = true
		}
	}
	for i := range v.lfos {
		dt.Lfo[i] = v.lfos[i].Sample()
	}
	dt.Velocity = v.velocity
	dt.Gate = 0
	if v.envs[0].Pressed() {
		dt.Gate = 1
	}

	v.resetModulation()
	if m != nil {
		m.Apply(dt, v)
	}

	var sum float32
	for i := range v.oscs {
		if !v.osc[i].On {
			continue
		}
		v.retune(i)
		sum += v.oscs[i].Sample() * v.osc[i].Level * v.levelScale[i]
	}

	amp := dt.Env[0]
	out := sum
	for i := range v.filters {
		out = v.filters[i].Sample(out, amp)
	}
	out *= amp * v.volScale

	if !active {
		v.note.Clear()
	}
	return out
}
