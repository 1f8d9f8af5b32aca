// Package filter holds the per-voice resonant low-pass and the all-pass
// output stage.
package filter

import "github.com/chewxy/math32"

// middleC is the key-tracking reference: a note at this frequency leaves the cutoff unchanged.
const middleC = 261.63

const (
	minCutoff    = 10
	maxResonance = 0.99
)

// Param names a modulatable filter parameter.
type Param int

const (
	ParamCutoff Param = iota
	ParamResonance
	ParamMix
)

// Params are the base low-pass settings.
type Params struct {
	CutoffHz  float32
	Resonance float32 // 0..1, clamped below self oscillation
	Mix       float32 // 0 = dry, 1 = fully filtered
	KeyTrack  bool
	// EnvAmount scales cutoff by (1 + EnvAmount*env) where env is the value passed to Sample.
	EnvAmount float32
}

// DefaultParams returns an open filter.
func DefaultParams() Params {
	return Params{
		CutoffHz:  16000,
		Resonance: 0,
		Mix:       1,
	}
}

// LowPass is a zero-delay-feedback state variable low-pass.
type LowPass struct {
	sampleRate float32
	base       Params
	modCutoff  float32
	modRes     float32
	modMix     float32
	noteHz     float32

	ic1, ic2   float32
	g, k       float32
	lastCutoff float32
	lastRes    float32
}

// NewLowPass returns a low-pass at sampleRate.
func NewLowPass(sampleRate int, params Params) *LowPass {
	f := &LowPass{}
	f.Init(sampleRate, params)
	return f
}

// Init prepares a filter value in place.
func (f *LowPass) Init(sampleRate int, params Params) {
	if sampleRate <= 0 {
		sampleRate = 48000
	}
	*f = LowPass{sampleRate: float32(sampleRate), base: params, lastCutoff: -1, lastRes: -1}
}

func (f *LowPass) Params() Params { return f.base }

func (f *LowPass) SetCutoff(hz float32)      { f.base.CutoffHz = hz }
func (f *LowPass) SetResonance(r float32)    { f.base.Resonance = r }
func (f *LowPass) SetMix(m float32)          { f.base.Mix = m }
func (f *LowPass) SetKeyTrack(on bool)       { f.base.KeyTrack = on }
func (f *LowPass) SetEnvAmount(amt float32)  { f.base.EnvAmount = amt }
func (f *LowPass) SetNote(frequency float32) { f.noteHz = frequency }

// Modulate offsets a parameter until ResetModulation.
func (f *LowPass) Modulate(p Param, by float32) {
	switch p {
	case ParamCutoff:
		f.modCutoff += by
	case ParamResonance:
		f.modRes += by
	case ParamMix:
		f.modMix += by
	}
}

// ResetModulation clears all modulation offsets.
func (f *LowPass) ResetModulation() {
	f.modCutoff, f.modRes, f.modMix = 0, 0, 0
}

// Reset clears the filter memory.
func (f *LowPass) Reset() {
	f.ic1, f.ic2 = 0, 0
}

// Cutoff returns the effective cutoff for the given envelope value.
func (f *LowPass) Cutoff(env float32) float32 {
	c := f.base.CutoffHz + f.modCutoff
	if f.base.KeyTrack && f.noteHz > 0 {
		c *= f.noteHz / middleC
	}
	if f.base.EnvAmount != 0 {
		c *= 1 + f.base.EnvAmount*env
	}
	return clamp(c, minCutoff, f.sampleRate*0.49)
}

// Sample filters one input. env is the owning voice's envelope level.
func (f *LowPass) Sample(in, env float32) float32 {
	c := f.Cutoff(env)
	res := clamp(f.base.Resonance+f.modRes, 0, maxResonance)
	if c != f.lastCutoff {
		f.g = math32.Tan(math32.Pi * c / f.sampleRate)
		f.lastCutoff = c
	}
	if res != f.lastRes {
		f.k = 2 * (1 - res)
		f.lastRes = res
	}

	a1 := 1 / (1 + f.g*(f.g+f.k))
	a2 := f.g * a1
	a3 := f.g * a2
	v3 := in - f.ic2
	v1 := a1*f.ic1 + a2*v3
	v2 := f.ic2 + a2*f.ic1 + a3*v3
	f.ic1 = 2*v1 - f.ic1
	f.ic2 = 2*v2 - f.ic2

	mix := clamp(f.base.Mix+f.modMix, 0, 1)
	return v2*mix + in*(1-mix)
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
