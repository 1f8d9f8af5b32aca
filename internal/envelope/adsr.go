// Package envelope implements the per-voice ADSR used for amplitude and
// parameter shaping.
package envelope

// Stage is the current segment of an ADSR.
type Stage int

const (
	Idle Stage = iota
	Attack
	Decay
	Sustain
	Release
)

func (s Stage) String() string {
	switch s {
	case Attack:
		return "Attack"
	case Decay:
		return "Decay"
	case Sustain:
		return "Sustain"
	case Release:
		return "Release"
	default:
		return "Idle"
	}
}

// Param names a modulatable envelope parameter.
type Param int

const (
	ParamAttack Param = iota
	ParamDecay
	ParamSustain
	ParamRelease
)

// Params are the base envelope settings. Times are in seconds.
type Params struct {
	AttackSec  float32
	DecaySec   float32
	SustainLvl float32
	ReleaseSec float32
}

// DefaultParams returns a short, general purpose shape.
func DefaultParams() Params {
	return Params{
		AttackSec:  0.01,
		DecaySec:   0.25,
		SustainLvl: 0.8,
		ReleaseSec: 0.3,
	}
}

const levelFloor = 1e-6

// ADSR is a four stage envelope advanced one step per Sample call.
// The output is always in [0, 1].
type ADSR struct {
	sampleRate float32
	base       Params
	mod        Params
	stage      Stage
	level      float32
	// release ramps linearly from the level held when Release was entered
	releaseFrom float32
}

// New returns an idle envelope.
func New(sampleRate int, params Params) *ADSR {
	e := &ADSR{}
	e.Init(sampleRate, params)
	return e
}

// Init prepares an envelope value in place.
func (e *ADSR) Init(sampleRate int, params Params) {
	if sampleRate <= 0 {
		sampleRate = 48000
	}
	*e = ADSR{sampleRate: float32(sampleRate)}
	e.SetParams(params)
}

// SetParams replaces all base settings.
func (e *ADSR) SetParams(p Params) {
	e.SetAttack(p.AttackSec)
	e.SetDecay(p.DecaySec)
	e.SetSustain(p.SustainLvl)
	e.SetRelease(p.ReleaseSec)
}

// Params returns the base settings without modulation applied.
func (e *ADSR) Params() Params { return e.base }

func (e *ADSR) SetAttack(sec float32)  { e.base.AttackSec = nonNegative(sec) }
func (e *ADSR) SetDecay(sec float32)   { e.base.DecaySec = nonNegative(sec) }
func (e *ADSR) SetRelease(sec float32) { e.base.ReleaseSec = nonNegative(sec) }

// SetSustain sets the sustain level, clamped to [0, 1].
func (e *ADSR) SetSustain(level float32) { e.base.SustainLvl = clamp(level, 0, 1) }

// Modulate offsets a parameter until ResetModulation. Offsets accumulate.
func (e *ADSR) Modulate(p Param, by float32) {
	switch p {
	case ParamAttack:
		e.mod.AttackSec += by
	case ParamDecay:
		e.mod.DecaySec += by
	case ParamSustain:
		e.mod.SustainLvl += by
	case ParamRelease:
		e.mod.ReleaseSec += by
	}
}

// ResetModulation clears all modulation offsets.
func (e *ADSR) ResetModulation() { e.mod = Params{} }

// Press starts (or restarts) the attack from the current level.
func (e *ADSR) Press() {
	e.stage = Attack
}

// Release enters the release stage from any non-idle stage.
func (e *ADSR) Release() {
	if e.stage == Idle || e.stage == Release {
		return
	}
	e.stage = Release
	e.releaseFrom = e.level
}

// Reset forces the envelope to idle at zero.
func (e *ADSR) Reset() {
	e.stage = Idle
	e.level = 0
	e.releaseFrom = 0
}

// Stage returns the current stage.
func (e *ADSR) Stage() Stage { return e.stage }

// Level returns the most recent output without advancing.
func (e *ADSR) Level() float32 { return e.level }

// Active reports whether the envelope is producing output.
func (e *ADSR) Active() bool { return e.stage != Idle }

// Pressed reports whether the envelope is held (attack, decay or sustain).
func (e *ADSR) Pressed() bool {
	return e.stage == Attack || e.stage == Decay || e.stage == Sustain
}

// Sample advances one step and returns the new level.
func (e *ADSR) Sample() float32 {
	switch e.stage {
	case Attack:
		e.level += e.step(e.base.AttackSec+e.mod.AttackSec, 1)
		if e.level >= 1 {
			e.level = 1
			e.stage = Decay
		}
	case Decay:
		sus := e.sustain()
		e.level -= e.step(e.base.DecaySec+e.mod.DecaySec, 1-sus)
		if e.level <= sus {
			e.level = sus
			e.stage = Sustain
		}
	case Sustain:
		e.level = e.sustain()
	case Release:
		e.level -= e.step(e.base.ReleaseSec+e.mod.ReleaseSec, e.releaseFrom)
		if e.level <= levelFloor {
			e.level = 0
			e.stage = Idle
		}
	case Idle:
		e.level = 0
	}
	return e.level
}

func (e *ADSR) sustain() float32 {
	return clamp(e.base.SustainLvl+e.mod.SustainLvl, 0, 1)
}

// step is the per-sample increment that covers span in sec seconds.
// Segments shorter than one sample complete immediately.
func (e *ADSR) step(sec, span float32) float32 {
	n := sec * e.sampleRate
	if n <= 1 {
		return 1
	}
	if span <= 0 {
		return 1 / n
	}
	return span / n
}

func nonNegative(v float32) float32 {
	if v < 0 {
		return 0
	}
	return v
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
