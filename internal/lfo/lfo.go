package lfo

import "github.com/cbegin/stepper-go/internal/wavetable"

// TableSize is the length of the LFO sine table.
const TableSize = 64

// Waveform selects the LFO shape.
type Waveform int

const (
	WaveSine Waveform = iota
	WaveTriangle
	WaveSquare
	WaveSaw
	WaveRandom
)

var sineTable = wavetable.BuildSine(TableSize, wavetable.Harmonics(1))

// LFO is a low-frequency oscillator used only as a modulation source.
// Its output is in [-depth, +depth].
type LFO struct {
	osc      wavetable.Oscillator
	rateHz   float32
	modRate  float32
	depth    float32
	waveform Waveform
	randVal  float32
	seed     uint32
	gated    bool
}

// New returns a sine LFO at rateHz with unit depth.
func New(sampleRate int, rateHz float32) *LFO {
	l := &LFO{}
	l.Init(sampleRate, rateHz)
	return l
}

// Init prepares an LFO value in place.
func (l *LFO) Init(sampleRate int, rateHz float32) {
	*l = LFO{depth: 1, seed: 0x9e3779b9}
	l.osc.Init(sampleRate, sineTable)
	l.SetFrequency(rateHz)
}

// Set configures depth, rate and waveform together.
func (l *LFO) Set(depth, rateHz float32, w Waveform) {
	l.depth = depth
	l.SetWaveform(w)
	l.SetFrequency(rateHz)
}

// SetFrequency sets the base rate in Hz.
func (l *LFO) SetFrequency(hz float32) {
	l.rateHz = hz
	l.retune()
}

// Frequency returns the base rate.
func (l *LFO) Frequency() float32 { return l.rateHz }

// SetDepth sets the output scale.
func (l *LFO) SetDepth(d float32) { l.depth = d }

// SetWaveform selects the shape. Unknown values fall back to sine.
func (l *LFO) SetWaveform(w Waveform) {
	if w < WaveSine || w > WaveRandom {
		w = WaveSine
	}
	l.waveform = w
}

// ModulateSpeed offsets the rate in Hz until ResetModulation.
func (l *LFO) ModulateSpeed(by float32) {
	l.modRate += by
	l.retune()
}

// ResetModulation clears the rate offset.
func (l *LFO) ResetModulation() {
	if l.modRate == 0 {
		return
	}
	l.modRate = 0
	l.retune()
}

func (l *LFO) retune() {
	l.osc.SetFrequency(l.rateHz + l.modRate)
}

// Press retriggers the LFO from phase zero.
func (l *LFO) Press() {
	l.Reset()
	l.gated = true
}

// Release marks the LFO as no longer gated. It keeps running.
func (l *LFO) Release() { l.gated = false }

// Gated reports whether Press was called without a matching Release.
func (l *LFO) Gated() bool { return l.gated }

// Reset zeros the phase.
func (l *LFO) Reset() {
	l.osc.Reset()
	l.randVal = 0
}

// Active returns true if the LFO has non-zero depth and rate.
func (l *LFO) Active() bool {
	return l.depth != 0 && l.rateHz+l.modRate != 0
}

// Sample advances the LFO by one sample.
func (l *LFO) Sample() float32 {
	phase := l.osc.Index() / TableSize
	var v float32
	switch l.waveform {
	case WaveTriangle:
		if phase < 0.5 {
			v = 4*phase - 1
		} else {
			v = 3 - 4*phase
		}
	case WaveSquare:
		if phase < 0.5 {
			v = 1
		} else {
			v = -1
		}
	case WaveSaw:
		v = 1 - 2*phase
	case WaveRandom:
		v = l.randVal
	}
	s := l.osc.Sample()
	if l.waveform == WaveSine {
		v = s
	}
	if l.waveform == WaveRandom && l.osc.Wrapped() {
		l.randVal = l.next()
	}
	return v * l.depth
}

// next is a xorshift step mapped to [-1, 1].
func (l *LFO) next() float32 {
	l.seed ^= l.seed << 13
	l.seed ^= l.seed >> 17
	l.seed ^= l.seed << 5
	return float32(l.seed)/(1<<32)*2 - 1
}
