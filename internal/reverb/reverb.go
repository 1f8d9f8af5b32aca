// Package reverb is a Schroeder reverberator: parallel damped comb filters
// feeding series all-pass diffusers, with a band-limited input.
package reverb

// Delay lengths in samples at 44.1 kHz, scaled to the running rate.
var (
	combTuning    = [4]int{1116, 1277, 1422, 1557}
	allpassTuning = [2]int{556, 341}
)

const (
	tuningRate = 44100
	allpassFB  = 0.5
	inputGain  = 0.06
)

// Reverb is not safe for concurrent use.
type Reverb struct {
	combs   [len(combTuning)]comb
	allpass [len(allpassTuning)]allpass

	decay     float32
	damping   float32
	bandwidth float32

	bwCoef float32
	bwLP   float32
}

type comb struct {
	buf   []float32
	pos   int
	fb    float32
	damp  float32
	store float32
}

type allpass struct {
	buf []float32
	pos int
	fb  float32
}

// New builds a reverb for sampleRate with every control at 0.5.
func New(sampleRate int) *Reverb {
	r := &Reverb{}
	for i, n := range combTuning {
		r.combs[i].buf = make([]float32, scale(n, sampleRate))
	}
	for i, n := range allpassTuning {
		r.allpass[i] = allpass{buf: make([]float32, scale(n, sampleRate)), fb: allpassFB}
	}
	r.SetDecay(0.5)
	r.SetDamping(0.5)
	r.SetBandwidth(0.5)
	return r
}

func scale(n, sampleRate int) int {
	s := n * sampleRate / tuningRate
	if s < 1 {
		return 1
	}
	return s
}

// SetDecay sets the tail length in [0, 1]. Buffers are kept.
func (r *Reverb) SetDecay(v float32) {
	r.decay = clamp01(v)
	fb := 0.7 + 0.28*r.decay
	for i := range r.combs {
		r.combs[i].fb = fb
	}
}

// SetDamping sets high-frequency absorption in [0, 1].
func (r *Reverb) SetDamping(v float32) {
	r.damping = clamp01(v)
	for i := range r.combs {
		r.combs[i].damp = r.damping * 0.4
	}
}

// SetBandwidth sets the input low-pass in [0, 1]; 1 is fully open.
func (r *Reverb) SetBandwidth(v float32) {
	r.bandwidth = clamp01(v)
	r.bwCoef = 0.05 + 0.95*r.bandwidth
}

func (r *Reverb) Decay() float32     { return r.decay }
func (r *Reverb) Damping() float32   { return r.damping }
func (r *Reverb) Bandwidth() float32 { return r.bandwidth }

// CalcSample processes one input sample and returns the dry signal blended
// with the reverb tail; gain 0 is fully dry, 1 fully wet.
func (r *Reverb) CalcSample(in, gain float32) float32 {
	r.bwLP += r.bwCoef * (in - r.bwLP)
	x := r.bwLP * inputGain

	var wet float32
	for i := range r.combs {
		wet += r.combs[i].process(x)
	}
	for i := range r.allpass {
		wet = r.allpass[i].process(wet)
	}
	return in*(1-gain) + wet*gain
}

// Reset clears every delay line.
func (r *Reverb) Reset() {
	for i := range r.combs {
		clear(r.combs[i].buf)
		r.combs[i].pos = 0
		r.combs[i].store = 0
	}
	for i := range r.allpass {
		clear(r.allpass[i].buf)
		r.allpass[i].pos = 0
	}
	r.bwLP = 0
}

func (c *comb) process(in float32) float32 {
	out := c.buf[c.pos]
	c.store = out*(1-c.damp) + c.store*c.damp
	c.buf[c.pos] = in + c.store*c.fb
	c.pos++
	if c.pos >= len(c.buf) {
		c.pos = 0
	}
	return out
}

func (a *allpass) process(in float32) float32 {
	bufOut := a.buf[a.pos]
	out := -in + bufOut
	a.buf[a.pos] = in + bufOut*a.fb
	a.pos++
	if a.pos >= len(a.buf) {
		a.pos = 0
	}
	return out
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
