package effects

import "github.com/cbegin/stepper-go/internal/reverb"

// ReverbEffect wraps the Schroeder reverberator as a channel effect.
type ReverbEffect struct {
	net  *reverb.Reverb
	gain float32
	in   float32
}

var reverbParams = []string{"Gain", "Decay", "Damping", "Cutoff"}

// NewReverb returns a reverb with every parameter at 0.5.
func NewReverb(sampleRate int) *ReverbEffect {
	return &ReverbEffect{net: reverb.New(sampleRate), gain: 0.5}
}

func (r *ReverbEffect) Type() Type           { return Reverb }
func (r *ReverbEffect) TakeInput(x float32)  { r.in = x }
func (r *ReverbEffect) Sample() float32      { return r.net.CalcSample(r.in, r.gain) }
func (r *ReverbEffect) ParamNames() []string { return reverbParams }

func (r *ReverbEffect) Process(x float32) float32 {
	r.TakeInput(x)
	return r.Sample()
}

func (r *ReverbEffect) Reset() {
	r.net.Reset()
	r.in = 0
}

func (r *ReverbEffect) Params() map[string]float32 {
	return map[string]float32{
		"Gain":    r.gain,
		"Decay":   r.net.Decay(),
		"Damping": r.net.Damping(),
		"Cutoff":  r.net.Bandwidth(),
	}
}

// SetParam updates coefficients in place; the tail is kept.
func (r *ReverbEffect) SetParam(name string, value float32) error {
	switch name {
	case "Gain":
		r.gain = clamp(value, 0, 1)
	case "Decay":
		r.net.SetDecay(value)
	case "Damping":
		r.net.SetDamping(value)
	case "Cutoff":
		r.net.SetBandwidth(value)
	default:
		return unknownParam(Reverb, name)
	}
	return nil
}
