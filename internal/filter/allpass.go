package filter

import "github.com/chewxy/math32"

const butterworthQ = 0.70710677

// AllPass is a second order all-pass biquad (direct form I).
type AllPass struct {
	b0, b1, b2, a1, a2 float32
	x1, x2, y1, y2     float32
}

// NewAllPass designs an all-pass with corner frequency hz and quality q,
// relative to sampleRate.
func NewAllPass(sampleRate, hz, q float32) *AllPass {
	a := &AllPass{}
	a.Set(sampleRate, hz, q)
	return a
}

// NewOutputStage returns the 10 Hz, Butterworth-Q stage referenced to 1 kHz
// that conditions the summed channel output.
func NewOutputStage() *AllPass {
	return NewAllPass(1000, 10, butterworthQ)
}

// Set recomputes coefficients. Filter memory is kept.
func (a *AllPass) Set(sampleRate, hz, q float32) {
	w := 2 * math32.Pi * hz / sampleRate
	sin, cos := math32.Sin(w), math32.Cos(w)
	alpha := sin / (2 * q)
	a0 := 1 + alpha
	a.b0 = (1 - alpha) / a0
	a.b1 = (-2 * cos) / a0
	a.b2 = (1 + alpha) / a0
	a.a1 = (-2 * cos) / a0
	a.a2 = (1 - alpha) / a0
}

// Sample filters one input.
func (a *AllPass) Sample(x float32) float32 {
	y := a.b0*x + a.b1*a.x1 + a.b2*a.x2 - a.a1*a.y1 - a.a2*a.y2
	a.x2, a.x1 = a.x1, x
	a.y2, a.y1 = a.y1, y
	return y
}

// Reset clears the filter memory.
func (a *AllPass) Reset() {
	a.x1, a.x2, a.y1, a.y2 = 0, 0, 0, 0
}
