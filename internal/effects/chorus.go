package effects

import "github.com/chewxy/math32"

// ChorusEffect is a one-second circular delay line. The write cursor moves one
// sample per input; the read cursor trails it by step samples, where step
// follows the speed parameter.
type ChorusEffect struct {
	buf        []float32
	write      int
	step       int
	sampleRate float32
	volume     float32
	speed      float32
	input      float32
}

var chorusParams = []string{"Volume", "Speed"}

// NewChorus returns a chorus at volume 0.75 and speed 0.25.
func NewChorus(sampleRate int) *ChorusEffect {
	if sampleRate < 1 {
		sampleRate = 1
	}
	c := &ChorusEffect{
		buf:        make([]float32, sampleRate),
		sampleRate: float32(sampleRate),
		volume:     0.75,
	}
	c.SetSpeed(0.25)
	return c
}

func (c *ChorusEffect) Type() Type           { return Chorus }
func (c *ChorusEffect) ParamNames() []string { return chorusParams }

// Step returns the current read offset in samples.
func (c *ChorusEffect) Step() int { return c.step }

// SetSpeed sets the read offset to sampleRate*speed/2 samples. Speed 0 reads
// the sample just written.
func (c *ChorusEffect) SetSpeed(speed float32) {
	if speed < 0 {
		speed = 0
	}
	c.speed = speed
	c.step = int(c.sampleRate*speed*0.5) % len(c.buf)
}

func (c *ChorusEffect) SetVolume(v float32) { c.volume = v }

// TakeInput scales x by the volume and writes it at the write cursor.
func (c *ChorusEffect) TakeInput(x float32) {
	c.input = x * c.volume
	c.buf[c.write] = c.input
	c.write++
	if c.write == len(c.buf) {
		c.write = 0
	}
}

// Sample returns the delayed sample plus the current input, soft clipped.
// The read cursor trails the write cursor by a fixed step samples, so the
// effect is a constant delay at a given speed; the offset does not sweep.
func (c *ChorusEffect) Sample() float32 {
	n := len(c.buf)
	read := (c.write - 1 - c.step + 2*n) % n
	return math32.Tanh(c.buf[read] + c.input)
}

func (c *ChorusEffect) Process(x float32) float32 {
	c.TakeInput(x)
	return c.Sample()
}

func (c *ChorusEffect) Reset() {
	clear(c.buf)
	c.write = 0
	c.input = 0
}

func (c *ChorusEffect) Params() map[string]float32 {
	return map[string]float32{"Volume": c.volume, "Speed": c.speed}
}

func (c *ChorusEffect) SetParam(name string, value float32) error {
	switch name {
	case "Volume":
		c.SetVolume(value)
	case "Speed":
		c.SetSpeed(value)
	default:
		return unknownParam(Chorus, name)
	}
	return nil
}
