package effects

import "github.com/chewxy/math32"

// OverdriveEffect is tanh waveshaping with pre/post gain and a tone low-pass.
type OverdriveEffect struct {
	sampleRate float32
	drive      float32
	level      float32
	toneHz     float32
	lpfAlpha   float32
	lpf        float32
	in         float32
}

var overdriveParams = []string{"Drive", "Level", "Tone"}

// NewOverdrive creates an overdrive effect.
// drive: input gain (higher = more distortion)
// level: output gain
// toneHz: lowpass cutoff in Hz (0 = no filter)
func NewOverdrive(sampleRate int, drive, level, toneHz float32) *OverdriveEffect {
	o := &OverdriveEffect{sampleRate: float32(sampleRate), drive: drive, level: level}
	o.setTone(toneHz)
	return o
}

func (o *OverdriveEffect) setTone(hz float32) {
	o.toneHz = hz
	o.lpfAlpha = 0
	if hz > 0 && hz < o.sampleRate/2 {
		rc := 1 / (2 * math32.Pi * hz)
		dt := 1 / o.sampleRate
		o.lpfAlpha = dt / (rc + dt)
	}
}

func (o *OverdriveEffect) Type() Type           { return Overdrive }
func (o *OverdriveEffect) ParamNames() []string { return overdriveParams }
func (o *OverdriveEffect) TakeInput(x float32)  { o.in = x }

func (o *OverdriveEffect) Sample() float32 {
	x := math32.Tanh(o.in*o.drive) * o.level
	if o.lpfAlpha > 0 {
		o.lpf += o.lpfAlpha * (x - o.lpf)
		x = o.lpf
	}
	return x
}

func (o *OverdriveEffect) Process(x float32) float32 {
	o.TakeInput(x)
	return o.Sample()
}

func (o *OverdriveEffect) Reset() {
	o.lpf = 0
	o.in = 0
}

func (o *OverdriveEffect) Params() map[string]float32 {
	return map[string]float32{"Drive": o.drive, "Level": o.level, "Tone": o.toneHz}
}

func (o *OverdriveEffect) SetParam(name string, value float32) error {
	switch name {
	case "Drive":
		o.drive = value
	case "Level":
		o.level = value
	case "Tone":
		o.setTone(value)
	default:
		return unknownParam(Overdrive, name)
	}
	return nil
}
