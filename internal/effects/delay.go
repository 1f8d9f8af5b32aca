package effects

// maxDelaySec bounds the Time parameter; the line is allocated once.
const maxDelaySec = 2

// DelayEffect is a feedback delay line.
type DelayEffect struct {
	buf        []float32
	pos        int
	length     int
	sampleRate float32
	timeSec    float32
	feedback   float32
	wet        float32
	in         float32
}

var delayParams = []string{"Time", "Feedback", "Wet"}

// NewDelay creates a delay effect.
// timeSec: delay time in seconds, up to 2
// feedback: feedback amount 0..0.95
// wet: wet/dry mix 0..1
func NewDelay(sampleRate int, timeSec, feedback, wet float32) *DelayEffect {
	d := &DelayEffect{
		buf:        make([]float32, maxDelaySec*sampleRate+1),
		sampleRate: float32(sampleRate),
		feedback:   clamp(feedback, 0, 0.95),
		wet:        clamp(wet, 0, 1),
	}
	d.SetTime(timeSec)
	return d
}

// SetTime changes the delay length without clearing the line.
func (d *DelayEffect) SetTime(sec float32) {
	d.timeSec = clamp(sec, 0, maxDelaySec)
	d.length = int(d.timeSec * d.sampleRate)
	if d.length < 1 {
		d.length = 1
	}
	if d.pos >= d.length {
		d.pos = 0
	}
}

func (d *DelayEffect) Type() Type           { return Delay }
func (d *DelayEffect) ParamNames() []string { return delayParams }
func (d *DelayEffect) TakeInput(x float32)  { d.in = x }

func (d *DelayEffect) Sample() float32 {
	del := d.buf[d.pos]
	d.buf[d.pos] = d.in + del*d.feedback
	d.pos++
	if d.pos >= d.length {
		d.pos = 0
	}
	return d.in*(1-d.wet) + del*d.wet
}

func (d *DelayEffect) Process(x float32) float32 {
	d.TakeInput(x)
	return d.Sample()
}

func (d *DelayEffect) Reset() {
	clear(d.buf)
	d.pos = 0
	d.in = 0
}

func (d *DelayEffect) Params() map[string]float32 {
	return map[string]float32{"Time": d.timeSec, "Feedback": d.feedback, "Wet": d.wet}
}

func (d *DelayEffect) SetParam(name string, value float32) error {
	switch name {
	case "Time":
		d.SetTime(value)
	case "Feedback":
		d.feedback = clamp(value, 0, 0.95)
	case "Wet":
		d.wet = clamp(value, 0, 1)
	default:
		return unknownParam(Delay, name)
	}
	return nil
}
