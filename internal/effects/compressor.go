package effects

import "github.com/chewxy/math32"

// CompressorEffect implements basic dynamic range compression.
type CompressorEffect struct {
	sampleRate  float32
	thresholdDB float32
	threshold   float32
	ratio       float32
	attackMs    float32
	releaseMs   float32
	attack      float32 // coefficient
	release     float32 // coefficient
	makeupDB    float32
	makeup      float32
	env         float32
	in          float32
}

var compressorParams = []string{"Threshold", "Ratio", "Attack", "Release", "Makeup"}

// NewCompressor creates a compressor effect.
// thresholdDB: threshold in dB (e.g., -20)
// ratio: compression ratio (e.g., 4 for 4:1)
// attackMs: attack time in ms
// releaseMs: release time in ms
// makeupDB: makeup gain in dB
func NewCompressor(sampleRate int, thresholdDB, ratio, attackMs, releaseMs, makeupDB float32) *CompressorEffect {
	c := &CompressorEffect{sampleRate: float32(sampleRate)}
	c.setThreshold(thresholdDB)
	c.setRatio(ratio)
	c.attackMs, c.attack = attackMs, c.coef(attackMs)
	c.releaseMs, c.release = releaseMs, c.coef(releaseMs)
	c.setMakeup(makeupDB)
	return c
}

func (c *CompressorEffect) coef(ms float32) float32 {
	if ms <= 0 {
		return 1
	}
	return 1 - math32.Exp(-1/(ms*c.sampleRate/1000))
}

func (c *CompressorEffect) setThreshold(db float32) {
	c.thresholdDB = db
	c.threshold = math32.Pow(10, db/20)
}

func (c *CompressorEffect) setRatio(r float32) {
	if r < 1 {
		r = 1
	}
	c.ratio = r
}

func (c *CompressorEffect) setMakeup(db float32) {
	c.makeupDB = db
	c.makeup = math32.Pow(10, db/20)
}

func (c *CompressorEffect) Type() Type           { return Compressor }
func (c *CompressorEffect) ParamNames() []string { return compressorParams }
func (c *CompressorEffect) TakeInput(x float32)  { c.in = x }

func (c *CompressorEffect) Sample() float32 {
	abs := math32.Abs(c.in)
	// Envelope follower
	if abs > c.env {
		c.env += c.attack * (abs - c.env)
	} else {
		c.env += c.release * (abs - c.env)
	}
	return c.in * c.gain(c.env) * c.makeup
}

func (c *CompressorEffect) gain(env float32) float32 {
	if env <= c.threshold || c.threshold <= 0 {
		return 1
	}
	// Apply ratio: reduce the excess
	return math32.Pow(env/c.threshold, 1/c.ratio-1)
}

func (c *CompressorEffect) Process(x float32) float32 {
	c.TakeInput(x)
	return c.Sample()
}

func (c *CompressorEffect) Reset() {
	c.env = 0
	c.in = 0
}

func (c *CompressorEffect) Params() map[string]float32 {
	return map[string]float32{
		"Threshold": c.thresholdDB,
		"Ratio":     c.ratio,
		"Attack":    c.attackMs,
		"Release":   c.releaseMs,
		"Makeup":    c.makeupDB,
	}
}

func (c *CompressorEffect) SetParam(name string, value float32) error {
	switch name {
	case "Threshold":
		c.setThreshold(value)
	case "Ratio":
		c.setRatio(value)
	case "Attack":
		c.attackMs, c.attack = value, c.coef(value)
	case "Release":
		c.releaseMs, c.release = value, c.coef(value)
	case "Makeup":
		c.setMakeup(value)
	default:
		return unknownParam(Compressor, name)
	}
	return nil
}
