package wurlitzer

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/mjibson/go-dsp/fft"

	"github.com/cbegin/stepper-go/internal/engine"
)

const sr = 48000

var _ engine.Engine = (*Engine)(nil)

// dominantHz returns the strongest frequency in n samples after skip.
func dominantHz(e *Engine, skip, n int) float64 {
	for i := 0; i < skip; i++ {
		e.Sample()
	}
	buf := make([]float64, n)
	for i := range buf {
		buf[i] = float64(e.Sample())
	}
	bins := fft.FFTReal(buf)
	peak, mag := 0, 0.0
	for i := 1; i < n/2; i++ {
		if m := cmplx.Abs(bins[i]); m > mag {
			peak, mag = i, m
		}
	}
	return float64(peak) * sr / float64(n)
}

func TestVelocityShiftsTimbre(t *testing.T) {
	const n = 4096
	binHz := float64(sr) / n
	for _, tc := range []struct {
		name     string
		velocity uint8
		want     float64
	}{
		{"hard strike favours fundamental", 127, 440},
		{"soft strike favours harmonic", 1, 880},
	} {
		t.Run(tc.name, func(t *testing.T) {
			e := New(sr, DefaultParams())
			e.Play(69, tc.velocity)
			if got := dominantHz(e, sr/50, n); math.Abs(got-tc.want) > 2*binHz {
				t.Fatalf("dominant = %.1f Hz, want %.1f Hz", got, tc.want)
			}
		})
	}
}

func TestReleaseFreesVoice(t *testing.T) {
	e := New(sr, DefaultParams())
	e.Play(0, 100)
	if got := e.ActiveVoiceCount(); got != 1 {
		t.Fatalf("note 0 did not sound: ActiveVoiceCount = %d", got)
	}
	for i := 0; i < sr/10; i++ {
		e.Sample()
	}
	e.Stop(0)
	for i := 0; i < int(DefaultParams().VolEnv.ReleaseSec*sr)+2; i++ {
		e.Sample()
	}
	if got := e.ActiveVoiceCount(); got != 0 {
		t.Fatalf("ActiveVoiceCount after release = %d", got)
	}
	if s := e.Sample(); s != 0 {
		t.Fatalf("idle sample = %f", s)
	}
}

func TestPlayPolicy(t *testing.T) {
	e := New(sr, DefaultParams())
	e.Play(60, 100)
	e.Play(60, 100)
	if got := e.ActiveVoiceCount(); got != 1 {
		t.Fatalf("duplicate claimed a voice: %d", got)
	}
	for n := uint8(61); n < 80; n++ {
		e.Play(n, 100)
	}
	if got := e.ActiveVoiceCount(); got != 10 {
		t.Fatalf("ActiveVoiceCount = %d, want 10", got)
	}
}

func TestBendIsRelativeToBase(t *testing.T) {
	e := New(sr, DefaultParams())
	e.Play(69, 100)
	e.Bend(1)
	e.Bend(1)
	want := 440 * math.Pow(2, 3.0/12)
	if got := e.notes[0].fundamental.Frequency(); math.Abs(float64(got)-want) > 0.01 {
		t.Fatalf("bent = %f, want %f", got, want)
	}
	e.Unbend()
	if got := e.notes[0].harmonic.Frequency(); math.Abs(float64(got)-440) > 1e-3 {
		t.Fatalf("unbent = %f, want 440", got)
	}
}

func TestTremoloDepthKnob(t *testing.T) {
	render := func(depth float32) []float32 {
		e := New(sr, DefaultParams())
		e.Knob(engine.KnobOne, depth)
		e.Play(60, 127)
		out := make([]float32, sr/4)
		for i := range out {
			out[i] = e.Sample()
		}
		return out
	}
	flat, wobbly := render(0), render(1)
	diff := false
	for i := range flat {
		if flat[i] != wobbly[i] {
			diff = true
			break
		}
	}
	if !diff {
		t.Fatal("tremolo depth had no effect")
	}
}

func TestKnobs(t *testing.T) {
	e := New(sr, DefaultParams())
	for _, tc := range []struct {
		k engine.Knob
		v float32
	}{
		{engine.KnobOne, 0.5},
		{engine.KnobTwo, 0.4},
		{engine.KnobThree, 0.25},
		{engine.KnobFour, 0.7},
		{engine.KnobFive, 0.9},
	} {
		if !e.Knob(tc.k, tc.v) {
			t.Fatalf("%v not handled", tc.k)
		}
		if got := e.Knobs()[tc.k]; math.Abs(float64(got-tc.v)) > 1e-6 {
			t.Errorf("%v = %f, want %f", tc.k, got, tc.v)
		}
	}
	if got := e.notes[3].volEnv.Params().DecaySec; got != 5 {
		t.Fatalf("decay = %f, want 5", got)
	}
	if e.Knob(engine.KnobSix, 1) {
		t.Fatal("knob 6 is unmapped")
	}
}
