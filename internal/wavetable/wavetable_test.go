package wavetable

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/mjibson/go-dsp/fft"
)

func TestBuildSineNormalisesByAudiblePartials(t *testing.T) {
	ots := []Overtone{{Ratio: 1, Volume: 1}, {Ratio: 2, Volume: 1}, {Ratio: 3, Volume: 0}}
	tbl := BuildSine(256, ots)
	if len(tbl) != 256 {
		t.Fatalf("len = %d, want 256", len(tbl))
	}
	// Two audible partials, so the fundamental peak contributes 0.5.
	want := float32(0.5 * (math.Sin(2*math.Pi*64/256) + math.Sin(2*math.Pi*128/256)))
	if d := tbl[64] - want; d > 1e-5 || d < -1e-5 {
		t.Fatalf("tbl[64] = %f, want %f", tbl[64], want)
	}
}

func TestBuildSineSilentWhenNoPartialIsAudible(t *testing.T) {
	tbl := BuildSine(64, []Overtone{{Ratio: 1, Volume: 0}})
	for i, v := range tbl {
		if v != 0 {
			t.Fatalf("tbl[%d] = %f, want 0", i, v)
		}
	}
}

func TestBuildShapes(t *testing.T) {
	ots := Harmonics(10)
	for _, shape := range []Shape{ShapeSine, ShapeTriangle, ShapeSquare, ShapeSaw} {
		t.Run(shape.String(), func(t *testing.T) {
			tbl := Build(shape, 256, ots)
			var nonZero bool
			for i, v := range tbl {
				// the triangle kernel grows with the partial ratio
				if shape != ShapeTriangle && (v > 1.0001 || v < -1.0001) {
					t.Fatalf("tbl[%d] = %f out of [-1,1]", i, v)
				}
				if v != 0 {
					nonZero = true
				}
			}
			if !nonZero {
				t.Fatalf("%s table is silent", shape)
			}
		})
	}
}

func TestShapeFromIndex(t *testing.T) {
	tests := []struct {
		in   int
		want Shape
	}{
		{0, ShapeSine}, {1, ShapeTriangle}, {2, ShapeSquare}, {3, ShapeSaw}, {9, ShapeSaw}, {-1, ShapeSaw},
	}
	for _, tt := range tests {
		if got := ShapeFromIndex(tt.in); got != tt.want {
			t.Errorf("ShapeFromIndex(%d) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestOscillatorIsPeriodic(t *testing.T) {
	const sr = 48000
	tbl := BuildSine(1024, Harmonics(1))
	for _, f := range []float32{100, 375, 1500} {
		o := NewOscillator(sr, tbl)
		o.SetFrequency(f)
		first := o.Sample()
		period := int(sr / f)
		for i := 1; i < period; i++ {
			o.Sample()
		}
		if got := o.Sample(); math.Abs(float64(got-first)) > 1e-3 {
			t.Errorf("f=%v: sample after one period = %f, want %f", f, got, first)
		}
	}
}

func TestOscillatorZeroFrequencyIsDC(t *testing.T) {
	tbl := Table{0.25, 1, -1, 0}
	o := NewOscillator(48000, tbl)
	o.SetFrequency(0)
	for i := 0; i < 10; i++ {
		if got := o.Sample(); got != 0.25 {
			t.Fatalf("sample %d = %f, want 0.25", i, got)
		}
	}
	o.SetFrequency(-50)
	if o.Frequency() != 0 {
		t.Fatalf("negative frequency should clamp to 0, got %f", o.Frequency())
	}
}

func TestOscillatorInterpolates(t *testing.T) {
	tbl := Table{0, 1, 0, -1}
	// increment of 0.5 per sample
	o := NewOscillator(8, tbl)
	o.SetFrequency(1)
	want := []float32{0, 0.5, 1, 0.5, 0, -0.5, -1, -0.5, 0}
	for i, w := range want {
		if got := o.Sample(); math.Abs(float64(got-w)) > 1e-6 {
			t.Fatalf("sample %d = %f, want %f", i, got, w)
		}
	}
}

func TestOscillatorWrapAndSyncReset(t *testing.T) {
	tbl := BuildSine(128, Harmonics(1))
	o := NewOscillator(128, tbl)
	o.SetFrequency(1) // one index per sample
	wraps := 0
	for i := 0; i < 256; i++ {
		o.Sample()
		if o.Wrapped() {
			wraps++
		}
	}
	if wraps != 2 {
		t.Fatalf("wraps = %d, want 2", wraps)
	}

	o.Reset()
	for i := 0; i < 10; i++ {
		o.Sample()
	}
	o.SyncReset() // index 10 is below the threshold
	before := o.Index()
	o.Sample()
	if o.Index() <= before {
		t.Fatalf("direction flipped below threshold")
	}
	for i := 0; i < 40; i++ {
		o.Sample()
	}
	o.SyncReset()
	before = o.Index()
	o.Sample()
	if o.Index() >= before {
		t.Fatalf("direction did not flip above threshold: %f -> %f", before, o.Index())
	}
}

func TestOscillatorPitchMatchesFFTPeak(t *testing.T) {
	const (
		sr = 48000
		n  = 8192
	)
	tbl := BuildSine(1024, Harmonics(1))
	o := NewOscillator(sr, tbl)
	f := float32(440)
	o.SetFrequency(f)

	buf := make([]float64, n)
	for i := range buf {
		buf[i] = float64(o.Sample())
	}
	bins := fft.FFTReal(buf)

	peak, peakMag := 0, 0.0
	for i := 1; i < n/2; i++ {
		if m := cmplx.Abs(bins[i]); m > peakMag {
			peak, peakMag = i, m
		}
	}
	binHz := float64(sr) / n
	got := float64(peak) * binHz
	if math.Abs(got-float64(f)) > 2*binHz {
		t.Fatalf("peak at %.1f Hz, want %.1f Hz", got, f)
	}
}

func TestSetTableKeepsCycleFraction(t *testing.T) {
	o := NewOscillator(48000, make(Table, 100))
	o.SetFrequency(48000.0 / 4) // 25 indices per sample
	o.Sample()
	o.SetTable(make(Table, 200))
	if o.Index() != 50 {
		t.Fatalf("index = %f, want 50", o.Index())
	}
}
