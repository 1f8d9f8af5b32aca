package subtractive

import (
	"math"
	"testing"

	"github.com/cbegin/stepper-go/internal/control"
	"github.com/cbegin/stepper-go/internal/engine"
	"github.com/cbegin/stepper-go/internal/wavetable"
)

const sr = 48000

var _ engine.Engine = (*Engine)(nil)

func peak(e *Engine, n int) float32 {
	var p float32
	for i := 0; i < n; i++ {
		s := e.Sample()
		if s < 0 {
			s = -s
		}
		if s > p {
			p = s
		}
	}
	return p
}

func TestPlayPressesBothBanks(t *testing.T) {
	e := New(sr, DefaultParams())
	e.Play(60, 100)
	for b := range e.banks {
		if got := e.banks[b].Active(); got != 1 {
			t.Fatalf("bank %d active = %d, want 1", b, got)
		}
	}
	if p := peak(e, sr/10); p == 0 || p > 1 {
		t.Fatalf("peak = %f", p)
	}
}

func TestDuplicateAndRelease(t *testing.T) {
	e := New(sr, DefaultParams())
	e.Play(60, 100)
	e.Play(60, 100)
	if got := e.ActiveVoiceCount(); got != 1 {
		t.Fatalf("ActiveVoiceCount = %d, want 1", got)
	}
	peak(e, 1000)
	e.Stop(60)
	peak(e, int(DefaultParams().Env.ReleaseSec*sr)+2)
	if got := e.ActiveVoiceCount(); got != 0 {
		t.Fatalf("ActiveVoiceCount after release = %d", got)
	}
	if p := peak(e, 100); p != 0 {
		t.Fatalf("silent engine produced %f", p)
	}
}

func TestVoiceLimitDropsExtraNotes(t *testing.T) {
	e := New(sr, DefaultParams())
	for n := uint8(30); n < 50; n++ {
		e.Play(n, 100)
	}
	if got := e.ActiveVoiceCount(); got != 10 {
		t.Fatalf("ActiveVoiceCount = %d, want 10", got)
	}
}

func TestOffsetAndDetuneTransposeBankTwo(t *testing.T) {
	e := New(sr, DefaultParams())
	e.GUIParam(engine.GUID, 0.5) // 12 semitones down
	e.GUIParam(engine.GUIE, 0.5) // 50 cents up
	e.Play(69, 100)

	if got := e.banks[0][0].Frequency(); math.Abs(float64(got)-440) > 0.01 {
		t.Fatalf("bank 1 frequency = %f, want 440", got)
	}
	want := 220 * math.Pow(2, 0.5/12)
	if got := e.banks[1][0].Frequency(); math.Abs(float64(got)-want) > 0.01 {
		t.Fatalf("bank 2 frequency = %f, want %f", got, want)
	}
}

func TestShapeGUIParamSwapsTables(t *testing.T) {
	e := New(sr, DefaultParams())
	e.GUIParam(engine.GUIA, float32(2)/3)
	got := e.banks[0][0].Oscillator().Table()
	want := e.tables.Square
	if &got[0] != &want[0] {
		t.Fatal("bank 1 does not read the square table")
	}
	if p := e.GUIParams()[engine.GUIA]; p != float32(2)/3 {
		t.Fatalf("GuiA = %f, want 2/3", p)
	}
	// out of range clamps to saw
	e.GUIParam(engine.GUIB, 9)
	if e.params.Shapes[1] != wavetable.ShapeSaw {
		t.Fatalf("bank 2 shape = %v, want saw", e.params.Shapes[1])
	}
	if p := e.GUIParams()[engine.GUIB]; p != 1 {
		t.Fatalf("GuiB = %f, want 1", p)
	}
}

func TestGUIControllersCoverFullRange(t *testing.T) {
	e := New(sr, DefaultParams())
	shapes := map[wavetable.Shape]bool{}
	for v := 0; v <= 127; v++ {
		ev, ok := control.FromCC(0, control.CCGUIBase, uint8(v))
		if !ok || ev.Kind != control.GUIParam {
			t.Fatalf("cc %d = %+v, %v", control.CCGUIBase, ev, ok)
		}
		e.GUIParam(engine.GUIParam(ev.Index), ev.Value)
		shapes[e.params.Shapes[0]] = true
	}
	if len(shapes) != numShapes {
		t.Fatalf("reachable shapes = %v", shapes)
	}

	for _, tt := range []struct {
		p    engine.GUIParam
		want func() float32
		full float32
	}{
		{engine.GUID, func() float32 { return float32(e.params.Offset) }, maxOffset},
		{engine.GUIE, func() float32 { return e.params.Detune }, detuneRange},
	} {
		ev, _ := control.FromCC(0, control.CCGUIBase+uint8(tt.p), 127)
		e.GUIParam(engine.GUIParam(ev.Index), ev.Value)
		if got := tt.want(); got != tt.full {
			t.Errorf("%v at cc value 127 = %f, want %f", tt.p, got, tt.full)
		}
		if got := e.GUIParams()[tt.p]; got != 1 {
			t.Errorf("%v reported as %f, want 1", tt.p, got)
		}
	}
}

func TestMixSelectsBank(t *testing.T) {
	for _, tc := range []struct {
		name  string
		mix   float32
		other int
	}{
		{"bank one", 0, 1},
		{"bank two", 1, 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			render := func(shape wavetable.Shape) []float32 {
				p := DefaultParams()
				p.Mix = tc.mix
				p.Shapes[tc.other] = shape
				e := New(sr, p)
				e.Play(60, 100)
				out := make([]float32, 2000)
				for i := range out {
					out[i] = e.Sample()
				}
				return out
			}
			a, b := render(wavetable.ShapeSquare), render(wavetable.ShapeTriangle)
			for i := range a {
				if a[i] != b[i] {
					t.Fatalf("sample %d differs (%f vs %f) with the muted bank changed", i, a[i], b[i])
				}
			}
		})
	}
}

func TestHardSyncReversesBankTwo(t *testing.T) {
	p := DefaultParams()
	p.Sync = true
	p.Offset = 7
	e := New(sr, p)
	e.Play(60, 100)

	slave := e.banks[1][0].Oscillator()
	reversed := false
	prev := slave.Index()
	for i := 0; i < sr/10 && !reversed; i++ {
		e.Sample()
		idx := slave.Index()
		// a backwards step smaller than half the table is a direction change, not a wrap
		if idx < prev && prev-idx < TableSize/2 {
			reversed = true
		}
		prev = idx
	}
	if !reversed {
		t.Fatal("bank 2 never changed direction with sync on")
	}
}

func TestKnobsUpdateFilterAndEnvelope(t *testing.T) {
	e := New(sr, DefaultParams())
	e.Knob(engine.KnobFive, 0.25)
	e.Knob(engine.KnobFour, 1.5)
	if got := e.banks[1][3].Filter.Params().CutoffHz; got != 4000 {
		t.Fatalf("cutoff = %f, want 4000", got)
	}
	if got := e.banks[0][9].Env.Params().ReleaseSec; got != 1.5 {
		t.Fatalf("release = %f, want 1.5", got)
	}
	k := e.Knobs()
	if k[engine.KnobFive] != 0.25 || k[engine.KnobFour] != 1.5 {
		t.Fatalf("Knobs = %v", k)
	}
	if e.Knob(engine.KnobEight, 1) {
		t.Fatal("knob 8 is unmapped")
	}
}

func TestVolumeSwellSetsVolume(t *testing.T) {
	e := New(sr, DefaultParams())
	if e.VolumeSwell(0) {
		t.Fatal("VolumeSwell should not report a display change")
	}
	e.Play(60, 100)
	if p := peak(e, 1000); p != 0 {
		t.Fatalf("zero volume produced %f", p)
	}
}
