package organ

import (
	"math"
	"testing"

	"github.com/cbegin/stepper-go/internal/engine"
)

const sr = 48000

var _ engine.Engine = (*Engine)(nil)

func tableRMS(e *Engine) float64 {
	var sum float64
	for _, v := range e.Table() {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum / float64(len(e.Table())))
}

func TestHeldNoteSustainsForOneSecond(t *testing.T) {
	e := New(sr, DefaultParams())
	e.Play(60, 100)

	attack := int(DefaultParams().Env.AttackSec * sr)
	var sum float64
	n := 0
	for i := 0; i < sr; i++ {
		s := e.Sample()
		if e.ActiveVoiceCount() != 1 {
			t.Fatalf("voice went idle at sample %d", i)
		}
		if i >= attack {
			sum += float64(s) * float64(s)
			n++
		}
	}
	got := math.Sqrt(sum / float64(n))
	want := tableRMS(e)
	if got < want*0.75 || got > want*1.25 {
		t.Fatalf("rms = %f, want about %f", got, want)
	}
}

func TestStopDecaysToSilence(t *testing.T) {
	for _, held := range []int{0, sr / 10} {
		e := New(sr, DefaultParams())
		e.Play(60, 100)
		for i := 0; i < held; i++ {
			e.Sample()
		}
		e.Stop(60)

		limit := int(DefaultParams().Env.ReleaseSec*sr) + 2
		prev := e.voices[0].Env.Level()
		for i := 0; i < limit; i++ {
			e.Sample()
			lvl := e.voices[0].Env.Level()
			if lvl > prev {
				t.Fatalf("held=%d: envelope rose from %f to %f during release", held, prev, lvl)
			}
			prev = lvl
		}
		if e.ActiveVoiceCount() != 0 {
			t.Fatalf("held=%d: voice still playing after %d samples", held, limit)
		}
		for i := 0; i < 1000; i++ {
			if s := e.Sample(); s != 0 {
				t.Fatalf("held=%d: sample %d after release = %f", held, i, s)
			}
		}
	}
}

func TestVoiceLimit(t *testing.T) {
	e := New(sr, DefaultParams())
	for n := uint8(40); n < 60; n++ {
		e.Play(n, 100)
	}
	if got := e.ActiveVoiceCount(); got != 10 {
		t.Fatalf("ActiveVoiceCount = %d, want 10", got)
	}
	for i := 0; i < 1000; i++ {
		if s := e.Sample(); s > 1 || s < -1 {
			t.Fatalf("sample %d = %f out of range", i, s)
		}
	}
}

func TestDuplicatePlayIgnored(t *testing.T) {
	e := New(sr, DefaultParams())
	e.Play(60, 100)
	e.Play(60, 100)
	if got := e.ActiveVoiceCount(); got != 1 {
		t.Fatalf("ActiveVoiceCount = %d, want 1", got)
	}
}

func TestDrawbarKnobRebuildsTable(t *testing.T) {
	e := New(sr, DefaultParams())
	before := tableRMS(e)
	for k := engine.KnobOne; k <= engine.KnobEight; k++ {
		e.Knob(k, 0)
	}
	if got := tableRMS(e); got != 0 {
		t.Fatalf("all drawbars down, table rms = %f", got)
	}
	if !e.Knob(engine.KnobThree, 1) {
		t.Fatal("drawbar change not reported for display")
	}
	if got := tableRMS(e); got == 0 || got == before {
		t.Fatalf("table rms = %f after raising one drawbar", got)
	}
	if got := e.Knobs()[engine.KnobThree]; got != 1 {
		t.Fatalf("Knobs()[3] = %f, want 1", got)
	}
	if e.Knob(engine.Knob(NumDrawbars), 1) {
		t.Fatal("out-of-range knob reported a change")
	}
}

func TestVolumeSwellSetsLeslie(t *testing.T) {
	e := New(sr, DefaultParams())
	if !e.VolumeSwell(0.5) {
		t.Fatal("VolumeSwell should report a display change")
	}
	if got := e.GUIParams()[engine.GUIE]; got != 0.5 {
		t.Fatalf("leslie speed = %f, want 0.5", got)
	}
}

func TestGUIParamsUpdateEnvelope(t *testing.T) {
	e := New(sr, DefaultParams())
	e.GUIParam(engine.GUID, 0.5)
	e.GUIParam(engine.GUIF, 0.25)
	p := e.GUIParams()
	if p[engine.GUID] != 0.5 || p[engine.GUIF] != 0.25 {
		t.Fatalf("GUIParams = %v", p)
	}
	if got := e.voices[0].Env.Params().ReleaseSec; got != 0.5 {
		t.Fatalf("voice release = %f, want 0.5", got)
	}
}
