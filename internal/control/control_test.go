package control

import (
	"sync"
	"testing"

	"gitlab.com/gomidi/midi/v2"
)

func TestDecode(t *testing.T) {
	cases := []struct {
		name string
		msg  midi.Message
		want Event
	}{
		{"note on", midi.NoteOn(2, 60, 100), Event{Kind: NoteOn, Channel: 2, Note: 60, Velocity: 100}},
		{"note off", midi.NoteOff(1, 61), Event{Kind: NoteOff, Channel: 1, Note: 61}},
		{"note on zero velocity", midi.NoteOn(0, 62, 0), Event{Kind: NoteOff, Note: 62}},
		{"bend up", midi.Pitchbend(0, 8191), Event{Kind: PitchBend, Value: 1}},
		{"bend centre", midi.Pitchbend(3, 0), Event{Kind: PitchBend, Channel: 3}},
		{"knob 3", midi.ControlChange(0, 72, 127), Event{Kind: Knob, Index: 2, CC: 72, Raw: 127, Value: 1}},
		{"gui H", midi.ControlChange(1, 109, 0), Event{Kind: GUIParam, Channel: 1, Index: 7, CC: 109}},
		{"mod wheel", midi.ControlChange(0, 1, 127), Event{Kind: ModWheel, CC: 1, Raw: 127, Value: 1}},
		{"swell", midi.ControlChange(0, 11, 0), Event{Kind: VolumeSwell, CC: 11}},
		{"transport", midi.ControlChange(0, 117, 64), Event{Kind: Transport, CC: 117, Raw: 64, Value: 64.0 / 127}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Decode(tc.msg)
			if !ok {
				t.Fatalf("Decode(%v) rejected", tc.msg)
			}
			if got != tc.want {
				t.Fatalf("Decode(%v) = %+v, want %+v", tc.msg, got, tc.want)
			}
		})
	}
}

func TestDecodeIgnoresUnassigned(t *testing.T) {
	for _, msg := range []midi.Message{
		midi.ControlChange(0, 64, 127),
		midi.ControlChange(0, 78, 127),
		midi.ControlChange(0, 120, 0),
		midi.ProgramChange(0, 5),
	} {
		if ev, ok := Decode(msg); ok {
			t.Errorf("Decode(%v) = %+v", msg, ev)
		}
	}
}

func TestBendBottomClampsToMinusOne(t *testing.T) {
	ev, ok := Decode(midi.Pitchbend(0, -8192))
	if !ok || ev.Value != -1 {
		t.Fatalf("Decode = %+v, %v", ev, ok)
	}
}

func TestMessageRoundTrip(t *testing.T) {
	for _, ev := range []Event{
		{Kind: NoteOn, Channel: 3, Note: 64, Velocity: 90},
		{Kind: NoteOff, Note: 64},
		{Kind: Knob, Index: 5, CC: 75, Raw: 127, Value: 1},
		{Kind: GUIParam, Index: 0, CC: 102},
		{Kind: Transport, CC: 115, Raw: 1, Value: 1.0 / 127},
	} {
		got, ok := Decode(ev.Message())
		if !ok || got != ev {
			t.Errorf("round trip %+v = %+v", ev, got)
		}
	}
}

func TestQueueOrderAndOverflow(t *testing.T) {
	q := NewQueue(3)
	if q.Cap() != 4 {
		t.Fatalf("Cap = %d, want 4", q.Cap())
	}
	for i := 0; i < 4; i++ {
		if !q.Push(Event{Note: uint8(i)}) {
			t.Fatalf("push %d rejected", i)
		}
	}
	if q.Push(Event{Note: 9}) {
		t.Fatal("push into a full queue succeeded")
	}
	if q.Dropped() != 1 || q.Len() != 4 {
		t.Fatalf("dropped=%d len=%d", q.Dropped(), q.Len())
	}
	var got []uint8
	q.Drain(func(ev Event) { got = append(got, ev.Note) })
	for i, n := range got {
		if n != uint8(i) {
			t.Fatalf("drain order = %v", got)
		}
	}
	if _, ok := q.Pop(); ok {
		t.Fatal("Pop on empty queue succeeded")
	}
}

func TestQueueConcurrentProducer(t *testing.T) {
	const n = 10000
	q := NewQueue(64)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < n; {
			if q.Push(Event{Index: i}) {
				i++
			}
		}
	}()
	next := 0
	for next < n {
		if ev, ok := q.Pop(); ok {
			if ev.Index != next {
				t.Fatalf("got %d, want %d", ev.Index, next)
			}
			next++
		}
	}
	wg.Wait()
}
