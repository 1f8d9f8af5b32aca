package modmatrix

import (
	"errors"
	"math/rand"
	"testing"
)

func mustAdd(t *testing.T, m *Matrix, it Item) int {
	t.Helper()
	i, ok, err := m.Add(it)
	if err != nil || !ok {
		t.Fatalf("Add(%s) = %d, %v, %v", it, i, ok, err)
	}
	return i
}

func vol(src Source) Item { return Item{Src: src, Dest: SynthVolume, Amt: 1} }

func TestAddFillsDenseSlots(t *testing.T) {
	m := New()
	for i := 0; i < 3; i++ {
		if got := mustAdd(t, m, vol(Velocity)); got != i {
			t.Fatalf("index = %d, want %d", got, i)
		}
	}
	if m.Len() != 3 || len(m.Entries()) != 3 {
		t.Fatalf("Len = %d, Entries = %d, want 3", m.Len(), len(m.Entries()))
	}
}

func TestAddWhenFullIsSilentlyDropped(t *testing.T) {
	m := New()
	for i := 0; i < Size; i++ {
		mustAdd(t, m, vol(Gate))
	}
	i, ok, err := m.Add(vol(Gate))
	if err != nil || ok || i != -1 {
		t.Fatalf("Add on full matrix = %d, %v, %v; want -1, false, nil", i, ok, err)
	}
	if m.Len() != Size {
		t.Fatalf("Len = %d, want %d", m.Len(), Size)
	}
}

func TestAddRejectsInvalidEntries(t *testing.T) {
	tests := []struct {
		name string
		it   Item
		want error
	}{
		{"bad source", Item{Src: Env(9), Dest: SynthVolume}, ErrUnknownSource},
		{"bad dest param", Item{Src: Gate, Dest: OscDest(0, ParamSpeed)}, ErrUnknownDest},
		{"bad dest index", Item{Src: Gate, Dest: LowPassDest(2, ParamCutoff)}, ErrUnknownDest},
		{"self reference", Item{Src: Gate, Dest: EntryAmount(0)}, ErrBadEntryRef},
		{"empty reference", Item{Src: Gate, Dest: EntryAmount(7)}, ErrBadEntryRef},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New()
			_, ok, err := m.Add(tt.it)
			if ok || !errors.Is(err, tt.want) {
				t.Fatalf("Add = %v, %v; want error %v", ok, err, tt.want)
			}
			if m.Len() != 0 {
				t.Fatalf("rejected add changed Len to %d", m.Len())
			}
		})
	}
}

func TestDeleteRenumbersLaterReferences(t *testing.T) {
	m := New()
	mustAdd(t, m, vol(Gate))                                        // 0
	mustAdd(t, m, vol(Velocity))                                    // 1
	mustAdd(t, m, Item{Src: ModWheel, Dest: EntryAmount(1)})        // 2 -> 1
	mustAdd(t, m, Item{Src: Macro(0), Dest: OscDest(0, ParamTune)}) // 3

	removed, err := m.Delete(0)
	if err != nil || removed != 1 {
		t.Fatalf("Delete(0) = %d, %v", removed, err)
	}
	if m.Len() != 3 {
		t.Fatalf("Len = %d, want 3", m.Len())
	}
	it, _ := m.Get(1)
	if it.Src != ModWheel || it.Dest != EntryAmount(0) {
		t.Fatalf("entry 1 = %s, want ModWheel -> entry 0", it)
	}
	first, _ := m.Get(0)
	if first.Src != Velocity {
		t.Fatalf("entry 0 = %s, want the Velocity route", first)
	}
}

func TestDeleteCascadesThroughChains(t *testing.T) {
	m := New()
	mustAdd(t, m, vol(Velocity))                             // 0
	mustAdd(t, m, Item{Src: Lfo(0), Dest: EntryAmount(0)})   // 1 -> 0
	mustAdd(t, m, Item{Src: Macro(1), Dest: EntryAmount(1)}) // 2 -> 1 -> 0
	mustAdd(t, m, vol(Gate))                                 // 3
	mustAdd(t, m, Item{Src: Env(1), Dest: EntryAmount(3)})   // 4 -> 3

	removed, err := m.Delete(0)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 3 {
		t.Fatalf("removed %d, want 3", removed)
	}
	if m.Len() != 2 {
		t.Fatalf("Len = %d, want 2", m.Len())
	}
	it, _ := m.Get(1)
	if it.Src != Env(1) || it.Dest != EntryAmount(0) {
		t.Fatalf("entry 1 = %s, want Env-1 -> entry 0", it)
	}
	if _, ok := m.Get(2); ok {
		t.Fatal("slot 2 should be empty after compaction")
	}
}

func TestDeleteOutOfRange(t *testing.T) {
	m := New()
	for _, i := range []int{-1, 0, Size} {
		if _, err := m.Delete(i); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("Delete(%d) err = %v, want ErrIndexOutOfRange", i, err)
		}
	}
}

func TestModifyRejectsCycles(t *testing.T) {
	m := New()
	mustAdd(t, m, vol(Gate))
	mustAdd(t, m, Item{Src: Gate, Dest: EntryAmount(0)})
	err := m.Modify(0, Item{Src: Gate, Dest: EntryAmount(1)})
	if !errors.Is(err, ErrBadEntryRef) {
		t.Fatalf("Modify err = %v, want ErrBadEntryRef", err)
	}
	if err := m.Modify(0, Item{Src: Velocity, Dest: SynthVolume, Amt: 0.5}); err != nil {
		t.Fatalf("Modify: %v", err)
	}
	if it, _ := m.Get(0); it.Amt != 0.5 || it.Src != Velocity {
		t.Fatalf("entry 0 = %s", it)
	}
}

// Random edit sequences must never leave a reference to an empty slot,
// to itself, or to an entry it did not originally target.
func TestRandomEditsKeepReferencesValid(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	m := New()
	// ids[i] is a stable identity for the entry in slot i.
	var ids []int
	targets := map[int]int{} // entry id -> target id
	nextID := 0

	for step := 0; step < 2000; step++ {
		switch {
		case m.Len() > 0 && rng.Intn(3) == 0:
			victim := rng.Intn(m.Len())
			if _, err := m.Delete(victim); err != nil {
				t.Fatal(err)
			}
			gone := map[int]bool{ids[victim]: true}
			for changed := true; changed; {
				changed = false
				for id, tgt := range targets {
					if gone[tgt] && !gone[id] {
						gone[id] = true
						changed = true
					}
				}
			}
			var kept []int
			for _, id := range ids {
				if !gone[id] {
					kept = append(kept, id)
				} else {
					delete(targets, id)
				}
			}
			ids = kept
		default:
			it := vol(Velocity)
			ref := -1
			if m.Len() > 0 && rng.Intn(2) == 0 {
				ref = rng.Intn(m.Len())
				it = Item{Src: Gate, Dest: EntryAmount(ref)}
			}
			i, ok, err := m.Add(it)
			if err != nil {
				t.Fatal(err)
			}
			if !ok {
				continue
			}
			ids = append(ids, nextID)
			if ref >= 0 {
				targets[nextID] = ids[ref]
			}
			nextID++
			if i != len(ids)-1 {
				t.Fatalf("added at %d, want %d", i, len(ids)-1)
			}
		}

		if m.Len() != len(ids) {
			t.Fatalf("step %d: Len = %d, model has %d", step, m.Len(), len(ids))
		}
		for i, it := range m.Entries() {
			if it.Dest.Kind != DestEntryAmount {
				continue
			}
			ref := it.Dest.Index
			if ref == i || ref < 0 || ref >= m.Len() {
				t.Fatalf("step %d: entry %d references %d (len %d)", step, i, ref, m.Len())
			}
			if ids[ref] != targets[ids[i]] {
				t.Fatalf("step %d: entry %d retargeted from id %d to id %d", step, i, targets[ids[i]], ids[ref])
			}
		}
	}
}

type recorder struct {
	got map[Dest][]float32
}

func (r *recorder) Modulate(d Dest, v float32) {
	r.got[d] = append(r.got[d], v)
}

func TestApply(t *testing.T) {
	m := New()
	mustAdd(t, m, Item{Src: Velocity, Dest: SynthVolume, Amt: 1})
	mustAdd(t, m, Item{Src: Lfo(0), Dest: OscDest(1, ParamTune), Amt: 2, Bipolar: true})
	mustAdd(t, m, Item{Src: Macro(0), Dest: EntryAmount(0), Amt: 0.5})

	dt := NewDataTable()
	dt.Velocity = 0.5
	dt.Lfo[0] = 1 // normalises to 1
	dt.Macros[0] = 1

	r := &recorder{got: map[Dest][]float32{}}
	m.Apply(dt, r)

	// amount of entry 0 becomes 1 + 1*0.5
	if v := r.got[SynthVolume]; len(v) != 1 || v[0] != 0.75 {
		t.Fatalf("SynthVolume mods = %v, want [0.75]", v)
	}
	// bipolar: 1*2 - 2/2
	if v := r.got[OscDest(1, ParamTune)]; len(v) != 1 || v[0] != 1 {
		t.Fatalf("Tune mods = %v, want [1]", v)
	}
	if _, ok := r.got[EntryAmount(0)]; ok {
		t.Fatal("entry-amount routes must not reach the target")
	}

	// effective amounts do not accumulate across ticks
	r.got = map[Dest][]float32{}
	m.Apply(dt, r)
	if v := r.got[SynthVolume]; len(v) != 1 || v[0] != 0.75 {
		t.Fatalf("second tick SynthVolume mods = %v, want [0.75]", v)
	}
}

func TestApplyResolvesAmountChains(t *testing.T) {
	dt := NewDataTable()
	dt.Velocity = 1
	dt.ModWheel = 1
	dt.Macros[0] = 1

	cases := []struct {
		name  string
		build func(t *testing.T, m *Matrix)
		want  float32
	}{
		{
			name: "single link",
			build: func(t *testing.T, m *Matrix) {
				a := mustAdd(t, m, vol(Velocity))
				mustAdd(t, m, Item{Src: ModWheel, Dest: EntryAmount(a), Amt: 1})
			},
			want: 2, // 1 + 1
		},
		{
			name: "two links added in order",
			build: func(t *testing.T, m *Matrix) {
				a := mustAdd(t, m, vol(Velocity))
				b := mustAdd(t, m, Item{Src: ModWheel, Dest: EntryAmount(a), Amt: 1})
				mustAdd(t, m, Item{Src: Macro(0), Dest: EntryAmount(b), Amt: 1})
			},
			want: 3, // b becomes 2, a becomes 1 + 2
		},
		{
			name: "forward reference made by Modify",
			build: func(t *testing.T, m *Matrix) {
				c := mustAdd(t, m, vol(Macro(0)))
				a := mustAdd(t, m, vol(Velocity))
				b := mustAdd(t, m, Item{Src: ModWheel, Dest: EntryAmount(a), Amt: 1})
				if err := m.Modify(c, Item{Src: Macro(0), Dest: EntryAmount(b), Amt: 1}); err != nil {
					t.Fatal(err)
				}
			},
			want: 3,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := New()
			tc.build(t, m)
			r := &recorder{got: map[Dest][]float32{}}
			m.Apply(dt, r)
			if v := r.got[SynthVolume]; len(v) != 1 || v[0] != tc.want {
				t.Fatalf("SynthVolume mods = %v, want [%v]", v, tc.want)
			}
		})
	}
}

func TestDataTableVoiceOrder(t *testing.T) {
	dt := NewDataTable()
	dt.PushVoice(3)
	dt.PushVoice(1)
	dt.PushVoice(4)
	dt.PushVoice(1)
	dt.RemoveVoice(3)
	got := dt.Voices()
	if len(got) != 2 || got[0] != 4 || got[1] != 1 {
		t.Fatalf("Voices = %v, want [4 1]", got)
	}
	if dt.Value(PitchWheel) != 0.5 {
		t.Fatalf("centred pitch wheel = %f, want 0.5", dt.Value(PitchWheel))
	}
	dt.SetBend(-1)
	if dt.Value(PitchWheel) != 0 {
		t.Fatalf("full down bend = %f, want 0", dt.Value(PitchWheel))
	}
}
