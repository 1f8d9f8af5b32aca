package modmatrix

// MaxVoices bounds the active-voice order list.
const MaxVoices = 32

// DataTable holds the current value of every modulation source. Engine-wide
// fields (wheels, macros) persist between ticks; per-voice fields (gate,
// velocity, envelopes, LFOs) are overwritten by each voice before it applies
// the matrix. All values are in [0, 1].
type DataTable struct {
	Gate       float32
	Velocity   float32
	ModWheel   float32
	PitchWheel float32
	Macros     [NumMacro]float32
	Env        [NumEnv]float32
	// Lfo holds raw LFO output in [-1, 1]; Value normalises it.
	Lfo [NumLfo]float32

	order  [MaxVoices]int
	nOrder int
}

// NewDataTable returns a table with the pitch wheel centred.
func NewDataTable() *DataTable {
	return &DataTable{PitchWheel: 0.5}
}

// Value returns the normalised value of src.
func (dt *DataTable) Value(src Source) float32 {
	switch src.Kind {
	case SrcGate:
		return dt.Gate
	case SrcVelocity:
		return dt.Velocity
	case SrcModWheel:
		return dt.ModWheel
	case SrcPitchWheel:
		return dt.PitchWheel
	case SrcMacro:
		if src.Index >= 0 && src.Index < NumMacro {
			return dt.Macros[src.Index]
		}
	case SrcEnv:
		if src.Index >= 0 && src.Index < NumEnv {
			return dt.Env[src.Index]
		}
	case SrcLfo:
		if src.Index >= 0 && src.Index < NumLfo {
			return (dt.Lfo[src.Index] + 1) / 2
		}
	}
	return 0
}

// SetBend stores a pitch bend in [-1, 1] as a [0, 1] source value.
func (dt *DataTable) SetBend(b float32) {
	dt.PitchWheel = (b + 1) / 2
}

// PushVoice appends voice index v to the active order.
func (dt *DataTable) PushVoice(v int) {
	dt.RemoveVoice(v)
	if dt.nOrder == MaxVoices {
		return
	}
	dt.order[dt.nOrder] = v
	dt.nOrder++
}

// RemoveVoice drops v from the active order, keeping the rest in order.
func (dt *DataTable) RemoveVoice(v int) {
	w := 0
	for i := 0; i < dt.nOrder; i++ {
		if dt.order[i] != v {
			dt.order[w] = dt.order[i]
			w++
		}
	}
	dt.nOrder = w
}

// Voices returns the active voice indices, oldest first. The slice aliases
// internal storage and is valid until the next Push or Remove.
func (dt *DataTable) Voices() []int {
	return dt.order[:dt.nOrder]
}
