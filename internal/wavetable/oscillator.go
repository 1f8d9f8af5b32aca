package wavetable

import "github.com/chewxy/math32"

// Oscillator reads a Table cyclically with linear interpolation.
//
// The index stays in [0, len(table)). A frequency of zero holds the index,
// so the oscillator emits the table value at its current position.
type Oscillator struct {
	table      Table
	sampleRate float32
	index      float32
	increment  float32
	frequency  float32
	reversed   bool
	wrapped    bool
}

// NewOscillator returns an oscillator over table at sampleRate.
func NewOscillator(sampleRate int, table Table) *Oscillator {
	o := &Oscillator{}
	o.Init(sampleRate, table)
	return o
}

// Init prepares an oscillator value in place, for oscillators embedded in voice arrays.
func (o *Oscillator) Init(sampleRate int, table Table) {
	if sampleRate <= 0 {
		sampleRate = 48000
	}
	*o = Oscillator{table: table, sampleRate: float32(sampleRate)}
}

// SetTable swaps the table. The read position is kept at the same fraction of a cycle.
func (o *Oscillator) SetTable(t Table) {
	if len(t) == 0 {
		o.table = t
		o.index = 0
		return
	}
	if len(o.table) > 0 && len(t) != len(o.table) {
		o.index = o.index / float32(len(o.table)) * float32(len(t))
		if o.index >= float32(len(t)) {
			o.index = 0
		}
	}
	o.table = t
	o.SetFrequency(o.frequency)
}

// Table returns the table currently being read.
func (o *Oscillator) Table() Table { return o.table }

// SetFrequency recomputes the index increment. Negative values are treated as zero.
func (o *Oscillator) SetFrequency(hz float32) {
	if hz < 0 || math32.IsNaN(hz) {
		hz = 0
	}
	o.frequency = hz
	o.increment = hz * float32(len(o.table)) / o.sampleRate
}

// Frequency returns the frequency last set.
func (o *Oscillator) Frequency() float32 { return o.frequency }

// Sample returns the interpolated value at the read index and advances it.
func (o *Oscillator) Sample() float32 {
	n := len(o.table)
	if n == 0 {
		return 0
	}
	i0 := int(o.index)
	if i0 >= n {
		i0 = n - 1
	}
	i1 := (i0 + 1) % n
	frac := o.index - float32(i0)
	s := o.table[i0]*(1-frac) + o.table[i1]*frac

	size := float32(n)
	o.wrapped = false
	if o.reversed {
		o.index -= o.increment
		for o.index < 0 {
			o.index += size
			o.wrapped = true
		}
	} else {
		o.index += o.increment
		for o.index >= size {
			o.index -= size
			o.wrapped = true
		}
	}
	return s
}

// SyncReset reverses the read direction once the index has passed a quarter
// of the table. Driven by a master oscillator's cycle wrap it gives a hard-sync
// flavoured timbre without a phase discontinuity.
func (o *Oscillator) SyncReset() {
	if o.index > float32(len(o.table)*3)/12 {
		o.reversed = !o.reversed
	}
}

// Wrapped reports whether the last Sample call crossed the end of the table.
func (o *Oscillator) Wrapped() bool { return o.wrapped }

// Index returns the current fractional read position.
func (o *Oscillator) Index() float32 { return o.index }

// Reset returns the read position to zero and restores forward direction.
func (o *Oscillator) Reset() {
	o.index = 0
	o.reversed = false
	o.wrapped = false
}
