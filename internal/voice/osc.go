// Package voice provides the polyphonic note slots the engines are built from.
package voice

import (
	"github.com/chewxy/math32"

	"github.com/cbegin/stepper-go/internal/engine"
	"github.com/cbegin/stepper-go/internal/envelope"
	"github.com/cbegin/stepper-go/internal/filter"
	"github.com/cbegin/stepper-go/internal/wavetable"
)

var semitone = math32.Pow(2, 1.0/12)

// Osc is a single oscillator note slot: one table oscillator shaped by an
// ADSR and a low-pass.
type Osc struct {
	osc    wavetable.Oscillator
	Env    envelope.ADSR
	Filter filter.LowPass

	note      engine.NoteSlot
	velocity  float32
	frequency float32
	baseFreq  float32
	// offset shifts the played note, in semitones.
	offset float32
}

// Init prepares an Osc value in place.
func (o *Osc) Init(sampleRate int, table wavetable.Table, env envelope.Params, lp filter.Params) {
	o.osc.Init(sampleRate, table)
	o.Env.Init(sampleRate, env)
	o.Filter.Init(sampleRate, lp)
	o.note.Clear()
	o.offset = 0
}

// SetTable swaps the oscillator table.
func (o *Osc) SetTable(t wavetable.Table) { o.osc.SetTable(t) }

// SetOffset transposes subsequent presses by semitones (fractional for detune).
func (o *Osc) SetOffset(semitones float32) { o.offset = semitones }

// Press starts note.
func (o *Osc) Press(note, velocity uint8) {
	o.Env.Press()
	o.frequency = engine.MidiToFreq(note)
	if o.offset != 0 {
		o.frequency *= math32.Pow(2, o.offset/12)
	}
	o.baseFreq = o.frequency
	o.velocity = engine.Velocity(velocity)
	o.osc.SetFrequency(o.frequency)
	o.Filter.SetNote(o.frequency)
	o.note.Set(note)
}

// Release lets the envelope run out. The slot stays claimed until it is idle.
func (o *Osc) Release() { o.Env.Release() }

// Note returns the sounding note.
func (o *Osc) Note() (uint8, bool) { return o.note.Get() }

// Is reports whether the slot is sounding note.
func (o *Osc) Is(note uint8) bool { return o.note.Is(note) }

// Playing reports whether the slot is claimed.
func (o *Osc) Playing() bool { return o.note.Playing() }

// Pressed reports whether the note is held (not releasing).
func (o *Osc) Pressed() bool { return o.note.Playing() && o.Env.Pressed() }

// Velocity returns the normalised velocity of the last press.
func (o *Osc) Velocity() float32 { return o.velocity }

// Frequency returns the current, possibly bent, frequency.
func (o *Osc) Frequency() float32 { return o.frequency }

// Oscillator exposes the table reader, for sync between oscillators.
func (o *Osc) Oscillator() *wavetable.Oscillator { return &o.osc }

// Sample renders one sample. The slot is freed once the envelope goes idle.
func (o *Osc) Sample() float32 {
	if !o.note.Playing() {
		return 0
	}
	env := o.Env.Sample()
	s := o.osc.Sample() * env
	if !o.Env.Active() {
		o.note.Clear()
	}
	return o.Filter.Sample(s, env)
}

// Bend sets the frequency to the base frequency times engine.BendRatio(amount).
func (o *Osc) Bend(amount float32) {
	o.frequency = o.baseFreq * engine.BendRatio(amount)
	o.osc.SetFrequency(o.frequency)
}

// Unbend restores the pressed frequency.
func (o *Osc) Unbend() {
	o.frequency = o.baseFreq
	o.osc.SetFrequency(o.frequency)
}

// Vibrato detunes by up to a fifth of a semitone either way; amt is in [-1, 1].
// It does not change the stored frequency, so it never accumulates.
func (o *Osc) Vibrato(amt float32) {
	amt *= 0.4
	if amt == 0 {
		o.osc.SetFrequency(o.frequency)
		return
	}
	next := o.frequency * semitone
	if amt < 0 {
		next = o.frequency / semitone
	}
	delta := math32.Abs(o.frequency - next)
	o.osc.SetFrequency(o.frequency + delta*amt*0.5)
}

// Pool is a fixed set of Osc slots with first-free allocation.
type Pool []Osc

// NewPool allocates n slots reading table.
func NewPool(n, sampleRate int, table wavetable.Table, env envelope.Params, lp filter.Params) Pool {
	p := make(Pool, n)
	for i := range p {
		p[i].Init(sampleRate, table, env, lp)
	}
	return p
}

// Play presses note on the first free slot. A note that is already held is
// ignored, as is a note that finds every slot busy. It returns the slot
// index, or -1.
func (p Pool) Play(note, velocity uint8) int {
	for i := range p {
		if p[i].Is(note) && p[i].Pressed() {
			return -1
		}
	}
	for i := range p {
		if !p[i].Playing() {
			p[i].Press(note, velocity)
			return i
		}
	}
	return -1
}

// Stop releases every slot sounding note.
func (p Pool) Stop(note uint8) {
	for i := range p {
		if p[i].Is(note) {
			p[i].Release()
		}
	}
}

// Bend retunes every sounding slot.
func (p Pool) Bend(amount float32) {
	for i := range p {
		if p[i].Playing() {
			p[i].Bend(amount)
		}
	}
}

// Unbend restores every slot to its pressed frequency.
func (p Pool) Unbend() {
	for i := range p {
		p[i].Unbend()
	}
}

// Active counts claimed slots.
func (p Pool) Active() int {
	n := 0
	for i := range p {
		if p[i].Playing() {
			n++
		}
	}
	return n
}
