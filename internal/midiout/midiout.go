// Package midiout is a silent engine that turns note and bend events into
// outbound MIDI messages for an external device.
package midiout

import (
	"github.com/GeoffreyPlitt/debuggo"
	"gitlab.com/gomidi/midi/v2"

	"github.com/cbegin/stepper-go/internal/engine"
)

// MaxPending bounds the outbox; older messages are dropped first.
const MaxPending = 256

const (
	ccVolume   = 7
	ccKnobBase = 70
)

var outDebug = debuggo.Debug("stepper:midiout")

// Params selects the output.
type Params struct {
	// Device names the output port. Empty means any.
	Device  string
	Channel uint8
}

// DefaultParams sends on channel 0 of any device.
func DefaultParams() Params { return Params{} }

// Engine queues MIDI messages instead of rendering audio.
type Engine struct {
	engine.Sealed

	params  Params
	pending []midi.Message
	held    [128]bool
	knobs   map[engine.Knob]float32
}

// New creates a MIDI out engine. The sample rate is unused.
func New(_ int, params Params) *Engine {
	return &Engine{
		params:  params,
		pending: make([]midi.Message, 0, MaxPending),
		knobs:   make(map[engine.Knob]float32, engine.NumKnobs),
	}
}

func (e *Engine) Type() engine.Type { return engine.MidiOut }

func (e *Engine) Name() string {
	dev := e.params.Device
	if dev == "" {
		dev = "ANY"
	}
	return "Midi Out " + dev
}

// Sample is always silent.
func (e *Engine) Sample() float32 { return 0 }

func (e *Engine) Play(note, velocity uint8) {
	if note > 127 || e.held[note] {
		return
	}
	e.held[note] = true
	e.send(midi.NoteOn(e.params.Channel, note, velocity))
}

func (e *Engine) Stop(note uint8) {
	if note > 127 || !e.held[note] {
		return
	}
	e.held[note] = false
	e.send(midi.NoteOff(e.params.Channel, note))
}

// Bend maps [-1, 1] onto the 14-bit pitch bend range.
func (e *Engine) Bend(amount float32) {
	if amount > 1 {
		amount = 1
	}
	if amount < -1 {
		amount = -1
	}
	v := int16(amount * 8191)
	e.send(midi.Pitchbend(e.params.Channel, v))
}

func (e *Engine) Unbend() { e.send(midi.Pitchbend(e.params.Channel, 0)) }

// VolumeSwell sends channel volume.
func (e *Engine) VolumeSwell(amount float32) bool {
	e.send(midi.ControlChange(e.params.Channel, ccVolume, toCC(amount)))
	return false
}

// Knob forwards knob k as sound controller 70+k.
func (e *Engine) Knob(k engine.Knob, value float32) bool {
	if k < 0 || int(k) >= engine.NumKnobs {
		return false
	}
	e.knobs[k] = value
	e.send(midi.ControlChange(e.params.Channel, ccKnobBase+uint8(k), toCC(value)))
	return true
}

func (e *Engine) GUIParam(engine.GUIParam, float32) bool { return false }

func (e *Engine) Knobs() map[engine.Knob]float32 {
	out := make(map[engine.Knob]float32, len(e.knobs))
	for k, v := range e.knobs {
		out[k] = v
	}
	return out
}

func (e *Engine) GUIParams() map[engine.GUIParam]float32 {
	return map[engine.GUIParam]float32{}
}

// ActiveVoiceCount counts notes sent on and not yet off.
func (e *Engine) ActiveVoiceCount() int {
	n := 0
	for _, h := range e.held {
		if h {
			n++
		}
	}
	return n
}

func (e *Engine) send(m midi.Message) {
	if len(e.pending) == MaxPending {
		outDebug("outbox full, dropping %s", e.pending[0])
		copy(e.pending, e.pending[1:])
		e.pending = e.pending[:MaxPending-1]
	}
	e.pending = append(e.pending, m)
}

// Drain returns and clears the queued messages.
func (e *Engine) Drain() []midi.Message {
	out := make([]midi.Message, len(e.pending))
	copy(out, e.pending)
	e.pending = e.pending[:0]
	return out
}

func toCC(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 127
	}
	return uint8(v * 127)
}
