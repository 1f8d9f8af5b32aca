// Package control turns inbound MIDI into synth events and carries them from
// the control thread to the audio thread.
package control

import (
	"fmt"

	"gitlab.com/gomidi/midi/v2"
)

// Kind tells which setter an Event drives.
type Kind uint8

const (
	NoteOn Kind = iota
	NoteOff
	PitchBend
	Knob
	GUIParam
	ModWheel
	VolumeSwell
	Transport
)

var kindNames = [...]string{"NoteOn", "NoteOff", "PitchBend", "Knob", "GUIParam", "ModWheel", "VolumeSwell", "Transport"}

func (k Kind) String() string {
	if int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Controller numbers with a fixed meaning.
const (
	CCModWheel    = 1
	CCVolumeSwell = 11
	CCKnobBase    = 70  // 70-77 drive knobs 1-8
	CCGUIBase     = 102 // 102-109 drive GUI params A-H
	CCTransportLo = 115 // 115-119 belong to the sequencer
	CCTransportHi = 119
)

const numControls = 8

// Event is one decoded control message. Channel selects the synth channel.
// Note and Velocity are set for note events, Index for Knob and GUIParam,
// CC and Raw for Transport. Value is normalised: [-1, 1] for PitchBend and
// [0, 1] for every controller.
type Event struct {
	Kind     Kind
	Channel  uint8
	Note     uint8
	Velocity uint8
	Index    int
	CC       uint8
	Raw      uint8
	Value    float32
}

// Decode maps a MIDI message onto an Event. Messages that drive nothing
// (sysex, clock, unassigned controllers) return false.
func Decode(msg midi.Message) (Event, bool) {
	var ch, key, vel uint8
	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		return Event{Kind: NoteOn, Channel: ch, Note: key, Velocity: vel}, true
	case msg.GetNoteEnd(&ch, &key):
		return Event{Kind: NoteOff, Channel: ch, Note: key}, true
	}
	var rel int16
	var abs uint16
	if msg.GetPitchBend(&ch, &rel, &abs) {
		v := float32(rel) / 8191
		if v < -1 {
			v = -1
		}
		return Event{Kind: PitchBend, Channel: ch, Value: v}, true
	}
	var cc, val uint8
	if msg.GetControlChange(&ch, &cc, &val) {
		return FromCC(ch, cc, val)
	}
	return Event{}, false
}

// FromCC maps a controller change onto an Event.
func FromCC(ch, cc, val uint8) (Event, bool) {
	ev := Event{Channel: ch, CC: cc, Raw: val, Value: float32(val) / 127}
	switch {
	case cc == CCModWheel:
		ev.Kind = ModWheel
	case cc == CCVolumeSwell:
		ev.Kind = VolumeSwell
	case cc >= CCKnobBase && cc < CCKnobBase+numControls:
		ev.Kind, ev.Index = Knob, int(cc-CCKnobBase)
	case cc >= CCGUIBase && cc < CCGUIBase+numControls:
		ev.Kind, ev.Index = GUIParam, int(cc-CCGUIBase)
	case cc >= CCTransportLo && cc <= CCTransportHi:
		ev.Kind = Transport
	default:
		return Event{}, false
	}
	return ev, true
}

// Message encodes ev back into MIDI; Transport events keep their raw value.
func (ev Event) Message() midi.Message {
	switch ev.Kind {
	case NoteOn:
		return midi.NoteOn(ev.Channel, ev.Note, ev.Velocity)
	case NoteOff:
		return midi.NoteOff(ev.Channel, ev.Note)
	case PitchBend:
		return midi.Pitchbend(ev.Channel, int16(ev.Value*8191))
	case ModWheel:
		return midi.ControlChange(ev.Channel, CCModWheel, toCC(ev.Value))
	case VolumeSwell:
		return midi.ControlChange(ev.Channel, CCVolumeSwell, toCC(ev.Value))
	case Knob:
		return midi.ControlChange(ev.Channel, CCKnobBase+uint8(ev.Index), toCC(ev.Value))
	case GUIParam:
		return midi.ControlChange(ev.Channel, CCGUIBase+uint8(ev.Index), toCC(ev.Value))
	case Transport:
		return midi.ControlChange(ev.Channel, ev.CC, ev.Raw)
	}
	return nil
}

func toCC(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 127
	}
	return uint8(v*127 + 0.5)
}
