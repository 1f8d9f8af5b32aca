// Package engine defines the contract shared by the synth engines and the
// small pitch helpers they all use.
package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chewxy/math32"
)

// ErrUnknownType is returned by ParseType.
var ErrUnknownType = errors.New("engine: unknown type")

// Type enumerates the engine variants.
type Type int

const (
	Organ Type = iota
	Subtractive
	Wurlitzer
	WaveTable
	MidiOut
)

// Types lists every variant in menu order.
var Types = []Type{Organ, Subtractive, Wurlitzer, WaveTable, MidiOut}

var typeNames = [...]string{
	Organ:       "Organ",
	Subtractive: "SubSynth",
	Wurlitzer:   "Wurlitzer",
	WaveTable:   "WaveTable",
	MidiOut:     "MidiOut",
}

func (t Type) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return fmt.Sprintf("Type(%d)", int(t))
	}
	return typeNames[t]
}

// ParseType accepts a variant name, case-insensitively.
func ParseType(s string) (Type, error) {
	for i, name := range typeNames {
		if strings.EqualFold(s, name) {
			return Type(i), nil
		}
	}
	if strings.EqualFold(s, "subtractive") {
		return Subtractive, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownType, s)
}

// Knob is one of the eight continuous hardware knobs.
type Knob int

const (
	KnobOne Knob = iota
	KnobTwo
	KnobThree
	KnobFour
	KnobFive
	KnobSix
	KnobSeven
	KnobEight
)

// NumKnobs is the number of knobs.
const NumKnobs = 8

func (k Knob) String() string { return fmt.Sprintf("Knob%d", int(k)+1) }

// GUIParam is one of the eight on-screen continuous controls.
type GUIParam int

const (
	GUIA GUIParam = iota
	GUIB
	GUIC
	GUID
	GUIE
	GUIF
	GUIG
	GUIH
)

// NumGUIParams is the number of GUI controls.
const NumGUIParams = 8

func (g GUIParam) String() string { return "Gui" + string(rune('A'+int(g))) }

// Engine is implemented only by the variants listed in Type. Control values
// are normalised to [0, 1]; Knob and GUIParam return true when the change
// should be reflected on a display.
type Engine interface {
	Type() Type
	Name() string
	// Sample renders one mono output sample.
	Sample() float32
	Play(note, velocity uint8)
	Stop(note uint8)
	// Bend retunes sounding notes by up to three semitones either way; amount is in [-1, 1].
	Bend(amount float32)
	Unbend()
	VolumeSwell(amount float32) bool
	Knob(k Knob, value float32) bool
	GUIParam(p GUIParam, value float32) bool
	// Knobs and GUIParams report current control values for a display.
	Knobs() map[Knob]float32
	GUIParams() map[GUIParam]float32
	ActiveVoiceCount() int

	sealed()
}

// Sealed is embedded by every engine variant.
type Sealed struct{}

func (Sealed) sealed() {}

// MidiToFreq converts a MIDI note to Hz with A4 = 440.
func MidiToFreq(note uint8) float32 {
	return 440 * math32.Pow(2, (float32(note)-69)/12)
}

// BendRatio is the frequency multiplier for a bend amount in [-1, 1].
func BendRatio(amount float32) float32 {
	if amount == 0 {
		return 1
	}
	nudge := math32.Pow(2, math32.Abs(amount*3)/12)
	if amount < 0 {
		return 1 / nudge
	}
	return nudge
}

// Velocity normalises a MIDI velocity to [0, 1].
func Velocity(v uint8) float32 {
	if v > 127 {
		v = 127
	}
	return float32(v) / 127
}

// NoteSlot records which note, if any, a voice is sounding.
type NoteSlot struct {
	note    uint8
	playing bool
}

// Set marks note as sounding.
func (s *NoteSlot) Set(note uint8) { s.note, s.playing = note, true }

// Clear marks the slot free.
func (s *NoteSlot) Clear() { s.note, s.playing = 0, false }

// Get returns the sounding note and whether there is one.
func (s NoteSlot) Get() (uint8, bool) { return s.note, s.playing }

// Is reports whether the slot is sounding note.
func (s NoteSlot) Is(note uint8) bool { return s.playing && s.note == note }

// Playing reports whether any note is sounding.
func (s NoteSlot) Playing() bool { return s.playing }
