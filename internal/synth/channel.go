// Package synth mixes engine channels into the final output.
package synth

import (
	"errors"
	"fmt"

	"github.com/GeoffreyPlitt/debuggo"

	"github.com/cbegin/stepper-go/internal/effects"
	"github.com/cbegin/stepper-go/internal/engine"
	"github.com/cbegin/stepper-go/internal/midiout"
	"github.com/cbegin/stepper-go/internal/organ"
	"github.com/cbegin/stepper-go/internal/subtractive"
	"github.com/cbegin/stepper-go/internal/wtsynth"
	"github.com/cbegin/stepper-go/internal/wurlitzer"
)

// NumEffectSlots is the length of each channel's effect chain.
const NumEffectSlots = 2

var (
	ErrChannelOutOfRange = errors.New("synth: channel out of range")
	ErrSlotOutOfRange    = errors.New("synth: effect slot out of range")
)

var synthDebug = debuggo.Debug("stepper:synth")

// NewEngine builds a fresh engine of type t with default parameters.
func NewEngine(t engine.Type, sampleRate int) (engine.Engine, error) {
	switch t {
	case engine.Organ:
		return organ.New(sampleRate, organ.DefaultParams()), nil
	case engine.Subtractive:
		return subtractive.New(sampleRate, subtractive.DefaultParams()), nil
	case engine.Wurlitzer:
		return wurlitzer.New(sampleRate, wurlitzer.DefaultParams()), nil
	case engine.WaveTable:
		return wtsynth.New(sampleRate, wtsynth.DefaultParams()), nil
	case engine.MidiOut:
		return midiout.New(sampleRate, midiout.DefaultParams()), nil
	}
	return nil, fmt.Errorf("%w: %d", engine.ErrUnknownType, int(t))
}

type effectSlot struct {
	fx effects.Effect
	on bool
}

// Channel is one engine followed by a short effect chain.
type Channel struct {
	sampleRate int
	engine     engine.Engine
	slots      [NumEffectSlots]effectSlot
}

// NewChannel returns a channel playing t, with a reverb and a chorus loaded
// but switched off.
func NewChannel(sampleRate int, t engine.Type) (*Channel, error) {
	c := &Channel{sampleRate: sampleRate}
	if err := c.SetEngine(t); err != nil {
		return nil, err
	}
	for i, ft := range [NumEffectSlots]effects.Type{effects.Reverb, effects.Chorus} {
		if err := c.SetEffect(i, ft); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Engine returns the current engine.
func (c *Channel) Engine() engine.Engine { return c.engine }

// SetEngine replaces the engine with a fresh instance; sounding notes are lost.
func (c *Channel) SetEngine(t engine.Type) error {
	e, err := NewEngine(t, c.sampleRate)
	if err != nil {
		synthDebug("set engine rejected: %v", err)
		return err
	}
	c.engine = e
	synthDebug("engine -> %s", e.Name())
	return nil
}

// SetEffect loads a fresh effect of type t into slot i. The slot keeps its
// on/off state; the previous effect's buffers are discarded.
func (c *Channel) SetEffect(i int, t effects.Type) error {
	if i < 0 || i >= NumEffectSlots {
		return fmt.Errorf("%w: %d", ErrSlotOutOfRange, i)
	}
	fx, err := effects.New(t, c.sampleRate)
	if err != nil {
		synthDebug("set effect rejected: %v", err)
		return err
	}
	c.slots[i].fx = fx
	return nil
}

// ToggleEffect flips slot i on or off and returns the new state.
func (c *Channel) ToggleEffect(i int) (bool, error) {
	if i < 0 || i >= NumEffectSlots {
		return false, fmt.Errorf("%w: %d", ErrSlotOutOfRange, i)
	}
	c.slots[i].on = !c.slots[i].on
	return c.slots[i].on, nil
}

// Effect returns the effect in slot i and whether it is switched on.
func (c *Channel) Effect(i int) (effects.Effect, bool) {
	if i < 0 || i >= NumEffectSlots {
		return nil, false
	}
	return c.slots[i].fx, c.slots[i].on
}

// Sample renders the engine and threads it through every enabled slot in order.
func (c *Channel) Sample() float32 {
	s := c.engine.Sample()
	for i := range c.slots {
		if sl := &c.slots[i]; sl.on && sl.fx != nil {
			s = sl.fx.Process(s)
		}
	}
	return s
}
