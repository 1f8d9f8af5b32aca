// Package effects holds the per-channel effect units and the master bus
// processors. Everything is mono and processes one sample at a time.
package effects

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownType  = errors.New("effects: unknown effect type")
	ErrUnknownParam = errors.New("effects: unknown parameter")
)

// Effector processes audio in place.
type Effector interface {
	Process(x float32) float32
	Reset()
}

// Effect is a channel effect slot unit. TakeInput feeds one sample and
// Sample returns the processed result; Process does both.
type Effect interface {
	Effector
	Type() Type
	TakeInput(x float32)
	Sample() float32
	// ParamNames lists parameters in display order.
	ParamNames() []string
	Params() map[string]float32
	SetParam(name string, value float32) error
}

// Type selects an effect.
type Type int

const (
	Reverb Type = iota
	Chorus
	Delay
	Overdrive
	Compressor
)

// Types lists every effect type.
var Types = []Type{Reverb, Chorus, Delay, Overdrive, Compressor}

func (t Type) String() string {
	switch t {
	case Reverb:
		return "Reverb"
	case Chorus:
		return "Chorus"
	case Delay:
		return "Delay"
	case Overdrive:
		return "Overdrive"
	case Compressor:
		return "Compressor"
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// ParseType matches an effect name, ignoring case.
func ParseType(s string) (Type, error) {
	for _, t := range Types {
		if strings.EqualFold(s, t.String()) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownType, s)
}

// New builds a fresh effect of type t with default settings.
func New(t Type, sampleRate int) (Effect, error) {
	switch t {
	case Reverb:
		return NewReverb(sampleRate), nil
	case Chorus:
		return NewChorus(sampleRate), nil
	case Delay:
		return NewDelay(sampleRate, 0.3, 0.4, 0.5), nil
	case Overdrive:
		return NewOverdrive(sampleRate, 4, 0.5, 6000), nil
	case Compressor:
		return NewCompressor(sampleRate, -20, 4, 5, 100, 6), nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownType, int(t))
}

// Chain applies a sequence of effects in order.
type Chain struct {
	effects []Effector
}

func NewChain(effects ...Effector) *Chain {
	return &Chain{effects: effects}
}

func (c *Chain) Process(x float32) float32 {
	for _, e := range c.effects {
		x = e.Process(x)
	}
	return x
}

func (c *Chain) Reset() {
	for _, e := range c.effects {
		e.Reset()
	}
}

func (c *Chain) Add(e Effector) {
	c.effects = append(c.effects, e)
}

func unknownParam(t Type, name string) error {
	return fmt.Errorf("%w: %s has no %q", ErrUnknownParam, t, name)
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
