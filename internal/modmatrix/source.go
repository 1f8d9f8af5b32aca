package modmatrix

import (
	"fmt"
	"strconv"
	"strings"
)

// Per-voice module counts addressable from the matrix.
const (
	NumOsc     = 3
	NumLowPass = 2
	NumEnv     = 4
	NumLfo     = 4
	NumMacro   = 4
)

// SourceKind identifies a modulation source.
type SourceKind int

const (
	SrcGate SourceKind = iota
	SrcVelocity
	SrcModWheel
	SrcPitchWheel
	SrcMacro
	SrcEnv
	SrcLfo
)

// Source is a modulation source. Index selects the macro, envelope or LFO.
type Source struct {
	Kind  SourceKind
	Index int
}

var (
	Gate       = Source{Kind: SrcGate}
	Velocity   = Source{Kind: SrcVelocity}
	ModWheel   = Source{Kind: SrcModWheel}
	PitchWheel = Source{Kind: SrcPitchWheel}
)

func Macro(i int) Source { return Source{Kind: SrcMacro, Index: i} }
func Env(i int) Source   { return Source{Kind: SrcEnv, Index: i} }
func Lfo(i int) Source   { return Source{Kind: SrcLfo, Index: i} }

// Valid reports whether the source index is in range for its kind.
func (s Source) Valid() bool {
	switch s.Kind {
	case SrcGate, SrcVelocity, SrcModWheel, SrcPitchWheel:
		return true
	case SrcMacro:
		return s.Index >= 0 && s.Index < NumMacro
	case SrcEnv:
		return s.Index >= 0 && s.Index < NumEnv
	case SrcLfo:
		return s.Index >= 0 && s.Index < NumLfo
	}
	return false
}

// String renders the source in the control-surface token form, e.g. "Env-2".
func (s Source) String() string {
	switch s.Kind {
	case SrcGate:
		return "Gate"
	case SrcVelocity:
		return "Velocity"
	case SrcModWheel:
		return "ModWheel"
	case SrcPitchWheel:
		return "PitchWheel"
	case SrcMacro:
		return "Macro" + strconv.Itoa(s.Index+1)
	case SrcEnv:
		return "Env-" + strconv.Itoa(s.Index)
	case SrcLfo:
		return "Lfo-" + strconv.Itoa(s.Index)
	}
	return fmt.Sprintf("Source(%d)", int(s.Kind))
}

// ParseSource parses a source token such as "Velocity", "Macro3" or "Lfo-1".
func ParseSource(s string) (Source, error) {
	tok := strings.TrimSpace(s)
	switch tok {
	case "Gate":
		return Gate, nil
	case "Velocity":
		return Velocity, nil
	case "ModWheel":
		return ModWheel, nil
	case "PitchWheel":
		return PitchWheel, nil
	}

	var (
		src    Source
		suffix string
	)
	switch {
	case strings.HasPrefix(tok, "Macro"):
		src.Kind, suffix = SrcMacro, tok[len("Macro"):]
	case strings.HasPrefix(tok, "Env-"):
		src.Kind, suffix = SrcEnv, tok[len("Env-"):]
	case strings.HasPrefix(tok, "Lfo-"):
		src.Kind, suffix = SrcLfo, tok[len("Lfo-"):]
	default:
		return Source{}, fmt.Errorf("%w: %q", ErrUnknownSource, s)
	}
	n, err := strconv.Atoi(suffix)
	if err != nil {
		return Source{}, fmt.Errorf("%w: %q", ErrUnknownSource, s)
	}
	if src.Kind == SrcMacro {
		n-- // macros are numbered from 1
	}
	src.Index = n
	if !src.Valid() {
		return Source{}, fmt.Errorf("%w: %q index out of range", ErrUnknownSource, s)
	}
	return src, nil
}
