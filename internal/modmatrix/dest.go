package modmatrix

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// DestKind identifies what a matrix entry modulates.
type DestKind int

const (
	DestSynthVolume DestKind = iota
	DestOsc
	DestLowPass
	DestEnv
	DestLfo
	// DestEntryAmount targets the amount of another matrix entry.
	DestEntryAmount
)

var destNames = [...]string{
	DestSynthVolume: "SynthVolume",
	DestOsc:         "Osc",
	DestLowPass:     "LowPass",
	DestEnv:         "Env",
	DestLfo:         "Lfo",
	DestEntryAmount: "ModMatrixEntryModAmt",
}

func (k DestKind) String() string {
	if k < 0 || int(k) >= len(destNames) {
		return "Dest(" + strconv.Itoa(int(k)) + ")"
	}
	return destNames[k]
}

// Param is the parameter of a destination module.
type Param int

const (
	ParamNone Param = iota
	ParamLevel
	ParamTune
	ParamCutoff
	ParamRes
	ParamMix
	ParamAttack
	ParamDecay
	ParamSustain
	ParamRelease
	ParamSpeed
)

var paramNames = [...]string{
	ParamNone:    "",
	ParamLevel:   "Level",
	ParamTune:    "Tune",
	ParamCutoff:  "Cutoff",
	ParamRes:     "Res",
	ParamMix:     "Mix",
	ParamAttack:  "Atk",
	ParamDecay:   "Dcy",
	ParamSustain: "Sus",
	ParamRelease: "Rel",
	ParamSpeed:   "Speed",
}

func (p Param) String() string {
	if p < 0 || int(p) >= len(paramNames) {
		return "Param(" + strconv.Itoa(int(p)) + ")"
	}
	return paramNames[p]
}

func parseParam(s string) (Param, bool) {
	for i, name := range paramNames {
		if i > 0 && name == s {
			return Param(i), true
		}
	}
	return ParamNone, false
}

// Dest is a modulation destination. Index is the oscillator, low-pass,
// envelope, LFO or matrix entry it refers to.
type Dest struct {
	Kind  DestKind
	Index int
	Param Param
}

// SynthVolume scales the voice output.
var SynthVolume = Dest{Kind: DestSynthVolume}

func OscDest(i int, p Param) Dest     { return Dest{Kind: DestOsc, Index: i, Param: p} }
func LowPassDest(i int, p Param) Dest { return Dest{Kind: DestLowPass, Index: i, Param: p} }
func EnvDest(i int, p Param) Dest     { return Dest{Kind: DestEnv, Index: i, Param: p} }
func LfoDest(i int, p Param) Dest     { return Dest{Kind: DestLfo, Index: i, Param: p} }
func EntryAmount(entry int) Dest      { return Dest{Kind: DestEntryAmount, Index: entry} }

// Valid reports whether index and parameter make sense for the kind.
// Entry references are checked against the matrix, not here.
func (d Dest) Valid() bool {
	switch d.Kind {
	case DestSynthVolume:
		return true
	case DestOsc:
		return d.Index >= 0 && d.Index < NumOsc && (d.Param == ParamLevel || d.Param == ParamTune)
	case DestLowPass:
		return d.Index >= 0 && d.Index < NumLowPass && d.Param >= ParamCutoff && d.Param <= ParamMix
	case DestEnv:
		return d.Index >= 0 && d.Index < NumEnv && d.Param >= ParamAttack && d.Param <= ParamRelease
	case DestLfo:
		return d.Index >= 0 && d.Index < NumLfo && d.Param == ParamSpeed
	case DestEntryAmount:
		return d.Index >= 0 && d.Index < Size
	}
	return false
}

// Scaling reports whether modulation multiplies the base value instead of adding to it.
func (d Dest) Scaling() bool {
	return d.Kind == DestSynthVolume || (d.Kind == DestOsc && d.Param == ParamLevel)
}

// String renders the destination as the TOML table accepted by ParseDest.
func (d Dest) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s]", d.Kind)
	switch d.Kind {
	case DestOsc:
		fmt.Fprintf(&b, "\nosc = %d\nparam = %q", d.Index, d.Param.String())
	case DestLowPass:
		fmt.Fprintf(&b, "\nlow_pass = \"LP%d\"\nparam = %q", d.Index+1, d.Param.String())
	case DestEnv:
		fmt.Fprintf(&b, "\nenv = %d\nparam = %q", d.Index, d.Param.String())
	case DestLfo:
		fmt.Fprintf(&b, "\nlfo = %d\nparam = %q", d.Index, d.Param.String())
	case DestEntryAmount:
		fmt.Fprintf(&b, "\nentry = %d", d.Index)
	}
	return b.String()
}

// Label is a short display form such as "Osc 2 Level".
func (d Dest) Label() string {
	switch d.Kind {
	case DestSynthVolume:
		return "Volume"
	case DestEntryAmount:
		return fmt.Sprintf("Entry %d Amt", d.Index)
	case DestLowPass:
		return fmt.Sprintf("LP%d %s", d.Index+1, d.Param)
	}
	return fmt.Sprintf("%s %d %s", d.Kind, d.Index+1, d.Param)
}

// ParseDest decodes a destination TOML table, for example
//
//	[Osc]
//	osc = 1
//	param = "Level"
func ParseDest(s string) (Dest, error) {
	var tables map[string]map[string]interface{}
	if _, err := toml.Decode(s, &tables); err != nil {
		return Dest{}, fmt.Errorf("%w: %v", ErrUnknownDest, err)
	}
	if len(tables) != 1 {
		return Dest{}, fmt.Errorf("%w: want exactly one table, got %d", ErrUnknownDest, len(tables))
	}

	var (
		name   string
		fields map[string]interface{}
	)
	for k, v := range tables {
		name, fields = k, v
	}

	var d Dest
	switch name {
	case "SynthVolume":
		return SynthVolume, nil
	case "Osc":
		d.Kind = DestOsc
	case "LowPass":
		d.Kind = DestLowPass
	case "Env":
		d.Kind = DestEnv
	case "Lfo":
		d.Kind = DestLfo
	case "ModMatrixEntryModAmt":
		d.Kind = DestEntryAmount
		n, err := intField(fields, "entry")
		if err != nil {
			return Dest{}, err
		}
		d.Index = n
		if !d.Valid() {
			return Dest{}, fmt.Errorf("%w: entry %d", ErrIndexOutOfRange, n)
		}
		return d, nil
	default:
		return Dest{}, fmt.Errorf("%w: unknown table [%s]", ErrUnknownDest, name)
	}

	if d.Kind == DestLowPass {
		id, _ := fields["low_pass"].(string)
		switch id {
		case "LP1":
			d.Index = 0
		case "LP2":
			d.Index = 1
		default:
			return Dest{}, fmt.Errorf("%w: low_pass %q", ErrUnknownDest, id)
		}
	} else {
		key := strings.ToLower(name)
		n, err := intField(fields, key)
		if err != nil {
			return Dest{}, err
		}
		d.Index = n
	}

	ps, _ := fields["param"].(string)
	p, ok := parseParam(ps)
	if !ok {
		return Dest{}, fmt.Errorf("%w: param %q", ErrUnknownDest, ps)
	}
	d.Param = p
	if !d.Valid() {
		return Dest{}, fmt.Errorf("%w: %s", ErrUnknownDest, d.Label())
	}
	return d, nil
}

func intField(fields map[string]interface{}, key string) (int, error) {
	switch v := fields[key].(type) {
	case int64:
		return int(v), nil
	case nil:
		return 0, fmt.Errorf("%w: missing %q", ErrUnknownDest, key)
	default:
		return 0, fmt.Errorf("%w: %q is %T, want integer", ErrUnknownDest, key, v)
	}
}
