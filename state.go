package stepper

import (
	"sort"

	"github.com/cbegin/stepper-go/internal/synth"
)

// EffectState describes one effect slot.
type EffectState struct {
	Type   string
	On     bool
	Params map[string]float32
}

// ChannelState is a read-only snapshot of one channel for a display.
type ChannelState struct {
	Channel   int
	Engine    EngineType
	Name      string
	Voices    int
	Knobs     map[string]float32
	GUIParams map[string]float32
	Effects   [synth.NumEffectSlots]EffectState
	Routes    []string // nil unless the engine has a mod matrix
}

// KnobNames returns the knob keys in display order.
func (s ChannelState) KnobNames() []string { return sortedKeys(s.Knobs) }

// GUIParamNames returns the GUI parameter keys in display order.
func (s ChannelState) GUIParamNames() []string { return sortedKeys(s.GUIParams) }

func sortedKeys(m map[string]float32) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// State snapshots channel ch. It takes the synth lock and should not be
// called at audio rate.
func (p *Player) State(ch int) (ChannelState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, err := p.synth.Channel(ch)
	if err != nil {
		return ChannelState{}, err
	}
	e := c.Engine()
	st := ChannelState{
		Channel:   ch,
		Engine:    e.Type(),
		Name:      e.Name(),
		Voices:    e.ActiveVoiceCount(),
		Knobs:     map[string]float32{},
		GUIParams: map[string]float32{},
	}
	for k, v := range e.Knobs() {
		st.Knobs[k.String()] = v
	}
	for g, v := range e.GUIParams() {
		st.GUIParams[g.String()] = v
	}
	for i := range st.Effects {
		fx, on := c.Effect(i)
		if fx == nil {
			continue
		}
		st.Effects[i] = EffectState{Type: fx.Type().String(), On: on, Params: fx.Params()}
	}
	if wt, err := p.matrixEngine(ch); err == nil {
		for _, it := range wt.Matrix().Entries() {
			st.Routes = append(st.Routes, it.String())
		}
	}
	return st, nil
}
