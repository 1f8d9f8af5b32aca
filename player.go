// Package stepper is a real-time multi-channel software synthesizer with
// per-channel effects, MIDI control and a pull-based audio output.
package stepper

import (
	"errors"
	"fmt"
	"sync"

	"github.com/GeoffreyPlitt/debuggo"
	"gitlab.com/gomidi/midi/v2"

	intaudio "github.com/cbegin/stepper-go/internal/audio"
	"github.com/cbegin/stepper-go/internal/control"
	"github.com/cbegin/stepper-go/internal/effects"
	"github.com/cbegin/stepper-go/internal/engine"
	"github.com/cbegin/stepper-go/internal/midiout"
	"github.com/cbegin/stepper-go/internal/synth"
	"github.com/cbegin/stepper-go/internal/wtsynth"
)

// DefaultSampleRate is the output rate used by the CLIs.
const DefaultSampleRate = 48000

// DefaultChannels is the channel count when WithChannels is not given.
const DefaultChannels = 4

type EngineType = engine.Type

const (
	EngineOrgan       = engine.Organ
	EngineSubtractive = engine.Subtractive
	EngineWurlitzer   = engine.Wurlitzer
	EngineWaveTable   = engine.WaveTable
	EngineMidiOut     = engine.MidiOut
)

type EffectType = effects.Type

const (
	EffectReverb     = effects.Reverb
	EffectChorus     = effects.Chorus
	EffectDelay      = effects.Delay
	EffectOverdrive  = effects.Overdrive
	EffectCompressor = effects.Compressor
)

var (
	ErrNoModMatrix       = errors.New("stepper: channel engine has no mod matrix")
	ErrQueueFull         = errors.New("stepper: control queue full")
	ErrChannelOutOfRange = synth.ErrChannelOutOfRange
	ErrSlotOutOfRange    = synth.ErrSlotOutOfRange
	ErrUnknownEngine     = engine.ErrUnknownType
	ErrUnknownEffect     = effects.ErrUnknownType
	ErrUnknownParam      = effects.ErrUnknownParam
)

var playerDebug = debuggo.Debug("stepper:player")

// ParseEngine accepts an engine name such as "organ" or "wavetable".
func ParseEngine(s string) (EngineType, error) { return engine.ParseType(s) }

// ParseEffect accepts an effect name such as "reverb".
func ParseEffect(s string) (EffectType, error) { return effects.ParseType(s) }

// channel A-D default engines, repeated for larger layouts
var defaultEngines = [...]engine.Type{engine.Organ, engine.Subtractive, engine.Wurlitzer, engine.WaveTable}

type PlayerOption func(*playerConfig)

type playerConfig struct {
	channels  int
	engines   map[int]engine.Type
	transport func(cc, value uint8)
	sampleTap func([]float32)
	midiOut   func(ch int, msgs []midi.Message)
	queueSize int
}

func defaultPlayerConfig() playerConfig {
	return playerConfig{
		channels:  DefaultChannels,
		engines:   map[int]engine.Type{},
		queueSize: control.DefaultQueueSize,
	}
}

// WithChannels sets the number of synth channels. MIDI channel i drives synth
// channel i.
func WithChannels(n int) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.channels = n
	}
}

// WithEngine selects the starting engine of one channel.
func WithEngine(channel int, t EngineType) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.engines[channel] = t
	}
}

// WithTransportHandler receives controllers 115-119. It runs on the calling
// control goroutine; transport messages never reach an engine.
func WithTransportHandler(fn func(cc, value uint8)) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.transport = fn
	}
}

// WithSampleTap installs a callback invoked with each generated mono buffer.
// The callback runs on the audio thread; keep work brief and non-blocking.
func WithSampleTap(tap func([]float32)) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.sampleTap = tap
	}
}

// WithMIDIOutput receives the messages queued by MidiOut channels. It is
// called from Process after each block, outside the lock, once per channel
// with pending messages. Without it, poll with DrainMIDI.
func WithMIDIOutput(fn func(ch int, msgs []midi.Message)) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.midiOut = fn
	}
}

// WithQueueSize sets the capacity of the control event queue.
func WithQueueSize(n int) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.queueSize = n
	}
}

// Player owns the synth. Note and controller events are queued without
// locking and applied at the start of the next rendered block; structural
// changes (engines, effects, routes) take the lock and apply immediately.
// The event queue has a single producer: call NoteOn, NoteOff, PitchBend,
// ControlChange and HandleMIDI from one goroutine.
type Player struct {
	mu         sync.Mutex
	sampleRate int
	synth      *synth.Synth
	queue      *control.Queue
	transport  func(cc, value uint8)
	sampleTap  func([]float32)
	midiOut    func(ch int, msgs []midi.Message)
	volume     float64
	audio      *intaudio.Player
}

func NewPlayer(sampleRate int, opts ...PlayerOption) (*Player, error) {
	if sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	cfg := defaultPlayerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.channels < 1 {
		return nil, errors.New("channel count must be positive")
	}
	types := make([]engine.Type, cfg.channels)
	for i := range types {
		types[i] = defaultEngines[i%len(defaultEngines)]
	}
	for ch, t := range cfg.engines {
		if ch < 0 || ch >= cfg.channels {
			return nil, fmt.Errorf("%w: %d", ErrChannelOutOfRange, ch)
		}
		types[ch] = t
	}
	s, err := synth.New(sampleRate, types...)
	if err != nil {
		return nil, err
	}
	return &Player{
		sampleRate: sampleRate,
		synth:      s,
		queue:      control.NewQueue(cfg.queueSize),
		transport:  cfg.transport,
		sampleTap:  cfg.sampleTap,
		midiOut:    cfg.midiOut,
		volume:     1,
	}, nil
}

func (p *Player) SampleRate() int { return p.sampleRate }
func (p *Player) Channels() int   { return p.synth.Channels() }

func (p *Player) checkChannel(ch int) error {
	if ch < 0 || ch >= p.synth.Channels() {
		return fmt.Errorf("%w: %d", ErrChannelOutOfRange, ch)
	}
	return nil
}

func (p *Player) push(ch int, ev control.Event) error {
	if err := p.checkChannel(ch); err != nil {
		return err
	}
	ev.Channel = uint8(ch)
	if ev.Kind == control.Transport {
		if p.transport != nil {
			p.transport(ev.CC, ev.Raw)
		}
		return nil
	}
	if !p.queue.Push(ev) {
		return ErrQueueFull
	}
	return nil
}

// NoteOn queues a note start on channel ch.
func (p *Player) NoteOn(ch int, note, velocity uint8) error {
	return p.push(ch, control.Event{Kind: control.NoteOn, Note: note, Velocity: velocity})
}

// NoteOff queues a note release; the release envelope runs to completion.
func (p *Player) NoteOff(ch int, note uint8) error {
	return p.push(ch, control.Event{Kind: control.NoteOff, Note: note})
}

// PitchBend queues a bend in [-1, 1]; 0 re-centres.
func (p *Player) PitchBend(ch int, amount float32) error {
	return p.push(ch, control.Event{Kind: control.PitchBend, Value: amount})
}

// ControlChange routes a raw controller through the standard CC map.
// Unassigned controllers are ignored.
func (p *Player) ControlChange(ch int, cc, value uint8) error {
	ev, ok := control.FromCC(0, cc, value)
	if !ok {
		playerDebug("ignored cc %d on channel %d", cc, ch)
		return nil
	}
	return p.push(ch, ev)
}

// HandleMIDI decodes msg and queues the resulting event.
func (p *Player) HandleMIDI(msg midi.Message) error {
	ev, ok := control.Decode(msg)
	if !ok {
		return nil
	}
	return p.push(int(ev.Channel), ev)
}

// Process drains the control queue and renders len(dst) mono frames. It is
// the audio thread's entry point.
func (p *Player) Process(dst []float32) {
	p.mu.Lock()
	p.queue.Drain(p.apply)
	for i := range dst {
		dst[i] = p.synth.Sample()
	}
	var out []outbound
	if p.midiOut != nil {
		out = p.drainOutboxes()
	}
	p.mu.Unlock()
	if p.sampleTap != nil {
		p.sampleTap(dst)
	}
	for _, o := range out {
		p.midiOut(o.ch, o.msgs)
	}
}

type outbound struct {
	ch   int
	msgs []midi.Message
}

// drainOutboxes must be called with p.mu held.
func (p *Player) drainOutboxes() []outbound {
	var out []outbound
	for ch := 0; ch < p.synth.Channels(); ch++ {
		c, _ := p.synth.Channel(ch)
		mo, ok := c.Engine().(*midiout.Engine)
		if !ok {
			continue
		}
		if msgs := mo.Drain(); len(msgs) > 0 {
			out = append(out, outbound{ch, msgs})
		}
	}
	return out
}

// DrainMIDI returns and clears the messages queued by a MidiOut channel.
// Other engines queue nothing and return nil.
func (p *Player) DrainMIDI(ch int) ([]midi.Message, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, err := p.synth.Channel(ch)
	if err != nil {
		return nil, err
	}
	mo, ok := c.Engine().(*midiout.Engine)
	if !ok {
		return nil, nil
	}
	return mo.Drain(), nil
}

// apply runs with p.mu held.
func (p *Player) apply(ev control.Event) {
	c, err := p.synth.Channel(int(ev.Channel))
	if err != nil {
		return
	}
	e := c.Engine()
	switch ev.Kind {
	case control.NoteOn:
		e.Play(ev.Note, ev.Velocity)
	case control.NoteOff:
		e.Stop(ev.Note)
	case control.PitchBend:
		if ev.Value == 0 {
			e.Unbend()
		} else {
			e.Bend(ev.Value)
		}
	case control.Knob:
		e.Knob(engine.Knob(ev.Index), ev.Value)
	case control.GUIParam:
		e.GUIParam(engine.GUIParam(ev.Index), ev.Value)
	case control.VolumeSwell:
		e.VolumeSwell(ev.Value)
	case control.ModWheel:
		if wt, ok := e.(*wtsynth.Engine); ok {
			wt.SetModWheel(ev.Value)
		}
	}
}

// SetEngine swaps channel ch to a fresh engine of type t.
func (p *Player) SetEngine(ch int, t EngineType) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, err := p.synth.Channel(ch)
	if err != nil {
		return err
	}
	return c.SetEngine(t)
}

// SetEffect loads a fresh effect into one of the channel's two slots.
func (p *Player) SetEffect(ch, slot int, t EffectType) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, err := p.synth.Channel(ch)
	if err != nil {
		return err
	}
	return c.SetEffect(slot, t)
}

// ToggleEffect flips a slot on or off and returns the new state.
func (p *Player) ToggleEffect(ch, slot int) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, err := p.synth.Channel(ch)
	if err != nil {
		return false, err
	}
	return c.ToggleEffect(slot)
}

// SetEffectParam sets a named parameter of the effect in a slot.
func (p *Player) SetEffectParam(ch, slot int, name string, value float32) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, err := p.synth.Channel(ch)
	if err != nil {
		return err
	}
	fx, _ := c.Effect(slot)
	if fx == nil {
		return fmt.Errorf("%w: %d", ErrSlotOutOfRange, slot)
	}
	return fx.SetParam(name, value)
}

// matrixEngine must be called with p.mu held.
func (p *Player) matrixEngine(ch int) (*wtsynth.Engine, error) {
	c, err := p.synth.Channel(ch)
	if err != nil {
		return nil, err
	}
	wt, ok := c.Engine().(*wtsynth.Engine)
	if !ok {
		return nil, fmt.Errorf("%w: channel %d plays %s", ErrNoModMatrix, ch, c.Engine().Name())
	}
	return wt, nil
}

// AddRoute parses a source name and a TOML destination and appends the route
// to the channel's mod matrix. ok is false when the matrix is full.
func (p *Player) AddRoute(ch int, src, dest string, amt float32, bipolar bool) (index int, ok bool, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	wt, err := p.matrixEngine(ch)
	if err != nil {
		return 0, false, err
	}
	return wt.AddRoute(src, dest, amt, bipolar)
}

// ModifyRoute replaces route i; on error the old route is kept.
func (p *Player) ModifyRoute(ch, i int, src, dest string, amt float32, bipolar bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	wt, err := p.matrixEngine(ch)
	if err != nil {
		return err
	}
	return wt.ModifyRoute(i, src, dest, amt, bipolar)
}

// DeleteRoute removes route i and every route that modulates its amount. It
// returns the number of routes removed.
func (p *Player) DeleteRoute(ch, i int) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	wt, err := p.matrixEngine(ch)
	if err != nil {
		return 0, err
	}
	return wt.Matrix().Delete(i)
}

// Routes lists the channel's mod matrix in slot order.
func (p *Player) Routes(ch int) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	wt, err := p.matrixEngine(ch)
	if err != nil {
		return nil, err
	}
	entries := wt.Matrix().Entries()
	out := make([]string, len(entries))
	for i, it := range entries {
		out[i] = it.String()
	}
	return out, nil
}

// SetMasterVolume sets runtime volume scalar. 1.0 is default.
func (p *Player) SetMasterVolume(volume float64) {
	if volume < 0 {
		volume = 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = volume
	p.synth.SetVolume(float32(volume))
}

func (p *Player) MasterVolume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// SetEQBand sets the gain for a master EQ band (0-4). 1.0 = unity.
// Band frequencies: 0=<200Hz, 1=200-800Hz, 2=800-2.5kHz, 3=2.5-8kHz, 4=>8kHz.
// This takes effect immediately on the audio thread (lock-free).
func (p *Player) SetEQBand(band int, gain float32) {
	p.synth.EQ().SetGain(band, gain)
}

// EQBand returns the current gain for a master EQ band (0-4).
func (p *Player) EQBand(band int) float32 {
	return p.synth.EQ().Gain(band)
}

// DroppedEvents counts control events lost to a full queue.
func (p *Player) DroppedEvents() uint64 { return p.queue.Dropped() }

// Start opens the host audio device and begins pulling samples.
func (p *Player) Start() error {
	p.mu.Lock()
	running := p.audio != nil
	p.mu.Unlock()
	if running {
		return nil
	}
	backend, err := intaudio.NewPlayer(p.sampleRate, p)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.audio = backend
	p.mu.Unlock()
	backend.Play()
	return nil
}

// Stop closes the audio device. Synth state is kept; Start resumes it.
func (p *Player) Stop() error {
	p.mu.Lock()
	a := p.audio
	p.audio = nil
	p.mu.Unlock()
	if a == nil {
		return nil
	}
	return a.Stop()
}
