package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"golang.org/x/term"

	"github.com/cbegin/stepper-go"
)

// lower two rows of a QWERTY keyboard, one octave from C
const pianoKeys = "awsedftgyhujk"

const help = `keys: a w s e d f t g y h u j k play | z/x octave | 1-4 channel
      [ ] bend | \ unbend | r reverb | c chorus | n next engine | p state | q quit`

type held struct {
	ch   uint8
	note uint8
}

func main() {
	var (
		sampleRate = flag.Int("sample-rate", stepper.DefaultSampleRate, "output sample rate")
		engineName = flag.String("engine", "organ", "engine on channel A: organ|subsynth|wurlitzer|wavetable|midiout")
		gate       = flag.Duration("gate", 400*time.Millisecond, "how long a key press holds its note")
		velocity   = flag.Int("velocity", 100, "note velocity (1-127)")
		volume     = flag.Float64("volume", 1.0, "master volume scalar")
	)
	flag.Parse()

	typ, err := stepper.ParseEngine(*engineName)
	if err != nil {
		log.Fatalf("invalid -engine: %v", err)
	}
	pl, err := stepper.NewPlayer(*sampleRate,
		stepper.WithEngine(0, typ),
		stepper.WithTransportHandler(func(cc, value uint8) {
			say("transport cc%d = %d", cc, value)
		}),
	)
	if err != nil {
		log.Fatal(err)
	}
	pl.SetMasterVolume(*volume)
	if err := pl.Start(); err != nil {
		log.Fatal(err)
	}
	defer pl.Stop()

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		log.Fatalf("set raw mode: %v", err)
	}
	defer term.Restore(fd, oldState)

	keys := make(chan byte, 16)
	go func() {
		buf := make([]byte, 1)
		for {
			n, err := os.Stdin.Read(buf)
			if err != nil {
				close(keys)
				return
			}
			if n > 0 {
				keys <- buf[0]
			}
		}
	}()

	say("%s", help)
	k := keyboard{pl: pl, octave: 4, vel: uint8(*velocity), gate: *gate, pending: map[held]time.Time{}}
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case b, ok := <-keys:
			if !ok || !k.press(b) {
				k.releaseAll()
				return
			}
		case now := <-ticker.C:
			k.release(now)
		}
	}
}

// keyboard turns key presses into MIDI. Terminals report no key-up, so each
// note is released after a fixed gate. All events come from this goroutine.
type keyboard struct {
	pl      *stepper.Player
	ch      uint8
	octave  int
	vel     uint8
	gate    time.Duration
	bend    float32
	pending map[held]time.Time
}

func (k *keyboard) send(msg midi.Message) {
	if err := k.pl.HandleMIDI(msg); err != nil {
		say("%v", err)
	}
}

// press handles one key and reports whether to keep running.
func (k *keyboard) press(b byte) bool {
	if i := strings.IndexByte(pianoKeys, b); i >= 0 {
		n := (k.octave+1)*12 + i
		if n > 127 {
			return true
		}
		note := uint8(n)
		h := held{k.ch, note}
		if _, ok := k.pending[h]; !ok {
			k.send(midi.NoteOn(k.ch, note, k.vel))
		}
		k.pending[h] = time.Now().Add(k.gate)
		return true
	}
	switch b {
	case 'q', 3: // ctrl-c arrives as a byte in raw mode
		return false
	case 'z':
		k.octave = max(k.octave-1, 0)
		say("octave %d", k.octave)
	case 'x':
		k.octave = min(k.octave+1, 9)
		say("octave %d", k.octave)
	case '1', '2', '3', '4':
		k.ch = b - '1'
		say("channel %c", 'A'+k.ch)
	case '[', ']':
		if b == '[' {
			k.bend = max(k.bend-0.25, -1)
		} else {
			k.bend = min(k.bend+0.25, 1)
		}
		k.send(midi.Pitchbend(k.ch, int16(k.bend*8191)))
	case '\\':
		k.bend = 0
		k.send(midi.Pitchbend(k.ch, 0))
	case 'r', 'c':
		slot := 0
		if b == 'c' {
			slot = 1
		}
		on, err := k.pl.ToggleEffect(int(k.ch), slot)
		if err != nil {
			say("%v", err)
			break
		}
		say("slot %d on=%v", slot, on)
	case 'n':
		k.nextEngine()
	case 'p':
		k.printState()
	}
	return true
}

func (k *keyboard) nextEngine() {
	st, err := k.pl.State(int(k.ch))
	if err != nil {
		say("%v", err)
		return
	}
	next := (st.Engine + 1) % (stepper.EngineMidiOut + 1)
	for h := range k.pending {
		if h.ch == k.ch {
			delete(k.pending, h)
		}
	}
	if err := k.pl.SetEngine(int(k.ch), next); err != nil {
		say("%v", err)
		return
	}
	say("channel %c -> %s", 'A'+k.ch, next)
}

func (k *keyboard) printState() {
	st, err := k.pl.State(int(k.ch))
	if err != nil {
		say("%v", err)
		return
	}
	say("channel %c: %s, %d voices", 'A'+k.ch, st.Name, st.Voices)
	for _, name := range st.KnobNames() {
		say("  %-6s %.3f", name, st.Knobs[name])
	}
	for _, name := range st.GUIParamNames() {
		say("  %-6s %.3f", name, st.GUIParams[name])
	}
	for i, fx := range st.Effects {
		say("  fx%d %s on=%v %v", i, fx.Type, fx.On, fx.Params)
	}
	for i, r := range st.Routes {
		say("  route %d: %s", i, r)
	}
}

func (k *keyboard) release(now time.Time) {
	for h, until := range k.pending {
		if now.After(until) {
			k.send(midi.NoteOff(h.ch, h.note))
			delete(k.pending, h)
		}
	}
}

func (k *keyboard) releaseAll() {
	for h := range k.pending {
		k.send(midi.NoteOff(h.ch, h.note))
	}
	clear(k.pending)
}

// say prints a status line; raw mode needs an explicit carriage return.
func say(format string, args ...any) {
	fmt.Printf(format+"\r\n", args...)
}
