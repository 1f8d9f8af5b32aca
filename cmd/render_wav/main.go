package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/cbegin/stepper-go"
)

func main() {
	var (
		sampleRate = flag.Int("sample-rate", stepper.DefaultSampleRate, "output sample rate")
		engineName = flag.String("engine", "organ", "synth engine: organ|subsynth|wurlitzer|wavetable")
		notesArg   = flag.String("notes", "60,64,67", "comma separated MIDI notes played together")
		velocity   = flag.Int("velocity", 100, "note velocity (1-127)")
		hold       = flag.Float64("hold", 1.5, "seconds the notes are held")
		tail       = flag.Float64("tail", 1.5, "seconds rendered after release")
		reverb     = flag.Bool("reverb", false, "enable the reverb slot")
		chorus     = flag.Bool("chorus", false, "enable the chorus slot")
		volume     = flag.Float64("volume", 1.0, "master volume scalar")
		outPath    = flag.String("out", "stepper.wav", "output WAV path")
	)
	flag.Parse()

	typ, err := stepper.ParseEngine(*engineName)
	if err != nil {
		log.Fatalf("invalid -engine: %v", err)
	}
	notes, err := parseNotes(*notesArg)
	if err != nil {
		log.Fatal(err)
	}
	if *velocity < 1 || *velocity > 127 {
		log.Fatalf("invalid -velocity %d", *velocity)
	}

	pl, err := stepper.NewPlayer(*sampleRate, stepper.WithChannels(1), stepper.WithEngine(0, typ))
	if err != nil {
		log.Fatal(err)
	}
	pl.SetMasterVolume(*volume)
	if *reverb {
		pl.ToggleEffect(0, 0)
	}
	if *chorus {
		pl.ToggleEffect(0, 1)
	}

	for _, n := range notes {
		if err := pl.NoteOn(0, n, uint8(*velocity)); err != nil {
			log.Fatal(err)
		}
	}
	buf := pl.Render(*hold)
	for _, n := range notes {
		pl.NoteOff(0, n)
	}
	buf.Data = append(buf.Data, pl.Render(*tail).Data...)

	if err := os.WriteFile(*outPath, stepper.EncodeWAV(buf), 0o644); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("wrote %s (%d frames, %s)\n", *outPath, len(buf.Data), typ)
}

func parseNotes(s string) ([]uint8, error) {
	var notes []uint8
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		n, err := strconv.Atoi(f)
		if err != nil || n < 0 || n > 127 {
			return nil, fmt.Errorf("invalid note %q (expected 0-127)", f)
		}
		notes = append(notes, uint8(n))
	}
	if len(notes) == 0 {
		return nil, fmt.Errorf("no notes in %q", s)
	}
	return notes, nil
}
