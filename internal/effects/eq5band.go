package effects

import (
	"math"
	"sync/atomic"
)

// NumEQBands is the number of master EQ bands.
const NumEQBands = 5

// EQ5Band implements a 5-band equalizer with runtime-adjustable gains.
// Bands are split at 200Hz, 800Hz, 2.5kHz, and 8kHz.
// Gains are stored as uint32 (bit-cast float32) so the control thread can
// change them while the audio thread reads.
type EQ5Band struct {
	gains  [NumEQBands]atomic.Uint32
	alphas [NumEQBands - 1]float32
	lp     [NumEQBands - 1]float32
}

var defaultCrossovers = [NumEQBands - 1]float64{200, 800, 2500, 8000}

// NewEQ5Band creates a 5-band EQ with all gains at unity.
func NewEQ5Band(sampleRate int) *EQ5Band {
	eq := &EQ5Band{}
	dt := 1.0 / float64(sampleRate)
	for i, freq := range defaultCrossovers {
		rc := 1.0 / (2.0 * math.Pi * freq)
		eq.alphas[i] = float32(dt / (rc + dt))
	}
	for i := range eq.gains {
		eq.gains[i].Store(math.Float32bits(1.0))
	}
	return eq
}

// SetGain sets the gain for band (0-4). 1.0 = unity, 0.0 = silence, 2.0 = +6dB.
func (eq *EQ5Band) SetGain(band int, gain float32) {
	if band >= 0 && band < NumEQBands {
		eq.gains[band].Store(math.Float32bits(gain))
	}
}

// Gain returns the current gain for band (0-4).
func (eq *EQ5Band) Gain(band int) float32 {
	if band >= 0 && band < NumEQBands {
		return math.Float32frombits(eq.gains[band].Load())
	}
	return 1.0
}

func (eq *EQ5Band) Process(x float32) float32 {
	// Each crossover peels its low band off the remainder; what is left
	// above the last crossover is band 4.
	var out float32
	rem := x
	for i := range eq.lp {
		eq.lp[i] += eq.alphas[i] * (rem - eq.lp[i])
		out += eq.lp[i] * eq.Gain(i)
		rem -= eq.lp[i]
	}
	return out + rem*eq.Gain(NumEQBands-1)
}

func (eq *EQ5Band) Reset() {
	clear(eq.lp[:])
}
