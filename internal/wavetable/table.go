package wavetable

import "github.com/chewxy/math32"

const twoPi = math32.Pi * 2

// Table is a single-cycle waveform. Tables are shared between oscillators and
// never mutated after construction; a timbre change builds a new Table.
type Table []float32

// Overtone describes one partial of a table.
type Overtone struct {
	// Ratio is the partial frequency relative to the fundamental.
	Ratio float64
	// Volume is the partial level relative to full scale (1.0).
	Volume float64
}

// Shape selects the per-sample kernel used when building a table.
type Shape int

const (
	ShapeSine Shape = iota
	ShapeTriangle
	ShapeSquare
	ShapeSaw
)

func (s Shape) String() string {
	switch s {
	case ShapeSine:
		return "Sin"
	case ShapeTriangle:
		return "Tri"
	case ShapeSquare:
		return "Sqr"
	case ShapeSaw:
		return "Saw"
	default:
		return "Unknown"
	}
}

// ShapeFromIndex maps a GUI index onto a shape. Out-of-range values fall back to saw.
func ShapeFromIndex(i int) Shape {
	if i < int(ShapeSine) || i > int(ShapeSaw) {
		return ShapeSaw
	}
	return Shape(i)
}

// Harmonics returns n partials at integer ratios 1..n, all at full volume.
func Harmonics(n int) []Overtone {
	out := make([]Overtone, n)
	for i := range out {
		out[i] = Overtone{Ratio: float64(i + 1), Volume: 1}
	}
	return out
}

// Build constructs a table of the given size for shape from overtones.
func Build(shape Shape, size int, overtones []Overtone) Table {
	switch shape {
	case ShapeTriangle:
		return BuildTriangle(size, overtones)
	case ShapeSquare:
		return BuildSquare(size, overtones)
	case ShapeSaw:
		return BuildSaw(size, overtones)
	default:
		return BuildSine(size, overtones)
	}
}

// BuildSine sums sin(2*pi*i*ratio/N)*volume for every partial and normalises
// by the number of audible partials. A table with no audible partial is silent.
func BuildSine(size int, overtones []Overtone) Table {
	audible := 0
	for _, ot := range overtones {
		if ot.Volume > 0 {
			audible++
		}
	}
	t := make(Table, size)
	if audible == 0 {
		return t
	}
	bias := 1 / float32(audible)
	n := float32(size)
	for i := range t {
		var v float32
		for _, ot := range overtones {
			v += math32.Sin(twoPi*float32(i)*float32(ot.Ratio)/n) * float32(ot.Volume)
		}
		t[i] = v * bias
	}
	return t
}

// BuildTriangle uses the |i mod ratio - 1| kernel.
func BuildTriangle(size int, overtones []Overtone) Table {
	t := make(Table, size)
	if len(overtones) == 0 {
		return t
	}
	bias := 1 / float32(len(overtones))
	for i := range t {
		var v float32
		for _, ot := range overtones {
			r := float32(ot.Ratio)
			v += math32.Abs(math32.Mod(float32(i), r)-1) * float32(ot.Volume)
		}
		t[i] = v * bias
	}
	return t
}

// BuildSquare adds a partial's volume whenever i mod ratio < 1.
func BuildSquare(size int, overtones []Overtone) Table {
	t := make(Table, size)
	if len(overtones) == 0 {
		return t
	}
	bias := 1 / float32(len(overtones))
	for i := range t {
		var v float32
		for _, ot := range overtones {
			if math32.Mod(float32(i), float32(ot.Ratio)) < 1 {
				v += float32(ot.Volume)
			}
		}
		t[i] = v * bias
	}
	return t
}

// BuildSaw uses a sawtooth kernel with a 2-unit period.
func BuildSaw(size int, overtones []Overtone) Table {
	t := make(Table, size)
	if len(overtones) == 0 {
		return t
	}
	bias := 1 / float32(len(overtones))
	n := float32(size)
	for i := range t {
		var v float32
		for _, ot := range overtones {
			phase := math32.Mod(float32(i)*(4*float32(ot.Ratio)/n), 2)
			v += (phase - 1) * float32(ot.Volume)
		}
		t[i] = v * bias
	}
	return t
}

// Set holds one table per shape built from the same overtone list.
type Set struct {
	Sine     Table
	Triangle Table
	Square   Table
	Saw      Table
}

// NewSet builds all four shapes.
func NewSet(size int, overtones []Overtone) Set {
	return Set{
		Sine:     BuildSine(size, overtones),
		Triangle: BuildTriangle(size, overtones),
		Square:   BuildSquare(size, overtones),
		Saw:      BuildSaw(size, overtones),
	}
}

// Get returns the table for shape.
func (s Set) Get(shape Shape) Table {
	switch shape {
	case ShapeTriangle:
		return s.Triangle
	case ShapeSquare:
		return s.Square
	case ShapeSaw:
		return s.Saw
	default:
		return s.Sine
	}
}
