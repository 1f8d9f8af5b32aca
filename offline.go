package stepper

import (
	"encoding/binary"
	"math"

	"github.com/go-audio/audio"
)

// Render pulls seconds of mono output through the same path the audio device
// uses, applying any queued control events first.
func (p *Player) Render(seconds float64) *audio.Float32Buffer {
	frames := int(float64(p.sampleRate) * seconds)
	if frames < 0 {
		frames = 0
	}
	buf := &audio.Float32Buffer{
		Data:   make([]float32, frames),
		Format: &audio.Format{NumChannels: 1, SampleRate: p.sampleRate},
	}
	p.Process(buf.Data)
	return buf
}

// EncodeWAV writes buf as an IEEE float WAV file.
func EncodeWAV(buf *audio.Float32Buffer) []byte {
	channels, sampleRate := 1, DefaultSampleRate
	if buf.Format != nil {
		channels, sampleRate = buf.Format.NumChannels, buf.Format.SampleRate
	}
	return EncodeWAVFloat32LE(buf.Data, sampleRate, channels)
}

// EncodeWAVFloat32LE writes interleaved samples as a 32-bit float WAV file.
func EncodeWAVFloat32LE(samples []float32, sampleRate int, channels int) []byte {
	const (
		headerSize  = 44
		formatFloat = 3
	)
	dataSize := len(samples) * 4
	out := make([]byte, headerSize+dataSize)
	le := binary.LittleEndian

	copy(out[0:], "RIFF")
	le.PutUint32(out[4:], uint32(headerSize-8+dataSize))
	copy(out[8:], "WAVEfmt ")
	le.PutUint32(out[16:], 16)
	le.PutUint16(out[20:], formatFloat)
	le.PutUint16(out[22:], uint16(channels))
	le.PutUint32(out[24:], uint32(sampleRate))
	le.PutUint32(out[28:], uint32(sampleRate*channels*4))
	le.PutUint16(out[32:], uint16(channels*4))
	le.PutUint16(out[34:], 32)
	copy(out[36:], "data")
	le.PutUint32(out[40:], uint32(dataSize))

	for i, s := range samples {
		le.PutUint32(out[headerSize+i*4:], math.Float32bits(s))
	}
	return out
}
