package sim

import (
	"encoding/binary"
	"math"
	"time"
)

// ToneSource emits 16-bit little-endian PCM alternating between a sine
// tone burst and silence, paced to real time so voice detection sees
// plausible sustained activity.
type ToneSource struct {
	sampleRate int
	amplitude  float64
	burst      time.Duration
	gap        time.Duration

	phase   float64
	elapsed time.Duration
}

// NewToneSource builds a tone source.
//
// Parameters:
//   - sampleRate: samples per second, e.g. 16000
//   - amplitude: normalised tone amplitude in [0, 1]
//   - burst: how long each tone burst lasts
//   - gap: silence between bursts
func NewToneSource(sampleRate int, amplitude float64, burst, gap time.Duration) *ToneSource {
	return &ToneSource{
		sampleRate: sampleRate,
		amplitude:  amplitude,
		burst:      burst,
		gap:        gap,
	}
}

const toneHz = 440.0

// Read fills buf with the next stretch of PCM, sleeping for the real
// duration of the audio produced. It never returns an error; the source
// runs for the life of the process.
func (s *ToneSource) Read(buf []byte) (int, error) {
	samples := len(buf) / 2
	if samples == 0 {
		return 0, nil
	}

	cycle := s.burst + s.gap
	step := 2 * math.Pi * toneHz / float64(s.sampleRate)
	samplePeriod := time.Second / time.Duration(s.sampleRate)

	for i := 0; i < samples; i++ {
		var v int16
		if s.elapsed%cycle < s.burst {
			v = int16(s.amplitude * math.Sin(s.phase) * math.MaxInt16)
			s.phase += step
		}
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(v))
		s.elapsed += samplePeriod
	}

	time.Sleep(time.Duration(samples) * samplePeriod)
	return samples * 2, nil
}
