package audio

import (
	"math"
	"time"

	"github.com/gopxl/beep"
)

// WaveType selects an oscillator shape
type WaveType int

const (
	WaveSine WaveType = iota
	WaveSquare
	WaveSaw
)

// oscillator produces a fixed-length tone whose pitch slides from freq to
// freq+slide over its duration
type oscillator struct {
	freq     float64
	slide    float64
	phase    float64
	duration int
	position int
	wave     WaveType
	rate     beep.SampleRate
}

// NewTone creates a tone of the given length
func NewTone(freq, slide float64, duration time.Duration, wave WaveType, rate beep.SampleRate) beep.Streamer {
	return &oscillator{
		freq:     freq,
		slide:    slide,
		duration: rate.N(duration),
		wave:     wave,
		rate:     rate,
	}
}

func (o *oscillator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if o.position >= o.duration {
			return i, i > 0
		}

		var val float64
		switch o.wave {
		case WaveSquare:
			if o.phase < 0.5 {
				val = 1
			} else {
				val = -1
			}
		case WaveSaw:
			val = 2 * (o.phase - 0.5)
		default:
			val = math.Sin(2 * math.Pi * o.phase)
		}
		samples[i][0] = val
		samples[i][1] = val

		progress := float64(o.position) / float64(o.duration)
		o.phase += (o.freq + o.slide*progress) / float64(o.rate)
		o.phase -= math.Floor(o.phase)
		o.position++
	}
	return len(samples), true
}

func (o *oscillator) Err() error { return nil }

// envelope applies a linear attack and an exponential release to a streamer
// of known length
type envelope struct {
	streamer beep.Streamer
	volume   float64
	attack   int
	total    int
	position int
}

// WithEnvelope shapes s, which must be total samples long
func WithEnvelope(s beep.Streamer, volume float64, attack time.Duration, total int, rate beep.SampleRate) beep.Streamer {
	return &envelope{
		streamer: s,
		volume:   volume,
		attack:   max(1, rate.N(attack)),
		total:    max(1, total),
	}
}

func (e *envelope) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = e.streamer.Stream(samples)
	for i := 0; i < n; i++ {
		gain := 1.0
		if e.position < e.attack {
			gain = float64(e.position) / float64(e.attack)
		} else {
			gain = math.Exp(-4 * float64(e.position-e.attack) / float64(e.total))
		}
		samples[i][0] *= gain * e.volume
		samples[i][1] *= gain * e.volume
		e.position++
	}
	return n, ok
}

func (e *envelope) Err() error { return e.streamer.Err() }

func shape(freq, slide float64, d time.Duration, wave WaveType, volume float64) beep.Streamer {
	return WithEnvelope(NewTone(freq, slide, d, wave, sampleRate), volume, 5*time.Millisecond, sampleRate.N(d), sampleRate)
}

// ShootEffect is a short falling square blip
func ShootEffect() beep.Streamer {
	return shape(880, -440, 90*time.Millisecond, WaveSquare, 0.15)
}

// HitEffect is a rising two-note chime
func HitEffect() beep.Streamer {
	return beep.Seq(
		shape(660, 0, 80*time.Millisecond, WaveSine, 0.3),
		shape(990, 0, 140*time.Millisecond, WaveSine, 0.3),
	)
}

// WrongEffect is a low saw buzz
func WrongEffect() beep.Streamer {
	return shape(140, -40, 220*time.Millisecond, WaveSaw, 0.2)
}

// GameOverEffect is a slow falling tone
func GameOverEffect() beep.Streamer {
	return shape(440, -330, 700*time.Millisecond, WaveSine, 0.3)
}
