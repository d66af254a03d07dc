// ABOUTME: Doppler pitch ratio tracking and streaming resampler
// ABOUTME: Ratio follows the rate of change of source distance, clamped to a safe range
package effects

import (
	"github.com/Resonate-Protocol/casino-audio/pkg/audio/resample"
	"github.com/Resonate-Protocol/casino-audio/pkg/dsp"
)

const (
	// SpeedOfSound in metres per second
	SpeedOfSound = 343.0

	// DopplerHold is how long Track waits on an unchanged distance before
	// treating the source as stationary
	DopplerHold = 0.25

	minDopplerRatio = 0.5
	maxDopplerRatio = 2.0
)

// Doppler derives a playback-rate ratio from successive distances
type Doppler struct {
	speed    float64
	prevDist float64
	primed   bool
	ratio    float64

	// Track state: seconds rendered since the distance last changed
	elapsed    float64
	smooth     *dsp.Smoother
	sampleRate float64

	// streaming resampler state
	hist [3]float32
	pos  float64
}

// NewDoppler creates a tracker using the speed of sound in air
func NewDoppler() *Doppler {
	return &Doppler{speed: SpeedOfSound, ratio: 1, pos: 1}
}

// Update records a new distance dt seconds after the last one and returns
// the pitch ratio c/(c+v). Approaching sources rise, receding ones fall.
// The first call only primes the tracker and returns 1.
func (d *Doppler) Update(distance, dt float64) float64 {
	if !d.primed || dt <= 0 {
		d.prevDist = distance
		d.primed = true
		if dt <= 0 {
			return d.ratio
		}
		d.ratio = 1
		return 1
	}

	d.ratio = d.ratioFor((distance - d.prevDist) / dt)
	d.prevDist = distance
	return d.ratio
}

// SetSmoothing glides Track's ratio toward each new measurement with a
// one-pole time constant of timeMs
func (d *Doppler) SetSmoothing(sampleRate, timeMs float64) {
	d.sampleRate = sampleRate
	d.smooth = dsp.NewSmoother(sampleRate, timeMs, float32(d.ratio))
}

// Track is called once per rendered block of dt seconds with the current
// distance. Positions usually change less often than blocks render, so the
// velocity is measured over the time since the distance last changed rather
// than over one block. A distance held for DopplerHold reads as stationary.
// The first call primes the tracker.
func (d *Doppler) Track(distance, dt float64) float64 {
	if !d.primed {
		d.prevDist = distance
		d.primed = true
		d.elapsed = 0
	} else if distance != d.prevDist || d.elapsed >= DopplerHold {
		if d.elapsed > 0 {
			d.setTarget(d.ratioFor((distance - d.prevDist) / d.elapsed))
		}
		d.prevDist = distance
		d.elapsed = 0
	}
	d.elapsed += dt

	if d.smooth != nil {
		d.ratio = float64(d.smooth.Advance(int(dt*d.sampleRate + 0.5)))
	}
	return d.ratio
}

func (d *Doppler) setTarget(ratio float64) {
	if d.smooth != nil {
		d.smooth.SetTarget(float32(ratio))
		return
	}
	d.ratio = ratio
}

// ratioFor maps a radial velocity (positive receding) to c/(c+v), clamped
func (d *Doppler) ratioFor(v float64) float64 {
	denom := d.speed + v
	ratio := maxDopplerRatio
	if denom > 0 {
		ratio = d.speed / denom
	}
	if ratio < minDopplerRatio {
		ratio = minDopplerRatio
	} else if ratio > maxDopplerRatio {
		ratio = maxDopplerRatio
	}
	return ratio
}

// Ratio returns the last computed ratio
func (d *Doppler) Ratio() float64 { return d.ratio }

// Reset forgets the distance history
func (d *Doppler) Reset() {
	d.primed = false
	d.ratio = 1
	d.elapsed = 0
	if d.smooth != nil {
		d.smooth.Reset(1)
	}
	d.hist = [3]float32{}
	d.pos = 1
}

// at reads the virtual stream hist ++ src
func (d *Doppler) at(src []float32, k int) float32 {
	if k < len(d.hist) {
		return d.hist[k]
	}
	return src[k-len(d.hist)]
}

// Process consumes all of src and writes the pitch-shifted stream to dst,
// returning the number of samples produced. dst needs room for
// len(src)/Ratio()+1 samples; output beyond len(dst) is dropped.
// The stream lags its input by two samples.
func (d *Doppler) Process(src, dst []float32) int {
	total := len(d.hist) + len(src)
	produced := 0

	for {
		i := int(d.pos)
		if i+2 >= total {
			break
		}
		frac := float32(d.pos - float64(i))
		if produced < len(dst) {
			dst[produced] = resample.Cubic(d.at(src, i-1), d.at(src, i), d.at(src, i+1), d.at(src, i+2), frac)
			produced++
		}
		d.pos += d.ratio
	}

	// Slide history so the next call continues seamlessly
	d.pos -= float64(len(src))
	var next [3]float32
	for j := range next {
		next[j] = d.at(src, total-len(next)+j)
	}
	d.hist = next
	return produced
}
