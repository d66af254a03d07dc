// ABOUTME: True peak detector with 4x polyphase oversampling
// ABOUTME: Reports inter-sample peaks that the sampled maximum misses
package meter

import (
	"math"

	"github.com/Resonate-Protocol/casino-audio/pkg/audio"
)

const (
	oversample   = 4
	tapsPerPhase = 12
)

// phases holds the windowed-sinc interpolator split into polyphase branches,
// each normalized to unity DC gain
var phases = designPhases()

func designPhases() [oversample][tapsPerPhase]float64 {
	var out [oversample][tapsPerPhase]float64
	n := oversample * tapsPerPhase
	centre := n / 2
	for p := 0; p < oversample; p++ {
		var sum float64
		for k := 0; k < tapsPerPhase; k++ {
			m := p + oversample*k
			x := float64(m-centre) / oversample
			s := 1.0
			if x != 0 {
				s = math.Sin(math.Pi*x) / (math.Pi * x)
			}
			w := 0.5 * (1 - math.Cos(2*math.Pi*float64(m)/float64(n)))
			out[p][k] = s * w
			sum += out[p][k]
		}
		for k := range out[p] {
			out[p][k] /= sum
		}
	}
	return out
}

type peakChannel struct {
	hist       [tapsPerPhase]float64
	head       int
	peak       float64
	samplePeak float64
}

func (c *peakChannel) push(x float32) {
	v := float64(x)
	if a := math.Abs(v); a > c.samplePeak {
		c.samplePeak = a
	}

	c.head--
	if c.head < 0 {
		c.head = tapsPerPhase - 1
	}
	c.hist[c.head] = v

	peak := c.peak
	for p := 1; p < oversample; p++ {
		var y float64
		idx := c.head
		for k := 0; k < tapsPerPhase; k++ {
			y += phases[p][k] * c.hist[idx]
			idx++
			if idx == tapsPerPhase {
				idx = 0
			}
		}
		if a := math.Abs(y); a > peak {
			peak = a
		}
	}
	c.peak = math.Max(peak, c.samplePeak)
}

// TruePeak tracks the maximum oversampled level per channel since the last Reset
type TruePeak struct {
	chans []peakChannel
}

// NewTruePeak creates a detector for the given channel count
func NewTruePeak(channels int) (*TruePeak, error) {
	if channels < 1 {
		return nil, ErrInvalidChannels
	}
	return &TruePeak{chans: make([]peakChannel, channels)}, nil
}

// Channels returns the channel count
func (t *TruePeak) Channels() int { return len(t.chans) }

// Process consumes one channel's block
func (t *TruePeak) Process(ch int, samples []float32) {
	if ch < 0 || ch >= len(t.chans) {
		return
	}
	c := &t.chans[ch]
	for _, x := range samples {
		c.push(x)
	}
}

// ProcessStereo consumes the first two channels
func (t *TruePeak) ProcessStereo(left, right []float32) {
	t.Process(0, left)
	t.Process(1, right)
}

// GetPeakDB returns the true peak of one channel in dBTP
func (t *TruePeak) GetPeakDB(ch int) float64 {
	if ch < 0 || ch >= len(t.chans) {
		return MinDB
	}
	return audio.GainToDB(t.chans[ch].peak)
}

// GetMaxPeakDB returns the highest true peak across channels
func (t *TruePeak) GetMaxPeakDB() float64 {
	var peak float64
	for i := range t.chans {
		peak = math.Max(peak, t.chans[i].peak)
	}
	return audio.GainToDB(peak)
}

// SamplePeakDB returns the highest sampled (not oversampled) peak
func (t *TruePeak) SamplePeakDB() float64 {
	var peak float64
	for i := range t.chans {
		peak = math.Max(peak, t.chans[i].samplePeak)
	}
	return audio.GainToDB(peak)
}

// Reset clears history and peaks
func (t *TruePeak) Reset() {
	clear(t.chans)
}
