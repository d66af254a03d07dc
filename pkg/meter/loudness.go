// ABOUTME: ITU-R BS.1770-4 loudness meter
// ABOUTME: K-weighting, 100ms sub-blocks, momentary, short-term and gated integrated LUFS
package meter

import (
	"math"

	"github.com/Resonate-Protocol/casino-audio/pkg/dsp"
)

const (
	subBlockSeconds   = 0.1
	momentaryBlocks   = 4  // 400 ms
	shortTermBlocks   = 30 // 3 s
	absoluteGateLUFS  = -70.0
	relativeGateLU    = -10.0
	loudnessOffset    = -0.691
	histogramMinLUFS  = absoluteGateLUFS
	histogramStepLU   = 0.1
	histogramBins     = 1000 // -70 to +30 LUFS
	shelfBandExponent = 0.4996667741545416
)

// KWeighting returns the two K-weighting stages for a sample rate: the
// pre-filter high shelf followed by the RLB high-pass. At 48 kHz these
// reproduce the coefficients tabled in BS.1770.
func KWeighting(sampleRate float64) (shelf, highpass dsp.Coefficients) {
	// Stage 1: head-related high shelf
	f0 := 1681.974450955533
	g := 3.999843853973347
	q := 0.7071752369554196

	k := math.Tan(math.Pi * f0 / sampleRate)
	vh := math.Pow(10, g/20)
	vb := math.Pow(vh, shelfBandExponent)
	a0 := 1 + k/q + k*k
	shelf = dsp.Coefficients{
		B0: (vh + vb*k/q + k*k) / a0,
		B1: 2 * (k*k - vh) / a0,
		B2: (vh - vb*k/q + k*k) / a0,
		A0: 1,
		A1: 2 * (k*k - 1) / a0,
		A2: (1 - k/q + k*k) / a0,
	}

	// Stage 2: revised low-frequency B-curve high-pass
	f0 = 38.13547087602444
	q = 0.5003270373238773
	k = math.Tan(math.Pi * f0 / sampleRate)
	a0 = 1 + k/q + k*k
	highpass = dsp.Coefficients{
		B0: 1, B1: -2, B2: 1,
		A0: 1,
		A1: 2 * (k*k - 1) / a0,
		A2: (1 - k/q + k*k) / a0,
	}
	return shelf, highpass
}

type kFilter struct {
	shelf    *dsp.Biquad
	highpass *dsp.Biquad
}

// Loudness measures program loudness of a multichannel stream.
// All channels carry unity weight.
type Loudness struct {
	sampleRate float64
	filters    []kFilter

	subSize int
	subPos  int
	subSum  float64

	// ring of the most recent sub-block mean squares
	ring     [shortTermBlocks]float64
	ringHead int
	subCount int

	// gated 400 ms blocks, binned by loudness with exact power sums
	histPower [histogramBins]float64
	histCount [histogramBins]int
}

// NewLoudness creates a meter for the given rate and channel count
func NewLoudness(sampleRate float64, channels int) (*Loudness, error) {
	if sampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}
	if channels < 1 {
		return nil, ErrInvalidChannels
	}

	shelf, hp := KWeighting(sampleRate)
	l := &Loudness{
		sampleRate: sampleRate,
		filters:    make([]kFilter, channels),
		subSize:    max(1, int(math.Round(subBlockSeconds*sampleRate))),
	}
	for i := range l.filters {
		l.filters[i] = kFilter{shelf: dsp.NewBiquad(shelf), highpass: dsp.NewBiquad(hp)}
	}
	return l, nil
}

// Channels returns the channel count
func (l *Loudness) Channels() int { return len(l.filters) }

// Process consumes one block given as per-channel slices of equal length.
// Extra slices are ignored; missing channels count as silence.
func (l *Loudness) Process(block [][]float32) {
	if len(block) == 0 {
		return
	}
	n := len(block[0])
	chans := min(len(block), len(l.filters))
	for i := 0; i < n; i++ {
		var sum float64
		for ch := 0; ch < chans; ch++ {
			f := l.filters[ch]
			y := f.highpass.Process(f.shelf.Process(block[ch][i]))
			sum += float64(y) * float64(y)
		}
		l.accumulate(sum)
	}
}

// ProcessStereo consumes a two-channel block
func (l *Loudness) ProcessStereo(left, right []float32) {
	n := min(len(left), len(right))
	if len(l.filters) < 2 {
		l.processMono(left[:n])
		return
	}
	fl, fr := l.filters[0], l.filters[1]
	for i := 0; i < n; i++ {
		yl := fl.highpass.Process(fl.shelf.Process(left[i]))
		yr := fr.highpass.Process(fr.shelf.Process(right[i]))
		l.accumulate(float64(yl)*float64(yl) + float64(yr)*float64(yr))
	}
}

func (l *Loudness) processMono(mono []float32) {
	f := l.filters[0]
	for _, x := range mono {
		y := f.highpass.Process(f.shelf.Process(x))
		l.accumulate(float64(y) * float64(y))
	}
}

func (l *Loudness) accumulate(sumSquares float64) {
	l.subSum += sumSquares
	l.subPos++
	if l.subPos < l.subSize {
		return
	}

	l.ring[l.ringHead] = l.subSum / float64(l.subSize)
	l.ringHead = (l.ringHead + 1) % len(l.ring)
	l.subCount++
	l.subPos = 0
	l.subSum = 0

	// Every sub-block closes a 400 ms gating block with 75% overlap
	if l.subCount >= momentaryBlocks {
		l.addGatingBlock(l.windowPower(momentaryBlocks))
	}
}

// addGatingBlock records one 400 ms block that passes the absolute gate
func (l *Loudness) addGatingBlock(power float64) {
	lufs := powerToLUFS(power)
	if lufs <= absoluteGateLUFS {
		return
	}
	bin := histogramBin(lufs)
	l.histPower[bin] += power
	l.histCount[bin]++
}

// windowPower averages the last n sub-blocks
func (l *Loudness) windowPower(n int) float64 {
	var sum float64
	idx := l.ringHead
	for i := 0; i < n; i++ {
		idx--
		if idx < 0 {
			idx = len(l.ring) - 1
		}
		sum += l.ring[idx]
	}
	return sum / float64(n)
}

func histogramBin(lufs float64) int {
	bin := int((lufs - histogramMinLUFS) / histogramStepLU)
	if bin < 0 {
		return 0
	}
	if bin >= histogramBins {
		return histogramBins - 1
	}
	return bin
}

func powerToLUFS(power float64) float64 {
	if power <= 0 {
		return MinDB
	}
	return loudnessOffset + 10*math.Log10(power)
}

// Momentary returns loudness over the last 400 ms, or MinDB before 400 ms of input
func (l *Loudness) Momentary() float64 {
	if l.subCount < momentaryBlocks {
		return MinDB
	}
	return powerToLUFS(l.windowPower(momentaryBlocks))
}

// ShortTerm returns loudness over the last 3 s, or MinDB before 3 s of input
func (l *Loudness) ShortTerm() float64 {
	if l.subCount < shortTermBlocks {
		return MinDB
	}
	return powerToLUFS(l.windowPower(shortTermBlocks))
}

// Integrated returns gated program loudness since the last Reset
func (l *Loudness) Integrated() float64 {
	var power float64
	var count int
	for i := range l.histPower {
		power += l.histPower[i]
		count += l.histCount[i]
	}
	if count == 0 {
		return MinDB
	}

	gate := powerToLUFS(power/float64(count)) + relativeGateLU
	power, count = 0, 0
	for i := histogramBin(gate); i < histogramBins; i++ {
		if l.histCount[i] == 0 {
			continue
		}
		// the bin holding the gate straddles it; judge it by its mean
		if powerToLUFS(l.histPower[i]/float64(l.histCount[i])) < gate {
			continue
		}
		power += l.histPower[i]
		count += l.histCount[i]
	}
	if count == 0 {
		return MinDB
	}
	return powerToLUFS(power / float64(count))
}

// Reset clears filter state and all measurements
func (l *Loudness) Reset() {
	for _, f := range l.filters {
		f.shelf.Reset()
		f.highpass.Reset()
	}
	l.subPos = 0
	l.subSum = 0
	l.ring = [shortTermBlocks]float64{}
	l.ringHead = 0
	l.subCount = 0
	l.histPower = [histogramBins]float64{}
	l.histCount = [histogramBins]int{}
}
