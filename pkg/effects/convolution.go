// ABOUTME: Uniformly partitioned FFT convolution reverb
// ABOUTME: Synthesizes a deterministic impulse response or accepts a measured one
package effects

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/Resonate-Protocol/casino-audio/pkg/dsp"
)

const (
	// ConvolutionBlock is the partition size and therefore the latency
	ConvolutionBlock = 256
	// maxIRSeconds bounds synthesized and loaded responses
	maxIRSeconds = 3.0

	irSeedLeft  = 0x2545F491
	irSeedRight = 0x7F4A7C15
)

// ErrEmptyImpulse is returned by LoadImpulse for a zero-length response
var ErrEmptyImpulse = errors.New("empty impulse response")

// partitioned holds the frequency-domain state of one channel
type partitioned struct {
	parts [][]complex128 // H_p, one spectrum per partition
	fdl   [][]complex128 // delay line of input spectra
	head  int

	frame []float64 // [previous block | current block]
	out   []float32 // last computed output block
}

// ConvolutionReverb convolves each channel with its own impulse response
type ConvolutionReverb struct {
	sampleRate float64
	roomSize   float64
	damping    float64

	plan   *algofft.Plan[complex128]
	fftIn  []complex128
	fftOut []complex128
	accum  []complex128
	chans  [2]partitioned
	pos    int
	wet    float32
	dry    float32
}

// NewConvolutionReverb builds a reverb with a synthesized response
func NewConvolutionReverb(sampleRate, roomSize, damping float64) (*ConvolutionReverb, error) {
	n := 2 * ConvolutionBlock
	plan, err := algofft.NewPlan64(n)
	if err != nil {
		return nil, fmt.Errorf("convolution fft plan: %w", err)
	}

	c := &ConvolutionReverb{
		sampleRate: sampleRate,
		plan:       plan,
		fftIn:      make([]complex128, n),
		fftOut:     make([]complex128, n),
		accum:      make([]complex128, n/2+1),
		wet:        0.3,
		dry:        1,
	}
	for ch := range c.chans {
		c.chans[ch].frame = make([]float64, n)
		c.chans[ch].out = make([]float32, ConvolutionBlock)
	}

	if err := c.LoadIR(roomSize, damping); err != nil {
		return nil, err
	}
	return c, nil
}

// SynthesizeIR builds a decaying noise response from room size and damping.
// The result depends only on its arguments.
func SynthesizeIR(sampleRate, roomSize, damping float64, seed uint32) []float32 {
	roomSize = clamp01(roomSize)
	damping = clamp01(damping)

	rt60 := 0.2 + 2.8*roomSize
	length := int(math.Min(rt60, maxIRSeconds) * sampleRate)
	ir := make([]float32, max(length, 1))

	noise := dsp.NewNoise(dsp.White, seed)
	var lp, energy float64
	for i := range ir {
		t := float64(i) / sampleRate
		// -60 dB at rt60
		env := math.Exp(-6.907755 * t / rt60)
		// Low-pass closes over the tail as high frequencies die first
		coef := damping * 0.95 * float64(i) / float64(len(ir))
		lp = (1-coef)*float64(noise.Next()) + coef*lp
		v := lp * env
		ir[i] = float32(v)
		energy += v * v
	}

	if energy > 0 {
		norm := float32(1 / math.Sqrt(energy))
		for i := range ir {
			ir[i] *= norm
		}
	}
	return ir
}

// LoadIR regenerates both channel responses from room size and damping
func (c *ConvolutionReverb) LoadIR(roomSize, damping float64) error {
	c.roomSize = clamp01(roomSize)
	c.damping = clamp01(damping)
	left := SynthesizeIR(c.sampleRate, c.roomSize, c.damping, irSeedLeft)
	right := SynthesizeIR(c.sampleRate, c.roomSize, c.damping, irSeedRight)
	return c.LoadImpulse(left, right)
}

// LoadImpulse installs measured responses. A nil right reuses left.
// Responses longer than three seconds are truncated.
func (c *ConvolutionReverb) LoadImpulse(left, right []float32) error {
	if len(left) == 0 {
		return ErrEmptyImpulse
	}
	if right == nil {
		right = left
	}
	if len(right) == 0 {
		return ErrEmptyImpulse
	}

	limit := int(maxIRSeconds * c.sampleRate)
	for ch, ir := range [][]float32{left, right} {
		if len(ir) > limit {
			ir = ir[:limit]
		}
		if err := c.partition(&c.chans[ch], ir); err != nil {
			return err
		}
	}
	c.pos = 0
	return nil
}

func (c *ConvolutionReverb) partition(p *partitioned, ir []float32) error {
	b := ConvolutionBlock
	n := 2 * b
	count := (len(ir) + b - 1) / b

	p.parts = make([][]complex128, count)
	p.fdl = make([][]complex128, count)
	p.head = 0
	clear(p.frame)
	clear(p.out)

	for k := 0; k < count; k++ {
		clear(c.fftIn)
		seg := ir[k*b : min((k+1)*b, len(ir))]
		for i, v := range seg {
			c.fftIn[i] = complex(float64(v), 0)
		}
		if err := c.plan.Forward(c.fftOut, c.fftIn); err != nil {
			return fmt.Errorf("convolution partition fft: %w", err)
		}
		p.parts[k] = make([]complex128, n/2+1)
		copy(p.parts[k], c.fftOut[:n/2+1])
		p.fdl[k] = make([]complex128, n/2+1)
	}
	return nil
}

// Partitions returns the number of partitions per channel
func (c *ConvolutionReverb) Partitions() int {
	return len(c.chans[0].parts)
}

// SetWet sets the reverb level
func (c *ConvolutionReverb) SetWet(v float64) { c.wet = float32(clamp01(v)) }

// SetDry sets the direct level
func (c *ConvolutionReverb) SetDry(v float64) { c.dry = float32(clamp01(v)) }

// Latency returns the delay of the wet path in samples
func (c *ConvolutionReverb) Latency() int { return ConvolutionBlock }

// Process convolves two channel blocks in place. Blocks may be any length.
func (c *ConvolutionReverb) Process(left, right []float32) {
	b := ConvolutionBlock
	n := min(len(left), len(right))
	l, r := &c.chans[0], &c.chans[1]

	for i := 0; i < n; i++ {
		xl, xr := left[i], right[i]
		l.frame[b+c.pos] = float64(xl)
		r.frame[b+c.pos] = float64(xr)

		left[i] = c.dry*xl + c.wet*l.out[c.pos]
		right[i] = c.dry*xr + c.wet*r.out[c.pos]

		c.pos++
		if c.pos == b {
			c.runBlock(l)
			c.runBlock(r)
			c.pos = 0
		}
	}
}

// runBlock performs one overlap-save step for a channel
func (c *ConvolutionReverb) runBlock(p *partitioned) {
	b := ConvolutionBlock
	n := 2 * b
	half := n/2 + 1

	for i, v := range p.frame {
		c.fftIn[i] = complex(v, 0)
	}
	if err := c.plan.Forward(c.fftOut, c.fftIn); err != nil {
		return
	}

	count := len(p.parts)
	copy(p.fdl[p.head], c.fftOut[:half])

	clear(c.accum)
	idx := p.head
	for k := 0; k < count; k++ {
		x := p.fdl[idx]
		h := p.parts[k]
		for j := 0; j < half; j++ {
			c.accum[j] += x[j] * h[j]
		}
		idx--
		if idx < 0 {
			idx = count - 1
		}
	}
	p.head++
	if p.head == count {
		p.head = 0
	}

	// Inverse via the conjugate of a forward transform; rebuild the
	// Hermitian half and feed its conjugate
	for j := 0; j < half; j++ {
		c.fftIn[j] = cmplxConj(c.accum[j])
	}
	for j := 1; j < n/2; j++ {
		c.fftIn[n-j] = c.accum[j]
	}
	if err := c.plan.Forward(c.fftOut, c.fftIn); err != nil {
		return
	}

	scale := 1 / float64(n)
	for i := 0; i < b; i++ {
		p.out[i] = float32(real(c.fftOut[b+i]) * scale)
	}

	copy(p.frame[:b], p.frame[b:])
}

func cmplxConj(z complex128) complex128 {
	return complex(real(z), -imag(z))
}

// Clear silences the tail and the pending block
func (c *ConvolutionReverb) Clear() {
	for ch := range c.chans {
		p := &c.chans[ch]
		for _, s := range p.fdl {
			clear(s)
		}
		clear(p.frame)
		clear(p.out)
		p.head = 0
	}
	c.pos = 0
}
