// ABOUTME: Signal generators for test tones, UI blips and modulation
// ABOUTME: Basic, wavetable, FM, additive and seeded noise sources
package dsp

import (
	"maze.io/x/math32"
)

// Generator produces one sample per call
type Generator interface {
	Next() float32
}

// Fill writes len(buf) generated samples
func Fill(g Generator, buf []float32) {
	for i := range buf {
		buf[i] = g.Next()
	}
}

// Waveform selects the basic oscillator shape
type Waveform int

const (
	Sine Waveform = iota
	Square
	Saw
	Triangle
)

// phasor is a normalized [0, 1) phase accumulator
type phasor struct {
	phase float32
	inc   float32
}

func (p *phasor) set(freq, sampleRate float32) {
	p.inc = freq / sampleRate
}

func (p *phasor) advance() {
	p.phase += p.inc
	if p.phase >= 1 {
		p.phase -= math32.Floor(p.phase)
	} else if p.phase < 0 {
		p.phase -= math32.Floor(p.phase)
	}
}

// Oscillator is a naive (non band-limited) basic waveform
type Oscillator struct {
	phasor
	Waveform   Waveform
	Amplitude  float32
	sampleRate float32
}

// NewOscillator creates an oscillator at freq Hz with unit amplitude
func NewOscillator(w Waveform, freq, sampleRate float32) *Oscillator {
	o := &Oscillator{Waveform: w, Amplitude: 1, sampleRate: sampleRate}
	o.set(freq, sampleRate)
	return o
}

// SetFrequency changes the pitch without resetting phase
func (o *Oscillator) SetFrequency(freq float32) {
	o.set(freq, o.sampleRate)
}

// Next returns the next sample
func (o *Oscillator) Next() float32 {
	p := o.phase
	var v float32
	switch o.Waveform {
	case Square:
		if p < 0.5 {
			v = 1
		} else {
			v = -1
		}
	case Saw:
		v = 2*p - 1
	case Triangle:
		v = 4*abs32(p-0.5) - 1
	default:
		v = math32.Sin(2 * math32.Pi * p)
	}
	o.advance()
	return v * o.Amplitude
}

// Fill writes generated samples into buf
func (o *Oscillator) Fill(buf []float32) { Fill(o, buf) }

// Reset returns the phase to 0
func (o *Oscillator) Reset() { o.phase = 0 }

// Wavetable plays a single-cycle table with linear interpolation
type Wavetable struct {
	phasor
	table      []float32
	sampleRate float32
}

// NewWavetable creates a wavetable oscillator over table (copied)
func NewWavetable(table []float32, freq, sampleRate float32) *Wavetable {
	t := make([]float32, len(table))
	copy(t, table)
	w := &Wavetable{table: t, sampleRate: sampleRate}
	w.set(freq, sampleRate)
	return w
}

// NewSineTable builds a single sine cycle of size samples
func NewSineTable(size int) []float32 {
	t := make([]float32, size)
	for i := range t {
		t[i] = math32.Sin(2 * math32.Pi * float32(i) / float32(size))
	}
	return t
}

// SetFrequency changes the playback pitch
func (w *Wavetable) SetFrequency(freq float32) { w.set(freq, w.sampleRate) }

// Next returns the next interpolated sample
func (w *Wavetable) Next() float32 {
	n := len(w.table)
	if n == 0 {
		return 0
	}
	pos := w.phase * float32(n)
	i := int(pos)
	if i >= n {
		i = n - 1
	}
	frac := pos - float32(i)
	a := w.table[i]
	b := w.table[(i+1)%n]
	w.advance()
	return a + (b-a)*frac
}

// Fill writes generated samples into buf
func (w *Wavetable) Fill(buf []float32) { Fill(w, buf) }

// FM is a two-operator phase-modulation voice
type FM struct {
	carrier    phasor
	modulator  phasor
	Index      float32
	sampleRate float32
}

// NewFM creates an FM voice; the modulator runs at carrier*ratio
func NewFM(carrierFreq, ratio, index, sampleRate float32) *FM {
	f := &FM{Index: index, sampleRate: sampleRate}
	f.SetFrequency(carrierFreq, ratio)
	return f
}

// SetFrequency sets carrier pitch and modulator ratio
func (f *FM) SetFrequency(carrierFreq, ratio float32) {
	f.carrier.set(carrierFreq, f.sampleRate)
	f.modulator.set(carrierFreq*ratio, f.sampleRate)
}

// Next returns the next sample
func (f *FM) Next() float32 {
	mod := math32.Sin(2 * math32.Pi * f.modulator.phase)
	v := math32.Sin(2*math32.Pi*f.carrier.phase + f.Index*mod)
	f.carrier.advance()
	f.modulator.advance()
	return v
}

// Fill writes generated samples into buf
func (f *FM) Fill(buf []float32) { Fill(f, buf) }

// MaxPartials bounds the additive oscillator
const MaxPartials = 32

// Additive sums harmonic sine partials, skipping those above Nyquist
type Additive struct {
	phasor
	amps       [MaxPartials]float32
	count      int
	norm       float32
	freq       float32
	sampleRate float32
}

// NewAdditive creates an additive voice; partials[k] is the amplitude of
// harmonic k+1. Output is normalized so the partial sum peaks at 1.
func NewAdditive(freq, sampleRate float32, partials []float32) *Additive {
	a := &Additive{sampleRate: sampleRate}
	a.count = copy(a.amps[:], partials)
	var sum float32
	for i := 0; i < a.count; i++ {
		sum += abs32(a.amps[i])
	}
	a.norm = 1
	if sum > 0 {
		a.norm = 1 / sum
	}
	a.SetFrequency(freq)
	return a
}

// SetFrequency changes the fundamental
func (a *Additive) SetFrequency(freq float32) {
	a.freq = freq
	a.set(freq, a.sampleRate)
}

// Next returns the next sample
func (a *Additive) Next() float32 {
	var v float32
	nyquist := a.sampleRate / 2
	for k := 0; k < a.count; k++ {
		h := float32(k + 1)
		if h*a.freq >= nyquist {
			break
		}
		p := a.phase * h
		p -= math32.Floor(p)
		v += a.amps[k] * math32.Sin(2*math32.Pi*p)
	}
	a.advance()
	return v * a.norm
}

// Fill writes generated samples into buf
func (a *Additive) Fill(buf []float32) { Fill(a, buf) }

// NoiseColor selects the noise spectrum
type NoiseColor int

const (
	White NoiseColor = iota
	Pink
)

// Noise is a seeded xorshift noise source; equal seeds give equal output
type Noise struct {
	Color NoiseColor
	state uint32
	// Paul Kellet pink filter state
	b0, b1, b2, b3, b4, b5, b6 float32
}

// NewNoise creates a noise source. A zero seed is replaced by a fixed one.
func NewNoise(color NoiseColor, seed uint32) *Noise {
	if seed == 0 {
		seed = 0x9E3779B9
	}
	return &Noise{Color: color, state: seed}
}

// Uniform returns a white sample in [-1, 1)
func (n *Noise) Uniform() float32 {
	x := n.state
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	n.state = x
	return float32(x>>8)/float32(1<<23) - 1
}

// Next returns the next sample
func (n *Noise) Next() float32 {
	w := n.Uniform()
	if n.Color != Pink {
		return w
	}
	n.b0 = 0.99886*n.b0 + w*0.0555179
	n.b1 = 0.99332*n.b1 + w*0.0750759
	n.b2 = 0.96900*n.b2 + w*0.1538520
	n.b3 = 0.86650*n.b3 + w*0.3104856
	n.b4 = 0.55000*n.b4 + w*0.5329522
	n.b5 = -0.7616*n.b5 - w*0.0168980
	out := n.b0 + n.b1 + n.b2 + n.b3 + n.b4 + n.b5 + n.b6 + w*0.5362
	n.b6 = w * 0.115926
	return out * 0.11
}

// Fill writes generated samples into buf
func (n *Noise) Fill(buf []float32) { Fill(n, buf) }

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
