// ABOUTME: Second-order IIR filter in Transposed Direct Form II
// ABOUTME: Audio-EQ-Cookbook designs plus analytic magnitude response
package dsp

import (
	"math"
	"math/cmplx"
)

// FilterType selects a cookbook filter design
type FilterType int

const (
	LowPass FilterType = iota
	HighPass
	LowShelf
	HighShelf
	Peaking
	Notch
	AllPass
)

func (t FilterType) String() string {
	switch t {
	case LowPass:
		return "lowpass"
	case HighPass:
		return "highpass"
	case LowShelf:
		return "lowshelf"
	case HighShelf:
		return "highshelf"
	case Peaking:
		return "peaking"
	case Notch:
		return "notch"
	case AllPass:
		return "allpass"
	default:
		return "unknown"
	}
}

// Coefficients are the raw, unnormalized transfer function terms
type Coefficients struct {
	B0, B1, B2 float64
	A0, A1, A2 float64
}

// Design computes cookbook coefficients. Frequency is clamped inside
// (0, Nyquist) and Q to a small positive minimum.
func Design(t FilterType, sampleRate, freq, q, gainDB float64) Coefficients {
	nyquist := sampleRate / 2
	if freq < 1e-3 {
		freq = 1e-3
	} else if freq > nyquist*0.9999 {
		freq = nyquist * 0.9999
	}
	if q < 1e-4 {
		q = 1e-4
	}

	w0 := 2 * math.Pi * freq / sampleRate
	cosw := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)
	a := math.Pow(10, gainDB/40)

	switch t {
	case LowPass:
		return Coefficients{
			B0: (1 - cosw) / 2, B1: 1 - cosw, B2: (1 - cosw) / 2,
			A0: 1 + alpha, A1: -2 * cosw, A2: 1 - alpha,
		}
	case HighPass:
		return Coefficients{
			B0: (1 + cosw) / 2, B1: -(1 + cosw), B2: (1 + cosw) / 2,
			A0: 1 + alpha, A1: -2 * cosw, A2: 1 - alpha,
		}
	case Peaking:
		return Coefficients{
			B0: 1 + alpha*a, B1: -2 * cosw, B2: 1 - alpha*a,
			A0: 1 + alpha/a, A1: -2 * cosw, A2: 1 - alpha/a,
		}
	case Notch:
		return Coefficients{
			B0: 1, B1: -2 * cosw, B2: 1,
			A0: 1 + alpha, A1: -2 * cosw, A2: 1 - alpha,
		}
	case AllPass:
		return Coefficients{
			B0: 1 - alpha, B1: -2 * cosw, B2: 1 + alpha,
			A0: 1 + alpha, A1: -2 * cosw, A2: 1 - alpha,
		}
	case LowShelf:
		sq := 2 * math.Sqrt(a) * alpha
		return Coefficients{
			B0: a * ((a + 1) - (a-1)*cosw + sq),
			B1: 2 * a * ((a - 1) - (a+1)*cosw),
			B2: a * ((a + 1) - (a-1)*cosw - sq),
			A0: (a + 1) + (a-1)*cosw + sq,
			A1: -2 * ((a - 1) + (a+1)*cosw),
			A2: (a + 1) + (a-1)*cosw - sq,
		}
	case HighShelf:
		sq := 2 * math.Sqrt(a) * alpha
		return Coefficients{
			B0: a * ((a + 1) + (a-1)*cosw + sq),
			B1: -2 * a * ((a - 1) + (a+1)*cosw),
			B2: a * ((a + 1) + (a-1)*cosw - sq),
			A0: (a + 1) - (a-1)*cosw + sq,
			A1: 2 * ((a - 1) - (a+1)*cosw),
			A2: (a + 1) - (a-1)*cosw - sq,
		}
	default:
		// Identity
		return Coefficients{B0: 1, A0: 1}
	}
}

// MagnitudeAt evaluates |H(e^jw)| of the coefficients at freq
func (c Coefficients) MagnitudeAt(freq, sampleRate float64) float64 {
	w := 2 * math.Pi * freq / sampleRate
	z1 := cmplx.Exp(complex(0, -w))
	z2 := z1 * z1
	num := complex(c.B0, 0) + complex(c.B1, 0)*z1 + complex(c.B2, 0)*z2
	den := complex(c.A0, 0) + complex(c.A1, 0)*z1 + complex(c.A2, 0)*z2
	return cmplx.Abs(num / den)
}

// Biquad is a single filter section. Coefficients are normalized by a0
// and stored as float32 alongside two float32 state registers.
type Biquad struct {
	coeffs Coefficients

	b0, b1, b2 float32
	a1, a2     float32

	z1, z2 float32
}

// NewBiquad creates a filter from raw coefficients
func NewBiquad(c Coefficients) *Biquad {
	b := &Biquad{}
	b.SetCoefficients(c)
	return b
}

// NewLowPass creates a cookbook low-pass filter
func NewLowPass(sampleRate, freq, q float64) *Biquad {
	return NewBiquad(Design(LowPass, sampleRate, freq, q, 0))
}

// NewHighPass creates a cookbook high-pass filter
func NewHighPass(sampleRate, freq, q float64) *Biquad {
	return NewBiquad(Design(HighPass, sampleRate, freq, q, 0))
}

// NewLowShelf creates a cookbook low-shelf filter
func NewLowShelf(sampleRate, freq, q, gainDB float64) *Biquad {
	return NewBiquad(Design(LowShelf, sampleRate, freq, q, gainDB))
}

// NewHighShelf creates a cookbook high-shelf filter
func NewHighShelf(sampleRate, freq, q, gainDB float64) *Biquad {
	return NewBiquad(Design(HighShelf, sampleRate, freq, q, gainDB))
}

// NewPeaking creates a cookbook peaking EQ filter
func NewPeaking(sampleRate, freq, q, gainDB float64) *Biquad {
	return NewBiquad(Design(Peaking, sampleRate, freq, q, gainDB))
}

// NewNotch creates a cookbook notch filter
func NewNotch(sampleRate, freq, q float64) *Biquad {
	return NewBiquad(Design(Notch, sampleRate, freq, q, 0))
}

// NewAllPass creates a cookbook all-pass filter
func NewAllPass(sampleRate, freq, q float64) *Biquad {
	return NewBiquad(Design(AllPass, sampleRate, freq, q, 0))
}

// SetCoefficients replaces the transfer function without touching state
func (b *Biquad) SetCoefficients(c Coefficients) {
	if c.A0 == 0 {
		c = Coefficients{B0: 1, A0: 1}
	}
	b.coeffs = c
	inv := 1 / c.A0
	b.b0 = float32(c.B0 * inv)
	b.b1 = float32(c.B1 * inv)
	b.b2 = float32(c.B2 * inv)
	b.a1 = float32(c.A1 * inv)
	b.a2 = float32(c.A2 * inv)
}

// Coefficients returns the current raw coefficients
func (b *Biquad) Coefficients() Coefficients {
	return b.coeffs
}

// Process runs one sample through the filter
func (b *Biquad) Process(x float32) float32 {
	y := b.b0*x + b.z1
	b.z1 = b.b1*x - b.a1*y + b.z2
	b.z2 = b.b2*x - b.a2*y
	return y
}

// ProcessBuffer filters buf in place
func (b *Biquad) ProcessBuffer(buf []float32) {
	b0, b1, b2, a1, a2 := b.b0, b.b1, b.b2, b.a1, b.a2
	z1, z2 := b.z1, b.z2
	for i, x := range buf {
		y := b0*x + z1
		z1 = b1*x - a1*y + z2
		z2 = b2*x - a2*y
		buf[i] = y
	}
	b.z1, b.z2 = z1, z2
}

// Reset zeroes the state registers
func (b *Biquad) Reset() {
	b.z1, b.z2 = 0, 0
}

// MagnitudeAt returns the linear gain at freq
func (b *Biquad) MagnitudeAt(freq, sampleRate float64) float64 {
	return b.coeffs.MagnitudeAt(freq, sampleRate)
}

// MagnitudeDBAt returns the gain at freq in decibels
func (b *Biquad) MagnitudeDBAt(freq, sampleRate float64) float64 {
	return 20 * math.Log10(math.Max(b.MagnitudeAt(freq, sampleRate), 1e-12))
}
