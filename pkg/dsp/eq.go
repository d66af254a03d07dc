// ABOUTME: Eight-band cascaded biquad equalizer
// ABOUTME: Shelves at the extremes, peaking bands in between
package dsp

import (
	"fmt"
	"math"
)

// NumEQBands is the fixed number of EQ stages
const NumEQBands = 8

// maxBandGainDB bounds SetBand
const maxBandGainDB = 24.0

// EQBand describes one stage
type EQBand struct {
	Type   FilterType
	Freq   float64
	Q      float64
	GainDB float64
}

// DefaultEQBands are the fixed centre frequencies, all flat
var DefaultEQBands = [NumEQBands]EQBand{
	{Type: LowShelf, Freq: 60, Q: 0.7071},
	{Type: Peaking, Freq: 150, Q: 1.0},
	{Type: Peaking, Freq: 400, Q: 1.0},
	{Type: Peaking, Freq: 1000, Q: 1.0},
	{Type: Peaking, Freq: 2500, Q: 1.0},
	{Type: Peaking, Freq: 5000, Q: 1.0},
	{Type: Peaking, Freq: 8000, Q: 1.0},
	{Type: HighShelf, Freq: 12000, Q: 0.7071},
}

// EQ runs every sample through all bands in series
type EQ struct {
	sampleRate float64
	bands      [NumEQBands]EQBand
	filters    [NumEQBands]Biquad
}

// NewEQ creates a flat EQ at sampleRate
func NewEQ(sampleRate float64) *EQ {
	eq := &EQ{sampleRate: sampleRate, bands: DefaultEQBands}
	for i := range eq.bands {
		eq.design(i)
	}
	return eq
}

func (eq *EQ) design(i int) {
	b := eq.bands[i]
	eq.filters[i].SetCoefficients(Design(b.Type, eq.sampleRate, b.Freq, b.Q, b.GainDB))
}

// SetBand sets band index to gainDB (clamped to ±24 dB) and
// recomputes only that band's coefficients
func (eq *EQ) SetBand(index int, gainDB float64) error {
	if index < 0 || index >= NumEQBands {
		return fmt.Errorf("%w: %d", ErrBandIndex, index)
	}
	eq.bands[index].GainDB = math.Max(-maxBandGainDB, math.Min(maxBandGainDB, gainDB))
	eq.design(index)
	return nil
}

// Band returns the settings of band index
func (eq *EQ) Band(index int) EQBand {
	return eq.bands[index]
}

// BandCoefficients returns the current coefficients of band index
func (eq *EQ) BandCoefficients(index int) Coefficients {
	return eq.filters[index].Coefficients()
}

// Process runs one sample through all bands
func (eq *EQ) Process(x float32) float32 {
	for i := range eq.filters {
		x = eq.filters[i].Process(x)
	}
	return x
}

// ProcessBuffer filters buf in place through all bands
func (eq *EQ) ProcessBuffer(buf []float32) {
	for i := range buf {
		buf[i] = eq.Process(buf[i])
	}
}

// MagnitudeDBAt returns the combined response at freq
func (eq *EQ) MagnitudeDBAt(freq float64) float64 {
	var db float64
	for i := range eq.filters {
		db += eq.filters[i].MagnitudeDBAt(freq, eq.sampleRate)
	}
	return db
}

// Reset clears all filter state
func (eq *EQ) Reset() {
	for i := range eq.filters {
		eq.filters[i].Reset()
	}
}
