// ABOUTME: Master DSP processor for one output stream
// ABOUTME: Spatialize, reverb, compress, then meter the final stereo mix
package engine

import (
	"fmt"

	"github.com/Resonate-Protocol/casino-audio/pkg/audio"
	"github.com/Resonate-Protocol/casino-audio/pkg/dsp"
	"github.com/Resonate-Protocol/casino-audio/pkg/effects"
	"github.com/Resonate-Protocol/casino-audio/pkg/meter"
)

// ProcessorConfig configures the master chain. Zero fields take defaults,
// so a zero ReverbMix means 0.15: set DisableReverb for a dry chain, or
// call Processor.SetReverbMix(0) at runtime.
type ProcessorConfig struct {
	ReverbMix        float64 // reverb send level 0-1, default 0.15
	DisableReverb    bool
	RoomSize         float64 // 0-1, default 0.5
	Damping          float64 // 0-1, default 0.5
	Convolution      bool    // convolution reverb instead of Freeverb
	EarlyReflections bool
	Compressor       dsp.CompressorConfig
	Panner           effects.PannerConfig
	SpectrumSize     int // power of two, default 2048
}

func (c *ProcessorConfig) setDefaults() {
	if c.ReverbMix <= 0 {
		c.ReverbMix = 0.15
	}
	if c.ReverbMix > 1 {
		c.ReverbMix = 1
	}
	if c.RoomSize <= 0 {
		c.RoomSize = 0.5
	}
	if c.Damping <= 0 {
		c.Damping = 0.5
	}
	if c.SpectrumSize == 0 {
		c.SpectrumSize = 2048
	}
}

// Meters is a snapshot of the master meters
type Meters struct {
	Momentary       float64 `json:"momentary_lufs"`
	ShortTerm       float64 `json:"short_term_lufs"`
	Integrated      float64 `json:"integrated_lufs"`
	TruePeakDB      float64 `json:"true_peak_db"`
	SamplePeakDB    float64 `json:"sample_peak_db"`
	Correlation     float64 `json:"correlation"`
	GainReductionDB float64 `json:"gain_reduction_db"`
	Clips           uint64  `json:"clips"`
}

// emptyMeters reads as silence
func emptyMeters() Meters {
	return Meters{
		Momentary:    meter.MinDB,
		ShortTerm:    meter.MinDB,
		Integrated:   meter.MinDB,
		TruePeakDB:   meter.MinDB,
		SamplePeakDB: meter.MinDB,
	}
}

// Processor owns the DSP state of one stream. It is not safe for
// concurrent use.
type Processor struct {
	cfg ProcessorConfig

	panner   *effects.Panner
	freeverb *effects.Freeverb
	conv     *effects.ConvolutionReverb
	early    *effects.EarlyReflections
	comp     *dsp.Compressor

	loudness    *meter.Loudness
	peak        *meter.TruePeak
	spectrum    *meter.Spectrum
	correlation *meter.Correlation

	wetL, wetR []float32
	reverbMix  float32
	clips      uint64
}

// NewProcessor builds the chain for blocks of at most maxBlock frames.
// Longer blocks are processed in pieces.
func NewProcessor(sampleRate float64, maxBlock int, cfg ProcessorConfig) (*Processor, error) {
	cfg.setDefaults()
	if maxBlock <= 0 {
		maxBlock = DefaultBlockSize
	}

	p := &Processor{
		cfg:       cfg,
		panner:    effects.NewPanner(sampleRate, cfg.Panner),
		comp:      dsp.NewCompressor(sampleRate, cfg.Compressor),
		wetL:      make([]float32, maxBlock),
		wetR:      make([]float32, maxBlock),
		reverbMix: float32(cfg.ReverbMix),
	}

	var err error
	if cfg.Convolution {
		p.conv, err = effects.NewConvolutionReverb(sampleRate, cfg.RoomSize, cfg.Damping)
		if err != nil {
			return nil, fmt.Errorf("failed to create convolution reverb: %w", err)
		}
		p.conv.SetWet(1)
		p.conv.SetDry(0)
	} else {
		p.freeverb = effects.NewFreeverb(sampleRate)
		p.freeverb.SetRoomSize(cfg.RoomSize)
		p.freeverb.SetDamping(cfg.Damping)
		p.freeverb.SetWet(1)
		p.freeverb.SetDry(0)
	}
	if cfg.EarlyReflections {
		p.early = effects.NewEarlyReflections(sampleRate)
		p.early.SetRoomSize(cfg.RoomSize)
	}

	if p.loudness, err = meter.NewLoudness(sampleRate, 2); err != nil {
		return nil, fmt.Errorf("failed to create loudness meter: %w", err)
	}
	if p.peak, err = meter.NewTruePeak(2); err != nil {
		return nil, fmt.Errorf("failed to create true peak meter: %w", err)
	}
	if p.spectrum, err = meter.NewSpectrum(sampleRate, cfg.SpectrumSize); err != nil {
		return nil, fmt.Errorf("failed to create spectrum analyzer: %w", err)
	}
	p.correlation = meter.NewCorrelation(sampleRate, meter.DefaultCorrelationWindow)
	return p, nil
}

// Config returns the effective configuration
func (p *Processor) Config() ProcessorConfig { return p.cfg }

// SetReverbMix changes the reverb send level (0-1)
func (p *Processor) SetReverbMix(v float64) {
	p.reverbMix = float32(max(0, min(1, v)))
}

// Process runs reverb, compression and metering on a stereo block in
// place. It reports whether any output sample exceeded full scale.
func (p *Processor) Process(left, right []float32) bool {
	n := min(len(left), len(right))
	clipped := false
	for off := 0; off < n; off += len(p.wetL) {
		end := min(off+len(p.wetL), n)
		if p.processBlock(left[off:end], right[off:end]) {
			clipped = true
		}
	}
	return clipped
}

// ProcessMono spatializes a mono block for the listener and source
// position, then runs the stereo chain on the result
func (p *Processor) ProcessMono(mono, left, right []float32, l audio.Listener, pos audio.Vec3) bool {
	p.panner.Update(l, pos)
	p.panner.Process(mono, left, right)
	return p.Process(left, right)
}

func (p *Processor) processBlock(left, right []float32) bool {
	n := len(left)

	if !p.cfg.DisableReverb {
		wetL, wetR := p.wetL[:n], p.wetR[:n]
		copy(wetL, left)
		copy(wetR, right)
		if p.early != nil {
			p.early.Process(wetL, wetR)
		}
		if p.conv != nil {
			p.conv.Process(wetL, wetR)
		} else {
			p.freeverb.ProcessStereo(wetL, wetR)
		}
		mix := p.reverbMix
		for i := 0; i < n; i++ {
			left[i] += wetL[i] * mix
			right[i] += wetR[i] * mix
		}
	}

	p.comp.ProcessStereo(left, right)

	// Read-only taps on the final signal
	p.loudness.ProcessStereo(left, right)
	p.peak.ProcessStereo(left, right)
	p.spectrum.PushStereo(left, right)
	p.correlation.Process(left, right)

	clipped := false
	for i := 0; i < n; i++ {
		if left[i] > 1 || left[i] < -1 || right[i] > 1 || right[i] < -1 {
			clipped = true
			break
		}
	}
	if clipped {
		p.clips++
	}
	return clipped
}

// Clips returns how many processed blocks clipped
func (p *Processor) Clips() uint64 { return p.clips }

// Snapshot reads every meter
func (p *Processor) Snapshot() Meters {
	return Meters{
		Momentary:       p.loudness.Momentary(),
		ShortTerm:       p.loudness.ShortTerm(),
		Integrated:      p.loudness.Integrated(),
		TruePeakDB:      p.peak.GetMaxPeakDB(),
		SamplePeakDB:    p.peak.SamplePeakDB(),
		Correlation:     p.correlation.Value(),
		GainReductionDB: p.comp.GainReductionDB(),
		Clips:           p.clips,
	}
}

// SpectrumDB copies the current spectrum magnitudes into dst
func (p *Processor) SpectrumDB(dst []float64) []float64 {
	return p.spectrum.MagnitudesDB(dst)
}

// ResetMeters clears loudness, peak, spectrum and correlation history
func (p *Processor) ResetMeters() {
	p.loudness.Reset()
	p.peak.Reset()
	p.spectrum.Reset()
	p.correlation.Reset()
	p.clips = 0
}

// Reset clears all effect tails and meters
func (p *Processor) Reset() {
	p.panner.Reset()
	if p.freeverb != nil {
		p.freeverb.Clear()
	}
	if p.conv != nil {
		p.conv.Clear()
	}
	if p.early != nil {
		p.early.Clear()
	}
	p.comp.Reset()
	p.ResetMeters()
}
