// ABOUTME: Feed-forward stereo-linked compressor
// ABOUTME: Quadratic soft knee in the dB domain with attack/release gain smoothing
package dsp

import "math"

// CompressorConfig holds compressor parameters. Zero fields take defaults,
// so a zero ThresholdDB means -12; use Compressor.SetThreshold(0) for a
// 0 dBFS threshold.
type CompressorConfig struct {
	ThresholdDB float64 // default -12
	Ratio       float64 // default 4
	KneeDB      float64 // default 0 (hard knee)
	AttackMs    float64 // default 5
	ReleaseMs   float64 // default 120
	MakeupDB    float64
}

// Compressor reduces gain above threshold. The static curve is
// continuous everywhere, including at the threshold.
type Compressor struct {
	cfg        CompressorConfig
	sampleRate float64

	attack  float64
	release float64
	makeup  float64

	// current gain reduction in dB (<= 0)
	grDB float64
}

// NewCompressor creates a compressor with cfg
func NewCompressor(sampleRate float64, cfg CompressorConfig) *Compressor {
	if cfg.ThresholdDB == 0 {
		cfg.ThresholdDB = -12
	}
	if cfg.Ratio < 1 {
		cfg.Ratio = 4
	}
	if cfg.KneeDB < 0 {
		cfg.KneeDB = 0
	}
	if cfg.AttackMs <= 0 {
		cfg.AttackMs = 5
	}
	if cfg.ReleaseMs <= 0 {
		cfg.ReleaseMs = 120
	}

	c := &Compressor{cfg: cfg, sampleRate: sampleRate}
	c.updateTimeConstants()
	c.makeup = math.Pow(10, cfg.MakeupDB/20)
	return c
}

func (c *Compressor) updateTimeConstants() {
	c.attack = timeCoef(c.cfg.AttackMs, c.sampleRate)
	c.release = timeCoef(c.cfg.ReleaseMs, c.sampleRate)
}

// SetThreshold sets the threshold in dBFS
func (c *Compressor) SetThreshold(db float64) { c.cfg.ThresholdDB = db }

// SetRatio sets the ratio, minimum 1
func (c *Compressor) SetRatio(r float64) {
	if r < 1 {
		r = 1
	}
	c.cfg.Ratio = r
}

// SetKnee sets the soft knee width in dB
func (c *Compressor) SetKnee(db float64) { c.cfg.KneeDB = math.Max(db, 0) }

// SetAttack sets the attack time in milliseconds
func (c *Compressor) SetAttack(ms float64) {
	c.cfg.AttackMs = math.Max(ms, 0.01)
	c.updateTimeConstants()
}

// SetRelease sets the release time in milliseconds
func (c *Compressor) SetRelease(ms float64) {
	c.cfg.ReleaseMs = math.Max(ms, 0.01)
	c.updateTimeConstants()
}

// SetMakeup sets the makeup gain in dB
func (c *Compressor) SetMakeup(db float64) {
	c.cfg.MakeupDB = db
	c.makeup = math.Pow(10, db/20)
}

// Config returns the current parameters
func (c *Compressor) Config() CompressorConfig { return c.cfg }

// GainDB is the static curve: the gain change in dB applied to a
// steady input at levelDB
func (c *Compressor) GainDB(levelDB float64) float64 {
	t, r, w := c.cfg.ThresholdDB, c.cfg.Ratio, c.cfg.KneeDB
	over := levelDB - t

	switch {
	case 2*over < -w:
		return 0
	case w > 0 && 2*math.Abs(over) <= w:
		x := over + w/2
		return (1/r - 1) * x * x / (2 * w)
	default:
		return (1/r - 1) * over
	}
}

// step advances the detector with a linear peak level and returns the gain
func (c *Compressor) step(peak float64) float64 {
	levelDB := -240.0
	if peak > 1e-12 {
		levelDB = 20 * math.Log10(peak)
	}
	target := c.GainDB(levelDB)
	if target < c.grDB {
		c.grDB = c.attack*c.grDB + (1-c.attack)*target
	} else {
		c.grDB = c.release*c.grDB + (1-c.release)*target
	}
	return math.Pow(10, c.grDB/20) * c.makeup
}

// Process compresses one mono sample
func (c *Compressor) Process(x float32) float32 {
	g := c.step(math.Abs(float64(x)))
	return float32(float64(x) * g)
}

// ProcessStereo compresses two channels in place with linked detection
func (c *Compressor) ProcessStereo(left, right []float32) {
	n := min(len(left), len(right))
	for i := 0; i < n; i++ {
		l, r := float64(left[i]), float64(right[i])
		g := c.step(math.Max(math.Abs(l), math.Abs(r)))
		left[i] = float32(l * g)
		right[i] = float32(r * g)
	}
}

// GainReductionDB returns the current reduction as a positive number of dB
func (c *Compressor) GainReductionDB() float64 { return -c.grDB }

// Reset clears the detector
func (c *Compressor) Reset() { c.grDB = 0 }
