// ABOUTME: Noise gate with envelope follower, hold and downward expansion
// ABOUTME: Closes toward silence below threshold and reopens on signal
package dsp

import "math"

// GateConfig holds gate parameters. Zero fields take defaults.
type GateConfig struct {
	ThresholdDB float64 // default -50
	Ratio       float64 // expansion ratio, default 10
	AttackMs    float64 // default 1
	ReleaseMs   float64 // default 100
	HoldMs      float64 // default 50
}

// Gate attenuates signal whose envelope stays below the threshold
// for longer than the hold time
type Gate struct {
	cfg        GateConfig
	sampleRate float64

	envAttack  float64
	envRelease float64
	gainOpen   float64
	gainClose  float64
	holdLen    int

	env  float64
	gain float64
	hold int
}

// NewGate creates a gate in the open state
func NewGate(sampleRate float64, cfg GateConfig) *Gate {
	if cfg.ThresholdDB == 0 {
		cfg.ThresholdDB = -50
	}
	if cfg.Ratio < 1 {
		cfg.Ratio = 10
	}
	if cfg.AttackMs <= 0 {
		cfg.AttackMs = 1
	}
	if cfg.ReleaseMs <= 0 {
		cfg.ReleaseMs = 100
	}
	if cfg.HoldMs < 0 {
		cfg.HoldMs = 0
	} else if cfg.HoldMs == 0 {
		cfg.HoldMs = 50
	}

	g := &Gate{cfg: cfg, sampleRate: sampleRate, gain: 1}
	g.update()
	return g
}

func timeCoef(ms, sampleRate float64) float64 {
	return math.Exp(-1 / (ms * 0.001 * sampleRate))
}

func (g *Gate) update() {
	g.envAttack = timeCoef(g.cfg.AttackMs, g.sampleRate)
	g.envRelease = timeCoef(g.cfg.ReleaseMs, g.sampleRate)
	g.gainOpen = timeCoef(g.cfg.AttackMs, g.sampleRate)
	g.gainClose = timeCoef(g.cfg.ReleaseMs, g.sampleRate)
	g.holdLen = int(g.cfg.HoldMs * 0.001 * g.sampleRate)
}

// SetThreshold sets the open threshold in dBFS
func (g *Gate) SetThreshold(db float64) { g.cfg.ThresholdDB = db }

// SetRatio sets the expansion ratio (>= 1)
func (g *Gate) SetRatio(r float64) {
	if r < 1 {
		r = 1
	}
	g.cfg.Ratio = r
}

// SetTimes sets attack, release and hold in milliseconds
func (g *Gate) SetTimes(attackMs, releaseMs, holdMs float64) {
	g.cfg.AttackMs = math.Max(attackMs, 0.01)
	g.cfg.ReleaseMs = math.Max(releaseMs, 0.01)
	g.cfg.HoldMs = math.Max(holdMs, 0)
	g.update()
}

// targetGain is the static expansion curve for an envelope level
func (g *Gate) targetGain(envDB float64) float64 {
	if envDB >= g.cfg.ThresholdDB {
		return 1
	}
	db := (envDB - g.cfg.ThresholdDB) * (g.cfg.Ratio - 1)
	if db < -120 {
		return 0
	}
	return math.Pow(10, db/20)
}

// Process gates one sample
func (g *Gate) Process(x float32) float32 {
	level := math.Abs(float64(x))
	if level > g.env {
		g.env = g.envAttack*g.env + (1-g.envAttack)*level
	} else {
		g.env = g.envRelease*g.env + (1-g.envRelease)*level
	}

	envDB := -240.0
	if g.env > 1e-12 {
		envDB = 20 * math.Log10(g.env)
	}

	target := 1.0
	if envDB >= g.cfg.ThresholdDB {
		g.hold = g.holdLen
	} else if g.hold > 0 {
		g.hold--
	} else {
		target = g.targetGain(envDB)
	}

	if target > g.gain {
		g.gain = g.gainOpen*g.gain + (1-g.gainOpen)*target
	} else {
		g.gain = g.gainClose*g.gain + (1-g.gainClose)*target
	}

	return float32(float64(x) * g.gain)
}

// ProcessBuffer gates buf in place
func (g *Gate) ProcessBuffer(buf []float32) {
	for i := range buf {
		buf[i] = g.Process(buf[i])
	}
}

// Gain returns the current linear gain in [0, 1]
func (g *Gate) Gain() float64 { return g.gain }

// IsOpen reports whether the gate is passing signal
func (g *Gate) IsOpen() bool { return g.gain > 0.5 }

// Reset opens the gate and clears the envelope
func (g *Gate) Reset() {
	g.env = 0
	g.gain = 1
	g.hold = 0
}
