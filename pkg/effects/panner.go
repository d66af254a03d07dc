// ABOUTME: Binaural panner approximating HRTF cues with ITD and ILD
// ABOUTME: Woodworth time difference, far-ear level drop and inverse distance law
package effects

import (
	"math"

	"github.com/Resonate-Protocol/casino-audio/pkg/audio"
	"github.com/Resonate-Protocol/casino-audio/pkg/dsp"
)

// PannerConfig holds spatial parameters. Zero fields take defaults; set
// Flat to keep the distance gain at 1.
type PannerConfig struct {
	RefDistance   float64 // default 1
	MaxDistance   float64 // default 50
	RolloffFactor float64 // default 1
	Flat          bool
	HeadRadius    float64 // metres, default 0.0875
	MaxITD        float64 // seconds, default 0.001
	MaxILDdB      float64 // far-ear attenuation at 90 degrees, default 6
}

func (c *PannerConfig) setDefaults() {
	if c.RefDistance <= 0 {
		c.RefDistance = 1
	}
	if c.MaxDistance <= 0 {
		c.MaxDistance = 50
	}
	if c.MaxDistance < c.RefDistance {
		c.MaxDistance = c.RefDistance
	}
	if c.RolloffFactor < 0 {
		c.RolloffFactor = 0
	} else if c.RolloffFactor == 0 {
		c.RolloffFactor = 1
	}
	if c.HeadRadius <= 0 {
		c.HeadRadius = 0.0875
	}
	if c.MaxITD <= 0 {
		c.MaxITD = 0.001
	}
	if c.MaxILDdB <= 0 {
		c.MaxILDdB = 6
	}
}

// DistanceGain is the inverse distance law (ref / max(d, ref))^rolloff
// with d clamped to maxDist
func DistanceGain(d, ref, maxDist, rolloff float64) float64 {
	if d > maxDist {
		d = maxDist
	}
	if d < ref {
		d = ref
	}
	return math.Pow(ref/d, rolloff)
}

// Azimuth returns the horizontal angle of pos around the listener in
// radians: 0 ahead, +pi/2 right, -pi/2 left, pi behind
func Azimuth(l audio.Listener, pos audio.Vec3) float64 {
	d := pos.Sub(l.Position)
	if d.IsZero() {
		return 0
	}
	fwd := l.Forward.Normalize()
	right := l.Right()
	return math.Atan2(d.Dot(right), d.Dot(fwd))
}

// WoodworthITD returns the interaural delay in seconds for an azimuth.
// Rear sources mirror onto the frontal hemisphere.
func WoodworthITD(azimuth, headRadius float64) float64 {
	lateral := math.Abs(math.Asin(math.Sin(azimuth)))
	return headRadius / SpeedOfSound * (lateral + math.Sin(lateral))
}

// Panner spatializes a mono source into two channels
type Panner struct {
	cfg        PannerConfig
	sampleRate float64

	left  *dsp.DelayLine
	right *dsp.DelayLine

	azimuth  float64
	distance float64
	distGain float64
	itd      float64

	// targets set by Update, current values ramp per block
	targetL, targetR float32
	gainL, gainR     float32
	targetDL         float32
	targetDR         float32
	delayL, delayR   float32
	primed           bool
}

// NewPanner creates a panner for one source
func NewPanner(sampleRate float64, cfg PannerConfig) *Panner {
	cfg.setDefaults()
	maxDelay := int(math.Ceil(cfg.MaxITD*sampleRate)) + 2
	return &Panner{
		cfg:        cfg,
		sampleRate: sampleRate,
		left:       dsp.NewDelayLine(maxDelay),
		right:      dsp.NewDelayLine(maxDelay),
		distGain:   1,
	}
}

// Config returns the effective configuration
func (p *Panner) Config() PannerConfig { return p.cfg }

// Update recomputes cues for the listener and source position.
// The first update applies immediately; later ones ramp over the next block.
func (p *Panner) Update(l audio.Listener, pos audio.Vec3) {
	p.azimuth = Azimuth(l, pos)
	p.distance = pos.Distance(l.Position)
	p.distGain = 1
	if !p.cfg.Flat {
		p.distGain = DistanceGain(p.distance, p.cfg.RefDistance, p.cfg.MaxDistance, p.cfg.RolloffFactor)
	}

	p.itd = math.Min(WoodworthITD(p.azimuth, p.cfg.HeadRadius), p.cfg.MaxITD)
	side := math.Sin(p.azimuth)
	farGain := math.Pow(10, -p.cfg.MaxILDdB*math.Abs(side)/20)
	delay := float32(p.itd * p.sampleRate)

	near := float32(p.distGain)
	far := float32(p.distGain * farGain)
	if side >= 0 {
		// source on the right: left ear is far
		p.targetL, p.targetR = far, near
		p.targetDL, p.targetDR = delay, 0
	} else {
		p.targetL, p.targetR = near, far
		p.targetDL, p.targetDR = 0, delay
	}

	if !p.primed {
		p.gainL, p.gainR = p.targetL, p.targetR
		p.delayL, p.delayR = p.targetDL, p.targetDR
		p.primed = true
	}
}

// Azimuth returns the last computed azimuth in radians
func (p *Panner) Azimuth() float64 { return p.azimuth }

// Distance returns the last listener distance
func (p *Panner) Distance() float64 { return p.distance }

// DistanceGain returns the last distance attenuation
func (p *Panner) DistanceGain() float64 { return p.distGain }

// ITD returns the last interaural delay in seconds
func (p *Panner) ITD() float64 { return p.itd }

// Gains returns the target channel gains
func (p *Panner) Gains() (left, right float32) { return p.targetL, p.targetR }

// Process writes the spatialized mono block to left and right
func (p *Panner) Process(mono, left, right []float32) {
	p.run(mono, left, right, 1, false)
}

// ProcessAdd mixes the spatialized block scaled by gain into left and right
func (p *Panner) ProcessAdd(mono, left, right []float32, gain float32) {
	p.run(mono, left, right, gain, true)
}

func (p *Panner) run(mono, left, right []float32, gain float32, add bool) {
	n := min(len(mono), len(left), len(right))
	if n == 0 {
		return
	}
	if !p.primed {
		p.Update(audio.DefaultListener(), audio.Vec3{})
	}

	inv := 1 / float32(n)
	stepGL := (p.targetL - p.gainL) * inv
	stepGR := (p.targetR - p.gainR) * inv
	stepDL := (p.targetDL - p.delayL) * inv
	stepDR := (p.targetDR - p.delayR) * inv

	gl, gr, dl, dr := p.gainL, p.gainR, p.delayL, p.delayR
	for i := 0; i < n; i++ {
		gl += stepGL
		gr += stepGR
		dl += stepDL
		dr += stepDR

		x := mono[i]
		p.left.Write(x)
		p.right.Write(x)
		l := p.left.ReadFrac(dl) * gl * gain
		r := p.right.ReadFrac(dr) * gr * gain
		if add {
			left[i] += l
			right[i] += r
		} else {
			left[i] = l
			right[i] = r
		}
	}
	p.gainL, p.gainR = p.targetL, p.targetR
	p.delayL, p.delayR = p.targetDL, p.targetDR
}

// Reset clears delay history and forces the next update to apply immediately
func (p *Panner) Reset() {
	p.left.Clear()
	p.right.Clear()
	p.primed = false
}
