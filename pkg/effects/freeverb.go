// ABOUTME: Freeverb-style algorithmic stereo reverb
// ABOUTME: Eight damped feedback combs in parallel followed by four series all-passes
package effects

import "math"

// Tuning (in samples at 44.1kHz)
const (
	numCombs     = 8
	numAllpasses = 4
	fixedGain    = 0.015
	scaleDamping = 0.4
	scaleRoom    = 0.28
	offsetRoom   = 0.7
	stereoSpread = 23
	allpassGain  = 0.5
)

var combTuning = [numCombs]int{1116, 1188, 1277, 1356, 1422, 1491, 1557, 1617}

var allpassTuning = [numAllpasses]int{556, 441, 341, 225}

// comb is a feedback comb with a one-pole low-pass in the feedback path
type comb struct {
	buf      []float32
	idx      int
	feedback float32
	damp1    float32
	damp2    float32
	store    float32
}

func (c *comb) process(x float32) float32 {
	out := c.buf[c.idx]
	c.store = out*c.damp2 + c.store*c.damp1
	c.buf[c.idx] = x + c.store*c.feedback
	c.idx++
	if c.idx == len(c.buf) {
		c.idx = 0
	}
	return out
}

func (c *comb) clear() {
	clear(c.buf)
	c.store = 0
	c.idx = 0
}

// allpass is a Schroeder all-pass diffuser
type allpass struct {
	buf []float32
	idx int
}

func (a *allpass) process(x float32) float32 {
	bufout := a.buf[a.idx]
	out := bufout - x
	a.buf[a.idx] = x + bufout*allpassGain
	a.idx++
	if a.idx == len(a.buf) {
		a.idx = 0
	}
	return out
}

func (a *allpass) clear() {
	clear(a.buf)
	a.idx = 0
}

// Freeverb is the Jezar/Dreampoint reverb topology
type Freeverb struct {
	combL, combR       [numCombs]comb
	allpassL, allpassR [numAllpasses]allpass

	roomSize float64
	damping  float64
	wet      float64
	dry      float64
	width    float64
	frozen   bool

	wet1, wet2, dry1 float32
	gain             float32
}

// NewFreeverb creates a reverb with room 0.5, damping 0.5, wet 1/3, dry 0, width 1
func NewFreeverb(sampleRate float64) *Freeverb {
	f := &Freeverb{
		roomSize: 0.5,
		damping:  0.5,
		wet:      1.0 / 3.0,
		dry:      0,
		width:    1,
	}

	scale := sampleRate / 44100.0
	for i := 0; i < numCombs; i++ {
		f.combL[i].buf = make([]float32, max(1, int(float64(combTuning[i])*scale)))
		f.combR[i].buf = make([]float32, max(1, int(float64(combTuning[i]+stereoSpread)*scale)))
	}
	for i := 0; i < numAllpasses; i++ {
		f.allpassL[i].buf = make([]float32, max(1, int(float64(allpassTuning[i])*scale)))
		f.allpassR[i].buf = make([]float32, max(1, int(float64(allpassTuning[i]+stereoSpread)*scale)))
	}

	f.update()
	return f
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// SetRoomSize sets the room size (0-1), controlling comb feedback
func (f *Freeverb) SetRoomSize(v float64) { f.roomSize = clamp01(v); f.update() }

// SetDamping sets high-frequency damping (0-1)
func (f *Freeverb) SetDamping(v float64) { f.damping = clamp01(v); f.update() }

// SetWet sets the reverb output level (0-1)
func (f *Freeverb) SetWet(v float64) { f.wet = clamp01(v); f.update() }

// SetDry sets the direct signal level (0-1)
func (f *Freeverb) SetDry(v float64) { f.dry = clamp01(v); f.update() }

// SetWidth sets the stereo width (0-1)
func (f *Freeverb) SetWidth(v float64) { f.width = clamp01(v); f.update() }

// SetFreeze holds the current tail indefinitely
func (f *Freeverb) SetFreeze(frozen bool) { f.frozen = frozen; f.update() }

// RoomSize returns the room size
func (f *Freeverb) RoomSize() float64 { return f.roomSize }

// Damping returns the damping amount
func (f *Freeverb) Damping() float64 { return f.damping }

func (f *Freeverb) update() {
	f.wet1 = float32(f.wet * (f.width/2 + 0.5))
	f.wet2 = float32(f.wet * ((1 - f.width) / 2))
	f.dry1 = float32(f.dry)

	room, damp := f.roomSize, f.damping
	f.gain = fixedGain
	if f.frozen {
		room, damp = 1, 0
		f.gain = 0
	}

	feedback := float32(room*scaleRoom + offsetRoom)
	if f.frozen {
		feedback = 1
	}
	d1 := float32(damp * scaleDamping)
	for i := 0; i < numCombs; i++ {
		for _, c := range []*comb{&f.combL[i], &f.combR[i]} {
			c.feedback = feedback
			c.damp1 = d1
			c.damp2 = 1 - d1
		}
	}
}

// ProcessSample runs one stereo frame
func (f *Freeverb) ProcessSample(inL, inR float32) (float32, float32) {
	input := (inL + inR) * f.gain

	var outL, outR float32
	for i := 0; i < numCombs; i++ {
		outL += f.combL[i].process(input)
		outR += f.combR[i].process(input)
	}
	for i := 0; i < numAllpasses; i++ {
		outL = f.allpassL[i].process(outL)
		outR = f.allpassR[i].process(outR)
	}

	l := outL*f.wet1 + outR*f.wet2 + inL*f.dry1
	r := outR*f.wet1 + outL*f.wet2 + inR*f.dry1
	return l, r
}

// ProcessStereo processes two channel blocks in place
func (f *Freeverb) ProcessStereo(left, right []float32) {
	n := min(len(left), len(right))
	for i := 0; i < n; i++ {
		left[i], right[i] = f.ProcessSample(left[i], right[i])
	}
}

// Clear zeroes every comb and all-pass, silencing the tail
func (f *Freeverb) Clear() {
	for i := 0; i < numCombs; i++ {
		f.combL[i].clear()
		f.combR[i].clear()
	}
	for i := 0; i < numAllpasses; i++ {
		f.allpassL[i].clear()
		f.allpassR[i].clear()
	}
}
