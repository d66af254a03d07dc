// ABOUTME: Early reflections as fixed-ratio stereo delay taps
// ABOUTME: Tap times scale with room size over a shared delay line
package effects

import (
	"github.com/Resonate-Protocol/casino-audio/pkg/dsp"
)

// reflectionTap is one discrete reflection at full room size
type reflectionTap struct {
	ms    float64
	gain  float32
	right bool
}

// Alternate sides so the onset image stays centred
var reflectionTaps = [...]reflectionTap{
	{ms: 7.1, gain: 0.82, right: false},
	{ms: 9.7, gain: 0.76, right: true},
	{ms: 13.3, gain: 0.63, right: false},
	{ms: 17.9, gain: 0.58, right: true},
	{ms: 23.6, gain: 0.47, right: false},
	{ms: 29.2, gain: 0.41, right: true},
	{ms: 37.4, gain: 0.32, right: false},
	{ms: 44.8, gain: 0.27, right: true},
}

const maxReflectionMs = 50.0

// EarlyReflections adds a sparse set of room reflections to a stereo signal
type EarlyReflections struct {
	sampleRate float64
	roomSize   float64
	level      float32
	line       *dsp.DelayLine
	delays     [len(reflectionTaps)]int
}

// NewEarlyReflections creates the simulator with room size 0.5 and level 0.5
func NewEarlyReflections(sampleRate float64) *EarlyReflections {
	e := &EarlyReflections{
		sampleRate: sampleRate,
		level:      0.5,
		line:       dsp.NewDelayLine(int(maxReflectionMs * 0.001 * sampleRate)),
	}
	e.SetRoomSize(0.5)
	return e
}

// SetRoomSize scales every tap time (0-1); 0 still leaves 20% of the spacing
func (e *EarlyReflections) SetRoomSize(v float64) {
	e.roomSize = clamp01(v)
	scale := 0.2 + 0.8*e.roomSize
	for i, tap := range reflectionTaps {
		e.delays[i] = int(tap.ms * scale * 0.001 * e.sampleRate)
	}
}

// SetLevel sets how much of the reflections is added (0-1)
func (e *EarlyReflections) SetLevel(v float64) { e.level = float32(clamp01(v)) }

// TapDelays returns the current tap delays in samples
func (e *EarlyReflections) TapDelays() []int {
	out := make([]int, len(e.delays))
	copy(out, e.delays[:])
	return out
}

// Process adds the reflections of the mono sum into both channels in place
func (e *EarlyReflections) Process(left, right []float32) {
	n := min(len(left), len(right))
	for i := 0; i < n; i++ {
		e.line.Write((left[i] + right[i]) * 0.5)

		var rl, rr float32
		for t, tap := range reflectionTaps {
			v := e.line.Read(e.delays[t]) * tap.gain
			if tap.right {
				rr += v
			} else {
				rl += v
			}
		}
		left[i] += rl * e.level
		right[i] += rr * e.level
	}
}

// Clear silences pending reflections
func (e *EarlyReflections) Clear() {
	e.line.Clear()
}
