// ABOUTME: Single playback instance of a decoded buffer
// ABOUTME: Reads with Catmull-Rom interpolation at non-unit rates and mixes additively
package mixer

import (
	"math"

	"github.com/Resonate-Protocol/casino-audio/pkg/audio"
	"github.com/Resonate-Protocol/casino-audio/pkg/audio/resample"
)

// Playback rate limits
const (
	MinPlaybackRate = 0.0625
	MaxPlaybackRate = 16.0
)

// State is the lifecycle of a voice
type State uint8

const (
	Idle State = iota
	Playing
)

func (s State) String() string {
	if s == Playing {
		return "playing"
	}
	return "idle"
}

// VoiceOptions configure one trigger
type VoiceOptions struct {
	Gain float32 // linear, default 1
	Loop bool
	Rate float64 // playback rate, default 1
}

// DefaultVoiceOptions returns unity gain, no loop, unity rate
func DefaultVoiceOptions() VoiceOptions {
	return VoiceOptions{Gain: 1, Rate: 1}
}

// Voice plays one buffer. It holds a non-owning reference to the buffer;
// the sample store keeps buffers alive for the engine lifetime.
type Voice struct {
	buffer *audio.Buffer
	gain   float32
	loop   bool
	rate   float64
	cursor float64 // position in frames
	state  State
	bus    BusID
	seq    uint64
}

// Start resets the cursor and begins playback
func (v *Voice) Start(buf *audio.Buffer, bus BusID, opts VoiceOptions, seq uint64) {
	v.buffer = buf
	v.bus = bus
	v.gain = opts.Gain
	v.loop = opts.Loop
	v.SetRate(opts.Rate)
	v.cursor = 0
	v.seq = seq
	v.state = Playing
	if buf.Frames() == 0 {
		v.Stop()
	}
}

// Stop halts playback immediately and releases the buffer reference
func (v *Voice) Stop() {
	v.state = Idle
	v.buffer = nil
	v.cursor = 0
}

// State returns Idle or Playing
func (v *Voice) State() State { return v.state }

// Playing reports whether the voice is active
func (v *Voice) Playing() bool { return v.state == Playing }

// Seq returns the allocation sequence of the current trigger
func (v *Voice) Seq() uint64 { return v.seq }

// Bus returns the bus the voice is routed to
func (v *Voice) Bus() BusID { return v.bus }

// Cursor returns the playback position in frames
func (v *Voice) Cursor() float64 { return v.cursor }

// Loop reports whether the voice wraps at the end of its buffer
func (v *Voice) Loop() bool { return v.loop }

// Gain returns the voice gain
func (v *Voice) Gain() float32 { return v.gain }

// SetGain changes the voice gain without restarting
func (v *Voice) SetGain(g float32) { v.gain = g }

// SetRate changes the playback rate, clamped to the supported range
func (v *Voice) SetRate(r float64) {
	if r <= 0 || math.IsNaN(r) {
		r = 1
	}
	v.rate = math.Max(MinPlaybackRate, math.Min(MaxPlaybackRate, r))
}

// Rate returns the playback rate
func (v *Voice) Rate() float64 { return v.rate }

// frame reads one channel of frame i, wrapping for loops and silent outside the buffer
func (v *Voice) frame(i, ch, frames int) float32 {
	if i < 0 || i >= frames {
		if !v.loop {
			return 0
		}
		i %= frames
		if i < 0 {
			i += frames
		}
	}
	return v.buffer.Frame(i, ch)
}

func (v *Voice) sampleAt(pos float64, ch, frames int) float32 {
	i := int(pos)
	frac := float32(pos - float64(i))
	if frac == 0 {
		return v.frame(i, ch, frames)
	}
	return resample.Cubic(
		v.frame(i-1, ch, frames),
		v.frame(i, ch, frames),
		v.frame(i+1, ch, frames),
		v.frame(i+2, ch, frames),
		frac,
	)
}

// advance moves the cursor and reports whether a one-shot reached its end
func (v *Voice) advance(step float64, frames int) bool {
	v.cursor += step
	end := float64(frames)
	if v.cursor < end {
		return false
	}
	if !v.loop {
		return true
	}
	v.cursor = math.Mod(v.cursor, end)
	return false
}

// Mix adds the voice into a stereo block scaled by gain, advancing at
// rate*rateScale. It returns true when a one-shot finished in this block;
// the voice is then Idle.
func (v *Voice) Mix(left, right []float32, gain float32, rateScale float64) bool {
	if v.state != Playing {
		return false
	}
	frames := v.buffer.Frames()
	step := v.step(rateScale)
	g := v.gain * gain

	n := min(len(left), len(right))
	for i := 0; i < n; i++ {
		left[i] += v.sampleAt(v.cursor, 0, frames) * g
		right[i] += v.sampleAt(v.cursor, 1, frames) * g
		if v.advance(step, frames) {
			v.Stop()
			return true
		}
	}
	return false
}

// MixMono adds the channel average into dst, for spatial sources
func (v *Voice) MixMono(dst []float32, gain float32, rateScale float64) bool {
	if v.state != Playing {
		return false
	}
	frames := v.buffer.Frames()
	channels := v.buffer.Channels
	step := v.step(rateScale)
	g := v.gain * gain

	for i := range dst {
		var s float32
		if channels == 1 {
			s = v.sampleAt(v.cursor, 0, frames)
		} else {
			s = (v.sampleAt(v.cursor, 0, frames) + v.sampleAt(v.cursor, 1, frames)) * 0.5
		}
		dst[i] += s * g
		if v.advance(step, frames) {
			v.Stop()
			return true
		}
	}
	return false
}

func (v *Voice) step(rateScale float64) float64 {
	if rateScale <= 0 || math.IsNaN(rateScale) {
		rateScale = 1
	}
	return math.Max(MinPlaybackRate, math.Min(MaxPlaybackRate, v.rate*rateScale))
}
