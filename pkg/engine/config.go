// ABOUTME: Engine configuration and per-call option structs
// ABOUTME: Config zero fields take defaults; play options start from DefaultPlayOptions
package engine

import (
	"github.com/Resonate-Protocol/casino-audio/pkg/audio/output"
	"github.com/Resonate-Protocol/casino-audio/pkg/mixer"
)

const (
	// DefaultSampleRate is the engine and device rate
	DefaultSampleRate = 48000
	// DefaultBlockSize is the processing block in frames
	DefaultBlockSize = 256
	// Channels is the engine output layout
	Channels = 2
)

// Config holds engine settings
type Config struct {
	SampleRate int    // default 48000
	BlockSize  int    // frames per processing block, default 256
	PoolSize   int    // voices per sound, default 8
	Backend    string // output backend when Output is nil, default "oto"
	Loaders    int    // concurrent decoders in LoadCatalog, default 4

	// Output overrides the backend, for tests and offline rendering
	Output output.Output

	// Routes is the explicit sound to bus table; nil uses mixer.DefaultRoutes
	Routes map[mixer.SoundID]mixer.BusID

	Processor ProcessorConfig
}

func (c *Config) setDefaults() {
	if c.SampleRate <= 0 {
		c.SampleRate = DefaultSampleRate
	}
	if c.BlockSize <= 0 {
		c.BlockSize = DefaultBlockSize
	}
	if c.PoolSize <= 0 {
		c.PoolSize = mixer.DefaultPoolSize
	}
	if c.Backend == "" {
		c.Backend = "oto"
	}
	if c.Loaders <= 0 {
		c.Loaders = DefaultLoaders
	}
}

// PlayOptions configure a pooled one-shot. Start from DefaultPlayOptions:
// a zero Volume is silent. Negative or NaN volumes and non-positive rates
// fall back to the defaults.
type PlayOptions struct {
	Volume       float32
	Loop         bool
	PlaybackRate float64
}

// DefaultPlayOptions returns volume 1, no loop, rate 1
func DefaultPlayOptions() PlayOptions {
	return PlayOptions{Volume: 1, PlaybackRate: 1}
}

func (o PlayOptions) voiceOptions() mixer.VoiceOptions {
	v := mixer.VoiceOptions{Gain: o.Volume, Loop: o.Loop, Rate: o.PlaybackRate}
	if !validVolume(v.Gain) {
		v.Gain = 1
	}
	if !(v.Rate > 0) {
		v.Rate = 1
	}
	return v
}

// validVolume rejects negative and NaN gains; zero is a valid silent voice
func validVolume(v float32) bool {
	return v >= 0
}
