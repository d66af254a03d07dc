// ABOUTME: Registry of keyed long-lived 3D sound sources
// ABOUTME: Each source owns a voice, a binaural panner and a Doppler tracker
package engine

import (
	"sort"

	"github.com/Resonate-Protocol/casino-audio/pkg/audio"
	"github.com/Resonate-Protocol/casino-audio/pkg/effects"
	"github.com/Resonate-Protocol/casino-audio/pkg/mixer"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SpatialOptions configure a spatial source. Start from
// DefaultSpatialOptions: a zero Volume is silent and a zero RolloffFactor
// disables distance attenuation. Invalid values (negative or NaN, or a
// non-positive distance) fall back to the defaults.
type SpatialOptions struct {
	Volume        float32
	Loop          bool
	RefDistance   float64
	MaxDistance   float64
	RolloffFactor float64
	NoDoppler     bool
}

// DefaultSpatialOptions returns the documented defaults
func DefaultSpatialOptions() SpatialOptions {
	return SpatialOptions{Volume: 1, RefDistance: 1, MaxDistance: 50, RolloffFactor: 1}
}

func (o *SpatialOptions) sanitize() {
	def := DefaultSpatialOptions()
	if !validVolume(o.Volume) {
		o.Volume = def.Volume
	}
	if !(o.RefDistance > 0) {
		o.RefDistance = def.RefDistance
	}
	if !(o.MaxDistance > 0) {
		o.MaxDistance = def.MaxDistance
	}
	if !(o.RolloffFactor >= 0) {
		o.RolloffFactor = def.RolloffFactor
	}
}

// dopplerSmoothMs glides the pitch ratio between position updates
const dopplerSmoothMs = 30

type spatialSource struct {
	key      string
	id       uuid.UUID
	sound    mixer.SoundID
	bus      mixer.BusID
	position audio.Vec3
	voice    mixer.Voice
	panner   *effects.Panner
	doppler  *effects.Doppler
}

// SpatialRegistry holds at most one source per key. It is driven under the
// engine lock.
type SpatialRegistry struct {
	sampleRate float64
	panner     effects.PannerConfig
	sources    map[string]*spatialSource
	mono       []float32
	seq        uint64
}

func newSpatialRegistry(sampleRate float64, maxBlock int, panner effects.PannerConfig) *SpatialRegistry {
	return &SpatialRegistry{
		sampleRate: sampleRate,
		panner:     panner,
		sources:    make(map[string]*spatialSource),
		mono:       make([]float32, maxBlock),
	}
}

// Play starts a source under key, stopping any previous source with that key
func (r *SpatialRegistry) Play(key string, sound mixer.SoundID, buf *audio.Buffer, bus mixer.BusID,
	pos audio.Vec3, opts SpatialOptions, listener audio.Listener) uuid.UUID {
	opts.sanitize()
	r.Stop(key)

	cfg := r.panner
	cfg.RefDistance = opts.RefDistance
	cfg.MaxDistance = opts.MaxDistance
	cfg.RolloffFactor = opts.RolloffFactor
	cfg.Flat = opts.RolloffFactor == 0

	src := &spatialSource{
		key:      key,
		id:       uuid.New(),
		sound:    sound,
		bus:      bus,
		position: pos,
		panner:   effects.NewPanner(r.sampleRate, cfg),
	}
	if !opts.NoDoppler {
		src.doppler = effects.NewDoppler()
		src.doppler.SetSmoothing(r.sampleRate, dopplerSmoothMs)
		src.doppler.Track(pos.Distance(listener.Position), 0)
	}
	src.panner.Update(listener, pos)

	r.seq++
	src.voice.Start(buf, bus, mixer.VoiceOptions{Gain: opts.Volume, Loop: opts.Loop, Rate: 1}, r.seq)
	r.sources[key] = src

	log.WithFields(logrus.Fields{
		"key":   key,
		"sound": sound,
		"id":    src.id,
	}).Debug("Spatial source started")
	return src.id
}

// UpdatePosition moves a source without restarting it
func (r *SpatialRegistry) UpdatePosition(key string, pos audio.Vec3) bool {
	src, ok := r.sources[key]
	if !ok {
		return false
	}
	src.position = pos
	return true
}

// Stop removes a source immediately
func (r *SpatialRegistry) Stop(key string) bool {
	src, ok := r.sources[key]
	if !ok {
		return false
	}
	src.voice.Stop()
	delete(r.sources, key)
	return true
}

// StopAll removes every source
func (r *SpatialRegistry) StopAll() {
	for key, src := range r.sources {
		src.voice.Stop()
		delete(r.sources, key)
	}
}

// Has reports whether key is active
func (r *SpatialRegistry) Has(key string) bool {
	_, ok := r.sources[key]
	return ok
}

// Len returns the number of active sources
func (r *SpatialRegistry) Len() int { return len(r.sources) }

// Keys returns the active keys in sorted order
func (r *SpatialRegistry) Keys() []string {
	keys := make([]string, 0, len(r.sources))
	for k := range r.sources {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Position returns the last position of a source
func (r *SpatialRegistry) Position(key string) (audio.Vec3, bool) {
	src, ok := r.sources[key]
	if !ok {
		return audio.Vec3{}, false
	}
	return src.position, true
}

// mix renders every source into its bus block. dt is the block duration
// in seconds. One-shots that reached their end are removed; the count is
// returned.
func (r *SpatialRegistry) mix(buses *busBlocks, n int, listener audio.Listener, dt float64) (reaped int) {
	mono := r.mono[:n]
	for key, src := range r.sources {
		src.panner.Update(listener, src.position)
		ratio := 1.0
		if src.doppler != nil {
			ratio = src.doppler.Track(src.panner.Distance(), dt)
		}

		clear(mono)
		finished := src.voice.MixMono(mono, 1, ratio)
		src.panner.ProcessAdd(mono, buses.left[src.bus][:n], buses.right[src.bus][:n], 1)

		if finished {
			delete(r.sources, key)
			reaped++
		}
	}
	return reaped
}
