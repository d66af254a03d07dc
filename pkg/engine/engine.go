// ABOUTME: Engine facade: lifecycle, playback, spatial sources and bus control
// ABOUTME: Render is the device pull callback; caller operations share one short lock
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Resonate-Protocol/casino-audio/pkg/audio"
	"github.com/Resonate-Protocol/casino-audio/pkg/audio/output"
	"github.com/Resonate-Protocol/casino-audio/pkg/mixer"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
	"golang.org/x/sync/singleflight"
)

var log = logrus.WithField("component", "engine")

type lifecycle int

const (
	stateNew lifecycle = iota
	stateRunning
	stateDisposed
)

// busBlocks holds one stereo scratch block per bus
type busBlocks struct {
	left  [mixer.NumBuses][]float32
	right [mixer.NumBuses][]float32
}

// Stats counts engine activity
type Stats struct {
	ActiveVoices   int    `json:"active_voices"`
	SpatialSources int    `json:"spatial_sources"`
	LoadedSounds   int    `json:"loaded_sounds"`
	Steals         uint64 `json:"steals"`
	Clips          uint64 `json:"clips"`
	Blocks         uint64 `json:"blocks"`
	Suspended      bool   `json:"suspended"`
}

// Engine is one audio output stream with its mixer, spatial sources and
// master processor. Construct one per stream; it cannot be reused after
// Dispose.
type Engine struct {
	id     uuid.UUID
	cfg    Config
	store  *SampleStore
	router *mixer.Router
	graph  *mixer.Graph

	initGroup singleflight.Group

	mu        sync.Mutex
	state     lifecycle
	out       output.Output
	suspended bool
	listener  audio.Listener
	pools     map[mixer.SoundID]*mixer.Pool
	poolList  []*mixer.Pool
	spatial   *SpatialRegistry
	processor *Processor
	fades     [mixer.NumBuses]*gween.Tween
	buses     busBlocks
	mixL      []float32
	mixR      []float32
	blocks    uint64
}

// New creates an engine. No device is opened until Init.
func New(cfg Config) *Engine {
	cfg.setDefaults()
	e := &Engine{
		id:       uuid.New(),
		cfg:      cfg,
		store:    NewSampleStore(cfg.SampleRate, cfg.Loaders),
		router:   mixer.NewRouter(cfg.Routes),
		graph:    mixer.NewGraph(),
		listener: audio.DefaultListener(),
		pools:    make(map[mixer.SoundID]*mixer.Pool),
	}
	return e
}

// ID returns the engine instance id
func (e *Engine) ID() uuid.UUID { return e.id }

// Config returns the effective configuration
func (e *Engine) Config() Config { return e.cfg }

// Store returns the sample store
func (e *Engine) Store() *SampleStore { return e.store }

// Init builds the processing graph and opens the output device. It is
// idempotent: concurrent callers share one initialization and all observe
// its result. A failed Init may be retried.
func (e *Engine) Init(ctx context.Context) error {
	e.mu.Lock()
	state := e.state
	e.mu.Unlock()

	switch state {
	case stateRunning:
		return nil
	case stateDisposed:
		return ErrDisposed
	}

	ch := e.initGroup.DoChan("init", func() (any, error) {
		return nil, e.init()
	})
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		return res.Err
	}
}

func (e *Engine) init() error {
	e.mu.Lock()
	switch e.state {
	case stateRunning:
		e.mu.Unlock()
		return nil
	case stateDisposed:
		e.mu.Unlock()
		return ErrDisposed
	}
	e.mu.Unlock()

	proc, err := NewProcessor(float64(e.cfg.SampleRate), e.cfg.BlockSize, e.cfg.Processor)
	if err != nil {
		return fmt.Errorf("failed to create processor: %w", err)
	}

	out := e.cfg.Output
	if out == nil {
		if out, err = output.New(e.cfg.Backend); err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
	}

	e.mu.Lock()
	e.processor = proc
	e.spatial = newSpatialRegistry(float64(e.cfg.SampleRate), e.cfg.BlockSize, proc.Config().Panner)
	for i := range e.buses.left {
		e.buses.left[i] = make([]float32, e.cfg.BlockSize)
		e.buses.right[i] = make([]float32, e.cfg.BlockSize)
	}
	e.mixL = make([]float32, e.cfg.BlockSize)
	e.mixR = make([]float32, e.cfg.BlockSize)
	e.syncPoolsLocked()
	e.mu.Unlock()

	// The device may start pulling inside Open, so it runs unlocked;
	// Render outputs silence until the state flips.
	if err := out.Open(e.cfg.SampleRate, Channels, e); err != nil {
		return fmt.Errorf("failed to open output: %w", err)
	}

	e.mu.Lock()
	if e.state == stateDisposed {
		e.mu.Unlock()
		out.Close()
		return ErrDisposed
	}
	e.out = out
	e.state = stateRunning
	e.mu.Unlock()

	log.WithFields(logrus.Fields{
		"engine":      e.id,
		"sample_rate": e.cfg.SampleRate,
		"block":       e.cfg.BlockSize,
		"sounds":      e.store.Len(),
	}).Info("Audio engine initialized")
	return nil
}

// Sounds returns the loaded sound ids in sorted order
func (e *Engine) Sounds() []mixer.SoundID { return e.store.IDs() }

// Initialized reports whether Init has completed
func (e *Engine) Initialized() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state == stateRunning
}

// syncPoolsLocked creates a pool for every loaded sound that lacks one
func (e *Engine) syncPoolsLocked() {
	for _, id := range e.store.IDs() {
		e.ensurePoolLocked(id)
	}
}

func (e *Engine) ensurePoolLocked(id mixer.SoundID) *mixer.Pool {
	buf, ok := e.store.Get(id)
	if !ok {
		return nil
	}
	if p, ok := e.pools[id]; ok && p.Buffer() == buf {
		return p
	}
	if old, ok := e.pools[id]; ok {
		old.StopAll()
		e.removePoolLocked(old)
	}

	p := mixer.NewPool(id, buf, e.router.Route(id), e.cfg.PoolSize)
	e.pools[id] = p
	e.poolList = append(e.poolList, p)
	return p
}

func (e *Engine) removePoolLocked(p *mixer.Pool) {
	for i, q := range e.poolList {
		if q == p {
			e.poolList = append(e.poolList[:i], e.poolList[i+1:]...)
			return
		}
	}
}

// RegisterBuffer publishes an in-memory sound, replacing any previous
// buffer of that id
func (e *Engine) RegisterBuffer(id mixer.SoundID, buf *audio.Buffer) error {
	if err := e.store.Put(id, buf); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == stateRunning {
		e.ensurePoolLocked(id)
	}
	return nil
}

// LoadCatalog decodes a catalog into the store. Failed entries are logged
// and skipped. It may run before or after Init.
func (e *Engine) LoadCatalog(ctx context.Context, cat mixer.Catalog, root string) error {
	if err := e.store.LoadCatalog(ctx, cat, root); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == stateRunning {
		e.syncPoolsLocked()
	}
	return nil
}

// Play triggers a pooled one-shot. Unknown sounds and calls before Init
// are logged and ignored.
func (e *Engine) Play(id mixer.SoundID, opts PlayOptions) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != stateRunning {
		log.WithField("sound", id).Debug("Play ignored, engine not running")
		return
	}
	p, ok := e.pools[id]
	if !ok {
		if p = e.ensurePoolLocked(id); p == nil {
			log.WithField("sound", id).Warn("Play ignored, sound not loaded")
			return
		}
	}
	p.Trigger(opts.voiceOptions())
}

// PlayingVoices returns how many voices of a sound are active
func (e *Engine) PlayingVoices(id mixer.SoundID) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p, ok := e.pools[id]; ok {
		return p.Playing()
	}
	return 0
}

// StopSound stops every pooled voice of a sound
func (e *Engine) StopSound(id mixer.SoundID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p, ok := e.pools[id]; ok {
		p.StopAll()
	}
}

// PlaySpatial starts a keyed 3D source, replacing any source with the same key
func (e *Engine) PlaySpatial(key string, id mixer.SoundID, pos audio.Vec3, opts SpatialOptions) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != stateRunning {
		log.WithFields(logrus.Fields{"key": key, "sound": id}).Debug("PlaySpatial ignored, engine not running")
		return
	}
	buf, ok := e.store.Get(id)
	if !ok {
		log.WithFields(logrus.Fields{"key": key, "sound": id}).Warn("PlaySpatial ignored, sound not loaded")
		return
	}
	e.spatial.Play(key, id, buf, e.router.Route(id), pos, opts, e.listener)
}

// UpdateSpatialPosition moves a source; it never restarts playback
func (e *Engine) UpdateSpatialPosition(key string, pos audio.Vec3) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.spatial != nil {
		e.spatial.UpdatePosition(key, pos)
	}
}

// StopSpatial removes a source immediately
func (e *Engine) StopSpatial(key string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.spatial != nil {
		e.spatial.Stop(key)
	}
}

// SpatialActive reports whether a key has a live source
func (e *Engine) SpatialActive(key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.spatial != nil && e.spatial.Has(key)
}

// SpatialKeys returns the live source keys
func (e *Engine) SpatialKeys() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.spatial == nil {
		return nil
	}
	return e.spatial.Keys()
}

// UpdateListener moves the listener. A zero up vector means +Y and a zero
// forward vector keeps the previous heading.
func (e *Engine) UpdateListener(pos, forward, up audio.Vec3) {
	if up.IsZero() {
		up = audio.V3(0, 1, 0)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listener.Position = pos
	if !forward.IsZero() {
		e.listener.Forward = forward.Normalize()
	}
	e.listener.Up = up.Normalize()
}

// Listener returns the current listener
func (e *Engine) Listener() audio.Listener {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.listener
}

// SetBusVolume clamps and stores a bus gain, cancelling any fade on it.
// Unknown buses are logged and ignored.
func (e *Engine) SetBusVolume(bus mixer.BusID, gain float32) {
	if !bus.Valid() {
		log.WithField("bus", int(bus)).Warn("SetBusVolume ignored, unknown bus")
		return
	}
	e.mu.Lock()
	e.fades[bus] = nil
	e.mu.Unlock()
	e.graph.SetGain(bus, gain)
}

// GetBusVolume returns a bus gain. An unknown bus is a programmer error:
// it panics in audiodebug builds and returns 0 otherwise.
func (e *Engine) GetBusVolume(bus mixer.BusID) float32 {
	gain, ok := e.graph.Gain(bus)
	if !ok {
		if debugChecks {
			panic(fmt.Sprintf("engine: unknown bus %d", int(bus)))
		}
		log.WithField("bus", int(bus)).Error("GetBusVolume on unknown bus")
		return 0
	}
	return gain
}

// FadeBusVolume ramps a bus gain linearly to target over d, advanced by
// rendered audio. A non-positive duration sets the gain at once.
func (e *Engine) FadeBusVolume(bus mixer.BusID, target float32, d time.Duration) {
	if !bus.Valid() {
		log.WithField("bus", int(bus)).Warn("FadeBusVolume ignored, unknown bus")
		return
	}
	target = max(0, min(1, target))
	if d <= 0 {
		e.SetBusVolume(bus, target)
		return
	}
	from, _ := e.graph.Gain(bus)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.fades[bus] = gween.New(from, target, float32(d.Seconds()), ease.Linear)
}

// Fading reports whether a bus has a fade in progress
func (e *Engine) Fading(bus mixer.BusID) bool {
	if !bus.Valid() {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fades[bus] != nil
}

// SetMuted silences the master output without touching stored gains
func (e *Engine) SetMuted(muted bool) {
	e.graph.SetMuted(muted)
}

// Muted reports the mute state
func (e *Engine) Muted() bool { return e.graph.Muted() }

// EffectiveGain returns the product of a bus gain and its ancestors
func (e *Engine) EffectiveGain(bus mixer.BusID) float32 {
	return e.graph.EffectiveGain(bus)
}

// Suspend pauses the output device. It is a resumable state, not an error.
func (e *Engine) Suspend() error {
	out, err := e.device()
	if err != nil {
		return err
	}
	if err := out.Suspend(); err != nil {
		return fmt.Errorf("failed to suspend output: %w", err)
	}
	e.mu.Lock()
	e.suspended = true
	e.mu.Unlock()
	return nil
}

// Resume reactivates a suspended device. Callers may retry indefinitely.
func (e *Engine) Resume() error {
	out, err := e.device()
	if err != nil {
		return err
	}
	if err := out.Resume(); err != nil {
		return fmt.Errorf("failed to resume output: %w", err)
	}
	e.mu.Lock()
	e.suspended = false
	e.mu.Unlock()
	return nil
}

func (e *Engine) device() (output.Output, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.state {
	case stateDisposed:
		return nil, ErrDisposed
	case stateNew:
		return nil, ErrNotInitialized
	}
	return e.out, nil
}

// StopAll stops every pooled voice and spatial source
func (e *Engine) StopAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopAllLocked()
}

func (e *Engine) stopAllLocked() {
	for _, p := range e.poolList {
		p.StopAll()
	}
	if e.spatial != nil {
		e.spatial.StopAll()
	}
}

// Dispose stops all playback and closes the device. The engine cannot be
// used afterwards.
func (e *Engine) Dispose() error {
	e.mu.Lock()
	if e.state == stateDisposed {
		e.mu.Unlock()
		return nil
	}
	e.stopAllLocked()
	out := e.out
	e.out = nil
	e.state = stateDisposed
	e.mu.Unlock()

	if out != nil {
		if err := out.Close(); err != nil {
			return fmt.Errorf("failed to close output: %w", err)
		}
	}
	log.WithField("engine", e.id).Info("Audio engine disposed")
	return nil
}

// Stats returns activity counters
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := Stats{
		LoadedSounds: e.store.Len(),
		Blocks:       e.blocks,
		Suspended:    e.suspended,
	}
	for _, p := range e.poolList {
		s.ActiveVoices += p.Playing()
		s.Steals += p.Steals()
	}
	if e.spatial != nil {
		s.SpatialSources = e.spatial.Len()
	}
	if e.processor != nil {
		s.Clips = e.processor.Clips()
	}
	return s
}

// Meters returns a snapshot of the master meters
func (e *Engine) Meters() Meters {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.processor == nil {
		return emptyMeters()
	}
	return e.processor.Snapshot()
}

// Spectrum copies the master spectrum in dBFS into dst
func (e *Engine) Spectrum(dst []float64) []float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.processor == nil {
		return dst[:0]
	}
	return e.processor.SpectrumDB(dst)
}

// Render fills out with interleaved stereo and reports clipping. It is
// the output device's pull callback and never blocks on I/O.
func (e *Engine) Render(out []float32) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != stateRunning {
		clear(out)
		return false
	}

	frames := len(out) / Channels
	block := e.cfg.BlockSize
	clipped := false
	for off := 0; off < frames; off += block {
		n := min(block, frames-off)
		if e.renderBlock(out[off*Channels:(off+n)*Channels], n) {
			clipped = true
		}
	}
	return clipped
}

func (e *Engine) renderBlock(out []float32, n int) bool {
	dt := float64(n) / float64(e.cfg.SampleRate)
	e.advanceFades(float32(dt))

	for b := range e.buses.left {
		clear(e.buses.left[b][:n])
		clear(e.buses.right[b][:n])
	}

	for _, p := range e.poolList {
		p.Mix(e.buses.left[p.Bus()][:n], e.buses.right[p.Bus()][:n], 1, 1)
	}
	e.spatial.mix(&e.buses, n, e.listener, dt)

	mixL, mixR := e.mixL[:n], e.mixR[:n]
	clear(mixL)
	clear(mixR)
	for _, bus := range mixer.LeafBuses {
		g := e.graph.EffectiveGain(bus)
		if g == 0 {
			continue
		}
		bl, br := e.buses.left[bus][:n], e.buses.right[bus][:n]
		for i := 0; i < n; i++ {
			mixL[i] += bl[i] * g
			mixR[i] += br[i] * g
		}
	}

	clipped := e.processor.Process(mixL, mixR)
	for i := 0; i < n; i++ {
		out[2*i] = mixL[i]
		out[2*i+1] = mixR[i]
	}
	e.blocks++
	return clipped
}

func (e *Engine) advanceFades(dt float32) {
	for b, tw := range e.fades {
		if tw == nil {
			continue
		}
		v, done := tw.Update(dt)
		e.graph.SetGain(mixer.BusID(b), v)
		if done {
			e.fades[b] = nil
		}
	}
}
