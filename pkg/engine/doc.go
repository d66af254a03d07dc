// ABOUTME: Audio engine package: one output stream with mixer, spatial sources and master chain
// ABOUTME: Ties the sample store, voice pools, bus graph and processor to an output device
// Package engine is the facade the rest of the daemon talks to.
//
// An Engine owns:
//   - SampleStore: decoded sounds, resampled to the engine rate on publish
//   - one mixer.Pool per sound for fire-and-forget one-shots
//   - SpatialRegistry: keyed long-lived 3D sources with panning and Doppler
//   - Processor: reverb send, compressor and the master meters
//
// The output device pulls interleaved stereo through Render. Caller-side
// operations and Render share one short mutex; trigger and position
// updates do not allocate.
//
// Example:
//
//	eng := engine.New(engine.Config{})
//	_ = eng.LoadCatalog(ctx, mixer.DefaultCatalog(), "assets/sounds")
//	if err := eng.Init(ctx); err != nil {
//		return err
//	}
//	defer eng.Dispose()
//	eng.Play("click", engine.DefaultPlayOptions())
//	eng.PlaySpatial("slot-1", "spin", audio.V3(2, 0, -3), engine.DefaultSpatialOptions())
package engine
