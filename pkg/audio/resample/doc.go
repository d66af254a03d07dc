// ABOUTME: Audio resampling package using linear and cubic interpolation
// ABOUTME: Converts decoded buffers to the engine rate at load time
// Package resample provides audio sample rate conversion.
//
// Uses linear or Catmull-Rom interpolation for converting between sample
// rates. The sample store uses Buffer to bring every asset to the engine's
// output rate so voices play at rate 1.0 without per-block conversion.
//
// Example:
//
//	r := resample.New(44100, 48000, 2)
//	n := r.Resample(inputSamples, outputSamples)
package resample
