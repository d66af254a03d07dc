// ABOUTME: Effect processors composed from dsp primitives
// ABOUTME: Reverbs, early reflections, Doppler and the ITD/ILD spatial panner
// Package effects holds the stereo processors used by the master chain and
// by spatial sources.
//
// Every processor owns its runtime state and exposes an explicit Clear or
// Reset. Buffers are allocated when a processor is built or reconfigured,
// never while processing.
package effects
