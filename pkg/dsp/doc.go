// ABOUTME: Real-time DSP building blocks
// ABOUTME: Biquads, delay lines, EQ, dynamics, oscillators and parameter smoothing
// Package dsp provides the stateful per-sample units the effect chain is
// built from.
//
// Parameters are set from the control side and are constant across many
// Process calls; runtime state (filter history, envelopes, ring buffers) is
// owned by each instance. Nothing in Process paths allocates, locks or logs.
//
// Example:
//
//	lp := dsp.NewLowPass(48000, 1000, 0.7071)
//	lp.ProcessBuffer(block)
package dsp
