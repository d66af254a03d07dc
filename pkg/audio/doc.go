// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format, Buffer, Vec3 and Listener plus sample conversions
// Package audio provides the fundamental types shared by the engine.
//
// This package defines:
//   - Format: Describes an audio stream (codec, sample rate, channels, bit depth)
//   - Buffer: Decoded, immutable PCM held by the sample store
//   - Vec3 and Listener: Scene-space vectors consumed by the spatial panner
//
// It also provides utilities for converting between sample formats and
// between decibels and linear gain.
//
// Example:
//
//	buf := audio.NewSilence(48000, 1, 100*time.Millisecond)
//	fmt.Println(buf.Frames(), buf.Duration())
package audio
