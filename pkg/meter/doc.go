// ABOUTME: Metering package for the master output
// ABOUTME: Loudness, true peak, spectrum and stereo correlation measurements
// Package meter provides read-only measurement taps for the final mix.
//
// This package provides:
//   - Loudness: ITU-R BS.1770-4 momentary, short-term and gated integrated LUFS
//   - TruePeak: 4x oversampled inter-sample peak detection
//   - Spectrum: Hann-windowed FFT magnitudes in dBFS with smoothing
//   - Correlation: L/R phase correlation in [-1, +1]
//
// None of the meters modify the signal, and none allocate once constructed.
// Levels that have no data yet read MinDB.
package meter
