// ABOUTME: Audio encoder package
// ABOUTME: Provides PCM byte encoding and WAV file output for rendered audio
// Package encode converts rendered float32 audio into storable formats.
//
// Supports: raw PCM (16/24-bit) and WAV files via go-audio/wav, used for
// offline renders of the master bus.
//
// Example:
//
//	f, _ := os.Create("mix.wav")
//	err := encode.WriteWAV(f, buf, 16)
package encode
