// ABOUTME: Audio output package for playing audio
// ABOUTME: Provides pull-based Output interface with oto, malgo, PortAudio and null backends
// Package output provides audio playback backends.
//
// Backends pull interleaved float32 blocks from a Renderer on their own
// audio goroutine or callback. oto is the default; malgo is always built;
// PortAudio needs the portaudio build tag. Null never touches hardware
// and is driven by calling Pull.
//
// Example:
//
//	out := output.NewOto()
//	err := out.Open(48000, 2, engine)
//	err = out.Resume()
package output
