// ABOUTME: Audio decoder package for multiple codec support
// ABOUTME: Provides Decoder interface and implementations for WAV, MP3, Vorbis, FLAC, Opus, PCM
// Package decode turns encoded sound assets into decoded PCM buffers.
//
// Supports: WAV (go-audio/wav), MP3 (go-mp3), Ogg Vorbis (oggvorbis),
// FLAC (mewkiz/flac), Ogg Opus (libopusfile) and raw 16/24-bit PCM.
//
// All decoders implement the Decoder interface and produce an
// audio.Buffer of interleaved float32 samples in [-1, 1]. Decoding is
// never done on the real-time path; the sample store runs it ahead of time.
//
// Example:
//
//	dec, err := decode.ForPath("sounds/click.wav", audio.Format{})
//	buf, err := dec.Decode(file)
package decode
