// ABOUTME: Sentinel errors for the meter package
// ABOUTME: Returned by constructors given unusable parameters
package meter

import "errors"

var (
	// ErrInvalidFFTSize is returned for spectrum sizes that are not a power of two in [32, 32768]
	ErrInvalidFFTSize = errors.New("fft size must be a power of two between 32 and 32768")

	// ErrInvalidChannels is returned for a channel count below one
	ErrInvalidChannels = errors.New("channel count must be positive")

	// ErrInvalidSampleRate is returned for a non-positive sample rate
	ErrInvalidSampleRate = errors.New("sample rate must be positive")
)

// MinDB is the reading of a meter that has seen only silence
const MinDB = -200.0
