// ABOUTME: Encoder interface definition
// ABOUTME: Common interface for float32 sample encoders
package encode

// Encoder encodes float32 samples to a byte format
type Encoder interface {
	// Encode converts interleaved samples to encoded audio data
	Encode(samples []float32) ([]byte, error)

	// Close releases encoder resources
	Close() error
}
