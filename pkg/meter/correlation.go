// ABOUTME: Stereo phase correlation meter
// ABOUTME: Exponentially averaged normalized cross-correlation of left and right
package meter

import "math"

// DefaultCorrelationWindow is the averaging time constant in seconds
const DefaultCorrelationWindow = 0.3

// Correlation reports +1 for identical channels, -1 for inverted ones and 0
// for uncorrelated or silent input
type Correlation struct {
	coef       float64
	lr, ll, rr float64
}

// NewCorrelation creates a meter averaging over window seconds
func NewCorrelation(sampleRate, window float64) *Correlation {
	if window <= 0 {
		window = DefaultCorrelationWindow
	}
	return &Correlation{coef: 1 - math.Exp(-1/(window*sampleRate))}
}

// Process consumes a stereo block
func (c *Correlation) Process(left, right []float32) {
	n := min(len(left), len(right))
	a := c.coef
	for i := 0; i < n; i++ {
		l, r := float64(left[i]), float64(right[i])
		c.lr += a * (l*r - c.lr)
		c.ll += a * (l*l - c.ll)
		c.rr += a * (r*r - c.rr)
	}
}

// Value returns the current coefficient in [-1, +1]
func (c *Correlation) Value() float64 {
	den := math.Sqrt(c.ll * c.rr)
	if den < 1e-12 {
		return 0
	}
	return math.Max(-1, math.Min(1, c.lr/den))
}

// Reset forgets the running averages
func (c *Correlation) Reset() {
	c.lr, c.ll, c.rr = 0, 0, 0
}
