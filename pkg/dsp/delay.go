// ABOUTME: Ring-buffer delay line
// ABOUTME: Integer and linearly interpolated fractional taps
package dsp

// DelayLine stores the most recent samples for tapped reads.
// Read(0) is the most recently written sample.
type DelayLine struct {
	buf   []float32
	write int
}

// NewDelayLine creates a delay line able to serve delays up to maxDelay samples
func NewDelayLine(maxDelay int) *DelayLine {
	if maxDelay < 1 {
		maxDelay = 1
	}
	return &DelayLine{buf: make([]float32, maxDelay+1)}
}

// MaxDelay returns the longest supported delay in samples
func (d *DelayLine) MaxDelay() int {
	return len(d.buf) - 1
}

// Write pushes one sample
func (d *DelayLine) Write(x float32) {
	d.write++
	if d.write == len(d.buf) {
		d.write = 0
	}
	d.buf[d.write] = x
}

// Read returns the sample written delay samples ago, clamped to MaxDelay
func (d *DelayLine) Read(delay int) float32 {
	if delay < 0 {
		delay = 0
	} else if delay >= len(d.buf) {
		delay = len(d.buf) - 1
	}
	idx := d.write - delay
	if idx < 0 {
		idx += len(d.buf)
	}
	return d.buf[idx]
}

// ReadFrac returns a linearly interpolated tap at a fractional delay
func (d *DelayLine) ReadFrac(delay float32) float32 {
	if delay <= 0 {
		return d.Read(0)
	}
	i := int(delay)
	frac := delay - float32(i)
	a := d.Read(i)
	b := d.Read(i + 1)
	return a + (b-a)*frac
}

// Process writes x and returns the sample delay samples back
func (d *DelayLine) Process(x float32, delay int) float32 {
	d.Write(x)
	return d.Read(delay)
}

// Clear zeroes the buffer
func (d *DelayLine) Clear() {
	clear(d.buf)
	d.write = 0
}
