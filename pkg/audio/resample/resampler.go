// ABOUTME: Sample rate converter for decoded float32 audio
// ABOUTME: Streams interleaved frames through linear or cubic interpolation
package resample

import "github.com/Resonate-Protocol/casino-audio/pkg/audio"

// Resampler converts between sample rates using linear interpolation
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	ratio      float64
	position   float64
	cubic      bool
}

// New creates a new resampler
func New(inputRate, outputRate, channels int) *Resampler {
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		channels:   channels,
		ratio:      float64(inputRate) / float64(outputRate),
	}
}

// NewCubic creates a resampler using Catmull-Rom interpolation
func NewCubic(inputRate, outputRate, channels int) *Resampler {
	r := New(inputRate, outputRate, channels)
	r.cubic = true
	return r
}

// Resample converts input samples to the output sample rate.
// input and output are interleaved; returns the number of output samples written.
func (r *Resampler) Resample(input []float32, output []float32) int {
	if len(input) == 0 {
		return 0
	}

	inputFrames := len(input) / r.channels
	outputFrames := len(output) / r.channels

	outIdx := 0

	for outIdx < outputFrames {
		inputIdx := int(r.position)

		// If we've consumed all input, stop
		if inputIdx >= inputFrames-1 {
			break
		}

		frac := float32(r.position - float64(inputIdx))

		for ch := 0; ch < r.channels; ch++ {
			y1 := input[inputIdx*r.channels+ch]
			y2 := input[(inputIdx+1)*r.channels+ch]

			if !r.cubic {
				output[outIdx*r.channels+ch] = y1 + (y2-y1)*frac
				continue
			}

			y0 := y1
			if inputIdx > 0 {
				y0 = input[(inputIdx-1)*r.channels+ch]
			}
			y3 := y2
			if inputIdx+2 < inputFrames {
				y3 = input[(inputIdx+2)*r.channels+ch]
			}
			output[outIdx*r.channels+ch] = Cubic(y0, y1, y2, y3, frac)
		}

		outIdx++
		r.position += r.ratio
	}

	// Keep the fractional part for the next chunk
	r.position -= float64(int(r.position))

	return outIdx * r.channels
}

// Reset resets the resampler state
func (r *Resampler) Reset() {
	r.position = 0.0
}

// OutputSamplesNeeded calculates how many output samples will be produced from input samples
func (r *Resampler) OutputSamplesNeeded(inputSamples int) int {
	inputFrames := inputSamples / r.channels
	outputFrames := int(float64(inputFrames) / r.ratio)
	return outputFrames * r.channels
}

// InputSamplesNeeded calculates how many input samples are needed to produce output samples
func (r *Resampler) InputSamplesNeeded(outputSamples int) int {
	outputFrames := outputSamples / r.channels
	inputFrames := int(float64(outputFrames) * r.ratio)
	return inputFrames * r.channels
}

// Buffer converts a whole decoded buffer to targetRate.
// The input is returned unchanged when the rates already match.
func Buffer(buf *audio.Buffer, targetRate int) *audio.Buffer {
	if buf == nil || buf.SampleRate == targetRate || buf.SampleRate <= 0 || targetRate <= 0 {
		return buf
	}

	r := NewCubic(buf.SampleRate, targetRate, buf.Channels)
	out := make([]float32, r.OutputSamplesNeeded(len(buf.Data)))
	n := r.Resample(buf.Data, out)

	return audio.NewBuffer(targetRate, buf.Channels, out[:n])
}
