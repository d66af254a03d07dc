// ABOUTME: Tests for the master processor
// ABOUTME: Checks reverb send, clip detection and meter snapshots
package engine

import (
	"math"
	"testing"

	"github.com/Resonate-Protocol/casino-audio/internal/audiotest"
	"github.com/Resonate-Protocol/casino-audio/pkg/audio"
	"github.com/Resonate-Protocol/casino-audio/pkg/dsp"
	"github.com/Resonate-Protocol/casino-audio/pkg/meter"
)

func TestProcessorTransparent(t *testing.T) {
	p, err := NewProcessor(48000, 256, ProcessorConfig{
		DisableReverb: true,
		Compressor:    dsp.CompressorConfig{Ratio: 1},
	})
	if err != nil {
		t.Fatal(err)
	}

	left := audiotest.Sine(1000, 0.5, 48000, 1000, 0)
	right := audiotest.Sine(1000, 0.5, 48000, 1000, 0)
	want := append([]float32(nil), left...)

	if p.Process(left, right) {
		t.Error("did not expect clipping")
	}
	for i := range want {
		if math.Abs(float64(left[i]-want[i])) > 1e-6 {
			t.Fatalf("sample %d changed: %v -> %v", i, want[i], left[i])
		}
	}
}

func TestProcessorClipDetection(t *testing.T) {
	p, err := NewProcessor(48000, 128, ProcessorConfig{
		DisableReverb: true,
		Compressor:    dsp.CompressorConfig{Ratio: 1},
	})
	if err != nil {
		t.Fatal(err)
	}

	left := audiotest.Constant(1.5, 128)
	right := audiotest.Constant(0.2, 128)
	if !p.Process(left, right) {
		t.Fatal("expected clipping to be reported")
	}
	if p.Clips() != 1 {
		t.Errorf("expected 1 clipped block, got %d", p.Clips())
	}

	m := p.Snapshot()
	if math.Abs(m.SamplePeakDB-audio.GainToDB(1.5)) > 0.01 {
		t.Errorf("expected sample peak %.2f dB, got %v", audio.GainToDB(1.5), m.SamplePeakDB)
	}
	if m.TruePeakDB < m.SamplePeakDB {
		t.Errorf("true peak %v below sample peak %v", m.TruePeakDB, m.SamplePeakDB)
	}

	p.ResetMeters()
	if p.Clips() != 0 || p.Snapshot().SamplePeakDB != meter.MinDB {
		t.Error("expected meters cleared")
	}
}

func TestProcessorCompressorLimitsLoudInput(t *testing.T) {
	p, err := NewProcessor(48000, 256, ProcessorConfig{
		DisableReverb: true,
		Compressor:    dsp.CompressorConfig{ThresholdDB: -20, Ratio: 10, AttackMs: 1},
	})
	if err != nil {
		t.Fatal(err)
	}

	left := audiotest.Constant(0.9, 4800)
	right := audiotest.Constant(0.9, 4800)
	p.Process(left, right)

	if left[4799] >= 0.5 {
		t.Errorf("expected compression to pull the level down, got %v", left[4799])
	}
	if gr := p.Snapshot().GainReductionDB; gr < 10 {
		t.Errorf("expected substantial gain reduction, got %v dB", gr)
	}
}

func TestProcessorReverbAddsTail(t *testing.T) {
	for _, conv := range []bool{false, true} {
		p, err := NewProcessor(48000, 256, ProcessorConfig{
			ReverbMix:   0.5,
			Convolution: conv,
			Compressor:  dsp.CompressorConfig{Ratio: 1},
		})
		if err != nil {
			t.Fatal(err)
		}

		left := audiotest.Impulse(256, 0)
		right := audiotest.Impulse(256, 0)
		p.Process(left, right)

		var tail float64
		for i := 0; i < 40; i++ {
			l := make([]float32, 256)
			r := make([]float32, 256)
			p.Process(l, r)
			tail += audiotest.RMS(l)
		}
		if tail == 0 {
			t.Errorf("convolution=%v: expected a reverb tail after the impulse", conv)
		}

		p.Reset()
		l := make([]float32, 256)
		r := make([]float32, 256)
		p.Process(l, r)
		if audiotest.Peak(l) != 0 {
			t.Errorf("convolution=%v: expected silence after Reset", conv)
		}
	}
}

func TestProcessorMonoSpatialize(t *testing.T) {
	p, err := NewProcessor(48000, 256, ProcessorConfig{
		DisableReverb: true,
		Compressor:    dsp.CompressorConfig{Ratio: 1},
	})
	if err != nil {
		t.Fatal(err)
	}

	mono := audiotest.Sine(500, 0.5, 48000, 256, 0)
	left := make([]float32, 256)
	right := make([]float32, 256)
	p.ProcessMono(mono, left, right, audio.DefaultListener(), audio.V3(-1, 0, 0))

	if audiotest.RMS(left) <= audiotest.RMS(right) {
		t.Errorf("expected source on the left to favour the left ear")
	}
}

func TestProcessorInvalidSpectrumSize(t *testing.T) {
	if _, err := NewProcessor(48000, 256, ProcessorConfig{SpectrumSize: 1000}); err == nil {
		t.Error("expected error for non power of two spectrum size")
	}
}

func TestProcessorZeroReverbSendViaSetter(t *testing.T) {
	p, err := NewProcessor(48000, 256, ProcessorConfig{
		Compressor: dsp.CompressorConfig{Ratio: 1},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := p.Config().ReverbMix; got != 0.15 {
		t.Fatalf("expected zero send in config to mean 0.15, got %v", got)
	}

	p.SetReverbMix(0)
	left := audiotest.Sine(500, 0.5, 48000, 4800, 0)
	right := audiotest.Sine(500, 0.5, 48000, 4800, 0)
	want := append([]float32(nil), left...)
	p.Process(left, right)

	for i := range want {
		if math.Abs(float64(left[i]-want[i])) > 1e-6 {
			t.Fatalf("sample %d: expected dry %v, got %v", i, want[i], left[i])
		}
	}
}
