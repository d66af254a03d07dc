// ABOUTME: Tests for voices and voice pools
// ABOUTME: Pool bound, oldest-first stealing, end of buffer and rate interpolation
package mixer

import (
	"math"
	"testing"

	"github.com/Resonate-Protocol/casino-audio/pkg/audio"
)

func ramp(frames int) *audio.Buffer {
	data := make([]float32, frames)
	for i := range data {
		data[i] = float32(i)
	}
	return audio.NewBuffer(48000, 1, data)
}

func TestPoolBound(t *testing.T) {
	buf := audio.NewBuffer(48000, 1, make([]float32, 48000))
	p := NewPool("click", buf, UI, 0)
	if p.Size() != DefaultPoolSize {
		t.Fatalf("expected %d slots, got %d", DefaultPoolSize, p.Size())
	}

	for i := 0; i < DefaultPoolSize; i++ {
		if _, stolen := p.Trigger(DefaultVoiceOptions()); stolen {
			t.Fatalf("trigger %d stole with free slots", i)
		}
	}
	if p.Playing() != DefaultPoolSize {
		t.Fatalf("expected %d playing, got %d", DefaultPoolSize, p.Playing())
	}

	slot, stolen := p.Trigger(DefaultVoiceOptions())
	if !stolen {
		t.Fatal("expected the ninth trigger to steal")
	}
	if slot != 0 {
		t.Errorf("expected the oldest slot 0 to be stolen, got %d", slot)
	}
	if p.Playing() != DefaultPoolSize {
		t.Errorf("expected still %d playing, got %d", DefaultPoolSize, p.Playing())
	}
	if p.Steals() != 1 {
		t.Errorf("expected exactly one steal, got %d", p.Steals())
	}

	// The next steal takes slot 1, now the oldest
	if slot, _ := p.Trigger(DefaultVoiceOptions()); slot != 1 {
		t.Errorf("expected slot 1 next, got %d", slot)
	}
}

func TestPoolReusesFreedSlot(t *testing.T) {
	buf := audio.NewBuffer(48000, 1, make([]float32, 10))
	p := NewPool("hover", buf, UI, 2)

	p.Trigger(DefaultVoiceOptions())
	p.Trigger(DefaultVoiceOptions())
	p.Slot(0).Stop()

	slot, stolen := p.Trigger(DefaultVoiceOptions())
	if stolen || slot != 0 {
		t.Errorf("expected idle slot 0 reused without a steal, got slot %d stolen %v", slot, stolen)
	}

	p.StopAll()
	if p.Playing() != 0 {
		t.Errorf("expected no voices after StopAll, got %d", p.Playing())
	}
}

func TestPoolTriggerDoesNotAllocate(t *testing.T) {
	buf := audio.NewBuffer(48000, 1, make([]float32, 100))
	p := NewPool("spin", buf, Slots, 8)
	opts := DefaultVoiceOptions()

	allocs := testing.AllocsPerRun(100, func() { p.Trigger(opts) })
	if allocs != 0 {
		t.Errorf("expected 0 allocations, got %v", allocs)
	}
}

func TestVoiceMixFinishes(t *testing.T) {
	buf := audio.NewBuffer(48000, 1, []float32{1, 1, 1, 1, 1})
	var v Voice
	v.Start(buf, SFX, VoiceOptions{Gain: 0.5, Rate: 1}, 1)

	left := make([]float32, 8)
	right := make([]float32, 8)
	if !v.Mix(left, right, 1, 1) {
		t.Fatal("expected one-shot to finish inside the block")
	}
	if v.Playing() {
		t.Error("expected voice to be idle after finishing")
	}
	for i := 0; i < 5; i++ {
		if left[i] != 0.5 || right[i] != 0.5 {
			t.Errorf("sample %d: expected 0.5, got %v %v", i, left[i], right[i])
		}
	}
	if left[5] != 0 {
		t.Errorf("expected silence after the end, got %v", left[5])
	}
}

func TestVoiceLoopWraps(t *testing.T) {
	buf := audio.NewBuffer(48000, 2, []float32{1, -1, 2, -2, 3, -3})
	var v Voice
	v.Start(buf, Ambient, VoiceOptions{Gain: 1, Loop: true, Rate: 1}, 1)

	left := make([]float32, 7)
	right := make([]float32, 7)
	if v.Mix(left, right, 1, 1) {
		t.Fatal("a looping voice never finishes")
	}
	want := []float32{1, 2, 3, 1, 2, 3, 1}
	for i := range want {
		if left[i] != want[i] || right[i] != -want[i] {
			t.Errorf("sample %d: expected %v/%v, got %v/%v", i, want[i], -want[i], left[i], right[i])
		}
	}
}

func TestVoiceRate(t *testing.T) {
	var v Voice
	v.Start(ramp(100), SFX, VoiceOptions{Gain: 1, Rate: 2}, 1)

	left := make([]float32, 10)
	right := make([]float32, 10)
	v.Mix(left, right, 1, 1)
	if v.Cursor() != 20 {
		t.Errorf("expected cursor 20 at double rate, got %v", v.Cursor())
	}
	if left[3] != 6 {
		t.Errorf("expected integer positions to read exact frames, got %v", left[3])
	}

	// Catmull-Rom reproduces a linear ramp between samples
	v.Start(ramp(100), SFX, VoiceOptions{Gain: 1, Rate: 0.5}, 2)
	clear(left)
	clear(right)
	v.Mix(left, right, 1, 1)
	if math.Abs(float64(left[5])-2.5) > 1e-5 {
		t.Errorf("expected interpolated 2.5, got %v", left[5])
	}

	v.SetRate(-3)
	if v.Rate() != 1 {
		t.Errorf("expected invalid rate to reset to 1, got %v", v.Rate())
	}
	v.SetRate(100)
	if v.Rate() != MaxPlaybackRate {
		t.Errorf("expected rate clamped to %v, got %v", MaxPlaybackRate, v.Rate())
	}
}

func TestVoiceMixMono(t *testing.T) {
	buf := audio.NewBuffer(48000, 2, []float32{1, 0, 1, 0})
	var v Voice
	v.Start(buf, SFX, DefaultVoiceOptions(), 1)

	dst := make([]float32, 4)
	if !v.MixMono(dst, 1, 1) {
		t.Fatal("expected finish")
	}
	if dst[0] != 0.5 || dst[1] != 0.5 || dst[2] != 0 {
		t.Errorf("unexpected mono mix %v", dst)
	}
}

func TestVoiceEmptyBufferStaysIdle(t *testing.T) {
	var v Voice
	v.Start(audio.NewBuffer(48000, 1, nil), SFX, DefaultVoiceOptions(), 1)
	if v.Playing() {
		t.Error("expected empty buffer to leave the voice idle")
	}
}
