// ABOUTME: Fixed-size voice pool for one sound
// ABOUTME: Reuses idle slots and steals the oldest voice when full
package mixer

import (
	"github.com/Resonate-Protocol/casino-audio/pkg/audio"
)

// DefaultPoolSize is the number of concurrent instances per sound
const DefaultPoolSize = 8

// Pool owns every voice of one sound. Slots are allocated once.
type Pool struct {
	sound  SoundID
	bus    BusID
	buffer *audio.Buffer
	slots  []Voice
	next   uint64
	steals uint64
}

// NewPool creates a pool of size slots; size <= 0 uses DefaultPoolSize
func NewPool(sound SoundID, buf *audio.Buffer, bus BusID, size int) *Pool {
	if size <= 0 {
		size = DefaultPoolSize
	}
	return &Pool{
		sound:  sound,
		bus:    bus,
		buffer: buf,
		slots:  make([]Voice, size),
	}
}

// Sound returns the sound this pool plays
func (p *Pool) Sound() SoundID { return p.sound }

// Bus returns the bus the pool routes to
func (p *Pool) Bus() BusID { return p.bus }

// Buffer returns the decoded audio the pool plays
func (p *Pool) Buffer() *audio.Buffer { return p.buffer }

// Size returns the slot count
func (p *Pool) Size() int { return len(p.slots) }

// Slot returns slot i for inspection
func (p *Pool) Slot(i int) *Voice { return &p.slots[i] }

// Trigger starts the sound in the first idle slot. When every slot is busy
// the voice with the smallest allocation sequence is stopped and reused.
// It returns the slot index and whether a voice was stolen.
func (p *Pool) Trigger(opts VoiceOptions) (slot int, stolen bool) {
	slot = -1
	oldest := 0
	for i := range p.slots {
		if !p.slots[i].Playing() {
			slot = i
			break
		}
		if p.slots[i].seq < p.slots[oldest].seq {
			oldest = i
		}
	}

	if slot < 0 {
		slot = oldest
		stolen = true
		p.slots[slot].Stop()
		p.steals++
	}

	p.next++
	p.slots[slot].Start(p.buffer, p.bus, opts, p.next)
	return slot, stolen
}

// Playing counts active voices
func (p *Pool) Playing() int {
	n := 0
	for i := range p.slots {
		if p.slots[i].Playing() {
			n++
		}
	}
	return n
}

// Steals returns how many voices were stolen since creation
func (p *Pool) Steals() uint64 { return p.steals }

// StopAll stops every voice
func (p *Pool) StopAll() {
	for i := range p.slots {
		p.slots[i].Stop()
	}
}

// Mix adds every active voice into the stereo block and returns how many
// finished during it
func (p *Pool) Mix(left, right []float32, gain float32, rateScale float64) int {
	finished := 0
	for i := range p.slots {
		if p.slots[i].Mix(left, right, gain, rateScale) {
			finished++
		}
	}
	return finished
}
