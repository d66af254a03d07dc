// ABOUTME: Bus graph with lock-free gains
// ABOUTME: Master plus four leaf buses, effective gain is the product up the tree
package mixer

import (
	"math"
	"sync/atomic"
)

// BusID identifies a mix bus
type BusID int

const (
	Master BusID = iota
	Ambient
	SFX
	Slots
	UI

	NumBuses = int(UI) + 1
)

// LeafBuses lists every bus below master
var LeafBuses = [...]BusID{Ambient, SFX, Slots, UI}

var busNames = [NumBuses]string{"master", "ambient", "sfx", "slots", "ui"}

func (b BusID) String() string {
	if !b.Valid() {
		return "unknown"
	}
	return busNames[b]
}

// Valid reports whether b names a bus in the graph
func (b BusID) Valid() bool {
	return b >= Master && int(b) < NumBuses
}

// Parent returns the parent bus; master has none
func (b BusID) Parent() (BusID, bool) {
	if b == Master || !b.Valid() {
		return 0, false
	}
	return Master, true
}

// ParseBus resolves a bus by name
func ParseBus(name string) (BusID, bool) {
	for i, n := range busNames {
		if n == name {
			return BusID(i), true
		}
	}
	return 0, false
}

// Graph holds the gain of every bus and the master mute flag.
// Gains are float32 bit patterns so the audio thread reads without locks.
type Graph struct {
	gains [NumBuses]atomic.Uint32
	muted atomic.Bool
}

// NewGraph creates a graph with every bus at unity gain
func NewGraph() *Graph {
	g := &Graph{}
	for i := range g.gains {
		g.gains[i].Store(math.Float32bits(1))
	}
	return g
}

// SetGain clamps gain to [0, 1] and stores it. Unknown buses are ignored
// and report false.
func (g *Graph) SetGain(b BusID, gain float32) bool {
	if !b.Valid() {
		return false
	}
	if gain < 0 || math.IsNaN(float64(gain)) {
		gain = 0
	} else if gain > 1 {
		gain = 1
	}
	g.gains[b].Store(math.Float32bits(gain))
	return true
}

// Gain returns the stored gain of one bus
func (g *Graph) Gain(b BusID) (float32, bool) {
	if !b.Valid() {
		return 0, false
	}
	return math.Float32frombits(g.gains[b].Load()), true
}

// EffectiveGain multiplies the bus gain by every ancestor up to master.
// A muted graph yields 0 without touching stored gains.
func (g *Graph) EffectiveGain(b BusID) float32 {
	if !b.Valid() || g.muted.Load() {
		return 0
	}
	gain := math.Float32frombits(g.gains[b].Load())
	for parent, ok := b.Parent(); ok; parent, ok = parent.Parent() {
		gain *= math.Float32frombits(g.gains[parent].Load())
	}
	return gain
}

// SetMuted silences or restores the master output
func (g *Graph) SetMuted(muted bool) { g.muted.Store(muted) }

// Muted reports the master mute state
func (g *Graph) Muted() bool { return g.muted.Load() }
