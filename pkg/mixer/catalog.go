// ABOUTME: Sound identifiers, the default casino catalog and bus routing
// ABOUTME: Explicit routing table first, then name prefix rules, default sfx
package mixer

import (
	"sort"
	"strings"
)

// SoundID names a catalog entry
type SoundID string

// Catalog maps sounds to resource paths relative to an asset root
type Catalog map[SoundID]string

// IDs returns the catalog keys in sorted order
func (c Catalog) IDs() []SoundID {
	ids := make([]SoundID, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// DefaultCatalog returns the casino sound set
func DefaultCatalog() Catalog {
	return Catalog{
		"hover":          "sounds/ui/hover.mp3",
		"click":          "sounds/ui/click.mp3",
		"modal_open":     "sounds/ui/modal_open.mp3",
		"modal_close":    "sounds/ui/modal_close.mp3",
		"footstep_1":     "sounds/sfx/footstep_1.mp3",
		"footstep_2":     "sounds/sfx/footstep_2.mp3",
		"footstep_3":     "sounds/sfx/footstep_3.mp3",
		"footstep_4":     "sounds/sfx/footstep_4.mp3",
		"sit":            "sounds/sfx/sit.mp3",
		"door":           "sounds/sfx/door.mp3",
		"chips":          "sounds/sfx/chips.mp3",
		"spin":           "sounds/slots/spin.mp3",
		"reel_stop":      "sounds/slots/reel_stop.mp3",
		"win_small":      "sounds/slots/win_small.mp3",
		"win_big":        "sounds/slots/win_big.mp3",
		"jackpot":        "sounds/slots/jackpot.mp3",
		"ambient_casino": "sounds/ambient/casino_loop.ogg",
		"ambient_crowd":  "sounds/ambient/crowd_loop.ogg",
		"ambient_music":  "sounds/ambient/lounge_loop.ogg",
	}
}

// DefaultRoutes is the explicit routing table for the default catalog
var DefaultRoutes = map[SoundID]BusID{
	"hover":          UI,
	"click":          UI,
	"modal_open":     UI,
	"modal_close":    UI,
	"footstep_1":     SFX,
	"footstep_2":     SFX,
	"footstep_3":     SFX,
	"footstep_4":     SFX,
	"sit":            SFX,
	"door":           SFX,
	"chips":          SFX,
	"spin":           Slots,
	"reel_stop":      Slots,
	"win_small":      Slots,
	"win_big":        Slots,
	"jackpot":        Slots,
	"ambient_casino": Ambient,
	"ambient_crowd":  Ambient,
	"ambient_music":  Ambient,
}

type prefixRule struct {
	prefix string
	exact  bool
	bus    BusID
}

// Naming rules for sounds missing from the table, checked in order
var prefixRules = [...]prefixRule{
	{prefix: "hover", bus: UI},
	{prefix: "click", bus: UI},
	{prefix: "modal", bus: UI},
	{prefix: "footstep", bus: SFX},
	{prefix: "sit", exact: true, bus: SFX},
	{prefix: "spin", bus: Slots},
	{prefix: "reel", bus: Slots},
	{prefix: "win", bus: Slots},
	{prefix: "jackpot", exact: true, bus: Slots},
	{prefix: "ambient", bus: Ambient},
}

// Router resolves the bus of a sound
type Router struct {
	table map[SoundID]BusID
}

// NewRouter creates a router over an explicit table. A nil table uses DefaultRoutes.
func NewRouter(table map[SoundID]BusID) *Router {
	if table == nil {
		table = DefaultRoutes
	}
	return &Router{table: table}
}

// Route returns the table entry, else the first matching naming rule, else SFX
func (r *Router) Route(id SoundID) BusID {
	if bus, ok := r.table[id]; ok && bus.Valid() && bus != Master {
		return bus
	}
	return routeByName(id)
}

func routeByName(id SoundID) BusID {
	name := string(id)
	for _, rule := range prefixRules {
		if rule.exact {
			if name == rule.prefix {
				return rule.bus
			}
			continue
		}
		if strings.HasPrefix(name, rule.prefix) {
			return rule.bus
		}
	}
	return SFX
}

// Route resolves a sound with the default table
func Route(id SoundID) BusID {
	return defaultRouter.Route(id)
}

var defaultRouter = NewRouter(nil)
