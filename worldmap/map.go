// Package worldmap holds the immutable map definitions loaded at startup:
// roads, buildings, offices, and the loot catalog. Nothing here mutates
// after construction, so a *Map can be shared by every session that lives
// on it without synchronization.
package worldmap

import (
	"fmt"

	"dogloot/server/geometry"
)

// OfficeRadius is the collision radius of every drop-off office.
const OfficeRadius = 0.25

// Building is a decorative, non-colliding rectangle.
type Building struct {
	X, Y, W, H float64
}

// Office is a drop-off point: dogs that pass near one empty their bag into
// their score.
type Office struct {
	ID       string
	Position geometry.PointInt
	OffsetX  int
	OffsetY  int
}

// LootType is one entry in a map's loot catalog: how much a picked-up item
// of this type is worth.
type LootType struct {
	Worth int
}

// Map is an immutable, named collection of roads, buildings, offices, and a
// loot catalog, plus the movement tuning dogs on this map use by default.
type Map struct {
	ID              string
	Name            string
	Roads           []geometry.Road
	Buildings       []Building
	Offices         []Office
	LootCatalog     []LootType
	DogSpeed        float64
	BagCapacity     int
	roadIndex       map[geometry.PointInt][]int
}

// Config describes a single map as read from the JSON configuration file.
// Per-map DogSpeed/BagCapacity are optional overrides of the server-wide
// defaults; a zero or negative override falls back to the default rather
// than producing a degenerate map.
type Config struct {
	ID          string
	Name        string
	Roads       []geometry.Road
	Buildings   []Building
	Offices     []Office
	LootTypes   []LootType
	DogSpeed    float64 // 0 means "use the default"
	BagCapacity int     // 0 means "use the default"
}

// New builds an immutable Map from cfg, applying defaultSpeed and
// defaultBagCapacity where the map doesn't override them, and precomputing
// the road index used by the per-tick motion pipeline.
func New(cfg Config, defaultSpeed float64, defaultBagCapacity int) (*Map, error) {
	if cfg.ID == "" {
		return nil, fmt.Errorf("worldmap: map id must not be empty")
	}
	speed := cfg.DogSpeed
	if speed <= 0 {
		speed = defaultSpeed
	}
	bagCapacity := cfg.BagCapacity
	if bagCapacity <= 0 {
		bagCapacity = defaultBagCapacity
	}

	m := &Map{
		ID:          cfg.ID,
		Name:        cfg.Name,
		Roads:       append([]geometry.Road(nil), cfg.Roads...),
		Buildings:   append([]Building(nil), cfg.Buildings...),
		Offices:     append([]Office(nil), cfg.Offices...),
		LootCatalog: append([]LootType(nil), cfg.LootTypes...),
		DogSpeed:    speed,
		BagCapacity: bagCapacity,
	}
	m.buildRoadIndex()
	return m, nil
}

func (m *Map) buildRoadIndex() {
	m.roadIndex = make(map[geometry.PointInt][]int)
	for idx, road := range m.Roads {
		lo, hi, fixed := road.TileRange()
		for coord := lo; coord <= hi; coord++ {
			var tile geometry.PointInt
			if road.Orientation == geometry.Horizontal {
				tile = geometry.PointInt{X: coord, Y: fixed}
			} else {
				tile = geometry.PointInt{X: fixed, Y: coord}
			}
			m.roadIndex[tile] = append(m.roadIndex[tile], idx)
		}
	}
}

// RoadsAtTile returns every road whose tile-range covers tile.
func (m *Map) RoadsAtTile(tile geometry.PointInt) []geometry.Road {
	indexes := m.roadIndex[tile]
	if len(indexes) == 0 {
		return nil
	}
	roads := make([]geometry.Road, len(indexes))
	for i, idx := range indexes {
		roads[i] = m.Roads[idx]
	}
	return roads
}

// LootTypeCount reports how many loot types this map's catalog defines.
func (m *Map) LootTypeCount() int {
	return len(m.LootCatalog)
}

// Worth returns the score value of a loot type, or 0 and false if the type
// index is out of range.
func (m *Map) Worth(lootType int) (int, bool) {
	if lootType < 0 || lootType >= len(m.LootCatalog) {
		return 0, false
	}
	return m.LootCatalog[lootType].Worth, true
}

// RandomRoad returns a uniformly-random road on this map. Used by loot
// spawning to pick where a new item appears.
func (m *Map) RandomRoad(randomFloat func() float64) (geometry.Road, bool) {
	if len(m.Roads) == 0 {
		return geometry.Road{}, false
	}
	idx := int(randomFloat() * float64(len(m.Roads)))
	if idx >= len(m.Roads) {
		idx = len(m.Roads) - 1
	}
	return m.Roads[idx], true
}
