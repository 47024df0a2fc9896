package session

import (
	"math/rand"
	"testing"
	"time"

	"dogloot/server/geometry"
	"dogloot/server/worldmap"
)

func straightMap(t *testing.T) *worldmap.Map {
	t.Helper()
	m, err := worldmap.New(worldmap.Config{
		ID:   "map1",
		Name: "straight",
		Roads: []geometry.Road{
			geometry.NewHorizontalRoad(0, 10, 0),
		},
		Offices:   []worldmap.Office{{ID: "office1", Position: geometry.PointInt{X: 5, Y: 5}}},
		LootTypes: []worldmap.LootType{{Worth: 10}},
	}, 3, 3)
	if err != nil {
		t.Fatalf("worldmap.New: %v", err)
	}
	return m
}

func newTestSession(t *testing.T, sink RetirementSink) *Session {
	t.Helper()
	return New(Config{
		Map:             straightMap(t),
		ID:              1,
		SpawnPolicy:     SpawnAtOrigin,
		RetireAfter:     60 * time.Second,
		LootPeriod:      time.Second,
		LootProbability: 1,
		Sink:            sink,
		RNG:             rand.New(rand.NewSource(1)),
	})
}

// TestClampOnBoundary mirrors the boundary scenario: a dog at (9.5,0) moving
// east at speed 3 on the road (0,0)-(10,0) should, after a one-second tick,
// end up clamped to the road's absolute edge at x=10.4 with zero velocity.
func TestClampOnBoundary(t *testing.T) {
	s := newTestSession(t, nil)
	dog := s.JoinDog("rex")
	dog.Position = geometry.Point{X: 9.5, Y: 0}
	dog.PrevPosition = dog.Position
	dog.SetVelocity(geometry.Point{X: 3, Y: 0}, East)

	s.OnTick(time.Second)

	if !almostEqual(dog.Position.X, 10.4) || !almostEqual(dog.Position.Y, 0) {
		t.Fatalf("expected dog at (10.4,0), got (%v,%v)", dog.Position.X, dog.Position.Y)
	}
	if !dog.IsStopped() {
		t.Fatalf("expected dog to be stopped after hitting the road boundary")
	}
}

func almostEqual(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 1e-9
}

// TestFreeMotionStaysOnRoad checks the non-clamped branch: a displacement
// well within the road's remaining length is applied in full.
func TestFreeMotionStaysOnRoad(t *testing.T) {
	s := newTestSession(t, nil)
	dog := s.JoinDog("rex")
	dog.Position = geometry.Point{X: 0, Y: 0}
	dog.PrevPosition = dog.Position
	dog.SetVelocity(geometry.Point{X: 3, Y: 0}, East)

	s.OnTick(time.Second)

	if !almostEqual(dog.Position.X, 3) || !almostEqual(dog.Position.Y, 0) {
		t.Fatalf("expected dog at (3,0), got (%v,%v)", dog.Position.X, dog.Position.Y)
	}
	if dog.IsStopped() {
		t.Fatalf("expected dog to still be moving")
	}
}

// TestRetirementAfterHoldingPeriod checks that a stopped dog is retired,
// its record delivered to the sink, once it has held still for RetireAfter.
func TestRetirementAfterHoldingPeriod(t *testing.T) {
	var retiredID uint64
	var retiredName string
	sink := func(dogID uint64, mapID string, name string, score int, playTime time.Duration) {
		retiredID = dogID
		retiredName = name
	}

	s := newTestSession(t, sink)
	dog := s.JoinDog("rex")
	dog.Position = geometry.Point{X: 0, Y: 0}
	dog.PrevPosition = dog.Position
	// dog starts stopped (zero velocity), holding_time accumulates from tick 1

	s.OnTick(30 * time.Second)
	if _, ok := s.Dog(dog.ID); !ok {
		t.Fatalf("dog should not have retired yet")
	}

	s.OnTick(30 * time.Second)
	if _, ok := s.Dog(dog.ID); ok {
		t.Fatalf("dog should have retired after holding for RetireAfter")
	}
	if retiredID != dog.ID || retiredName != "rex" {
		t.Fatalf("sink not invoked with expected dog, got id=%d name=%q", retiredID, retiredName)
	}
}

// TestRetireDogIsIdempotent checks that retiring an already-absent dog id is
// a harmless no-op, matching the reference implementation's short circuit.
func TestRetireDogIsIdempotent(t *testing.T) {
	called := 0
	sink := func(dogID uint64, mapID string, name string, score int, playTime time.Duration) {
		called++
	}
	s := newTestSession(t, sink)
	s.RetireDog(999)
	if called != 0 {
		t.Fatalf("expected no sink invocation for an unknown dog id")
	}
}

// TestLootPickupRespectsBagCapacity checks the containment invariant: a dog
// cannot hold more items than the map's bag capacity, and a rejected item
// stays on the ground for another dog (or another tick) to collect.
func TestLootPickupRespectsBagCapacity(t *testing.T) {
	s := newTestSession(t, nil)
	dog := s.JoinDog("rex")
	dog.Position = geometry.Point{X: 5, Y: 0}
	dog.PrevPosition = dog.Position

	for i := 0; i < s.Map.BagCapacity+2; i++ {
		s.lootByID[uint64(i)] = &LootObject{ID: uint64(i), Worth: 1, Position: geometry.Point{X: 5, Y: 0}}
	}

	dog.SetVelocity(geometry.Point{X: 0, Y: 0}, East)
	dog.PrevPosition = geometry.Point{X: 5 - 0.01, Y: 0}
	s.collisionPhase()

	if len(dog.Bag) != s.Map.BagCapacity {
		t.Fatalf("expected bag filled to capacity %d, got %d", s.Map.BagCapacity, len(dog.Bag))
	}
	if s.LootCount() != 2 {
		t.Fatalf("expected 2 items left on the ground, got %d", s.LootCount())
	}
}

// TestOfficeDropOffScoresBag checks that passing an office empties the bag
// into score without exceeding what the bag actually held.
func TestOfficeDropOffScoresBag(t *testing.T) {
	s := newTestSession(t, nil)
	dog := s.JoinDog("rex")
	dog.Bag = []LootObject{{Worth: 10}, {Worth: 5}}
	dog.PrevPosition = geometry.Point{X: 4.9, Y: 5}
	dog.Position = geometry.Point{X: 5.1, Y: 5}

	s.collisionPhase()

	if dog.Score != 15 {
		t.Fatalf("expected score 15, got %d", dog.Score)
	}
	if len(dog.Bag) != 0 {
		t.Fatalf("expected empty bag after office drop-off, got %d items", len(dog.Bag))
	}
}

// TestLootConservation checks that a loot item is never gathered twice: once
// one dog's event consumes it, a later event referencing the same id in the
// same tick is skipped rather than double-counted.
func TestLootConservation(t *testing.T) {
	s := newTestSession(t, nil)
	a := s.JoinDog("a")
	b := s.JoinDog("b")
	a.PrevPosition = geometry.Point{X: 4.9, Y: 0}
	a.Position = geometry.Point{X: 5.1, Y: 0}
	b.PrevPosition = geometry.Point{X: 4.95, Y: 0}
	b.Position = geometry.Point{X: 5.05, Y: 0}

	s.lootByID[0] = &LootObject{ID: 0, Worth: 1, Position: geometry.Point{X: 5, Y: 0}}

	s.collisionPhase()

	total := len(a.Bag) + len(b.Bag)
	if total != 1 {
		t.Fatalf("expected exactly one dog to gather the single item, got %d total", total)
	}
	if s.LootCount() != 0 {
		t.Fatalf("expected the item removed from the ground, got %d remaining", s.LootCount())
	}
}

// TestLootSpawnRespectsScarcity checks that the generator never spawns past
// looterCount - currentLootCount, so a session with no dogs never fills up
// with unbounded loot.
func TestLootSpawnRespectsScarcity(t *testing.T) {
	s := newTestSession(t, nil)
	s.OnTick(10 * time.Second)
	if s.LootCount() != 0 {
		t.Fatalf("expected no loot spawned with zero dogs present, got %d", s.LootCount())
	}

	s.JoinDog("rex")
	s.OnTick(10 * time.Second)
	if s.LootCount() > 1 {
		t.Fatalf("expected at most 1 loot item with 1 dog present, got %d", s.LootCount())
	}
}
