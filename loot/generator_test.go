package loot

import (
	"math/rand"
	"testing"
	"time"
)

// TestLootSpawnsUnderPressure mirrors the end-to-end scenario: a 5s period,
// probability 1.0, and one looter with zero loot present should spawn
// exactly one item after a single 5000ms tick.
func TestLootSpawnsUnderPressure(t *testing.T) {
	gen := New(5*time.Second, 1.0, rand.New(rand.NewSource(1)))

	got := gen.Generate(5000*time.Millisecond, 0, 1)
	if got != 1 {
		t.Fatalf("expected 1 spawn, got %d", got)
	}
}

func TestNoScarcityNoSpawn(t *testing.T) {
	gen := New(5*time.Second, 1.0, rand.New(rand.NewSource(1)))

	if got := gen.Generate(10*time.Second, 3, 2); got != 0 {
		t.Fatalf("expected 0 spawns when looters <= current loot, got %d", got)
	}
}

func TestZeroProbabilityNeverSpawns(t *testing.T) {
	gen := New(time.Second, 0.0, rand.New(rand.NewSource(7)))

	if got := gen.Generate(time.Minute, 0, 5); got != 0 {
		t.Fatalf("expected 0 spawns with probability 0, got %d", got)
	}
}

func TestSpawnCountNeverExceedsNeed(t *testing.T) {
	gen := New(10*time.Millisecond, 1.0, rand.New(rand.NewSource(3)))

	got := gen.Generate(time.Second, 0, 2)
	if got > 2 {
		t.Fatalf("spawn count %d exceeds scarcity need of 2", got)
	}
}

func TestAccumulatorPersistsAcrossCalls(t *testing.T) {
	gen := New(5*time.Second, 1.0, rand.New(rand.NewSource(2)))

	if got := gen.Generate(3*time.Second, 0, 1); got != 0 {
		t.Fatalf("expected no spawn before a full period elapses, got %d", got)
	}
	if got := gen.Generate(2*time.Second, 0, 1); got != 1 {
		t.Fatalf("expected the residual 2s plus this call to complete a period, got %d", got)
	}
}
