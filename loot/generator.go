// Package loot implements the probabilistic spawner each game session owns:
// given elapsed time, current loot count, and active-avatar count, decide
// how many new items to create this tick.
package loot

import (
	"math/rand"
	"time"
)

// Generator accumulates elapsed time and, once a full period has passed,
// draws a Bernoulli trial per consumed period to decide whether an item
// spawns. State (the residual-time accumulator) is local to the generator,
// never shared globally, so every session's spawn schedule is independent.
type Generator struct {
	Period      time.Duration
	Probability float64

	rng         *rand.Rand
	accumulated time.Duration
}

// New constructs a Generator with its own random source. rng must not be
// shared with other sessions: each session seeds its own to keep spawn
// schedules independent and, for a fixed seed, deterministic.
func New(period time.Duration, probability float64, rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Generator{Period: period, Probability: probability, rng: rng}
}

// Generate advances the accumulator by dt and returns how many loot items
// should spawn this tick, never more than the current scarcity (looterCount
// minus currentLootCount). A generator with a zero or negative Period never
// spawns anything.
func (g *Generator) Generate(dt time.Duration, currentLootCount, looterCount int) int {
	if g == nil || g.Period <= 0 {
		return 0
	}
	need := looterCount - currentLootCount
	if need <= 0 {
		return 0
	}

	g.accumulated += dt
	spawned := 0
	for g.accumulated >= g.Period {
		g.accumulated -= g.Period
		if g.rng.Float64() < g.Probability {
			spawned++
		}
	}
	if spawned > need {
		spawned = need
	}
	return spawned
}
