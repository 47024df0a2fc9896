package session

import (
	"time"

	"dogloot/server/geometry"
)

// Direction is one of the four axis-aligned facings a dog can move in.
type Direction string

const (
	North Direction = "U"
	South Direction = "D"
	West  Direction = "L"
	East  Direction = "R"
)

// Vector returns the unit vector a direction points along.
func (d Direction) Vector() geometry.Point {
	switch d {
	case North:
		return geometry.Point{X: 0, Y: -1}
	case South:
		return geometry.Point{X: 0, Y: 1}
	case West:
		return geometry.Point{X: -1, Y: 0}
	case East:
		return geometry.Point{X: 1, Y: 0}
	default:
		return geometry.Point{}
	}
}

// ParseDirection validates a client-supplied direction letter. An empty
// string is not a valid Direction — callers treat it as "stop" before ever
// calling ParseDirection.
func ParseDirection(s string) (Direction, bool) {
	switch Direction(s) {
	case North, South, West, East:
		return Direction(s), true
	default:
		return "", false
	}
}

// DogRadius is the collision radius of every avatar.
const DogRadius = 0.3

// Dog is a player's in-world avatar within one GameSession.
type Dog struct {
	ID   uint64
	Name string

	Position     geometry.Point
	PrevPosition geometry.Point
	Direction    Direction
	Velocity     geometry.Point

	Score int
	Bag   []LootObject

	HoldingTime time.Duration
	TimeInGame  time.Duration
}

// IsStopped reports whether the dog has zero velocity.
func (d *Dog) IsStopped() bool {
	return d.Velocity.X == 0 && d.Velocity.Y == 0
}

// SetVelocity applies a new velocity and direction. Any nonzero velocity
// resets HoldingTime to zero; Stop (implied by a zero vector) also resets
// it, since the reset happens on every velocity change, not just motion.
func (d *Dog) SetVelocity(v geometry.Point, dir Direction) {
	d.Velocity = v
	d.Direction = dir
	d.HoldingTime = 0
}

// Stop zeroes the dog's velocity, holding it in place.
func (d *Dog) Stop() {
	d.Velocity = geometry.Point{}
	d.HoldingTime = 0
}

// BagHasRoom reports whether the bag can accept one more item.
func (d *Dog) BagHasRoom(capacity int) bool {
	return len(d.Bag) < capacity
}

// EmptyBag clears the bag, converting each item's worth into score and
// returning the total added.
func (d *Dog) EmptyBag() int {
	total := 0
	for _, item := range d.Bag {
		total += item.Worth
	}
	d.Score += total
	d.Bag = d.Bag[:0]
	return total
}
