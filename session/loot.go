package session

import "dogloot/server/geometry"

// LootRadius is the collision radius of every loot item: zero, so pickup is
// governed entirely by the gathering dog's radius.
const LootRadius = 0

// LootObject is a pickable item. Its identity is its ID; once picked up it
// no longer exists as a standalone entity (it lives inside a bag).
type LootObject struct {
	ID       uint64
	Type     int
	Worth    int
	Position geometry.Point
}
