// Package collision implements the swept-segment gathering detector shared
// by every game session. It knows nothing about dogs, loot, or offices: a
// caller packs whatever it wants collided into Gatherers and Items and
// interprets the resulting events through its own side table.
package collision

import (
	"sort"

	"dogloot/server/geometry"
)

// Gatherer is a swept line segment with a capture radius, typically an
// avatar's motion during one tick.
type Gatherer struct {
	Start, End geometry.Point
	Radius     float64
}

// Item is a static disk considered for collision: loot or an office.
type Item struct {
	Position geometry.Point
	Radius   float64
}

// Event records that gatherer GathererIdx passed within capture range of
// item ItemIdx at projection ratio T along the gatherer's segment.
type Event struct {
	ItemIdx     int
	GathererIdx int
	SqDistance  float64
	T           float64
}

// FindGatherEvents returns every gathering event across all gatherer/item
// pairs, sorted stably by ascending T (equal T preserves the order events
// were discovered in: gatherer-major, item-minor).
func FindGatherEvents(gatherers []Gatherer, items []Item) []Event {
	var events []Event

	for g, gatherer := range gatherers {
		if gatherer.Start == gatherer.End {
			continue
		}
		vx := gatherer.End.X - gatherer.Start.X
		vy := gatherer.End.Y - gatherer.Start.Y
		vLen2 := vx*vx + vy*vy

		for i, item := range items {
			ux := item.Position.X - gatherer.Start.X
			uy := item.Position.Y - gatherer.Start.Y
			uDotV := ux*vx + uy*vy
			uLen2 := ux*ux + uy*uy

			t := uDotV / vLen2
			sqDistance := uLen2 - (uDotV*uDotV)/vLen2

			collectRadius := gatherer.Radius + item.Radius
			if t < 0 || t > 1 {
				continue
			}
			if sqDistance > collectRadius*collectRadius {
				continue
			}

			events = append(events, Event{
				ItemIdx:     i,
				GathererIdx: g,
				SqDistance:  sqDistance,
				T:           t,
			})
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].T < events[j].T
	})

	return events
}
