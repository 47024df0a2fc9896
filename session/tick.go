package session

import (
	"math"
	"time"

	"dogloot/server/collision"
	"dogloot/server/geometry"
	"dogloot/server/worldmap"
)

// OnTick runs the four simulation phases in order, atomically from a
// caller's perspective: motion, retirement, collision resolution, loot
// spawning.
func (s *Session) OnTick(dt time.Duration) {
	s.movePhase(dt)
	s.retirementPhase()
	s.collisionPhase()
	s.lootSpawnPhase(dt)
}

// movePhase advances every dog along its current road, clamping to the
// road's absolute rectangle and stopping the dog if it would run off the
// end of the road network this tick.
func (s *Session) movePhase(dt time.Duration) {
	dtSeconds := dt.Seconds()
	for _, dog := range s.Dogs() {
		dog.TimeInGame += dt
		if dog.IsStopped() {
			dog.HoldingTime += dt
			continue
		}

		tile := geometry.NearestTile(dog.Position)
		roads := s.Map.RoadsAtTile(tile)
		s.moveDogAlongRoads(dog, roads, dtSeconds)
	}
}

func (s *Session) moveDogAlongRoads(dog *Dog, roads []geometry.Road, dtSeconds float64) {
	prev := dog.Position
	dpX := dog.Velocity.X * dtSeconds
	dpY := dog.Velocity.Y * dtSeconds

	switch {
	case dpX != 0:
		edges := farEdgesX(roads, dpX > 0)
		applyAxisMotion(&dog.Position.X, dpX, edges, dog)
	case dpY != 0:
		edges := farEdgesY(roads, dpY > 0)
		applyAxisMotion(&dog.Position.Y, dpY, edges, dog)
	}

	dog.PrevPosition = prev
}

// applyAxisMotion picks the road allowing the largest legal span in the
// direction of travel; if that span is not enough to cover the candidate
// displacement, the dog is clamped to the span and stopped.
func applyAxisMotion(coord *float64, dp float64, edges []float64, dog *Dog) {
	allowed := largestAllowedDistance(*coord, edges)
	if math.Abs(allowed) <= math.Abs(dp) {
		*coord += allowed
		dog.Stop()
		return
	}
	*coord += dp
}

func largestAllowedDistance(pos float64, edges []float64) float64 {
	if len(edges) == 0 {
		return 0
	}
	best := edges[0] - pos
	for _, edge := range edges[1:] {
		candidate := edge - pos
		if math.Abs(candidate) > math.Abs(best) {
			best = candidate
		}
	}
	return best
}

func farEdgesX(roads []geometry.Road, movingPositive bool) []float64 {
	edges := make([]float64, 0, len(roads))
	for _, road := range roads {
		rect := road.AbsoluteRect()
		if movingPositive {
			edges = append(edges, rect.X+rect.W)
		} else {
			edges = append(edges, rect.X)
		}
	}
	return edges
}

func farEdgesY(roads []geometry.Road, movingPositive bool) []float64 {
	edges := make([]float64, 0, len(roads))
	for _, road := range roads {
		rect := road.AbsoluteRect()
		if movingPositive {
			edges = append(edges, rect.Y+rect.H)
		} else {
			edges = append(edges, rect.Y)
		}
	}
	return edges
}

// retirementPhase removes every dog that has been stopped for at least
// RetireAfter, dropping each from the session and then invoking the
// retirement sink for it. Retirement completes before collision detection runs,
// so a retired dog never gathers loot on the tick it retires.
func (s *Session) retirementPhase() {
	var toRetire []uint64
	for _, dog := range s.Dogs() {
		if dog.IsStopped() && dog.HoldingTime >= s.RetireAfter {
			toRetire = append(toRetire, dog.ID)
		}
	}
	for _, id := range toRetire {
		s.RetireDog(id)
	}
}

// RetireDog persists dog id (via the retirement sink) and removes it from
// the session. Retiring an absent dog id is a no-op that returns
// successfully, so callers never need to check membership first. Guarded
// by a mutex because snapshot-restore paths may invoke retirement
// out-of-band, off the tick pipeline.
func (s *Session) RetireDog(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dog, ok := s.dogs[id]
	if !ok {
		return
	}
	delete(s.dogs, id)
	for i, existing := range s.dogOrder {
		if existing == id {
			s.dogOrder = append(s.dogOrder[:i], s.dogOrder[i+1:]...)
			break
		}
	}
	if s.sink != nil {
		s.sink(dog.ID, s.Map.ID, dog.Name, dog.Score, dog.TimeInGame)
	}
}

type itemKind int

const (
	kindLoot itemKind = iota
	kindOffice
)

type itemTag struct {
	kind      itemKind
	lootID    uint64
	officeIdx int
}

// collisionPhase sweeps every remaining dog's motion this tick against
// loot and offices, resolving pickups and drop-offs in time order.
func (s *Session) collisionPhase() {
	dogs := s.Dogs()
	if len(dogs) == 0 {
		return
	}

	gatherers := make([]collision.Gatherer, len(dogs))
	for i, dog := range dogs {
		gatherers[i] = collision.Gatherer{Start: dog.PrevPosition, End: dog.Position, Radius: DogRadius}
	}

	lootItems := s.LootObjects()
	items := make([]collision.Item, 0, len(lootItems)+len(s.Map.Offices))
	tags := make([]itemTag, 0, cap(items))
	for _, item := range lootItems {
		items = append(items, collision.Item{Position: item.Position, Radius: LootRadius})
		tags = append(tags, itemTag{kind: kindLoot, lootID: item.ID})
	}
	for idx, office := range s.Map.Offices {
		items = append(items, collision.Item{Position: office.Position.Float(), Radius: worldmap.OfficeRadius})
		tags = append(tags, itemTag{kind: kindOffice, officeIdx: idx})
	}

	events := collision.FindGatherEvents(gatherers, items)
	for _, event := range events {
		dog := dogs[event.GathererIdx]
		tag := tags[event.ItemIdx]

		switch tag.kind {
		case kindLoot:
			if !dog.BagHasRoom(s.Map.BagCapacity) {
				// A different dog may still gather it later this tick;
				// events are already time-ordered so this is the intended
				// policy, not a bug.
				continue
			}
			item, ok := s.extractLoot(tag.lootID)
			if !ok {
				continue // already picked up by an earlier event this tick
			}
			dog.Bag = append(dog.Bag, item)
		case kindOffice:
			dog.EmptyBag()
		}
	}
}

// lootSpawnPhase asks the loot generator how many items to create this
// tick and places each at a uniform-random point on a uniform-random road.
func (s *Session) lootSpawnPhase(dt time.Duration) {
	n := s.lootGen.Generate(dt, s.LootCount(), s.DogCount())
	for i := 0; i < n; i++ {
		s.spawnLootItem()
	}
}
