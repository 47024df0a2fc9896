// Package session implements a single map's live world state and its
// per-tick update pipeline: motion, retirement, collision resolution, and
// loot spawning.
package session

import (
	"math/rand"
	"sync"
	"time"

	"dogloot/server/geometry"
	"dogloot/server/loot"
	"dogloot/server/worldmap"
)

// SpawnPolicy controls where a freshly joined dog appears.
type SpawnPolicy int

const (
	// SpawnAtOrigin places every new dog at the map's first road's start
	// tile, a deterministic origin useful for reproducible tests.
	SpawnAtOrigin SpawnPolicy = iota
	// SpawnOnRandomRoad places a new dog at a uniformly random point on a
	// uniformly random road; the server uses it when started with
	// --randomize-spawn-points.
	SpawnOnRandomRoad
)

// RetirementSink is invoked once per retiring dog, after it has been
// removed from the session but before the caller of OnTick observes the
// tick's result. Implementations persist the dog's record and unregister
// it from the player registry.
type RetirementSink func(dogID uint64, mapID string, name string, score int, playTime time.Duration)

// Session owns one map's live avatars, loot, and the counters that
// allocate their identities. A *Map is shared read-only across every
// session that lives on it.
type Session struct {
	Map          *worldmap.Map
	ID           uint64
	SpawnPolicy  SpawnPolicy
	RetireAfter  time.Duration

	lootGen *loot.Generator
	sink    RetirementSink
	rng     *rand.Rand

	mu sync.Mutex // guards retirement against out-of-band callers (snapshot restore)

	dogsJoin       uint64
	objectsSpawned uint64

	dogs     map[uint64]*Dog
	dogOrder []uint64

	lootByID map[uint64]*LootObject
}

// Config bundles the parameters captured at session creation.
type Config struct {
	Map             *worldmap.Map
	ID              uint64
	SpawnPolicy     SpawnPolicy
	RetireAfter     time.Duration
	LootPeriod      time.Duration
	LootProbability float64
	Sink            RetirementSink
	RNG             *rand.Rand
}

// New constructs an empty session bound to a map.
func New(cfg Config) *Session {
	rng := cfg.RNG
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Session{
		Map:         cfg.Map,
		ID:          cfg.ID,
		SpawnPolicy: cfg.SpawnPolicy,
		RetireAfter: cfg.RetireAfter,
		lootGen:     loot.New(cfg.LootPeriod, cfg.LootProbability, rng),
		sink:        cfg.Sink,
		rng:         rng,
		dogs:        make(map[uint64]*Dog),
		lootByID:    make(map[uint64]*LootObject),
	}
}

// randomFloat draws from the session's own RNG rather than a package-level
// singleton, so every session's spawn schedule is independently seeded and,
// given a fixed seed, reproducible.
func (s *Session) randomFloat() float64 {
	return s.rng.Float64()
}

// JoinDog allocates a new dog id, places it per the session's spawn
// policy, and returns the live dog.
func (s *Session) JoinDog(name string) *Dog {
	id := s.dogsJoin
	s.dogsJoin++

	dog := &Dog{
		ID:        id,
		Name:      name,
		Direction: South,
	}
	dog.Position = s.spawnPosition()
	dog.PrevPosition = dog.Position

	s.dogs[id] = dog
	s.dogOrder = append(s.dogOrder, id)
	return dog
}

func (s *Session) spawnPosition() geometry.Point {
	switch s.SpawnPolicy {
	case SpawnOnRandomRoad:
		if road, ok := s.Map.RandomRoad(s.randomFloat); ok {
			return randomPointOnRoad(road, s.randomFloat)
		}
		fallthrough
	default:
		if len(s.Map.Roads) > 0 {
			return s.Map.Roads[0].Start.Float()
		}
		return geometry.Point{}
	}
}

func randomPointOnRoad(road geometry.Road, randomFloat func() float64) geometry.Point {
	rect := road.AbsoluteRect()
	return geometry.Point{
		X: rect.X + randomFloat()*rect.W,
		Y: rect.Y + randomFloat()*rect.H,
	}
}

// Dog looks a dog up by id.
func (s *Session) Dog(id uint64) (*Dog, bool) {
	d, ok := s.dogs[id]
	return d, ok
}

// Dogs returns every live dog in stable, join-order iteration order.
func (s *Session) Dogs() []*Dog {
	dogs := make([]*Dog, 0, len(s.dogOrder))
	for _, id := range s.dogOrder {
		if d, ok := s.dogs[id]; ok {
			dogs = append(dogs, d)
		}
	}
	return dogs
}

// RemoveDog deletes a dog from the session's collection. It is idempotent:
// removing an absent dog is a no-op.
func (s *Session) RemoveDog(id uint64) {
	if _, ok := s.dogs[id]; !ok {
		return
	}
	delete(s.dogs, id)
	for i, existing := range s.dogOrder {
		if existing == id {
			s.dogOrder = append(s.dogOrder[:i], s.dogOrder[i+1:]...)
			break
		}
	}
}

// LootObjects returns every loot item currently on the ground. Order is not
// guaranteed to be stable across calls.
func (s *Session) LootObjects() []*LootObject {
	items := make([]*LootObject, 0, len(s.lootByID))
	for _, item := range s.lootByID {
		items = append(items, item)
	}
	return items
}

// extractLoot removes a loot object from the session's bookkeeping and
// returns it. Reports false if the id is unknown (already picked up).
func (s *Session) extractLoot(id uint64) (LootObject, bool) {
	item, ok := s.lootByID[id]
	if !ok {
		return LootObject{}, false
	}
	delete(s.lootByID, id)
	return *item, true
}

// spawnLootItem allocates a new loot id, picks a uniform-random catalog
// type and road placement, and adds it to the session.
func (s *Session) spawnLootItem() LootObject {
	id := s.objectsSpawned
	s.objectsSpawned++

	typeCount := s.Map.LootTypeCount()
	lootType := 0
	if typeCount > 0 {
		lootType = int(s.randomFloat() * float64(typeCount))
		if lootType >= typeCount {
			lootType = typeCount - 1
		}
	}
	worth, _ := s.Map.Worth(lootType)

	pos := geometry.Point{}
	if road, ok := s.Map.RandomRoad(s.randomFloat); ok {
		pos = randomPointOnRoad(road, s.randomFloat)
	}

	item := LootObject{ID: id, Type: lootType, Worth: worth, Position: pos}
	s.lootByID[id] = &item
	return item
}

// DogsJoinCounter reports the next id JoinDog will allocate having already
// been consumed up to this value. Exposed for the snapshot codec.
func (s *Session) DogsJoinCounter() uint64 {
	return s.dogsJoin
}

// ObjectsSpawnedCounter reports the next loot id spawnLootItem will
// allocate having already been consumed up to this value. Exposed for the
// snapshot codec.
func (s *Session) ObjectsSpawnedCounter() uint64 {
	return s.objectsSpawned
}

// LootCount reports how many loot items are currently on the ground.
func (s *Session) LootCount() int {
	return len(s.lootByID)
}

// DogCount reports how many dogs are currently live.
func (s *Session) DogCount() int {
	return len(s.dogs)
}
