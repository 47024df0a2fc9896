package session

// RestoreConfig extends Config with the live state a snapshot decoder
// needs to reconstruct a session exactly as it was, rather than starting
// empty: the id counters (so newly joined dogs and freshly spawned loot
// never collide with restored ids) and the dogs/loot themselves.
type RestoreConfig struct {
	Config
	DogsJoin       uint64
	ObjectsSpawned uint64
	Dogs           []Dog
	Loot           []LootObject
}

// Restore rebuilds a session from a snapshot, preserving ids exactly.
func Restore(cfg RestoreConfig) *Session {
	s := New(cfg.Config)
	s.dogsJoin = cfg.DogsJoin
	s.objectsSpawned = cfg.ObjectsSpawned
	for i := range cfg.Dogs {
		dog := cfg.Dogs[i]
		s.dogs[dog.ID] = &dog
		s.dogOrder = append(s.dogOrder, dog.ID)
	}
	for i := range cfg.Loot {
		item := cfg.Loot[i]
		s.lootByID[item.ID] = &item
	}
	return s
}
