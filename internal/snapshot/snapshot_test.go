package snapshot

import (
	"testing"
	"time"

	"dogloot/server/geometry"
	"dogloot/server/internal/players"
	"dogloot/server/internal/registry"
	"dogloot/server/session"
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
		LootTypes: []worldmap.LootType{{Worth: 10}},
	}, 3, 3)
	if err != nil {
		t.Fatalf("worldmap.New: %v", err)
	}
	return m
}

func newRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	return registry.New(registry.Config{
		Maps:            []*worldmap.Map{straightMap(t)},
		SpawnPolicy:     session.SpawnAtOrigin,
		RetireAfter:     60 * time.Second,
		LootPeriod:      time.Second,
		LootProbability: 0,
	})
}

func TestBuildEncodeDecodeRoundTrip(t *testing.T) {
	reg := newRegistry(t)
	s, ok := reg.Session("map1")
	if !ok {
		t.Fatalf("session for map1 not found")
	}
	dog := s.JoinDog("fido")
	dog.Bag = append(dog.Bag, session.LootObject{ID: 0, Type: 0, Worth: 10})
	dog.Score = 5

	playerReg := players.New()
	player, err := playerReg.Join(dog.ID, "map1", "fido")
	if err != nil {
		t.Fatalf("players.Join: %v", err)
	}

	state := Build(reg.Sessions(), playerReg.Snapshot())
	data, err := Encode(state)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if len(decoded.Sessions) != 1 {
		t.Fatalf("sessions: got %d, want 1", len(decoded.Sessions))
	}
	ss := decoded.Sessions[0]
	if ss.MapID != "map1" || len(ss.Dogs) != 1 {
		t.Fatalf("unexpected session state: %+v", ss)
	}
	if ss.Dogs[0].Score != 5 || len(ss.Dogs[0].Bag) != 1 {
		t.Fatalf("unexpected dog state: %+v", ss.Dogs[0])
	}
	if len(decoded.Players) != 1 || decoded.Players[0].Token != player.Token {
		t.Fatalf("unexpected player bindings: %+v", decoded.Players)
	}

	freshReg := newRegistry(t)
	freshPlayers := players.New()
	if err := Restore(decoded, freshReg, Tuning{
		SpawnPolicy:     session.SpawnAtOrigin,
		RetireAfter:     60 * time.Second,
		LootPeriod:      time.Second,
		LootProbability: 0,
	}, freshPlayers); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	restored, ok := freshReg.Session("map1")
	if !ok {
		t.Fatalf("restored session for map1 not found")
	}
	restoredDog, ok := restored.Dog(dog.ID)
	if !ok {
		t.Fatalf("restored dog %d not found", dog.ID)
	}
	if restoredDog.Name != "fido" || restoredDog.Score != 5 {
		t.Fatalf("restored dog mismatch: %+v", restoredDog)
	}
	if restored.DogsJoinCounter() != s.DogsJoinCounter() {
		t.Fatalf("dogsJoin counter not preserved: got %d, want %d", restored.DogsJoinCounter(), s.DogsJoinCounter())
	}

	if got, ok := freshPlayers.FindByToken(player.Token); !ok || got.Name != "fido" {
		t.Fatalf("restored player binding mismatch: %+v, ok=%v", got, ok)
	}
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	state, ok, err := Load("/nonexistent/path/does-not-exist.json")
	if err != nil {
		t.Fatalf("Load: unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("Load: expected ok=false for a missing file")
	}
	if len(state.Sessions) != 0 {
		t.Fatalf("Load: expected empty state, got %+v", state)
	}
}

func TestWriteAtomicThenLoad(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/state.json"

	state := State{
		Sessions: []SessionState{{MapID: "map1", SessionID: 7, Dogs: []DogState{{ID: 1, Name: "rex", Direction: "D"}}}},
	}
	if err := WriteAtomic(path, state); err != nil {
		t.Fatalf("WriteAtomic: %v", err)
	}

	loaded, ok, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !ok {
		t.Fatalf("Load: expected ok=true after WriteAtomic")
	}
	if len(loaded.Sessions) != 1 || loaded.Sessions[0].SessionID != 7 {
		t.Fatalf("unexpected loaded state: %+v", loaded)
	}
}

func TestRestoreRejectsUnknownMap(t *testing.T) {
	reg := newRegistry(t)
	state := State{Sessions: []SessionState{{MapID: "nowhere"}}}
	if err := Restore(state, reg, Tuning{}, players.New()); err == nil {
		t.Fatalf("Restore: expected error for unknown map, got nil")
	}
}
