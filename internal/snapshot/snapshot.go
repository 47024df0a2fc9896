// Package snapshot encodes and decodes the server's entire live state to a
// single JSON file, so a restart can resume play instead of dropping every
// connected dog. Encoding walks every live session's StateContent plus the
// player-token table; decoding reconstructs sessions with their original
// ids via session.Restore and registry.AddGameSession, then relinks player
// bindings by looking the dog up in its restored session.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"dogloot/server/geometry"
	"dogloot/server/internal/players"
	"dogloot/server/session"
	"dogloot/server/worldmap"
)

// BagItemState is one item riding in a dog's bag.
type BagItemState struct {
	ID    uint64 `json:"id"`
	Type  int    `json:"type"`
	Worth int    `json:"worth"`
}

// DogState is one dog's persisted fields. HoldingTime and TimeInGame are
// deliberately not persisted: a restored dog resumes as though it had just
// moved, matching the reference StateContent shape.
type DogState struct {
	ID           uint64         `json:"id"`
	Name         string         `json:"name"`
	Direction    string         `json:"direction"`
	Position     geometry.Point `json:"coords"`
	PrevPosition geometry.Point `json:"prevCoords"`
	Speed        geometry.Point `json:"speed"`
	Bag          []BagItemState `json:"bag"`
	Score        int            `json:"score"`
}

// LootState is one loot object lying on the ground.
type LootState struct {
	ID       uint64         `json:"id"`
	Type     int            `json:"type"`
	Worth    int            `json:"worth"`
	Position geometry.Point `json:"coords"`
}

// SessionState is one map's entire live world.
type SessionState struct {
	MapID          string      `json:"mapId"`
	SessionID      uint64      `json:"sessionId"`
	DogsJoin       uint64      `json:"dogsJoin"`
	ObjectsSpawned uint64      `json:"objectsSpawned"`
	Dogs           []DogState  `json:"dogs"`
	Loot           []LootState `json:"loot"`
}

// PlayerBinding is one authenticated client's join record, keyed by the
// dog it controls rather than by name (names are not unique).
type PlayerBinding struct {
	Token     string `json:"token"`
	MapID     string `json:"mapId"`
	SessionID uint64 `json:"sessionId"`
	DogID     uint64 `json:"dogId"`
}

// State is the entire snapshot file's root object.
type State struct {
	Sessions []SessionState  `json:"sessions"`
	Players  []PlayerBinding `json:"players"`
}

// Build captures the given live sessions and player bindings into a State.
func Build(sessions map[string]*session.Session, playerList []players.Player) State {
	state := State{
		Sessions: make([]SessionState, 0, len(sessions)),
		Players:  make([]PlayerBinding, 0, len(playerList)),
	}
	for mapID, s := range sessions {
		state.Sessions = append(state.Sessions, sessionStateFrom(mapID, s))
	}
	for _, p := range playerList {
		sessionID := uint64(0)
		if s, ok := sessions[p.MapID]; ok {
			sessionID = s.ID
		}
		state.Players = append(state.Players, PlayerBinding{
			Token:     p.Token,
			MapID:     p.MapID,
			SessionID: sessionID,
			DogID:     p.DogID,
		})
	}
	return state
}

func sessionStateFrom(mapID string, s *session.Session) SessionState {
	dogs := s.Dogs()
	dogStates := make([]DogState, 0, len(dogs))
	for _, d := range dogs {
		bag := make([]BagItemState, 0, len(d.Bag))
		for _, item := range d.Bag {
			bag = append(bag, BagItemState{ID: item.ID, Type: item.Type, Worth: item.Worth})
		}
		dogStates = append(dogStates, DogState{
			ID:           d.ID,
			Name:         d.Name,
			Direction:    string(d.Direction),
			Position:     d.Position,
			PrevPosition: d.PrevPosition,
			Speed:        d.Velocity,
			Bag:          bag,
			Score:        d.Score,
		})
	}

	loot := s.LootObjects()
	lootStates := make([]LootState, 0, len(loot))
	for _, item := range loot {
		lootStates = append(lootStates, LootState{
			ID:       item.ID,
			Type:     item.Type,
			Worth:    item.Worth,
			Position: item.Position,
		})
	}

	return SessionState{
		MapID:          mapID,
		SessionID:      s.ID,
		DogsJoin:       s.DogsJoinCounter(),
		ObjectsSpawned: s.ObjectsSpawnedCounter(),
		Dogs:           dogStates,
		Loot:           lootStates,
	}
}

// Encode serializes a State to indented JSON.
func Encode(state State) ([]byte, error) {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("snapshot: encode: %w", err)
	}
	return data, nil
}

// Decode parses a State from JSON. A malformed file is reported as an
// error rather than partially applied, so a corrupt snapshot aborts
// startup instead of silently dropping state.
func Decode(data []byte) (State, error) {
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return State{}, fmt.Errorf("snapshot: decode: %w", err)
	}
	return state, nil
}

// WriteAtomic serializes state and installs it at path by writing to a
// sibling temp file and renaming over the target, so a crash mid-write
// never leaves a truncated snapshot in place.
func WriteAtomic(path string, state State) error {
	data, err := Encode(state)
	if err != nil {
		return err
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("snapshot: write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("snapshot: rename into place: %w", err)
	}
	return nil
}

// Load reads and decodes the snapshot at path. A missing file is not an
// error: it reports ok=false so the caller can start from a clean world.
func Load(path string) (State, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return State{}, false, nil
		}
		return State{}, false, fmt.Errorf("snapshot: reading %s: %w", path, err)
	}
	if len(data) == 0 {
		return State{}, false, nil
	}
	state, err := Decode(data)
	if err != nil {
		return State{}, false, err
	}
	return state, true, nil
}

// MapProvider is the subset of *registry.Registry needed to look up a
// map's immutable definition while restoring sessions.
type MapProvider interface {
	Map(id string) (*worldmap.Map, bool)
}

// SessionInstaller is the subset of *registry.Registry needed to install a
// restored session bypassing lazy creation.
type SessionInstaller interface {
	AddGameSession(mapID string, s *session.Session)
	Session(mapID string) (*session.Session, bool)
}

// SessionFactory is what Restore needs from the registry: it both looks up
// map definitions and installs the reconstructed sessions.
type SessionFactory interface {
	MapProvider
	SessionInstaller
}

// Tuning carries the session parameters that are not part of the snapshot
// itself: they come from the running server's config file and CLI flags,
// the same way they do for a freshly created session.
type Tuning struct {
	SpawnPolicy     session.SpawnPolicy
	RetireAfter     time.Duration
	LootPeriod      time.Duration
	LootProbability float64
	Sink            session.RetirementSink
}

// Restore reconstructs every session named in state via AddGameSession
// (preserving exact ids) and repopulates playerReg by resolving each
// binding's dog name from its restored session. A session naming an
// unknown map, or a binding naming an unknown map or a dog id absent from
// its session, makes Restore return an error, so a corrupt state file
// aborts startup instead of resuming with silently missing players.
// Sessions installed before the error is found stay installed.
func Restore(state State, factory SessionFactory, tuning Tuning, playerReg *players.Registry) error {
	for _, ss := range state.Sessions {
		m, ok := factory.Map(ss.MapID)
		if !ok {
			return fmt.Errorf("snapshot: unknown map %q in snapshot", ss.MapID)
		}
		s := session.Restore(session.RestoreConfig{
			Config: session.Config{
				Map:             m,
				ID:              ss.SessionID,
				SpawnPolicy:     tuning.SpawnPolicy,
				RetireAfter:     tuning.RetireAfter,
				LootPeriod:      tuning.LootPeriod,
				LootProbability: tuning.LootProbability,
				Sink:            tuning.Sink,
			},
			DogsJoin:       ss.DogsJoin,
			ObjectsSpawned: ss.ObjectsSpawned,
			Dogs:           dogsFrom(ss.Dogs),
			Loot:           lootFrom(ss.Loot),
		})
		factory.AddGameSession(ss.MapID, s)
	}

	bindings := make([]players.Player, 0, len(state.Players))
	for _, pb := range state.Players {
		s, ok := factory.Session(pb.MapID)
		if !ok {
			return fmt.Errorf("snapshot: player binding references unknown map %q", pb.MapID)
		}
		dog, ok := s.Dog(pb.DogID)
		if !ok {
			return fmt.Errorf("snapshot: player binding references unknown dog %d on map %q", pb.DogID, pb.MapID)
		}
		bindings = append(bindings, players.Player{
			Token: pb.Token,
			DogID: pb.DogID,
			MapID: pb.MapID,
			Name:  dog.Name,
		})
	}
	playerReg.Restore(bindings)
	return nil
}

func dogsFrom(states []DogState) []session.Dog {
	dogs := make([]session.Dog, 0, len(states))
	for _, ds := range states {
		dir, _ := session.ParseDirection(ds.Direction)
		bag := make([]session.LootObject, 0, len(ds.Bag))
		for _, item := range ds.Bag {
			bag = append(bag, session.LootObject{ID: item.ID, Type: item.Type, Worth: item.Worth})
		}
		dogs = append(dogs, session.Dog{
			ID:           ds.ID,
			Name:         ds.Name,
			Position:     ds.Position,
			PrevPosition: ds.PrevPosition,
			Direction:    dir,
			Velocity:     ds.Speed,
			Score:        ds.Score,
			Bag:          bag,
		})
	}
	return dogs
}

func lootFrom(states []LootState) []session.LootObject {
	loot := make([]session.LootObject, 0, len(states))
	for _, ls := range states {
		loot = append(loot, session.LootObject{ID: ls.ID, Type: ls.Type, Worth: ls.Worth, Position: ls.Position})
	}
	return loot
}
