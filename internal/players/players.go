// Package players tracks the bearer token issued to each connected client
// and the live dog/map pair it authenticates, independent of any one map's
// session bookkeeping. A Registry is owned by the application layer and
// consulted (never mutated) by the HTTP handlers.
package players

import (
	"dogloot/server/internal/token"
)

// Player is one authenticated client's join record.
type Player struct {
	Token string
	DogID uint64
	MapID string
	Name  string
}

// key identifies a player by the pair a map's tick pipeline actually knows:
// which dog, on which map.
type key struct {
	dogID uint64
	mapID string
}

// Registry maps tokens to players and back, generating a fresh token for
// every join.
type Registry struct {
	byToken map[string]*Player
	byDog   map[key]*Player
}

// New constructs an empty registry.
func New() *Registry {
	return &Registry{
		byToken: make(map[string]*Player),
		byDog:   make(map[key]*Player),
	}
}

// Join mints a token for a freshly created dog and records the mapping. It
// retries token generation on the astronomically unlikely event of a
// collision, matching the reference generator's regenerate-on-collision
// behavior.
func (r *Registry) Join(dogID uint64, mapID, name string) (*Player, error) {
	for {
		t, err := token.Generate()
		if err != nil {
			return nil, err
		}
		if _, exists := r.byToken[t]; exists {
			continue
		}
		p := &Player{Token: t, DogID: dogID, MapID: mapID, Name: name}
		r.byToken[t] = p
		r.byDog[key{dogID: dogID, mapID: mapID}] = p
		return p, nil
	}
}

// FindByToken looks up the player authenticated by a bearer token.
func (r *Registry) FindByToken(t string) (*Player, bool) {
	p, ok := r.byToken[t]
	return p, ok
}

// Retire removes a player's registration, e.g. once its dog has retired
// from play. Retiring an unknown (dogID, mapID) pair is a no-op.
func (r *Registry) Retire(dogID uint64, mapID string) {
	r.RetireIfPresent(dogID, mapID)
}

// RetireIfPresent removes a player's registration and reports whether it was
// still present. Used by the retirement use-case to short-circuit an
// already-processed retirement instead of persisting a duplicate record.
func (r *Registry) RetireIfPresent(dogID uint64, mapID string) bool {
	k := key{dogID: dogID, mapID: mapID}
	p, ok := r.byDog[k]
	if !ok {
		return false
	}
	delete(r.byDog, k)
	delete(r.byToken, p.Token)
	return true
}

// Count reports how many players are currently registered.
func (r *Registry) Count() int {
	return len(r.byToken)
}

// Snapshot returns every currently registered player, for persistence
// across a restart.
func (r *Registry) Snapshot() []Player {
	out := make([]Player, 0, len(r.byToken))
	for _, p := range r.byToken {
		out = append(out, *p)
	}
	return out
}

// Restore repopulates the registry from a prior Snapshot, preserving the
// original tokens rather than minting new ones.
func (r *Registry) Restore(players []Player) {
	for _, p := range players {
		cp := p
		r.byToken[cp.Token] = &cp
		r.byDog[key{dogID: cp.DogID, mapID: cp.MapID}] = &cp
	}
}
