package app

import (
	"context"

	"dogloot/server/geometry"
	"dogloot/server/session"
	"dogloot/server/worldmap"
)

// MapIDs lists every configured map id, in configuration order. Reading
// map definitions never touches live session state, so this bypasses the
// strand.
func (a *Application) MapIDs() []string {
	return a.registry.MapIDs()
}

// Map looks up a map's immutable definition by id.
func (a *Application) Map(id string) (*worldmap.Map, bool) {
	return a.registry.Map(id)
}

// JoinPlayer creates a dog on the named map, registers a player for it, and
// returns the freshly minted bearer token and dog id.
func (a *Application) JoinPlayer(ctx context.Context, mapID, dogName string) (token string, dogID uint64, err error) {
	err = a.strand.Do(ctx, func() error {
		sess, ok := a.registry.Session(mapID)
		if !ok {
			return ErrMapNotFound
		}
		dog := sess.JoinDog(dogName)
		player, joinErr := a.players.Join(dog.ID, mapID, dogName)
		if joinErr != nil {
			sess.RemoveDog(dog.ID)
			return joinErr
		}
		token = player.Token
		dogID = dog.ID
		return nil
	})
	return token, dogID, err
}

// ResolveMapID reports which map the caller's token is playing on, for
// callers (the websocket stream subscriber) that need to route by map
// without pulling a full game-state snapshot.
func (a *Application) ResolveMapID(ctx context.Context, token string) (string, error) {
	var mapID string
	err := a.strand.Do(ctx, func() error {
		player, ok := a.players.FindByToken(token)
		if !ok {
			return ErrTokenUnknown
		}
		mapID = player.MapID
		return nil
	})
	return mapID, err
}

// GetPlayers lists every dog currently sharing the caller's map.
func (a *Application) GetPlayers(ctx context.Context, token string) ([]PlayerSummary, error) {
	var out []PlayerSummary
	err := a.strand.Do(ctx, func() error {
		player, ok := a.players.FindByToken(token)
		if !ok {
			return ErrTokenUnknown
		}
		sess, ok := a.registry.Session(player.MapID)
		if !ok {
			return ErrTokenUnknown
		}
		for _, dog := range sess.Dogs() {
			out = append(out, PlayerSummary{DogID: dog.ID, Name: dog.Name})
		}
		return nil
	})
	return out, err
}

// GetGameState returns every dog and loot item live on the caller's map.
func (a *Application) GetGameState(ctx context.Context, token string) (GameState, error) {
	var state GameState
	err := a.strand.Do(ctx, func() error {
		player, ok := a.players.FindByToken(token)
		if !ok {
			return ErrTokenUnknown
		}
		sess, ok := a.registry.Session(player.MapID)
		if !ok {
			return ErrTokenUnknown
		}
		for _, dog := range sess.Dogs() {
			bag := make([]BagItem, len(dog.Bag))
			for i, item := range dog.Bag {
				bag[i] = BagItem{ID: item.ID, Type: item.Type}
			}
			state.Players = append(state.Players, PlayerState{
				DogID:     dog.ID,
				Position:  [2]float64{dog.Position.X, dog.Position.Y},
				Velocity:  [2]float64{dog.Velocity.X, dog.Velocity.Y},
				Direction: string(dog.Direction),
				Bag:       bag,
				Score:     dog.Score,
			})
		}
		for _, item := range sess.LootObjects() {
			state.Loot = append(state.Loot, LootState{
				LootID:   item.ID,
				Type:     item.Type,
				Position: [2]float64{item.Position.X, item.Position.Y},
			})
		}
		return nil
	})
	return state, err
}

// MovePlayer sets the caller's dog in motion along dir at the map's default
// speed.
func (a *Application) MovePlayer(ctx context.Context, token string, dir session.Direction) error {
	return a.strand.Do(ctx, func() error {
		dog, sess, ok := a.lookupLocked(token)
		if !ok {
			return ErrTokenUnknown
		}
		vector := dir.Vector()
		speed := sess.Map.DogSpeed
		dog.SetVelocity(scale(vector, speed), dir)
		return nil
	})
}

// StopPlayer zeroes the caller's dog's velocity, holding it in place.
func (a *Application) StopPlayer(ctx context.Context, token string) error {
	return a.strand.Do(ctx, func() error {
		dog, _, ok := a.lookupLocked(token)
		if !ok {
			return ErrTokenUnknown
		}
		dog.Stop()
		return nil
	})
}

// lookupLocked resolves a token to its live dog and session. Must only be
// called from within a strand job.
func (a *Application) lookupLocked(token string) (*session.Dog, *session.Session, bool) {
	player, ok := a.players.FindByToken(token)
	if !ok {
		return nil, nil, false
	}
	sess, ok := a.registry.Session(player.MapID)
	if !ok {
		return nil, nil, false
	}
	dog, ok := sess.Dog(player.DogID)
	if !ok {
		return nil, nil, false
	}
	return dog, sess, true
}

func scale(p geometry.Point, s float64) geometry.Point {
	return geometry.Point{X: p.X * s, Y: p.Y * s}
}
