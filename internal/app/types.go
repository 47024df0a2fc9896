package app

// PlayerSummary is one entry of the GetPlayers use-case result.
type PlayerSummary struct {
	DogID uint64
	Name  string
}

// BagItem is one entry in a player's bag, as exposed over the state feed.
type BagItem struct {
	ID   uint64
	Type int
}

// PlayerState is one dog's full state, as exposed by GetGameState.
type PlayerState struct {
	DogID     uint64
	Position  [2]float64
	Velocity  [2]float64
	Direction string
	Bag       []BagItem
	Score     int
}

// LootState is one ground loot item's state, as exposed by GetGameState.
type LootState struct {
	LootID   uint64
	Type     int
	Position [2]float64
}

// GameState is the full result of the GetGameState use-case.
type GameState struct {
	Players []PlayerState
	Loot    []LootState
}
