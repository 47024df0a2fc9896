// Package records defines the retired-player leaderboard entry and the
// repository interface that persists it, used by the application layer,
// which produces records as dogs retire and serves them through the records
// use case.
package records

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RetiredPlayer is a permanent leaderboard entry created when a dog retires
// from play.
type RetiredPlayer struct {
	ID       uuid.UUID
	Name     string
	Score    int
	PlayTime time.Duration
}

// NewRetiredPlayer stamps a fresh id onto a retirement record.
func NewRetiredPlayer(name string, score int, playTime time.Duration) RetiredPlayer {
	return RetiredPlayer{ID: uuid.New(), Name: name, Score: score, PlayTime: playTime}
}

// Repository persists and serves retired-player records. Implementations
// must return records ordered by descending score, ascending play time (the
// tie-break the leaderboard use case relies on).
type Repository interface {
	Save(ctx context.Context, player RetiredPlayer) error
	List(ctx context.Context, offset, limit int) ([]RetiredPlayer, error)
}
