// Package persistence implements the retired-player repository against
// PostgreSQL, behind the UnitOfWork/UnitOfWorkFactory ports the application
// layer depends on. Every unit of work owns exactly one pooled connection
// for its lifetime and returns it to the pool on commit or rollback.
package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dogloot/server/internal/records"
)

// UnitOfWork scopes one transaction against the retired-players store.
type UnitOfWork interface {
	PlayerRepository() records.Repository
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UnitOfWorkFactory opens a UnitOfWork against a pooled connection.
type UnitOfWorkFactory interface {
	Create(ctx context.Context) (UnitOfWork, error)
	Close()
}

// schemaSQL is applied once at startup; CREATE TABLE/INDEX IF NOT EXISTS
// makes it safe to run against an already-initialized database.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS retired_players (
	id UUID PRIMARY KEY,
	name VARCHAR(100) NOT NULL,
	score INTEGER NOT NULL,
	play_time_ms INTEGER NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS retired_players_leaderboard_idx
	ON retired_players (score DESC, play_time_ms, name);
`

// PostgresFactory is the production UnitOfWorkFactory, backed by a fixed-size
// pgx connection pool whose size the caller passes to NewPostgresFactory
// (the server passes the logical CPU count).
type PostgresFactory struct {
	pool *pgxpool.Pool
}

// NewPostgresFactory connects to dbURL, sizes the pool to maxConns, and
// applies the schema idempotently before returning.
func NewPostgresFactory(ctx context.Context, dbURL string, maxConns int) (*PostgresFactory, error) {
	cfg, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("persistence: parsing GAME_DB_URL: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = int32(maxConns)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("persistence: connecting to database: %w", err)
	}
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("persistence: applying schema: %w", err)
	}
	return &PostgresFactory{pool: pool}, nil
}

// Create opens a transaction on a pooled connection.
func (f *PostgresFactory) Create(ctx context.Context) (UnitOfWork, error) {
	tx, err := f.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("persistence: beginning transaction: %w", err)
	}
	return &postgresUnitOfWork{tx: tx}, nil
}

// Close drains the pool. Called once, at server shutdown.
func (f *PostgresFactory) Close() {
	f.pool.Close()
}

type postgresUnitOfWork struct {
	tx   pgx.Tx
	repo *postgresPlayerRepository
}

func (u *postgresUnitOfWork) PlayerRepository() records.Repository {
	if u.repo == nil {
		u.repo = &postgresPlayerRepository{tx: u.tx}
	}
	return u.repo
}

func (u *postgresUnitOfWork) Commit(ctx context.Context) error {
	if err := u.tx.Commit(ctx); err != nil {
		return fmt.Errorf("persistence: commit: %w", err)
	}
	return nil
}

func (u *postgresUnitOfWork) Rollback(ctx context.Context) error {
	err := u.tx.Rollback(ctx)
	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("persistence: rollback: %w", err)
	}
	return nil
}

type postgresPlayerRepository struct {
	tx pgx.Tx
}

func (r *postgresPlayerRepository) Save(ctx context.Context, player records.RetiredPlayer) error {
	_, err := r.tx.Exec(ctx,
		`INSERT INTO retired_players (id, name, score, play_time_ms) VALUES ($1, $2, $3, $4)`,
		player.ID, player.Name, player.Score, player.PlayTime.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("persistence: saving retired player: %w", err)
	}
	return nil
}

func (r *postgresPlayerRepository) List(ctx context.Context, offset, limit int) ([]records.RetiredPlayer, error) {
	rows, err := r.tx.Query(ctx,
		`SELECT id, name, score, play_time_ms FROM retired_players
		 ORDER BY score DESC, play_time_ms ASC, name ASC
		 OFFSET $1 LIMIT $2`,
		offset, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("persistence: listing retired players: %w", err)
	}
	defer rows.Close()

	var out []records.RetiredPlayer
	for rows.Next() {
		var (
			p         records.RetiredPlayer
			playTimeMs int64
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Score, &playTimeMs); err != nil {
			return nil, fmt.Errorf("persistence: scanning retired player: %w", err)
		}
		p.PlayTime = durationFromMillis(playTimeMs)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("persistence: iterating retired players: %w", err)
	}
	return out, nil
}

func durationFromMillis(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
