// Package app is the application orchestrator: the use-case façade sitting
// between the HTTP surface and the simulation. Every use-case that touches
// live game state dispatches onto a single strand, so the simulation is
// mutated by exactly one goroutine at a time regardless of how many HTTP
// requests arrive concurrently.
package app

import (
	"context"
	"fmt"
	"time"

	"dogloot/server/internal/persistence"
	"dogloot/server/internal/players"
	"dogloot/server/internal/records"
	"dogloot/server/internal/registry"
	"dogloot/server/internal/strand"
	"dogloot/server/logging"
	"dogloot/server/session"
)

// Error is a use-case failure tagged with the code the HTTP layer maps to a
// status and JSON body.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

// Well-known use-case errors, matched by the HTTP layer via errors.Is.
var (
	ErrMapNotFound   = &Error{Code: "mapNotFound", Message: "map not found"}
	ErrTokenUnknown  = &Error{Code: "unknownToken", Message: "player token was not found"}
	ErrTickForbidden = &Error{Code: "badRequest", Message: "Invalid endpoint"}
	ErrBadDirection  = &Error{Code: "invalidArgument", Message: "invalid move direction"}
)

// ApplicationListener receives every tick, after simulation advancement
// completes. Used for snapshot-on-interval; the orchestrator holds at most
// one.
type ApplicationListener interface {
	OnTick(dt time.Duration)
}

// Config bundles everything the orchestrator needs at construction. The
// registry is supplied already wired with this application's DogRetire as
// its sessions' retirement sink (see NewRegistrySink).
type Config struct {
	Registry       *registry.Registry
	Players        *players.Registry
	UnitOfWorkFactory persistence.UnitOfWorkFactory
	Strand         *strand.Strand
	ManualTickMode bool
	Logger         logging.Publisher
}

// Application is the use-case façade described by the orchestrator design.
type Application struct {
	registry   *registry.Registry
	players    *players.Registry
	uowFactory persistence.UnitOfWorkFactory
	strand     *strand.Strand
	manualTick bool
	logger     logging.Publisher
	listener   ApplicationListener
}

// New constructs the orchestrator. Call SetListener afterward if a snapshot
// scheduler needs tick notifications.
func New(cfg Config) *Application {
	if cfg.Logger == nil {
		cfg.Logger = logging.NopPublisher()
	}
	return &Application{
		registry:   cfg.Registry,
		players:    cfg.Players,
		uowFactory: cfg.UnitOfWorkFactory,
		strand:     cfg.Strand,
		manualTick: cfg.ManualTickMode,
		logger:     cfg.Logger,
	}
}

// SetListener installs the application's single tick listener.
func (a *Application) SetListener(l ApplicationListener) {
	a.listener = l
}

// SetRegistry attaches the game registry once it has been constructed with
// this application's DogRetire wired as its sessions' retirement sink (see
// NewRegistrySink). Use-cases panic if invoked before this is called.
func (a *Application) SetRegistry(reg *registry.Registry) {
	a.registry = reg
}

// NewRegistrySink returns the session.RetirementSink that should be handed
// to registry.Config.Sink before the registry containing app-managed
// sessions is constructed with this application.
func NewRegistrySink(a *Application) session.RetirementSink {
	return a.DogRetire
}

// DogRetire is the retirement sink invoked synchronously by a session's tick
// pipeline, which itself runs on the simulation strand: it must never block
// on I/O. It unregisters the player immediately (in-memory, safe to do
// inline) and hands the persistence write off to a background goroutine.
// Retiring a dog already absent from the player registry is a no-op,
// matching the reference implementation's idempotent short-circuit.
func (a *Application) DogRetire(dogID uint64, mapID string, name string, score int, playTime time.Duration) {
	if a.players == nil || !a.players.RetireIfPresent(dogID, mapID) {
		return
	}
	if a.uowFactory == nil {
		return
	}
	record := records.NewRetiredPlayer(name, score, playTime)
	go a.persistRetirement(record)
}

func (a *Application) persistRetirement(record records.RetiredPlayer) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	uow, err := a.uowFactory.Create(ctx)
	if err != nil {
		a.logError(ctx, "retired player persistence failed", err)
		return
	}
	defer uow.Rollback(ctx)

	if err := uow.PlayerRepository().Save(ctx, record); err != nil {
		a.logError(ctx, "retired player save failed", err)
		return
	}
	if err := uow.Commit(ctx); err != nil {
		a.logError(ctx, "retired player commit failed", err)
	}
}

func (a *Application) logError(ctx context.Context, message string, err error) {
	a.logger.Publish(ctx, logging.Event{
		Message:  message,
		Severity: logging.SeverityError,
		Data:     map[string]any{"error": err.Error()},
	})
}

// tick advances every session by dt and notifies the listener, all under
// one strand job so a snapshot listener always observes a settled world.
func (a *Application) tick(ctx context.Context, dt time.Duration) error {
	return a.strand.Do(ctx, func() error {
		a.registry.OnTick(dt)
		if a.listener != nil {
			a.listener.OnTick(dt)
		}
		return nil
	})
}

// TimeTick is the manual-tick-mode HTTP use-case. It only succeeds when the
// server was started without a CLI tick period.
func (a *Application) TimeTick(ctx context.Context, dt time.Duration) error {
	if !a.manualTick {
		return ErrTickForbidden
	}
	return a.tick(ctx, dt)
}

// DriveTick is called by the server-driven ticker when a CLI tick period is
// configured; it bypasses the manual-tick-mode gate TimeTick enforces.
func (a *Application) DriveTick(ctx context.Context, dt time.Duration) error {
	return a.tick(ctx, dt)
}

// Records serves the retired-player leaderboard. It never touches the
// strand: records are a read against the persistence store, not simulation
// state.
func (a *Application) Records(ctx context.Context, offset, limit int) ([]records.RetiredPlayer, error) {
	if limit > 100 {
		limit = 100
	}
	if limit < 0 {
		limit = 0
	}
	if offset < 0 {
		offset = 0
	}
	if a.uowFactory == nil {
		return nil, nil
	}
	uow, err := a.uowFactory.Create(ctx)
	if err != nil {
		return nil, fmt.Errorf("app: opening unit of work: %w", err)
	}
	defer uow.Rollback(ctx)
	return uow.PlayerRepository().List(ctx, offset, limit)
}
