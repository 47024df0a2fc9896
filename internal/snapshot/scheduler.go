package snapshot

import (
	"context"
	"time"

	"dogloot/server/internal/players"
	"dogloot/server/internal/registry"
	"dogloot/server/logging"
)

// Scheduler implements app.ApplicationListener, firing an atomic snapshot
// write every configured interval. When --save-state-period is set the
// server installs it, together with the websocket stream hub, as the
// orchestrator's tick listener.
//
// OnTick runs on the simulation strand, where blocking I/O is forbidden,
// so it only accumulates elapsed time and, once due, captures an
// in-memory State before handing the actual file write off to a
// background goroutine.
type Scheduler struct {
	path     string
	interval time.Duration
	registry *registry.Registry
	players  *players.Registry
	logger   logging.Publisher

	accumulated time.Duration
}

// NewScheduler constructs a snapshot scheduler writing to path every
// interval.
func NewScheduler(path string, interval time.Duration, reg *registry.Registry, playerReg *players.Registry, logger logging.Publisher) *Scheduler {
	if logger == nil {
		logger = logging.NopPublisher()
	}
	return &Scheduler{path: path, interval: interval, registry: reg, players: playerReg, logger: logger}
}

// OnTick advances the scheduler's internal clock and, once the configured
// interval has elapsed, captures the current world state and dispatches
// its write to a background goroutine.
func (s *Scheduler) OnTick(dt time.Duration) {
	s.accumulated += dt
	if s.accumulated < s.interval {
		return
	}
	s.accumulated -= s.interval

	state := Build(s.registry.Sessions(), s.players.Snapshot())
	go s.writeAsync(state)
}

func (s *Scheduler) writeAsync(state State) {
	if err := WriteAtomic(s.path, state); err != nil {
		s.logger.Publish(context.Background(), logging.Event{
			Message:  "snapshot write failed",
			Severity: logging.SeverityError,
			Data:     map[string]any{"error": err.Error(), "path": s.path},
		})
	}
}

// Flush writes state synchronously, for a shutdown-time final snapshot:
// the process is exiting, so there is no strand left to keep unblocked.
func Flush(path string, reg *registry.Registry, playerReg *players.Registry) error {
	state := Build(reg.Sessions(), playerReg.Snapshot())
	return WriteAtomic(path, state)
}
