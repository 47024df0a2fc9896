// Package strand serializes every mutation of the game's simulation state
// through a single consumer goroutine, generalizing the reference command
// buffer's producer/consumer split: instead of only accepting fire-and-forget
// commands, a strand also lets a caller submit a job and block for its
// result, so reads (GetGameState) and writes (MovePlayer) share one
// ordering guarantee without a caller having to reason about locks.
package strand

import (
	"context"
	"errors"
)

// ErrClosed is returned by Do and Go when the strand has already been
// closed.
var ErrClosed = errors.New("strand: closed")

// Strand runs submitted jobs one at a time, in submission order, on its own
// goroutine.
type Strand struct {
	jobs   chan func()
	closed chan struct{}
	done   chan struct{}
}

// New starts a strand with the given job queue capacity. A capacity of 0
// makes every submission synchronous with the consumer picking it up.
func New(capacity int) *Strand {
	if capacity < 0 {
		capacity = 0
	}
	s := &Strand{
		jobs:   make(chan func(), capacity),
		closed: make(chan struct{}),
		done:   make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Strand) run() {
	defer close(s.done)
	for job := range s.jobs {
		job()
	}
}

// Do submits fn and blocks until it has run on the strand's goroutine,
// returning whatever error fn returns. If ctx is canceled before fn runs,
// Do returns ctx.Err() without waiting further, though fn may still run
// later; callers that need cancellation to prevent fn's side effects must
// have fn check ctx itself.
func (s *Strand) Do(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	job := func() { result <- fn() }

	select {
	case <-s.closed:
		return ErrClosed
	default:
	}

	select {
	case s.jobs <- job:
	case <-s.closed:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Go submits fn without waiting for it to run, for callers that have no
// result to collect.
func (s *Strand) Go(fn func()) error {
	select {
	case <-s.closed:
		return ErrClosed
	default:
	}
	select {
	case s.jobs <- fn:
		return nil
	case <-s.closed:
		return ErrClosed
	}
}

// Close stops accepting new jobs and waits for the consumer to drain
// whatever was already queued.
func (s *Strand) Close() {
	select {
	case <-s.closed:
		return
	default:
		close(s.closed)
	}
	close(s.jobs)
	<-s.done
}
