// Package poller drives the periodic sync cycle across all monitored users.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomas1pit/loop-calendar-bot/internal/caldav"
	"github.com/tomas1pit/loop-calendar-bot/internal/diff"
	"github.com/tomas1pit/loop-calendar-bot/internal/metrics"
	"github.com/tomas1pit/loop-calendar-bot/internal/schedule"
	"github.com/tomas1pit/loop-calendar-bot/internal/store"
)

// alignTolerance absorbs timer wakeup jitter: a wakeup this close after a
// slot boundary still counts as that slot.
const alignTolerance = 50 * time.Millisecond

// Fetcher retrieves a user's events for a window.
type Fetcher interface {
	FetchEvents(ctx context.Context, start, end time.Time) caldav.FetchResult
}

// ClientFactory builds the protocol client for one user.
type ClientFactory func(user store.User) Fetcher

// Poller runs the aligned tick loop: every interval it fans out over all
// users, fetches their events, diffs them against snapshots, and evaluates
// reminders and the daily digest.
type Poller struct {
	store     *store.Store
	clientFor ClientFactory
	engine    *diff.Engine
	reminders *schedule.Reminders
	digest    *schedule.Digest

	interval    time.Duration
	workerLimit int
	loc         *time.Location
	log         zerolog.Logger

	mu       sync.Mutex
	inFlight map[int64]bool
}

// New wires a poller.
func New(st *store.Store, clientFor ClientFactory, engine *diff.Engine, reminders *schedule.Reminders, digest *schedule.Digest, interval time.Duration, workerLimit int, loc *time.Location, log zerolog.Logger) *Poller {
	return &Poller{
		store:       st,
		clientFor:   clientFor,
		engine:      engine,
		reminders:   reminders,
		digest:      digest,
		interval:    interval,
		workerLimit: workerLimit,
		loc:         loc,
		log:         log,
		inFlight:    make(map[int64]bool),
	}
}

// Run executes aligned ticks until the context is cancelled. Tick boundaries
// are aligned to wall-clock multiples of the interval so restarts do not
// drift the schedule.
func (p *Poller) Run(ctx context.Context) error {
	for {
		next := nextTick(time.Now(), p.interval)
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		p.tick(ctx, next)
	}
}

// nextTick returns the boundary the next tick fires at. A now within the
// tolerance after a boundary still belongs to that boundary.
func nextTick(now time.Time, interval time.Duration) time.Time {
	slot := now.Truncate(interval)
	if now.Sub(slot) <= alignTolerance {
		return slot
	}
	return slot.Add(interval)
}

// tick processes every user concurrently, bounded by the worker limit. A
// user still being processed from an earlier tick is skipped, never run
// twice in parallel.
func (p *Poller) tick(ctx context.Context, at time.Time) {
	started := time.Now()
	defer metrics.ObserveTick(started)

	users, err := p.store.Users.List(ctx)
	if err != nil {
		p.log.Error().Err(err).Msg("user listing failed, skipping tick")
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workerLimit)
	for _, user := range users {
		if !p.acquire(user.ID) {
			p.log.Warn().Int64("user_id", user.ID).Msg("previous cycle still running, skipping")
			continue
		}
		user := user
		g.Go(func() error {
			defer p.release(user.ID)
			if err := p.processUser(gctx, user, at); err != nil {
				metrics.ObserveUserFailure()
				p.log.Error().Err(err).Int64("user_id", user.ID).Msg("user cycle failed")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		p.log.Error().Err(err).Msg("tick aborted")
	}
}

// processUser runs one user's full cycle: fetch today+tomorrow, diff,
// reminders, digest.
func (p *Poller) processUser(ctx context.Context, user store.User, at time.Time) error {
	local := at.In(p.loc)
	windowStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, p.loc)
	windowEnd := windowStart.AddDate(0, 0, 2)

	client := p.clientFor(user)
	result := client.FetchEvents(ctx, windowStart, windowEnd)
	p.log.Debug().
		Int64("user_id", user.ID).
		Int("events", len(result.Events)).
		Bool("trustworthy", result.Trustworthy).
		Msg("fetch complete")

	if err := p.engine.Run(ctx, user.ID, result.Events, windowStart, windowEnd, result.Trustworthy); err != nil {
		return err
	}

	p.reminders.Evaluate(ctx, user.ID, result.Events, at)

	return p.digest.Run(ctx, user.ID, result.Events, at)
}

func (p *Poller) acquire(userID int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inFlight[userID] {
		return false
	}
	p.inFlight[userID] = true
	return true
}

func (p *Poller) release(userID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.inFlight, userID)
}
