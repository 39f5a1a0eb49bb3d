// Package coordinator owns the playback queue state machine. The daemon
// process can be torn down between any two steps, so every transition
// reloads the authoritative session from the store before computing the
// next state; in-memory copies are never trusted across a suspension
// point. Delayed re-entry (advancing the queue, releasing the idle audio
// process) goes through durable timers for the same reason: an in-memory
// timer would die with the process, a persisted one fires in its
// replacement.
package coordinator

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/MahMoudMostaAfa/azkar/internal/bus"
	"github.com/MahMoudMostaAfa/azkar/internal/executor"
	"github.com/MahMoudMostaAfa/azkar/internal/session"
)

// Durable timer names owned by the coordinator. They are independent:
// scheduling one never clobbers the other.
const (
	AlarmAdvance = "advance-queue"
	AlarmRelease = "release-executor"
)

// Scheduler is the durable delayed-callback port.
type Scheduler interface {
	Schedule(name string, delay time.Duration) error
}

// Pacing holds the delays between queue steps. The magnitudes are tuned
// by ear, not principled constants.
type Pacing struct {
	SkipDelay    time.Duration // next item after one with no audio
	EndedDelay   time.Duration // next item after a natural end
	ErrorDelay   time.Duration // next item after a failed one
	ReleaseDelay time.Duration // idle audio process teardown
}

// DefaultPacing returns the stock delays.
func DefaultPacing() Pacing {
	return Pacing{
		SkipDelay:    500 * time.Millisecond,
		EndedDelay:   900 * time.Millisecond,
		ErrorDelay:   600 * time.Millisecond,
		ReleaseDelay: 3 * time.Second,
	}
}

// Coordinator drives sequential playback of single items and "play all"
// queues through the audio executor.
type Coordinator struct {
	store  session.Store
	exec   executor.Executor
	sched  Scheduler
	bus    *bus.Broadcaster
	pacing Pacing
}

// New creates a coordinator. The store is the source of truth; bus
// receives a StateUpdate after every transition.
func New(store session.Store, exec executor.Executor, sched Scheduler, b *bus.Broadcaster, pacing Pacing) *Coordinator {
	return &Coordinator{
		store:  store,
		exec:   exec,
		sched:  sched,
		bus:    b,
		pacing: pacing,
	}
}

// StartQueue begins a traversal over items, replacing any current queue or
// single playback, and immediately attempts to play the first item.
func (c *Coordinator) StartQueue(ctx context.Context, items []session.Item, categoryKey string) {
	s := c.store.Load(ctx)
	s.QueueItems = items
	s.QueueIndex = 0
	s.QueueActive = true
	s.QueueCategory = categoryKey
	s.SingleIndex = -1
	c.store.Save(ctx, s)

	logrus.WithFields(logrus.Fields{
		"category": categoryKey,
		"items":    len(items),
	}).Debug("queue started")

	c.Advance(ctx)
}

// Advance dispatches the queue item at the current index, or finishes the
// traversal when none is left. It reloads the persisted session first, so
// a stale wake firing after StopQueue sees an inactive queue and becomes a
// no-op.
func (c *Coordinator) Advance(ctx context.Context) {
	s := c.store.Load(ctx)

	if !s.QueueActive || s.QueueDone() {
		wasActive := s.QueueActive
		s.ResetQueue()
		s.Playing = false
		c.store.Save(ctx, s)
		c.broadcastState(s)
		if wasActive {
			// One-shot completion event, distinct from the snapshot so a
			// UI can show a single toast instead of reacting to polls.
			c.bus.Broadcast(bus.QueueFinished{})
			logrus.Debug("queue finished")
		}
		c.schedule(AlarmRelease, c.pacing.ReleaseDelay)
		return
	}

	item := s.QueueItems[s.QueueIndex]
	if item.Locator == "" {
		// Catalog entries without audio are skipped via a durable timer
		// rather than a tight loop, so the skip survives a restart.
		s.QueueIndex++
		c.store.Save(ctx, s)
		c.schedule(AlarmAdvance, c.pacing.SkipDelay)
		return
	}

	s.Playing = true
	c.store.Save(ctx, s)
	c.broadcastState(s)

	if !c.exec.Play(ctx, item.Locator) {
		// Executor unreachable: treat like a failed item and move past it.
		s = c.store.Load(ctx)
		if !s.QueueActive {
			return
		}
		s.Playing = false
		s.QueueIndex++
		c.store.Save(ctx, s)
		c.schedule(AlarmAdvance, c.pacing.ErrorDelay)
	}
}

// StopQueue cancels the traversal and resets the session to idle.
// Idempotent: stopping with no active queue leaves state unchanged beyond
// an idempotent executor stop.
func (c *Coordinator) StopQueue(ctx context.Context) {
	s := c.store.Load(ctx)
	s.ResetQueue()
	s.Playing = false
	s.SingleIndex = -1
	c.store.Save(ctx, s)
	c.exec.Stop(ctx)
	c.broadcastState(s)
}

// StartSingle plays one item outside any queue. An active traversal is
// cancelled: the audio process is a singleton, so the modes are mutually
// exclusive.
func (c *Coordinator) StartSingle(ctx context.Context, locator string, itemIndex int) {
	s := c.store.Load(ctx)
	s.ResetQueue()
	s.SingleIndex = itemIndex
	s.Playing = true
	c.store.Save(ctx, s)
	c.broadcastState(s)

	if locator != "" {
		c.exec.Play(ctx, locator)
	}
}

// StopSingle stops single-item playback.
func (c *Coordinator) StopSingle(ctx context.Context) {
	s := c.store.Load(ctx)
	s.Playing = false
	s.SingleIndex = -1
	c.exec.Stop(ctx)
	c.store.Save(ctx, s)
	c.broadcastState(s)
}

// HandleExecutorEvent absorbs a lifecycle report from the audio process.
// The session is reloaded first: the event may refer to playback started
// by an earlier daemon process, or to one already stopped — stale events
// degrade to idempotent no-ops against the current intent.
func (c *Coordinator) HandleExecutorEvent(ctx context.Context, ev executor.Event) {
	s := c.store.Load(ctx)

	switch ev.Kind {
	case executor.Started:
		s.Playing = true
		c.store.Save(ctx, s)
		c.broadcastState(s)

	case executor.Ended:
		s.Playing = false
		if s.QueueActive {
			s.QueueIndex++
			c.store.Save(ctx, s)
			c.schedule(AlarmAdvance, c.pacing.EndedDelay)
		} else {
			s.SingleIndex = -1
			c.store.Save(ctx, s)
			c.broadcastState(s)
			c.schedule(AlarmRelease, c.pacing.ReleaseDelay)
		}

	case executor.Error:
		if ev.Detail != "" {
			logrus.WithField("detail", ev.Detail).Debug("playback error reported")
		}
		s.Playing = false
		if s.QueueActive {
			// Skip the failing item; individual failures stay silent so a
			// reminder flow is not interrupted by technical errors.
			s.QueueIndex++
			c.store.Save(ctx, s)
			c.schedule(AlarmAdvance, c.pacing.ErrorDelay)
		} else {
			s.SingleIndex = -1
			c.store.Save(ctx, s)
			c.broadcastState(s)
		}
	}
}

// HandleAlarm routes a durable timer wake to its action. Returns false for
// names the coordinator does not own.
func (c *Coordinator) HandleAlarm(ctx context.Context, name string) bool {
	switch name {
	case AlarmAdvance:
		c.Advance(ctx)
	case AlarmRelease:
		c.exec.Release(ctx)
	default:
		return false
	}
	return true
}

// Snapshot reloads the session and returns its flattened broadcast form.
func (c *Coordinator) Snapshot(ctx context.Context) bus.StateUpdate {
	return snapshot(c.store.Load(ctx))
}

func (c *Coordinator) broadcastState(s session.Session) {
	c.bus.Broadcast(snapshot(s))
}

func (c *Coordinator) schedule(name string, delay time.Duration) {
	if err := c.sched.Schedule(name, delay); err != nil {
		logrus.WithError(err).WithField("alarm", name).Warn("coordinator: schedule failed")
	}
}

func snapshot(s session.Session) bus.StateUpdate {
	return bus.StateUpdate{
		Playing:              s.Playing,
		QueueActive:          s.QueueActive,
		QueueIndex:           s.QueueIndex,
		QueueTotal:           len(s.QueueItems),
		QueueCategory:        s.QueueCategory,
		SingleIndex:          s.SingleIndex,
		CurrentOriginalIndex: s.CurrentOriginalIndex(),
	}
}
