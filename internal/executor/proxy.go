package executor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	defaultReadyTimeout = 2 * time.Second
)

// Proxy implements Executor over a Transport.
type Proxy struct {
	transport Transport

	readyTimeout time.Duration

	mu      sync.Mutex
	created bool
	ready   bool
	readyCh chan struct{} // closed once the readiness signal arrives
}

// NewProxy creates a proxy over the given transport.
func NewProxy(t Transport) *Proxy {
	return &Proxy{
		transport:    t,
		readyTimeout: defaultReadyTimeout,
		readyCh:      make(chan struct{}),
	}
}

// MarkReady records the readiness signal from the audio process. The
// signal is not correlated 1:1 with a Create call: it may arrive before
// Create returns, or for a process this proxy never started.
func (p *Proxy) MarkReady() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.ready {
		p.ready = true
		close(p.readyCh)
	}
}

func (p *Proxy) EnsureReady(ctx context.Context) bool {
	if exists, err := p.transport.Exists(ctx); err == nil && exists {
		// Already running, possibly from a previous daemon process.
		// Assume it finished loading long ago.
		p.MarkReady()
		p.mu.Lock()
		p.created = true
		p.mu.Unlock()
		return true
	}

	p.mu.Lock()
	if p.created {
		p.mu.Unlock()
		return true
	}
	// Fresh process: readiness must be re-signalled.
	if p.ready {
		p.ready = false
		p.readyCh = make(chan struct{})
	}
	p.mu.Unlock()

	if err := p.transport.Create(ctx); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			p.MarkReady()
			p.mu.Lock()
			p.created = true
			p.mu.Unlock()
			return true
		}
		logrus.WithError(err).Warn("executor: create failed")
		return false
	}

	p.mu.Lock()
	p.created = true
	ch := p.readyCh
	p.mu.Unlock()

	// First of: readiness signal, timeout, caller cancellation. On
	// timeout we assume ready: a dropped first command is preferred over
	// refusing to play at all.
	timer := time.NewTimer(p.readyTimeout)
	defer timer.Stop()
	select {
	case <-ch:
	case <-timer.C:
		logrus.Warn("executor: readiness signal timed out, assuming ready")
	case <-ctx.Done():
	}
	return true
}

func (p *Proxy) Play(ctx context.Context, locator string) bool {
	if !p.EnsureReady(ctx) {
		return false
	}
	if err := p.transport.SendPlay(ctx, locator); err != nil {
		logrus.WithError(err).WithField("locator", locator).Warn("executor: play failed")
		return false
	}
	return true
}

func (p *Proxy) Stop(ctx context.Context) {
	if err := p.transport.SendStop(ctx); err != nil {
		logrus.WithError(err).Debug("executor: stop failed")
	}
}

func (p *Proxy) Release(ctx context.Context) {
	p.mu.Lock()
	created := p.created
	p.created = false
	if p.ready {
		p.ready = false
		p.readyCh = make(chan struct{})
	}
	p.mu.Unlock()

	if !created {
		return
	}
	if err := p.transport.Destroy(ctx); err != nil {
		logrus.WithError(err).Debug("executor: destroy failed")
	}
}

// Verify Proxy implements Executor at compile time.
var _ Executor = (*Proxy)(nil)
