package biz

import (
	"context"
	"sync"
	"time"

	"VisionGuard/internal/conf"
	"VisionGuard/internal/model"

	pkglog "VisionGuard/pkg/log"

	"github.com/go-kratos/kratos/v2/log"
)

// TransitionLogger persists capability status transitions for the history
// table. Implementations are fire-and-forget: they must never block or fail
// the poll tick.
type TransitionLogger interface {
	LogTransition(ctx context.Context, event *model.StatusChangedEvent)
}

// HealthPoller is the single background loop of the subsystem. Each tick it
// pulls every breaker's state into the manager and, when any capability
// changed status, records the transitions and pushes the fresh aggregate
// snapshot through the fanout. Ticks run on one goroutine so they can never
// overlap; the next tick starts only after the previous one (including
// notification dispatch) has finished and the interval has elapsed.
type HealthPoller struct {
	manager     *DegradationManager
	fanout      *StatusFanout
	transitions TransitionLogger
	interval    time.Duration

	mu      sync.Mutex
	done    chan struct{}
	wg      sync.WaitGroup
	running bool

	logger *pkglog.LogHelper
}

// NewHealthPoller creates a stopped poller with the configured tick interval.
func NewHealthPoller(c *conf.Degradation, manager *DegradationManager, fanout *StatusFanout, transitions TransitionLogger, logger log.Logger) *HealthPoller {
	return &HealthPoller{
		manager:     manager,
		fanout:      fanout,
		transitions: transitions,
		interval:    c.PollInterval.AsDuration(),
		logger:      pkglog.NewLogHelper(logger),
	}
}

// Start launches the polling loop. Calling Start on a running poller is a
// no-op.
func (p *HealthPoller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return
	}
	p.running = true
	p.done = make(chan struct{})

	p.wg.Add(1)
	go p.run(p.done)

	p.logger.Health("health poller started", "interval", p.interval)
}

// Stop signals cooperative termination and waits for the in-flight tick
// (including notification dispatch) to finish. Calling Stop on a stopped
// poller is a no-op. After Stop returns no further ticks occur.
func (p *HealthPoller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.done)
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Health("health poller stopped")
}

// run drives the ticker loop until the done channel closes.
func (p *HealthPoller) run(done chan struct{}) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.Tick(context.Background())
		case <-done:
			return
		}
	}
}

// Tick performs one poll cycle. Exposed so the composition root can prime
// the service state before serving traffic.
func (p *HealthPoller) Tick(ctx context.Context) {
	p.manager.Refresh()

	// Drain instead of using the refresh result: transitions observed by a
	// read-through status request between ticks are still queued here.
	changes := p.manager.DrainEvents()
	if len(changes) == 0 {
		return
	}

	snapshot := p.manager.Status()

	p.logger.Health("degradation status changed",
		"level", snapshot.Level,
		"changed_capabilities", len(changes))

	if p.transitions != nil {
		for i := range changes {
			p.transitions.LogTransition(ctx, &changes[i])
		}
	}

	p.fanout.Notify(ctx, snapshot)
}
