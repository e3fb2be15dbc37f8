package poller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/retailhub/portal-gateway/pkg/logger"
	"github.com/retailhub/portal-gateway/pkg/metrics"
)

const defaultInterval = 5 * time.Second

// FetchFunc loads one snapshot of backend state. Implementations publish
// their own result; the poller only tracks timing and outcome.
type FetchFunc func(ctx context.Context) error

// Params configure a poller.
type Params struct {
	Name     string
	Interval time.Duration
	Fetch    FetchFunc
	Logger   *logger.Logger
	Metrics  *metrics.PollerMetrics
}

// Poller repeats a fetch on a fixed cadence. The first fetch fires
// immediately on Start, later ones on every tick. Ticks never wait for a
// slow fetch to return; overlapping fetches are allowed and the consumer
// keeps whichever result lands last.
type Poller struct {
	name     string
	interval time.Duration
	fetch    FetchFunc
	logg     *logger.Logger
	metrics  *metrics.PollerMetrics

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	refresh chan struct{}
	fetches sync.WaitGroup
}

// New builds a poller.
func New(params Params) (*Poller, error) {
	if params.Name == "" {
		return nil, fmt.Errorf("poller name required")
	}
	if params.Fetch == nil {
		return nil, fmt.Errorf("fetch func required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Poller{
		name:     params.Name,
		interval: interval,
		fetch:    params.Fetch,
		logg:     params.Logger,
		metrics:  params.Metrics,
		refresh:  make(chan struct{}, 1),
	}, nil
}

// Start launches the polling loop. It returns an error if the poller is
// already running.
func (p *Poller) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return fmt.Errorf("poller %s already started", p.name)
	}
	loopCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.loop(loopCtx)
	return nil
}

// Stop cancels the loop and waits for it, and any in-flight fetch, to
// finish. Safe to call more than once.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	done := p.done
	p.cancel = nil
	p.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	p.fetches.Wait()
}

// Refresh requests an immediate fetch outside the regular cadence, used
// after a mutation so the view catches up without waiting a full tick.
// A refresh already queued coalesces with this one.
func (p *Poller) Refresh() {
	select {
	case p.refresh <- struct{}{}:
	default:
	}
}

func (p *Poller) loop(ctx context.Context) {
	defer close(p.done)
	p.spawnFetch(ctx)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.spawnFetch(ctx)
		case <-p.refresh:
			p.spawnFetch(ctx)
		}
	}
}

func (p *Poller) spawnFetch(ctx context.Context) {
	p.fetches.Add(1)
	go func() {
		defer p.fetches.Done()
		fetchCtx := p.logg.WithField(ctx, "poller", p.name)
		start := time.Now()
		err := p.fetch(fetchCtx)
		duration := time.Since(start)
		p.metrics.ObserveDuration(p.name, duration)
		if err != nil {
			// A failed fetch keeps the previous snapshot on screen; the
			// loop carries on at the same cadence.
			p.logg.Error(fetchCtx, "poller fetch failed", err)
			p.metrics.IncFailure(p.name)
			return
		}
		p.metrics.IncSuccess(p.name)
	}()
}
