// Package poller refreshes the cluster overview on a fixed interval so the
// resource gauges stay current without a browser on the dashboard.
package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/andyle182810/orchestrator-dashboard/orchestrator"
	"github.com/rs/zerolog/log"
)

const defaultInterval = 30 * time.Second

var ErrAlreadyRunning = errors.New("poller is already running")

type Source interface {
	Overview(ctx context.Context) orchestrator.Overview
}

// Recorder receives every polled overview.
type Recorder interface {
	RecordOverview(overview orchestrator.Overview)
}

type Poller struct {
	source   Source
	recorder Recorder
	interval time.Duration
	timeout  time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

type Option func(*Poller)

func WithInterval(interval time.Duration) Option {
	return func(p *Poller) {
		if interval > 0 {
			p.interval = interval
		}
	}
}

// WithTimeout bounds a single poll. Zero leaves polls bounded only by Stop.
func WithTimeout(timeout time.Duration) Option {
	return func(p *Poller) {
		if timeout > 0 {
			p.timeout = timeout
		}
	}
}

func New(source Source, recorder Recorder, opts ...Option) *Poller {
	poller := &Poller{
		source:   source,
		recorder: recorder,
		interval: defaultInterval,
		timeout:  0,
		mu:       sync.Mutex{},
		running:  false,
		cancel:   nil,
		wg:       sync.WaitGroup{},
	}

	for _, opt := range opts {
		opt(poller)
	}

	return poller
}

func (p *Poller) Name() string {
	return "overview-poller"
}

// Start polls once right away and then on every tick until Stop.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()

		return ErrAlreadyRunning
	}

	pollCtx, cancel := context.WithCancel(ctx)
	p.running = true
	p.cancel = cancel
	p.mu.Unlock()

	log.Info().
		Dur("interval", p.interval).
		Dur("timeout", p.timeout).
		Msg("Overview poller is starting.")

	p.wg.Add(1)

	go p.loop(pollCtx)

	return nil
}

func (p *Poller) Stop() error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()

		return nil
	}

	p.running = false
	p.cancel()
	p.mu.Unlock()

	p.wg.Wait()

	log.Info().Msg("Overview poller has stopped.")

	return nil
}

func (p *Poller) loop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		p.poll(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	var (
		pollCtx context.Context
		cancel  context.CancelFunc
	)

	if p.timeout > 0 {
		pollCtx, cancel = context.WithTimeout(ctx, p.timeout)
	} else {
		pollCtx, cancel = context.WithCancel(ctx)
	}

	defer cancel()

	overview := p.source.Overview(pollCtx)

	// A poll cut short by Stop would report every collection as unknown.
	if ctx.Err() != nil {
		return
	}

	if p.recorder != nil {
		p.recorder.RecordOverview(overview)
	}

	log.Debug().
		Bool("connected", overview.Connected()).
		Int("collections", len(overview.Stats)).
		Msg("Polled cluster overview")
}
