package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
)

const defaultShutdownTimeout = 30 * time.Second

var (
	ErrServicePanic    = errors.New("runner: service panicked")
	ErrServiceFailed   = errors.New("runner: service failed to start")
	ErrShutdownTimeout = errors.New("runner: shutdown timeout exceeded")
)

// Service is started once and stopped once. Start must return after the
// service is ready to serve; long-running work belongs in its own goroutine.
type Service interface {
	Start(ctx context.Context) error
	Stop() error
	Name() string
}

type Runner struct {
	coreServices           []Service
	infrastructureServices []Service
	shutdownTimeout        time.Duration
	signals                []os.Signal
}

type Option func(*Runner)

func New(opts ...Option) *Runner {
	runner := &Runner{
		coreServices:           make([]Service, 0),
		infrastructureServices: make([]Service, 0),
		shutdownTimeout:        defaultShutdownTimeout,
		signals:                []os.Signal{os.Interrupt, syscall.SIGTERM},
	}

	for _, opt := range opts {
		opt(runner)
	}

	return runner
}

func WithCoreService(svc Service) Option {
	return func(r *Runner) {
		r.coreServices = append(r.coreServices, svc)
		log.Info().
			Str("service_type", "core").
			Str("service_name", svc.Name()).
			Msg("Core service registered")
	}
}

func WithInfrastructureService(svc Service) Option {
	return func(r *Runner) {
		r.infrastructureServices = append(r.infrastructureServices, svc)
		log.Info().
			Str("service_type", "infrastructure").
			Str("service_name", svc.Name()).
			Msg("Infrastructure service registered")
	}
}

func WithShutdownTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.shutdownTimeout = d
		}
	}
}

// WithSignals replaces the signals that trigger shutdown. No signals means
// only cancellation of the Run context does.
func WithSignals(signals ...os.Signal) Option {
	return func(r *Runner) {
		r.signals = signals
	}
}

// Run starts infrastructure services, then core services, and blocks until
// ctx is cancelled or a shutdown signal arrives. Core services are stopped
// before infrastructure services.
func (r *Runner) Run(ctx context.Context) error {
	if len(r.signals) > 0 {
		var stop context.CancelFunc

		ctx, stop = signal.NotifyContext(ctx, r.signals...)
		defer stop()
	}

	log.Info().Msg("Starting infrastructure services")

	if err := r.startServices(ctx, r.infrastructureServices); err != nil {
		log.Error().Err(err).Msg("Infrastructure services failed to start")

		return err
	}

	log.Info().Msg("Starting core services")

	if err := r.startServices(ctx, r.coreServices); err != nil {
		log.Error().Err(err).Msg("Core services failed to start")

		return errors.Join(err, r.shutdownWithTimeout(r.infrastructureServices))
	}

	log.Info().
		Int("pid", os.Getpid()).
		Int("core_services", len(r.coreServices)).
		Int("infra_services", len(r.infrastructureServices)).
		Msg("All services started, waiting for shutdown signal")

	<-ctx.Done()
	log.Warn().Msg("Shutdown signal received")

	err := errors.Join(
		r.shutdownWithTimeout(r.coreServices),
		r.shutdownWithTimeout(r.infrastructureServices),
	)
	if err != nil {
		return err
	}

	log.Info().Msg("Graceful shutdown completed")

	return nil
}

// startServices starts services in order. On failure the services already
// started in this group are stopped again.
func (r *Runner) startServices(ctx context.Context, services []Service) error {
	for idx, svc := range services {
		log.Info().Str("service_name", svc.Name()).Msg("Starting service")

		if err := startService(ctx, svc); err != nil {
			_ = r.shutdownWithTimeout(services[:idx])

			return err
		}
	}

	return nil
}

func startService(ctx context.Context, svc Service) (err error) { //nolint:nonamedreturns
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %s: %v", ErrServicePanic, svc.Name(), rec)
		}
	}()

	if startErr := svc.Start(ctx); startErr != nil {
		return fmt.Errorf("%w: %s: %w", ErrServiceFailed, svc.Name(), startErr)
	}

	return nil
}

func (r *Runner) shutdownWithTimeout(services []Service) error {
	if len(services) == 0 {
		return nil
	}

	done := make(chan struct{})

	go func() {
		r.concurrentStop(services)
		close(done)
	}()

	timer := time.NewTimer(r.shutdownTimeout)
	defer timer.Stop()

	select {
	case <-done:
		return nil
	case <-timer.C:
		log.Error().
			Dur("timeout", r.shutdownTimeout).
			Msg("Shutdown timeout exceeded, some services may not have stopped cleanly")

		return ErrShutdownTimeout
	}
}

func (r *Runner) concurrentStop(services []Service) {
	var wg sync.WaitGroup

	for _, svc := range services {
		wg.Add(1)

		go func(service Service) {
			defer wg.Done()

			log.Info().Str("service_name", service.Name()).Msg("Stopping service")

			if err := service.Stop(); err != nil {
				log.Error().
					Err(err).
					Str("service_name", service.Name()).
					Msg("Service failed to stop")
			} else {
				log.Info().
					Str("service_name", service.Name()).
					Msg("Service stopped")
			}
		}(svc)
	}

	wg.Wait()
}
