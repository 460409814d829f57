package runner_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andyle182810/orchestrator-dashboard/runner"
	"github.com/stretchr/testify/require"
)

var (
	errStart = errors.New("start error")
	errStop  = errors.New("stop error")
)

type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(event string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.events = append(l.events, event)
}

func (l *eventLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]string(nil), l.events...)
}

type mockService struct {
	name         string
	log          *eventLog
	startErr     error
	stopErr      error
	stopDelay    time.Duration
	panicOnStart bool
	started      atomic.Bool
	stopped      atomic.Bool
}

func newMockService(name string, log *eventLog) *mockService {
	return &mockService{
		name:         name,
		log:          log,
		startErr:     nil,
		stopErr:      nil,
		stopDelay:    0,
		panicOnStart: false,
		started:      atomic.Bool{},
		stopped:      atomic.Bool{},
	}
}

func (m *mockService) Start(_ context.Context) error {
	if m.panicOnStart {
		panic("mock panic on start")
	}

	if m.startErr != nil {
		return m.startErr
	}

	m.started.Store(true)
	m.log.add("start:" + m.name)

	return nil
}

func (m *mockService) Stop() error {
	if m.stopDelay > 0 {
		time.Sleep(m.stopDelay)
	}

	m.log.add("stop:" + m.name)

	if m.stopErr != nil {
		return m.stopErr
	}

	m.stopped.Store(true)

	return nil
}

func (m *mockService) Name() string {
	return m.name
}

func runAsync(ctx context.Context, r *runner.Runner) <-chan error {
	errCh := make(chan error, 1)

	go func() {
		errCh <- r.Run(ctx)
	}()

	return errCh
}

func waitForEvents(t *testing.T, log *eventLog, count int) {
	t.Helper()

	require.Eventually(t, func() bool {
		return len(log.snapshot()) >= count
	}, time.Second, 5*time.Millisecond)
}

func TestRunner_StartsInfraBeforeCoreAndStopsCoreFirst(t *testing.T) {
	t.Parallel()

	events := &eventLog{} //nolint:exhaustruct
	metrics := newMockService("metric", events)
	http := newMockService("http", events)

	r := runner.New(
		runner.WithCoreService(http),
		runner.WithInfrastructureService(metrics),
		runner.WithSignals(),
	)

	ctx, cancel := context.WithCancel(t.Context())
	errCh := runAsync(ctx, r)

	waitForEvents(t, events, 2)
	require.Equal(t, []string{"start:metric", "start:http"}, events.snapshot())

	cancel()
	require.NoError(t, <-errCh)

	require.Equal(t, []string{"start:metric", "start:http", "stop:http", "stop:metric"}, events.snapshot())
	require.True(t, metrics.stopped.Load())
	require.True(t, http.stopped.Load())
}

func TestRunner_CoreStartFailureStopsInfrastructure(t *testing.T) {
	t.Parallel()

	events := &eventLog{} //nolint:exhaustruct
	metrics := newMockService("metric", events)
	first := newMockService("http", events)
	broken := newMockService("worker", events)
	broken.startErr = errStart

	r := runner.New(
		runner.WithInfrastructureService(metrics),
		runner.WithCoreService(first),
		runner.WithCoreService(broken),
		runner.WithSignals(),
	)

	err := r.Run(t.Context())

	require.ErrorIs(t, err, runner.ErrServiceFailed)
	require.ErrorIs(t, err, errStart)
	require.Contains(t, err.Error(), "worker")
	require.False(t, broken.started.Load())
	require.True(t, first.stopped.Load())
	require.True(t, metrics.stopped.Load())
}

func TestRunner_InfrastructureStartFailure(t *testing.T) {
	t.Parallel()

	events := &eventLog{} //nolint:exhaustruct
	metrics := newMockService("metric", events)
	metrics.startErr = errStart
	http := newMockService("http", events)

	r := runner.New(
		runner.WithInfrastructureService(metrics),
		runner.WithCoreService(http),
		runner.WithSignals(),
	)

	err := r.Run(t.Context())

	require.ErrorIs(t, err, runner.ErrServiceFailed)
	require.False(t, http.started.Load())
	require.Empty(t, events.snapshot())
}

func TestRunner_RecoversStartPanic(t *testing.T) {
	t.Parallel()

	svc := newMockService("panic-svc", &eventLog{}) //nolint:exhaustruct
	svc.panicOnStart = true

	err := runner.New(runner.WithCoreService(svc), runner.WithSignals()).Run(t.Context())

	require.ErrorIs(t, err, runner.ErrServicePanic)
	require.Contains(t, err.Error(), "mock panic on start")
}

func TestRunner_StopErrorDoesNotFailShutdown(t *testing.T) {
	t.Parallel()

	events := &eventLog{} //nolint:exhaustruct
	svc := newMockService("http", events)
	svc.stopErr = errStop

	ctx, cancel := context.WithCancel(t.Context())
	errCh := runAsync(ctx, runner.New(runner.WithCoreService(svc), runner.WithSignals()))

	waitForEvents(t, events, 1)
	cancel()

	require.NoError(t, <-errCh)
	require.Contains(t, events.snapshot(), "stop:http")
}

func TestRunner_ShutdownTimeout(t *testing.T) {
	t.Parallel()

	events := &eventLog{} //nolint:exhaustruct
	slow := newMockService("slow", events)
	slow.stopDelay = 500 * time.Millisecond

	r := runner.New(
		runner.WithCoreService(slow),
		runner.WithShutdownTimeout(20*time.Millisecond),
		runner.WithSignals(),
	)

	ctx, cancel := context.WithCancel(t.Context())
	errCh := runAsync(ctx, r)

	waitForEvents(t, events, 1)
	cancel()

	require.ErrorIs(t, <-errCh, runner.ErrShutdownTimeout)
}

func TestRunner_NoServices(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	require.NoError(t, runner.New(runner.WithSignals()).Run(ctx))
}

func TestRunner_ServiceInterfaceImplementation(t *testing.T) {
	t.Parallel()

	var _ runner.Service = newMockService("test", &eventLog{}) //nolint:exhaustruct
}
