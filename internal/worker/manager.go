// Package worker executes a task's steps: the Manager dispatches ready steps to a bounded
// pool of goroutines and the StepRunner performs each one against the container daemon.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"taskplane/internal/events"
	"taskplane/internal/observability"
	"taskplane/internal/steps"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"
)

// Machine is the state machine the manager drives.
type Machine interface {
	Start() []steps.TaskStep
	PostEvent(e events.TaskEvent) []steps.TaskStep
	StepFinished() []steps.TaskStep
	Aborting() bool
	Finished() bool
}

// Runner performs a single step.
type Runner interface {
	Run(ctx context.Context, step steps.TaskStep, post PostFunc) error
}

// ManagerConfig holds configuration for the execution manager.
type ManagerConfig struct {
	// MaxParallelism bounds the number of steps running at once (default: 1).
	MaxParallelism int

	Metrics *observability.StepMetrics
}

// Manager runs one task to completion.
type Manager struct {
	machine Machine
	runner  Runner
	config  ManagerConfig
	logger  *slog.Logger
	tracer  trace.Tracer
	slots   *semaphore.Weighted

	mu    sync.Mutex
	queue []steps.TaskStep
	busy  map[string]bool // resources of in-flight steps
	// inFlight counts dispatched steps that have not returned.
	inFlight int

	// wake signals the dispatch loop that the queue or the slots changed.
	wake chan struct{}
}

// NewManager creates a manager for one task execution.
func NewManager(machine Machine, runner Runner, config ManagerConfig, logger *slog.Logger) *Manager {
	if config.MaxParallelism <= 0 {
		config.MaxParallelism = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		machine: machine,
		runner:  runner,
		config:  config,
		logger:  logger.With("component", "manager"),
		tracer:  otel.Tracer(observability.TracerName),
		slots:   semaphore.NewWeighted(int64(config.MaxParallelism)),
		busy:    make(map[string]bool),
		wake:    make(chan struct{}, 1),
	}
}

// Run dispatches steps until the state machine has finished both stages. Cancelling ctx
// interrupts the task: run steps are cancelled, and cleanup still runs to completion.
func (m *Manager) Run(ctx context.Context) {
	m.logger.Debug("Execution starting", "max_parallelism", m.config.MaxParallelism)

	// runCtx is cancelled on interrupt and on abort. Cleanup steps never see it.
	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()
	cleanupCtx := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	interrupted := ctx.Done()

	post := func(e events.TaskEvent) {
		m.enqueue(m.machine.PostEvent(e))
		if m.machine.Aborting() {
			cancelRun()
		}
	}

	// The interrupt must reach the machine before any step cancelled by it is reported
	// finished, so both the loop and the steps post it through once.
	var interruptOnce sync.Once
	checkInterrupt := func() {
		if ctx.Err() == nil {
			return
		}
		interruptOnce.Do(func() {
			m.logger.Info("Interrupted, aborting task")
			post(events.UserInterruptedExecution{})
		})
	}

	m.enqueue(m.machine.Start())

	for {
		select {
		case <-interrupted:
			interrupted = nil
		case <-m.wake:
		}
		checkInterrupt()

		for _, step := range m.dispatchable() {
			stepCtx := runCtx
			if steps.IsCleanup(step) {
				stepCtx = cleanupCtx
			}

			wg.Add(1)
			go func(step steps.TaskStep) {
				defer wg.Done()
				m.execute(stepCtx, step, post, checkInterrupt)
			}(step)
		}

		if m.done() {
			break
		}
	}

	wg.Wait()
	m.logger.Debug("Execution finished")
}

// dispatchable takes the queued steps that may start now. Queued run steps of an aborting
// task are dropped instead.
func (m *Manager) dispatchable() []steps.TaskStep {
	aborting := m.machine.Aborting()

	m.mu.Lock()
	var start []steps.TaskStep
	dropped := 0
	remaining := m.queue[:0]
	for _, step := range m.queue {
		if aborting && !steps.IsCleanup(step) {
			m.logger.Debug("Dropping step of aborted task", "step", steps.Describe(step))
			dropped++
			continue
		}

		resource := steps.ResourceOf(step)
		if m.busy[resource] || !m.slots.TryAcquire(1) {
			remaining = append(remaining, step)
			continue
		}
		m.busy[resource] = true
		m.inFlight++
		start = append(start, step)
	}
	m.queue = remaining
	m.mu.Unlock()

	for i := 0; i < dropped; i++ {
		m.enqueue(m.machine.StepFinished())
	}
	return start
}

// execute runs one step and reports it finished. checkInterrupt runs before the step is
// reported finished.
func (m *Manager) execute(ctx context.Context, step steps.TaskStep, post PostFunc, checkInterrupt func()) {
	kind := steps.KindOf(step)
	resource := steps.ResourceOf(step)

	spanCtx, span := m.tracer.Start(ctx, "step "+kind,
		trace.WithAttributes(
			attribute.String("step.kind", kind),
			attribute.String("step.resource", resource),
		),
	)

	failed := false
	observe := func(e events.TaskEvent) {
		if events.IsFailure(e) {
			failed = true
			span.AddEvent(string(e.Kind()))
		}
		post(e)
	}

	m.logger.Debug("Step starting", "step", steps.Describe(step))
	start := time.Now()

	if err := m.runStep(spanCtx, step, observe); err != nil {
		span.RecordError(err)
		m.logger.Error("Step failed", "step", kind, "error", err)
		observe(events.ExecutionFailed{Reason: fmt.Sprintf("During execution of step of kind '%s': %s", kind, err)})
	}

	outcome := observability.OutcomeSucceeded
	switch {
	case failed:
		outcome = observability.OutcomeFailed
		span.SetStatus(codes.Error, "step failed")
	case ctx.Err() != nil:
		outcome = observability.OutcomeCancelled
	}
	span.End()
	m.config.Metrics.RecordStep(context.WithoutCancel(ctx), kind, outcome, time.Since(start))

	m.mu.Lock()
	delete(m.busy, resource)
	m.inFlight--
	m.slots.Release(1)
	m.mu.Unlock()

	checkInterrupt()
	m.enqueue(m.machine.StepFinished())
}

// runStep calls the runner, converting a panic into an error.
func (m *Manager) runStep(ctx context.Context, step steps.TaskStep, post PostFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("Step panicked", "step", steps.KindOf(step), "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("%v", r)
		}
	}()
	return m.runner.Run(ctx, step, post)
}

// enqueue adds steps to the queue and wakes the dispatch loop.
func (m *Manager) enqueue(ready []steps.TaskStep) {
	if len(ready) > 0 {
		m.mu.Lock()
		m.queue = append(m.queue, ready...)
		m.mu.Unlock()
	}
	m.triggerDispatch()
}

// triggerDispatch wakes the loop without blocking.
func (m *Manager) triggerDispatch() {
	select {
	case m.wake <- struct{}{}:
	default:
		// Already a dispatch pending
	}
}

func (m *Manager) done() bool {
	m.mu.Lock()
	idle := m.inFlight == 0 && len(m.queue) == 0
	m.mu.Unlock()
	return idle && m.machine.Finished()
}
