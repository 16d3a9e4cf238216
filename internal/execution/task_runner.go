package execution

import (
	"context"
	"io"
	"log/slog"
	"time"

	"taskplane/internal/events"
	"taskplane/internal/graph"
	"taskplane/internal/logger"
	"taskplane/internal/model"
	"taskplane/internal/observability"
	"taskplane/internal/rules"
	"taskplane/internal/stages"
	"taskplane/internal/statemachine"
	"taskplane/internal/worker"
	"taskplane/internal/worker/runtime"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TaskRunnerConfig holds the settings shared by every task of a session.
type TaskRunnerConfig struct {
	MaxParallelism int
	NetworkDriver  string
	StopTimeout    time.Duration

	CleanupAfterFailure bool
	CleanupAfterSuccess bool

	// OS selects the syntax of manual cleanup instructions.
	OS rules.OperatingSystem

	// Stdout and Stderr receive the main container's output.
	Stdout io.Writer
	Stderr io.Writer

	// OnEvent, if set, observes every event of every task.
	OnEvent func(task string, e events.TaskEvent)

	Metrics *observability.StepMetrics
}

// TaskResult is the outcome of one task.
type TaskResult struct {
	statemachine.Result

	Task     string
	RunID    string
	Duration time.Duration

	// Skipped is set for tasks that only group prerequisites.
	Skipped bool

	// ResourcesLeft is set when cleanup was disabled and resources remain.
	ResourcesLeft bool
}

// Code is the exit status of the task: the main container's exit code if the task ran
// and was cleaned up, otherwise -1.
func (r TaskResult) Code() int {
	switch {
	case r.Skipped:
		return 0
	case r.Failed, r.CleanupFailed, r.ResourcesLeft:
		return -1
	default:
		return int(r.ExitCode)
	}
}

// TaskRunner builds the engine for one task and runs it.
type TaskRunner struct {
	daemon runtime.DaemonClient
	fs     runtime.Filesystem
	config TaskRunnerConfig
	logger *slog.Logger
	tracer trace.Tracer
}

// NewTaskRunner creates a task runner.
func NewTaskRunner(daemon runtime.DaemonClient, fs runtime.Filesystem, config TaskRunnerConfig, logger *slog.Logger) *TaskRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskRunner{
		daemon: daemon,
		fs:     fs,
		config: config,
		logger: logger,
		tracer: otel.Tracer(observability.TracerName),
	}
}

// Run runs task. Planning errors are returned before anything is created; failures during
// execution are reported in the result.
func (r *TaskRunner) Run(ctx context.Context, cfg model.Configuration, task model.Task) (TaskResult, error) {
	if task.Run.Container == "" {
		r.logger.Info("Task only has prerequisites, nothing to run", "task", task.Name)
		return TaskResult{Task: task.Name, Skipped: true}, nil
	}

	runID := uuid.NewString()
	ctx = logger.WithRunID(ctx, runID)
	log := logger.FromContext(ctx, r.logger).With("task", task.Name)

	g, err := graph.Build(task, cfg.Containers)
	if err != nil {
		return TaskResult{}, err
	}

	ctx, span := r.tracer.Start(ctx, "task "+task.Name,
		trace.WithAttributes(
			attribute.String("task.name", task.Name),
			attribute.String("run.id", runID),
			attribute.Int("task.containers", len(g.Containers())),
		),
	)
	defer span.End()

	var onEvent func(events.TaskEvent)
	if r.config.OnEvent != nil {
		onEvent = func(e events.TaskEvent) { r.config.OnEvent(task.Name, e) }
	}

	machine := statemachine.New(
		g,
		stages.NewRunStagePlanner(g, cfg.ProjectName).Plan(),
		stages.NewCleanupStagePlanner(g),
		statemachine.Options{
			AfterFailure: cleanupOption(r.config.CleanupAfterFailure),
			AfterSuccess: cleanupOption(r.config.CleanupAfterSuccess),
			OS:           r.config.OS,
			OnEvent:      onEvent,
		},
		log,
	)

	stepRunner := worker.NewStepRunner(r.daemon, r.fs, worker.RunnerOptions{
		ProjectName:   cfg.ProjectName,
		NetworkDriver: r.config.NetworkDriver,
		StopTimeout:   r.config.StopTimeout,
		Stdout:        r.config.Stdout,
		Stderr:        r.config.Stderr,
	}, log)

	manager := worker.NewManager(machine, stepRunner, worker.ManagerConfig{
		MaxParallelism: r.config.MaxParallelism,
		Metrics:        r.config.Metrics,
	}, log)

	log.Info("Task starting", "containers", len(g.Containers()))
	start := time.Now()
	manager.Run(ctx)

	result := TaskResult{
		Result:   machine.Result(),
		Task:     task.Name,
		RunID:    runID,
		Duration: time.Since(start),
	}
	result.ResourcesLeft = !result.Failed && !r.config.CleanupAfterSuccess && len(result.ManualCleanup) > 0

	outcome := observability.OutcomeSucceeded
	if result.Code() != 0 {
		outcome = observability.OutcomeFailed
		span.SetStatus(codes.Error, result.FailureMessage)
	}
	span.SetAttributes(attribute.Int64("exit_code", result.ExitCode))
	r.config.Metrics.RecordTask(context.WithoutCancel(ctx), task.Name, outcome)

	log.Info("Task finished",
		"exit_code", result.ExitCode,
		"failed", result.Failed,
		"interrupted", result.Interrupted,
		"cleanup_failed", result.CleanupFailed,
		"duration", result.Duration,
	)
	return result, nil
}

func cleanupOption(cleanup bool) statemachine.CleanupOption {
	if cleanup {
		return statemachine.Cleanup
	}
	return statemachine.DontCleanup
}
