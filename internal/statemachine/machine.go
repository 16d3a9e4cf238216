// Package statemachine drives a task through its run stage and then its cleanup stage,
// deciding from the event log which steps may run next.
package statemachine

import (
	"log/slog"
	"sync"

	"taskplane/internal/events"
	"taskplane/internal/graph"
	"taskplane/internal/rules"
	"taskplane/internal/stages"
	"taskplane/internal/steps"
)

const stalledRunStageMessage = "None of the remaining steps are ready to execute, but there are no steps currently running."

// CleanupOption says what to do with a task's resources once the run stage is over.
type CleanupOption int

const (
	Cleanup CleanupOption = iota
	DontCleanup
)

// Options configures a StateMachine.
type Options struct {
	// AfterFailure applies when the run stage aborted. DontCleanup leaves every created
	// resource in place and reports how to remove it by hand.
	AfterFailure CleanupOption

	// AfterSuccess applies when the run stage completed. DontCleanup only stops
	// containers and reports how to remove the rest by hand.
	AfterSuccess CleanupOption

	// OS selects the syntax of manual cleanup instructions.
	OS rules.OperatingSystem

	// OnEvent, if set, observes each event once it is recorded, including failures the
	// machine records itself. Duplicates are not observed. It must not call back into
	// the machine.
	OnEvent func(events.TaskEvent)
}

// Result is the outcome of a finished task.
type Result struct {
	// ExitCode is the main container's exit code, or -1 if it never exited.
	ExitCode int64

	// Failed is set if the run stage aborted.
	Failed bool

	// FailureMessage is the message of the failure that aborted the run stage. It is
	// empty for a user interrupt.
	FailureMessage string

	Interrupted bool

	// CleanupFailed is set if a step of the cleanup stage failed.
	CleanupFailed bool

	// ManualCleanup lists, in order, the commands that remove what was left behind.
	ManualCleanup []rules.Instruction
}

// StateMachine owns the event log and the current stage of one task execution.
// It is safe for concurrent use.
type StateMachine struct {
	mu             sync.Mutex
	graph          *graph.Graph
	cleanupPlanner *stages.CleanupStagePlanner
	options        Options
	logger         *slog.Logger

	log   *events.Log
	stage *stages.Stage

	// outstanding counts steps handed out and not yet reported finished.
	outstanding int

	failed         bool
	failureMessage string
	interrupted    bool
	cleanupFailed  bool
	finished       bool

	// cleanupPlan is every cleanup rule that would remove the task's resources, used to
	// work out what is left when cleanup is skipped or fails.
	cleanupPlan   []rules.StepRule
	leftInPlace   bool
	manualCleanup []rules.Instruction
}

// New returns a state machine that starts in the given run stage.
func New(g *graph.Graph, runStage *stages.Stage, cleanupPlanner *stages.CleanupStagePlanner, options Options, logger *slog.Logger) *StateMachine {
	if options.OS == "" {
		options.OS = rules.Linux
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StateMachine{
		graph:          g,
		cleanupPlanner: cleanupPlanner,
		options:        options,
		logger:         logger.With("component", "statemachine", "task", g.Task().Name),
		log:            events.NewLog(),
		stage:          runStage,
	}
}

// Start returns the steps that are ready before any event has been posted.
func (m *StateMachine) Start() []steps.TaskStep {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.advance()
}

// PostEvent records e and returns the steps that became ready because of it. Posting an
// event that is already in the log has no effect.
func (m *StateMachine) PostEvent(e events.TaskEvent) []steps.TaskStep {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.record(e) {
		m.logger.Debug("Ignoring duplicate event", "event", e.Kind(), "subject", e.Subject())
		return nil
	}
	m.logger.Debug("Event posted", "event", e.Kind(), "subject", e.Subject())

	if failure, ok := e.(events.FailureEvent); ok {
		m.recordFailure(failure)
	}
	return m.advance()
}

// StepFinished reports that a step handed out earlier has finished or was dropped
// without running. It returns the steps that became ready as a result, which includes
// the first cleanup steps once the run stage is over.
func (m *StateMachine) StepFinished() []steps.TaskStep {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.outstanding > 0 {
		m.outstanding--
	}
	return m.advance()
}

// Stage returns the phase the task is in.
func (m *StateMachine) Stage() stages.Kind {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stage.Kind()
}

// Aborting reports whether the run stage has failed.
func (m *StateMachine) Aborting() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failed
}

// Finished reports whether both stages are over.
func (m *StateMachine) Finished() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.finished
}

// Events returns every event posted so far.
func (m *StateMachine) Events() []events.TaskEvent {
	return m.log.Events()
}

// Result returns the task's outcome. It is complete once Finished returns true.
func (m *StateMachine) Result() Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	exitCode := int64(-1)
	if exited, ok := events.Find[events.RunningContainerExited](m.log, m.graph.TaskContainer().Name); ok {
		exitCode = exited.ExitCode
	}
	return Result{
		ExitCode:       exitCode,
		Failed:         m.failed,
		FailureMessage: m.failureMessage,
		Interrupted:    m.interrupted,
		CleanupFailed:  m.cleanupFailed,
		ManualCleanup:  append([]rules.Instruction(nil), m.manualCleanup...),
	}
}

// record adds e to the log and notifies the observer if it was not there yet. Callers
// hold m.mu.
func (m *StateMachine) record(e events.TaskEvent) bool {
	if !m.log.Add(e) {
		return false
	}
	if m.options.OnEvent != nil {
		m.options.OnEvent(e)
	}
	return true
}

func (m *StateMachine) recordFailure(failure events.FailureEvent) {
	if m.stage.Kind() == stages.Cleanup {
		if _, interrupt := failure.(events.UserInterruptedExecution); interrupt {
			m.logger.Info("Interrupt received during cleanup, cleanup continues")
			return
		}
		m.cleanupFailed = true
		m.logger.Warn("Cleanup step failed", "error", failure.Message())
		return
	}

	if !m.failed {
		m.failed = true
		m.failureMessage = failure.Message()
		_, m.interrupted = failure.(events.UserInterruptedExecution)
		m.logger.Info("Task failed, aborting run stage", "event", failure.Kind(), "error", failure.Message())
	}
	m.stage.Discard()
}

// advance pops whatever is ready in the current stage and moves between stages when the
// current one can make no more progress. Callers hold m.mu.
func (m *StateMachine) advance() []steps.TaskStep {
	for !m.finished {
		if m.stage.Kind() == stages.Run && m.failed {
			if m.outstanding > 0 {
				return nil
			}
			m.startCleanupStage()
			continue
		}

		if ready := m.stage.PopReady(m.log); len(ready) > 0 {
			m.outstanding += len(ready)
			return ready
		}
		if m.outstanding > 0 {
			return nil
		}

		if m.stage.Kind() == stages.Run {
			if m.stage.HasPending() {
				failure := events.ExecutionFailed{Reason: stalledRunStageMessage}
				m.record(failure)
				m.recordFailure(failure)
				continue
			}
			m.startCleanupStage()
			continue
		}

		m.finish()
	}
	return nil
}

// startCleanupStage replaces the finished or aborted run stage with a cleanup stage
// planned from the events posted so far. Callers hold m.mu.
func (m *StateMachine) startCleanupStage() {
	full := m.cleanupPlanner.Plan(m.log, m.failed)
	m.cleanupPlan = full.Planned()

	switch {
	case m.failed && m.options.AfterFailure == DontCleanup && len(m.log.OfKind(events.KindContainerCreated)) > 0:
		m.logger.Info("Leaving resources in place after failure")
		m.stage = stages.New(stages.Cleanup, nil)
		m.leftInPlace = true
	case !m.failed && m.options.AfterSuccess == DontCleanup:
		m.logger.Info("Stopping containers without removing them")
		m.stage = m.cleanupPlanner.PlanStopOnly(m.log, false)
		m.leftInPlace = true
	default:
		m.stage = full
	}

	m.logger.Debug("Cleanup stage started", "rules", len(m.stage.Planned()))
}

// finish closes the cleanup stage. Callers hold m.mu.
func (m *StateMachine) finish() {
	if m.stage.HasPending() && !m.cleanupFailed {
		m.logger.Error("Cleanup stage stalled", "pending", len(m.stage.Pending()))
		m.cleanupFailed = true
	}
	if m.cleanupFailed || m.leftInPlace {
		m.manualCleanup = rules.OutstandingInstructions(m.cleanupPlan, m.log, m.options.OS)
	}
	m.finished = true
	m.logger.Debug("Task finished", "failed", m.failed, "cleanup_failed", m.cleanupFailed)
}
