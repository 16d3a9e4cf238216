package execution

import (
	"context"
	"log/slog"

	"taskplane/internal/model"
)

// Executor runs a single task.
type Executor interface {
	Run(ctx context.Context, cfg model.Configuration, task model.Task) (TaskResult, error)
}

// SessionResult lists the tasks a session ran, in order.
type SessionResult struct {
	Tasks []TaskResult
}

// ExitCode is the exit status of the session: that of the last task run.
func (r SessionResult) ExitCode() int {
	if len(r.Tasks) == 0 {
		return 0
	}
	return r.Tasks[len(r.Tasks)-1].Code()
}

// Session runs a task and its prerequisites.
type Session struct {
	executor Executor
	logger   *slog.Logger
}

// NewSession creates a session.
func NewSession(executor Executor, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{executor: executor, logger: logger.With("component", "session")}
}

// Run runs taskName after its prerequisites. It stops at the first task that fails or
// exits non-zero, and does not start another task once ctx is cancelled.
func (s *Session) Run(ctx context.Context, cfg model.Configuration, taskName string, skipPrerequisites bool) (SessionResult, error) {
	order, err := ResolveExecutionOrder(cfg, taskName, skipPrerequisites)
	if err != nil {
		return SessionResult{}, err
	}

	names := make([]string, len(order))
	for i, t := range order {
		names[i] = t.Name
	}
	s.logger.Info("Resolved task execution order", "order", names, "skip_prerequisites", skipPrerequisites)

	var result SessionResult
	for _, task := range order {
		if ctx.Err() != nil {
			s.logger.Info("Session interrupted, not starting remaining tasks", "next", task.Name)
			break
		}

		taskResult, err := s.executor.Run(ctx, cfg, task)
		if err != nil {
			return result, err
		}
		result.Tasks = append(result.Tasks, taskResult)

		if code := taskResult.Code(); code != 0 {
			s.logger.Info("Task did not succeed, stopping session", "task", task.Name, "exit_code", code)
			break
		}
	}
	return result, nil
}
