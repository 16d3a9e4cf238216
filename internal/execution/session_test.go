package execution

import (
	"context"
	"errors"
	"testing"

	"taskplane/internal/model"
	"taskplane/internal/statemachine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockExecutor implements Executor for testing.
type MockExecutor struct {
	RunFunc func(ctx context.Context, task model.Task) (TaskResult, error)

	Ran []string
}

func (m *MockExecutor) Run(ctx context.Context, cfg model.Configuration, task model.Task) (TaskResult, error) {
	m.Ran = append(m.Ran, task.Name)
	if m.RunFunc != nil {
		return m.RunFunc(ctx, task)
	}
	return TaskResult{Task: task.Name, Result: statemachine.Result{ExitCode: 0}}, nil
}

func sessionConfig() model.Configuration {
	return configWithTasks(
		model.Task{Name: "build", Run: model.TaskRun{Container: "builder"}},
		model.Task{Name: "test", Run: model.TaskRun{Container: "app"}, Prerequisites: []string{"build"}},
	)
}

func TestSession_RunsPrerequisitesFirst(t *testing.T) {
	executor := &MockExecutor{}

	result, err := NewSession(executor, nil).Run(context.Background(), sessionConfig(), "test", false)

	require.NoError(t, err)
	assert.Equal(t, []string{"build", "test"}, executor.Ran)
	assert.Len(t, result.Tasks, 2)
	assert.Equal(t, 0, result.ExitCode())
}

func TestSession_StopsAtFirstNonZeroExit(t *testing.T) {
	executor := &MockExecutor{RunFunc: func(ctx context.Context, task model.Task) (TaskResult, error) {
		return TaskResult{Task: task.Name, Result: statemachine.Result{ExitCode: 2}}, nil
	}}

	result, err := NewSession(executor, nil).Run(context.Background(), sessionConfig(), "test", false)

	require.NoError(t, err)
	assert.Equal(t, []string{"build"}, executor.Ran)
	assert.Equal(t, 2, result.ExitCode())
}

func TestSession_StopsAtFailedTask(t *testing.T) {
	executor := &MockExecutor{RunFunc: func(ctx context.Context, task model.Task) (TaskResult, error) {
		return TaskResult{Task: task.Name, Result: statemachine.Result{ExitCode: -1, Failed: true, FailureMessage: "boom"}}, nil
	}}

	result, err := NewSession(executor, nil).Run(context.Background(), sessionConfig(), "test", false)

	require.NoError(t, err)
	assert.Equal(t, []string{"build"}, executor.Ran)
	assert.Equal(t, -1, result.ExitCode())
}

func TestSession_DoesNotStartTasksAfterInterrupt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	executor := &MockExecutor{RunFunc: func(ctx context.Context, task model.Task) (TaskResult, error) {
		cancel()
		return TaskResult{Task: task.Name}, nil
	}}

	_, err := NewSession(executor, nil).Run(ctx, sessionConfig(), "test", false)

	require.NoError(t, err)
	assert.Equal(t, []string{"build"}, executor.Ran)
}

func TestSession_PropagatesErrors(t *testing.T) {
	planErr := errors.New("cycle")
	executor := &MockExecutor{RunFunc: func(ctx context.Context, task model.Task) (TaskResult, error) {
		return TaskResult{}, planErr
	}}

	_, err := NewSession(executor, nil).Run(context.Background(), sessionConfig(), "build", false)
	assert.ErrorIs(t, err, planErr)

	_, err = NewSession(executor, nil).Run(context.Background(), sessionConfig(), "deploy", false)
	var prereqErr *PrerequisiteError
	assert.ErrorAs(t, err, &prereqErr)
}

func TestTaskResult_Code(t *testing.T) {
	tests := []struct {
		name   string
		result TaskResult
		want   int
	}{
		{name: "exit code", result: TaskResult{Result: statemachine.Result{ExitCode: 3}}, want: 3},
		{name: "skipped", result: TaskResult{Skipped: true, Result: statemachine.Result{ExitCode: -1}}, want: 0},
		{name: "failed", result: TaskResult{Result: statemachine.Result{ExitCode: 0, Failed: true}}, want: -1},
		{name: "cleanup failed", result: TaskResult{Result: statemachine.Result{CleanupFailed: true}}, want: -1},
		{name: "resources left", result: TaskResult{ResourcesLeft: true}, want: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.result.Code())
		})
	}
}
