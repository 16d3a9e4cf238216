package execution

import (
	"errors"
	"testing"

	"taskplane/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func configWithTasks(tasks ...model.Task) model.Configuration {
	cfg := model.Configuration{ProjectName: "shop", Tasks: model.TaskMap{}}
	for _, t := range tasks {
		cfg.Tasks[t.Name] = t
	}
	return cfg
}

func taskNames(tasks []model.Task) []string {
	names := make([]string, len(tasks))
	for i, t := range tasks {
		names[i] = t.Name
	}
	return names
}

func TestResolveExecutionOrder(t *testing.T) {
	cfg := configWithTasks(
		model.Task{Name: "build"},
		model.Task{Name: "lint"},
		model.Task{Name: "unit", Prerequisites: []string{"build"}},
		model.Task{Name: "test", Prerequisites: []string{"lint", "unit"}},
	)

	tests := []struct {
		name string
		task string
		skip bool
		want []string
	}{
		{name: "no prerequisites", task: "build", want: []string{"build"}},
		{name: "chain", task: "unit", want: []string{"build", "unit"}},
		{name: "prerequisites in declared order", task: "test", want: []string{"lint", "build", "unit", "test"}},
		{name: "skipped prerequisites", task: "test", skip: true, want: []string{"test"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order, err := ResolveExecutionOrder(cfg, tt.task, tt.skip)
			require.NoError(t, err)
			assert.Equal(t, tt.want, taskNames(order))
		})
	}
}

func TestResolveExecutionOrder_SharedPrerequisiteRunsOnce(t *testing.T) {
	cfg := configWithTasks(
		model.Task{Name: "setup"},
		model.Task{Name: "a", Prerequisites: []string{"setup"}},
		model.Task{Name: "b", Prerequisites: []string{"setup"}},
		model.Task{Name: "all", Prerequisites: []string{"a", "b"}},
	)

	order, err := ResolveExecutionOrder(cfg, "all", false)

	require.NoError(t, err)
	assert.Equal(t, []string{"setup", "a", "b", "all"}, taskNames(order))
}

func TestResolveExecutionOrder_Wildcards(t *testing.T) {
	cfg := configWithTasks(
		model.Task{Name: "lint:go"},
		model.Task{Name: "lint:yaml"},
		model.Task{Name: "lint.docs"},
		model.Task{Name: "check", Prerequisites: []string{"lint:*"}},
		model.Task{Name: "nothing", Prerequisites: []string{"deploy:*"}},
	)

	order, err := ResolveExecutionOrder(cfg, "check", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"lint:go", "lint:yaml", "check"}, taskNames(order))

	order, err = ResolveExecutionOrder(cfg, "nothing", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"nothing"}, taskNames(order))
}

func TestResolveExecutionOrder_OnlyStarIsSpecial(t *testing.T) {
	cfg := configWithTasks(
		model.Task{Name: "build:web/app"},
		model.Task{Name: "build?"},
		model.Task{Name: "buildx"},
		model.Task{Name: "all", Prerequisites: []string{"build?*"}},
		model.Task{Name: "web", Prerequisites: []string{"build*app"}},
	)

	order, err := ResolveExecutionOrder(cfg, "all", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"build?", "all"}, taskNames(order))

	order, err = ResolveExecutionOrder(cfg, "web", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"build:web/app", "web"}, taskNames(order))
}

func TestResolveExecutionOrder_Errors(t *testing.T) {
	cfg := configWithTasks(
		model.Task{Name: "a", Prerequisites: []string{"b"}},
		model.Task{Name: "b", Prerequisites: []string{"a"}},
		model.Task{Name: "x", Prerequisites: []string{"y"}},
		model.Task{Name: "y", Prerequisites: []string{"z"}},
		model.Task{Name: "z", Prerequisites: []string{"x"}},
		model.Task{Name: "broken", Prerequisites: []string{"missing"}},
		model.Task{Name: "self", Prerequisites: []string{"se*"}},
	)

	tests := []struct {
		task string
		want string
	}{
		{task: "unknown", want: "The task 'unknown' does not exist."},
		{task: "broken", want: "The task 'missing' given as a prerequisite of 'broken' does not exist."},
		{task: "a", want: "There is a dependency cycle between tasks: task 'a' has 'b' as a prerequisite, which has 'a' as a prerequisite."},
		{task: "x", want: "There is a dependency cycle between tasks: task 'x' has 'y' as a prerequisite, which has 'z' as a prerequisite, which has 'x' as a prerequisite."},
		{task: "self", want: "There is a dependency cycle between tasks: task 'self' has 'self' as a prerequisite."},
	}

	for _, tt := range tests {
		t.Run(tt.task, func(t *testing.T) {
			_, err := ResolveExecutionOrder(cfg, tt.task, false)
			require.Error(t, err)

			var prereqErr *PrerequisiteError
			require.True(t, errors.As(err, &prereqErr))
			assert.Equal(t, tt.want, err.Error())
		})
	}
}
