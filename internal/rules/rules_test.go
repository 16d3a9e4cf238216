package rules

import (
	"testing"

	"taskplane/internal/events"
	"taskplane/internal/model"
	"taskplane/internal/steps"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	builtApp = model.Container{Name: "app", Image: model.ImageSource{Build: &model.BuildSource{Directory: "./app"}}}
	pulledDB = model.Container{Name: "db", Image: model.ImageSource{Pull: "postgres:15"}}
)

func evaluate(t *testing.T, rule StepRule, past ...events.TaskEvent) (steps.TaskStep, bool) {
	t.Helper()
	return Evaluate(rule, events.NewLog(past...))
}

func TestEvaluate_ImageAndNetworkRulesAreAlwaysReady(t *testing.T) {
	step, ok := evaluate(t, BuildImage{Container: "app", Source: *builtApp.Image.Build, Tag: "proj-app"})
	require.True(t, ok)
	assert.Equal(t, steps.BuildImage{Container: "app", Source: *builtApp.Image.Build, Tag: "proj-app"}, step)

	step, ok = evaluate(t, PullImage{Reference: "postgres:15"})
	require.True(t, ok)
	assert.Equal(t, steps.PullImage{Reference: "postgres:15"}, step)

	step, ok = evaluate(t, CreateTaskNetwork{})
	require.True(t, ok)
	assert.Equal(t, steps.CreateTaskNetwork{}, step)
}

func TestEvaluate_CreateContainer(t *testing.T) {
	t.Run("waits for the built image and the network", func(t *testing.T) {
		rule := CreateContainer{Container: builtApp}

		_, ok := evaluate(t, rule, events.NetworkCreated{Network: "net"})
		assert.False(t, ok)

		_, ok = evaluate(t, rule, events.ImageBuilt{Container: "app", Image: "sha256:1"})
		assert.False(t, ok)

		step, ok := evaluate(t, rule,
			events.ImageBuilt{Container: "app", Image: "sha256:1"},
			events.NetworkCreated{Network: "net"},
		)
		require.True(t, ok)
		assert.Equal(t, steps.CreateContainer{Container: builtApp, Image: "sha256:1", Network: "net"}, step)
	})

	t.Run("uses the pulled image for pull sources", func(t *testing.T) {
		rule := CreateContainer{Container: pulledDB}

		_, ok := evaluate(t, rule,
			events.ImageBuilt{Container: "db", Image: "sha256:wrong"},
			events.NetworkCreated{Network: "net"},
		)
		assert.False(t, ok)

		step, ok := evaluate(t, rule,
			events.ImagePulled{Reference: "postgres:15", Image: "sha256:pg"},
			events.NetworkCreated{Network: "net"},
		)
		require.True(t, ok)
		assert.Equal(t, "sha256:pg", step.(steps.CreateContainer).Image)
	})
}

func TestEvaluate_StartAndRunContainer(t *testing.T) {
	start := StartContainer{Container: pulledDB}
	run := RunContainer{Container: builtApp, Dependencies: []string{"db"}}

	_, ok := evaluate(t, start)
	assert.False(t, ok, "not created yet")

	step, ok := evaluate(t, start, events.ContainerCreated{Container: "db", ContainerID: "db-id"})
	require.True(t, ok)
	assert.Equal(t, steps.StartContainer{Container: pulledDB, ContainerID: "db-id"}, step)

	created := events.ContainerCreated{Container: "app", ContainerID: "app-id"}

	_, ok = evaluate(t, run, created, events.ContainerStarted{Container: "db"})
	assert.False(t, ok, "dependency started but not healthy")

	step, ok = evaluate(t, run, created, events.ContainerStarted{Container: "db"}, events.ContainerBecameHealthy{Container: "db"})
	require.True(t, ok)
	assert.Equal(t, steps.RunContainer{Container: builtApp, ContainerID: "app-id"}, step)
}

func TestEvaluate_WaitForHealthy(t *testing.T) {
	rule := WaitForContainerToBecomeHealthy{Container: "db"}

	_, ok := evaluate(t, rule, events.ContainerCreated{Container: "db", ContainerID: "db-id"})
	assert.False(t, ok)

	step, ok := evaluate(t, rule,
		events.ContainerCreated{Container: "db", ContainerID: "db-id"},
		events.ContainerStarted{Container: "db"},
	)
	require.True(t, ok)
	assert.Equal(t, steps.WaitForContainerToBecomeHealthy{Container: "db", ContainerID: "db-id"}, step)
}

func TestEvaluate_StopContainer(t *testing.T) {
	rule := StopContainer{Container: "db", ContainerID: "db-id", StopAfter: []string{"app"}}

	_, ok := evaluate(t, rule)
	assert.False(t, ok)

	_, ok = evaluate(t, rule, events.ContainerStopped{Container: "other"})
	assert.False(t, ok)

	step, ok := evaluate(t, rule, events.ContainerStopped{Container: "app"})
	require.True(t, ok)
	assert.Equal(t, steps.StopContainer{Container: "db", ContainerID: "db-id"}, step)

	rule.TaskAborting = true
	_, ok = evaluate(t, rule)
	assert.True(t, ok, "order is not enforced while aborting")
}

func TestEvaluate_RemoveContainer(t *testing.T) {
	started := RemoveContainer{Container: "db", ContainerID: "db-id", WasStarted: true}

	_, ok := evaluate(t, started, events.ContainerStarted{Container: "db"})
	assert.False(t, ok)

	step, ok := evaluate(t, started, events.ContainerStopped{Container: "db"})
	require.True(t, ok)
	assert.Equal(t, steps.RemoveContainer{Container: "db", ContainerID: "db-id"}, step)

	neverStarted := RemoveContainer{Container: "db", ContainerID: "db-id"}
	_, ok = evaluate(t, neverStarted)
	assert.True(t, ok)
}

func TestEvaluate_DeleteTaskNetwork(t *testing.T) {
	rule := DeleteTaskNetwork{Network: "net", Containers: []string{"app", "db"}}

	_, ok := evaluate(t, rule, events.ContainerRemoved{Container: "db"})
	assert.False(t, ok)

	step, ok := evaluate(t, rule, events.ContainerRemoved{Container: "db"}, events.ContainerRemoved{Container: "app"})
	require.True(t, ok)
	assert.Equal(t, steps.DeleteTaskNetwork{Network: "net"}, step)

	_, ok = evaluate(t, DeleteTaskNetwork{Network: "net"})
	assert.True(t, ok, "no containers were created")
}

func TestEvaluate_DeleteTemporaryResources(t *testing.T) {
	owned := DeleteTemporaryDirectory{Path: "/tmp/scratch", Owner: "app"}

	_, ok := evaluate(t, owned, events.ContainerStopped{Container: "app"})
	assert.False(t, ok)

	step, ok := evaluate(t, owned, events.ContainerRemoved{Container: "app"})
	require.True(t, ok)
	assert.Equal(t, steps.DeleteTemporaryDirectory{Path: "/tmp/scratch"}, step)

	step, ok = evaluate(t, DeleteTemporaryFile{Path: "/tmp/passwd"})
	require.True(t, ok)
	assert.Equal(t, steps.DeleteTemporaryFile{Path: "/tmp/passwd"}, step)
}

func TestEvaluate_IsPure(t *testing.T) {
	past := events.NewLog(events.ContainerStopped{Container: "app"})
	rule := StopContainer{Container: "db", ContainerID: "db-id", StopAfter: []string{"app"}}

	first, ok1 := Evaluate(rule, past)
	second, ok2 := Evaluate(rule, past)

	assert.Equal(t, ok1, ok2)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, past.Len())
}
