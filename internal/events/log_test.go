package events

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLog_AddAndQuery(t *testing.T) {
	log := NewLog()

	assert.True(t, log.Add(ContainerCreated{Container: "db", ContainerID: "abc"}))
	assert.True(t, log.Add(ContainerStarted{Container: "db"}))
	assert.True(t, log.Add(NetworkCreated{Network: "net-1"}))

	assert.True(t, log.Has(KindContainerCreated, "db"))
	assert.False(t, log.Has(KindContainerCreated, "app"))
	assert.True(t, log.Has(KindNetworkCreated, ""))

	created, ok := Find[ContainerCreated](log, "db")
	require.True(t, ok)
	assert.Equal(t, "abc", created.ContainerID)

	_, ok = Find[ContainerRemoved](log, "db")
	assert.False(t, ok)

	assert.Equal(t, 3, log.Len())
	assert.Equal(t, []TaskEvent{
		ContainerCreated{Container: "db", ContainerID: "abc"},
		ContainerStarted{Container: "db"},
		NetworkCreated{Network: "net-1"},
	}, log.Events())
}

func TestLog_DuplicateEventsAreIgnored(t *testing.T) {
	log := NewLog(ContainerStopped{Container: "db"})

	assert.False(t, log.Add(ContainerStopped{Container: "db"}))
	assert.Equal(t, 1, log.Len())
	assert.Len(t, log.OfKind(KindContainerStopped), 1)
}

func TestLog_AllPreservesOrder(t *testing.T) {
	log := NewLog(
		TemporaryFileCreated{Container: "app", Path: "/tmp/b"},
		ContainerStarted{Container: "app"},
		TemporaryFileCreated{Container: "app", Path: "/tmp/a"},
	)

	files := All[TemporaryFileCreated](log)
	require.Len(t, files, 2)
	assert.Equal(t, "/tmp/b", files[0].Path)
	assert.Equal(t, "/tmp/a", files[1].Path)
}

func TestLog_ConcurrentAdds(t *testing.T) {
	log := NewLog()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			log.Add(RunningContainerExited{Container: "app", ExitCode: int64(n)})
			log.Add(ContainerStopped{Container: "shared"})
		}(i)
	}
	wg.Wait()

	assert.Len(t, log.OfKind(KindRunningContainerExited), 50)
	assert.Len(t, log.OfKind(KindContainerStopped), 1)
	assert.Equal(t, 51, log.Len())
}

func TestIsFailure(t *testing.T) {
	assert.True(t, IsFailure(ContainerCreationFailed{Container: "app", Reason: "disk full"}))
	assert.True(t, IsFailure(UserInterruptedExecution{}))
	assert.False(t, IsFailure(ContainerCreated{Container: "app"}))

	failure := ContainerCreationFailed{Container: "app", Reason: "disk full"}
	assert.Equal(t, "Could not create container 'app': disk full", failure.Message())
	assert.Empty(t, UserInterruptedExecution{}.Message())
}
