package rules

import (
	"testing"

	"taskplane/internal/events"

	"github.com/stretchr/testify/assert"
)

func TestManualCleanup(t *testing.T) {
	tests := []struct {
		name string
		rule StepRule
		os   OperatingSystem
		want Instruction
	}{
		{
			name: "remove container",
			rule: RemoveContainer{Container: "db", ContainerID: "abc123"},
			os:   Linux,
			want: Instruction{SortOrder: 1, Text: "docker rm --force --volumes abc123"},
		},
		{
			name: "remove container on windows",
			rule: RemoveContainer{Container: "db", ContainerID: "abc123"},
			os:   Windows,
			want: Instruction{SortOrder: 1, Text: "docker rm --force --volumes abc123"},
		},
		{
			name: "delete network",
			rule: DeleteTaskNetwork{Network: "net-1"},
			os:   MacOS,
			want: Instruction{SortOrder: 3, Text: "docker network rm net-1"},
		},
		{
			name: "delete directory",
			rule: DeleteTemporaryDirectory{Path: "/tmp/scratch"},
			os:   Linux,
			want: Instruction{SortOrder: 2, Text: "rm -rf /tmp/scratch"},
		},
		{
			name: "delete directory on windows",
			rule: DeleteTemporaryDirectory{Path: `C:\tmp\scratch`},
			os:   Windows,
			want: Instruction{SortOrder: 2, Text: `Remove-Item -Recurse C:\tmp\scratch (if using PowerShell) or rmdir /s /q C:\tmp\scratch (if using Command Prompt)`},
		},
		{
			name: "delete file",
			rule: DeleteTemporaryFile{Path: "/tmp/passwd"},
			os:   Linux,
			want: Instruction{SortOrder: 2, Text: "rm /tmp/passwd"},
		},
		{
			name: "delete file on windows",
			rule: DeleteTemporaryFile{Path: `C:\tmp\passwd`},
			os:   Windows,
			want: Instruction{SortOrder: 2, Text: `Remove-Item C:\tmp\passwd (if using PowerShell) or del C:\tmp\passwd (if using Command Prompt)`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ManualCleanup(tt.rule, tt.os)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestManualCleanup_StopHasNoInstruction(t *testing.T) {
	_, ok := ManualCleanup(StopContainer{Container: "db", ContainerID: "abc"}, Linux)
	assert.False(t, ok)

	_, ok = ManualCleanup(CreateTaskNetwork{}, Linux)
	assert.False(t, ok)
}

func TestOutstandingInstructions(t *testing.T) {
	cleanup := []StepRule{
		DeleteTaskNetwork{Network: "net", Containers: []string{"app", "db"}},
		StopContainer{Container: "db", ContainerID: "db-id"},
		RemoveContainer{Container: "db", ContainerID: "db-id", WasStarted: true},
		RemoveContainer{Container: "app", ContainerID: "app-id"},
		DeleteTemporaryFile{Path: "/tmp/passwd", Owner: "app"},
	}
	past := events.NewLog(
		events.ContainerStopped{Container: "db"},
		events.ContainerRemoved{Container: "db"},
		events.ContainerRemovalFailed{Container: "app", Reason: "ECONNRESET"},
	)

	got := OutstandingInstructions(cleanup, past, Linux)

	assert.Equal(t, []Instruction{
		{SortOrder: 1, Text: "docker rm --force --volumes app-id"},
		{SortOrder: 2, Text: "rm /tmp/passwd"},
		{SortOrder: 3, Text: "docker network rm net"},
	}, got)
}

func TestIsCleanup(t *testing.T) {
	assert.True(t, IsCleanup(StopContainer{}))
	assert.True(t, IsCleanup(DeleteTemporaryFile{}))
	assert.False(t, IsCleanup(CreateContainer{}))
	assert.False(t, IsCleanup(WaitForContainerToBecomeHealthy{}))
}
