package rules

import (
	"fmt"
	"sort"

	"taskplane/internal/events"
)

// OperatingSystem selects the shell syntax of manual cleanup instructions.
type OperatingSystem string

const (
	Linux   OperatingSystem = "linux"
	MacOS   OperatingSystem = "darwin"
	Windows OperatingSystem = "windows"
)

// Manual cleanup sort order. Containers first, then temporary files and directories
// they mounted, then the network they were attached to.
const (
	SortOrderRemoveContainers     = 1
	SortOrderDeleteTemporaryFiles = 2
	SortOrderDeleteTaskNetwork    = 3
)

// Instruction is one command a user can run to clean up by hand.
type Instruction struct {
	SortOrder int
	Text      string
}

// IsCleanup reports whether the rule belongs to the cleanup stage.
func IsCleanup(rule StepRule) bool {
	switch rule.(type) {
	case StopContainer, RemoveContainer, DeleteTaskNetwork, DeleteTemporaryFile, DeleteTemporaryDirectory:
		return true
	default:
		return false
	}
}

// ManualCleanup returns the command that does by hand what the rule's step would have
// done. Stopping has no instruction: removal with --force covers it.
func ManualCleanup(rule StepRule, os OperatingSystem) (Instruction, bool) {
	switch r := rule.(type) {
	case RemoveContainer:
		return Instruction{
			SortOrder: SortOrderRemoveContainers,
			Text:      fmt.Sprintf("docker rm --force --volumes %s", r.ContainerID),
		}, true

	case DeleteTemporaryFile:
		text := fmt.Sprintf("rm %s", r.Path)
		if os == Windows {
			text = fmt.Sprintf("Remove-Item %s (if using PowerShell) or del %s (if using Command Prompt)", r.Path, r.Path)
		}
		return Instruction{SortOrder: SortOrderDeleteTemporaryFiles, Text: text}, true

	case DeleteTemporaryDirectory:
		text := fmt.Sprintf("rm -rf %s", r.Path)
		if os == Windows {
			text = fmt.Sprintf("Remove-Item -Recurse %s (if using PowerShell) or rmdir /s /q %s (if using Command Prompt)", r.Path, r.Path)
		}
		return Instruction{SortOrder: SortOrderDeleteTemporaryFiles, Text: text}, true

	case DeleteTaskNetwork:
		return Instruction{
			SortOrder: SortOrderDeleteTaskNetwork,
			Text:      fmt.Sprintf("docker network rm %s", r.Network),
		}, true
	}

	return Instruction{}, false
}

// Completed reports whether the resource a cleanup rule is responsible for has been
// cleaned up according to past.
func Completed(rule StepRule, past events.Set) bool {
	switch r := rule.(type) {
	case StopContainer:
		return past.Has(events.KindContainerStopped, r.Container)
	case RemoveContainer:
		return past.Has(events.KindContainerRemoved, r.Container)
	case DeleteTaskNetwork:
		return past.Has(events.KindNetworkDeleted, "")
	case DeleteTemporaryFile:
		return past.Has(events.KindTemporaryFileDeleted, r.Path)
	case DeleteTemporaryDirectory:
		return past.Has(events.KindTemporaryDirectoryDeleted, r.Path)
	default:
		return false
	}
}

// OutstandingInstructions returns, in a stable order, the manual instructions for every
// cleanup rule whose resource past does not show as cleaned up.
func OutstandingInstructions(cleanup []StepRule, past events.Set, os OperatingSystem) []Instruction {
	var out []Instruction
	for _, rule := range cleanup {
		if Completed(rule, past) {
			continue
		}
		if instruction, ok := ManualCleanup(rule, os); ok {
			out = append(out, instruction)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].Text < out[j].Text
	})
	return out
}
